package main

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"fintrack/internal/cli"
	"fintrack/internal/common"
	"fintrack/internal/ledger"
	"fintrack/internal/model"
)

func txCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tx",
		Short: "Manage transactions",
	}

	cmd.AddCommand(addTxCmd())
	cmd.AddCommand(listTxCmd())
	cmd.AddCommand(editTxCmd())
	cmd.AddCommand(removeTxCmd())

	return cmd
}

func addTxCmd() *cobra.Command {
	var (
		cardArg     string
		amount      float64
		date        string
		description string
		category    string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Log a transaction against a card",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, kv, err := openLedger(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = kv.Close() }()

			card, err := resolveCardArg(store, cardArg)
			if err != nil {
				return err
			}

			if date == "" {
				date = today()
			}

			tx := model.Transaction{
				ID:          ledger.NewID(),
				CardID:      card.ID,
				Amount:      amount,
				Date:        date,
				Description: description,
				Category:    model.ParseCategory(category),
			}

			if err := store.AddTransaction(ctx, tx); err != nil {
				return fmt.Errorf("failed to add transaction: %w", err)
			}

			updated, _ := store.Card(card.ID)
			fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("✓ Logged %s on %s", cli.Rupee(tx.Amount), card.DisplayName())))
			fmt.Println(cli.SubtleStyle.Render(fmt.Sprintf("  balance now %s", cli.Rupee(updated.Balance))))
			return nil
		},
	}

	cmd.Flags().StringVar(&cardArg, "card", "", "card id or id prefix (required)")
	cmd.Flags().Float64Var(&amount, "amount", 0, "amount; positive is a purchase (required)")
	cmd.Flags().StringVar(&date, "date", "", "ISO date, defaults to today")
	cmd.Flags().StringVar(&description, "desc", "", "description or merchant")
	cmd.Flags().StringVar(&category, "category", string(model.CategoryOther), "spend category")
	_ = cmd.MarkFlagRequired("card")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func listTxCmd() *cobra.Command {
	var cardArg string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions, most recent first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, kv, err := openLedger(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = kv.Close() }()

			txns := store.Transactions()
			if cardArg != "" {
				card, err := resolveCardArg(store, cardArg)
				if err != nil {
					return err
				}
				filtered := txns[:0]
				for _, t := range txns {
					if t.CardID == card.ID {
						filtered = append(filtered, t)
					}
				}
				txns = filtered
			}

			if len(txns) == 0 {
				fmt.Println(cli.SubtleStyle.Render("No transactions yet."))
				return nil
			}

			// Presentation ordering only; the store keeps insertion order.
			sort.SliceStable(txns, func(i, j int) bool {
				return txns[i].Date > txns[j].Date
			})

			cardNames := make(map[string]string)
			for _, c := range store.Cards() {
				cardNames[c.ID] = c.DisplayName()
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer func() { _ = w.Flush() }()

			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				cli.BoldStyle.Render("ID"),
				cli.BoldStyle.Render("Date"),
				cli.BoldStyle.Render("Card"),
				cli.BoldStyle.Render("Amount"),
				cli.BoldStyle.Render("Category"),
				cli.BoldStyle.Render("Description"))
			for _, t := range txns {
				name := cardNames[t.CardID]
				if name == "" {
					name = shortID(t.CardID)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					shortID(t.ID), t.Day(), name, cli.Rupee(t.Amount), t.Category, t.Description)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&cardArg, "card", "", "filter to one card")

	return cmd
}

func editTxCmd() *cobra.Command {
	var (
		cardArg     string
		amount      float64
		date        string
		description string
		category    string
	)

	cmd := &cobra.Command{
		Use:   "edit <tx-id>",
		Short: "Edit a transaction",
		Long: `Edit a transaction's amount, date, description, category, or card.
Card balances are adjusted automatically, including when the transaction
moves between cards.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, kv, err := openLedger(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = kv.Close() }()

			tx, err := resolveTxArg(store, args[0])
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("card") {
				card, err := resolveCardArg(store, cardArg)
				if err != nil {
					return err
				}
				tx.CardID = card.ID
			}
			if flags.Changed("amount") {
				tx.Amount = amount
			}
			if flags.Changed("date") {
				tx.Date = date
			}
			if flags.Changed("desc") {
				tx.Description = description
			}
			if flags.Changed("category") {
				tx.Category = model.ParseCategory(category)
			}

			if err := store.UpdateTransaction(ctx, tx); err != nil {
				return fmt.Errorf("failed to update transaction: %w", err)
			}

			fmt.Println(cli.SuccessStyle.Render("✓ Updated transaction " + shortID(tx.ID)))
			return nil
		},
	}

	cmd.Flags().StringVar(&cardArg, "card", "", "reassign to this card")
	cmd.Flags().Float64Var(&amount, "amount", 0, "new amount")
	cmd.Flags().StringVar(&date, "date", "", "new ISO date")
	cmd.Flags().StringVar(&description, "desc", "", "new description")
	cmd.Flags().StringVar(&category, "category", "", "new category")

	return cmd
}

func removeTxCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <tx-id>",
		Short: "Remove a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, kv, err := openLedger(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = kv.Close() }()

			tx, err := resolveTxArg(store, args[0])
			if err != nil {
				return err
			}

			if err := store.RemoveTransaction(ctx, tx.ID); err != nil {
				return fmt.Errorf("failed to remove transaction: %w", err)
			}

			fmt.Println(cli.SuccessStyle.Render("✓ Removed transaction " + shortID(tx.ID)))
			return nil
		},
	}
}

// resolveTxArg finds a transaction by full id or unambiguous id prefix.
func resolveTxArg(store *ledger.Store, arg string) (model.Transaction, error) {
	if tx, err := store.Transaction(arg); err == nil {
		return tx, nil
	}

	var match model.Transaction
	found := 0
	for _, t := range store.Transactions() {
		if strings.HasPrefix(t.ID, arg) {
			match = t
			found++
		}
	}
	switch found {
	case 1:
		return match, nil
	case 0:
		return model.Transaction{}, common.NewUserError(fmt.Sprintf("no transaction matches %q", arg), common.ErrNotFound)
	default:
		return model.Transaction{}, common.NewUserError(fmt.Sprintf("%q matches %d transactions, use more of the id", arg, found), nil)
	}
}
