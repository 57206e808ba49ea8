package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"fintrack/internal/cli"
	"fintrack/internal/common"
	"fintrack/internal/ledger"
	"fintrack/internal/model"
)

func cardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "card",
		Short: "Manage your wallet of credit cards",
	}

	cmd.AddCommand(addCardCmd())
	cmd.AddCommand(listCardsCmd())
	cmd.AddCommand(editCardCmd())
	cmd.AddCommand(removeCardCmd())

	return cmd
}

func addCardCmd() *cobra.Command {
	var (
		bank      string
		variant   string
		network   string
		lastFour  string
		limit     float64
		balance   float64
		statement int
		due       int
		color     string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a new card",
		Long:  `Register a card with its bank, variant, network, limit, and opening balance.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, kv, err := openLedger(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = kv.Close() }()

			card := model.Card{
				ID:            ledger.NewID(),
				BankName:      bank,
				VariantName:   variant,
				Network:       model.ParseNetwork(network),
				LastFour:      lastFour,
				Limit:         limit,
				Balance:       balance,
				StatementDate: statement,
				DueDate:       due,
				Color:         color,
			}
			if card.Limit < 0 {
				return common.NewUserError("credit limit cannot be negative", nil)
			}
			if card.Balance < 0 {
				return common.NewUserError("balance cannot be negative", nil)
			}

			if err := store.AddCard(ctx, card); err != nil {
				return fmt.Errorf("failed to add card: %w", err)
			}

			fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("✓ Added %s (••%s)", card.DisplayName(), card.LastFour)))
			if card.SyncEligible() {
				fmt.Println(cli.SubtleStyle.Render("  Run 'fintrack enrich' to fetch public benefits and milestones."))
			}
			fmt.Println(cli.SubtleStyle.Render("  id: " + card.ID))
			return nil
		},
	}

	cmd.Flags().StringVar(&bank, "bank", "", "issuing bank name (required)")
	cmd.Flags().StringVar(&variant, "variant", "", "card variant name, e.g. \"Infinia Metal\"")
	cmd.Flags().StringVar(&network, "network", "Other", "card network (Visa, Mastercard, American Express, Discover, RuPay, Other)")
	cmd.Flags().StringVar(&lastFour, "last-four", "", "last four digits, display only")
	cmd.Flags().Float64Var(&limit, "limit", 0, "credit limit")
	cmd.Flags().Float64Var(&balance, "balance", 0, "opening balance")
	cmd.Flags().IntVar(&statement, "statement-day", 1, "statement day of month")
	cmd.Flags().IntVar(&due, "due-day", 15, "payment due day of month")
	cmd.Flags().StringVar(&color, "color", "", "display color token")
	_ = cmd.MarkFlagRequired("bank")

	return cmd
}

func listCardsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all cards",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, kv, err := openLedger(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = kv.Close() }()

			cards := store.Cards()
			if len(cards) == 0 {
				fmt.Println(cli.SubtleStyle.Render("Wallet is empty. Use 'fintrack card add' to register one."))
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer func() { _ = w.Flush() }()

			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				cli.BoldStyle.Render("ID"),
				cli.BoldStyle.Render("Card"),
				cli.BoldStyle.Render("Network"),
				cli.BoldStyle.Render("Last4"),
				cli.BoldStyle.Render("Balance"),
				cli.BoldStyle.Render("Limit"),
				cli.BoldStyle.Render("Sync"))
			for _, c := range cards {
				fmt.Fprintf(w, "%s\t%s\t%s\t••%s\t%s\t%s\t%s\n",
					shortID(c.ID),
					c.DisplayName(),
					c.Network,
					c.LastFour,
					cli.Rupee(c.Balance),
					cli.Rupee(c.Limit),
					renderSyncStatus(c.SyncStatus))
			}
			return nil
		},
	}
}

func editCardCmd() *cobra.Command {
	var (
		bank      string
		variant   string
		network   string
		lastFour  string
		limit     float64
		balance   float64
		statement int
		due       int
		color     string
	)

	cmd := &cobra.Command{
		Use:   "edit <card-id>",
		Short: "Edit a card's fields",
		Long: `Edit a card. Changing the bank or variant name resets its sync status so
public benefit data is fetched again.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, kv, err := openLedger(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = kv.Close() }()

			card, err := resolveCardArg(store, args[0])
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("bank") {
				card.BankName = bank
			}
			if flags.Changed("variant") {
				card.VariantName = variant
			}
			if flags.Changed("network") {
				card.Network = model.ParseNetwork(network)
			}
			if flags.Changed("last-four") {
				card.LastFour = lastFour
			}
			if flags.Changed("limit") {
				card.Limit = limit
			}
			if flags.Changed("balance") {
				card.Balance = balance
			}
			if flags.Changed("statement-day") {
				card.StatementDate = statement
			}
			if flags.Changed("due-day") {
				card.DueDate = due
			}
			if flags.Changed("color") {
				card.Color = color
			}

			if err := store.UpdateCard(ctx, card); err != nil {
				return fmt.Errorf("failed to update card: %w", err)
			}

			fmt.Println(cli.SuccessStyle.Render("✓ Updated " + card.DisplayName()))
			return nil
		},
	}

	cmd.Flags().StringVar(&bank, "bank", "", "issuing bank name")
	cmd.Flags().StringVar(&variant, "variant", "", "card variant name")
	cmd.Flags().StringVar(&network, "network", "", "card network")
	cmd.Flags().StringVar(&lastFour, "last-four", "", "last four digits")
	cmd.Flags().Float64Var(&limit, "limit", 0, "credit limit")
	cmd.Flags().Float64Var(&balance, "balance", 0, "current balance")
	cmd.Flags().IntVar(&statement, "statement-day", 0, "statement day of month")
	cmd.Flags().IntVar(&due, "due-day", 0, "payment due day of month")
	cmd.Flags().StringVar(&color, "color", "", "display color token")

	return cmd
}

func removeCardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <card-id>",
		Short: "Remove a card and all its transactions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, kv, err := openLedger(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = kv.Close() }()

			card, err := resolveCardArg(store, args[0])
			if err != nil {
				return err
			}

			if err := store.RemoveCard(ctx, card.ID); err != nil {
				return fmt.Errorf("failed to remove card: %w", err)
			}

			fmt.Println(cli.SuccessStyle.Render("✓ Removed " + card.DisplayName() + " and its transactions"))
			return nil
		},
	}
}

// resolveCardArg finds a card by full id or unambiguous id prefix.
func resolveCardArg(store *ledger.Store, arg string) (model.Card, error) {
	if card, err := store.Card(arg); err == nil {
		return card, nil
	}

	var match model.Card
	found := 0
	for _, c := range store.Cards() {
		if strings.HasPrefix(c.ID, arg) {
			match = c
			found++
		}
	}
	switch found {
	case 1:
		return match, nil
	case 0:
		return model.Card{}, common.NewUserError(fmt.Sprintf("no card matches %q", arg), common.ErrNotFound)
	default:
		return model.Card{}, common.NewUserError(fmt.Sprintf("%q matches %d cards, use more of the id", arg, found), nil)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func renderSyncStatus(s model.SyncStatus) string {
	switch s {
	case model.StatusCompleted:
		return cli.SuccessStyle.Render(string(s))
	case model.StatusFailed:
		return cli.ErrorStyle.Render(string(s))
	case model.StatusSyncing:
		return cli.WarningStyle.Render(string(s))
	case model.StatusIdle:
		return cli.SubtleStyle.Render(string(s))
	default:
		return cli.SubtleStyle.Render("idle")
	}
}
