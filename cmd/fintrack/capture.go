package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"fintrack/internal/capture"
	"fintrack/internal/cli"
	"fintrack/internal/ledger"
	"fintrack/internal/model"
)

func captureCmd() *cobra.Command {
	var submit bool

	cmd := &cobra.Command{
		Use:   "capture [text]",
		Short: "Parse a pasted bank message into a draft transaction",
		Long: `Turn a pasted bank SMS or notification into a pre-filled transaction.
Reads the text from the argument, or from stdin when no argument is given.
The draft is printed for review; pass --submit to log it directly.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var raw string
			if len(args) == 1 {
				raw = args[0]
			} else {
				data, err := io.ReadAll(os.Stdin)
				if err != nil {
					return fmt.Errorf("failed to read stdin: %w", err)
				}
				raw = strings.TrimSpace(string(data))
			}

			store, kv, err := openLedger(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = kv.Close() }()

			client, err := newIntelClient(ctx)
			if err != nil {
				return err
			}

			assist := capture.New(client)
			draft, err := assist.Capture(ctx, raw, store.Cards())
			if err != nil {
				return fmt.Errorf("could not parse that text: %w", err)
			}

			cardName := draft.CardID
			if card, cardErr := store.Card(draft.CardID); cardErr == nil {
				cardName = card.DisplayName()
			}

			fmt.Println(cli.TitleStyle.Render("Draft transaction"))
			fmt.Printf("  %s %s\n", cli.BoldStyle.Render("Amount:"), cli.Rupee(draft.Amount))
			fmt.Printf("  %s %s\n", cli.BoldStyle.Render("Date:"), draft.Date)
			fmt.Printf("  %s %s\n", cli.BoldStyle.Render("Description:"), draft.Description)
			fmt.Printf("  %s %s\n", cli.BoldStyle.Render("Category:"), draft.Category)
			fmt.Printf("  %s %s\n", cli.BoldStyle.Render("Card:"), cardName)

			if !submit {
				fmt.Println(cli.SubtleStyle.Render("\nRe-run with --submit to log it, or use 'fintrack tx add' to adjust first."))
				return nil
			}

			if draft.CardID == "" {
				return fmt.Errorf("no card to attach this to; add a card first")
			}

			tx := model.Transaction{
				ID:          ledger.NewID(),
				CardID:      draft.CardID,
				Amount:      draft.Amount,
				Date:        draft.Date,
				Description: draft.Description,
				Category:    draft.Category,
			}
			if err := store.AddTransaction(ctx, tx); err != nil {
				return fmt.Errorf("failed to add transaction: %w", err)
			}
			fmt.Println(cli.SuccessStyle.Render("\n✓ Logged " + cli.Rupee(tx.Amount) + " on " + cardName))
			return nil
		},
	}

	cmd.Flags().BoolVar(&submit, "submit", false, "log the draft immediately")

	return cmd
}
