package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"fintrack/internal/analytics"
	"fintrack/internal/cli"
	"fintrack/internal/model"
)

func rewardsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rewards",
		Short: "Show fetched card benefits and milestone progress",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, kv, err := openLedger(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = kv.Close() }()

			cards := store.Cards()
			if len(cards) == 0 {
				fmt.Println(cli.SubtleStyle.Render("Wallet is empty. Add a card to see auto-fetched offers here."))
				return nil
			}

			txns := store.Transactions()
			now := time.Now()

			anyMilestones := false
			for _, card := range cards {
				fmt.Println(cli.TitleStyle.Render(card.DisplayName()))
				fmt.Println(cli.SubtleStyle.Render("  sync: " + syncSummary(card)))

				if len(card.Benefits) > 0 {
					fmt.Println(cli.BoldStyle.Render("  Benefits"))
					for _, b := range card.Benefits {
						fmt.Println("   • " + b)
					}
				}

				progress := analytics.MilestonesFor(card, txns, now)
				if len(progress) > 0 {
					anyMilestones = true
					fmt.Println(cli.BoldStyle.Render("  Milestones (this year)"))
					for _, p := range progress {
						fmt.Printf("   %s %5.1f%%  %s → %s\n",
							cli.ProgressBarText(p.Progress, 20),
							p.Progress,
							p.Milestone.Label,
							p.Milestone.Reward)
					}
				}

				if len(card.Sources) > 0 {
					fmt.Println(cli.SubtleStyle.Render("  Sources"))
					for _, s := range card.Sources {
						fmt.Println(cli.SubtleStyle.Render("   " + s.Title + " - " + s.URI))
					}
				}
				fmt.Println()
			}

			if !anyMilestones {
				fmt.Println(cli.SubtleStyle.Render("No milestone data found for your cards. Run 'fintrack enrich' to fetch it."))
			}
			return nil
		},
	}
}

func syncSummary(card model.Card) string {
	switch card.SyncStatus {
	case model.StatusCompleted:
		if card.LastSynced != "" {
			return "completed at " + card.LastSynced
		}
		return "completed"
	case model.StatusSyncing:
		return "in progress"
	case model.StatusFailed:
		return "failed; edit the bank or variant name to retry"
	default:
		return "not yet fetched"
	}
}
