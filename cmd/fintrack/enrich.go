package main

import (
	"fmt"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"fintrack/internal/cli"
	"fintrack/internal/enrich"
	"fintrack/internal/model"
)

func enrichCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "enrich",
		Short: "Fetch public benefits and milestones for cards that need it",
		Long: `Run the enrichment scheduler until the backlog is drained. Only each
card's bank name and variant name are sent to the lookup service. Cards whose
lookup fails stay failed; edit their bank or variant name to retry.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, kv, err := openLedger(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = kv.Close() }()

			backlog := enrich.Reconcile(store.Cards(), nil)
			if len(backlog) == 0 {
				fmt.Println(cli.SubtleStyle.Render("Nothing to enrich. Cards need both a bank name and a variant name."))
				return nil
			}

			client, err := newIntelClient(ctx)
			if err != nil {
				return err
			}

			bar := progressbar.NewOptions(len(backlog),
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowCount(),
				progressbar.OptionSetWidth(40),
				progressbar.OptionSetDescription("[cyan][bold]Fetching card intelligence...[reset]"),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "[green]=[reset]",
					SaucerHead:    "[green]>[reset]",
					SaucerPadding: " ",
					BarStart:      "[",
					BarEnd:        "]",
				}))

			sched := enrich.New(store, client)
			sched.Start(ctx)

			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(200 * time.Millisecond):
				}

				remaining := 0
				for _, c := range store.Cards() {
					if c.SyncEligible() || c.SyncStatus == model.StatusSyncing {
						remaining++
					}
				}
				_ = bar.Set(len(backlog) - remaining)

				if remaining == 0 && !sched.Busy() {
					break
				}
			}
			sched.Wait()
			_ = bar.Finish()
			fmt.Println()

			var completed, failed int
			for _, c := range store.Cards() {
				switch c.SyncStatus {
				case model.StatusCompleted:
					completed++
				case model.StatusFailed:
					failed++
				}
			}
			fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("✓ %d card(s) enriched", completed)))
			if failed > 0 {
				fmt.Println(cli.WarningStyle.Render(fmt.Sprintf("  %d card(s) failed; edit bank/variant to retry", failed)))
			}
			return nil
		},
	}
}
