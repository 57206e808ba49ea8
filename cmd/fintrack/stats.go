package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"fintrack/internal/analytics"
	"fintrack/internal/cli"
	"fintrack/internal/model"
)

func statsCmd() *cobra.Command {
	var cardArg string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show spend across periods, categories, and cards",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, kv, err := openLedger(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = kv.Close() }()

			cards := store.Cards()
			txns := store.Transactions()
			selected := txns
			scope := "all cards"
			if cardArg != "" {
				card, err := resolveCardArg(store, cardArg)
				if err != nil {
					return err
				}
				selected = analytics.FilterByCard(txns, card.ID)
				scope = card.DisplayName()
			}

			now := time.Now()

			fmt.Println(cli.TitleStyle.Render("Spending analysis: " + scope))

			totals := analytics.Totals(cards)
			fmt.Printf("%s %s of %s (%.0f%% utilized)\n\n",
				cli.BoldStyle.Render("Wallet:"),
				cli.Rupee(totals.Balance),
				cli.Rupee(totals.Limit),
				totals.Utilization*100)

			periods := analytics.Periods(selected, now)
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "Today\tThis month\tQuarter\tHalf-year\tFull year\n")
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				cli.Rupee(periods.Daily),
				cli.Rupee(periods.Monthly),
				cli.Rupee(periods.Quarterly),
				cli.Rupee(periods.HalfYearly),
				cli.Rupee(periods.Yearly))
			_ = w.Flush()

			fmt.Println()
			fmt.Println(cli.BoldStyle.Render("By category"))
			byCat := analytics.ByCategory(selected)
			cw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			for _, cat := range model.Categories() {
				if amount, ok := byCat[cat]; ok {
					fmt.Fprintf(cw, "  %s\t%s\n", cat, cli.Rupee(amount))
				}
			}
			_ = cw.Flush()

			fmt.Println()
			fmt.Println(cli.BoldStyle.Render("By card (lifetime)"))
			bw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			for _, share := range analytics.CardContributions(cards, txns) {
				name := share.BankName
				if share.VariantName != "" {
					name += " " + share.VariantName
				}
				fmt.Fprintf(bw, "  %s\t%s\t%s %.0f%%\n",
					name,
					cli.Rupee(share.Amount),
					cli.ProgressBarText(share.Share*100, 20),
					share.Share*100)
			}
			_ = bw.Flush()

			return nil
		},
	}

	cmd.Flags().StringVar(&cardArg, "card", "", "restrict period and category stats to one card")

	return cmd
}

func trendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "trend",
		Short: "Show this year's month-by-month spend",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, kv, err := openLedger(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = kv.Close() }()

			now := time.Now()
			series := analytics.MonthlyTrend(store.Transactions(), now)

			var max float64
			for _, v := range series {
				if v > max {
					max = v
				}
			}

			fmt.Println(cli.TitleStyle.Render(fmt.Sprintf("Monthly spend %d", now.Year())))
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer func() { _ = w.Flush() }()
			for m := time.January; m <= time.December; m++ {
				amount := series[int(m)-1]
				percent := 0.0
				if max > 0 {
					percent = amount / max * 100
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n",
					m.String()[:3],
					cli.Rupee(amount),
					cli.ProgressBarText(percent, 30))
			}
			return nil
		},
	}
}
