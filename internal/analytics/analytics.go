// Package analytics computes derived metrics over ledger snapshots. Every
// function is pure: it takes cards, transactions, and a reference time, and
// holds no state of its own.
package analytics

import (
	"sort"
	"time"

	"fintrack/internal/model"
)

// PeriodTotals is spend summed over the calendar buckets containing the
// reference time. Buckets above daily are restricted to the current year.
type PeriodTotals struct {
	Daily      float64
	Monthly    float64
	Quarterly  float64
	HalfYearly float64
	Yearly     float64
}

// Periods buckets transaction amounts into the day, month, quarter,
// half-year, and year containing now. Quarter and half are calendar-based:
// quarter = month/3, half = month/6 (zero-based months). Daily matches by
// exact calendar-date equality; transactions with unparseable dates are
// skipped.
func Periods(txns []model.Transaction, now time.Time) PeriodTotals {
	var totals PeriodTotals

	today := now.Format("2006-01-02")
	year := now.Year()
	month := int(now.Month()) - 1
	quarter := month / 3
	half := month / 6

	for i := range txns {
		t := &txns[i]
		ts, err := t.Time()
		if err != nil {
			continue
		}
		if ts.Year() != year {
			continue
		}
		tMonth := int(ts.Month()) - 1

		totals.Yearly += t.Amount
		if tMonth/6 == half {
			totals.HalfYearly += t.Amount
		}
		if tMonth/3 == quarter {
			totals.Quarterly += t.Amount
		}
		if tMonth == month {
			totals.Monthly += t.Amount
		}
		if t.Day() == today {
			totals.Daily += t.Amount
		}
	}

	return totals
}

// ByCategory sums amounts grouped by category over the given transactions.
func ByCategory(txns []model.Transaction) map[model.Category]float64 {
	sums := make(map[model.Category]float64)
	for i := range txns {
		sums[txns[i].Category] += txns[i].Amount
	}
	return sums
}

// FilterByCard returns the transactions belonging to one card.
func FilterByCard(txns []model.Transaction, cardID string) []model.Transaction {
	var out []model.Transaction
	for i := range txns {
		if txns[i].CardID == cardID {
			out = append(out, txns[i])
		}
	}
	return out
}

// CardShare is one card's lifetime contribution to total spend.
type CardShare struct {
	CardID      string
	BankName    string
	VariantName string
	Color       string
	Amount      float64
	Share       float64
}

// CardContributions sums each card's lifetime transaction amounts, sorted
// descending. Share is the card's fraction of the grand total, defined as 0
// when the total is 0.
func CardContributions(cards []model.Card, txns []model.Transaction) []CardShare {
	byCard := make(map[string]float64)
	var total float64
	for i := range txns {
		byCard[txns[i].CardID] += txns[i].Amount
		total += txns[i].Amount
	}

	shares := make([]CardShare, 0, len(cards))
	for i := range cards {
		c := &cards[i]
		share := CardShare{
			CardID:      c.ID,
			BankName:    c.BankName,
			VariantName: c.VariantName,
			Color:       c.Color,
			Amount:      byCard[c.ID],
		}
		if total > 0 {
			share.Share = share.Amount / total
		}
		shares = append(shares, share)
	}

	sort.SliceStable(shares, func(i, j int) bool {
		return shares[i].Amount > shares[j].Amount
	})
	return shares
}

// MonthlyTrend sums spend for each calendar month of now's year. The series
// always has 12 entries, January through December, regardless of how sparse
// the data is.
func MonthlyTrend(txns []model.Transaction, now time.Time) [12]float64 {
	var series [12]float64
	year := now.Year()
	for i := range txns {
		ts, err := txns[i].Time()
		if err != nil || ts.Year() != year {
			continue
		}
		series[int(ts.Month())-1] += txns[i].Amount
	}
	return series
}

// YearSpendByCard sums each card's spend within now's calendar year,
// the basis for milestone tracking.
func YearSpendByCard(txns []model.Transaction, now time.Time) map[string]float64 {
	year := now.Year()
	spend := make(map[string]float64)
	for i := range txns {
		ts, err := txns[i].Time()
		if err != nil || ts.Year() != year {
			continue
		}
		spend[txns[i].CardID] += txns[i].Amount
	}
	return spend
}

// Progress reports milestone completion as a percentage in [0, 100]. A
// target of zero or less counts as already achieved.
func Progress(spend, target float64) float64 {
	if target <= 0 {
		return 100
	}
	p := spend / target * 100
	if p > 100 {
		return 100
	}
	if p < 0 {
		return 0
	}
	return p
}

// MilestoneProgress pairs a milestone with its completion percentage.
type MilestoneProgress struct {
	Milestone model.RewardMilestone
	Progress  float64
}

// MilestonesFor computes milestone progress for one card from its
// current-year spend.
func MilestonesFor(card model.Card, txns []model.Transaction, now time.Time) []MilestoneProgress {
	spend := YearSpendByCard(txns, now)[card.ID]
	out := make([]MilestoneProgress, 0, len(card.Milestones))
	for _, m := range card.Milestones {
		out = append(out, MilestoneProgress{Milestone: m, Progress: Progress(spend, m.Target)})
	}
	return out
}

// WalletTotals summarizes the whole wallet for the dashboard view.
type WalletTotals struct {
	Balance     float64
	Limit       float64
	Utilization float64
}

// Totals sums balances and limits across cards. Utilization is balance over
// limit, 0 when no limit is set.
func Totals(cards []model.Card) WalletTotals {
	var t WalletTotals
	for i := range cards {
		t.Balance += cards[i].Balance
		t.Limit += cards[i].Limit
	}
	if t.Limit > 0 {
		t.Utilization = t.Balance / t.Limit
	}
	return t
}
