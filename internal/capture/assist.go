// Package capture turns an opaque pasted string into a draft transaction via
// the external parsing collaborator. It never mutates the ledger: the caller
// decides whether to submit the draft.
package capture

import (
	"context"
	"fmt"
	"sync"
	"time"

	"fintrack/internal/common"
	"fintrack/internal/model"
	"fintrack/internal/service"
)

// Status tracks the assist's own sync lifecycle, separate from any card's
// enrichment status.
type Status string

// Assist status constants.
const (
	StatusIdle    Status = "idle"
	StatusSyncing Status = "syncing"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Input shorter than this is rejected without calling the collaborator.
const minInputLength = 10

// defaultResetDelay is how long a terminal status is shown before the assist
// returns to idle.
const defaultResetDelay = 2 * time.Second

// Draft is a pre-filled transaction awaiting user confirmation. It carries
// no id; the ledger assigns one on submission.
type Draft struct {
	CardID      string
	Amount      float64
	Date        string
	Description string
	Category    model.Category
}

// Assist wraps the parsing collaborator with status tracking and card
// resolution.
type Assist struct {
	parser     service.TransactionParser
	timer      *time.Timer
	resetDelay time.Duration
	status     Status
	mu         sync.Mutex
}

// New creates an assist with the default auto-reset delay.
func New(parser service.TransactionParser) *Assist {
	return &Assist{
		parser:     parser,
		resetDelay: defaultResetDelay,
		status:     StatusIdle,
	}
}

// Status returns the assist's current status.
func (a *Assist) Status() Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.status
}

// Capture parses rawText into a draft, resolving the parsed last-four hint
// against cards (falling back to the first card when nothing matches). On
// any failure the status becomes error and no draft is produced. Terminal
// statuses reset to idle after a short delay.
func (a *Assist) Capture(ctx context.Context, rawText string, cards []model.Card) (*Draft, error) {
	a.setStatus(StatusSyncing)

	if len(rawText) < minInputLength {
		a.finish(StatusError)
		return nil, fmt.Errorf("%w: input too short", common.ErrParseFailed)
	}

	parsed, err := a.parser.ParseTransactionText(ctx, rawText)
	if err != nil {
		a.finish(StatusError)
		return nil, fmt.Errorf("%w: %v", common.ErrParseFailed, err)
	}

	day, err := normalizeDate(parsed.Date)
	if err != nil {
		a.finish(StatusError)
		return nil, fmt.Errorf("%w: unusable date %q", common.ErrParseFailed, parsed.Date)
	}

	draft := &Draft{
		CardID:      resolveCard(cards, parsed.CardLastFour),
		Amount:      parsed.Amount,
		Date:        day,
		Description: parsed.Description,
		Category:    model.ParseCategory(parsed.Category),
	}

	a.finish(StatusSuccess)
	return draft, nil
}

// resolveCard picks the card whose last four digits match the parsed hint,
// else the first available card, else empty.
func resolveCard(cards []model.Card, lastFour string) string {
	if lastFour != "" {
		for i := range cards {
			if cards[i].LastFour == lastFour {
				return cards[i].ID
			}
		}
	}
	if len(cards) > 0 {
		return cards[0].ID
	}
	return ""
}

func normalizeDate(s string) (string, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.Format("2006-01-02"), nil
		}
	}
	return "", fmt.Errorf("unrecognized date format")
}

func (a *Assist) setStatus(s Status) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.status = s
}

// finish records a terminal status and arms the auto-reset back to idle.
func (a *Assist) finish(s Status) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.status = s
	if a.timer != nil {
		a.timer.Stop()
	}
	a.timer = time.AfterFunc(a.resetDelay, func() {
		a.mu.Lock()
		defer a.mu.Unlock()
		if a.status == s {
			a.status = StatusIdle
		}
	})
}
