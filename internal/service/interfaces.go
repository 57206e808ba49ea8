// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"fintrack/internal/model"
)

// KVStore is the persistence medium: two independent string-keyed slots hold
// the serialized card and transaction collections. Load reports absence via
// its second return value rather than an error.
type KVStore interface {
	Save(ctx context.Context, key string, value []byte) error
	Load(ctx context.Context, key string) ([]byte, bool, error)
	Close() error
}

// CardIntelligence is the enrichment collaborator. It receives only the bank
// name and card variant, never balances, card numbers, or transaction data.
// That restriction is a hard design boundary, not a convention.
type CardIntelligence interface {
	FetchCardIntelligence(ctx context.Context, bankName, variantName string) (*CardIntel, error)
}

// CardIntel is the result of one enrichment lookup.
type CardIntel struct {
	Benefits   []string
	Milestones []MilestoneIntel
	Sources    []model.IntelSource
}

// MilestoneIntel is a milestone as returned by the collaborator, before the
// ledger assigns it an id.
type MilestoneIntel struct {
	Label  string
	Target float64
	Reward string
}

// TransactionParser is the text-parsing collaborator: it turns an opaque
// string (clipboard content, a bank SMS) into the fields of one transaction.
type TransactionParser interface {
	ParseTransactionText(ctx context.Context, rawText string) (*ParsedTransaction, error)
}

// ParsedTransaction holds the collaborator's best reading of a pasted text.
type ParsedTransaction struct {
	Amount       float64
	Description  string
	Date         string
	Category     string
	CardLastFour string
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
