package model

import "strings"

// CardNetwork identifies the payment network a card rides on.
type CardNetwork string

// Payment network constants.
const (
	NetworkVisa       CardNetwork = "Visa"
	NetworkMastercard CardNetwork = "Mastercard"
	NetworkAmex       CardNetwork = "American Express"
	NetworkDiscover   CardNetwork = "Discover"
	NetworkRuPay      CardNetwork = "RuPay"
	NetworkOther      CardNetwork = "Other"
)

// ParseNetwork maps a string label to a CardNetwork. Unrecognized labels are
// coerced to NetworkOther, matching ParseCategory's policy for loosely typed
// input.
func ParseNetwork(s string) CardNetwork {
	switch CardNetwork(s) {
	case NetworkVisa, NetworkMastercard, NetworkAmex, NetworkDiscover, NetworkRuPay:
		return CardNetwork(s)
	default:
		return NetworkOther
	}
}

// SyncStatus tracks where a card sits in the enrichment lifecycle.
type SyncStatus string

// Enrichment lifecycle states. The empty string is treated as StatusIdle
// everywhere, so cards persisted before enrichment existed stay eligible.
const (
	StatusIdle      SyncStatus = "idle"
	StatusSyncing   SyncStatus = "syncing"
	StatusCompleted SyncStatus = "completed"
	StatusFailed    SyncStatus = "failed"
)

// Card is a credit card in the wallet. Balance is the authoritative running
// total maintained by the ledger; it never goes negative. Benefits,
// Milestones, Sources, and LastSynced are owned by the enrichment flow and
// replaced wholesale on each successful sync.
type Card struct {
	ID            string            `json:"id"`
	BankName      string            `json:"bankName"`
	LastFour      string            `json:"lastFour"`
	Network       CardNetwork       `json:"type"`
	Limit         float64           `json:"limit"`
	Balance       float64           `json:"balance"`
	StatementDate int               `json:"statementDate"`
	DueDate       int               `json:"dueDate"`
	Color         string            `json:"color"`
	VariantName   string            `json:"variantName,omitempty"`
	Benefits      []string          `json:"benefits,omitempty"`
	Milestones    []RewardMilestone `json:"milestones,omitempty"`
	Sources       []IntelSource     `json:"sources,omitempty"`
	SyncStatus    SyncStatus        `json:"syncStatus,omitempty"`
	LastSynced    string            `json:"lastSynced,omitempty"`
}

// SyncEligible reports whether the card is ready to be picked up for
// enrichment: both identity fields present and no sync in progress or
// already recorded.
func (c *Card) SyncEligible() bool {
	if strings.TrimSpace(c.BankName) == "" || strings.TrimSpace(c.VariantName) == "" {
		return false
	}
	return c.SyncStatus == "" || c.SyncStatus == StatusIdle
}

// DisplayName is the human-readable card name, e.g. "HDFC Infinia".
func (c *Card) DisplayName() string {
	if c.VariantName == "" {
		return c.BankName
	}
	return c.BankName + " " + c.VariantName
}
