package model

// RewardMilestone is a spend target tied to one card's enrichment data.
// Milestones are read-only from the ledger's perspective and replaced
// wholesale on each successful sync.
type RewardMilestone struct {
	ID     string  `json:"id"`
	Label  string  `json:"label"`
	Target float64 `json:"target"`
	Reward string  `json:"reward"`
}

// IntelSource records where a piece of card intelligence was found.
type IntelSource struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}
