package model

import (
	"strings"
	"time"
)

// Category is the closed set of spend categories.
type Category string

// Spend category constants.
const (
	CategoryFood          Category = "Food & Dining"
	CategoryShopping      Category = "Shopping"
	CategoryTransport     Category = "Transportation"
	CategoryBills         Category = "Bills & Utilities"
	CategoryEntertainment Category = "Entertainment"
	CategoryHealth        Category = "Health & Wellness"
	CategoryTravel        Category = "Travel"
	CategoryOther         Category = "Other"
)

// Categories lists every valid category in display order.
func Categories() []Category {
	return []Category{
		CategoryFood,
		CategoryShopping,
		CategoryTransport,
		CategoryBills,
		CategoryEntertainment,
		CategoryHealth,
		CategoryTravel,
		CategoryOther,
	}
}

// ParseCategory maps a string label to a Category. Unrecognized labels are
// coerced to CategoryOther rather than rejected, so loosely typed input
// (persisted state, collaborator output) always lands on a valid value.
func ParseCategory(s string) Category {
	switch Category(s) {
	case CategoryFood, CategoryShopping, CategoryTransport, CategoryBills,
		CategoryEntertainment, CategoryHealth, CategoryTravel:
		return Category(s)
	default:
		return CategoryOther
	}
}

// Transaction represents a single spend event against exactly one card.
//
// Amount is signed: a positive amount is a purchase and increases the owning
// card's balance. Date is an ISO-8601 string, either a bare calendar date or
// a full timestamp.
type Transaction struct {
	ID          string   `json:"id"`
	CardID      string   `json:"cardId"`
	Amount      float64  `json:"amount"`
	Date        string   `json:"date"`
	Description string   `json:"description"`
	Category    Category `json:"category"`
}

// Day returns the calendar-date portion of the transaction's date.
func (t *Transaction) Day() string {
	if i := strings.IndexByte(t.Date, 'T'); i >= 0 {
		return t.Date[:i]
	}
	return t.Date
}

// Time parses the transaction date. Bare calendar dates parse at midnight UTC.
func (t *Transaction) Time() (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, t.Date); err == nil {
		return ts, nil
	}
	return time.Parse("2006-01-02", t.Day())
}
