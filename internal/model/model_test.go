package model

import (
	"testing"
	"time"
)

func TestParseCategory(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Category
	}{
		{"exact label", "Food & Dining", CategoryFood},
		{"travel", "Travel", CategoryTravel},
		{"other", "Other", CategoryOther},
		{"unknown coerces to other", "Groceries", CategoryOther},
		{"empty coerces to other", "", CategoryOther},
		{"case sensitive", "food & dining", CategoryOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseCategory(tt.input); got != tt.want {
				t.Errorf("ParseCategory(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseNetwork(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  CardNetwork
	}{
		{"visa", "Visa", NetworkVisa},
		{"amex full label", "American Express", NetworkAmex},
		{"discover", "Discover", NetworkDiscover},
		{"rupay", "RuPay", NetworkRuPay},
		{"unknown coerces to other", "Diners Club", NetworkOther},
		{"empty coerces to other", "", NetworkOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseNetwork(tt.input); got != tt.want {
				t.Errorf("ParseNetwork(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestCard_SyncEligible(t *testing.T) {
	tests := []struct {
		name string
		card Card
		want bool
	}{
		{"idle with bank and variant", Card{BankName: "HDFC", VariantName: "Infinia", SyncStatus: StatusIdle}, true},
		{"never synced", Card{BankName: "HDFC", VariantName: "Infinia"}, true},
		{"missing variant", Card{BankName: "HDFC", SyncStatus: StatusIdle}, false},
		{"missing bank", Card{VariantName: "Infinia", SyncStatus: StatusIdle}, false},
		{"already syncing", Card{BankName: "HDFC", VariantName: "Infinia", SyncStatus: StatusSyncing}, false},
		{"completed", Card{BankName: "HDFC", VariantName: "Infinia", SyncStatus: StatusCompleted}, false},
		{"failed stays failed", Card{BankName: "HDFC", VariantName: "Infinia", SyncStatus: StatusFailed}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.card.SyncEligible(); got != tt.want {
				t.Errorf("SyncEligible() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCard_DisplayName(t *testing.T) {
	c := Card{BankName: "HDFC", VariantName: "Infinia"}
	if got := c.DisplayName(); got != "HDFC Infinia" {
		t.Errorf("DisplayName() = %q", got)
	}

	c.VariantName = ""
	if got := c.DisplayName(); got != "HDFC" {
		t.Errorf("DisplayName() = %q", got)
	}
}

func TestTransaction_Day(t *testing.T) {
	tests := []struct {
		date string
		want string
	}{
		{"2024-03-15", "2024-03-15"},
		{"2024-03-15T18:30:00Z", "2024-03-15"},
		{"", ""},
	}

	for _, tt := range tests {
		tx := Transaction{Date: tt.date}
		if got := tx.Day(); got != tt.want {
			t.Errorf("Day() of %q = %q, want %q", tt.date, got, tt.want)
		}
	}
}

func TestTransaction_Time(t *testing.T) {
	tx := Transaction{Date: "2024-03-15"}
	ts, err := tx.Time()
	if err != nil {
		t.Fatalf("Time() error: %v", err)
	}
	want := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	if !ts.Equal(want) {
		t.Errorf("Time() = %v, want %v", ts, want)
	}

	tx = Transaction{Date: "2024-03-15T18:30:00Z"}
	ts, err = tx.Time()
	if err != nil {
		t.Fatalf("Time() error: %v", err)
	}
	if ts.Hour() != 18 {
		t.Errorf("Time().Hour() = %d, want 18", ts.Hour())
	}

	tx = Transaction{Date: "nonsense"}
	if _, err = tx.Time(); err == nil {
		t.Error("Time() on invalid date should error")
	}
}
