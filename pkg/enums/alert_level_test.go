package enums

import "testing"

func TestDeriveAlertLevel(t *testing.T) {
	tests := []struct {
		name     string
		quantity int
		min      int
		want     AlertLevel
	}{
		{name: "at threshold is low", quantity: 5, min: 5, want: AlertLevelLow},
		{name: "just above half threshold is low", quantity: 3, min: 5, want: AlertLevelLow},
		{name: "at or below half threshold is critical", quantity: 2, min: 5, want: AlertLevelCritical},
		{name: "exact half is critical", quantity: 3, min: 6, want: AlertLevelCritical},
		{name: "zero is out of stock", quantity: 0, min: 5, want: AlertLevelOutOfStock},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeriveAlertLevel(tt.quantity, tt.min); got != tt.want {
				t.Fatalf("DeriveAlertLevel(%d, %d) = %s, want %s", tt.quantity, tt.min, got, tt.want)
			}
		})
	}
}

func TestParseTransactionType(t *testing.T) {
	if _, err := ParseTransactionType("borrow"); err == nil {
		t.Fatalf("expected error for unknown transaction type")
	}
	got, err := ParseTransactionType("checkout")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != TransactionTypeCheckout {
		t.Fatalf("unexpected value %s", got)
	}
}
