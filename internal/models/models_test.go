package models

import "testing"

func TestOperationKindSteps(t *testing.T) {
	tests := []struct {
		kind        OperationKind
		preview     bool
		destination bool
	}{
		{Transfer, false, true},
		{Buy, true, false},
		{Sell, true, false},
		{Withdraw, false, true},
		{Mint, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			if got := tt.kind.NeedsResultPreview(); got != tt.preview {
				t.Errorf("NeedsResultPreview() = %v, want %v", got, tt.preview)
			}
			if got := tt.kind.NeedsDestination(); got != tt.destination {
				t.Errorf("NeedsDestination() = %v, want %v", got, tt.destination)
			}
		})
	}
}
