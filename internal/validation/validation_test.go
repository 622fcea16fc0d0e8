package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestValidateAddress(t *testing.T) {
	tests := []struct {
		name    string
		address string
		network string
		wantErr bool
	}{
		{"toronet", "0x52908400098527886E0F7030069857D2E4169EE7", "", false},
		{"toronet lowercase", "0xde709f2102306220921060314715629080e2fb77", "toronet", false},
		{"ethereum", "0x8617E340B3D01FA5F11F306F4090FD50E238070D", "ethereum", false},
		{"missing prefix", "52908400098527886E0F7030069857D2E4169EE7", "", true},
		{"short", "0x1234", "ethereum", true},
		{"empty", "", "", true},
		{"bitcoin is not bridged", "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa", "bitcoin", true},
		{"unknown network", "0x52908400098527886E0F7030069857D2E4169EE7", "dogecoin", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAddress(tt.address, tt.network)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateAddress(%q, %q) error = %v, wantErr %v", tt.address, tt.network, err, tt.wantErr)
			}
			var verr *Error
			if err != nil && !errors.As(err, &verr) {
				t.Errorf("expected *Error, got %T", err)
			}
		})
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		raw     string
		want    string
		wantErr bool
	}{
		{"1", "1", false},
		{"50", "50", false},
		{" 10.25 ", "10.25", false},
		{"0.99", "", true},
		{"0", "", true},
		{"-5", "", true},
		{"", "", true},
		{"abc", "", true},
		{"1e50000000", "", true},
		{"1E3", "", true},
		{"2.5e0", "", true},
		{strings.Repeat("9", MaxAmountLength+1), "", true},
		{strings.Repeat("9", MaxAmountLength), strings.Repeat("9", MaxAmountLength), false},
	}

	for _, tt := range tests {
		name := tt.raw
		if len(name) > 16 {
			name = name[:16] + "..."
		}
		t.Run(name, func(t *testing.T) {
			got, err := ParseAmount(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseAmount(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
			if err == nil && !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("ParseAmount(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		confirm  string
		field    string
	}{
		{"valid", "Secret#2024", "Secret#2024", ""},
		{"too short", "Se#1", "Se#1", "password"},
		{"no special", "Secret2024", "Secret2024", "password"},
		{"no number", "Secret#abc", "Secret#abc", "password"},
		{"no capital", "secret#2024", "secret#2024", "password"},
		{"mismatch", "Secret#2024", "Secret#2025", "confirm"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password, tt.confirm)
			if tt.field == "" {
				if err != nil {
					t.Errorf("ValidatePassword() error = %v", err)
				}
				return
			}
			var verr *Error
			if !errors.As(err, &verr) {
				t.Fatalf("ValidatePassword() error = %v, want *Error", err)
			}
			if verr.Field != tt.field {
				t.Errorf("Field = %v, want %v", verr.Field, tt.field)
			}
		})
	}
}
