package catalog

import (
	"testing"

	"toronet-wallet/internal/models"
)

func TestValidate(t *testing.T) {
	if err := Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestCatalogSizes(t *testing.T) {
	tests := []struct {
		category models.Category
		expected int
	}{
		{models.Token, 1},
		{models.Currency, 7},
		{models.Coin, 2},
		{models.Crypto, 1},
	}

	for _, tt := range tests {
		t.Run(tt.category.String(), func(t *testing.T) {
			if got := len(ByCategory(tt.category)); got != tt.expected {
				t.Errorf("len(ByCategory(%s)) = %d, want %d", tt.category, got, tt.expected)
			}
		})
	}

	if got := len(All()); got != 11 {
		t.Errorf("len(All()) = %d, want 11", got)
	}
}

func TestLookups(t *testing.T) {
	usd, ok := ByName("toro usd")
	if !ok {
		t.Fatal("ByName(toro usd) not found")
	}
	if usd.AssetID != "dollar" || usd.CurrencyCode != "USD" {
		t.Errorf("unexpected asset %+v", usd)
	}
	if usd.Path() != "/currency/dollar" {
		t.Errorf("Path() = %v, want /currency/dollar", usd.Path())
	}

	eth, ok := ByAssetID(models.Crypto, "eth")
	if !ok {
		t.Fatal("ByAssetID(crypto, eth) not found")
	}
	if eth.Network != "ethereum" {
		t.Errorf("Network = %v, want ethereum", eth.Network)
	}

	if _, ok := ByAssetID(models.Coin, "eth"); ok {
		t.Error("eth should not be a platform coin")
	}
}

func TestSupports(t *testing.T) {
	tests := []struct {
		category models.Category
		kind     models.OperationKind
		expected bool
	}{
		{models.Token, models.Transfer, true},
		{models.Token, models.Buy, false},
		{models.Currency, models.Buy, true},
		{models.Currency, models.Withdraw, false},
		{models.Coin, models.Sell, true},
		{models.Crypto, models.Withdraw, true},
		{models.Crypto, models.Buy, false},
	}

	for _, tt := range tests {
		if got := Supports(tt.category, tt.kind); got != tt.expected {
			t.Errorf("Supports(%s, %s) = %v, want %v", tt.category, tt.kind, got, tt.expected)
		}
	}
}

func TestCheckKey(t *testing.T) {
	a := Asset{AssetID: "dollar"}
	if err := checkKey(a, "bal_dollar"); err != nil {
		t.Errorf("checkKey(bal_dollar) error = %v", err)
	}
	if err := checkKey(a, "bal_usd"); err == nil {
		t.Error("checkKey(bal_usd) should fail for asset dollar")
	}
	if err := checkKey(a, "dollar"); err == nil {
		t.Error("checkKey without separator should fail")
	}
}
