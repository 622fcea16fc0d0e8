// Package catalog lists the assets the wallet can display and move.
package catalog

import (
	"fmt"
	"strings"

	"toronet-wallet/internal/models"
)

const (
	balancePrefix = "bal_"
	ratePrefix    = "rate_"
)

// Asset describes one supported asset. AssetID is the identifier used in
// ledger paths; BalanceKey and RateKey are the lookup keys in aggregate
// balance and rate responses.
type Asset struct {
	ID           int             `json:"id"`
	AssetID      string          `json:"asset_id"`
	Category     models.Category `json:"category"`
	BalanceKey   string          `json:"balance_key"`
	RateKey      string          `json:"rate_key,omitempty"`
	DisplayName  string          `json:"display_name"`
	CurrencyCode string          `json:"currency_code"`
	// Network is the external chain a bridged asset settles on.
	Network string `json:"network,omitempty"`
}

// Path returns the ledger path of the asset, e.g. /currency/dollar.
func (a Asset) Path() string {
	return "/" + a.Category.String() + "/" + a.AssetID
}

var Native = Asset{
	ID:           1,
	AssetID:      "toro",
	Category:     models.Token,
	BalanceKey:   "bal_toro",
	DisplayName:  "TORO",
	CurrencyCode: "TORO",
}

var StableCoins = []Asset{
	stable(1, "dollar", "TORO USD", "USD"),
	stable(2, "egp", "TORO EGP", "EGP"),
	stable(3, "euro", "TORO EUR", "EUR"),
	stable(4, "pound", "TORO GBP", "GBP"),
	stable(5, "ksh", "TORO KSH", "KSH"),
	stable(6, "naira", "TORO NGN", "NGN"),
	stable(7, "zar", "TORO ZAR", "ZAR"),
}

var PlatformCoins = []Asset{
	{ID: 1, AssetID: "espees", Category: models.Coin, BalanceKey: "bal_espees", RateKey: "rate_espees", DisplayName: "ESPEES", CurrencyCode: "ESPS"},
	{ID: 2, AssetID: "plast", Category: models.Coin, BalanceKey: "bal_plast", RateKey: "rate_plast", DisplayName: "PLAST", CurrencyCode: "PLAST"},
}

var Cryptos = []Asset{
	{ID: 1, AssetID: "eth", Category: models.Crypto, BalanceKey: "bal_eth", RateKey: "rate_eth", DisplayName: "ETH", CurrencyCode: "ETH", Network: "ethereum"},
}

func stable(id int, assetID, name, code string) Asset {
	return Asset{
		ID:           id,
		AssetID:      assetID,
		Category:     models.Currency,
		BalanceKey:   balancePrefix + assetID,
		RateKey:      ratePrefix + assetID,
		DisplayName:  name,
		CurrencyCode: code,
	}
}

var supported = map[models.Category][]models.OperationKind{
	models.Token:    {models.Transfer, models.Mint},
	models.Currency: {models.Transfer, models.Buy, models.Sell, models.Mint},
	models.Coin:     {models.Transfer, models.Buy, models.Sell, models.Mint},
	models.Crypto:   {models.Transfer, models.Sell, models.Withdraw, models.Mint},
}

// Supports reports whether kind can be performed on assets of the category.
func Supports(c models.Category, kind models.OperationKind) bool {
	for _, k := range supported[c] {
		if k == kind {
			return true
		}
	}
	return false
}

// ByCategory returns the assets of one category.
func ByCategory(c models.Category) []Asset {
	switch c {
	case models.Token:
		return []Asset{Native}
	case models.Currency:
		return StableCoins
	case models.Coin:
		return PlatformCoins
	case models.Crypto:
		return Cryptos
	}
	return nil
}

// All returns every asset, native token first.
func All() []Asset {
	var all []Asset
	for _, c := range models.Categories() {
		all = append(all, ByCategory(c)...)
	}
	return all
}

// ByName looks an asset up by display name, case-insensitively.
func ByName(name string) (Asset, bool) {
	for _, a := range All() {
		if strings.EqualFold(a.DisplayName, name) {
			return a, true
		}
	}
	return Asset{}, false
}

// ByAssetID looks an asset up by its ledger identifier within a category.
func ByAssetID(c models.Category, assetID string) (Asset, bool) {
	for _, a := range ByCategory(c) {
		if a.AssetID == assetID {
			return a, true
		}
	}
	return Asset{}, false
}

// Validate checks that every lookup key ends in the asset's identifier and
// that identifiers are unique within a category.
func Validate() error {
	for _, c := range models.Categories() {
		seen := make(map[string]bool)
		for _, a := range ByCategory(c) {
			if a.Category != c {
				return fmt.Errorf("asset %s listed under %s has category %s", a.AssetID, c, a.Category)
			}
			if seen[a.AssetID] {
				return fmt.Errorf("duplicate asset id %s in %s", a.AssetID, c)
			}
			seen[a.AssetID] = true

			if err := checkKey(a, a.BalanceKey); err != nil {
				return err
			}
			if a.RateKey != "" {
				if err := checkKey(a, a.RateKey); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func checkKey(a Asset, key string) error {
	i := strings.LastIndex(key, "_")
	if i < 0 || key[i+1:] != a.AssetID {
		return fmt.Errorf("key %q of asset %s does not end in its asset id", key, a.AssetID)
	}
	return nil
}
