package interfaces

import (
	"context"
	"encoding/json"

	"github.com/shopspring/decimal"

	"toronet-wallet/internal/catalog"
	"toronet-wallet/internal/models"
)

// LedgerQuerier defines the read side of the remote ledger
type LedgerQuerier interface {
	AddressBalances(ctx context.Context, addr string) (map[string]string, error)
	Balance(ctx context.Context, category models.Category, assetID, addr string) (decimal.Decimal, error)
	ExchangeRates(ctx context.Context) (map[string]string, error)
	ExchangeRate(ctx context.Context, category models.Category, assetID string) (decimal.Decimal, error)
	Transactions(ctx context.Context, addr, assetID string, count int) ([]models.Transaction, error)
	ExternalLinks(ctx context.Context, category models.Category, assetID, addr string) (json.RawMessage, error)
}

// LedgerTransactor defines the quote and submission side of the remote ledger
type LedgerTransactor interface {
	CalculateFee(ctx context.Context, category models.Category, assetID, op string, params ...models.Param) (decimal.Decimal, error)
	CalculateResult(ctx context.Context, category models.Category, assetID, op string, params ...models.Param) (decimal.Decimal, error)
	Submit(ctx context.Context, category models.Category, assetID string, req models.Request) (*models.Envelope, error)
	Import(ctx context.Context, category models.Category, assetID string, req models.Request) (*models.Envelope, error)
}

// Keystore defines the credential operations of the remote ledger
type Keystore interface {
	IsAddress(ctx context.Context, addr string) (bool, error)
	VerifyKey(ctx context.Context, addr, password string) (bool, error)
	CreateKey(ctx context.Context, password string) (string, error)
}

// Refresher refetches the state affected by a completed operation
type Refresher interface {
	Refresh(ctx context.Context, identity models.Identity, asset catalog.Asset) error
}

// SessionStore holds the authenticated identity
type SessionStore interface {
	Login(identity models.Identity) error
	Logout() error
	Current() (models.Identity, bool)
}
