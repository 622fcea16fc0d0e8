package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Identity is the authenticated wallet address. The password is never kept.
type Identity struct {
	Address string `json:"addr"`
}

func (i Identity) Empty() bool {
	return i.Address == ""
}

// OperationKind names a value-moving or value-creating operation.
type OperationKind string

const (
	Transfer OperationKind = "transfer"
	Buy      OperationKind = "buy"
	Sell     OperationKind = "sell"
	Mint     OperationKind = "mint"
	Withdraw OperationKind = "withdraw"
)

func (k OperationKind) String() string {
	return string(k)
}

// NeedsResultPreview reports whether the kind quotes the native-token proceeds
// before the confirmation gate may open.
func (k OperationKind) NeedsResultPreview() bool {
	return k == Buy || k == Sell
}

// NeedsDestination reports whether the kind carries a destination address.
func (k OperationKind) NeedsDestination() bool {
	return k == Transfer || k == Withdraw
}

// Status is the lifecycle of a single request kind.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusPending   Status = "pending"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Transaction is a ledger history record. Figures arrive as JSON numbers
// or strings and are kept exact.
type Transaction struct {
	Contract string          `json:"EV_Contract"`
	Event    string          `json:"EV_Event"`
	Fee      decimal.Decimal `json:"EV_Fee"`
	Hash     string          `json:"EV_Hash"`
	Time     string          `json:"EV_Time"`
	To       string          `json:"EV_To"`
	Value    decimal.Decimal `json:"EV_Value"`
	Value2   decimal.Decimal `json:"EV_Value2"`
}

// TransactionEvent is the outcome of a submitted or minted operation.
type TransactionEvent struct {
	ID          string           `json:"id"`
	Address     string           `json:"address"`
	Kind        OperationKind    `json:"kind"`
	Category    Category         `json:"category"`
	AssetID     string           `json:"asset_id"`
	Amount      decimal.Decimal  `json:"amount"`
	Fee         *decimal.Decimal `json:"fee,omitempty"`
	Result      *decimal.Decimal `json:"result,omitempty"`
	Destination string           `json:"destination,omitempty"`
	Status      Status           `json:"status"`
	Message     string           `json:"message,omitempty"`
	Timestamp   time.Time        `json:"timestamp"`
}
