package models

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Param is one named operand of a ledger operation.
type Param struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Request is the body of every POST to the ledger.
type Request struct {
	Op     string  `json:"op"`
	Params []Param `json:"params"`
}

// Envelope carries the fields every ledger response shares. Result is a
// pointer because a few read endpoints omit it on success.
type Envelope struct {
	Result  *bool           `json:"result,omitempty"`
	Message string          `json:"message,omitempty"`
	Error   string          `json:"error,omitempty"`
	Errors  json.RawMessage `json:"errors,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Rejected reports whether the ledger signalled a business failure.
func (e Envelope) Rejected() bool {
	return e.Result != nil && !*e.Result
}

// The ledger sends figures either as JSON numbers or as quoted strings;
// decimal.Decimal accepts both.

// FeeResponse is returned by the calculate*fee operations.
type FeeResponse struct {
	Fee decimal.Decimal `json:"fee"`
}

// AmountResponse is returned by the calculate*result operations.
type AmountResponse struct {
	Amount decimal.Decimal `json:"amount"`
}

// BalanceResponse is returned by the per-asset getbalance operation.
type BalanceResponse struct {
	Balance decimal.Decimal `json:"balance"`
}

// RateResponse is returned by the per-asset getexchangerate operation.
type RateResponse struct {
	ExchangeRate decimal.Decimal `json:"exchangerate"`
}

// KeyResponse is returned by createkey.
type KeyResponse struct {
	Address string `json:"address"`
}
