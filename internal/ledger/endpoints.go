package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"toronet-wallet/internal/models"
)

const (
	pathUtil     = "/util"
	pathKeystore = "/keystore"
	pathQuery    = "/query"
)

func param(name, value string) models.Param {
	return models.Param{Name: name, Value: value}
}

func assetPath(category models.Category, assetID string) string {
	return "/" + category.String() + "/" + assetID
}

// IsAddress asks the ledger whether addr is a known address.
func (c *Client) IsAddress(ctx context.Context, addr string) (bool, error) {
	env, err := c.Get(ctx, pathUtil, "isaddress", nil, param("addr", addr))
	if err != nil {
		return false, err
	}
	return env.Result == nil || *env.Result, nil
}

// CreateKey registers a new keystore entry and returns its address.
func (c *Client) CreateKey(ctx context.Context, password string) (string, error) {
	var resp models.KeyResponse
	req := models.Request{Op: "createkey", Params: []models.Param{param("pwd", password)}}
	if _, err := c.Post(ctx, pathKeystore, req, &resp); err != nil {
		return "", err
	}
	if resp.Address == "" {
		return "", &TransportError{Kind: KindMalformed, Op: "createkey", Err: fmt.Errorf("response has no address")}
	}
	return resp.Address, nil
}

// VerifyKey checks an address/password pair against the keystore.
func (c *Client) VerifyKey(ctx context.Context, addr, password string) (bool, error) {
	env, err := c.Get(ctx, pathKeystore, "verifykey", nil, param("addr", addr), param("pwd", password))
	if err != nil {
		return false, err
	}
	return env.Result == nil || *env.Result, nil
}

// AddressBalances returns every balance of addr keyed by balance key.
func (c *Client) AddressBalances(ctx context.Context, addr string) (map[string]string, error) {
	var raw map[string]json.RawMessage
	if _, err := c.Get(ctx, pathQuery, "getaddrbalance", &raw, param("addr", addr)); err != nil {
		return nil, err
	}
	return figures(raw), nil
}

// Balance returns the balance of addr in one asset.
func (c *Client) Balance(ctx context.Context, category models.Category, assetID, addr string) (decimal.Decimal, error) {
	var resp models.BalanceResponse
	if _, err := c.Get(ctx, assetPath(category, assetID), "getbalance", &resp, param("addr", addr)); err != nil {
		return decimal.Zero, err
	}
	return resp.Balance, nil
}

// ExchangeRates returns every rate keyed by rate key.
func (c *Client) ExchangeRates(ctx context.Context) (map[string]string, error) {
	var raw map[string]json.RawMessage
	if _, err := c.Get(ctx, pathQuery, "getexchangerates", &raw); err != nil {
		return nil, err
	}
	return figures(raw), nil
}

// ExchangeRate returns the rate of one asset against the native token.
func (c *Client) ExchangeRate(ctx context.Context, category models.Category, assetID string) (decimal.Decimal, error) {
	var resp models.RateResponse
	if _, err := c.Get(ctx, assetPath(category, assetID), "getexchangerate", &resp); err != nil {
		return decimal.Zero, err
	}
	return resp.ExchangeRate, nil
}

// Transactions returns the most recent history records of addr. An empty
// assetID selects the combined history.
func (c *Client) Transactions(ctx context.Context, addr, assetID string, count int) ([]models.Transaction, error) {
	op := "getaddrtransactions"
	if assetID != "" {
		op += "_" + assetID
	}

	env, err := c.Get(ctx, pathQuery, op, nil, param("addr", addr), param("count", strconv.Itoa(count)))
	if err != nil {
		return nil, err
	}

	var records []models.Transaction
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return records, nil
	}
	if err := json.Unmarshal(env.Data, &records); err != nil {
		return nil, &TransportError{Kind: KindMalformed, Op: op, Err: err}
	}
	return records, nil
}

// CalculateFee quotes the fee of an operation on one asset.
func (c *Client) CalculateFee(ctx context.Context, category models.Category, assetID, op string, params ...models.Param) (decimal.Decimal, error) {
	var resp models.FeeResponse
	if _, err := c.Get(ctx, assetPath(category, assetID)+"/cl", op, &resp, params...); err != nil {
		return decimal.Zero, err
	}
	return resp.Fee, nil
}

// CalculateResult previews the native-token proceeds of a buy or sell.
func (c *Client) CalculateResult(ctx context.Context, category models.Category, assetID, op string, params ...models.Param) (decimal.Decimal, error) {
	var resp models.AmountResponse
	if _, err := c.Get(ctx, assetPath(category, assetID)+"/cl", op, &resp, params...); err != nil {
		return decimal.Zero, err
	}
	return resp.Amount, nil
}

// Submit posts a client operation to the asset's submission endpoint.
func (c *Client) Submit(ctx context.Context, category models.Category, assetID string, req models.Request) (*models.Envelope, error) {
	return c.Post(ctx, assetPath(category, assetID)+"/cl", req, nil)
}

// Import posts a privileged operation to the asset's admin endpoint.
func (c *Client) Import(ctx context.Context, category models.Category, assetID string, req models.Request) (*models.Envelope, error) {
	return c.Post(ctx, assetPath(category, assetID)+"/ad", req, nil)
}

// ExternalLinks returns the external addresses linked to addr for a bridged
// asset. The payload shape is ledger-defined and passed through untouched.
func (c *Client) ExternalLinks(ctx context.Context, category models.Category, assetID, addr string) (json.RawMessage, error) {
	env, err := c.Get(ctx, assetPath(category, assetID), "getallextlinks", nil, param("toro", addr))
	if err != nil {
		return nil, err
	}
	return env.Data, nil
}

// Ping issues a cheap read to check that the ledger is reachable.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Get(ctx, pathQuery, "getexchangerates", nil)
	return err
}

var envelopeKeys = map[string]bool{
	"result":  true,
	"message": true,
	"error":   true,
	"errors":  true,
	"data":    true,
}

// figures flattens a balance or rate response into key -> decimal string,
// skipping envelope fields and anything that is not a number.
func figures(raw map[string]json.RawMessage) map[string]string {
	out := make(map[string]string, len(raw))
	for key, value := range raw {
		if envelopeKeys[key] {
			continue
		}
		var d decimal.Decimal
		if err := d.UnmarshalJSON(value); err != nil {
			continue
		}
		out[key] = d.String()
	}
	return out
}
