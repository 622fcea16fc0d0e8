package ledger

import (
	"context"
	"net/http"
	"testing"

	"toronet-wallet/internal/ledger/ledgertest"
	"toronet-wallet/internal/models"
)

func TestReadEndpoints(t *testing.T) {
	server := ledgertest.NewServer()
	defer server.Close()

	server.Handle(http.MethodGet, "/query", "getaddrbalance", ledgertest.JSON(map[string]any{
		"bal_toro":   "12.5",
		"bal_dollar": 3,
		"result":     true,
	}))
	server.Handle(http.MethodGet, "/currency/dollar", "getbalance", ledgertest.JSON(map[string]any{
		"result": true, "balance": "42.10",
	}))
	server.Handle(http.MethodGet, "/crypto/eth", "getexchangerate", ledgertest.JSON(map[string]any{
		"result": true, "exchangerate": 1800,
	}))
	server.Handle(http.MethodGet, "/query", "getaddrtransactions_dollar", ledgertest.JSON(map[string]any{
		"result": true,
		"data": []map[string]any{
			{"EV_Hash": "0x01", "EV_Event": "Transfer", "EV_Value": 5, "EV_Fee": 0.1, "EV_Value2": "123456789.123456789123"},
		},
	}))
	server.Handle(http.MethodGet, "/crypto/eth", "getallextlinks", ledgertest.JSON(map[string]any{
		"result": true, "data": []string{"0xext"},
	}))

	client := newTestClient(t, server.URL, 1)
	ctx := context.Background()

	balances, err := client.AddressBalances(ctx, "0xabc")
	if err != nil {
		t.Fatalf("AddressBalances() error = %v", err)
	}
	if balances["bal_toro"] != "12.5" || balances["bal_dollar"] != "3" {
		t.Errorf("balances = %v", balances)
	}
	if _, ok := balances["result"]; ok {
		t.Error("envelope field leaked into balances")
	}

	bal, err := client.Balance(ctx, models.Currency, "dollar", "0xabc")
	if err != nil || bal.String() != "42.1" {
		t.Errorf("Balance() = %v, %v", bal, err)
	}

	rate, err := client.ExchangeRate(ctx, models.Crypto, "eth")
	if err != nil || rate.String() != "1800" {
		t.Errorf("ExchangeRate() = %v, %v", rate, err)
	}

	txs, err := client.Transactions(ctx, "0xabc", "dollar", 10)
	if err != nil {
		t.Fatalf("Transactions() error = %v", err)
	}
	if len(txs) != 1 || txs[0].Hash != "0x01" || txs[0].Value.String() != "5" || txs[0].Fee.String() != "0.1" {
		t.Fatalf("Transactions() = %+v", txs)
	}
	if got := txs[0].Value2.String(); got != "123456789.123456789123" {
		t.Errorf("Value2 = %v, want the exact figure", got)
	}

	links, err := client.ExternalLinks(ctx, models.Crypto, "eth", "0xabc")
	if err != nil || string(links) != `["0xext"]` {
		t.Errorf("ExternalLinks() = %s, %v", links, err)
	}

	for _, c := range server.Calls() {
		switch c.Op {
		case "getaddrtransactions_dollar":
			if c.Params["addr"] != "0xabc" || c.Params["count"] != "10" {
				t.Errorf("history params = %v", c.Params)
			}
		case "getallextlinks":
			if c.Params["toro"] != "0xabc" {
				t.Errorf("link params = %v", c.Params)
			}
		}
	}
}

func TestWriteEndpoints(t *testing.T) {
	server := ledgertest.NewServer()
	defer server.Close()

	server.Handle(http.MethodPost, "/keystore", "createkey", ledgertest.JSON(map[string]any{
		"result": true, "address": "0xnew",
	}))
	server.Handle(http.MethodGet, "/currency/dollar/cl", "calculatebuyfee", ledgertest.JSON(map[string]any{
		"result": true, "fee": "0.50",
	}))
	server.Handle(http.MethodGet, "/currency/dollar/cl", "calculatebuyresult", ledgertest.JSON(map[string]any{
		"result": true, "amount": "9.50",
	}))
	server.Handle(http.MethodPost, "/token/toro/ad", "mint", ledgertest.JSON(map[string]any{"result": true}))

	client := newTestClient(t, server.URL, 1)
	ctx := context.Background()

	addr, err := client.CreateKey(ctx, "Secret#2024")
	if err != nil || addr != "0xnew" {
		t.Fatalf("CreateKey() = %v, %v", addr, err)
	}

	params := []models.Param{{Name: "client", Value: "0xabc"}, {Name: "val", Value: "10"}}
	fee, err := client.CalculateFee(ctx, models.Currency, "dollar", "calculatebuyfee", params...)
	if err != nil || fee.String() != "0.5" {
		t.Errorf("CalculateFee() = %v, %v", fee, err)
	}
	result, err := client.CalculateResult(ctx, models.Currency, "dollar", "calculatebuyresult", params...)
	if err != nil || result.String() != "9.5" {
		t.Errorf("CalculateResult() = %v, %v", result, err)
	}

	if _, err := client.Import(ctx, models.Token, "toro", models.Request{Op: "mint"}); err != nil {
		t.Errorf("Import() error = %v", err)
	}

	calls := server.Calls()
	if calls[0].Params["pwd"] != "Secret#2024" {
		t.Errorf("createkey params = %v", calls[0].Params)
	}
}
