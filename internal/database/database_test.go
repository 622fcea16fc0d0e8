package database

import (
	"io/fs"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"toronet-wallet/internal/config"
	"toronet-wallet/internal/models"
)

func TestConnString(t *testing.T) {
	got := ConnString(config.DatabaseConfig{
		Host: "db", Port: 5433, User: "wallet", Password: "pw", DBName: "toronet_wallet", SSLMode: "disable",
	})
	want := "host=db port=5433 user=wallet password=pw dbname=toronet_wallet sslmode=disable"
	if got != want {
		t.Errorf("ConnString() = %v, want %v", got, want)
	}
}

func TestMigrationsEmbedded(t *testing.T) {
	files, err := fs.Glob(migrationsFS, "migrations/*.sql")
	if err != nil {
		t.Fatalf("Glob() error = %v", err)
	}
	var up, down int
	for _, f := range files {
		switch {
		case strings.HasSuffix(f, ".up.sql"):
			up++
		case strings.HasSuffix(f, ".down.sql"):
			down++
		}
	}
	if up == 0 || up != down {
		t.Errorf("migrations up = %d, down = %d", up, down)
	}
}

func TestEntryFromEvent(t *testing.T) {
	fee := decimal.RequireFromString("1.25")
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	e := EntryFromEvent(models.TransactionEvent{
		ID:          "7d6f0c1e-2b0a-4f59-9a37-5d1d3e0e8c11",
		Address:     "0xabc",
		Kind:        models.Transfer,
		Category:    models.Currency,
		AssetID:     "dollar",
		Amount:      decimal.NewFromInt(50),
		Fee:         &fee,
		Destination: "0xdef",
		Status:      models.StatusSucceeded,
		Timestamp:   at,
	})

	if !e.Fee.Valid || !e.Fee.Decimal.Equal(fee) {
		t.Errorf("Fee = %+v", e.Fee)
	}
	if e.Result.Valid {
		t.Error("Result should be null")
	}
	if !e.Destination.Valid || e.Destination.String != "0xdef" {
		t.Errorf("Destination = %+v", e.Destination)
	}
	if e.Message.Valid {
		t.Error("Message should be null")
	}
	if !e.OccurredAt.Equal(at) {
		t.Errorf("OccurredAt = %v", e.OccurredAt)
	}
}
