package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"toronet-wallet/internal/models"
)

// Entry is one row of journal_entries.
type Entry struct {
	ID          string               `json:"id"`
	Address     string               `json:"address"`
	Kind        models.OperationKind `json:"kind"`
	Category    models.Category      `json:"category"`
	AssetID     string               `json:"asset_id"`
	Amount      decimal.Decimal      `json:"amount"`
	Fee         decimal.NullDecimal  `json:"fee"`
	Result      decimal.NullDecimal  `json:"result"`
	Destination sql.NullString       `json:"destination"`
	Status      models.Status        `json:"status"`
	Message     sql.NullString       `json:"message"`
	OccurredAt  time.Time            `json:"occurred_at"`
	CreatedAt   time.Time            `json:"created_at"`
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// EntryFromEvent maps a transaction event onto a journal row.
func EntryFromEvent(event models.TransactionEvent) Entry {
	return Entry{
		ID:          event.ID,
		Address:     event.Address,
		Kind:        event.Kind,
		Category:    event.Category,
		AssetID:     event.AssetID,
		Amount:      event.Amount,
		Fee:         nullDecimal(event.Fee),
		Result:      nullDecimal(event.Result),
		Destination: nullString(event.Destination),
		Status:      event.Status,
		Message:     nullString(event.Message),
		OccurredAt:  event.Timestamp,
	}
}

// SaveEntry inserts an entry. Saving the same id twice is a no-op.
func (j *Journal) SaveEntry(ctx context.Context, e Entry) error {
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO journal_entries
			(id, address, kind, category, asset_id, amount, fee, result, destination, status, message, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO NOTHING
	`, e.ID, e.Address, e.Kind, e.Category, e.AssetID, e.Amount, e.Fee, e.Result,
		e.Destination, e.Status, e.Message, e.OccurredAt)
	if err != nil {
		return fmt.Errorf("failed to save journal entry: %w", err)
	}
	return nil
}

// RecentEntries returns the newest entries of address, newest first.
func (j *Journal) RecentEntries(ctx context.Context, address string, limit int) ([]Entry, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT id, address, kind, category, asset_id, amount, fee, result,
		       destination, status, message, occurred_at, created_at
		FROM journal_entries
		WHERE address = $1
		ORDER BY occurred_at DESC
		LIMIT $2
	`, address, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Address, &e.Kind, &e.Category, &e.AssetID, &e.Amount, &e.Fee, &e.Result,
			&e.Destination, &e.Status, &e.Message, &e.OccurredAt, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan journal entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
