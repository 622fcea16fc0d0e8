package events

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"toronet-wallet/internal/database"
	"toronet-wallet/internal/interfaces"
	"toronet-wallet/internal/models"
)

// LogEmitter wraps another emitter and logs every event it sees
type LogEmitter struct {
	WrappedEmitter interfaces.EventEmitter
	Logger         *zerolog.Logger
}

// EmitEvent logs the event and forwards to the wrapped emitter
func (d *LogEmitter) EmitEvent(event models.TransactionEvent) error {
	if d.Logger != nil {
		e := d.Logger.Info()
		if event.Status == models.StatusFailed {
			e = d.Logger.Warn()
		}
		e.Str("id", event.ID).
			Str("address", event.Address).
			Str("kind", event.Kind.String()).
			Str("asset", event.AssetID).
			Str("amount", event.Amount.String()).
			Str("status", string(event.Status)).
			Str("destination", event.Destination).
			Time("timestamp", event.Timestamp).
			Msg("Transaction event")
	}

	if d.WrappedEmitter != nil {
		return d.WrappedEmitter.EmitEvent(event)
	}
	return nil
}

// Fanout delivers each event to every emitter and joins their errors.
type Fanout []interfaces.EventEmitter

func (f Fanout) EmitEvent(event models.TransactionEvent) error {
	var errs []error
	for _, e := range f {
		if e == nil {
			continue
		}
		if err := e.EmitEvent(event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// EntrySaver persists journal entries.
type EntrySaver interface {
	SaveEntry(ctx context.Context, e database.Entry) error
}

// JournalEmitter writes events to the transaction journal.
type JournalEmitter struct {
	Journal EntrySaver
	Timeout time.Duration
}

func (j *JournalEmitter) EmitEvent(event models.TransactionEvent) error {
	timeout := j.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return j.Journal.SaveEntry(ctx, database.EntryFromEvent(event))
}
