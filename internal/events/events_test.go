package events

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"toronet-wallet/internal/database"
	"toronet-wallet/internal/models"
)

type recordingEmitter struct {
	mu     sync.Mutex
	events []models.TransactionEvent
	err    error
}

func (r *recordingEmitter) EmitEvent(event models.TransactionEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return r.err
}

type recordingSaver struct {
	mu      sync.Mutex
	entries []database.Entry
}

func (r *recordingSaver) SaveEntry(ctx context.Context, e database.Entry) error {
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("no deadline")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
	return nil
}

func sampleEvent() models.TransactionEvent {
	return models.TransactionEvent{
		ID:        "evt-1",
		Address:   "0xabc",
		Kind:      models.Buy,
		Category:  models.Currency,
		AssetID:   "naira",
		Amount:    decimal.NewFromInt(10),
		Status:    models.StatusSucceeded,
		Timestamp: time.Now(),
	}
}

func TestLogEmitter(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf)
	inner := &recordingEmitter{}
	e := &LogEmitter{WrappedEmitter: inner, Logger: &log}

	if err := e.EmitEvent(sampleEvent()); err != nil {
		t.Fatalf("EmitEvent() error = %v", err)
	}
	if len(inner.events) != 1 {
		t.Errorf("forwarded = %d, want 1", len(inner.events))
	}
	if !strings.Contains(buf.String(), `"kind":"buy"`) {
		t.Errorf("log output = %s", buf.String())
	}
}

func TestLogEmitterWithoutWrapped(t *testing.T) {
	e := &LogEmitter{}
	if err := e.EmitEvent(sampleEvent()); err != nil {
		t.Errorf("EmitEvent() error = %v, want nil", err)
	}
}

func TestFanout(t *testing.T) {
	boom := errors.New("boom")
	ok := &recordingEmitter{}
	bad := &recordingEmitter{err: boom}

	err := Fanout{bad, nil, ok}.EmitEvent(sampleEvent())
	if !errors.Is(err, boom) {
		t.Errorf("EmitEvent() error = %v, want %v", err, boom)
	}
	if len(ok.events) != 1 {
		t.Error("later emitters should still receive the event")
	}
}

func TestJournalEmitter(t *testing.T) {
	saver := &recordingSaver{}
	e := &JournalEmitter{Journal: saver}

	if err := e.EmitEvent(sampleEvent()); err != nil {
		t.Fatalf("EmitEvent() error = %v", err)
	}
	if len(saver.entries) != 1 || saver.entries[0].ID != "evt-1" {
		t.Errorf("entries = %+v", saver.entries)
	}
}
