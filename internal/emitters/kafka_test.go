package emitters

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"

	"toronet-wallet/internal/models"
)

type mockWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	err    error
	closed bool
}

func (m *mockWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.msgs = append(m.msgs, msgs...)
	return nil
}

func (m *mockWriter) Close() error {
	m.closed = true
	return nil
}

func event() models.TransactionEvent {
	return models.TransactionEvent{
		ID:        "evt-9",
		Address:   "0xabc",
		Kind:      models.Sell,
		Category:  models.Currency,
		AssetID:   "euro",
		Amount:    decimal.RequireFromString("12.5"),
		Status:    models.StatusSucceeded,
		Timestamp: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestKafkaEmitterEmitEvent(t *testing.T) {
	w := &mockWriter{}
	k := NewKafkaEmitterWithWriter(w, nil)

	if err := k.EmitEvent(event()); err != nil {
		t.Fatalf("EmitEvent() error = %v", err)
	}
	if len(w.msgs) != 1 {
		t.Fatalf("messages = %d, want 1", len(w.msgs))
	}
	msg := w.msgs[0]
	if string(msg.Key) != "0xabc" {
		t.Errorf("Key = %s, want 0xabc", msg.Key)
	}

	var got models.TransactionEvent
	if err := json.Unmarshal(msg.Value, &got); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if got.ID != "evt-9" || !got.Amount.Equal(decimal.RequireFromString("12.5")) {
		t.Errorf("payload = %+v", got)
	}
}

func TestKafkaEmitterWriteError(t *testing.T) {
	boom := errors.New("broker down")
	k := NewKafkaEmitterWithWriter(&mockWriter{err: boom}, nil)

	if err := k.EmitEvent(event()); !errors.Is(err, boom) {
		t.Errorf("EmitEvent() error = %v, want %v", err, boom)
	}
}

func TestKafkaEmitterClose(t *testing.T) {
	w := &mockWriter{}
	k := NewKafkaEmitterWithWriter(w, nil)

	if err := k.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !w.closed {
		t.Error("writer not closed")
	}
	if err := k.EmitEvent(event()); err == nil {
		t.Error("EmitEvent() after Close should fail")
	}
	if err := k.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}
