package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg)

	r.Operation("transfer", "fee", "succeeded")
	r.Operation("transfer", "fee", "succeeded")
	r.Query("balances", "failed")
	r.ObserveLedgerCall("getbalance", "ok", 25*time.Millisecond)
	r.SetOnline(true)

	if got := testutil.ToFloat64(r.Operations.WithLabelValues("transfer", "fee", "succeeded")); got != 2 {
		t.Errorf("operations = %v, want 2", got)
	}
	if got := testutil.ToFloat64(r.Queries.WithLabelValues("balances", "failed")); got != 1 {
		t.Errorf("queries = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.Online); got != 1 {
		t.Errorf("online = %v, want 1", got)
	}
	if n := testutil.CollectAndCount(r.LedgerLatency); n != 1 {
		t.Errorf("latency series = %d, want 1", n)
	}
}

func TestNilRecorder(t *testing.T) {
	var r *Recorder
	r.Operation("transfer", "fee", "failed")
	r.Query("rates", "succeeded")
	r.ObserveLedgerCall("op", "ok", time.Second)
	r.SetOnline(false)
}
