package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

type mockPinger struct {
	mu  sync.Mutex
	err error
}

func (m *mockPinger) Ping(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

func (m *mockPinger) set(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

type mockRecorder struct {
	mu     sync.Mutex
	values []bool
}

func (m *mockRecorder) SetOnline(online bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values = append(m.values, online)
}

func TestCheck(t *testing.T) {
	p := &mockPinger{}
	rec := &mockRecorder{}
	m := NewMonitor(p, time.Second, rec, nil)

	if !m.Check(context.Background()) {
		t.Error("Check() = false, want true")
	}
	p.set(errors.New("dial tcp: refused"))
	if m.Check(context.Background()) {
		t.Error("Check() = true, want false")
	}

	if got := m.Status(); got.Online || got.Error == "" {
		t.Errorf("Status() = %+v", got)
	}
	if len(rec.values) != 2 || !rec.values[0] || rec.values[1] {
		t.Errorf("recorded = %v, want [true false]", rec.values)
	}
}

func TestReadinessHandler(t *testing.T) {
	p := &mockPinger{}
	m := NewMonitor(p, time.Second, nil, nil)

	tests := []struct {
		name  string
		ready bool
		err   error
		want  int
	}{
		{"not started", false, nil, http.StatusServiceUnavailable},
		{"ledger down", true, errors.New("timeout"), http.StatusServiceUnavailable},
		{"ready", true, nil, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p.set(tt.err)
			m.SetReady(tt.ready)
			m.Check(context.Background())

			rr := httptest.NewRecorder()
			m.ReadinessHandler(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
			if rr.Code != tt.want {
				t.Errorf("status = %v, want %v", rr.Code, tt.want)
			}
		})
	}
}

func TestLivenessHandler(t *testing.T) {
	m := NewMonitor(&mockPinger{}, 0, nil, nil)
	rr := httptest.NewRecorder()
	m.LivenessHandler(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Code != http.StatusOK {
		t.Errorf("status = %v, want %v", rr.Code, http.StatusOK)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	m := NewMonitor(&mockPinger{}, 5*time.Millisecond, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if !m.Online() {
		t.Error("Online() = false after successful checks")
	}
}

func TestReadinessRequiresDependencies(t *testing.T) {
	m := NewMonitor(&mockPinger{}, time.Second, nil, nil)
	m.SetReady(true)
	m.Check(context.Background())

	journal := &mockPinger{}
	m.AddDependency("journal", journal)

	rr := httptest.NewRecorder()
	m.ReadinessHandler(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rr.Code != http.StatusOK {
		t.Errorf("status = %v, want %v", rr.Code, http.StatusOK)
	}

	journal.set(errors.New("connection refused"))
	rr = httptest.NewRecorder()
	m.ReadinessHandler(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %v, want %v", rr.Code, http.StatusServiceUnavailable)
	}
	if !strings.Contains(rr.Body.String(), "journal") {
		t.Errorf("body = %q, want the failing dependency named", rr.Body.String())
	}
}
