package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Pinger is a cheap reachability check against the remote ledger.
type Pinger interface {
	Ping(ctx context.Context) error
}

// OnlineRecorder receives every check outcome.
type OnlineRecorder interface {
	SetOnline(online bool)
}

// LedgerStatus is the last known connectivity of the ledger.
type LedgerStatus struct {
	Online    bool      `json:"online"`
	LastCheck time.Time `json:"last_check"`
	Error     string    `json:"error,omitempty"`
}

// Monitor checks the ledger on an interval and serves liveness and
// readiness endpoints.
type Monitor struct {
	pinger   Pinger
	interval time.Duration
	recorder OnlineRecorder
	logger   *zerolog.Logger

	ready   int32
	mu      sync.RWMutex
	status  LedgerStatus
	checked bool
	deps    map[string]Pinger
}

func NewMonitor(pinger Pinger, interval time.Duration, recorder OnlineRecorder, logger *zerolog.Logger) *Monitor {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &Monitor{pinger: pinger, interval: interval, recorder: recorder, logger: logger}
}

// AddDependency makes readiness also require p to answer, e.g. the journal.
func (m *Monitor) AddDependency(name string, p Pinger) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deps == nil {
		m.deps = make(map[string]Pinger)
	}
	m.deps[name] = p
}

// checkDependencies pings every dependency and returns the name of the
// first one that fails.
func (m *Monitor) checkDependencies(ctx context.Context) (string, bool) {
	m.mu.RLock()
	deps := make(map[string]Pinger, len(m.deps))
	for name, p := range m.deps {
		deps[name] = p
	}
	m.mu.RUnlock()

	for name, p := range deps {
		ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := p.Ping(ctx)
		cancel()
		if err != nil {
			if m.logger != nil {
				m.logger.Warn().Err(err).Str("dependency", name).Msg("Dependency unreachable")
			}
			return name, false
		}
	}
	return "", true
}

func (m *Monitor) SetReady(ready bool) {
	if ready {
		atomic.StoreInt32(&m.ready, 1)
	} else {
		atomic.StoreInt32(&m.ready, 0)
	}
}

// Online reports the result of the last check.
func (m *Monitor) Online() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status.Online
}

func (m *Monitor) Status() LedgerStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// Check pings the ledger once and records the outcome.
func (m *Monitor) Check(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, m.interval)
	defer cancel()

	err := m.pinger.Ping(ctx)
	online := err == nil

	m.mu.Lock()
	changed := !m.checked || m.status.Online != online
	m.checked = true
	m.status = LedgerStatus{Online: online, LastCheck: time.Now()}
	if err != nil {
		m.status.Error = err.Error()
	}
	m.mu.Unlock()

	if m.recorder != nil {
		m.recorder.SetOnline(online)
	}
	if changed && m.logger != nil {
		if online {
			m.logger.Info().Msg("Ledger reachable")
		} else {
			m.logger.Warn().Err(err).Msg("Ledger unreachable")
		}
	}
	return online
}

// Run checks until ctx is done.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.Check(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Check(ctx)
		}
	}
}

func (m *Monitor) LivenessHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// ReadinessHandler reports ready once the service has started, the ledger
// answered the last check and every dependency answers a ping.
func (m *Monitor) ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	status := m.Status()

	if atomic.LoadInt32(&m.ready) == 0 || !status.Online {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("Not Ready"))

		return
	}
	if name, ok := m.checkDependencies(r.Context()); !ok {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("Not Ready: " + name))

		return
	}

	response := make(map[string]interface{})
	response["status"] = "Ready"
	response["ledger"] = status

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(response)
}
