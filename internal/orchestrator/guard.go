package orchestrator

import (
	"sync"

	"golang.org/x/sync/singleflight"

	"toronet-wallet/internal/state"
)

type inflight struct {
	fingerprint string
	refs        int
}

// guard lets one request per activity key run at a time. Callers with the
// same fingerprint share the pending result; others get ErrInFlight.
type guard struct {
	mu      sync.Mutex
	pending map[state.ActivityKey]*inflight
	group   singleflight.Group
}

func newGuard() *guard {
	return &guard{pending: make(map[state.ActivityKey]*inflight)}
}

func (g *guard) do(key state.ActivityKey, fingerprint string, fn func() (any, error)) (any, bool, error) {
	g.mu.Lock()
	entry, ok := g.pending[key]
	if ok && entry.fingerprint != fingerprint {
		g.mu.Unlock()
		return nil, false, ErrInFlight
	}
	if !ok {
		entry = &inflight{fingerprint: fingerprint}
		g.pending[key] = entry
	}
	entry.refs++
	g.mu.Unlock()

	defer func() {
		g.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(g.pending, key)
		}
		g.mu.Unlock()
	}()

	v, err, shared := g.group.Do(groupKey(key, fingerprint), fn)
	return v, shared, err
}

func groupKey(key state.ActivityKey, fingerprint string) string {
	return string(key.Activity) + "|" + string(key.Kind) + "|" + key.AssetID + "|" + fingerprint
}
