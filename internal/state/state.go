// Package state is the wallet's single in-memory state tree. The process root
// owns one Store and hands it to every component that reads or writes it.
package state

import (
	"encoding/json"
	"sync"
	"time"

	"toronet-wallet/internal/models"
)

// QueryKind names one independently tracked fetch.
type QueryKind string

const (
	Balances        QueryKind = "balances"
	Rates           QueryKind = "rates"
	Transactions    QueryKind = "transactions"
	LinkedAddresses QueryKind = "linked_addresses"
)

// BalanceKind is the single-asset balance query of a category.
func BalanceKind(c models.Category) QueryKind {
	return QueryKind(c.String() + "_balance")
}

// RateKind is the single-asset rate query of a category.
func RateKind(c models.Category) QueryKind {
	return QueryKind(c.String() + "_rate")
}

// TransactionsKind is the per-asset history query of a category.
func TransactionsKind(c models.Category) QueryKind {
	return QueryKind(c.String() + "_transactions")
}

// Snapshot is the last known result of one query kind.
type Snapshot struct {
	Values    map[string]string `json:"values,omitempty"`
	Status    models.Status     `json:"status"`
	Error     string            `json:"error,omitempty"`
	UpdatedAt time.Time         `json:"updated_at,omitempty"`
}

// Activity groups the orchestrator and auth statuses.
type Activity string

const (
	Calculating    Activity = "calculating"
	Verifying      Activity = "verifying"
	Minting        Activity = "minting"
	Authenticating Activity = "authenticating"
	Registering    Activity = "registering"
)

// ActivityKey identifies one status in the activity map.
type ActivityKey struct {
	Activity Activity             `json:"activity"`
	Kind     models.OperationKind `json:"kind,omitempty"`
	AssetID  string               `json:"asset_id,omitempty"`
}

// ActivityStatus is the value stored under an ActivityKey.
type ActivityStatus struct {
	Status  models.Status `json:"status"`
	Message string        `json:"message,omitempty"`
}

// Change describes one write to the store.
type Change struct {
	Query    QueryKind     `json:"query,omitempty"`
	Activity *ActivityKey  `json:"activity,omitempty"`
	Status   models.Status `json:"status"`
	At       time.Time     `json:"at"`
}

type subscriber struct {
	ch chan Change
}

// Store is safe for concurrent use.
type Store struct {
	mu           sync.RWMutex
	queries      map[QueryKind]Snapshot
	transactions map[QueryKind][]models.Transaction
	links        json.RawMessage
	activities   map[ActivityKey]ActivityStatus

	subMu sync.Mutex
	subs  map[*subscriber]struct{}
	now   func() time.Time
}

func NewStore() *Store {
	return &Store{
		queries:      make(map[QueryKind]Snapshot),
		transactions: make(map[QueryKind][]models.Transaction),
		activities:   make(map[ActivityKey]ActivityStatus),
		subs:         make(map[*subscriber]struct{}),
		now:          time.Now,
	}
}

// BeginQuery marks kind pending and clears its error. Values are kept.
func (s *Store) BeginQuery(kind QueryKind) {
	s.mu.Lock()
	snap := s.queries[kind]
	snap.Status = models.StatusPending
	snap.Error = ""
	s.queries[kind] = snap
	s.mu.Unlock()

	s.publish(Change{Query: kind, Status: models.StatusPending})
}

// ResolveQuery replaces the values of kind. The last call to settle wins.
func (s *Store) ResolveQuery(kind QueryKind, values map[string]string) {
	copied := make(map[string]string, len(values))
	for k, v := range values {
		copied[k] = v
	}

	s.mu.Lock()
	s.queries[kind] = Snapshot{
		Values:    copied,
		Status:    models.StatusSucceeded,
		UpdatedAt: s.now(),
	}
	s.mu.Unlock()

	s.publish(Change{Query: kind, Status: models.StatusSucceeded})
}

// MergeQuery sets individual keys of kind, keeping the others.
func (s *Store) MergeQuery(kind QueryKind, values map[string]string) {
	s.mu.Lock()
	snap := s.queries[kind]
	merged := make(map[string]string, len(snap.Values)+len(values))
	for k, v := range snap.Values {
		merged[k] = v
	}
	for k, v := range values {
		merged[k] = v
	}
	s.queries[kind] = Snapshot{
		Values:    merged,
		Status:    models.StatusSucceeded,
		UpdatedAt: s.now(),
	}
	s.mu.Unlock()

	s.publish(Change{Query: kind, Status: models.StatusSucceeded})
}

// RejectQuery marks kind failed. The last successful values are kept.
func (s *Store) RejectQuery(kind QueryKind, message string) {
	s.mu.Lock()
	snap := s.queries[kind]
	snap.Status = models.StatusFailed
	snap.Error = message
	s.queries[kind] = snap
	s.mu.Unlock()

	s.publish(Change{Query: kind, Status: models.StatusFailed})
}

// AbandonQuery puts kind back to the status it had before BeginQuery. Used
// when the caller went away and the result must not be applied.
func (s *Store) AbandonQuery(kind QueryKind, prev Snapshot) {
	s.mu.Lock()
	snap := s.queries[kind]
	snap.Status = prev.Status
	snap.Error = prev.Error
	if snap.Status == "" {
		snap.Status = models.StatusIdle
	}
	s.queries[kind] = snap
	s.mu.Unlock()

	s.publish(Change{Query: kind, Status: snap.Status})
}

// Query returns a copy of the snapshot of kind. Unknown kinds are idle.
func (s *Store) Query(kind QueryKind) Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.queries[kind]
	if !ok {
		return Snapshot{Status: models.StatusIdle}
	}
	values := make(map[string]string, len(snap.Values))
	for k, v := range snap.Values {
		values[k] = v
	}
	snap.Values = values
	return snap
}

// ResolveTransactions stores the history records of kind and marks it succeeded.
func (s *Store) ResolveTransactions(kind QueryKind, records []models.Transaction) {
	copied := make([]models.Transaction, len(records))
	copy(copied, records)

	s.mu.Lock()
	s.transactions[kind] = copied
	s.queries[kind] = Snapshot{Status: models.StatusSucceeded, UpdatedAt: s.now()}
	s.mu.Unlock()

	s.publish(Change{Query: kind, Status: models.StatusSucceeded})
}

func (s *Store) Transactions(kind QueryKind) []models.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Transaction, len(s.transactions[kind]))
	copy(out, s.transactions[kind])
	return out
}

// ResolveLinks stores the raw linked-address payload.
func (s *Store) ResolveLinks(payload json.RawMessage) {
	copied := append(json.RawMessage(nil), payload...)

	s.mu.Lock()
	s.links = copied
	s.queries[LinkedAddresses] = Snapshot{Status: models.StatusSucceeded, UpdatedAt: s.now()}
	s.mu.Unlock()

	s.publish(Change{Query: LinkedAddresses, Status: models.StatusSucceeded})
}

func (s *Store) LinkedAddresses() json.RawMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append(json.RawMessage(nil), s.links...)
}

// SetActivity writes one activity status. Setting idle removes the entry.
func (s *Store) SetActivity(key ActivityKey, status models.Status, message string) {
	s.mu.Lock()
	if status == models.StatusIdle {
		delete(s.activities, key)
	} else {
		s.activities[key] = ActivityStatus{Status: status, Message: message}
	}
	s.mu.Unlock()

	k := key
	s.publish(Change{Activity: &k, Status: status})
}

// Activity returns the status of key; absent keys are idle.
func (s *Store) Activity(key ActivityKey) ActivityStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.activities[key]
	if !ok {
		return ActivityStatus{Status: models.StatusIdle}
	}
	return st
}

// Activities returns every non-idle activity.
func (s *Store) Activities() map[ActivityKey]ActivityStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[ActivityKey]ActivityStatus, len(s.activities))
	for k, v := range s.activities {
		out[k] = v
	}
	return out
}

// Reset drops all identity-scoped data. Used on logout.
func (s *Store) Reset() {
	s.mu.Lock()
	s.queries = make(map[QueryKind]Snapshot)
	s.transactions = make(map[QueryKind][]models.Transaction)
	s.links = nil
	s.activities = make(map[ActivityKey]ActivityStatus)
	s.mu.Unlock()

	s.publish(Change{Status: models.StatusIdle})
}

// Subscribe returns a channel of changes. A subscriber whose buffer is full
// misses changes rather than blocking writers. cancel closes the channel.
func (s *Store) Subscribe(buffer int) (<-chan Change, func()) {
	sub := &subscriber{ch: make(chan Change, buffer)}

	s.subMu.Lock()
	s.subs[sub] = struct{}{}
	s.subMu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, sub)
			close(sub.ch)
			s.subMu.Unlock()
		})
	}
	return sub.ch, cancel
}

func (s *Store) publish(c Change) {
	c.At = s.now()

	s.subMu.Lock()
	defer s.subMu.Unlock()
	for sub := range s.subs {
		select {
		case sub.ch <- c:
		default:
		}
	}
}
