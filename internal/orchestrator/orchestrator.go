// Package orchestrator drives value-moving operations through fee quote,
// result preview, credential confirmation and submission.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"toronet-wallet/internal/catalog"
	"toronet-wallet/internal/interfaces"
	"toronet-wallet/internal/ledger"
	"toronet-wallet/internal/metrics"
	"toronet-wallet/internal/models"
	"toronet-wallet/internal/state"
	"toronet-wallet/internal/validation"
)

// SecretPolicy decides what happens to the entered secret after a failed submit.
type SecretPolicy string

const (
	// RetainSecret keeps the secret so the user can retry without retyping it.
	RetainSecret SecretPolicy = "retain"
	// ClearSecret zeroes the secret after every submit attempt.
	ClearSecret SecretPolicy = "clear"
)

// ParseSecretPolicy accepts "retain" or "clear".
func ParseSecretPolicy(s string) (SecretPolicy, error) {
	switch p := SecretPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case RetainSecret, ClearSecret:
		return p, nil
	}
	return "", fmt.Errorf("unknown secret policy %q", s)
}

const defaultRequestTimeout = 20 * time.Second

// Options carries the optional collaborators of an Orchestrator.
type Options struct {
	RequestTimeout time.Duration
	SecretPolicy   SecretPolicy
	Authority      MintAuthority
	Emitter        interfaces.EventEmitter
	Metrics        *metrics.Recorder
}

// Intent is what the user asked for, before validation.
type Intent struct {
	Identity    models.Identity
	Asset       catalog.Asset
	Kind        models.OperationKind
	Amount      string
	Destination string
}

// surface identifies the form an intent came from. Only one flow may be
// open per surface.
type surface struct {
	address string
	kind    models.OperationKind
	assetID string
	cat     models.Category
}

type Orchestrator struct {
	transactor     interfaces.LedgerTransactor
	store          *state.Store
	refresher      interfaces.Refresher
	emitter        interfaces.EventEmitter
	authority      MintAuthority
	metrics        *metrics.Recorder
	logger         *zerolog.Logger
	requestTimeout time.Duration
	secretPolicy   SecretPolicy
	guard          *guard
	now            func() time.Time

	mu       sync.Mutex
	flows    map[string]*Flow
	surfaces map[surface]*Flow
}

func New(transactor interfaces.LedgerTransactor, store *state.Store, refresher interfaces.Refresher, logger *zerolog.Logger, opts Options) *Orchestrator {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = defaultRequestTimeout
	}
	if opts.SecretPolicy == "" {
		opts.SecretPolicy = RetainSecret
	}
	return &Orchestrator{
		transactor:     transactor,
		store:          store,
		refresher:      refresher,
		emitter:        opts.Emitter,
		authority:      opts.Authority,
		metrics:        opts.Metrics,
		logger:         logger,
		requestTimeout: opts.RequestTimeout,
		secretPolicy:   opts.SecretPolicy,
		guard:          newGuard(),
		now:            time.Now,
		flows:          make(map[string]*Flow),
		surfaces:       make(map[surface]*Flow),
	}
}

// validate checks an intent without any network I/O.
func validate(intent Intent) (decimal.Decimal, error) {
	if intent.Identity.Empty() {
		return decimal.Zero, &validation.Error{Field: "address", Message: "no authenticated identity"}
	}
	if !intent.Asset.Category.Valid() || intent.Asset.AssetID == "" {
		return decimal.Zero, &validation.Error{Field: "asset", Message: "unknown asset"}
	}
	if _, ok := catalog.ByAssetID(intent.Asset.Category, intent.Asset.AssetID); !ok {
		return decimal.Zero, &validation.Error{Field: "asset", Message: fmt.Sprintf("unknown asset %s", intent.Asset.AssetID)}
	}
	if !catalog.Supports(intent.Asset.Category, intent.Kind) {
		return decimal.Zero, &validation.Error{
			Field:   "kind",
			Message: fmt.Sprintf("%s is not supported for %s assets", intent.Kind, intent.Asset.Category),
		}
	}

	amount, err := validation.ParseAmount(intent.Amount)
	if err != nil {
		return decimal.Zero, err
	}

	if intent.Kind.NeedsDestination() {
		// Transfers stay on Toronet; withdrawals leave on the asset's network.
		network := ""
		if intent.Kind == models.Withdraw {
			network = intent.Asset.Network
		}
		if err := validation.ValidateAddress(intent.Destination, network); err != nil {
			return decimal.Zero, destinationError(err)
		}
	}
	return amount, nil
}

func destinationError(err error) error {
	var ve *validation.Error
	if errors.As(err, &ve) {
		return &validation.Error{Field: "destination", Message: ve.Message}
	}
	return err
}

// Begin validates intent and opens a flow for it. A flow already open on
// the same surface is cancelled and waited for. Mint intents go through Mint instead.
func (o *Orchestrator) Begin(intent Intent) (*Flow, error) {
	if intent.Kind == models.Mint {
		return nil, &validation.Error{Field: "kind", Message: "mint does not use a confirmation flow"}
	}
	if canonical, ok := catalog.ByAssetID(intent.Asset.Category, intent.Asset.AssetID); ok {
		intent.Asset = canonical
	}

	amount, err := validate(intent)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	f := &Flow{
		ID:     uuid.NewString(),
		o:      o,
		intent: intent,
		amount: amount,
		route:  routes[intent.Kind],
		phase:  AwaitingFeeQuote,
		ctx:    ctx,
		cancel: cancel,
	}

	key := surface{address: intent.Identity.Address, kind: intent.Kind, assetID: intent.Asset.AssetID, cat: intent.Asset.Category}

	o.mu.Lock()
	previous := o.surfaces[key]
	o.surfaces[key] = f
	o.flows[f.ID] = f
	o.mu.Unlock()

	// The previous flow's steps have unwound once Cancel returns, so its
	// guard entries are released before this flow quotes.
	if previous != nil {
		previous.Cancel()
	}
	f.captureRest()

	o.logger.Debug().
		Str("flow", f.ID).
		Str("kind", intent.Kind.String()).
		Str("asset", intent.Asset.AssetID).
		Msg("Flow started")
	return f, nil
}

// Flow returns an open flow by id.
func (o *Orchestrator) Flow(id string) (*Flow, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	f, ok := o.flows[id]
	return f, ok
}

// Flows returns snapshots of every open flow.
func (o *Orchestrator) Flows() []FlowSnapshot {
	o.mu.Lock()
	flows := make([]*Flow, 0, len(o.flows))
	for _, f := range o.flows {
		flows = append(flows, f)
	}
	o.mu.Unlock()

	out := make([]FlowSnapshot, 0, len(flows))
	for _, f := range flows {
		out = append(out, f.Snapshot())
	}
	return out
}

func (o *Orchestrator) forget(f *Flow) {
	o.mu.Lock()
	defer o.mu.Unlock()

	delete(o.flows, f.ID)
	key := surface{address: f.intent.Identity.Address, kind: f.intent.Kind, assetID: f.intent.Asset.AssetID, cat: f.intent.Asset.Category}
	if o.surfaces[key] == f {
		delete(o.surfaces, key)
	}
}

// CancelAll closes every open flow. Used on logout.
func (o *Orchestrator) CancelAll() {
	o.mu.Lock()
	flows := make([]*Flow, 0, len(o.flows))
	for _, f := range o.flows {
		flows = append(flows, f)
	}
	o.mu.Unlock()

	for _, f := range flows {
		f.Cancel()
	}
}

func canceled(ctx context.Context) bool {
	return errors.Is(ctx.Err(), context.Canceled)
}

// execute runs one ledger step under the status protocol of key: pending
// while it runs, then succeeded or failed. A canceled caller puts the status
// back to what it was. Concurrent callers are coalesced by the guard.
func (o *Orchestrator) execute(ctx context.Context, key state.ActivityKey, fingerprint string, fn func(ctx context.Context) (any, error)) (any, error) {
	v, shared, err := o.guard.do(key, fingerprint, func() (any, error) {
		prev := o.store.Activity(key)
		o.store.SetActivity(key, models.StatusPending, "")

		callCtx, cancel := context.WithTimeout(ctx, o.requestTimeout)
		defer cancel()

		v, err := fn(callCtx)
		switch {
		case err == nil:
			o.store.SetActivity(key, models.StatusSucceeded, "")
		case canceled(ctx):
			o.store.SetActivity(key, prev.Status, prev.Message)
			err = &ledger.TransportError{Kind: ledger.KindCanceled, Op: string(key.Activity), Err: ctx.Err()}
		default:
			if errors.Is(callCtx.Err(), context.DeadlineExceeded) && !ledger.IsKind(err, ledger.KindTimeout) {
				err = &ledger.TransportError{Kind: ledger.KindTimeout, Op: string(key.Activity), Err: err}
			}
			o.store.SetActivity(key, models.StatusFailed, ledger.UserMessage(err))
		}
		return v, err
	})
	if shared {
		o.logger.Debug().
			Str("activity", string(key.Activity)).
			Str("kind", key.Kind.String()).
			Str("asset", key.AssetID).
			Msg("Coalesced duplicate request")
	}
	return v, err
}

func (o *Orchestrator) emit(event models.TransactionEvent) {
	if o.emitter == nil {
		return
	}
	if err := o.emitter.EmitEvent(event); err != nil {
		o.logger.Error().
			Err(err).
			Str("kind", event.Kind.String()).
			Str("asset", event.AssetID).
			Msg("Failed to emit transaction event")
	}
}

func (o *Orchestrator) refresh(ctx context.Context, identity models.Identity, asset catalog.Asset) {
	if o.refresher == nil {
		return
	}
	if err := o.refresher.Refresh(ctx, identity, asset); err != nil {
		o.logger.Warn().
			Err(err).
			Str("asset", asset.AssetID).
			Msg("Refresh after transaction failed")
	}
}

// Receipt describes a completed submission or mint.
type Receipt struct {
	ID          string               `json:"id"`
	Kind        models.OperationKind `json:"kind"`
	Category    models.Category      `json:"category"`
	AssetID     string               `json:"asset_id"`
	Amount      decimal.Decimal      `json:"amount"`
	Fee         *decimal.Decimal     `json:"fee,omitempty"`
	Result      *decimal.Decimal     `json:"result,omitempty"`
	Destination string               `json:"destination,omitempty"`
	Message     string               `json:"message,omitempty"`
	At          time.Time            `json:"at"`
}

func (r *Receipt) event(address string, status models.Status) models.TransactionEvent {
	return models.TransactionEvent{
		ID:          r.ID,
		Address:     address,
		Kind:        r.Kind,
		Category:    r.Category,
		AssetID:     r.AssetID,
		Amount:      r.Amount,
		Fee:         r.Fee,
		Result:      r.Result,
		Destination: r.Destination,
		Status:      status,
		Message:     r.Message,
		Timestamp:   r.At,
	}
}
