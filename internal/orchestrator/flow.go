package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"toronet-wallet/internal/ledger"
	"toronet-wallet/internal/models"
	"toronet-wallet/internal/state"
	"toronet-wallet/internal/validation"
)

// Phase is the step a flow is waiting on.
type Phase string

const (
	AwaitingFeeQuote      Phase = "awaiting_fee_quote"
	AwaitingResultPreview Phase = "awaiting_result_preview"
	AwaitingCredential    Phase = "awaiting_credential"
	Submitting            Phase = "submitting"
	Done                  Phase = "done"
	// Failed means the last quote was rejected; the flow can be quoted again.
	Failed Phase = "failed"
)

// Gate is the credential step. The secret is held as bytes so it can be
// zeroed in place.
type Gate struct {
	open   bool
	secret []byte
}

func (g *Gate) clear() {
	for i := range g.secret {
		g.secret[i] = 0
	}
	g.secret = nil
}

func (g *Gate) close() {
	g.open = false
	g.clear()
}

// Flow is one intent moving through its steps. All methods are safe for
// concurrent use.
type Flow struct {
	ID string

	o      *Orchestrator
	intent Intent
	amount decimal.Decimal
	route  route

	// ctx is canceled when the flow closes so pending steps stop.
	ctx    context.Context
	cancel context.CancelFunc
	// steps counts ledger steps still unwinding; none start once closed.
	steps sync.WaitGroup
	// rest holds the statuses found when the flow began.
	rest map[state.Activity]state.ActivityStatus

	mu      sync.Mutex
	phase   Phase
	fee     *decimal.Decimal
	result  *decimal.Decimal
	gate    Gate
	lastErr string
	closed  bool
}

// FlowSnapshot is a read-only view of a flow. The secret is never exposed.
type FlowSnapshot struct {
	ID             string               `json:"id"`
	Phase          Phase                `json:"phase"`
	Kind           models.OperationKind `json:"kind"`
	Category       models.Category      `json:"category"`
	AssetID        string               `json:"asset_id"`
	CurrencyCode   string               `json:"currency_code"`
	Amount         decimal.Decimal      `json:"amount"`
	Destination    string               `json:"destination,omitempty"`
	Fee            *decimal.Decimal     `json:"fee,omitempty"`
	Result         *decimal.Decimal     `json:"result,omitempty"`
	GateOpen       bool                 `json:"gate_open"`
	SecretRetained bool                 `json:"secret_retained"`
	Error          string               `json:"error,omitempty"`
}

func (f *Flow) Snapshot() FlowSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()

	return FlowSnapshot{
		ID:             f.ID,
		Phase:          f.phase,
		Kind:           f.intent.Kind,
		Category:       f.intent.Asset.Category,
		AssetID:        f.intent.Asset.AssetID,
		CurrencyCode:   f.intent.Asset.CurrencyCode,
		Amount:         f.amount,
		Destination:    f.intent.Destination,
		Fee:            f.fee,
		Result:         f.result,
		GateOpen:       f.gate.open,
		SecretRetained: len(f.gate.secret) > 0,
		Error:          f.lastErr,
	}
}

// bind derives a context that ends when either ctx or the flow ends, and
// registers the step so Cancel can wait for it.
func (f *Flow) bind(ctx context.Context) (context.Context, func(), error) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil, nil, ErrFlowClosed
	}
	f.steps.Add(1)
	f.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(f.ctx, cancel)
	return ctx, func() {
		stop()
		cancel()
		f.steps.Done()
	}, nil
}

var flowActivities = []state.Activity{state.Calculating, state.Verifying}

func (f *Flow) captureRest() {
	rest := make(map[state.Activity]state.ActivityStatus, len(flowActivities))
	for _, activity := range flowActivities {
		rest[activity] = f.o.store.Activity(f.key(activity))
	}
	f.mu.Lock()
	f.rest = rest
	f.mu.Unlock()
}

func (f *Flow) key(activity state.Activity) state.ActivityKey {
	return state.ActivityKey{Activity: activity, Kind: f.intent.Kind, AssetID: f.intent.Asset.AssetID}
}

func (f *Flow) fingerprint(op string) string {
	return f.ID + "|" + op
}

func (f *Flow) invalidStep(op string) error {
	return fmt.Errorf("%w: %s while %s", ErrInvalidStep, op, f.phase)
}

// QuoteFee asks the ledger for the fee of the intent. Any earlier quote is
// discarded and the gate is closed.
func (f *Flow) QuoteFee(ctx context.Context) (decimal.Decimal, error) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return decimal.Zero, ErrFlowClosed
	}
	if f.phase == Submitting || f.phase == Done {
		err := f.invalidStep("fee quote")
		f.mu.Unlock()
		return decimal.Zero, err
	}
	f.mu.Unlock()

	ctx, stop, err := f.bind(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	defer stop()

	asset := f.intent.Asset
	v, err := f.o.execute(ctx, f.key(state.Calculating), f.fingerprint(f.route.FeeOp), func(ctx context.Context) (any, error) {
		return f.o.transactor.CalculateFee(ctx, asset.Category, asset.AssetID, f.route.FeeOp,
			quoteParams(f.intent.Identity.Address, f.amount.String())...)
	})

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return decimal.Zero, ErrFlowClosed
	}
	if err != nil {
		if !ledger.IsKind(err, ledger.KindCanceled) && !errors.Is(err, ErrInFlight) {
			f.fail(err)
		}
		f.o.metrics.Operation(f.intent.Kind.String(), "fee", string(models.StatusFailed))
		return decimal.Zero, err
	}

	fee := v.(decimal.Decimal)
	f.fee = &fee
	f.result = nil
	f.lastErr = ""
	f.gate.close()
	if f.intent.Kind.NeedsResultPreview() {
		f.phase = AwaitingResultPreview
	} else {
		f.phase = AwaitingCredential
	}
	f.o.metrics.Operation(f.intent.Kind.String(), "fee", string(models.StatusSucceeded))
	return fee, nil
}

// fail records a quote failure. Quotes are dropped so the gate cannot open.
func (f *Flow) fail(err error) {
	f.phase = Failed
	f.fee = nil
	f.result = nil
	f.gate.close()
	f.lastErr = ledger.UserMessage(err)
}

// QuoteResult previews the native-token proceeds of a buy or sell. It needs
// a fee quote for the same intent first.
func (f *Flow) QuoteResult(ctx context.Context) (decimal.Decimal, error) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return decimal.Zero, ErrFlowClosed
	}
	if !f.intent.Kind.NeedsResultPreview() {
		f.mu.Unlock()
		return decimal.Zero, fmt.Errorf("%w: %s has no result preview", ErrInvalidStep, f.intent.Kind)
	}
	if f.fee == nil || f.phase == Submitting || f.phase == Done {
		err := f.invalidStep("result preview")
		f.mu.Unlock()
		return decimal.Zero, err
	}
	f.mu.Unlock()

	ctx, stop, err := f.bind(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	defer stop()

	asset := f.intent.Asset
	v, err := f.o.execute(ctx, f.key(state.Calculating), f.fingerprint(f.route.ResultOp), func(ctx context.Context) (any, error) {
		return f.o.transactor.CalculateResult(ctx, asset.Category, asset.AssetID, f.route.ResultOp,
			quoteParams(f.intent.Identity.Address, f.amount.String())...)
	})

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return decimal.Zero, ErrFlowClosed
	}
	if err != nil {
		if !ledger.IsKind(err, ledger.KindCanceled) && !errors.Is(err, ErrInFlight) {
			f.fail(err)
		}
		f.o.metrics.Operation(f.intent.Kind.String(), "result", string(models.StatusFailed))
		return decimal.Zero, err
	}

	result := v.(decimal.Decimal)
	f.result = &result
	f.lastErr = ""
	f.gate.close()
	f.phase = AwaitingCredential
	f.o.metrics.Operation(f.intent.Kind.String(), "result", string(models.StatusSucceeded))
	return result, nil
}

// Confirm opens the gate. It performs no I/O and fails unless every quote
// the kind requires has succeeded for this intent.
func (f *Flow) Confirm() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return ErrFlowClosed
	}
	if f.phase != AwaitingCredential || f.fee == nil {
		return f.invalidStep("confirm")
	}
	if f.intent.Kind.NeedsResultPreview() && f.result == nil {
		return f.invalidStep("confirm")
	}
	f.gate.open = true
	return nil
}

// Submit sends the operation with the entered secret. An empty secret reuses
// one retained from a previous failed attempt.
//
// On success the gate closes, the secret is zeroed, the flow is done and the
// affected balances are refetched before Submit returns. On failure the gate
// stays open and the secret is kept or zeroed according to the policy.
func (f *Flow) Submit(ctx context.Context, secret string) (*Receipt, error) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil, ErrFlowClosed
	}
	if !f.gate.open || (f.phase != AwaitingCredential && f.phase != Submitting) {
		err := f.invalidStep("submit")
		f.mu.Unlock()
		return nil, err
	}
	if secret != "" {
		f.gate.clear()
		f.gate.secret = []byte(secret)
	}
	if len(f.gate.secret) == 0 {
		f.mu.Unlock()
		return nil, &validation.Error{Field: "password", Message: "password is required"}
	}
	f.mu.Unlock()

	ctx, stop, err := f.bind(ctx)
	if err != nil {
		return nil, err
	}
	defer stop()

	asset := f.intent.Asset
	v, err := f.o.execute(ctx, f.key(state.Verifying), f.fingerprint(f.route.SubmitOp), func(ctx context.Context) (any, error) {
		f.mu.Lock()
		f.phase = Submitting
		req := models.Request{
			Op: f.route.SubmitOp,
			Params: submitParams(f.intent.Kind, f.intent.Identity.Address, string(f.gate.secret),
				f.amount.String(), f.intent.Destination),
		}
		f.mu.Unlock()

		env, err := f.o.transactor.Submit(ctx, asset.Category, asset.AssetID, req)
		if err != nil {
			return nil, err
		}
		return f.complete(ctx, env), nil
	})
	if err != nil {
		f.submitFailed(err)
		return nil, err
	}
	return v.(*Receipt), nil
}

func (f *Flow) complete(ctx context.Context, env *models.Envelope) *Receipt {
	f.mu.Lock()
	receipt := &Receipt{
		ID:          uuid.NewString(),
		Kind:        f.intent.Kind,
		Category:    f.intent.Asset.Category,
		AssetID:     f.intent.Asset.AssetID,
		Amount:      f.amount,
		Fee:         f.fee,
		Result:      f.result,
		Destination: f.intent.Destination,
		Message:     env.Message,
		At:          f.o.now(),
	}
	f.gate.close()
	f.phase = Done
	f.lastErr = ""
	f.closed = true
	f.mu.Unlock()

	f.o.forget(f)
	f.o.metrics.Operation(f.intent.Kind.String(), "submit", string(models.StatusSucceeded))
	f.o.logger.Info().
		Str("flow", f.ID).
		Str("kind", f.intent.Kind.String()).
		Str("asset", f.intent.Asset.AssetID).
		Str("amount", f.amount.String()).
		Msg("Transaction submitted")

	f.o.emit(receipt.event(f.intent.Identity.Address, models.StatusSucceeded))
	f.o.refresh(context.WithoutCancel(ctx), f.intent.Identity, f.intent.Asset)
	f.cancel()
	return receipt
}

func (f *Flow) submitFailed(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return
	}
	if f.phase == Submitting {
		f.phase = AwaitingCredential
	}
	if ledger.IsKind(err, ledger.KindCanceled) || errors.Is(err, ErrInFlight) {
		return
	}
	f.lastErr = ledger.UserMessage(err)
	if f.o.secretPolicy == ClearSecret {
		f.gate.clear()
	}

	f.o.metrics.Operation(f.intent.Kind.String(), "submit", string(models.StatusFailed))
	f.o.emit(models.TransactionEvent{
		ID:          uuid.NewString(),
		Address:     f.intent.Identity.Address,
		Kind:        f.intent.Kind,
		Category:    f.intent.Asset.Category,
		AssetID:     f.intent.Asset.AssetID,
		Amount:      f.amount,
		Fee:         f.fee,
		Result:      f.result,
		Destination: f.intent.Destination,
		Status:      models.StatusFailed,
		Message:     f.lastErr,
		Timestamp:   f.o.now(),
	})
}

// Cancel discards the intent, zeroes the secret and aborts pending steps.
// Once they have unwound, the flow's statuses go back to what they were
// when it began. Cancel is idempotent.
func (f *Flow) Cancel() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.closed = true
	f.gate.close()
	f.mu.Unlock()

	f.cancel()
	f.o.forget(f)
	f.steps.Wait()

	f.mu.Lock()
	resting := f.rest
	f.mu.Unlock()
	for _, activity := range flowActivities {
		key := f.key(activity)
		if f.o.store.Activity(key).Status == models.StatusPending {
			continue
		}
		rest := resting[activity]
		if rest.Status == "" || rest.Status == models.StatusPending {
			rest = state.ActivityStatus{Status: models.StatusIdle}
		}
		f.o.store.SetActivity(key, rest.Status, rest.Message)
	}
}

// Closed reports whether the flow was completed or cancelled.
func (f *Flow) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}
