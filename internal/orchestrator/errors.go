package orchestrator

import "errors"

var (
	// ErrInFlight is returned when a different request for the same
	// activity, kind and asset is still pending.
	ErrInFlight = errors.New("a request of this kind is already pending")
	// ErrInvalidStep is returned when a flow operation is called out of order.
	ErrInvalidStep = errors.New("operation not allowed in the current step")
	// ErrFlowClosed is returned for a flow that was cancelled, replaced or completed.
	ErrFlowClosed = errors.New("flow is closed")
	// ErrMintUnavailable is returned when no mint authority is configured.
	ErrMintUnavailable = errors.New("minting is not available")
)
