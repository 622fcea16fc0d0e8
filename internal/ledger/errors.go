package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"toronet-wallet/internal/validation"
)

// FallbackMessage is shown when a failure carries no usable text.
const FallbackMessage = "An error occurred. Please contact a Toronet Administrator."

// BusinessError is a response the ledger delivered with result false, or a
// non-2xx reply that still carried a message.
type BusinessError struct {
	Op         string
	Message    string
	Errors     json.RawMessage
	StatusCode int
}

func (e *BusinessError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = FallbackMessage
	}
	return fmt.Sprintf("%s rejected: %s", e.Op, msg)
}

// TransportErrorKind classifies failures where no usable response arrived.
type TransportErrorKind string

const (
	KindNetwork   TransportErrorKind = "network"
	KindTimeout   TransportErrorKind = "timeout"
	KindStatus    TransportErrorKind = "status"
	KindMalformed TransportErrorKind = "malformed"
	KindCanceled  TransportErrorKind = "canceled"
)

// TransportError wraps a failure to obtain a decodable ledger response.
type TransportError struct {
	Kind       TransportErrorKind
	Op         string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s error (HTTP %d): %v", e.Op, e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %s error: %v", e.Op, e.Kind, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func transportError(op string, err error) *TransportError {
	kind := KindNetwork
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		kind = KindTimeout
	case errors.Is(err, context.Canceled):
		kind = KindCanceled
	default:
		var te interface{ Timeout() bool }
		if errors.As(err, &te) && te.Timeout() {
			kind = KindTimeout
		}
	}
	return &TransportError{Kind: kind, Op: op, Err: err}
}

// IsKind reports whether err is a TransportError of the given kind.
func IsKind(err error, kind TransportErrorKind) bool {
	var te *TransportError
	return errors.As(err, &te) && te.Kind == kind
}

// UserMessage returns the text to surface for err. It is never empty.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var be *BusinessError
	if errors.As(err, &be) {
		if msg := strings.TrimSpace(be.Message); msg != "" {
			return msg
		}
		return FallbackMessage
	}

	var ve *validation.Error
	if errors.As(err, &ve) {
		return ve.Message
	}

	var te *TransportError
	if errors.As(err, &te) {
		switch te.Kind {
		case KindTimeout:
			return "The request timed out. Please try again."
		case KindNetwork:
			return "Unable to reach the Toronet network. Check your connection."
		}
	}
	return FallbackMessage
}
