package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"toronet-wallet/internal/auth"
	"toronet-wallet/internal/ledger"
	"toronet-wallet/internal/orchestrator"
	"toronet-wallet/internal/query"
	"toronet-wallet/internal/validation"
)

var errNoIdentity = errors.New("no user is signed in")

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error  string          `json:"error"`
	Field  string          `json:"field,omitempty"`
	Errors json.RawMessage `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &validation.Error{Field: "body", Message: "invalid request body"}
	}
	return nil
}

// statusFor maps a core error onto an HTTP status and the message shown to the user.
func statusFor(err error) (int, ErrorResponse) {
	resp := ErrorResponse{Error: ledger.UserMessage(err)}

	var ve *validation.Error
	var be *ledger.BusinessError
	var te *ledger.TransportError
	switch {
	case errors.As(err, &ve):
		resp.Field = ve.Field
		return http.StatusBadRequest, resp
	case errors.As(err, &be):
		resp.Errors = be.Errors
		return http.StatusUnprocessableEntity, resp
	case errors.As(err, &te):
		if te.Kind == ledger.KindTimeout {
			return http.StatusGatewayTimeout, resp
		}
		return http.StatusBadGateway, resp
	}

	resp.Error = err.Error()
	switch {
	case errors.Is(err, errNoIdentity):
		return http.StatusUnauthorized, resp
	case errors.Is(err, auth.ErrUnknownAddress):
		return http.StatusNotFound, resp
	case errors.Is(err, orchestrator.ErrInFlight), errors.Is(err, orchestrator.ErrInvalidStep):
		return http.StatusConflict, resp
	case errors.Is(err, orchestrator.ErrFlowClosed):
		return http.StatusGone, resp
	case errors.Is(err, orchestrator.ErrMintUnavailable):
		return http.StatusServiceUnavailable, resp
	case errors.Is(err, query.ErrNoRate):
		return http.StatusBadRequest, resp
	}
	resp.Error = ledger.FallbackMessage
	return http.StatusInternalServerError, resp
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, resp := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.Logger.Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
	} else {
		s.Logger.Debug().Err(err).Str("path", r.URL.Path).Int("status", status).Msg("Request rejected")
	}
	writeJSON(w, status, resp)
}
