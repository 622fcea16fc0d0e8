// Package api exposes the wallet core over HTTP and a WebSocket state stream.
package api

import (
	"context"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"toronet-wallet/internal/auth"
	"toronet-wallet/internal/database"
	"toronet-wallet/internal/health"
	"toronet-wallet/internal/orchestrator"
	"toronet-wallet/internal/query"
	"toronet-wallet/internal/state"
)

// JournalReader lists recorded operations of one address.
type JournalReader interface {
	RecentEntries(ctx context.Context, address string, limit int) ([]database.Entry, error)
}

// Server holds the collaborators behind the handlers. Journal is optional.
type Server struct {
	Auth         *auth.Service
	Query        *query.Module
	Orchestrator *orchestrator.Orchestrator
	Store        *state.Store
	Health       *health.Monitor
	Gatherer     prometheus.Gatherer
	Journal      JournalReader
	Logger       *zerolog.Logger

	upgrader websocket.Upgrader
}

func NewRouter(s *Server) *mux.Router {
	if s.Logger == nil {
		nop := zerolog.Nop()
		s.Logger = &nop
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}

	r := mux.NewRouter()
	if s.Health != nil {
		r.HandleFunc("/healthz", s.Health.LivenessHandler).Methods("GET")
		r.HandleFunc("/readyz", s.Health.ReadinessHandler).Methods("GET")
	}
	if s.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.Gatherer, promhttp.HandlerOpts{})).Methods("GET")
	}
	r.HandleFunc("/ws/state", s.StateStreamHandler).Methods("GET")

	r.HandleFunc("/session", s.CurrentSessionHandler).Methods("GET")
	r.HandleFunc("/session/login", s.LoginHandler).Methods("POST")
	r.HandleFunc("/session/register", s.RegisterHandler).Methods("POST")
	r.HandleFunc("/session/logout", s.LogoutHandler).Methods("POST")

	r.HandleFunc("/state/queries/{kind}", s.QueryStateHandler).Methods("GET")
	r.HandleFunc("/state/activities", s.ActivitiesHandler).Methods("GET")
	r.HandleFunc("/refresh", s.RefreshHandler).Methods("POST")
	r.HandleFunc("/assets", s.AssetsHandler).Methods("GET")

	r.HandleFunc("/flows", s.ListFlowsHandler).Methods("GET")
	r.HandleFunc("/flows", s.BeginFlowHandler).Methods("POST")
	r.HandleFunc("/flows/{id}", s.GetFlowHandler).Methods("GET")
	r.HandleFunc("/flows/{id}", s.CancelFlowHandler).Methods("DELETE")
	r.HandleFunc("/flows/{id}/fee", s.QuoteFeeHandler).Methods("POST")
	r.HandleFunc("/flows/{id}/result", s.QuoteResultHandler).Methods("POST")
	r.HandleFunc("/flows/{id}/confirm", s.ConfirmHandler).Methods("POST")
	r.HandleFunc("/flows/{id}/submit", s.SubmitHandler).Methods("POST")
	r.HandleFunc("/mint", s.MintHandler).Methods("POST")

	if s.Journal != nil {
		r.HandleFunc("/journal", s.JournalHandler).Methods("GET")
	}

	return r
}
