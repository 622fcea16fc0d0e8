package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"toronet-wallet/internal/catalog"
	"toronet-wallet/internal/models"
	"toronet-wallet/internal/orchestrator"
	"toronet-wallet/internal/state"
	"toronet-wallet/internal/validation"
)

const prefetchTimeout = 30 * time.Second

type LoginRequest struct {
	Address  string `json:"address"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Password string `json:"password"`
	Confirm  string `json:"confirm"`
}

type SessionResponse struct {
	Address  string `json:"address,omitempty"`
	SignedIn bool   `json:"signed_in"`
}

// AssetRequest selects one catalog entry.
type AssetRequest struct {
	Category models.Category `json:"category"`
	AssetID  string          `json:"asset_id"`
}

type RefreshRequest struct {
	Query string `json:"query"`
	AssetRequest
}

type FlowRequest struct {
	AssetRequest
	Kind        models.OperationKind `json:"kind"`
	Amount      string               `json:"amount"`
	Destination string               `json:"destination,omitempty"`
}

type SubmitRequest struct {
	Secret string `json:"secret"`
}

type MintRequest struct {
	AssetRequest
	Amount string `json:"amount"`
}

type QueryResponse struct {
	Kind         state.QueryKind      `json:"kind"`
	Snapshot     state.Snapshot       `json:"snapshot"`
	Transactions []models.Transaction `json:"transactions,omitempty"`
	Links        json.RawMessage      `json:"links,omitempty"`
}

type ActivityResponse struct {
	state.ActivityKey
	state.ActivityStatus
}

func (a AssetRequest) resolve() (catalog.Asset, error) {
	if a.Category == "" && a.AssetID == "" {
		return catalog.Native, nil
	}
	asset, ok := catalog.ByAssetID(a.Category, a.AssetID)
	if !ok {
		return catalog.Asset{}, &validation.Error{Field: "asset", Message: fmt.Sprintf("unknown asset %s/%s", a.Category, a.AssetID)}
	}
	return asset, nil
}

func (s *Server) identity() (models.Identity, error) {
	identity, ok := s.Auth.Current()
	if !ok {
		return models.Identity{}, errNoIdentity
	}
	return identity, nil
}

// prefetch loads the dashboard figures of a freshly signed-in identity.
func (s *Server) prefetch(identity models.Identity) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), prefetchTimeout)
		defer cancel()
		if err := s.Query.Prefetch(ctx, identity); err != nil {
			s.Logger.Warn().Err(err).Str("address", identity.Address).Msg("Prefetch incomplete")
		}
	}()
}

func (s *Server) CurrentSessionHandler(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.Auth.Current()
	writeJSON(w, http.StatusOK, SessionResponse{Address: identity.Address, SignedIn: ok})
}

func (s *Server) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	identity, err := s.Auth.Login(r.Context(), req.Address, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.prefetch(identity)
	writeJSON(w, http.StatusOK, SessionResponse{Address: identity.Address, SignedIn: true})
}

func (s *Server) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	identity, err := s.Auth.Register(r.Context(), req.Password, req.Confirm)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.prefetch(identity)
	writeJSON(w, http.StatusCreated, SessionResponse{Address: identity.Address, SignedIn: true})
}

func (s *Server) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.Auth.Logout(); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func knownQuery(kind state.QueryKind) bool {
	switch kind {
	case state.Balances, state.Rates, state.Transactions, state.LinkedAddresses:
		return true
	}
	for _, c := range models.Categories() {
		if kind == state.BalanceKind(c) || kind == state.RateKind(c) || kind == state.TransactionsKind(c) {
			return true
		}
	}
	return false
}

func (s *Server) queryResponse(kind state.QueryKind) QueryResponse {
	resp := QueryResponse{Kind: kind, Snapshot: s.Store.Query(kind)}
	switch {
	case kind == state.LinkedAddresses:
		resp.Links = s.Store.LinkedAddresses()
	default:
		resp.Transactions = s.Store.Transactions(kind)
	}
	return resp
}

func (s *Server) QueryStateHandler(w http.ResponseWriter, r *http.Request) {
	kind := state.QueryKind(mux.Vars(r)["kind"])
	if !knownQuery(kind) {
		s.writeError(w, r, &validation.Error{Field: "kind", Message: fmt.Sprintf("unknown query kind %s", kind)})
		return
	}
	writeJSON(w, http.StatusOK, s.queryResponse(kind))
}

func (s *Server) ActivitiesHandler(w http.ResponseWriter, r *http.Request) {
	activities := s.Store.Activities()
	out := make([]ActivityResponse, 0, len(activities))
	for key, status := range activities {
		out = append(out, ActivityResponse{ActivityKey: key, ActivityStatus: status})
	}
	writeJSON(w, http.StatusOK, out)
}

// RefreshHandler runs one fetch, or the dashboard prefetch when no query is
// named, and answers with the settled snapshot.
func (s *Server) RefreshHandler(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	identity, err := s.identity()
	if err != nil && req.Query != string(state.Rates) {
		s.writeError(w, r, err)
		return
	}

	var asset *catalog.Asset
	if req.Category != "" || req.AssetID != "" {
		a, err := req.resolve()
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		asset = &a
	}

	ctx := r.Context()
	var kind state.QueryKind
	switch req.Query {
	case "", "all":
		err = s.Query.Prefetch(ctx, identity)
		kind = state.Balances
	case string(state.Balances):
		err = s.Query.FetchAggregateBalances(ctx, identity)
		kind = state.Balances
	case "balance":
		a := catalog.Native
		if asset != nil {
			a = *asset
		}
		err = s.Query.FetchSingleAssetBalance(ctx, a, identity)
		kind = state.BalanceKind(a.Category)
	case string(state.Rates):
		err = s.Query.FetchRates(ctx, asset)
		kind = state.Rates
		if asset != nil {
			kind = state.RateKind(asset.Category)
		}
	case string(state.Transactions):
		err = s.Query.FetchTransactions(ctx, identity, asset)
		kind = state.Transactions
		if asset != nil {
			kind = state.TransactionsKind(asset.Category)
		}
	case string(state.LinkedAddresses):
		if asset == nil {
			s.writeError(w, r, &validation.Error{Field: "asset", Message: "a bridged asset is required"})
			return
		}
		err = s.Query.FetchLinkedAddresses(ctx, identity, *asset)
		kind = state.LinkedAddresses
	default:
		s.writeError(w, r, &validation.Error{Field: "query", Message: fmt.Sprintf("unknown query %s", req.Query)})
		return
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.queryResponse(kind))
}

func (s *Server) AssetsHandler(w http.ResponseWriter, r *http.Request) {
	category := models.Category(r.URL.Query().Get("category"))
	if category == "" {
		writeJSON(w, http.StatusOK, catalog.All())
		return
	}
	if !category.Valid() {
		s.writeError(w, r, &validation.Error{Field: "category", Message: fmt.Sprintf("unknown category %s", category)})
		return
	}
	writeJSON(w, http.StatusOK, catalog.ByCategory(category))
}

func (s *Server) ListFlowsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Orchestrator.Flows())
}

func (s *Server) BeginFlowHandler(w http.ResponseWriter, r *http.Request) {
	var req FlowRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	identity, err := s.identity()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	asset, err := req.resolve()
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	flow, err := s.Orchestrator.Begin(orchestrator.Intent{
		Identity:    identity,
		Asset:       asset,
		Kind:        req.Kind,
		Amount:      req.Amount,
		Destination: req.Destination,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, flow.Snapshot())
}

func (s *Server) flow(w http.ResponseWriter, r *http.Request) (*orchestrator.Flow, bool) {
	flow, ok := s.Orchestrator.Flow(mux.Vars(r)["id"])
	if !ok {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "flow not found"})
		return nil, false
	}
	return flow, true
}

func (s *Server) GetFlowHandler(w http.ResponseWriter, r *http.Request) {
	if flow, ok := s.flow(w, r); ok {
		writeJSON(w, http.StatusOK, flow.Snapshot())
	}
}

func (s *Server) CancelFlowHandler(w http.ResponseWriter, r *http.Request) {
	if flow, ok := s.flow(w, r); ok {
		flow.Cancel()
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) QuoteFeeHandler(w http.ResponseWriter, r *http.Request) {
	flow, ok := s.flow(w, r)
	if !ok {
		return
	}
	if _, err := flow.QuoteFee(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, flow.Snapshot())
}

func (s *Server) QuoteResultHandler(w http.ResponseWriter, r *http.Request) {
	flow, ok := s.flow(w, r)
	if !ok {
		return
	}
	if _, err := flow.QuoteResult(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, flow.Snapshot())
}

func (s *Server) ConfirmHandler(w http.ResponseWriter, r *http.Request) {
	flow, ok := s.flow(w, r)
	if !ok {
		return
	}
	if err := flow.Confirm(); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, flow.Snapshot())
}

func (s *Server) SubmitHandler(w http.ResponseWriter, r *http.Request) {
	flow, ok := s.flow(w, r)
	if !ok {
		return
	}
	var req SubmitRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	receipt, err := flow.Submit(r.Context(), req.Secret)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

func (s *Server) MintHandler(w http.ResponseWriter, r *http.Request) {
	var req MintRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	identity, err := s.identity()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	asset, err := req.resolve()
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	receipt, err := s.Orchestrator.Mint(r.Context(), orchestrator.Intent{
		Identity: identity,
		Asset:    asset,
		Amount:   req.Amount,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

func (s *Server) JournalHandler(w http.ResponseWriter, r *http.Request) {
	identity, err := s.identity()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 500 {
			s.writeError(w, r, &validation.Error{Field: "limit", Message: "limit must be between 1 and 500"})
			return
		}
		limit = n
	}
	entries, err := s.Journal.RecentEntries(r.Context(), identity.Address, limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
