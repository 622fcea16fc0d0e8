// Package ledgertest provides a programmable fake Toronet ledger for tests.
package ledgertest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strconv"
	"sync"

	"toronet-wallet/internal/models"
)

// Call is one request the fake ledger received.
type Call struct {
	Method string
	Path   string
	Op     string
	Params map[string]string
	Body   models.Request
}

// Reply is a canned response.
type Reply struct {
	Status int
	Body   any
}

// Handler produces the reply for a call.
type Handler func(call Call) Reply

// JSON returns a 200 reply with the given body.
func JSON(body any) Handler {
	return func(Call) Reply { return Reply{Status: http.StatusOK, Body: body} }
}

// Reject returns a result:false reply carrying message.
func Reject(message string) Handler {
	return JSON(map[string]any{"result": false, "message": message})
}

// Server is a fake ledger backed by httptest.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	handlers map[string]Handler
	calls    []Call
	// Gate, when set, is received from before every reply is written.
	Gate chan struct{}
}

var paramKey = regexp.MustCompile(`^params\[(\d+)\]\[(name|value)\]$`)

// NewServer starts a fake ledger. Unrouted requests get a 404.
func NewServer() *Server {
	s := &Server{handlers: make(map[string]Handler)}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	return s
}

// Handle routes method+path+op to h. For POSTs op is the body's op.
func (s *Server) Handle(method, path, op string, h Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[method+" "+path+" "+op] = h
}

// Calls returns a copy of the received calls.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, len(s.calls))
	copy(out, s.calls)
	return out
}

// CallCount returns how many calls carried op.
func (s *Server) CallCount(op string) int {
	n := 0
	for _, c := range s.Calls() {
		if c.Op == op {
			n++
		}
	}
	return n
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	call := Call{Method: r.Method, Path: r.URL.Path, Params: make(map[string]string)}

	if r.Method == http.MethodPost {
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &call.Body); err != nil {
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		call.Op = call.Body.Op
		for _, p := range call.Body.Params {
			call.Params[p.Name] = p.Value
		}
	} else {
		q := r.URL.Query()
		call.Op = q.Get("op")
		names := make(map[int]string)
		values := make(map[int]string)
		for key, vals := range q {
			m := paramKey.FindStringSubmatch(key)
			if m == nil || len(vals) == 0 {
				continue
			}
			idx, _ := strconv.Atoi(m[1])
			if m[2] == "name" {
				names[idx] = vals[0]
			} else {
				values[idx] = vals[0]
			}
		}
		for idx, name := range names {
			call.Params[name] = values[idx]
		}
	}

	s.mu.Lock()
	s.calls = append(s.calls, call)
	h, ok := s.handlers[r.Method+" "+call.Path+" "+call.Op]
	gate := s.Gate
	s.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-r.Context().Done():
			return
		}
	}

	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	reply := h(call)
	if reply.Status == 0 {
		reply.Status = http.StatusOK
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(reply.Status)
	switch body := reply.Body.(type) {
	case nil:
	case string:
		_, _ = io.WriteString(w, body)
	default:
		_ = json.NewEncoder(w).Encode(body)
	}
}
