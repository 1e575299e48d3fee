package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
)

// BackendCall records one request received by a Backend.
type BackendCall struct {
	Canister      string
	Method        string
	Principal     string
	Authorization string
	RequestID     string
	Args          []json.RawMessage
}

// Backend is a fake set of backend services speaking the
// POST /services/{id}/{method} protocol. Unregistered methods answer 404.
type Backend struct {
	server *httptest.Server

	mu       sync.Mutex
	handlers map[string]http.HandlerFunc
	calls    []BackendCall
}

// NewBackend starts a Backend that is closed when the test ends.
func NewBackend(t testing.TB) *Backend {
	t.Helper()
	b := &Backend{handlers: make(map[string]http.HandlerFunc)}

	r := chi.NewRouter()
	r.Post("/services/{id}/{method}", b.serve)
	b.server = httptest.NewServer(r)
	t.Cleanup(b.server.Close)
	return b
}

// URL is the service host to dial.
func (b *Backend) URL() string {
	return b.server.URL
}

// Respond answers every call of canister.method with a fixed status and body.
func (b *Backend) Respond(canister, method string, status int, body string) {
	b.Handle(canister, method, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	})
}

// Handle installs a custom handler for canister.method.
func (b *Backend) Handle(canister, method string, h http.HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[canister+"/"+method] = h
}

// Calls returns a copy of the requests received so far.
func (b *Backend) Calls() []BackendCall {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]BackendCall, len(b.calls))
	copy(out, b.calls)
	return out
}

// CallsTo returns the recorded calls of one canister method.
func (b *Backend) CallsTo(canister, method string) []BackendCall {
	var out []BackendCall
	for _, c := range b.Calls() {
		if c.Canister == canister && c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

func (b *Backend) serve(w http.ResponseWriter, r *http.Request) {
	canister, method := chi.URLParam(r, "id"), chi.URLParam(r, "method")

	var body struct {
		Args []json.RawMessage `json:"args"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "malformed call", http.StatusBadRequest)
		return
	}

	b.mu.Lock()
	b.calls = append(b.calls, BackendCall{
		Canister:      canister,
		Method:        method,
		Principal:     r.Header.Get("X-Principal"),
		Authorization: r.Header.Get("Authorization"),
		RequestID:     r.Header.Get("X-Request-ID"),
		Args:          body.Args,
	})
	h, ok := b.handlers[canister+"/"+method]
	b.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	h(w, r)
}
