package credential

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	dErrors "globaltrust/pkg/domain-errors"
)

// Opener presents the authorization URL to the user, typically by opening a
// browser. It must not block until the flow completes.
type Opener func(ctx context.Context, authURL string) error

// Callback is what the loopback server received from the identity provider.
type Callback struct {
	Delegation string
	UserAgent  string
	Aborted    bool
	Reason     string
}

// LoopbackFlow runs the interactive sign-in: it serves a one-shot callback
// endpoint on the loopback interface and waits for the provider redirect.
type LoopbackFlow struct {
	listenAddr string
	open       Opener
	logger     *slog.Logger

	pending atomic.Pointer[string]
}

type FlowOption func(*LoopbackFlow)

// WithListenAddr overrides the callback address. Defaults to 127.0.0.1:0.
func WithListenAddr(addr string) FlowOption {
	return func(f *LoopbackFlow) {
		f.listenAddr = addr
	}
}

func WithFlowLogger(logger *slog.Logger) FlowOption {
	return func(f *LoopbackFlow) {
		f.logger = logger
	}
}

func NewLoopbackFlow(open Opener, opts ...FlowOption) *LoopbackFlow {
	f := &LoopbackFlow{
		listenAddr: "127.0.0.1:0",
		open:       open,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.logger == nil {
		f.logger = slog.Default()
	}
	return f
}

// Run blocks until the provider redirects back, the user cancels, or ctx is
// done. Cancellation is reported as an aborted callback, not an error.
func (f *LoopbackFlow) Run(ctx context.Context, providerURL string) (Callback, error) {
	authBase, err := url.Parse(providerURL)
	if err != nil || authBase.Scheme == "" || authBase.Host == "" {
		return Callback{}, dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("invalid identity provider url %q", providerURL))
	}

	ln, err := net.Listen("tcp", f.listenAddr)
	if err != nil {
		return Callback{}, dErrors.Wrap(err, dErrors.CodeInternal, "listen for sign-in callback")
	}

	state := uuid.NewString()
	results := make(chan Callback, 1)
	deliver := func(cb Callback) {
		select {
		case results <- cb:
		default:
		}
	}

	srv := &http.Server{
		Handler:           f.callbackRouter(state, deliver),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			f.logger.Warn("sign-in callback server stopped", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	redirect := "http://" + ln.Addr().String() + "/callback"
	q := authBase.Query()
	q.Set("redirect_uri", redirect)
	q.Set("state", state)
	authBase.RawQuery = q.Encode()

	authURL := authBase.String()
	f.pending.Store(&authURL)
	defer f.pending.Store(nil)

	if err := f.open(ctx, authURL); err != nil {
		return Callback{}, dErrors.Wrap(err, dErrors.CodeInternal, "open identity provider")
	}
	f.logger.InfoContext(ctx, "waiting for identity provider", "redirect_uri", redirect)

	select {
	case cb := <-results:
		return cb, nil
	case <-ctx.Done():
		return Callback{Aborted: true, Reason: ctx.Err().Error()}, nil
	}
}

// Pending returns the authorization URL while a flow is waiting for the provider.
func (f *LoopbackFlow) Pending() (string, bool) {
	p := f.pending.Load()
	if p == nil {
		return "", false
	}
	return *p, true
}

func (f *LoopbackFlow) callbackRouter(state string, deliver func(Callback)) http.Handler {
	r := chi.NewRouter()
	r.Get("/callback", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("state") != state {
			http.Error(w, "state mismatch", http.StatusBadRequest)
			return
		}
		if reason := q.Get("error"); reason != "" {
			deliver(Callback{Aborted: true, Reason: reason})
			writePage(w, "Sign-in cancelled. You can close this window.")
			return
		}
		delegation := q.Get("delegation")
		if delegation == "" {
			http.Error(w, "missing delegation", http.StatusBadRequest)
			return
		}
		deliver(Callback{Delegation: delegation, UserAgent: r.UserAgent()})
		writePage(w, "Signed in. You can close this window.")
	})
	r.Get("/cancel", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("state") != state {
			http.Error(w, "state mismatch", http.StatusBadRequest)
			return
		}
		deliver(Callback{Aborted: true, Reason: "closed by user"})
		writePage(w, "Sign-in cancelled. You can close this window.")
	})
	return r
}

func writePage(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(msg + "\n"))
}
