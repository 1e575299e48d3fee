package httptransport

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/go-chi/chi/v5"

	"globaltrust/internal/aggregate"
	"globaltrust/internal/codec"
	"globaltrust/internal/router"
	"globaltrust/internal/services"
	"globaltrust/internal/session"
)

// SessionService is the identity session as seen by the browser.
type SessionService interface {
	State() session.State
	ProviderURL() string
	SignIn(ctx context.Context) (session.State, error)
	SignOut(ctx context.Context) error
}

// PendingSignIns exposes the authorization URL of an in-flight sign-in.
type PendingSignIns interface {
	PendingSignIn() (string, bool)
}

// HandleSets yields the handle set of the current session.
type HandleSets interface {
	Snapshot() *services.Set
}

// Queries runs the read-side aggregation.
type Queries interface {
	DashboardSummary(ctx context.Context, set *services.Set) (*aggregate.Dashboard, error)
	UserScopedList(ctx context.Context, set *services.Set, service services.Name, principal string, filters aggregate.Filters) ([]json.RawMessage, error)
	TokenLookup(ctx context.Context, set *services.Set, id uint64) (*aggregate.Token, error)
}

// FormSubmitter sends form values to the owning service.
type FormSubmitter interface {
	Submit(ctx context.Context, set *services.Set, formName string, values map[string]any) (codec.Result, error)
}

// Views is the view router.
type Views interface {
	Current() router.View
	Select(view router.View) error
}

// Handler serves the browser-facing JSON API. It holds no state of its own;
// every request reads the session, view and handle set afresh.
type Handler struct {
	session SessionService
	pending PendingSignIns
	sets    HandleSets
	queries Queries
	forms   FormSubmitter
	views   Views
	logger  *slog.Logger
}

type Option func(*Handler)

func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		h.logger = logger
	}
}

// WithPendingSignIns enables GET /session/sign-in.
func WithPendingSignIns(p PendingSignIns) Option {
	return func(h *Handler) {
		h.pending = p
	}
}

// New creates a Handler over the orchestration components.
func New(sess SessionService, sets HandleSets, queries Queries, forms FormSubmitter, views Views, opts ...Option) *Handler {
	h := &Handler{
		session: sess,
		sets:    sets,
		queries: queries,
		forms:   forms,
		views:   views,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	return h
}

// Register registers the request-scoped routes. Sign-in is registered
// separately by RegisterSignIn because it blocks for the whole provider flow.
func (h *Handler) Register(r chi.Router) {
	r.Get("/session", h.HandleSession)
	r.Post("/session/sign-out", h.HandleSignOut)
	r.Get("/session/sign-in", h.HandlePendingSignIn)

	r.Get("/view", h.HandleView)
	r.Put("/view", h.HandleSelectView)

	r.Get("/dashboard", h.HandleDashboard)
	r.Get("/lists/{service}", h.HandleList)
	r.Get("/tokens/{id}", h.HandleToken)

	r.Get("/forms", h.HandleCatalog)
	r.Post("/forms/{form}", h.HandleSubmitForm)
}

// RegisterSignIn registers POST /session/sign-in. The request context bounds
// the flow: a client that goes away aborts the sign-in.
func (h *Handler) RegisterSignIn(r chi.Router) {
	r.Post("/session/sign-in", h.HandleSignIn)
}
