// Package router tracks which view is shown for the current session.
package router

import (
	"context"
	"log/slog"
	"sync"

	"globaltrust/internal/session"
	dErrors "globaltrust/pkg/domain-errors"
)

// View is one screen of the client.
type View string

const (
	ViewUnauthenticated View = "unauthenticated"
	ViewDashboard       View = "dashboard"
	ViewIdentity        View = "identity"
	ViewAssets          View = "assets"
	ViewMarketplace     View = "marketplace"
	ViewLending         View = "lending"
	ViewVerification    View = "verification"
)

// selectable are the views a signed-in user can choose.
var selectable = []View{ViewDashboard, ViewIdentity, ViewAssets, ViewMarketplace, ViewLending, ViewVerification}

// Selectable lists the views Select accepts.
func Selectable() []View {
	out := make([]View, len(selectable))
	copy(out, selectable)
	return out
}

// ParseView validates a selectable view name.
func ParseView(s string) (View, error) {
	for _, v := range selectable {
		if string(v) == s {
			return v, nil
		}
	}
	return "", dErrors.New(dErrors.CodeInvalidInput, "unknown view: "+s)
}

// Router holds the current view. It starts unauthenticated and follows the
// session through OnSessionChange.
type Router struct {
	logger *slog.Logger

	mu            sync.RWMutex
	authenticated bool
	principal     string
	selected      View
}

type Option func(*Router)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) {
		r.logger = logger
	}
}

func New(opts ...Option) *Router {
	r := &Router{
		logger:   slog.Default(),
		selected: ViewDashboard,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Current is the view to show. It is ViewUnauthenticated whenever no
// principal is signed in.
func (r *Router) Current() View {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.authenticated {
		return ViewUnauthenticated
	}
	return r.selected
}

// Select switches views. It is honored only while authenticated: signed
// out, the request is ignored and the view stays unauthenticated. The
// unauthorized error only tells the caller why nothing changed.
func (r *Router) Select(view View) error {
	if _, err := ParseView(string(view)); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.authenticated {
		return dErrors.New(dErrors.CodeUnauthorized, "sign in to select a view")
	}
	r.selected = view
	return nil
}

// OnSessionChange implements session.Listener. A new or different principal
// lands on the dashboard; leaving the authenticated state resets the selection.
func (r *Router) OnSessionChange(ctx context.Context, change session.Change) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !change.To.Authenticated() {
		r.authenticated = false
		r.principal = ""
		r.selected = ViewDashboard
		return nil
	}
	if !r.authenticated || r.principal != change.To.Principal {
		r.selected = ViewDashboard
		r.logger.DebugContext(ctx, "view reset to dashboard",
			"principal", change.To.Principal,
		)
	}
	r.authenticated = true
	r.principal = change.To.Principal
	return nil
}

var _ session.Listener = (*Router)(nil)
