package services

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"globaltrust/internal/platform/metrics"
	"globaltrust/internal/platform/tracer"
	"globaltrust/internal/session"
	dErrors "globaltrust/pkg/domain-errors"
)

// Set is one immutable generation of handles: all five, or none.
type Set struct {
	principal string
	handles   map[Name]Handle
	lease     *Lease
}

var emptySet = &Set{}

// Empty reports whether the set holds no handles.
func (s *Set) Empty() bool {
	return s == nil || len(s.handles) == 0
}

// Principal is the identity every handle of the set is bound to.
func (s *Set) Principal() string {
	if s == nil {
		return ""
	}
	return s.principal
}

func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.handles)
}

// Handle returns the handle of one service. An empty set returns ErrNotSignedIn.
func (s *Set) Handle(name Name) (Handle, error) {
	if s.Empty() {
		return nil, ErrNotSignedIn
	}
	h, ok := s.handles[name]
	if !ok {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "unknown service: "+string(name))
	}
	return h, nil
}

// Registry publishes the handle set of the current session. Build and
// Teardown are serialized; readers take a Snapshot and observe either the
// whole old set or the whole new one.
type Registry struct {
	dialer  Dialer
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  tracer.Tracer

	mu      sync.Mutex
	current atomic.Pointer[Set]
}

type Option func(*Registry)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Registry) {
		r.metrics = m
	}
}

func WithRegistryTracer(t tracer.Tracer) Option {
	return func(r *Registry) {
		r.tracer = t
	}
}

func NewRegistry(dialer Dialer, opts ...Option) *Registry {
	r := &Registry{
		dialer: dialer,
		logger: slog.Default(),
		tracer: tracer.NewNoop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.current.Store(emptySet)
	return r
}

// Snapshot returns the published set. It never returns nil.
func (r *Registry) Snapshot() *Set {
	return r.current.Load()
}

// Build tears down the current set and dials a handle for every service
// bound to cred. The new set is published only when all handles were built;
// on failure the partial set is closed and the registry stays empty.
func (r *Registry) Build(ctx context.Context, cred session.Credential) (set *Set, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.teardownLocked(ctx)

	ctx, span := r.tracer.Start(ctx, tracer.SpanRegistryBuild,
		tracer.String(tracer.AttrPrincipalHash, tracer.HashPrincipal(cred.Principal)),
	)
	defer func() { span.End(err) }()

	if cred.Principal == "" {
		r.metrics.RecordRegistryBuild("failed", 0)
		return nil, dErrors.New(dErrors.CodeInvalidInput, "credential has no principal")
	}

	lease := &Lease{}
	handles := make(map[Name]Handle, len(All))
	for _, name := range All {
		h, dialErr := r.dialer.Dial(ctx, name, cred, lease)
		if dialErr != nil {
			lease.Revoke()
			closeAll(handles)
			r.metrics.RecordRegistryBuild("failed", 0)
			r.logger.ErrorContext(ctx, "service registry build failed",
				"service", string(name),
				"error", dialErr,
			)
			return nil, &ProvisioningError{Service: name, Err: dialErr}
		}
		handles[name] = h
	}

	set = &Set{principal: cred.Principal, handles: handles, lease: lease}
	r.current.Store(set)
	r.metrics.RecordRegistryBuild("ok", len(handles))
	r.logger.InfoContext(ctx, "service registry built",
		"principal", cred.Principal,
		"handles", len(handles),
	)
	return set, nil
}

// Teardown revokes and discards the current set. Calling it on an empty
// registry is a no-op.
func (r *Registry) Teardown(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.teardownLocked(ctx)
}

func (r *Registry) teardownLocked(ctx context.Context) {
	old := r.current.Swap(emptySet)
	if old.Empty() {
		return
	}
	old.lease.Revoke()
	closeAll(old.handles)
	r.metrics.RecordRegistryBuild("teardown", 0)
	r.logger.InfoContext(ctx, "service registry torn down",
		"principal", old.principal,
	)
}

// OnSessionChange rebuilds the registry for an authenticated session and
// tears it down otherwise.
func (r *Registry) OnSessionChange(ctx context.Context, change session.Change) error {
	if change.To.Authenticated() && change.Credential != nil {
		_, err := r.Build(ctx, *change.Credential)
		return err
	}
	r.Teardown(ctx)
	return nil
}

func closeAll(handles map[Name]Handle) {
	for _, h := range handles {
		_ = h.Close()
	}
}

var _ session.Listener = (*Registry)(nil)
