package session

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"globaltrust/internal/platform/metrics"
	dErrors "globaltrust/pkg/domain-errors"
)

// Status is the resolution state of the identity session.
type Status int

const (
	StatusUnresolved Status = iota
	StatusAuthenticated
	StatusUnauthenticated
)

func (s Status) String() string {
	switch s {
	case StatusAuthenticated:
		return "authenticated"
	case StatusUnauthenticated:
		return "unauthenticated"
	default:
		return "unresolved"
	}
}

// State is the view-visible snapshot of the session. Principal is set iff
// Status is StatusAuthenticated. It never carries the credential.
type State struct {
	Status    Status
	Principal string
	SessionID string
}

// Authenticated reports whether the session holds a principal.
func (s State) Authenticated() bool {
	return s.Status == StatusAuthenticated
}

// Credential is the delegation issued by the identity provider for a principal.
type Credential struct {
	Principal string
	Token     string
	ExpiresAt time.Time
}

// Expired reports whether the delegation is past its expiry. A zero expiry never expires.
func (c Credential) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}

// Outcome is the result of an interactive sign-in flow.
type Outcome int

const (
	OutcomeAborted Outcome = iota
	OutcomeCompleted
)

// SignInOutcome carries the credential of a completed flow, or the reason it was aborted.
type SignInOutcome struct {
	Outcome    Outcome
	Credential Credential
	Reason     string
}

// CredentialProvider is the external credential subsystem.
type CredentialProvider interface {
	// IsSignedIn reports whether a previously established, unexpired sign-in exists.
	IsSignedIn(ctx context.Context) (bool, error)

	// Current returns the credential of the existing sign-in.
	Current(ctx context.Context) (Credential, error)

	// BeginInteractiveSignIn runs the provider flow and blocks until it
	// completes, is aborted by the user, or ctx is done.
	BeginInteractiveSignIn(ctx context.Context, providerURL string) (SignInOutcome, error)

	// Revoke discards the local credential.
	Revoke(ctx context.Context) error
}

// Change describes one session transition. Credential is set when To is authenticated.
type Change struct {
	From       State
	To         State
	Credential *Credential
}

// PrincipalChanged reports whether the transition moved between principals.
func (c Change) PrincipalChanged() bool {
	return c.From.Principal != c.To.Principal
}

// Listener reacts to session transitions. A listener error while
// establishing a session aborts the sign-in.
type Listener interface {
	OnSessionChange(ctx context.Context, change Change) error
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(ctx context.Context, change Change) error

func (f ListenerFunc) OnSessionChange(ctx context.Context, change Change) error {
	return f(ctx, change)
}

// Session owns the authentication lifecycle.
type Session struct {
	provider    CredentialProvider
	providerURL string
	logger      *slog.Logger
	metrics     *metrics.Metrics

	state     atomic.Pointer[State]
	signingIn atomic.Bool

	mu        sync.Mutex // single writer for transitions
	listeners []Listener
}

type Option func(*Session)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Session) {
		s.metrics = m
	}
}

// New creates an unresolved session. providerURL is the identity provider
// selected by the deployment mode.
func New(provider CredentialProvider, providerURL string, opts ...Option) *Session {
	s := &Session{
		provider:    provider,
		providerURL: providerURL,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.state.Store(&State{Status: StatusUnresolved})
	return s
}

// Subscribe registers a listener. Listeners run in registration order.
func (s *Session) Subscribe(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// State returns the current snapshot without blocking on transitions.
func (s *Session) State() State {
	return *s.state.Load()
}

// ProviderURL returns the identity provider used for interactive sign-in.
func (s *Session) ProviderURL() string {
	return s.providerURL
}

// Initialize resolves the session from an existing sign-in. Not being signed
// in is a valid resolution; provider failures resolve to unauthenticated.
func (s *Session) Initialize(ctx context.Context) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	signedIn, err := s.provider.IsSignedIn(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "credential lookup failed; continuing signed out", "error", err)
		s.resolveUnauthenticated(ctx)
		return s.State()
	}
	if !signedIn {
		s.resolveUnauthenticated(ctx)
		return s.State()
	}

	cred, err := s.provider.Current(ctx)
	if err != nil || cred.Principal == "" {
		s.logger.WarnContext(ctx, "stored credential unusable; continuing signed out", "error", err)
		s.resolveUnauthenticated(ctx)
		return s.State()
	}

	current := s.State()
	if current.Authenticated() && current.Principal == cred.Principal {
		return current
	}
	if err := s.establish(ctx, cred); err != nil {
		s.logger.WarnContext(ctx, "restoring session failed", "principal", cred.Principal, "error", err)
	}
	return s.State()
}

// SignIn runs the interactive flow. On completion the session becomes
// authenticated and listeners rebuild; on abort or failure the state is unchanged.
func (s *Session) SignIn(ctx context.Context) (State, error) {
	if !s.signingIn.CompareAndSwap(false, true) {
		return s.State(), dErrors.New(dErrors.CodeConflict, "sign-in already in progress")
	}
	defer s.signingIn.Store(false)

	outcome, err := s.provider.BeginInteractiveSignIn(ctx, s.providerURL)
	if err != nil {
		s.metrics.RecordSignIn("failed")
		s.logger.WarnContext(ctx, "interactive sign-in failed", "provider", s.providerURL, "error", err)
		return s.State(), authenticationFailed("interactive sign-in failed", err)
	}
	if outcome.Outcome != OutcomeCompleted {
		s.metrics.RecordSignIn("aborted")
		s.logger.InfoContext(ctx, "interactive sign-in aborted", "reason", outcome.Reason)
		return s.State(), authenticationFailed("sign-in aborted: "+abortReason(outcome.Reason), nil)
	}
	if outcome.Credential.Principal == "" {
		s.metrics.RecordSignIn("failed")
		return s.State(), authenticationFailed("provider returned no principal", nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.establish(ctx, outcome.Credential); err != nil {
		s.metrics.RecordSignIn("provisioning_failed")
		return s.State(), err
	}
	s.metrics.RecordSignIn("completed")
	return s.State(), nil
}

// SignOut revokes the credential and returns to unauthenticated. Local state
// is cleared even when revocation fails; the revocation error is returned.
func (s *Session) SignOut(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	revokeErr := s.provider.Revoke(ctx)
	if revokeErr != nil {
		s.logger.WarnContext(ctx, "credential revocation failed", "error", revokeErr)
	}
	from := s.State()
	s.resolveUnauthenticated(ctx)
	if from.Authenticated() {
		s.logger.InfoContext(ctx, "signed out", "principal", from.Principal, "session_id", from.SessionID)
	}
	if revokeErr != nil {
		return dErrors.Wrap(revokeErr, dErrors.CodeInternal, "credential revocation failed")
	}
	return nil
}

// establish notifies listeners of the pending authenticated state and only
// publishes it once every listener accepted. On failure it rolls back to
// unauthenticated.
func (s *Session) establish(ctx context.Context, cred Credential) error {
	from := s.State()
	to := State{
		Status:    StatusAuthenticated,
		Principal: cred.Principal,
		SessionID: uuid.NewString(),
	}
	change := Change{From: from, To: to, Credential: &cred}

	for _, l := range s.listeners {
		if err := l.OnSessionChange(ctx, change); err != nil {
			s.rollback(ctx, to, err)
			return err
		}
	}

	s.state.Store(&to)
	s.metrics.SetAuthenticated(true)
	s.logger.InfoContext(ctx, "session authenticated",
		"principal", to.Principal,
		"session_id", to.SessionID,
		"previous_principal", from.Principal,
	)
	return nil
}

func (s *Session) rollback(ctx context.Context, attempted State, cause error) {
	s.logger.ErrorContext(ctx, "session establishment failed; signing out",
		"principal", attempted.Principal,
		"error", cause,
	)
	if err := s.provider.Revoke(ctx); err != nil {
		s.logger.WarnContext(ctx, "credential revocation after failed establishment", "error", err)
	}
	unauth := State{Status: StatusUnauthenticated}
	s.state.Store(&unauth)
	s.metrics.SetAuthenticated(false)
	s.notifyAll(ctx, Change{From: attempted, To: unauth})
}

func (s *Session) resolveUnauthenticated(ctx context.Context) {
	from := s.State()
	unauth := State{Status: StatusUnauthenticated}
	s.state.Store(&unauth)
	s.metrics.SetAuthenticated(false)
	if from.Status != StatusUnauthenticated {
		s.notifyAll(ctx, Change{From: from, To: unauth})
	}
}

// notifyAll delivers a teardown-style change; listener errors are logged only.
func (s *Session) notifyAll(ctx context.Context, change Change) {
	for _, l := range s.listeners {
		if err := l.OnSessionChange(ctx, change); err != nil {
			s.logger.WarnContext(ctx, "session listener failed", "to", change.To.Status.String(), "error", err)
		}
	}
}

func abortReason(reason string) string {
	if reason == "" {
		return "closed by user"
	}
	return reason
}
