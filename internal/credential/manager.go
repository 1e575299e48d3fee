package credential

import (
	"context"
	"errors"
	"log/slog"

	"globaltrust/internal/session"
	dErrors "globaltrust/pkg/domain-errors"
)

// Manager implements session.CredentialProvider on top of a delegation
// verifier, a keystore and the loopback sign-in flow.
type Manager struct {
	verifier *Verifier
	store    Keystore
	flow     *LoopbackFlow
	logger   *slog.Logger
}

var _ session.CredentialProvider = (*Manager)(nil)

type ManagerOption func(*Manager)

func WithLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = logger
	}
}

func NewManager(verifier *Verifier, store Keystore, flow *LoopbackFlow, opts ...ManagerOption) *Manager {
	m := &Manager{
		verifier: verifier,
		store:    store,
		flow:     flow,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	return m
}

// IsSignedIn reports whether the keystore holds a valid, unexpired delegation.
// Expired delegations are discarded.
func (m *Manager) IsSignedIn(ctx context.Context) (bool, error) {
	_, err := m.load(ctx)
	if err == nil {
		return true, nil
	}
	if dErrors.HasCode(err, dErrors.CodeUnauthorized) || dErrors.HasCode(err, dErrors.CodeNotFound) {
		return false, nil
	}
	return false, err
}

func (m *Manager) Current(ctx context.Context) (session.Credential, error) {
	return m.load(ctx)
}

func (m *Manager) load(ctx context.Context) (session.Credential, error) {
	token, found, err := m.store.Load(ctx)
	if err != nil {
		return session.Credential{}, err
	}
	if !found {
		return session.Credential{}, dErrors.New(dErrors.CodeNotFound, "no stored delegation")
	}
	cred, err := m.verifier.Verify(token)
	if err != nil {
		if errors.Is(err, ErrDelegationExpired) {
			m.logger.InfoContext(ctx, "stored delegation expired; discarding")
		} else {
			m.logger.WarnContext(ctx, "stored delegation rejected; discarding", "error", err)
		}
		if clearErr := m.store.Clear(ctx); clearErr != nil {
			m.logger.WarnContext(ctx, "keystore clear failed", "error", clearErr)
		}
		return session.Credential{}, err
	}
	return cred, nil
}

// BeginInteractiveSignIn runs the loopback flow against providerURL and
// persists the delegation it returns.
func (m *Manager) BeginInteractiveSignIn(ctx context.Context, providerURL string) (session.SignInOutcome, error) {
	cb, err := m.flow.Run(ctx, providerURL)
	if err != nil {
		return session.SignInOutcome{}, err
	}
	if cb.Aborted {
		return session.SignInOutcome{Outcome: session.OutcomeAborted, Reason: cb.Reason}, nil
	}

	cred, err := m.verifier.Verify(cb.Delegation)
	if err != nil {
		return session.SignInOutcome{}, err
	}
	if err := m.store.Save(ctx, cb.Delegation); err != nil {
		return session.SignInOutcome{}, err
	}
	m.logger.InfoContext(ctx, "delegation received",
		"principal", cred.Principal,
		"device", DeviceLabel(cb.UserAgent),
		"expires_at", cred.ExpiresAt,
	)
	return session.SignInOutcome{Outcome: session.OutcomeCompleted, Credential: cred}, nil
}

func (m *Manager) Revoke(ctx context.Context) error {
	return m.store.Clear(ctx)
}

// PendingSignIn returns the authorization URL of an in-flight sign-in so a
// remote UI can present it.
func (m *Manager) PendingSignIn() (string, bool) {
	return m.flow.Pending()
}
