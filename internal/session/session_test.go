package session_test

//go:generate mockgen -source=session.go -destination=mocks/mocks.go -package=mocks CredentialProvider,Listener

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"globaltrust/internal/session"
	"globaltrust/internal/session/mocks"
	dErrors "globaltrust/pkg/domain-errors"
)

const providerURL = "http://identity.localhost:4943"

type SessionSuite struct {
	suite.Suite
	ctrl     *gomock.Controller
	provider *mocks.MockCredentialProvider
	listener *mocks.MockListener
	session  *session.Session
	changes  []session.Change
}

func (s *SessionSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.provider = mocks.NewMockCredentialProvider(s.ctrl)
	s.listener = mocks.NewMockListener(s.ctrl)
	s.changes = nil
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.session = session.New(s.provider, providerURL, session.WithLogger(logger))
	s.session.Subscribe(s.listener)
}

func (s *SessionSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestSessionSuite(t *testing.T) {
	suite.Run(t, new(SessionSuite))
}

func (s *SessionSuite) recordChanges(times int) {
	s.listener.EXPECT().OnSessionChange(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, c session.Change) error {
			s.changes = append(s.changes, c)
			return nil
		}).Times(times)
}

func credential(principal string) session.Credential {
	return session.Credential{Principal: principal, Token: "tok-" + principal, ExpiresAt: time.Now().Add(time.Hour)}
}

func completed(principal string) session.SignInOutcome {
	return session.SignInOutcome{Outcome: session.OutcomeCompleted, Credential: credential(principal)}
}

func (s *SessionSuite) TestInitialize() {
	ctx := context.Background()

	s.Run("starts unresolved", func() {
		s.Equal(session.StatusUnresolved, s.session.State().Status)
		s.Equal(providerURL, s.session.ProviderURL())
	})

	s.Run("not signed in resolves to unauthenticated", func() {
		s.SetupTest()
		s.provider.EXPECT().IsSignedIn(gomock.Any()).Return(false, nil)
		s.recordChanges(1)

		state := s.session.Initialize(ctx)

		s.Equal(session.StatusUnauthenticated, state.Status)
		s.Empty(state.Principal)
		s.Require().Len(s.changes, 1)
		s.Equal(session.StatusUnresolved, s.changes[0].From.Status)
		s.Nil(s.changes[0].Credential)
	})

	s.Run("existing sign-in resolves to authenticated", func() {
		s.SetupTest()
		s.provider.EXPECT().IsSignedIn(gomock.Any()).Return(true, nil)
		s.provider.EXPECT().Current(gomock.Any()).Return(credential("aaaaa-aa"), nil)
		s.recordChanges(1)

		state := s.session.Initialize(ctx)

		s.True(state.Authenticated())
		s.Equal("aaaaa-aa", state.Principal)
		s.NotEmpty(state.SessionID)
		s.Require().Len(s.changes, 1)
		s.Require().NotNil(s.changes[0].Credential)
		s.Equal("tok-aaaaa-aa", s.changes[0].Credential.Token)
		s.True(s.changes[0].PrincipalChanged())
	})

	s.Run("provider failure resolves to unauthenticated", func() {
		s.SetupTest()
		s.provider.EXPECT().IsSignedIn(gomock.Any()).Return(false, errors.New("keystore unreadable"))
		s.recordChanges(1)

		state := s.session.Initialize(ctx)

		s.Equal(session.StatusUnauthenticated, state.Status)
	})

	s.Run("credential without principal resolves to unauthenticated", func() {
		s.SetupTest()
		s.provider.EXPECT().IsSignedIn(gomock.Any()).Return(true, nil)
		s.provider.EXPECT().Current(gomock.Any()).Return(session.Credential{}, nil)
		s.recordChanges(1)

		state := s.session.Initialize(ctx)

		s.Equal(session.StatusUnauthenticated, state.Status)
	})

	s.Run("same principal does not rebuild", func() {
		s.SetupTest()
		s.provider.EXPECT().IsSignedIn(gomock.Any()).Return(true, nil).Times(2)
		s.provider.EXPECT().Current(gomock.Any()).Return(credential("aaaaa-aa"), nil).Times(2)
		s.recordChanges(1)

		first := s.session.Initialize(ctx)
		second := s.session.Initialize(ctx)

		s.Equal(first, second)
	})
}

func (s *SessionSuite) TestSignIn() {
	ctx := context.Background()

	s.Run("completed flow authenticates", func() {
		s.SetupTest()
		s.provider.EXPECT().BeginInteractiveSignIn(gomock.Any(), providerURL).Return(completed("bbbbb-bb"), nil)
		s.recordChanges(1)

		state, err := s.session.SignIn(ctx)

		s.Require().NoError(err)
		s.True(state.Authenticated())
		s.Equal("bbbbb-bb", state.Principal)
		s.Equal(state, s.session.State())
		s.Require().Len(s.changes, 1)
		s.Equal("bbbbb-bb", s.changes[0].To.Principal)
	})

	s.Run("aborted flow leaves state unchanged", func() {
		s.SetupTest()
		s.provider.EXPECT().BeginInteractiveSignIn(gomock.Any(), providerURL).
			Return(session.SignInOutcome{Outcome: session.OutcomeAborted, Reason: "window closed"}, nil)

		state, err := s.session.SignIn(ctx)

		s.Require().Error(err)
		s.ErrorIs(err, session.ErrAuthenticationFailed)
		s.Contains(err.Error(), "window closed")
		s.Equal(session.StatusUnresolved, state.Status)
	})

	s.Run("provider error is an authentication failure", func() {
		s.SetupTest()
		cause := errors.New("provider unreachable")
		s.provider.EXPECT().BeginInteractiveSignIn(gomock.Any(), providerURL).Return(session.SignInOutcome{}, cause)

		_, err := s.session.SignIn(ctx)

		s.ErrorIs(err, session.ErrAuthenticationFailed)
		s.ErrorIs(err, cause)
		s.True(dErrors.HasCode(err, dErrors.CodeAuthenticationFailed))
	})

	s.Run("completed flow without principal fails", func() {
		s.SetupTest()
		s.provider.EXPECT().BeginInteractiveSignIn(gomock.Any(), providerURL).
			Return(session.SignInOutcome{Outcome: session.OutcomeCompleted}, nil)

		_, err := s.session.SignIn(ctx)

		s.ErrorIs(err, session.ErrAuthenticationFailed)
		s.Equal(session.StatusUnresolved, s.session.State().Status)
	})

	s.Run("listener failure rolls back to unauthenticated", func() {
		s.SetupTest()
		provisioning := dErrors.New(dErrors.CodeServiceProvisioning, "lending handle failed")
		s.provider.EXPECT().BeginInteractiveSignIn(gomock.Any(), providerURL).Return(completed("ccccc-cc"), nil)
		gomock.InOrder(
			s.listener.EXPECT().OnSessionChange(gomock.Any(), gomock.Any()).Return(provisioning),
			s.provider.EXPECT().Revoke(gomock.Any()).Return(nil),
			s.listener.EXPECT().OnSessionChange(gomock.Any(), gomock.Any()).
				DoAndReturn(func(_ context.Context, c session.Change) error {
					s.Equal("ccccc-cc", c.From.Principal)
					s.Equal(session.StatusUnauthenticated, c.To.Status)
					return nil
				}),
		)

		state, err := s.session.SignIn(ctx)

		s.True(dErrors.HasCode(err, dErrors.CodeServiceProvisioning))
		s.Equal(session.StatusUnauthenticated, state.Status)
		s.Empty(state.Principal)
	})

	s.Run("principal change is reported", func() {
		s.SetupTest()
		s.provider.EXPECT().BeginInteractiveSignIn(gomock.Any(), providerURL).Return(completed("aaaaa-aa"), nil)
		s.provider.EXPECT().BeginInteractiveSignIn(gomock.Any(), providerURL).Return(completed("bbbbb-bb"), nil)
		s.recordChanges(2)

		_, err := s.session.SignIn(ctx)
		s.Require().NoError(err)
		first := s.session.State().SessionID
		_, err = s.session.SignIn(ctx)
		s.Require().NoError(err)

		s.Require().Len(s.changes, 2)
		s.Equal("aaaaa-aa", s.changes[1].From.Principal)
		s.Equal("bbbbb-bb", s.changes[1].To.Principal)
		s.True(s.changes[1].PrincipalChanged())
		s.NotEqual(first, s.session.State().SessionID)
	})
}

func (s *SessionSuite) TestSignInInProgress() {
	started := make(chan struct{})
	release := make(chan struct{})
	s.provider.EXPECT().BeginInteractiveSignIn(gomock.Any(), providerURL).
		DoAndReturn(func(ctx context.Context, _ string) (session.SignInOutcome, error) {
			close(started)
			<-release
			return session.SignInOutcome{Outcome: session.OutcomeAborted}, nil
		})

	done := make(chan error, 1)
	go func() {
		_, err := s.session.SignIn(context.Background())
		done <- err
	}()
	<-started

	_, err := s.session.SignIn(context.Background())
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))

	close(release)
	s.ErrorIs(<-done, session.ErrAuthenticationFailed)
}

func (s *SessionSuite) TestSignOut() {
	ctx := context.Background()

	s.Run("clears the principal and notifies teardown", func() {
		s.SetupTest()
		s.provider.EXPECT().BeginInteractiveSignIn(gomock.Any(), providerURL).Return(completed("aaaaa-aa"), nil)
		s.provider.EXPECT().Revoke(gomock.Any()).Return(nil)
		s.recordChanges(2)

		_, err := s.session.SignIn(ctx)
		s.Require().NoError(err)
		s.Require().NoError(s.session.SignOut(ctx))

		s.Equal(session.StatusUnauthenticated, s.session.State().Status)
		s.Require().Len(s.changes, 2)
		s.Equal("aaaaa-aa", s.changes[1].From.Principal)
		s.False(s.changes[1].To.Authenticated())
	})

	s.Run("revocation failure still clears local state", func() {
		s.SetupTest()
		s.provider.EXPECT().BeginInteractiveSignIn(gomock.Any(), providerURL).Return(completed("aaaaa-aa"), nil)
		s.provider.EXPECT().Revoke(gomock.Any()).Return(errors.New("keystore locked"))
		s.recordChanges(2)

		_, err := s.session.SignIn(ctx)
		s.Require().NoError(err)
		err = s.session.SignOut(ctx)

		s.Require().Error(err)
		s.Equal(session.StatusUnauthenticated, s.session.State().Status)
	})

	s.Run("signing out twice notifies once", func() {
		s.SetupTest()
		s.provider.EXPECT().Revoke(gomock.Any()).Return(nil).Times(2)
		s.recordChanges(1)

		s.Require().NoError(s.session.SignOut(ctx))
		s.Require().NoError(s.session.SignOut(ctx))
	})
}

func TestCredentialExpired(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		name    string
		expires time.Time
		want    bool
	}{
		{"no expiry", time.Time{}, false},
		{"future", now.Add(time.Minute), false},
		{"exactly now", now, true},
		{"past", now.Add(-time.Minute), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := session.Credential{Principal: "p", ExpiresAt: tc.expires}
			if got := c.Expired(now); got != tc.want {
				t.Errorf("Expired() = %v, want %v", got, tc.want)
			}
		})
	}
}
