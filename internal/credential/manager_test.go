package credential

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"globaltrust/internal/session"
	dErrors "globaltrust/pkg/domain-errors"
)

type ManagerSuite struct {
	suite.Suite
	store     *MemoryKeystore
	minter    *Minter
	provider  *httptest.Server
	principal string
	cancel    bool
	manager   *Manager
}

func (s *ManagerSuite) SetupTest() {
	s.store = NewMemoryKeystore()
	s.minter = NewHMACMinter(devSecret, "local", time.Hour)
	s.provider = httptest.NewServer(NewDevProvider(s.minter).Routes())
	s.principal = "2vxsx-fae"
	s.cancel = false

	verifier, err := NewHMACVerifier(devSecret)
	s.Require().NoError(err)

	// The "browser" follows the provider redirect back to the loopback callback.
	browser := func(ctx context.Context, authURL string) error {
		u, err := url.Parse(authURL)
		if err != nil {
			return err
		}
		q := u.Query()
		q.Set("principal", s.principal)
		if s.cancel {
			q.Set("cancel", "1")
		}
		u.RawQuery = q.Encode()
		resp, err := http.Get(u.String())
		if err != nil {
			return err
		}
		return resp.Body.Close()
	}
	flow := NewLoopbackFlow(browser, WithFlowLogger(discardLogger()))
	s.manager = NewManager(verifier, s.store, flow, WithLogger(discardLogger()))
}

func (s *ManagerSuite) TearDownTest() {
	s.provider.Close()
}

func TestManagerSuite(t *testing.T) {
	suite.Run(t, new(ManagerSuite))
}

func (s *ManagerSuite) TestNotSignedIn() {
	ok, err := s.manager.IsSignedIn(context.Background())
	s.Require().NoError(err)
	s.False(ok)

	_, err = s.manager.Current(context.Background())
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ManagerSuite) TestStoredDelegation() {
	ctx := context.Background()

	s.Run("valid delegation is signed in", func() {
		token, err := s.minter.Mint("aaaaa-aa", time.Now())
		s.Require().NoError(err)
		s.Require().NoError(s.store.Save(ctx, token))

		ok, err := s.manager.IsSignedIn(ctx)
		s.Require().NoError(err)
		s.True(ok)
		cred, err := s.manager.Current(ctx)
		s.Require().NoError(err)
		s.Equal("aaaaa-aa", cred.Principal)
	})

	s.Run("expired delegation is discarded", func() {
		token, err := s.minter.Mint("aaaaa-aa", time.Now().Add(-3*time.Hour))
		s.Require().NoError(err)
		s.Require().NoError(s.store.Save(ctx, token))

		ok, err := s.manager.IsSignedIn(ctx)
		s.Require().NoError(err)
		s.False(ok)
		_, found, _ := s.store.Load(ctx)
		s.False(found)
	})

	s.Run("tampered delegation is discarded", func() {
		s.Require().NoError(s.store.Save(ctx, "eyJhbGciOiJIUzI1NiJ9.e30.forged"))

		ok, err := s.manager.IsSignedIn(ctx)
		s.Require().NoError(err)
		s.False(ok)
		_, found, _ := s.store.Load(ctx)
		s.False(found)
	})
}

func (s *ManagerSuite) TestInteractiveSignIn() {
	ctx := context.Background()

	s.Run("completed flow persists the delegation", func() {
		outcome, err := s.manager.BeginInteractiveSignIn(ctx, s.provider.URL+"/")

		s.Require().NoError(err)
		s.Equal(session.OutcomeCompleted, outcome.Outcome)
		s.Equal("2vxsx-fae", outcome.Credential.Principal)
		ok, err := s.manager.IsSignedIn(ctx)
		s.Require().NoError(err)
		s.True(ok)
	})

	s.Run("user cancel is an aborted outcome", func() {
		s.SetupTest()
		s.cancel = true

		outcome, err := s.manager.BeginInteractiveSignIn(ctx, s.provider.URL+"/")

		s.Require().NoError(err)
		s.Equal(session.OutcomeAborted, outcome.Outcome)
		s.Equal("access_denied", outcome.Reason)
		ok, _ := s.manager.IsSignedIn(ctx)
		s.False(ok)
	})

	s.Run("delegation from another issuer is rejected", func() {
		s.SetupTest()
		rogue := httptest.NewServer(NewDevProvider(NewHMACMinter([]byte("rogue"), "local", time.Hour)).Routes())
		defer rogue.Close()

		_, err := s.manager.BeginInteractiveSignIn(ctx, rogue.URL+"/")

		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
		_, found, _ := s.store.Load(ctx)
		s.False(found)
	})

	s.Run("revoke clears the keystore", func() {
		s.SetupTest()
		_, err := s.manager.BeginInteractiveSignIn(ctx, s.provider.URL+"/")
		s.Require().NoError(err)

		s.Require().NoError(s.manager.Revoke(ctx))

		ok, _ := s.manager.IsSignedIn(ctx)
		s.False(ok)
	})
}

func TestDevProviderRejectsForeignRedirect(t *testing.T) {
	srv := httptest.NewServer(NewDevProvider(NewHMACMinter(devSecret, "local", time.Hour)).Routes())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/?principal=p&state=s&redirect_uri=" + url.QueryEscape("http://evil.example/callback"))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
}
