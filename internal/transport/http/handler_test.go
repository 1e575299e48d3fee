package httptransport_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"globaltrust/internal/aggregate"
	"globaltrust/internal/forms"
	"globaltrust/internal/platform/health"
	"globaltrust/internal/platform/metrics"
	"globaltrust/internal/router"
	"globaltrust/internal/services"
	"globaltrust/internal/session"
	httptransport "globaltrust/internal/transport/http"
	"globaltrust/internal/transport/http/mocks"
	dErrors "globaltrust/pkg/domain-errors"
	"globaltrust/pkg/platform/httputil"
	"globaltrust/pkg/testutil"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks SessionService,PendingSignIns

const providerURL = "http://ucwa4-rx777-77774-qaada-cai.localhost:4943"

type HandlerSuite struct {
	suite.Suite
	ctrl     *gomock.Controller
	session  *mocks.MockSessionService
	pending  *mocks.MockPendingSignIns
	backend  *testutil.Backend
	registry *services.Registry
	views    *router.Router
	server   http.Handler
	logs     *bytes.Buffer
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.session = mocks.NewMockSessionService(s.ctrl)
	s.pending = mocks.NewMockPendingSignIns(s.ctrl)
	s.session.EXPECT().ProviderURL().Return(providerURL).AnyTimes()

	s.logs = &bytes.Buffer{}
	logger := slog.New(slog.NewJSONHandler(s.logs, nil))
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	s.backend = testutil.NewBackend(s.T())
	dialer, err := services.NewHTTPDialer(s.backend.URL(), services.Endpoints{
		services.Identity:     testutil.TestCanisters.Identity,
		services.Assets:       testutil.TestCanisters.Assets,
		services.Marketplace:  testutil.TestCanisters.Marketplace,
		services.Lending:      testutil.TestCanisters.Lending,
		services.Verification: testutil.TestCanisters.Verification,
	}, services.WithDialerLogger(logger), services.WithDialerMetrics(m))
	s.Require().NoError(err)
	s.registry = services.NewRegistry(dialer, services.WithLogger(logger), services.WithMetrics(m))
	_, err = s.registry.Build(context.Background(), testutil.NewCredentialBuilder().Build())
	s.Require().NoError(err)

	s.views = router.New(router.WithLogger(logger))
	s.Require().NoError(s.views.OnSessionChange(context.Background(), session.Change{
		To: session.State{Status: session.StatusAuthenticated, Principal: testutil.TestPrincipals.Alice},
	}))

	h := httptransport.New(
		s.session,
		s.registry,
		aggregate.New(aggregate.WithLogger(logger), aggregate.WithMetrics(m)),
		forms.NewService(forms.WithLogger(logger), forms.WithMetrics(m)),
		s.views,
		httptransport.WithLogger(logger),
		httptransport.WithPendingSignIns(s.pending),
	)
	s.server = httptransport.NewRouter(h, httptransport.RouterConfig{
		Logger:   logger,
		Latency:  m,
		Gatherer: reg,
		Health:   health.New("local").Register,
	})
}

func (s *HandlerSuite) do(method, path, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.server.ServeHTTP(w, req)
	return w
}

func (s *HandlerSuite) decode(w *httptest.ResponseRecorder, dst any) {
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), dst), w.Body.String())
}

func (s *HandlerSuite) errorCode(w *httptest.ResponseRecorder) httputil.ErrorResponse {
	var resp httputil.ErrorResponse
	s.decode(w, &resp)
	return resp
}

func (s *HandlerSuite) signedIn() session.State {
	return session.State{
		Status:    session.StatusAuthenticated,
		Principal: testutil.TestPrincipals.Alice,
		SessionID: "6f1c1d7e-4c57-4f4b-9d0b-0c0b7e5b2a11",
	}
}

func (s *HandlerSuite) TestSession() {
	s.session.EXPECT().State().Return(s.signedIn())

	w := s.do(http.MethodGet, "/session", "")
	s.Require().Equal(http.StatusOK, w.Code)
	s.JSONEq(`{
		"status": "authenticated",
		"principal": "2vxsx-fae",
		"session_id": "6f1c1d7e-4c57-4f4b-9d0b-0c0b7e5b2a11",
		"provider_url": "`+providerURL+`",
		"view": "dashboard"
	}`, w.Body.String())
	s.NotEmpty(w.Header().Get("X-Request-ID"))
}

func (s *HandlerSuite) TestSignIn() {
	s.Run("completed", func() {
		s.session.EXPECT().SignIn(gomock.Any()).Return(s.signedIn(), nil)

		w := s.do(http.MethodPost, "/session/sign-in", "")
		s.Require().Equal(http.StatusOK, w.Code)
		var resp map[string]any
		s.decode(w, &resp)
		s.Equal("authenticated", resp["status"])
		s.Equal(testutil.TestPrincipals.Alice, resp["principal"])
	})

	s.Run("aborted", func() {
		s.session.EXPECT().SignIn(gomock.Any()).
			Return(session.State{Status: session.StatusUnauthenticated}, dErrors.New(dErrors.CodeAuthenticationFailed, "sign-in aborted: closed by user"))

		w := s.do(http.MethodPost, "/session/sign-in", "")
		s.Equal(http.StatusUnauthorized, w.Code)
		resp := s.errorCode(w)
		s.Equal("authentication_failed", resp.Error)
		s.Contains(resp.Description, "closed by user")
	})

	s.Run("provisioning failed", func() {
		s.session.EXPECT().SignIn(gomock.Any()).
			Return(session.State{Status: session.StatusUnauthenticated}, &services.ProvisioningError{Service: services.Lending, Err: errors.New("no endpoint id configured")})

		w := s.do(http.MethodPost, "/session/sign-in", "")
		s.Equal(http.StatusServiceUnavailable, w.Code)
		s.Equal("service_unavailable", s.errorCode(w).Error)
	})

	s.Run("already in progress", func() {
		s.session.EXPECT().SignIn(gomock.Any()).
			Return(session.State{Status: session.StatusUnauthenticated}, dErrors.New(dErrors.CodeConflict, "sign-in already in progress"))

		w := s.do(http.MethodPost, "/session/sign-in", "")
		s.Equal(http.StatusConflict, w.Code)
	})
}

func (s *HandlerSuite) TestPendingSignIn() {
	s.pending.EXPECT().PendingSignIn().Return(providerURL+"/authorize?state=abc", true)
	w := s.do(http.MethodGet, "/session/sign-in", "")
	s.Require().Equal(http.StatusOK, w.Code)
	s.JSONEq(`{"authorization_url":"`+providerURL+`/authorize?state=abc"}`, w.Body.String())

	s.pending.EXPECT().PendingSignIn().Return("", false)
	w = s.do(http.MethodGet, "/session/sign-in", "")
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *HandlerSuite) TestSignOut() {
	s.Run("clean", func() {
		s.session.EXPECT().SignOut(gomock.Any()).Return(nil)
		s.session.EXPECT().State().Return(session.State{Status: session.StatusUnauthenticated})

		w := s.do(http.MethodPost, "/session/sign-out", "")
		s.Require().Equal(http.StatusOK, w.Code)
		var resp map[string]any
		s.decode(w, &resp)
		s.Equal("unauthenticated", resp["status"])
		s.NotContains(resp, "principal")
	})

	s.Run("revocation failure hides internals", func() {
		s.session.EXPECT().SignOut(gomock.Any()).
			Return(dErrors.Wrap(errors.New("keystore: permission denied"), dErrors.CodeInternal, "credential revocation failed"))

		w := s.do(http.MethodPost, "/session/sign-out", "")
		s.Equal(http.StatusInternalServerError, w.Code)
		s.NotContains(w.Body.String(), "keystore")
		s.Contains(s.logs.String(), "sign-out failed")
	})
}

func (s *HandlerSuite) TestView() {
	w := s.do(http.MethodGet, "/view", "")
	s.Require().Equal(http.StatusOK, w.Code)
	s.JSONEq(`{"view":"dashboard","selectable":["dashboard","identity","assets","marketplace","lending","verification"]}`, w.Body.String())

	w = s.do(http.MethodPut, "/view", `{"view":"lending"}`)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal(router.ViewLending, s.views.Current())

	w = s.do(http.MethodPut, "/view", `{"view":" assets "}`)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal(router.ViewAssets, s.views.Current())

	w = s.do(http.MethodPut, "/view", `{"view":"unauthenticated"}`)
	s.Equal(http.StatusBadRequest, w.Code)
	s.Contains(s.errorCode(w).Description, "unknown view")

	w = s.do(http.MethodPut, "/view", `{"view":"lending"}`)
	s.Require().Equal(http.StatusOK, w.Code)

	w = s.do(http.MethodPut, "/view", `{"view":`)
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal(router.ViewLending, s.views.Current())
}

func (s *HandlerSuite) TestViewRequiresSignIn() {
	s.Require().NoError(s.views.OnSessionChange(context.Background(), session.Change{
		From: session.State{Status: session.StatusAuthenticated, Principal: testutil.TestPrincipals.Alice},
		To:   session.State{Status: session.StatusUnauthenticated},
	}))

	w := s.do(http.MethodPut, "/view", `{"view":"assets"}`)
	s.Equal(http.StatusUnauthorized, w.Code)
	s.Equal(router.ViewUnauthenticated, s.views.Current())
}

func (s *HandlerSuite) TestViewRejectsNonJSON() {
	req := httptest.NewRequest(http.MethodPut, "/view", strings.NewReader("view=assets"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	s.server.ServeHTTP(w, req)

	s.Equal(http.StatusUnsupportedMediaType, w.Code)
}

func (s *HandlerSuite) respondDashboards() {
	s.backend.Respond(testutil.TestCanisters.Verification, "getDashboardData", http.StatusOK,
		`{"total_submissions":4,"verified_submissions":3,"pending_submissions":1,"success_rate":0.75,"avg_confidence":0.9,"recent_submissions":[{"id":1,"title":"Deed 12","status":{"Verified":null},"timestamp":1700000000000000000}]}`)
	s.backend.Respond(testutil.TestCanisters.Marketplace, "getDashboardData", http.StatusOK,
		`{"seller_data":{"active_listings":2,"total_listed_value":1250050,"completed_sales":5}}`)
	s.backend.Respond(testutil.TestCanisters.Lending, "getDashboardData", http.StatusOK,
		`{"ok":{"borrower_data":{"active_loans":1,"total_borrowed":500000,"credit_score":720}}}`)
	s.backend.Respond(testutil.TestCanisters.Identity, "getIdentity", http.StatusOK, `[]`)
}

func (s *HandlerSuite) TestDashboard() {
	s.respondDashboards()

	w := s.do(http.MethodGet, "/dashboard", "")
	s.Require().Equal(http.StatusOK, w.Code)
	s.JSONEq(`{
		"principal": "2vxsx-fae",
		"verification": {"status": "available", "data": {
			"total_submissions": 4, "verified_submissions": 3, "pending_submissions": 1,
			"success_rate": 0.75, "avg_confidence": 0.9,
			"recent_submissions": [{"id": 1, "title": "Deed 12", "status": "Verified", "timestamp": "2023-11-14T22:13:20Z"}]
		}},
		"marketplace": {"status": "available", "data": {"active_listings": 2, "total_listed_value": "12500.50", "completed_sales": 5}},
		"lending": {"status": "available", "data": {"active_loans": 1, "total_borrowed": "5000.00", "credit_score": 720}},
		"identity": {"status": "absent"}
	}`, w.Body.String())
}

func (s *HandlerSuite) TestDashboardSectionFailure() {
	s.respondDashboards()
	s.backend.Respond(testutil.TestCanisters.Lending, "getDashboardData", http.StatusServiceUnavailable, "replica overloaded")
	s.backend.Respond(testutil.TestCanisters.Marketplace, "getDashboardData", http.StatusOK, `{"err":{"NotFound":null}}`)

	w := s.do(http.MethodGet, "/dashboard", "")
	s.Require().Equal(http.StatusOK, w.Code)

	var resp struct {
		Verification map[string]any `json:"verification"`
		Marketplace  map[string]any `json:"marketplace"`
		Lending      map[string]any `json:"lending"`
	}
	s.decode(w, &resp)

	s.Equal("unavailable", resp.Lending["status"])
	s.Equal("unavailable", resp.Lending["reason"])
	s.Equal(true, resp.Lending["retryable"])

	s.Equal("unavailable", resp.Marketplace["status"])
	s.Equal("not_found", resp.Marketplace["reason"])
	s.NotContains(resp.Marketplace, "retryable")

	s.Equal("available", resp.Verification["status"])
}

func (s *HandlerSuite) TestDashboardRequiresSignIn() {
	s.registry.Teardown(context.Background())

	w := s.do(http.MethodGet, "/dashboard", "")
	s.Equal(http.StatusUnauthorized, w.Code)
	s.Empty(s.backend.Calls())
}

func (s *HandlerSuite) TestToken() {
	s.backend.Respond(testutil.TestCanisters.Assets, "icrc7_owner_of", http.StatusOK, `"2vxsx-fae"`)
	s.backend.Respond(testutil.TestCanisters.Assets, "icrc7_token_metadata", http.StatusOK,
		`{"ipfs_cid":"bafy123","rwa_type":"vehicle","submission_id":"sub-2","attestation_ids":["att-1"],"verification_hash":"0xdef","lien_active":false,"collateralized":false,"frozen":true}`)
	s.backend.Respond(testutil.TestCanisters.Assets, "getCertifiedMetadata", http.StatusServiceUnavailable, "replica overloaded")

	w := s.do(http.MethodGet, "/tokens/3", "")
	s.Require().Equal(http.StatusOK, w.Code)
	s.JSONEq(`{
		"id": 3,
		"owner": {"status": "available", "data": "2vxsx-fae"},
		"metadata": {"status": "available", "data": {
			"ipfs_cid": "bafy123", "rwa_type": "vehicle", "submission_id": "sub-2",
			"attestation_ids": ["att-1"], "verification_hash": "0xdef",
			"lien_active": false, "collateralized": false, "frozen": true
		}},
		"certificate": {"status": "unavailable", "reason": "unavailable", "retryable": true}
	}`, w.Body.String())
}

func (s *HandlerSuite) TestTokenRejects() {
	w := s.do(http.MethodGet, "/tokens/first", "")
	s.Equal(http.StatusBadRequest, w.Code)

	s.registry.Teardown(context.Background())
	w = s.do(http.MethodGet, "/tokens/3", "")
	s.Equal(http.StatusUnauthorized, w.Code)
	s.Empty(s.backend.Calls())
}

func (s *HandlerSuite) TestListLoans() {
	s.backend.Respond(testutil.TestCanisters.Lending, "getAllLoans2", http.StatusOK, `[
		{"id":7,"borrower":"2vxsx-fae","lender":[],"amount":500000,"interest_rate":5.5,"duration":24,
		 "monthly_payment":22050,"payments_made":3,"total_payments":24,"credit_score":720,
		 "loan_purpose":"renovation","status":{"Active":null}},
		{"id":8,"borrower":"rrkah-fqaaa-aaaaa-aaaaq-cai","lender":[],"amount":100000,"status":{"Pending":null}}
	]`)

	w := s.do(http.MethodGet, "/lists/lending", "")
	s.Require().Equal(http.StatusOK, w.Code)
	s.JSONEq(`{"service":"lending","count":1,"items":[{
		"id":7,"borrower":"2vxsx-fae","lender":null,"amount":"5000.00","interest_rate":5.5,"duration":24,
		"monthly_payment":"220.50","payments_made":3,"total_payments":24,"credit_score":720,
		"loan_purpose":"renovation","status":"Active"
	}]}`, w.Body.String())

	calls := s.backend.CallsTo(testutil.TestCanisters.Lending, "getAllLoans2")
	s.Require().Len(calls, 1)
	s.JSONEq(`[]`, string(calls[0].Args[0]))
}

func (s *HandlerSuite) TestListCredentials() {
	s.backend.Respond(testutil.TestCanisters.Identity, "getVerifiableCredentials", http.StatusOK, `{"ok":[
		{"id":"vc-1","credentialType":"KYC","issuer":"Acme","issuedAt":1700000000000000000,
		 "expirationDate":[1731536000000000000],"credentialHash":"0xabc","status":{"Valid":null}}
	]}`)

	w := s.do(http.MethodGet, "/lists/identity", "")
	s.Require().Equal(http.StatusOK, w.Code)
	s.JSONEq(`{"service":"identity","count":1,"items":[{
		"id":"vc-1","credential_type":"KYC","issuer":"Acme","issued_at":"2023-11-14T22:13:20Z",
		"expiration_date":"2024-11-13T22:13:20Z","credential_hash":"0xabc","status":"Valid"
	}]}`, w.Body.String())
}

func (s *HandlerSuite) TestListVerificationFilters() {
	s.backend.Respond(testutil.TestCanisters.Verification, "getSubmissionsWithFilters", http.StatusOK, `null`)

	w := s.do(http.MethodGet, "/lists/verification?status=Pending&limit=10", "")
	s.Require().Equal(http.StatusOK, w.Code)
	s.JSONEq(`{"service":"verification","count":0,"items":[]}`, w.Body.String())

	calls := s.backend.CallsTo(testutil.TestCanisters.Verification, "getSubmissionsWithFilters")
	s.Require().Len(calls, 1)
	s.JSONEq(`{
		"submitter": ["2vxsx-fae"],
		"status": [{"Pending": null}],
		"start_date": [], "end_date": [],
		"limit": [10], "offset": []
	}`, string(calls[0].Args[0]))
}

func (s *HandlerSuite) TestListRejects() {
	tests := []struct {
		name   string
		path   string
		status int
	}{
		{"unknown service", "/lists/ledger", http.StatusBadRequest},
		{"other principal", "/lists/assets?principal=" + testutil.TestPrincipals.Bob, http.StatusUnauthorized},
		{"filter on unfiltered list", "/lists/assets?status=Active", http.StatusBadRequest},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			w := s.do(http.MethodGet, tt.path, "")
			s.Equal(tt.status, w.Code)
		})
	}
	s.Empty(s.backend.Calls())
}

func (s *HandlerSuite) TestListMalformedEntry() {
	s.backend.Respond(testutil.TestCanisters.Lending, "getAllLoans2", http.StatusOK,
		`[{"id":7,"borrower":"2vxsx-fae","lender":["a","b"],"amount":500000,"status":{"Active":null}}]`)

	w := s.do(http.MethodGet, "/lists/lending", "")
	s.Equal(http.StatusBadGateway, w.Code)
	resp := s.errorCode(w)
	s.Equal("bad_response", resp.Error)
	s.Contains(resp.Description, "items[0]")

	entry := s.logEntry("list entry malformed")
	s.Require().NotNil(entry)
	raw, _ := entry["raw"].(string)
	s.Contains(raw, `"b"`)
}

// logEntry returns the last JSON log entry with msg, or nil.
func (s *HandlerSuite) logEntry(msg string) map[string]any {
	var found map[string]any
	for _, line := range bytes.Split(s.logs.Bytes(), []byte("\n")) {
		var entry map[string]any
		if json.Unmarshal(line, &entry) == nil && entry["msg"] == msg {
			found = entry
		}
	}
	return found
}

func (s *HandlerSuite) TestCatalog() {
	w := s.do(http.MethodGet, "/forms", "")
	s.Require().Equal(http.StatusOK, w.Code)

	var catalog []struct {
		Name   string `json:"name"`
		Fields []struct {
			Name     string `json:"name"`
			Kind     string `json:"kind"`
			Optional bool   `json:"optional"`
			Default  any    `json:"default"`
		} `json:"fields"`
	}
	s.decode(w, &catalog)
	s.Len(catalog, len(forms.Catalog()))

	byName := map[string]int{}
	for i, f := range catalog {
		byName[f.Name] = i
	}
	payment := catalog[byName["make_payment"]]
	s.Require().Len(payment.Fields, 3)
	s.Equal("payment_type", payment.Fields[2].Name)
	s.Equal("regular", payment.Fields[2].Default)

	for _, f := range catalog[byName["submit_loan_application"]].Fields {
		s.NotEqual("borrower", f.Name, "principal-bound fields are not user input")
	}

	mint := catalog[byName["mint_rwa_nft"]]
	s.Require().Len(mint.Fields, 5, "owner and fixed flags are not user input")
	s.Equal("metadata.attestation_ids", mint.Fields[3].Name)
	s.Equal("text_list", mint.Fields[3].Kind)
}

func (s *HandlerSuite) TestSubmitForm() {
	s.backend.Respond(testutil.TestCanisters.Lending, "makePayment", http.StatusOK, `{"ok":null}`)

	w := s.do(http.MethodPost, "/forms/make_payment", `{"loan_id": 7, "amount": "12.50"}`)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.JSONEq(`{"ok":true,"result":null}`, w.Body.String())

	calls := s.backend.CallsTo(testutil.TestCanisters.Lending, "makePayment")
	s.Require().Len(calls, 1)
	s.Require().Len(calls[0].Args, 3)
	s.JSONEq(`7`, string(calls[0].Args[0]))
	s.JSONEq(`1250`, string(calls[0].Args[1]))
	s.JSONEq(`{"regular":null}`, string(calls[0].Args[2]))
}

func (s *HandlerSuite) TestSubmitFormFailures() {
	s.Run("service rejects", func() {
		s.backend.Respond(testutil.TestCanisters.Lending, "fundLoan", http.StatusOK, `{"err":{"InsufficientFunds":null}}`)

		w := s.do(http.MethodPost, "/forms/fund_loan", `{"loan_id": "3"}`)
		s.Equal(http.StatusUnprocessableEntity, w.Code)
		s.JSONEq(`{"ok":false,"reason":"insufficient_funds","tag":"InsufficientFunds"}`, w.Body.String())
	})

	s.Run("service unreachable is retryable", func() {
		s.backend.Respond(testutil.TestCanisters.Lending, "fundLoan", http.StatusServiceUnavailable, "down")

		w := s.do(http.MethodPost, "/forms/fund_loan", `{"loan_id": "3"}`)
		s.Equal(http.StatusBadGateway, w.Code)
		resp := s.errorCode(w)
		s.Equal("remote_call_failed", resp.Error)
		s.True(resp.Retryable)
	})

	s.Run("invalid input is not sent", func() {
		before := len(s.backend.Calls())
		for _, body := range []string{`{"loan_id": "three"}`, `{"loan_id": "3", "memo": "x"}`, `[1,2]`} {
			w := s.do(http.MethodPost, "/forms/fund_loan", body)
			s.Equal(http.StatusBadRequest, w.Code, body)
		}
		s.Len(s.backend.Calls(), before)
	})

	s.Run("unknown form", func() {
		w := s.do(http.MethodPost, "/forms/burn_everything", `{}`)
		s.Equal(http.StatusBadRequest, w.Code)
	})
}

func (s *HandlerSuite) TestOperationalEndpoints() {
	w := s.do(http.MethodGet, "/health", "")
	s.Equal(http.StatusOK, w.Code)

	s.do(http.MethodGet, "/view", "")
	w = s.do(http.MethodGet, "/metrics", "")
	s.Require().Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), `globaltrust_endpoint_latency_seconds_count{endpoint="/view"}`)
}
