package httptransport

import (
	"net/http"

	"globaltrust/internal/session"
	dErrors "globaltrust/pkg/domain-errors"
	"globaltrust/pkg/platform/httputil"
	"globaltrust/pkg/requestcontext"
)

type sessionResponse struct {
	Status      string `json:"status"`
	Principal   string `json:"principal,omitempty"`
	SessionID   string `json:"session_id,omitempty"`
	ProviderURL string `json:"provider_url"`
	View        string `json:"view"`
}

type pendingSignInResponse struct {
	AuthorizationURL string `json:"authorization_url"`
}

func (h *Handler) sessionResponse(state session.State) sessionResponse {
	return sessionResponse{
		Status:      state.Status.String(),
		Principal:   state.Principal,
		SessionID:   state.SessionID,
		ProviderURL: h.session.ProviderURL(),
		View:        string(h.views.Current()),
	}
}

// HandleSession implements GET /session.
func (h *Handler) HandleSession(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.sessionResponse(h.session.State()))
}

// HandleSignIn implements POST /session/sign-in. It returns once the provider
// flow completes or is aborted.
//
// Output: { "status": "authenticated", "principal": "...", "view": "dashboard", ... }
func (h *Handler) HandleSignIn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	state, err := h.session.SignIn(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "sign-in failed",
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "sign-in completed",
		"principal", state.Principal,
		"request_id", requestID,
	)
	httputil.WriteJSON(w, http.StatusOK, h.sessionResponse(state))
}

// HandlePendingSignIn implements GET /session/sign-in: the authorization URL
// the user has to open to finish an in-flight sign-in.
func (h *Handler) HandlePendingSignIn(w http.ResponseWriter, r *http.Request) {
	if h.pending == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "no sign-in in progress"))
		return
	}
	url, ok := h.pending.PendingSignIn()
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "no sign-in in progress"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, pendingSignInResponse{AuthorizationURL: url})
}

// HandleSignOut implements POST /session/sign-out. Local state is cleared
// even when revoking the stored credential fails.
func (h *Handler) HandleSignOut(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	if err := h.session.SignOut(ctx); err != nil {
		h.logger.ErrorContext(ctx, "sign-out failed",
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, h.sessionResponse(h.session.State()))
}
