package httptransport

import (
	"net/http"
	"strings"

	"globaltrust/internal/router"
	"globaltrust/pkg/platform/httputil"
	"globaltrust/pkg/requestcontext"
)

type viewResponse struct {
	View       string   `json:"view"`
	Selectable []string `json:"selectable"`
}

type selectViewRequest struct {
	View string `json:"view"`

	view router.View
}

// Prepare resolves the requested view name.
func (r *selectViewRequest) Prepare() error {
	v, err := router.ParseView(strings.TrimSpace(r.View))
	if err != nil {
		return err
	}
	r.view = v
	return nil
}

func (h *Handler) viewResponse() viewResponse {
	selectable := router.Selectable()
	names := make([]string, 0, len(selectable))
	for _, v := range selectable {
		names = append(names, string(v))
	}
	return viewResponse{View: string(h.views.Current()), Selectable: names}
}

// HandleView implements GET /view.
func (h *Handler) HandleView(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.viewResponse())
}

// HandleSelectView implements PUT /view.
//
// Input: { "view": "lending" }
func (h *Handler) HandleSelectView(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[selectViewRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if err := h.views.Select(req.view); err != nil {
		h.logger.WarnContext(ctx, "view selection rejected",
			"view", req.View,
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, h.viewResponse())
}
