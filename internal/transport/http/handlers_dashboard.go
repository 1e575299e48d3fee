package httptransport

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"globaltrust/internal/aggregate"
	"globaltrust/internal/codec"
	"globaltrust/internal/services"
	dErrors "globaltrust/pkg/domain-errors"
	"globaltrust/pkg/platform/httputil"
	"globaltrust/pkg/requestcontext"
)

// principalParam selects whose list to read; it defaults to the signed-in principal.
const principalParam = "principal"

// HandleDashboard implements GET /dashboard. Sections fail independently;
// the request itself fails only when nobody is signed in.
func (h *Handler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	d, err := h.queries.DashboardSummary(ctx, h.sets.Snapshot())
	if err != nil {
		h.logger.WarnContext(ctx, "dashboard unavailable",
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, renderDashboard(d))
}

// HandleList implements GET /lists/{service}. Query parameters other than
// principal are list filters, e.g. /lists/verification?status=Pending&limit=10.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	service, err := services.ParseName(chi.URLParam(r, "service"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	query := r.URL.Query()
	principal := query.Get(principalParam)
	filters := aggregate.Filters{}
	for key, values := range query {
		if key == principalParam || len(values) == 0 {
			continue
		}
		filters[key] = values[0]
	}

	items, err := h.queries.UserScopedList(ctx, h.sets.Snapshot(), service, principal, filters)
	if err != nil {
		h.logger.WarnContext(ctx, "list read failed",
			"service", string(service),
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}

	rendered, err := renderItems(service, items)
	if err != nil {
		attrs := []any{
			"service", string(service),
			"error", err,
			"request_id", requestID,
		}
		var de *codec.DecodeError
		if errors.As(err, &de) {
			attrs = append(attrs, "raw", de.Raw)
		}
		h.logger.WarnContext(ctx, "list entry malformed", attrs...)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, listResponse{
		Service: string(service),
		Count:   len(items),
		Items:   rendered,
	})
}

// HandleToken implements GET /tokens/{id}. Like the dashboard, each ledger
// read is reported as its own section.
func (h *Handler) HandleToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "token id must be a natural number"))
		return
	}

	t, err := h.queries.TokenLookup(ctx, h.sets.Snapshot(), id)
	if err != nil {
		h.logger.WarnContext(ctx, "token lookup unavailable",
			"token_id", id,
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, renderToken(t))
}
