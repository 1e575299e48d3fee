package httptransport

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"globaltrust/internal/codec"
	"globaltrust/internal/forms"
	dErrors "globaltrust/pkg/domain-errors"
	"globaltrust/pkg/platform/httputil"
	"globaltrust/pkg/requestcontext"
)

type formResponse struct {
	Name    string          `json:"name"`
	Service string          `json:"service"`
	Method  string          `json:"method"`
	Fields  []fieldResponse `json:"fields"`
}

type fieldResponse struct {
	Name     string `json:"name"`
	Kind     string `json:"kind"`
	Optional bool   `json:"optional"`
	Default  any    `json:"default,omitempty"`
}

type submitResponse struct {
	OK        bool            `json:"ok"`
	Result    json.RawMessage `json:"result,omitempty"`
	Reason    string          `json:"reason,omitempty"`
	Tag       string          `json:"tag,omitempty"`
	Detail    string          `json:"detail,omitempty"`
	Retryable bool            `json:"retryable,omitempty"`
}

// HandleCatalog implements GET /forms. Fields filled from the signed-in
// principal and fixed fields are not listed.
func (h *Handler) HandleCatalog(w http.ResponseWriter, r *http.Request) {
	catalog := forms.Catalog()
	out := make([]formResponse, 0, len(catalog))
	for _, f := range catalog {
		fields := make([]fieldResponse, 0, len(f.Params))
		for _, p := range f.Params {
			if p.FromPrincipal || p.Fixed {
				continue
			}
			field := fieldResponse{Name: p.Name, Kind: p.Kind.String(), Default: p.Default}
			if p.Kind == codec.KindOptional {
				field.Kind = p.Elem.String()
				field.Optional = true
			}
			fields = append(fields, field)
		}
		out = append(out, formResponse{
			Name:    f.Name,
			Service: string(f.Service),
			Method:  f.Method,
			Fields:  fields,
		})
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

// HandleSubmitForm implements POST /forms/{form}. The body is an object of
// field values. A failure reported by the service is a 422, or a retryable
// 502 when the service is unavailable.
//
// Input: { "loan_id": "7", "amount": "1250.00" }
// Output: { "ok": true, "result": ... }
func (h *Handler) HandleSubmitForm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	name := chi.URLParam(r, "form")

	values := map[string]any{}
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&values); err != nil && !errors.Is(err, io.EOF) {
		h.logger.WarnContext(ctx, "failed to decode form values",
			"form", name,
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}

	res, err := h.forms.Submit(ctx, h.sets.Snapshot(), name, values)
	if err != nil {
		h.logger.WarnContext(ctx, "form submission failed",
			"form", name,
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}

	if f, failed := res.Failure(); failed {
		status := http.StatusUnprocessableEntity
		retryable := f.Reason == codec.ReasonUnavailable
		if retryable {
			status = http.StatusBadGateway
		}
		httputil.WriteJSON(w, status, submitResponse{
			Reason:    string(f.Reason),
			Tag:       f.Tag,
			Detail:    f.Detail,
			Retryable: retryable,
		})
		return
	}

	h.logger.InfoContext(ctx, "form submitted",
		"form", name,
		"request_id", requestID,
	)
	httputil.WriteJSON(w, http.StatusOK, submitResponse{OK: true, Result: res.Payload()})
}
