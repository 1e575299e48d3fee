// Package forms submits the write operations of the service views.
package forms

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"globaltrust/internal/codec"
	"globaltrust/internal/platform/metrics"
	"globaltrust/internal/platform/tracer"
	"globaltrust/internal/services"
	dErrors "globaltrust/pkg/domain-errors"
)

// Service encodes form values and sends them through the bound handle.
type Service struct {
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  tracer.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

func NewService(opts ...Option) *Service {
	s := &Service{
		logger: slog.Default(),
		tracer: tracer.NewNoop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit encodes values for form and calls its service. Invalid input is
// rejected before anything is sent. A failure reported by the service comes
// back as a failed Result; transport failures are errors.
func (s *Service) Submit(ctx context.Context, set *services.Set, formName string, values map[string]any) (res codec.Result, err error) {
	form, ok := Lookup(formName)
	if !ok {
		return codec.Result{}, dErrors.New(dErrors.CodeInvalidInput, "unknown form: "+formName)
	}
	if set.Empty() {
		return codec.Result{}, services.ErrNotSignedIn
	}

	args, err := EncodeArgs(form, set.Principal(), values)
	if err != nil {
		s.metrics.RecordFormSubmission(form.Name, "invalid")
		return codec.Result{}, err
	}
	h, err := set.Handle(form.Service)
	if err != nil {
		return codec.Result{}, err
	}

	ctx, span := s.tracer.Start(ctx, tracer.SpanFormSubmit,
		tracer.String(tracer.AttrForm, form.Name),
		tracer.String(tracer.AttrService, string(form.Service)),
	)
	defer func() { span.End(err) }()

	res, err = h.Call(ctx, form.Method, args...)
	if err != nil {
		s.metrics.RecordFormSubmission(form.Name, "error")
		attrs := []any{
			"form", form.Name,
			"service", string(form.Service),
			"error", err,
		}
		var de *codec.DecodeError
		if errors.As(err, &de) {
			attrs = append(attrs, "raw", de.Raw)
		}
		s.logger.WarnContext(ctx, "form submission failed", attrs...)
		return codec.Result{}, err
	}

	if f, failed := res.Failure(); failed {
		s.metrics.RecordFormSubmission(form.Name, "failure")
		span.SetAttributes(tracer.String(tracer.AttrReason, string(f.Reason)))
		s.logger.InfoContext(ctx, "form rejected by service",
			"form", form.Name,
			"service", string(form.Service),
			"reason", string(f.Reason),
			"detail", f.Detail,
		)
		return res, nil
	}
	s.metrics.RecordFormSubmission(form.Name, "ok")
	return res, nil
}

// EncodeArgs turns user values into call arguments for form. Unknown
// fields and values for principal-bound params are rejected.
func EncodeArgs(form Form, principal string, values map[string]any) ([]any, error) {
	params := make(map[string]Param, len(form.Params))
	for _, p := range form.Params {
		params[p.Name] = p
	}
	for name := range values {
		p, known := params[name]
		if !known {
			return nil, dErrors.New(dErrors.CodeInvalidInput, "unknown field: "+name)
		}
		if p.FromPrincipal {
			return nil, dErrors.New(dErrors.CodeInvalidInput, "field "+name+" is set from the session")
		}
		if p.Fixed {
			return nil, dErrors.New(dErrors.CodeInvalidInput, "field "+name+" cannot be set")
		}
	}

	fields := make([]codec.Field, 0, len(form.Params))
	for _, p := range form.Params {
		v := normalize(values[p.Name])
		if p.FromPrincipal {
			v = principal
		}
		if p.Fixed {
			v = p.Default
		}
		if s, isText := v.(string); isText && strings.TrimSpace(s) == "" {
			if p.Kind == codec.KindOptional {
				v = nil
			}
			if p.Default != nil {
				v = p.Default
			}
		}
		if v == nil && p.Default != nil {
			v = p.Default
		}
		fields = append(fields, codec.Field{Name: p.Name, Kind: p.Kind, Elem: p.Elem, Value: v})
	}

	if !form.Record {
		return encodePositional(fields)
	}
	rec, err := encodeNested(fields)
	if err != nil {
		return nil, err
	}
	return []any{rec}, nil
}

// encodePositional sends each field as an argument. Dotted fields sharing a
// prefix become one record argument in the position of the first of them.
func encodePositional(fields []codec.Field) ([]any, error) {
	type slot struct {
		prefix string
		fields []codec.Field
	}
	var slots []slot
	records := make(map[string]int)
	for _, f := range fields {
		prefix, _, nested := strings.Cut(f.Name, ".")
		if !nested {
			slots = append(slots, slot{fields: []codec.Field{f}})
			continue
		}
		i, seen := records[prefix]
		if !seen {
			i = len(slots)
			records[prefix] = i
			slots = append(slots, slot{prefix: prefix})
		}
		slots[i].fields = append(slots[i].fields, f)
	}

	args := make([]any, 0, len(slots))
	for _, sl := range slots {
		if sl.prefix == "" {
			v, err := codec.EncodeRequest(sl.fields)
			if err != nil {
				return nil, err
			}
			args = append(args, v[0])
			continue
		}
		rec, err := encodeNested(sl.fields)
		if err != nil {
			return nil, err
		}
		args = append(args, rec[sl.prefix])
	}
	return args, nil
}

// encodeNested encodes a record whose dotted field names form one level of
// sub-records.
func encodeNested(fields []codec.Field) (map[string]any, error) {
	flat, err := codec.EncodeRecord(fields)
	if err != nil {
		return nil, err
	}
	rec := make(map[string]any, len(flat))
	for name, v := range flat {
		prefix, rest, nested := strings.Cut(name, ".")
		if !nested {
			rec[name] = v
			continue
		}
		sub, _ := rec[prefix].(map[string]any)
		if sub == nil {
			sub = make(map[string]any)
			rec[prefix] = sub
		}
		sub[rest] = v
	}
	return rec, nil
}

// normalize maps JSON decoded numbers onto the string forms the codec parses.
func normalize(v any) any {
	switch t := v.(type) {
	case json.Number:
		return string(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return v
	}
}
