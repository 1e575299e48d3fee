package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"globaltrust/internal/codec"
	"globaltrust/internal/platform/metrics"
	"globaltrust/internal/platform/tracer"
	"globaltrust/internal/session"
	dErrors "globaltrust/pkg/domain-errors"
	"globaltrust/pkg/platform/circuit"
	"globaltrust/pkg/requestcontext"
)

const (
	maxResponseBytes = 4 << 20
	maxDetailBytes   = 256
	defaultTimeout   = 15 * time.Second
)

// HTTPDialer builds handles that call services over
// POST {host}/services/{id}/{method}. Circuit breakers are per service and
// outlive registry rebuilds.
type HTTPDialer struct {
	host      string
	endpoints Endpoints
	client    *http.Client
	breakers  map[Name]*circuit.Breaker
	logger    *slog.Logger
	metrics   *metrics.Metrics
	tracer    tracer.Tracer
}

type DialerOption func(*HTTPDialer)

func WithHTTPClient(c *http.Client) DialerOption {
	return func(d *HTTPDialer) {
		if c != nil {
			d.client = c
		}
	}
}

func WithDialerLogger(logger *slog.Logger) DialerOption {
	return func(d *HTTPDialer) {
		d.logger = logger
	}
}

func WithDialerMetrics(m *metrics.Metrics) DialerOption {
	return func(d *HTTPDialer) {
		d.metrics = m
	}
}

func WithTracer(t tracer.Tracer) DialerOption {
	return func(d *HTTPDialer) {
		d.tracer = t
	}
}

// WithBreakerOptions configures the per-service circuit breakers.
func WithBreakerOptions(opts ...circuit.Option) DialerOption {
	return func(d *HTTPDialer) {
		for _, name := range All {
			d.breakers[name] = circuit.New(string(name), opts...)
		}
	}
}

// NewHTTPDialer validates the service host. Missing endpoint ids are not an
// error here; they surface as provisioning failures at build time.
func NewHTTPDialer(host string, endpoints Endpoints, opts ...DialerOption) (*HTTPDialer, error) {
	u, err := url.Parse(host)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "service host must be an absolute http(s) URL")
	}
	d := &HTTPDialer{
		host:      strings.TrimRight(host, "/"),
		endpoints: endpoints,
		client:    &http.Client{Timeout: defaultTimeout},
		breakers:  make(map[Name]*circuit.Breaker, len(All)),
		logger:    slog.Default(),
		tracer:    tracer.NewNoop(),
	}
	for _, name := range All {
		d.breakers[name] = circuit.New(string(name))
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// OpenCircuits lists the services whose breaker is open, in build order.
func (d *HTTPDialer) OpenCircuits() []Name {
	var open []Name
	for _, name := range All {
		if d.breakers[name].State() == circuit.StateOpen {
			open = append(open, name)
		}
	}
	return open
}

func (d *HTTPDialer) Dial(ctx context.Context, name Name, cred session.Credential, lease *Lease) (Handle, error) {
	if !name.Valid() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "unknown service: "+string(name))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	endpoint := d.endpoints[name]
	if endpoint == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "no endpoint id configured")
	}
	if cred.Principal == "" || cred.Token == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "credential is incomplete")
	}
	return &httpHandle{
		dialer:    d,
		name:      name,
		endpoint:  endpoint,
		cred:      cred,
		lease:     lease,
		breaker:   d.breakers[name],
		principal: tracer.HashPrincipal(cred.Principal),
	}, nil
}

type httpHandle struct {
	dialer    *HTTPDialer
	name      Name
	endpoint  string
	cred      session.Credential
	lease     *Lease
	breaker   *circuit.Breaker
	principal string // hashed, for spans
}

func (h *httpHandle) Service() Name {
	return h.name
}

func (h *httpHandle) Principal() string {
	return h.cred.Principal
}

func (h *httpHandle) Close() error {
	return nil
}

func (h *httpHandle) Call(ctx context.Context, method string, args ...any) (res codec.Result, err error) {
	d := h.dialer
	if !h.lease.Valid() {
		d.metrics.IncrementStaleHandleUses()
		return codec.Result{}, staleHandle(h.name, method)
	}

	ctx, span := d.tracer.Start(ctx, tracer.SpanRemoteCall,
		tracer.String(tracer.AttrService, string(h.name)),
		tracer.String(tracer.AttrMethod, method),
		tracer.String(tracer.AttrPrincipalHash, h.principal),
	)
	start := time.Now()
	outcome := "ok"
	defer func() {
		span.SetAttributes(tracer.String(tracer.AttrOutcome, outcome))
		span.End(err)
		d.metrics.ObserveRemoteCall(string(h.name), method, outcome, time.Since(start).Seconds())
	}()

	payload, err := encodeArgs(args)
	if err != nil {
		outcome = string(codec.ReasonInvalidInput)
		return codec.Result{}, err
	}

	if !h.breaker.Allow() {
		outcome = string(codec.ReasonUnavailable)
		return codec.Result{}, &RemoteCallError{
			Service: h.name,
			Method:  method,
			Failure: codec.Failure{Reason: codec.ReasonUnavailable, Detail: "circuit open"},
			Err:     circuit.ErrOpen,
		}
	}

	status, body, err := h.post(ctx, method, payload)
	if err != nil {
		// A caller that went away says nothing about the service.
		if ctx.Err() != nil {
			outcome = "canceled"
		} else {
			h.recordOutage(ctx, span)
			outcome = string(codec.ReasonUnavailable)
		}
		return codec.Result{}, &RemoteCallError{
			Service: h.name,
			Method:  method,
			Failure: codec.Failure{Reason: codec.ReasonUnavailable, Detail: transportDetail(err)},
			Err:     err,
		}
	}
	span.SetAttributes(tracer.Int64(tracer.AttrHTTPStatus, int64(status)))

	if status < 200 || status > 299 {
		reason := reasonForStatus(status)
		if reason == codec.ReasonUnavailable {
			h.recordOutage(ctx, span)
		} else {
			h.breaker.RecordSuccess()
		}
		outcome = string(reason)
		return codec.Result{}, &RemoteCallError{
			Service: h.name,
			Method:  method,
			Failure: codec.Failure{Reason: reason, Detail: statusDetail(status, body)},
		}
	}
	h.breaker.RecordSuccess()

	res, err = codec.DecodeResult(body)
	if err != nil {
		outcome = "decode_violation"
		d.metrics.IncrementDecodeViolations(string(h.name))
		span.AddEvent(tracer.EventDecodeViolation)
		return codec.Result{}, err
	}
	if f, failed := res.Failure(); failed {
		outcome = "failure"
		span.SetAttributes(tracer.String(tracer.AttrReason, string(f.Reason)))
	}
	return res, nil
}

func encodeArgs(args []any) ([]byte, error) {
	if args == nil {
		args = []any{}
	}
	payload, err := json.Marshal(struct {
		Args []any `json:"args"`
	}{Args: args})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "encode call arguments")
	}
	return payload, nil
}

func (h *httpHandle) post(ctx context.Context, method string, payload []byte) (int, []byte, error) {
	target := fmt.Sprintf("%s/services/%s/%s", h.dialer.host, url.PathEscape(h.endpoint), url.PathEscape(method))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(payload))
	if err != nil {
		return 0, nil, err
	}
	requestID := requestcontext.RequestID(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+h.cred.Token)
	req.Header.Set("X-Principal", h.cred.Principal)
	req.Header.Set("X-Request-ID", requestID)

	resp, err := h.dialer.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, body, nil
}

func (h *httpHandle) recordOutage(ctx context.Context, span tracer.Span) {
	if change := h.breaker.RecordFailure(); change.Opened {
		h.dialer.metrics.IncrementCircuitOpen(string(h.name))
		span.AddEvent(tracer.EventCircuitOpen)
		h.dialer.logger.WarnContext(ctx, "service circuit opened",
			"service", string(h.name),
		)
	}
}

func reasonForStatus(status int) codec.Reason {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return codec.ReasonUnauthorized
	case status == http.StatusNotFound:
		return codec.ReasonNotFound
	case status == http.StatusConflict:
		return codec.ReasonConflict
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return codec.ReasonInvalidInput
	case status == http.StatusTooManyRequests || status >= 500:
		return codec.ReasonUnavailable
	default:
		return codec.ReasonRejected
	}
}

func transportDetail(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "deadline exceeded"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return err.Error()
	}
}

func statusDetail(status int, body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) > maxDetailBytes {
		text = text[:maxDetailBytes]
	}
	if text == "" {
		return http.StatusText(status)
	}
	return fmt.Sprintf("%s: %s", http.StatusText(status), text)
}
