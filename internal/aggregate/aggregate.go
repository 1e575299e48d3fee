// Package aggregate composes multi-service reads over one registry set.
package aggregate

import (
	"context"
	"errors"
	"log/slog"

	"globaltrust/internal/codec"
	"globaltrust/internal/platform/metrics"
	"globaltrust/internal/platform/tracer"
	"globaltrust/internal/services"
)

// Aggregator runs read queries that span services. It holds no state of its
// own; every query works on the set it is given.
type Aggregator struct {
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  tracer.Tracer
}

type Option func(*Aggregator)

func WithLogger(logger *slog.Logger) Option {
	return func(a *Aggregator) {
		a.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Aggregator) {
		a.metrics = m
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(a *Aggregator) {
		a.tracer = t
	}
}

func New(opts ...Option) *Aggregator {
	a := &Aggregator{
		logger: slog.Default(),
		tracer: tracer.NewNoop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// FailureReason names why a call failed, for logs, metrics and responses.
func FailureReason(err error) string {
	var rce *services.RemoteCallError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &rce):
		return string(rce.Failure.Reason)
	case errors.Is(err, codec.ErrDecodeViolation):
		return "decode_violation"
	case errors.Is(err, services.ErrStaleHandle):
		return "stale_handle"
	case errors.Is(err, services.ErrNotSignedIn):
		return "not_signed_in"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "error"
	}
}

// logFailure logs a failed read. Decode violations carry the offending value.
func (a *Aggregator) logFailure(ctx context.Context, msg string, service services.Name, method string, err error) {
	attrs := []any{
		"service", string(service),
		"method", method,
		"reason", FailureReason(err),
		"error", err,
	}
	var de *codec.DecodeError
	if errors.As(err, &de) {
		attrs = append(attrs, "raw", de.Raw)
	}
	a.logger.WarnContext(ctx, msg, attrs...)
}
