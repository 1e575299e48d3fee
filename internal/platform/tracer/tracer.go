// Package tracer provides a lightweight tracing abstraction for remote
// service calls and aggregation.
//
// Callers depend on the Tracer interface rather than OpenTelemetry APIs.
// Implementations:
//   - NoopTracer: For tests (zero overhead)
//   - OTelTracer: OpenTelemetry adapter for production
package tracer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Span represents an active trace span.
type Span interface {
	// End completes the span, recording err as the failure if non-nil.
	// End must be called exactly once, typically via defer.
	End(err error)

	SetAttributes(attrs ...Attribute)

	AddEvent(name string, attrs ...Attribute)
}

// Tracer creates spans. Implementations must be safe for concurrent use.
type Tracer interface {
	// Start creates a new span; the returned context carries it to child operations.
	//
	// Example:
	//   ctx, span := tr.Start(ctx, tracer.SpanRemoteCall,
	//       tracer.String(tracer.AttrService, "lending"),
	//       tracer.String(tracer.AttrMethod, "getAllLoans2"),
	//   )
	//   defer span.End(err)
	Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

// Attribute represents a key-value pair attached to spans.
type Attribute struct {
	Key   string
	Value any
}

func String(key, value string) Attribute {
	return Attribute{Key: key, Value: value}
}

func Bool(key string, value bool) Attribute {
	return Attribute{Key: key, Value: value}
}

func Int64(key string, value int64) Attribute {
	return Attribute{Key: key, Value: value}
}

func Float64(key string, value float64) Attribute {
	return Attribute{Key: key, Value: value}
}

// Duration creates a duration attribute in milliseconds.
func Duration(key string, value time.Duration) Attribute {
	return Attribute{Key: key, Value: value.Milliseconds()}
}

// HashPrincipal returns a short SHA-256 prefix of a principal so traces can
// be correlated per user without carrying the identity itself.
func HashPrincipal(principal string) string {
	if principal == "" {
		return ""
	}
	hash := sha256.Sum256([]byte(principal))
	return hex.EncodeToString(hash[:8])
}

// Span names.
const (
	SpanRemoteCall     = "services.call"
	SpanRegistryBuild  = "services.registry.build"
	SpanDashboard      = "aggregate.dashboard"
	SpanUserScopedList = "aggregate.list"
	SpanTokenLookup    = "aggregate.token"
	SpanFormSubmit     = "forms.submit"
)

// Attribute keys.
const (
	AttrService       = "service"
	AttrMethod        = "method"
	AttrPrincipalHash = "principal_hash"
	AttrOutcome       = "outcome"
	AttrReason        = "reason"
	AttrHTTPStatus    = "http.status_code"
	AttrSectionStatus = "section.status"
	AttrForm          = "form"
	AttrItems         = "items"
	AttrTokenID       = "token_id"
)

// Event names.
const (
	EventCircuitOpen     = "circuit.open"
	EventDecodeViolation = "decode.violation"
)
