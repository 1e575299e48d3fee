package tracer_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"globaltrust/internal/platform/tracer"
)

func TestNoopTracer(t *testing.T) {
	tr := tracer.NewNoop()
	ctx := context.Background()

	newCtx, span := tr.Start(ctx, tracer.SpanRemoteCall,
		tracer.String(tracer.AttrService, "lending"),
		tracer.Bool("retry", true),
	)
	assert.Equal(t, ctx, newCtx)
	require.NotNil(t, span)

	span.SetAttributes(tracer.String(tracer.AttrOutcome, "ok"))
	span.AddEvent(tracer.EventCircuitOpen, tracer.Int64("failures", 5))
	span.End(errors.New("backend unreachable"))
}

func TestOTelTracerCarriesSpanInContext(t *testing.T) {
	provider := noop.NewTracerProvider()
	tr := tracer.NewOTel(tracer.WithOTelTracer(provider.Tracer("test")))

	ctx, span := tr.Start(context.Background(), tracer.SpanDashboard,
		tracer.String(tracer.AttrPrincipalHash, tracer.HashPrincipal("2vxsx-fae")),
		tracer.Int64(tracer.AttrItems, 4),
		tracer.Float64("ratio", 0.5),
		tracer.Duration("elapsed", 1500*time.Millisecond),
		tracer.Attribute{Key: "ignored", Value: struct{}{}},
	)
	require.NotNil(t, span)
	assert.NotNil(t, trace.SpanFromContext(ctx))

	span.SetAttributes(tracer.String(tracer.AttrSectionStatus, "unavailable"))
	span.AddEvent(tracer.EventDecodeViolation)
	span.End(nil)
}

func TestNewOTelDefaultsToGlobalProvider(t *testing.T) {
	tr := tracer.NewOTel()
	_, span := tr.Start(context.Background(), tracer.SpanFormSubmit)
	span.End(nil)
}

func TestHashPrincipal(t *testing.T) {
	t.Run("empty principal hashes to empty", func(t *testing.T) {
		assert.Empty(t, tracer.HashPrincipal(""))
	})

	t.Run("stable 16 hex chars", func(t *testing.T) {
		a := tracer.HashPrincipal("rrkah-fqaaa-aaaaa-aaaaq-cai")
		b := tracer.HashPrincipal("rrkah-fqaaa-aaaaa-aaaaq-cai")
		assert.Len(t, a, 16)
		assert.Equal(t, a, b)
		assert.NotContains(t, a, "rrkah")
	})

	t.Run("distinct principals differ", func(t *testing.T) {
		assert.NotEqual(t, tracer.HashPrincipal("alice"), tracer.HashPrincipal("bob"))
	})
}

func TestDurationIsMilliseconds(t *testing.T) {
	attr := tracer.Duration("elapsed", 2*time.Second)
	assert.Equal(t, int64(2000), attr.Value)
}
