package aggregate

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"globaltrust/internal/codec"
	"globaltrust/internal/platform/tracer"
	"globaltrust/internal/services"
)

// Status is the outcome of one dashboard section.
type Status string

const (
	StatusAvailable   Status = "available"
	StatusAbsent      Status = "absent"      // the service has nothing for this user
	StatusUnavailable Status = "unavailable" // the read failed
)

// Section is the result of one constituent read. Data is meaningful only
// when Status is StatusAvailable; Err is set only when it is StatusUnavailable.
type Section[T any] struct {
	Status Status
	Data   T
	Err    error
}

func (s Section[T]) Available() bool {
	return s.Status == StatusAvailable
}

// Reason is the failure reason of an unavailable section.
func (s Section[T]) Reason() string {
	return FailureReason(s.Err)
}

// Dashboard joins the four summary reads. A failing section never fails
// the others.
type Dashboard struct {
	Principal    string
	Verification Section[VerificationSummary]
	Marketplace  Section[MarketplaceSummary]
	Lending      Section[LendingSummary]
	Identity     Section[IdentitySummary]
}

// DashboardSummary issues the four summary reads concurrently and waits for
// all of them. It fails only when set holds no handles.
func (a *Aggregator) DashboardSummary(ctx context.Context, set *services.Set) (*Dashboard, error) {
	if set.Empty() {
		return nil, services.ErrNotSignedIn
	}
	principal := set.Principal()

	ctx, span := a.tracer.Start(ctx, tracer.SpanDashboard,
		tracer.String(tracer.AttrPrincipalHash, tracer.HashPrincipal(principal)),
	)
	start := time.Now()
	d := &Dashboard{Principal: principal}

	// Section goroutines record their failure and always return nil, so
	// one failing read never cancels its siblings.
	var g errgroup.Group
	g.Go(func() error {
		d.Verification = fetchSection[VerificationSummary](ctx, a, set, services.Verification, "getDashboardData", false)
		return nil
	})
	g.Go(func() error {
		d.Marketplace = fetchSection[MarketplaceSummary](ctx, a, set, services.Marketplace, "getDashboardData", false, principal)
		return nil
	})
	g.Go(func() error {
		d.Lending = fetchSection[LendingSummary](ctx, a, set, services.Lending, "getDashboardData", false, principal)
		return nil
	})
	g.Go(func() error {
		d.Identity = fetchSection[IdentitySummary](ctx, a, set, services.Identity, "getIdentity", true, principal)
		return nil
	})
	_ = g.Wait()

	span.SetAttributes(
		tracer.String("section.verification", string(d.Verification.Status)),
		tracer.String("section.marketplace", string(d.Marketplace.Status)),
		tracer.String("section.lending", string(d.Lending.Status)),
		tracer.String("section.identity", string(d.Identity.Status)),
	)
	span.End(nil)
	a.metrics.ObserveDashboardDuration(time.Since(start).Seconds())
	return d, nil
}

// fetchSection performs one read. Optional payloads use the zero/one
// sequence encoding; other payloads are absent when null.
func fetchSection[T any](ctx context.Context, a *Aggregator, set *services.Set, name services.Name, method string, optional bool, args ...any) Section[T] {
	sec := readSection[T](ctx, set, name, method, optional, args...)
	a.metrics.RecordDashboardSection(string(name), string(sec.Status))
	if sec.Status == StatusUnavailable {
		a.logFailure(ctx, "dashboard section unavailable", name, method, sec.Err)
	}
	return sec
}

func readSection[T any](ctx context.Context, set *services.Set, name services.Name, method string, optional bool, args ...any) Section[T] {
	h, err := set.Handle(name)
	if err != nil {
		return Section[T]{Status: StatusUnavailable, Err: err}
	}
	payload, err := services.Invoke(ctx, h, method, args...)
	if err != nil {
		return Section[T]{Status: StatusUnavailable, Err: err}
	}

	if optional {
		opt, err := codec.DecodeOptional[T](payload)
		if err != nil {
			return Section[T]{Status: StatusUnavailable, Err: codec.AtField(err, method)}
		}
		v, ok := opt.Get()
		if !ok {
			return Section[T]{Status: StatusAbsent}
		}
		return Section[T]{Status: StatusAvailable, Data: v}
	}

	res := codec.Success(payload)
	if res.IsNull() {
		return Section[T]{Status: StatusAbsent}
	}
	var v T
	if err := res.Decode(&v); err != nil {
		return Section[T]{Status: StatusUnavailable, Err: codec.AtField(err, method)}
	}
	return Section[T]{Status: StatusAvailable, Data: v}
}
