package aggregate

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/tidwall/gjson"

	"globaltrust/internal/codec"
	"globaltrust/internal/platform/tracer"
	"globaltrust/internal/services"
	dErrors "globaltrust/pkg/domain-errors"
)

// listCall describes the per-user list read of one service.
type listCall struct {
	method string
	// shared reads take an absent optional filter instead of the principal
	// and return every entry the service holds.
	shared bool
	// owns keeps the entries that belong to principal. Nil keeps all of them.
	owns func(item json.RawMessage, principal string) bool
}

var listCalls = map[services.Name]listCall{
	services.Identity:     {method: "getVerifiableCredentials"},
	services.Assets:       {method: "getUserTokens"},
	services.Marketplace:  {method: "getAllListings", shared: true},
	services.Lending:      {method: "getAllLoans2", shared: true, owns: borrowerOrLender},
	services.Verification: {method: "getSubmissionsWithFilters"},
}

// submissionFilters declares the filter record of the verification list.
// The submitter is always the principal.
var submissionFilters = map[string]codec.Kind{
	"status":     codec.KindVariant,
	"start_date": codec.KindDate,
	"end_date":   codec.KindDate,
	"limit":      codec.KindNat,
	"offset":     codec.KindNat,
}

// Filters narrows a list. Empty values mean "no filter".
type Filters map[string]string

// ListMethod returns the list method of a service.
func ListMethod(service services.Name) (string, bool) {
	c, ok := listCalls[service]
	return c.method, ok
}

// UserScopedList reads the entries a service holds for principal. An empty
// list is a non-nil empty slice; a failed read is an error, never an empty list.
func (a *Aggregator) UserScopedList(ctx context.Context, set *services.Set, service services.Name, principal string, filters Filters) (items []json.RawMessage, err error) {
	if set.Empty() {
		return nil, services.ErrNotSignedIn
	}
	if principal == "" {
		principal = set.Principal()
	}
	if principal != set.Principal() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "lists are scoped to the signed-in principal")
	}
	call, ok := listCalls[service]
	if !ok {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "unknown service: "+string(service))
	}
	method := call.method
	args, err := listArgs(service, call, principal, filters)
	if err != nil {
		return nil, err
	}

	ctx, span := a.tracer.Start(ctx, tracer.SpanUserScopedList,
		tracer.String(tracer.AttrService, string(service)),
		tracer.String(tracer.AttrMethod, method),
	)
	defer func() {
		span.SetAttributes(tracer.Int64(tracer.AttrItems, int64(len(items))))
		span.End(err)
	}()

	h, err := set.Handle(service)
	if err != nil {
		return nil, err
	}
	payload, err := services.Invoke(ctx, h, method, args...)
	if err != nil {
		a.logFailure(ctx, "user list unavailable", service, method, err)
		return nil, err
	}

	items, err = decodeList(payload)
	if err != nil {
		err = codec.AtField(err, method)
		a.logFailure(ctx, "user list unavailable", service, method, err)
		return nil, err
	}
	if call.owns != nil {
		items = ownedBy(items, principal, call.owns)
	}
	return items, nil
}

// ListAs decodes a user list into typed entries.
func ListAs[T any](ctx context.Context, a *Aggregator, set *services.Set, service services.Name, principal string, filters Filters) ([]T, error) {
	raw, err := a.UserScopedList(ctx, set, service, principal, filters)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(raw))
	for _, item := range raw {
		var v T
		if err := codec.Success(item).Decode(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func listArgs(service services.Name, call listCall, principal string, filters Filters) ([]any, error) {
	if service != services.Verification {
		for k, v := range filters {
			if v != "" {
				return nil, dErrors.New(dErrors.CodeInvalidInput, "filter "+k+" is not supported for "+string(service))
			}
		}
		if call.shared {
			return []any{codec.None[string]()}, nil
		}
		return []any{principal}, nil
	}

	fields := []codec.Field{{Name: "submitter", Kind: codec.KindOptional, Elem: codec.KindText, Value: principal}}
	for name, kind := range submissionFilters {
		var value any
		if v := filters[name]; v != "" {
			value = v
		}
		fields = append(fields, codec.Field{Name: name, Kind: codec.KindOptional, Elem: kind, Value: value})
	}
	for k := range filters {
		if _, known := submissionFilters[k]; !known {
			return nil, dErrors.New(dErrors.CodeInvalidInput, "unknown filter: "+k)
		}
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i].Name < fields[j].Name })

	record, err := codec.EncodeRecord(fields)
	if err != nil {
		return nil, err
	}
	return []any{record}, nil
}

// decodeList accepts a JSON array. Null is the empty list.
func decodeList(payload json.RawMessage) ([]json.RawMessage, error) {
	res := codec.Success(payload)
	if res.IsNull() {
		return []json.RawMessage{}, nil
	}
	var items []json.RawMessage
	if err := res.Decode(&items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []json.RawMessage{}
	}
	return items, nil
}

func ownedBy(items []json.RawMessage, principal string, owns func(json.RawMessage, string) bool) []json.RawMessage {
	out := make([]json.RawMessage, 0, len(items))
	for _, item := range items {
		if owns(item, principal) {
			out = append(out, item)
		}
	}
	return out
}

// borrowerOrLender keeps the loans the principal took out or funded.
func borrowerOrLender(item json.RawMessage, principal string) bool {
	loan := gjson.ParseBytes(item)
	return loan.Get("borrower").String() == principal || loan.Get("lender.0").String() == principal
}
