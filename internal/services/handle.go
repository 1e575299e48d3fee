package services

import (
	"context"
	"encoding/json"
	"sync/atomic"

	"globaltrust/internal/codec"
	"globaltrust/internal/session"
)

// Handle is a bound, identity-scoped connection to one backend service.
// Handles built together share a Lease; once it is revoked every call fails
// with a stale-handle error.
type Handle interface {
	Service() Name
	Principal() string
	// Call invokes method and decodes the response envelope. A failure
	// envelope is returned as a Result, not an error. Errors are transport
	// failures (*RemoteCallError), decode violations and stale handles.
	Call(ctx context.Context, method string, args ...any) (codec.Result, error)
	Close() error
}

// Dialer constructs handles. Dial must not perform remote calls.
type Dialer interface {
	Dial(ctx context.Context, name Name, cred session.Credential, lease *Lease) (Handle, error)
}

// Lease is the shared validity flag of one registry set.
type Lease struct {
	revoked atomic.Bool
}

func (l *Lease) Valid() bool {
	return l != nil && !l.revoked.Load()
}

func (l *Lease) Revoke() {
	l.revoked.Store(true)
}

// Invoke calls method and returns the success payload. A failure envelope
// becomes a *RemoteCallError.
func Invoke(ctx context.Context, h Handle, method string, args ...any) (json.RawMessage, error) {
	res, err := h.Call(ctx, method, args...)
	if err != nil {
		return nil, err
	}
	if f, failed := res.Failure(); failed {
		return nil, &RemoteCallError{Service: h.Service(), Method: method, Failure: f}
	}
	return res.Payload(), nil
}
