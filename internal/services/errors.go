package services

import (
	"fmt"

	"globaltrust/internal/codec"
	dErrors "globaltrust/pkg/domain-errors"
)

var (
	// ErrServiceProvisioning matches every ProvisioningError via errors.Is.
	ErrServiceProvisioning = dErrors.New(dErrors.CodeServiceProvisioning, "service provisioning failed")
	// ErrRemoteCall matches every RemoteCallError via errors.Is.
	ErrRemoteCall = dErrors.New(dErrors.CodeRemoteCallFailed, "remote call failed")
	// ErrStaleHandle is returned by handles whose registry set was torn down.
	ErrStaleHandle = dErrors.New(dErrors.CodeStaleHandle, "service handle belongs to a previous session")
	// ErrNotSignedIn is returned when the registry holds no handles.
	ErrNotSignedIn = dErrors.New(dErrors.CodeUnauthorized, "not signed in")
)

// ProvisioningError reports the service whose handle could not be built.
type ProvisioningError struct {
	Service Name
	Err     error
}

func (e *ProvisioningError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("provision %s service", e.Service)
	}
	return fmt.Sprintf("provision %s service: %v", e.Service, e.Err)
}

func (e *ProvisioningError) Unwrap() error {
	return e.Err
}

// DomainCode implements domainerrors.Coder.
func (e *ProvisioningError) DomainCode() dErrors.Code {
	return dErrors.CodeServiceProvisioning
}

func (e *ProvisioningError) Is(target error) bool {
	return dErrors.Matches(target, dErrors.CodeServiceProvisioning)
}

// RemoteCallError is a failure reported by a backend service, either as a
// failure envelope or as a transport level failure.
type RemoteCallError struct {
	Service Name
	Method  string
	Failure codec.Failure
	Err     error
}

func (e *RemoteCallError) Error() string {
	msg := fmt.Sprintf("%s.%s failed: %s", e.Service, e.Method, e.Failure.Reason)
	if e.Failure.Detail != "" {
		msg += ": " + e.Failure.Detail
	}
	return msg
}

func (e *RemoteCallError) Unwrap() error {
	return e.Err
}

// DomainCode implements domainerrors.Coder.
func (e *RemoteCallError) DomainCode() dErrors.Code {
	return dErrors.CodeRemoteCallFailed
}

func (e *RemoteCallError) Is(target error) bool {
	return dErrors.Matches(target, dErrors.CodeRemoteCallFailed)
}

// Retryable reports outages, which are worth retrying. Failures decided by
// the service itself are not.
func (e *RemoteCallError) Retryable() bool {
	return e.Failure.Reason == codec.ReasonUnavailable
}

func staleHandle(service Name, method string) error {
	return &dErrors.Error{
		Code:    dErrors.CodeStaleHandle,
		Message: fmt.Sprintf("%s.%s: session changed", service, method),
		Err:     ErrStaleHandle,
	}
}
