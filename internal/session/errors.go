package session

import dErrors "globaltrust/pkg/domain-errors"

// ErrAuthenticationFailed matches every failed or aborted interactive sign-in.
var ErrAuthenticationFailed = dErrors.New(dErrors.CodeAuthenticationFailed, "authentication failed")

func authenticationFailed(msg string, cause error) error {
	return &dErrors.Error{Code: dErrors.CodeAuthenticationFailed, Message: msg, Err: cause}
}
