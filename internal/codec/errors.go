package codec

import (
	"fmt"

	dErrors "globaltrust/pkg/domain-errors"
)

// rawLimit bounds how much of an offending payload is kept for diagnostics.
const rawLimit = 512

// ErrDecodeViolation matches every DecodeError via errors.Is.
var ErrDecodeViolation = dErrors.New(dErrors.CodeDecodeViolation, "decode violation")

// DecodeError reports a response that does not follow the expected wire
// encoding. It is never coerced into a default value.
type DecodeError struct {
	Reason string
	Field  string
	Raw    string
}

func (e *DecodeError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("decode violation at %s: %s", e.Field, e.Reason)
	}
	return "decode violation: " + e.Reason
}

// DomainCode implements domainerrors.Coder.
func (e *DecodeError) DomainCode() dErrors.Code {
	return dErrors.CodeDecodeViolation
}

// Is matches the decode violation sentinel.
func (e *DecodeError) Is(target error) bool {
	return dErrors.Matches(target, dErrors.CodeDecodeViolation)
}

func violation(reason string, raw []byte) *DecodeError {
	return &DecodeError{Reason: reason, Raw: clip(raw)}
}

// AtField returns a copy of err annotated with the field it was found at.
// Non-decode errors are returned unchanged.
func AtField(err error, field string) error {
	de, ok := err.(*DecodeError)
	if !ok {
		return err
	}
	cp := *de
	if cp.Field == "" {
		cp.Field = field
	} else {
		cp.Field = field + "." + cp.Field
	}
	return &cp
}

func clip(raw []byte) string {
	if len(raw) <= rawLimit {
		return string(raw)
	}
	return string(raw[:rawLimit]) + "..."
}
