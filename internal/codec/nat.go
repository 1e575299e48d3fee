package codec

import (
	"bytes"
	"strconv"
)

// Nat is an unsigned wire integer. Large naturals may arrive quoted.
type Nat uint64

// UnmarshalJSON accepts a JSON number or a quoted string of digits.
func (n *Nat) UnmarshalJSON(b []byte) error {
	s := unquoteNumber(b)
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return violation("expected natural number", b)
	}
	*n = Nat(v)
	return nil
}

// MarshalJSON writes the natural as a JSON number.
func (n Nat) MarshalJSON() ([]byte, error) {
	return strconv.AppendUint(nil, uint64(n), 10), nil
}

func parseWireInt(b []byte) (int64, error) {
	s := unquoteNumber(b)
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, violation("expected integer", b)
	}
	return v, nil
}

func unquoteNumber(b []byte) string {
	t := bytes.TrimSpace(b)
	if len(t) >= 2 && t[0] == '"' && t[len(t)-1] == '"' {
		t = t[1 : len(t)-1]
	}
	return string(t)
}
