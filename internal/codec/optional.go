package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Optional is a value encoded on the wire as a zero- or one-element sequence.
type Optional[T any] struct {
	value   T
	present bool
}

// Some returns a present optional.
func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, present: true}
}

// None returns an absent optional.
func None[T any]() Optional[T] {
	return Optional[T]{}
}

// Get returns the value and whether it is present.
func (o Optional[T]) Get() (T, bool) {
	return o.value, o.present
}

// Present reports whether a value is set.
func (o Optional[T]) Present() bool {
	return o.present
}

// Ptr returns a pointer to the value, or nil when absent.
func (o Optional[T]) Ptr() *T {
	if !o.present {
		return nil
	}
	v := o.value
	return &v
}

// DecodeOptional decodes a zero/one-element sequence. A sequence of two or
// more elements is a DecodeError, never truncated.
func DecodeOptional[T any](raw []byte) (Optional[T], error) {
	var o Optional[T]
	if err := o.UnmarshalJSON(raw); err != nil {
		return Optional[T]{}, err
	}
	return o, nil
}

// UnmarshalJSON implements json.Unmarshaler. JSON null is read as absent.
func (o *Optional[T]) UnmarshalJSON(b []byte) error {
	trimmed := bytes.TrimSpace(b)
	if bytes.Equal(trimmed, []byte("null")) {
		*o = Optional[T]{}
		return nil
	}
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return violation("optional is not a sequence", b)
	}
	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return violation("optional is not a sequence", b)
	}
	switch len(items) {
	case 0:
		*o = Optional[T]{}
		return nil
	case 1:
		var v T
		if err := json.Unmarshal(items[0], &v); err != nil {
			if _, ok := err.(*DecodeError); ok {
				return AtField(err, "[0]")
			}
			return violation(fmt.Sprintf("optional element: %v", err), items[0])
		}
		*o = Optional[T]{value: v, present: true}
		return nil
	default:
		return violation(fmt.Sprintf("optional sequence has %d elements", len(items)), b)
	}
}

// MarshalJSON encodes the optional as [] or [v].
func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.present {
		return []byte("[]"), nil
	}
	return json.Marshal([]T{o.value})
}
