package codec

import (
	"strconv"
	"time"
)

// nanosPerMilli is the only scale factor between wire nanoseconds and the
// in-memory millisecond representation.
const nanosPerMilli = 1_000_000

// Timestamp is an instant in milliseconds since the Unix epoch.
type Timestamp int64

// DecodeTimestamp converts wire nanoseconds to milliseconds.
func DecodeTimestamp(nanos int64) Timestamp {
	return Timestamp(nanos / nanosPerMilli)
}

// EncodeTimestamp converts an instant to wire nanoseconds at millisecond precision.
func EncodeTimestamp(t time.Time) int64 {
	return t.UnixMilli() * nanosPerMilli
}

// UnixMilli returns the stored milliseconds.
func (t Timestamp) UnixMilli() int64 {
	return int64(t)
}

// Time returns the instant in UTC for calendar display.
func (t Timestamp) Time() time.Time {
	return time.UnixMilli(int64(t)).UTC()
}

// IsZero reports the zero instant, which services use for "never".
func (t Timestamp) IsZero() bool {
	return t == 0
}

// UnmarshalJSON reads wire nanoseconds.
func (t *Timestamp) UnmarshalJSON(b []byte) error {
	v, err := parseWireInt(b)
	if err != nil {
		return err
	}
	*t = DecodeTimestamp(v)
	return nil
}

// MarshalJSON writes wire nanoseconds.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return strconv.AppendInt(nil, int64(t)*nanosPerMilli, 10), nil
}
