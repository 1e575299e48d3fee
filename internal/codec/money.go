package codec

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	dErrors "globaltrust/pkg/domain-errors"
)

// MinorUnitScale is the number of decimal digits carried in minor units.
const MinorUnitScale = 2

const minorPerMajor = 100

// Money is a currency amount in integer minor units (cents).
type Money int64

// DecodeMoney converts a wire amount in minor units.
func DecodeMoney(minor int64) Money {
	return Money(minor)
}

// MinorUnits returns the wire representation.
func (m Money) MinorUnits() int64 {
	return int64(m)
}

// Decimal formats the amount as a plain decimal string, e.g. "-12.05".
// Used at the render edge only.
func (m Money) Decimal() string {
	v := int64(m)
	sign := ""
	var mag uint64
	if v < 0 {
		sign = "-"
		mag = uint64(-(v + 1)) + 1
	} else {
		mag = uint64(v)
	}
	return fmt.Sprintf("%s%d.%02d", sign, mag/minorPerMajor, mag%minorPerMajor)
}

// UnmarshalJSON reads an integer amount of minor units. Fractional or
// non-numeric amounts are a DecodeError.
func (m *Money) UnmarshalJSON(b []byte) error {
	v, err := parseWireInt(b)
	if err != nil {
		return err
	}
	*m = DecodeMoney(v)
	return nil
}

// MarshalJSON writes the amount as integer minor units.
func (m Money) MarshalJSON() ([]byte, error) {
	return strconv.AppendInt(nil, int64(m), 10), nil
}

// EncodeMoney converts a user-entered decimal string into minor units.
// Digits past the minor unit are rounded once, half away from zero.
func EncodeMoney(decimal string) (int64, error) {
	s := strings.TrimSpace(decimal)
	neg := false
	if s != "" && (s[0] == '-' || s[0] == '+') {
		neg = s[0] == '-'
		s = s[1:]
	}
	whole, frac, hasDot := strings.Cut(s, ".")
	if (whole == "" && frac == "") || (hasDot && frac == "") || !allDigits(whole) || !allDigits(frac) {
		return 0, dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("invalid amount %q", decimal))
	}

	var major int64
	if whole != "" {
		v, err := strconv.ParseInt(whole, 10, 64)
		if err != nil || v > (math.MaxInt64-minorPerMajor)/minorPerMajor {
			return 0, dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("amount %q out of range", decimal))
		}
		major = v
	}

	padded := frac + strings.Repeat("0", MinorUnitScale+1)
	minor := int64(padded[0]-'0')*10 + int64(padded[1]-'0')
	if padded[MinorUnitScale] >= '5' {
		minor++
	}

	total := major*minorPerMajor + minor
	if neg {
		total = -total
	}
	return total, nil
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
