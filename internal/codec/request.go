package codec

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	dErrors "globaltrust/pkg/domain-errors"
)

// Kind declares how a request field is encoded for the wire.
type Kind int

const (
	KindText     Kind = iota // passthrough string
	KindMoney                // decimal string -> integer minor units
	KindDate                 // calendar input -> integer nanoseconds
	KindOptional             // nil/empty -> [], value -> [encoded(Elem)]
	KindNat                  // digits -> unsigned integer
	KindDuration             // days or time.Duration -> integer nanoseconds
	KindVariant              // tag -> {tag: null}
	KindBool
	KindTextList // comma-separated text -> list of trimmed entries
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindMoney:
		return "money"
	case KindDate:
		return "date"
	case KindOptional:
		return "optional"
	case KindNat:
		return "nat"
	case KindDuration:
		return "duration"
	case KindVariant:
		return "variant"
	case KindBool:
		return "bool"
	case KindTextList:
		return "text_list"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// calendarLayouts are the accepted calendar inputs, most specific first.
var calendarLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// Field is one user-entered request value with its declared wire kind.
// Every field is required unless its Kind is KindOptional.
type Field struct {
	Name  string
	Kind  Kind
	Elem  Kind // element kind for KindOptional
	Value any
}

// EncodeRequest encodes fields as positional call arguments.
func EncodeRequest(fields []Field) ([]any, error) {
	args := make([]any, 0, len(fields))
	for _, f := range fields {
		v, err := encodeField(f)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}
	return args, nil
}

// EncodeRecord encodes fields as a single named record argument.
func EncodeRecord(fields []Field) (map[string]any, error) {
	rec := make(map[string]any, len(fields))
	for _, f := range fields {
		if f.Name == "" {
			return nil, dErrors.New(dErrors.CodeInvalidInput, "record field without a name")
		}
		if _, dup := rec[f.Name]; dup {
			return nil, dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("duplicate field %s", f.Name))
		}
		v, err := encodeField(f)
		if err != nil {
			return nil, err
		}
		rec[f.Name] = v
	}
	return rec, nil
}

func encodeField(f Field) (any, error) {
	if f.Kind == KindOptional {
		if missing(f.Elem, f.Value) {
			return []any{}, nil
		}
		v, err := encodeValue(f.Elem, f.Name, f.Value)
		if err != nil {
			return nil, err
		}
		return []any{v}, nil
	}
	if missing(f.Kind, f.Value) {
		return nil, invalidField(f.Name, "missing required value")
	}
	return encodeValue(f.Kind, f.Name, f.Value)
}

func missing(kind Kind, v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok && kind != KindText && kind != KindTextList {
		return strings.TrimSpace(s) == ""
	}
	return false
}

func encodeValue(kind Kind, name string, v any) (any, error) {
	switch kind {
	case KindText:
		switch t := v.(type) {
		case string:
			return t, nil
		case fmt.Stringer:
			return t.String(), nil
		}
	case KindMoney:
		switch t := v.(type) {
		case string:
			minor, err := EncodeMoney(t)
			if err != nil {
				return nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, fmt.Sprintf("field %s: %v", name, err))
			}
			return minor, nil
		case Money:
			return t.MinorUnits(), nil
		}
	case KindDate:
		switch t := v.(type) {
		case time.Time:
			return EncodeTimestamp(t), nil
		case Timestamp:
			return EncodeTimestamp(t.Time()), nil
		case string:
			at, err := parseCalendar(t)
			if err != nil {
				return nil, invalidField(name, fmt.Sprintf("unrecognized date %q", t))
			}
			return EncodeTimestamp(at), nil
		}
	case KindNat:
		switch t := v.(type) {
		case string:
			n, err := strconv.ParseUint(strings.TrimSpace(t), 10, 64)
			if err != nil {
				return nil, invalidField(name, fmt.Sprintf("not a natural number: %q", t))
			}
			return n, nil
		case Nat:
			return uint64(t), nil
		case uint64:
			return t, nil
		case int:
			if t >= 0 {
				return uint64(t), nil
			}
		case int64:
			if t >= 0 {
				return uint64(t), nil
			}
		}
	case KindDuration:
		switch t := v.(type) {
		case time.Duration:
			return int64(t), nil
		case int:
			return int64(time.Duration(t) * 24 * time.Hour), nil
		case string:
			days, err := strconv.Atoi(strings.TrimSpace(t))
			if err != nil || days < 0 {
				return nil, invalidField(name, fmt.Sprintf("not a day count: %q", t))
			}
			return int64(time.Duration(days) * 24 * time.Hour), nil
		}
	case KindVariant:
		if t, ok := v.(string); ok {
			return map[string]any{t: nil}, nil
		}
	case KindBool:
		switch t := v.(type) {
		case bool:
			return t, nil
		case string:
			b, err := strconv.ParseBool(t)
			if err != nil {
				return nil, invalidField(name, fmt.Sprintf("not a boolean: %q", t))
			}
			return b, nil
		}
	case KindTextList:
		switch t := v.(type) {
		case string:
			return splitList(t), nil
		case []string:
			return t, nil
		case []any:
			out := make([]string, 0, len(t))
			for _, e := range t {
				s, ok := e.(string)
				if !ok {
					return nil, invalidField(name, fmt.Sprintf("list entry %v is not text", e))
				}
				out = append(out, s)
			}
			return out, nil
		}
	case KindOptional:
		return nil, invalidField(name, "nested optional is not supported")
	default:
		return nil, invalidField(name, "unknown kind "+kind.String())
	}
	return nil, invalidField(name, fmt.Sprintf("unsupported %T for %s", v, kind))
}

// splitList splits comma-separated input. Blank entries are dropped, so
// empty input is an empty list.
func splitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseCalendar(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var lastErr error
	for _, layout := range calendarLayouts {
		t, err := time.ParseInLocation(layout, s, time.UTC)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

func invalidField(name, msg string) error {
	return dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("field %s: %s", name, msg))
}
