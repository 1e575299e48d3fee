package codec

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/tidwall/gjson"
)

// Reason is the normalized failure discriminator of a remote call.
type Reason string

const (
	ReasonNotFound          Reason = "not_found"
	ReasonUnauthorized      Reason = "unauthorized"
	ReasonInvalidInput      Reason = "invalid_input"
	ReasonConflict          Reason = "conflict"
	ReasonInsufficientFunds Reason = "insufficient_funds"
	ReasonRejected          Reason = "rejected"    // failure without a structured tag
	ReasonUnavailable       Reason = "unavailable" // transport or service outage
	ReasonOther             Reason = "other"       // tagged failure outside the vocabulary
)

// reasonAliases maps normalized variant tags onto the vocabulary.
var reasonAliases = map[string]Reason{
	"notfound":            ReasonNotFound,
	"unknown":             ReasonNotFound,
	"unauthorized":        ReasonUnauthorized,
	"notauthorized":       ReasonUnauthorized,
	"forbidden":           ReasonUnauthorized,
	"accessdenied":        ReasonUnauthorized,
	"notowner":            ReasonUnauthorized,
	"invalidinput":        ReasonInvalidInput,
	"invalid":             ReasonInvalidInput,
	"invalidargument":     ReasonInvalidInput,
	"invalidamount":       ReasonInvalidInput,
	"invaliddata":         ReasonInvalidInput,
	"badrequest":          ReasonInvalidInput,
	"alreadyexists":       ReasonConflict,
	"alreadyregistered":   ReasonConflict,
	"duplicate":           ReasonConflict,
	"conflict":            ReasonConflict,
	"insufficientfunds":   ReasonInsufficientFunds,
	"insufficientbalance": ReasonInsufficientFunds,
}

// ReasonForTag maps a failure variant tag such as "NotFound" or "not_found"
// to the normalized vocabulary.
func ReasonForTag(tag string) Reason {
	norm := strings.NewReplacer("_", "", "-", "", " ", "").Replace(strings.ToLower(tag))
	if r, ok := reasonAliases[norm]; ok {
		return r
	}
	return ReasonOther
}

// Failure is the decoded failure side of a result envelope.
type Failure struct {
	Reason Reason
	Tag    string // raw discriminator as sent by the service, if any
	Detail string
}

// Result is the decoded outcome of one remote call: exactly one of a success
// payload or a Failure.
type Result struct {
	payload json.RawMessage
	failure *Failure
}

// Success builds a successful result around a raw payload.
func Success(payload json.RawMessage) Result {
	if payload == nil {
		payload = json.RawMessage("null")
	}
	return Result{payload: payload}
}

// Fail builds a failed result.
func Fail(f Failure) Result {
	return Result{failure: &f}
}

// OK reports whether the result is a success.
func (r Result) OK() bool {
	return r.failure == nil
}

// Payload returns the raw success payload, nil on failure.
func (r Result) Payload() json.RawMessage {
	if r.failure != nil {
		return nil
	}
	return r.payload
}

// Failure returns the failure side of the result.
func (r Result) Failure() (Failure, bool) {
	if r.failure == nil {
		return Failure{}, false
	}
	return *r.failure, true
}

// IsNull reports a successful result whose payload is JSON null.
func (r Result) IsNull() bool {
	return r.OK() && strings.TrimSpace(string(r.payload)) == "null"
}

// Decode unmarshals the success payload into dst. Shape mismatches are
// reported as DecodeError with the offending payload attached.
func (r Result) Decode(dst any) error {
	if r.failure != nil {
		return errors.New("codec: decode called on failed result")
	}
	if err := json.Unmarshal(r.payload, dst); err != nil {
		var de *DecodeError
		if errors.As(err, &de) {
			return err
		}
		return violation("payload shape mismatch: "+err.Error(), r.payload)
	}
	return nil
}

// DecodeResult classifies a raw response body. Precedence is fixed:
//
//	(a) {"ok": v} or {"Ok": v}            -> Success(v)
//	(b) {"err": e} or {"Err": e}          -> Failure(discriminator of e)
//	(c) {"success": bool, "message": ...} -> Success(body) or Failure(detail=message)
//	(d) anything else                     -> Success(body)
func DecodeResult(raw []byte) (Result, error) {
	if !gjson.ValidBytes(raw) {
		return Result{}, violation("envelope is not valid JSON", raw)
	}
	parsed := gjson.ParseBytes(raw)
	if !parsed.IsObject() {
		return Success(json.RawMessage(raw)), nil
	}

	members := objectMembers(parsed)
	if len(members) == 1 {
		m := members[0]
		switch m.key {
		case "ok", "Ok":
			return Success(json.RawMessage(m.value.Raw)), nil
		case "err", "Err":
			f, err := decodeFailure(m.value)
			if err != nil {
				return Result{}, AtField(err, m.key)
			}
			return Fail(f), nil
		}
	}

	if flag, ok := memberOf(members, "success"); ok && (flag.Type == gjson.True || flag.Type == gjson.False) {
		if flag.Bool() {
			return Success(json.RawMessage(raw)), nil
		}
		f := Failure{Reason: ReasonRejected}
		if msg, ok := memberOf(members, "message"); ok {
			f.Detail = textOf(msg)
		}
		return Fail(f), nil
	}

	return Success(json.RawMessage(raw)), nil
}

// decodeFailure extracts the discriminator of an err payload: a variant
// object, a bare message string, or null.
func decodeFailure(v gjson.Result) (Failure, error) {
	switch {
	case v.Type == gjson.Null:
		return Failure{Reason: ReasonRejected}, nil
	case v.Type == gjson.String:
		return Failure{Reason: ReasonRejected, Detail: v.String()}, nil
	case v.IsObject():
		tag, value, err := variantOf(v)
		if err != nil {
			return Failure{}, err
		}
		f := Failure{Reason: ReasonForTag(tag), Tag: tag}
		if value.Type == gjson.String {
			f.Detail = value.String()
		}
		return f, nil
	default:
		return Failure{}, violation("unsupported failure discriminator", []byte(v.Raw))
	}
}

type member struct {
	key   string
	value gjson.Result
}

func objectMembers(obj gjson.Result) []member {
	var out []member
	obj.ForEach(func(k, v gjson.Result) bool {
		out = append(out, member{key: k.String(), value: v})
		return true
	})
	return out
}

func memberOf(members []member, key string) (gjson.Result, bool) {
	for _, m := range members {
		if m.key == key {
			return m.value, true
		}
	}
	return gjson.Result{}, false
}

// textOf reads a message that is either a string or an optional string.
func textOf(v gjson.Result) string {
	if v.IsArray() {
		items := v.Array()
		if len(items) == 1 && items[0].Type == gjson.String {
			return items[0].String()
		}
		return ""
	}
	if v.Type == gjson.String {
		return v.String()
	}
	return ""
}
