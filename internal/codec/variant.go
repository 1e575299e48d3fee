package codec

import (
	"encoding/json"

	"github.com/tidwall/gjson"
)

// Variant is an enum value encoded as a single-key object, e.g.
// {"active": null} or {"Rejected": "reason"}.
type Variant struct {
	Tag   string
	Value json.RawMessage
}

// Is reports whether the variant carries the given tag.
func (v Variant) Is(tag string) bool {
	return v.Tag == tag
}

// DecodeVariantTag returns the sole key of a variant object.
// Zero or multiple keys is a DecodeError.
func DecodeVariantTag(raw []byte) (string, error) {
	if !gjson.ValidBytes(raw) {
		return "", violation("variant is not valid JSON", raw)
	}
	tag, _, err := variantOf(gjson.ParseBytes(raw))
	return tag, err
}

// UnmarshalJSON implements json.Unmarshaler with the single-key rule.
func (v *Variant) UnmarshalJSON(b []byte) error {
	if !gjson.ValidBytes(b) {
		return violation("variant is not valid JSON", b)
	}
	tag, value, err := variantOf(gjson.ParseBytes(b))
	if err != nil {
		return err
	}
	v.Tag = tag
	v.Value = json.RawMessage(value.Raw)
	return nil
}

// MarshalJSON encodes the variant back to its single-key form.
func (v Variant) MarshalJSON() ([]byte, error) {
	value := v.Value
	if len(value) == 0 {
		value = json.RawMessage("null")
	}
	return json.Marshal(map[string]json.RawMessage{v.Tag: value})
}

func variantOf(obj gjson.Result) (string, gjson.Result, error) {
	if !obj.IsObject() {
		return "", gjson.Result{}, violation("variant is not an object", []byte(obj.Raw))
	}
	members := objectMembers(obj)
	switch len(members) {
	case 1:
		return members[0].key, members[0].value, nil
	case 0:
		return "", gjson.Result{}, violation("variant has no tag", []byte(obj.Raw))
	default:
		return "", gjson.Result{}, violation("variant has multiple tags", []byte(obj.Raw))
	}
}
