package roster

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// ValueKind tags the variant held by a Value.
type ValueKind uint8

const (
	ValueAbsent ValueKind = iota
	ValueText
	ValueNumber
	ValueDate
	ValueBool
)

func (k ValueKind) String() string {
	switch k {
	case ValueAbsent:
		return "absent"
	case ValueText:
		return "text"
	case ValueNumber:
		return "number"
	case ValueDate:
		return "date"
	case ValueBool:
		return "bool"
	default:
		return fmt.Sprintf("ValueKind(%d)", uint8(k))
	}
}

// Value is a single record cell. The zero Value is Absent.
type Value struct {
	kind ValueKind
	str  string
	num  float64
	b    bool
}

// Text returns a text value.
func Text(s string) Value { return Value{kind: ValueText, str: s} }

// Number returns a numeric value.
func Number(f float64) Value { return Value{kind: ValueNumber, num: f} }

// Date returns a date value. Dates are kept in their canonical YYYY-MM-DD form.
func Date(s string) Value { return Value{kind: ValueDate, str: s} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: ValueBool, b: b} }

// Absent returns the absent value.
func Absent() Value { return Value{} }

// Kind returns the variant tag.
func (v Value) Kind() ValueKind { return v.kind }

// IsAbsent reports whether v carries no value.
func (v Value) IsAbsent() bool { return v.kind == ValueAbsent }

// IsZero lets encoding/json omit absent values with the omitzero option.
func (v Value) IsZero() bool { return v.kind == ValueAbsent }

// IsEmpty reports whether v is absent or an empty string.
func (v Value) IsEmpty() bool {
	switch v.kind {
	case ValueAbsent:
		return true
	case ValueText, ValueDate:
		return v.str == ""
	default:
		return false
	}
}

// StringValue returns the string payload of Text and Date values.
func (v Value) StringValue() (string, bool) {
	if v.kind == ValueText || v.kind == ValueDate {
		return v.str, true
	}
	return "", false
}

// NumberValue returns the payload of Number values.
func (v Value) NumberValue() (float64, bool) {
	if v.kind == ValueNumber {
		return v.num, true
	}
	return 0, false
}

// BoolValue returns the payload of Bool values.
func (v Value) BoolValue() (bool, bool) {
	if v.kind == ValueBool {
		return v.b, true
	}
	return false, false
}

// String renders the value the way it is compared against select options.
func (v Value) String() string {
	switch v.kind {
	case ValueText, ValueDate:
		return v.str
	case ValueNumber:
		return formatNumber(v.num)
	case ValueBool:
		return strconv.FormatBool(v.b)
	default:
		return ""
	}
}

// Equal reports whether two values hold the same variant and payload.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case ValueText, ValueDate:
		return v.str == o.str
	case ValueNumber:
		return v.num == o.num || (math.IsNaN(v.num) && math.IsNaN(o.num))
	case ValueBool:
		return v.b == o.b
	default:
		return true
	}
}

func formatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// MarshalJSON encodes the payload without any tag; Absent encodes as null.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case ValueAbsent:
		return []byte("null"), nil
	case ValueText, ValueDate:
		return json.Marshal(v.str)
	case ValueNumber:
		if math.IsNaN(v.num) || math.IsInf(v.num, 0) {
			return nil, fmt.Errorf("cannot encode non-finite number %v", v.num)
		}
		return json.Marshal(v.num)
	case ValueBool:
		return json.Marshal(v.b)
	default:
		return nil, fmt.Errorf("unknown value kind %d", v.kind)
	}
}

// UnmarshalJSON accepts strings, numbers, booleans and null.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("empty value")
	}
	switch data[0] {
	case 'n':
		*v = Absent()
		return nil
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = Text(s)
		return nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*v = Bool(b)
		return nil
	case '{', '[':
		return fmt.Errorf("unsupported value %s: objects and arrays are not record values", truncate(data, 32))
	default:
		var f float64
		if err := json.Unmarshal(data, &f); err != nil {
			return err
		}
		*v = Number(f)
		return nil
	}
}

// ValueOf converts a decoded JSON scalar (or a Go scalar) into a Value.
func ValueOf(raw any) (Value, error) {
	switch x := raw.(type) {
	case nil:
		return Absent(), nil
	case Value:
		return x, nil
	case string:
		return Text(x), nil
	case bool:
		return Bool(x), nil
	case float64:
		return Number(x), nil
	case float32:
		return Number(float64(x)), nil
	case int:
		return Number(float64(x)), nil
	case int64:
		return Number(float64(x)), nil
	case int32:
		return Number(float64(x)), nil
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return Absent(), err
		}
		return Number(f), nil
	default:
		return Absent(), fmt.Errorf("unsupported value type %T", raw)
	}
}

// Interface returns the payload as a plain Go value (nil when absent).
func (v Value) Interface() any {
	switch v.kind {
	case ValueText, ValueDate:
		return v.str
	case ValueNumber:
		return v.num
	case ValueBool:
		return v.b
	default:
		return nil
	}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
