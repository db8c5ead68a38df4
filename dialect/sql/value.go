package sql

import (
	"bytes"
	"database/sql/driver"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/syssam/dbkit"
)

// Kind is the variant tag of a Value.
type Kind uint8

// Value kinds.
const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindText
	KindBytes
	KindTime
	KindUUID
	KindJSON
)

var kindNames = [...]string{
	KindNull:  "null",
	KindBool:  "bool",
	KindInt:   "int",
	KindFloat: "float",
	KindText:  "text",
	KindBytes: "bytes",
	KindTime:  "time",
	KindUUID:  "uuid",
	KindJSON:  "json",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Value is an engine-neutral scalar. The zero Value is null.
// Values are immutable; byte payloads are copied on the way in and out.
type Value struct {
	kind Kind
	i    int64
	f    float64
	s    string
	b    []byte
	t    time.Time
	u    uuid.UUID
}

// NullValue returns the null value.
func NullValue() Value { return Value{} }

// BoolValue returns a boolean value.
func BoolValue(v bool) Value {
	var i int64
	if v {
		i = 1
	}
	return Value{kind: KindBool, i: i}
}

// IntValue returns an integer value.
func IntValue(v int64) Value { return Value{kind: KindInt, i: v} }

// FloatValue returns a floating point value.
func FloatValue(v float64) Value { return Value{kind: KindFloat, f: v} }

// TextValue returns a text value.
func TextValue(v string) Value { return Value{kind: KindText, s: v} }

// BytesValue returns a binary value. A nil slice yields an empty, non-null value.
func BytesValue(v []byte) Value {
	return Value{kind: KindBytes, b: append([]byte{}, v...)}
}

// TimeValue returns a timestamp value.
func TimeValue(v time.Time) Value { return Value{kind: KindTime, t: v} }

// UUIDValue returns a UUID value.
func UUIDValue(v uuid.UUID) Value { return Value{kind: KindUUID, u: v} }

// JSONValue returns a JSON document value. The document is not validated.
func JSONValue(v []byte) Value {
	return Value{kind: KindJSON, b: append([]byte{}, v...)}
}

// ValueOf converts a Go native into a Value. Nil and nil pointers become
// null; types without a variant fail with an UnsupportedTypeError.
func ValueOf(v any) (Value, error) {
	switch v := v.(type) {
	case nil:
		return Value{}, nil
	case Value:
		return v, nil
	case bool:
		return BoolValue(v), nil
	case int:
		return IntValue(int64(v)), nil
	case int8:
		return IntValue(int64(v)), nil
	case int16:
		return IntValue(int64(v)), nil
	case int32:
		return IntValue(int64(v)), nil
	case int64:
		return IntValue(v), nil
	case uint:
		return uintValue(uint64(v))
	case uint8:
		return IntValue(int64(v)), nil
	case uint16:
		return IntValue(int64(v)), nil
	case uint32:
		return IntValue(int64(v)), nil
	case uint64:
		return uintValue(v)
	case float32:
		return FloatValue(float64(v)), nil
	case float64:
		return FloatValue(v), nil
	case string:
		return TextValue(v), nil
	case []byte:
		if v == nil {
			return Value{}, nil
		}
		return BytesValue(v), nil
	case json.RawMessage:
		if v == nil {
			return Value{}, nil
		}
		return JSONValue(v), nil
	case time.Time:
		return TimeValue(v), nil
	case uuid.UUID:
		return UUIDValue(v), nil
	case *bool:
		return ptrValue(v)
	case *int:
		return ptrValue(v)
	case *int32:
		return ptrValue(v)
	case *int64:
		return ptrValue(v)
	case *float64:
		return ptrValue(v)
	case *string:
		return ptrValue(v)
	case *time.Time:
		return ptrValue(v)
	case *uuid.UUID:
		return ptrValue(v)
	case driver.Valuer:
		dv, err := v.Value()
		if err != nil {
			return Value{}, err
		}
		if _, ok := dv.(driver.Valuer); ok {
			return Value{}, dbkit.NewUnsupportedTypeError("", fmt.Sprintf("%T", v))
		}
		return ValueOf(dv)
	default:
		return Value{}, dbkit.NewUnsupportedTypeError("", fmt.Sprintf("%T", v))
	}
}

// MustValues converts natives with ValueOf. It is meant for literals in
// tests and examples, and panics on unsupported types.
func MustValues(vs ...any) []Value {
	out := make([]Value, len(vs))
	for i, v := range vs {
		val, err := ValueOf(v)
		if err != nil {
			panic(err)
		}
		out[i] = val
	}
	return out
}

func ptrValue[T any](p *T) (Value, error) {
	if p == nil {
		return Value{}, nil
	}
	return ValueOf(*p)
}

func uintValue(v uint64) (Value, error) {
	if v > math.MaxInt64 {
		return Value{}, dbkit.NewUnsupportedTypeError("", "uint64 overflowing int64")
	}
	return IntValue(int64(v)), nil
}

// Kind returns the variant tag.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Bool returns the boolean payload.
func (v Value) Bool() (bool, bool) { return v.i != 0, v.kind == KindBool }

// Int returns the integer payload.
func (v Value) Int() (int64, bool) { return v.i, v.kind == KindInt }

// Float returns the float payload. Integers are widened.
func (v Value) Float() (float64, bool) {
	switch v.kind {
	case KindFloat:
		return v.f, true
	case KindInt:
		return float64(v.i), true
	}
	return 0, false
}

// Text returns the text payload.
func (v Value) Text() (string, bool) { return v.s, v.kind == KindText }

// Bytes returns a copy of the binary payload.
func (v Value) Bytes() ([]byte, bool) {
	if v.kind != KindBytes {
		return nil, false
	}
	return append([]byte{}, v.b...), true
}

// Time returns the timestamp payload.
func (v Value) Time() (time.Time, bool) { return v.t, v.kind == KindTime }

// UUID returns the UUID payload.
func (v Value) UUID() (uuid.UUID, bool) { return v.u, v.kind == KindUUID }

// JSON returns a copy of the JSON payload.
func (v Value) JSON() (json.RawMessage, bool) {
	if v.kind != KindJSON {
		return nil, false
	}
	return append(json.RawMessage{}, v.b...), true
}

// Interface returns the natural Go representation of v: nil, bool, int64,
// float64, string, []byte, time.Time, uuid.UUID or json.RawMessage.
func (v Value) Interface() any {
	switch v.kind {
	case KindBool:
		return v.i != 0
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindText:
		return v.s
	case KindBytes:
		b, _ := v.Bytes()
		return b
	case KindTime:
		return v.t
	case KindUUID:
		return v.u
	case KindJSON:
		j, _ := v.JSON()
		return j
	default:
		return nil
	}
}

// String renders v as text. Null renders as the empty string and bytes as
// base64.
func (v Value) String() string {
	switch v.kind {
	case KindBool:
		return strconv.FormatBool(v.i != 0)
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindText:
		return v.s
	case KindBytes:
		return base64.StdEncoding.EncodeToString(v.b)
	case KindTime:
		return v.t.Format(time.RFC3339Nano)
	case KindUUID:
		return v.u.String()
	case KindJSON:
		return string(v.b)
	default:
		return ""
	}
}

// Equal reports whether v and o hold the same variant and payload.
// Times are compared with time.Time.Equal.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool, KindInt:
		return v.i == o.i
	case KindFloat:
		return v.f == o.f || (math.IsNaN(v.f) && math.IsNaN(o.f))
	case KindText:
		return v.s == o.s
	case KindBytes, KindJSON:
		return bytes.Equal(v.b, o.b)
	case KindTime:
		return v.t.Equal(o.t)
	case KindUUID:
		return v.u == o.u
	}
	return false
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindJSON:
		if len(v.b) == 0 || !json.Valid(v.b) {
			return json.Marshal(string(v.b))
		}
		return append([]byte{}, v.b...), nil
	case KindUUID:
		return json.Marshal(v.u.String())
	default:
		return json.Marshal(v.Interface())
	}
}

// MarshalYAML implements yaml.Marshaler.
func (v Value) MarshalYAML() (any, error) {
	switch v.kind {
	case KindNull:
		return nil, nil
	case KindBool, KindInt, KindFloat, KindText:
		return v.Interface(), nil
	default:
		return v.String(), nil
	}
}
