package sql

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/syssam/dbkit"
)

// ColumnType describes a result column. It is implemented by *sql.ColumnType.
type ColumnType interface {
	DatabaseTypeName() string
}

// Converter translates between Values and an engine's native values.
type Converter interface {
	// ToNative converts a Value into the native accepted by the engine
	// driver. Variants without a mapping fail with an UnsupportedTypeError.
	ToNative(Value) (any, error)
	// FromNative converts a scanned native into a Value. A nil native is
	// null. ct may be nil.
	FromNative(raw any, ct ColumnType) (Value, error)
}

// Natives converts values with conv, preserving order.
func Natives(conv Converter, values []Value) ([]any, error) {
	args := make([]any, len(values))
	for i, v := range values {
		n, err := conv.ToNative(v)
		if err != nil {
			return nil, fmt.Errorf("dialect/sql: parameter %d: %w", i+1, err)
		}
		args[i] = n
	}
	return args, nil
}

// Natural converts Values to and from the natives produced by
// database/sql drivers without engine-specific interpretation. Engine
// converters embed it and override what their driver does differently.
type Natural struct {
	// Dialect names the engine in UnsupportedTypeError messages.
	Dialect string
}

// ToNative implements Converter.
func (n Natural) ToNative(v Value) (any, error) {
	switch v.Kind() {
	case KindNull:
		return nil, nil
	case KindBool:
		b, _ := v.Bool()
		return b, nil
	case KindInt:
		i, _ := v.Int()
		return i, nil
	case KindFloat:
		f, _ := v.Float()
		return f, nil
	case KindText:
		s, _ := v.Text()
		return s, nil
	case KindBytes:
		b, _ := v.Bytes()
		return b, nil
	case KindTime:
		t, _ := v.Time()
		return t, nil
	case KindUUID:
		u, _ := v.UUID()
		return u.String(), nil
	case KindJSON:
		j, _ := v.JSON()
		return string(j), nil
	default:
		return nil, dbkit.NewUnsupportedTypeError(n.Dialect, v.Kind().String())
	}
}

// FromNative implements Converter.
func (n Natural) FromNative(raw any, _ ColumnType) (Value, error) {
	switch raw := raw.(type) {
	case nil:
		return Value{}, nil
	case []byte:
		return BytesValue(raw), nil
	case json.RawMessage:
		return JSONValue(raw), nil
	case time.Time:
		return TimeValue(raw), nil
	case uuid.UUID:
		return UUIDValue(raw), nil
	default:
		v, err := ValueOf(raw)
		if err != nil {
			return Value{}, dbkit.NewUnsupportedTypeError(n.Dialect, fmt.Sprintf("%T", raw))
		}
		return v, nil
	}
}

var _ Converter = Natural{}
