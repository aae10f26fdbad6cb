// Package node defines permission nodes and the typed values stored on them.
package node

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Sentinels returned by typed lookups when a node is not found
// or its value cannot be converted to the requested type.
const (
	NoString = ""
	NoInt    = -1
	NoBool   = false
	NoDouble = -1.0
)

// Kind is the type of value stored on a node.
type Kind uint8

// Kinds of node values.
const (
	Invalid Kind = iota // zero Value
	Bool
	String
	Int
	Double
)

// String returns the lower case name of the kind.
func (k Kind) String() string {
	switch k {
	case Bool:
		return "bool"
	case String:
		return "string"
	case Int:
		return "int"
	case Double:
		return "double"
	default:
		return "invalid"
	}
}

// Value is a typed node value. The zero Value is invalid.
type Value struct {
	kind Kind
	b    bool
	s    string
	i    int64
	f    float64
}

// BoolValue returns a Bool Value.
func BoolValue(b bool) Value { return Value{kind: Bool, b: b} }

// StringValue returns a String Value.
func StringValue(s string) Value { return Value{kind: String, s: s} }

// IntValue returns an Int Value.
func IntValue(i int64) Value { return Value{kind: Int, i: i} }

// DoubleValue returns a Double Value.
func DoubleValue(f float64) Value { return Value{kind: Double, f: f} }

// Kind returns the kind of the stored value.
func (v Value) Kind() Kind { return v.kind }

// Valid reports whether v holds a value.
func (v Value) Valid() bool { return v.kind != Invalid }

// FromAny converts a scalar decoded from a configuration tree into a Value.
// Maps, slices and nil are rejected.
func FromAny(a any) (Value, error) {
	switch t := a.(type) {
	case bool:
		return BoolValue(t), nil
	case string:
		return StringValue(t), nil
	case int:
		return IntValue(int64(t)), nil
	case int8:
		return IntValue(int64(t)), nil
	case int16:
		return IntValue(int64(t)), nil
	case int32:
		return IntValue(int64(t)), nil
	case int64:
		return IntValue(t), nil
	case uint:
		return IntValue(int64(t)), nil
	case uint8:
		return IntValue(int64(t)), nil
	case uint16:
		return IntValue(int64(t)), nil
	case uint32:
		return IntValue(int64(t)), nil
	case uint64:
		if t > math.MaxInt64 {
			return Value{}, fmt.Errorf("integer %d overflows int64", t)
		}
		return IntValue(int64(t)), nil
	case float32:
		return DoubleValue(float64(t)), nil
	case float64:
		return DoubleValue(t), nil
	case nil:
		return Value{}, fmt.Errorf("value is empty")
	default:
		return Value{}, fmt.Errorf("unsupported value type %T", a)
	}
}

// Any returns the underlying Go value, or nil for an invalid Value.
func (v Value) Any() any {
	switch v.kind {
	case Bool:
		return v.b
	case String:
		return v.s
	case Int:
		return v.i
	case Double:
		return v.f
	default:
		return nil
	}
}

// AsString formats any valid value as a string.
func (v Value) AsString() (string, bool) {
	switch v.kind {
	case String:
		return v.s, true
	case Bool:
		return strconv.FormatBool(v.b), true
	case Int:
		return strconv.FormatInt(v.i, 10), true
	case Double:
		return strconv.FormatFloat(v.f, 'g', -1, 64), true
	default:
		return NoString, false
	}
}

// AsInt converts ints, integral doubles and integer strings.
func (v Value) AsInt() (int, bool) {
	switch v.kind {
	case Int:
		if v.i > math.MaxInt || v.i < math.MinInt {
			return NoInt, false
		}
		return int(v.i), true
	case Double:
		if v.f != math.Trunc(v.f) || math.Abs(v.f) >= math.MaxInt64 {
			return NoInt, false
		}
		return int(v.f), true
	case String:
		i, err := strconv.Atoi(strings.TrimSpace(v.s))
		if err != nil {
			return NoInt, false
		}
		return i, true
	default:
		return NoInt, false
	}
}

// AsDouble converts doubles, ints and float strings.
func (v Value) AsDouble() (float64, bool) {
	switch v.kind {
	case Double:
		return v.f, true
	case Int:
		return float64(v.i), true
	case String:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.s), 64)
		if err != nil {
			return NoDouble, false
		}
		return f, true
	default:
		return NoDouble, false
	}
}

// AsBool converts bools and strings accepted by strconv.ParseBool.
func (v Value) AsBool() (bool, bool) {
	switch v.kind {
	case Bool:
		return v.b, true
	case String:
		b, err := strconv.ParseBool(strings.TrimSpace(v.s))
		if err != nil {
			return NoBool, false
		}
		return b, true
	default:
		return NoBool, false
	}
}

func (v Value) String() string {
	if s, ok := v.AsString(); ok {
		return s
	}
	return "<invalid>"
}
