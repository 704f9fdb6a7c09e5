package odbc

import (
	"fmt"
	"strconv"
)

// ValueKind is the representation a host value currently holds.
type ValueKind int

const (
	// KindNull is an absent value.
	KindNull ValueKind = iota
	// KindInt is an integer value.
	KindInt
	// KindDouble is a floating point value.
	KindDouble
	// KindText is a string or byte value.
	KindText
)

// Value is a dynamically typed host value. Every value converts to every
// representation, the way script variables do: a text value reads as the
// number its leading characters spell and a number reads as its decimal text.
type Value struct {
	kind ValueKind
	i    int64
	f    float64
	b    []byte
}

// Null returns the null value.
func Null() Value { return Value{} }

// Int returns an integer value.
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Double returns a floating point value.
func Double(f float64) Value { return Value{kind: KindDouble, f: f} }

// String returns a text value.
func String(s string) Value { return Value{kind: KindText, b: []byte(s)} }

// Bytes returns a text value holding b. The slice is not copied.
func Bytes(b []byte) Value { return Value{kind: KindText, b: b} }

// Bool returns 1 or 0.
func Bool(v bool) Value {
	if v {
		return Int(1)
	}
	return Int(0)
}

// ValueOf converts a Go value to a host value. Unsupported types are
// formatted as text.
func ValueOf(v any) Value {
	switch x := v.(type) {
	case nil:
		return Null()
	case Value:
		return x
	case int:
		return Int(int64(x))
	case int8:
		return Int(int64(x))
	case int16:
		return Int(int64(x))
	case int32:
		return Int(int64(x))
	case int64:
		return Int(x)
	case uint8:
		return Int(int64(x))
	case uint16:
		return Int(int64(x))
	case uint32:
		return Int(int64(x))
	case bool:
		return Bool(x)
	case float32:
		return Double(float64(x))
	case float64:
		return Double(x)
	case string:
		return String(x)
	case []byte:
		return Bytes(x)
	case interface{ String() string }:
		return String(x.String())
	}
	return String(fmt.Sprint(v))
}

// Kind returns the representation of the value.
func (v Value) Kind() ValueKind { return v.kind }

// IsNull reports whether the value is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Int returns the value as an integer.
func (v Value) Int() int64 {
	switch v.kind {
	case KindInt:
		return v.i
	case KindDouble:
		return int64(v.f)
	case KindText:
		return leadingInt(v.b)
	}
	return 0
}

// Float returns the value as a floating point number.
func (v Value) Float() float64 {
	switch v.kind {
	case KindInt:
		return float64(v.i)
	case KindDouble:
		return v.f
	case KindText:
		return leadingFloat(v.b)
	}
	return 0
}

// Bytes returns the text form of the value.
func (v Value) Bytes() []byte {
	switch v.kind {
	case KindInt:
		return strconv.AppendInt(nil, v.i, 10)
	case KindDouble:
		return strconv.AppendFloat(nil, v.f, 'f', -1, 64)
	case KindText:
		return v.b
	}
	return nil
}

// String returns the text form of the value.
func (v Value) String() string {
	return string(v.Bytes())
}

// leadingInt parses optional blanks, an optional sign and digits, stopping at
// the first other character.
func leadingInt(b []byte) int64 {
	i := skipBlanks(b)
	neg := false
	if i < len(b) && (b[i] == '-' || b[i] == '+') {
		neg = b[i] == '-'
		i++
	}
	var n int64
	for ; i < len(b) && b[i] >= '0' && b[i] <= '9'; i++ {
		n = n*10 + int64(b[i]-'0')
	}
	if neg {
		return -n
	}
	return n
}

// leadingFloat parses the longest prefix of b that is a decimal float.
func leadingFloat(b []byte) float64 {
	start := skipBlanks(b)
	end := start
	if end < len(b) && (b[end] == '-' || b[end] == '+') {
		end++
	}
	digits := false
	for ; end < len(b) && b[end] >= '0' && b[end] <= '9'; end++ {
		digits = true
	}
	if end < len(b) && b[end] == '.' {
		end++
		for ; end < len(b) && b[end] >= '0' && b[end] <= '9'; end++ {
			digits = true
		}
	}
	if !digits {
		return 0
	}
	if end < len(b) && (b[end] == 'e' || b[end] == 'E') {
		exp := end + 1
		if exp < len(b) && (b[exp] == '-' || b[exp] == '+') {
			exp++
		}
		if exp < len(b) && b[exp] >= '0' && b[exp] <= '9' {
			for exp < len(b) && b[exp] >= '0' && b[exp] <= '9' {
				exp++
			}
			end = exp
		}
	}
	f, err := strconv.ParseFloat(string(b[start:end]), 64)
	if err != nil {
		return 0
	}
	return f
}

func skipBlanks(b []byte) int {
	i := 0
	for i < len(b) && (b[i] == ' ' || b[i] == '\t' || b[i] == '\n' || b[i] == '\r') {
		i++
	}
	return i
}
