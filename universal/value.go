package universal

import (
	"fmt"
	"iter"
	"math"
	"strconv"
	"strings"
)

// Kind is the kind of a universal [Value].
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindList
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// IsScalar reports whether k is a string, boolean or number.
func (k Kind) IsScalar() bool {
	return k == KindBool || k == KindNumber || k == KindString
}

// Value is a universal value. The set of implementations is closed.
type Value interface {
	Kind() Kind
	isValue()
}

// Null is the universal null value.
type Null struct{}

func (Null) Kind() Kind { return KindNull }
func (Null) isValue()   {}

// Bool is a universal boolean.
type Bool bool

func (Bool) Kind() Kind { return KindBool }
func (Bool) isValue()   {}

// String is a universal string.
type String string

func (String) Kind() Kind { return KindString }
func (String) isValue()   {}

// Number is a universal number, kept as its decimal literal so that
// 64-bit integers survive a round trip through a marshaller without
// loss of precision.
type Number string

func (Number) Kind() Kind { return KindNumber }
func (Number) isValue()   {}

// Int returns the Number for i.
func Int(i int64) Number { return Number(strconv.FormatInt(i, 10)) }

// Uint returns the Number for u.
func Uint(u uint64) Number { return Number(strconv.FormatUint(u, 10)) }

// Float returns the Number for f. Non-finite values have no literal
// representation and are reported as an error by marshallers.
func Float(f float64) Number { return Number(strconv.FormatFloat(f, 'g', -1, 64)) }

// Int64 parses n as a signed integer.
func (n Number) Int64() (int64, error) {
	if i, err := strconv.ParseInt(string(n), 10, 64); err == nil {
		return i, nil
	}
	// Accept integral literals written in float syntax (1e3, 4.0),
	// which YAML and some JSON producers emit.
	f, err := strconv.ParseFloat(string(n), 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", string(n))
	}
	if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, fmt.Errorf("%q is not an integer", string(n))
	}
	return int64(f), nil
}

// Uint64 parses n as an unsigned integer.
func (n Number) Uint64() (uint64, error) {
	if u, err := strconv.ParseUint(string(n), 10, 64); err == nil {
		return u, nil
	}
	f, err := strconv.ParseFloat(string(n), 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", string(n))
	}
	if f != math.Trunc(f) || f < 0 || f >= math.MaxUint64 {
		return 0, fmt.Errorf("%q is not an unsigned integer", string(n))
	}
	return uint64(f), nil
}

// Float64 parses n as a floating point number.
func (n Number) Float64() (float64, error) {
	f, err := strconv.ParseFloat(string(n), 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", string(n))
	}
	return f, nil
}

// Valid reports whether n is a finite numeric literal.
func (n Number) Valid() bool {
	f, err := strconv.ParseFloat(string(n), 64)
	return err == nil && !math.IsInf(f, 0) && !math.IsNaN(f)
}

// List is a universal list.
type List []Value

func (List) Kind() Kind { return KindList }
func (List) isValue()   {}

// Entry is one key/value pair of a [Map].
type Entry struct {
	Key   string
	Value Value
}

// Map is a universal map from strings to values. Entries are kept in
// insertion order. A Map must not contain duplicate keys; use
// [Map.Set] to maintain that.
type Map []Entry

func (Map) Kind() Kind { return KindMap }
func (Map) isValue()   {}

// Get returns the value stored under key.
func (m Map) Get(key string) (Value, bool) {
	for _, e := range m {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}

// Set stores v under key, replacing any previous value in place.
func (m Map) Set(key string, v Value) Map {
	for i := range m {
		if m[i].Key == key {
			m[i].Value = v
			return m
		}
	}
	return append(m, Entry{Key: key, Value: v})
}

// Keys returns the map's keys in order.
func (m Map) Keys() []string {
	ret := make([]string, 0, len(m))
	for _, e := range m {
		ret = append(ret, e.Key)
	}
	return ret
}

// All iterates over the map's entries in order.
func (m Map) All() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		for _, e := range m {
			if !yield(e.Key, e.Value) {
				return
			}
		}
	}
}

// KindOf returns the kind of v, treating a nil Value as null.
func KindOf(v Value) Kind {
	if v == nil {
		return KindNull
	}
	return v.Kind()
}

// Equal reports whether a and b are the same universal value. Map
// entries are compared without regard to order. Numbers compare by
// numeric value when both parse, by literal otherwise.
func Equal(a, b Value) bool {
	if KindOf(a) != KindOf(b) {
		return false
	}
	switch a := a.(type) {
	case nil, Null:
		return true
	case Bool:
		return a == b.(Bool)
	case String:
		return a == b.(String)
	case Number:
		bn := b.(Number)
		if a == bn {
			return true
		}
		af, aerr := a.Float64()
		bf, berr := bn.Float64()
		return aerr == nil && berr == nil && af == bf
	case List:
		bl := b.(List)
		if len(a) != len(bl) {
			return false
		}
		for i := range a {
			if !Equal(a[i], bl[i]) {
				return false
			}
		}
		return true
	case Map:
		bm := b.(Map)
		if len(a) != len(bm) {
			return false
		}
		for _, e := range a {
			bv, ok := bm.Get(e.Key)
			if !ok || !Equal(e.Value, bv) {
				return false
			}
		}
		return true
	}
	return false
}

// Describe renders v in a compact single-line form for diagnostics.
func Describe(v Value) string {
	var b strings.Builder
	describe(&b, v)
	return b.String()
}

func describe(b *strings.Builder, v Value) {
	switch v := v.(type) {
	case nil, Null:
		b.WriteString("null")
	case Bool:
		b.WriteString(strconv.FormatBool(bool(v)))
	case Number:
		b.WriteString(string(v))
	case String:
		b.WriteString(strconv.Quote(string(v)))
	case List:
		b.WriteByte('[')
		for i, e := range v {
			if i > 0 {
				b.WriteString(", ")
			}
			describe(b, e)
		}
		b.WriteByte(']')
	case Map:
		b.WriteByte('{')
		for i, e := range v {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(strconv.Quote(e.Key))
			b.WriteString(": ")
			describe(b, e.Value)
		}
		b.WriteByte('}')
	}
}
