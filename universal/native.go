package universal

import (
	"fmt"
	"math"
	"slices"
	"strings"
)

// FromNative converts a tree of native Go values to a universal
// value. Accepted inputs are nil, bool, string, the integer and float
// types, []any, map[string]any, and values that are already
// universal. Map keys are sorted, since Go maps have no order.
func FromNative(v any) (Value, error) {
	switch v := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return v, nil
	case bool:
		return Bool(v), nil
	case string:
		return String(v), nil
	case int:
		return Int(int64(v)), nil
	case int8:
		return Int(int64(v)), nil
	case int16:
		return Int(int64(v)), nil
	case int32:
		return Int(int64(v)), nil
	case int64:
		return Int(v), nil
	case uint:
		return Uint(uint64(v)), nil
	case uint8:
		return Uint(uint64(v)), nil
	case uint16:
		return Uint(uint64(v)), nil
	case uint32:
		return Uint(uint64(v)), nil
	case uint64:
		return Uint(v), nil
	case float32:
		return floatValue(float64(v))
	case float64:
		return floatValue(v)
	case []any:
		ret := make(List, 0, len(v))
		for i, e := range v {
			ev, err := FromNative(e)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			ret = append(ret, ev)
		}
		return ret, nil
	case map[string]any:
		ks := make([]string, 0, len(v))
		for k := range v {
			ks = append(ks, k)
		}
		slices.Sort(ks)
		ret := make(Map, 0, len(v))
		for _, k := range ks {
			ev, err := FromNative(v[k])
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			ret = append(ret, Entry{Key: k, Value: ev})
		}
		return ret, nil
	}
	return nil, fmt.Errorf("%T has no universal representation", v)
}

func floatValue(f float64) (Value, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("non-finite number %v has no universal representation", f)
	}
	return Float(f), nil
}

// ToNative converts v to a tree of native Go values: nil, bool,
// string, int64, uint64 or float64, []any and map[string]any.
// Numbers become int64 when integral and representable, uint64 when
// only representable unsigned, float64 otherwise.
func ToNative(v Value) any {
	switch v := v.(type) {
	case nil, Null:
		return nil
	case Bool:
		return bool(v)
	case String:
		return string(v)
	case Number:
		if !strings.ContainsAny(string(v), ".eE") {
			if i, err := v.Int64(); err == nil {
				return i
			}
			if u, err := v.Uint64(); err == nil {
				return u
			}
		}
		f, _ := v.Float64()
		return f
	case List:
		ret := make([]any, 0, len(v))
		for _, e := range v {
			ret = append(ret, ToNative(e))
		}
		return ret
	case Map:
		ret := make(map[string]any, len(v))
		for _, e := range v {
			ret[e.Key] = ToNative(e.Value)
		}
		return ret
	}
	panic(fmt.Sprintf("unknown universal value %T", v))
}
