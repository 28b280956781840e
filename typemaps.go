package objmap

import (
	"fmt"
	"math"
	"reflect"

	"github.com/creachadair/mds/mapset"
	"github.com/danderson/objmap/universal"
)

var (
	// scalarKinds maps the reflect.Kinds that are represented by
	// universal scalars to the corresponding universal kind.
	scalarKinds = map[reflect.Kind]universal.Kind{
		reflect.Bool:    universal.KindBool,
		reflect.Int:     universal.KindNumber,
		reflect.Int8:    universal.KindNumber,
		reflect.Int16:   universal.KindNumber,
		reflect.Int32:   universal.KindNumber,
		reflect.Int64:   universal.KindNumber,
		reflect.Uint:    universal.KindNumber,
		reflect.Uint8:   universal.KindNumber,
		reflect.Uint16:  universal.KindNumber,
		reflect.Uint32:  universal.KindNumber,
		reflect.Uint64:  universal.KindNumber,
		reflect.Float32: universal.KindNumber,
		reflect.Float64: universal.KindNumber,
		reflect.String:  universal.KindString,
	}

	// mapKeyKinds is the set of reflect.Kinds that can be the key of
	// a map represented as a universal map.
	mapKeyKinds = mapset.New(reflect.String)
)

// isPredeclared reports whether t is one of Go's predeclared types,
// e.g. string or int64.
func isPredeclared(t reflect.Type) bool {
	return t.PkgPath() == "" && t.Name() != ""
}

// isBuiltinScalar reports whether t is a predeclared type that maps
// directly to a universal scalar.
func isBuiltinScalar(t reflect.Type) bool {
	_, ok := scalarKinds[t.Kind()]
	return ok && isPredeclared(t)
}

// scalarKind returns the universal kind that values of t's kind map
// to.
func scalarKind(t reflect.Type) (universal.Kind, bool) {
	k, ok := scalarKinds[t.Kind()]
	return k, ok
}

// encodeScalar returns the universal scalar for v, whose kind must be
// in scalarKinds.
func encodeScalar(v reflect.Value) (universal.Value, error) {
	switch v.Kind() {
	case reflect.Bool:
		return universal.Bool(v.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return universal.Int(v.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return universal.Uint(v.Uint()), nil
	case reflect.Float32, reflect.Float64:
		f := v.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("non-finite number %v has no universal representation", f)
		}
		if v.Kind() == reflect.Float32 {
			// Format with 32-bit precision, so that float32(0.1)
			// is written as 0.1 rather than 0.10000000149011612.
			return universal.Number(fmt.Sprint(float32(f))), nil
		}
		return universal.Float(f), nil
	case reflect.String:
		return universal.String(v.String()), nil
	}
	panic(fmt.Sprintf("encodeScalar called on non-scalar %s", v.Type()))
}

// decodeScalar returns a value of type t, whose kind must be in
// scalarKinds, holding in.
func decodeScalar(dc *DeserializeContext, t reflect.Type, in universal.Value) (reflect.Value, error) {
	want := scalarKinds[t.Kind()]
	if universal.KindOf(in) != want {
		return reflect.Value{}, dc.mismatch(t, want, in)
	}
	ret := reflect.New(t).Elem()
	switch t.Kind() {
	case reflect.Bool:
		ret.SetBool(bool(in.(universal.Bool)))
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n := in.(universal.Number)
		i, err := n.Int64()
		if err != nil {
			return reflect.Value{}, dc.valueErr(t, err.Error())
		}
		if ret.OverflowInt(i) {
			return reflect.Value{}, dc.valueErr(t, fmt.Sprintf("%s overflows %s", n, t))
		}
		ret.SetInt(i)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n := in.(universal.Number)
		u, err := n.Uint64()
		if err != nil {
			return reflect.Value{}, dc.valueErr(t, err.Error())
		}
		if ret.OverflowUint(u) {
			return reflect.Value{}, dc.valueErr(t, fmt.Sprintf("%s overflows %s", n, t))
		}
		ret.SetUint(u)
	case reflect.Float32, reflect.Float64:
		n := in.(universal.Number)
		f, err := n.Float64()
		if err != nil {
			return reflect.Value{}, dc.valueErr(t, err.Error())
		}
		if ret.OverflowFloat(f) {
			return reflect.Value{}, dc.valueErr(t, fmt.Sprintf("%s overflows %s", n, t))
		}
		ret.SetFloat(f)
	case reflect.String:
		ret.SetString(string(in.(universal.String)))
	default:
		panic(fmt.Sprintf("decodeScalar called on non-scalar %s", t))
	}
	return ret, nil
}
