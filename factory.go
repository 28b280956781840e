package objmap

import (
	"fmt"
	"reflect"
	"runtime"
	"strings"

	"github.com/creachadair/mds/mapset"
)

var errorType = reflect.TypeFor[error]()

// factoryFunc is a function registered with [Builder.Factory], which
// builds values of one type.
type factoryFunc struct {
	fn reflect.Value
	// name is the package-qualified function name, e.g.
	// "objmaptest.NewEmail".
	name string
	// ident is the bare function name, e.g. "NewEmail".
	ident string
	// params are the function's parameters. Names are empty for
	// unnamed factories.
	params []FieldSpec
	named  bool
	// out is the type the factory builds. If ptr is set, the
	// function returns *out.
	out    reflect.Type
	ptr    bool
	hasErr bool
}

func newFactory(fn any, names []string) (*factoryFunc, error) {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return nil, fmt.Errorf("factory must be a non-nil function, got %T", fn)
	}
	t := v.Type()
	ret := &factoryFunc{
		fn:    v,
		name:  funcName(v),
		named: len(names) > 0,
	}
	ret.ident = ret.name[strings.LastIndexByte(ret.name, '.')+1:]

	if t.IsVariadic() {
		return nil, fmt.Errorf("factory %s must not be variadic", ret.name)
	}
	switch t.NumOut() {
	case 1:
	case 2:
		if t.Out(1) != errorType {
			return nil, fmt.Errorf("factory %s second result must be error, got %s", ret.name, t.Out(1))
		}
		ret.hasErr = true
	default:
		return nil, fmt.Errorf("factory %s must return T or (T, error)", ret.name)
	}
	ret.out = t.Out(0)
	if ret.out.Kind() == reflect.Pointer && ret.out.Elem().Kind() == reflect.Struct {
		ret.out = ret.out.Elem()
		ret.ptr = true
	}

	if ret.named {
		if len(names) != t.NumIn() {
			return nil, fmt.Errorf("factory %s takes %d parameters, but %d names were given", ret.name, t.NumIn(), len(names))
		}
		seen := mapset.New[string]()
		for _, n := range names {
			if n == "" {
				return nil, fmt.Errorf("factory %s has an empty parameter name", ret.name)
			}
			if seen.Has(n) {
				return nil, fmt.Errorf("factory %s has duplicate parameter name %q", ret.name, n)
			}
			seen.Add(n)
		}
	} else {
		if t.NumIn() != 1 {
			return nil, fmt.Errorf("factory %s takes %d parameters and needs parameter names", ret.name, t.NumIn())
		}
		if !isBuiltinScalar(t.In(0)) {
			return nil, fmt.Errorf("unnamed factory %s must take a single string, bool or number, got %s", ret.name, t.In(0))
		}
		names = []string{""}
	}
	for i, n := range names {
		ret.params = append(ret.params, FieldSpec{Name: n, Type: t.In(i)})
	}
	return ret, nil
}

// funcName returns the package-qualified name of the function in v.
func funcName(v reflect.Value) string {
	f := runtime.FuncForPC(v.Pointer())
	if f == nil {
		return "<unknown func>"
	}
	name := f.Name()
	return name[strings.LastIndexByte(name, '/')+1:]
}

func (f *factoryFunc) String() string {
	var b strings.Builder
	b.WriteString(f.name)
	b.WriteByte('(')
	for i, p := range f.params {
		if i > 0 {
			b.WriteString(", ")
		}
		if p.Name != "" {
			b.WriteString(p.Name)
		} else {
			b.WriteString(p.Type.String())
		}
	}
	b.WriteByte(')')
	return b.String()
}

// call invokes the factory. Errors returned by the factory are
// recorded in dc, and call returns an invalid value in that case.
func (f *factoryFunc) call(dc *DeserializeContext, args []reflect.Value) reflect.Value {
	out := f.fn.Call(args)
	if f.hasErr && !out[1].IsNil() {
		return dc.Fail(out[1].Interface().(error))
	}
	ret := out[0]
	if f.ptr {
		if ret.IsNil() {
			return dc.Fail(errNilFactoryResult)
		}
		ret = ret.Elem()
	}
	return ret
}

// factoryIndex holds registered factories by the type they build.
type factoryIndex map[reflect.Type][]*factoryFunc

func (idx factoryIndex) add(f *factoryFunc) {
	idx[f.out] = append(idx[f.out], f)
}
