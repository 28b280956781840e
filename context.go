package objmap

import (
	"fmt"
	"reflect"
	"strings"
	"unsafe"

	"github.com/danderson/objmap/universal"
)

// pathTracker records the location of the value currently being
// mapped, for error messages.
type pathTracker struct {
	path []string
	errs []*FieldError
}

func (p *pathTracker) push(key string) {
	p.path = append(p.path, key)
}

func (p *pathTracker) pop() {
	p.path = p.path[:len(p.path)-1]
}

// Path returns the current location, e.g. "tags[2].name".
func (p *pathTracker) Path() string {
	var b strings.Builder
	for _, k := range p.path {
		if b.Len() > 0 && !strings.HasPrefix(k, "[") {
			b.WriteByte('.')
		}
		b.WriteString(k)
	}
	return b.String()
}

func (p *pathTracker) fail(err error) {
	p.errs = append(p.errs, &FieldError{Path: p.Path(), Err: err})
}

func (p *pathTracker) validationErr() error {
	if len(p.errs) == 0 {
		return nil
	}
	return &ValidationError{p.errs}
}

func indexKey(i int) string {
	return fmt.Sprintf("[%d]", i)
}

// visitKey identifies a reference value, for cycle detection.
type visitKey struct {
	ptr unsafe.Pointer
	t   reflect.Type
	n   int
}

// SerializeContext is the state of one call to [Mapper.Serialize]. It
// is passed to every [TypeSerializer] invoked along the way.
type SerializeContext struct {
	pathTracker
	m        *Mapper
	visiting map[visitKey]bool
}

func newSerializeContext(m *Mapper) *SerializeContext {
	return &SerializeContext{
		m:        m,
		visiting: map[visitKey]bool{},
	}
}

// Serialize returns the universal value for v, using the serializer
// of type t.
func (sc *SerializeContext) Serialize(t reflect.Type, v reflect.Value) (universal.Value, error) {
	ser, err := sc.m.serializerFor(t)
	if err != nil {
		return nil, err
	}
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice:
		if v.IsNil() || (v.Kind() == reflect.Slice && v.Len() == 0) {
			break
		}
		k := visitKey{v.UnsafePointer(), v.Type(), 0}
		if v.Kind() == reflect.Slice {
			k.n = v.Len()
		}
		if sc.visiting[k] {
			return nil, sc.valueErr(t, errCircular)
		}
		sc.visiting[k] = true
		defer delete(sc.visiting, k)
	}
	return ser.Serialize(sc, v)
}

// SerializeChild is like Serialize, but records that v is found under
// key in its parent.
func (sc *SerializeContext) SerializeChild(key string, t reflect.Type, v reflect.Value) (universal.Value, error) {
	sc.push(key)
	defer sc.pop()
	return sc.Serialize(t, v)
}

// Fail records err against the current path, and returns a null
// placeholder. The enclosing call to [Mapper.Serialize] returns a
// [ValidationError] listing all recorded failures.
func (sc *SerializeContext) Fail(err error) universal.Value {
	sc.fail(err)
	return universal.Null{}
}

func (sc *SerializeContext) valueErr(t reflect.Type, reason string) error {
	return &ValueError{Path: sc.Path(), Type: t.String(), Reason: reason}
}

// DeserializeContext is the state of one call to
// [Mapper.Deserialize]. It is passed to every [TypeDeserializer]
// invoked along the way.
type DeserializeContext struct {
	pathTracker
	m *Mapper
}

func newDeserializeContext(m *Mapper) *DeserializeContext {
	return &DeserializeContext{m: m}
}

// Deserialize returns a value of type t built from in, using the
// deserializer of type t.
func (dc *DeserializeContext) Deserialize(t reflect.Type, in universal.Value) (reflect.Value, error) {
	deser, err := dc.m.deserializerFor(t)
	if err != nil {
		return reflect.Value{}, err
	}
	ret, err := deser.Deserialize(dc, in)
	if err != nil {
		return reflect.Value{}, err
	}
	if !ret.IsValid() {
		return reflect.Zero(t), nil
	}
	if ret.Type() != t {
		return reflect.Value{}, typeErr(t, "deserializer %q returned a %s", deser.Description(), ret.Type())
	}
	return ret, nil
}

// DeserializeChild is like Deserialize, but records that in is found
// under key in its parent.
func (dc *DeserializeContext) DeserializeChild(key string, t reflect.Type, in universal.Value) (reflect.Value, error) {
	dc.push(key)
	defer dc.pop()
	return dc.Deserialize(t, in)
}

// Fail records err against the current path, and returns an invalid
// reflect.Value, which callers treat as the zero value. The enclosing
// call to [Mapper.Deserialize] returns a [ValidationError] listing all
// recorded failures.
func (dc *DeserializeContext) Fail(err error) reflect.Value {
	dc.fail(err)
	return reflect.Value{}
}

// failures returns the number of failures recorded so far.
func (dc *DeserializeContext) failures() int {
	return len(dc.errs)
}

func (dc *DeserializeContext) valueErr(t reflect.Type, reason string) error {
	return &ValueError{Path: dc.Path(), Type: t.String(), Reason: reason}
}

func (dc *DeserializeContext) mismatch(t reflect.Type, want universal.Kind, got universal.Value) error {
	return dc.valueErr(t, fmt.Sprintf("expected %s, got %s", want, universal.KindOf(got)))
}
