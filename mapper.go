package objmap

import (
	"errors"
	"reflect"

	"github.com/danderson/objmap/codec"
	"github.com/danderson/objmap/universal"
)

// Mapper converts Go values to and from universal values, using the
// strategies resolved by a [Builder].
//
// A Mapper is safe for concurrent use.
type Mapper struct {
	defs   *Definitions
	report *Report
}

func newMapper(defs *Definitions, report *Report) *Mapper {
	return &Mapper{defs, report}
}

// Definitions returns the mapper's resolved definitions.
func (m *Mapper) Definitions() *Definitions {
	return m.defs
}

// Report returns the report of the build that produced m.
func (m *Mapper) Report() *Report {
	return m.report
}

func (m *Mapper) serializerFor(t reflect.Type) (TypeSerializer, error) {
	def, ok := m.defs.Lookup(TypeOf(t))
	if !ok {
		return nil, typeErr(t, "type was not registered")
	}
	if def.Serializer == nil {
		return nil, typeErr(t, "type was registered without serialization")
	}
	return def.Serializer, nil
}

func (m *Mapper) deserializerFor(t reflect.Type) (TypeDeserializer, error) {
	def, ok := m.defs.Lookup(TypeOf(t))
	if !ok {
		return nil, typeErr(t, "type was not registered")
	}
	if def.Deserializer == nil {
		return nil, typeErr(t, "type was registered without deserialization")
	}
	return def.Deserializer, nil
}

// Serialize returns the universal value of v.
//
// If v is a pointer and only the type pointed to is registered, v
// is dereferenced, and a nil pointer serializes to null.
//
// Serialize returns a [TypeError] if v's type has no serializer, a
// [ValueError] if v cannot be represented (for example because it
// contains a cycle), and a [ValidationError] if serialization methods
// reported errors.
func (m *Mapper) Serialize(v any) (universal.Value, error) {
	if v == nil {
		return nil, typeErr(nil, "cannot serialize untyped nil")
	}
	rv := reflect.ValueOf(v)
	t := rv.Type()
	if _, err := m.serializerFor(t); err != nil && t.Kind() == reflect.Pointer {
		if _, elemErr := m.serializerFor(t.Elem()); elemErr == nil {
			if rv.IsNil() {
				return universal.Null{}, nil
			}
			rv, t = rv.Elem(), t.Elem()
		}
	}
	return m.serialize(t, rv)
}

// SerializeAs is like Serialize, but uses the serializer of id. It
// is the only way to use fixed strategies of virtual types.
func (m *Mapper) SerializeAs(id TypeID, v any) (universal.Value, error) {
	def, ok := m.defs.Lookup(id)
	if !ok || def.Serializer == nil {
		return nil, TypeError{id.String(), errors.New("type has no serializer")}
	}
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		if id.IsVirtual() || !canBeNil(id.Type()) {
			return nil, TypeError{id.String(), errors.New("cannot serialize untyped nil")}
		}
		rv = reflect.Zero(id.Type())
	}
	sc := newSerializeContext(m)
	ret, err := def.Serializer.Serialize(sc, rv)
	if err != nil {
		return nil, err
	}
	if err := sc.validationErr(); err != nil {
		return nil, err
	}
	return ret, nil
}

func canBeNil(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Slice, reflect.Map, reflect.Interface:
		return true
	}
	return false
}

func (m *Mapper) serialize(t reflect.Type, v reflect.Value) (universal.Value, error) {
	sc := newSerializeContext(m)
	ret, err := sc.Serialize(t, v)
	if err != nil {
		return nil, err
	}
	if err := sc.validationErr(); err != nil {
		return nil, err
	}
	return ret, nil
}

// Deserialize builds a Go value from in, and stores it in the value
// pointed to by out. out must be a non-nil pointer.
//
// Missing map entries leave the corresponding fields at their zero
// value, and unknown map entries are ignored.
//
// Deserialize returns a [TypeError] if out's type has no
// deserializer, a [ValueError] if in does not have the shape the
// type expects, and a [ValidationError] if factories or text
// unmarshalers reported errors. In the latter case, out is left
// unchanged.
//
// If out points to a pointer and only the type pointed to is
// registered, a new value is allocated, and null stores a nil
// pointer.
func (m *Mapper) Deserialize(in universal.Value, out any) error {
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return typeErr(reflect.TypeOf(out), "Deserialize requires a non-nil pointer")
	}
	t := rv.Type().Elem()
	deref := false
	if _, err := m.deserializerFor(t); err != nil && t.Kind() == reflect.Pointer {
		if _, elemErr := m.deserializerFor(t.Elem()); elemErr == nil {
			deref = true
		}
	}
	dc := newDeserializeContext(m)
	var (
		ret reflect.Value
		err error
	)
	if deref {
		if universal.KindOf(in) == universal.KindNull {
			rv.Elem().SetZero()
			return nil
		}
		ret, err = dc.Deserialize(t.Elem(), in)
	} else {
		ret, err = dc.Deserialize(t, in)
	}
	if err != nil {
		return err
	}
	if err := dc.validationErr(); err != nil {
		return err
	}
	if deref {
		p := reflect.New(t.Elem())
		p.Elem().Set(ret)
		ret = p
	}
	rv.Elem().Set(ret)
	return nil
}

// DeserializeAs is like [Mapper.Deserialize], but returns a new T.
func DeserializeAs[T any](m *Mapper, in universal.Value) (T, error) {
	var ret T
	if err := m.Deserialize(in, &ret); err != nil {
		var zero T
		return zero, err
	}
	return ret, nil
}

// Marshal serializes v, and encodes the result with mr.
func (m *Mapper) Marshal(mr codec.Marshaller, v any) ([]byte, error) {
	u, err := m.Serialize(v)
	if err != nil {
		return nil, err
	}
	return mr.Marshal(u)
}

// Unmarshal decodes data with mr, and deserializes the result into
// out.
func (m *Mapper) Unmarshal(mr codec.Marshaller, data []byte, out any) error {
	u, err := mr.Unmarshal(data)
	if err != nil {
		return err
	}
	return m.Deserialize(u, out)
}
