package objmap

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/danderson/objmap/universal"
)

// Field is a candidate serialization field of a serialized object:
// a struct field or getter method whose value becomes one entry of
// the object's universal map.
type Field struct {
	// Owner is the type the field belongs to.
	Owner reflect.Type
	// Key is the field's key in the universal map.
	Key string
	// Type is the type of the field's value.
	Type reflect.Type
	// From is OriginStructField or OriginGetter.
	From Origin
	// Func is the Go name of the struct field or getter.
	Func string
	// Skip is whether a struct field is tagged `objmap:"-"`.
	Skip bool

	field  *structField
	method int
}

func (f *Field) Origin() Origin { return f.From }
func (f *Field) Ident() string  { return f.Func }

func (f *Field) Description() string {
	if f.From == OriginGetter {
		return fmt.Sprintf("getter %s.%s()", f.Owner, f.Func)
	}
	return fmt.Sprintf("field %s.%s", f.Owner, f.Func)
}

// Spec returns the field's name and type.
func (f *Field) Spec() FieldSpec {
	return FieldSpec{f.Key, f.Type}
}

func (f *Field) get(v reflect.Value) reflect.Value {
	if f.From == OriginGetter {
		return v.Method(f.method).Call(nil)[0]
	}
	return f.field.GetWithZero(v)
}

// objectSerializer serializes a struct as a universal map with one
// entry per field.
type objectSerializer struct {
	t      reflect.Type
	fields []*Field
}

func (o *objectSerializer) Description() string {
	keys := make([]string, 0, len(o.fields))
	for _, f := range o.fields {
		keys = append(keys, f.Key)
	}
	return fmt.Sprintf("object %s{%s}", o.t, strings.Join(keys, ", "))
}

func (o *objectSerializer) RequiredTypes() []TypeID {
	ts := make([]reflect.Type, 0, len(o.fields))
	for _, f := range o.fields {
		ts = append(ts, f.Type)
	}
	return requiredTypes(ts...)
}

func (o *objectSerializer) Serialize(sc *SerializeContext, v reflect.Value) (universal.Value, error) {
	ret := make(universal.Map, 0, len(o.fields))
	for _, f := range o.fields {
		fv, err := sc.SerializeChild(f.Key, f.Type, f.get(v))
		if err != nil {
			return nil, err
		}
		ret = append(ret, universal.Entry{Key: f.Key, Value: fv})
	}
	return ret, nil
}

// ObjectDeserializer is a candidate deserializer for a serialized
// object: it reads named fields from a universal map and builds the
// object from them.
type ObjectDeserializer struct {
	// Type is the type being built.
	Type reflect.Type
	// From is OriginFieldAssignment or OriginFactory.
	From Origin
	// Func is the factory's function name for OriginFactory.
	Func string
	// Params are the fields read from the universal map, in order.
	Params []FieldSpec

	factory *factoryFunc
	assign  []*structField
	// unexported are the struct's unexported fields, which field
	// assignment cannot set.
	unexported []string
}

func (o *ObjectDeserializer) Origin() Origin { return o.From }
func (o *ObjectDeserializer) Ident() string  { return o.Func }

func (o *ObjectDeserializer) Description() string {
	if o.From == OriginFactory {
		return "factory " + o.factory.String()
	}
	names := make([]string, 0, len(o.Params))
	for _, p := range o.Params {
		names = append(names, p.Name)
	}
	return fmt.Sprintf("field assignment %s{%s}", o.Type, strings.Join(names, ", "))
}

// Fields returns the fields the deserializer reads.
func (o *ObjectDeserializer) Fields() []FieldSpec {
	return o.Params
}

func (o *ObjectDeserializer) RequiredTypes() []TypeID {
	ts := make([]reflect.Type, 0, len(o.Params))
	for _, p := range o.Params {
		ts = append(ts, p.Type)
	}
	return requiredTypes(ts...)
}

// Deserialize reads each parameter from in. Missing entries are
// passed as zero values. If any parameter fails validation, the
// object itself is not built.
func (o *ObjectDeserializer) Deserialize(dc *DeserializeContext, in universal.Value) (reflect.Value, error) {
	m, ok := in.(universal.Map)
	if !ok {
		return reflect.Value{}, dc.mismatch(o.Type, universal.KindMap, in)
	}
	before := dc.failures()
	args := make([]reflect.Value, len(o.Params))
	for i, p := range o.Params {
		raw, ok := m.Get(p.Name)
		if !ok {
			args[i] = reflect.Zero(p.Type)
			continue
		}
		v, err := dc.DeserializeChild(p.Name, p.Type, raw)
		if err != nil {
			return reflect.Value{}, err
		}
		args[i] = v
	}
	if dc.failures() > before {
		return reflect.Value{}, nil
	}

	switch o.From {
	case OriginFactory:
		return o.factory.call(dc, args), nil
	case OriginFieldAssignment:
		ret := reflect.New(o.Type).Elem()
		for i, f := range o.assign {
			f.GetWithAlloc(ret).Set(args[i])
		}
		return ret, nil
	}
	return reflect.Value{}, internalErr("object deserializer with origin %s", o.From)
}
