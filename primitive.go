package objmap

import (
	"encoding"
	"fmt"
	"reflect"

	"github.com/danderson/objmap/universal"
)

var (
	textMarshalerType   = reflect.TypeFor[encoding.TextMarshaler]()
	textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()
)

// builtinStrategy maps Go's predeclared scalar types to the
// corresponding universal scalar, in both directions.
type builtinStrategy struct {
	t reflect.Type
}

func (b builtinStrategy) Description() string {
	return "builtin " + b.t.String()
}

func (builtinStrategy) RequiredTypes() []TypeID { return nil }

func (b builtinStrategy) Serialize(sc *SerializeContext, v reflect.Value) (universal.Value, error) {
	ret, err := encodeScalar(v)
	if err != nil {
		return nil, sc.valueErr(b.t, err.Error())
	}
	return ret, nil
}

func (b builtinStrategy) Deserialize(dc *DeserializeContext, in universal.Value) (reflect.Value, error) {
	return decodeScalar(dc, b.t, in)
}

// PrimitiveSerializer is a candidate serializer for a custom
// primitive: a type represented by a single universal scalar.
type PrimitiveSerializer struct {
	// Type is the type being serialized.
	Type reflect.Type
	// From is where the candidate comes from, one of
	// OriginConversion, OriginMethod or OriginText.
	From Origin
	// Func is the method name for OriginMethod and OriginText.
	Func string
	// Kind is the universal scalar kind the serializer produces.
	Kind universal.Kind

	// method is the index of the method in Type's method set.
	method int
}

func (p *PrimitiveSerializer) Origin() Origin { return p.From }
func (p *PrimitiveSerializer) Ident() string  { return p.Func }

func (p *PrimitiveSerializer) Description() string {
	switch p.From {
	case OriginConversion:
		return fmt.Sprintf("conversion of %s to %s", p.Type, p.Kind)
	default:
		return fmt.Sprintf("%s %s.%s", p.From, p.Type, p.Func)
	}
}

func (*PrimitiveSerializer) RequiredTypes() []TypeID { return nil }

func (p *PrimitiveSerializer) Serialize(sc *SerializeContext, v reflect.Value) (universal.Value, error) {
	switch p.From {
	case OriginConversion:
		ret, err := encodeScalar(v)
		if err != nil {
			return nil, sc.valueErr(p.Type, err.Error())
		}
		return ret, nil
	case OriginMethod:
		out := v.Method(p.method).Call(nil)[0]
		ret, err := encodeScalar(out)
		if err != nil {
			return nil, sc.valueErr(p.Type, err.Error())
		}
		return ret, nil
	case OriginText:
		bs, err := v.Interface().(encoding.TextMarshaler).MarshalText()
		if err != nil {
			return sc.Fail(err), nil
		}
		return universal.String(bs), nil
	}
	return nil, internalErr("primitive serializer with origin %s", p.From)
}

// PrimitiveDeserializer is a candidate deserializer for a custom
// primitive: a type represented by a single universal scalar.
type PrimitiveDeserializer struct {
	// Type is the type being deserialized.
	Type reflect.Type
	// From is where the candidate comes from, one of
	// OriginConversion, OriginText or OriginFactory.
	From Origin
	// Func is the name of the factory function for OriginFactory,
	// and UnmarshalText for OriginText.
	Func string
	// Kind is the universal scalar kind the deserializer accepts.
	Kind universal.Kind

	factory *factoryFunc
}

func (p *PrimitiveDeserializer) Origin() Origin { return p.From }
func (p *PrimitiveDeserializer) Ident() string  { return p.Func }

func (p *PrimitiveDeserializer) Description() string {
	switch p.From {
	case OriginConversion:
		return fmt.Sprintf("conversion of %s to %s", p.Kind, p.Type)
	case OriginFactory:
		return "factory " + p.factory.String()
	default:
		return fmt.Sprintf("%s (*%s).%s", p.From, p.Type, p.Func)
	}
}

func (*PrimitiveDeserializer) RequiredTypes() []TypeID { return nil }

func (p *PrimitiveDeserializer) Deserialize(dc *DeserializeContext, in universal.Value) (reflect.Value, error) {
	switch p.From {
	case OriginConversion:
		return decodeScalar(dc, p.Type, in)
	case OriginText:
		s, ok := in.(universal.String)
		if !ok {
			return reflect.Value{}, dc.mismatch(p.Type, universal.KindString, in)
		}
		ret := reflect.New(p.Type)
		if err := ret.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(s)); err != nil {
			return dc.Fail(err), nil
		}
		return ret.Elem(), nil
	case OriginFactory:
		arg, err := decodeScalar(dc, p.factory.params[0].Type, in)
		if err != nil {
			return reflect.Value{}, err
		}
		return p.factory.call(dc, []reflect.Value{arg}), nil
	}
	return reflect.Value{}, internalErr("primitive deserializer with origin %s", p.From)
}
