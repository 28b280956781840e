package objmap

import (
	"reflect"

	"github.com/danderson/objmap/universal"
)

// TypeSerializer turns Go values of one type into universal values.
type TypeSerializer interface {
	// Description is a short human-readable description of the
	// strategy, for diagnostics.
	Description() string
	// RequiredTypes returns the types whose serializers this
	// serializer calls.
	RequiredTypes() []TypeID
	// Serialize returns the universal value for v.
	Serialize(sc *SerializeContext, v reflect.Value) (universal.Value, error)
}

// TypeDeserializer builds Go values of one type from universal
// values.
type TypeDeserializer interface {
	// Description is a short human-readable description of the
	// strategy, for diagnostics.
	Description() string
	// RequiredTypes returns the types whose deserializers this
	// deserializer calls.
	RequiredTypes() []TypeID
	// Deserialize returns the Go value built from in. The returned
	// value must have the deserializer's type, or be invalid to
	// signal a zero value.
	Deserialize(dc *DeserializeContext, in universal.Value) (reflect.Value, error)
}

// Origin is the Go construct a candidate strategy was derived from.
type Origin uint8

const (
	// OriginConversion is a Go type conversion between a named
	// type and its underlying scalar type.
	OriginConversion Origin = iota
	// OriginMethod is a method with no arguments returning a
	// scalar.
	OriginMethod
	// OriginText is encoding.TextMarshaler or
	// encoding.TextUnmarshaler.
	OriginText
	// OriginFactory is a factory function registered with
	// [Builder.Factory].
	OriginFactory
	// OriginStructField is an exported struct field.
	OriginStructField
	// OriginGetter is a method with no arguments and one result.
	OriginGetter
	// OriginFieldAssignment is direct assignment of exported struct
	// fields.
	OriginFieldAssignment
)

func (o Origin) String() string {
	switch o {
	case OriginConversion:
		return "conversion"
	case OriginMethod:
		return "method"
	case OriginText:
		return "text"
	case OriginFactory:
		return "factory"
	case OriginStructField:
		return "field"
	case OriginGetter:
		return "getter"
	case OriginFieldAssignment:
		return "field assignment"
	default:
		return "unknown origin"
	}
}

// Candidate is a strategy proposed by a [Detector], before
// disambiguation picks one.
type Candidate interface {
	Description() string
	// Origin is the Go construct the candidate comes from.
	Origin() Origin
	// Ident is the Go identifier behind the candidate: the method,
	// factory or struct field name. It is empty for conversions and
	// field assignment.
	Ident() string
}

// FieldSpec is a named, typed field of a serialized object.
type FieldSpec struct {
	Name string
	Type reflect.Type
}
