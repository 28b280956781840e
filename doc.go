// Package objmap maps Go values to and from universal values:
// untyped trees of maps, lists, strings, numbers, booleans and null,
// which the codec package encodes as JSON, YAML or XML.
//
// Mapping strategies are not declared, they are detected. A
// [Builder] is told which types must support which [Capability], and
// works out a strategy for each of them and for every type they
// require in turn:
//
//	b := objmap.NewBuilder(nil)
//	b.Factory(NewEmail, "sender", "receiver", "subject", "body")
//	b.Factory(NewEmailAddress)
//	b.Add(objmap.TypeFor[Email](), objmap.Duplex)
//	m, err := b.Build()
//
// Go's predeclared bool, string and number types map to universal
// scalars. Pointers map as the value they point to, with nil as
// null. Slices and arrays map to lists, and maps with string-kinded
// keys map to universal maps.
//
// Other named types are either custom primitives, represented by a
// single scalar, or serialized objects, represented by a map of
// fields.
//
// A custom primitive is serialized by conversion to its underlying
// scalar type, by a method with no arguments returning a scalar, or
// by encoding.TextMarshaler. It is deserialized by conversion, by
// encoding.TextUnmarshaler, or by a factory registered with
// [Builder.Factory] without parameter names.
//
// A serialized object is serialized from its exported struct fields
// and its getters (methods with no arguments and one result, minus a
// "Get" prefix). It is deserialized by assigning exported struct
// fields, or by a factory registered with parameter names, which
// become the map's keys. Field keys default to the lowerCamelCase Go
// name, and can be set with an `objmap:"key"` struct tag. Fields
// tagged `objmap:"-"` are ignored.
//
// When a type has several candidate strategies, filters, preferences
// and hints in [Config] decide between them. A type whose candidates
// cannot be narrowed down to one is reported as ambiguous, with every
// candidate listed. [Builder.Build] reports all unmappable types at
// once in a [BuildError], along with the chain of types that made
// each of them required.
//
// Types that need both capabilities get symmetric strategies: a
// custom primitive serializer and deserializer that agree on a
// scalar kind, or an object deserializer whose every parameter has a
// matching serialization field.
//
// Type resolution is deterministic: the same registrations always
// produce the same definitions, in the same order.
package objmap
