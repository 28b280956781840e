// Package universal provides the intermediate value model that sits
// between typed Go values and text marshallers.
//
// A universal [Value] is one of a small closed set of types: [Null],
// [Bool], [Number], [String], [List] and [Map]. Serializers produce
// universal values, deserializers consume them, and the marshallers
// in package codec turn them into JSON, YAML or XML text.
//
// Maps preserve the order in which entries were added, so that
// encoding a value twice produces identical output.
package universal
