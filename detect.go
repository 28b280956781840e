package objmap

import (
	"reflect"
	"slices"

	"github.com/danderson/objmap/universal"
)

// Detector proposes candidate strategies for a type. Detectors run in
// order; the first detector to return a complete strategy ends the
// chain, otherwise candidates from all detectors are pooled for
// disambiguation.
//
// Detectors must be pure functions of the type and the environment.
type Detector func(t reflect.Type, env *DetectEnv) Candidates

// DetectEnv is the environment detectors run in.
type DetectEnv struct {
	cfg       *Config
	factories factoryIndex
}

// FieldName returns the universal map key for a Go field name.
func (e *DetectEnv) FieldName(goName string) string {
	return e.cfg.FieldName(goName)
}

// Candidates is the set of strategies a [Detector] proposes for a
// type.
//
// A detector either proposes a complete strategy in Serializer and
// Deserializer (either may be nil if that direction is impossible),
// or pieces for the disambiguator to choose from.
type Candidates struct {
	Serializer   TypeSerializer
	Deserializer TypeDeserializer

	PrimitiveSerializers   []*PrimitiveSerializer
	PrimitiveDeserializers []*PrimitiveDeserializer
	Fields                 []*Field
	ObjectDeserializers    []*ObjectDeserializer

	// Problems are human-readable reasons why candidates that might
	// be expected were not proposed.
	Problems []string
}

// Complete reports whether c proposes a complete strategy.
func (c Candidates) Complete() bool {
	return c.Serializer != nil || c.Deserializer != nil
}

// IsEmpty reports whether c proposes nothing.
func (c Candidates) IsEmpty() bool {
	return !c.Complete() &&
		len(c.PrimitiveSerializers) == 0 &&
		len(c.PrimitiveDeserializers) == 0 &&
		len(c.Fields) == 0 &&
		len(c.ObjectDeserializers) == 0
}

func (c *Candidates) merge(o Candidates) {
	c.PrimitiveSerializers = append(c.PrimitiveSerializers, o.PrimitiveSerializers...)
	c.PrimitiveDeserializers = append(c.PrimitiveDeserializers, o.PrimitiveDeserializers...)
	c.Fields = append(c.Fields, o.Fields...)
	c.ObjectDeserializers = append(c.ObjectDeserializers, o.ObjectDeserializers...)
	c.Problems = append(c.Problems, o.Problems...)
}

// runDetectors runs the detector chain on t.
func runDetectors(detectors []Detector, t reflect.Type, env *DetectEnv) Candidates {
	var ret Candidates
	for _, d := range detectors {
		c := d(t, env)
		if c.Complete() {
			return c
		}
		ret.merge(c)
	}
	return ret
}

// DefaultDetectors returns the default detector chain.
func DefaultDetectors() []Detector {
	return []Detector{
		DetectBuiltins,
		DetectPointers,
		DetectCollections,
		DetectMaps,
		DetectCustomPrimitives,
		DetectSerializedObjects,
	}
}

// DetectBuiltins maps Go's predeclared bool, string and number types
// to universal scalars.
func DetectBuiltins(t reflect.Type, env *DetectEnv) Candidates {
	if !isBuiltinScalar(t) {
		return Candidates{}
	}
	s := builtinStrategy{t}
	return Candidates{Serializer: s, Deserializer: s}
}

// DetectPointers maps *T as T, and nil as null.
func DetectPointers(t reflect.Type, env *DetectEnv) Candidates {
	if t.Kind() != reflect.Pointer {
		return Candidates{}
	}
	s := pointerStrategy{t}
	return Candidates{Serializer: s, Deserializer: s}
}

// DetectCollections maps slices and arrays to universal lists.
func DetectCollections(t reflect.Type, env *DetectEnv) Candidates {
	if t.Kind() != reflect.Slice && t.Kind() != reflect.Array {
		return Candidates{}
	}
	s := listStrategy{t}
	return Candidates{Serializer: s, Deserializer: s}
}

// DetectMaps maps Go maps with string-kinded keys to universal maps.
func DetectMaps(t reflect.Type, env *DetectEnv) Candidates {
	if t.Kind() != reflect.Map {
		return Candidates{}
	}
	if !mapKeyKinds.Has(t.Key().Kind()) {
		return Candidates{Problems: []string{"map key " + t.Key().String() + " is not string-kinded"}}
	}
	s := mapStrategy{t}
	return Candidates{Serializer: s, Deserializer: s}
}

// DetectCustomPrimitives proposes strategies that represent a named
// type as a single universal scalar: conversion to and from its
// underlying scalar type, methods returning a scalar,
// encoding.TextMarshaler and encoding.TextUnmarshaler, and unnamed
// factories taking a single scalar.
func DetectCustomPrimitives(t reflect.Type, env *DetectEnv) Candidates {
	var ret Candidates
	if t.Name() == "" || isPredeclared(t) || t.Kind() == reflect.Interface {
		return ret
	}

	if k, ok := scalarKind(t); ok {
		ret.PrimitiveSerializers = append(ret.PrimitiveSerializers, &PrimitiveSerializer{
			Type: t,
			From: OriginConversion,
			Kind: k,
		})
		ret.PrimitiveDeserializers = append(ret.PrimitiveDeserializers, &PrimitiveDeserializer{
			Type: t,
			From: OriginConversion,
			Kind: k,
		})
	}

	for m := range getters(t) {
		out := m.Type.Out(0)
		if !isBuiltinScalar(out) {
			continue
		}
		k, _ := scalarKind(out)
		ret.PrimitiveSerializers = append(ret.PrimitiveSerializers, &PrimitiveSerializer{
			Type:   t,
			From:   OriginMethod,
			Func:   m.Name,
			Kind:   k,
			method: m.Index,
		})
	}

	if t.Implements(textMarshalerType) {
		ret.PrimitiveSerializers = append(ret.PrimitiveSerializers, &PrimitiveSerializer{
			Type: t,
			From: OriginText,
			Func: "MarshalText",
			Kind: universal.KindString,
		})
	}
	if reflect.PointerTo(t).Implements(textUnmarshalerType) {
		ret.PrimitiveDeserializers = append(ret.PrimitiveDeserializers, &PrimitiveDeserializer{
			Type: t,
			From: OriginText,
			Func: "UnmarshalText",
			Kind: universal.KindString,
		})
	}

	for _, f := range env.factories[t] {
		if f.named {
			continue
		}
		k, _ := scalarKind(f.params[0].Type)
		ret.PrimitiveDeserializers = append(ret.PrimitiveDeserializers, &PrimitiveDeserializer{
			Type:    t,
			From:    OriginFactory,
			Func:    f.ident,
			Kind:    k,
			factory: f,
		})
	}

	return ret
}

// DetectSerializedObjects proposes strategies that represent a struct
// as a universal map: exported struct fields and getters for
// serialization, field assignment and named factories for
// deserialization.
func DetectSerializedObjects(t reflect.Type, env *DetectEnv) Candidates {
	var ret Candidates
	if t.Kind() != reflect.Struct {
		if len(env.factories[t]) > 0 && t.Kind() != reflect.Interface {
			// Named factories for non-struct types still build
			// objects, they just can't be serialized as one.
			ret.ObjectDeserializers = factoryDeserializers(t, env)
		}
		return ret
	}

	info, err := getStructInfo(t, env.cfg.TagName, env.FieldName)
	if err != nil {
		ret.Problems = append(ret.Problems, err.Error())
		return ret
	}

	for _, f := range info.StructFields {
		ret.Fields = append(ret.Fields, &Field{
			Owner: t,
			Key:   f.Key,
			Type:  f.Type,
			From:  OriginStructField,
			Func:  f.Name,
			Skip:  f.Skip,
			field: f,
		})
	}
	if env.cfg.DetectGetters {
		for m := range getters(t) {
			ret.Fields = append(ret.Fields, &Field{
				Owner:  t,
				Key:    env.FieldName(getterName(m.Name)),
				Type:   m.Type.Out(0),
				From:   OriginGetter,
				Func:   m.Name,
				method: m.Index,
			})
		}
	}

	assign := info.Assignable()
	params := make([]FieldSpec, 0, len(assign))
	for _, f := range assign {
		params = append(params, FieldSpec{f.Key, f.Type})
	}
	ret.ObjectDeserializers = append(ret.ObjectDeserializers, &ObjectDeserializer{
		Type:       t,
		From:       OriginFieldAssignment,
		Params:     params,
		assign:     assign,
		unexported: info.Unexported,
	})
	ret.ObjectDeserializers = append(ret.ObjectDeserializers, factoryDeserializers(t, env)...)

	return ret
}

func factoryDeserializers(t reflect.Type, env *DetectEnv) []*ObjectDeserializer {
	var ret []*ObjectDeserializer
	for _, f := range env.factories[t] {
		if !f.named {
			continue
		}
		ret = append(ret, &ObjectDeserializer{
			Type:    t,
			From:    OriginFactory,
			Func:    f.ident,
			Params:  slices.Clone(f.params),
			factory: f,
		})
	}
	return ret
}
