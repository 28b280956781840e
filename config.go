package objmap

import (
	"io"
	"log/slog"
	"reflect"
	"slices"
)

// Config controls how a [Builder] detects strategies.
//
// The zero Config is not useful; start from [DefaultConfig] and
// adjust.
type Config struct {
	// Logger receives debug logs of the type resolution process. If
	// nil, logs are discarded.
	Logger *slog.Logger

	// Detectors is the detector chain, run in order for every type
	// that is not registered with [Builder.Fixed].
	Detectors []Detector

	// TagName is the struct tag key for field names. A field tagged
	// `objmap:"name"` maps to key "name", and a field tagged
	// `objmap:"-"` is not serialized or assigned.
	TagName string
	// FieldName derives universal map keys from Go field and getter
	// names.
	FieldName func(goName string) string
	// DetectGetters is whether methods with no arguments and one
	// result are serialization fields.
	DetectGetters bool

	// Filters strike out candidates before preferences apply. All
	// filters must allow a candidate for it to survive.
	PrimitiveSerializerFilters   []Filter[*PrimitiveSerializer]
	PrimitiveDeserializerFilters []Filter[*PrimitiveDeserializer]
	FieldFilters                 []Filter[*Field]
	ObjectDeserializerFilters    []Filter[*ObjectDeserializer]

	// Preferences narrow the surviving candidates. They apply in
	// order, and the first preference that matches some candidates
	// wins.
	PrimitiveSerializerPreferences   []Preference[*PrimitiveSerializer]
	PrimitiveDeserializerPreferences []Preference[*PrimitiveDeserializer]
	FieldPreferences                 []Preference[*Field]
	ObjectDeserializerPreferences    []Preference[*ObjectDeserializer]

	// Hints decide between a custom primitive and a serialized
	// object when a type could be either. A hinted candidate always
	// wins over an unhinted one.
	PrimitiveSerializerHints   []Hint[*PrimitiveSerializer]
	PrimitiveDeserializerHints []Hint[*PrimitiveDeserializer]
	ObjectDeserializerHints    []Hint[*ObjectDeserializer]
}

// Names used by the default configuration.
const (
	// DefaultPrimitiveMethod is the method name preferred for
	// custom primitive serialization.
	DefaultPrimitiveMethod = "StringValue"
	// DefaultPrimitiveFactory is the factory name preferred for
	// custom primitive deserialization.
	DefaultPrimitiveFactory = "FromStringValue"
	// DefaultObjectFactory is the factory name preferred for
	// serialized object deserialization.
	DefaultObjectFactory = "Deserialize"
)

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Detectors:     DefaultDetectors(),
		TagName:       "objmap",
		FieldName:     LowerCamel,
		DetectGetters: true,

		PrimitiveSerializerFilters: []Filter[*PrimitiveSerializer]{
			IgnoreMethods[*PrimitiveSerializer]("String", "GoString", "Error"),
		},
		FieldFilters: []Filter[*Field]{
			IgnoreMethods[*Field]("String", "GoString", "Error"),
			IgnoreSkippedFields(),
			IgnoreGetterKinds(reflect.Interface, reflect.Func, reflect.Chan, reflect.UnsafePointer),
		},
		ObjectDeserializerFilters: []Filter[*ObjectDeserializer]{
			RequireExportedFields(),
		},

		PrimitiveSerializerPreferences: []Preference[*PrimitiveSerializer]{
			PreferOrigin[*PrimitiveSerializer](OriginText),
			PreferNamed[*PrimitiveSerializer](DefaultPrimitiveMethod),
			PreferOrigin[*PrimitiveSerializer](OriginConversion),
		},
		PrimitiveDeserializerPreferences: []Preference[*PrimitiveDeserializer]{
			PreferOrigin[*PrimitiveDeserializer](OriginText),
			PreferOrigin[*PrimitiveDeserializer](OriginConversion),
			PreferNamed[*PrimitiveDeserializer](DefaultPrimitiveFactory),
		},
		FieldPreferences: []Preference[*Field]{
			PreferOrigin[*Field](OriginStructField),
		},
		ObjectDeserializerPreferences: []Preference[*ObjectDeserializer]{
			PreferNamed[*ObjectDeserializer](DefaultObjectFactory),
			PreferConstructor[*ObjectDeserializer](),
			PreferOrigin[*ObjectDeserializer](OriginFactory),
		},

		PrimitiveSerializerHints: []Hint[*PrimitiveSerializer]{
			HintOrigin[*PrimitiveSerializer](OriginText),
			HintNamed[*PrimitiveSerializer](DefaultPrimitiveMethod),
		},
		PrimitiveDeserializerHints: []Hint[*PrimitiveDeserializer]{
			HintOrigin[*PrimitiveDeserializer](OriginText),
			HintNamed[*PrimitiveDeserializer](DefaultPrimitiveFactory),
		},
		ObjectDeserializerHints: []Hint[*ObjectDeserializer]{
			HintNamed[*ObjectDeserializer](DefaultObjectFactory),
		},
	}
}

// logger returns the configured logger, or a logger that discards
// everything.
func (c *Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// clone returns a copy of c that shares no slices with c.
func (c *Config) clone() *Config {
	ret := *c
	ret.Detectors = slices.Clone(c.Detectors)
	ret.PrimitiveSerializerFilters = slices.Clone(c.PrimitiveSerializerFilters)
	ret.PrimitiveDeserializerFilters = slices.Clone(c.PrimitiveDeserializerFilters)
	ret.FieldFilters = slices.Clone(c.FieldFilters)
	ret.ObjectDeserializerFilters = slices.Clone(c.ObjectDeserializerFilters)
	ret.PrimitiveSerializerPreferences = slices.Clone(c.PrimitiveSerializerPreferences)
	ret.PrimitiveDeserializerPreferences = slices.Clone(c.PrimitiveDeserializerPreferences)
	ret.FieldPreferences = slices.Clone(c.FieldPreferences)
	ret.ObjectDeserializerPreferences = slices.Clone(c.ObjectDeserializerPreferences)
	ret.PrimitiveSerializerHints = slices.Clone(c.PrimitiveSerializerHints)
	ret.PrimitiveDeserializerHints = slices.Clone(c.PrimitiveDeserializerHints)
	ret.ObjectDeserializerHints = slices.Clone(c.ObjectDeserializerHints)
	if ret.FieldName == nil {
		ret.FieldName = LowerCamel
	}
	if ret.TagName == "" {
		ret.TagName = "objmap"
	}
	return &ret
}
