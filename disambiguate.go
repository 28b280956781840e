package objmap

import (
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/creachadair/mds/mapset"
	"github.com/danderson/objmap/universal"
)

// Verdict is the result of a [Filter].
type Verdict struct {
	denied  bool
	reasons []string
}

// Allowed returns a Verdict that keeps the candidate.
func Allowed() Verdict { return Verdict{} }

// Denied returns a Verdict that discards the candidate, with
// human-readable reasons.
func Denied(reasons ...string) Verdict {
	return Verdict{denied: true, reasons: reasons}
}

// OK reports whether the candidate is allowed.
func (v Verdict) OK() bool { return !v.denied }

// Reasons returns the reasons a candidate was denied.
func (v Verdict) Reasons() []string { return v.reasons }

// Filter decides whether a candidate strategy for type t may be
// used.
type Filter[T Candidate] func(t reflect.Type, c T) Verdict

// Preference selects the candidates it prefers.
type Preference[T Candidate] func(t reflect.Type, c T) bool

// Hint reports whether a candidate clearly signals that the type
// wants its shape: a custom primitive or a serialized object.
type Hint[T Candidate] func(t reflect.Type, c T) bool

// IgnoreMethods denies method and getter candidates with the given
// names.
func IgnoreMethods[T Candidate](names ...string) Filter[T] {
	ignore := mapset.New(names...)
	return func(t reflect.Type, c T) Verdict {
		switch c.Origin() {
		case OriginMethod, OriginGetter:
			if ignore.Has(c.Ident()) {
				return Denied(fmt.Sprintf("method %s is ignored", c.Ident()))
			}
		}
		return Allowed()
	}
}

// IgnoreSkippedFields denies struct fields tagged to be skipped.
func IgnoreSkippedFields() Filter[*Field] {
	return func(t reflect.Type, f *Field) Verdict {
		if f.Skip {
			return Denied("field is tagged to be skipped")
		}
		return Allowed()
	}
}

// IgnoreGetterKinds denies getters whose result is of one of the
// given kinds.
func IgnoreGetterKinds(kinds ...reflect.Kind) Filter[*Field] {
	ignore := mapset.New(kinds...)
	return func(t reflect.Type, f *Field) Verdict {
		if f.From == OriginGetter && ignore.Has(f.Type.Kind()) {
			return Denied(fmt.Sprintf("getter result %s is a %s", f.Type, f.Type.Kind()))
		}
		return Allowed()
	}
}

// RequireExportedFields denies field assignment for structs that
// have unexported fields, or no fields at all.
func RequireExportedFields() Filter[*ObjectDeserializer] {
	return func(t reflect.Type, o *ObjectDeserializer) Verdict {
		if o.From != OriginFieldAssignment {
			return Allowed()
		}
		if len(o.unexported) > 0 {
			return Denied("struct has unexported fields " + strings.Join(o.unexported, ", "))
		}
		if len(o.Params) == 0 {
			return Denied("struct has no assignable fields")
		}
		return Allowed()
	}
}

// PreferOrigin prefers candidates with one of the given origins.
func PreferOrigin[T Candidate](origins ...Origin) Preference[T] {
	return func(t reflect.Type, c T) bool {
		return slices.Contains(origins, c.Origin())
	}
}

// PreferNamed prefers method and factory candidates with one of the
// given names.
func PreferNamed[T Candidate](names ...string) Preference[T] {
	return func(t reflect.Type, c T) bool {
		return c.Ident() != "" && slices.Contains(names, c.Ident())
	}
}

// PreferConstructor prefers factories named after the type they
// build: NewEmail for type Email.
func PreferConstructor[T Candidate]() Preference[T] {
	return func(t reflect.Type, c T) bool {
		return c.Origin() == OriginFactory && t.Name() != "" && c.Ident() == "New"+t.Name()
	}
}

// HintOrigin hints candidates with one of the given origins.
func HintOrigin[T Candidate](origins ...Origin) Hint[T] {
	return Hint[T](PreferOrigin[T](origins...))
}

// HintNamed hints method and factory candidates with one of the
// given names.
func HintNamed[T Candidate](names ...string) Hint[T] {
	return Hint[T](PreferNamed[T](names...))
}

func applyFilters[T Candidate](t reflect.Type, filters []Filter[T], cs []T, scan *ScanInfo) []T {
	var ret []T
	for _, c := range cs {
		var denied []string
		for _, f := range filters {
			if v := f(t, c); !v.OK() {
				denied = append(denied, v.Reasons()...)
			}
		}
		if len(denied) > 0 {
			scan.ignore(c.Description(), denied...)
			continue
		}
		ret = append(ret, c)
	}
	return ret
}

func applyPreferences[T Candidate](t reflect.Type, prefs []Preference[T], cs []T, scan *ScanInfo) []T {
	if len(cs) < 2 {
		return cs
	}
	for _, p := range prefs {
		var pick, rest []T
		for _, c := range cs {
			if p(t, c) {
				pick = append(pick, c)
			} else {
				rest = append(rest, c)
			}
		}
		if len(pick) > 0 {
			for _, c := range rest {
				scan.ignore(c.Description(), "a preferred candidate exists")
			}
			return pick
		}
	}
	return cs
}

func isHinted[T Candidate](t reflect.Type, hints []Hint[T], c T) bool {
	for _, h := range hints {
		if h(t, c) {
			return true
		}
	}
	return false
}

// pickOne returns the single element of cs, or a failure describing
// why there isn't one.
func pickOne[T Candidate](what string, cs []T) (ret T, failure string) {
	switch len(cs) {
	case 0:
		return ret, "no " + what
	case 1:
		return cs[0], ""
	default:
		return ret, ambiguous(what, cs)
	}
}

func ambiguous[T Candidate](what string, cs []T) string {
	descs := make([]string, 0, len(cs))
	for _, c := range cs {
		descs = append(descs, c.Description())
	}
	return fmt.Sprintf("ambiguous %s: %s", what, strings.Join(descs, ", "))
}

// detection is the outcome of detecting a strategy for one type.
type detection struct {
	ser     TypeSerializer
	deser   TypeDeserializer
	failure string
}

func (d detection) failed() bool { return d.failure != "" }

// shape is one of the two ways of representing a type, as a custom
// primitive or a serialized object, ready for a tie break.
type shape struct {
	failure string
	hinted  bool
	// size is the number of fields of a serialized object.
	size int
}

// disambiguator picks a strategy for one type out of the candidates
// proposed by detectors.
type disambiguator struct {
	cfg  *Config
	t    reflect.Type
	scan *ScanInfo
}

// detectStrategy runs the detector chain on t, and picks the
// strategies that provide capability c.
func detectStrategy(env *DetectEnv, t reflect.Type, c Capability, scan *ScanInfo) detection {
	cands := runDetectors(env.cfg.Detectors, t, env)
	scan.Problems = append(scan.Problems, cands.Problems...)

	var det detection
	switch {
	case cands.Complete():
		if c.Has(Serialization) {
			if cands.Serializer == nil {
				det.failure = fmt.Sprintf("%s cannot be serialized", t)
			}
			det.ser = cands.Serializer
		}
		if c.Has(Deserialization) {
			if cands.Deserializer == nil {
				det.failure = fmt.Sprintf("%s cannot be deserialized", t)
			}
			det.deser = cands.Deserializer
		}
	case cands.IsEmpty():
		det.failure = fmt.Sprintf("no detector proposed a strategy for %s (kind %s)", t, t.Kind())
		if len(cands.Problems) > 0 {
			det.failure += ": " + strings.Join(cands.Problems, "; ")
		}
	default:
		d := &disambiguator{env.cfg, t, scan}
		switch c {
		case Serialization:
			det = d.serializationOnly(cands)
		case Deserialization:
			det = d.deserializationOnly(cands)
		case Duplex:
			det = d.duplex(cands)
		}
	}

	if det.failed() {
		det.ser, det.deser = nil, nil
		scan.Failure = det.failure
	} else {
		if det.ser != nil {
			scan.Serializer = det.ser.Description()
		}
		if det.deser != nil {
			scan.Deserializer = det.deser.Description()
		}
	}
	return det
}

// tieBreak decides between a custom primitive and a serialized
// object. It returns whether the primitive wins, or a failure if
// neither can.
func (d *disambiguator) tieBreak(what string, prim, obj shape) (usePrim bool, failure string) {
	switch {
	case prim.failure != "" && obj.failure != "":
		return false, fmt.Sprintf("no %s strategy for %s:\n  as custom primitive: %s\n  as serialized object: %s", what, d.t, indent(prim.failure, "    "), indent(obj.failure, "    "))
	case obj.failure != "":
		return true, ""
	case prim.failure != "":
		return false, ""
	case prim.hinted && obj.hinted:
		return false, fmt.Sprintf("unable to choose between serialized object and custom primitive for %s", d.t)
	case prim.hinted:
		d.scan.ignore("serialized object "+d.t.String(), "custom primitive is hinted")
		return true, ""
	case obj.hinted:
		d.scan.ignore("custom primitive "+d.t.String(), "serialized object is hinted")
		return false, ""
	case obj.size > 1:
		d.scan.ignore("custom primitive "+d.t.String(), "serialized object has several fields")
		return false, ""
	default:
		d.scan.ignore("serialized object "+d.t.String(), "custom primitive is preferred")
		return true, ""
	}
}

func (d *disambiguator) primitiveSerializer(cs []*PrimitiveSerializer) (*PrimitiveSerializer, shape) {
	cs = applyFilters(d.t, d.cfg.PrimitiveSerializerFilters, cs, d.scan)
	cs = applyPreferences(d.t, d.cfg.PrimitiveSerializerPreferences, cs, d.scan)
	ret, fail := pickOne("custom primitive serializer", cs)
	if fail != "" {
		return nil, shape{failure: fail}
	}
	return ret, shape{hinted: isHinted(d.t, d.cfg.PrimitiveSerializerHints, ret)}
}

func (d *disambiguator) primitiveDeserializer(cs []*PrimitiveDeserializer) (*PrimitiveDeserializer, shape) {
	cs = applyFilters(d.t, d.cfg.PrimitiveDeserializerFilters, cs, d.scan)
	cs = applyPreferences(d.t, d.cfg.PrimitiveDeserializerPreferences, cs, d.scan)
	ret, fail := pickOne("custom primitive deserializer", cs)
	if fail != "" {
		return nil, shape{failure: fail}
	}
	return ret, shape{hinted: isHinted(d.t, d.cfg.PrimitiveDeserializerHints, ret)}
}

// fieldGroup is the candidate serialization fields for one key.
type fieldGroup struct {
	key    string
	fields []*Field
}

// fieldGroups filters fs and groups the survivors by key, in order
// of first appearance.
func (d *disambiguator) fieldGroups(fs []*Field) []*fieldGroup {
	fs = applyFilters(d.t, d.cfg.FieldFilters, fs, d.scan)
	var ret []*fieldGroup
	idx := map[string]*fieldGroup{}
	for _, f := range fs {
		g := idx[f.Key]
		if g == nil {
			g = &fieldGroup{key: f.Key}
			idx[f.Key] = g
			ret = append(ret, g)
		}
		g.fields = append(g.fields, f)
	}
	for _, g := range ret {
		g.fields = applyPreferences(d.t, d.cfg.FieldPreferences, g.fields, d.scan)
	}
	return ret
}

func (d *disambiguator) objectSerializer(cands Candidates) (*objectSerializer, shape) {
	if d.t.Kind() != reflect.Struct && len(cands.Fields) == 0 {
		return nil, shape{failure: "not a struct"}
	}
	ret := &objectSerializer{t: d.t}
	for _, g := range d.fieldGroups(cands.Fields) {
		f, fail := pickOne(fmt.Sprintf("field %q", g.key), g.fields)
		if fail != "" {
			return nil, shape{failure: fail}
		}
		ret.fields = append(ret.fields, f)
	}
	return ret, shape{size: len(ret.fields)}
}

func (d *disambiguator) objectDeserializer(cs []*ObjectDeserializer) (*ObjectDeserializer, shape) {
	cs = applyFilters(d.t, d.cfg.ObjectDeserializerFilters, cs, d.scan)
	cs = applyPreferences(d.t, d.cfg.ObjectDeserializerPreferences, cs, d.scan)
	ret, fail := pickOne("object deserializer", cs)
	if fail != "" {
		return nil, shape{failure: fail}
	}
	return ret, shape{
		hinted: isHinted(d.t, d.cfg.ObjectDeserializerHints, ret),
		size:   len(ret.Params),
	}
}

func (d *disambiguator) serializationOnly(cands Candidates) detection {
	prim, ps := d.primitiveSerializer(cands.PrimitiveSerializers)
	obj, os := d.objectSerializer(cands)
	usePrim, fail := d.tieBreak("serialization", ps, os)
	switch {
	case fail != "":
		return detection{failure: fail}
	case usePrim:
		return detection{ser: prim}
	default:
		return detection{ser: obj}
	}
}

func (d *disambiguator) deserializationOnly(cands Candidates) detection {
	prim, ps := d.primitiveDeserializer(cands.PrimitiveDeserializers)
	obj, os := d.objectDeserializer(cands.ObjectDeserializers)
	usePrim, fail := d.tieBreak("deserialization", ps, os)
	switch {
	case fail != "":
		return detection{failure: fail}
	case usePrim:
		return detection{deser: prim}
	default:
		return detection{deser: obj}
	}
}

func (d *disambiguator) duplex(cands Candidates) detection {
	pser, pdeser, ps := d.symmetricPrimitive(cands)
	oser, odeser, os := d.symmetricObject(cands)
	usePrim, fail := d.tieBreak("duplex", ps, os)
	switch {
	case fail != "":
		return detection{failure: fail}
	case usePrim:
		return detection{ser: pser, deser: pdeser}
	default:
		return detection{ser: oser, deser: odeser}
	}
}

// symmetricPrimitive picks a custom primitive serializer and
// deserializer that agree on a universal scalar kind.
func (d *disambiguator) symmetricPrimitive(cands Candidates) (*PrimitiveSerializer, *PrimitiveDeserializer, shape) {
	sers := applyFilters(d.t, d.cfg.PrimitiveSerializerFilters, cands.PrimitiveSerializers, d.scan)
	desers := applyFilters(d.t, d.cfg.PrimitiveDeserializerFilters, cands.PrimitiveDeserializers, d.scan)
	if len(sers) == 0 || len(desers) == 0 {
		return nil, nil, shape{failure: "no custom primitive serializer and deserializer pair"}
	}

	var serKinds, both mapset.Set[universal.Kind]
	for _, s := range sers {
		serKinds.Add(s.Kind)
	}
	for _, ds := range desers {
		if serKinds.Has(ds.Kind) {
			both.Add(ds.Kind)
		}
	}
	if both.IsEmpty() {
		return nil, nil, shape{failure: "custom primitive serializers and deserializers do not agree on a universal kind"}
	}

	sers = slices.DeleteFunc(sers, func(s *PrimitiveSerializer) bool {
		if !both.Has(s.Kind) {
			d.scan.ignore(s.Description(), "no deserializer accepts "+s.Kind.String())
			return true
		}
		return false
	})
	sers = applyPreferences(d.t, d.cfg.PrimitiveSerializerPreferences, sers, d.scan)
	ser, fail := pickOne("custom primitive serializer", sers)
	if fail != "" {
		return nil, nil, shape{failure: fail}
	}

	desers = slices.DeleteFunc(desers, func(ds *PrimitiveDeserializer) bool {
		if ds.Kind != ser.Kind {
			d.scan.ignore(ds.Description(), "chosen serializer produces "+ser.Kind.String())
			return true
		}
		return false
	})
	desers = applyPreferences(d.t, d.cfg.PrimitiveDeserializerPreferences, desers, d.scan)
	deser, fail := pickOne("custom primitive deserializer", desers)
	if fail != "" {
		return nil, nil, shape{failure: fail}
	}

	hinted := isHinted(d.t, d.cfg.PrimitiveSerializerHints, ser) || isHinted(d.t, d.cfg.PrimitiveDeserializerHints, deser)
	return ser, deser, shape{hinted: hinted}
}

// symmetricObject picks an object deserializer whose every parameter
// has a serialization field of the same name and type, and builds
// the matching serializer. The deserializer with the most parameters
// wins.
func (d *disambiguator) symmetricObject(cands Candidates) (*objectSerializer, *ObjectDeserializer, shape) {
	if d.t.Kind() != reflect.Struct && len(cands.Fields) == 0 {
		return nil, nil, shape{failure: "not a struct"}
	}
	groups := map[string]*fieldGroup{}
	for _, g := range d.fieldGroups(cands.Fields) {
		groups[g.key] = g
	}

	desers := applyFilters(d.t, d.cfg.ObjectDeserializerFilters, cands.ObjectDeserializers, d.scan)
	desers = slices.DeleteFunc(desers, func(o *ObjectDeserializer) bool {
		for _, p := range o.Params {
			g := groups[p.Name]
			if g == nil || !slices.ContainsFunc(g.fields, func(f *Field) bool { return f.Type == p.Type }) {
				d.scan.ignore(o.Description(), fmt.Sprintf("no serialization field %q of type %s", p.Name, p.Type))
				return true
			}
		}
		return false
	})
	desers = applyPreferences(d.t, d.cfg.ObjectDeserializerPreferences, desers, d.scan)
	if len(desers) == 0 {
		return nil, nil, shape{failure: "no object deserializer matches the serialization fields"}
	}

	most := 0
	for _, o := range desers {
		most = max(most, len(o.Params))
	}
	desers = slices.DeleteFunc(desers, func(o *ObjectDeserializer) bool {
		if len(o.Params) < most {
			d.scan.ignore(o.Description(), "another deserializer covers more fields")
			return true
		}
		return false
	})
	deser, fail := pickOne("object deserializer", desers)
	if fail != "" {
		return nil, nil, shape{failure: fail}
	}

	ser := &objectSerializer{t: d.t}
	for _, p := range deser.Params {
		matching := slices.DeleteFunc(slices.Clone(groups[p.Name].fields), func(f *Field) bool { return f.Type != p.Type })
		f, fail := pickOne(fmt.Sprintf("field %q", p.Name), matching)
		if fail != "" {
			return nil, nil, shape{failure: fail}
		}
		ser.fields = append(ser.fields, f)
	}
	return ser, deser, shape{
		hinted: isHinted(d.t, d.cfg.ObjectDeserializerHints, deser),
		size:   len(deser.Params),
	}
}
