package objmap

import (
	"errors"
	"fmt"

	"github.com/creachadair/mds/value"
)

// Builder collects types and factories, and resolves them into a
// [Mapper].
//
// A Builder is not safe for concurrent use.
type Builder struct {
	cfg       *Config
	roots     []rootReason
	factories factoryIndex
	fixed     map[TypeID]*fixedStrategy
	errs      []error
}

type rootReason struct {
	id     TypeID
	cap    Capability
	reason Reason
}

// NewBuilder returns a Builder that uses cfg. If cfg is nil,
// [DefaultConfig] is used.
func NewBuilder(cfg *Config) *Builder {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Builder{
		cfg:       cfg.clone(),
		factories: factoryIndex{},
		fixed:     map[TypeID]*fixedStrategy{},
	}
}

// Add requires the type id to support capability c.
func (b *Builder) Add(id TypeID, c Capability) *Builder {
	return b.AddWithReason(id, c, ManuallyAdded())
}

// AddWithReason is like Add, but records r as the reason id is
// required. r must be a root reason.
func (b *Builder) AddWithReason(id TypeID, c Capability, r Reason) *Builder {
	switch {
	case id.IsZero():
		b.errs = append(b.errs, errors.New("cannot add the zero TypeID"))
	case c == 0 || c&^Duplex != 0:
		b.errs = append(b.errs, fmt.Errorf("cannot add %s with invalid capability %s", id, c))
	case !r.IsRoot():
		b.errs = append(b.errs, fmt.Errorf("cannot add %s %s: %q is not a root reason", id, c, r))
	default:
		b.roots = append(b.roots, rootReason{id, c, r})
	}
	return b
}

// Factory registers fn as a factory for the type it returns.
//
// fn must return T, *T for a struct T, or (T, error). If names are
// given, there must be one per parameter of fn, and fn is a candidate
// for deserializing T as a serialized object, whose fields are the
// named parameters. Without names, fn must take a single bool, string
// or number, and is a candidate for deserializing T as a custom
// primitive.
//
// Errors in fn's signature are reported by [Builder.Build].
func (b *Builder) Factory(fn any, names ...string) *Builder {
	f, err := newFactory(fn, names)
	if err != nil {
		b.errs = append(b.errs, err)
		return b
	}
	b.factories.add(f)
	return b
}

// Fixed registers a fixed strategy for id, bypassing detection.
// Either ser or deser may be nil, in which case id cannot support
// that capability. Fixed does not require id to be mapped, use Add
// for that.
//
// Fixed is the only way to give a virtual type a strategy.
func (b *Builder) Fixed(id TypeID, ser TypeSerializer, deser TypeDeserializer) *Builder {
	if id.IsZero() {
		b.errs = append(b.errs, errors.New("cannot register a fixed strategy for the zero TypeID"))
		return b
	}
	f := &fixedStrategy{}
	if ser != nil {
		f.ser = value.Just(ser)
	}
	if deser != nil {
		f.deser = value.Just(deser)
	}
	b.fixed[id] = f
	return b
}

// Build resolves all added types, and the types they require, into a
// Mapper.
//
// If some types cannot be mapped, Build returns a [BuildError] whose
// report lists every failure and why each failed type was required.
// Build returns an [InternalError] if type resolution breaks its own
// invariants.
func (b *Builder) Build() (*Mapper, error) {
	defs, report, err := b.Explain()
	if err != nil {
		return nil, err
	}
	if err := report.Err(); err != nil {
		return nil, err
	}
	return newMapper(defs, report), nil
}

// Explain resolves the added types like Build, but returns the
// definitions and the report instead of failing on unmappable types.
// It is intended for diagnostics.
func (b *Builder) Explain() (*Definitions, *Report, error) {
	if len(b.errs) > 0 {
		return nil, nil, errors.Join(b.errs...)
	}
	p := newProcessor(b.cfg, b.factories, b.fixed)
	for _, r := range b.roots {
		for _, c := range halves {
			if r.cap.Has(c) {
				p.dispatch(addSignal(c, r.id, r.reason))
			}
		}
	}
	if err := p.run(); err != nil {
		return nil, nil, err
	}
	return collect(p)
}

// collect gathers the processor's final states into definitions and
// a report, and checks that every resolved strategy's requirements
// are accounted for.
func collect(p *processor) (*Definitions, *Report, error) {
	var (
		defs   = &Definitions{}
		report = &Report{}
		failed = map[TypeID]Capability{}
	)
	for _, n := range p.nodes {
		switch n.phase {
		case phaseUnreasoned:
		case phaseResolving:
			return nil, nil, internalErr("%s is still resolving", n.id)
		case phaseResolved:
			n.scan.SerializationReasons = reasonChains(n.id, Serialization, p.orderedReasonsOf)
			n.scan.DeserializationReasons = reasonChains(n.id, Deserialization, p.orderedReasonsOf)
			defs.add(&Definition{
				Type:         n.id,
				Serializer:   n.chosen.ser,
				Deserializer: n.chosen.deser,
				Scan:         n.scan,
			})
		case phaseUndetectable:
			var chain []string
			for _, c := range halves {
				if n.caps().Has(c) {
					chain = append(chain, reasonChains(n.id, c, p.orderedReasonsOf)...)
				}
			}
			if n.scan != nil {
				n.scan.SerializationReasons = reasonChains(n.id, Serialization, p.orderedReasonsOf)
				n.scan.DeserializationReasons = reasonChains(n.id, Deserialization, p.orderedReasonsOf)
			}
			report.Failures = append(report.Failures, Failure{
				Type:       n.id,
				Capability: n.caps(),
				Reason:     n.chosen.failure,
				Chain:      dedupe(chain),
				Scan:       n.scan,
			})
			failed[n.id] = n.caps()
		}
	}

	for def := range defs.All() {
		if def.Serializer != nil {
			for _, req := range def.Serializer.RequiredTypes() {
				if !provides(defs, failed, req, Serialization) {
					return nil, nil, internalErr("%s serializer requires %s, which was never resolved", def.Type, req)
				}
			}
		}
		if def.Deserializer != nil {
			for _, req := range def.Deserializer.RequiredTypes() {
				if !provides(defs, failed, req, Deserialization) {
					return nil, nil, internalErr("%s deserializer requires %s, which was never resolved", def.Type, req)
				}
			}
		}
	}
	return defs, report, nil
}

func provides(defs *Definitions, failed map[TypeID]Capability, id TypeID, c Capability) bool {
	if failed[id].Has(c) {
		return true
	}
	def, ok := defs.Lookup(id)
	return ok && def.Capability().Has(c)
}

func dedupe(ss []string) []string {
	var ret []string
	seen := map[string]bool{}
	for _, s := range ss {
		if !seen[s] {
			seen[s] = true
			ret = append(ret, s)
		}
	}
	return ret
}
