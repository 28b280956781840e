package objmap

import (
	"fmt"
	"iter"
	"strings"
)

// Definition is the resolved strategy of one type.
type Definition struct {
	Type TypeID
	// Serializer is nil if the type does not support
	// serialization.
	Serializer TypeSerializer
	// Deserializer is nil if the type does not support
	// deserialization.
	Deserializer TypeDeserializer
	// Scan records how the strategy was chosen.
	Scan *ScanInfo
}

// Capability returns the capabilities the definition supports.
func (d *Definition) Capability() Capability {
	var ret Capability
	if d.Serializer != nil {
		ret |= Serialization
	}
	if d.Deserializer != nil {
		ret |= Deserialization
	}
	return ret
}

func (d *Definition) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s)", d.Type, d.Capability())
	if d.Serializer != nil {
		fmt.Fprintf(&b, "\n  serializer: %s", d.Serializer.Description())
	}
	if d.Deserializer != nil {
		fmt.Fprintf(&b, "\n  deserializer: %s", d.Deserializer.Description())
	}
	return b.String()
}

// Definitions is the set of definitions produced by [Builder.Build].
type Definitions struct {
	defs  []*Definition
	index map[TypeID]*Definition
}

func (d *Definitions) add(def *Definition) {
	if d.index == nil {
		d.index = map[TypeID]*Definition{}
	}
	d.defs = append(d.defs, def)
	d.index[def.Type] = def
}

// Lookup returns the definition of id, if any.
func (d *Definitions) Lookup(id TypeID) (*Definition, bool) {
	ret, ok := d.index[id]
	return ret, ok
}

// All iterates over the definitions in the order their types were
// first reached.
func (d *Definitions) All() iter.Seq[*Definition] {
	return func(yield func(*Definition) bool) {
		for _, def := range d.defs {
			if !yield(def) {
				return
			}
		}
	}
}

// Len returns the number of definitions.
func (d *Definitions) Len() int {
	return len(d.defs)
}

// String dumps all definitions in a human-readable form.
func (d *Definitions) String() string {
	var b strings.Builder
	for _, def := range d.defs {
		b.WriteString(def.String())
		b.WriteByte('\n')
	}
	return b.String()
}

// Dump renders the scan information of every definition.
func (d *Definitions) Dump() string {
	var b strings.Builder
	for _, def := range d.defs {
		b.WriteString(def.Scan.String())
	}
	return b.String()
}

// Failure is a type for which no strategy could be found.
type Failure struct {
	Type       TypeID
	Capability Capability
	Reason     string
	// Chain lists the chains of types that led to Type being
	// required, e.g. "Email -> EmailAddress -> manually added".
	Chain []string
	Scan  *ScanInfo
}

func (f Failure) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s): %s", f.Type, f.Capability, indent(f.Reason, "  "))
	for _, c := range f.Chain {
		fmt.Fprintf(&b, "\n  required by: %s", c)
	}
	return b.String()
}

// Report is the outcome of [Builder.Build].
type Report struct {
	Failures []Failure
}

// OK reports whether every type was resolved.
func (r *Report) OK() bool {
	return len(r.Failures) == 0
}

func (r *Report) String() string {
	if r.OK() {
		return "all types resolved"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d type(s) could not be mapped:", len(r.Failures))
	for _, f := range r.Failures {
		b.WriteString("\n")
		b.WriteString(f.String())
	}
	return b.String()
}

// Err returns a [BuildError] if the report has failures, or nil.
func (r *Report) Err() error {
	if r.OK() {
		return nil
	}
	return &BuildError{Report: r}
}
