package objmap

import (
	"fmt"
	"slices"

	"github.com/creachadair/mds/mapset"
)

// Capability is a set of mapping directions a type must support.
type Capability uint8

const (
	// Serialization is the ability to turn a Go value into a
	// universal value.
	Serialization Capability = 1 << iota
	// Deserialization is the ability to build a Go value from a
	// universal value.
	Deserialization

	// Duplex is both Serialization and Deserialization.
	Duplex = Serialization | Deserialization
)

// halves are the single capabilities, in processing order.
var halves = [...]Capability{Serialization, Deserialization}

// Has reports whether c includes all of o. Has is false if o is
// empty.
func (c Capability) Has(o Capability) bool {
	return o != 0 && c&o == o
}

func (c Capability) String() string {
	switch c {
	case 0:
		return "none"
	case Serialization:
		return "serialization"
	case Deserialization:
		return "deserialization"
	case Duplex:
		return "duplex"
	default:
		return fmt.Sprintf("Capability(%d)", uint8(c))
	}
}

// index returns the array index of a single capability.
func (c Capability) index() int {
	switch c {
	case Serialization:
		return 0
	case Deserialization:
		return 1
	default:
		panic(fmt.Sprintf("index of non-single capability %s", c))
	}
}

// Reason records why a type must support a capability: either
// because of a root registration, or because another type's
// strategy requires it.
//
// Reasons are comparable. A type keeps one set of reasons per
// capability, and supports a capability exactly when that set is
// non-empty.
type Reason struct {
	root   string
	parent TypeID
}

// ManuallyAdded is the reason given to types registered directly
// with a [Builder].
func ManuallyAdded() Reason {
	return Reason{root: "manually added"}
}

// RootReason returns a root reason with a custom explanation.
func RootReason(text string) Reason {
	if text == "" {
		panic("objmap: RootReason called with empty text")
	}
	return Reason{root: text}
}

// BecauseOf returns the reason given to types required by parent's
// strategy.
func BecauseOf(parent TypeID) Reason {
	return Reason{parent: parent}
}

// IsRoot reports whether r is a root registration reason.
func (r Reason) IsRoot() bool {
	return r.root != ""
}

// Parent returns the type that caused r, if r is not a root reason.
func (r Reason) Parent() (TypeID, bool) {
	return r.parent, r.root == ""
}

func (r Reason) String() string {
	if r.root != "" {
		return r.root
	}
	return "because of " + r.parent.String()
}

// reasonSet is the set of reasons for one capability of one type.
type reasonSet = mapset.Set[Reason]

// chainLimit bounds the number of reason chains rendered for one
// type, since chains multiply across diamond-shaped dependencies.
const chainLimit = 32

// reasonChains renders the chains of reasons that lead from id's
// capability c back to root registrations, e.g. "Email -> manually
// added". Cycles are cut short with "...". reasonsOf returns the
// reasons recorded for a type, in a stable order so that the first
// chainLimit chains are the same on every build.
func reasonChains(id TypeID, c Capability, reasonsOf func(TypeID, Capability) []Reason) []string {
	ret := mapset.New[string]()
	onPath := mapset.New[TypeID]()
	var walk func(id TypeID, prefix string)
	walk = func(id TypeID, prefix string) {
		if ret.Len() >= chainLimit {
			return
		}
		prefix += id.String()
		if onPath.Has(id) {
			ret.Add(prefix + "...")
			return
		}
		onPath.Add(id)
		defer onPath.Remove(id)
		rs := reasonsOf(id, c)
		if len(rs) == 0 {
			ret.Add(prefix + " -> (no reason)")
			return
		}
		for _, r := range rs {
			if ret.Len() >= chainLimit {
				return
			}
			if r.IsRoot() {
				ret.Add(prefix + " -> " + r.root)
			} else {
				walk(r.parent, prefix+" -> ")
			}
		}
	}
	walk(id, "")
	out := ret.Slice()
	slices.Sort(out)
	return out
}
