// Package codec provides marshallers that convert universal values
// to and from text formats.
package codec

import (
	"fmt"

	"github.com/danderson/objmap/universal"
)

// A Marshaller encodes universal values to a text format, and decodes
// them back.
type Marshaller interface {
	// Name is the format's short name, e.g. "json".
	Name() string
	Marshal(v universal.Value) ([]byte, error)
	Unmarshal(data []byte) (universal.Value, error)
}

var all = []Marshaller{JSON{}, YAML{}, XML{}}

// All returns the built-in marshallers.
func All() []Marshaller {
	return append([]Marshaller(nil), all...)
}

// ByName returns the built-in marshaller with the given name.
func ByName(name string) (Marshaller, error) {
	for _, m := range all {
		if m.Name() == name {
			return m, nil
		}
	}
	return nil, fmt.Errorf("unknown format %q", name)
}
