package objmap

import "reflect"

// TypeID identifies a type known to a [Builder]. It is either a real
// Go type, or a virtual type that exists only as a name and must be
// given fixed strategies with [Builder.Fixed].
//
// TypeIDs are comparable, and two TypeIDs are equal exactly when they
// refer to the same Go type or the same virtual name.
type TypeID struct {
	t       reflect.Type
	virtual string
}

// TypeOf returns the TypeID of t.
func TypeOf(t reflect.Type) TypeID {
	if t == nil {
		panic("objmap: TypeOf called with nil type")
	}
	return TypeID{t: t}
}

// TypeFor returns the TypeID of T.
func TypeFor[T any]() TypeID {
	return TypeID{t: reflect.TypeFor[T]()}
}

// VirtualType returns the TypeID of the virtual type with the given
// name.
func VirtualType(name string) TypeID {
	if name == "" {
		panic("objmap: VirtualType called with empty name")
	}
	return TypeID{virtual: name}
}

// Type returns the Go type of id, or nil for virtual types.
func (id TypeID) Type() reflect.Type {
	return id.t
}

// IsVirtual reports whether id is a virtual type.
func (id TypeID) IsVirtual() bool {
	return id.t == nil && id.virtual != ""
}

// IsZero reports whether id is the zero TypeID.
func (id TypeID) IsZero() bool {
	return id == TypeID{}
}

func (id TypeID) String() string {
	switch {
	case id.t != nil:
		return id.t.String()
	case id.virtual != "":
		return "virtual(" + id.virtual + ")"
	default:
		return "<no type>"
	}
}
