package objmap

import (
	"cmp"
	"fmt"
	"reflect"
	"slices"

	"github.com/danderson/objmap/universal"
)

// pointerStrategy maps *T as T, with nil pointers as null.
type pointerStrategy struct {
	t reflect.Type
}

func (p pointerStrategy) Description() string {
	return "pointer to " + p.t.Elem().String()
}

func (p pointerStrategy) RequiredTypes() []TypeID {
	return requiredTypes(p.t.Elem())
}

func (p pointerStrategy) Serialize(sc *SerializeContext, v reflect.Value) (universal.Value, error) {
	if v.IsNil() {
		return universal.Null{}, nil
	}
	return sc.Serialize(p.t.Elem(), v.Elem())
}

func (p pointerStrategy) Deserialize(dc *DeserializeContext, in universal.Value) (reflect.Value, error) {
	if universal.KindOf(in) == universal.KindNull {
		return reflect.Zero(p.t), nil
	}
	before := dc.failures()
	elem, err := dc.Deserialize(p.t.Elem(), in)
	if err != nil {
		return reflect.Value{}, err
	}
	if dc.failures() > before {
		return reflect.Value{}, nil
	}
	ret := reflect.New(p.t.Elem())
	ret.Elem().Set(elem)
	return ret, nil
}

// listStrategy maps slices and arrays to universal lists. Nil slices
// map to null.
type listStrategy struct {
	t reflect.Type
}

func (l listStrategy) Description() string {
	if l.t.Kind() == reflect.Array {
		return fmt.Sprintf("list of %d %s", l.t.Len(), l.t.Elem())
	}
	return "list of " + l.t.Elem().String()
}

func (l listStrategy) RequiredTypes() []TypeID {
	return requiredTypes(l.t.Elem())
}

func (l listStrategy) Serialize(sc *SerializeContext, v reflect.Value) (universal.Value, error) {
	if v.Kind() == reflect.Slice && v.IsNil() {
		return universal.Null{}, nil
	}
	et := l.t.Elem()
	ret := make(universal.List, 0, v.Len())
	for i := range v.Len() {
		ev, err := sc.SerializeChild(indexKey(i), et, v.Index(i))
		if err != nil {
			return nil, err
		}
		ret = append(ret, ev)
	}
	return ret, nil
}

func (l listStrategy) Deserialize(dc *DeserializeContext, in universal.Value) (reflect.Value, error) {
	if universal.KindOf(in) == universal.KindNull {
		return reflect.Zero(l.t), nil
	}
	lst, ok := in.(universal.List)
	if !ok {
		return reflect.Value{}, dc.mismatch(l.t, universal.KindList, in)
	}
	var ret reflect.Value
	if l.t.Kind() == reflect.Array {
		if len(lst) != l.t.Len() {
			return reflect.Value{}, dc.valueErr(l.t, fmt.Sprintf("expected %d elements, got %d", l.t.Len(), len(lst)))
		}
		ret = reflect.New(l.t).Elem()
	} else {
		ret = reflect.MakeSlice(l.t, len(lst), len(lst))
	}
	et := l.t.Elem()
	for i, e := range lst {
		ev, err := dc.DeserializeChild(indexKey(i), et, e)
		if err != nil {
			return reflect.Value{}, err
		}
		ret.Index(i).Set(ev)
	}
	return ret, nil
}

// mapStrategy maps Go maps with string-kinded keys to universal
// maps. Entries are serialized in key order, and nil maps map to
// null.
type mapStrategy struct {
	t reflect.Type
}

func (m mapStrategy) Description() string {
	return fmt.Sprintf("map of %s to %s", m.t.Key(), m.t.Elem())
}

func (m mapStrategy) RequiredTypes() []TypeID {
	return requiredTypes(m.t.Key(), m.t.Elem())
}

func (m mapStrategy) Serialize(sc *SerializeContext, v reflect.Value) (universal.Value, error) {
	if v.IsNil() {
		return universal.Null{}, nil
	}
	kt, vt := m.t.Key(), m.t.Elem()
	type entry struct {
		key string
		val reflect.Value
	}
	entries := make([]entry, 0, v.Len())
	iter := v.MapRange()
	for iter.Next() {
		k, err := sc.Serialize(kt, iter.Key())
		if err != nil {
			return nil, err
		}
		ks, ok := k.(universal.String)
		if !ok {
			return nil, sc.valueErr(m.t, fmt.Sprintf("map key serialized as %s, want string", universal.KindOf(k)))
		}
		entries = append(entries, entry{string(ks), iter.Value()})
	}
	slices.SortFunc(entries, func(a, b entry) int {
		return cmp.Compare(a.key, b.key)
	})

	ret := make(universal.Map, 0, len(entries))
	for _, e := range entries {
		ev, err := sc.SerializeChild(e.key, vt, e.val)
		if err != nil {
			return nil, err
		}
		ret = append(ret, universal.Entry{Key: e.key, Value: ev})
	}
	return ret, nil
}

func (m mapStrategy) Deserialize(dc *DeserializeContext, in universal.Value) (reflect.Value, error) {
	if universal.KindOf(in) == universal.KindNull {
		return reflect.Zero(m.t), nil
	}
	um, ok := in.(universal.Map)
	if !ok {
		return reflect.Value{}, dc.mismatch(m.t, universal.KindMap, in)
	}
	kt, vt := m.t.Key(), m.t.Elem()
	ret := reflect.MakeMapWithSize(m.t, len(um))
	for _, e := range um {
		kv, err := dc.DeserializeChild(e.Key, kt, universal.String(e.Key))
		if err != nil {
			return reflect.Value{}, err
		}
		ev, err := dc.DeserializeChild(e.Key, vt, e.Value)
		if err != nil {
			return reflect.Value{}, err
		}
		ret.SetMapIndex(kv, ev)
	}
	return ret, nil
}
