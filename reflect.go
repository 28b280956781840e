package objmap

import (
	"iter"
	"reflect"
	"slices"
)

// allocSteps partitions a multi-hop traversal of struct fields into
// segments that end at either the final value, or at a struct pointer
// that might be nil.
//
// This partition is used by [structField.GetWithZero] and
// [structField.GetWithAlloc] to load embedded struct fields that
// require traversing a nil pointer.
func allocSteps(t reflect.Type, idx []int) [][]int {
	var ret [][]int
	prev := 0
	t = t.Field(idx[0]).Type
	for i := 1; i < len(idx); i++ {
		if t.Kind() == reflect.Pointer && t.Elem().Kind() == reflect.Struct {
			// Hop through a struct pointer that might be nil, cut.
			ret = append(ret, idx[prev:i])
			prev = i
			t = t.Elem()
		}
		t = t.Field(idx[i]).Type
	}
	ret = append(ret, idx[prev:])
	return ret
}

func structFields(t reflect.Type, idx []int) iter.Seq[reflect.StructField] {
	return func(yield func(reflect.StructField) bool) {
		for i := range t.NumField() {
			f := t.Field(i)
			idx = append(idx, i)
			if f.Anonymous {
				at := f.Type
				if at.Kind() == reflect.Pointer {
					at = at.Elem()
				}
				if at.Kind() == reflect.Struct {
					for af := range structFields(at, idx) {
						if !yield(af) {
							return
						}
					}
					idx = idx[:len(idx)-1]
					continue
				}
			}
			f.Index = append([]int(nil), idx...)
			if !yield(f) {
				return
			}
			idx = idx[:len(idx)-1]
		}
	}
}

// getters iterates over the methods of t that look like getters:
// exported, no arguments and a single result.
func getters(t reflect.Type) iter.Seq[reflect.Method] {
	return func(yield func(reflect.Method) bool) {
		if t.Kind() == reflect.Interface {
			return
		}
		for i := range t.NumMethod() {
			m := t.Method(i)
			// m.Type includes the receiver.
			if !m.IsExported() || m.Type.NumIn() != 1 || m.Type.NumOut() != 1 {
				continue
			}
			if !yield(m) {
				return
			}
		}
	}
}

// requiredTypes returns the TypeIDs of ts, without duplicates, in
// order of first appearance.
func requiredTypes(ts ...reflect.Type) []TypeID {
	var ret []TypeID
	for _, t := range ts {
		id := TypeOf(t)
		if !slices.Contains(ret, id) {
			ret = append(ret, id)
		}
	}
	return ret
}
