package objmap

import (
	"fmt"
	"reflect"
	"strings"
	"unicode"
)

// structField is the information about a struct field that can be
// serialized or assigned.
type structField struct {
	// Name is the Go name of the field.
	Name string
	// Key is the field's key in a universal map.
	Key   string
	Index [][]int
	Type  reflect.Type
	// Skip is whether the field is tagged `objmap:"-"`.
	Skip bool
}

// GetWithZero loads the struct field from structVal. If loading
// requires traversing a nil pointer into an embedded struct,
// GetWithZero returns a non-settable zero value of the field.
func (f *structField) GetWithZero(structVal reflect.Value) reflect.Value {
	v := structVal
	for i, hop := range f.Index {
		if i > 0 {
			if v.IsNil() {
				return reflect.Zero(f.Type)
			}
			v = v.Elem()
		}
		v = v.FieldByIndex(hop)
	}
	return v
}

// GetWithAlloc loads the struct field from structVal. If loading
// requires traversing a nil pointer into an embedded struct,
// GetWithAlloc allocates zero values appropriately. The returned
// [reflect.Value] is settable.
func (f *structField) GetWithAlloc(structVal reflect.Value) reflect.Value {
	v := structVal
	for i, hop := range f.Index {
		if i > 0 {
			if v.IsNil() {
				v.Set(reflect.New(v.Type().Elem()))
			}
			v = v.Elem()
		}
		v = v.FieldByIndex(hop)
	}
	return v
}

func (f *structField) String() string {
	kindStr := ""
	if ks := f.Type.Kind().String(); ks != f.Type.String() {
		kindStr = fmt.Sprintf(" (%s)", ks)
	}
	skip := ""
	if f.Skip {
		skip = ", skipped"
	}
	return fmt.Sprintf("%s %q: %s%s at %v%s", f.Name, f.Key, f.Type, kindStr, f.Index, skip)
}

// structInfo is the information about a struct relevant to
// serialization and deserialization.
type structInfo struct {
	// Name is the struct's name, for use in diagnostics.
	Name string
	// Type is the struct's type, for use in diagnostics.
	Type reflect.Type

	// StructFields is the information about each exported struct
	// field, in declaration order.
	StructFields []*structField
	// Unexported is the names of the struct's unexported fields.
	Unexported []string
}

func (s *structInfo) String() string {
	var ret strings.Builder
	fmt.Fprintf(&ret, "%s: struct, fields:\n", s.Name)
	for _, f := range s.StructFields {
		ret.WriteString(f.String())
		ret.WriteByte('\n')
	}
	if len(s.Unexported) > 0 {
		fmt.Fprintf(&ret, "unexported: %s\n", strings.Join(s.Unexported, ", "))
	}
	return ret.String()
}

// Assignable returns the fields that field assignment sets.
func (s *structInfo) Assignable() []*structField {
	var ret []*structField
	for _, f := range s.StructFields {
		if !f.Skip {
			ret = append(ret, f)
		}
	}
	return ret
}

// getStructInfo returns the structInfo for t, using tag to read
// struct tags and naming to derive default keys from field names.
//
// getStructInfo returns an error if t is not a struct, or if two
// fields map to the same key.
func getStructInfo(t reflect.Type, tag string, naming func(string) string) (*structInfo, error) {
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%s is not a struct", t)
	}

	ret := &structInfo{
		Name: t.String(),
		Type: t,
	}

	// Embedded fields follow Go's visibility rules: the shallowest
	// field of a given name wins, and equally shallow fields of the
	// same name hide each other.
	type candidate struct {
		field reflect.StructField
		count int
	}
	var (
		order []string
		best  = map[string]*candidate{}
	)
	for field := range structFields(t, nil) {
		if !field.IsExported() {
			if field.Name != "_" {
				ret.Unexported = append(ret.Unexported, field.Name)
			}
			continue
		}
		prev := best[field.Name]
		switch {
		case prev == nil:
			order = append(order, field.Name)
			best[field.Name] = &candidate{field, 1}
		case len(field.Index) < len(prev.field.Index):
			*prev = candidate{field, 1}
		case len(field.Index) == len(prev.field.Index):
			prev.count++
		}
	}

	keys := map[string]string{}
	for _, name := range order {
		c := best[name]
		if c.count > 1 {
			continue
		}
		key, skip := parseStructTag(c.field, tag)
		if key == "" {
			key = naming(c.field.Name)
		}
		if !skip {
			if prev, ok := keys[key]; ok {
				return nil, fmt.Errorf("fields %s.%s and %s.%s both map to key %q", ret.Name, prev, ret.Name, c.field.Name, key)
			}
			keys[key] = c.field.Name
		}
		ret.StructFields = append(ret.StructFields, &structField{
			Name:  c.field.Name,
			Key:   key,
			Type:  c.field.Type,
			Index: allocSteps(t, c.field.Index),
			Skip:  skip,
		})
	}

	return ret, nil
}

// parseStructTag returns the information contained in field's struct
// tag: an explicit key, and whether the field is excluded.
func parseStructTag(field reflect.StructField, tag string) (key string, skip bool) {
	val := field.Tag.Get(tag)
	if val == "-" {
		return "", true
	}
	key, _, _ = strings.Cut(val, ",")
	return key, false
}

// LowerCamel is the default field naming function. It lowercases the
// leading run of capitals of a Go name, keeping the start of the next
// word: "Sender" becomes "sender", "ID" becomes "id" and "URLPath"
// becomes "urlPath".
func LowerCamel(name string) string {
	rs := []rune(name)
	n := 0
	for n < len(rs) && unicode.IsUpper(rs[n]) {
		n++
	}
	if n > 1 && n < len(rs) {
		n--
	}
	for i := range n {
		rs[i] = unicode.ToLower(rs[i])
	}
	return string(rs)
}

// getterName returns the field name for a getter method, dropping a
// "Get" prefix.
func getterName(method string) string {
	if rest, ok := strings.CutPrefix(method, "Get"); ok && rest != "" && unicode.IsUpper([]rune(rest)[0]) {
		return rest
	}
	return method
}
