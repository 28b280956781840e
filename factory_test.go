package objmap

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestFactoryValidation(t *testing.T) {
	tests := []struct {
		name    string
		fn      any
		names   []string
		wantErr string
	}{
		{"not a func", 42, nil, "must be a non-nil function"},
		{"nil func", (func(int) Point)(nil), nil, "must be a non-nil function"},
		{"variadic", func(xs ...int) Point { return Point{} }, []string{"xs"}, "must not be variadic"},
		{"no result", func(int) {}, nil, "must return T or (T, error)"},
		{"bad second result", func(int) (Point, bool) { return Point{}, false }, nil, "second result must be error"},
		{"wrong name count", func(x, y int) Point { return Point{x, y} }, []string{"x"}, "takes 2 parameters, but 1 names were given"},
		{"empty name", func(x, y int) Point { return Point{x, y} }, []string{"x", ""}, "empty parameter name"},
		{"duplicate name", func(x, y int) Point { return Point{x, y} }, []string{"x", "x"}, `duplicate parameter name "x"`},
		{"unnamed multi-arg", func(x, y int) Point { return Point{x, y} }, nil, "needs parameter names"},
		{"unnamed non-scalar", func(p Point) Color { return Color{} }, nil, "must take a single string, bool or number"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := newFactory(tc.fn, tc.names)
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("newFactory error = %v, want error containing %q", err, tc.wantErr)
			}
		})
	}
}

func TestFactorySignatures(t *testing.T) {
	f, err := newFactory(NewStrict, []string{"n"})
	if err != nil {
		t.Fatal(err)
	}
	if f.out != reflect.TypeFor[Strict]() || !f.ptr || !f.hasErr || !f.named {
		t.Errorf("NewStrict: out=%s ptr=%v hasErr=%v named=%v", f.out, f.ptr, f.hasErr, f.named)
	}
	if got, want := f.String(), "objmap.NewStrict(n)"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	if f.ident != "NewStrict" {
		t.Errorf("ident = %q, want NewStrict", f.ident)
	}

	f, err = newFactory(ParseColor, nil)
	if err != nil {
		t.Fatal(err)
	}
	if f.out != reflect.TypeFor[Color]() || f.ptr || f.named {
		t.Errorf("ParseColor: out=%s ptr=%v named=%v", f.out, f.ptr, f.named)
	}
	if got, want := f.String(), "objmap.ParseColor(string)"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestFactoryCall(t *testing.T) {
	f, err := newFactory(NewStrict, []string{"n"})
	if err != nil {
		t.Fatal(err)
	}
	dc := newDeserializeContext(nil)

	got := f.call(dc, []reflect.Value{reflect.ValueOf(3)})
	if s, ok := got.Interface().(Strict); !ok || s.N != 3 {
		t.Errorf("call(3) = %v, want Strict{3}", got)
	}

	dc.push("n")
	got = f.call(dc, []reflect.Value{reflect.ValueOf(-3)})
	dc.pop()
	if got.IsValid() {
		t.Errorf("call(-3) = %v, want invalid value", got)
	}
	err = dc.validationErr()
	if !errors.Is(err, errNegative) {
		t.Fatalf("validation error %v does not wrap the factory error", err)
	}
	var ve *ValidationError
	if errors.As(err, &ve) && ve.Errors[0].Path != "n" {
		t.Errorf("failure recorded at %q, want n", ve.Errors[0].Path)
	}

	nilFactory, err := newFactory(func(n int) (*Strict, error) { return nil, nil }, []string{"n"})
	if err != nil {
		t.Fatal(err)
	}
	dc = newDeserializeContext(nil)
	nilFactory.call(dc, []reflect.Value{reflect.ValueOf(1)})
	if err := dc.validationErr(); !errors.Is(err, errNilFactoryResult) {
		t.Errorf("nil factory result gave %v, want errNilFactoryResult", err)
	}
}

func TestBuilderReportsFactoryErrors(t *testing.T) {
	_, err := NewBuilder(nil).
		Factory(func(a, b int) Pair { return Pair{} }).
		Add(TypeFor[Pair](), Duplex).
		Build()
	if err == nil || !strings.Contains(err.Error(), "needs parameter names") {
		t.Errorf("Build with a bad factory returned %v", err)
	}

	_, err = NewBuilder(nil).Add(TypeID{}, Duplex).Build()
	if err == nil {
		t.Error("Build with the zero TypeID succeeded")
	}
	_, err = NewBuilder(nil).Add(TypeFor[Point](), 0).Build()
	if err == nil {
		t.Error("Build with an empty capability succeeded")
	}
	_, err = NewBuilder(nil).AddWithReason(TypeFor[Point](), Duplex, BecauseOf(TypeFor[Shape]())).Build()
	if err == nil {
		t.Error("Build with a non-root reason succeeded")
	}
}
