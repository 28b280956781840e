package universal

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"nulls", Null{}, nil, true},
		{"strings", String("a"), String("a"), true},
		{"different strings", String("a"), String("b"), false},
		{"number literals", Number("1"), Number("1.0"), true},
		{"number vs string", Number("1"), String("1"), false},
		{"lists", List{Int(1), String("x")}, List{Int(1), String("x")}, true},
		{"list length", List{Int(1)}, List{Int(1), Int(2)}, false},
		{"map order ignored",
			Map{{"a", Int(1)}, {"b", Bool(true)}},
			Map{{"b", Bool(true)}, {"a", Int(1)}},
			true},
		{"map missing key",
			Map{{"a", Int(1)}},
			Map{{"b", Int(1)}},
			false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Equal(tc.a, tc.b); got != tc.want {
				t.Errorf("Equal(%s, %s) = %v, want %v", Describe(tc.a), Describe(tc.b), got, tc.want)
			}
		})
	}
}

func TestMapSet(t *testing.T) {
	var m Map
	m = m.Set("a", Int(1))
	m = m.Set("b", Int(2))
	m = m.Set("a", Int(3))
	want := Map{{"a", Int(3)}, {"b", Int(2)}}
	if diff := cmp.Diff(m, want); diff != "" {
		t.Errorf("Set result wrong (-got+want):\n%s", diff)
	}
	if got := m.Keys(); !cmp.Equal(got, []string{"a", "b"}) {
		t.Errorf("Keys() = %v", got)
	}
}

func TestNumbers(t *testing.T) {
	if got, err := Number("1e3").Int64(); err != nil || got != 1000 {
		t.Errorf("Int64(1e3) = %v, %v", got, err)
	}
	if _, err := Number("1.5").Int64(); err == nil {
		t.Error("Int64(1.5) succeeded, want error")
	}
	if got, err := Uint(math.MaxUint64).Uint64(); err != nil || got != math.MaxUint64 {
		t.Errorf("Uint64(max) = %v, %v", got, err)
	}
	if _, err := Number("-1").Uint64(); err == nil {
		t.Error("Uint64(-1) succeeded, want error")
	}
	if got, err := Float(0.25).Float64(); err != nil || got != 0.25 {
		t.Errorf("Float64(0.25) = %v, %v", got, err)
	}
}

func TestNative(t *testing.T) {
	in := map[string]any{
		"b":    true,
		"s":    "str",
		"i":    int64(-4),
		"u":    uint64(math.MaxUint64),
		"f":    1.5,
		"list": []any{"x", nil},
	}
	v, err := FromNative(in)
	if err != nil {
		t.Fatalf("FromNative: %v", err)
	}
	wantKeys := []string{"b", "f", "i", "list", "s", "u"}
	if diff := cmp.Diff(v.(Map).Keys(), wantKeys); diff != "" {
		t.Errorf("keys not sorted (-got+want):\n%s", diff)
	}
	if diff := cmp.Diff(ToNative(v), any(in)); diff != "" {
		t.Errorf("native round trip (-got+want):\n%s", diff)
	}

	if _, err := FromNative(math.NaN()); err == nil {
		t.Error("FromNative(NaN) succeeded, want error")
	}
	if _, err := FromNative(struct{}{}); err == nil {
		t.Error("FromNative(struct{}{}) succeeded, want error")
	}
}

func TestDescribe(t *testing.T) {
	v := Map{
		{"name", String("x")},
		{"tags", List{Bool(true), Null{}, Int(2)}},
	}
	want := `{"name": "x", "tags": [true, null, 2]}`
	if got := Describe(v); got != want {
		t.Errorf("Describe() = %s, want %s", got, want)
	}
}
