package codec

import (
	"testing"

	"github.com/danderson/objmap/universal"
	"github.com/google/go-cmp/cmp"
)

var sample = universal.Map{
	{Key: "sender", Value: universal.String("a@example.com")},
	{Key: "count", Value: universal.Int(42)},
	{Key: "big", Value: universal.Uint(18446744073709551615)},
	{Key: "ratio", Value: universal.Float(0.5)},
	{Key: "ok", Value: universal.Bool(true)},
	{Key: "nothing", Value: universal.Null{}},
	{Key: "tags", Value: universal.List{universal.String("x"), universal.String("<y & z>")}},
	{Key: "empty", Value: universal.List{}},
	{Key: "nested", Value: universal.Map{{Key: "inner", Value: universal.String("")}}},
}

func TestRoundTrip(t *testing.T) {
	for _, m := range All() {
		t.Run(m.Name(), func(t *testing.T) {
			bs, err := m.Marshal(sample)
			if err != nil {
				t.Fatalf("Marshal: %v", err)
			}
			got, err := m.Unmarshal(bs)
			if err != nil {
				t.Fatalf("Unmarshal(%q): %v", bs, err)
			}
			if !universal.Equal(got, sample) {
				t.Errorf("round trip mismatch:\ngot:  %s\nwant: %s\ntext: %s", universal.Describe(got), universal.Describe(sample), bs)
			}
			if diff := cmp.Diff(got.(universal.Map).Keys(), sample.Keys()); diff != "" {
				t.Errorf("key order not preserved (-got+want):\n%s", diff)
			}
		})
	}
}

func TestJSONOutput(t *testing.T) {
	v := universal.Map{
		{Key: "b", Value: universal.Int(1)},
		{Key: "a", Value: universal.List{universal.Bool(false), universal.Null{}}},
	}
	bs, err := JSON{}.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := string(bs), `{"b":1,"a":[false,null]}`; got != want {
		t.Errorf("Marshal() = %s, want %s", got, want)
	}
}

func TestUnmarshalErrors(t *testing.T) {
	tests := []struct {
		m    Marshaller
		data string
	}{
		{JSON{}, `{"a":1} {"b":2}`},
		{JSON{}, `{"a":`},
		{YAML{}, "a: [1, 2"},
		{XML{}, `<map><string>no key</string></map>`},
		{XML{}, `<bool>maybe</bool>`},
		{XML{}, `<string>a</string><string>b</string>`},
		{XML{}, `<frob/>`},
	}
	for _, tc := range tests {
		if _, err := tc.m.Unmarshal([]byte(tc.data)); err == nil {
			t.Errorf("%s.Unmarshal(%q) succeeded, want error", tc.m.Name(), tc.data)
		}
	}
}

func TestMarshalInvalidNumber(t *testing.T) {
	for _, m := range All() {
		if _, err := m.Marshal(universal.Number("NaN")); err == nil {
			t.Errorf("%s.Marshal(NaN) succeeded, want error", m.Name())
		}
	}
}

func TestByName(t *testing.T) {
	for _, name := range []string{"json", "yaml", "xml"} {
		m, err := ByName(name)
		if err != nil {
			t.Fatalf("ByName(%q): %v", name, err)
		}
		if m.Name() != name {
			t.Errorf("ByName(%q).Name() = %q", name, m.Name())
		}
	}
	if _, err := ByName("toml"); err == nil {
		t.Error("ByName(toml) succeeded, want error")
	}
}
