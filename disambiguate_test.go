package objmap

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/danderson/objmap/universal"
	"github.com/google/go-cmp/cmp"
)

func TestAmbiguousFactories(t *testing.T) {
	_, err := NewBuilder(nil).
		Factory(MakePair, "a", "b").
		Factory(BuildPair, "a", "b").
		Add(TypeFor[Pair](), Duplex).
		Build()
	var be *BuildError
	if !errors.As(err, &be) {
		t.Fatalf("Build returned %v, want BuildError", err)
	}
	if len(be.Report.Failures) != 1 {
		t.Fatalf("got %d failures, want 1:\n%s", len(be.Report.Failures), be.Report)
	}
	f := be.Report.Failures[0]
	if f.Type != TypeFor[Pair]() {
		t.Errorf("failed type is %s, want objmap.Pair", f.Type)
	}
	want := "ambiguous object deserializer: factory objmap.MakePair(a, b), factory objmap.BuildPair(a, b)"
	if !strings.Contains(f.Reason, want) {
		t.Errorf("failure reason does not mention both factories:\n%s", f.Reason)
	}
	if diff := cmp.Diff(f.Chain, []string{"objmap.Pair -> manually added"}); diff != "" {
		t.Errorf("wrong reason chain (-got+want):\n%s", diff)
	}
}

func TestPreferredFactory(t *testing.T) {
	// A single factory disambiguates, and field assignment is out
	// because of the unexported fields.
	m := mustBuild(NewBuilder(nil).
		Factory(MakePair, "a", "b").
		Add(TypeFor[Pair](), Duplex))
	def, _ := m.Definitions().Lookup(TypeFor[Pair]())
	if got, want := def.Deserializer.Description(), "factory objmap.MakePair(a, b)"; got != want {
		t.Errorf("Pair deserializer = %q, want %q", got, want)
	}
	var sawFieldAssignment bool
	for _, ig := range def.Scan.Ignored {
		if strings.HasPrefix(ig.Candidate, "field assignment") {
			sawFieldAssignment = true
			if diff := cmp.Diff(ig.Reasons, []string{"struct has unexported fields a, b"}); diff != "" {
				t.Errorf("wrong ignore reasons for field assignment (-got+want):\n%s", diff)
			}
		}
	}
	if !sawFieldAssignment {
		t.Errorf("field assignment was not recorded as ignored:\n%s", def.Scan)
	}

	got, err := m.Serialize(MakePair(1, 2))
	if err != nil {
		t.Fatal(err)
	}
	want := universal.Map{{Key: "a", Value: universal.Int(1)}, {Key: "b", Value: universal.Int(2)}}
	if diff := cmp.Diff(got, universal.Value(want)); diff != "" {
		t.Errorf("wrong serialization (-got+want):\n%s", diff)
	}
	p, err := DeserializeAs[Pair](m, want)
	if err != nil {
		t.Fatal(err)
	}
	if p != MakePair(1, 2) {
		t.Errorf("round trip gave %+v", p)
	}
}

func TestConstructorPreferred(t *testing.T) {
	m := mustBuild(NewBuilder(nil).
		Factory(NewStrict, "n").
		Add(TypeFor[Strict](), Duplex))
	def, _ := m.Definitions().Lookup(TypeFor[Strict]())
	if got, want := def.Deserializer.Description(), "factory objmap.NewStrict(n)"; got != want {
		t.Errorf("Strict deserializer = %q, want %q", got, want)
	}
}

func TestShapeTieBreak(t *testing.T) {
	tests := []struct {
		name string
		typ  TypeID
		cap  Capability
		in   any
		want universal.Value
	}{
		{
			// One getter: a single-field object loses to the
			// primitive.
			name: "single getter",
			typ:  TypeFor[Token](),
			cap:  Serialization,
			in:   Token{"abc"},
			want: universal.String("abc"),
		},
		{
			name: "several fields",
			typ:  TypeFor[Span](),
			cap:  Serialization,
			in:   Span{1, 4},
			want: universal.Map{
				{Key: "start", Value: universal.Int(1)},
				{Key: "end", Value: universal.Int(4)},
				{Key: "len", Value: universal.Int(3)},
			},
		},
		{
			name: "hinted primitive",
			typ:  TypeFor[Hinted](),
			cap:  Duplex,
			in:   Hinted{"x"},
			want: universal.String("x"),
		},
		{
			name: "ambiguous primitive",
			typ:  TypeFor[Pair](),
			cap:  Serialization,
			in:   MakePair(3, 4),
			want: universal.Map{{Key: "a", Value: universal.Int(3)}, {Key: "b", Value: universal.Int(4)}},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := mustBuild(NewBuilder(nil).
				Factory(FromStringValue).
				Add(tc.typ, tc.cap))
			got, err := m.Serialize(tc.in)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(got, tc.want); diff != "" {
				t.Errorf("wrong serialization (-got+want):\n%s", diff)
			}
		})
	}
}

func TestHintedRoundTrip(t *testing.T) {
	m := mustBuild(NewBuilder(nil).
		Factory(FromStringValue).
		Add(TypeFor[Hinted](), Duplex))
	got, err := DeserializeAs[Hinted](m, universal.String("y"))
	if err != nil {
		t.Fatal(err)
	}
	if got != (Hinted{"y"}) {
		t.Errorf("got %+v, want Hinted{y}", got)
	}
	def, _ := m.Definitions().Lookup(TypeFor[Hinted]())
	if got, want := def.Deserializer.Description(), "factory objmap.FromStringValue(string)"; got != want {
		t.Errorf("deserializer = %q, want %q", got, want)
	}
}

func TestTieBreak(t *testing.T) {
	tests := []struct {
		name      string
		prim, obj shape
		wantPrim  bool
		wantFail  string
	}{
		{
			name:     "both fail",
			prim:     shape{failure: "nope"},
			obj:      shape{failure: "nah"},
			wantFail: "no duplex strategy for objmap.Point:\n  as custom primitive: nope\n  as serialized object: nah",
		},
		{
			name:     "primitive fails",
			prim:     shape{failure: "nope"},
			obj:      shape{size: 1},
			wantPrim: false,
		},
		{
			name:     "object fails",
			prim:     shape{},
			obj:      shape{failure: "nah", size: 3},
			wantPrim: true,
		},
		{
			name:     "both hinted",
			prim:     shape{hinted: true},
			obj:      shape{hinted: true, size: 1},
			wantFail: "unable to choose between serialized object and custom primitive for objmap.Point",
		},
		{
			name:     "primitive hinted",
			prim:     shape{hinted: true},
			obj:      shape{size: 5},
			wantPrim: true,
		},
		{
			name:     "object hinted",
			prim:     shape{},
			obj:      shape{hinted: true, size: 1},
			wantPrim: false,
		},
		{
			name:     "object has several fields",
			prim:     shape{},
			obj:      shape{size: 2},
			wantPrim: false,
		},
		{
			name:     "object has one field",
			prim:     shape{},
			obj:      shape{size: 1},
			wantPrim: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d := &disambiguator{DefaultConfig(), reflect.TypeFor[Point](), &ScanInfo{}}
			gotPrim, gotFail := d.tieBreak("duplex", tc.prim, tc.obj)
			if gotFail != tc.wantFail {
				t.Errorf("failure = %q, want %q", gotFail, tc.wantFail)
			}
			if tc.wantFail == "" && gotPrim != tc.wantPrim {
				t.Errorf("usePrim = %v, want %v", gotPrim, tc.wantPrim)
			}
		})
	}
}

func TestApplyPreferences(t *testing.T) {
	pt := reflect.TypeFor[Temperature]()
	conv := &PrimitiveSerializer{Type: pt, From: OriginConversion, Kind: universal.KindNumber}
	method := &PrimitiveSerializer{Type: pt, From: OriginMethod, Func: "StringValue", Kind: universal.KindString}
	other := &PrimitiveSerializer{Type: pt, From: OriginMethod, Func: "Celsius", Kind: universal.KindNumber}
	all := []*PrimitiveSerializer{conv, method, other}

	tests := []struct {
		name  string
		prefs []Preference[*PrimitiveSerializer]
		want  []*PrimitiveSerializer
	}{
		{
			name: "no preferences",
			want: all,
		},
		{
			name: "first matching wins",
			prefs: []Preference[*PrimitiveSerializer]{
				PreferOrigin[*PrimitiveSerializer](OriginText),
				PreferNamed[*PrimitiveSerializer]("StringValue"),
				PreferOrigin[*PrimitiveSerializer](OriginConversion),
			},
			want: []*PrimitiveSerializer{method},
		},
		{
			name: "preference keeps several",
			prefs: []Preference[*PrimitiveSerializer]{
				PreferOrigin[*PrimitiveSerializer](OriginMethod),
			},
			want: []*PrimitiveSerializer{method, other},
		},
		{
			name: "nothing matches",
			prefs: []Preference[*PrimitiveSerializer]{
				PreferNamed[*PrimitiveSerializer]("Fahrenheit"),
			},
			want: all,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var scan ScanInfo
			got := applyPreferences(pt, tc.prefs, all, &scan)
			if diff := cmp.Diff(descriptions(got), descriptions(tc.want)); diff != "" {
				t.Errorf("wrong candidates (-got+want):\n%s", diff)
			}
			if got, want := len(scan.Ignored), len(all)-len(tc.want); got != want {
				t.Errorf("%d candidates recorded as ignored, want %d", got, want)
			}
		})
	}
}

func TestFiltersCombine(t *testing.T) {
	ot := reflect.TypeFor[Shape]()
	fields := []*Field{
		{Owner: ot, Key: "name", Func: "Name", From: OriginStructField, Type: reflect.TypeFor[string]()},
		{Owner: ot, Key: "notes", Func: "Notes", From: OriginStructField, Type: reflect.TypeFor[string](), Skip: true},
		{Owner: ot, Key: "string", Func: "String", From: OriginGetter, Type: reflect.TypeFor[string]()},
		{Owner: ot, Key: "done", Func: "Done", From: OriginGetter, Type: reflect.TypeFor[chan struct{}]()},
	}
	var scan ScanInfo
	got := applyFilters(ot, DefaultConfig().FieldFilters, fields, &scan)
	if diff := cmp.Diff(descriptions(got), []string{"field objmap.Shape.Name"}); diff != "" {
		t.Errorf("wrong surviving fields (-got+want):\n%s", diff)
	}
	want := []Ignored{
		{"field objmap.Shape.Notes", []string{"field is tagged to be skipped"}},
		{"getter objmap.Shape.String()", []string{"method String is ignored"}},
		{"getter objmap.Shape.Done()", []string{"getter result chan struct {} is a chan"}},
	}
	if diff := cmp.Diff(scan.Ignored, want); diff != "" {
		t.Errorf("wrong ignored candidates (-got+want):\n%s", diff)
	}
}

func TestUnmappableField(t *testing.T) {
	_, err := NewBuilder(nil).Add(TypeFor[WithChan](), Duplex).Build()
	var be *BuildError
	if !errors.As(err, &be) {
		t.Fatalf("Build returned %v, want BuildError", err)
	}
	f := be.Report.Failures[0]
	if f.Type != TypeFor[chan int]() {
		t.Fatalf("failed type is %s, want chan int", f.Type)
	}
	if diff := cmp.Diff(f.Chain, []string{"chan int -> objmap.WithChan -> manually added"}); diff != "" {
		t.Errorf("wrong reason chain (-got+want):\n%s", diff)
	}
	if f.Capability != Duplex {
		t.Errorf("failed capability = %s, want duplex", f.Capability)
	}
}

func descriptions[T Candidate](cs []T) []string {
	var ret []string
	for _, c := range cs {
		ret = append(ret, c.Description())
	}
	return ret
}
