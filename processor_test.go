package objmap

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"testing"

	"github.com/danderson/objmap/universal"
	"github.com/google/go-cmp/cmp"
)

func TestStateString(t *testing.T) {
	tests := []struct {
		s    State
		want string
	}{
		{State{phaseUnreasoned, 0}, "Unreasoned"},
		{State{phaseResolving, Serialization}, "ResolvingSerializer"},
		{State{phaseResolving, Deserialization}, "ResolvingDeserializer"},
		{State{phaseResolved, Duplex}, "ResolvedDuplex"},
		{State{phaseUndetectable, Deserialization}, "UndetectableDeserializer"},
		{State{phaseUndetectable, Duplex}, "UndetectableDuplex"},
	}
	for _, tc := range tests {
		if got := tc.s.String(); got != tc.want {
			t.Errorf("%#v.String() = %q, want %q", tc.s, got, tc.want)
		}
	}
}

func run(t *testing.T, p *processor, sigs ...signal) {
	t.Helper()
	for _, s := range sigs {
		p.dispatch(s)
	}
	if err := p.run(); err != nil {
		t.Fatalf("run: %v", err)
	}
}

func wantStates(t *testing.T, p *processor, want map[TypeID]string) {
	t.Helper()
	got, wantStr := map[string]string{}, map[string]string{}
	for id, st := range want {
		got[id.String()] = stateOf(p, id)
		wantStr[id.String()] = st
	}
	if diff := cmp.Diff(got, wantStr); diff != "" {
		t.Errorf("wrong states (-got+want):\n%s", diff)
	}
}

func TestSerializationPropagates(t *testing.T) {
	p := newTestProcessor(NewBuilder(nil))
	wrapper, inner, i := TypeFor[Wrapper](), TypeFor[Inner](), TypeFor[int]()

	run(t, p, addSignal(Serialization, wrapper, ManuallyAdded()))
	wantStates(t, p, map[TypeID]string{
		wrapper: "ResolvedSerializer",
		inner:   "ResolvedSerializer",
		i:       "ResolvedSerializer",
	})
	if n := p.index[inner]; n.chosen.deser != nil {
		t.Errorf("serialization-only Inner has deserializer %s", n.chosen.deser.Description())
	}

	// Requiring the other half too redetects, and pulls the other
	// half into dependencies.
	run(t, p, addSignal(Deserialization, inner, ManuallyAdded()))
	wantStates(t, p, map[TypeID]string{
		wrapper: "ResolvedSerializer",
		inner:   "ResolvedDuplex",
		i:       "ResolvedDuplex",
	})

	// Dropping it again keeps the resolved serializer.
	run(t, p, removeSignal(Deserialization, inner, ManuallyAdded()))
	wantStates(t, p, map[TypeID]string{
		wrapper: "ResolvedSerializer",
		inner:   "ResolvedSerializer",
		i:       "ResolvedSerializer",
	})
	n := p.index[inner]
	if n.chosen.ser == nil || n.chosen.deser != nil {
		t.Errorf("Inner after dropping deserialization: ser=%v deser=%v, want only a serializer", n.chosen.ser, n.chosen.deser)
	}
}

func TestReasonIdempotence(t *testing.T) {
	p := newTestProcessor(NewBuilder(nil))
	pt := TypeFor[Point]()

	run(t, p,
		addSignal(Serialization, pt, ManuallyAdded()),
		addSignal(Serialization, pt, ManuallyAdded()))
	if got := p.index[pt].halves[0].reasons.Len(); got != 1 {
		t.Errorf("Point has %d serialization reasons after adding the same reason twice, want 1", got)
	}

	// Removing a reason that was never added does nothing.
	run(t, p, removeSignal(Serialization, pt, RootReason("something else")))
	wantStates(t, p, map[TypeID]string{pt: "ResolvedSerializer"})

	run(t, p, removeSignal(Serialization, pt, ManuallyAdded()))
	wantStates(t, p, map[TypeID]string{
		pt:             "Unreasoned",
		TypeFor[int](): "Unreasoned",
	})
}

func TestUnreachableTypesDropOut(t *testing.T) {
	p := newTestProcessor(NewBuilder(nil))
	chain, ptr, i := TypeFor[Chain](), TypeFor[*Chain](), TypeFor[int]()

	run(t, p,
		addSignal(Serialization, chain, ManuallyAdded()),
		addSignal(Deserialization, chain, ManuallyAdded()))
	wantStates(t, p, map[TypeID]string{
		chain: "ResolvedDuplex",
		ptr:   "ResolvedDuplex",
		i:     "ResolvedDuplex",
	})

	// Chain and *Chain still require each other, but nothing
	// requires either of them.
	run(t, p,
		removeSignal(Serialization, chain, ManuallyAdded()),
		removeSignal(Deserialization, chain, ManuallyAdded()))
	wantStates(t, p, map[TypeID]string{
		chain: "Unreasoned",
		ptr:   "Unreasoned",
		i:     "Unreasoned",
	})
}

func TestUndetectable(t *testing.T) {
	p := newTestProcessor(NewBuilder(nil))
	wc, ch := TypeFor[WithChan](), TypeFor[chan int]()

	run(t, p, addSignal(Serialization, wc, ManuallyAdded()))
	wantStates(t, p, map[TypeID]string{
		wc: "ResolvedSerializer",
		ch: "UndetectableSerializer",
	})
	if got, want := p.index[ch].chosen.failure, "no detector proposed a strategy for chan int (kind chan)"; got != want {
		t.Errorf("chan int failure = %q, want %q", got, want)
	}

	run(t, p, removeSignal(Serialization, wc, ManuallyAdded()))
	wantStates(t, p, map[TypeID]string{
		wc: "Unreasoned",
		ch: "Unreasoned",
	})
}

func TestVirtualTypeWithoutStrategy(t *testing.T) {
	_, err := NewBuilder(nil).Add(VirtualType("money"), Serialization).Build()
	var ie *InternalError
	if !errors.As(err, &ie) {
		t.Fatalf("Build of unregistered virtual type returned %v, want InternalError", err)
	}
}

func TestFixedStrategy(t *testing.T) {
	money := VirtualType("money")
	m := mustBuild(NewBuilder(nil).
		Fixed(money, upperSerializer{}, nil).
		Add(money, Serialization))

	def, ok := m.Definitions().Lookup(money)
	if !ok {
		t.Fatal("no definition for virtual type")
	}
	if got := def.Capability(); got != Serialization {
		t.Errorf("virtual type capability = %s, want serialization", got)
	}
	if _, ok := m.Definitions().Lookup(TypeFor[int]()); !ok {
		t.Error("fixed serializer's required type int was not resolved")
	}
	got, err := m.SerializeAs(money, "eur")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(got, universal.String("EUR")); diff != "" {
		t.Errorf("wrong serialization (-got+want):\n%s", diff)
	}

	_, err = NewBuilder(nil).
		Fixed(money, upperSerializer{}, nil).
		Add(money, Duplex).
		Build()
	var be *BuildError
	if !errors.As(err, &be) {
		t.Fatalf("Build of half-registered virtual type returned %v, want BuildError", err)
	}
	if got, want := be.Report.Failures[0].Reason, "no deserializer registered for virtual(money)"; got != want {
		t.Errorf("failure = %q, want %q", got, want)
	}
}

func TestDeterminism(t *testing.T) {
	build := func() (string, []string) {
		defs, _, err := NewBuilder(nil).
			Add(TypeFor[Shape](), Duplex).
			Add(TypeFor[Chain](), Duplex).
			Add(TypeFor[Span](), Serialization).
			Explain()
		if err != nil {
			t.Fatal(err)
		}
		var order []string
		for def := range defs.All() {
			order = append(order, def.Type.String())
		}
		return defs.Dump(), order
	}

	wantDump, wantOrder := build()
	for range 10 {
		dump, order := build()
		if diff := cmp.Diff(order, wantOrder); diff != "" {
			t.Fatalf("definition order changed between builds (-got+want):\n%s", diff)
		}
		if diff := cmp.Diff(dump, wantDump); diff != "" {
			t.Fatalf("definitions changed between builds (-got+want):\n%s", diff)
		}
	}
}

func TestReasonChainsStable(t *testing.T) {
	// Every array requires chan int, which fails, giving more chains
	// than the report keeps.
	const roots = chainLimit + 8
	chanInt := reflect.TypeFor[chan int]()
	build := func() []string {
		b := NewBuilder(nil)
		for i := 1; i <= roots; i++ {
			b.Add(TypeOf(reflect.ArrayOf(i, chanInt)), Serialization)
		}
		_, report, err := b.Explain()
		if err != nil {
			t.Fatal(err)
		}
		for _, f := range report.Failures {
			if f.Type == TypeOf(chanInt) {
				return f.Chain
			}
		}
		t.Fatalf("chan int did not fail:\n%s", report)
		return nil
	}

	want := build()
	if len(want) != chainLimit {
		t.Fatalf("got %d chains, want %d", len(want), chainLimit)
	}
	if !slices.Contains(want, "chan int -> [1]chan int -> manually added") {
		t.Errorf("chains of the first registered root are missing:\n%s", strings.Join(want, "\n"))
	}
	for _, c := range want {
		if strings.Contains(c, fmt.Sprintf("[%d]chan int", roots)) {
			t.Errorf("chain of the last registered root was kept over earlier ones: %s", c)
		}
	}
	for range 20 {
		if diff := cmp.Diff(build(), want); diff != "" {
			t.Fatalf("reason chains changed between builds (-got+want):\n%s", diff)
		}
	}
}
