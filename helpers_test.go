package objmap

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/danderson/objmap/universal"
)

// Point is a struct mapped by exported fields and field assignment.
type Point struct {
	X, Y int
}

// Temperature is a custom primitive mapped by conversion.
type Temperature float64

// Color is a custom primitive mapped by StringValue and ParseColor.
type Color struct {
	name string
}

func ParseColor(s string) (Color, error) {
	switch s {
	case "red", "green", "blue":
		return Color{s}, nil
	}
	return Color{}, fmt.Errorf("unknown color %q", s)
}

func (c Color) StringValue() string { return c.name }

// Shape is a struct containing every kind of mapped type.
type Shape struct {
	Name   string
	Origin Point
	Fill   *Color
	Tags   []string
	Meta   map[string]Temperature
	Notes  string  `objmap:"-"`
	Weight float32 `objmap:"w"`
}

// Chain is a recursive type, which can form cyclic values.
type Chain struct {
	Value int
	Next  *Chain
}

// Pair is a struct with unexported fields and two equally good
// factories.
type Pair struct {
	a, b int
}

func (p Pair) A() int { return p.a }
func (p Pair) B() int { return p.b }

func MakePair(a, b int) Pair  { return Pair{a, b} }
func BuildPair(a, b int) Pair { return Pair{a, b} }

// Token is a struct with a single getter and no exported fields.
type Token struct {
	raw string
}

func (t Token) Raw() string { return t.raw }

// Span is a struct with two fields and a getter returning a scalar.
type Span struct {
	Start, End int
}

func (s Span) Len() int { return s.End - s.Start }

// Wrapper and Inner are nested structs.
type Wrapper struct {
	Inner Inner
}

type Inner struct {
	V int
}

// WithChan is a struct with an unmappable field.
type WithChan struct {
	C chan int
}

// Hinted is a struct that could be a serialized object, but whose
// StringValue and FromStringValue make it a custom primitive.
type Hinted struct {
	Value string
}

func (h Hinted) StringValue() string { return h.Value }

func FromStringValue(s string) Hinted { return Hinted{s} }

// Strict is built by a factory that rejects negative numbers.
type Strict struct {
	N int
}

var errNegative = errors.New("must not be negative")

func NewStrict(n int) (*Strict, error) {
	if n < 0 {
		return nil, errNegative
	}
	return &Strict{n}, nil
}

// Base and Derived exercise embedded field visibility.
type Base struct {
	ID   int
	Name string
}

type Derived struct {
	Base
	Name string
}

// upperSerializer is a fixed serializer for strings that requires
// int, to check that fixed strategies propagate requirements.
type upperSerializer struct{}

func (upperSerializer) Description() string { return "upper" }

func (upperSerializer) RequiredTypes() []TypeID {
	return []TypeID{TypeFor[int]()}
}

func (upperSerializer) Serialize(sc *SerializeContext, v reflect.Value) (universal.Value, error) {
	return universal.String(strings.ToUpper(v.String())), nil
}

func mustBuild(b *Builder) *Mapper {
	m, err := b.Build()
	if err != nil {
		panic(err)
	}
	return m
}

func newTestProcessor(b *Builder) *processor {
	return newProcessor(b.cfg, b.factories, b.fixed)
}

// stateOf returns the state of id in p, as a string.
func stateOf(p *processor, id TypeID) string {
	n := p.index[id]
	if n == nil {
		return "<no node>"
	}
	return n.state().String()
}
