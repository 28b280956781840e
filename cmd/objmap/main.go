package main

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"

	"github.com/creachadair/command"
	"github.com/creachadair/flax"
	"github.com/creachadair/mds/heapq"
	"github.com/danderson/objmap"
	"github.com/danderson/objmap/codec"
	"github.com/danderson/objmap/objmaptest"
	"github.com/kr/pretty"
)

var globalArgs struct {
	Debug bool `flag:"debug,Log type resolution to stderr"`
}

func config() *objmap.Config {
	cfg := objmap.DefaultConfig()
	if globalArgs.Debug {
		cfg.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return cfg
}

func main() {
	root := &command.C{
		Name:     "objmap",
		Usage:    "command args...",
		Help:     "Inspect objmap type resolution and convert between formats.",
		SetFlags: command.Flags(flax.MustBind, &globalArgs),
		Commands: []*command.C{
			{
				Name:     "convert",
				Usage:    "convert [-from fmt] [-to fmt] [file]",
				Help:     "Convert a document between json, yaml and xml.\n\nReads stdin if no file is given.",
				SetFlags: command.Flags(flax.MustBind, &convertArgs),
				Run:      runConvert,
			},
			{
				Name:  "explain",
				Usage: "explain [-raw] [type...]",
				Help: `Explain how the example mail domain is mapped.

Builds the objmaptest registry and prints, for every resolved type,
the chosen strategies, why the type was required and which candidates
were discarded. With arguments, only types whose name contains one of
the arguments are shown.`,
				SetFlags: command.Flags(flax.MustBind, &explainArgs),
				Run:      runExplain,
			},
			{
				Name:  "check",
				Usage: "check",
				Help: `Build the deliberately broken example registry.

Prints the full failure report, with the chain of types that made each
failing type required.`,
				Run: runCheck,
			},
			{
				Name:     "sample",
				Usage:    "sample [-to fmt] [email|mailbox]",
				Help:     "Serialize a sample value of the example mail domain.",
				SetFlags: command.Flags(flax.MustBind, &sampleArgs),
				Run:      runSample,
			},
			command.HelpCommand(nil),
			command.VersionCommand(),
		},
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	env := root.NewEnv(nil).SetContext(ctx)
	command.RunOrFail(env, os.Args[1:])
}

var convertArgs struct {
	From string `flag:"from,default=json,Input format"`
	To   string `flag:"to,default=yaml,Output format"`
}

func runConvert(env *command.Env) error {
	from, err := codec.ByName(convertArgs.From)
	if err != nil {
		return err
	}
	to, err := codec.ByName(convertArgs.To)
	if err != nil {
		return err
	}

	var in io.Reader = os.Stdin
	switch len(env.Args) {
	case 0:
	case 1:
		f, err := os.Open(env.Args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	default:
		return env.Usagef("convert takes at most one file")
	}

	bs, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	v, err := from.Unmarshal(bs)
	if err != nil {
		return fmt.Errorf("decoding %s: %w", from.Name(), err)
	}
	out, err := to.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", to.Name(), err)
	}
	_, err = os.Stdout.Write(out)
	return err
}

var explainArgs struct {
	Raw bool `flag:"raw,Dump definitions as Go values"`
}

func runExplain(env *command.Env) error {
	defs, report, err := objmaptest.Register(objmap.NewBuilder(config())).Explain()
	if err != nil {
		return err
	}

	byName := heapq.New(func(a, b *objmap.Definition) int {
		return cmp.Compare(a.Type.String(), b.Type.String())
	})
	for def := range defs.All() {
		if matchesAny(def.Type.String(), env.Args) {
			byName.Add(def)
		}
	}

	var out indenter
	for !byName.IsEmpty() {
		def, _ := byName.Pop()
		if explainArgs.Raw {
			out.f("%# v", pretty.Formatter(rawDefinition(def)))
			continue
		}
		out.s(strings.TrimRight(def.Scan.String(), "\n"))
	}
	if !report.OK() {
		out.s(report.String())
	}
	return nil
}

// rawDef is a Definition with types rendered as strings, so that
// pretty does not descend into reflect internals.
type rawDef struct {
	Type         string
	Capability   string
	Serializer   string
	Deserializer string
	Ignored      []objmap.Ignored
	Problems     []string
}

func rawDefinition(def *objmap.Definition) rawDef {
	return rawDef{
		Type:         def.Type.String(),
		Capability:   def.Capability().String(),
		Serializer:   def.Scan.Serializer,
		Deserializer: def.Scan.Deserializer,
		Ignored:      def.Scan.Ignored,
		Problems:     def.Scan.Problems,
	}
}

func matchesAny(name string, patterns []string) bool {
	if len(patterns) == 0 {
		return true
	}
	return slices.ContainsFunc(patterns, func(p string) bool {
		return strings.Contains(name, p)
	})
}

func runCheck(env *command.Env) error {
	_, err := objmaptest.RegisterBroken(objmap.NewBuilder(config())).Build()
	var be *objmap.BuildError
	if !errors.As(err, &be) {
		if err == nil {
			return errors.New("broken registry unexpectedly built")
		}
		return err
	}

	var out indenter
	for _, f := range be.Report.Failures {
		out.f("%s (%s)", f.Type, f.Capability)
		out.indent(1)
		out.s(f.Reason)
		for _, c := range f.Chain {
			out.f("required by: %s", c)
		}
		if f.Scan != nil && len(f.Scan.Ignored) > 0 {
			out.s("ignored candidates:")
			out.indent(2)
			for _, ig := range f.Scan.Ignored {
				out.f("%s: %s", ig.Candidate, strings.Join(ig.Reasons, "; "))
			}
		}
		out.indent(0)
	}
	return nil
}

var sampleArgs struct {
	To string `flag:"to,default=json,Output format"`
}

func runSample(env *command.Env) error {
	to, err := codec.ByName(sampleArgs.To)
	if err != nil {
		return err
	}
	var v any
	switch {
	case len(env.Args) == 0 || env.Args[0] == "mailbox":
		v = objmaptest.SampleMailbox()
	case env.Args[0] == "email":
		v = objmaptest.SampleEmail()
	default:
		return env.Usagef("unknown sample %q", env.Args[0])
	}

	m, err := objmaptest.Register(objmap.NewBuilder(config())).Build()
	if err != nil {
		return err
	}
	bs, err := m.Marshal(to, v)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(bs)
	return err
}
