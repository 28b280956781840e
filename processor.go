package objmap

import (
	"cmp"
	"fmt"
	"log/slog"
	"slices"

	"github.com/creachadair/mds/queue"
	"github.com/creachadair/mds/value"
)

// phase is the lifecycle phase of one type in the processor.
type phase uint8

const (
	// phaseUnreasoned types have no reason to exist.
	phaseUnreasoned phase = iota
	// phaseResolving types have reasons, and are waiting for a
	// strategy.
	phaseResolving
	// phaseResolved types have a strategy for their capabilities.
	phaseResolved
	// phaseUndetectable types have no viable strategy for their
	// capabilities.
	phaseUndetectable
)

// State is a type's phase and the capabilities it must support, as
// rendered by String: "Unreasoned", "ResolvingSerializer",
// "ResolvedDuplex", "UndetectableDeserializer" and so on.
type State struct {
	phase phase
	caps  Capability
}

func (s State) String() string {
	var p string
	switch s.phase {
	case phaseUnreasoned:
		return "Unreasoned"
	case phaseResolving:
		p = "Resolving"
	case phaseResolved:
		p = "Resolved"
	case phaseUndetectable:
		p = "Undetectable"
	default:
		return fmt.Sprintf("phase(%d)", uint8(s.phase))
	}
	switch s.caps {
	case Serialization:
		return p + "Serializer"
	case Deserialization:
		return p + "Deserializer"
	case Duplex:
		return p + "Duplex"
	default:
		return p
	}
}

// half is the bookkeeping of one capability of a type.
type half struct {
	reasons reasonSet
	// propagated are the types this half added reasons to when it
	// resolved.
	propagated []TypeID
}

// fixedStrategy is a strategy registered with [Builder.Fixed].
type fixedStrategy struct {
	ser   value.Maybe[TypeSerializer]
	deser value.Maybe[TypeDeserializer]
}

// node is the processor's state for one type.
type node struct {
	id     TypeID
	seq    int
	phase  phase
	halves [2]half
	// tentative is the detected but not yet committed strategy of a
	// resolving type.
	tentative value.Maybe[detection]
	// chosen is the committed strategy of a resolved type, or the
	// failure of an undetectable type.
	chosen detection
	scan   *ScanInfo
	fixed  *fixedStrategy
}

func (n *node) caps() Capability {
	var ret Capability
	for i, c := range halves {
		if !n.halves[i].reasons.IsEmpty() {
			ret |= c
		}
	}
	return ret
}

func (n *node) state() State {
	return State{n.phase, n.caps()}
}

func (n *node) reset() {
	n.tentative = value.Absent[detection]()
	n.chosen = detection{}
	n.scan = nil
}

// maxRounds bounds the processor's main loop. Every round either
// resolves a type or sweeps unreachable reasons, so the bound is
// only reached if a state transition is broken.
const maxRounds = 1_000_000

// processor resolves the strategies of a graph of types. Types enter
// the graph through root reasons, and pull in the types their
// strategies require, until every type in the graph is resolved or
// undetectable.
//
// All state changes happen in response to signals, which are
// processed in FIFO order.
type processor struct {
	log   *slog.Logger
	env   *DetectEnv
	nodes []*node
	index map[TypeID]*node
	fixed map[TypeID]*fixedStrategy
	queue queue.Queue[signal]
}

func newProcessor(cfg *Config, factories factoryIndex, fixed map[TypeID]*fixedStrategy) *processor {
	return &processor{
		log:   cfg.logger(),
		env:   &DetectEnv{cfg: cfg, factories: factories},
		index: map[TypeID]*node{},
		fixed: fixed,
	}
}

func (p *processor) dispatch(s signal) {
	p.queue.Add(s)
}

// nodeFor returns the node for id, creating it if needed.
func (p *processor) nodeFor(id TypeID) (*node, error) {
	if n := p.index[id]; n != nil {
		return n, nil
	}
	n := &node{id: id, seq: len(p.nodes)}
	if f := p.fixed[id]; f != nil {
		n.fixed = f
	} else if id.IsVirtual() || id.IsZero() {
		return nil, internalErr("no state factory for %s", id)
	}
	p.nodes = append(p.nodes, n)
	p.index[id] = n
	return n, nil
}

// drain handles queued signals until the queue is empty.
func (p *processor) drain() error {
	for {
		s, ok := p.queue.Pop()
		if !ok {
			return nil
		}
		if err := p.handle(s); err != nil {
			return err
		}
	}
}

func (p *processor) handle(s signal) error {
	var n *node
	if s.kind == sigRemoveReason {
		n = p.index[s.target]
		if n == nil {
			return nil
		}
	} else {
		var err error
		n, err = p.nodeFor(s.target)
		if err != nil {
			return err
		}
	}

	before := n.state()
	switch s.kind {
	case sigAddReason:
		p.addReason(n, s.cap, s.reason)
	case sigRemoveReason:
		p.removeReason(n, s.cap, s.reason)
	case sigDetect:
		p.detect(n)
	case sigResolve:
		p.resolve(n)
	default:
		return internalErr("unknown signal %s", s)
	}
	if after := n.state(); after != before {
		p.log.Debug("state change", "signal", s, "type", n.id, "from", before, "to", after)
	}
	return nil
}

func (p *processor) addReason(n *node, c Capability, r Reason) {
	h := &n.halves[c.index()]
	if h.reasons.Has(r) {
		return
	}
	active := !h.reasons.IsEmpty()
	h.reasons.Add(r)
	if active {
		return
	}
	switch n.phase {
	case phaseUnreasoned:
		n.phase = phaseResolving
	case phaseResolving:
		n.tentative = value.Absent[detection]()
	case phaseResolved, phaseUndetectable:
		p.retractAll(n)
		n.reset()
		n.phase = phaseResolving
	}
}

func (p *processor) removeReason(n *node, c Capability, r Reason) {
	h := &n.halves[c.index()]
	if !h.reasons.Has(r) {
		return
	}
	h.reasons.Remove(r)
	if !h.reasons.IsEmpty() {
		return
	}
	p.retract(n, c)
	if n.caps() == 0 {
		p.retractAll(n)
		n.reset()
		n.phase = phaseUnreasoned
		return
	}
	switch n.phase {
	case phaseResolving:
		n.tentative = value.Absent[detection]()
	case phaseResolved:
		// The other half of the strategy stays valid.
		if c == Serialization {
			n.chosen.ser = nil
			n.scan.Serializer = ""
		} else {
			n.chosen.deser = nil
			n.scan.Deserializer = ""
		}
	case phaseUndetectable:
		n.reset()
		n.phase = phaseResolving
	}
}

// retract withdraws the reasons that half c of n gave to other types.
func (p *processor) retract(n *node, c Capability) {
	h := &n.halves[c.index()]
	for _, t := range h.propagated {
		p.dispatch(removeSignal(c, t, BecauseOf(n.id)))
	}
	h.propagated = nil
}

func (p *processor) retractAll(n *node) {
	for _, c := range halves {
		p.retract(n, c)
	}
}

func (p *processor) detect(n *node) {
	if n.phase != phaseResolving || n.tentative.Present() {
		return
	}
	n.scan = &ScanInfo{Type: n.id}
	var det detection
	if n.fixed != nil {
		det = detectFixed(n.fixed, n.id, n.caps(), n.scan)
	} else {
		det = detectStrategy(p.env, n.id.Type(), n.caps(), n.scan)
	}
	if det.failed() {
		p.log.Debug("detection failed", "type", n.id, "capability", n.caps(), "failure", det.failure)
		n.phase = phaseUndetectable
		n.chosen = det
		return
	}
	n.tentative = value.Just(det)
}

func detectFixed(f *fixedStrategy, id TypeID, c Capability, scan *ScanInfo) detection {
	var det detection
	if c.Has(Serialization) {
		ser, ok := f.ser.GetOK()
		if !ok {
			det.failure = fmt.Sprintf("no serializer registered for %s", id)
		}
		det.ser = ser
	}
	if c.Has(Deserialization) {
		deser, ok := f.deser.GetOK()
		if !ok {
			det.failure = fmt.Sprintf("no deserializer registered for %s", id)
		}
		det.deser = deser
	}
	if det.failed() {
		det.ser, det.deser = nil, nil
		scan.Failure = det.failure
		return det
	}
	if det.ser != nil {
		scan.Serializer = det.ser.Description()
	}
	if det.deser != nil {
		scan.Deserializer = det.deser.Description()
	}
	return det
}

func (p *processor) resolve(n *node) {
	if n.phase != phaseResolving {
		return
	}
	p.detect(n)
	det, ok := n.tentative.GetOK()
	if !ok {
		return
	}
	n.chosen = det
	n.tentative = value.Absent[detection]()
	n.phase = phaseResolved
	p.log.Debug("resolved", "type", n.id, "serializer", describe(det.ser), "deserializer", describe(det.deser))

	if det.ser != nil {
		p.propagate(n, Serialization, det.ser.RequiredTypes())
	}
	if det.deser != nil {
		p.propagate(n, Deserialization, det.deser.RequiredTypes())
	}
}

func (p *processor) propagate(n *node, c Capability, required []TypeID) {
	h := &n.halves[c.index()]
	for _, t := range required {
		p.dispatch(addSignal(c, t, BecauseOf(n.id)))
		h.propagated = append(h.propagated, t)
	}
}

func describe(s interface{ Description() string }) string {
	if s == nil {
		return ""
	}
	return s.Description()
}

// run processes signals until every type is resolved or
// undetectable.
func (p *processor) run() error {
	for range maxRounds {
		if err := p.drain(); err != nil {
			return err
		}
		if p.sweep() {
			continue
		}
		var resolving []*node
		for _, n := range p.nodes {
			if n.phase == phaseResolving {
				resolving = append(resolving, n)
			}
		}
		if len(resolving) == 0 {
			return nil
		}
		for _, n := range resolving {
			p.dispatch(signal{kind: sigDetect, target: n.id})
		}
		for _, n := range resolving {
			p.dispatch(signal{kind: sigResolve, target: n.id})
		}
	}
	return internalErr("type resolution did not settle after %d rounds", maxRounds)
}

// sweep removes the reasons of types that cannot be reached from a
// root reason, such as types that only require each other. It
// reports whether it dispatched any signals.
func (p *processor) sweep() bool {
	swept := false
	for i, c := range halves {
		live := make([]bool, len(p.nodes))
		for changed := true; changed; {
			changed = false
			for _, n := range p.nodes {
				if live[n.seq] {
					continue
				}
				for r := range n.halves[i].reasons {
					parent, ok := r.Parent()
					if !ok || live[p.index[parent].seq] {
						live[n.seq] = true
						changed = true
						break
					}
				}
			}
		}
		for _, n := range p.nodes {
			if live[n.seq] || n.halves[i].reasons.IsEmpty() {
				continue
			}
			for _, r := range p.sortedReasons(n.halves[i].reasons) {
				p.log.Debug("sweeping unreachable reason", "type", n.id, "capability", c, "reason", r)
				p.dispatch(removeSignal(c, n.id, r))
				swept = true
			}
		}
	}
	return swept
}

// sortedReasons returns rs in a deterministic order: root reasons by
// text, then parent types in the order they entered the processor.
func (p *processor) sortedReasons(rs reasonSet) []Reason {
	ret := rs.Slice()
	slices.SortFunc(ret, func(a, b Reason) int {
		pa, aok := a.Parent()
		pb, bok := b.Parent()
		switch {
		case !aok && !bok:
			return cmp.Compare(a.root, b.root)
		case !aok:
			return -1
		case !bok:
			return 1
		default:
			return cmp.Compare(p.index[pa].seq, p.index[pb].seq)
		}
	})
	return ret
}

func (p *processor) reasonsOf(id TypeID, c Capability) reasonSet {
	n := p.index[id]
	if n == nil {
		return nil
	}
	return n.halves[c.index()].reasons
}

func (p *processor) orderedReasonsOf(id TypeID, c Capability) []Reason {
	return p.sortedReasons(p.reasonsOf(id, c))
}
