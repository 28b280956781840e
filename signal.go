package objmap

import "fmt"

// signalKind is the kind of a signal.
type signalKind uint8

const (
	// sigAddReason adds a reason for a capability to a type.
	sigAddReason signalKind = iota
	// sigRemoveReason removes a reason for a capability from a type.
	sigRemoveReason
	// sigDetect asks a resolving type to detect its strategy.
	sigDetect
	// sigResolve asks a resolving type to commit its detected
	// strategy.
	sigResolve
)

func (k signalKind) String() string {
	switch k {
	case sigAddReason:
		return "add"
	case sigRemoveReason:
		return "remove"
	case sigDetect:
		return "detect"
	case sigResolve:
		return "resolve"
	default:
		return fmt.Sprintf("signalKind(%d)", uint8(k))
	}
}

// signal is a message to one type's state in the processor.
type signal struct {
	kind   signalKind
	target TypeID
	// cap and reason are set for sigAddReason and sigRemoveReason.
	cap    Capability
	reason Reason
}

func addSignal(c Capability, target TypeID, r Reason) signal {
	return signal{kind: sigAddReason, target: target, cap: c, reason: r}
}

func removeSignal(c Capability, target TypeID, r Reason) signal {
	return signal{kind: sigRemoveReason, target: target, cap: c, reason: r}
}

func (s signal) String() string {
	switch s.kind {
	case sigAddReason, sigRemoveReason:
		return fmt.Sprintf("%s %s to %s (%s)", s.kind, s.cap, s.target, s.reason)
	default:
		return fmt.Sprintf("%s %s", s.kind, s.target)
	}
}
