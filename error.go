package objmap

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// TypeError is the error returned when a mapper has no strategy for
// a type.
type TypeError struct {
	// Type is the name of the type that caused the error.
	Type string
	// Reason is an explanation of why the type can't be mapped.
	Reason error
}

func (e TypeError) Error() string {
	return fmt.Sprintf("objmap cannot map %s: %s", e.Type, e.Reason)
}

func (e TypeError) Unwrap() error {
	return e.Reason
}

func typeErr(t reflect.Type, reason string, args ...any) error {
	ts := "<nil>"
	if t != nil {
		ts = t.String()
	}
	return TypeError{ts, fmt.Errorf(reason, args...)}
}

// ValueError is the error returned when a value does not have the
// shape its type's strategy expects, for example a universal string
// where a map is required.
type ValueError struct {
	// Path is the location of the offending value, e.g. "tags[2].name".
	Path string
	// Type is the name of the type being mapped.
	Type string
	// Reason is what went wrong.
	Reason string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("objmap: %s at %s: %s", e.Type, displayPath(e.Path), e.Reason)
}

// errCircular is the reason reported for cyclic object graphs.
const errCircular = "a circular reference has been detected"

// FieldError is one failure reported by user code while mapping a
// value.
type FieldError struct {
	Path string
	Err  error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", displayPath(e.Path), e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// ValidationError is the error returned when factories, text
// unmarshalers or serialization methods fail. Mapping continues past
// such failures, so ValidationError reports all of them at once.
type ValidationError struct {
	Errors []*FieldError
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "objmap: %d validation error", len(e.Errors))
	if len(e.Errors) != 1 {
		b.WriteByte('s')
	}
	for _, fe := range e.Errors {
		b.WriteString("\n  ")
		b.WriteString(fe.Error())
	}
	return b.String()
}

func (e *ValidationError) Unwrap() []error {
	ret := make([]error, 0, len(e.Errors))
	for _, fe := range e.Errors {
		ret = append(ret, fe)
	}
	return ret
}

// BuildError is the error returned by [Builder.Build] when some
// required types could not be detected.
type BuildError struct {
	Report *Report
}

func (e *BuildError) Error() string {
	return "objmap: " + e.Report.String()
}

// InternalError is the error returned when the type resolution engine
// reaches a state that should be impossible. It always indicates a
// bug, either in objmap or in a custom [Detector].
type InternalError struct {
	Reason string
}

func (e *InternalError) Error() string {
	return "objmap internal error: " + e.Reason
}

func internalErr(msg string, args ...any) error {
	return &InternalError{fmt.Sprintf(msg, args...)}
}

// errNilFactoryResult is reported when a pointer-returning factory
// returns nil without an error.
var errNilFactoryResult = errors.New("factory returned nil")

func displayPath(p string) string {
	if p == "" {
		return "<root>"
	}
	return p
}
