package errors

import (
	"fmt"
	"strings"
)

// Phase indicates which pass raised the error
type Phase string

const (
	PhaseTranslate Phase = "translate" // graph to tree
	PhaseEscape    Phase = "escape"    // escape hatch construction
	PhaseSimplify  Phase = "simplify"  // tree rewrites
	PhaseCoroutine Phase = "coroutine" // state machine lowering
	PhaseConfig    Phase = "config"    // strategy validation
	PhaseFixture   Phase = "fixture"   // fixture decoding
)

// Kind categorizes the error
type Kind string

const (
	KindStructural     Kind = "structural"
	KindUnsupported    Kind = "unsupported"
	KindConfigMismatch Kind = "config_mismatch"
	KindInvariant      Kind = "invariant"
	KindInvalidInput   Kind = "invalid_input"
	KindNotFound       Kind = "not_found"
)

// Positioner is anything that can report a source position.
type Positioner interface {
	String() string
}

// Error is the structured error type used throughout flowtree
type Error struct {
	Cause  error
	Phase  Phase
	Kind   Kind
	Pos    string
	Label  string
	Detail string
	Path   []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Pos != "" {
		b.WriteString(" at ")
		b.WriteString(e.Pos)
	}

	if len(e.Path) > 0 {
		b.WriteString(" in ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Label != "" {
		b.WriteString(" (label ")
		b.WriteString(e.Label)
		b.WriteByte(')')
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Fatal reports whether the error is a contract breach that must abort
// translation instead of degrading to a placeholder.
func (e *Error) Fatal() bool {
	return e.Kind == KindInvariant
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// At sets the source position
func (b *Builder) At(pos Positioner) *Builder {
	if pos != nil {
		b.err.Pos = pos.String()
	}
	return b
}

// Path sets the body path (function names, nested helpers)
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Label sets the label the error concerns
func (b *Builder) Label(label string) *Builder {
	b.err.Label = label
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// Structural creates an error for malformed input shapes
func Structural(phase Phase, pos Positioner, detail string, args ...any) *Error {
	return New(phase, KindStructural).At(pos).Detail(detail, args...).Build()
}

// Unsupported creates an error for recognized constructs that are not lowered
func Unsupported(phase Phase, pos Positioner, detail string, args ...any) *Error {
	return New(phase, KindUnsupported).At(pos).Detail(detail, args...).Build()
}

// ConfigMismatch creates an error for an unsupported strategy combination
func ConfigMismatch(detail string, args ...any) *Error {
	return New(PhaseConfig, KindConfigMismatch).Detail(detail, args...).Build()
}

// Invariant creates a fatal error for upstream contract breaches
func Invariant(phase Phase, path []string, detail string, args ...any) *Error {
	return New(phase, KindInvariant).Path(path...).Detail(detail, args...).Build()
}

// UnresolvedJump creates an error for a jump whose target label is not in scope
func UnresolvedJump(pos Positioner, kind, label string) *Error {
	b := New(PhaseTranslate, KindStructural).At(pos).Label(label)
	if label == "" {
		return b.Detail("%s outside of any loop", kind).Build()
	}
	return b.Detail("%s target is not an enclosing label", kind).Build()
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}
