// Package options holds the strategy axes threaded through every pass.
package options

import (
	"github.com/wippyai/flowtree/errors"
	"github.com/wippyai/flowtree/tree"
)

// FailureStrategy selects how propagated failure is represented in the
// target.
type FailureStrategy uint8

const (
	// FlagBased represents failure with boolean flags and breaks.
	FlagBased FailureStrategy = iota
	// ExceptionBased represents failure with real unwinding.
	ExceptionBased
)

func (s FailureStrategy) String() string {
	switch s {
	case FlagBased:
		return "flag"
	case ExceptionBased:
		return "exception"
	}
	return "unknown"
}

// VoidRepresentation selects whether void-like values exist at runtime.
type VoidRepresentation uint8

const (
	Reified VoidRepresentation = iota
	Erased
)

func (v VoidRepresentation) String() string {
	switch v {
	case Reified:
		return "reified"
	case Erased:
		return "erased"
	}
	return "unknown"
}

// CoroutineLowering selects how suspendable bodies are emitted.
type CoroutineLowering uint8

const (
	ToStateMachine CoroutineLowering = iota
	ToNativeGenerator
)

func (c CoroutineLowering) String() string {
	switch c {
	case ToStateMachine:
		return "state-machine"
	case ToNativeGenerator:
		return "native-generator"
	}
	return "unknown"
}

// CallMatcher recognises calls by callee name.
type CallMatcher interface {
	Match(callee string) bool
}

// Finalizer post-processes leaf statements the passes do not interpret.
type Finalizer func(tree.Node) tree.Node

// Options configures one translation.
type Options struct {
	Failure    FailureStrategy
	Void       VoidRepresentation
	Coroutines CoroutineLowering
	// MayAssignInBothTryAndRecover is false for targets that reject an
	// assign-once local assigned on both sides of a try.
	MayAssignInBothTryAndRecover bool
	// FailCalls recognises calls that propagate failure (bubble, panic).
	FailCalls CallMatcher
	Finalize  Finalizer
}

// IsFailCall reports whether e is a failure-propagating call.
func (o Options) IsFailCall(e tree.Expr) bool {
	c, ok := e.(*tree.Call)
	return ok && o.FailCalls != nil && o.FailCalls.Match(c.Callee)
}

// Finish applies the finalize callback, if any.
func (o Options) Finish(n tree.Node) tree.Node {
	if o.Finalize == nil {
		return n
	}
	return o.Finalize(n)
}

// Validate rejects out-of-range strategies.
func (o Options) Validate() error {
	if o.Failure > ExceptionBased {
		return errors.ConfigMismatch("unknown failure strategy %d", o.Failure)
	}
	if o.Void > Erased {
		return errors.ConfigMismatch("unknown void representation %d", o.Void)
	}
	if o.Coroutines > ToNativeGenerator {
		return errors.ConfigMismatch("unknown coroutine lowering %d", o.Coroutines)
	}
	return nil
}
