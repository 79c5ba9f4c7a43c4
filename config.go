package flowtree

import (
	"github.com/wippyai/flowtree/internal/options"
	"github.com/wippyai/flowtree/tree"
)

// FailureStrategy selects how propagated failure is represented.
type FailureStrategy = options.FailureStrategy

const (
	FlagBased      = options.FlagBased
	ExceptionBased = options.ExceptionBased
)

// VoidRepresentation selects whether void values exist at runtime.
type VoidRepresentation = options.VoidRepresentation

const (
	Reified = options.Reified
	Erased  = options.Erased
)

// CoroutineLowering selects how suspendable bodies are emitted.
type CoroutineLowering = options.CoroutineLowering

const (
	ToStateMachine    = options.ToStateMachine
	ToNativeGenerator = options.ToNativeGenerator
)

// Finalizer post-processes leaf statements the translator passes through
// without interpreting them.
type Finalizer = options.Finalizer

// Namer allocates fresh names. Names it returns must not collide with
// any name in the input or with each other.
type Namer interface {
	Fresh(hint string) tree.Name
}

// Config configures a Translator.
type Config struct {
	Failure    FailureStrategy
	Void       VoidRepresentation
	Coroutines CoroutineLowering

	// MayAssignInBothTryAndRecover is false for targets that reject an
	// assign-once local assigned in both a try and its recover branch.
	MayAssignInBothTryAndRecover bool

	// FailCalls recognises calls that propagate failure.
	FailCalls CallMatcher
	// FailCallNames is a shorthand for FailCalls. Patterns follow
	// WildcardMatcher and are consulted before FailCalls.
	FailCallNames []string

	Finalize Finalizer

	// Namer is shared by every body translated with this config. A fresh
	// counter-backed namer is used when nil.
	Namer Namer
}

// Validate reports strategy values outside their enums.
func (c Config) Validate() error {
	return c.options().Validate()
}

func (c Config) options() options.Options {
	matcher := c.FailCalls
	if len(c.FailCallNames) > 0 {
		matcher = NewCompositeMatcher(NewWildcardMatcher(c.FailCallNames), c.FailCalls)
	}
	return options.Options{
		Failure:                      c.Failure,
		Void:                         c.Void,
		Coroutines:                   c.Coroutines,
		MayAssignInBothTryAndRecover: c.MayAssignInBothTryAndRecover,
		FailCalls:                    matcher,
		Finalize:                     c.Finalize,
	}
}
