// Package errors provides structured error types for the flowtree passes.
//
// Errors are categorized by Phase (which pass raised them) and Kind (the
// defect category). Structural, unsupported and configuration errors are
// folded into Garbage tree nodes by the passes; invariant errors are
// returned to the caller.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseTranslate, errors.KindStructural).
//		At(span).
//		Label("outer").
//		Detail("jump target %q is not in scope", "outer").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.Structural(errors.PhaseTranslate, span, "missing payload")
//	err := errors.Unsupported(errors.PhaseCoroutine, span, "await inside closure")
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
