// Package coroutine lowers a suspendable body into a resumable state
// machine for targets without native coroutines.
//
// The body's graph is first desugared so that every await becomes a yield
// followed by a synchronous unpack of the awaited promise. The graph is
// then partitioned into maximal paths that end at yields and branches,
// each path gets one dispatch case (two when the branch taken after a
// yield must be decided after resuming), and names live across cases are
// lifted out of the helper so they survive between turns.
//
// The emitted helper looks like
//
//	let caseIndexLocal = caseIndex
//	caseIndex = -1
//	when (caseIndexLocal) {
//	  0 -> { ...; caseIndex = 1; return ValueResult(a) }
//	  1 -> { ...; return doneResult() }
//	  else -> return doneResult()
//	}
//
// Resetting caseIndex before dispatch means a turn that fails part way is
// never re-run: the next call reports done.
package coroutine
