// Package flowtree turns control-flow graphs of function bodies into trees
// of structured statements, for target languages without arbitrary jumps.
// Suspendable bodies can additionally be lowered to resumable state
// machines for targets without native coroutines.
//
// # Architecture Overview
//
// The module is organized into several packages with distinct
// responsibilities:
//
//	flowtree/             Root package: Config, Translator, call matchers
//	├── cfg/              Control-flow graph arena and label scopes
//	├── tree/             Intermediate Tree, fold framework, rendering
//	├── errors/           Structured error types
//	├── internal/
//	│   ├── translate/    Graph to tree translation, try region lowering
//	│   ├── escape/       Escape hatch for jumps crossing a region
//	│   ├── exits/        Exit-set analysis
//	│   ├── simplify/     Declaration and block rewrites
//	│   ├── coroutine/    State machine lowering
//	│   ├── names/        Fresh name generator
//	│   ├── interp/       Reference interpreter for trees
//	│   └── fixture/      YAML fixture format for bodies
//	└── cmd/flowc/        Inspection tool
//
// # Quick Start
//
//	tr, err := flowtree.New(flowtree.Config{
//	    Failure:       flowtree.ExceptionBased,
//	    FailCallNames: []string{"bubble", "panic"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	res, err := tr.Translate(&flowtree.Body{Name: "f", Graph: g, OutputName: "r"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, d := range res.Diagnostics {
//	    log.Println(d)
//	}
//	fmt.Println(tree.Render(res.Tree))
//
// # Failure Strategies
//
// An or-else region in the graph is a tried part plus a recovery part.
// With FlagBased the region becomes two nested labeled blocks and failure
// is a boolean flag checked after each handler scope. With ExceptionBased
// it becomes a Try, flag bookkeeping is dropped and the flag checks become
// failure goals.
//
// # Suspendable Bodies
//
// With ToStateMachine every yield and await splits the body into cases of
// a dispatch on a persistent case index. Locals live across a suspension
// are lifted out of the helper so they survive between turns. The packaged
// body declares that state, declares the helper and returns
// adaptGeneratorFunction(helper). A turn that fails leaves the case index
// at -1, so later turns report done.
//
// # Malformed Input
//
// Translation never aborts on malformed input. Unresolved jumps, missing
// payloads and unsupported shapes become Garbage nodes, listed in
// Result.Diagnostics, and the rest of the body is still translated. Only a
// body without a graph is an error.
//
// # Thread Safety
//
// Translator is safe for concurrent use. TranslateAll translates bodies in
// parallel with one shared Namer.
package flowtree
