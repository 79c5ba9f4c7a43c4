// Package cfg holds the input control-flow graph of one function body.
//
// Nodes live in an arena and are addressed by NodeID. Statement payloads
// and branch conditions live in a separate payload store addressed by Ref,
// so a node can point at something that is missing or malformed without
// the graph itself being invalid. Labels are resolved once, when the graph
// is finished, into a side table mapping each jump to the Loop, Labeled or
// OrElse node it targets.
package cfg
