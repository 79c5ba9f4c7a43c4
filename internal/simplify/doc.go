// Package simplify holds the order-sensitive rewrites applied to a
// translated tree:
//
//  1. merge adjacent ifs on identical or negated conditions
//  2. move declarations forward to their initializing assignment and
//     combine them
//  3. flatten a try whose recover only propagates failure
//  4. erase void-typed values when void is not reified
//  5. migrate declarations out of blocks when read after the block
//  6. collapse `let r; ...; r = e; return r` into `...; return e`
//
// Run applies 1 to 5; CollapseTailReturns is applied by the caller once
// the function body has been assembled.
package simplify
