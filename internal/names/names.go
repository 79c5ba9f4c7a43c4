// Package names mints identifiers that cannot collide with input names.
package names

import (
	"fmt"
	"sync/atomic"

	"github.com/wippyai/flowtree/tree"
)

// Namer allocates fresh names.
type Namer interface {
	Fresh(hint string) tree.Name
}

// Generator is a Namer backed by a monotonic counter. It is safe for
// concurrent use, so one Generator can serve bodies translated in
// parallel.
type Generator struct {
	n atomic.Int64
}

// NewGenerator returns a generator whose first name is numbered 1.
func NewGenerator() *Generator {
	return &Generator{}
}

// Fresh returns hint suffixed with a unique number. The "#" separator
// does not occur in input identifiers.
func (g *Generator) Fresh(hint string) tree.Name {
	return tree.Name(fmt.Sprintf("%s#%d", hint, g.n.Add(1)))
}
