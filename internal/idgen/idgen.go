// Package idgen provides the core's only source of fresh identifiers: a
// monotonically increasing counter, per §6's IdGenerator contract. It is
// per-VM state, never global.
package idgen

// Generator hands out unique, comparable, hashable ids.
type Generator struct {
	next uint64
}

// New returns a generator whose first Fresh() call yields 1 (0 is reserved
// so a zero-valued id field reliably means "unset").
func New() *Generator {
	return &Generator{next: 1}
}

// Fresh returns a new id, never repeated by this generator.
func (g *Generator) Fresh() uint64 {
	id := g.next
	g.next++
	return id
}
