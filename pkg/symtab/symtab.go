// Package symtab holds the flat global namespace of a compilation.
package symtab

import "github.com/xplshn/astro/pkg/ir"

// Table maps names to entity handles of one Program. There is a single scope:
// a name is bound at most once and rebinding is never needed, since
// assigning to an existing variable reuses its entity.
type Table struct {
	prog  *ir.Program
	names map[string]ir.EntityID
}

// New returns a table for prog pre-populated with every standard-library
// entity already present in prog's arena.
func New(prog *ir.Program) *Table {
	t := &Table{prog: prog, names: make(map[string]ir.EntityID, len(prog.Entities))}
	for i, e := range prog.Entities {
		if e.Builtin != ir.NotBuiltin {
			t.names[e.Name] = ir.EntityID(i)
		}
	}
	return t
}

// Lookup returns the handle bound to name
func (t *Table) Lookup(name string) (ir.EntityID, bool) {
	id, ok := t.names[name]
	return id, ok
}

// Declare creates a writable variable named name and binds it. The caller
// must have checked that name is unbound.
func (t *Table) Declare(name string) ir.EntityID {
	id := t.prog.AddEntity(ir.Entity{Kind: ir.KindVariable, Name: name, Writable: true})
	t.names[name] = id
	return id
}

// Entity resolves a handle through the underlying program
func (t *Table) Entity(id ir.EntityID) *ir.Entity { return t.prog.Entity(id) }

func (t *Table) Len() int { return len(t.names) }
