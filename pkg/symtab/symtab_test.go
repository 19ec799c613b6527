package symtab

import (
	"testing"

	"github.com/xplshn/astro/pkg/ir"
)

func TestStandardLibrary(t *testing.T) {
	tab := New(ir.NewProgram())
	if tab.Len() != len(ir.StandardLibrary) {
		t.Errorf("Len() = %d, want %d", tab.Len(), len(ir.StandardLibrary))
	}
	for i, e := range ir.StandardLibrary {
		id, ok := tab.Lookup(e.Name)
		if !ok || id != ir.EntityID(i) {
			t.Errorf("Lookup(%q) = %d, %v, want %d", e.Name, id, ok, i)
		}
	}
	if _, ok := tab.Lookup("x"); ok {
		t.Errorf("Lookup found an undeclared name")
	}
}

func TestDeclare(t *testing.T) {
	prog := ir.NewProgram()
	tab := New(prog)
	x := tab.Declare("x")
	if got, ok := tab.Lookup("x"); !ok || got != x {
		t.Errorf("Lookup(x) = %d, %v, want %d", got, ok, x)
	}
	e := tab.Entity(x)
	if e.Kind != ir.KindVariable || !e.Writable || e.Name != "x" {
		t.Errorf("declared entity = %+v", e)
	}
	if prog.Entity(x) != e {
		t.Errorf("table and program disagree on entity %d", x)
	}
	if y := tab.Declare("y"); y == x {
		t.Errorf("Declare reused handle %d", x)
	}
	if tab.Len() != len(ir.StandardLibrary)+2 {
		t.Errorf("Len() = %d", tab.Len())
	}
}

func TestUserEntitiesNotPreloaded(t *testing.T) {
	prog := ir.NewProgram()
	prog.AddEntity(ir.Entity{Kind: ir.KindVariable, Name: "stale", Writable: true})
	if _, ok := New(prog).Lookup("stale"); ok {
		t.Errorf("New bound a non-builtin entity")
	}
}
