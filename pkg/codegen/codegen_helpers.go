package codegen

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/xplshn/astro/pkg/ir"
)

// namer hands out target names of the form <name>_<n>. Numbers follow the
// order in which entities are first met, not their names.
type namer struct {
	prog  *ir.Program
	names map[ir.EntityID]string
	order []string
}

func newNamer(prog *ir.Program) *namer {
	return &namer{prog: prog, names: make(map[ir.EntityID]string)}
}

func (n *namer) name(id ir.EntityID) string {
	if s, ok := n.names[id]; ok {
		return s
	}
	s := fmt.Sprintf("%s_%d", n.prog.Entity(id).Name, len(n.names)+1)
	n.names[id] = s
	return s
}

// declared records a name that needs a declaration, once
func (n *namer) declared(name string) {
	for _, s := range n.order {
		if s == name {
			return
		}
	}
	n.order = append(n.order, name)
}

func builtin(prog *ir.Program, id ir.EntityID) ir.Builtin { return prog.Entity(id).Builtin }

// formatFloat is the shortest decimal that reads back as v
func formatFloat(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

// parenNegative wraps negative literals so that they survive next to a
// higher precedence operator, as in (-12) ** 2.
func parenNegative(s string, v float64) string {
	if math.Signbit(v) {
		return "(" + s + ")"
	}
	return s
}

// hexDouble is the exact 64 bit hexadecimal form accepted by LLVM
func hexDouble(v float64) string { return fmt.Sprintf("0x%016X", math.Float64bits(v)) }

// joinLines ends every line with a newline
func joinLines(lines []string) string {
	var sb strings.Builder
	for _, l := range lines {
		sb.WriteString(l)
		sb.WriteByte('\n')
	}
	return sb.String()
}
