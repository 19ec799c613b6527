package parser

import (
	"strings"
	"testing"

	"github.com/xplshn/astro/pkg/syntax"
	"github.com/xplshn/astro/pkg/util"
)

// sexpr renders a tree compactly, leaves by their text
func sexpr(n syntax.Node) string {
	switch n.Kind() {
	case syntax.Ident, syntax.Number, syntax.Operator:
		return n.Text()
	}
	parts := []string{n.Kind().String()}
	for _, c := range n.Children() {
		parts = append(parts, sexpr(c))
	}
	return "(" + strings.Join(parts, " ") + ")"
}

func parse(t *testing.T, src string) syntax.Node {
	t.Helper()
	root, err := Parse([]rune(src), 0)
	if err != nil {
		t.Fatalf("Parse(%q) error: %v", src, err)
	}
	return root
}

func TestParse(t *testing.T) {
	tests := []struct {
		src, want string
	}{
		{"x = 1;", "(Program (Assign x 1))"},
		{"print(x);", "(Program (CallStmt print x))"},
		{"f();", "(Program (CallStmt f))"},
		{"x = 1 + 2 * 3;", "(Program (Assign x (Binary 1 + (Binary 2 * 3))))"},
		{"x = 1 - 2 - 3;", "(Program (Assign x (Binary (Binary 1 - 2) - 3)))"},
		{"x = 2 ** 3 ** 2;", "(Program (Assign x (Binary 2 ** (Binary 3 ** 2))))"},
		{"x = (-a) ** 2;", "(Program (Assign x (Binary (Paren (Unary - a)) ** 2)))"},
		{"x = -(a ** 2);", "(Program (Assign x (Unary - (Paren (Binary a ** 2)))))"},
		{"x = 2 ** -a;", "(Program (Assign x (Binary 2 ** (Unary - a))))"},
		{"x = (1 + 2) % 3;", "(Program (Assign x (Binary (Paren (Binary 1 + 2)) % 3)))"},
		{"x = hypot(3, sin(π)) / 2;", "(Program (Assign x (Binary (Call hypot 3 (Call sin π)) / 2)))"},
		{"a = 1; print(a);", "(Program (Assign a 1) (CallStmt print a))"},
	}
	for _, tt := range tests {
		if got := sexpr(parse(t, tt.src)); got != tt.want {
			t.Errorf("Parse(%q) = %s, want %s", tt.src, got, tt.want)
		}
	}
}

func TestSpans(t *testing.T) {
	root := parse(t, "x = 1;\ny = hypot(x, 2) * 3;")
	stmts := root.Children()
	if got := stmts[1].Text(); got != "y = hypot(x, 2) * 3;" {
		t.Errorf("statement text = %q", got)
	}
	binary := stmts[1].Children()[1]
	if got := binary.Text(); got != "hypot(x, 2) * 3" {
		t.Errorf("expression text = %q", got)
	}
	if tok := binary.Tok(); tok.Line != 2 || tok.Column != 5 {
		t.Errorf("expression starts at %d:%d, want 2:5", tok.Line, tok.Column)
	}
}

func TestErrors(t *testing.T) {
	tests := []struct {
		src, want string
	}{
		{"", "Line 1, col 1: Expected a statement (assignment or call)."},
		{"x = 1", "Line 1, col 6: Expected ';' after assignment."},
		{"print(1)", "Line 1, col 9: Expected ';' after call statement."},
		{"x + 1;", "Line 1, col 3: Expected '=' or '(' after 'x'."},
		{"x = ;", "Line 1, col 5: Expected an expression."},
		{"x = -a ** 2;", "Line 1, col 8: Expected ';' after assignment."},
		{"x = (1;", "Line 1, col 7: Expected ')' after expression."},
		{"f(1, 2;", "Line 1, col 7: Expected ')' after arguments."},
		{"x = 1;\n3 = x;", "Line 2, col 1: Expected a statement (assignment or call)."},
		{"x = 1 # 2;", "Line 1, col 7: Unexpected character: '#'"},
	}
	for _, tt := range tests {
		_, err := Parse([]rune(tt.src), 0)
		if err == nil {
			t.Errorf("Parse(%q) succeeded, want %q", tt.src, tt.want)
			continue
		}
		if _, ok := err.(*util.Diagnostic); !ok {
			t.Errorf("Parse(%q) error type %T, want *util.Diagnostic", tt.src, err)
		}
		if err.Error() != tt.want {
			t.Errorf("Parse(%q) error = %q, want %q", tt.src, err.Error(), tt.want)
		}
	}
}
