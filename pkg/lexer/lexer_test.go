package lexer

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/xplshn/astro/pkg/token"
	"github.com/xplshn/astro/pkg/util"
)

type tok struct {
	Type  token.Type
	Value string
}

func types(t *testing.T, src string) []tok {
	t.Helper()
	toks, err := Tokenize([]rune(src), 0)
	if err != nil {
		t.Fatalf("Tokenize(%q) error: %v", src, err)
	}
	out := make([]tok, len(toks))
	for i, k := range toks {
		out[i] = tok{k.Type, k.Value}
	}
	return out
}

func TestTokenize(t *testing.T) {
	got := types(t, "x = sqrt(2.5e-3) ** -π % 4; // trailing\nprint(x, 1);")
	want := []tok{
		{token.Ident, "x"}, {token.Eq, ""}, {token.Ident, "sqrt"}, {token.LParen, ""},
		{token.Number, "2.5e-3"}, {token.RParen, ""}, {token.Pow, ""}, {token.Minus, ""},
		{token.Ident, "π"}, {token.Rem, ""}, {token.Number, "4"}, {token.Semi, ""},
		{token.Ident, "print"}, {token.LParen, ""}, {token.Ident, "x"}, {token.Comma, ""},
		{token.Number, "1"}, {token.RParen, ""}, {token.Semi, ""}, {token.EOF, ""},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Tokenize mismatch (-want +got):\n%s", diff)
	}
}

func TestNumbers(t *testing.T) {
	for _, src := range []string{"0", "42", "3.25", "1e9", "1E+9", "6.02e23"} {
		got := types(t, src)
		if len(got) != 2 || got[0].Type != token.Number || got[0].Value != src {
			t.Errorf("Tokenize(%q) = %v, want one number", src, got)
		}
	}
}

func TestEmpty(t *testing.T) {
	got := types(t, "  // only a comment\n\t")
	if len(got) != 1 || got[0].Type != token.EOF {
		t.Errorf("Tokenize of blank input = %v, want [EOF]", got)
	}
}

func TestPositions(t *testing.T) {
	toks, err := Tokenize([]rune("a = 1;\n  bb = 22;"), 3)
	if err != nil {
		t.Fatalf("Tokenize error: %v", err)
	}
	bb := toks[4]
	if bb.Value != "bb" || bb.Line != 2 || bb.Column != 3 || bb.Len != 2 || bb.FileIndex != 3 {
		t.Errorf("token bb = %+v", bb)
	}
	num := toks[6]
	if num.Offset != 14 || num.Len != 2 {
		t.Errorf("token 22 = %+v", num)
	}
}

func TestErrors(t *testing.T) {
	tests := []struct {
		src, msg  string
		line, col int
	}{
		{"x = 1 $ 2;", "Unexpected character: '$'", 1, 7},
		{"x = 1.;", "Malformed number: expected a digit after '.'", 1, 7},
		{"x =\n 2e+;", "Malformed number: exponent has no digits", 2, 5},
	}
	for _, tt := range tests {
		_, err := Tokenize([]rune(tt.src), 0)
		d, ok := err.(*util.Diagnostic)
		if !ok {
			t.Errorf("Tokenize(%q) error = %v, want a *util.Diagnostic", tt.src, err)
			continue
		}
		if d.Msg != tt.msg || d.Tok.Line != tt.line || d.Tok.Column != tt.col {
			t.Errorf("Tokenize(%q) = %q at %d:%d, want %q at %d:%d", tt.src, d.Msg, d.Tok.Line, d.Tok.Column, tt.msg, tt.line, tt.col)
		}
	}
}
