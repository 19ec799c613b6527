package util

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/xplshn/astro/pkg/token"
)

func files() []SourceFileRecord {
	return []SourceFileRecord{{Name: "main.astro", Content: []rune("x = 1;\ny = zz + 2;\n")}}
}

func TestReporterError(t *testing.T) {
	var buf bytes.Buffer
	r := NewPlainReporter(&buf, files())
	tok := token.Token{Type: token.Ident, Value: "zz", Line: 2, Column: 5, Len: 2}
	r.Error(fmt.Errorf("analyzing: %w", Errorf(tok, "Identifier %s not defined", "zz")))

	want := "main.astro:2:5: error: Identifier zz not defined\n" +
		"  y = zz + 2;\n" +
		"      ^~\n"
	if got := buf.String(); got != want {
		t.Errorf("Error output:\n%q\nwant:\n%q", got, want)
	}
}

func TestReporterPlainError(t *testing.T) {
	var buf bytes.Buffer
	NewPlainReporter(&buf, files()).Error(errors.New("no input files"))
	if got := buf.String(); got != "error: no input files\n" {
		t.Errorf("Error output = %q", got)
	}
}

func TestReporterWarn(t *testing.T) {
	var buf bytes.Buffer
	r := NewPlainReporter(&buf, files())
	r.Warn(Warning{Name: "self-assign", Tok: token.Token{Line: 1, Column: 1, Len: 1}, Msg: "Assignment of 'x' to itself"})

	want := "main.astro:1:1: warning: Assignment of 'x' to itself [-Wself-assign]\n" +
		"  x = 1;\n" +
		"  ^\n"
	if got := buf.String(); got != want {
		t.Errorf("Warn output:\n%q\nwant:\n%q", got, want)
	}
}

func TestReporterUnknownFile(t *testing.T) {
	var buf bytes.Buffer
	r := NewPlainReporter(&buf, nil)
	r.Error(Errorf(token.Token{FileIndex: 4, Line: 3, Column: 2}, "boom"))
	if got := buf.String(); got != "unknown:3:2: error: boom\n" {
		t.Errorf("Error output = %q", got)
	}
}

func TestDiagnostic(t *testing.T) {
	d := Errorf(token.Token{Line: 7, Column: 9}, "Expected %d", 3)
	if d.Error() != "Line 7, col 9: Expected 3" {
		t.Errorf("Error() = %q", d.Error())
	}
	var loc Located = d
	if loc.Message() != "Expected 3" || loc.Token().Line != 7 {
		t.Errorf("Located view = %q at %d", loc.Message(), loc.Token().Line)
	}
}
