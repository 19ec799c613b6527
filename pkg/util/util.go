package util

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/xplshn/astro/pkg/token"
	"golang.org/x/term"
)

// SourceFileRecord tracks the name and content of a single source file.
type SourceFileRecord struct {
	Name    string
	Content []rune
}

// Diagnostic is an error tied to a position in the source
type Diagnostic struct {
	Tok token.Token
	Msg string
}

func (d *Diagnostic) Error() string       { return d.Tok.Location() + ": " + d.Msg }
func (d *Diagnostic) Token() token.Token { return d.Tok }
func (d *Diagnostic) Message() string    { return d.Msg }

// Errorf builds a Diagnostic located at tok
func Errorf(tok token.Token, format string, args ...interface{}) *Diagnostic {
	return &Diagnostic{Tok: tok, Msg: fmt.Sprintf(format, args...)}
}

// Located is implemented by every error that knows where it happened.
type Located interface {
	error
	Token() token.Token
	Message() string
}

// Warning is a non-fatal located diagnostic. Name is the flag name used to
// silence it (-Wno-<name>).
type Warning struct {
	Name string
	Tok  token.Token
	Msg  string
}

// Reporter renders diagnostics against the sources they refer to.
type Reporter struct {
	out   io.Writer
	files []SourceFileRecord
	color bool
}

// NewReporter writes to stream; colors are enabled only when stream is a terminal.
func NewReporter(stream *os.File, files []SourceFileRecord) *Reporter {
	return &Reporter{out: stream, files: files, color: term.IsTerminal(int(stream.Fd()))}
}

// NewPlainReporter writes uncolored diagnostics to w.
func NewPlainReporter(w io.Writer, files []SourceFileRecord) *Reporter {
	return &Reporter{out: w, files: files}
}

func (r *Reporter) paint(code, s string) string {
	if !r.color {
		return s
	}
	return "\033[" + code + "m" + s + "\033[0m"
}

// findFileAndLine converts a token to a file-specific location
func (r *Reporter) findFileAndLine(tok token.Token) (filename string, line, col int) {
	if tok.FileIndex < 0 || tok.FileIndex >= len(r.files) {
		return "unknown", tok.Line, tok.Column
	}
	return r.files[tok.FileIndex].Name, tok.Line, tok.Column
}

// printErrorLine prints the source line and a caret indicating the error position
func (r *Reporter) printErrorLine(tok token.Token) {
	if tok.FileIndex < 0 || tok.FileIndex >= len(r.files) || tok.Line == 0 {
		return
	}

	content := r.files[tok.FileIndex].Content
	lineNum := tok.Line
	lineStart := 0
	for i, ch := range content {
		if lineNum <= 1 {
			break
		}
		if ch == '\n' {
			lineNum--
			lineStart = i + 1
		}
	}

	lineEnd := len(content)
	for i := lineStart; i < len(content); i++ {
		if content[i] == '\n' {
			lineEnd = i
			break
		}
	}

	fmt.Fprintf(r.out, "  %s\n", string(content[lineStart:lineEnd]))

	caret := "^"
	if tok.Len > 1 {
		caret += strings.Repeat("~", tok.Len-1)
	}
	pad := 0
	if tok.Column > 1 {
		pad = tok.Column - 1
	}
	fmt.Fprintf(r.out, "  %s%s\n", strings.Repeat(" ", pad), r.paint("32", caret))
}

// Error prints err. Located errors get a file:line:col prefix and the offending source line.
func (r *Reporter) Error(err error) {
	var loc Located
	if !errors.As(err, &loc) {
		fmt.Fprintf(r.out, "%s %v\n", r.paint("31", "error:"), err)
		return
	}
	tok := loc.Token()
	filename, line, col := r.findFileAndLine(tok)
	fmt.Fprintf(r.out, "%s:%d:%d: %s %s\n", filename, line, col, r.paint("31", "error:"), loc.Message())
	r.printErrorLine(tok)
}

// Warn prints a warning followed by the flag that controls it
func (r *Reporter) Warn(w Warning) {
	filename, line, col := r.findFileAndLine(w.Tok)
	fmt.Fprintf(r.out, "%s:%d:%d: %s %s [-W%s]\n", filename, line, col, r.paint("33", "warning:"), w.Msg, w.Name)
	r.printErrorLine(w.Tok)
}
