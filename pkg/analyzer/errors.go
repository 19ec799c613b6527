package analyzer

import (
	"errors"
	"fmt"

	"github.com/xplshn/astro/pkg/token"
)

// Error kinds. Every *Error wraps exactly one of them.
var (
	ErrNotDefined    = errors.New("not defined")
	ErrWrongKind     = errors.New("wrong kind")
	ErrNotWritable   = errors.New("not writable")
	ErrArityMismatch = errors.New("arity mismatch")
	// ErrMalformedTree reports a syntax tree that breaks the node layout
	// contract. The bundled parser never produces one.
	ErrMalformedTree = errors.New("malformed syntax tree")
)

// Error is a semantic error located in the source
type Error struct {
	Kind error
	Tok  token.Token
	Msg  string
}

func (e *Error) Error() string      { return e.Tok.Location() + ": " + e.Msg }
func (e *Error) Unwrap() error      { return e.Kind }
func (e *Error) Token() token.Token { return e.Tok }
func (e *Error) Message() string    { return e.Msg }

func newError(kind error, tok token.Token, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Tok: tok, Msg: fmt.Sprintf(format, args...)}
}
