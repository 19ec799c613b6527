package codegen

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/xplshn/astro/pkg/ir"
)

// ErrInternal marks generator failures caused by a graph the generators
// cannot map. Well-formed input never triggers it.
var ErrInternal = errors.New("internal compiler error")

// Backend is the interface that all code generation backends must implement.
// A Backend keeps no state between calls, so one value may serve many
// concurrent compilations.
type Backend interface {
	Name() string
	// Generate renders an optimized program as target text
	Generate(prog *ir.Program) (string, error)
}

// internal carries an ErrInternal out of a generator's recursion
type internal struct{ err error }

func fail(backend, format string, args ...interface{}) {
	panic(internal{errors.Wrapf(ErrInternal, "%s: %s", backend, fmt.Sprintf(format, args...))})
}

// recoverInternal turns a fail panic into *err
func recoverInternal(err *error) {
	if r := recover(); r != nil {
		ie, ok := r.(internal)
		if !ok {
			panic(r)
		}
		*err = ie.err
	}
}
