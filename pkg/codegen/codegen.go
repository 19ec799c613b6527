// Package codegen renders an optimized Program graph as JavaScript, C, LLVM
// IR or QBE IR.
package codegen

import (
	"fmt"
	"strings"

	"github.com/xplshn/astro/pkg/ir"
)

type Target string

const (
	TargetJS   Target = "js"
	TargetC    Target = "c"
	TargetLLVM Target = "llvm"
	TargetQBE  Target = "qbe"
)

// Targets lists every target in a stable order
var Targets = []Target{TargetJS, TargetC, TargetLLVM, TargetQBE}

// Select returns the backend for target. qbeTarget is only used by the QBE
// backend; an empty string selects the host default.
func Select(target Target, qbeTarget string) (Backend, error) {
	switch target {
	case TargetJS: return NewJSBackend(), nil
	case TargetC: return NewCBackend(), nil
	case TargetLLVM: return NewLLVMBackend(), nil
	case TargetQBE: return NewQBEBackend(qbeTarget), nil
	}
	names := make([]string, len(Targets))
	for i, t := range Targets {
		names[i] = string(t)
	}
	return nil, fmt.Errorf("unsupported target '%s'. Supported: %s", target, strings.Join(names, ", "))
}

// Generate selects the backend for target and runs it on prog
func Generate(prog *ir.Program, target Target) (string, error) {
	b, err := Select(target, "")
	if err != nil {
		return "", err
	}
	return b.Generate(prog)
}
