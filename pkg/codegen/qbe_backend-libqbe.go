//go:build !windows

package codegen

import (
	"bytes"
	"fmt"
	"runtime"
	"strings"

	"github.com/xplshn/astro/pkg/ir"
	"modernc.org/libqbe"
)

// Assemble generates QBE IR for prog and lowers it with the embedded QBE
func (b *QBEBackend) Assemble(prog *ir.Program) (string, error) {
	qbeIR, err := b.GenerateIR(prog)
	if err != nil {
		return "", err
	}

	target := b.Target
	if target == "" {
		target = libqbe.DefaultTarget(runtime.GOOS, runtime.GOARCH)
	}

	var asmBuf bytes.Buffer
	if err := libqbe.Main(target, "input.ssa", strings.NewReader(qbeIR), &asmBuf, nil); err != nil {
		return "", fmt.Errorf("\n--- QBE Compilation Failed ---\nGenerated IR:\n%s\n\nlibqbe error: %w", qbeIR, err)
	}
	return asmBuf.String(), nil
}
