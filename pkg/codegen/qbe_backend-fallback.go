//go:build windows

package codegen

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/xplshn/astro/pkg/ir"
)

// Assemble generates QBE IR for prog and lowers it with the system's qbe,
// since the embedded one is not available on Windows.
func (b *QBEBackend) Assemble(prog *ir.Program) (string, error) {
	if _, err := exec.LookPath("qbe"); err != nil {
		return "", fmt.Errorf("QBE not found in PATH: %w", err)
	}

	qbeIR, err := b.GenerateIR(prog)
	if err != nil {
		return "", err
	}

	inputFile, err := os.CreateTemp("", "astro-qbe-*.temp.ssa")
	if err != nil {
		return "", err
	}
	defer os.Remove(inputFile.Name())
	if _, err := inputFile.WriteString(qbeIR); err != nil {
		inputFile.Close()
		return "", err
	}
	if err := inputFile.Close(); err != nil {
		return "", err
	}

	outputFileName := inputFile.Name() + ".asm"
	defer os.Remove(outputFileName)

	args := []string{"-o", outputFileName}
	if b.Target != "" {
		args = append(args, "-t", b.Target)
	}
	args = append(args, inputFile.Name())
	if err := exec.Command("qbe", args...).Run(); err != nil {
		return "", fmt.Errorf("\n--- QBE Compilation Failed ---\nGenerated IR:\n%s\n\nError: %w", qbeIR, err)
	}

	asm, err := os.ReadFile(outputFileName)
	if err != nil {
		return "", err
	}
	return string(asm), nil
}
