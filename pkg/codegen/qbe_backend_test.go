//go:build !windows

package codegen_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xplshn/astro/pkg/codegen"
)

func TestQBEAssemble(t *testing.T) {
	b := codegen.NewQBEBackend("")
	asm, err := b.Assemble(compile(t, powerRem, nil))
	require.NoError(t, err)
	if !strings.Contains(asm, "main") {
		t.Errorf("expected a main symbol in:\n%s", asm)
	}
	require.Contains(t, asm, "pow")
	require.Contains(t, asm, "printf")
}
