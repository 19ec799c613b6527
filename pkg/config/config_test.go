package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xplshn/astro/pkg/cli"
)

func TestDefaults(t *testing.T) {
	cfg := NewConfig()
	assert.Equal(t, "js", cfg.Target)
	for ft := Feature(0); ft < FeatCount; ft++ {
		assert.True(t, cfg.IsFeatureEnabled(ft), "feature %s", cfg.Features[ft].Name)
	}
	assert.True(t, cfg.IsWarningEnabled(WarnSelfAssign))
	assert.False(t, cfg.IsWarningEnabled(WarnUnused))
	assert.Equal(t, WarnUnused, cfg.WarningMap["unused"])
	assert.Equal(t, FeatFoldCalls, cfg.FeatureMap["fold-calls"])
}

func TestSetTarget(t *testing.T) {
	cfg := NewConfig()
	require.NoError(t, cfg.SetTarget("linux", "amd64", "c", ""))
	assert.Equal(t, "c", cfg.Target)
	assert.NotEmpty(t, cfg.QbeTarget)

	require.NoError(t, cfg.SetTarget("linux", "arm64", "qbe", "rv64"))
	assert.Equal(t, "qbe", cfg.Target)
	assert.Equal(t, "rv64", cfg.QbeTarget)

	assert.Error(t, NewConfig().SetTarget("linux", "amd64", "wasm", ""))
	assert.Error(t, NewConfig().SetTarget("linux", "amd64", "qbe", "pdp11"))
	// a bad QBE target only matters when QBE is selected
	assert.NoError(t, NewConfig().SetTarget("linux", "amd64", "llvm", "pdp11"))
}

func TestLoadString(t *testing.T) {
	cfg := NewConfig()
	err := cfg.LoadString(`
target = "llvm"
qbe-target = "arm64"

[features]
fold-calls = false

[warnings]
all = true
self-assign = false
`)
	require.NoError(t, err)
	assert.Equal(t, "llvm", cfg.Target)
	assert.Equal(t, "arm64", cfg.QbeTarget)
	assert.False(t, cfg.IsFeatureEnabled(FeatFoldCalls))
	assert.True(t, cfg.IsFeatureEnabled(FeatFoldConstants))
	assert.True(t, cfg.IsWarningEnabled(WarnUnused))
	assert.False(t, cfg.IsWarningEnabled(WarnSelfAssign))
}

func TestLoadErrors(t *testing.T) {
	tests := map[string]string{
		"bad target":   `target = "fortran"`,
		"bad feature":  "[features]\ninline = true",
		"bad warning":  "[warnings]\nshadow = true",
		"syntax error": `target = `,
		"unknown key":  "optimize = true",
		"nested key":   "[features]\n[features.fold-calls]\nlevel = 2",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, NewConfig().LoadString(content))
		})
	}
}

func TestLoadStringMatchesLoadFile(t *testing.T) {
	content := "target = \"c\"\nverbose = true\n"
	path := filepath.Join(t.TempDir(), "astro.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	fromString := NewConfig().LoadString(content)
	fromFile := NewConfig().LoadFile(path)
	require.Error(t, fromString)
	require.Error(t, fromFile)
	assert.Contains(t, fromString.Error(), "unknown key 'verbose'")
	assert.Contains(t, fromFile.Error(), "unknown key 'verbose'")
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "astro.toml")
	require.NoError(t, os.WriteFile(good, []byte("target = \"c\"\n[warnings]\nunused = true\n"), 0644))

	cfg := NewConfig()
	require.NoError(t, cfg.LoadFile(good))
	assert.Equal(t, "c", cfg.Target)
	assert.True(t, cfg.IsWarningEnabled(WarnUnused))

	unknown := filepath.Join(dir, "unknown.toml")
	require.NoError(t, os.WriteFile(unknown, []byte("optimize = true\n"), 0644))
	assert.ErrorContains(t, NewConfig().LoadFile(unknown), "unknown key 'optimize'")

	assert.Error(t, NewConfig().LoadFile(filepath.Join(dir, "missing.toml")))
}

func TestFlagGroups(t *testing.T) {
	cfg := NewConfig()
	fs := cli.NewFlagSet("astro")
	warnings, features := cfg.SetupFlagGroups(fs)
	require.Len(t, warnings, int(WarnCount))
	require.Len(t, features, int(FeatCount))

	require.NoError(t, fs.Parse([]string{"-Wunused", "-Wno-self-assign", "-Fno-strength-reduce"}))
	cfg.ApplyFlagGroups(warnings, features)

	assert.True(t, cfg.IsWarningEnabled(WarnUnused))
	assert.False(t, cfg.IsWarningEnabled(WarnSelfAssign))
	assert.False(t, cfg.IsFeatureEnabled(FeatStrengthReduce))
	assert.True(t, cfg.IsFeatureEnabled(FeatFoldConstants))
}

func TestFlagGroupsOverrideFile(t *testing.T) {
	cfg := NewConfig()
	require.NoError(t, cfg.LoadString("[features]\nfold-constants = false\n"))

	fs := cli.NewFlagSet("astro")
	warnings, features := cfg.SetupFlagGroups(fs)
	require.NoError(t, fs.Parse([]string{"-Ffold-constants"}))
	cfg.ApplyFlagGroups(warnings, features)
	assert.True(t, cfg.IsFeatureEnabled(FeatFoldConstants))

	// untouched flags leave the file's choice alone
	cfg = NewConfig()
	require.NoError(t, cfg.LoadString("[features]\nfold-constants = false\n"))
	fs = cli.NewFlagSet("astro")
	warnings, features = cfg.SetupFlagGroups(fs)
	require.NoError(t, fs.Parse(nil))
	cfg.ApplyFlagGroups(warnings, features)
	assert.False(t, cfg.IsFeatureEnabled(FeatFoldConstants))
}

func TestSetAllWarnings(t *testing.T) {
	cfg := NewConfig()
	cfg.SetAllWarnings(true)
	for wt := Warning(0); wt < WarnCount; wt++ {
		assert.True(t, cfg.IsWarningEnabled(wt))
	}
	cfg.SetAllWarnings(false)
	for wt := Warning(0); wt < WarnCount; wt++ {
		assert.False(t, cfg.IsWarningEnabled(wt))
	}
}
