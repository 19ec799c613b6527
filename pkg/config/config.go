package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/xplshn/astro/pkg/cli"
	"modernc.org/libqbe"
)

type Feature int

const (
	FeatFoldConstants Feature = iota
	FeatStrengthReduce
	FeatSelfAssignElim
	FeatFoldCalls
	FeatCount
)

type Warning int

const (
	WarnSelfAssign Warning = iota
	WarnUnused
	WarnCount
)

type Info struct {
	Name        string
	Enabled     bool
	Description string
}

type Config struct {
	Features   map[Feature]Info
	Warnings   map[Warning]Info
	FeatureMap map[string]Feature
	WarningMap map[string]Warning
	Target     string
	QbeTarget  string
}

// Targets lists the accepted backend names
var Targets = []string{"js", "c", "llvm", "qbe"}

func NewConfig() *Config {
	cfg := &Config{
		Features:   make(map[Feature]Info),
		Warnings:   make(map[Warning]Info),
		FeatureMap: make(map[string]Feature),
		WarningMap: make(map[string]Warning),
		Target:     "js",
	}

	features := map[Feature]Info{
		FeatFoldConstants:  {"fold-constants", true, "Replace operations on literals by their value."},
		FeatStrengthReduce: {"strength-reduce", true, "Apply algebraic identities such as x*1 and 0+x."},
		FeatSelfAssignElim: {"self-assign-elim", true, "Drop assignments of a variable to itself."},
		FeatFoldCalls:      {"fold-calls", true, "Evaluate sqrt, sin and cos of literal arguments."},
	}

	warnings := map[Warning]Info{
		WarnSelfAssign: {"self-assign", true, "Warn when a variable is assigned to itself."},
		WarnUnused:     {"unused", false, "Warn about variables that are assigned but never read."},
	}

	cfg.Features, cfg.Warnings = features, warnings
	for ft, info := range features {
		cfg.FeatureMap[info.Name] = ft
	}
	for wt, info := range warnings {
		cfg.WarningMap[info.Name] = wt
	}

	return cfg
}

// SetTarget selects the backend and, for QBE, the target ABI. An empty
// qbeTarget falls back to the host.
func (c *Config) SetTarget(goos, goarch, backend, qbeTarget string) error {
	if backend != "" {
		if !isTarget(backend) {
			return fmt.Errorf("unsupported target '%s'. Supported: %s", backend, strings.Join(Targets, ", "))
		}
		c.Target = backend
	}

	switch {
	case qbeTarget != "":
		c.QbeTarget = qbeTarget
	case c.QbeTarget == "":
		c.QbeTarget = libqbe.DefaultTarget(goos, goarch)
	}

	if c.Target != "qbe" {
		return nil
	}
	switch c.QbeTarget {
	case "amd64_sysv", "amd64_apple", "arm64", "arm64_apple", "rv64":
		return nil
	default:
		return fmt.Errorf("unsupported QBE target '%s'", c.QbeTarget)
	}
}

func isTarget(name string) bool {
	for _, t := range Targets {
		if t == name {
			return true
		}
	}
	return false
}

func (c *Config) SetFeature(ft Feature, enabled bool) {
	if info, ok := c.Features[ft]; ok {
		info.Enabled = enabled
		c.Features[ft] = info
	}
}

func (c *Config) IsFeatureEnabled(ft Feature) bool { return c.Features[ft].Enabled }

func (c *Config) SetWarning(wt Warning, enabled bool) {
	if info, ok := c.Warnings[wt]; ok {
		info.Enabled = enabled
		c.Warnings[wt] = info
	}
}

func (c *Config) IsWarningEnabled(wt Warning) bool { return c.Warnings[wt].Enabled }

// SetupFlagGroups registers -W<name>/-Wno-<name> and -F<name>/-Fno-<name>
// for every warning and feature. The returned entries are indexed by
// Warning and Feature respectively and only record what the command line
// asked for, so they can be applied on top of a configuration file.
func (c *Config) SetupFlagGroups(fs *cli.FlagSet) (warnings, features []cli.FlagGroupEntry) {
	warnings = make([]cli.FlagGroupEntry, WarnCount)
	for i := Warning(0); i < WarnCount; i++ {
		info := c.Warnings[i]
		warnings[i] = cli.FlagGroupEntry{Name: info.Name, Prefix: "W", Usage: info.Description, Default: info.Enabled, Enabled: new(bool), Disabled: new(bool)}
	}
	features = make([]cli.FlagGroupEntry, FeatCount)
	for i := Feature(0); i < FeatCount; i++ {
		info := c.Features[i]
		features[i] = cli.FlagGroupEntry{Name: info.Name, Prefix: "F", Usage: info.Description, Default: info.Enabled, Enabled: new(bool), Disabled: new(bool)}
	}
	fs.AddFlagGroup("Warning Flags", "Enable or disable specific warnings", "warning flag", "Available Warning Flags:", warnings)
	fs.AddFlagGroup("Feature Flags", "Enable or disable optimizer passes", "feature flag", "Available feature flags:", features)
	return warnings, features
}

// ApplyFlagGroups copies the flags given on the command line into the config
func (c *Config) ApplyFlagGroups(warnings, features []cli.FlagGroupEntry) {
	for i, entry := range warnings {
		if entry.Enabled != nil && *entry.Enabled {
			c.SetWarning(Warning(i), true)
		}
		if entry.Disabled != nil && *entry.Disabled {
			c.SetWarning(Warning(i), false)
		}
	}
	for i, entry := range features {
		if entry.Enabled != nil && *entry.Enabled {
			c.SetFeature(Feature(i), true)
		}
		if entry.Disabled != nil && *entry.Disabled {
			c.SetFeature(Feature(i), false)
		}
	}
}

// SetAllWarnings is what -Wall and -Wno-all do
func (c *Config) SetAllWarnings(enabled bool) {
	for i := Warning(0); i < WarnCount; i++ {
		c.SetWarning(i, enabled)
	}
}

// fileConfig mirrors the accepted layout of an astro.toml file
type fileConfig struct {
	Target    string          `toml:"target"`
	QbeTarget string          `toml:"qbe-target"`
	Features  map[string]bool `toml:"features"`
	Warnings  map[string]bool `toml:"warnings"`
}

// LoadFile applies the settings of a TOML configuration file
func (c *Config) LoadFile(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := c.load(string(content)); err != nil {
		return fmt.Errorf("reading config %s: %w", path, err)
	}
	return nil
}

// LoadString is LoadFile for in-memory content
func (c *Config) LoadString(content string) error {
	if err := c.load(content); err != nil {
		return fmt.Errorf("reading config: %w", err)
	}
	return nil
}

// load decodes content and applies it. Unknown keys, feature names and
// warning names are rejected.
func (c *Config) load(content string) error {
	var fc fileConfig
	md, err := toml.Decode(content, &fc)
	if err != nil {
		return err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("unknown key '%s'", undecoded[0])
	}
	return c.apply(fc)
}

func (c *Config) apply(fc fileConfig) error {
	if fc.Target != "" {
		if !isTarget(fc.Target) {
			return fmt.Errorf("unsupported target '%s'. Supported: %s", fc.Target, strings.Join(Targets, ", "))
		}
		c.Target = fc.Target
	}
	if fc.QbeTarget != "" {
		c.QbeTarget = fc.QbeTarget
	}
	for name, on := range fc.Features {
		ft, ok := c.FeatureMap[name]
		if !ok {
			return fmt.Errorf("unknown feature '%s'", name)
		}
		c.SetFeature(ft, on)
	}
	if on, ok := fc.Warnings["all"]; ok {
		c.SetAllWarnings(on)
	}
	for name, on := range fc.Warnings {
		if name == "all" {
			continue
		}
		wt, ok := c.WarningMap[name]
		if !ok {
			return fmt.Errorf("unknown warning '%s'", name)
		}
		c.SetWarning(wt, on)
	}
	return nil
}
