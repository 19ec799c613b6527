package cli

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func newTestApp() (*App, *string, *bool, []FlagGroupEntry) {
	app := NewApp("astro")
	var out string
	var verbose bool
	app.FlagSet.String(&out, "output", "o", "a.out", "Place the output into <file>", "file")
	app.FlagSet.Bool(&verbose, "verbose", "v", false, "Log every stage")
	entries := []FlagGroupEntry{
		{Name: "unused", Prefix: "W", Usage: "Unused variables", Enabled: new(bool), Disabled: new(bool)},
		{Name: "self-assign", Prefix: "W", Usage: "Self assignments", Default: true, Enabled: new(bool), Disabled: new(bool)},
	}
	app.FlagSet.AddFlagGroup("Warning Flags", "Enable or disable specific warnings", "warning flag", "Available Warning Flags:", entries)
	return app, &out, &verbose, entries
}

func TestParse(t *testing.T) {
	app, out, verbose, entries := newTestApp()
	var got []string
	app.Action = func(args []string) error {
		got = args
		return nil
	}

	if err := app.Run([]string{"-o", "prog.js", "--verbose", "-Wunused", "-Wno-self-assign", "main.astro"}); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if *out != "prog.js" {
		t.Errorf("output = %q, want prog.js", *out)
	}
	if !*verbose {
		t.Errorf("verbose was not set")
	}
	if !*entries[0].Enabled || *entries[0].Disabled {
		t.Errorf("-Wunused not recorded: %+v", entries[0])
	}
	if !*entries[1].Disabled {
		t.Errorf("-Wno-self-assign not recorded")
	}
	if len(got) != 1 || got[0] != "main.astro" {
		t.Errorf("args = %v, want [main.astro]", got)
	}
}

func TestParseForms(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"--output=x.c"}, "x.c"},
		{[]string{"--output", "x.c"}, "x.c"},
		{[]string{"-ox.c"}, "x.c"},
		{[]string{"-o", "x.c"}, "x.c"},
	}
	for _, tt := range tests {
		app, out, _, _ := newTestApp()
		if err := app.FlagSet.Parse(tt.args); err != nil {
			t.Errorf("Parse(%v) error: %v", tt.args, err)
			continue
		}
		if *out != tt.want {
			t.Errorf("Parse(%v): output = %q, want %q", tt.args, *out, tt.want)
		}
	}
}

func TestParseErrors(t *testing.T) {
	for _, args := range [][]string{{"--nope"}, {"-q"}, {"--output"}} {
		app, _, _, _ := newTestApp()
		var stderr bytes.Buffer
		app.Stderr = &stderr
		if err := app.Run(args); err == nil {
			t.Errorf("Run(%v) succeeded, want an error", args)
		}
		if !strings.Contains(stderr.String(), "Usage: astro") {
			t.Errorf("Run(%v) did not print the usage line, got %q", args, stderr.String())
		}
	}
}

func TestHelp(t *testing.T) {
	app, _, _, _ := newTestApp()
	var stdout bytes.Buffer
	app.Stdout = &stdout
	called := false
	app.Action = func([]string) error { called = true; return nil }

	err := app.Run([]string{"--help"})
	if !errors.Is(err, ErrHelp) {
		t.Fatalf("Run(--help) = %v, want ErrHelp", err)
	}
	if called {
		t.Errorf("Action ran after --help")
	}
	help := stdout.String()
	for _, want := range []string{"Options", "output", "Warning Flags", "self-assign"} {
		if !strings.Contains(help, want) {
			t.Errorf("help page lacks %q:\n%s", want, help)
		}
	}
}

func TestHelpGroupState(t *testing.T) {
	app, _, _, _ := newTestApp()
	var stdout bytes.Buffer
	app.Stdout = &stdout
	if err := app.Run([]string{"-Wunused", "--help"}); !errors.Is(err, ErrHelp) {
		t.Fatalf("Run = %v, want ErrHelp", err)
	}
	for _, line := range strings.Split(stdout.String(), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		state := fields[len(fields)-1]
		switch fields[0] {
		case "unused", "self-assign":
			if state != "|x|" {
				t.Errorf("%s shown as %s, want |x|", fields[0], state)
			}
		}
	}
	if strings.Contains(stdout.String(), "Wno-unused ") {
		t.Errorf("group flags leaked into the option list:\n%s", stdout.String())
	}
}

func TestBoolValue(t *testing.T) {
	app, _, verbose, _ := newTestApp()
	if err := app.FlagSet.Parse([]string{"--verbose=false"}); err != nil || *verbose {
		t.Errorf("--verbose=false: verbose = %v, err = %v", *verbose, err)
	}
	if err := app.FlagSet.Parse([]string{"--verbose=maybe"}); err == nil {
		t.Errorf("--verbose=maybe succeeded, want an error")
	}
}

func TestDoubleDash(t *testing.T) {
	app, out, _, _ := newTestApp()
	if err := app.FlagSet.Parse([]string{"a.astro", "--", "-o", "b"}); err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if *out != "a.out" {
		t.Errorf("output = %q, flags after -- were parsed", *out)
	}
	if got := strings.Join(app.FlagSet.Args(), " "); got != "a.astro -o b" {
		t.Errorf("Args() = %q", got)
	}
}

func TestWrap(t *testing.T) {
	tests := []struct {
		text  string
		width int
		want  []string
	}{
		{"", 10, nil},
		{"one two three", 20, []string{"one two three"}},
		{"one two three", 7, []string{"one two", "three"}},
		{"extraordinarily long", 5, []string{"extraordinarily", "long"}},
	}
	for _, tt := range tests {
		got := wrap(tt.text, tt.width)
		if strings.Join(got, "|") != strings.Join(tt.want, "|") || len(got) != len(tt.want) {
			t.Errorf("wrap(%q, %d) = %q, want %q", tt.text, tt.width, got, tt.want)
		}
	}
}

func TestFlagGroupEntryEnabled(t *testing.T) {
	on, off := true, false
	tests := []struct {
		entry FlagGroupEntry
		want  bool
	}{
		{FlagGroupEntry{Default: true}, true},
		{FlagGroupEntry{Default: true, Enabled: &off, Disabled: &on}, false},
		{FlagGroupEntry{Default: false, Enabled: &on, Disabled: &off}, true},
		{FlagGroupEntry{Default: false, Enabled: &off, Disabled: &off}, false},
	}
	for i, tt := range tests {
		if got := tt.entry.enabled(); got != tt.want {
			t.Errorf("case %d: enabled() = %v, want %v", i, got, tt.want)
		}
	}
}
