package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"golang.org/x/term"
)

// ErrHelp is returned by Run when the help page was requested
var ErrHelp = errors.New("help requested")

const indent = "    "

type App struct {
	Name        string
	Synopsis    string
	Description string
	Authors     []string
	Repository  string
	Since       int
	// Inputs is the operand placeholder shown on the usage line
	Inputs  string
	FlagSet *FlagSet
	Action  func(args []string) error

	Stdout io.Writer
	Stderr io.Writer
}

func NewApp(name string) *App {
	return &App{
		Name:    name,
		Inputs:  "[input]",
		FlagSet: NewFlagSet(name),
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
	}
}

// Run parses arguments and calls Action with the operands. A parse error
// prints the usage page to Stderr; --help prints the help page to Stdout
// and returns ErrHelp.
func (a *App) Run(arguments []string) error {
	help := false
	a.FlagSet.Bool(&help, "help", "h", false, "Display this information")

	if err := a.FlagSet.Parse(arguments); err != nil {
		fmt.Fprintln(a.Stderr, err)
		a.writeUsage(a.Stderr)
		return err
	}
	if help {
		a.writeHelp(a.Stdout)
		return ErrHelp
	}
	if a.Action != nil {
		return a.Action(a.FlagSet.Args())
	}
	return nil
}

// row is one line of a help table: the flag spelling, its description and
// an optional state column such as |x| or a default value.
type row struct{ left, usage, state string }

func (a *App) options() []*Flag {
	var flags []*Flag
	for name, fl := range a.FlagSet.long {
		if !a.FlagSet.grouped[name] {
			flags = append(flags, fl)
		}
	}
	sort.Slice(flags, func(i, j int) bool { return flags[i].Name < flags[j].Name })
	return flags
}

func spelling(fl *Flag) string {
	arg := ""
	if !fl.isBool() && fl.Placeholder != "" {
		arg = " <" + fl.Placeholder + ">"
	}
	if fl.Shorthand == "" {
		return "--" + fl.Name + arg
	}
	return "-" + fl.Shorthand + ", --" + fl.Name + arg
}

func (a *App) optionRows() []row {
	var rows []row
	for _, fl := range a.options() {
		r := row{left: spelling(fl), usage: fl.Usage}
		if !fl.isBool() && fl.DefValue != "" {
			r.state = "|" + fl.DefValue + "|"
		}
		rows = append(rows, r)
	}
	return rows
}

func groupRows(g FlagGroup) (head, entries []row) {
	kind := g.Kind
	if kind == "" {
		kind = "flag"
	}
	prefix := ""
	if len(g.Entries) > 0 {
		prefix = g.Entries[0].Prefix
	}
	head = []row{
		{left: "-" + prefix + "<" + kind + ">", usage: "Enable a specific " + kind},
		{left: "-" + prefix + "no-<" + kind + ">", usage: "Disable a specific " + kind},
	}
	sorted := append([]FlagGroupEntry(nil), g.Entries...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	for _, e := range sorted {
		state := "|-|"
		if e.enabled() {
			state = "|x|"
		}
		entries = append(entries, row{left: e.Name, usage: e.Usage, state: state})
	}
	return head, entries
}

func leftWidth(tables ...[]row) int {
	w := 0
	for _, t := range tables {
		for _, r := range t {
			if len(r.left) > w {
				w = len(r.left)
			}
		}
	}
	return w
}

func (a *App) writeUsage(w io.Writer) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Usage: %s <options> %s ...\n", a.Name, a.Inputs)
	if rows := a.optionRows(); len(rows) > 0 {
		sb.WriteString("\n" + indent + "Options\n")
		writeTable(&sb, rows, leftWidth(rows), terminalWidth())
	}
	fmt.Fprintf(&sb, "\nRun '%s --help' for all available options and flags.\n", a.Name)
	fmt.Fprint(w, sb.String())
}

func (a *App) writeHelp(w io.Writer) {
	var sb strings.Builder
	width := terminalWidth()

	opts := a.optionRows()
	tables := [][]row{opts}
	type section struct {
		g             FlagGroup
		head, entries []row
	}
	var sections []section
	for _, g := range a.FlagSet.groups {
		head, entries := groupRows(g)
		sections = append(sections, section{g, head, entries})
		tables = append(tables, head, entries)
	}
	sort.Slice(sections, func(i, j int) bool { return sections[i].g.Name < sections[j].g.Name })
	lw := leftWidth(tables...)

	sb.WriteString("\n")
	years := fmt.Sprint(time.Now().Year())
	if a.Since != 0 && a.Since < time.Now().Year() {
		years = fmt.Sprintf("%d-%s", a.Since, years)
	}
	fmt.Fprintf(&sb, "%sCopyright (c) %s: %s and contributors\n", indent, years, strings.Join(a.Authors, ", "))
	if a.Repository != "" {
		fmt.Fprintf(&sb, "%sFor more details refer to %s\n", indent, a.Repository)
	}
	if a.Synopsis != "" {
		synopsis := strings.NewReplacer("[", "<", "]", ">").Replace(a.Synopsis)
		fmt.Fprintf(&sb, "\n%sSynopsis\n%s%s%s %s\n", indent, indent, indent, a.Name, synopsis)
	}
	if a.Description != "" {
		fmt.Fprintf(&sb, "\n%sDescription\n%s%s%s\n", indent, indent, indent, a.Description)
	}
	if len(opts) > 0 {
		sb.WriteString("\n" + indent + "Options\n")
		writeTable(&sb, opts, lw, width)
	}
	for _, s := range sections {
		fmt.Fprintf(&sb, "\n%s%s\n", indent, s.g.Name)
		writeTable(&sb, s.head, lw, width)
		if s.g.Header != "" {
			fmt.Fprintf(&sb, "%s%s\n", indent, s.g.Header)
		}
		writeTable(&sb, s.entries, lw, width)
	}
	fmt.Fprint(w, sb.String())
}

// writeTable prints rows at the second indentation level with the usage
// column wrapped to fit width. State columns line up after the longest
// usage that fits on one line.
func writeTable(sb *strings.Builder, rows []row, lw, width int) {
	pad := 2*len(indent) + lw + 1
	usageWidth := 0
	for _, r := range rows {
		if len(r.usage) > usageWidth {
			usageWidth = len(r.usage)
		}
	}
	for _, r := range rows {
		avail := width - pad - len(r.state) - 2
		if avail < 10 {
			avail = 10
		}
		lines := wrap(r.usage, avail)
		first := ""
		if len(lines) > 0 {
			first = lines[0]
		}
		if r.state != "" {
			fmt.Fprintf(sb, "%s%s%-*s %-*s  %s\n", indent, indent, lw, r.left, min(usageWidth, avail), first, r.state)
		} else {
			fmt.Fprintf(sb, "%s%s%-*s %s\n", indent, indent, lw, r.left, first)
		}
		for _, l := range lines[min(1, len(lines)):] {
			fmt.Fprintf(sb, "%s%s\n", strings.Repeat(" ", pad), l)
		}
	}
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	switch {
	case err != nil:
		return 80
	case width < 20:
		return 20
	}
	return width
}

// wrap splits text into lines of at most width bytes, breaking at spaces.
// A single word longer than width gets a line of its own.
func wrap(text string, width int) []string {
	var lines []string
	var line strings.Builder
	for _, word := range strings.Fields(text) {
		if line.Len() > 0 && line.Len()+1+len(word) > width {
			lines = append(lines, line.String())
			line.Reset()
		}
		if line.Len() > 0 {
			line.WriteByte(' ')
		}
		line.WriteString(word)
	}
	if line.Len() > 0 {
		lines = append(lines, line.String())
	}
	return lines
}
