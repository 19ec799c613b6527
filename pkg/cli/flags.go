package cli

import (
	"fmt"
	"strconv"
	"strings"
)

// Value is the storage behind a flag
type Value interface {
	String() string
	Set(string) error
}

type stringValue struct{ p *string }

func (v stringValue) Set(s string) error { *v.p = s; return nil }
func (v stringValue) String() string     { return *v.p }

type boolValue struct{ p *bool }

// Set treats a bare flag ("") as true
func (v boolValue) Set(s string) error {
	if s == "" {
		*v.p = true
		return nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return fmt.Errorf("invalid boolean value %q", s)
	}
	*v.p = b
	return nil
}

func (v boolValue) String() string { return strconv.FormatBool(*v.p) }

type Flag struct {
	Name      string
	Shorthand string
	Usage     string
	Value     Value
	DefValue  string
	// Placeholder names the argument in the help page, e.g. "file"
	Placeholder string
}

func (f *Flag) isBool() bool {
	_, ok := f.Value.(boolValue)
	return ok
}

// FlagGroupEntry is one -<Prefix><Name> / -<Prefix>no-<Name> pair. Enabled
// and Disabled only record what the command line said; Default is the state
// shown on the help page when neither was given.
type FlagGroupEntry struct {
	Name     string
	Prefix   string
	Usage    string
	Default  bool
	Enabled  *bool
	Disabled *bool
}

// enabled reports the effective state of the entry after parsing
func (e FlagGroupEntry) enabled() bool {
	switch {
	case e.Disabled != nil && *e.Disabled:
		return false
	case e.Enabled != nil && *e.Enabled:
		return true
	}
	return e.Default
}

type FlagGroup struct {
	Name        string
	Description string
	// Kind is the noun used in "-W<kind>", e.g. "warning flag"
	Kind    string
	Header  string
	Entries []FlagGroupEntry
}

// FlagSet parses GNU-ish command lines: --name[=value], -name[=value] for
// multi-letter names, -x value or -xvalue for shorthands, and "--" to stop.
type FlagSet struct {
	name    string
	long    map[string]*Flag
	short   map[string]*Flag
	grouped map[string]bool
	groups  []FlagGroup
	args    []string
}

func NewFlagSet(name string) *FlagSet {
	return &FlagSet{
		name:    name,
		long:    make(map[string]*Flag),
		short:   make(map[string]*Flag),
		grouped: make(map[string]bool),
	}
}

// Args returns the operands left after Parse
func (f *FlagSet) Args() []string { return f.args }

func (f *FlagSet) String(p *string, name, shorthand, value, usage, placeholder string) {
	*p = value
	f.Var(stringValue{p}, name, shorthand, usage, value, placeholder)
}

func (f *FlagSet) Bool(p *bool, name, shorthand string, value bool, usage string) {
	*p = value
	f.Var(boolValue{p}, name, shorthand, usage, strconv.FormatBool(value), "")
}

// Var registers a flag. Redefining a name or shorthand is a programming error.
func (f *FlagSet) Var(value Value, name, shorthand, usage, defValue, placeholder string) {
	if name == "" {
		panic("cli: flag name cannot be empty")
	}
	if _, dup := f.long[name]; dup {
		panic("cli: flag redefined: " + name)
	}
	fl := &Flag{Name: name, Shorthand: shorthand, Usage: usage, Value: value, DefValue: defValue, Placeholder: placeholder}
	f.long[name] = fl
	if shorthand == "" {
		return
	}
	if _, dup := f.short[shorthand]; dup {
		panic("cli: shorthand redefined: " + shorthand)
	}
	f.short[shorthand] = fl
}

// AddFlagGroup registers both flags of every entry and lists the group on
// the help page.
func (f *FlagSet) AddFlagGroup(name, description, kind, header string, entries []FlagGroupEntry) {
	for _, e := range entries {
		for _, pair := range []struct {
			p    *bool
			name string
		}{{e.Enabled, e.Prefix + e.Name}, {e.Disabled, e.Prefix + "no-" + e.Name}} {
			if pair.p == nil {
				continue
			}
			f.Bool(pair.p, pair.name, "", *pair.p, "")
			f.grouped[pair.name] = true
		}
	}
	f.groups = append(f.groups, FlagGroup{Name: name, Description: description, Kind: kind, Header: header, Entries: entries})
}

func (f *FlagSet) Parse(arguments []string) error {
	f.args = f.args[:0]
	for i := 0; i < len(arguments); i++ {
		arg := arguments[i]
		switch {
		case arg == "--":
			f.args = append(f.args, arguments[i+1:]...)
			return nil
		case len(arg) < 2 || arg[0] != '-':
			f.args = append(f.args, arg)
			continue
		}

		dashes := "-"
		body := arg[1:]
		if strings.HasPrefix(body, "-") {
			dashes, body = "--", body[1:]
		}
		name, value, hasValue := strings.Cut(body, "=")
		fl, ok := f.long[name]
		if !ok && dashes == "--" {
			return fmt.Errorf("unknown flag: --%s", name)
		}
		if !ok {
			// -xVALUE or -x VALUE
			name = body[:1]
			if fl, ok = f.short[name]; !ok {
				return fmt.Errorf("unknown shorthand flag: -%s", name)
			}
			value, hasValue = body[1:], len(body) > 1
		}

		switch {
		case hasValue:
		case fl.isBool():
			value = ""
		case i+1 < len(arguments):
			i++
			value = arguments[i]
		default:
			return fmt.Errorf("flag needs an argument: %s%s", dashes, name)
		}
		if err := fl.Value.Set(value); err != nil {
			return fmt.Errorf("%s%s: %w", dashes, name, err)
		}
	}
	return nil
}
