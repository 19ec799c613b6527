package main

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestParseValue(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"0.841471", 0.841471},
		{"13", 13},
		{"1e+21", 1e21},
		{"Infinity", math.Inf(1)},
		{"-Infinity", math.Inf(-1)},
		{"inf", math.Inf(1)},
		{"-inf", math.Inf(-1)},
		{"NaN", math.NaN()},
		{"-nan", math.NaN()},
	}
	for _, tt := range tests {
		got, err := parseValue(tt.in)
		if err != nil {
			t.Errorf("parseValue(%q) error: %v", tt.in, err)
			continue
		}
		if !cmp.Equal(got, tt.want, cmpopts.EquateNaNs()) {
			t.Errorf("parseValue(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	if _, err := parseValue("hello"); err == nil {
		t.Errorf("parseValue(\"hello\") succeeded, want an error")
	}
}

func TestApproxEqual(t *testing.T) {
	eq := approxEqual(1e-5)
	tests := []struct {
		a, b float64
		want bool
	}{
		{0.8414709848078965, 0.841471, true},
		{3.141592653589793, 3.14159, true},
		{314.1592653589793, 314.159, true},
		{1, 1.001, false},
		{math.NaN(), math.NaN(), true},
		{math.NaN(), 0, false},
		{math.Inf(1), math.Inf(1), true},
		{math.Inf(1), math.Inf(-1), false},
		{math.Inf(1), 1e308, false},
	}
	for _, tt := range tests {
		if got := eq(tt.a, tt.b); got != tt.want {
			t.Errorf("approxEqual(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func run(target string, values ...string) *TargetResult {
	return &TargetResult{Target: target, Values: values}
}

func TestCompareResults(t *testing.T) {
	t.Run("agree", func(t *testing.T) {
		r := compareResults(&FileTestResult{Results: []*TargetResult{
			run("js", "0.9358968236779348", "Infinity", "NaN"),
			run("c", "0.935897", "inf", "-nan"),
			{Target: "llvm", Skipped: "'clang' not found"},
		}})
		if r.Status != "PASS" || r.Diff != "" {
			t.Errorf("Status = %s, diff:\n%s", r.Status, r.Diff)
		}
		if r.Message != "2 backends agree" {
			t.Errorf("Message = %q", r.Message)
		}
	})

	t.Run("disagree", func(t *testing.T) {
		r := compareResults(&FileTestResult{Results: []*TargetResult{
			run("js", "1", "2"),
			run("qbe", "1", "3"),
		}})
		if r.Status != "FAIL" || r.Diff == "" {
			t.Errorf("Status = %s, diff = %q, want a FAIL with a diff", r.Status, r.Diff)
		}
	})

	t.Run("missing line", func(t *testing.T) {
		r := compareResults(&FileTestResult{Results: []*TargetResult{
			run("js", "1", "2"),
			run("c", "1"),
		}})
		if r.Status != "FAIL" {
			t.Errorf("Status = %s, want FAIL", r.Status)
		}
	})

	t.Run("compile error", func(t *testing.T) {
		bad := run("c")
		bad.Compile.ExitCode = 1
		bad.Compile.Stderr = "boom"
		r := compareResults(&FileTestResult{Results: []*TargetResult{run("js", "1"), bad}})
		if r.Status != "FAIL" {
			t.Errorf("Status = %s, want FAIL", r.Status)
		}
	})

	t.Run("nothing ran", func(t *testing.T) {
		r := compareResults(&FileTestResult{Results: []*TargetResult{{Target: "js", Skipped: "'node' not found"}}})
		if r.Status != "SKIP" {
			t.Errorf("Status = %s, want SKIP", r.Status)
		}
	})
}

func TestHasFailures(t *testing.T) {
	ok := TestSuiteResults{"a": {Status: "PASS"}, "b": {Status: "SKIP"}}
	if hasFailures(ok) {
		t.Errorf("hasFailures reported a failure for passing results")
	}
	ok["c"] = &FileTestResult{Status: "ERROR"}
	if !hasFailures(ok) {
		t.Errorf("hasFailures missed an ERROR result")
	}
}
