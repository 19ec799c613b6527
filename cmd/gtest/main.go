// gtest compiles every test program with each backend, runs the results
// with the matching toolchain and checks that they all print the same
// numbers.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/xplshn/astro/pkg/compiler"
)

type Execution struct {
	Stdout   string        `json:"stdout"`
	Stderr   string        `json:"stderr"`
	ExitCode int           `json:"exitCode"`
	Duration time.Duration `json:"duration"`
	TimedOut bool          `json:"timed_out"`
}

type TargetResult struct {
	Target  string    `json:"target"`
	Skipped string    `json:"skipped,omitempty"`
	Compile Execution `json:"compile"`
	Run     Execution `json:"run"`
	// Values holds the printed lines, which may spell NaN or Infinity
	Values []string `json:"values,omitempty"`
}

type FileTestResult struct {
	File    string          `json:"file"`
	Hash    string          `json:"hash"`
	Status  string          `json:"status"` // PASS, FAIL, SKIP, ERROR
	Message string          `json:"message,omitempty"`
	Diff    string          `json:"diff,omitempty"`
	Results []*TargetResult `json:"results,omitempty"`
}

type TestSuiteResults map[string]*FileTestResult

var (
	testFiles  = flag.String("test-files", "tests/*.astro", "Glob pattern(s) for files to test (space-separated).")
	skipFiles  = flag.String("skip-files", "", "Files to skip (space-separated).")
	targets    = flag.String("targets", "js c llvm qbe", "Backends to run (space-separated). The first one that runs is the reference.")
	outputJSON = flag.String("output", ".test_results.json", "Output file for the JSON test report.")
	timeout    = flag.Duration("timeout", 5*time.Second, "Timeout for each command execution.")
	jobs       = flag.Int("j", 4, "Number of parallel test jobs.")
	tolerance  = flag.Float64("tolerance", 1e-5, "Relative tolerance when comparing printed numbers.")
	verbose    = flag.Bool("v", false, "Enable verbose logging.")
	useCache   = flag.Bool("cached", false, "Reuse passing results of unchanged files from the previous report.")
)

const (
	cRed    = "\x1b[91m"
	cYellow = "\x1b[93m"
	cGreen  = "\x1b[92m"
	cCyan   = "\x1b[96m"
	cBold   = "\x1b[1m"
	cNone   = "\x1b[0m"
)

// toolchain turns generated text into something runnable
type toolchain struct {
	output compiler.OutputType
	ext    string
	tools  []string
	// build returns the command that runs the program in src
	build func(ctx context.Context, src, bin string) (Execution, []string)
}

var toolchains = map[string]toolchain{
	"js": {compiler.JS, ".js", []string{"node"}, func(ctx context.Context, src, bin string) (Execution, []string) {
		return Execution{}, []string{"node", src}
	}},
	"c": {compiler.C, ".c", []string{"cc"}, func(ctx context.Context, src, bin string) (Execution, []string) {
		return executeCommand(ctx, "cc", "-o", bin, src, "-lm"), []string{bin}
	}},
	"llvm": {compiler.LLVM, ".ll", []string{"clang"}, func(ctx context.Context, src, bin string) (Execution, []string) {
		return executeCommand(ctx, "clang", "-Wno-override-module", "-o", bin, src, "-lm"), []string{bin}
	}},
	"qbe": {compiler.Asm, ".s", []string{"cc"}, func(ctx context.Context, src, bin string) (Execution, []string) {
		return executeCommand(ctx, "cc", "-no-pie", "-o", bin, src, "-lm"), []string{bin}
	}},
}

func main() {
	flag.Parse()
	log.SetFlags(0)

	for _, t := range strings.Fields(*targets) {
		if _, ok := toolchains[t]; !ok {
			log.Fatalf("%s[ERROR]%s Unknown target '%s'\n", cRed, cNone, t)
		}
	}

	tempDir, err := os.MkdirTemp("", "gtest-*")
	if err != nil {
		log.Fatalf("%s[ERROR]%s Failed to create temp directory: %v\n", cRed, cNone, err)
	}
	defer os.RemoveAll(tempDir)
	setupInterruptHandler(tempDir)

	handleRunTestSuite(tempDir)
}

// setupInterruptHandler is used to clean up on CTRL+C
func setupInterruptHandler(tempDir string) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	go func() {
		<-c
		os.RemoveAll(tempDir)
		fmt.Printf("\n%s[INTERRUPT]%s Test run cancelled. Cleaning up...\n", cYellow, cNone)
		os.Exit(1)
	}()
}

func hashContent(content []byte) string {
	return fmt.Sprintf("%x", xxhash.Sum64(content))
}

func handleRunTestSuite(tempDir string) {
	files, err := expandGlobPatterns(*testFiles)
	if err != nil {
		log.Fatalf("%s[ERROR]%s Invalid glob pattern(s): %v\n", cRed, cNone, err)
	}
	if len(files) == 0 {
		log.Println("No test files found matching the pattern(s).")
		return
	}

	previousResults := make(TestSuiteResults)
	if *useCache {
		if prevData, err := os.ReadFile(*outputJSON); err == nil {
			if json.Unmarshal(prevData, &previousResults) != nil {
				log.Printf("%s[WARN]%s Could not parse previous results file %s. Cache will not be used.\n", cYellow, cNone, *outputJSON)
				previousResults = make(TestSuiteResults)
			}
		}
	}

	skipList := make(map[string]bool)
	for _, f := range strings.Fields(*skipFiles) {
		if abs, err := filepath.Abs(f); err == nil {
			skipList[abs] = true
		}
	}

	type task struct {
		file, hash string
		content    []byte
	}
	tasks := make(chan task, len(files))
	resultsChan := make(chan *FileTestResult, len(files))
	var wg sync.WaitGroup

	for i := 0; i < *jobs; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range tasks {
				resultsChan <- testFile(t.file, t.hash, t.content, tempDir, previousResults)
			}
		}()
	}

	// Feed the tasks channel, skipping files with identical content
	seenHashes := make(map[string]string)
	for _, file := range files {
		if skipList[file] {
			resultsChan <- &FileTestResult{File: file, Status: "SKIP", Message: "Explicitly skipped"}
			continue
		}
		content, err := os.ReadFile(file)
		if err != nil {
			resultsChan <- &FileTestResult{File: file, Status: "ERROR", Message: fmt.Sprintf("Failed to read file: %v", err)}
			continue
		}
		fileHash := hashContent(content)
		if originalFile, seen := seenHashes[fileHash]; seen {
			resultsChan <- &FileTestResult{File: file, Hash: fileHash, Status: "SKIP", Message: fmt.Sprintf("Content is identical to %s", originalFile)}
			continue
		}
		seenHashes[fileHash] = file
		tasks <- task{file, fileHash, content}
	}
	close(tasks)

	wg.Wait()
	close(resultsChan)

	var allResults []*FileTestResult
	for result := range resultsChan {
		allResults = append(allResults, result)
	}
	sort.Slice(allResults, func(i, j int) bool { return allResults[i].File < allResults[j].File })

	printSummary(allResults)
	if hasFailures(writeJSONReport(allResults)) {
		os.Exit(1)
	}
}

func testFile(file, fileHash string, content []byte, tempDir string, previousResults TestSuiteResults) *FileTestResult {
	if prev, ok := previousResults[file]; ok && prev.Hash == fileHash && prev.Status == "PASS" {
		cached := *prev
		cached.Message += " (cached)"
		return &cached
	}

	result := &FileTestResult{File: file, Hash: fileHash}
	base := filepath.Join(tempDir, fileHash)
	for _, name := range strings.Fields(*targets) {
		result.Results = append(result.Results, compileAndRun(name, string(content), base+"-"+name))
	}
	return compareResults(result)
}

func compileAndRun(name, source, base string) *TargetResult {
	tc := toolchains[name]
	tr := &TargetResult{Target: name}
	for _, tool := range tc.tools {
		if _, err := exec.LookPath(tool); err != nil {
			tr.Skipped = fmt.Sprintf("'%s' not found", tool)
			return tr
		}
	}

	start := time.Now()
	code, err := compiler.Compile(context.Background(), source, tc.output)
	tr.Compile = Execution{Duration: time.Since(start)}
	if err != nil {
		tr.Compile.ExitCode = 1
		tr.Compile.Stderr = err.Error()
		return tr
	}

	src := base + tc.ext
	if err := os.WriteFile(src, []byte(code), 0644); err != nil {
		tr.Compile.ExitCode = -2
		tr.Compile.Stderr = err.Error()
		return tr
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	build, command := tc.build(ctx, src, base)
	build.Duration += tr.Compile.Duration
	tr.Compile = build
	if build.ExitCode != 0 || build.TimedOut {
		return tr
	}

	runCtx, runCancel := context.WithTimeout(context.Background(), *timeout)
	defer runCancel()
	tr.Run = executeCommand(runCtx, command[0], command[1:]...)
	tr.Values = strings.Fields(tr.Run.Stdout)
	return tr
}

// executeCommand runs a command with a timeout and captures its output
func executeCommand(ctx context.Context, command string, args ...string) Execution {
	startTime := time.Now()
	cmd := exec.CommandContext(ctx, command, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	execResult := Execution{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(startTime),
	}

	if ctx.Err() == context.DeadlineExceeded {
		execResult.TimedOut = true
		execResult.ExitCode = -1
	} else if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			execResult.ExitCode = exitErr.ExitCode()
		} else {
			execResult.ExitCode = -2
			execResult.Stderr += "\nExecution error: " + err.Error()
		}
	}
	return execResult
}

// parseValue reads a number as printed by console.log or printf("%g")
func parseValue(s string) (float64, error) {
	switch strings.ToLower(strings.TrimLeft(s, "+-")) {
	case "nan":
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}

func parseValues(fields []string) ([]float64, error) {
	values := make([]float64, len(fields))
	for i, f := range fields {
		v, err := parseValue(f)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		values[i] = v
	}
	return values, nil
}

// approxEqual compares with a relative tolerance; NaN equals NaN
func approxEqual(tol float64) func(a, b float64) bool {
	return func(a, b float64) bool {
		switch {
		case math.IsNaN(a) || math.IsNaN(b):
			return math.IsNaN(a) && math.IsNaN(b)
		case a == b:
			return true
		case math.IsInf(a, 0) || math.IsInf(b, 0):
			return false
		}
		scale := math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
		return math.Abs(a-b) <= tol*scale
	}
}

// compareResults checks every target that ran against the first one
func compareResults(result *FileTestResult) *FileTestResult {
	var ref *TargetResult
	var refValues []float64
	var diffs strings.Builder
	failed, compared := false, 0

	for _, tr := range result.Results {
		if tr.Skipped != "" {
			continue
		}
		if tr.Compile.ExitCode != 0 || tr.Compile.TimedOut {
			failed = true
			fmt.Fprintf(&diffs, "%s: compilation failed:\n%s\n", tr.Target, tr.Compile.Stderr)
			continue
		}
		if tr.Run.ExitCode != 0 || tr.Run.TimedOut {
			failed = true
			fmt.Fprintf(&diffs, "%s: exited with %d:\n%s\n", tr.Target, tr.Run.ExitCode, tr.Run.Stderr)
			continue
		}
		values, err := parseValues(tr.Values)
		if err != nil {
			failed = true
			fmt.Fprintf(&diffs, "%s: unreadable output: %v\n", tr.Target, err)
			continue
		}
		compared++
		if ref == nil {
			ref, refValues = tr, values
			continue
		}
		if diff := cmp.Diff(refValues, values, cmp.Comparer(approxEqual(*tolerance))); diff != "" {
			failed = true
			fmt.Fprintf(&diffs, "%s vs %s (-%s +%s):\n%s", ref.Target, tr.Target, ref.Target, tr.Target, diff)
		}
	}

	switch {
	case failed:
		result.Status, result.Message = "FAIL", "Backends disagree or failed"
	case compared == 0:
		result.Status, result.Message = "SKIP", "No backend toolchain available"
	case compared == 1:
		result.Status, result.Message = "PASS", fmt.Sprintf("Only %s could run", ref.Target)
	default:
		result.Status, result.Message = "PASS", fmt.Sprintf("%d backends agree", compared)
	}
	result.Diff = diffs.String()
	return result
}

func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%6dµs", d.Microseconds())
	}
	return fmt.Sprintf("%6dms", d.Milliseconds())
}

func printSummary(results []*FileTestResult) {
	var passed, failed, skipped, errored int
	for _, result := range results {
		fmt.Println("----------------------------------------------------------------------")
		fmt.Printf("Testing %s%s%s...\n", cCyan, result.File, cNone)

		switch result.Status {
		case "PASS":
			passed++
			fmt.Printf("  [%sPASS%s] %s\n", cGreen, cNone, result.Message)
		case "FAIL":
			failed++
			fmt.Printf("  [%sFAIL%s] %s\n", cRed, cNone, result.Message)
			fmt.Println(formatDiff(result.Diff))
		case "SKIP":
			skipped++
			fmt.Printf("  [%sSKIP%s] %s\n", cYellow, cNone, result.Message)
		case "ERROR":
			errored++
			fmt.Printf("  [%sERROR%s] %s\n", cRed, cNone, result.Message)
		}

		if *verbose {
			for _, tr := range result.Results {
				if tr.Skipped != "" {
					fmt.Printf("    %-5s skipped: %s\n", tr.Target, tr.Skipped)
					continue
				}
				fmt.Printf("    %-5s comp: %s  runt: %s  %s\n", tr.Target,
					formatDuration(tr.Compile.Duration), formatDuration(tr.Run.Duration), strings.Join(tr.Values, " "))
			}
		}
	}

	fmt.Println("----------------------------------------------------------------------")
	fmt.Printf("%sTest Summary:%s %s%d Passed%s, %s%d Failed%s, %s%d Skipped%s, %s%d Errored%s, %d Total\n",
		cBold, cNone, cGreen, passed, cNone, cRed, failed, cNone, cYellow, skipped, cNone, cRed, errored, cNone, len(results))
}

func formatDiff(diff string) string {
	if diff == "" {
		return ""
	}
	var builder strings.Builder
	builder.WriteString("    --- Diff ---\n")
	for _, line := range strings.Split(diff, "\n") {
		trimmedLine := strings.TrimSpace(line)
		if strings.HasPrefix(trimmedLine, "-") {
			builder.WriteString(cRed)
		} else if strings.HasPrefix(trimmedLine, "+") {
			builder.WriteString(cGreen)
		}
		builder.WriteString("    " + line)
		builder.WriteString(cNone)
		builder.WriteString("\n")
	}
	return builder.String()
}

func writeJSONReport(results []*FileTestResult) TestSuiteResults {
	resultsMap := make(TestSuiteResults, len(results))
	for _, r := range results {
		resultsMap[r.File] = r
	}

	jsonData, err := json.MarshalIndent(resultsMap, "", "  ")
	if err != nil {
		log.Printf("%s[ERROR]%s Failed to marshal results to JSON: %v\n", cRed, cNone, err)
		return resultsMap
	}
	if err := os.WriteFile(*outputJSON, jsonData, 0644); err != nil {
		log.Printf("%s[ERROR]%s Failed to write JSON report to %s: %v\n", cRed, cNone, *outputJSON, err)
	} else {
		fmt.Printf("Full test report saved to %s\n", *outputJSON)
	}
	return resultsMap
}

func hasFailures(results TestSuiteResults) bool {
	for _, result := range results {
		if result.Status == "FAIL" || result.Status == "ERROR" {
			return true
		}
	}
	return false
}

func expandGlobPatterns(patterns string) ([]string, error) {
	var allFiles []string
	seen := make(map[string]bool)
	for _, pattern := range strings.Fields(patterns) {
		files, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %s: %w", pattern, err)
		}
		for _, file := range files {
			absFile, err := filepath.Abs(file)
			if err != nil {
				continue
			}
			if !seen[absFile] {
				if info, err := os.Stat(absFile); err == nil && info.Mode().IsRegular() {
					allFiles = append(allFiles, absFile)
					seen[absFile] = true
				}
			}
		}
	}
	return allFiles, nil
}
