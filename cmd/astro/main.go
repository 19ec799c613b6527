package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"github.com/xplshn/astro/pkg/cli"
	"github.com/xplshn/astro/pkg/compiler"
	"github.com/xplshn/astro/pkg/config"
	"github.com/xplshn/astro/pkg/logger"
	"github.com/xplshn/astro/pkg/util"
	"go.uber.org/zap"
)

func main() {
	app := cli.NewApp("astro")
	app.Synopsis = "[options] <input.astro>"
	app.Description = "A compiler for Astro, a tiny calculator language, to JavaScript, C, LLVM IR and QBE IR."
	app.Authors = []string{"xplshn"}
	app.Repository = "<https://github.com/xplshn/astro>"
	app.Since = 2025
	app.Inputs = "<input.astro>"

	var (
		outFile    string
		target     string
		qbeTarget  string
		dump       string
		configFile string
		emitAsm    bool
		build      bool
		verbose    bool
		wall       bool
		wnoall     bool
	)

	fs := app.FlagSet
	fs.String(&outFile, "output", "o", "", "Place the output into <file> instead of stdout.", "file")
	fs.String(&target, "target", "t", "", "Set the backend: js, c, llvm or qbe (default js).", "backend")
	fs.String(&qbeTarget, "qbe-target", "", "", "Set the QBE target ABI (default: host).", "abi")
	fs.String(&dump, "dump", "d", "", "Stop after a stage and print it: parsed, analyzed or optimized.", "stage")
	fs.String(&configFile, "config", "c", "", "Read defaults from a TOML configuration file.", "file")
	fs.Bool(&emitAsm, "asm", "S", false, "Lower QBE IR to native assembly (implies -t qbe).")
	fs.Bool(&build, "build", "b", false, "Build an executable with the system C compiler (targets c and qbe).")
	fs.Bool(&verbose, "verbose", "v", false, "Log every compilation stage.")
	fs.Bool(&wall, "Wall", "", false, "Enable all warnings.")
	fs.Bool(&wnoall, "Wno-all", "", false, "Disable all warnings.")

	cfg := config.NewConfig()
	warningFlags, featureFlags := cfg.SetupFlagGroups(fs)

	app.Action = func(inputFiles []string) error {
		log := logger.New(os.Stderr, logger.Level(verbose))
		defer log.Sync()
		reporter := util.NewReporter(os.Stderr, nil)

		if len(inputFiles) != 1 {
			err := fmt.Errorf("expected exactly one input file, got %d", len(inputFiles))
			reporter.Error(err)
			return err
		}
		input := inputFiles[0]

		// The configuration file provides defaults, flags override it
		if configFile != "" {
			if err := cfg.LoadFile(configFile); err != nil {
				reporter.Error(err)
				return err
			}
		}
		if wall {
			cfg.SetAllWarnings(true)
		}
		if wnoall {
			cfg.SetAllWarnings(false)
		}
		cfg.ApplyFlagGroups(warningFlags, featureFlags)
		if emitAsm {
			target = "qbe"
		}
		if err := cfg.SetTarget(runtime.GOOS, runtime.GOARCH, target, qbeTarget); err != nil {
			reporter.Error(err)
			return err
		}

		output, err := outputType(cfg, dump, emitAsm || (build && cfg.Target == "qbe"))
		if err != nil {
			reporter.Error(err)
			return err
		}

		content, err := os.ReadFile(input)
		if err != nil {
			err = fmt.Errorf("could not read file '%s': %w", input, err)
			reporter.Error(err)
			return err
		}
		source := string(content)
		reporter = util.NewReporter(os.Stderr, []util.SourceFileRecord{{Name: input, Content: []rune(source)}})

		log.Debug("compiling", zap.String("input", input), zap.String("output", string(output)), zap.String("qbe-target", cfg.QbeTarget))
		ctx := logger.NewContextWithLogger(context.Background(), log)
		res, err := compiler.New(cfg).Compile(ctx, source, output)
		if err != nil {
			reporter.Error(err)
			return err
		}
		for _, w := range res.Warnings {
			reporter.Warn(w)
		}

		if build {
			if outFile == "" {
				outFile = "a.out"
			}
			if err := buildExecutable(outFile, res.Output, output); err != nil {
				reporter.Error(err)
				return err
			}
			log.Info("built", zap.String("executable", outFile))
			return nil
		}
		return writeOutput(outFile, res.Output)
	}

	if err := app.Run(os.Args[1:]); err != nil {
		if errors.Is(err, cli.ErrHelp) {
			return
		}
		os.Exit(1)
	}
}

// outputType picks the last stage to run from the flags
func outputType(cfg *config.Config, dump string, asm bool) (compiler.OutputType, error) {
	if dump != "" {
		ot, err := compiler.ParseOutputType(dump)
		if err != nil {
			return "", err
		}
		switch ot {
		case compiler.Parsed, compiler.Analyzed, compiler.Optimized:
			return ot, nil
		}
		return "", fmt.Errorf("--dump expects parsed, analyzed or optimized, got '%s'", dump)
	}
	if asm {
		return compiler.Asm, nil
	}
	return compiler.ParseOutputType(cfg.Target)
}

func writeOutput(path, text string) error {
	if path == "" || path == "-" {
		_, err := fmt.Fprint(os.Stdout, text)
		return err
	}
	return os.WriteFile(path, []byte(text), 0o644)
}

// buildExecutable hands C source or assembly to cc and links libm
func buildExecutable(outFile, code string, output compiler.OutputType) error {
	var pattern string
	var ccArgs []string
	switch output {
	case compiler.C:
		pattern = "astro-main-*.c"
	case compiler.Asm:
		pattern = "astro-main-*.s"
		// PIE is not supported by every QBE target
		ccArgs = append(ccArgs, "-no-pie")
	default:
		return fmt.Errorf("--build needs the c or qbe target, not %s", output)
	}

	srcFile, err := os.CreateTemp("", pattern)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(srcFile.Name())
	if _, err := srcFile.WriteString(code); err != nil {
		srcFile.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	srcFile.Close()

	ccArgs = append(ccArgs, "-o", outFile, srcFile.Name(), "-lm")
	cmd := exec.Command("cc", ccArgs...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("cc command failed: %w\nOutput:\n%s", err, string(out))
	}
	return nil
}
