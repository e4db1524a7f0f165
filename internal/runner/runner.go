package runner

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"nix/internal/config"
	"nix/internal/logger"
	"nix/pkg/asm"
	"nix/pkg/bytecode"
	"nix/pkg/interpreter"
)

// ImageExt marks files that hold an encoded program instead of assembly
const ImageExt = ".nixc"

type Runner struct {
	Help          bool      // Show help message
	Verbose       bool      // Enable debug logging and the program listing
	ShouldRun     bool      // Whether to run the program
	ShouldCompile bool      // Whether to write a program image
	NoColor       bool      // Disable colored output
	ConfigFile    string    // Path to nix.toml, searched upward when empty
	SourceFile    string    // Path to the assembly source or image
	OutputFile    string    // Path to the image written by ShouldCompile
	Stdout        io.Writer // Program output and listing, os.Stdout when nil
	Stderr        io.Writer // Diagnostics, os.Stderr when nil
}

// Run loads the source file, then writes an image and/or executes it based on the options set.
func (opts *Runner) Run() error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}

	log.Info("Processing file", "file", opts.SourceFile)

	pb, err := opts.load()
	if err != nil {
		return err
	}
	log.Debug("Program loaded", "instructions", len(pb))

	if opts.Verbose {
		printListing(opts.stdout(), pb)
	}

	if opts.ShouldCompile {
		if err := opts.writeImage(pb); err != nil {
			return err
		}
	}

	if opts.ShouldRun || !opts.ShouldCompile {
		it := interpreter.NewInterpreter(pb, append(cfg.Options(), interpreter.WithWriter(opts.stdout()))...)
		err := it.Run()
		log.Debug("Program stopped", "steps", it.Steps(), "pc", it.PC())
		if err != nil {
			return fmt.Errorf("execution failed: %w", err)
		}
	}

	return nil
}

// loadConfig reads nix.toml and merges its log section into the flags
func (opts *Runner) loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)

	if opts.ConfigFile != "" {
		cfg, err = config.Load(opts.ConfigFile)
	} else {
		cfg, err = config.FindAndLoad(".")
	}
	if err != nil {
		return nil, err
	}

	if (cfg.Log.Verbose && !opts.Verbose) || (cfg.Log.NoColor && !opts.NoColor) {
		opts.Verbose = opts.Verbose || cfg.Log.Verbose
		opts.NoColor = opts.NoColor || cfg.Log.NoColor
		logger.InitWriter(opts.stderr(), opts.Verbose, opts.NoColor)
	}
	setColor(!opts.NoColor)

	if cfg.Path != "" {
		log.Debug("Configuration loaded", "file", cfg.Path)
	}

	return cfg, nil
}

// load decodes an image or assembles a source file
func (opts *Runner) load() (bytecode.Program, error) {
	input, err := os.ReadFile(opts.SourceFile)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", opts.SourceFile, err)
	}

	if filepath.Ext(opts.SourceFile) == ImageExt {
		pb, err := bytecode.Unmarshal(input)
		if err != nil {
			return nil, fmt.Errorf("cannot load %s: %w", opts.SourceFile, err)
		}
		return pb, nil
	}

	pb, err := asm.Assemble(string(input))
	if err != nil {
		var asmErr *asm.Error
		if errors.As(err, &asmErr) {
			printErrors(opts.stderr(), asmErr.Messages)
			return nil, fmt.Errorf("assembly failed with %d errors", len(asmErr.Messages))
		}
		return nil, err
	}

	return pb, nil
}

// writeImage encodes pb next to the source unless an output file is set
func (opts *Runner) writeImage(pb bytecode.Program) error {
	out := opts.OutputFile
	if out == "" {
		out = strings.TrimSuffix(opts.SourceFile, filepath.Ext(opts.SourceFile)) + ImageExt
	}

	data, err := bytecode.Marshal(pb)
	if err != nil {
		return fmt.Errorf("image encoding failed: %w", err)
	}

	if err := os.WriteFile(out, data, 0644); err != nil {
		return fmt.Errorf("cannot write %s: %w", out, err)
	}

	log.Info("Image written", "file", out, "bytes", len(data))
	return nil
}

// FaultReport renders a runtime fault as its name and code followed by the
// detailed message. ok is false when err carries no fault.
func FaultReport(err error) (report string, ok bool) {
	f, ok := interpreter.FaultOf(err)
	if !ok {
		return "", false
	}
	return fmt.Sprintf("Error: %s | Error Code: %d\n%v\n", f.Name, f.Code, err), true
}

func (opts *Runner) stdout() io.Writer {
	if opts.Stdout == nil {
		return os.Stdout
	}
	return opts.Stdout
}

func (opts *Runner) stderr() io.Writer {
	if opts.Stderr == nil {
		return os.Stderr
	}
	return opts.Stderr
}
