package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/charmbracelet/log"

	"nix/internal/logger"
	"nix/internal/runner"
)

// Main entry point for the nix virtual machine.
func main() {
	options := runner.Runner{}

	flag.BoolVar(&options.Help, "h", false, "Show help")
	flag.BoolVar(&options.Verbose, "v", false, "Verbose mode, with program listing")
	flag.BoolVar(&options.ShouldRun, "r", false, "Run the program (default unless -c)")
	flag.BoolVar(&options.ShouldCompile, "c", false, "Compile to a program image")
	flag.BoolVar(&options.NoColor, "n", false, "No color")
	flag.StringVar(&options.OutputFile, "o", "", "Output image name (default: <file>"+runner.ImageExt+")")
	flag.StringVar(&options.ConfigFile, "config", "", "Path to nix.toml (default: searched upward from the working directory)")

	flag.Parse()
	args := flag.Args()

	logger.Init(options.Verbose, options.NoColor)
	if options.Help {
		fmt.Printf("Usage: %s [options] <file>\n", os.Args[0])
		fmt.Println("Options:")
		flag.PrintDefaults()
		return
	}

	if len(args) != 1 {
		log.Fatal("Expected exactly one input file", "got", len(args), "help", fmt.Sprintf("%s -h", os.Args[0]))
	}

	options.SourceFile = args[0]

	if err := options.Run(); err != nil {
		if report, ok := runner.FaultReport(err); ok {
			log.Debug("Execution stopped", "error", err)
			fmt.Fprint(os.Stderr, report)
			os.Exit(1)
		}
		log.Fatal("Execution failed", "error", err)
	}
}
