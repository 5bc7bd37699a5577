// This file is the entry point for the synteruptor command line tool.
//
// Argument parsing and command wiring run entirely through
// "github.com/urfave/cli/v2". The top-level app defines the flags
// common to every stage (the store path and an optional tunables YAML
// file); each stage is a subcommand with its own flags layered on top,
// per spec.md §6.8's representative flag set.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	err := application().Run(os.Args)
	if err == nil {
		return
	}
	fmt.Fprintln(os.Stderr, err)
	if coder, ok := err.(cli.ExitCoder); ok {
		os.Exit(coder.ExitCode())
	}
	os.Exit(1)
}

// fail wraps a stage error as a fatal, non-usage exit (spec.md §6.8:
// exit codes 0 success, 1 usage error, non-zero for fatal data errors).
func fail(err error) error {
	return cli.Exit(err.Error(), 2)
}

func application() *cli.App {
	return &cli.App{
		Name:  "synteruptor",
		Usage: "Find and rank synteny breaks between bacterial genome annotations.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "d",
				Value: "synteruptor.db",
				Usage: "Path to the sqlite store.",
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "Path to a YAML tunables file overriding the stage defaults.",
			},
		},
		Commands: []*cli.Command{
			orthologCommand,
			paralogCommand,
			loadCommand,
			blockCommand,
			breakFinderCommand,
			breakGenesCommand,
			rankCommand,
			graphCommand,
			reorderCommand,
		},
	}
}
