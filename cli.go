package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"cogs/app"
)

// Applicator defines the interface for the core application logic.
// This allows the CLI to be tested independently of the main app implementation.
type Applicator interface {
	Run(ctx context.Context, command string, args []string, cfgOverride string) error
}

// Options carries the global flag values needed to build an Applicator.
type Options struct {
	Debug     bool
	OutputDir string
}

// AppFactory builds the Applicator once the global flags are parsed.
type AppFactory func(opts Options) Applicator

// BuildCLI creates the full CLI command structure for the application. One
// subcommand is generated for each entry of the app command table.
func BuildCLI(newApp AppFactory) *cli.Command {
	// Global flags.
	debugFlag := &cli.BoolFlag{
		Name:  "debug",
		Usage: "enable debug logging",
	}

	outputDirFlag := &cli.StringFlag{
		Name:    "output-dir",
		Aliases: []string{"o"},
		Value:   ".",
		Usage:   "directory in which to write generated client config files",
	}

	optionsFrom := func(c *cli.Command) Options {
		return Options{Debug: c.Bool("debug"), OutputDir: c.String("output-dir")}
	}

	var commands []*cli.Command
	for _, ac := range app.Commands() {
		ac := ac // per-iteration copy; go directive is below 1.22
		commands = append(commands, &cli.Command{
			Name:      ac.Name,
			Aliases:   ac.Aliases,
			Usage:     ac.Usage,
			ArgsUsage: argsUsage(ac.Args),
			Action: func(ctx context.Context, c *cli.Command) error {
				positional, cfgOverride, err := splitArgs(c.Args().Slice(), len(ac.Args))
				if err != nil {
					return fmt.Errorf("%s: %w", ac.Name, err)
				}
				return newApp(optionsFrom(c)).Run(ctx, ac.Name, positional, cfgOverride)
			},
		})
	}

	// Assemble the root command. Unknown commands fall through to the root
	// action and are reported by the app.
	rootCmd := &cli.Command{
		Name:     "cogs",
		Usage:    "A CLI tool for interacting with the Cogs API",
		Flags:    []cli.Flag{debugFlag, outputDirFlag},
		Commands: commands,
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.Args().Len() == 0 {
				return cli.ShowAppHelp(c)
			}
			args := c.Args().Slice()
			return newApp(optionsFrom(c)).Run(ctx, args[0], args[1:], "")
		},
	}

	return rootCmd
}

// argsUsage renders the positional usage for a command, e.g.
// "<namespace> [config]".
func argsUsage(required []string) string {
	var parts []string
	for _, a := range required {
		parts = append(parts, "<"+a+">")
	}
	return strings.Join(append(parts, "[config]"), " ")
}

// splitArgs separates the required positional arguments from the optional
// trailing config path. Missing required arguments are left for the app to
// report.
func splitArgs(args []string, required int) ([]string, string, error) {
	if len(args) > required+1 {
		return nil, "", fmt.Errorf("too many arguments: %s", strings.Join(args, " "))
	}
	if len(args) <= required {
		return args, "", nil
	}
	return args[:required], args[required], nil
}
