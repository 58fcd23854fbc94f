package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/charmbracelet/log"

	"cogs/app"
	"cogs/config"
)

// main is the entry point for the application.
// It builds the CLI interface around the core application logic and exits
// with the status returned by run.
func main() {
	os.Exit(run(context.Background(), os.Args, os.Stdout, os.Stderr))
}

// run executes the command line in args. A missing config file exits 1
// after listing the searched locations, as do argument errors. Failures of
// the commands themselves are logged by the app and exit 0.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := BuildCLI(func(opts Options) Applicator {
		return app.New(newLogger(stdout, opts.Debug), stdout, opts.OutputDir)
	})
	cmd.Writer = stdout
	cmd.ErrWriter = stderr

	if err := cmd.Run(ctx, args); err != nil {
		var notFound *config.NotFoundError
		if errors.As(err, &notFound) {
			_, _ = fmt.Fprintln(stdout, notFound.Error())
			return 1
		}
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// newLogger returns a slog logger writing to w through a charmbracelet/log
// handler.
func newLogger(w io.Writer, debug bool) *slog.Logger {
	level := log.InfoLevel
	if debug {
		level = log.DebugLevel
	}
	handler := log.NewWithOptions(w, log.Options{
		Level:  level,
		Prefix: "cogs",
	})
	return slog.New(handler)
}
