package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"cogs/apiclients/cogs"
	"cogs/config"
)

// ErrUsage reports a command invoked with missing arguments.
var ErrUsage = errors.New("usage error")

// Client defines the Cogs API operations used by the commands. It is met by
// *cogs.APIClient and allows the commands to be tested against a stub.
type Client interface {
	NewClientKey(ctx context.Context) (cogs.ClientKey, error)
	NewRandomUUID(ctx context.Context) (cogs.RandomUUID, error)
	GetNamespaceSchema(ctx context.Context, namespace string) (cogs.Schema, error)
	GetBuildInfo(ctx context.Context) (cogs.BuildInfo, error)
	BaseURL() string
	BaseWsURL() string
	AccessKey() string
}

// ClientFactory builds a Client from a resolved config file path.
type ClientFactory func(cfgPath string) (Client, error)

// App is the central orchestrator for the application's business logic.
// It coordinates config resolution, the Cogs API client and output.
type App struct {
	log       *slog.Logger
	out       io.Writer
	outputDir string
	home      func() (string, error)
	newClient ClientFactory
}

// New creates and returns a new App instance. Results are printed to out
// and generated client key files are written to outputDir.
func New(logger *slog.Logger, out io.Writer, outputDir string) *App {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stdout, nil))
	}
	if out == nil {
		out = os.Stdout
	}
	if outputDir == "" {
		outputDir = "."
	}
	a := &App{
		log:       logger,
		out:       out,
		outputDir: outputDir,
		home:      os.UserHomeDir,
	}
	a.newClient = func(cfgPath string) (Client, error) {
		client, err := cogs.NewClientFromFile(cfgPath, a.log)
		if err != nil {
			return nil, err
		}
		return client, nil
	}
	return a
}

// Run looks up the named command, resolves the config file and runs the
// command against a client built from it.
//
// An unrecognized command is logged and ignored. A missing config file is
// returned as a *config.NotFoundError and missing arguments as an ErrUsage
// error. Any other failure is logged and swallowed: the caller is told the
// run succeeded.
func (a *App) Run(ctx context.Context, name string, args []string, cfgOverride string) error {
	cmd, ok := Lookup(name)
	if !ok {
		a.log.Warn(fmt.Sprintf("unrecognized command %q", name))
		return nil
	}
	if len(args) < len(cmd.Args) {
		return fmt.Errorf("%w: %s requires the %q argument", ErrUsage, cmd.Name, cmd.Args[len(args)])
	}

	home, err := a.home()
	if err != nil {
		a.log.Warn(fmt.Sprintf("could not determine home directory: %v", err))
		home = ""
	}
	cfgPath, err := config.Resolve(config.CandidatePaths(home, cfgOverride))
	if err != nil {
		return err
	}
	a.log.Debug(fmt.Sprintf("using config file %s", cfgPath))

	if err := a.dispatch(ctx, cmd, cfgPath, args); err != nil {
		a.log.Error(fmt.Sprintf("Unexpected error: %v", err), "command", cmd.Name, "config", cfgPath)
	}
	return nil
}

// dispatch builds the client and runs the command.
func (a *App) dispatch(ctx context.Context, cmd Command, cfgPath string, args []string) error {
	client, err := a.newClient(cfgPath)
	if err != nil {
		return fmt.Errorf("failed to create cogs client: %w", err)
	}
	return cmd.run(a, ctx, client, args)
}
