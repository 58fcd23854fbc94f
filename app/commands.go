package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
)

// Settings written into every generated client key config.
const (
	clientHTTPRequestTimeout      = 30000
	clientWebsocketConnectTimeout = 30000
	clientWebsocketAutoReconnect  = true
	clientSaltPrefixLen           = 16
)

// Command describes a command: its name, aliases, required positional
// arguments and the handler that runs it.
type Command struct {
	Name    string
	Aliases []string
	Args    []string
	Usage   string
	run     func(a *App, ctx context.Context, client Client, args []string) error
}

var commands = []Command{
	{
		Name:    "client-key",
		Aliases: []string{"key"},
		Usage:   "Generate a new client key and write it to a client config file",
		run:     (*App).clientKey,
	},
	{
		Name:    "random-uuid",
		Aliases: []string{"uuid"},
		Usage:   "Fetch a random UUID",
		run:     (*App).randomUUID,
	},
	{
		Name:    "namespace-schema",
		Aliases: []string{"schema"},
		Args:    []string{"namespace"},
		Usage:   "Fetch the schema of a namespace",
		run:     (*App).namespaceSchema,
	},
	{
		Name:    "build-info",
		Aliases: []string{"build"},
		Usage:   "Fetch build information for the Cogs API",
		run:     (*App).buildInfo,
	},
}

// Commands returns a copy of the command table.
func Commands() []Command {
	return slices.Clone(commands)
}

// Lookup finds a command by name or alias.
func Lookup(name string) (Command, bool) {
	for _, c := range commands {
		if c.Name == name || slices.Contains(c.Aliases, name) {
			return c, true
		}
	}
	return Command{}, false
}

// clientKeyConfig is the layout of a generated client config file.
type clientKeyConfig struct {
	BaseURL   string `json:"base_url,omitempty"`
	BaseWsURL string `json:"base_ws_url,omitempty"`
	APIKey    struct {
		Access string `json:"access"`
	} `json:"api_key"`
	ClientKey struct {
		Salt   string `json:"salt"`
		Secret string `json:"secret"`
	} `json:"client_key"`
	HTTPRequestTimeout      int  `json:"http_request_timeout"`
	WebsocketConnectTimeout int  `json:"websocket_connect_timeout"`
	WebsocketAutoReconnect  bool `json:"websocket_auto_reconnect"`
}

// clientKeyFileName names a client config after the first 16 characters of
// its salt, or the whole salt if it is shorter.
func clientKeyFileName(salt string) string {
	prefix := salt
	if len(prefix) > clientSaltPrefixLen {
		prefix = prefix[:clientSaltPrefixLen]
	}
	return fmt.Sprintf("cogs-client-%s.json", prefix)
}

// clientKey requests a new client key and writes a client config file
// containing it.
func (a *App) clientKey(ctx context.Context, client Client, _ []string) error {
	key, err := client.NewClientKey(ctx)
	if err != nil {
		return err
	}

	var cfg clientKeyConfig
	cfg.BaseURL = client.BaseURL()
	cfg.BaseWsURL = client.BaseWsURL()
	cfg.APIKey.Access = client.AccessKey()
	cfg.ClientKey.Salt = key.ClientSalt
	cfg.ClientKey.Secret = key.ClientSecret
	cfg.HTTPRequestTimeout = clientHTTPRequestTimeout
	cfg.WebsocketConnectTimeout = clientWebsocketConnectTimeout
	cfg.WebsocketAutoReconnect = clientWebsocketAutoReconnect

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal client config: %w", err)
	}
	data = append(data, '\n')

	clientFile := filepath.Join(a.outputDir, clientKeyFileName(key.ClientSalt))
	if err := os.WriteFile(clientFile, data, 0o600); err != nil {
		return fmt.Errorf("failed to write client config: %w", err)
	}
	_, err = fmt.Fprintf(a.out, "Wrote new client config to %s\n", clientFile)
	return err
}

// randomUUID prints a random uuid from the service, unquoted.
func (a *App) randomUUID(ctx context.Context, client Client, _ []string) error {
	id, err := client.NewRandomUUID(ctx)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(a.out, id.UUID)
	return err
}

// namespaceSchema prints the schema of the namespace named by args[0].
func (a *App) namespaceSchema(ctx context.Context, client Client, args []string) error {
	schema, err := client.GetNamespaceSchema(ctx, args[0])
	if err != nil {
		return err
	}
	return a.printJSON(schema)
}

// buildInfo prints the API build information.
func (a *App) buildInfo(ctx context.Context, client Client, _ []string) error {
	info, err := client.GetBuildInfo(ctx)
	if err != nil {
		return err
	}
	return a.printJSON(info)
}

// printJSON prints raw JSON indented by two spaces, preserving key order.
func (a *App) printJSON(raw json.RawMessage) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return fmt.Errorf("invalid JSON in response: %w", err)
	}
	_, err := fmt.Fprintln(a.out, buf.String())
	return err
}
