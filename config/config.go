package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

// Defaults applied when a config file leaves a setting out.
const (
	DefaultBaseURL                 = "https://api.cogswell.io"
	DefaultBaseWsURL               = "wss://api.cogswell.io"
	DefaultHTTPRequestTimeout      = 30000
	DefaultWebsocketConnectTimeout = 30000
)

// Config represents a cogs configuration file.
type Config struct {
	BaseURL                 string        `json:"base_url" yaml:"base_url"`
	BaseWsURL               string        `json:"base_ws_url" yaml:"base_ws_url"`
	APIKey                  APIKey        `json:"api_key" yaml:"api_key"`
	ClientKey               *ClientKey    `json:"client_key,omitempty" yaml:"client_key"`
	HTTPRequestTimeoutMS    *int          `json:"http_request_timeout" yaml:"http_request_timeout"`
	WebsocketConnTimeoutMS  *int          `json:"websocket_connect_timeout" yaml:"websocket_connect_timeout"`
	WebsocketAutoReconnect  *bool         `json:"websocket_auto_reconnect" yaml:"websocket_auto_reconnect"`
	HTTPRequestTimeout      time.Duration `json:"-" yaml:"-"` // Derived from HTTPRequestTimeoutMS
	WebsocketConnectTimeout time.Duration `json:"-" yaml:"-"` // Derived from WebsocketConnTimeoutMS
}

// APIKey holds the project API key pair. The secret is hex encoded.
type APIKey struct {
	Access string `json:"access" yaml:"access"`
	Secret string `json:"secret,omitempty" yaml:"secret"`
}

// ClientKey holds a client salt and secret issued by the service.
type ClientKey struct {
	Salt   string `json:"salt" yaml:"salt"`
	Secret string `json:"secret" yaml:"secret"`
}

// Load loads and validates the configuration from the given file path. Files
// with a .yaml or .yml extension are parsed as YAML, everything else as JSON.
func Load(filePath string) (*Config, error) {
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", filePath)
	}

	configFile, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(configFile, &cfg); err != nil {
			return nil, fmt.Errorf("unable to parse YAML config file: %w", err)
		}
	default:
		if err := json.Unmarshal(configFile, &cfg); err != nil {
			return nil, fmt.Errorf("unable to parse JSON config file: %w", err)
		}
	}

	if err := validateAndPrepare(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", filePath, err)
	}

	return &cfg, nil
}

// validateAndPrepare checks field formats and sets up defaults and derived
// values. Credentials are not required here since the unauthenticated
// build info endpoint works without them.
func validateAndPrepare(c *Config) error {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.BaseWsURL == "" {
		c.BaseWsURL = DefaultBaseWsURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	c.BaseWsURL = strings.TrimRight(c.BaseWsURL, "/")

	if err := checkURL("base_url", c.BaseURL, "http", "https"); err != nil {
		return err
	}
	if err := checkURL("base_ws_url", c.BaseWsURL, "ws", "wss"); err != nil {
		return err
	}

	if c.APIKey.Secret != "" && c.APIKey.Access == "" {
		return errors.New("api_key.access is missing")
	}
	if c.ClientKey != nil && (c.ClientKey.Salt == "" || c.ClientKey.Secret == "") {
		return errors.New("client_key requires both salt and secret")
	}

	httpTimeout, err := millis("http_request_timeout", c.HTTPRequestTimeoutMS, DefaultHTTPRequestTimeout)
	if err != nil {
		return err
	}
	c.HTTPRequestTimeout = httpTimeout

	wsTimeout, err := millis("websocket_connect_timeout", c.WebsocketConnTimeoutMS, DefaultWebsocketConnectTimeout)
	if err != nil {
		return err
	}
	c.WebsocketConnectTimeout = wsTimeout

	if c.WebsocketAutoReconnect == nil {
		reconnect := true
		c.WebsocketAutoReconnect = &reconnect
	}
	return nil
}

func checkURL(name, raw string, schemes ...string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", name, err)
	}
	for _, s := range schemes {
		if u.Scheme == s && u.Host != "" {
			return nil
		}
	}
	return fmt.Errorf("invalid %s %q: expected a %s url", name, raw, strings.Join(schemes, " or "))
}

func millis(name string, v *int, def int) (time.Duration, error) {
	ms := def
	if v != nil {
		ms = *v
	}
	if ms < 0 {
		return 0, fmt.Errorf("%s must not be negative", name)
	}
	return time.Duration(ms) * time.Millisecond, nil
}
