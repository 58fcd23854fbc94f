package cogs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"time"

	"cogs/config"
)

// APIClient is a wrapper for making calls to the Cogs API. It covers both
// the unauthenticated info endpoints and the signed tools endpoints.
type APIClient struct {
	httpClient *http.Client
	baseURL    string
	baseWsURL  string
	accessKey  string
	secretKey  string
	now        func() time.Time
	log        *slog.Logger
}

// NewAPIClient creates a new Cogs API client from a loaded config. If no
// httpClient is provided one is created using the config's request timeout.
func NewAPIClient(
	cfg *config.Config,
	httpClient *http.Client,
	logger *slog.Logger,
) *APIClient {

	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.HTTPRequestTimeout}
	}

	// Logger setup.
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(
			os.Stdout,
			&slog.HandlerOptions{Level: slog.LevelInfo},
		))
	}

	return &APIClient{
		httpClient: httpClient,
		baseURL:    cfg.BaseURL,
		baseWsURL:  cfg.BaseWsURL,
		accessKey:  cfg.APIKey.Access,
		secretKey:  cfg.APIKey.Secret,
		now:        time.Now,
		log:        logger,
	}
}

// NewClientFromFile loads the config file at cfgPath and returns a client
// for it.
func NewClientFromFile(cfgPath string, logger *slog.Logger) (*APIClient, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	return NewAPIClient(cfg, nil, logger), nil
}

// BaseURL returns the http base url of the API.
func (c *APIClient) BaseURL() string { return c.baseURL }

// BaseWsURL returns the websocket base url of the API.
func (c *APIClient) BaseWsURL() string { return c.baseWsURL }

// AccessKey returns the access part of the API key.
func (c *APIClient) AccessKey() string { return c.accessKey }

// GetBuildInfo fetches build metadata for the API. No authentication is
// required.
func (c *APIClient) GetBuildInfo(ctx context.Context) (BuildInfo, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/build_info", false, nil)
	if err != nil {
		return nil, err
	}

	var info BuildInfo
	if _, err := do(c, req, &info); err != nil {
		c.log.Error(fmt.Sprintf("GetBuildInfo: request error: %v", err))
		return nil, fmt.Errorf("failed to get build info: %w", err)
	}
	c.log.Debug("GetBuildInfo successful")
	return info, nil
}

// NewClientKey requests a new client salt and secret pair.
func (c *APIClient) NewClientKey(ctx context.Context) (ClientKey, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/client_secret", true, nil)
	if err != nil {
		return ClientKey{}, err
	}

	var key ClientKey
	if _, err := do(c, req, &key); err != nil {
		c.log.Error(fmt.Sprintf("NewClientKey: request error: %v", err))
		return ClientKey{}, fmt.Errorf("failed to get new client key: %w", err)
	}
	if key.ClientSalt == "" || key.ClientSecret == "" {
		return ClientKey{}, fmt.Errorf("client key response is missing the salt or secret")
	}
	c.log.Debug("NewClientKey successful")
	return key, nil
}

// NewRandomUUID requests a random uuid from the service.
func (c *APIClient) NewRandomUUID(ctx context.Context) (RandomUUID, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/random_uuid", true, nil)
	if err != nil {
		return RandomUUID{}, err
	}

	var id RandomUUID
	if _, err := do(c, req, &id); err != nil {
		c.log.Error(fmt.Sprintf("NewRandomUUID: request error: %v", err))
		return RandomUUID{}, fmt.Errorf("failed to get random uuid: %w", err)
	}
	if err := id.validate(); err != nil {
		return RandomUUID{}, err
	}
	c.log.Debug("NewRandomUUID successful")
	return id, nil
}

// GetNamespaceSchema fetches the schema of the named namespace.
func (c *APIClient) GetNamespaceSchema(ctx context.Context, namespace string) (Schema, error) {
	if namespace == "" {
		return nil, fmt.Errorf("namespace name is required")
	}
	path := fmt.Sprintf("/namespace/%s/schema", url.PathEscape(namespace))
	req, err := c.newRequest(ctx, http.MethodGet, path, true, nil)
	if err != nil {
		return nil, err
	}

	var schema Schema
	if _, err := do(c, req, &schema); err != nil {
		c.log.Error(fmt.Sprintf("GetNamespaceSchema: request error for %q: %v", namespace, err))
		return nil, fmt.Errorf("failed to get schema for namespace %q: %w", namespace, err)
	}
	c.log.Debug(fmt.Sprintf("GetNamespaceSchema %q successful", namespace))
	return schema, nil
}

// newRequest is a helper to create a new HTTP request with common headers,
// signing it if authenticated is set.
func (c *APIClient) newRequest(ctx context.Context, method, path string, authenticated bool, body []byte) (*http.Request, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	requestURL := c.baseURL + path
	c.log.Debug(fmt.Sprintf("%s request %v", method, requestURL))

	req, err := http.NewRequestWithContext(ctx, method, requestURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if method == http.MethodPost {
		req.Header.Set("Content-Type", "application/json")
	}

	if authenticated {
		if err := sign(req, c.accessKey, c.secretKey, c.now()); err != nil {
			return nil, err
		}
	}
	return req, nil
}

// do is a helper to execute an HTTP request and decode the JSON response.
// A nil `v` is supported for API calls not providing a response.
func do[T any](c *APIClient, req *http.Request, v *T) (*http.Response, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	if v != nil {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return resp, nil
}
