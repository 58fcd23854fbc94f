package cogs

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"cogs/config"
)

const (
	testAccessKey = "0123456789abcdef0123456789abcdef"
	testSecretKey = "a1b2c3d4e5f60718293a4b5c6d7e8f90"
)

var fixedNow = time.Date(2016, 6, 21, 16, 2, 11, 0, time.UTC)

// setup creates a test environment for running API client tests. It returns a request
// multiplexer for registering handlers, the APIClient configured to use the test
// server, and a teardown function to close the server.
func setup(t *testing.T) (mux *http.ServeMux, client *APIClient, teardown func()) {

	t.Helper()

	mux = http.NewServeMux()
	server := httptest.NewServer(mux)

	logger := slog.New(slog.NewTextHandler(
		os.Stdout,
		&slog.HandlerOptions{Level: slog.LevelDebug},
	))

	client = &APIClient{
		httpClient: server.Client(),
		baseURL:    server.URL,
		baseWsURL:  "ws" + strings.TrimPrefix(server.URL, "http"),
		accessKey:  testAccessKey,
		secretKey:  testSecretKey,
		now:        func() time.Time { return fixedNow },
		log:        logger,
	}

	teardown = func() {
		server.Close()
	}

	return mux, client, teardown
}

// serveFile returns a handler serving a testdata json file.
func serveFile(t *testing.T, method, jsonFile string) http.HandlerFunc {
	t.Helper()
	jsonContent, err := os.ReadFile(filepath.Join("testdata", jsonFile))
	if err != nil {
		t.Fatalf("failed to read json file %s: %v", jsonFile, err)
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			t.Errorf("expected method %s, got %s", method, r.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(jsonContent)
	}
}

// checkSignature verifies the Payload and Payload-HMAC headers of a signed request.
func checkSignature(t *testing.T, r *http.Request) {
	t.Helper()

	payload, err := base64.StdEncoding.DecodeString(r.Header.Get("Payload"))
	if err != nil {
		t.Fatalf("Payload header is not base64: %v", err)
	}

	var ap authPayload
	if err := json.Unmarshal(payload, &ap); err != nil {
		t.Fatalf("Payload is not json: %v", err)
	}
	want := authPayload{AccessKey: testAccessKey, Timestamp: "2016-06-21T16:02:11Z"}
	if diff := cmp.Diff(want, ap); diff != "" {
		t.Errorf("payload mismatch (-want +got):\n%s", diff)
	}

	key, _ := hex.DecodeString(testSecretKey)
	mac := hmac.New(sha256.New, key)
	_, _ = mac.Write(payload)
	if got, want := r.Header.Get("Payload-HMAC"), hex.EncodeToString(mac.Sum(nil)); got != want {
		t.Errorf("Payload-HMAC got %s want %s", got, want)
	}
}

func TestGetBuildInfo(t *testing.T) {

	mux, client, teardown := setup(t)
	defer teardown()

	serve := serveFile(t, http.MethodGet, "build_info.json")
	mux.HandleFunc("/build_info", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Payload-HMAC") != "" {
			t.Error("build info request should not be signed")
		}
		serve(w, r)
	})

	info, err := client.GetBuildInfo(context.Background())
	if err != nil {
		t.Fatalf("GetBuildInfo returned an unexpected error: %v", err)
	}

	var got map[string]string
	if err := json.Unmarshal(info, &got); err != nil {
		t.Fatal(err)
	}
	if got, want := got["version"], "0.9.4"; got != want {
		t.Errorf("version got %s want %s", got, want)
	}
}

func TestNewClientKey(t *testing.T) {

	mux, client, teardown := setup(t)
	defer teardown()

	mux.HandleFunc("/client_secret", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected method POST, got %s", r.Method)
		}
		checkSignature(t, r)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"client_salt": "abcdef0123456789ZZZZ", "client_secret": "s3cr3t"}`))
	})

	key, err := client.NewClientKey(context.Background())
	if err != nil {
		t.Fatalf("NewClientKey returned an unexpected error: %v", err)
	}
	want := ClientKey{ClientSalt: "abcdef0123456789ZZZZ", ClientSecret: "s3cr3t"}
	if diff := cmp.Diff(want, key); diff != "" {
		t.Errorf("client key mismatch (-want +got):\n%s", diff)
	}
}

func TestNewRandomUUID(t *testing.T) {

	tests := []struct {
		name    string
		body    string
		want    string
		wantErr bool
	}{
		{"valid", `{"uuid": "5c4a8dd4-5b2e-4f0b-9c7e-63b0d0f1e4a2"}`, "5c4a8dd4-5b2e-4f0b-9c7e-63b0d0f1e4a2", false},
		{"invalid", `{"uuid": "not-a-uuid"}`, "", true},
		{"empty", `{}`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux, client, teardown := setup(t)
			defer teardown()

			mux.HandleFunc("/random_uuid", func(w http.ResponseWriter, r *http.Request) {
				checkSignature(t, r)
				_, _ = w.Write([]byte(tt.body))
			})

			id, err := client.NewRandomUUID(context.Background())
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected an error, got %#v", id)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewRandomUUID returned an unexpected error: %v", err)
			}
			if got, want := id.UUID, tt.want; got != want {
				t.Errorf("got %s want %s", got, want)
			}
		})
	}
}

func TestGetNamespaceSchema(t *testing.T) {

	mux, client, teardown := setup(t)
	defer teardown()

	serve := serveFile(t, http.MethodGet, "schema.json")
	mux.HandleFunc("/namespace/orders/schema", func(w http.ResponseWriter, r *http.Request) {
		checkSignature(t, r)
		serve(w, r)
	})

	schema, err := client.GetNamespaceSchema(context.Background(), "orders")
	if err != nil {
		t.Fatalf("GetNamespaceSchema returned an unexpected error: %v", err)
	}
	if !strings.HasPrefix(strings.TrimSpace(string(schema)), `{`) {
		t.Errorf("unexpected schema %s", schema)
	}
	if !strings.Contains(string(schema), `"order_id"`) {
		t.Errorf("schema missing attribute: %s", schema)
	}
}

func TestGetNamespaceSchema_Escaped(t *testing.T) {

	mux, client, teardown := setup(t)
	defer teardown()

	var gotPath string
	mux.HandleFunc("/namespace/", func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		_, _ = w.Write([]byte(`{}`))
	})

	if _, err := client.GetNamespaceSchema(context.Background(), "a b/c"); err != nil {
		t.Fatal(err)
	}
	if got, want := gotPath, "/namespace/a%20b%2Fc/schema"; got != want {
		t.Errorf("path got %s want %s", got, want)
	}

	if _, err := client.GetNamespaceSchema(context.Background(), ""); err == nil {
		t.Error("expected an error for an empty namespace")
	}
}

func TestAPIError(t *testing.T) {

	mux, client, teardown := setup(t)
	defer teardown()

	mux.HandleFunc("/namespace/missing/schema", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message": "namespace not found"}`, http.StatusNotFound)
	})

	_, err := client.GetNamespaceSchema(context.Background(), "missing")
	if err == nil {
		t.Fatal("expected an error")
	}
	for _, part := range []string{"status 404", "namespace not found", `"missing"`} {
		if !strings.Contains(err.Error(), part) {
			t.Errorf("error %q does not contain %q", err, part)
		}
	}
}

func TestUnsignedWithoutKey(t *testing.T) {

	mux, client, teardown := setup(t)
	defer teardown()

	mux.HandleFunc("/random_uuid", func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("request should not have been sent")
	})

	client.secretKey = ""
	_, err := client.NewRandomUUID(context.Background())
	if !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("expected ErrNoAPIKey, got %v", err)
	}

	client.secretKey = "not hex"
	if _, err := client.NewRandomUUID(context.Background()); err == nil {
		t.Error("expected an error for a non hex secret")
	}
}

func TestNewClientFromFile(t *testing.T) {

	client, err := NewClientFromFile(filepath.Join("..", "..", "config", "testdata", "cogs.json"), nil)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := client.BaseURL(), "https://api.example.cogswell.io"; got != want {
		t.Errorf("got %s want %s", got, want)
	}
	if got, want := client.BaseWsURL(), config.DefaultBaseWsURL; got != want {
		t.Errorf("got %s want %s", got, want)
	}
	if got, want := client.AccessKey(), testAccessKey; got != want {
		t.Errorf("got %s want %s", got, want)
	}
	if got, want := client.httpClient.Timeout, 15*time.Second; got != want {
		t.Errorf("timeout got %v want %v", got, want)
	}
}
