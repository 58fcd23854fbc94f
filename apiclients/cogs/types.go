package cogs

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// ClientKey is a client salt and secret pair issued by POST /client_secret.
type ClientKey struct {
	ClientSalt   string `json:"client_salt"`
	ClientSecret string `json:"client_secret"`
}

// RandomUUID is the response of GET /random_uuid.
type RandomUUID struct {
	UUID string `json:"uuid"`
}

// validate checks that the service returned a well formed uuid.
func (r RandomUUID) validate() error {
	if _, err := uuid.Parse(r.UUID); err != nil {
		return fmt.Errorf("invalid uuid %q in response: %w", r.UUID, err)
	}
	return nil
}

// Schema is a namespace schema. It is kept as raw JSON so that it can be
// printed back in the order the service sent it.
type Schema = json.RawMessage

// BuildInfo is the build metadata object returned by GET /build_info, kept
// as raw JSON for the same reason as Schema.
type BuildInfo = json.RawMessage

// authPayload is the signed payload sent with authenticated requests.
type authPayload struct {
	AccessKey string `json:"access_key"`
	Timestamp string `json:"timestamp"`
}
