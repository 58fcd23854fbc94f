package cogs

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrNoAPIKey reports that an authenticated call was attempted without an
// api_key access/secret pair in the config file.
var ErrNoAPIKey = errors.New("api_key access and secret are required for this operation")

// sign adds the Payload and Payload-HMAC headers to req. The payload is the
// JSON encoded access key and timestamp, signed with HMAC-SHA256 using the
// hex-decoded API secret.
func sign(req *http.Request, accessKey, secretHex string, now time.Time) error {
	if accessKey == "" || secretHex == "" {
		return ErrNoAPIKey
	}
	key, err := hex.DecodeString(secretHex)
	if err != nil {
		return fmt.Errorf("api_key.secret is not valid hex: %w", err)
	}

	payload, err := json.Marshal(authPayload{
		AccessKey: accessKey,
		Timestamp: now.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal auth payload: %w", err)
	}

	mac := hmac.New(sha256.New, key)
	_, _ = mac.Write(payload)

	req.Header.Set("Payload", base64.StdEncoding.EncodeToString(payload))
	req.Header.Set("Payload-HMAC", hex.EncodeToString(mac.Sum(nil)))
	return nil
}
