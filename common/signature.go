package common

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
)

// SignPayload generates a deterministic signature for an outbound payload
// using HMAC-SHA256. Downstream services (push-notification dispatch) verify
// it before accepting the request.
//
// Parameters:
//   - payload: the raw request body
//   - secret: a shared secret from configuration
//   - nBytes: number of bytes to keep from the HMAC (e.g. 16 or 32)
func SignPayload(payload []byte, secret string, nBytes int) string {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write(payload)
	sum := mac.Sum(nil) // 32 bytes
	if nBytes <= 0 || nBytes > len(sum) {
		nBytes = 32
	}
	short := sum[:nBytes]
	// base64url without padding, header-safe
	return base64.RawURLEncoding.EncodeToString(short)
}

// VerifyPayload checks a signature produced by SignPayload.
func VerifyPayload(payload []byte, secret, signature string, nBytes int) bool {
	expected := SignPayload(payload, secret, nBytes)
	return hmac.Equal([]byte(expected), []byte(signature))
}
