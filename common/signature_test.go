package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSignAndVerifyPayload(t *testing.T) {
	payload := []byte(`{"user_id":"tr__1","type":"new_message"}`)
	secret := "shared-secret"

	sig := SignPayload(payload, secret, 32)
	assert.NotEmpty(t, sig)
	assert.True(t, VerifyPayload(payload, secret, sig, 32))

	// Tampered payload or wrong secret fails
	assert.False(t, VerifyPayload([]byte(`{"user_id":"tr__2"}`), secret, sig, 32))
	assert.False(t, VerifyPayload(payload, "other-secret", sig, 32))
}

func TestSignPayloadTruncation(t *testing.T) {
	payload := []byte("payload")
	secret := "s"

	short := SignPayload(payload, secret, 16)
	full := SignPayload(payload, secret, 32)
	assert.NotEqual(t, short, full)
	assert.True(t, VerifyPayload(payload, secret, short, 16))

	// Out-of-range lengths fall back to the full digest
	assert.Equal(t, full, SignPayload(payload, secret, 0))
	assert.Equal(t, full, SignPayload(payload, secret, 64))
}
