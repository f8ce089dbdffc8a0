package webhook

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSignVerify_RoundTrip(t *testing.T) {
	payloads := [][]byte{
		nil,
		[]byte("{}"),
		[]byte(`{"id":"d1"}`),
		[]byte(`{"deal":{"title":"Acme renewal","value":1500,"tags":["a","b","c"]}}`),
		make([]byte, 64*1024),
	}

	for _, body := range payloads {
		signature := Sign("topsecret", "1724800000000", body)
		assert.True(t, Verify("topsecret", "1724800000000", body, signature))
	}
}

func TestVerify_RejectsMutations(t *testing.T) {
	body := []byte(`{"id":"d1","value":1500}`)
	timestamp := "1724800000000"
	signature := Sign("topsecret", timestamp, body)

	// Single-byte body mutation.
	mutated := append([]byte(nil), body...)
	mutated[3] ^= 0x01
	assert.False(t, Verify("topsecret", timestamp, mutated, signature))

	// Single-byte signature mutation.
	badSig := []byte(signature)
	if badSig[0] == 'a' {
		badSig[0] = 'b'
	} else {
		badSig[0] = 'a'
	}
	assert.False(t, Verify("topsecret", timestamp, body, string(badSig)))

	// Timestamp swap invalidates the signature.
	assert.False(t, Verify("topsecret", "1724800000001", body, signature))

	// Wrong secret.
	assert.False(t, Verify("othersecret", timestamp, body, signature))

	// Empty signature never verifies.
	assert.False(t, Verify("topsecret", timestamp, body, ""))
}
