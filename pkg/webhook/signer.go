// Package webhook implements the outbound delivery contract: HMAC-SHA256
// signed JSON POSTs with a bounded timeout, plus verification for inbound
// webhooks.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Sign computes the hex HMAC-SHA256 over timestamp + body. The timestamp is
// epoch millis rendered as a decimal string; prepending it to the signed
// bytes binds the signature to the delivery attempt.
func Sign(secret, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write(body)

	return hex.EncodeToString(mac.Sum(nil))
}

// Verify recomputes the signature over the received timestamp and raw body
// and compares it to the provided one in constant time. Callers must reject
// the payload before running any side effect when this returns false.
func Verify(secret, timestamp string, body []byte, signature string) bool {
	if signature == "" {
		return false
	}

	expected := Sign(secret, timestamp, body)

	return hmac.Equal([]byte(expected), []byte(signature))
}
