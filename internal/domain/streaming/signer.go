package streaming

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Sign computes the HMAC-SHA256 of message under secret, rendered as
// lowercase hex. Pure function: no clock, no I/O.
func Sign(secret, message []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(message)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature recomputes the expected signature and compares it against
// the presented one in constant time. Hex case is normalized; anything that
// is not valid hex simply fails the comparison.
func VerifySignature(secret, message []byte, signature string) bool {
	expected := Sign(secret, message)
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(signature)))
}
