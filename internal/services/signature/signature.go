// Package signature implements the LINE webhook request signature scheme:
// base64(HMAC-SHA256(channelSecret, rawBody)) carried in X-Line-Signature.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
)

// HeaderName is the request header LINE puts the signature in.
const HeaderName = "X-Line-Signature"

// Sign returns the signature LINE would send for body.
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// Verify reports whether signatureHeader is the signature of body under secret.
// The comparison is constant time. An empty header or secret never verifies.
func Verify(body []byte, signatureHeader string, secret string) bool {
	if signatureHeader == "" || secret == "" {
		return false
	}
	expected := Sign(body, secret)
	return hmac.Equal([]byte(expected), []byte(signatureHeader))
}
