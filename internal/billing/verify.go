// Package billing verifies payment provider webhooks and maps their events
// onto profile plan changes.
package billing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

func sign(secret string, parts ...[]byte) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	for _, p := range parts {
		mac.Write(p)
	}
	return mac.Sum(nil)
}

func equalHex(want []byte, got string) bool {
	b, err := hex.DecodeString(strings.TrimSpace(got))
	if err != nil {
		return false
	}
	return hmac.Equal(want, b)
}

// VerifyLemonSqueezy reports whether signature (the X-Signature header) is
// the hex HMAC-SHA256 of body under secret. An empty secret or signature
// never verifies.
func VerifyLemonSqueezy(body []byte, signature, secret string) bool {
	if secret == "" || signature == "" {
		return false
	}
	return equalHex(sign(secret, body), signature)
}

// VerifyPaddle checks a Paddle-Signature header of the form "ts=...;h1=...".
// The h1 digest is accepted over "ts:body" and, for senders that omit the
// timestamp from the signed payload, over the body alone.
func VerifyPaddle(body []byte, header, secret string) bool {
	if secret == "" {
		return false
	}
	var ts, h1 string
	for _, part := range strings.Split(header, ";") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "ts":
			ts = v
		case "h1":
			h1 = v
		}
	}
	if h1 == "" {
		return false
	}
	if ts != "" && equalHex(sign(secret, []byte(ts), []byte(":"), body), h1) {
		return true
	}
	return equalHex(sign(secret, body), h1)
}
