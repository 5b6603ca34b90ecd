package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidCredentials = errors.New("private key is not valid base64")
	ErrStaleTimestamp     = errors.New("request timestamp outside freshness window")
)

// TimestampFreshnessWindow is how far a request timestamp may drift from the
// wall clock before Coinbase rejects it.
const TimestampFreshnessWindow = 30 * time.Second

type Signer struct {
	secret string
}

func NewSigner(secret string) *Signer {
	return &Signer{secret: secret}
}

// Sign computes the API-SIGN header value: HMAC-SHA256 over
// timestamp+method+path+body keyed with the base64-decoded secret, encoded
// back to base64. Deterministic — no clock reads, no randomness.
func (signer *Signer) Sign(timestamp int64, method string, path string, body string) (string, error) {
	decodedSecret, err := base64.StdEncoding.DecodeString(signer.secret)
	if err != nil {
		return "", ErrInvalidCredentials
	}

	message := fmt.Sprintf("%d%s%s%s", timestamp, method, path, body)

	h := hmac.New(sha256.New, decodedSecret)
	h.Write([]byte(message))

	return base64.StdEncoding.EncodeToString(h.Sum(nil)), nil
}

// CheckTimestampFreshness fails fast on timestamps that would be rejected
// upstream, instead of sending a request that is already stale.
func CheckTimestampFreshness(timestamp int64, now time.Time) error {
	drift := now.Sub(time.Unix(timestamp, 0))
	if drift > TimestampFreshnessWindow || drift < -TimestampFreshnessWindow {
		return ErrStaleTimestamp
	}
	return nil
}
