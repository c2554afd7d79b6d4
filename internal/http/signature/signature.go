package signature

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/google/go-github/v66/github"
)

const sha1Prefix = "sha1="

var (
	ErrMissing  = errors.New("missing signature")
	ErrMismatch = errors.New("signature mismatch")
)

// Validate checks an X-Hub-Signature header against the raw body. The comparison is
// constant time.
func Validate(header string, body, secret []byte) error {
	if header == "" {
		return ErrMissing
	}
	if err := github.ValidateSignature(header, body, secret); err != nil {
		return fmt.Errorf("%w: %w", ErrMismatch, err)
	}
	return nil
}

// Sign returns the X-Hub-Signature value for body.
func Sign(body, secret []byte) string {
	mac := hmac.New(sha1.New, secret)
	mac.Write(body)
	return sha1Prefix + hex.EncodeToString(mac.Sum(nil))
}
