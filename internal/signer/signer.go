// Package signer computes and verifies the keyed MAC that makes a Verdict
// non-repudiable. The construction (HMAC-SHA256 over canonical JSON) has no
// third-party counterpart in the example pack or the wider Go ecosystem worth
// pulling in over the standard library's crypto/hmac — see DESIGN.md.
package signer

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"

	"github.com/vigil-governance/vigil/internal/model"
)

// ErrNoSecret is returned by Sign when the signer was constructed with an
// empty secret.
var ErrNoSecret = errors.New("signer: no secret configured")

// Signer computes and verifies the verdict MAC. The secret is loaded once at
// startup and never reassigned; there is no Rotate method, so changing the key
// takes the operator-driven restart path spec.md §4.5 describes.
type Signer struct {
	secret []byte
}

// New constructs a Signer from process-environment keying material. An empty
// secret is a fatal configuration error at startup — callers must check for
// it themselves (see cmd/vigil) because the zero Signer is intentionally
// usable in tests that want to exercise the ErrNoSecret path.
func New(secret string) *Signer {
	return &Signer{secret: []byte(secret)}
}

// Sign computes the hex-encoded HMAC-SHA256 over the canonical JSON
// encoding of the verdict's signed-field subset. Field order in
// model.SignedFields is already the sorted key order spec.md §4.5 requires
// (decision, reason, trace_id, validator_name), so encoding/json's default
// struct-field-order marshaling is the canonical representation.
func (s *Signer) Sign(v model.Verdict) (string, error) {
	if len(s.secret) == 0 {
		return "", ErrNoSecret
	}
	canonical, err := json.Marshal(v.ForSigning())
	if err != nil {
		return "", err
	}
	mac := hmac.New(sha256.New, s.secret)
	mac.Write(canonical)
	return hex.EncodeToString(mac.Sum(nil)), nil
}

// Verify recomputes the MAC over the verdict's signed fields and compares it
// against the supplied signature in constant time. A verdict with an empty
// signature never verifies.
func (s *Signer) Verify(v model.Verdict, signature string) bool {
	if signature == "" || len(s.secret) == 0 {
		return false
	}
	expected, err := s.Sign(v)
	if err != nil {
		return false
	}
	return hmac.Equal([]byte(expected), []byte(signature))
}
