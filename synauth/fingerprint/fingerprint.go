// Package fingerprint computes the deterministic content digest used by
// content-verified ("what you see is what you sign") approval flows.
//
// The digest is SHA-256 over the RFC 8785 canonical JSON form of the
// parameter mapping, so independent computations agree bit-for-bit no
// matter where they run or in what order keys were inserted.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/gowebpki/jcs"
)

// Compute returns the hex fingerprint of a parameter mapping. Values must
// be JSON-encodable; anything else is rejected.
func Compute(params map[string]any) (string, error) {
	canonical, err := Canonical(params)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// Canonical returns the RFC 8785 canonical JSON encoding of params —
// sorted keys, minimal number formatting. This is the exact byte sequence
// the fingerprint is computed over, exposed for display and debugging.
func Canonical(params map[string]any) ([]byte, error) {
	data, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("encoding params: %w", err)
	}
	canonical, err := jcs.Transform(data)
	if err != nil {
		return nil, fmt.Errorf("canonicalizing params: %w", err)
	}
	return canonical, nil
}

// Verify recomputes the fingerprint for params and compares it to the
// backend-reported value. An empty want never verifies.
func Verify(params map[string]any, want string) bool {
	if want == "" {
		return false
	}
	got, err := Compute(params)
	return err == nil && got == want
}
