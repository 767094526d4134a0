package catalogsync

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// ErrChecksumMismatch is returned when fetched bytes do not hash to the expected value.
var ErrChecksumMismatch = errors.New("catalog checksum mismatch")

// Checksum returns the SHA-256 of data as "sha256:<hex>".
func Checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return "sha256:" + hex.EncodeToString(sum[:])
}

// VerifyChecksum compares data with expected, given as "sha256:<hex>" or bare hex.
func VerifyChecksum(data []byte, expected string) error {
	want := normalizeChecksum(expected)
	if want == "" {
		return errors.New("expected checksum is empty")
	}
	got := normalizeChecksum(Checksum(data))
	if got != want {
		return fmt.Errorf("%w: got sha256:%s, want sha256:%s", ErrChecksumMismatch, got, want)
	}
	return nil
}

func normalizeChecksum(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.TrimPrefix(s, "sha256:")
}
