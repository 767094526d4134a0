// Package resolver turns a matched response body into version findings.
// It implements the two strategies a signature can carry: inclusive semver
// ranges read right after the service match, and tables of independent
// version regexes.
package resolver

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/vulntor/lac/pkg/signature"
)

// ErrInvalidVersion is returned when extracted text is not a semantic version.
var ErrInvalidVersion = errors.New("unknown or invalid semver")

// InvalidVersionError carries the offending (normalized) text.
type InvalidVersionError struct {
	Value string
	Err   error
}

func (e *InvalidVersionError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidVersion, e.Value)
}

func (e *InvalidVersionError) Unwrap() []error {
	return []error{ErrInvalidVersion, e.Err}
}

// Match is one version finding.
type Match struct {
	Version     string
	Description string
}

// ExtractVersion returns the bytes from offset up to the first '"' or the end
// of body, together with the number of dots in them.
func ExtractVersion(body []byte, offset int) (string, int) {
	if offset < 0 || offset >= len(body) {
		return "", 0
	}
	rest := body[offset:]
	if end := bytes.IndexByte(rest, '"'); end >= 0 {
		rest = rest[:end]
	}
	return string(rest), bytes.Count(rest, []byte{'.'})
}

// NormalizeVersion completes a partial version with zero components so it
// has at least three: "4.6" becomes "4.6.0" and "4" becomes "4.0.0".
func NormalizeVersion(raw string, dots int) string {
	if dots >= 2 {
		return raw
	}
	return raw + strings.Repeat(".0", 2-dots)
}

// ParseVersion extracts, normalizes and strictly parses the version at offset.
// The normalized text is returned even on failure so callers can report it.
func ParseVersion(body []byte, offset int) (string, *semver.Version, error) {
	normalized := NormalizeVersion(ExtractVersion(body, offset))
	v, err := semver.StrictNewVersion(normalized)
	if err != nil {
		return normalized, nil, &InvalidVersionError{Value: normalized, Err: err}
	}
	return normalized, v, nil
}

// MatchRanges reports one Match per range containing v, in declaration order.
// Overlapping ranges yield several matches for the same version.
func MatchRanges(version string, v *semver.Version, ranges []signature.Range) []Match {
	var out []Match
	for _, r := range ranges {
		if r.Contains(v) {
			out = append(out, Match{Version: version, Description: r.Description})
		}
	}
	return out
}

// ResolveSemver applies a semver strategy to the text following the service match.
func ResolveSemver(body []byte, offset int, strat *signature.SemverStrategy) ([]Match, error) {
	version, v, err := ParseVersion(body, offset)
	if err != nil {
		return nil, err
	}
	return MatchRanges(version, v, strat.Ranges), nil
}
