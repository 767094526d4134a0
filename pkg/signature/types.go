// Package signature holds the service signature catalog consumed by the detection engine.
//
// A catalog is an ordered list of definitions. Each definition pairs a service pattern
// with at most one version strategy:
//   - SemverStrategy: the version is read from the bytes right after the service match
//     and checked against inclusive semantic-version ranges.
//   - TableStrategy: independent regexes, each pinning one exact version.
//
// Catalogs are immutable once built and safe to share between goroutines.
package signature

import (
	"cmp"
	"regexp"

	"github.com/Masterminds/semver/v3"
)

// ProtocolCustomTCP marks definitions that need a probe message sent before a response arrives.
const ProtocolCustomTCP = "tcp/custom"

// Definition is one compiled signature rule.
type Definition struct {
	Name           string
	Protocol       string
	Ports          []uint16
	Timeout        bool   // scanner hint: the service may stay silent until timeout
	Message        string // probe payload for tcp/custom services
	ServicePattern *regexp.Regexp
	LogOnMatch     bool
	Strategy       Strategy // nil when the definition resolves no version
}

// Strategy is the version resolution variant of a definition. The interface is sealed:
// only SemverStrategy and TableStrategy implement it.
type Strategy interface {
	strategy()
}

// SemverStrategy resolves the version text following the service match against Ranges.
type SemverStrategy struct {
	Ranges []Range
}

// TableStrategy pins versions by independent regex matches over the whole body.
type TableStrategy struct {
	Entries []TableEntry
}

func (*SemverStrategy) strategy() {}
func (*TableStrategy) strategy()  {}

// Range is an inclusive version interval with the description reported on a hit.
type Range struct {
	From        *semver.Version
	To          *semver.Version
	Description string
}

// Contains reports whether From <= v <= To. Only major, minor and patch
// take part; pre-release and build metadata are ignored on both sides.
func (r Range) Contains(v *semver.Version) bool {
	return compareCore(v, r.From) >= 0 && compareCore(v, r.To) <= 0
}

func compareCore(a, b *semver.Version) int {
	if c := cmp.Compare(a.Major(), b.Major()); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Minor(), b.Minor()); c != 0 {
		return c
	}
	return cmp.Compare(a.Patch(), b.Patch())
}

// TableEntry maps a regex to an exact version and description.
type TableEntry struct {
	Pattern     *regexp.Regexp
	Version     string
	Description string
}

// Catalog is the ordered, read-only set of definitions used by a detection run.
type Catalog struct {
	schema      string
	definitions []Definition
}

// NewCatalog wraps already compiled definitions. The slice is copied.
func NewCatalog(defs ...Definition) *Catalog {
	return &Catalog{definitions: append([]Definition(nil), defs...)}
}

// Definitions returns the definitions in catalog order. Callers must not modify the result.
func (c *Catalog) Definitions() []Definition {
	if c == nil {
		return nil
	}
	return c.definitions
}

// Len returns the number of definitions.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.definitions)
}

// Schema returns the schema version declared by the catalog document, if any.
func (c *Catalog) Schema() string {
	if c == nil {
		return ""
	}
	return c.schema
}

// Lookup returns the first definition with the given name.
func (c *Catalog) Lookup(name string) (Definition, bool) {
	for _, def := range c.Definitions() {
		if def.Name == name {
			return def, true
		}
	}
	return Definition{}, false
}
