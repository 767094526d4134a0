// Package detect matches response bodies against a signature catalog and
// reports which services, and which versions of them, produced the response.
//
// A Detector holds no per-call state: Detect may be called concurrently from
// any number of goroutines and each call returns its own result slice.
package detect

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/vulntor/lac/pkg/resolver"
	"github.com/vulntor/lac/pkg/signature"
)

// Result is one finding for a probed target.
type Result struct {
	Service     string `json:"service"`
	Version     string `json:"version"`
	Description string `json:"description"`
	Host        string `json:"host"`
	Port        uint16 `json:"port"`
}

// Bare reports whether the result only confirms the service identity.
func (r Result) Bare() bool {
	return r.Version == "" && r.Description == ""
}

// CatalogProvider returns the catalog to use for one detection call.
type CatalogProvider interface {
	Catalog() *signature.Catalog
}

type staticCatalog struct {
	catalog *signature.Catalog
}

func (s staticCatalog) Catalog() *signature.Catalog { return s.catalog }

// Observer is notified of detection events. Implementations must be safe for concurrent use.
type Observer interface {
	OnResult(r Result)
	OnInvalidVersion(host string, port uint16, service, value string)
}

// Option configures a Detector.
type Option func(*Detector)

// WithLogger sets the logger used for diagnostics.
func WithLogger(logger zerolog.Logger) Option {
	return func(d *Detector) {
		d.logger = logger
	}
}

// WithObserver attaches an observer such as a TelemetryWriter.
func WithObserver(o Observer) Option {
	return func(d *Detector) {
		d.observer = o
	}
}

// Detector runs catalogs against response bodies.
type Detector struct {
	provider CatalogProvider
	logger   zerolog.Logger
	observer Observer
}

// New returns a Detector bound to a fixed catalog. The catalog is checked
// up front so a broken loader fails here rather than at match time.
func New(catalog *signature.Catalog, opts ...Option) (*Detector, error) {
	if catalog == nil {
		return nil, errors.New("detect: nil catalog")
	}
	if err := CheckCatalog(catalog); err != nil {
		return nil, err
	}
	return newDetector(staticCatalog{catalog: catalog}, opts...), nil
}

// NewWithProvider returns a Detector that reads the catalog from p on every
// call, e.g. a signature.Holder kept fresh by a Watcher.
func NewWithProvider(p CatalogProvider, opts ...Option) (*Detector, error) {
	if p == nil || p.Catalog() == nil {
		return nil, errors.New("detect: provider has no catalog")
	}
	if err := CheckCatalog(p.Catalog()); err != nil {
		return nil, err
	}
	return newDetector(p, opts...), nil
}

func newDetector(p CatalogProvider, opts ...Option) *Detector {
	d := &Detector{
		provider: p,
		logger:   log.Logger.With().Str("component", "detect").Logger(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// CheckCatalog verifies that every definition is complete enough to run.
func CheckCatalog(c *signature.Catalog) error {
	for i, def := range c.Definitions() {
		if def.ServicePattern == nil {
			return fmt.Errorf("detect: definition %d (%s) has no service pattern", i, def.Name)
		}
		switch s := def.Strategy.(type) {
		case nil:
		case *signature.SemverStrategy:
			for j, r := range s.Ranges {
				if r.From == nil || r.To == nil {
					return fmt.Errorf("detect: definition %d (%s) range %d has an unset bound", i, def.Name, j)
				}
			}
		case *signature.TableStrategy:
			for j, e := range s.Entries {
				if e.Pattern == nil {
					return fmt.Errorf("detect: definition %d (%s) table entry %d has no pattern", i, def.Name, j)
				}
			}
		default:
			return fmt.Errorf("detect: definition %d (%s) has unknown strategy %T", i, def.Name, s)
		}
	}
	return nil
}

// DetectString is Detect for textual bodies.
func (d *Detector) DetectString(host string, port uint16, body string) []Result {
	return d.Detect(host, port, []byte(body))
}

// Detect evaluates every definition in catalog order and returns the findings.
//
// A matching definition with LogOnMatch yields a bare result first, followed by
// one result per satisfied range or table entry. Nothing is deduplicated.
// Version text that is not a semantic version is logged and skipped.
func (d *Detector) Detect(host string, port uint16, body []byte) []Result {
	var results []Result
	emit := func(r Result) {
		results = append(results, r)
		if d.observer != nil {
			d.observer.OnResult(r)
		}
	}

	for _, def := range d.provider.Catalog().Definitions() {
		loc := def.ServicePattern.FindIndex(body)
		if loc == nil {
			continue
		}

		if def.LogOnMatch {
			emit(Result{Service: def.Name, Host: host, Port: port})
		}

		var matches []resolver.Match
		switch s := def.Strategy.(type) {
		case nil:
			continue
		case *signature.SemverStrategy:
			var err error
			matches, err = resolver.ResolveSemver(body, loc[1], s)
			if err != nil {
				var ive *resolver.InvalidVersionError
				value := ""
				if errors.As(err, &ive) {
					value = ive.Value
				}
				d.logger.Warn().
					Str("host", host).
					Uint16("port", port).
					Str("service", def.Name).
					Str("value", value).
					Msgf("[%s:%d] - Unknown or invalid semver: %s", host, port, value)
				if d.observer != nil {
					d.observer.OnInvalidVersion(host, port, def.Name, value)
				}
				continue
			}
		case *signature.TableStrategy:
			matches = resolver.MatchTable(body, s)
		default:
			panic(fmt.Sprintf("detect: definition %q has unknown strategy %T", def.Name, s))
		}

		for _, m := range matches {
			emit(Result{
				Service:     def.Name,
				Version:     m.Version,
				Description: m.Description,
				Host:        host,
				Port:        port,
			})
		}
	}
	return results
}
