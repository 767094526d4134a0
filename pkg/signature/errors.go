package signature

import (
	"errors"
	"fmt"
	"strings"
)

const (
	errorCodeCatalogInvalid    = "CATALOG_INVALID"
	errorCodeCatalogEmpty      = "CATALOG_EMPTY"
	errorCodeFormatUnsupported = "CATALOG_FORMAT_UNSUPPORTED"
	errorCodeSchemaUnsupported = "CATALOG_SCHEMA_UNSUPPORTED"
	errorCodeSourceRequired    = "CATALOG_SOURCE_REQUIRED"
	errorCodeSourceConflict    = "CATALOG_SOURCE_CONFLICT"
	errorCodeCacheDisabled     = "CATALOG_CACHE_DISABLED"
	errorCodeLoadFailed        = "CATALOG_LOAD_FAILED"
)

var (
	// ErrEmptyCatalog indicates the document parsed but holds no definitions.
	ErrEmptyCatalog = errors.New("no definitions found")
	// ErrUnsupportedFormat indicates a file extension we cannot decode.
	ErrUnsupportedFormat = errors.New("unsupported catalog format")
	// ErrUnsupportedSchema indicates a schema version this build cannot read.
	ErrUnsupportedSchema = errors.New("unsupported catalog schema")
	// ErrSourceRequired indicates neither --file nor --url was provided.
	ErrSourceRequired = errors.New("source required")
	// ErrSourceConflict indicates both --file and --url were provided.
	ErrSourceConflict = errors.New("multiple sources provided")
	// ErrCacheDisabled indicates no cache directory could be resolved.
	ErrCacheDisabled = errors.New("cache directory unavailable")
)

// Problem is a single validation failure inside a catalog.
type Problem struct {
	Index   int    // position of the definition in the document
	Name    string // definition name, if known
	Field   string
	Message string
}

func (p Problem) String() string {
	name := p.Name
	if name == "" {
		name = "<unnamed>"
	}
	if p.Field == "" {
		return fmt.Sprintf("definition %d (%s): %s", p.Index, name, p.Message)
	}
	return fmt.Sprintf("definition %d (%s): %s: %s", p.Index, name, p.Field, p.Message)
}

// ValidationError lists every problem found while building a catalog.
type ValidationError struct {
	Problems []Problem
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Problems) == 0 {
		return "invalid catalog"
	}
	if len(e.Problems) == 1 {
		return "invalid catalog: " + e.Problems[0].String()
	}
	lines := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		lines = append(lines, p.String())
	}
	return fmt.Sprintf("invalid catalog (%d problems):\n  %s", len(e.Problems), strings.Join(lines, "\n  "))
}

type errorCoder interface {
	error
	Code() string
}

type withCodeError struct {
	error
	code string
}

func (e *withCodeError) Code() string {
	return e.code
}

func (e *withCodeError) Unwrap() error {
	return e.error
}

// WithErrorCode annotates err with a catalog error code.
func WithErrorCode(err error, code string) error {
	if err == nil {
		return nil
	}
	return &withCodeError{error: err, code: code}
}

// NewSourceRequiredError formats a missing source error.
func NewSourceRequiredError() error {
	return WithErrorCode(fmt.Errorf("%w: either --file or --url must be provided", ErrSourceRequired), errorCodeSourceRequired)
}

// NewSourceConflictError formats a conflicting source error.
func NewSourceConflictError() error {
	return WithErrorCode(fmt.Errorf("%w: only one of --file or --url may be provided at a time", ErrSourceConflict), errorCodeSourceConflict)
}

// NewCacheDisabledError formats a missing cache directory error.
func NewCacheDisabledError() error {
	return WithErrorCode(fmt.Errorf("%w: workspace disabled; specify --cache-dir", ErrCacheDisabled), errorCodeCacheDisabled)
}

// ErrorCode resolves an error to its catalog error code.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}

	var coded errorCoder
	if errors.As(err, &coded) {
		if code := coded.Code(); code != "" {
			return code
		}
	}

	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		return errorCodeCatalogInvalid
	case errors.Is(err, ErrEmptyCatalog):
		return errorCodeCatalogEmpty
	case errors.Is(err, ErrUnsupportedFormat):
		return errorCodeFormatUnsupported
	case errors.Is(err, ErrUnsupportedSchema):
		return errorCodeSchemaUnsupported
	case errors.Is(err, ErrSourceRequired):
		return errorCodeSourceRequired
	case errors.Is(err, ErrSourceConflict):
		return errorCodeSourceConflict
	case errors.Is(err, ErrCacheDisabled):
		return errorCodeCacheDisabled
	default:
		return errorCodeLoadFailed
	}
}

// ExitCode maps catalog errors to CLI exit codes.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	var verr *ValidationError
	switch {
	case errors.Is(err, ErrSourceRequired),
		errors.Is(err, ErrSourceConflict):
		return 2
	case errors.As(err, &verr),
		errors.Is(err, ErrEmptyCatalog),
		errors.Is(err, ErrUnsupportedFormat),
		errors.Is(err, ErrUnsupportedSchema):
		return 3
	case errors.Is(err, ErrCacheDisabled):
		return 7
	default:
		return 1
	}
}

// Suggestions provides CLI hints for catalog errors.
func Suggestions(err error) []string {
	if err == nil {
		return nil
	}

	switch ErrorCode(err) {
	case errorCodeSourceRequired:
		return []string{
			"Provide a source:          --file <path> or --url <address>",
			"Example:                   lac catalog sync --url https://example/definitions.yaml",
		}
	case errorCodeSourceConflict:
		return []string{
			"Use only one source flag",
			"Remove either --file or --url",
		}
	case errorCodeCacheDisabled:
		return []string{
			"Set cache directory:       lac catalog sync --cache-dir <path>",
			"Or drop --no-workspace so the workspace cache is used",
		}
	case errorCodeCatalogInvalid, errorCodeCatalogEmpty:
		return []string{
			"Check the catalog:         lac catalog validate <path>",
		}
	case errorCodeFormatUnsupported:
		return []string{
			"Use a .json, .yaml or .yml catalog file",
		}
	case errorCodeSchemaUnsupported:
		return []string{
			"This build reads schema v1 catalogs; remove or fix the 'schema' field",
		}
	default:
		return nil
	}
}
