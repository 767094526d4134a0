package signature

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"
)

// Format identifies the encoding of a catalog document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// SupportedSchemaMajor is the only catalog schema major version this build reads.
const SupportedSchemaMajor = "v1"

//go:embed data/definitions.yaml
var embeddedDefinitionsYAML []byte

var (
	builtinOnce    sync.Once
	builtinCatalog *Catalog
	builtinErr     error
)

// Builtin returns the catalog embedded in the binary. It is parsed once.
func Builtin() (*Catalog, error) {
	builtinOnce.Do(func() {
		builtinCatalog, builtinErr = Parse(embeddedDefinitionsYAML, FormatYAML)
		if builtinErr != nil {
			builtinErr = fmt.Errorf("embedded catalog: %w", builtinErr)
		}
	})
	return builtinCatalog, builtinErr
}

// FormatFromPath infers the document format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// LoadFile reads, decodes and validates a catalog file.
func LoadFile(path string) (*Catalog, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	catalog, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("load catalog %s: %w", path, err)
	}
	return catalog, nil
}

// Load returns the catalog at path, or the embedded one when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Builtin()
	}
	return LoadFile(path)
}

// Parse decodes a catalog document and validates every definition.
// The document is either a bare list of definitions or a mapping with
// "schema" and "definitions" keys.
func Parse(data []byte, format Format) (*Catalog, error) {
	raws, schema, err := Decode(data, format)
	if err != nil {
		return nil, err
	}
	if err := checkSchema(schema); err != nil {
		return nil, err
	}
	catalog, err := Build(raws)
	if err != nil {
		return nil, err
	}
	catalog.schema = schema
	return catalog, nil
}

// Decode unmarshals a catalog document without validating it.
func Decode(data []byte, format Format) ([]RawDefinition, string, error) {
	var unmarshal func([]byte, any) error
	switch format {
	case FormatJSON:
		unmarshal = json.Unmarshal
	case FormatYAML:
		unmarshal = yaml.Unmarshal
	default:
		return nil, "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return nil, "", ErrEmptyCatalog
	}

	var raws []RawDefinition
	if err := unmarshal(data, &raws); err == nil {
		if len(raws) == 0 {
			return nil, "", ErrEmptyCatalog
		}
		return raws, "", nil
	}

	var doc rawDocument
	if err := unmarshal(data, &doc); err != nil {
		return nil, "", fmt.Errorf("failed to parse %s catalog: %w", format, err)
	}
	if len(doc.Definitions) == 0 {
		return nil, "", ErrEmptyCatalog
	}
	return doc.Definitions, doc.Schema, nil
}

func checkSchema(schema string) error {
	if schema == "" {
		return nil
	}
	v := schema
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return fmt.Errorf("%w: %q is not a version", ErrUnsupportedSchema, schema)
	}
	if semver.Major(v) != SupportedSchemaMajor {
		return fmt.Errorf("%w: %s (supported: %s)", ErrUnsupportedSchema, schema, SupportedSchemaMajor)
	}
	return nil
}
