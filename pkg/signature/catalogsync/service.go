// Package catalogsync fetches signature catalogs from a file or URL, validates them
// and stores them in the local cache.
package catalogsync

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/vulntor/lac/pkg/signature"
)

// CacheFileName is the catalog file kept inside the cache directory.
const CacheFileName = "definitions.yaml"

// Source loads the raw catalog bytes from a backing store.
type Source interface {
	Load(ctx context.Context) ([]byte, error)
	// Format reports how the bytes are encoded.
	Format() signature.Format
}

// Store persists the catalog bytes to a destination (e.g., workspace cache).
type Store interface {
	Save(ctx context.Context, data []byte) error
}

// Service orchestrates catalog synchronization.
type Service struct {
	Source Source
	Store  Store
	// Checksum, when set, must match the fetched bytes ("sha256:<hex>" or bare hex).
	Checksum string
}

// Sync fetches the catalog from Source, validates it and writes it using Store.
// Nothing is written when validation fails.
func (s Service) Sync(ctx context.Context) (*signature.Catalog, error) {
	if s.Source == nil {
		return nil, errors.New("catalog source is not configured")
	}
	if s.Store == nil {
		return nil, errors.New("catalog store is not configured")
	}

	data, err := s.Source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	if s.Checksum != "" {
		if err := VerifyChecksum(data, s.Checksum); err != nil {
			return nil, err
		}
	}

	catalog, err := signature.Parse(data, s.Source.Format())
	if err != nil {
		return nil, fmt.Errorf("validate catalog: %w", err)
	}

	// stored verbatim; the YAML decoder reading the cache also accepts JSON
	if err := s.Store.Save(ctx, data); err != nil {
		return nil, fmt.Errorf("save catalog: %w", err)
	}

	return catalog, nil
}

// CachePath returns the catalog location inside cacheDir.
func CachePath(cacheDir string) string {
	return filepath.Join(cacheDir, CacheFileName)
}

// FileSource loads the catalog from a local file path.
type FileSource struct {
	Path string
}

func (f FileSource) Load(_ context.Context) ([]byte, error) {
	if f.Path == "" {
		return nil, errors.New("file path is empty")
	}
	return os.ReadFile(f.Path)
}

func (f FileSource) Format() signature.Format {
	format, err := signature.FormatFromPath(f.Path)
	if err != nil {
		return signature.FormatYAML
	}
	return format
}

// HTTPSource downloads the catalog from a URL using the provided http.Client (or default).
type HTTPSource struct {
	URL    string
	Client *http.Client
	// Retry applies to transient failures; the zero value tries once.
	Retry RetryPolicy
}

func (h HTTPSource) Load(ctx context.Context) ([]byte, error) {
	if h.URL == "" {
		return nil, errors.New("url is empty")
	}
	client := h.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	var data []byte
	err := withRetry(ctx, h.Retry, func(ctx context.Context) error {
		var err error
		data, err = h.fetch(ctx, client)
		return err
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (h HTTPSource) fetch(ctx context.Context, client *http.Client) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch catalog: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read catalog body: %w", err)
	}
	return data, nil
}

// Format guesses the encoding from the URL path, defaulting to YAML.
func (h HTTPSource) Format() signature.Format {
	format, err := signature.FormatFromPath(h.URL)
	if err != nil {
		return signature.FormatYAML
	}
	return format
}

// FileStore writes the catalog bytes to a path on disk. Concurrent writers
// (several lac processes sharing one workspace) serialize on a lock file.
type FileStore struct {
	Path string
	// LockTimeout bounds the wait for the lock; zero means 10s.
	LockTimeout time.Duration
}

func (f FileStore) Save(ctx context.Context, data []byte) error {
	if f.Path == "" {
		return errors.New("file store path is empty")
	}
	dir := filepath.Dir(f.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create catalog directory: %w", err)
	}

	timeout := f.LockTimeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	lockCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	lock := flock.New(f.Path + ".lock")
	locked, err := lock.TryLockContext(lockCtx, 50*time.Millisecond)
	if err != nil {
		return fmt.Errorf("lock catalog cache: %w", err)
	}
	if !locked {
		return errors.New("lock catalog cache: not acquired")
	}
	defer func() { _ = lock.Unlock() }()

	tmp, err := os.CreateTemp(dir, ".definitions-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, f.Path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace catalog: %w", err)
	}
	return nil
}
