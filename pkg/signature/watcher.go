// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package signature

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Watcher reloads a catalog file into a Holder whenever the file changes.
// A reload that fails to load or validate is logged and the previous
// catalog stays active.
type Watcher struct {
	path    string
	holder  *Holder
	watcher *fsnotify.Watcher

	// debounceDelay coalesces bursts of writes into one reload
	debounceDelay time.Duration
	logger        zerolog.Logger

	mu            sync.Mutex
	debounceTimer *time.Timer
	onReload      func(*Catalog, error)
}

// NewWatcher creates a watcher for the catalog file at path.
func NewWatcher(path string, holder *Holder, logger zerolog.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		path:          path,
		holder:        holder,
		watcher:       fw,
		debounceDelay: 100 * time.Millisecond,
		logger:        logger.With().Str("component", "catalog.watcher").Logger(),
	}, nil
}

// OnReload registers a callback invoked after every reload attempt.
func (w *Watcher) OnReload(fn func(*Catalog, error)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onReload = fn
}

// Start blocks until ctx is canceled. Run it in its own goroutine.
func (w *Watcher) Start(ctx context.Context) error {
	// fsnotify watches directories; editors often replace files instead of writing in place
	dir := filepath.Dir(w.path)
	name := filepath.Base(w.path)

	defer func() {
		w.mu.Lock()
		if w.debounceTimer != nil {
			w.debounceTimer.Stop()
		}
		w.mu.Unlock()
		if err := w.watcher.Close(); err != nil {
			w.logger.Warn().Err(err).Msg("Error closing watcher")
		}
		w.logger.Info().Msg("Stopped watching catalog file")
	}()

	if err := w.watcher.Add(dir); err != nil {
		w.logger.Error().Err(err).Str("dir", dir).Msg("Failed to watch catalog directory")
		return err
	}

	w.logger.Info().
		Str("file", w.path).
		Dur("debounce", w.debounceDelay).
		Msg("Started watching catalog file")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				w.logger.Debug().Str("op", event.Op.String()).Str("file", event.Name).Msg("Detected catalog change")
				w.scheduleReload()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn().Err(err).Msg("File watcher error")
		}
	}
}

func (w *Watcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.debounceDelay, w.reload)
}

func (w *Watcher) reload() {
	catalog, err := LoadFile(w.path)
	if err != nil {
		w.logger.Error().Err(err).Str("file", w.path).Msg("Catalog reload failed; keeping previous catalog")
	} else {
		w.holder.Swap(catalog)
		w.logger.Info().Int("definitions", catalog.Len()).Msg("Catalog reloaded")
	}

	w.mu.Lock()
	fn := w.onReload
	w.mu.Unlock()
	if fn != nil {
		fn(catalog, err)
	}
}

// Close releases the file watcher. Start returns once its event channels close.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
