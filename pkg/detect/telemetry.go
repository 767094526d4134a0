package detect

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event types written by TelemetryWriter.
const (
	EventResult         = "result"
	EventInvalidVersion = "invalid_version"
)

// DetectionEvent is one telemetry line.
type DetectionEvent struct {
	ID          string    `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	Type        string    `json:"type"`
	Host        string    `json:"host"`
	Port        uint16    `json:"port"`
	Service     string    `json:"service"`
	Version     string    `json:"version,omitempty"`
	Description string    `json:"description,omitempty"`
	Value       string    `json:"value,omitempty"` // offending text for invalid_version
}

// TelemetryWriter appends detection events to a JSONL file. It implements Observer.
type TelemetryWriter struct {
	filePath string
	file     *os.File
	encoder  *json.Encoder
	mu       sync.Mutex
	enabled  bool
	now      func() time.Time
	lastErr  error
}

// NewTelemetryWriter opens filePath for appending.
// If filePath is empty, the writer is disabled.
func NewTelemetryWriter(filePath string) (*TelemetryWriter, error) {
	if filePath == "" {
		return &TelemetryWriter{enabled: false}, nil
	}

	file, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open telemetry file: %w", err)
	}

	return &TelemetryWriter{
		filePath: filePath,
		file:     file,
		encoder:  json.NewEncoder(file),
		enabled:  true,
		now:      time.Now,
	}, nil
}

// Write writes one event. Missing ID and timestamp are filled in.
func (w *TelemetryWriter) Write(event DetectionEvent) error {
	if !w.enabled {
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return fmt.Errorf("telemetry file %s is closed", w.filePath)
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = w.now()
	}
	if err := w.encoder.Encode(event); err != nil {
		return fmt.Errorf("failed to write telemetry event: %w", err)
	}
	return nil
}

// OnResult records an emitted result.
func (w *TelemetryWriter) OnResult(r Result) {
	w.record(w.Write(DetectionEvent{
		Type:        EventResult,
		Host:        r.Host,
		Port:        r.Port,
		Service:     r.Service,
		Version:     r.Version,
		Description: r.Description,
	}))
}

// OnInvalidVersion records version text that failed to parse.
func (w *TelemetryWriter) OnInvalidVersion(host string, port uint16, service, value string) {
	w.record(w.Write(DetectionEvent{
		Type:    EventInvalidVersion,
		Host:    host,
		Port:    port,
		Service: service,
		Value:   value,
	}))
}

// Err returns the last write error seen through the Observer methods.
func (w *TelemetryWriter) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastErr
}

func (w *TelemetryWriter) record(err error) {
	if err == nil {
		return
	}
	w.mu.Lock()
	w.lastErr = err
	w.mu.Unlock()
}

// Close closes the telemetry file.
func (w *TelemetryWriter) Close() error {
	if !w.enabled {
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return nil
	}
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("failed to close telemetry file: %w", err)
	}
	w.file = nil
	return nil
}

// IsEnabled returns true if telemetry is enabled.
func (w *TelemetryWriter) IsEnabled() bool {
	return w.enabled
}
