package detect

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vulntor/lac/pkg/signature"
)

func readEvents(t *testing.T, path string) []DetectionEvent {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var events []DetectionEvent
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var ev DetectionEvent
		require.NoError(t, json.Unmarshal(sc.Bytes(), &ev))
		events = append(events, ev)
	}
	require.NoError(t, sc.Err())
	return events
}

func TestTelemetryWriter_Disabled(t *testing.T) {
	w, err := NewTelemetryWriter("")
	require.NoError(t, err)
	assert.False(t, w.IsEnabled())
	assert.NoError(t, w.Write(DetectionEvent{}))
	w.OnResult(Result{Service: "x"})
	assert.NoError(t, w.Err())
	assert.NoError(t, w.Close())
}

func TestTelemetryWriter_RecordsDetections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	w, err := NewTelemetryWriter(path)
	require.NoError(t, err)

	d, err := New(signature.NewCatalog(
		semverDef("S", "S/", true, "1.0.0", "1.9.9", "legacy"),
		semverDef("Bad", "Bad/", false, "1.0.0", "1.9.9", "legacy"),
	), WithLogger(zerolog.Nop()), WithObserver(w))
	require.NoError(t, err)

	d.DetectString("h", 7, `S/1.2" Bad/zzz"`)
	require.NoError(t, w.Close())
	require.NoError(t, w.Err())

	events := readEvents(t, path)
	require.Len(t, events, 3)

	assert.Equal(t, EventResult, events[0].Type)
	assert.Equal(t, "S", events[0].Service)
	assert.Empty(t, events[0].Version)

	assert.Equal(t, EventResult, events[1].Type)
	assert.Equal(t, "1.2.0", events[1].Version)
	assert.Equal(t, "legacy", events[1].Description)

	assert.Equal(t, EventInvalidVersion, events[2].Type)
	assert.Equal(t, "Bad", events[2].Service)
	assert.Equal(t, "zzz.0.0", events[2].Value)
	assert.Equal(t, uint16(7), events[2].Port)

	for _, ev := range events {
		_, err := uuid.Parse(ev.ID)
		assert.NoError(t, err)
		assert.False(t, ev.Timestamp.IsZero())
	}
}

func TestTelemetryWriter_WriteAfterClose(t *testing.T) {
	w, err := NewTelemetryWriter(filepath.Join(t.TempDir(), "events.jsonl"))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	assert.Error(t, w.Write(DetectionEvent{Type: EventResult}))
	w.OnResult(Result{Service: "late"})
	assert.Error(t, w.Err())
}

func TestNewTelemetryWriter_BadPath(t *testing.T) {
	_, err := NewTelemetryWriter(filepath.Join(t.TempDir(), "missing", "dir", "events.jsonl"))
	assert.Error(t, err)
}
