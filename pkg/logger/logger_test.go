package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureEntry(t *testing.T, buf *bytes.Buffer) LogEntry {
	t.Helper()
	var entry LogEntry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Output: &buf, Level: LevelWarn})

	log.Info("hidden")
	assert.Empty(t, buf.String())

	log.Warn("visible")
	assert.Contains(t, buf.String(), "visible")
}

func TestLogger_WithFieldsPropagate(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Output: &buf, Level: LevelDebug}).With(Component("query.progress"))

	log.Info("cache miss", StudentID("s-1"))

	entry := captureEntry(t, &buf)
	assert.Equal(t, "query.progress", entry.Fields["component"])
	assert.Equal(t, "s-1", entry.Fields["student_id"])
}

func TestLogger_DomainFieldHelpers(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Output: &buf, Level: LevelDebug})

	log.Info("request served",
		Operation("GetStudentStats"),
		Latency(1500*time.Millisecond),
		Accuracy(0.75),
		Err(errors.New("partial")),
	)

	entry := captureEntry(t, &buf)
	assert.Equal(t, "GetStudentStats", entry.Fields["operation"])
	assert.Equal(t, "1.5s", entry.Fields["latency"])
	assert.InDelta(t, 0.75, entry.Fields["accuracy"].(float64), 1e-9)
	assert.Equal(t, "partial", entry.Fields["error"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelWarn, ParseLevel("WARNING"))
	assert.Equal(t, LevelInfo, ParseLevel("nonsense"))
}
