package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel(" WARNING "))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestParseFormat(t *testing.T) {
	assert.Equal(t, FormatText, ParseFormat("TEXT"))
	assert.Equal(t, FormatJSON, ParseFormat("json"))
	assert.Equal(t, FormatJSON, ParseFormat(""))
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Output: &buf, Level: slog.LevelInfo, Format: FormatJSON, Service: "engagement"})

	l.Debug("hidden")
	l.Info("streak updated", UserID("u1"), Streak(3), Err(errors.New("boom")))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "streak updated", entry["msg"])
	assert.Equal(t, "engagement", entry["service"])
	assert.Equal(t, "u1", entry["user_id"])
	assert.Equal(t, float64(3), entry["streak"])
	assert.Equal(t, "boom", entry["error"])
}

func TestNew_Text(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Output: &buf, Level: slog.LevelDebug, Format: FormatText})

	l.Debug("badge earned", BadgeName("Expert"))

	assert.Contains(t, buf.String(), "badge=Expert")
	assert.Contains(t, buf.String(), "level=DEBUG")
}

func TestOrDefault(t *testing.T) {
	l := Discard()
	assert.Same(t, l, OrDefault(l))
	assert.Same(t, slog.Default(), OrDefault(nil))
}
