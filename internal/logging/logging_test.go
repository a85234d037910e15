package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLevels(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "warn", false)
	assert.Equal(t, zerolog.WarnLevel, l.GetLevel())

	l.Info().Msg("dropped")
	assert.Zero(t, buf.Len())

	l.Warn().Str("k", "v").Msg("kept")
	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "kept", rec["message"])
	assert.Equal(t, "v", rec["k"])
	assert.Contains(t, rec, "time")

	assert.Equal(t, zerolog.InfoLevel, New(&buf, "loud", false).GetLevel())
	assert.Equal(t, zerolog.InfoLevel, New(&buf, "", false).GetLevel())
	assert.Equal(t, zerolog.DebugLevel, New(&buf, " DEBUG ", false).GetLevel())
}

func TestNewPretty(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "info", true)
	l.Info().Msg("hello")
	assert.Contains(t, buf.String(), "hello")
	assert.False(t, json.Valid(buf.Bytes()))
}

func TestCronLogger(t *testing.T) {
	var buf bytes.Buffer
	var cl cron.Logger = CronLogger{L: New(&buf, "debug", false)}

	cl.Error(errors.New("boom"), "job failed", "entry", 3)
	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "error", rec["level"])
	assert.Equal(t, "boom", rec["error"])
	assert.Equal(t, float64(3), rec["entry"])
}

func TestAsynqLogger(t *testing.T) {
	var buf bytes.Buffer
	var al asynq.Logger = AsynqLogger{L: New(&buf, "info", false)}

	al.Debug("hidden")
	assert.Zero(t, buf.Len())

	al.Warn("queue ", "warm", " paused")
	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "warn", rec["level"])
	assert.Equal(t, "queue warm paused", rec["message"])
}
