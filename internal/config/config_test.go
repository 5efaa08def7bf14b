package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("ADMIN_ID", "42")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)
	for _, key := range []string{"DEBUG", "LOG_LEVEL", "DATA_DIR", "DB_DSN", "ESPN_BASE_URL", "BROADCAST_WORKERS", "BROADCAST_RATE",
		"SNAPSHOT_BUCKET", "SNAPSHOT_KEY", "SNAPSHOT_ACCESS_KEY", "SNAPSHOT_SECRET_KEY"} {
		t.Setenv(key, "")
	}

	set, err := Load()
	require.NoError(t, err)
	assert.Equal(t, int64(42), set.AdminID)
	assert.False(t, set.Debug)
	assert.Equal(t, "info", set.LogLevel)
	assert.Equal(t, defaultESPNBaseURL, set.ESPNBaseURL)
	assert.Equal(t, 4, set.BroadcastWorkers)
	assert.Equal(t, float64(25), set.BroadcastRate)
	assert.False(t, set.Snapshot.UseS3())
	assert.Equal(t, "current_tournament.json", set.Snapshot.Key)
	assert.Equal(t, filepath.Join("data", "ufc_bot.db"), set.SQLitePath())
	assert.Equal(t, filepath.Join("data", "current_tournament.json"), set.SnapshotPath())
}

func TestLoadDebugUsesTestDatabase(t *testing.T) {
	setRequired(t)
	t.Setenv("DEBUG", "true")
	t.Setenv("DATA_DIR", "/var/lib/ppv")

	set, err := Load()
	require.NoError(t, err)
	assert.True(t, set.Debug)
	assert.Equal(t, filepath.Join("/var/lib/ppv", "ufc_bot_test.db"), set.SQLitePath())
}

func TestLoadRejectsBadInput(t *testing.T) {
	cases := map[string]map[string]string{
		"missing token":     {"BOT_TOKEN": ""},
		"missing admin":     {"ADMIN_ID": ""},
		"non-numeric admin": {"ADMIN_ID": "boss"},
		"zero workers":      {"BROADCAST_WORKERS": "0"},
		"negative rate":     {"BROADCAST_RATE": "-1"},
		"half credentials":  {"SNAPSHOT_ACCESS_KEY": "key", "SNAPSHOT_SECRET_KEY": ""},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			setRequired(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadS3Snapshot(t *testing.T) {
	setRequired(t)
	t.Setenv("SNAPSHOT_BUCKET", "ppv-state")
	t.Setenv("SNAPSHOT_ACCESS_KEY", "key")
	t.Setenv("SNAPSHOT_SECRET_KEY", "secret")

	set, err := Load()
	require.NoError(t, err)
	assert.True(t, set.Snapshot.UseS3())
	assert.Equal(t, "ppv-state", set.Snapshot.Bucket)
}

func TestLoggerWritesStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "warn")

	logger.Info("confirm", "tournament", "600041", 42, "ok")
	assert.Zero(t, buf.Len(), "info is below the configured level")

	logger.Error(errors.New("boom"), "save", "tournament", "600041", 42)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "save", entry["action"])
	assert.Equal(t, "tournament", entry["entity"])
	assert.Equal(t, "600041", entry["entity_id"])
	assert.Equal(t, float64(42), entry["user_id"])
	assert.Equal(t, "boom", entry["error"])
	assert.Equal(t, "error", entry["level"])
}
