package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "inkwell.db", cfg.DatabaseName)
	assert.Equal(t, 200, cfg.CheckpointStride)
	assert.Equal(t, 2*time.Second, cfg.CheckpointInterval)
	assert.Equal(t, 100, cfg.UndoDepth)
	assert.Equal(t, int64(0xFFFFFFFF), cfg.BackgroundColor)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.NotEmpty(t, cfg.DataDir)
}

func TestLoad_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inkwell.yaml")
	yaml := `
data_dir: /tmp/notes
database_name: custom.db
checkpoint_stride: 50
undo_depth: 10
log_level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/notes", cfg.DataDir)
	assert.Equal(t, "custom.db", cfg.DatabaseName)
	assert.Equal(t, 50, cfg.CheckpointStride)
	assert.Equal(t, 10, cfg.UndoDepth)
	assert.Equal(t, "debug", cfg.LogLevel)
	// Untouched fields keep their defaults.
	assert.Equal(t, 2*time.Second, cfg.CheckpointInterval)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inkwell.yaml")
	require.NoError(t, os.WriteFile(path, []byte("checkpoint_stride: 50\nundo_depth: 10\n"), 0o600))

	t.Setenv("INKWELL_CHECKPOINT_STRIDE", "75")
	t.Setenv("INKWELL_LOG_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 75, cfg.CheckpointStride)
	assert.Equal(t, 10, cfg.UndoDepth)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoad_BackgroundColorFormats(t *testing.T) {
	t.Setenv("INKWELL_BACKGROUND_COLOR", "0xFF000000")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, int64(0xFF000000), cfg.BackgroundColor)

	t.Setenv("INKWELL_BACKGROUND_COLOR", "255")
	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, int64(255), cfg.BackgroundColor)

	t.Setenv("INKWELL_BACKGROUND_COLOR", "not a color")
	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, int64(0xFFFFFFFF), cfg.BackgroundColor)
}

func TestValidate_CollectsAllProblems(t *testing.T) {
	cfg := Default()
	cfg.DataDir = ""
	cfg.CheckpointStride = 0
	cfg.UndoDepth = -1
	cfg.LogLevel = "loud"

	err := cfg.Validate()
	require.Error(t, err)

	verr, ok := err.(*ValidationError)
	require.True(t, ok)
	assert.Len(t, verr.Errors, 4)
	assert.Contains(t, err.Error(), "data_dir")
	assert.Contains(t, err.Error(), "checkpoint_stride")
	assert.Contains(t, err.Error(), "undo_depth")
	assert.Contains(t, err.Error(), "log_level")
}

func TestLoad_UnreadableFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("data_dir: [unclosed"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
}

func TestDatabasePath(t *testing.T) {
	cfg := &Config{DataDir: "/data/notes/", DatabaseName: "inkwell.db"}
	assert.Equal(t, "/data/notes/inkwell.db", cfg.DatabasePath())
}
