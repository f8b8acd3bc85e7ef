package logger_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/cooper/infrastructure/logger"
)

func TestFromContext_ReturnsStoredLogger(t *testing.T) {
	t.Parallel()

	base := newFileLogger(t, filepath.Join(t.TempDir(), "run.log"))
	runLogger := base.With(logger.String("run_id", "abc-123"))

	ctx := logger.WithContext(context.Background(), runLogger)

	assert.Same(t, runLogger, logger.FromContext(ctx))
}

func TestFromContext_FallbackIsSingleton(t *testing.T) {
	t.Parallel()

	a := logger.FromContext(context.Background())
	b := logger.FromContext(context.Background())

	require.NotNil(t, a)
	assert.Same(t, a, b)

	a.Warn("fallback usable", logger.String("key", "value"))
}

func TestNew_WritesJSONWithFields(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out.log")
	l := newFileLogger(t, path)

	l.Info("stage finished", logger.String("stage", "scrape"), logger.Int("videos", 2))
	require.NoError(t, l.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"stage finished"`)
	assert.Contains(t, string(data), `"stage":"scrape"`)
	assert.Contains(t, string(data), `"videos":2`)
}

func TestNew_LevelFiltersDebug(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out.log")
	l := newFileLogger(t, path)

	l.Debug("hidden")
	require.NoError(t, l.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hidden")
}

func TestConfig_SetDefaults(t *testing.T) {
	t.Parallel()

	var cfg logger.Config
	cfg.SetDefaults()

	assert.Equal(t, logger.DefaultLevel, cfg.Level)
	assert.Equal(t, logger.FormatJSON, cfg.Format)
	assert.Equal(t, []string{"stderr"}, cfg.OutputPaths)
}

func newFileLogger(t *testing.T, path string) logger.Logger {
	t.Helper()

	l, err := logger.New(logger.Config{Level: "info", OutputPaths: []string{path}})
	require.NoError(t, err)
	return l
}
