package config

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/themebuilder/internal/foundation/errors"
)

func TestDefault(t *testing.T) {
	want := &Config{
		ThemeRoot:  DefaultThemeRoot,
		LiveReload: LiveReloadConfig{Port: DefaultLiveReloadPort},
		Metrics:    MetricsConfig{Path: "/metrics"},
		Logging:    LoggingConfig{Level: LogLevelInfo, Format: LogFormatText},
	}
	if diff := cmp.Diff(want, Default()); diff != "" {
		t.Fatalf("Default() mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, ":35729", Default().LiveReload.Addr())
}

func TestLoad_EmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultThemeRoot, cfg.ThemeRoot)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "themebuilder.yaml")
	content := "theme_root: ./web/theme\n" +
		"livereload:\n" +
		"  host: 127.0.0.1\n" +
		"  port: 35800\n" +
		"metrics:\n" +
		"  enabled: true\n" +
		"logging:\n" +
		"  level: DEBUG\n" +
		"  format: json\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "./web/theme", cfg.ThemeRoot)
	assert.Equal(t, "127.0.0.1:35800", cfg.LiveReload.Addr())
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
	assert.Equal(t, LogLevelDebug, cfg.Logging.Level)
	assert.Equal(t, LogFormatJSON, cfg.Logging.Format)
}

func TestParse_Errors(t *testing.T) {
	cases := map[string]struct {
		yaml     string
		category ferrors.ErrorCategory
	}{
		"unknown key":           {"theme_rot: x\n", ferrors.CategoryConfig},
		"bad port":              {"livereload:\n  port: 70000\n", ferrors.CategoryValidation},
		"bad metrics":           {"metrics:\n  path: metrics\n", ferrors.CategoryValidation},
		"reserved metrics path": {"metrics:\n  enabled: true\n  path: /changed\n", ferrors.CategoryValidation},
		"root metrics path":     {"metrics:\n  path: /\n", ferrors.CategoryValidation},
		"wildcard metrics path": {"metrics:\n  path: /m/{x}\n", ferrors.CategoryValidation},
		"bad log level":         {"logging:\n  level: trace\n", ferrors.CategoryValidation},
		"bad log format":        {"logging:\n  format: xml\n", ferrors.CategoryValidation},
		"malformed yaml":        {"livereload: [\n", ferrors.CategoryConfig},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(tc.yaml))
			require.Error(t, err)
			assert.True(t, ferrors.HasCategory(err, tc.category), "got %v", err)
		})
	}
}

func TestParse_EmptyDocument(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "themebuilder.yaml")
	require.NoError(t, Init(path, false))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	err = Init(path, false)
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))

	require.NoError(t, Init(path, true))
}

func TestLoggingConfig_NewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := LoggingConfig{Level: LogLevelWarn, Format: LogFormatJSON}.NewLogger(&buf, false)
	logger.Info("hidden")
	logger.Warn("shown", "task", "sass")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "shown", rec["msg"])
	assert.Equal(t, "sass", rec["task"])

	buf.Reset()
	verbose := LoggingConfig{Level: LogLevelError, Format: LogFormatText}.NewLogger(&buf, true)
	assert.True(t, verbose.Enabled(t.Context(), slog.LevelDebug))
}

func TestNormalizers(t *testing.T) {
	assert.Equal(t, LogLevelWarn, NormalizeLogLevel("Warning"))
	assert.Equal(t, LogLevelInfo, NormalizeLogLevel("bogus"))
	assert.Equal(t, LogFormatJSON, NormalizeLogFormat(" JSON "))
	assert.Equal(t, slog.LevelError, LogLevelError.SlogLevel())
}
