package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolateEnv(t *testing.T) {
	t.Helper()
	// Point at a file that does not exist so a developer's .env is ignored.
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
}

func TestLoad_Defaults(t *testing.T) {
	isolateEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 8501, cfg.Server.Port)
	assert.Equal(t, "data/Sample-Superstore.csv", cfg.Dataset.Path)
	assert.False(t, cfg.Dataset.StrictDates)
	assert.Equal(t, 30*time.Second, cfg.Dataset.LoadTimeout)
	assert.Equal(t, 5, cfg.Report.TopN)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "json", cfg.Logger.Format)
	assert.Equal(t, "localhost:8501", cfg.Address())
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	isolateEnv(t)
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("DATASET_PATH", "/tmp/orders.csv")
	t.Setenv("DATASET_STRICT_DATES", "true")
	t.Setenv("REPORT_TOP_N", "10")
	t.Setenv("SECURITY_ALLOWED_ORIGINS", "http://a.example, http://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "/tmp/orders.csv", cfg.Dataset.Path)
	assert.True(t, cfg.Dataset.StrictDates)
	assert.Equal(t, 10, cfg.Report.TopN)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.Security.AllowedOrigins)
}

func TestLoad_DotEnvFile(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("DATASET_PATH=from-dotenv.csv\nLOG_LEVEL=debug\n"), 0o600))
	t.Setenv("ENV_FILE", envFile)
	// godotenv does not override variables that are already present.
	t.Setenv("LOG_LEVEL", "warn")
	t.Cleanup(func() { os.Unsetenv("DATASET_PATH") })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "from-dotenv.csv", cfg.Dataset.Path)
	assert.Equal(t, "warn", cfg.Logger.Level)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"port out of range", "SERVER_PORT", "70000"},
		{"bad log level", "LOG_LEVEL", "verbose"},
		{"bad log format", "LOG_FORMAT", "xml"},
		{"top n zero", "REPORT_TOP_N", "0"},
		{"negative rps", "SECURITY_RATE_LIMIT_RPS", "-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolateEnv(t)
			t.Setenv(tt.key, tt.val)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}
