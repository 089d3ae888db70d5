package config

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_ENV_PATH", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("SESSION_SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "mock", cfg.GenerationProvider)
	assert.Equal(t, 100, cfg.StartingCredits)
	assert.Equal(t, 30, cfg.SubscriptionDays)
	assert.Equal(t, 20, cfg.PriceImageBase)
	assert.Equal(t, 90, cfg.PriceVideo10Base)
	assert.Equal(t, 150, cfg.PriceVideo20Base)
	assert.False(t, cfg.PromoPriceOverrideEnabled)
	assert.True(t, cfg.CookieSecure)
	assert.Equal(t, http.SameSiteLaxMode, cfg.CookieSameSite)
	assert.Equal(t, 30*24*time.Hour, cfg.SessionMaxAge)
	assert.Equal(t, 2500*time.Millisecond, cfg.WorkerInterval)
	assert.Equal(t, "https://api.replicate.com", cfg.ReplicateBaseURL)
	assert.False(t, cfg.S3Enabled())
	assert.False(t, cfg.TelegramEnabled())
}

func TestLoad_EnvFileOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	content := "SESSION_SECRET=from-file\nSTARTING_CREDITS=7\nCOOKIE_SAMESITE=none\nCORS_ALLOWED_ORIGINS=https://a.example, https://b.example\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("CONFIG_ENV_PATH", path)
	t.Setenv("SESSION_SECRET", "")
	t.Setenv("STARTING_CREDITS", "")
	t.Setenv("COOKIE_SAMESITE", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "from-file", cfg.SessionSecret)
	assert.Equal(t, 7, cfg.StartingCredits)
	assert.Equal(t, http.SameSiteNoneMode, cfg.CookieSameSite)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
}

func TestValidate_ReportsMissing(t *testing.T) {
	cfg := Config{
		DBDriver:           "mysql",
		GenerationProvider: "replicate",
		WorkerInterval:     time.Second,
		S3Bucket:           "assets",
	}

	err := cfg.Validate()
	require.Error(t, err)
	for _, key := range []string{"SESSION_SECRET", "MYSQL_DSN", "REPLICATE_API_TOKEN", "S3_REGION", "S3_PUBLIC_BASE_URL"} {
		assert.Contains(t, err.Error(), key)
	}
}

func TestValidate_UnsupportedDriver(t *testing.T) {
	cfg := Config{SessionSecret: "x", DBDriver: "postgres", GenerationProvider: "mock", WorkerInterval: time.Second}
	assert.EqualError(t, cfg.Validate(), "unsupported DB_DRIVER: postgres")
}

func TestNormalizeBaseURL(t *testing.T) {
	fallback := "https://api.replicate.com"
	assert.Equal(t, fallback, normalizeBaseURL("", fallback))
	assert.Equal(t, "https://proxy.internal", normalizeBaseURL("proxy.internal", fallback))
	assert.Equal(t, "http://localhost:9000", normalizeBaseURL("http://localhost:9000/", fallback))
}

func TestSQLitePath(t *testing.T) {
	cfg := Config{DataDir: "/var/lib/futurepro", SQLiteFile: "app.db"}
	assert.Equal(t, filepath.Join("/var/lib/futurepro", "app.db"), cfg.SQLitePath())

	cfg.SQLiteFile = "/tmp/other.db"
	assert.Equal(t, "/tmp/other.db", cfg.SQLitePath())
}
