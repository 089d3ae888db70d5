package config

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the API server, the job worker and supporting services.
type Config struct {
	HTTPListenAddr string
	LogLevel       string
	DebugRoutes    bool

	TrustProxy         bool
	CookieSecure       bool
	CookieSameSite     http.SameSite
	SessionSecret      string
	SessionMaxAge      time.Duration
	CORSAllowedOrigins []string

	DBDriver   string
	DataDir    string
	SQLiteFile string
	MySQLDSN   string

	StartingCredits           int
	SubscriptionDays          int
	PriceImageBase            int
	PriceVideo10Base          int
	PriceVideo20Base          int
	PromoPriceOverrideEnabled bool
	MockSubscribeEnabled      bool

	GenerationProvider    string
	ReplicateAPIToken     string
	ReplicateBaseURL      string
	ReplicateImageVersion string
	ReplicateVideoVersion string
	ReplicatePollInterval time.Duration
	RequestTimeout        time.Duration
	WorkerInterval        time.Duration
	MockJobDuration       time.Duration
	MockAssetBaseURL      string

	StripeWebhookSecret string
	StripePricePlus     string
	StripePricePro      string

	RedisURL           string
	RateLimitPerMinute int

	AdminUsername string
	AdminPassword string

	TelegramBotToken    string
	TelegramAlertChatID int64

	S3Endpoint      string
	S3Region        string
	S3AccessKey     string
	S3SecretKey     string
	S3Bucket        string
	S3PublicBaseURL string
	S3UsePathStyle  bool
	S3Prefix        string
}

// S3Enabled reports whether generated assets should be mirrored to object storage.
func (c Config) S3Enabled() bool {
	return c.S3Bucket != ""
}

// TelegramEnabled reports whether ops notifications are configured.
func (c Config) TelegramEnabled() bool {
	return c.TelegramBotToken != "" && c.TelegramAlertChatID != 0
}

// Load reads configuration from environment variables, applying sane defaults.
func Load() (Config, error) {
	if err := loadEnvFile(); err != nil {
		return Config{}, err
	}

	const defaultReplicateBaseURL = "https://api.replicate.com"

	cfg := Config{
		HTTPListenAddr:            getEnv("HTTP_LISTEN_ADDR", ":8080"),
		LogLevel:                  getEnv("LOG_LEVEL", "info"),
		DebugRoutes:               getBool("DEBUG_ROUTES", false),
		TrustProxy:                getBool("TRUST_PROXY", false),
		CookieSecure:              getBool("COOKIE_SECURE", true),
		CookieSameSite:            parseSameSite(getEnv("COOKIE_SAMESITE", "lax")),
		SessionSecret:             os.Getenv("SESSION_SECRET"),
		SessionMaxAge:             24 * time.Hour * time.Duration(getInt("SESSION_MAX_AGE_DAYS", 30)),
		CORSAllowedOrigins:        splitList(getEnv("CORS_ALLOWED_ORIGINS", "")),
		DBDriver:                  strings.ToLower(getEnv("DB_DRIVER", "sqlite")),
		DataDir:                   getEnv("DATA_DIR", "data"),
		SQLiteFile:                getEnv("SQLITE_FILE", "futurepro.db"),
		MySQLDSN:                  os.Getenv("MYSQL_DSN"),
		StartingCredits:           getInt("STARTING_CREDITS", 100),
		SubscriptionDays:          getInt("SUBSCRIPTION_DAYS", 30),
		PriceImageBase:            getInt("PRICE_IMAGE_BASE", 20),
		PriceVideo10Base:          getInt("PRICE_VIDEO10_BASE", 90),
		PriceVideo20Base:          getInt("PRICE_VIDEO20_BASE", 150),
		PromoPriceOverrideEnabled: getBool("PROMO_PRICE_OVERRIDE_ENABLED", false),
		MockSubscribeEnabled:      getBool("MOCK_SUBSCRIBE_ENABLED", false),
		GenerationProvider:        strings.ToLower(getEnv("GENERATION_PROVIDER", "mock")),
		ReplicateAPIToken:         os.Getenv("REPLICATE_API_TOKEN"),
		ReplicateBaseURL:          normalizeBaseURL(getEnv("REPLICATE_BASE_URL", defaultReplicateBaseURL), defaultReplicateBaseURL),
		ReplicateImageVersion:     os.Getenv("REPLICATE_IMAGE_VERSION"),
		ReplicateVideoVersion:     os.Getenv("REPLICATE_VIDEO_VERSION"),
		ReplicatePollInterval:     time.Millisecond * time.Duration(getInt("REPLICATE_POLL_INTERVAL_MS", 2000)),
		RequestTimeout:            time.Second * time.Duration(getInt("HTTP_TIMEOUT_SECONDS", 60)),
		WorkerInterval:            time.Millisecond * time.Duration(getInt("WORKER_INTERVAL_MS", 2500)),
		MockJobDuration:           time.Millisecond * time.Duration(getInt("MOCK_JOB_DURATION_MS", 1500)),
		MockAssetBaseURL:          getEnv("MOCK_ASSET_BASE_URL", "https://cdn.example.com/demo"),
		StripeWebhookSecret:       os.Getenv("STRIPE_WEBHOOK_SECRET"),
		StripePricePlus:           os.Getenv("STRIPE_PRICE_PLUS"),
		StripePricePro:            os.Getenv("STRIPE_PRICE_PRO"),
		RedisURL:                  os.Getenv("REDIS_URL"),
		RateLimitPerMinute:        getInt("RATE_LIMIT_PER_MINUTE", 30),
		AdminUsername:             getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword:             getEnv("ADMIN_PASSWORD", "change-me"),
		TelegramBotToken:          os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramAlertChatID:       getInt64("TELEGRAM_ALERT_CHAT_ID", 0),
		S3Endpoint:                getEnv("S3_ENDPOINT", ""),
		S3Region:                  os.Getenv("S3_REGION"),
		S3AccessKey:               os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey:               os.Getenv("S3_SECRET_KEY"),
		S3Bucket:                  os.Getenv("S3_BUCKET"),
		S3PublicBaseURL:           os.Getenv("S3_PUBLIC_BASE_URL"),
		S3UsePathStyle:            getBool("S3_USE_PATH_STYLE", false),
		S3Prefix:                  getEnv("S3_PREFIX", "generated"),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every missing or inconsistent setting at once.
func (c Config) Validate() error {
	var missing []string
	if c.SessionSecret == "" {
		missing = append(missing, "SESSION_SECRET")
	}
	switch c.DBDriver {
	case "sqlite":
	case "mysql":
		if c.MySQLDSN == "" {
			missing = append(missing, "MYSQL_DSN")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER: %s", c.DBDriver)
	}
	switch c.GenerationProvider {
	case "mock":
	case "replicate":
		if c.ReplicateAPIToken == "" {
			missing = append(missing, "REPLICATE_API_TOKEN")
		}
		if c.ReplicateImageVersion == "" {
			missing = append(missing, "REPLICATE_IMAGE_VERSION")
		}
		if c.ReplicateVideoVersion == "" {
			missing = append(missing, "REPLICATE_VIDEO_VERSION")
		}
	default:
		return fmt.Errorf("unsupported GENERATION_PROVIDER: %s", c.GenerationProvider)
	}
	if c.S3Enabled() {
		if c.S3Region == "" {
			missing = append(missing, "S3_REGION")
		}
		if c.S3AccessKey == "" {
			missing = append(missing, "S3_ACCESS_KEY")
		}
		if c.S3SecretKey == "" {
			missing = append(missing, "S3_SECRET_KEY")
		}
		if c.S3PublicBaseURL == "" {
			missing = append(missing, "S3_PUBLIC_BASE_URL")
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %v", missing)
	}
	if c.WorkerInterval <= 0 {
		return fmt.Errorf("WORKER_INTERVAL_MS must be positive")
	}
	return nil
}

// SQLitePath returns the database file location inside the data directory.
func (c Config) SQLitePath() string {
	if filepath.IsAbs(c.SQLiteFile) {
		return c.SQLiteFile
	}
	return filepath.Join(c.DataDir, c.SQLiteFile)
}

// normalizeBaseURL makes sure the provider base URL carries a scheme and has no trailing slash.
func normalizeBaseURL(raw string, fallback string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return fallback
	}

	if parsed.Scheme == "" {
		parsed.Scheme = "https"
	}
	if parsed.Host == "" {
		parsed.Host = parsed.Path
		parsed.Path = ""
	}

	return strings.TrimRight(parsed.String(), "/")
}

func parseSameSite(v string) http.SameSite {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}

func getInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return i
}

func getBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

// loadEnvFile overlays the first env file found. Hosted deployments usually inject
// variables directly, so a missing file is not an error.
func loadEnvFile() error {
	candidates := []string{}
	if custom, ok := os.LookupEnv("CONFIG_ENV_PATH"); ok && custom != "" {
		candidates = append(candidates, custom)
	}
	candidates = append(candidates,
		filepath.Join("configs", ".env"),
		".env",
	)

	for _, path := range candidates {
		info, err := os.Stat(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("access env file %s: %w", path, err)
		}
		if info.IsDir() {
			continue
		}
		if err := godotenv.Overload(path); err != nil {
			return fmt.Errorf("load env file %s: %w", path, err)
		}
		return nil
	}
	return nil
}
