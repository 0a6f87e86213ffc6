package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Supported catalog store drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMongo    = "mongo"
)

// Config holds every setting the service reads from the environment
type Config struct {
	Port        int
	BindAddress string
	BaseDir     string
	Debug       bool

	LogLevel  string
	LogFormat string

	StoreDriver      string
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	SQLitePath       string
	MongoURI         string
	MongoDatabase    string

	RedisURL      string
	SecretKey     string
	SessionCookie string

	UploadFolder string
	UploadLevel  int

	NatsURL     string
	NatsSubject string

	AllowedOrigins []string

	BootstrapAdmin      string
	BootstrapAdminLevel int

	StagingSweepInterval time.Duration
	StagingMaxAge        time.Duration

	Limits UploadLimits
}

// Load reads the optional .env file and builds the configuration from the environment.
// Variables already present in the environment win over the .env file.
func Load() (*Config, error) {
	// A missing .env is fine, the environment may be provided by the container
	_ = godotenv.Load()

	cfg := &Config{
		Port:        envInt("PORT", 34801),
		BindAddress: envString("BIND_ADDRESS", "localhost"),
		BaseDir:     normalizeBaseDir(envString("BASEDIR", "/")),
		Debug:       envBool("DEBUG", false),

		LogLevel:  envString("LOG_LEVEL", "info"),
		LogFormat: envString("LOG_FORMAT", "json"),

		StoreDriver:      strings.ToLower(envString("STORE_DRIVER", DriverPostgres)),
		PostgresHost:     envString("POSTGRES_HOST", "localhost"),
		PostgresPort:     envString("POSTGRES_PORT", "5432"),
		PostgresUser:     envString("POSTGRES_USER", "postgres"),
		PostgresPassword: envString("POSTGRES_PASSWORD", ""),
		PostgresDB:       envString("POSTGRES_DB", "taiko"),
		SQLitePath:       envString("SQLITE_PATH", "taiko.db"),
		MongoURI:         firstNonEmpty(os.Getenv("TAIKO_WEB_MONGO_HOST"), os.Getenv("MONGODB_URI"), "mongodb://localhost:27017"),
		MongoDatabase:    envString("MONGO_DATABASE", "taiko"),

		RedisURL:      redisURL(),
		SecretKey:     envString("SECRET_KEY", "change-me"),
		SessionCookie: envString("SESSION_COOKIE", "session"),

		UploadFolder: envString("UPLOAD_FOLDER", "uploads"),
		UploadLevel:  envInt("UPLOAD_LEVEL", 50),

		NatsURL:     envString("NATS_URL", ""),
		NatsSubject: envString("NATS_SUBJECT", "taiko.songs.ingested"),

		AllowedOrigins: envList("ALLOWED_ORIGINS"),

		BootstrapAdmin:      envString("BOOTSTRAP_ADMIN", ""),
		BootstrapAdminLevel: envInt("BOOTSTRAP_ADMIN_LEVEL", 100),

		StagingSweepInterval: envDuration("STAGING_SWEEP_INTERVAL", 30*time.Minute),
		StagingMaxAge:        envDuration("STAGING_MAX_AGE", 6*time.Hour),

		Limits: LoadUploadLimits(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values that cannot be defaulted safely
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case DriverPostgres, DriverSQLite, DriverMongo:
	default:
		return fmt.Errorf("unsupported STORE_DRIVER %q", c.StoreDriver)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.Port)
	}
	if strings.TrimSpace(c.UploadFolder) == "" {
		return fmt.Errorf("UPLOAD_FOLDER must not be empty")
	}
	if c.UploadLevel < 0 {
		return fmt.Errorf("UPLOAD_LEVEL must be positive")
	}
	return c.Limits.Validate()
}

// PostgresDSN builds the gorm postgres connection string
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s dbname=%s password=%s sslmode=disable",
		c.PostgresHost, c.PostgresPort, c.PostgresUser, c.PostgresDB, c.PostgresPassword)
}

// Route joins the base directory and a relative route, "admin/songs" -> "/admin/songs"
func (c *Config) Route(path string) string {
	return c.BaseDir + strings.TrimPrefix(path, "/")
}

// redisURL honours the TAIKO_WEB_REDIS_HOST override used by the container images
func redisURL() string {
	if host := strings.TrimSpace(os.Getenv("TAIKO_WEB_REDIS_HOST")); host != "" {
		return "redis://" + host + ":6379/0"
	}
	return envString("REDIS_URL", "redis://localhost:6379/0")
}

func normalizeBaseDir(dir string) string {
	dir = strings.TrimSpace(dir)
	if !strings.HasPrefix(dir, "/") {
		dir = "/" + dir
	}
	if !strings.HasSuffix(dir, "/") {
		dir += "/"
	}
	return dir
}

func envString(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}

func envList(key string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
