package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendLocal    = "local"
	BackendSupabase = "supabase"
	BackendS3       = "s3"
)

type Config struct {
	// Upstream image API
	APIKey          string
	UpstreamBaseURL string
	UpstreamTimeout time.Duration

	// Auth
	JWTSecret string

	// Database
	DatabaseURL string

	// Artifacts
	GeneratedDir    string
	ArtifactBackend string

	// Supabase Storage
	SupabaseURL           string
	SupabaseServiceKey    string
	SupabaseStorageBucket string

	// S3 / MinIO
	S3Endpoint  string
	S3Region    string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3UseSSL    bool

	// Redis (advisory locks)
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	LockTTL       time.Duration

	// Server
	Port        string
	Environment string
	LogLevel    string
}

func Load() (*Config, error) {
	// A missing .env file is fine; the process environment wins anyway.
	_ = godotenv.Load()

	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	upstreamTimeout, err := getEnvDuration("UPSTREAM_TIMEOUT", 120*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid UPSTREAM_TIMEOUT: %w", err)
	}

	lockTTL, err := getEnvDuration("LOCK_TTL", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid LOCK_TTL: %w", err)
	}

	generatedDir, err := resolveGeneratedDir(getEnv("GENERATED_DIR", "generated"))
	if err != nil {
		return nil, fmt.Errorf("invalid GENERATED_DIR: %w", err)
	}

	cfg := &Config{
		APIKey:          getEnv("API_KEY", ""),
		UpstreamBaseURL: getEnv("NANO_GPT_BASE_URL", "https://nano-gpt.com"),
		UpstreamTimeout: upstreamTimeout,

		JWTSecret: getEnv("JWT_SECRET", ""),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		GeneratedDir:    generatedDir,
		ArtifactBackend: strings.ToLower(getEnv("ARTIFACT_BACKEND", BackendLocal)),

		SupabaseURL:           getEnv("SUPABASE_URL", ""),
		SupabaseServiceKey:    getEnv("SUPABASE_SERVICE_KEY", ""),
		SupabaseStorageBucket: getEnv("SUPABASE_STORAGE_BUCKET", "generated-images"),

		S3Endpoint:  getEnv("ARTIFACT_S3_ENDPOINT", ""),
		S3Region:    getEnv("ARTIFACT_S3_REGION", "us-east-1"),
		S3AccessKey: getEnv("ARTIFACT_S3_ACCESS_KEY", ""),
		S3SecretKey: getEnv("ARTIFACT_S3_SECRET_KEY", ""),
		S3Bucket:    getEnv("ARTIFACT_S3_BUCKET", "generated-images"),
		S3UseSSL:    parseBool(getEnv("ARTIFACT_S3_USE_SSL", ""), true),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       redisDB,
		LockTTL:       lockTTL,

		Port:        getEnv("PORT", "3000"),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks the settings the server cannot start without. API_KEY is
// deliberately absent: generation requests report it per call.
func (c *Config) Validate() error {
	var missing []string
	if c.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}

	switch c.ArtifactBackend {
	case BackendLocal:
		if c.GeneratedDir == "" {
			missing = append(missing, "GENERATED_DIR")
		}
	case BackendSupabase:
		if c.SupabaseURL == "" {
			missing = append(missing, "SUPABASE_URL")
		}
		if c.SupabaseServiceKey == "" {
			missing = append(missing, "SUPABASE_SERVICE_KEY")
		}
	case BackendS3:
		if c.S3Endpoint == "" {
			missing = append(missing, "ARTIFACT_S3_ENDPOINT")
		}
		if c.S3AccessKey == "" || c.S3SecretKey == "" {
			missing = append(missing, "ARTIFACT_S3_ACCESS_KEY/ARTIFACT_S3_SECRET_KEY")
		}
	default:
		return fmt.Errorf("unknown ARTIFACT_BACKEND %q", c.ArtifactBackend)
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required env vars: %s", strings.Join(missing, ", "))
	}
	return nil
}

func (c *Config) Addr() string {
	return ":" + strings.TrimPrefix(c.Port, ":")
}

func resolveGeneratedDir(dir string) (string, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" || filepath.IsAbs(dir) {
		return dir, nil
	}
	return filepath.Abs(dir)
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	return strconv.Atoi(raw)
}

// getEnvDuration accepts Go duration strings ("90s") or a bare number of seconds.
func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	return time.ParseDuration(raw)
}

func parseBool(value string, defaultValue bool) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	default:
		return defaultValue
	}
}
