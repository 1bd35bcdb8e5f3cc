package app

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/cms-backend/internal/platform/envutil"
	"github.com/yungbote/cms-backend/internal/platform/logger"
)

type Config struct {
	Port    string `yaml:"port"`
	LogMode string `yaml:"log_mode"`

	DBDriver         string `yaml:"db_driver"`
	SQLitePath       string `yaml:"sqlite_path"`
	PostgresHost     string `yaml:"postgres_host"`
	PostgresPort     string `yaml:"postgres_port"`
	PostgresUser     string `yaml:"postgres_user"`
	PostgresPassword string `yaml:"postgres_password"`
	PostgresName     string `yaml:"postgres_name"`

	UploadsRoot         string `yaml:"uploads_root"`
	StorageMode         string `yaml:"storage_mode"`
	GCSBucket           string `yaml:"gcs_bucket"`
	GCSPrefix           string `yaml:"gcs_prefix"`
	GCSCredentials      string `yaml:"gcs_credentials"`
	StorageEmulatorHost string `yaml:"storage_emulator_host"`
	VariantQuality      int    `yaml:"variant_quality"`

	RetentionDays   int           `yaml:"retention_days"`
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
	RedisAddr       string        `yaml:"redis_addr"`

	JWTSecretKey string   `yaml:"jwt_secret_key"`
	CORSOrigins  []string `yaml:"cors_origins"`

	OtelEnabled     bool    `yaml:"otel_enabled"`
	OtelServiceName string  `yaml:"otel_service_name"`
	OtelEnvironment string  `yaml:"otel_environment"`
	OtelEndpoint    string  `yaml:"otel_endpoint"`
	OtelHeaders     string  `yaml:"otel_headers"`
	OtelInsecure    bool    `yaml:"otel_insecure"`
	OtelSampleRatio float64 `yaml:"otel_sample_ratio"`
	MetricsEnabled  bool    `yaml:"metrics_enabled"`
}

func defaultConfig() Config {
	return Config{
		Port:            "8080",
		LogMode:         "development",
		DBDriver:        "sqlite",
		SQLitePath:      "data/cms.db",
		PostgresHost:    "localhost",
		PostgresPort:    "5432",
		PostgresUser:    "postgres",
		PostgresName:    "cms",
		UploadsRoot:     "uploads",
		StorageMode:     "local",
		VariantQuality:  80,
		RetentionDays:   30,
		CleanupInterval: 24 * time.Hour,
		OtelServiceName: "cms-backend",
		OtelSampleRatio: 1,
		MetricsEnabled:  true,
	}
}

// LoadConfig layers defaults, the optional CMS_CONFIG_FILE YAML overlay, and environment
// variables, in that order.
func LoadConfig(log *logger.Logger) (Config, error) {
	cfg := defaultConfig()
	if path := envutil.String("CMS_CONFIG_FILE", ""); path != "" {
		if err := loadYAML(path, &cfg); err != nil {
			return Config{}, err
		}
		log.Info("Loaded config overlay", "path", path)
	}
	applyEnv(&cfg)
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadYAML(path string, cfg *Config) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Port = envutil.String("PORT", cfg.Port)
	cfg.LogMode = envutil.String("LOG_MODE", cfg.LogMode)

	cfg.DBDriver = strings.ToLower(envutil.String("DB_DRIVER", cfg.DBDriver))
	cfg.SQLitePath = envutil.String("SQLITE_PATH", cfg.SQLitePath)
	cfg.PostgresHost = envutil.String("POSTGRES_HOST", cfg.PostgresHost)
	cfg.PostgresPort = envutil.String("POSTGRES_PORT", cfg.PostgresPort)
	cfg.PostgresUser = envutil.String("POSTGRES_USER", cfg.PostgresUser)
	cfg.PostgresPassword = envutil.String("POSTGRES_PASSWORD", cfg.PostgresPassword)
	cfg.PostgresName = envutil.String("POSTGRES_NAME", cfg.PostgresName)

	cfg.UploadsRoot = envutil.String("UPLOADS_ROOT", cfg.UploadsRoot)
	cfg.StorageMode = strings.ToLower(envutil.String("STORAGE_MODE", cfg.StorageMode))
	cfg.GCSBucket = envutil.String("GCS_BUCKET", cfg.GCSBucket)
	cfg.GCSPrefix = envutil.String("GCS_PREFIX", cfg.GCSPrefix)
	cfg.GCSCredentials = envutil.String("GOOGLE_APPLICATION_CREDENTIALS", cfg.GCSCredentials)
	cfg.StorageEmulatorHost = envutil.String("STORAGE_EMULATOR_HOST", cfg.StorageEmulatorHost)
	cfg.VariantQuality = envutil.Int("MEDIA_VARIANT_QUALITY", cfg.VariantQuality)

	cfg.RetentionDays = envutil.Int("MEDIA_RETENTION_DAYS", cfg.RetentionDays)
	cfg.CleanupInterval = envutil.Duration("MEDIA_CLEANUP_INTERVAL", cfg.CleanupInterval)
	cfg.RedisAddr = envutil.String("REDIS_ADDR", cfg.RedisAddr)

	cfg.JWTSecretKey = envutil.String("JWT_SECRET_KEY", cfg.JWTSecretKey)
	if raw := envutil.String("CORS_ORIGINS", ""); raw != "" {
		cfg.CORSOrigins = splitList(raw)
	}

	cfg.OtelEnabled = envutil.Bool("OTEL_ENABLED", cfg.OtelEnabled)
	cfg.OtelServiceName = envutil.String("OTEL_SERVICE_NAME", cfg.OtelServiceName)
	cfg.OtelEnvironment = envutil.String("OTEL_ENVIRONMENT", cfg.OtelEnvironment)
	cfg.OtelEndpoint = envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.OtelEndpoint)
	cfg.OtelHeaders = envutil.String("OTEL_EXPORTER_OTLP_HEADERS", cfg.OtelHeaders)
	cfg.OtelInsecure = envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", cfg.OtelInsecure)
	cfg.MetricsEnabled = envutil.Bool("METRICS_ENABLED", cfg.MetricsEnabled)
}

func (cfg Config) validate() error {
	switch cfg.DBDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("invalid DB_DRIVER=%q (allowed: sqlite, postgres)", cfg.DBDriver)
	}
	if cfg.RetentionDays < 0 {
		return fmt.Errorf("MEDIA_RETENTION_DAYS must be >= 0, got %d", cfg.RetentionDays)
	}
	if cfg.CleanupInterval < 0 {
		return fmt.Errorf("MEDIA_CLEANUP_INTERVAL must be >= 0, got %s", cfg.CleanupInterval)
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return fmt.Errorf("PORT is empty")
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if v := strings.TrimSpace(part); v != "" {
			out = append(out, v)
		}
	}
	return out
}
