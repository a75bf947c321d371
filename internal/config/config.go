package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/jalh2/healthyubackend/internal/apperror"
)

// EncryptionKeyLength is the AES-256 key size in bytes.
const EncryptionKeyLength = 32

const (
	StorePostgres = "postgres"
	StoreMongo    = "mongo"
	StoreMemory   = "memory"
)

type Config struct {
	Port        string `mapstructure:"PORT"`
	Env         string `mapstructure:"ENV"`
	StoreDriver string `mapstructure:"STORE_DRIVER"`

	DBHost         string `mapstructure:"DB_HOST"`
	DBPort         string `mapstructure:"DB_PORT"`
	DBUser         string `mapstructure:"DB_USER"`
	DBPassword     string `mapstructure:"DB_PASSWORD"`
	DBName         string `mapstructure:"DB_NAME"`
	DBSSLMode      string `mapstructure:"DB_SSLMODE"`
	DBMaxOpenConns int    `mapstructure:"DB_MAX_OPEN_CONNS"`

	MongoURI      string `mapstructure:"MONGO_URI"`
	MongoDatabase string `mapstructure:"MONGO_DATABASE"`

	EncryptionKey string        `mapstructure:"ENCRYPTION_KEY"`
	JWTSecret     string        `mapstructure:"JWT_SECRET"`
	JWTTTL        time.Duration `mapstructure:"JWT_TTL"`

	RabbitMQURL     string  `mapstructure:"RABBITMQ_URL"`
	AllowedOrigins  string  `mapstructure:"ALLOWED_ORIGINS"`
	PermissionsFile string  `mapstructure:"PERMISSIONS_FILE"`
	RateLimitRPS    float64 `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst  int     `mapstructure:"RATE_LIMIT_BURST"`
	TrustProxy      bool    `mapstructure:"RATE_LIMIT_TRUST_PROXY"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`
	LogOutput string `mapstructure:"LOG_OUTPUT"`

	OTelEnabled         bool          `mapstructure:"OTEL_ENABLED"`
	OTelEndpoint        string        `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTelServiceName     string        `mapstructure:"OTEL_SERVICE_NAME"`
	OTelServiceVersion  string        `mapstructure:"OTEL_SERVICE_VERSION"`
	OTelTracesSampler   string        `mapstructure:"OTEL_TRACES_SAMPLER"`
	OTelMetricsInterval time.Duration `mapstructure:"OTEL_METRICS_EXPORT_INTERVAL"`
}

// LogConfig is the subset consumed by logger.New.
type LogConfig struct {
	Level      string
	Format     string
	OutputPath string
}

var keys = []string{
	"PORT", "ENV", "STORE_DRIVER",
	"DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_SSLMODE", "DB_MAX_OPEN_CONNS",
	"MONGO_URI", "MONGO_DATABASE",
	"ENCRYPTION_KEY", "JWT_SECRET", "JWT_TTL",
	"RABBITMQ_URL", "ALLOWED_ORIGINS", "PERMISSIONS_FILE", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "RATE_LIMIT_TRUST_PROXY",
	"LOG_LEVEL", "LOG_FORMAT", "LOG_OUTPUT",
	"OTEL_ENABLED", "OTEL_EXPORTER_OTLP_ENDPOINT", "OTEL_SERVICE_NAME", "OTEL_SERVICE_VERSION",
	"OTEL_TRACES_SAMPLER", "OTEL_METRICS_EXPORT_INTERVAL",
}

// Load reads configuration from the environment and an optional .env file,
// then validates it.
func Load() (*Config, error) {
	return LoadFile(".env")
}

// LoadFile is Load with an explicit dotenv path. A missing file is not an error.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "4000")
	v.SetDefault("ENV", "development")
	v.SetDefault("STORE_DRIVER", StorePostgres)
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("MONGO_DATABASE", "healthyu")
	v.SetDefault("JWT_TTL", "72h")
	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:3000")
	v.SetDefault("PERMISSIONS_FILE", "permissions.yml")
	v.SetDefault("RATE_LIMIT_RPS", 5)
	v.SetDefault("RATE_LIMIT_BURST", 10)
	v.SetDefault("RATE_LIMIT_TRUST_PROXY", false)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("LOG_OUTPUT", "stdout")
	v.SetDefault("OTEL_ENABLED", false)
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317")
	v.SetDefault("OTEL_SERVICE_NAME", "healthyu-backend")
	v.SetDefault("OTEL_SERVICE_VERSION", "1.0.0")
	v.SetDefault("OTEL_TRACES_SAMPLER", "always_on")
	v.SetDefault("OTEL_METRICS_EXPORT_INTERVAL", "30s")

	for _, key := range keys {
		_ = v.BindEnv(key)
	}

	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the service cannot start with.
func (c *Config) Validate() error {
	if err := ValidateEncryptionKey(c.EncryptionKey); err != nil {
		return err
	}
	if c.JWTSecret == "" {
		return apperror.Config("JWT_SECRET is required")
	}
	if c.JWTTTL <= 0 {
		return apperror.Config("JWT_TTL must be positive")
	}

	switch c.StoreDriver {
	case StorePostgres:
		if c.DBHost == "" || c.DBUser == "" || c.DBPassword == "" || c.DBName == "" {
			return apperror.Config("missing required database environment variables")
		}
	case StoreMongo:
		if c.MongoURI == "" {
			return apperror.Config("MONGO_URI is required when STORE_DRIVER is mongo")
		}
	case StoreMemory:
	default:
		return apperror.Config(fmt.Sprintf("STORE_DRIVER must be %q, %q or %q, got %q",
			StorePostgres, StoreMongo, StoreMemory, c.StoreDriver))
	}
	return nil
}

// ValidateEncryptionKey enforces the AES-256 key length.
func ValidateEncryptionKey(key string) error {
	if len(key) != EncryptionKeyLength {
		return apperror.Config(fmt.Sprintf(
			"Encryption key must be exactly %d characters long (current length: %d)",
			EncryptionKeyLength, len(key)))
	}
	return nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

func (c *Config) Log() LogConfig {
	return LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		OutputPath: c.LogOutput,
	}
}

// Origins splits ALLOWED_ORIGINS into trimmed entries.
func (c *Config) Origins() []string {
	var origins []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// PostgresDSN builds the lib/pq connection string.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}
