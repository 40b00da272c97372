package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"dutycalc/internal/domain"
	"dutycalc/internal/duty"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	DB        DBConfig
	JWT       JWTConfig
	S3        S3Config
	Log       LogConfig
	CORS      CORSConfig
	Engine    EngineConfig
	Batch     BatchConfig
	RateLimit RateLimitConfig
}

// EngineConfig holds duty calculation settings.
type EngineConfig struct {
	GSTRate           decimal.Decimal
	GSTThreshold      decimal.Decimal
	StoreErrorMode    domain.StoreErrorMode
	ConcurrentLookups bool
}

// BatchConfig holds batch calculation limits.
type BatchConfig struct {
	Concurrency int `mapstructure:"concurrency"`
	MaxItems    int `mapstructure:"max_items"`
}

// RateLimitConfig holds per-client request rate limits. A zero RPS disables
// limiting.
type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// JWTConfig holds bearer token verification settings. An empty Secret
// disables authentication.
type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Issuer string `mapstructure:"issuer"`
}

// Enabled reports whether API requests must carry a bearer token.
func (j *JWTConfig) Enabled() bool {
	return j.Secret != ""
}

// S3Config holds AWS S3 settings used to fetch tariff workbooks.
type S3Config struct {
	Region    string `mapstructure:"region"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from environment variables with the DUTYCALC_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("DUTYCALC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.environment", "development")

	// DB defaults
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "dutycalc")
	v.SetDefault("db.password", "dutycalc_secret")
	v.SetDefault("db.name", "tariff_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)

	// JWT defaults (empty secret: auth disabled)
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.issuer", "dutycalc")

	// S3 defaults
	v.SetDefault("s3.region", "ap-southeast-2")
	v.SetDefault("s3.endpoint", "")

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	// CORS defaults (localhost origins for development)
	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	// Engine defaults
	v.SetDefault("engine.gst_rate", duty.DefaultGSTRate.String())
	v.SetDefault("engine.gst_threshold", duty.DefaultGSTThreshold.StringFixed(2))
	v.SetDefault("engine.store_error_mode", string(domain.StoreErrorDegrade))
	v.SetDefault("engine.concurrent_lookups", true)

	// Batch defaults
	v.SetDefault("batch.concurrency", 5)
	v.SetDefault("batch.max_items", 100)

	// Rate limit defaults
	v.SetDefault("rate_limit.rps", 0)
	v.SetDefault("rate_limit.burst", 20)

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":               "DUTYCALC_SERVER_PORT",
		"server.read_timeout":       "DUTYCALC_SERVER_READ_TIMEOUT",
		"server.write_timeout":      "DUTYCALC_SERVER_WRITE_TIMEOUT",
		"server.environment":        "DUTYCALC_SERVER_ENVIRONMENT",
		"db.host":                   "DUTYCALC_DB_HOST",
		"db.port":                   "DUTYCALC_DB_PORT",
		"db.user":                   "DUTYCALC_DB_USER",
		"db.password":               "DUTYCALC_DB_PASSWORD",
		"db.name":                   "DUTYCALC_DB_NAME",
		"db.sslmode":                "DUTYCALC_DB_SSLMODE",
		"db.max_open":               "DUTYCALC_DB_MAX_OPEN",
		"db.max_idle":               "DUTYCALC_DB_MAX_IDLE",
		"jwt.secret":                "DUTYCALC_JWT_SECRET",
		"jwt.issuer":                "DUTYCALC_JWT_ISSUER",
		"s3.region":                 "DUTYCALC_S3_REGION",
		"s3.endpoint":               "DUTYCALC_S3_ENDPOINT",
		"s3.access_key":             "DUTYCALC_S3_ACCESS_KEY",
		"s3.secret_key":             "DUTYCALC_S3_SECRET_KEY",
		"log.level":                 "DUTYCALC_LOG_LEVEL",
		"log.format":                "DUTYCALC_LOG_FORMAT",
		"cors.allowed_origins":      "DUTYCALC_CORS_ALLOWED_ORIGINS",
		"engine.gst_rate":           "DUTYCALC_ENGINE_GST_RATE",
		"engine.gst_threshold":      "DUTYCALC_ENGINE_GST_THRESHOLD",
		"engine.store_error_mode":   "DUTYCALC_ENGINE_STORE_ERROR_MODE",
		"engine.concurrent_lookups": "DUTYCALC_ENGINE_CONCURRENT_LOOKUPS",
		"batch.concurrency":         "DUTYCALC_BATCH_CONCURRENCY",
		"batch.max_items":           "DUTYCALC_BATCH_MAX_ITEMS",
		"rate_limit.rps":            "DUTYCALC_RATE_LIMIT_RPS",
		"rate_limit.burst":          "DUTYCALC_RATE_LIMIT_BURST",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if DUTYCALC_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("DUTYCALC_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}
	cfg.DB = DBConfig{
		Host:     v.GetString("db.host"),
		Port:     v.GetInt("db.port"),
		User:     v.GetString("db.user"),
		Password: v.GetString("db.password"),
		Name:     v.GetString("db.name"),
		SSLMode:  v.GetString("db.sslmode"),
		MaxOpen:  v.GetInt("db.max_open"),
		MaxIdle:  v.GetInt("db.max_idle"),
	}
	cfg.JWT = JWTConfig{
		Secret: v.GetString("jwt.secret"),
		Issuer: v.GetString("jwt.issuer"),
	}
	cfg.S3 = S3Config{
		Region:    v.GetString("s3.region"),
		Endpoint:  v.GetString("s3.endpoint"),
		AccessKey: v.GetString("s3.access_key"),
		SecretKey: v.GetString("s3.secret_key"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}
	// Parse CORS allowed origins from comma-separated string
	var corsOrigins []string
	for _, o := range strings.Split(v.GetString("cors.allowed_origins"), ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			corsOrigins = append(corsOrigins, o)
		}
	}
	cfg.CORS = CORSConfig{
		AllowedOrigins: corsOrigins,
	}

	engine, err := loadEngine(v)
	if err != nil {
		return nil, err
	}
	cfg.Engine = engine

	cfg.Batch = BatchConfig{
		Concurrency: v.GetInt("batch.concurrency"),
		MaxItems:    v.GetInt("batch.max_items"),
	}
	if cfg.Batch.Concurrency < 1 {
		return nil, fmt.Errorf("config: batch.concurrency must be at least 1, got %d", cfg.Batch.Concurrency)
	}
	if cfg.Batch.MaxItems < 1 {
		return nil, fmt.Errorf("config: batch.max_items must be at least 1, got %d", cfg.Batch.MaxItems)
	}

	cfg.RateLimit = RateLimitConfig{
		RPS:   v.GetFloat64("rate_limit.rps"),
		Burst: v.GetInt("rate_limit.burst"),
	}

	return cfg, nil
}

func loadEngine(v *viper.Viper) (EngineConfig, error) {
	rate, err := decimal.NewFromString(v.GetString("engine.gst_rate"))
	if err != nil {
		return EngineConfig{}, fmt.Errorf("config: engine.gst_rate: %w", err)
	}
	threshold, err := decimal.NewFromString(v.GetString("engine.gst_threshold"))
	if err != nil {
		return EngineConfig{}, fmt.Errorf("config: engine.gst_threshold: %w", err)
	}
	if rate.IsNegative() || threshold.IsNegative() {
		return EngineConfig{}, fmt.Errorf("config: engine GST rate and threshold must not be negative")
	}

	mode := domain.StoreErrorMode(strings.ToLower(v.GetString("engine.store_error_mode")))
	switch mode {
	case domain.StoreErrorDegrade, domain.StoreErrorPropagate:
	default:
		return EngineConfig{}, fmt.Errorf("config: engine.store_error_mode must be %q or %q, got %q",
			domain.StoreErrorDegrade, domain.StoreErrorPropagate, mode)
	}

	return EngineConfig{
		GSTRate:           rate,
		GSTThreshold:      threshold,
		StoreErrorMode:    mode,
		ConcurrentLookups: v.GetBool("engine.concurrent_lookups"),
	}, nil
}
