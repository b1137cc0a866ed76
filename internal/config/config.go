// Package config provides configuration loading and validation.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/fd1az/wallet-dashboard/internal/apperror"
)

// AppDirName is the directory under the user config dir holding local state.
const AppDirName = "walletdash"

// Storage backends.
const (
	StorageFile  = "file"
	StorageRedis = "redis"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Alchemy   AlchemyConfig   `mapstructure:"alchemy"`
	Wallet    WalletConfig    `mapstructure:"wallet"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Health    HealthConfig    `mapstructure:"health"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level" validate:"oneof=debug info warn error"`
	LogFile     string `mapstructure:"log_file"`
	TUIMode     bool   `mapstructure:"-"` // set at runtime from flags
}

// AlchemyConfig holds indexing API settings. An empty APIKey is allowed:
// fetches then fail with a generic error instead of blocking startup.
type AlchemyConfig struct {
	APIKey            string        `mapstructure:"api_key"`
	URLTemplate       string        `mapstructure:"url_template" validate:"required,contains={network}"`
	MaxCount          int           `mapstructure:"max_count" validate:"min=1,max=1000"`
	Concurrency       int           `mapstructure:"concurrency" validate:"min=1"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second" validate:"gte=0"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout" validate:"gt=0"`
	RetryAttempts     uint          `mapstructure:"retry_attempts" validate:"min=1,max=10"`
	RetryDelay        time.Duration `mapstructure:"retry_delay" validate:"gte=0"`
}

// URL returns the JSON-RPC endpoint for a provider network selector.
func (c AlchemyConfig) URL(network string) string {
	u := strings.ReplaceAll(c.URLTemplate, "{network}", network)
	return strings.ReplaceAll(u, "{apiKey}", c.APIKey)
}

// WalletConfig holds wallet bridge settings.
type WalletConfig struct {
	RPCURL         string        `mapstructure:"rpc_url"`
	PollInterval   time.Duration `mapstructure:"poll_interval" validate:"gt=0"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" validate:"gt=0"`
}

// StorageConfig selects where preferences persist.
type StorageConfig struct {
	Backend       string `mapstructure:"backend" validate:"oneof=file redis"`
	Path          string `mapstructure:"path"`
	RedisAddr     string `mapstructure:"redis_addr" validate:"required_if=Backend redis"`
	RedisUsername string `mapstructure:"redis_username"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db" validate:"gte=0"`
	KeyPrefix     string `mapstructure:"key_prefix"`
}

// HealthConfig controls the health check server.
type HealthConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port" validate:"required_if=Enabled true,gte=0,lte=65535"`
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	TraceProvider  string `mapstructure:"trace_provider" validate:"omitempty,oneof=zipkin console honeycomb newrelic"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	OTLPHeaders    string `mapstructure:"otlp_headers"`
	PrometheusPort int    `mapstructure:"prometheus_port" validate:"gte=0,lte=65535"`
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, AppDirName))
		}
	}

	v.SetEnvPrefix("WALLETDASH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindEnvVars(v)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Storage.Path == "" {
		cfg.Storage.Path = defaultStatePath("preferences.json")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	// App
	v.BindEnv("app.name", "WALLETDASH_APP_NAME", "SERVICE_NAME")
	v.BindEnv("app.environment", "WALLETDASH_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "WALLETDASH_LOG_LEVEL", "LOG_LEVEL")
	v.BindEnv("app.log_file", "WALLETDASH_LOG_FILE")

	// Alchemy
	v.BindEnv("alchemy.api_key", "WALLETDASH_ALCHEMY_API_KEY", "ALCHEMY_API_KEY")
	v.BindEnv("alchemy.url_template", "WALLETDASH_ALCHEMY_URL_TEMPLATE")

	// Wallet
	v.BindEnv("wallet.rpc_url", "WALLETDASH_WALLET_RPC_URL", "WALLET_RPC_URL")

	// Storage
	v.BindEnv("storage.backend", "WALLETDASH_STORAGE_BACKEND")
	v.BindEnv("storage.redis_addr", "WALLETDASH_REDIS_ADDR", "REDIS_ADDR")
	v.BindEnv("storage.redis_password", "WALLETDASH_REDIS_PASSWORD", "REDIS_PASSWORD")

	// Telemetry
	v.BindEnv("telemetry.enabled", "WALLETDASH_OTEL_ENABLED", "OTEL_ENABLED")
	v.BindEnv("telemetry.service_name", "WALLETDASH_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.otlp_endpoint", "WALLETDASH_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "walletdash")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	// Alchemy defaults
	v.SetDefault("alchemy.url_template", "https://{network}.g.alchemy.com/v2/{apiKey}")
	v.SetDefault("alchemy.max_count", 20)
	v.SetDefault("alchemy.concurrency", 5)
	v.SetDefault("alchemy.requests_per_second", 0) // unthrottled
	v.SetDefault("alchemy.request_timeout", "15s")
	v.SetDefault("alchemy.retry_attempts", 3)
	v.SetDefault("alchemy.retry_delay", "500ms")

	// Wallet defaults
	v.SetDefault("wallet.rpc_url", "http://127.0.0.1:1248")
	v.SetDefault("wallet.poll_interval", "2s")
	v.SetDefault("wallet.request_timeout", "2m") // prompts wait on the user

	// Storage defaults
	v.SetDefault("storage.backend", StorageFile)
	v.SetDefault("storage.redis_db", 0)
	v.SetDefault("storage.key_prefix", "walletdash")

	// Health defaults
	v.SetDefault("health.enabled", false)
	v.SetDefault("health.port", 8081)

	// Telemetry defaults
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "walletdash")
	v.SetDefault("telemetry.trace_provider", "zipkin")
	v.SetDefault("telemetry.prometheus_port", 9090)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return apperror.New(apperror.CodeConfigurationError,
				apperror.WithCause(err),
				apperror.WithContext(fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag())))
		}
		return apperror.New(apperror.CodeConfigurationError, apperror.WithCause(err))
	}
	return nil
}

// DefaultLogPath returns the log file used in TUI mode.
func (c *Config) DefaultLogPath() string {
	if c.App.LogFile != "" {
		return c.App.LogFile
	}
	return defaultStatePath(AppDirName + ".log")
}

func defaultStatePath(name string) string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return name
	}
	return filepath.Join(dir, AppDirName, name)
}
