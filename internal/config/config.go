package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds the complete application configuration
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Storage StorageConfig `mapstructure:"storage"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Logging LoggingConfig `mapstructure:"logging"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Quota   QuotaConfig   `mapstructure:"quota"`
	Timer   TimerConfig   `mapstructure:"timer"`
	OpenAI  OpenAIConfig  `mapstructure:"openai"`
}

// ServerConfig defines server ports and addresses
type ServerConfig struct {
	APIPort     int    `mapstructure:"api_port"`
	MetricsPort int    `mapstructure:"metrics_port"`
	BindAddress string `mapstructure:"bind_address"`
}

// StorageConfig defines storage backend settings
type StorageConfig struct {
	Type string `mapstructure:"type"` // "bolt", "redis" or "memory"
	Path string `mapstructure:"path"`
}

// RedisConfig defines Redis connection settings
type RedisConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	PoolSize     int    `mapstructure:"pool_size"`
	MinIdleConns int    `mapstructure:"min_idle_conns"`
	DialTimeout  string `mapstructure:"dial_timeout"`
	ReadTimeout  string `mapstructure:"read_timeout"`
	WriteTimeout string `mapstructure:"write_timeout"`
}

// LoggingConfig defines logging behavior
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// AuthConfig defines API authentication settings
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
}

// QuotaConfig defines daily quota settings
type QuotaConfig struct {
	DailyResetTime    string `mapstructure:"daily_reset_time"`
	DefinitionsPerDay int    `mapstructure:"definitions_per_day"`
	ReviewsPerDay     int    `mapstructure:"reviews_per_day"`
	RetentionDays     int    `mapstructure:"retention_days"`
}

// TimerConfig defines countdown session settings
type TimerConfig struct {
	SessionSeconds int `mapstructure:"session_seconds"`
}

// OpenAIConfig defines the language model backend settings
type OpenAIConfig struct {
	APIKey    string `mapstructure:"api_key"`
	BaseURL   string `mapstructure:"base_url"`
	Model     string `mapstructure:"model"`
	Timeout   string `mapstructure:"timeout"`
	CacheSize int    `mapstructure:"cache_size"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(configPath)
	v.SetEnvPrefix("LINGORA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, use defaults and environment variables
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.api_port", 8080)
	v.SetDefault("server.metrics_port", 9090)
	v.SetDefault("server.bind_address", "0.0.0.0")

	// Storage defaults
	v.SetDefault("storage.type", "bolt")
	v.SetDefault("storage.path", "/var/lib/lingora/lingora.bolt")

	// Redis defaults
	v.SetDefault("redis.host", "127.0.0.1")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 2)
	v.SetDefault("redis.dial_timeout", "5s")
	v.SetDefault("redis.read_timeout", "3s")
	v.SetDefault("redis.write_timeout", "3s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Quota defaults
	v.SetDefault("quota.daily_reset_time", "00:00")
	v.SetDefault("quota.definitions_per_day", 30)
	v.SetDefault("quota.reviews_per_day", 10)
	v.SetDefault("quota.retention_days", 90)

	// Timer defaults
	v.SetDefault("timer.session_seconds", 600)

	// OpenAI defaults
	v.SetDefault("openai.model", "gpt-4-turbo")
	v.SetDefault("openai.timeout", "30s")
	v.SetDefault("openai.cache_size", 1024)
}

// validate validates the configuration
func validate(cfg *Config) error {
	if cfg.Server.APIPort <= 0 || cfg.Server.APIPort > 65535 {
		return fmt.Errorf("invalid API port: %d", cfg.Server.APIPort)
	}
	if cfg.Server.MetricsPort <= 0 || cfg.Server.MetricsPort > 65535 {
		return fmt.Errorf("invalid metrics port: %d", cfg.Server.MetricsPort)
	}

	switch cfg.Storage.Type {
	case "bolt", "redis", "memory":
	case "":
		cfg.Storage.Type = "bolt"
	default:
		return fmt.Errorf("unknown storage type: %s", cfg.Storage.Type)
	}

	if cfg.Storage.Type == "bolt" {
		if cfg.Storage.Path == "" {
			return fmt.Errorf("storage path is required")
		}
		storageDir := filepath.Dir(cfg.Storage.Path)
		if err := os.MkdirAll(storageDir, 0755); err != nil {
			return fmt.Errorf("failed to create storage directory: %w", err)
		}
	}

	if cfg.Quota.DefinitionsPerDay <= 0 {
		return fmt.Errorf("definitions_per_day must be positive: %d", cfg.Quota.DefinitionsPerDay)
	}
	if cfg.Quota.ReviewsPerDay <= 0 {
		return fmt.Errorf("reviews_per_day must be positive: %d", cfg.Quota.ReviewsPerDay)
	}
	if cfg.Timer.SessionSeconds <= 0 {
		return fmt.Errorf("session_seconds must be positive: %d", cfg.Timer.SessionSeconds)
	}

	// An empty secret would verify tokens signed with the empty string.
	if cfg.Auth.JWTSecret == "" {
		return fmt.Errorf("auth jwt_secret is required")
	}

	return nil
}
