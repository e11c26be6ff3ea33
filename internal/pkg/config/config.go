package config

import (
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	LockBackendLocal = "local"
	LockBackendRedis = "redis"
)

type Config struct {
	// Environment
	Environment string `mapstructure:"ENV"`

	// Server Configuration
	ServerHost             string   `mapstructure:"SERVER_HOST"`
	ServerPort             string   `mapstructure:"SERVER_PORT"`
	PublicDir              string   `mapstructure:"PUBLIC_DIR"`
	CORSAllowOrigins       []string `mapstructure:"CORS_ALLOW_ORIGINS"`
	ShutdownTimeoutSeconds int      `mapstructure:"SHUTDOWN_TIMEOUT_SECONDS"`

	// Data slot
	DataDir         string `mapstructure:"DATA_DIR"`
	DataFileName    string `mapstructure:"DATA_FILE_NAME"`
	MaxUploadSizeMB int64  `mapstructure:"MAX_UPLOAD_SIZE_MB"`

	// Lock Configuration
	LockBackend    string `mapstructure:"LOCK_BACKEND"`
	LockKey        string `mapstructure:"LOCK_KEY"`
	LockTTLSeconds int    `mapstructure:"LOCK_TTL_SECONDS"`

	// Redis Configuration
	RedisHost     string `mapstructure:"REDIS_HOST"`
	RedisPort     string `mapstructure:"REDIS_PORT"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`
}

// Load loads configuration from environment variables and .env file
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables only")
	}

	v := viper.New()

	v.SetDefault("ENV", "development")
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", "3000")
	v.SetDefault("PUBLIC_DIR", "./public")
	v.SetDefault("CORS_ALLOW_ORIGINS", "*")
	v.SetDefault("SHUTDOWN_TIMEOUT_SECONDS", 10)

	v.SetDefault("DATA_DIR", "./data")
	v.SetDefault("DATA_FILE_NAME", "data.xlsx")
	v.SetDefault("MAX_UPLOAD_SIZE_MB", 0)

	v.SetDefault("LOCK_BACKEND", LockBackendLocal)
	v.SetDefault("LOCK_KEY", "idlookup:slot:lock")
	v.SetDefault("LOCK_TTL_SECONDS", 30)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_DB", 0)

	v.AutomaticEnv()
	// PORT is what most hosting platforms inject
	if err := v.BindEnv("SERVER_PORT", "SERVER_PORT", "PORT"); err != nil {
		return nil, fmt.Errorf("failed to bind SERVER_PORT: %w", err)
	}

	config := &Config{}

	config.Environment = v.GetString("ENV")
	config.ServerHost = v.GetString("SERVER_HOST")
	config.ServerPort = v.GetString("SERVER_PORT")
	config.PublicDir = v.GetString("PUBLIC_DIR")
	config.CORSAllowOrigins = splitList(v.GetString("CORS_ALLOW_ORIGINS"))
	config.ShutdownTimeoutSeconds = v.GetInt("SHUTDOWN_TIMEOUT_SECONDS")

	config.DataDir = v.GetString("DATA_DIR")
	config.DataFileName = v.GetString("DATA_FILE_NAME")
	config.MaxUploadSizeMB = v.GetInt64("MAX_UPLOAD_SIZE_MB")

	config.LockBackend = strings.ToLower(v.GetString("LOCK_BACKEND"))
	config.LockKey = v.GetString("LOCK_KEY")
	config.LockTTLSeconds = v.GetInt("LOCK_TTL_SECONDS")

	config.RedisHost = v.GetString("REDIS_HOST")
	config.RedisPort = v.GetString("REDIS_PORT")
	config.RedisPassword = v.GetString("REDIS_PASSWORD")
	config.RedisDB = v.GetInt("REDIS_DB")

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks required fields and value ranges
func (c *Config) Validate() error {
	if c.ServerPort == "" {
		return fmt.Errorf("SERVER_PORT is required")
	}
	if c.DataDir == "" {
		return fmt.Errorf("DATA_DIR is required")
	}
	if c.DataFileName == "" {
		return fmt.Errorf("DATA_FILE_NAME is required")
	}
	if filepath.Base(c.DataFileName) != c.DataFileName {
		return fmt.Errorf("DATA_FILE_NAME must be a bare file name, got %q", c.DataFileName)
	}
	if c.MaxUploadSizeMB < 0 {
		return fmt.Errorf("MAX_UPLOAD_SIZE_MB must not be negative")
	}

	switch c.LockBackend {
	case LockBackendLocal:
	case LockBackendRedis:
		if c.LockKey == "" {
			return fmt.Errorf("LOCK_KEY is required for the redis lock backend")
		}
		if c.LockTTLSeconds <= 0 {
			return fmt.Errorf("LOCK_TTL_SECONDS must be positive")
		}
	default:
		return fmt.Errorf("unsupported LOCK_BACKEND: %s (supported: local, redis)", c.LockBackend)
	}

	return nil
}

// GetServerAddress returns host:port for the HTTP listener
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%s", c.ServerHost, c.ServerPort)
}

// GetRedisURL constructs the Redis connection string
func (c *Config) GetRedisURL() string {
	return fmt.Sprintf("%s:%s", c.RedisHost, c.RedisPort)
}

// GetDataFilePath returns the full path of the single upload slot
func (c *Config) GetDataFilePath() string {
	return filepath.Join(c.DataDir, c.DataFileName)
}

// GetMaxUploadSize returns the upload limit in bytes, 0 meaning unlimited
func (c *Config) GetMaxUploadSize() int64 {
	return c.MaxUploadSizeMB * 1024 * 1024
}

// IsProduction returns true if running in production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// IsDevelopment returns true if running in development
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// LogConfig logs the configuration (hiding sensitive data)
func (c *Config) LogConfig() {
	log.Printf("Configuration loaded:")
	log.Printf("  Environment: %s", c.Environment)
	log.Printf("  Server: %s", c.GetServerAddress())
	log.Printf("  Public dir: %s", c.PublicDir)
	log.Printf("  Data file: %s", c.GetDataFilePath())
	if c.MaxUploadSizeMB > 0 {
		log.Printf("  Max upload size: %d MB", c.MaxUploadSizeMB)
	} else {
		log.Printf("  Max upload size: unlimited")
	}
	log.Printf("  Lock backend: %s", c.LockBackend)

	if c.LockBackend == LockBackendRedis {
		log.Printf("  Redis: %s (DB: %d)", c.GetRedisURL(), c.RedisDB)
		if c.RedisPassword != "" {
			log.Printf("  Redis password: [CONFIGURED]")
		} else {
			log.Printf("  Redis password: [NOT SET]")
		}
	}
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
