package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	API       API       `mapstructure:"api"`
	Dashboard Dashboard `mapstructure:"dashboard"`
	Logger    Logger    `mapstructure:"logger"`
	Server    Server    `mapstructure:"server"`
	Database  Database  `mapstructure:"database"`
}

// API holds the configuration for the remote trade service client.
type API struct {
	BaseURL        string        `mapstructure:"base_url"`
	Timeout        time.Duration `mapstructure:"timeout"`
	RateLimit      float64       `mapstructure:"rate_limit"`
	RateLimitBurst int           `mapstructure:"rate_limit_burst"`
}

// Dashboard holds the configuration for the interactive client.
type Dashboard struct {
	PageSize int `mapstructure:"page_size"`
}

// Server holds the configuration for the reference trade service.
type Server struct {
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Database holds the configuration for the database.
type Database struct {
	DSN      string `mapstructure:"dsn"`
	SeedFile string `mapstructure:"seed_file"`
}

// Logger holds the configuration for the logger.
type Logger struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputFile string `mapstructure:"output_file"`
}

// LoadConfig reads configuration from file or environment variables.
// A missing config file is not an error: defaults and the environment apply.
func LoadConfig(path string) (config Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config") // name of config file (without extension)
	v.SetConfigType("yml")

	// Allow environment variables to override config file
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err = v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return
		}
		err = nil
	}

	err = v.Unmarshal(&config)
	return
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", "http://localhost:8000")
	v.SetDefault("api.timeout", 10*time.Second)
	v.SetDefault("api.rate_limit", 20) // requests per second
	v.SetDefault("api.rate_limit_burst", 5)

	v.SetDefault("dashboard.page_size", 50)

	v.SetDefault("server.port", 8000)
	v.SetDefault("server.shutdown_timeout", 5*time.Second)

	v.SetDefault("database.dsn", "db.sqlite3")
	v.SetDefault("database.seed_file", "")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.output_file", "")
}
