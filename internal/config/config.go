package config

import (
	"strings"
	"time"
	_ "time/tzdata" // timezone names resolve without a system zoneinfo

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Logger    Logger    `mapstructure:"logger"`
	Server    Server    `mapstructure:"server"`
	Database  Database  `mapstructure:"database"`
	Analytics Analytics `mapstructure:"analytics"`
	Source    Source    `mapstructure:"source"`
}

// Server holds the configuration for the web server.
type Server struct {
	Port int `mapstructure:"port"`
}

// Database holds the configuration for the record store.
type Database struct {
	Driver string `mapstructure:"driver"` // "sqlite" or "postgres"
	DSN    string `mapstructure:"dsn"`
}

// Analytics holds the inputs of the timeline projection.
type Analytics struct {
	StartingNetWorth int64  `mapstructure:"starting_net_worth"`
	UnitInvestment   int64  `mapstructure:"unit_investment"`
	Timezone         string `mapstructure:"timezone"`
}

// Location resolves the configured timezone, falling back to UTC.
func (a Analytics) Location() *time.Location {
	if a.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(a.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Source holds the configuration for the remote spreadsheet export.
type Source struct {
	URL            string        `mapstructure:"url"`
	RateLimit      float64       `mapstructure:"rate_limit"`
	RateLimitBurst int           `mapstructure:"rate_limit_burst"`
	Timeout        time.Duration `mapstructure:"timeout"`
	SyncInterval   time.Duration `mapstructure:"sync_interval"` // 0 disables periodic sync
}

// Logger holds the configuration for the logger.
type Logger struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "flips.db")
	v.SetDefault("server.port", 8080)
	v.SetDefault("analytics.starting_net_worth", 0)
	v.SetDefault("analytics.unit_investment", 1_000_000)
	v.SetDefault("analytics.timezone", "UTC")
	v.SetDefault("source.rate_limit", 2)       // requests per second
	v.SetDefault("source.rate_limit_burst", 1) // burst size
	v.SetDefault("source.timeout", "30s")
	v.SetDefault("source.sync_interval", "0s")
}

// Default returns the configuration used when no file is present.
func Default() Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return cfg
}

// LoadConfig reads configuration from file or environment variables.
// A missing config file is not an error; defaults and environment apply.
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
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return
		}
		err = nil
	}

	err = v.Unmarshal(&config)
	return
}
