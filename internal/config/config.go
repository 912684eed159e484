package config

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Config holds the full application configuration.
type Config struct {
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Estimate EstimateConfig `yaml:"estimate" mapstructure:"estimate"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the run-store backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	// SQLitePath is used when driver is "sqlite".
	SQLitePath string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
}

// EstimateConfig holds defaults for estimation runs; CLI flags override
// these per invocation.
type EstimateConfig struct {
	Resamples       int     `yaml:"resamples" mapstructure:"resamples"`
	IncludeApparent bool    `yaml:"include_apparent" mapstructure:"include_apparent"`
	Estimand        string  `yaml:"estimand" mapstructure:"estimand"`
	PropensityClip  float64 `yaml:"propensity_clip" mapstructure:"propensity_clip"`
	WeightCap       float64 `yaml:"weight_cap" mapstructure:"weight_cap"`
	Seed            uint64  `yaml:"seed" mapstructure:"seed"`
	FailurePolicy   string  `yaml:"failure_policy" mapstructure:"failure_policy"`
	Concurrency     int     `yaml:"concurrency" mapstructure:"concurrency"`
	ConfidenceLevel float64 `yaml:"confidence_level" mapstructure:"confidence_level"`
}

// ServerConfig configures the results API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
	// RateLimit is requests per second allowed across the server; 0 disables.
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	RateBurst int     `yaml:"rate_burst" mapstructure:"rate_burst"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("IPWBOOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.sqlite_path", "ipwboot.db")
	v.SetDefault("estimate.resamples", 500)
	v.SetDefault("estimate.include_apparent", true)
	v.SetDefault("estimate.estimand", "ate")
	v.SetDefault("estimate.propensity_clip", 1e-6)
	v.SetDefault("estimate.weight_cap", 0.0)
	v.SetDefault("estimate.failure_policy", "skip")
	v.SetDefault("estimate.concurrency", 0)
	v.SetDefault("estimate.confidence_level", 0.95)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.rate_limit", 50.0)
	v.SetDefault("server.rate_burst", 100)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Default returns the configuration used when no file or environment
// overrides are present.
func Default() *Config {
	return &Config{
		Store: StoreConfig{
			Driver:     "sqlite",
			SQLitePath: "ipwboot.db",
		},
		Estimate: EstimateConfig{
			Resamples:       500,
			IncludeApparent: true,
			Estimand:        "ate",
			PropensityClip:  1e-6,
			FailurePolicy:   "skip",
			ConfidenceLevel: 0.95,
		},
		Server: ServerConfig{
			Port:      8080,
			RateLimit: 50,
			RateBurst: 100,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// WriteExample writes the default configuration to path as YAML.
func WriteExample(path string) error {
	out, err := yaml.Marshal(Default())
	if err != nil {
		return eris.Wrap(err, "config: marshal example")
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return eris.Wrap(err, "config: write example")
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
