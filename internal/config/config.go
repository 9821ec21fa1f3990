// Package config loads settings from config.yaml and STOCKRATINGS_* environment variables.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config file and environment
const (
	configName = "config"
	configType = "yaml"
	envPrefix  = "STOCKRATINGS"
)

// Defaults
const (
	DefaultBaseURL       = "https://api.karenai.click/swechallenge/list"
	DefaultRawFile       = "data/output.json"
	DefaultFlattenedFile = "data/formatted-data.json"
	defaultServerPort    = 3000
	defaultPageSize      = 5
)

// Config holds the full application configuration.
type Config struct {
	API     APIConfig     `yaml:"api" mapstructure:"api"`
	Files   FilesConfig   `yaml:"files" mapstructure:"files"`
	Flatten FlattenConfig `yaml:"flatten" mapstructure:"flatten"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Score   ScoreConfig   `yaml:"score" mapstructure:"score"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// APIConfig points at the paginated ratings endpoint.
type APIConfig struct {
	BaseURL           string  `yaml:"base_url" mapstructure:"base_url"`
	Token             string  `yaml:"token" mapstructure:"token"`
	TimeoutSecs       int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
}

// FilesConfig names the raw pages file and the flattened items file.
type FilesConfig struct {
	Raw       string `yaml:"raw" mapstructure:"raw"`
	Flattened string `yaml:"flattened" mapstructure:"flattened"`
}

type FlattenConfig struct {
	NormalizeMoney bool `yaml:"normalize_money" mapstructure:"normalize_money"`
}

// ServerConfig configures the read-only ratings API.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	PageSize       int      `yaml:"page_size" mapstructure:"page_size"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// ScoreConfig locates the k-means model used for recommendations.
type ScoreConfig struct {
	ModelPath string `yaml:"model_path" mapstructure:"model_path"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName(configName)
	v.SetConfigType(configType)
	v.AddConfigPath(".")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("api.base_url", DefaultBaseURL)
	v.SetDefault("api.token", "")
	v.SetDefault("api.timeout_secs", 0)
	v.SetDefault("api.requests_per_second", 0)
	v.SetDefault("files.raw", DefaultRawFile)
	v.SetDefault("files.flattened", DefaultFlattenedFile)
	v.SetDefault("flatten.normalize_money", true)
	v.SetDefault("server.port", defaultServerPort)
	v.SetDefault("server.page_size", defaultPageSize)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("score.model_path", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

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

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
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
