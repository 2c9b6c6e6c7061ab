package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Archive     ArchiveConfig     `yaml:"archive" mapstructure:"archive"`
	Apollo      ApolloConfig      `yaml:"apollo" mapstructure:"apollo"`
	WebScrape   WebScrapeConfig   `yaml:"webscrape" mapstructure:"webscrape"`
	CSVDrop     CSVDropConfig     `yaml:"csvdrop" mapstructure:"csvdrop"`
	Acquire     AcquireConfig     `yaml:"acquire" mapstructure:"acquire"`
	Fingerprint FingerprintConfig `yaml:"fingerprint" mapstructure:"fingerprint"`
	Audit       AuditConfig       `yaml:"audit" mapstructure:"audit"`
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
}

// ArchiveConfig configures the campaign archive backend.
type ArchiveConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"` // "sqlite" or "postgres"
	Path        string `yaml:"path" mapstructure:"path"`     // sqlite file
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// ApolloConfig holds the primary source credentials.
type ApolloConfig struct {
	BaseURL string  `yaml:"base_url" mapstructure:"base_url"`
	APIKey  string  `yaml:"api_key" mapstructure:"api_key"`
	RPS     float64 `yaml:"rps" mapstructure:"rps"`
}

// WebScrapeConfig holds the directory-scraper backup source settings.
type WebScrapeConfig struct {
	BaseURL string  `yaml:"base_url" mapstructure:"base_url"`
	Token   string  `yaml:"token" mapstructure:"token"`
	RPS     float64 `yaml:"rps" mapstructure:"rps"`
}

// CSVDropConfig holds the partner FTP drop-box settings.
type CSVDropConfig struct {
	Addr     string `yaml:"addr" mapstructure:"addr"`
	User     string `yaml:"user" mapstructure:"user"`
	Password string `yaml:"password" mapstructure:"password"`
	Dir      string `yaml:"dir" mapstructure:"dir"`
}

// BackupSourceConfig names one backup adapter and its oversample factor.
type BackupSourceConfig struct {
	AdapterID  string  `yaml:"adapter_id" mapstructure:"adapter_id"`
	Oversample float64 `yaml:"oversample" mapstructure:"oversample"`
}

// AcquireConfig tunes the acquisition orchestrator.
type AcquireConfig struct {
	Primary           string               `yaml:"primary" mapstructure:"primary"`
	Backups           []BackupSourceConfig `yaml:"backups" mapstructure:"backups"`
	MaxParallel       int                  `yaml:"max_parallel" mapstructure:"max_parallel"`
	SourceTimeoutSecs int                  `yaml:"source_timeout_secs" mapstructure:"source_timeout_secs"`
}

// SourceTimeout returns the per-source timeout as a duration.
func (c AcquireConfig) SourceTimeout() time.Duration {
	return time.Duration(c.SourceTimeoutSecs) * time.Second
}

// FingerprintConfig exposes the Tier 3 name-fold aggressiveness.
type FingerprintConfig struct {
	StripDiacritics  bool `yaml:"strip_diacritics" mapstructure:"strip_diacritics"`
	CollapseInitials bool `yaml:"collapse_initials" mapstructure:"collapse_initials"`
}

// AuditConfig controls raw-record retention.
type AuditConfig struct {
	KeepRaw bool   `yaml:"keep_raw" mapstructure:"keep_raw"`
	Dir     string `yaml:"dir" mapstructure:"dir"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
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
	v.SetEnvPrefix("LEADGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("archive.driver", "sqlite")
	v.SetDefault("archive.path", "leadgen.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("apollo.base_url", "https://api.apollo.io")
	v.SetDefault("apollo.rps", 1)
	v.SetDefault("webscrape.rps", 2)
	v.SetDefault("acquire.primary", "apollo")
	v.SetDefault("acquire.max_parallel", 3)
	v.SetDefault("acquire.source_timeout_secs", 120)
	v.SetDefault("fingerprint.strip_diacritics", true)
	v.SetDefault("fingerprint.collapse_initials", false)

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
