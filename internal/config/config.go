package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store   StoreConfig  `yaml:"store" mapstructure:"store"`
	Log     LogConfig    `yaml:"log" mapstructure:"log"`
	Server  ServerConfig `yaml:"server" mapstructure:"server"`
	Parse   ParseConfig  `yaml:"parse" mapstructure:"parse"`
	Import  ImportConfig `yaml:"import" mapstructure:"import"`
	Audit   AuditConfig  `yaml:"audit" mapstructure:"audit"`
	Aliases AliasConfig  `yaml:"aliases" mapstructure:"aliases"`
	Blob    BlobConfig   `yaml:"blob" mapstructure:"blob"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"` // postgres | sqlite
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// LogConfig configures the global zap logger.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// ServerConfig configures the HTTP transport.
type ServerConfig struct {
	Port            int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins  []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	RequestTimeoutS int      `yaml:"request_timeout_secs" mapstructure:"request_timeout_secs"`
}

// ParseConfig holds parser guards and extraction caps.
type ParseConfig struct {
	MaxFileBytes          int64 `yaml:"max_file_bytes" mapstructure:"max_file_bytes"`
	MaxRows               int   `yaml:"max_rows" mapstructure:"max_rows"`
	MaxRecords            int   `yaml:"max_records" mapstructure:"max_records"`
	MaxValidationErrors   int   `yaml:"max_validation_errors" mapstructure:"max_validation_errors"`
	MaxHoldTimeViolations int   `yaml:"max_hold_time_violations" mapstructure:"max_hold_time_violations"`
	DedupMaxSpanDays      int   `yaml:"dedup_max_span_days" mapstructure:"dedup_max_span_days"`
	WarningLogLines       int   `yaml:"warning_log_lines" mapstructure:"warning_log_lines"`
	ErrorDetailChars      int   `yaml:"error_detail_chars" mapstructure:"error_detail_chars"`
	TimeoutSecs           int   `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// ImportConfig configures the domain importer.
type ImportConfig struct {
	BatchSize    int      `yaml:"batch_size" mapstructure:"batch_size"`
	AllowedRoles []string `yaml:"allowed_roles" mapstructure:"allowed_roles"`
}

// AuditConfig configures audit-trail retries.
type AuditConfig struct {
	MaxAttempts      int     `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int     `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	Multiplier       float64 `yaml:"multiplier" mapstructure:"multiplier"`
}

// AliasConfig configures background outfall-alias persistence.
type AliasConfig struct {
	QueueSize  int     `yaml:"queue_size" mapstructure:"queue_size"`
	RatePerSec float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	Burst      int     `yaml:"burst" mapstructure:"burst"`
}

// BlobConfig selects where uploaded source files are read from.
type BlobConfig struct {
	Driver       string `yaml:"driver" mapstructure:"driver"` // local | s3
	LocalDir     string `yaml:"local_dir" mapstructure:"local_dir"`
	Bucket       string `yaml:"bucket" mapstructure:"bucket"`
	Region       string `yaml:"region" mapstructure:"region"`
	Endpoint     string `yaml:"endpoint" mapstructure:"endpoint"`
	Prefix       string `yaml:"prefix" mapstructure:"prefix"`
	UsePathStyle bool   `yaml:"use_path_style" mapstructure:"use_path_style"`
	AccessKey    string `yaml:"access_key" mapstructure:"access_key"`
	SecretKey    string `yaml:"secret_key" mapstructure:"secret_key"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("EDD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("store.database_url", "")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 2)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.request_timeout_secs", 120)
	v.SetDefault("parse.max_file_bytes", 50<<20)
	v.SetDefault("parse.max_rows", 50000)
	v.SetDefault("parse.max_records", 5000)
	v.SetDefault("parse.max_validation_errors", 50)
	v.SetDefault("parse.max_hold_time_violations", 50)
	v.SetDefault("parse.dedup_max_span_days", 400)
	v.SetDefault("parse.warning_log_lines", 100)
	v.SetDefault("parse.error_detail_chars", 800)
	v.SetDefault("parse.timeout_secs", 300)
	v.SetDefault("import.batch_size", 50)
	v.SetDefault("import.allowed_roles", []string{"owner", "admin", "manager"})
	v.SetDefault("audit.max_attempts", 3)
	v.SetDefault("audit.initial_backoff_ms", 500)
	v.SetDefault("audit.multiplier", 2.0)
	v.SetDefault("aliases.queue_size", 64)
	v.SetDefault("aliases.rate_per_sec", 5.0)
	v.SetDefault("aliases.burst", 1)
	v.SetDefault("blob.driver", "local")
	v.SetDefault("blob.local_dir", "./uploads")
	for _, k := range []string{"bucket", "region", "endpoint", "prefix", "access_key", "secret_key"} {
		v.SetDefault("blob."+k, "")
	}
	v.SetDefault("blob.use_path_style", false)

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

// Validate checks the settings a command mode depends on. Modes: parse,
// import, serve, migrate, inspect.
func (c *Config) Validate(mode string) error {
	var errs []string
	needStore := func() {
		switch c.Store.Driver {
		case "postgres", "sqlite":
		default:
			errs = append(errs, fmt.Sprintf("store.driver %q must be postgres or sqlite", c.Store.Driver))
		}
		if c.Store.DatabaseURL == "" {
			errs = append(errs, "store.database_url is required")
		}
	}
	needBlob := func() {
		switch c.Blob.Driver {
		case "local":
			if c.Blob.LocalDir == "" {
				errs = append(errs, "blob.local_dir is required for the local driver")
			}
		case "s3":
			if c.Blob.Bucket == "" {
				errs = append(errs, "blob.bucket is required for the s3 driver")
			}
		default:
			errs = append(errs, fmt.Sprintf("blob.driver %q must be local or s3", c.Blob.Driver))
		}
	}
	needParse := func() {
		if c.Parse.MaxRows <= 0 || c.Parse.MaxFileBytes <= 0 {
			errs = append(errs, "parse.max_rows and parse.max_file_bytes must be positive")
		}
	}

	switch mode {
	case "parse":
		needStore()
		needBlob()
		needParse()
	case "import":
		needStore()
		if c.Import.BatchSize <= 0 {
			errs = append(errs, "import.batch_size must be positive")
		}
		if len(c.Import.AllowedRoles) == 0 {
			errs = append(errs, "import.allowed_roles must not be empty")
		}
	case "serve":
		needStore()
		needBlob()
		needParse()
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server.port %d is out of range", c.Server.Port))
		}
	case "migrate":
		needStore()
	case "inspect":
		needParse()
	default:
		return eris.Errorf("config: unknown validation mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
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
