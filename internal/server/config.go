package server

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// ErrInvalidConfig wraps every configuration validation failure.
var ErrInvalidConfig = errors.New("invalid config")

const (
	defaultAddress     = "localhost"
	defaultPort        = 8080
	defaultLogLevel    = "info"
	defaultHistoryPath = "handscope.db"
	defaultRecentLimit = 20
	defaultMaxBatch    = 1000
)

// Config is the analysis service configuration.
type Config struct {
	Server  ServerSettings
	History HistorySettings
	Limits  LimitSettings
}

// ServerSettings controls the listener and logging.
type ServerSettings struct {
	Address  string `hcl:"address,optional"`
	Port     int    `hcl:"port,optional"`
	LogLevel string `hcl:"log_level,optional"`
}

// HistorySettings controls the SQLite analysis history.
type HistorySettings struct {
	Enabled     bool
	Path        string
	RecentLimit int
}

// LimitSettings bounds request work.
type LimitSettings struct {
	MaxBatch int `hcl:"max_batch,optional"`
	Workers  int `hcl:"workers,optional"`
}

// configFile mirrors the HCL layout. Blocks are pointers so each is optional.
type configFile struct {
	Server  *ServerSettings `hcl:"server,block"`
	History *historyBlock   `hcl:"history,block"`
	Limits  *LimitSettings  `hcl:"limits,block"`
}

type historyBlock struct {
	Enabled     *bool  `hcl:"enabled,optional"`
	Path        string `hcl:"path,optional"`
	RecentLimit int    `hcl:"recent_limit,optional"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerSettings{
			Address:  defaultAddress,
			Port:     defaultPort,
			LogLevel: defaultLogLevel,
		},
		History: HistorySettings{
			Path:        defaultHistoryPath,
			RecentLimit: defaultRecentLimit,
		},
		Limits: LimitSettings{
			MaxBatch: defaultMaxBatch,
		},
	}
}

// LoadConfig reads an HCL config file. A missing file yields the defaults.
func LoadConfig(filename string) (*Config, error) {
	src, err := os.ReadFile(filename)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return ParseConfig(src, filename)
}

// ParseConfig decodes HCL source, applies defaults and validates the result.
func ParseConfig(src []byte, filename string) (*Config, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var raw configFile
	if diags := gohcl.DecodeBody(file.Body, nil, &raw); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diagsError(diags))
	}

	config := DefaultConfig()
	if raw.Server != nil {
		if raw.Server.Address != "" {
			config.Server.Address = raw.Server.Address
		}
		if raw.Server.Port != 0 {
			config.Server.Port = raw.Server.Port
		}
		if raw.Server.LogLevel != "" {
			config.Server.LogLevel = raw.Server.LogLevel
		}
	}
	if raw.History != nil {
		// A history block turns history on unless it says otherwise.
		config.History.Enabled = raw.History.Enabled == nil || *raw.History.Enabled
		if raw.History.Path != "" {
			config.History.Path = raw.History.Path
		}
		if raw.History.RecentLimit != 0 {
			config.History.RecentLimit = raw.History.RecentLimit
		}
	}
	if raw.Limits != nil {
		if raw.Limits.MaxBatch != 0 {
			config.Limits.MaxBatch = raw.Limits.MaxBatch
		}
		config.Limits.Workers = raw.Limits.Workers
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func diagsError(diags hcl.Diagnostics) string {
	if len(diags) == 1 {
		return diags[0].Error()
	}
	return diags.Error()
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", ErrInvalidConfig, c.Server.Port)
	}
	if _, err := log.ParseLevel(c.Server.LogLevel); err != nil {
		return fmt.Errorf("%w: log_level %q", ErrInvalidConfig, c.Server.LogLevel)
	}
	if c.History.Enabled && c.History.Path == "" {
		return fmt.Errorf("%w: history path must be set when history is enabled", ErrInvalidConfig)
	}
	if c.History.RecentLimit < 1 {
		return fmt.Errorf("%w: recent_limit must be positive", ErrInvalidConfig)
	}
	if c.Limits.MaxBatch < 1 {
		return fmt.Errorf("%w: max_batch must be positive", ErrInvalidConfig)
	}
	if c.Limits.Workers < 0 {
		return fmt.Errorf("%w: workers cannot be negative", ErrInvalidConfig)
	}
	return nil
}

// Address returns the host:port to listen on.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}

// Level returns the parsed log level, falling back to info.
func (c *Config) Level() log.Level {
	level, err := log.ParseLevel(c.Server.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return level
}
