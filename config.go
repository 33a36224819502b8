package datablocks

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v2"

	"github.com/channely/datablocks-editor/errs"
)

// Config is the engine-wide configuration surface and 6
// name, loadable from YAML or TOML in addition to Configure.
type Config struct {
	MaxConcurrentExecutions int           `yaml:"maxConcurrentExecutions" toml:"maxConcurrentExecutions"`
	ExecutionTimeout        time.Duration `yaml:"executionTimeout" toml:"executionTimeout"`
	MaxFileSizeBytes        int64         `yaml:"maxFileSizeBytes" toml:"maxFileSizeBytes"`
}

// DefaultConfig matches defaults: maxConcurrentExecutions
// 4, executionTimeout 30s, plus a 50MB file-size cap.
func DefaultConfig() Config {
	return Config{
		MaxConcurrentExecutions: 4,
		ExecutionTimeout:        30 * time.Second,
		MaxFileSizeBytes:        50 * 1024 * 1024,
	}
}

func (c Config) validate() error {
	if c.MaxConcurrentExecutions < 1 {
		return errs.ErrConfiguration.New("maxConcurrentExecutions must be >= 1, got %d", c.MaxConcurrentExecutions)
	}
	if c.ExecutionTimeout < time.Second {
		return errs.ErrConfiguration.New("executionTimeout must be >= 1000ms, got %s", c.ExecutionTimeout)
	}
	return nil
}

// configFile is the on-disk shape: YAML/TOML represent durations as
// milliseconds, since neither library parses Go duration strings by
// default.
type configFile struct {
	MaxConcurrentExecutions int   `yaml:"maxConcurrentExecutions" toml:"maxConcurrentExecutions"`
	ExecutionTimeoutMs      int64 `yaml:"executionTimeoutMs" toml:"executionTimeoutMs"`
	MaxFileSizeBytes        int64 `yaml:"maxFileSizeBytes" toml:"maxFileSizeBytes"`
}

// LoadConfig reads a YAML or TOML file (dispatched on extension) into
// Config and applies it via Configure.
func (e *Engine) LoadConfig(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errs.ErrFile.New("load config: %s", err)
	}

	var cf configFile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cf); err != nil {
			return errs.ErrConfiguration.New("parse yaml config: %s", err)
		}
	case ".toml":
		if _, err := toml.Decode(string(data), &cf); err != nil {
			return errs.ErrConfiguration.New("parse toml config: %s", err)
		}
	default:
		return errs.ErrConfiguration.New("unsupported config extension %q", filepath.Ext(path))
	}

	cfg := DefaultConfig()
	if cf.MaxConcurrentExecutions > 0 {
		cfg.MaxConcurrentExecutions = cf.MaxConcurrentExecutions
	}
	if cf.ExecutionTimeoutMs > 0 {
		cfg.ExecutionTimeout = time.Duration(cf.ExecutionTimeoutMs) * time.Millisecond
	}
	if cf.MaxFileSizeBytes > 0 {
		cfg.MaxFileSizeBytes = cf.MaxFileSizeBytes
	}
	return e.Configure(cfg)
}
