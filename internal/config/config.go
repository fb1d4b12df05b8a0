package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Source drivers
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
	DriverREST   = "rest"
)

// Config represents the application configuration
type Config struct {
	Version int           `toml:"version" validate:"min=1"`
	Source  SourceConfig  `toml:"source"`
	Search  SearchConfig  `toml:"search"`
	Paging  PagingConfig  `toml:"paging"`
	Logging LoggingConfig `toml:"logging"`
	Server  ServerConfig  `toml:"server"`
}

// SourceConfig selects where events and articles come from
type SourceConfig struct {
	Driver    string `toml:"driver" validate:"oneof=memory sqlite rest"`
	Path      string `toml:"path" validate:"required_if=Driver sqlite"`
	BaseURL   string `toml:"base_url" validate:"required_if=Driver rest,omitempty,url"`
	TimeoutMS int    `toml:"timeout_ms" validate:"min=0"`
}

// SearchConfig tunes the aggregated search
type SearchConfig struct {
	DebounceMS      int `toml:"debounce_ms" validate:"min=0,max=5000"`
	PerSourceLimit  int `toml:"per_source_limit" validate:"min=1,max=100"`
	SourceTimeoutMS int `toml:"source_timeout_ms" validate:"min=0"`
}

// PagingConfig tunes the incremental list reveal
type PagingConfig struct {
	PageSize        int `toml:"page_size" validate:"min=1,max=100"`
	ScrollThreshold int `toml:"scroll_threshold" validate:"min=0"`
	RevealDelayMS   int `toml:"reveal_delay_ms" validate:"min=0,max=10000"`
}

// LoggingConfig controls the log file
type LoggingConfig struct {
	Level string `toml:"level" validate:"oneof=debug info warn error"`
	File  string `toml:"file"`
}

// ServerConfig configures `hackhub serve`
type ServerConfig struct {
	Addr string `toml:"addr" validate:"required"`
}

// Debounce returns the search debounce delay
func (c SearchConfig) Debounce() time.Duration { return ms(c.DebounceMS) }

// SourceTimeout returns the per-source search timeout
func (c SearchConfig) SourceTimeout() time.Duration { return ms(c.SourceTimeoutMS) }

// RevealDelay returns the delay before a requested page is shown
func (c PagingConfig) RevealDelay() time.Duration { return ms(c.RevealDelayMS) }

// Timeout returns the per-request timeout of remote sources
func (c SourceConfig) Timeout() time.Duration { return ms(c.TimeoutMS) }

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }

// ErrInvalid is returned when a loaded config fails validation
var ErrInvalid = errors.New("invalid config")

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("toml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks value ranges and driver requirements
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		// Namespace is "Config.section.key"; drop the root type
		field := fe.Namespace()
		if _, rest, ok := strings.Cut(field, "."); ok {
			field = rest
		}
		msgs = append(msgs, fmt.Sprintf("%s: failed %q validation", field, fe.Tag()))
	}
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
}

// ConfigService handles configuration management
type ConfigService interface {
	Load() (*Config, error)
	Save(config *Config) error
	LoadFromPath(path string) (*Config, error)
	SaveToPath(config *Config, path string) error
	Path() string
}

type configService struct {
	filePath string
}

// NewConfigService creates a config service using the default location
func NewConfigService() ConfigService {
	return &configService{filePath: DefaultPath()}
}

// NewConfigServiceAt creates a config service reading and writing path
func NewConfigServiceAt(path string) ConfigService {
	return &configService{filePath: path}
}

// DefaultPath returns $XDG_CONFIG_HOME/hackhub/config.toml, falling back to
// ~/.config when the user config dir is unknown
func DefaultPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir, err = os.UserHomeDir()
		if err != nil {
			configDir = "."
		}
		configDir = filepath.Join(configDir, ".config")
	}
	return filepath.Join(configDir, "hackhub", "config.toml")
}

func (cs *configService) Path() string { return cs.filePath }

// Load loads the configuration from file. A missing file yields the defaults.
func (cs *configService) Load() (*Config, error) {
	if _, err := os.Stat(cs.filePath); errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}
	return cs.LoadFromPath(cs.filePath)
}

// Save saves the configuration to file
func (cs *configService) Save(config *Config) error {
	return cs.SaveToPath(config, cs.filePath)
}

// LoadFromPath loads configuration from a specific path. Keys missing from
// the file keep their default values.
func (cs *configService) LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return nil, fmt.Errorf("failed to parse config %s:%d:%d: %w", path, row, col, err)
		}
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// SaveToPath saves configuration to a specific path
func (cs *configService) SaveToPath(config *Config, path string) error {
	if err := config.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version: 1,
		Source: SourceConfig{
			Driver:    DriverMemory,
			Path:      "hackhub.db",
			TimeoutMS: 10000,
		},
		Search: SearchConfig{
			DebounceMS:      300,
			PerSourceLimit:  5,
			SourceTimeoutMS: 5000,
		},
		Paging: PagingConfig{
			PageSize:        12,
			ScrollThreshold: 3,
			RevealDelayMS:   0,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "hackhub.log",
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8080",
		},
	}
}
