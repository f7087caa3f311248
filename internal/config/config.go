package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/juju/errors"
	"github.com/juju/loggo"
	"github.com/pelletier/go-toml/v2"

	"todosearch/internal/eventbus"
)

var logger = loggo.GetLogger("todosearch.config")

// Config represents the application configuration
type Config struct {
	Version int            `toml:"version"`
	Search  SearchSettings `toml:"search"`
	API     APISettings    `toml:"api"`
	Cache   CacheSettings  `toml:"cache"`
	UI      UISettings     `toml:"ui"`
	Log     LogSettings    `toml:"log"`
}

// SearchSettings configures the search pipeline
type SearchSettings struct {
	DebounceMS int `toml:"debounce_ms"`
}

// APISettings configures the todo API client
type APISettings struct {
	BaseURL    string  `toml:"base_url"`
	TimeoutMS  int     `toml:"timeout_ms"`
	RatePerSec float64 `toml:"rate_per_sec"`
	Burst      int     `toml:"burst"`
	UserID     int     `toml:"user_id"`
}

// CacheSettings configures lookup memoization. Size 0 disables the cache.
type CacheSettings struct {
	Size int `toml:"size"`
}

// UISettings represents UI-related configuration
type UISettings struct {
	ShowDashboard bool `toml:"show_dashboard"`
	ShowCompleted bool `toml:"show_completed"`
	MaxResults    int  `toml:"max_results"`
}

// LogSettings configures logging. Level is a loggo specification such
// as "<root>=INFO;todosearch.search=DEBUG".
type LogSettings struct {
	File  string `toml:"file"`
	Level string `toml:"level"`
}

// Debounce returns the debounce window as a duration
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.Search.DebounceMS) * time.Millisecond
}

// Timeout returns the per-request API timeout
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.API.TimeoutMS) * time.Millisecond
}

// Validate returns an error if the configuration cannot drive the app
func (c *Config) Validate() error {
	if c.Search.DebounceMS < 0 {
		return errors.NotValidf("negative debounce_ms %d", c.Search.DebounceMS)
	}
	if c.API.BaseURL == "" {
		return errors.NotValidf("empty api.base_url")
	}
	if c.API.TimeoutMS <= 0 {
		return errors.NotValidf("api.timeout_ms %d", c.API.TimeoutMS)
	}
	if c.API.RatePerSec < 0 {
		return errors.NotValidf("negative api.rate_per_sec")
	}
	if c.Cache.Size < 0 {
		return errors.NotValidf("negative cache.size")
	}
	if c.UI.MaxResults < 0 {
		return errors.NotValidf("negative ui.max_results")
	}
	return nil
}

// ConfigService handles configuration management
type ConfigService interface {
	Load() (*Config, error)
	Save(config *Config) error
	LoadFromPath(path string) (*Config, error)
	SaveToPath(config *Config, path string) error
	Path() string
}

// configService is the concrete implementation
type configService struct {
	bus      eventbus.EventBus
	filePath string
}

// NewConfigService creates a config service using the default location
func NewConfigService() ConfigService {
	configDir, err := os.UserConfigDir()
	if err != nil {
		// Fallback to home directory
		configDir, err = os.UserHomeDir()
		if err != nil {
			configDir = "."
		}
		configDir = filepath.Join(configDir, ".config")
	}

	return &configService{
		filePath: filepath.Join(configDir, "todosearch", "config.toml"),
	}
}

// NewConfigServiceWithPath creates a config service for an explicit file
func NewConfigServiceWithPath(path string, bus eventbus.EventBus) ConfigService {
	return &configService{
		bus:      bus,
		filePath: path,
	}
}

// NewConfigServiceWithBus creates a config service with event bus support
func NewConfigServiceWithBus(bus eventbus.EventBus) ConfigService {
	cs := NewConfigService().(*configService)
	cs.bus = bus
	return cs
}

func (cs *configService) Path() string {
	return cs.filePath
}

// Load loads the configuration from file, falling back to defaults
// when the file does not exist.
func (cs *configService) Load() (*Config, error) {
	var cfg *Config
	if _, err := os.Stat(cs.filePath); os.IsNotExist(err) {
		logger.Infof("no config at %s, using defaults", cs.filePath)
		cfg = DefaultConfig()
	} else {
		cfg, err = cs.LoadFromPath(cs.filePath)
		if err != nil {
			return nil, errors.Trace(err)
		}
	}

	if cs.bus != nil {
		cs.bus.Publish(eventbus.ConfigLoadedEvent{Path: cs.filePath})
	}
	return cfg, nil
}

// Save saves the configuration to file
func (cs *configService) Save(config *Config) error {
	if err := cs.SaveToPath(config, cs.filePath); err != nil {
		return errors.Trace(err)
	}
	if cs.bus != nil {
		cs.bus.Publish(eventbus.ConfigSavedEvent{Path: cs.filePath})
	}
	return nil
}

// LoadFromPath loads configuration from a specific path. Keys missing
// from the file keep their default values.
func (cs *configService) LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.NotFoundf("config file %s", path)
	}
	if err != nil {
		return nil, errors.Annotate(err, "failed to read config file")
	}

	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Annotatef(err, "failed to parse config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Annotatef(err, "invalid config %s", path)
	}
	return cfg, nil
}

// SaveToPath saves configuration to a specific path
func (cs *configService) SaveToPath(config *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Annotate(err, "failed to create config directory")
	}

	data, err := toml.Marshal(config)
	if err != nil {
		return errors.Annotate(err, "failed to marshal config")
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Annotate(err, "failed to write config file")
	}
	return nil
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version: 1,
		Search: SearchSettings{
			DebounceMS: 300,
		},
		API: APISettings{
			BaseURL:    "https://jsonplaceholder.typicode.com",
			TimeoutMS:  5000,
			RatePerSec: 5,
			Burst:      2,
			UserID:     1,
		},
		Cache: CacheSettings{
			Size: 128,
		},
		UI: UISettings{
			ShowDashboard: true,
			ShowCompleted: true,
			MaxResults:    20,
		},
		Log: LogSettings{
			File:  "todosearch.log",
			Level: "<root>=INFO",
		},
	}
}
