package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/rebeliceyang/ticketq/internal/models"
)

// Config holds all application configuration
type Config struct {
	General    GeneralConfig            `mapstructure:"general"`
	UI         UIConfig                 `mapstructure:"ui"`
	Web        WebConfig                `mapstructure:"web"`
	Database   models.ConnectionConfig  `mapstructure:"database"`
	History    HistoryConfig            `mapstructure:"history"`
	Favorites  FavoritesConfig          `mapstructure:"favorites"`
	Log        LogConfig                `mapstructure:"log"`
	Properties []models.Property        `mapstructure:"properties"`
	Modes      map[string][]models.Mode `mapstructure:"modes"`
	Timeouts   TimeoutConfig            `mapstructure:"timeouts"`
}

type GeneralConfig struct {
	DefaultLimit int    `mapstructure:"default_limit"`
	DefaultOrder string `mapstructure:"default_order"`
	Debug        bool   `mapstructure:"debug"`
}

type UIConfig struct {
	Theme        string `mapstructure:"theme"`
	MouseEnabled bool   `mapstructure:"mouse_enabled"`
}

type WebConfig struct {
	Addr     string `mapstructure:"addr"`
	BasePath string `mapstructure:"base_path"`
	Title    string `mapstructure:"title"`
}

type HistoryConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Path       string `mapstructure:"path"`
	MaxEntries int    `mapstructure:"max_entries"`
}

type FavoritesConfig struct {
	Dir string `mapstructure:"dir"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TimeoutConfig values are milliseconds
type TimeoutConfig struct {
	Query    int `mapstructure:"query"`
	Read     int `mapstructure:"read"`
	Write    int `mapstructure:"write"`
	Shutdown int `mapstructure:"shutdown"`
}

// GetDefaults returns a Config with all default values
func GetDefaults() *Config {
	dir := defaultDataDir()
	return &Config{
		General: GeneralConfig{
			DefaultLimit: 100,
			DefaultOrder: "priority",
		},
		UI: UIConfig{
			Theme:        "default",
			MouseEnabled: true,
		},
		Web: WebConfig{
			Addr:  "127.0.0.1:8000",
			Title: "Custom Query",
		},
		Database: models.ConnectionConfig{
			Driver:   "sqlite",
			Path:     filepath.Join(dir, "tickets.db"),
			Host:     "localhost",
			Port:     5432,
			Database: "trac",
			User:     "trac",
			SSLMode:  "prefer",
			PoolSize: 5,
		},
		History: HistoryConfig{
			Enabled:    true,
			Path:       filepath.Join(dir, "history.db"),
			MaxEntries: 1000,
		},
		Favorites: FavoritesConfig{Dir: dir},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Properties: DefaultProperties(),
		Modes:      modesByName(DefaultModes()),
		Timeouts: TimeoutConfig{
			Query:    30000,
			Read:     10000,
			Write:    30000,
			Shutdown: 5000,
		},
	}
}

// Load loads configuration from path, or from the standard locations when
// path is empty. A missing config file is not an error.
func Load(path string) (*Config, error) {
	v, err := newViper(path)
	if err != nil {
		return nil, err
	}
	return decode(v)
}

func newViper(path string) (*viper.Viper, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		// 1. User config directory
		if configDir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(configDir, "ticketq"))
		}
		// 2. Current directory
		v.AddConfigPath(".")
		// 3. Default config directory
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("TICKETQ")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v, GetDefaults())

	// Read config (it's okay if file doesn't exist, we have defaults)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}
	return v, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("general.default_limit", d.General.DefaultLimit)
	v.SetDefault("general.default_order", d.General.DefaultOrder)
	v.SetDefault("general.debug", d.General.Debug)
	v.SetDefault("ui.theme", d.UI.Theme)
	v.SetDefault("ui.mouse_enabled", d.UI.MouseEnabled)
	v.SetDefault("web.addr", d.Web.Addr)
	v.SetDefault("web.base_path", d.Web.BasePath)
	v.SetDefault("web.title", d.Web.Title)
	v.SetDefault("database.driver", d.Database.Driver)
	v.SetDefault("database.path", d.Database.Path)
	v.SetDefault("database.host", d.Database.Host)
	v.SetDefault("database.port", d.Database.Port)
	v.SetDefault("database.name", d.Database.Database)
	v.SetDefault("database.user", d.Database.User)
	v.SetDefault("database.password", "")
	v.SetDefault("database.ssl_mode", d.Database.SSLMode)
	v.SetDefault("database.pool_size", d.Database.PoolSize)
	v.SetDefault("history.enabled", d.History.Enabled)
	v.SetDefault("history.path", d.History.Path)
	v.SetDefault("history.max_entries", d.History.MaxEntries)
	v.SetDefault("favorites.dir", d.Favorites.Dir)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("timeouts.query", d.Timeouts.Query)
	v.SetDefault("timeouts.read", d.Timeouts.Read)
	v.SetDefault("timeouts.write", d.Timeouts.Write)
	v.SetDefault("timeouts.shutdown", d.Timeouts.Shutdown)
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	// Lists and maps are not merged with defaults key by key
	if len(cfg.Properties) == 0 {
		cfg.Properties = DefaultProperties()
	}
	if len(cfg.Modes) == 0 {
		cfg.Modes = modesByName(DefaultModes())
	}
	return &cfg, nil
}

// Catalog builds the property catalog described by the config
func (c *Config) Catalog() (*models.Catalog, error) {
	modes := make(map[models.PropertyType][]models.Mode, len(c.Modes))
	for t, m := range c.Modes {
		modes[models.PropertyType(t)] = m
	}
	cat, err := models.NewCatalog(c.Properties, modes)
	if err != nil {
		return nil, fmt.Errorf("invalid property catalog: %w", err)
	}
	return cat, nil
}

// Watch reloads the config file whenever it changes and hands the new config
// to fn. Reload errors are passed to fn with a nil config.
func Watch(path string, fn func(*Config, error)) error {
	v, err := newViper(path)
	if err != nil {
		return err
	}
	if v.ConfigFileUsed() == "" {
		return fmt.Errorf("no config file to watch")
	}
	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		fn(decode(v))
	})
	v.WatchConfig()
	return nil
}

// GetConfigPath returns the user config directory path
func GetConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "ticketq"), nil
}

func defaultDataDir() string {
	if dir, err := GetConfigPath(); err == nil {
		return dir
	}
	return "."
}
