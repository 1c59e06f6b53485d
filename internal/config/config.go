package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/viper"
)

const (
	BackendBBolt  = "bbolt"
	BackendSQLite = "sqlite"
	BackendNone   = "none"

	ThemeLight  = "light"
	ThemeDark   = "dark"
	ThemeSystem = "system"
)

type Config struct {
	Site       SiteConfig       `mapstructure:"site"`
	Content    ContentConfig    `mapstructure:"content"`
	Server     ServerConfig     `mapstructure:"server"`
	Build      BuildConfig      `mapstructure:"build"`
	Theme      ThemeConfig      `mapstructure:"theme"`
	Newsletter NewsletterConfig `mapstructure:"newsletter"`
	Social     []SocialLink     `mapstructure:"social"`
	Log        LogConfig        `mapstructure:"log"`
}

type SiteConfig struct {
	Name        string `mapstructure:"name"`
	URL         string `mapstructure:"url"`
	Description string `mapstructure:"description"`
	Author      string `mapstructure:"author"`
}

type ContentConfig struct {
	Dir       string `mapstructure:"dir"`
	Extension string `mapstructure:"extension"`
}

type ServerConfig struct {
	Addr          string `mapstructure:"addr"`
	SessionSecret string `mapstructure:"session_secret"` // SessionSecret signs the flash message cookie. Random per process when empty.
	CookieSecure  bool   `mapstructure:"cookie_secure"`
}

type BuildConfig struct {
	Out string `mapstructure:"out"`
}

type ThemeConfig struct {
	Mode   string `mapstructure:"mode"`
	Accent string `mapstructure:"accent"`
}

type NewsletterConfig struct {
	Backend   string   `mapstructure:"backend"`
	Path      string   `mapstructure:"path"`
	Interests []string `mapstructure:"interests"`
}

type SocialLink struct {
	Name string `mapstructure:"name"`
	URL  string `mapstructure:"url"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// SetDefaults registers the default value of every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("site.name", "Markdown Blog")
	v.SetDefault("site.url", "http://localhost:3000")
	v.SetDefault("site.description", "A blog built from markdown files")
	v.SetDefault("site.author", "")
	v.SetDefault("content.dir", "content")
	v.SetDefault("content.extension", ".md")
	v.SetDefault("server.addr", ":3000")
	v.SetDefault("server.session_secret", "")
	v.SetDefault("server.cookie_secure", false)
	v.SetDefault("build.out", "public")
	v.SetDefault("theme.mode", ThemeSystem)
	v.SetDefault("theme.accent", "#2563eb")
	v.SetDefault("newsletter.backend", BackendBBolt)
	v.SetDefault("newsletter.path", "data/subscribers.db")
	v.SetDefault("newsletter.interests", []string{"Web Development", "Design", "JavaScript", "React"})
	v.SetDefault("social", []map[string]string{
		{"name": "GitHub", "url": "https://github.com"},
		{"name": "Twitter", "url": "https://twitter.com"},
	})
	v.SetDefault("log.level", "info")
}

// Load reads the configuration. An explicit path must exist; otherwise markblog.yaml (or .toml)
// in the working directory is used when present. Environment variables prefixed with
// MARKBLOG_ override both, e.g. MARKBLOG_SERVER_ADDR.
func Load(path string) (Config, error) {
	v := viper.New()
	SetDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("markblog")
	}

	v.SetEnvPrefix("MARKBLOG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks the enumerated settings.
func (c Config) Validate() error {
	switch c.Theme.Mode {
	case ThemeLight, ThemeDark, ThemeSystem:
	default:
		return fmt.Errorf("invalid theme.mode %q: must be light, dark or system", c.Theme.Mode)
	}

	switch c.Newsletter.Backend {
	case BackendBBolt, BackendSQLite, BackendNone:
	default:
		return fmt.Errorf("invalid newsletter.backend %q: must be bbolt, sqlite or none", c.Newsletter.Backend)
	}

	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}

	return nil
}

// ParseLevel converts a log level name to a slog.Level.
func ParseLevel(level string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return l, nil
}
