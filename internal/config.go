package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/koukeneko/blogd/internal/models"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App       ApplicationConfig `yaml:"app"`
	SQLite    SQLiteConfig      `yaml:"sqlite"`
	Auth      AuthConfig        `yaml:"auth"`
	HackMD    HackMDConfig      `yaml:"hackmd"`
	RSS       RSSConfig         `yaml:"rss"`
	Catalogue CatalogueConfig   `yaml:"catalogue"`
	Cache     CacheConfig       `yaml:"cache"`
	Covers    CoversConfig      `yaml:"covers"`
	TOC       TOCConfig         `yaml:"toc"`
	Metrics   MetricsConfig     `yaml:"metrics"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	if err := c.HackMD.Validate(); err != nil {
		return fmt.Errorf("hackmd: %w", err)
	}
	if err := c.RSS.Validate(); err != nil {
		return fmt.Errorf("rss: %w", err)
	}
	if err := c.Catalogue.Validate(); err != nil {
		return fmt.Errorf("catalogue: %w", err)
	}
	if err := c.Cache.Validate(); err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	return c.Covers.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// SQLiteConfig holds the posts database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
//
// Author is the user every authenticated request acts as. It is created in
// the posts database on first start.
type AuthConfig struct {
	Mode   string        `yaml:"mode"`
	Token  string        `yaml:"token"`
	Author models.Author `yaml:"author"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	// Normalise empty mode to "disabled" for backward compatibility.
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	if err := validation.ValidateStruct(&c.Author,
		validation.Field(&c.Author.Email, validation.Required, is.EmailFormat),
		validation.Field(&c.Author.Name, validation.Length(0, 100)),
	); err != nil {
		return fmt.Errorf("auth: author: %w", err)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// HackMDConfig configures the HackMD client. Without an API token only the
// public download endpoint is used.
type HackMDConfig struct {
	APIToken        string        `yaml:"api_token"`
	APIBaseURL      string        `yaml:"api_base_url"`
	Username        string        `yaml:"username"`
	DownloadBaseURL string        `yaml:"download_base_url"`
	Timeout         time.Duration `yaml:"timeout"`
}

// Validate validates the HackMD configuration.
func (c *HackMDConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.APIBaseURL, is.URL),
		validation.Field(&c.DownloadBaseURL, is.URL),
		validation.Field(&c.Timeout, validation.Min(time.Duration(0))),
	)
}

// RSSConfig configures the feed proxy.
type RSSConfig struct {
	Endpoint    string        `yaml:"endpoint"`
	SourceLabel string        `yaml:"source_label"`
	Timeout     time.Duration `yaml:"timeout"`
}

// Validate validates the RSS configuration.
func (c *RSSConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Endpoint, is.URL),
		validation.Field(&c.Timeout, validation.Min(time.Duration(0))),
	)
}

// CatalogueConfig points at the document catalogue file.
type CatalogueConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the catalogue configuration.
func (c *CatalogueConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// CacheConfig configures the document cache. A zero RefreshInterval falls
// back to the catalogue's cache_time.
type CacheConfig struct {
	Dir             string        `yaml:"dir"`
	RefreshInterval time.Duration `yaml:"refresh_interval"`
}

// Validate validates the cache configuration.
func (c *CacheConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Dir, validation.Required),
		validation.Field(&c.RefreshInterval, validation.Min(time.Duration(0))),
	)
}

// CoversConfig sets where uploaded cover images are stored.
type CoversConfig struct {
	Dir string `yaml:"dir"`
}

// Validate validates the covers configuration.
func (c *CoversConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Dir, validation.Required),
	)
}

// TOCConfig tunes heading outlines.
type TOCConfig struct {
	// UniqueIDs numbers repeated heading ids: intro, intro-2, intro-3.
	UniqueIDs bool `yaml:"unique_ids"`
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		SQLite: SQLiteConfig{
			Path: "./blogd.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
			Author: models.Author{
				Name:  "blogd",
				Email: "admin@blogd.local",
			},
		},
		HackMD: HackMDConfig{
			Timeout: 15 * time.Second,
		},
		RSS: RSSConfig{
			SourceLabel: "RSS",
			Timeout:     15 * time.Second,
		},
		Catalogue: CatalogueConfig{
			Path: "./config/documents.yaml",
		},
		Cache: CacheConfig{
			Dir: "./data/cache",
		},
		Covers: CoversConfig{
			Dir: "./data/covers",
		},
	}
}
