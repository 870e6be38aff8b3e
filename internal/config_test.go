package internal

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/koukeneko/blogd/internal/models"
	pkgconfig "github.com/koukeneko/blogd/pkg/config"
)

var testAuthor = models.Author{Name: "Neko", Email: "neko@example.com"}

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: "", Author: testAuthor}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{Mode: "", Token: "", Author: testAuthor}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenModeValid(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: "mysecret", Author: testAuthor}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("token mode with token should pass: %v", err)
	}
	if !cfg.AuthEnabled() {
		t.Error("token mode should be enabled")
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: ""}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "magic", Token: "x"}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestFullConfig_AuthValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Mode = "token"
	cfg.Auth.Token = ""
	err := cfg.Validate()
	if err == nil {
		t.Fatal("full config validate should catch auth error")
	}
}

func TestAuthConfig_AuthorEmailRequired(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled"}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("missing author email should fail")
	}
	if !strings.Contains(err.Error(), "author") {
		t.Errorf("unexpected error: %v", err)
	}

	cfg.Author.Email = "not-an-email"
	if err := cfg.Validate(); err == nil {
		t.Fatal("malformed author email should fail")
	}
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.App.HTTP.Address() != ":8080" {
		t.Errorf("address = %q, want :8080", cfg.App.HTTP.Address())
	}
	if cfg.HackMD.Timeout != 15*time.Second {
		t.Errorf("hackmd timeout = %v", cfg.HackMD.Timeout)
	}
}

func TestFullConfig_SectionErrors(t *testing.T) {
	tests := map[string]func(c *Config){
		"port":       func(c *Config) { c.App.HTTP.Port = 70000 },
		"sqlite":     func(c *Config) { c.SQLite.Path = "" },
		"hackmd url": func(c *Config) { c.HackMD.APIBaseURL = "::not a url" },
		"rss":        func(c *Config) { c.RSS.Timeout = -time.Second },
		"catalogue":  func(c *Config) { c.Catalogue.Path = "" },
		"cache":      func(c *Config) { c.Cache.Dir = "" },
		"interval":   func(c *Config) { c.Cache.RefreshInterval = -time.Minute },
		"covers":     func(c *Config) { c.Covers.Dir = "" },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestLoadConfigFile(t *testing.T) {
	t.Setenv("BLOGD_TEST_TOKEN", "s3cret")
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
app:
  log_level: debug
  http:
    port: 9090
auth:
  mode: token
  token: ${BLOGD_TEST_TOKEN}
  author:
    name: Neko
    email: neko@example.com
cache:
  dir: ./cache
  refresh_interval: 5m
toc:
  unique_ids: true
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := NewDefaultConfig()
	if err := pkgconfig.Load(path, cfg); err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.App.LogLevel != slog.LevelDebug {
		t.Errorf("log level = %v", cfg.App.LogLevel)
	}
	if cfg.App.HTTP.Port != 9090 {
		t.Errorf("port = %d", cfg.App.HTTP.Port)
	}
	if cfg.Auth.Token != "s3cret" {
		t.Errorf("token = %q, want env expansion", cfg.Auth.Token)
	}
	if cfg.Auth.Author.Email != "neko@example.com" {
		t.Errorf("author email = %q", cfg.Auth.Author.Email)
	}
	if cfg.Cache.RefreshInterval != 5*time.Minute {
		t.Errorf("refresh interval = %v", cfg.Cache.RefreshInterval)
	}
	if !cfg.TOC.UniqueIDs {
		t.Error("unique_ids should be set")
	}
	// Untouched sections keep their defaults.
	if cfg.Covers.Dir != "./data/covers" {
		t.Errorf("covers dir = %q", cfg.Covers.Dir)
	}
}
