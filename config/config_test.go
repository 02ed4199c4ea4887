package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/GoCodeAlone/taskvoice/provider"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Provider.Name != LocalProvider {
		t.Errorf("provider = %q, want %q", cfg.Provider.Name, LocalProvider)
	}
	if cfg.Remote() {
		t.Error("default config should not be remote")
	}
	if cfg.Provider.MaxTokens != 500 || cfg.Provider.Temperature != 0.7 {
		t.Errorf("provider defaults = %+v", cfg.Provider)
	}
	if !cfg.Notifications.Speak {
		t.Error("speech should be on by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoad(t *testing.T) {
	t.Setenv(APIKeyEnv, "")
	path := writeConfig(t, `
data_dir: /tmp/tv
log_level: debug
timezone: Europe/Berlin
provider:
  name: anthropic
  api_key: sk-test
  model: claude-3-5-haiku-latest
user:
  name: Sam
  current_projects: [Launch, Garden]
notifications:
  speak: false
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database() != filepath.Join("/tmp/tv", "taskvoice.db") {
		t.Errorf("Database = %q", cfg.Database())
	}
	if cfg.Provider.Name != "anthropic" || cfg.Provider.APIKey != "sk-test" {
		t.Errorf("provider = %+v", cfg.Provider)
	}
	// Unset keys keep their defaults.
	if cfg.Provider.MaxTokens != 500 {
		t.Errorf("max_tokens = %d, want default 500", cfg.Provider.MaxTokens)
	}
	if cfg.User.Name != "Sam" || len(cfg.User.CurrentProjects) != 2 {
		t.Errorf("user = %+v", cfg.User)
	}
	if cfg.Notifications.Speak {
		t.Error("speak should be false")
	}
	if !cfg.Remote() {
		t.Error("anthropic config should be remote")
	}
	loc, err := cfg.Location()
	if err != nil {
		t.Fatalf("Location: %v", err)
	}
	if loc.String() != "Europe/Berlin" {
		t.Errorf("location = %s", loc)
	}

	ps := cfg.ProviderSettings()
	if ps.Name != "anthropic" || ps.Model != "claude-3-5-haiku-latest" || ps.MaxTokens != 500 {
		t.Errorf("ProviderSettings = %+v", ps)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv(APIKeyEnv, "from-env")
	path := writeConfig(t, "provider:\n  name: openai\n  api_key: from-file\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Provider.APIKey != "from-env" {
		t.Errorf("api key = %q, want from-env", cfg.Provider.APIKey)
	}
}

func TestLoadMissing(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.yaml")
	if _, err := Load(missing); err == nil {
		t.Fatal("expected error for missing file")
	}
	cfg, err := LoadOrDefault(missing)
	if err != nil {
		t.Fatalf("LoadOrDefault: %v", err)
	}
	if cfg.Provider.Name != LocalProvider {
		t.Errorf("provider = %q", cfg.Provider.Name)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeConfig(t, "provider: [unterminated")
	if _, err := LoadOrDefault(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown provider", func(c *Config) { c.Provider.Name = "watson" }},
		{"bad level", func(c *Config) { c.LogLevel = "chatty" }},
		{"bad timezone", func(c *Config) { c.Timezone = "Mars/Olympus" }},
		{"temperature", func(c *Config) { c.Provider.Temperature = 3 }},
		{"max tokens", func(c *Config) { c.Provider.MaxTokens = -1 }},
		{"no storage", func(c *Config) { c.DataDir = ""; c.DBPath = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}

	cfg := DefaultConfig()
	cfg.Provider.Name = "watson"
	if err := cfg.Validate(); !errors.Is(err, provider.ErrUnknownProvider) {
		t.Errorf("err = %v, want ErrUnknownProvider", err)
	}

	cfg = DefaultConfig()
	cfg.Provider.Name = "Ollama"
	if err := cfg.Validate(); err != nil {
		t.Errorf("provider names are case-insensitive: %v", err)
	}
}
