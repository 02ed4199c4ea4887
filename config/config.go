// Package config defines the taskvoice configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/GoCodeAlone/taskvoice/provider"
)

// APIKeyEnv overrides provider.api_key when set.
const APIKeyEnv = "TASKVOICE_API_KEY"

// LocalProvider disables remote processing; utterances are answered by the
// on-device extractor and templates.
const LocalProvider = "local"

// Config is the top-level taskvoice configuration.
type Config struct {
	DataDir       string             `json:"data_dir" yaml:"data_dir"`
	DBPath        string             `json:"db_path,omitempty" yaml:"db_path"` // defaults to <data_dir>/taskvoice.db
	LogLevel      string             `json:"log_level" yaml:"log_level"`
	Timezone      string             `json:"timezone,omitempty" yaml:"timezone"` // IANA name, empty for local time
	Provider      ProviderConfig     `json:"provider" yaml:"provider"`
	User          UserConfig         `json:"user" yaml:"user"`
	Notifications NotificationConfig `json:"notifications" yaml:"notifications"`
}

// ProviderConfig selects the remote model backend.
type ProviderConfig struct {
	Name        string  `json:"name" yaml:"name"` // "local", "openai", "anthropic", "ollama", "gemini", "mock"
	APIKey      string  `json:"api_key,omitempty" yaml:"api_key"`
	Model       string  `json:"model,omitempty" yaml:"model"`
	BaseURL     string  `json:"base_url,omitempty" yaml:"base_url"`
	Temperature float64 `json:"temperature" yaml:"temperature"`
	MaxTokens   int     `json:"max_tokens" yaml:"max_tokens"`
}

// UserConfig seeds the user memory the assistant personalizes replies with.
type UserConfig struct {
	Name            string   `json:"name,omitempty" yaml:"name"`
	CurrentProjects []string `json:"current_projects,omitempty" yaml:"current_projects"`
}

// NotificationConfig controls voice output.
type NotificationConfig struct {
	Speak bool `json:"speak" yaml:"speak"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		DataDir:  defaultDataDir(),
		LogLevel: "info",
		Provider: ProviderConfig{
			Name:        LocalProvider,
			Temperature: 0.7,
			MaxTokens:   500,
		},
		Notifications: NotificationConfig{Speak: true},
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./data"
	}
	return filepath.Join(home, ".taskvoice")
}

// DefaultPath is where the CLI looks for a config file.
func DefaultPath() string {
	return filepath.Join(defaultDataDir(), "config.yaml")
}

// Load reads a YAML config file over the defaults and applies environment
// overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.applyEnv()
	return cfg, nil
}

// LoadOrDefault is Load, except that a missing file yields the defaults.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		cfg = DefaultConfig()
		cfg.applyEnv()
		return cfg, nil
	}
	return cfg, err
}

func (c *Config) applyEnv() {
	if key := os.Getenv(APIKeyEnv); key != "" {
		c.Provider.APIKey = key
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.DataDir == "" && c.DBPath == "" {
		return errors.New("config: data_dir or db_path is required")
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("config: log_level: %w", err)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	name := strings.ToLower(c.Provider.Name)
	if name != LocalProvider && !slices.Contains(provider.Names, name) {
		return fmt.Errorf("config: provider %q: %w", c.Provider.Name, provider.ErrUnknownProvider)
	}
	if c.Provider.Temperature < 0 || c.Provider.Temperature > 2 {
		return fmt.Errorf("config: provider temperature %v out of range [0, 2]", c.Provider.Temperature)
	}
	if c.Provider.MaxTokens < 0 {
		return fmt.Errorf("config: provider max_tokens %d is negative", c.Provider.MaxTokens)
	}
	return nil
}

// Database returns the SQLite database path.
func (c *Config) Database() string {
	if c.DBPath != "" {
		return c.DBPath
	}
	return filepath.Join(c.DataDir, "taskvoice.db")
}

// Location resolves Timezone, falling back to local time when it is empty.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("config: timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Remote reports whether utterances should go to a remote model first.
func (c *Config) Remote() bool {
	return !strings.EqualFold(c.Provider.Name, LocalProvider) && c.Provider.Name != ""
}

// ProviderSettings converts the provider section for provider.New.
func (c *Config) ProviderSettings() provider.Config {
	return provider.Config{
		Name:      c.Provider.Name,
		APIKey:    c.Provider.APIKey,
		Model:     c.Provider.Model,
		BaseURL:   c.Provider.BaseURL,
		MaxTokens: c.Provider.MaxTokens,
	}
}
