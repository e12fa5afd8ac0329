package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	DefaultModel    = "google/gemma-2-9b-it"
	DefaultEndpoint = "https://openrouter.ai/api/v1/chat/completions"

	// DefaultAPIKeyEnv is consulted when no credential is passed on
	// the command line.
	DefaultAPIKeyEnv = "OPENROUTER_API_KEY"

	// DefaultMaxChars bounds how much page text is sent to the model.
	DefaultMaxChars = 12000

	DefaultTimeoutSeconds = 60
	DefaultUserAgent      = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Config is the top-level application configuration.
type Config struct {
	// Model is the provider model identifier sent with each request.
	Model string `yaml:"model" json:"model"`

	// Endpoint is the chat-completions URL of the model provider.
	Endpoint string `yaml:"endpoint" json:"endpoint"`

	// APIKeyEnv names the environment variable holding the credential
	// when none is given as an argument.
	APIKeyEnv string `yaml:"api_key_env" json:"api_key_env"`

	// MaxChars is the page-text character budget for one prompt.
	// Text beyond it is truncated before the model call.
	MaxChars int `yaml:"max_chars" json:"max_chars"`

	// TimeoutSeconds bounds each outbound HTTP request.
	TimeoutSeconds int `yaml:"timeout_seconds" json:"timeout_seconds"`

	// DateOrder resolves ambiguous numeric dates like 3/4/2025.
	// Supported values:
	//   - "mdy" (default): month/day/year
	//   - "dmy": day/month/year
	DateOrder string `yaml:"date_order" json:"date_order"`

	// UserAgent is sent on page fetches; some event sites reject the
	// Go default with a 403.
	UserAgent string `yaml:"user_agent" json:"user_agent"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Model:          DefaultModel,
		Endpoint:       DefaultEndpoint,
		APIKeyEnv:      DefaultAPIKeyEnv,
		MaxChars:       DefaultMaxChars,
		TimeoutSeconds: DefaultTimeoutSeconds,
		DateOrder:      "mdy",
		UserAgent:      DefaultUserAgent,
	}
}

// DefaultPath returns the per-user config location.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", "webcal.yaml")
	}
	return filepath.Join(dir, "webcal", "config.yaml")
}

// Normalize fills in missing/zero values so partially-filled configs
// still behave correctly.
func (c *Config) Normalize() {
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.Endpoint == "" {
		c.Endpoint = DefaultEndpoint
	}
	if c.APIKeyEnv == "" {
		c.APIKeyEnv = DefaultAPIKeyEnv
	}
	if c.MaxChars <= 0 {
		c.MaxChars = DefaultMaxChars
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = DefaultTimeoutSeconds
	}
	switch c.DateOrder {
	case "mdy", "dmy":
	default:
		c.DateOrder = "mdy"
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
}

// Load loads configuration from the given YAML path.
//
// If the file does not exist, a default config is written there (0600,
// parent directory created) and returned; a save failure on first run
// still returns the usable defaults along with the error.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the configuration atomically (temp file + rename) with
// 0600 permissions, creating the parent directory if needed.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".webcal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}
