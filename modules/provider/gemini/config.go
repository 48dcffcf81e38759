package gemini

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"
)

// Config holds the configuration for the Gemini provider.
type Config struct {
	BaseURL   string        `yaml:"base_url"`
	UploadURL string        `yaml:"upload_url"`
	APIKey    string        `yaml:"api_key"`
	APIKeyEnv string        `yaml:"api_key_env"`
	Model     string        `yaml:"model"`
	Timeout   time.Duration `yaml:"timeout"`
}

// defaults sets default values for unset fields.
func (c *Config) defaults() {
	if c.BaseURL == "" {
		c.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if c.UploadURL == "" {
		c.UploadURL = "https://generativelanguage.googleapis.com/upload/v1beta"
	}
	if c.Model == "" {
		c.Model = "gemini-1.5-flash"
	}
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	c.UploadURL = strings.TrimRight(c.UploadURL, "/")
}

// apiKey resolves the key from config or the configured environment variable.
func (c *Config) apiKey() string {
	if c.APIKey != "" {
		return c.APIKey
	}
	if c.APIKeyEnv != "" {
		return os.Getenv(c.APIKeyEnv)
	}
	return ""
}

// validate returns an error if required fields are missing.
func (c *Config) validate() error {
	for name, raw := range map[string]string{"base_url": c.BaseURL, "upload_url": c.UploadURL} {
		u, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("provider.gemini: %s is not a valid URL: %w", name, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("provider.gemini: %s scheme must be http or https, got %q", name, u.Scheme)
		}
	}
	if c.APIKey == "" && c.APIKeyEnv == "" {
		return fmt.Errorf("provider.gemini: one of api_key or api_key_env is required")
	}
	if c.Model == "" {
		return errMissingField("model")
	}
	return nil
}

// errMissingField returns a validation error for a missing required field.
func errMissingField(field string) error {
	return fmt.Errorf("provider.gemini: %s is required", field)
}
