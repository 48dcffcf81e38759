package messenger

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Inbound modes.
const (
	ModeWebSocket = "websocket"
	ModeWebhook   = "webhook"
)

// Config holds the messenger channel configuration.
type Config struct {
	// APIURL is the platform's HTTP API base for sending and reacting.
	APIURL string `yaml:"api_url"`

	// Token authorizes outbound API calls.
	Token string `yaml:"token"`

	// Mode selects the inbound transport: "websocket" (default) or "webhook".
	Mode string `yaml:"mode"`

	// WSURL is the event-stream endpoint for the websocket mode.
	WSURL string `yaml:"ws_url"`

	// WebhookSecret is the HMAC key for the webhook mode.
	WebhookSecret string `yaml:"webhook_secret"`

	// SelfID is the bot's own user ID; events authored by it are dropped.
	SelfID string `yaml:"self_id"`

	// AllowedUsers and AllowedGroups feed the allow-list. "*" allows all.
	AllowedUsers  []string `yaml:"allowed_users"`
	AllowedGroups []string `yaml:"allowed_groups"`

	Timeout time.Duration `yaml:"timeout"`

	// ReconnectMin/Max bound the websocket reconnect backoff.
	ReconnectMin time.Duration `yaml:"reconnect_min"`
	ReconnectMax time.Duration `yaml:"reconnect_max"`
}

func (c *Config) defaults() {
	if c.Mode == "" {
		c.Mode = ModeWebSocket
	}
	if c.Timeout == 0 {
		c.Timeout = 15 * time.Second
	}
	if c.ReconnectMin <= 0 {
		c.ReconnectMin = time.Second
	}
	if c.ReconnectMax <= 0 {
		c.ReconnectMax = time.Minute
	}
	c.APIURL = strings.TrimRight(c.APIURL, "/")
}

func (c *Config) validate() error {
	if c.APIURL == "" {
		return errMissingField("api_url")
	}
	if _, err := url.Parse(c.APIURL); err != nil {
		return fmt.Errorf("channel.messenger: api_url is not valid: %w", err)
	}
	if c.Token == "" {
		return errMissingField("token")
	}

	switch c.Mode {
	case ModeWebSocket:
		if c.WSURL == "" {
			return errMissingField("ws_url")
		}
	case ModeWebhook:
	default:
		return fmt.Errorf("channel.messenger: mode %q is not supported (websocket, webhook)", c.Mode)
	}
	return nil
}

// errMissingField returns a validation error for a missing required field.
func errMissingField(field string) error {
	return fmt.Errorf("channel.messenger: %s is required", field)
}
