// Package promptrelay provides the stateless fallback provider: a plain
// HTTP GET relay that takes one prompt string and returns one answer string,
// with no history and no attachments.
package promptrelay

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/metoushela/megan/internal/core"
	"github.com/metoushela/megan/internal/provider"
	"gopkg.in/yaml.v3"
)

func init() {
	core.RegisterModule(&Provider{})
}

// Config holds the relay endpoint configuration.
type Config struct {
	// URL is the relay endpoint; the prompt is appended as the "prompt"
	// query parameter.
	URL string `yaml:"url"`

	Timeout time.Duration `yaml:"timeout"`
}

func (c *Config) defaults() {
	if c.Timeout == 0 {
		c.Timeout = 10 * time.Second
	}
	c.URL = strings.TrimRight(c.URL, "/")
}

func (c *Config) validate() error {
	if c.URL == "" {
		return fmt.Errorf("provider.promptrelay: url is required")
	}
	u, err := url.Parse(c.URL)
	if err != nil {
		return fmt.Errorf("provider.promptrelay: url is not valid: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("provider.promptrelay: url scheme must be http or https, got %q", u.Scheme)
	}
	return nil
}

// Provider is the HTTP relay fallback.
type Provider struct {
	config Config
	client *http.Client
	logger *slog.Logger
}

// ModuleInfo implements core.Module.
func (p *Provider) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{
		ID:  "provider.promptrelay",
		New: func() core.Module { return &Provider{} },
	}
}

// Configure implements core.Configurable.
func (p *Provider) Configure(node *yaml.Node) error {
	if err := node.Decode(&p.config); err != nil {
		return err
	}
	p.config.defaults()
	return nil
}

// Provision implements core.Provisioner.
func (p *Provider) Provision(ctx *core.AppContext) error {
	p.config.defaults()
	p.logger = ctx.Logger
	p.client = &http.Client{Timeout: p.config.Timeout}

	ctx.RegisterService("provider.answerer", p)
	return nil
}

// Validate implements core.Validator.
func (p *Provider) Validate() error {
	return p.config.validate()
}

// relayResponse is the relay's wire shape.
type relayResponse struct {
	Answer string `json:"answer"`
}

// maxErrorBodySize caps how much of an error response body is read.
const maxErrorBodySize = 4096

// AnswerPrompt implements provider.Answerer.
func (p *Provider) AnswerPrompt(ctx context.Context, prompt string) (string, error) {
	endpoint := p.config.URL + "?prompt=" + url.QueryEscape(prompt)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("promptrelay: create request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("promptrelay: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return "", fmt.Errorf("%w: HTTP %d: %s", provider.ErrUpstreamStatus, resp.StatusCode, body)
	}

	var decoded relayResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("%w: %w", provider.ErrMalformedResponse, err)
	}
	if decoded.Answer == "" {
		return "", provider.ErrMissingAnswer
	}
	return decoded.Answer, nil
}

// Compile-time interface assertions.
var (
	_ core.Module       = (*Provider)(nil)
	_ core.Configurable = (*Provider)(nil)
	_ core.Provisioner  = (*Provider)(nil)
	_ core.Validator    = (*Provider)(nil)
	_ provider.Answerer = (*Provider)(nil)
)
