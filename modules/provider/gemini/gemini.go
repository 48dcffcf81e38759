// Package gemini provides the contextual primary provider backed by the
// Gemini REST API. It replays the full ordered transcript on every call and
// also hosts media uploads for attachment parts.
package gemini

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/metoushela/megan/internal/core"
	"github.com/metoushela/megan/internal/provider"
	"gopkg.in/yaml.v3"
)

func init() {
	core.RegisterModule(&Provider{})
}

// Provider is the Gemini-backed primary provider.
type Provider struct {
	config Config
	client *http.Client
	logger *slog.Logger
}

// ModuleInfo implements core.Module.
func (p *Provider) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{
		ID:  "provider.gemini",
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
	// Response-header timeout instead of a global client timeout so large
	// media fetches are bounded by the per-request context, not cut short.
	p.client = &http.Client{
		Transport: &http.Transport{
			ResponseHeaderTimeout: p.config.Timeout,
		},
	}

	ctx.RegisterService("provider.generator", p)
	ctx.RegisterService("provider.uploader", p)
	return nil
}

// Validate implements core.Validator.
func (p *Provider) Validate() error {
	return p.config.validate()
}

// Generate implements provider.Generator.
func (p *Provider) Generate(ctx context.Context, req provider.GenerateRequest) ([]provider.Candidate, error) {
	return p.doGenerate(ctx, req)
}

// ModelName implements provider.Generator.
func (p *Provider) ModelName() string {
	return p.config.Model
}

// Upload implements provider.Uploader.
func (p *Provider) Upload(ctx context.Context, url, mimeType string) (provider.FileRef, error) {
	return p.doUpload(ctx, url, mimeType)
}

// Compile-time interface assertions.
var (
	_ core.Module        = (*Provider)(nil)
	_ core.Configurable  = (*Provider)(nil)
	_ core.Provisioner   = (*Provider)(nil)
	_ core.Validator     = (*Provider)(nil)
	_ provider.Generator = (*Provider)(nil)
	_ provider.Uploader  = (*Provider)(nil)
)
