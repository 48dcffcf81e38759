package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/metoushela/megan/internal/provider"
)

// Gemini wire types for JSON serialization.

type genRequest struct {
	Contents         []provider.Turn           `json:"contents"`
	SafetySettings   []provider.SafetySetting  `json:"safetySettings,omitempty"`
	GenerationConfig provider.GenerationConfig `json:"generationConfig"`
}

type genResponse struct {
	Candidates []genCandidate `json:"candidates"`
}

type genCandidate struct {
	Content provider.Turn `json:"content"`
}

type uploadResponse struct {
	File struct {
		URI      string `json:"uri"`
		MIMEType string `json:"mimeType"`
	} `json:"file"`
}

// doGenerate executes the generateContent call and decodes candidates.
func (p *Provider) doGenerate(ctx context.Context, req provider.GenerateRequest) ([]provider.Candidate, error) {
	payload, err := json.Marshal(genRequest{
		Contents:         req.Turns,
		SafetySettings:   req.Safety,
		GenerationConfig: req.Config,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		p.config.BaseURL, p.config.Model, url.QueryEscape(p.config.apiKey()))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("gemini: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		// Pass caller cancellation through unchanged so the chain does not
		// treat it as a provider failure.
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("gemini: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}

	var decoded genResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("%w: %w", provider.ErrMalformedResponse, err)
	}

	if len(decoded.Candidates) == 0 {
		return nil, provider.ErrNoCandidates
	}

	candidates := make([]provider.Candidate, len(decoded.Candidates))
	for i, c := range decoded.Candidates {
		candidates[i] = provider.Candidate{Turn: c.Content}
	}
	return candidates, nil
}

// doUpload fetches the media at srcURL and pushes the raw bytes to the file
// upload endpoint, returning the hosted file reference.
func (p *Provider) doUpload(ctx context.Context, srcURL, mimeType string) (provider.FileRef, error) {
	fetchReq, err := http.NewRequestWithContext(ctx, http.MethodGet, srcURL, nil)
	if err != nil {
		return provider.FileRef{}, fmt.Errorf("gemini: create fetch request: %w", err)
	}

	fetchResp, err := p.client.Do(fetchReq)
	if err != nil {
		return provider.FileRef{}, fmt.Errorf("gemini: fetch media: %w", err)
	}
	defer func() { _ = fetchResp.Body.Close() }()

	if fetchResp.StatusCode != http.StatusOK {
		return provider.FileRef{}, fmt.Errorf("%w: media fetch returned HTTP %d",
			provider.ErrUpstreamStatus, fetchResp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(fetchResp.Body, maxUploadSize))
	if err != nil {
		return provider.FileRef{}, fmt.Errorf("gemini: read media: %w", err)
	}

	endpoint := fmt.Sprintf("%s/files?key=%s", p.config.UploadURL, url.QueryEscape(p.config.apiKey()))
	upReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return provider.FileRef{}, fmt.Errorf("gemini: create upload request: %w", err)
	}
	upReq.Header.Set("Content-Type", mimeType)
	upReq.Header.Set("X-Goog-Upload-Protocol", "raw")

	upResp, err := p.client.Do(upReq)
	if err != nil {
		return provider.FileRef{}, fmt.Errorf("gemini: upload failed: %w", err)
	}
	defer func() { _ = upResp.Body.Close() }()

	if upResp.StatusCode != http.StatusOK {
		return provider.FileRef{}, statusError(upResp)
	}

	var decoded uploadResponse
	if err := json.NewDecoder(upResp.Body).Decode(&decoded); err != nil {
		return provider.FileRef{}, fmt.Errorf("%w: %w", provider.ErrMalformedResponse, err)
	}
	if decoded.File.URI == "" {
		return provider.FileRef{}, fmt.Errorf("%w: upload response missing file uri", provider.ErrMalformedResponse)
	}

	mime := decoded.File.MIMEType
	if mime == "" {
		mime = mimeType
	}
	return provider.FileRef{URI: decoded.File.URI, MIMEType: mime}, nil
}

// maxUploadSize caps fetched media at 20 MiB.
const maxUploadSize = 20 << 20

// maxErrorBodySize caps how much of an error response body is read.
const maxErrorBodySize = 4096

// statusError maps a non-200 response to ErrUpstreamStatus with context.
func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
	return fmt.Errorf("%w: HTTP %d: %s", provider.ErrUpstreamStatus, resp.StatusCode, body)
}
