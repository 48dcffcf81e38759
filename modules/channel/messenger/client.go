package messenger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/metoushela/megan/pkg/message"
)

// Outbound wire types.

type sendRequest struct {
	ThreadID  string `json:"thread_id"`
	Body      string `json:"body"`
	ReplyToID string `json:"reply_to_id,omitempty"`
}

type sendResponse struct {
	MessageID string `json:"message_id"`
}

type reactRequest struct {
	MessageID string `json:"message_id"`
	Emoji     string `json:"emoji"`
}

// maxErrorBodySize caps how much of an error response body is read.
const maxErrorBodySize = 4096

// send delivers an outbound message and returns the platform message ID.
func (m *Module) send(ctx context.Context, out message.OutboundMessage) (string, error) {
	body := sendRequest{
		ThreadID:  out.Chat.ID,
		Body:      out.Body,
		ReplyToID: out.ReplyToID,
	}

	resp, err := m.doPost(ctx, "/messages", body)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", statusError(resp)
	}

	var decoded sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("messenger: decode send response: %w", err)
	}
	return decoded.MessageID, nil
}

// react sets an emoji marker on an existing message.
func (m *Module) react(ctx context.Context, r message.Reaction) error {
	resp, err := m.doPost(ctx, "/reactions", reactRequest{
		MessageID: r.TargetID,
		Emoji:     r.Emoji,
	})
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (m *Module) doPost(ctx context.Context, path string, body any) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("messenger: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.config.APIURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("messenger: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.config.Token)

	resp, err := m.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("messenger: request failed: %w", err)
	}
	return resp, nil
}

func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
	return fmt.Errorf("messenger: API returned HTTP %d: %s", resp.StatusCode, body)
}
