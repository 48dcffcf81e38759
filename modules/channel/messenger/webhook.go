package messenger

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// webhookPayload is the envelope the platform posts to the webhook endpoint.
// A single delivery may batch several events.
type webhookPayload struct {
	Events []json.RawMessage `json:"events"`
}

// HandleWebhook implements gateway.WebhookHandler for the webhook inbound
// mode. Signature validation happens in the gateway dispatcher before this
// is called.
func (m *Module) HandleWebhook(_ context.Context, _ string, body []byte, _ http.Header) error {
	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return fmt.Errorf("messenger: decode webhook payload: %w", err)
	}

	for _, raw := range payload.Events {
		var ev wireEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			m.logger.Warn("undecodable webhook event", "error", err)
			continue
		}
		if in, ok := convertEvent(ev, raw); ok {
			m.deliver(in)
		}
	}
	return nil
}
