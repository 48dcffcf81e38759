package messenger

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
)

// runStream maintains the websocket event stream, reconnecting with
// exponential backoff until the context is cancelled.
func (m *Module) runStream(ctx context.Context) {
	defer close(m.done)

	backoff := m.config.ReconnectMin
	for {
		if ctx.Err() != nil {
			return
		}

		err := m.readStream(ctx, func() { backoff = m.config.ReconnectMin })
		if ctx.Err() != nil {
			return
		}

		m.logger.Warn("event stream disconnected, reconnecting",
			"error", err, "backoff", backoff)

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return
		}

		backoff *= 2
		if backoff > m.config.ReconnectMax {
			backoff = m.config.ReconnectMax
		}
	}
}

// readStream dials the stream endpoint and consumes events until the
// connection drops. onConnect fires once the dial succeeds so the caller
// can reset its backoff.
func (m *Module) readStream(ctx context.Context, onConnect func()) error {
	conn, _, err := websocket.Dial(ctx, m.config.WSURL, &websocket.DialOptions{
		HTTPHeader: http.Header{"Authorization": []string{"Bearer " + m.config.Token}},
	})
	if err != nil {
		return err
	}
	defer conn.Close(websocket.StatusNormalClosure, "shutting down")

	onConnect()
	m.logger.Info("event stream connected", "url", m.config.WSURL)

	for {
		msgType, data, err := conn.Read(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		if msgType != websocket.MessageText {
			continue
		}

		var ev wireEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			m.logger.Warn("undecodable stream event", "error", err)
			continue
		}

		if in, ok := convertEvent(ev, data); ok {
			m.deliver(in)
		}
	}
}
