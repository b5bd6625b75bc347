package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/and161185/dittokanban/internal/server/events"
	"github.com/gorilla/websocket"
)

// Watch streams the caller's board change events to fn until ctx is done or
// the connection drops.
func Watch(ctx context.Context, baseURL string, tokens TokenSource, fn func(events.Message)) error {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return fmt.Errorf("parse base url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path += "/api/ws"

	hdr := http.Header{}
	if tokens != nil && tokens.Token() != "" {
		hdr.Set("Authorization", "Bearer "+tokens.Token())
	}
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u.String(), hdr)
	if err != nil {
		if resp != nil {
			return &HTTPError{Status: resp.StatusCode}
		}
		return err
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return nil
			}
			return err
		}
		var msg events.Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			continue
		}
		fn(msg)
	}
}
