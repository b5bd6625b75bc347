package events

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/and161185/dittokanban/internal/model"
	"github.com/gofrs/uuid/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func startHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	h := NewHub(zaptest.NewLogger(t))
	go h.Run(ctx)

	up := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		owner := uuid.FromStringOrNil(r.URL.Query().Get("owner"))
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		h.Serve(conn, owner)
	}))
	t.Cleanup(srv.Close)
	return h, srv
}

func dial(t *testing.T, srv *httptest.Server, owner uuid.UUID) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?owner=" + owner.String()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestHub_DeliversToOwnerOnly(t *testing.T) {
	t.Parallel()

	h, srv := startHub(t)
	ana := uuid.Must(uuid.NewV4())
	bob := uuid.Must(uuid.NewV4())
	anaConn := dial(t, srv, ana)
	bobConn := dial(t, srv, bob)

	ctx := context.Background()
	require.Eventually(t, func() bool { return h.Clients(ctx) == 2 }, 2*time.Second, 10*time.Millisecond)

	board := uuid.Must(uuid.NewV4())
	h.Publish(model.BoardEvent{Kind: model.EventTaskMoved, OwnerID: ana, BoardID: board, EntityID: board})

	_ = anaConn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := anaConn.ReadMessage()
	require.NoError(t, err)
	var msg Message
	require.NoError(t, json.Unmarshal(raw, &msg))
	require.Equal(t, string(model.EventTaskMoved), msg.Type)
	require.Equal(t, board, msg.Data.BoardID)
	require.NotContains(t, string(raw), ana.String(), "owner id is not sent")

	_ = bobConn.SetReadDeadline(time.Now().Add(150 * time.Millisecond))
	_, _, err = bobConn.ReadMessage()
	require.Error(t, err)
}

func TestHub_UnregistersOnClose(t *testing.T) {
	t.Parallel()

	h, srv := startHub(t)
	conn := dial(t, srv, uuid.Must(uuid.NewV4()))
	ctx := context.Background()
	require.Eventually(t, func() bool { return h.Clients(ctx) == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return h.Clients(ctx) == 0 }, 2*time.Second, 10*time.Millisecond)
}
