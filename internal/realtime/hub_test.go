package realtime

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/Novip1906/tasks-realtime/internal/errors"
	"github.com/Novip1906/tasks-realtime/internal/models"
)

type fakeVerifier map[string]*models.Identity

func (f fakeVerifier) Verify(_ context.Context, token string) (*models.Identity, error) {
	identity, ok := f[token]
	if !ok {
		return nil, appErrors.ErrUnauthenticated
	}
	return identity, nil
}

type testFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func startHub(t *testing.T) (*Registry, string) {
	t.Helper()
	registry := newTestRegistry()
	verifier := fakeVerifier{"good": {Id: "u1", Email: "u1@example.com", Username: "u1"}}
	hub := NewHub(registry, verifier, nil, time.Second, registry.log)

	ts := httptest.NewServer(hub)
	t.Cleanup(ts.Close)
	return registry, "ws" + strings.TrimPrefix(ts.URL, "http")
}

func dial(t *testing.T, ctx context.Context, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close(websocket.StatusNormalClosure, "") })
	return conn
}

func send(t *testing.T, ctx context.Context, conn *websocket.Conn, frame string) {
	t.Helper()
	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte(frame)))
}

func read(t *testing.T, ctx context.Context, conn *websocket.Conn) testFrame {
	t.Helper()
	_, msg, err := conn.Read(ctx)
	require.NoError(t, err)
	var frame testFrame
	require.NoError(t, json.Unmarshal(msg, &frame))
	return frame
}

func TestHubJoinAndReceive(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	registry, url := startHub(t)

	conn := dial(t, ctx, url)
	send(t, ctx, conn, `{"event":"join","data":{"token":"Bearer good"}}`)

	joined := read(t, ctx, conn)
	require.Equal(t, EventJoined, joined.Event)
	assert.Contains(t, string(joined.Data), `"id":"u1"`)
	assert.True(t, registry.IsConnected("u1"))

	registry.Broadcast(ctx, "u1", "task.created", models.DeletedPayload{Id: "t1"})
	evt := read(t, ctx, conn)
	assert.Equal(t, "task.created", evt.Event)
	assert.JSONEq(t, `{"id":"t1"}`, string(evt.Data))
}

func TestHubJoinWithQueryToken(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	registry, url := startHub(t)

	conn := dial(t, ctx, url+"?token=good")
	send(t, ctx, conn, `{"event":"join"}`)

	assert.Equal(t, EventJoined, read(t, ctx, conn).Event)
	assert.True(t, registry.IsConnected("u1"))
}

func TestHubRejectsBadJoin(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	registry, url := startHub(t)

	conn := dial(t, ctx, url)
	send(t, ctx, conn, `{"event":"join","data":{"token":"bad"}}`)

	frame := read(t, ctx, conn)
	assert.Equal(t, EventError, frame.Event)
	assert.Contains(t, string(frame.Data), "unauthorized")
	assert.Equal(t, 0, registry.Count())

	send(t, ctx, conn, `not json`)
	assert.Equal(t, EventError, read(t, ctx, conn).Event)
}

func TestHubSecondJoinTakesOver(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	registry, url := startHub(t)

	a := dial(t, ctx, url)
	send(t, ctx, a, `{"event":"join","data":{"token":"good"}}`)
	require.Equal(t, EventJoined, read(t, ctx, a).Event)

	b := dial(t, ctx, url)
	send(t, ctx, b, `{"event":"join","data":{"token":"good"}}`)
	require.Equal(t, EventJoined, read(t, ctx, b).Event)

	registry.Broadcast(ctx, "u1", "task.updated", models.DeletedPayload{Id: "t1"})
	assert.Equal(t, "task.updated", read(t, ctx, b).Event)

	shortCtx, shortCancel := context.WithTimeout(ctx, 200*time.Millisecond)
	defer shortCancel()
	_, _, err := a.Read(shortCtx)
	assert.Error(t, err, "replaced channel must not receive events")
}

func TestHubDisconnectLeaves(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	registry, url := startHub(t)

	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	send(t, ctx, conn, `{"event":"join","data":{"token":"good"}}`)
	require.Equal(t, EventJoined, read(t, ctx, conn).Event)

	require.NoError(t, conn.Close(websocket.StatusNormalClosure, ""))
	assert.Eventually(t, func() bool { return !registry.IsConnected("u1") }, 2*time.Second, 10*time.Millisecond)
}
