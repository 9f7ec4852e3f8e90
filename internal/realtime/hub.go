package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/Novip1906/tasks-realtime/internal/auth"
	appErrors "github.com/Novip1906/tasks-realtime/internal/errors"
	"github.com/Novip1906/tasks-realtime/internal/models"
	"github.com/Novip1906/tasks-realtime/pkg/logging"
)

const (
	readLimitBytes int64 = 64 << 10

	EventJoin   = "join"
	EventJoined = "joined"
	EventError  = "error"
)

type IdentityVerifier interface {
	Verify(ctx context.Context, token string) (*models.Identity, error)
}

type inboundFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type outboundFrame struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

type joinPayload struct {
	Token string `json:"token"`
}

type joinedPayload struct {
	Message string           `json:"message"`
	User    *models.Identity `json:"user"`
}

type errorPayload struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

type wsChannel struct {
	id      string
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (c *wsChannel) Send(ctx context.Context, event string, data any) error {
	msg, err := json.Marshal(outboundFrame{Event: event, Data: data})
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.Write(ctx, websocket.MessageText, msg)
}

// Hub is the websocket endpoint. Connections are accepted without credentials;
// only a join frame that passes verification enters the registry.
type Hub struct {
	registry       *Registry
	verifier       IdentityVerifier
	originPatterns []string
	writeTimeout   time.Duration
	log            *slog.Logger
}

func NewHub(registry *Registry, verifier IdentityVerifier, originPatterns []string, writeTimeout time.Duration, log *slog.Logger) *Hub {
	return &Hub{
		registry:       registry,
		verifier:       verifier,
		originPatterns: originPatterns,
		writeTimeout:   writeTimeout,
		log:            log.With(slog.String("component", "ws")),
	}
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: h.originPatterns})
	if err != nil {
		h.log.Warn("websocket accept failed", logging.Err(err))
		return
	}
	conn.SetReadLimit(readLimitBytes)

	ch := &wsChannel{id: uuid.NewString(), conn: conn}
	log := h.log.With(slog.String("channel_id", ch.id))
	log.Info("client connected")

	defer func() {
		h.registry.Leave(ch)
		_ = conn.Close(websocket.StatusNormalClosure, "")
		log.Info("client disconnected")
	}()

	ctx := r.Context()
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == -1 && !errors.Is(err, context.Canceled) {
				log.Debug("read failed", logging.Err(err))
			}
			return
		}

		var frame inboundFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			h.reply(ctx, ch, EventError, errorPayload{Message: "malformed message", Timestamp: time.Now().UTC()})
			continue
		}

		switch frame.Event {
		case EventJoin:
			h.handleJoin(ctx, r, ch, frame.Data, log)
		default:
			h.reply(ctx, ch, EventError, errorPayload{Message: "unknown event: " + frame.Event, Timestamp: time.Now().UTC()})
		}
	}
}

func (h *Hub) handleJoin(ctx context.Context, r *http.Request, ch *wsChannel, raw json.RawMessage, log *slog.Logger) {
	var payload joinPayload
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &payload)
	}

	token := auth.ExtractToken(payload.Token, r.URL.Query().Get("token"), r.Header.Get("Authorization"))

	identity, err := h.verifier.Verify(ctx, token)
	if err != nil {
		message := "unauthorized"
		if !errors.Is(err, appErrors.ErrUnauthenticated) && !errors.Is(err, appErrors.ErrUnknownUser) {
			message = "failed to join"
		}
		log.Warn("join rejected", logging.Err(err))
		h.reply(ctx, ch, EventError, errorPayload{Message: message, Timestamp: time.Now().UTC()})
		return
	}

	h.registry.Join(identity.Id, ch)
	log.Info("user joined", slog.String("user_id", identity.Id), slog.String("username", identity.Username))

	h.reply(ctx, ch, EventJoined, joinedPayload{
		Message: "Successfully connected to real-time updates",
		User:    identity,
	})
}

func (h *Hub) reply(ctx context.Context, ch *wsChannel, event string, data any) {
	ctx, cancel := context.WithTimeout(ctx, h.writeTimeout)
	defer cancel()
	if err := ch.Send(ctx, event, data); err != nil {
		h.log.Debug("reply failed", slog.String("event", event), logging.Err(err))
	}
}
