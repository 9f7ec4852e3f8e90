// Package realtime keeps at most one live push channel per user and delivers
// task events to it.
package realtime

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Novip1906/tasks-realtime/pkg/logging"
)

// Channel is one live push connection. Implementations must be comparable
// (pointer types) since the registry uses them as map keys.
type Channel interface {
	Send(ctx context.Context, event string, data any) error
}

// Registry maps a user id to the channel that most recently joined for it.
// A newer join replaces the older entry without closing the old channel.
type Registry struct {
	mu        sync.RWMutex
	byUser    map[string]Channel
	byChannel map[Channel]string

	writeTimeout time.Duration
	log          *slog.Logger
}

func NewRegistry(writeTimeout time.Duration, log *slog.Logger) *Registry {
	return &Registry{
		byUser:       make(map[string]Channel),
		byChannel:    make(map[Channel]string),
		writeTimeout: writeTimeout,
		log:          log.With(slog.String("component", "realtime")),
	}
}

func (r *Registry) Join(userId string, ch Channel) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.byUser[userId]; ok && prev != ch {
		delete(r.byChannel, prev)
		r.log.Info("channel replaced", slog.String("user_id", userId))
	}
	// a channel re-joining as another user drops its old entry
	if prevUser, ok := r.byChannel[ch]; ok && prevUser != userId {
		delete(r.byUser, prevUser)
	}

	r.byUser[userId] = ch
	r.byChannel[ch] = userId
}

// Leave removes the channel only if it is still the registered one for its user.
func (r *Registry) Leave(ch Channel) {
	r.mu.Lock()
	defer r.mu.Unlock()

	userId, ok := r.byChannel[ch]
	if !ok {
		return
	}
	delete(r.byChannel, ch)
	if r.byUser[userId] == ch {
		delete(r.byUser, userId)
	}
}

// Broadcast is fire-and-forget: missing channels and write errors are logged, never returned.
func (r *Registry) Broadcast(ctx context.Context, userId, event string, data any) {
	r.mu.RLock()
	ch, ok := r.byUser[userId]
	r.mu.RUnlock()

	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.writeTimeout)
	defer cancel()

	if err := ch.Send(ctx, event, data); err != nil {
		r.log.Warn("event delivery failed",
			slog.String("user_id", userId),
			slog.String("event", event),
			logging.Err(err),
		)
		return
	}
	r.log.Debug("event delivered", slog.String("user_id", userId), slog.String("event", event))
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser)
}

func (r *Registry) IsConnected(userId string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byUser[userId]
	return ok
}
