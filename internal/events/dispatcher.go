// Package events fans task events out to the owner's live channel and to the
// configured external sinks.
package events

import (
	"context"
	"log/slog"

	"github.com/Novip1906/tasks-realtime/internal/models"
	"github.com/Novip1906/tasks-realtime/pkg/logging"
)

type Pusher interface {
	Broadcast(ctx context.Context, userId, event string, data any)
}

type Sink interface {
	Name() string
	Publish(ctx context.Context, event models.Event) error
}

type Dispatcher struct {
	pusher Pusher
	sinks  []Sink
	log    *slog.Logger
}

func NewDispatcher(pusher Pusher, log *slog.Logger, sinks ...Sink) *Dispatcher {
	return &Dispatcher{pusher: pusher, sinks: sinks, log: log}
}

// Dispatch never fails: the push is fire-and-forget and sink errors are only logged.
func (d *Dispatcher) Dispatch(ctx context.Context, event models.Event) {
	d.pusher.Broadcast(ctx, event.UserId, string(event.Kind), event.Payload())

	for _, sink := range d.sinks {
		if err := sink.Publish(ctx, event); err != nil {
			d.log.Error("event sink failed",
				slog.String("sink", sink.Name()),
				slog.String("event", string(event.Kind)),
				slog.String("task_id", event.TaskId),
				logging.Err(err),
			)
		}
	}
}
