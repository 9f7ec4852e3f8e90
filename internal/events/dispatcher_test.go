package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Novip1906/tasks-realtime/internal/models"
)

type pushed struct {
	userId, event string
	data          any
}

type fakePusher struct{ got []pushed }

func (p *fakePusher) Broadcast(_ context.Context, userId, event string, data any) {
	p.got = append(p.got, pushed{userId, event, data})
}

type fakeSink struct {
	name string
	err  error
	got  []models.Event
}

func (s *fakeSink) Name() string { return s.name }

func (s *fakeSink) Publish(_ context.Context, event models.Event) error {
	s.got = append(s.got, event)
	return s.err
}

func TestDispatch(t *testing.T) {
	pusher := &fakePusher{}
	failing := &fakeSink{name: "kafka", err: errors.New("broker down")}
	ok := &fakeSink{name: "es"}
	d := NewDispatcher(pusher, slog.New(slog.NewTextHandler(io.Discard, nil)), failing, ok)

	task := &models.Task{Id: "t1", OwnerId: "u1"}
	d.Dispatch(context.Background(), models.Event{Kind: models.EventTaskCreated, UserId: "u1", TaskId: "t1", Task: task})
	d.Dispatch(context.Background(), models.Event{Kind: models.EventTaskDeleted, UserId: "u1", TaskId: "t1"})

	require.Len(t, pusher.got, 2)
	assert.Equal(t, "task.created", pusher.got[0].event)
	assert.Same(t, task, pusher.got[0].data)
	assert.Equal(t, models.DeletedPayload{Id: "t1"}, pusher.got[1].data)

	assert.Len(t, failing.got, 2)
	assert.Len(t, ok.got, 2, "a failing sink must not stop the others")
}
