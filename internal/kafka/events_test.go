package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Novip1906/tasks-realtime/internal/models"
)

type sentMessage struct {
	topic      string
	key, value []byte
}

type fakeSender struct {
	sent []sentMessage
	err  error
}

func (f *fakeSender) SendMessage(_ context.Context, topic string, key, value []byte) error {
	f.sent = append(f.sent, sentMessage{topic, key, value})
	return f.err
}

func (f *fakeSender) Close() error { return nil }

func TestPublish(t *testing.T) {
	sender := &fakeSender{}
	p := &EventsProducer{producer: sender, eventsTopic: "task-events"}

	at := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	task := &models.Task{Id: "t1", Title: "Write report", OwnerId: "u1"}
	require.NoError(t, p.Publish(context.Background(), models.Event{
		Kind: models.EventTaskCreated, UserId: "u1", TaskId: "t1", Task: task, OccurredAt: at,
	}))
	require.NoError(t, p.Publish(context.Background(), models.Event{
		Kind: models.EventTaskDeleted, UserId: "u1", TaskId: "t1", Task: task, OccurredAt: at,
	}))

	require.Len(t, sender.sent, 2)
	assert.Equal(t, "task-events", sender.sent[0].topic)
	assert.Equal(t, []byte("u1"), sender.sent[0].key)

	var created models.EventMessage
	require.NoError(t, json.Unmarshal(sender.sent[0].value, &created))
	assert.Equal(t, "task.created", created.Type)
	require.NotNil(t, created.Task)
	assert.Equal(t, "Write report", created.Task.Title)

	var deleted models.EventMessage
	require.NoError(t, json.Unmarshal(sender.sent[1].value, &deleted))
	assert.Equal(t, "task.deleted", deleted.Type)
	assert.Nil(t, deleted.Task)
}

func TestPublishError(t *testing.T) {
	p := &EventsProducer{producer: &fakeSender{err: errors.New("no brokers")}, eventsTopic: "task-events"}
	err := p.Publish(context.Background(), models.Event{Kind: models.EventTaskUpdated, UserId: "u1"})
	assert.ErrorContains(t, err, "no brokers")
}
