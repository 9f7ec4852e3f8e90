package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Novip1906/tasks-realtime/internal/config"
	"github.com/Novip1906/tasks-realtime/internal/models"
)

const sendTimeout = 5 * time.Second

type messageSender interface {
	SendMessage(ctx context.Context, topic string, key, value []byte) error
	Close() error
}

// EventsProducer writes every task event to the events topic, keyed by owner
// so one user's events stay ordered within a partition.
type EventsProducer struct {
	producer    messageSender
	eventsTopic string
}

func NewEventsProducer(kafkaCfg *config.Kafka) *EventsProducer {
	return &EventsProducer{
		producer:    newProducer(kafkaCfg),
		eventsTopic: kafkaCfg.EventsTopic,
	}
}

func (e *EventsProducer) Name() string {
	return "kafka"
}

func (e *EventsProducer) Publish(ctx context.Context, event models.Event) error {
	message := models.EventMessage{
		Type:       string(event.Kind),
		UserId:     event.UserId,
		TaskId:     event.TaskId,
		OccurredAt: event.OccurredAt,
	}
	if event.Kind != models.EventTaskDeleted {
		message.Task = event.Task
	}

	jsonData, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal task event message: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sendTimeout)
	defer cancel()

	err = e.producer.SendMessage(
		ctx,
		e.eventsTopic,
		[]byte(event.UserId),
		jsonData,
	)

	if err != nil {
		return fmt.Errorf("failed to send task event message: %w", err)
	}

	return nil
}

func (e *EventsProducer) Close() error {
	return e.producer.Close()
}
