package kafka

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Novip1906/tasks-realtime/internal/config"
)

type producer struct {
	writer *kafka.Writer
}

func newProducer(kafkaCfg *config.Kafka) *producer {
	return &producer{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(kafkaCfg.Brokers...),
			BatchSize:              1,
			BatchTimeout:           10 * time.Millisecond,
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: true,
			Async:                  false,
		},
	}
}

func (p *producer) SendMessage(ctx context.Context, topic string, key, value []byte) error {
	return p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   key,
		Value: value,
	})
}

func (p *producer) Close() error {
	return p.writer.Close()
}
