package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dipanjanswapna/averzotech-sub001/internal/service"
	"github.com/segmentio/kafka-go"
)

const orderSettledTopic = "order-settled"

type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers ...string) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  orderSettledTopic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	return &KafkaPublisher{writer: w}
}

func (p *KafkaPublisher) PublishOrderSettled(ctx context.Context, event service.OrderSettledEvent) error {
	msg, err := orderSettledMessage(event)
	if err != nil {
		return err
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write order-settled event: %w", err)
	}
	return nil
}

// orderSettledMessage keys the message by transaction id so all notifications
// for one payment land on the same partition, in order.
func orderSettledMessage(event service.OrderSettledEvent) (kafka.Message, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("marshal order-settled event: %w", err)
	}

	return kafka.Message{
		Key:   []byte(event.TranID),
		Value: payload,
	}, nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
