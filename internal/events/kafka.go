package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fastprodman/walletledger/internal/config"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

var _ Publisher = (*KafkaPublisher)(nil)

type KafkaPublisher struct {
	w *kafka.Writer
}

// NewKafka keys messages by reference so both legs of a transfer and every
// status change of one payment land on the same partition in order.
func NewKafka(cfg config.KafkaConfig) *KafkaPublisher {
	return &KafkaPublisher{
		w: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			MaxAttempts:  3,
			BatchTimeout: 10 * time.Millisecond,
			WriteTimeout: 10 * time.Second,
			Logger: kafka.LoggerFunc(func(msg string, args ...any) {
				zap.L().Debug(fmt.Sprintf(msg, args...))
			}),
			ErrorLogger: kafka.LoggerFunc(func(msg string, args ...any) {
				zap.L().Warn(fmt.Sprintf(msg, args...))
			}),
		},
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, evs ...Event) error {
	if len(evs) == 0 {
		return nil
	}

	msgs := make([]kafka.Message, 0, len(evs))

	for _, ev := range evs {
		val, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("encode event %s: %w", ev.Reference, err)
		}

		msgs = append(msgs, kafka.Message{
			Key:   []byte(ev.Reference),
			Value: val,
			Headers: []kafka.Header{
				{Key: "kind", Value: []byte(ev.Kind)},
			},
		})
	}

	err := p.w.WriteMessages(ctx, msgs...)
	if err != nil {
		return fmt.Errorf("write %d events: %w", len(msgs), err)
	}

	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.w.Close()
}
