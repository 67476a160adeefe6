package ticker

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"
	"github.com/user/elpisexchange/backend/internal/models"
	"go.uber.org/zap"
)

// KafkaWriter is the subset of *kafka.Writer the publisher uses.
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// NewKafkaWriter builds a writer for topic on brokers.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{}, // one partition per symbol keeps trades ordered
		AllowAutoTopicCreation: true,
	}
}

// KafkaPublisher forwards every trade to Kafka, keyed by symbol.
// Notify only enqueues; Run does the writing.
type KafkaPublisher struct {
	writer KafkaWriter
	queue  chan models.TradeRecord
	logger *zap.Logger
}

func NewKafkaPublisher(writer KafkaWriter, logger *zap.Logger, buffer int) *KafkaPublisher {
	if buffer <= 0 {
		buffer = 256
	}
	return &KafkaPublisher{
		writer: writer,
		queue:  make(chan models.TradeRecord, buffer),
		logger: logger,
	}
}

func (p *KafkaPublisher) Notify(trade models.TradeRecord, _ models.MarketEntry) {
	select {
	case p.queue <- trade:
	default:
		p.logger.Warn("Trade publish queue full, dropping trade", zap.String("trade_id", trade.ID.String()))
	}
}

// Run writes queued trades until ctx is cancelled, then closes the writer.
func (p *KafkaPublisher) Run(ctx context.Context) {
	p.logger.Info("Trade publisher started")
	defer func() {
		if err := p.writer.Close(); err != nil {
			p.logger.Error("Kafka writer close failed", zap.Error(err))
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case trade := <-p.queue:
			payload, err := json.Marshal(trade)
			if err != nil {
				p.logger.Error("Trade marshal failed", zap.Error(err))
				continue
			}
			err = p.writer.WriteMessages(ctx, kafka.Message{
				Key:   []byte(trade.Symbol),
				Value: payload,
			})
			if err != nil {
				p.logger.Error("Kafka Write Error", zap.String("trade_id", trade.ID.String()), zap.Error(err))
			}
		}
	}
}
