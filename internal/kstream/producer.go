// Package kstream publishes listing events to Kafka. Events are pure
// observability: publishing is fire-and-forget and nothing in the pipeline
// consumes them.
package kstream

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"listing-backend/internal/model"
)

// Config holds producer settings.
type Config struct {
	Broker string
	Topic  string
}

// Producer writes listing.accepted events.
type Producer struct {
	writer *kafka.Writer
}

// NewProducer constructs a Kafka producer using segmentio/kafka-go.
// kafka.Writer batches asynchronously, so a publish never blocks the
// pipeline on broker latency.
func NewProducer(cfg Config) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Broker),
			Topic:        cfg.Topic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireOne,
			Async:        true,
		},
	}
}

// PublishListingAccepted sends one event. Key is the submission ID so one
// submission's events land on one partition.
func (p *Producer) PublishListingAccepted(ctx context.Context, evt model.ListingAccepted) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(evt.SubmissionID),
		Value: data,
		Time:  time.Now(),
	})
}

// Close flushes and closes the underlying writer.
func (p *Producer) Close() error {
	return p.writer.Close()
}
