package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"

	"github.com/segmentio/kafka-go"

	"construct-authz/core/internal/events"
	"construct-authz/core/internal/permcache"
)

// KafkaConsumer drains deferred change events and applies the corresponding
// cache rebuilds. Run by cmd/worker so project-wide recomputation never shares
// a process budget with the mutation path.
type KafkaConsumer struct {
	reader    *kafka.Reader
	scheduler *permcache.Scheduler
}

// NewKafkaConsumer creates a consumer in the given group. brokers, topic, and
// groupID must be non-empty.
func NewKafkaConsumer(brokers []string, topic, groupID string, scheduler *permcache.Scheduler) *KafkaConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: groupID,
	})
	return &KafkaConsumer{reader: reader, scheduler: scheduler}
}

// Run consumes events until ctx is cancelled. Malformed events are logged and
// skipped; rebuild failures are retried by the scheduler, not by redelivery.
func (c *KafkaConsumer) Run(ctx context.Context) error {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		var event events.ChangeEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			log.Printf("worker: skipping malformed change event at offset %d: %v", msg.Offset, err)
			continue
		}
		c.apply(ctx, &event)
	}
}

func (c *KafkaConsumer) apply(ctx context.Context, event *events.ChangeEvent) {
	switch event.Type {
	case events.TypeRoleChanged:
		c.scheduler.ScheduleAccount(event.AccountID)
	case events.TypeAssignmentChanged:
		if event.ProjectID != "" {
			c.scheduler.ScheduleProject(event.ProjectID)
		} else {
			c.scheduler.ScheduleAccount(event.AccountID)
		}
	default:
		log.Printf("worker: unknown change event type %q", event.Type)
		return
	}
	c.scheduler.Flush(ctx)
}

// Close closes the underlying reader.
func (c *KafkaConsumer) Close() error {
	if c == nil || c.reader == nil {
		return nil
	}
	return c.reader.Close()
}
