package kafka

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

// Handler must return nil only when processing succeeded and the offset may
// be committed. A failing message is retried in-process a few times, then
// dropped: with more than one worker a later commit can cover its offset, so
// after retries are exhausted delivery is at-most-once. Handlers that cannot
// afford that must dead-letter before returning.
type Handler func(ctx context.Context, m kafka.Message) error

const (
	handlerRetries = 3
	retryBackoff   = 200 * time.Millisecond
)

type Consumer struct {
	reader  *kafka.Reader
	workers int
}

func NewConsumer(brokers []string, group, topic string, workers int) *Consumer {
	if workers <= 0 {
		workers = 1
	}
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:        brokers,
			GroupID:        group,
			Topic:          topic,
			MinBytes:       1,
			MaxBytes:       10e6,
			CommitInterval: 0, // manual commit
		}),
		workers: workers,
	}
}

// Start fetches until ctx is cancelled, fanning messages out to the worker
// pool. It waits for in-flight handlers before closing the reader.
func (c *Consumer) Start(ctx context.Context, h Handler) error {
	jobs := make(chan kafka.Message, 64)

	var wg sync.WaitGroup
	wg.Add(c.workers)
	for i := 0; i < c.workers; i++ {
		go func() {
			defer wg.Done()
			for m := range jobs {
				c.handle(ctx, h, m)
			}
		}()
	}

	err := c.fetch(ctx, jobs)
	close(jobs)
	wg.Wait()
	if cerr := c.reader.Close(); err == nil {
		err = cerr
	}
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func (c *Consumer) fetch(ctx context.Context, jobs chan<- kafka.Message) error {
	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			return err
		}
		select {
		case jobs <- m:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (c *Consumer) handle(ctx context.Context, h Handler, m kafka.Message) {
	for attempt := 1; ; attempt++ {
		err := h(ctx, m)
		if err == nil {
			if err := c.reader.CommitMessages(ctx, m); err != nil && ctx.Err() == nil {
				log.Printf("kafka: commit %s/%d@%d: %v", m.Topic, m.Partition, m.Offset, err)
			}
			return
		}
		if attempt >= handlerRetries || ctx.Err() != nil {
			log.Printf("kafka: giving up on %s/%d@%d after %d attempts: %v",
				m.Topic, m.Partition, m.Offset, attempt, err)
			return
		}
		log.Printf("kafka: handler error on %s/%d@%d (attempt %d): %v",
			m.Topic, m.Partition, m.Offset, attempt, err)
		select {
		case <-time.After(retryBackoff * time.Duration(attempt)):
		case <-ctx.Done():
			return
		}
	}
}
