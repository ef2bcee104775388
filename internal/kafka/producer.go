package kafka

import (
	"context"
	"sync"

	"github.com/segmentio/kafka-go"
)

// Producer multiplexes lifecycle events over per-topic writers. Writers are
// created lazily so only topics actually published to get a connection.
type Producer struct {
	brokers []string
	mu      sync.Mutex
	writers map[string]*kafka.Writer
}

func NewProducer(brokers []string) *Producer {
	return &Producer{
		brokers: brokers,
		writers: make(map[string]*kafka.Writer),
	}
}

func (p *Producer) writer(topic string) *kafka.Writer {
	p.mu.Lock()
	defer p.mu.Unlock()

	if w, ok := p.writers[topic]; ok {
		return w
	}
	w := kafka.NewWriter(kafka.WriterConfig{
		Brokers: p.brokers,
		Topic:   topic,
	})
	p.writers[topic] = w
	return w
}

func (p *Producer) Publish(topic string, key string, value []byte) error {
	return p.writer(topic).WriteMessages(context.Background(),
		kafka.Message{
			Key:   []byte(key),
			Value: value,
		},
	)
}

func (p *Producer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var firstErr error
	for _, w := range p.writers {
		if err := w.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	p.writers = make(map[string]*kafka.Writer)
	return firstErr
}
