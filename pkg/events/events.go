package events

import (
	"context"
	"encoding/json"
	"sync"
)

const (
	TopicCart    = "cart_events"
	TopicOrder   = "order_events"
	TopicReview  = "review_events"
	TopicContact = "contact_events"
)

type Publisher interface {
	PublishEvent(ctx context.Context, topic, key string, event any) error
}

type Message struct {
	Topic string
	Key   string
	Value json.RawMessage
}

// Memory keeps published events in process. It backs local runs without a
// broker and the tests of every publishing component.
type Memory struct {
	mu       sync.Mutex
	messages []Message
}

func NewMemory() *Memory { return &Memory{} }

func (m *Memory) PublishEvent(_ context.Context, topic, key string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.messages = append(m.messages, Message{Topic: topic, Key: key, Value: data})
	m.mu.Unlock()
	return nil
}

func (m *Memory) Messages(topic string) []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Message
	for _, msg := range m.messages {
		if topic == "" || msg.Topic == topic {
			out = append(out, msg)
		}
	}
	return out
}
