package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Discard drops every event. The server falls back to it when no NATS URL
// is configured.
var Discard Publisher = discard{}

type discard struct{}

func (discard) Publish(context.Context, string, any) error { return nil }
func (discard) Close() error                               { return nil }

// Recorder is an in-memory Publisher that keeps every event it is given,
// encoded the same way NATSPublisher puts it on the wire.
type Recorder struct {
	mu     sync.Mutex
	msgs   []Message
	closed bool
}

func (r *Recorder) Publish(ctx context.Context, topic string, event any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling %s event: %w", topic, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return errPublisherClosed
	}
	r.msgs = append(r.msgs, Message{Topic: topic, Data: data})
	return nil
}

func (r *Recorder) Close() error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	return nil
}

// Messages returns a copy of the recorded events in publish order.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.msgs...)
}

// Topics returns the topic of every recorded event in publish order.
func (r *Recorder) Topics() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	topics := make([]string, len(r.msgs))
	for i, m := range r.msgs {
		topics[i] = m.Topic
	}
	return topics
}
