package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

var errPublisherClosed = errors.New("publisher closed")

// subscriptionBuffer bounds how many undelivered messages a subscription
// holds before new ones are dropped.
const subscriptionBuffer = 64

func dial(url, name string, opts ...nats.Option) (*nats.Conn, error) {
	nc, err := nats.Connect(url, append([]nats.Option{nats.Name(name)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s: %w", url, err)
	}
	return nc, nil
}

// NATSPublisher encodes events as JSON and publishes them with the topic
// as the NATS subject.
type NATSPublisher struct {
	conn *nats.Conn
}

func NewNATSPublisher(url string) (*NATSPublisher, error) {
	nc, err := dial(url, "testispark-server")
	if err != nil {
		return nil, err
	}
	return &NATSPublisher{conn: nc}, nil
}

func (p *NATSPublisher) Publish(ctx context.Context, topic string, event any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.conn.IsClosed() {
		return errPublisherClosed
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling %s event: %w", topic, err)
	}
	if err := p.conn.Publish(topic, data); err != nil {
		return fmt.Errorf("publishing %s: %w", topic, err)
	}
	return nil
}

// Close drains pending publishes before closing the connection.
func (p *NATSPublisher) Close() error {
	if p.conn.IsClosed() {
		return nil
	}
	if err := p.conn.Flush(); err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
		p.conn.Close()
		return fmt.Errorf("flushing events: %w", err)
	}
	p.conn.Close()
	return nil
}

// NATSSubscriber is the watch side of the bus. Its connection retries
// forever with a one second wait between attempts.
type NATSSubscriber struct {
	conn *nats.Conn
}

// NewNATSSubscriber connects to url. opts are applied after the reconnect
// defaults, so callers can add disconnect and reconnect handlers.
func NewNATSSubscriber(url string, opts ...nats.Option) (*NATSSubscriber, error) {
	base := []nats.Option{nats.MaxReconnects(-1), nats.ReconnectWait(time.Second)}
	nc, err := dial(url, "testispark-watch", append(base, opts...)...)
	if err != nil {
		return nil, err
	}
	return &NATSSubscriber{conn: nc}, nil
}

// subscription forwards NATS messages to a buffered channel. A full channel
// drops the message so the NATS read loop never blocks.
type subscription struct {
	ch   chan Message
	sub  *nats.Subscription
	mu   sync.Mutex
	done bool
	once sync.Once
}

func (s *subscription) deliver(msg *nats.Msg) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return
	}
	select {
	case s.ch <- Message{Topic: msg.Subject, Data: msg.Data}:
	default:
	}
}

func (s *subscription) cancel() {
	s.once.Do(func() {
		if s.sub != nil {
			_ = s.sub.Unsubscribe()
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		s.done = true
		for len(s.ch) > 0 {
			<-s.ch
		}
		close(s.ch)
	})
}

// Subscribe follows topic, which may hold NATS wildcards such as TopicAll.
// The returned cancel unsubscribes and closes the channel; calling it again
// is a no-op.
func (s *NATSSubscriber) Subscribe(topic string) (<-chan Message, func(), error) {
	sc := &subscription{ch: make(chan Message, subscriptionBuffer)}
	sub, err := s.conn.Subscribe(topic, sc.deliver)
	if err != nil {
		sc.cancel()
		return nil, nil, fmt.Errorf("subscribing to %s: %w", topic, err)
	}
	sc.sub = sub
	// Messages published on other connections are only routed once the
	// server has seen the SUB.
	if err := s.conn.Flush(); err != nil {
		sc.cancel()
		return nil, nil, fmt.Errorf("flushing subscription to %s: %w", topic, err)
	}
	return sc.ch, sc.cancel, nil
}

func (s *NATSSubscriber) Close() error {
	s.conn.Close()
	return nil
}
