package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	// sseReplayLimit is how many recent events are kept for clients that
	// reconnect with Last-Event-ID.
	sseReplayLimit = 1000

	sseClientBuffer      = 64
	sseKeepaliveInterval = 15 * time.Second
	sseRetryHint         = 3 * time.Second
)

type sseEvent struct {
	ID     uint64
	Topic  string
	UserID string
	Data   []byte
}

// sseHub delivers dashboard events to the stream clients of the account
// they belong to and keeps a bounded history for replay.
type sseHub struct {
	mu      sync.RWMutex
	lastID  uint64
	history []*sseEvent // ascending ID, at most sseReplayLimit
	clients map[*sseClient]struct{}
}

type sseClient struct {
	userID string
	topics []string // empty means every topic
	ch     chan *sseEvent
}

func newSSEHub() *sseHub {
	return &sseHub{clients: make(map[*sseClient]struct{})}
}

// broadcast records an event for userID and hands it to matching clients.
// A client whose buffer is full misses the event. Events with no owner are
// ignored.
func (h *sseHub) broadcast(topic, userID string, payload []byte) {
	if userID == "" {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	h.lastID++
	evt := &sseEvent{ID: h.lastID, Topic: topic, UserID: userID, Data: payload}
	if len(h.history) == sseReplayLimit {
		copy(h.history, h.history[1:])
		h.history = h.history[:sseReplayLimit-1]
	}
	h.history = append(h.history, evt)

	for c := range h.clients {
		if !c.wants(evt) {
			continue
		}
		select {
		case c.ch <- evt:
		default:
		}
	}
}

func (h *sseHub) subscribe(userID string, topics []string) *sseClient {
	c := &sseClient{userID: userID, topics: topics, ch: make(chan *sseEvent, sseClientBuffer)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	return c
}

func (h *sseHub) unsubscribe(c *sseClient) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
}

// eventsSince returns the retained events newer than lastID, oldest first.
func (h *sseHub) eventsSince(lastID uint64) []*sseEvent {
	h.mu.RLock()
	defer h.mu.RUnlock()
	i, _ := slices.BinarySearchFunc(h.history, lastID+1, func(e *sseEvent, id uint64) int {
		switch {
		case e.ID < id:
			return -1
		case e.ID > id:
			return 1
		}
		return 0
	})
	return slices.Clone(h.history[i:])
}

func (c *sseClient) wants(evt *sseEvent) bool {
	if evt.UserID != c.userID {
		return false
	}
	if len(c.topics) == 0 {
		return true
	}
	return slices.ContainsFunc(c.topics, func(p string) bool {
		return matchTopicPattern(p, evt.Topic)
	})
}

// matchTopicPattern matches dot-separated topics NATS style: "*" stands
// for exactly one segment and a trailing ">" for one or more.
func matchTopicPattern(pattern, topic string) bool {
	for {
		p, pRest, pMore := strings.Cut(pattern, ".")
		if p == ">" {
			return topic != ""
		}
		if topic == "" {
			return false
		}
		t, tRest, tMore := strings.Cut(topic, ".")
		if p != "*" && p != t {
			return false
		}
		if !pMore || !tMore {
			return pMore == tMore
		}
		pattern, topic = pRest, tRest
	}
}

// parseTopics splits the comma-separated topics query parameter.
func parseTopics(q string) []string {
	var topics []string
	for _, t := range strings.Split(q, ",") {
		if t = strings.TrimSpace(t); t != "" {
			topics = append(topics, t)
		}
	}
	return topics
}

// handleEventStream serves GET /api/events/stream, the dashboard's live
// feed of submissions, moderation changes and plan updates.
func (s *Server) handleEventStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	client := s.hub.subscribe(userFrom(r.Context()).ID, parseTopics(r.URL.Query().Get("topics")))
	defer s.hub.unsubscribe(client)

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "retry:%d\n\n", sseRetryHint.Milliseconds())

	// Events broadcast between subscribe and replay can arrive twice; the
	// live loop skips anything at or below the last replayed ID.
	var sent uint64
	if lastID, err := strconv.ParseUint(r.Header.Get("Last-Event-ID"), 10, 64); err == nil {
		for _, evt := range s.hub.eventsSince(lastID) {
			if client.wants(evt) {
				writeSSEEvent(w, evt)
				sent = evt.ID
			}
		}
	}
	flusher.Flush()

	keepalive := time.NewTicker(sseKeepaliveInterval)
	defer keepalive.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case evt := <-client.ch:
			if evt.ID <= sent {
				continue
			}
			writeSSEEvent(w, evt)
		case <-keepalive.C:
			fmt.Fprint(w, ":keepalive\n\n")
		}
		flusher.Flush()
	}
}

func writeSSEEvent(w http.ResponseWriter, evt *sseEvent) {
	fmt.Fprintf(w, "id:%d\nevent:%s\ndata:%s\n\n", evt.ID, evt.Topic, evt.Data)
}

// broadcastEvent fans an event out to the stream clients of userID.
func (s *Server) broadcastEvent(topic, userID string, event any) {
	if s.hub == nil || userID == "" {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Warn("failed to marshal event for stream", "topic", topic, "error", err)
		return
	}
	s.hub.broadcast(topic, userID, payload)
}
