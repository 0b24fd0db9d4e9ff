package client

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/testispark/testispark/internal/events"
)

// StreamEvent is one event read from the dashboard event stream.
type StreamEvent struct {
	ID uint64
	events.Message
}

// StreamEvents follows GET /api/events/stream and calls fn for every event
// until ctx is done, the server closes the stream, or fn returns an error.
// lastID resumes after a previously seen event; zero starts fresh.
func (c *HTTPClient) StreamEvents(ctx context.Context, topics []string, lastID uint64, fn func(StreamEvent) error) error {
	path := "/api/events/stream"
	if len(topics) > 0 {
		path += "?" + url.Values{"topics": {strings.Join(topics, ",")}}.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if lastID > 0 {
		req.Header.Set("Last-Event-ID", strconv.FormatUint(lastID, 10))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("opening event stream: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return apiError(resp)
	}

	err = readSSE(bufio.NewScanner(resp.Body), fn)
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// readSSE parses id:, event: and data: fields. A blank line dispatches the
// pending event; comment lines (keepalives) are skipped.
func readSSE(sc *bufio.Scanner, fn func(StreamEvent) error) error {
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	var evt StreamEvent
	var data []string
	for sc.Scan() {
		line := sc.Text()
		switch {
		case line == "":
			if evt.Topic != "" || len(data) > 0 {
				evt.Data = []byte(strings.Join(data, "\n"))
				if err := fn(evt); err != nil {
					return err
				}
			}
			evt, data = StreamEvent{}, nil
		case strings.HasPrefix(line, ":"):
		case strings.HasPrefix(line, "id:"):
			id, err := strconv.ParseUint(strings.TrimSpace(strings.TrimPrefix(line, "id:")), 10, 64)
			if err == nil {
				evt.ID = id
			}
		case strings.HasPrefix(line, "event:"):
			evt.Topic = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data = append(data, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		}
	}
	if err := sc.Err(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("reading event stream: %w", err)
	}
	return nil
}
