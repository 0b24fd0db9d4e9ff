package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"
	"github.com/testispark/testispark/internal/client"
	"github.com/testispark/testispark/internal/events"
	"github.com/testispark/testispark/internal/ui"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream live testimonial, widget and billing events",
	Long: `Stream live events. With a NATS URL (--nats, TESTISPARK_NATS_URL or the
active remote) every event on the bus is shown. Otherwise the dashboard
event stream is followed and only your own events are shown.`,
	GroupID: "embed",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		topics, _ := cmd.Flags().GetStringSlice("topic")
		natsURL, _ := cmd.Flags().GetString("nats")
		if natsURL == "" {
			natsURL = os.Getenv("TESTISPARK_NATS_URL")
		}
		if natsURL == "" {
			natsURL = activeRemoteNATSURL()
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		out := cmd.OutOrStdout()
		if natsURL != "" {
			return watchNATS(ctx, out, natsURL, topics)
		}
		retry, _ := cmd.Flags().GetDuration("retry")
		return watchStream(ctx, out, tsClient, topics, retry)
	},
}

func watchNATS(ctx context.Context, out io.Writer, natsURL string, topics []string) error {
	sub, err := events.NewNATSSubscriber(natsURL,
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Printf("nats: disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			log.Printf("nats: reconnected")
		}),
	)
	if err != nil {
		return fmt.Errorf("connecting to NATS: %w", err)
	}
	defer sub.Close()

	if len(topics) == 0 {
		topics = []string{events.TopicAll}
	}
	merged := make(chan events.Message, 64)
	for _, topic := range topics {
		ch, cancel, err := sub.Subscribe(topic)
		if err != nil {
			return fmt.Errorf("subscribing to %s: %w", topic, err)
		}
		defer cancel()
		go func() {
			for msg := range ch {
				select {
				case merged <- msg:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg := <-merged:
			printEvent(out, time.Now(), msg)
		}
	}
}

// watchStream follows the dashboard SSE stream, reconnecting after retry and
// resuming from the last event id seen.
func watchStream(ctx context.Context, out io.Writer, c client.Client, topics []string, retry time.Duration) error {
	var lastID uint64
	for {
		err := c.StreamEvents(ctx, topics, lastID, func(e client.StreamEvent) error {
			lastID = e.ID
			printEvent(out, time.Now(), e.Message)
			return nil
		})
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			var apiErr *client.APIError
			if errors.As(err, &apiErr) && apiErr.StatusCode < 500 {
				return fmt.Errorf("following event stream: %w", err)
			}
			log.Printf("event stream: %v; retrying in %s", err, retry)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(retry):
		}
	}
}

func printEvent(out io.Writer, at time.Time, msg events.Message) {
	fmt.Fprintf(out, "%s  %-24s  %s\n",
		ui.RenderMuted(at.Format("15:04:05")),
		ui.RenderAccent(strings.TrimPrefix(msg.Topic, "testispark.")),
		describeEvent(msg.Topic, msg.Data))
}

// describeEvent renders a one-line summary of an event payload. Payloads
// that do not decode are shown raw.
func describeEvent(topic string, data []byte) string {
	switch topic {
	case events.TopicTestimonialSubmitted, events.TopicTestimonialUpdated:
		var e events.TestimonialUpdated
		if json.Unmarshal(data, &e) == nil && e.Testimonial != nil {
			t := e.Testimonial
			return fmt.Sprintf("%s %s %s %q", t.ID, ui.RenderStatus(string(t.Status)),
				ui.RenderRating(t.Rating), truncate(t.AuthorName+": "+t.Content, 60))
		}
	case events.TopicTestimonialDeleted:
		var e events.TestimonialDeleted
		if json.Unmarshal(data, &e) == nil {
			return e.TestimonialID
		}
	case events.TopicTestimonialsImported:
		var e events.TestimonialsImported
		if json.Unmarshal(data, &e) == nil {
			return fmt.Sprintf("%d from %s", e.Count, e.Source)
		}
	case events.TopicWidgetCreated, events.TopicWidgetUpdated:
		var e events.WidgetUpdated
		if json.Unmarshal(data, &e) == nil && e.Widget != nil {
			return fmt.Sprintf("%s %s %q", e.Widget.ID, e.Widget.Type, e.Widget.Name)
		}
	case events.TopicWidgetDeleted:
		var e events.WidgetDeleted
		if json.Unmarshal(data, &e) == nil {
			return e.WidgetID
		}
	case events.TopicPlanChanged:
		var e events.PlanChanged
		if json.Unmarshal(data, &e) == nil {
			return fmt.Sprintf("%s %s %s=%s -> %s", e.Provider, e.Event, e.Key, e.Value, ui.RenderPlan(string(e.Plan)))
		}
	}
	return strings.TrimSpace(string(data))
}

func init() {
	watchCmd.Flags().StringSlice("topic", nil, "topic patterns to follow (default all)")
	watchCmd.Flags().String("nats", "", "NATS URL; overrides TESTISPARK_NATS_URL and the active remote")
	watchCmd.Flags().Duration("retry", 3*time.Second, "delay before reconnecting the event stream")
}
