// Package server implements the TestiSpark HTTP API: the public embed and
// submission endpoints, the authenticated dashboard API, and the billing
// webhooks.
package server

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/testispark/testispark/internal/events"
	"github.com/testispark/testispark/internal/importer"
	"github.com/testispark/testispark/internal/model"
	"github.com/testispark/testispark/internal/store"
	"github.com/testispark/testispark/internal/summarize"
)

// TweetFetcher resolves a tweet permalink into an importable preview.
type TweetFetcher interface {
	Fetch(ctx context.Context, tweetURL string) (*importer.Tweet, error)
}

// Options configures a Server. Zero values disable the feature they guard:
// an empty webhook secret rejects that provider's webhooks, and an empty
// JWTSecret rejects every authenticated request.
type Options struct {
	JWTSecret string

	LemonSqueezySecret    string
	LemonSqueezyStore     string
	LemonSqueezyVariantID string
	PaddleSecret          string

	Summarizer summarize.Summarizer // defaults to summarize.Fallback
	Tweets     TweetFetcher         // defaults to the public oEmbed endpoint
	Logger     *slog.Logger
	Now        func() time.Time
}

// Server holds the dependencies shared by every handler.
type Server struct {
	store      store.Store
	publisher  events.Publisher
	summarizer summarize.Summarizer
	tweets     TweetFetcher
	hub        *sseHub
	logger     *slog.Logger
	now        func() time.Time
	opts       Options
}

// New returns a Server backed by the given store and publisher.
func New(s store.Store, p events.Publisher, opts Options) *Server {
	srv := &Server{
		store:      s,
		publisher:  p,
		summarizer: opts.Summarizer,
		tweets:     opts.Tweets,
		hub:        newSSEHub(),
		logger:     opts.Logger,
		now:        opts.Now,
		opts:       opts,
	}
	if srv.publisher == nil {
		srv.publisher = events.Discard
	}
	if srv.summarizer == nil {
		srv.summarizer = summarize.Fallback{}
	}
	if srv.tweets == nil {
		srv.tweets = importer.NewTweetFetcher("")
	}
	if srv.logger == nil {
		srv.logger = slog.Default()
	}
	if srv.now == nil {
		srv.now = time.Now
	}
	return srv
}

// publish sends an event to NATS and to dashboard SSE clients of userID.
// Failures are logged and never fail the request.
func (s *Server) publish(ctx context.Context, topic, userID string, event any) {
	if err := s.publisher.Publish(ctx, topic, event); err != nil {
		s.logger.Warn("failed to publish event", "topic", topic, "user_id", userID, "error", err)
	}
	s.broadcastEvent(topic, userID, event)
}

// ensureProfile returns the caller's profile, creating a free-plan profile
// on first use.
func (s *Server) ensureProfile(ctx context.Context, u *User) (*model.Profile, error) {
	p, err := s.store.GetProfile(ctx, u.ID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	p = &model.Profile{
		ID:        u.ID,
		Email:     u.Email,
		Plan:      model.PlanFree,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.UpsertProfile(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}
