// Package sync periodically backs up forms, widgets and testimonials as
// JSONL to S3 or a git repository.
package sync

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"time"
)

// Destination receives a complete JSONL backup on every run.
type Destination interface {
	// Name identifies the destination in logs.
	Name() string
	Write(ctx context.Context, data []byte) error
}

// Report summarizes one backup run.
type Report struct {
	Bytes   int
	Written []string
	Failed  map[string]error
}

// Scheduler exports a Source on a fixed interval and fans the payload out
// to its destinations. Trigger requests an extra run between ticks.
type Scheduler struct {
	source   Source
	dests    []Destination
	interval time.Duration
	logger   *slog.Logger

	trigger chan struct{}
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewScheduler returns a stopped scheduler. A nil logger uses slog.Default.
func NewScheduler(src Source, dests []Destination, interval time.Duration, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		source:   src,
		dests:    dests,
		interval: interval,
		logger:   logger,
		trigger:  make(chan struct{}, 1),
	}
}

// Start runs a backup right away and then once per interval until Stop.
func (s *Scheduler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.wg.Add(1)
	go s.loop(ctx)
}

// Trigger asks the running scheduler for a backup as soon as it is idle.
// Requests made while one is already pending are coalesced.
func (s *Scheduler) Trigger() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

// Stop ends the loop and waits for an in-flight backup to finish.
func (s *Scheduler) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	s.wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		s.SyncOnce(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-s.trigger:
			ticker.Reset(s.interval)
		}
	}
}

// SyncOnce exports once and writes the payload to every destination. One
// failing destination does not keep the rest from being written.
func (s *Scheduler) SyncOnce(ctx context.Context) Report {
	var buf bytes.Buffer
	if err := ExportJSONL(ctx, s.source, &buf); err != nil {
		s.logger.Error("backup export failed", "err", err)
		return Report{}
	}

	rep := Report{Bytes: buf.Len()}
	for _, d := range s.dests {
		if err := d.Write(ctx, buf.Bytes()); err != nil {
			if rep.Failed == nil {
				rep.Failed = make(map[string]error)
			}
			rep.Failed[d.Name()] = err
			s.logger.Error("backup write failed", "destination", d.Name(), "err", err)
			continue
		}
		rep.Written = append(rep.Written, d.Name())
	}
	s.logger.Info("backup completed", "written", len(rep.Written), "failed", len(rep.Failed), "bytes", rep.Bytes)
	return rep
}
