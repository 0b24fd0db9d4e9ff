package embed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"runtime/debug"
	"sync"

	"golang.org/x/net/html"
	"golang.org/x/sync/errgroup"
)

// Fetcher retrieves the embed payload for a widget from the service at
// baseURL. An empty baseURL means the page's own origin.
type Fetcher interface {
	FetchEmbed(ctx context.Context, baseURL, widgetID string) (*Payload, error)
}

// Status is the outcome of one discovered instance.
type Status string

const (
	StatusMounted         Status = "mounted"
	StatusAlreadyRendered Status = "already_rendered"
	StatusEmpty           Status = "empty"
	StatusUnsupported     Status = "unsupported"
	StatusFailed          Status = "failed"
)

// Outcome reports what happened to one discovered instance.
type Outcome struct {
	WidgetID string
	BaseURL  string
	Status   Status
	Err      error
}

// Loader runs the discovery and mount pass over a document.
type Loader struct {
	fetcher Fetcher
	logger  *slog.Logger
	opts    MountOptions

	// mu serializes mutations of the shared document tree.
	mu sync.Mutex
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets the logger used for diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(ld *Loader) { ld.logger = l }
}

// WithShadowDOM toggles declarative shadow root mounting (on by default).
func WithShadowDOM(enabled bool) Option {
	return func(ld *Loader) { ld.opts.ShadowDOM = enabled }
}

// NewLoader returns a Loader that fetches payloads with f.
func NewLoader(f Fetcher, opts ...Option) *Loader {
	l := &Loader{
		fetcher: f,
		logger:  slog.Default(),
		opts:    MountOptions{ShadowDOM: true},
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

type job struct {
	idx     int
	inst    Instance
	target  *html.Node
	baseURL string
}

// Init discovers every widget script in doc, resolves and marks its mount
// point, then fetches and mounts all pending widgets concurrently. It never
// fails: fetch, payload and render errors leave the mount point empty and are
// reported in the returned outcomes (in document order) and the log.
func (l *Loader) Init(ctx context.Context, doc *html.Node, pageURL string) []Outcome {
	l.mu.Lock()
	instances := Discover(doc)
	outcomes := make([]Outcome, len(instances))
	fallbackBase := firstScriptOrigin(instances, pageURL)

	var jobs []job
	for i, inst := range instances {
		target := ResolveMount(doc, inst)
		base := BaseURL(inst.Script, pageURL)
		if base == "" {
			base = fallbackBase
		}
		outcomes[i] = Outcome{WidgetID: inst.WidgetID, BaseURL: base}
		if isRendered(target) {
			outcomes[i].Status = StatusAlreadyRendered
			continue
		}
		// Marked before any fetch starts so a second pass cannot double-fetch.
		markRendered(target)
		jobs = append(jobs, job{idx: i, inst: inst, target: target, baseURL: base})
	}
	l.mu.Unlock()

	var g errgroup.Group
	for _, j := range jobs {
		g.Go(func() error {
			outcomes[j.idx].Status, outcomes[j.idx].Err = l.load(ctx, j)
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

func (l *Loader) load(ctx context.Context, j job) (status Status, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			l.logger.Error("panic while loading widget",
				"widget_id", j.inst.WidgetID,
				"panic", fmt.Sprintf("%v", rec),
				"stack", string(debug.Stack()),
			)
			status, err = StatusFailed, fmt.Errorf("panic: %v", rec)
		}
	}()

	payload, err := l.fetcher.FetchEmbed(ctx, j.baseURL, j.inst.WidgetID)
	if err == nil && (payload == nil || payload.Widget == nil) {
		err = ErrNoWidget
	}
	if err != nil {
		l.logger.Error("failed to load widget", "widget_id", j.inst.WidgetID, "base_url", j.baseURL, "err", err)
		return StatusFailed, err
	}

	l.mu.Lock()
	err = Mount(j.target, *payload, l.opts)
	l.mu.Unlock()

	switch {
	case err == nil:
		return StatusMounted, nil
	case errors.Is(err, ErrEmpty):
		return StatusEmpty, nil
	case errors.Is(err, ErrUnsupportedType):
		l.logger.Warn("widget type not supported by renderer", "widget_id", j.inst.WidgetID, "type", payload.Widget.Type)
		return StatusUnsupported, err
	default:
		l.logger.Error("failed to render widget", "widget_id", j.inst.WidgetID, "err", err)
		return StatusFailed, err
	}
}

// firstScriptOrigin mirrors the snippet's page-wide fallback: the origin of
// the first widget script with a resolvable src, or the page origin.
func firstScriptOrigin(instances []Instance, pageURL string) string {
	for _, inst := range instances {
		if base := BaseURL(inst.Script, pageURL); base != "" {
			return base
		}
	}
	if u, err := url.Parse(pageURL); err == nil && u.Scheme != "" && u.Host != "" {
		return u.Scheme + "://" + u.Host
	}
	return ""
}
