package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/testispark/testispark/internal/model"
)

// Source is the read side of the store needed for a backup.
type Source interface {
	ListForms(ctx context.Context, userID string) ([]*model.Form, error)
	ListWidgets(ctx context.Context, userID string) ([]*model.Widget, error)
	ListTestimonials(ctx context.Context, filter model.TestimonialFilter) ([]*model.Testimonial, error)
}

// header is the first JSONL record written by ExportJSONL.
type header struct {
	Version          string    `json:"version"`
	Type             string    `json:"type"`
	Timestamp        time.Time `json:"timestamp"`
	FormCount        int       `json:"form_count"`
	WidgetCount      int       `json:"widget_count"`
	TestimonialCount int       `json:"testimonial_count"`
}

// record wraps a single JSONL line with a type discriminator.
type record struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// ExportJSONL writes every form, widget and testimonial as JSONL to w.
// Records are grouped by type and sorted by ID so successive backups diff
// cleanly.
func ExportJSONL(ctx context.Context, s Source, w io.Writer) error {
	forms, err := s.ListForms(ctx, "")
	if err != nil {
		return fmt.Errorf("list forms: %w", err)
	}
	widgets, err := s.ListWidgets(ctx, "")
	if err != nil {
		return fmt.Errorf("list widgets: %w", err)
	}
	testimonials, err := s.ListTestimonials(ctx, model.TestimonialFilter{})
	if err != nil {
		return fmt.Errorf("list testimonials: %w", err)
	}

	sort.Slice(forms, func(i, j int) bool { return forms[i].ID < forms[j].ID })
	sort.Slice(widgets, func(i, j int) bool { return widgets[i].ID < widgets[j].ID })
	sort.Slice(testimonials, func(i, j int) bool { return testimonials[i].ID < testimonials[j].ID })

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(header{
		Version:          "1",
		Type:             "header",
		Timestamp:        time.Now().UTC(),
		FormCount:        len(forms),
		WidgetCount:      len(widgets),
		TestimonialCount: len(testimonials),
	}); err != nil {
		return fmt.Errorf("encode header: %w", err)
	}

	for _, f := range forms {
		if err := enc.Encode(record{Type: "form", Data: f}); err != nil {
			return fmt.Errorf("encode form %s: %w", f.ID, err)
		}
	}
	for _, wd := range widgets {
		if err := enc.Encode(record{Type: "widget", Data: wd}); err != nil {
			return fmt.Errorf("encode widget %s: %w", wd.ID, err)
		}
	}
	for _, t := range testimonials {
		if err := enc.Encode(record{Type: "testimonial", Data: t}); err != nil {
			return fmt.Errorf("encode testimonial %s: %w", t.ID, err)
		}
	}

	return nil
}
