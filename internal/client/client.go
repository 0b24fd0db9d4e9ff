// Package client talks to the TestiSpark HTTP API: the authenticated
// dashboard endpoints through HTTPClient and the public embed endpoint through
// EmbedClient.
package client

import (
	"context"
	"io"

	"github.com/testispark/testispark/internal/importer"
	"github.com/testispark/testispark/internal/model"
)

// Client is the interface the CLI uses to manage an account. It is
// implemented by HTTPClient.
type Client interface {
	// Widgets
	ListWidgets(ctx context.Context) ([]*model.Widget, error)
	GetWidget(ctx context.Context, id string) (*model.Widget, error)
	CreateWidget(ctx context.Context, req *WidgetRequest) (*model.Widget, error)
	UpdateWidget(ctx context.Context, id string, req *WidgetRequest) (*model.Widget, error)
	DeleteWidget(ctx context.Context, id string) error

	// Testimonials
	ListTestimonials(ctx context.Context, req *ListTestimonialsRequest) ([]*model.Testimonial, error)
	UpdateTestimonial(ctx context.Context, id string, patch *model.TestimonialPatch) (*model.Testimonial, error)
	DeleteTestimonial(ctx context.Context, id string) error
	SubmitTestimonial(ctx context.Context, s *model.Submission) (*model.Testimonial, error)
	ImportTestimonials(ctx context.Context, formID string, entries []importer.Entry) (int, error)
	PreviewTweet(ctx context.Context, tweetURL string) (*importer.Tweet, error)
	ExportCSV(ctx context.Context, req *ListTestimonialsRequest, w io.Writer) error
	Summarize(ctx context.Context, testimonialID string) (*model.Testimonial, error)

	// Forms
	ListForms(ctx context.Context) ([]*model.Form, error)
	CreateForm(ctx context.Context, req *FormRequest) (*model.Form, error)

	// Billing
	CheckoutURL(ctx context.Context) (string, error)

	// Health
	Health(ctx context.Context) (string, error)

	// Events
	StreamEvents(ctx context.Context, topics []string, lastID uint64, fn func(StreamEvent) error) error

	Close() error
}

// WidgetRequest is the body of widget create and update calls.
type WidgetRequest struct {
	Name           string             `json:"name" yaml:"name"`
	Type           model.WidgetType   `json:"type" yaml:"type"`
	Config         model.WidgetConfig `json:"config" yaml:"config"`
	TestimonialIDs []string           `json:"testimonial_ids" yaml:"testimonial_ids"`
}

// ListTestimonialsRequest filters testimonial listing and export. Zero
// values mean no filter.
type ListTestimonialsRequest struct {
	FormID string `json:"form_id,omitempty"`
	Status string `json:"status,omitempty"`
	Search string `json:"search,omitempty"`
}

// FormRequest holds parameters for creating a collection form.
type FormRequest struct {
	Name            string           `json:"name"`
	Slug            string           `json:"slug"`
	Headline        string           `json:"headline,omitempty"`
	Description     string           `json:"description,omitempty"`
	BrandColor      string           `json:"brand_color,omitempty"`
	ThankYouMessage string           `json:"thank_you_message,omitempty"`
	Questions       []model.Question `json:"questions,omitempty"`
}
