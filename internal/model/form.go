package model

import "time"

// QuestionType is the input kind of a form question.
type QuestionType string

const (
	QuestionText   QuestionType = "text"
	QuestionRating QuestionType = "rating"
)

// Question is one prompt on a collection form.
type Question struct {
	ID       string       `json:"id"`
	Text     string       `json:"text"`
	Type     QuestionType `json:"type"`
	Required bool         `json:"required"`
}

// Defaults for forms created without branding.
const (
	DefaultBrandColor      = "#6366f1"
	DefaultThankYouMessage = "Thank you for your testimonial! We truly appreciate your feedback."
)

// Form is a hosted collection page that customers submit testimonials through.
type Form struct {
	ID              string     `json:"id"`
	UserID          string     `json:"user_id"`
	Name            string     `json:"name"`
	Slug            string     `json:"slug"`
	Headline        string     `json:"headline,omitempty"`
	Description     string     `json:"description,omitempty"`
	Questions       []Question `json:"questions"`
	BrandColor      string     `json:"brand_color"`
	LogoURL         string     `json:"logo_url,omitempty"`
	ThankYouMessage string     `json:"thank_you_message,omitempty"`
	IsActive        bool       `json:"is_active"`
	CreatedAt       time.Time  `json:"created_at"`

	// TestimonialCount is filled by listings only.
	TestimonialCount int `json:"testimonial_count"`
}

// ApplyDefaults fills in the brand color and thank-you message when unset.
func (f *Form) ApplyDefaults() {
	if f.BrandColor == "" {
		f.BrandColor = DefaultBrandColor
	}
	if f.ThankYouMessage == "" {
		f.ThankYouMessage = DefaultThankYouMessage
	}
	if f.Questions == nil {
		f.Questions = []Question{}
	}
}
