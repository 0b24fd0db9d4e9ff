package model

import (
	"fmt"
	"regexp"
	"strings"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// ValidationError holds a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation failure on a named field.
type FieldError struct {
	Field   string
	Message string
}

// Error formats the validation error as a semicolon-separated list of field messages.
func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// HasErrors reports whether the validation error contains any field errors.
func (e *ValidationError) HasErrors() bool {
	return len(e.Errors) > 0
}

func (e *ValidationError) add(field, format string, args ...any) {
	e.Errors = append(e.Errors, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

func (e *ValidationError) result() error {
	if e.HasErrors() {
		return e
	}
	return nil
}

// ValidateWidget checks a Widget for constraint violations.
// It returns a *ValidationError if any rules fail, or nil if the widget is valid.
func ValidateWidget(w *Widget) error {
	var ve ValidationError

	if strings.TrimSpace(w.Name) == "" {
		ve.add("name", "is required")
	}
	if !w.Type.IsValid() {
		ve.add("type", "must be wall, carousel, or badge, got %q", w.Type)
	}
	if !w.Config.Theme.IsValid() {
		ve.add("config.theme", "must be light or dark, got %q", w.Config.Theme)
	}
	if w.Config.Columns < MinColumns || w.Config.Columns > MaxColumns {
		ve.add("config.columns", "must be between %d and %d, got %d", MinColumns, MaxColumns, w.Config.Columns)
	}
	if w.Config.MaxItems < MinMaxItems || w.Config.MaxItems > MaxMaxItems {
		ve.add("config.max_items", "must be between %d and %d, got %d", MinMaxItems, MaxMaxItems, w.Config.MaxItems)
	}
	if w.TestimonialIDs == nil {
		ve.add("testimonial_ids", "must be an array")
	}

	return ve.result()
}

// Submission is a testimonial as posted by a customer through a public form.
type Submission struct {
	FormID          string `json:"form_id"`
	AuthorName      string `json:"author_name"`
	AuthorEmail     string `json:"author_email"`
	AuthorTitle     string `json:"author_title"`
	AuthorCompany   string `json:"author_company"`
	AuthorAvatarURL string `json:"author_avatar_url"`
	Content         string `json:"content"`
	Rating          *int   `json:"rating"`
	VideoURL        string `json:"video_url"`
}

// ValidateSubmission checks a public submission for constraint violations.
func ValidateSubmission(s *Submission) error {
	var ve ValidationError

	if strings.TrimSpace(s.FormID) == "" {
		ve.add("form_id", "is required")
	}
	if strings.TrimSpace(s.AuthorName) == "" {
		ve.add("author_name", "is required")
	}
	if strings.TrimSpace(s.Content) == "" {
		ve.add("content", "is required")
	}
	if s.Rating != nil && (*s.Rating < 1 || *s.Rating > 5) {
		ve.add("rating", "must be between 1 and 5, got %d", *s.Rating)
	}

	return ve.result()
}

// ValidateForm checks a Form for constraint violations.
func ValidateForm(f *Form) error {
	var ve ValidationError

	if strings.TrimSpace(f.Name) == "" {
		ve.add("name", "is required")
	}
	if strings.TrimSpace(f.Slug) == "" {
		ve.add("slug", "is required")
	} else if !slugPattern.MatchString(f.Slug) {
		ve.add("slug", "must be lowercase letters, numbers, and hyphens only")
	}
	for i, q := range f.Questions {
		if strings.TrimSpace(q.Text) == "" {
			ve.add(fmt.Sprintf("questions[%d].text", i), "is required")
		}
		if q.Type != QuestionText && q.Type != QuestionRating {
			ve.add(fmt.Sprintf("questions[%d].type", i), "invalid value %q", q.Type)
		}
	}

	return ve.result()
}

// ValidateCryptoPayment checks a payment submission for constraint violations.
func ValidateCryptoPayment(p *CryptoPayment) error {
	var ve ValidationError

	if strings.TrimSpace(p.TxHash) == "" {
		ve.add("tx_hash", "is required")
	}
	if strings.TrimSpace(p.WalletAddress) == "" {
		ve.add("wallet_address", "is required")
	}
	if p.Amount < 0 {
		ve.add("amount", "must not be negative")
	}

	return ve.result()
}
