package importer

import (
	"fmt"
	"strings"
	"time"

	"github.com/testispark/testispark/internal/idgen"
	"github.com/testispark/testispark/internal/model"
)

// Entry is one testimonial in a bulk import.
type Entry struct {
	AuthorName    string `json:"author_name"`
	Content       string `json:"content"`
	Rating        *int   `json:"rating"`
	AuthorCompany string `json:"author_company"`
	AuthorTitle   string `json:"author_title"`
	VideoURL      string `json:"video_url"`
}

// BuildTestimonials converts bulk entries into approved testimonials owned
// by userID. Imported testimonials skip moderation. Entries are validated
// as a whole so a bad row rejects the batch.
func BuildTestimonials(userID, formID string, entries []Entry, now time.Time) ([]*model.Testimonial, error) {
	var ve model.ValidationError
	if len(entries) == 0 {
		ve.Errors = append(ve.Errors, model.FieldError{Field: "testimonials", Message: "must be a non-empty array"})
	}
	for i, e := range entries {
		if strings.TrimSpace(e.AuthorName) == "" {
			ve.Errors = append(ve.Errors, model.FieldError{Field: fmt.Sprintf("testimonials[%d].author_name", i), Message: "is required"})
		}
		if strings.TrimSpace(e.Content) == "" {
			ve.Errors = append(ve.Errors, model.FieldError{Field: fmt.Sprintf("testimonials[%d].content", i), Message: "is required"})
		}
		if e.Rating != nil && (*e.Rating < 1 || *e.Rating > 5) {
			ve.Errors = append(ve.Errors, model.FieldError{
				Field:   fmt.Sprintf("testimonials[%d].rating", i),
				Message: fmt.Sprintf("must be between 1 and 5, got %d", *e.Rating),
			})
		}
	}
	if ve.HasErrors() {
		return nil, &ve
	}

	out := make([]*model.Testimonial, len(entries))
	for i, e := range entries {
		out[i] = &model.Testimonial{
			ID:            idgen.NewID(),
			FormID:        formID,
			UserID:        userID,
			AuthorName:    strings.TrimSpace(e.AuthorName),
			AuthorCompany: strings.TrimSpace(e.AuthorCompany),
			AuthorTitle:   strings.TrimSpace(e.AuthorTitle),
			Content:       strings.TrimSpace(e.Content),
			Rating:        e.Rating,
			VideoURL:      e.VideoURL,
			Status:        model.StatusApproved,
			// Spread timestamps so the batch keeps its order under created_at DESC.
			CreatedAt: now.Add(-time.Duration(i) * time.Millisecond),
		}
	}
	return out, nil
}
