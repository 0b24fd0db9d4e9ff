package model

import "time"

// TestimonialStatus is the curation state of a testimonial.
type TestimonialStatus string

const (
	StatusPending  TestimonialStatus = "pending"
	StatusApproved TestimonialStatus = "approved"
	StatusRejected TestimonialStatus = "rejected"
)

// IsValid reports whether s is a known status.
func (s TestimonialStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// FreeTestimonialLimit is the number of testimonials a free-plan account may collect.
const FreeTestimonialLimit = 15

// Testimonial is a single piece of customer feedback collected through a form.
type Testimonial struct {
	ID              string            `json:"id"`
	FormID          string            `json:"form_id,omitempty"`
	UserID          string            `json:"user_id"`
	AuthorName      string            `json:"author_name"`
	AuthorEmail     string            `json:"author_email,omitempty"`
	AuthorTitle     string            `json:"author_title,omitempty"`
	AuthorAvatarURL string            `json:"author_avatar_url,omitempty"`
	AuthorCompany   string            `json:"author_company,omitempty"`
	Content         string            `json:"content"`
	Rating          *int              `json:"rating"`
	VideoURL        string            `json:"video_url,omitempty"`
	AISummary       string            `json:"ai_summary,omitempty"`
	AITags          []string          `json:"ai_tags,omitempty"`
	Status          TestimonialStatus `json:"status"`
	IsFeatured      bool              `json:"is_featured"`
	CreatedAt       time.Time         `json:"created_at"`
}

// TestimonialFilter narrows a testimonial listing. Zero values match everything.
type TestimonialFilter struct {
	UserID string
	FormID string
	Status TestimonialStatus
	Search string // case-insensitive match on author name, email and content
	Limit  int
	Offset int
}

// TestimonialPatch carries the owner-editable fields of a testimonial.
// Nil fields are left unchanged.
type TestimonialPatch struct {
	Status     *TestimonialStatus `json:"status,omitempty"`
	IsFeatured *bool              `json:"is_featured,omitempty"`
}
