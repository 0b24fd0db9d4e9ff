// Package events publishes domain events about testimonials and widgets.
package events

import (
	"context"

	"github.com/testispark/testispark/internal/model"
)

// Event topic constants
const (
	TopicTestimonialSubmitted = "testispark.testimonial.submitted"
	TopicTestimonialUpdated   = "testispark.testimonial.updated"
	TopicTestimonialDeleted   = "testispark.testimonial.deleted"
	TopicTestimonialsImported = "testispark.testimonial.imported"

	TopicWidgetCreated = "testispark.widget.created"
	TopicWidgetUpdated = "testispark.widget.updated"
	TopicWidgetDeleted = "testispark.widget.deleted"

	TopicPlanChanged = "testispark.profile.plan_changed"

	// TopicAll matches every event published by the server.
	TopicAll = "testispark.>"
)

// Event types

type TestimonialSubmitted struct {
	Testimonial *model.Testimonial `json:"testimonial"`
}

type TestimonialUpdated struct {
	Testimonial *model.Testimonial `json:"testimonial"`
	Changes     map[string]any     `json:"changes"` // field name -> new value
}

type TestimonialDeleted struct {
	TestimonialID string `json:"testimonial_id"`
	UserID        string `json:"user_id"`
}

type TestimonialsImported struct {
	UserID string `json:"user_id"`
	FormID string `json:"form_id,omitempty"`
	Source string `json:"source"` // "json" or "twitter"
	Count  int    `json:"count"`
}

type WidgetCreated struct {
	Widget *model.Widget `json:"widget"`
}

type WidgetUpdated struct {
	Widget *model.Widget `json:"widget"`
}

type WidgetDeleted struct {
	WidgetID string `json:"widget_id"`
	UserID   string `json:"user_id"`
}

type PlanChanged struct {
	Provider string           `json:"provider"` // "lemonsqueezy" or "paddle"
	Event    string           `json:"event"`
	Key      model.BillingKey `json:"key"`
	Value    string           `json:"value"`
	Plan     model.Plan       `json:"plan,omitempty"`
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}
