package store

import (
	"context"
	"errors"

	"github.com/testispark/testispark/internal/model"
)

// ErrConflict is returned when an insert collides with a unique key, such as
// a taken form slug or an already submitted transaction hash.
var ErrConflict = errors.New("already exists")

// Store defines the persistence interface for accounts, forms, testimonials
// and widgets. Lookups of a missing row return an error wrapping sql.ErrNoRows.
type Store interface {
	// Profiles
	GetProfile(ctx context.Context, id string) (*model.Profile, error)
	// GetProfileForUpdate reads a profile and holds its row lock until the
	// enclosing transaction ends. Outside a transaction it behaves like
	// GetProfile.
	GetProfileForUpdate(ctx context.Context, id string) (*model.Profile, error)
	UpsertProfile(ctx context.Context, p *model.Profile) error
	ApplyBillingUpdate(ctx context.Context, u model.BillingUpdate) (int64, error) // returns profiles updated

	// Forms
	CreateForm(ctx context.Context, f *model.Form) error
	GetForm(ctx context.Context, id string) (*model.Form, error)
	GetFormBySlug(ctx context.Context, slug string) (*model.Form, error)
	ListForms(ctx context.Context, userID string) ([]*model.Form, error) // empty userID lists all

	// Testimonials
	CreateTestimonial(ctx context.Context, t *model.Testimonial) error
	GetTestimonial(ctx context.Context, id string) (*model.Testimonial, error)
	ListTestimonials(ctx context.Context, filter model.TestimonialFilter) ([]*model.Testimonial, error)
	CountTestimonials(ctx context.Context, userID string) (int, error)
	UpdateTestimonial(ctx context.Context, id string, patch model.TestimonialPatch) (*model.Testimonial, error)
	UpdateSummary(ctx context.Context, id, summary string, tags []string) (*model.Testimonial, error)
	DeleteTestimonial(ctx context.Context, id string) error
	// ListApprovedTestimonials returns the approved testimonials among ids,
	// in the order the ids are given.
	ListApprovedTestimonials(ctx context.Context, ids []string) ([]*model.Testimonial, error)
	// ListWallTestimonials returns a form's approved testimonials, featured
	// first and newest first within each group.
	ListWallTestimonials(ctx context.Context, formID string) ([]*model.Testimonial, error)

	// Widgets
	CreateWidget(ctx context.Context, w *model.Widget) error
	GetWidget(ctx context.Context, id string) (*model.Widget, error)
	ListWidgets(ctx context.Context, userID string) ([]*model.Widget, error) // empty userID lists all
	UpdateWidget(ctx context.Context, w *model.Widget) error
	DeleteWidget(ctx context.Context, id string) error

	// Crypto payments
	CreateCryptoPayment(ctx context.Context, p *model.CryptoPayment) error
	GetCryptoPaymentByTxHash(ctx context.Context, txHash string) (*model.CryptoPayment, error)

	// Transaction support
	RunInTransaction(ctx context.Context, fn func(tx Store) error) error

	// Lifecycle
	Close() error
}
