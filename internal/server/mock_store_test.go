package server

import (
	"cmp"
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/testispark/testispark/internal/model"
	"github.com/testispark/testispark/internal/store"
)

// mockStore is an in-memory store.Store. Lookups of missing rows return an
// error wrapping sql.ErrNoRows like the postgres store.
type mockStore struct {
	mu           sync.Mutex
	profiles     map[string]*model.Profile
	forms        map[string]*model.Form
	testimonials map[string]*model.Testimonial
	widgets      map[string]*model.Widget
	payments     map[string]*model.CryptoPayment

	// createFormErr and createPaymentErr, when non-nil, are returned by the
	// matching create call (for testing unique violations).
	createFormErr    error
	createPaymentErr error
	// listErr, when non-nil, is returned by every listing.
	listErr error
	// locked records the profile ids read with GetProfileForUpdate.
	locked []string
}

func newMockStore() *mockStore {
	return &mockStore{
		profiles:     make(map[string]*model.Profile),
		forms:        make(map[string]*model.Form),
		testimonials: make(map[string]*model.Testimonial),
		widgets:      make(map[string]*model.Widget),
		payments:     make(map[string]*model.CryptoPayment),
	}
}

func notFound(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, sql.ErrNoRows)
}

// requireOwner mirrors the user_id REFERENCES profiles(id) constraints.
// Callers hold m.mu.
func (m *mockStore) requireOwner(table, userID string) error {
	if _, ok := m.profiles[userID]; !ok {
		return fmt.Errorf("insert %s: user_id %q violates foreign key to profiles", table, userID)
	}
	return nil
}

func (m *mockStore) GetProfile(_ context.Context, id string) (*model.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[id]
	if !ok {
		return nil, notFound("profile", id)
	}
	clone := *p
	return &clone, nil
}

func (m *mockStore) GetProfileForUpdate(ctx context.Context, id string) (*model.Profile, error) {
	m.mu.Lock()
	m.locked = append(m.locked, id)
	m.mu.Unlock()
	return m.GetProfile(ctx, id)
}

func (m *mockStore) UpsertProfile(_ context.Context, p *model.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *p
	m.profiles[p.ID] = &clone
	return nil
}

func (m *mockStore) ApplyBillingUpdate(_ context.Context, u model.BillingUpdate) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.IsNoop() {
		return 0, nil
	}
	var n int64
	for _, p := range m.profiles {
		var key string
		switch u.Key {
		case model.ByUserID:
			key = p.ID
		case model.ByPaddleCustomerID:
			key = p.PaddleCustomerID
		case model.ByPaddleSubscriptionID:
			key = p.PaddleSubscriptionID
		case model.ByLemonCustomerID:
			key = p.LemonCustomerID
		case model.ByLemonSubscriptionID:
			key = p.LemonSubscriptionID
		default:
			return 0, fmt.Errorf("unknown billing key %q", u.Key)
		}
		if key != u.Value {
			continue
		}
		if u.Plan != "" {
			p.Plan = u.Plan
		}
		if u.PaddleCustomerID != "" {
			p.PaddleCustomerID = u.PaddleCustomerID
		}
		if u.PaddleSubscriptionID != "" {
			p.PaddleSubscriptionID = u.PaddleSubscriptionID
		}
		if u.LemonCustomerID != "" {
			p.LemonCustomerID = u.LemonCustomerID
		}
		if u.LemonSubscriptionID != "" {
			p.LemonSubscriptionID = u.LemonSubscriptionID
		}
		n++
	}
	return n, nil
}

func (m *mockStore) CreateForm(_ context.Context, f *model.Form) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createFormErr != nil {
		return m.createFormErr
	}
	if err := m.requireOwner("forms", f.UserID); err != nil {
		return err
	}
	clone := *f
	m.forms[f.ID] = &clone
	return nil
}

func (m *mockStore) GetForm(_ context.Context, id string) (*model.Form, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.forms[id]
	if !ok {
		return nil, notFound("form", id)
	}
	clone := *f
	return &clone, nil
}

func (m *mockStore) GetFormBySlug(_ context.Context, slug string) (*model.Form, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, f := range m.forms {
		if f.Slug == slug {
			clone := *f
			return &clone, nil
		}
	}
	return nil, notFound("form", slug)
}

func (m *mockStore) ListForms(_ context.Context, userID string) ([]*model.Form, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []*model.Form
	for _, f := range m.forms {
		if userID != "" && f.UserID != userID {
			continue
		}
		clone := *f
		for _, t := range m.testimonials {
			if t.FormID == f.ID {
				clone.TestimonialCount++
			}
		}
		out = append(out, &clone)
	}
	slices.SortFunc(out, func(a, b *model.Form) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func (m *mockStore) CreateTestimonial(_ context.Context, t *model.Testimonial) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *t
	m.testimonials[t.ID] = &clone
	return nil
}

func (m *mockStore) GetTestimonial(_ context.Context, id string) (*model.Testimonial, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.testimonials[id]
	if !ok {
		return nil, notFound("testimonial", id)
	}
	clone := *t
	return &clone, nil
}

func (m *mockStore) ListTestimonials(_ context.Context, f model.TestimonialFilter) ([]*model.Testimonial, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	search := strings.ToLower(f.Search)
	var out []*model.Testimonial
	for _, t := range m.testimonials {
		if f.UserID != "" && t.UserID != f.UserID {
			continue
		}
		if f.FormID != "" && t.FormID != f.FormID {
			continue
		}
		if f.Status != "" && t.Status != f.Status {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(t.AuthorName), search) &&
			!strings.Contains(strings.ToLower(t.AuthorEmail), search) &&
			!strings.Contains(strings.ToLower(t.Content), search) {
			continue
		}
		clone := *t
		out = append(out, &clone)
	}
	// Newest first, ties by id.
	slices.SortFunc(out, func(a, b *model.Testimonial) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (m *mockStore) CountTestimonials(_ context.Context, userID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.testimonials {
		if t.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (m *mockStore) UpdateTestimonial(_ context.Context, id string, patch model.TestimonialPatch) (*model.Testimonial, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.testimonials[id]
	if !ok {
		return nil, notFound("testimonial", id)
	}
	if patch.Status != nil {
		t.Status = *patch.Status
	}
	if patch.IsFeatured != nil {
		t.IsFeatured = *patch.IsFeatured
	}
	clone := *t
	return &clone, nil
}

func (m *mockStore) UpdateSummary(_ context.Context, id, summary string, tags []string) (*model.Testimonial, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.testimonials[id]
	if !ok {
		return nil, notFound("testimonial", id)
	}
	t.AISummary = summary
	t.AITags = tags
	clone := *t
	return &clone, nil
}

func (m *mockStore) DeleteTestimonial(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.testimonials[id]; !ok {
		return notFound("testimonial", id)
	}
	delete(m.testimonials, id)
	return nil
}

func (m *mockStore) ListApprovedTestimonials(_ context.Context, ids []string) ([]*model.Testimonial, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Testimonial
	for _, id := range ids {
		t, ok := m.testimonials[id]
		if !ok || t.Status != model.StatusApproved {
			continue
		}
		clone := *t
		out = append(out, &clone)
	}
	return out, nil
}

func (m *mockStore) ListWallTestimonials(_ context.Context, formID string) ([]*model.Testimonial, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []*model.Testimonial
	for _, t := range m.testimonials {
		if t.FormID != formID || t.Status != model.StatusApproved {
			continue
		}
		clone := *t
		out = append(out, &clone)
	}
	slices.SortFunc(out, func(a, b *model.Testimonial) int {
		if a.IsFeatured != b.IsFeatured {
			if a.IsFeatured {
				return -1
			}
			return 1
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out, nil
}

func (m *mockStore) CreateWidget(_ context.Context, w *model.Widget) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.requireOwner("widgets", w.UserID); err != nil {
		return err
	}
	clone := *w
	m.widgets[w.ID] = &clone
	return nil
}

func (m *mockStore) GetWidget(_ context.Context, id string) (*model.Widget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.widgets[id]
	if !ok {
		return nil, notFound("widget", id)
	}
	clone := *w
	return &clone, nil
}

func (m *mockStore) ListWidgets(_ context.Context, userID string) ([]*model.Widget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []*model.Widget
	for _, w := range m.widgets {
		if userID != "" && w.UserID != userID {
			continue
		}
		clone := *w
		out = append(out, &clone)
	}
	slices.SortFunc(out, func(a, b *model.Widget) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func (m *mockStore) UpdateWidget(_ context.Context, w *model.Widget) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.widgets[w.ID]; !ok {
		return notFound("widget", w.ID)
	}
	clone := *w
	m.widgets[w.ID] = &clone
	return nil
}

func (m *mockStore) DeleteWidget(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.widgets[id]; !ok {
		return notFound("widget", id)
	}
	delete(m.widgets, id)
	return nil
}

func (m *mockStore) CreateCryptoPayment(_ context.Context, p *model.CryptoPayment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createPaymentErr != nil {
		return m.createPaymentErr
	}
	if err := m.requireOwner("crypto_payments", p.UserID); err != nil {
		return err
	}
	clone := *p
	m.payments[p.TxHash] = &clone
	return nil
}

func (m *mockStore) GetCryptoPaymentByTxHash(_ context.Context, txHash string) (*model.CryptoPayment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[txHash]
	if !ok {
		return nil, notFound("crypto payment", txHash)
	}
	clone := *p
	return &clone, nil
}

func (m *mockStore) RunInTransaction(_ context.Context, fn func(tx store.Store) error) error {
	return fn(m)
}

func (m *mockStore) Close() error {
	return nil
}

var _ store.Store = (*mockStore)(nil)
