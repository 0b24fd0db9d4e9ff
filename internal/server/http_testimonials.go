package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/testispark/testispark/internal/events"
	"github.com/testispark/testispark/internal/export"
	"github.com/testispark/testispark/internal/idgen"
	"github.com/testispark/testispark/internal/importer"
	"github.com/testispark/testispark/internal/model"
	"github.com/testispark/testispark/internal/store"
)

var errLimitReached = errors.New("free plan testimonial limit reached")

const limitReachedMessage = "This account has reached the free plan testimonial limit. Please ask the site owner to upgrade."

// handleSubmitTestimonial handles POST /api/testimonials. It is public: the
// owner comes from the form, and the testimonial waits for moderation.
func (s *Server) handleSubmitTestimonial(w http.ResponseWriter, r *http.Request) {
	var in model.Submission
	if !decodeJSON(w, r, &in) {
		return
	}
	if in.Rating != nil && *in.Rating == 0 {
		in.Rating = nil
	}
	if err := model.ValidateSubmission(&in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	form, err := s.store.GetForm(ctx, in.FormID)
	if err != nil {
		s.writeStoreError(w, r, err, "Form not found")
		return
	}
	if !form.IsActive {
		writeError(w, http.StatusBadRequest, "This form is no longer accepting testimonials")
		return
	}

	t := &model.Testimonial{
		ID:              idgen.NewID(),
		FormID:          form.ID,
		UserID:          form.UserID,
		AuthorName:      strings.TrimSpace(in.AuthorName),
		AuthorEmail:     strings.TrimSpace(in.AuthorEmail),
		AuthorTitle:     strings.TrimSpace(in.AuthorTitle),
		AuthorCompany:   strings.TrimSpace(in.AuthorCompany),
		AuthorAvatarURL: in.AuthorAvatarURL,
		Content:         strings.TrimSpace(in.Content),
		Rating:          in.Rating,
		VideoURL:        in.VideoURL,
		Status:          model.StatusPending,
		CreatedAt:       s.now().UTC(),
	}

	err = s.store.RunInTransaction(ctx, func(tx store.Store) error {
		if err := checkFreeLimit(ctx, tx, form.UserID); err != nil {
			return err
		}
		return tx.CreateTestimonial(ctx, t)
	})
	if errors.Is(err, errLimitReached) {
		writeError(w, http.StatusForbidden, limitReachedMessage)
		return
	}
	if err != nil {
		s.writeStoreError(w, r, err, "Form not found")
		return
	}

	s.publish(ctx, events.TopicTestimonialSubmitted, t.UserID, events.TestimonialSubmitted{Testimonial: t})
	writeJSON(w, http.StatusCreated, t)
}

// checkFreeLimit returns errLimitReached when a free-plan owner already has
// FreeTestimonialLimit testimonials. Owners without a profile are not limited.
// The profile row stays locked until tx ends, so concurrent submissions for
// one owner count and insert one at a time.
func checkFreeLimit(ctx context.Context, tx store.Store, userID string) error {
	p, err := tx.GetProfileForUpdate(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return nil
		}
		return err
	}
	if p.Plan != model.PlanFree {
		return nil
	}
	n, err := tx.CountTestimonials(ctx, userID)
	if err != nil {
		return err
	}
	if n >= model.FreeTestimonialLimit {
		return errLimitReached
	}
	return nil
}

// ownedTestimonial loads a testimonial and checks that the caller owns it.
func (s *Server) ownedTestimonial(w http.ResponseWriter, r *http.Request, id string) (*model.Testimonial, bool) {
	t, err := s.store.GetTestimonial(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, r, err, "Testimonial not found")
		return nil, false
	}
	if t.UserID != userFrom(r.Context()).ID {
		writeError(w, http.StatusNotFound, "Testimonial not found")
		return nil, false
	}
	return t, true
}

// testimonialFilter builds the caller's filter from form_id, status and
// search query parameters. Unknown statuses are ignored.
func testimonialFilter(r *http.Request) model.TestimonialFilter {
	q := r.URL.Query()
	f := model.TestimonialFilter{
		UserID: userFrom(r.Context()).ID,
		FormID: q.Get("form_id"),
		Search: strings.TrimSpace(q.Get("search")),
	}
	if st := model.TestimonialStatus(q.Get("status")); st.IsValid() {
		f.Status = st
	}
	return f
}

// handleListTestimonials handles GET /api/testimonials.
func (s *Server) handleListTestimonials(w http.ResponseWriter, r *http.Request) {
	ts, err := s.store.ListTestimonials(r.Context(), testimonialFilter(r))
	if err != nil {
		s.writeStoreError(w, r, err, "")
		return
	}
	if ts == nil {
		ts = []*model.Testimonial{}
	}
	writeJSON(w, http.StatusOK, ts)
}

// handleUpdateTestimonial handles PATCH /api/testimonials/{id} (moderation
// and featuring).
func (s *Server) handleUpdateTestimonial(w http.ResponseWriter, r *http.Request) {
	existing, ok := s.ownedTestimonial(w, r, r.PathValue("id"))
	if !ok {
		return
	}
	var patch model.TestimonialPatch
	if !decodeJSON(w, r, &patch) {
		return
	}

	changes := map[string]any{}
	if patch.Status != nil {
		if !patch.Status.IsValid() {
			writeError(w, http.StatusBadRequest, "status must be pending, approved, or rejected")
			return
		}
		changes["status"] = *patch.Status
	}
	if patch.IsFeatured != nil {
		changes["is_featured"] = *patch.IsFeatured
	}
	if len(changes) == 0 {
		writeError(w, http.StatusBadRequest, "status or is_featured is required")
		return
	}

	t, err := s.store.UpdateTestimonial(r.Context(), existing.ID, patch)
	if err != nil {
		s.writeStoreError(w, r, err, "Testimonial not found")
		return
	}
	s.publish(r.Context(), events.TopicTestimonialUpdated, t.UserID, events.TestimonialUpdated{Testimonial: t, Changes: changes})
	writeJSON(w, http.StatusOK, t)
}

// handleDeleteTestimonial handles DELETE /api/testimonials/{id}.
func (s *Server) handleDeleteTestimonial(w http.ResponseWriter, r *http.Request) {
	t, ok := s.ownedTestimonial(w, r, r.PathValue("id"))
	if !ok {
		return
	}
	if err := s.store.DeleteTestimonial(r.Context(), t.ID); err != nil {
		s.writeStoreError(w, r, err, "Testimonial not found")
		return
	}
	s.publish(r.Context(), events.TopicTestimonialDeleted, t.UserID, events.TestimonialDeleted{TestimonialID: t.ID, UserID: t.UserID})
	w.WriteHeader(http.StatusNoContent)
}

// handleImportTestimonials handles POST /api/testimonials/import. Imported
// testimonials are approved immediately.
func (s *Server) handleImportTestimonials(w http.ResponseWriter, r *http.Request) {
	var in struct {
		FormID       string           `json:"form_id"`
		Testimonials []importer.Entry `json:"testimonials"`
	}
	if !decodeJSON(w, r, &in) {
		return
	}
	if in.FormID == "" || len(in.Testimonials) == 0 {
		writeError(w, http.StatusBadRequest, "form_id and testimonials array are required.")
		return
	}

	ctx := r.Context()
	u := userFrom(ctx)
	form, err := s.store.GetForm(ctx, in.FormID)
	if err != nil && !isNotFound(err) {
		s.writeStoreError(w, r, err, "")
		return
	}
	if form == nil || form.UserID != u.ID {
		writeError(w, http.StatusForbidden, "Form not found or access denied.")
		return
	}

	rows, err := importer.BuildTestimonials(u.ID, form.ID, in.Testimonials, s.now().UTC())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	err = s.store.RunInTransaction(ctx, func(tx store.Store) error {
		for _, t := range rows {
			if err := tx.CreateTestimonial(ctx, t); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.writeStoreError(w, r, err, "")
		return
	}

	s.publish(ctx, events.TopicTestimonialsImported, u.ID, events.TestimonialsImported{
		UserID: u.ID, FormID: form.ID, Source: "json", Count: len(rows),
	})
	writeJSON(w, http.StatusOK, map[string]int{"count": len(rows)})
}

// handleImportTweet handles POST /api/testimonials/import-twitter. It
// returns a preview and stores nothing; the dashboard submits the edited
// preview through the bulk import.
func (s *Server) handleImportTweet(w http.ResponseWriter, r *http.Request) {
	var in struct {
		URL string `json:"url"`
	}
	if !decodeJSON(w, r, &in) {
		return
	}
	tweetURL := strings.TrimSpace(in.URL)
	if tweetURL == "" {
		writeError(w, http.StatusBadRequest, "A valid tweet URL is required.")
		return
	}
	if !importer.IsTweetURL(tweetURL) {
		writeError(w, http.StatusBadRequest, "Please provide a valid Twitter/X tweet URL.")
		return
	}

	tw, err := s.tweets.Fetch(r.Context(), tweetURL)
	if err != nil {
		s.logger.Warn("tweet fetch failed", "url", tweetURL, "error", err)
		writeError(w, http.StatusBadRequest, "Failed to fetch tweet. It may be private or deleted.")
		return
	}
	writeJSON(w, http.StatusOK, tw)
}

// handleExportCSV handles GET /api/testimonials/export (pro plan only).
func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, err := s.ensureProfile(ctx, userFrom(ctx))
	if err != nil {
		s.writeStoreError(w, r, err, "")
		return
	}
	if p.Plan != model.PlanPro {
		writeError(w, http.StatusForbidden, "CSV export is a Pro feature. Please upgrade your plan.")
		return
	}

	f := testimonialFilter(r)
	f.Search = ""
	ts, err := s.store.ListTestimonials(ctx, f)
	if err != nil {
		s.writeStoreError(w, r, err, "")
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", export.ContentDisposition(s.now()))
	w.WriteHeader(http.StatusOK)
	if err := export.WriteCSV(w, ts); err != nil {
		s.logger.Error("csv export failed", "user_id", p.ID, "error", err)
	}
}

// handleSummarize handles POST /api/ai/summarize.
func (s *Server) handleSummarize(w http.ResponseWriter, r *http.Request) {
	var in struct {
		TestimonialID string `json:"testimonial_id"`
	}
	if !decodeJSON(w, r, &in) {
		return
	}
	if in.TestimonialID == "" {
		writeError(w, http.StatusBadRequest, "testimonial_id is required")
		return
	}
	t, ok := s.ownedTestimonial(w, r, in.TestimonialID)
	if !ok {
		return
	}

	sum, err := s.summarizer.Summarize(r.Context(), t.Content)
	if err != nil {
		s.logger.Error("summarize failed", "testimonial_id", t.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to generate AI summary")
		return
	}
	updated, err := s.store.UpdateSummary(r.Context(), t.ID, sum.Summary, sum.Tags)
	if err != nil {
		s.writeStoreError(w, r, err, "Testimonial not found")
		return
	}
	s.publish(r.Context(), events.TopicTestimonialUpdated, updated.UserID, events.TestimonialUpdated{
		Testimonial: updated,
		Changes:     map[string]any{"ai_summary": sum.Summary, "ai_tags": sum.Tags},
	})
	writeJSON(w, http.StatusOK, updated)
}
