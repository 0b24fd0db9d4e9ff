package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/testispark/testispark/internal/embed"
	"github.com/testispark/testispark/internal/model"
)

const embedCacheControl = "public, s-maxage=60, stale-while-revalidate=300"

// embedResponse is the body of GET /api/embed/{id}.
type embedResponse struct {
	Widget       *model.Widget        `json:"widget"`
	Testimonials []*model.Testimonial `json:"testimonials"`
}

// loadEmbed returns a widget with its approved testimonials in widget order.
// Author emails are never exposed publicly.
func (s *Server) loadEmbed(ctx context.Context, id string) (*model.Widget, []*model.Testimonial, error) {
	wd, err := s.store.GetWidget(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	ts, err := s.store.ListApprovedTestimonials(ctx, wd.TestimonialIDs)
	if err != nil {
		return nil, nil, err
	}
	public := make([]*model.Testimonial, len(ts))
	for i, t := range ts {
		cp := *t
		cp.AuthorEmail = ""
		public[i] = &cp
	}
	return wd, public, nil
}

// handleEmbed handles GET /api/embed/{id}.
func (s *Server) handleEmbed(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "Widget ID is required")
		return
	}
	wd, ts, err := s.loadEmbed(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, r, err, "Widget not found")
		return
	}
	w.Header().Set("Cache-Control", embedCacheControl)
	writeJSON(w, http.StatusOK, embedResponse{Widget: wd, Testimonials: ts})
}

// handleWallPage handles GET /wall/{slug}, the public page of a form's
// approved testimonials.
func (s *Server) handleWallPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	f, err := s.store.GetFormBySlug(ctx, r.PathValue("slug"))
	if err != nil {
		s.writeStoreError(w, r, err, "Form not found")
		return
	}
	ts, err := s.store.ListWallTestimonials(ctx, f.ID)
	if err != nil {
		s.writeStoreError(w, r, err, "Form not found")
		return
	}
	page, err := embed.RenderWallPage(embed.WallFromForm(f, ts))
	if err != nil {
		s.writeStoreError(w, r, err, "")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", embedCacheControl)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(page))
}

// handleEmbedHTML handles GET /api/embed/{id}/html. It serves the same
// fragment the embed loader mounts, for pages that cannot run scripts.
// ?shadow=0 renders the scoped, non-shadow variant. A widget with nothing to
// show answers 204.
func (s *Server) handleEmbedHTML(w http.ResponseWriter, r *http.Request) {
	wd, ts, err := s.loadEmbed(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeStoreError(w, r, err, "Widget not found")
		return
	}

	opts := embed.MountOptions{ShadowDOM: r.URL.Query().Get("shadow") != "0"}
	markup, err := embed.RenderDocumentFragment(embed.FromModel(wd, ts), opts)
	if errors.Is(err, embed.ErrEmpty) || errors.Is(err, embed.ErrUnsupportedType) {
		w.Header().Set("Cache-Control", embedCacheControl)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		s.writeStoreError(w, r, err, "Widget not found")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", embedCacheControl)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(markup))
}
