package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/testispark/testispark/internal/idgen"
	"github.com/testispark/testispark/internal/model"
	"github.com/testispark/testispark/internal/store"
)

const slugTakenMessage = "A form with this slug already exists"

// publicForm is the collect-page view of a form.
type publicForm struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	Slug            string           `json:"slug"`
	Headline        string           `json:"headline,omitempty"`
	Description     string           `json:"description,omitempty"`
	Questions       []model.Question `json:"questions"`
	BrandColor      string           `json:"brand_color"`
	LogoURL         string           `json:"logo_url,omitempty"`
	ThankYouMessage string           `json:"thank_you_message,omitempty"`
	IsActive        bool             `json:"is_active"`
}

// handleGetPublicForm handles GET /api/forms/{slug}.
func (s *Server) handleGetPublicForm(w http.ResponseWriter, r *http.Request) {
	f, err := s.store.GetFormBySlug(r.Context(), r.PathValue("slug"))
	if err != nil {
		s.writeStoreError(w, r, err, "Form not found")
		return
	}
	f.ApplyDefaults()
	writeJSON(w, http.StatusOK, publicForm{
		ID:              f.ID,
		Name:            f.Name,
		Slug:            f.Slug,
		Headline:        f.Headline,
		Description:     f.Description,
		Questions:       f.Questions,
		BrandColor:      f.BrandColor,
		LogoURL:         f.LogoURL,
		ThankYouMessage: f.ThankYouMessage,
		IsActive:        f.IsActive,
	})
}

// handleListForms handles GET /api/forms.
func (s *Server) handleListForms(w http.ResponseWriter, r *http.Request) {
	forms, err := s.store.ListForms(r.Context(), userFrom(r.Context()).ID)
	if err != nil {
		s.writeStoreError(w, r, err, "")
		return
	}
	if forms == nil {
		forms = []*model.Form{}
	}
	writeJSON(w, http.StatusOK, forms)
}

// handleCreateForm handles POST /api/forms.
func (s *Server) handleCreateForm(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name            string           `json:"name"`
		Slug            string           `json:"slug"`
		Headline        string           `json:"headline"`
		Description     string           `json:"description"`
		BrandColor      string           `json:"brand_color"`
		LogoURL         string           `json:"logo_url"`
		ThankYouMessage string           `json:"thank_you_message"`
		Questions       []model.Question `json:"questions"`
	}
	if !decodeJSON(w, r, &in) {
		return
	}

	f := &model.Form{
		ID:              idgen.NewID(),
		UserID:          userFrom(r.Context()).ID,
		Name:            strings.TrimSpace(in.Name),
		Slug:            strings.TrimSpace(in.Slug),
		Headline:        in.Headline,
		Description:     in.Description,
		Questions:       in.Questions,
		BrandColor:      in.BrandColor,
		LogoURL:         in.LogoURL,
		ThankYouMessage: in.ThankYouMessage,
		IsActive:        true,
		CreatedAt:       s.now().UTC(),
	}
	if err := model.ValidateForm(f); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	for i := range f.Questions {
		if f.Questions[i].ID == "" {
			f.Questions[i].ID = idgen.NewID()
		}
	}
	f.ApplyDefaults()

	ctx := r.Context()
	if _, err := s.store.GetFormBySlug(ctx, f.Slug); err == nil {
		writeError(w, http.StatusConflict, slugTakenMessage)
		return
	} else if !isNotFound(err) {
		s.writeStoreError(w, r, err, "")
		return
	}

	if err := s.store.CreateForm(ctx, f); err != nil {
		if errors.Is(err, store.ErrConflict) {
			writeError(w, http.StatusConflict, slugTakenMessage)
			return
		}
		s.writeStoreError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusCreated, f)
}
