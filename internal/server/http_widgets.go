package server

import (
	"net/http"
	"strings"

	"github.com/testispark/testispark/internal/events"
	"github.com/testispark/testispark/internal/idgen"
	"github.com/testispark/testispark/internal/model"
)

// Defaults applied on update when the dashboard omits layout sizes.
const (
	updateDefaultColumns  = 3
	updateDefaultMaxItems = 6
)

type widgetInput struct {
	Name           string              `json:"name"`
	Type           model.WidgetType    `json:"type"`
	Config         *model.WidgetConfig `json:"config"`
	TestimonialIDs []string            `json:"testimonial_ids"`
}

// build validates the input and returns the widget it describes. It writes
// the 400 response itself on failure.
func (in *widgetInput) build(w http.ResponseWriter) (*model.Widget, bool) {
	if in.Config == nil {
		writeError(w, http.StatusBadRequest, "Config is required")
		return nil, false
	}
	wd := &model.Widget{
		Name:           strings.TrimSpace(in.Name),
		Type:           in.Type,
		Config:         *in.Config,
		TestimonialIDs: in.TestimonialIDs,
	}
	if err := model.ValidateWidget(wd); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	wd.Config.ApplyDefaults()
	return wd, true
}

// ownedWidget loads the widget in the path and checks that the caller owns
// it. Other users' widgets are reported as missing.
func (s *Server) ownedWidget(w http.ResponseWriter, r *http.Request) (*model.Widget, bool) {
	wd, err := s.store.GetWidget(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeStoreError(w, r, err, "Widget not found")
		return nil, false
	}
	if wd.UserID != userFrom(r.Context()).ID {
		writeError(w, http.StatusNotFound, "Widget not found")
		return nil, false
	}
	return wd, true
}

// handleListWidgets handles GET /api/widgets.
func (s *Server) handleListWidgets(w http.ResponseWriter, r *http.Request) {
	widgets, err := s.store.ListWidgets(r.Context(), userFrom(r.Context()).ID)
	if err != nil {
		s.writeStoreError(w, r, err, "")
		return
	}
	if widgets == nil {
		widgets = []*model.Widget{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"widgets": widgets})
}

// handleCreateWidget handles POST /api/widgets.
func (s *Server) handleCreateWidget(w http.ResponseWriter, r *http.Request) {
	var in widgetInput
	if !decodeJSON(w, r, &in) {
		return
	}
	wd, ok := in.build(w)
	if !ok {
		return
	}
	u := userFrom(r.Context())
	wd.ID = idgen.NewID()
	wd.UserID = u.ID
	wd.CreatedAt = s.now().UTC()

	if err := s.store.CreateWidget(r.Context(), wd); err != nil {
		s.writeStoreError(w, r, err, "")
		return
	}
	s.publish(r.Context(), events.TopicWidgetCreated, u.ID, events.WidgetCreated{Widget: wd})
	writeJSON(w, http.StatusCreated, map[string]any{"widget": wd})
}

// handleGetWidget handles GET /api/widgets/{id}.
func (s *Server) handleGetWidget(w http.ResponseWriter, r *http.Request) {
	wd, ok := s.ownedWidget(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"widget": wd})
}

// handleUpdateWidget handles PUT and PATCH /api/widgets/{id}. The body is
// the full widget; zero columns and max_items fall back to 3 and 6.
func (s *Server) handleUpdateWidget(w http.ResponseWriter, r *http.Request) {
	existing, ok := s.ownedWidget(w, r)
	if !ok {
		return
	}
	var in widgetInput
	if !decodeJSON(w, r, &in) {
		return
	}
	if in.Config != nil {
		if in.Config.Columns == 0 {
			in.Config.Columns = updateDefaultColumns
		}
		if in.Config.MaxItems == 0 {
			in.Config.MaxItems = updateDefaultMaxItems
		}
	}
	wd, ok := in.build(w)
	if !ok {
		return
	}
	wd.ID = existing.ID
	wd.UserID = existing.UserID
	wd.CreatedAt = existing.CreatedAt

	if err := s.store.UpdateWidget(r.Context(), wd); err != nil {
		s.writeStoreError(w, r, err, "Widget not found")
		return
	}
	s.publish(r.Context(), events.TopicWidgetUpdated, wd.UserID, events.WidgetUpdated{Widget: wd})
	writeJSON(w, http.StatusOK, map[string]any{"widget": wd})
}

// handleDeleteWidget handles DELETE /api/widgets/{id}.
func (s *Server) handleDeleteWidget(w http.ResponseWriter, r *http.Request) {
	wd, ok := s.ownedWidget(w, r)
	if !ok {
		return
	}
	if err := s.store.DeleteWidget(r.Context(), wd.ID); err != nil {
		s.writeStoreError(w, r, err, "Widget not found")
		return
	}
	s.publish(r.Context(), events.TopicWidgetDeleted, wd.UserID, events.WidgetDeleted{WidgetID: wd.ID, UserID: wd.UserID})
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
