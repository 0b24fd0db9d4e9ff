package embed

import (
	"strings"
	"testing"
	"time"

	"github.com/testispark/testispark/internal/model"
)

func TestFromModel(t *testing.T) {
	four := 4
	w := &model.Widget{
		ID:   "w1",
		Type: model.WidgetBadge,
		Config: model.WidgetConfig{
			Theme:      model.ThemeDark,
			MaxItems:   5,
			ShowRating: true,
		},
	}
	ts := []*model.Testimonial{
		{AuthorName: "Ana", Content: "Loved it", Rating: &four, CreatedAt: time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC)},
		{AuthorName: "Bo", Content: "Fine"},
	}

	p := FromModel(w, ts)
	if p.Widget.Type != TypeBadge || p.Widget.Config.Theme != "dark" || !p.Widget.Config.ShowRating {
		t.Fatalf("widget = %+v", p.Widget)
	}
	if len(p.Testimonials) != 2 {
		t.Fatalf("got %d testimonials", len(p.Testimonials))
	}
	if p.Testimonials[0].Rating == nil || *p.Testimonials[0].Rating != 4 {
		t.Errorf("rating = %v", p.Testimonials[0].Rating)
	}
	if p.Testimonials[1].Rating != nil {
		t.Error("absent rating should stay nil")
	}
	if got := FormatDate(p.Testimonials[0].CreatedAt); got != "Mar 9, 2024" {
		t.Errorf("date = %q", got)
	}
	if p.Testimonials[1].CreatedAt != "" {
		t.Errorf("zero time should be empty, got %q", p.Testimonials[1].CreatedAt)
	}

	out, err := Render(p)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "tg-badge") {
		t.Error("expected badge layout")
	}
}

func TestFromModel_NilWidget(t *testing.T) {
	if _, err := Render(FromModel(nil, nil)); err != ErrNoWidget {
		t.Errorf("err = %v, want ErrNoWidget", err)
	}
}
