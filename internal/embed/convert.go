package embed

import (
	"time"

	"github.com/testispark/testispark/internal/model"
)

// FromModel builds a render payload from stored records. Testimonials keep
// the order given; callers are expected to pass only approved ones.
func FromModel(w *model.Widget, ts []*model.Testimonial) Payload {
	if w == nil {
		return Payload{}
	}
	return Payload{
		Widget: &Widget{
			ID:   w.ID,
			Type: string(w.Type),
			Config: Config{
				Theme:      string(w.Config.Theme),
				Columns:    w.Config.Columns,
				MaxItems:   w.Config.MaxItems,
				ShowRating: w.Config.ShowRating,
				ShowAvatar: w.Config.ShowAvatar,
				ShowDate:   w.Config.ShowDate,
			},
		},
		Testimonials: fromTestimonials(ts),
	}
}

// WallFromForm builds the public wall page of a form. The title falls back
// to the form name when no headline is set.
func WallFromForm(f *model.Form, ts []*model.Testimonial) WallPage {
	title := f.Headline
	if title == "" {
		title = "What people say about " + f.Name
	}
	return WallPage{
		Title:        title,
		Description:  f.Description,
		LogoURL:      f.LogoURL,
		Testimonials: fromTestimonials(ts),
	}
}

func fromTestimonials(ts []*model.Testimonial) []Testimonial {
	out := make([]Testimonial, 0, len(ts))
	for _, t := range ts {
		et := Testimonial{
			Content:       t.Content,
			AuthorName:    t.AuthorName,
			AuthorCompany: t.AuthorCompany,
		}
		if t.Rating != nil {
			r := float64(*t.Rating)
			et.Rating = &r
		}
		if !t.CreatedAt.IsZero() {
			et.CreatedAt = t.CreatedAt.UTC().Format(time.RFC3339)
		}
		out = append(out, et)
	}
	return out
}
