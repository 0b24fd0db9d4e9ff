package embed

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoWidget is returned for a payload without a widget.
	ErrNoWidget = errors.New("payload has no widget")
	// ErrEmpty is returned when no testimonials remain after truncation.
	ErrEmpty = errors.New("no testimonials to render")
	// ErrUnsupportedType is returned for widget types the renderer does not know.
	ErrUnsupportedType = errors.New("unsupported widget type")
)

// Render returns the .tg-container markup for p. The testimonial list is
// truncated to max_items before anything else is decided; an empty list
// renders nothing and returns ErrEmpty.
func Render(p Payload) (string, error) {
	if p.Widget == nil {
		return "", ErrNoWidget
	}
	items := p.items()
	if len(items) == 0 {
		return "", ErrEmpty
	}
	cfg := p.Widget.Config

	var sb strings.Builder
	sb.WriteString(`<div class="tg-container">`)

	switch typ := p.Widget.layout(); typ {
	case TypeWall:
		sb.WriteString(`<div class="tg-wall">`)
		for _, t := range items {
			sb.WriteString(RenderCard(t, cfg))
		}
		sb.WriteString(`</div>`)
	case TypeCarousel:
		sb.WriteString(`<div class="tg-carousel">`)
		for _, t := range items {
			sb.WriteString(RenderCard(t, cfg))
		}
		sb.WriteString(`</div>`)
	case TypeBadge:
		sb.WriteString(`<div class="tg-badge-wrap">`)
		sb.WriteString(RenderCard(items[0], cfg))
		sb.WriteString(`</div>`)
	default:
		return "", fmt.Errorf("%w %q", ErrUnsupportedType, typ)
	}

	sb.WriteString(renderFooter())
	sb.WriteString(`</div>`)
	return sb.String(), nil
}
