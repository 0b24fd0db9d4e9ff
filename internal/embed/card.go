package embed

import (
	"html"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// AttributionURL is the outbound link in the footer appended to every widget.
const AttributionURL = "https://testispark.com"

const attributionText = "Powered by TestiSpark"

const anonymousAuthor = "Anonymous"

const starPolygon = "12 2 15.09 8.26 22 9.27 17 14.14 18.18 21.02 12 17.77 5.82 21.02 7 14.14 2 9.27 8.91 8.26 12 2"

// dateLayouts are tried in order when formatting created_at.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999Z07",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// FormatDate formats s as "Jan 2, 2006" in UTC. Unparseable input yields "".
func FormatDate(s string) string {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC().Format("Jan 2, 2006")
		}
	}
	return ""
}

// Initial returns the uppercased first character of name, or "?" when name
// is empty.
func Initial(name string) string {
	ch, size := utf8.DecodeRuneInString(name)
	if size == 0 {
		return "?"
	}
	return string(unicode.ToUpper(ch))
}

func starSVG(filled bool) string {
	class, fill := "tg-star tg-star-empty", "none"
	if filled {
		class, fill = "tg-star tg-star-filled", "currentColor"
	}
	return `<svg class="` + class + `" viewBox="0 0 24 24" fill="` + fill +
		`" stroke="currentColor" stroke-width="2" stroke-linecap="round" stroke-linejoin="round">` +
		`<polygon points="` + starPolygon + `"></polygon></svg>`
}

// RenderStars renders a row of five stars, the first rating of them filled.
// A nil rating renders nothing.
func RenderStars(rating *float64) string {
	if rating == nil {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(`<div class="tg-stars">`)
	for i := 0; i < 5; i++ {
		sb.WriteString(starSVG(float64(i) < *rating))
	}
	sb.WriteString(`</div>`)
	return sb.String()
}

// RenderCard renders a single testimonial card. Every testimonial string is
// escaped before it is written.
func RenderCard(t Testimonial, cfg Config) string {
	var sb strings.Builder
	sb.WriteString(`<div class="tg-card">`)

	if cfg.ShowRating && t.Rating != nil {
		sb.WriteString(RenderStars(t.Rating))
	}

	sb.WriteString(`<div class="tg-content">&ldquo;` + html.EscapeString(t.Content) + `&rdquo;</div>`)

	sb.WriteString(`<div class="tg-author">`)
	if cfg.ShowAvatar {
		sb.WriteString(`<div class="tg-avatar">` + html.EscapeString(Initial(t.AuthorName)) + `</div>`)
	}
	name := t.AuthorName
	if name == "" {
		name = anonymousAuthor
	}
	sb.WriteString(`<div class="tg-author-info">`)
	sb.WriteString(`<span class="tg-author-name">` + html.EscapeString(name) + `</span>`)
	if t.AuthorCompany != "" {
		sb.WriteString(`<span class="tg-author-company">` + html.EscapeString(t.AuthorCompany) + `</span>`)
	}
	sb.WriteString(`</div></div>`)

	if cfg.ShowDate && t.CreatedAt != "" {
		sb.WriteString(`<div class="tg-date">` + html.EscapeString(FormatDate(t.CreatedAt)) + `</div>`)
	}

	sb.WriteString(`</div>`)
	return sb.String()
}

func renderFooter() string {
	return `<div class="tg-footer"><a href="` + AttributionURL +
		`" target="_blank" rel="noopener noreferrer">` + attributionText + `</a></div>`
}
