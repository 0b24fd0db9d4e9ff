package embed

import (
	"html"
	"net/url"
	"strconv"
	"strings"
)

const wallPageStyle = `body { background: #f9fafb; color: #111827; }
.tg-page-header { background: #ffffff; border-bottom: 1px solid #e5e7eb; padding: 32px 16px; text-align: center; }
.tg-page-logo { display: block; height: 40px; width: auto; margin: 0 auto 16px; object-fit: contain; }
.tg-page-title { font-size: 30px; font-weight: 700; letter-spacing: -0.02em; }
.tg-page-description { max-width: 36rem; margin: 12px auto 0; font-size: 18px; color: #4b5563; }
.tg-page-count { display: inline-block; margin-top: 16px; padding: 4px 12px; border: 1px solid #e5e7eb; border-radius: 9999px; font-size: 12px; color: #6b7280; }
.tg-page-main { max-width: 64rem; margin: 0 auto; padding: 40px 16px; }
.tg-page-empty { padding: 80px 0; text-align: center; color: #6b7280; }
`

// WallPage is a standalone page showing every approved testimonial of a
// collection form.
type WallPage struct {
	Title        string
	Description  string
	LogoURL      string
	Testimonials []Testimonial
}

// wallPageConfig is the fixed layout of the page: a light three column wall
// with ratings and avatars, long enough to hold every testimonial.
func wallPageConfig(n int) Config {
	return Config{
		Theme:      ThemeLight,
		Columns:    defaultColumns,
		MaxItems:   n,
		ShowRating: true,
		ShowAvatar: true,
	}
}

// RenderWallPage returns a complete HTML document for p. A page without
// testimonials still renders, with a placeholder in place of the wall.
func RenderWallPage(p WallPage) (string, error) {
	cfg := wallPageConfig(len(p.Testimonials))

	var sb strings.Builder
	sb.WriteString(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
	sb.WriteString(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
	sb.WriteString(`<title>` + html.EscapeString(p.Title) + `</title>`)
	sb.WriteString(`<style>` + Stylesheet(cfg) + wallPageStyle + `</style>`)
	sb.WriteString(`</head><body>`)

	sb.WriteString(`<header class="tg-page-header">`)
	if logo := safeImageURL(p.LogoURL); logo != "" {
		sb.WriteString(`<img class="tg-page-logo" src="` + html.EscapeString(logo) + `" alt="">`)
	}
	sb.WriteString(`<h1 class="tg-page-title">` + html.EscapeString(p.Title) + `</h1>`)
	if p.Description != "" {
		sb.WriteString(`<p class="tg-page-description">` + html.EscapeString(p.Description) + `</p>`)
	}
	sb.WriteString(`<span class="tg-page-count">` + testimonialCount(len(p.Testimonials)) + `</span>`)
	sb.WriteString(`</header>`)

	sb.WriteString(`<main class="tg-page-main">`)
	if len(p.Testimonials) == 0 {
		sb.WriteString(`<p class="tg-page-empty">No testimonials yet.</p>`)
	} else {
		wall, err := Render(Payload{Widget: &Widget{Type: TypeWall, Config: cfg}, Testimonials: p.Testimonials})
		if err != nil {
			return "", err
		}
		sb.WriteString(wall)
	}
	sb.WriteString(`</main></body></html>`)
	return sb.String(), nil
}

func testimonialCount(n int) string {
	if n == 1 {
		return "1 testimonial"
	}
	return strconv.Itoa(n) + " testimonials"
}

// safeImageURL returns raw when it is an absolute http(s) URL and "" otherwise.
func safeImageURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return ""
	}
	return u.String()
}
