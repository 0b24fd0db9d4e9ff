// Package embed renders testimonial widgets into HTML documents.
//
// It is the server-side rendition of the public embed script: Discover finds
// the script tags that request a widget, ResolveMount picks the element each
// widget renders into, and Loader fetches the widget payload and mounts the
// rendered fragment. Rendering is pure (Stylesheet, RenderCard, Render) so the
// markup contract can be tested without a document.
package embed

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
)

// Supported widget layouts. Any other type renders nothing.
const (
	TypeWall     = "wall"
	TypeCarousel = "carousel"
	TypeBadge    = "badge"
)

// ThemeLight selects the light palette; every other value renders dark.
const ThemeLight = "light"

const (
	defaultMaxItems = 12
	defaultColumns  = 3
)

// Payload is the body returned by GET /api/embed/{id}.
type Payload struct {
	Widget       *Widget       `json:"widget"`
	Testimonials []Testimonial `json:"testimonials"`
}

// Widget is the embed-side view of a widget. Fields the script does not
// read are ignored when decoding.
type Widget struct {
	ID     string `json:"id,omitempty"`
	Type   string `json:"type"`
	Config Config `json:"config"`
}

// Config holds the display options recognized by the renderer.
type Config struct {
	Theme      string `json:"theme"`
	Columns    int    `json:"columns"`
	MaxItems   int    `json:"max_items"`
	ShowRating bool   `json:"show_rating"`
	ShowAvatar bool   `json:"show_avatar"`
	ShowDate   bool   `json:"show_date"`
}

// Testimonial is the embed-side view of a testimonial. All strings are
// untrusted. Rating is nil when absent, which is distinct from zero.
// CreatedAt is kept as the raw string so unparseable values degrade to an
// empty date instead of failing the whole payload.
type Testimonial struct {
	Content       string   `json:"content"`
	AuthorName    string   `json:"author_name"`
	AuthorCompany string   `json:"author_company"`
	Rating        *float64 `json:"rating"`
	CreatedAt     string   `json:"created_at"`
}

// UnmarshalJSON decodes a testimonial field by field. A field holding the
// wrong JSON type reads as absent, so one bad row still renders.
func (t *Testimonial) UnmarshalJSON(b []byte) error {
	var raw struct {
		Content       json.RawMessage `json:"content"`
		AuthorName    json.RawMessage `json:"author_name"`
		AuthorCompany json.RawMessage `json:"author_company"`
		Rating        json.RawMessage `json:"rating"`
		CreatedAt     json.RawMessage `json:"created_at"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*t = Testimonial{
		Content:       looseString(raw.Content),
		AuthorName:    looseString(raw.AuthorName),
		AuthorCompany: looseString(raw.AuthorCompany),
		Rating:        looseNumber(raw.Rating),
		CreatedAt:     looseString(raw.CreatedAt),
	}
	return nil
}

// looseString returns the value of a JSON string, or "" for any other type.
func looseString(raw json.RawMessage) string {
	var s string
	if len(raw) == 0 || raw[0] != '"' || json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return s
}

// looseNumber accepts a JSON number or a numeric string. Anything else,
// null included, is nil.
func looseNumber(raw json.RawMessage) *float64 {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil
	}
	if raw[0] == '"' {
		s := looseString(raw)
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil
		}
		return &f
	}
	var f float64
	if json.Unmarshal(raw, &f) != nil {
		return nil
	}
	return &f
}

func (c Config) columns() int {
	if c.Columns <= 0 {
		return defaultColumns
	}
	return c.Columns
}

func (c Config) maxItems() int {
	if c.MaxItems <= 0 {
		return defaultMaxItems
	}
	return c.MaxItems
}

// items returns the testimonials truncated to the widget's max_items.
func (p Payload) items() []Testimonial {
	if p.Widget == nil {
		return nil
	}
	n := p.Widget.Config.maxItems()
	if len(p.Testimonials) < n {
		n = len(p.Testimonials)
	}
	return p.Testimonials[:n]
}

func (w *Widget) layout() string {
	if w.Type == "" {
		return TypeWall
	}
	return w.Type
}
