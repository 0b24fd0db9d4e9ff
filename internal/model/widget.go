package model

import "time"

// WidgetType selects the embed layout.
type WidgetType string

const (
	WidgetWall     WidgetType = "wall"
	WidgetCarousel WidgetType = "carousel"
	WidgetBadge    WidgetType = "badge"
)

// IsValid reports whether t is one of the layouts the embed renders.
func (t WidgetType) IsValid() bool {
	switch t {
	case WidgetWall, WidgetCarousel, WidgetBadge:
		return true
	}
	return false
}

// Theme is the color scheme of a widget.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// IsValid reports whether t is a known theme.
func (t Theme) IsValid() bool {
	return t == ThemeLight || t == ThemeDark
}

// Widget configuration bounds enforced at creation and update.
const (
	MinColumns  = 1
	MaxColumns  = 4
	MinMaxItems = 3
	MaxMaxItems = 24

	DefaultBorderRadius = 8
)

// WidgetConfig holds the display options of a widget.
type WidgetConfig struct {
	Theme           Theme  `json:"theme" yaml:"theme"`
	Columns         int    `json:"columns" yaml:"columns"`
	MaxItems        int    `json:"max_items" yaml:"max_items"`
	ShowRating      bool   `json:"show_rating" yaml:"show_rating"`
	ShowAvatar      bool   `json:"show_avatar" yaml:"show_avatar"`
	ShowDate        bool   `json:"show_date" yaml:"show_date"`
	BorderRadius    int    `json:"border_radius" yaml:"border_radius"`
	BackgroundColor string `json:"background_color" yaml:"background_color"`
}

// ApplyDefaults fills in the border radius and the theme's background color
// when they are unset.
func (c *WidgetConfig) ApplyDefaults() {
	if c.BorderRadius <= 0 {
		c.BorderRadius = DefaultBorderRadius
	}
	if c.BackgroundColor == "" {
		if c.Theme == ThemeLight {
			c.BackgroundColor = "#ffffff"
		} else {
			c.BackgroundColor = "#1a1a2e"
		}
	}
}

// Widget is a configured display unit that selects testimonials for embedding.
type Widget struct {
	ID             string       `json:"id"`
	UserID         string       `json:"user_id"`
	Name           string       `json:"name"`
	Type           WidgetType   `json:"type"`
	Config         WidgetConfig `json:"config"`
	TestimonialIDs []string     `json:"testimonial_ids"`
	CreatedAt      time.Time    `json:"created_at"`
}
