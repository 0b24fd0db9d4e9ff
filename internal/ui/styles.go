// Package ui styles CLI output with ANSI colors.
package ui

import (
	"fmt"
	"strings"
)

// ANSI256 color codes matching the Ayu palette.
const (
	colorAccent  = 74  // blue
	colorCmd     = 250 // light gray
	colorMuted   = 245 // medium gray
	colorPending = 179 // amber
	colorSuccess = 114 // green
	colorDanger  = 203 // red
	colorStar    = 221 // gold
)

var noColor bool

func paint(color int, s string) string {
	if noColor || s == "" {
		return s
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", color, s)
}

// RenderAccent returns s in the accent (blue) color.
func RenderAccent(s string) string { return paint(colorAccent, s) }

// RenderMuted returns s in the muted (gray) color.
func RenderMuted(s string) string { return paint(colorMuted, s) }

// RenderCommand returns s styled as a command name (light gray).
func RenderCommand(s string) string { return paint(colorCmd, s) }

// RenderStatus colors a testimonial status: pending amber, approved green,
// rejected red. Unknown values are returned as is.
func RenderStatus(status string) string {
	switch status {
	case "pending":
		return paint(colorPending, status)
	case "approved":
		return paint(colorSuccess, status)
	case "rejected":
		return paint(colorDanger, status)
	}
	return status
}

// RenderPlan highlights the pro plan.
func RenderPlan(plan string) string {
	if plan == "pro" {
		return paint(colorAccent, plan)
	}
	return RenderMuted(plan)
}

// RenderRating draws a 1-5 rating as filled and empty stars. A nil rating
// renders as a muted dash.
func RenderRating(rating *int) string {
	if rating == nil {
		return RenderMuted("-")
	}
	n := min(max(*rating, 0), 5)
	return paint(colorStar, strings.Repeat("★", n)) + RenderMuted(strings.Repeat("☆", 5-n))
}

// ForceNoColor disables color output globally.
func ForceNoColor() {
	noColor = true
}
