package ui

import (
	"strings"
	"testing"
)

func withColor(t *testing.T, enabled bool) {
	t.Helper()
	prev := noColor
	noColor = !enabled
	t.Cleanup(func() { noColor = prev })
}

func TestRenderStatus(t *testing.T) {
	withColor(t, true)
	for status, code := range map[string]string{
		"pending":  "179",
		"approved": "114",
		"rejected": "203",
	} {
		got := RenderStatus(status)
		if !strings.Contains(got, "38;5;"+code+"m") || !strings.Contains(got, status) {
			t.Errorf("RenderStatus(%q) = %q", status, got)
		}
	}
	if got := RenderStatus("archived"); got != "archived" {
		t.Errorf("unknown status should be unstyled, got %q", got)
	}
}

func TestRenderRating_NoColor(t *testing.T) {
	withColor(t, false)
	three, ten := 3, 10
	for _, tc := range []struct {
		rating *int
		want   string
	}{
		{nil, "-"},
		{&three, "★★★☆☆"},
		{&ten, "★★★★★"},
	} {
		if got := RenderRating(tc.rating); got != tc.want {
			t.Errorf("RenderRating = %q, want %q", got, tc.want)
		}
	}
}

func TestForceNoColor(t *testing.T) {
	withColor(t, true)
	ForceNoColor()
	if got := RenderAccent("x"); got != "x" {
		t.Errorf("expected plain output after ForceNoColor, got %q", got)
	}
	if got := RenderPlan("pro"); got != "pro" {
		t.Errorf("expected plain plan, got %q", got)
	}
}
