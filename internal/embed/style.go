package embed

import (
	"fmt"
	"strings"
)

// RootClass wraps the fragment when it is mounted without a shadow root.
// ScopedStylesheet prefixes every selector with it.
const RootClass = "tg-root"

const fontStack = `-apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, "Helvetica Neue", Arial, sans-serif`

type palette struct {
	background string
	cardBg     string
	text       string
	muted      string
	border     string
	avatarBg   string
	avatarText string
	starEmpty  string
}

var (
	lightPalette = palette{
		background: "#ffffff",
		cardBg:     "#f8fafc",
		text:       "#1e293b",
		muted:      "#64748b",
		border:     "#e2e8f0",
		avatarBg:   "#e0e7ff",
		avatarText: "#4338ca",
		starEmpty:  "#cbd5e1",
	}
	darkPalette = palette{
		background: "#1a1a2e",
		cardBg:     "#0f172a",
		text:       "#e2e8f0",
		muted:      "#94a3b8",
		border:     "#1e293b",
		avatarBg:   "#312e81",
		avatarText: "#a5b4fc",
		starEmpty:  "#475569",
	}
)

func paletteFor(theme string) palette {
	if theme == ThemeLight {
		return lightPalette
	}
	return darkPalette
}

// rule is a single CSS rule. A selector of ":host" or "*" is rewritten when
// the stylesheet is scoped to RootClass.
type rule struct {
	selectors []string
	body      string
}

type mediaBlock struct {
	query string
	rules []rule
}

func css(body string, selectors ...string) rule {
	return rule{selectors: selectors, body: body}
}

func stylesheetRules(cfg Config) ([]rule, []mediaBlock) {
	p := paletteFor(cfg.Theme)

	rules := []rule{
		css("box-sizing: border-box; margin: 0; padding: 0;", "*", "*::before", "*::after"),
		css("display: block; font-family: "+fontStack+";", ":host"),
		css(fmt.Sprintf("background: %s; color: %s; padding: 24px; border-radius: 12px;", p.background, p.text), ".tg-container"),
		css(fmt.Sprintf("display: grid; grid-template-columns: repeat(%d, 1fr); gap: 16px;", cfg.columns()), ".tg-wall"),
		css("display: flex; gap: 16px; overflow-x: auto; scroll-snap-type: x mandatory; -webkit-overflow-scrolling: touch; padding-bottom: 8px;", ".tg-carousel"),
		css("height: 6px;", ".tg-carousel::-webkit-scrollbar"),
		css(fmt.Sprintf("background: %s; border-radius: 3px;", p.border), ".tg-carousel::-webkit-scrollbar-track"),
		css(fmt.Sprintf("background: %s; border-radius: 3px;", p.muted), ".tg-carousel::-webkit-scrollbar-thumb"),
		css("min-width: 300px; max-width: 340px; flex-shrink: 0; scroll-snap-align: start;", ".tg-carousel .tg-card"),
		css("max-width: 400px;", ".tg-badge-wrap"),
		css(fmt.Sprintf("background: %s; border: 1px solid %s; border-radius: 8px; padding: 20px; transition: box-shadow 0.2s;", p.cardBg, p.border), ".tg-card"),
		css("box-shadow: 0 4px 12px rgba(0,0,0,0.08);", ".tg-card:hover"),
		css("display: flex; gap: 2px; margin-bottom: 12px;", ".tg-stars"),
		css("width: 16px; height: 16px;", ".tg-star"),
		css("color: #facc15;", ".tg-star-filled"),
		css(fmt.Sprintf("color: %s;", p.starEmpty), ".tg-star-empty"),
		css(fmt.Sprintf("font-size: 14px; line-height: 1.6; margin-bottom: 16px; color: %s;", p.text), ".tg-content"),
		css("display: flex; align-items: center; gap: 10px;", ".tg-author"),
		css(fmt.Sprintf("width: 36px; height: 36px; border-radius: 50%%; display: flex; align-items: center; justify-content: center; font-size: 15px; font-weight: 600; background: %s; color: %s; flex-shrink: 0;", p.avatarBg, p.avatarText), ".tg-avatar"),
		css("display: flex; flex-direction: column;", ".tg-author-info"),
		css("font-size: 14px; font-weight: 600; line-height: 1.3;", ".tg-author-name"),
		css(fmt.Sprintf("font-size: 12px; color: %s;", p.muted), ".tg-author-company"),
		css(fmt.Sprintf("font-size: 11px; color: %s; margin-top: 12px;", p.muted), ".tg-date"),
		css(fmt.Sprintf("text-align: center; padding-top: 16px; margin-top: 20px; border-top: 1px solid %s;", p.border), ".tg-footer"),
		css(fmt.Sprintf("font-size: 12px; color: %s; text-decoration: none;", p.muted), ".tg-footer a"),
		css("text-decoration: underline;", ".tg-footer a:hover"),
	}

	media := []mediaBlock{
		{query: "(max-width: 768px)", rules: []rule{
			css("grid-template-columns: repeat(auto-fit, minmax(260px, 1fr));", ".tg-wall"),
			css("min-width: 260px;", ".tg-carousel .tg-card"),
		}},
		{query: "(max-width: 480px)", rules: []rule{
			css("grid-template-columns: 1fr;", ".tg-wall"),
			css("padding: 16px;", ".tg-container"),
		}},
	}
	return rules, media
}

// Stylesheet returns the widget stylesheet for use inside a shadow root.
func Stylesheet(cfg Config) string {
	return buildStylesheet(cfg, "")
}

// ScopedStylesheet returns the widget stylesheet with every selector nested
// under RootClass, for mounts that have no shadow root to isolate them.
func ScopedStylesheet(cfg Config) string {
	return buildStylesheet(cfg, "."+RootClass)
}

func buildStylesheet(cfg Config, scope string) string {
	rules, media := stylesheetRules(cfg)

	var sb strings.Builder
	for _, ru := range rules {
		writeRule(&sb, ru, scope, "")
	}
	for _, m := range media {
		sb.WriteString("@media " + m.query + " {\n")
		for _, ru := range m.rules {
			writeRule(&sb, ru, scope, "  ")
		}
		sb.WriteString("}\n")
	}
	return sb.String()
}

func writeRule(sb *strings.Builder, ru rule, scope, indent string) {
	sels := make([]string, len(ru.selectors))
	for i, s := range ru.selectors {
		sels[i] = scopeSelector(s, scope)
	}
	sb.WriteString(indent + strings.Join(sels, ", ") + " { " + ru.body + " }\n")
}

func scopeSelector(sel, scope string) string {
	if scope == "" {
		return sel
	}
	if sel == ":host" {
		return scope
	}
	return scope + " " + sel
}
