package embed

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// MountOptions controls how a rendered widget is attached to its target.
type MountOptions struct {
	// ShadowDOM attaches the fragment through a declarative open shadow root.
	// When false the fragment is inserted directly under a RootClass wrapper
	// with a scoped stylesheet.
	ShadowDOM bool
}

// Mount renders p and appends the result to target. Nothing is appended when
// Render fails.
func Mount(target *html.Node, p Payload, opts MountOptions) error {
	markup, err := Render(p)
	if err != nil {
		return err
	}
	nodes, err := parseFragment(markup)
	if err != nil {
		return fmt.Errorf("parse fragment: %w", err)
	}

	var root *html.Node
	if opts.ShadowDOM {
		root = element(atom.Template, html.Attribute{Key: "shadowrootmode", Val: "open"})
		root.AppendChild(styleElement(Stylesheet(p.Widget.Config)))
	} else {
		root = element(atom.Div, html.Attribute{Key: "class", Val: RootClass})
		root.AppendChild(styleElement(ScopedStylesheet(p.Widget.Config)))
	}
	for _, n := range nodes {
		root.AppendChild(n)
	}
	target.AppendChild(root)
	return nil
}

// RenderDocumentFragment returns the mounted markup for p as a string, the
// same bytes Mount would append to a target.
func RenderDocumentFragment(p Payload, opts MountOptions) (string, error) {
	holder := element(atom.Div)
	if err := Mount(holder, p, opts); err != nil {
		return "", err
	}
	var sb strings.Builder
	for c := holder.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&sb, c); err != nil {
			return "", fmt.Errorf("render fragment: %w", err)
		}
	}
	return sb.String(), nil
}

func parseFragment(markup string) ([]*html.Node, error) {
	return html.ParseFragment(strings.NewReader(markup), element(atom.Div))
}

func element(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, Data: a.String(), DataAtom: a, Attr: attrs}
}

func styleElement(css string) *html.Node {
	style := element(atom.Style)
	style.AppendChild(&html.Node{Type: html.TextNode, Data: css})
	return style
}
