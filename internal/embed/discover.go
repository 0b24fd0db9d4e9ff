package embed

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Attribute and id conventions of the embed snippet. The HTML parser lowercases
// attribute names, so the target attribute is matched in its lowercase form.
const (
	WidgetIDAttr   = "data-widget-id"
	TargetAttr     = "data-testispark-target"
	RenderedAttr   = "data-tg-rendered"
	DefaultMountID = "testiSpark-widget"
)

// Instance is one widget-requesting script tag found in a document.
type Instance struct {
	WidgetID string
	Script   *html.Node
}

// Discover returns every script element carrying a non-empty data-widget-id,
// in document order.
func Discover(doc *html.Node) []Instance {
	var out []Instance
	walk(doc, func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.DataAtom == atom.Script {
			if v, ok := attr(n, WidgetIDAttr); ok && v != "" {
				out = append(out, Instance{WidgetID: v, Script: n})
			}
		}
		return true
	})
	return out
}

// ResolveMount returns the element inst renders into. The first match wins:
// a following sibling with the conventional id or a target attribute naming
// this widget, then any element in doc with the conventional id, then a new
// <div id="testiSpark-widget"> inserted directly after the script.
func ResolveMount(doc *html.Node, inst Instance) *html.Node {
	for sib := nextElement(inst.Script); sib != nil; sib = nextElement(sib) {
		if id, _ := attr(sib, "id"); id == DefaultMountID {
			return sib
		}
		if t, _ := attr(sib, TargetAttr); t == inst.WidgetID {
			return sib
		}
	}

	if n := getElementByID(doc, DefaultMountID); n != nil {
		return n
	}

	target := &html.Node{
		Type:     html.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
		Attr:     []html.Attribute{{Key: "id", Val: DefaultMountID}},
	}
	if parent := inst.Script.Parent; parent != nil {
		parent.InsertBefore(target, inst.Script.NextSibling)
	}
	return target
}

// BaseURL returns the origin of the script src resolved against pageURL, or
// "" when either cannot be parsed or the src is missing.
func BaseURL(script *html.Node, pageURL string) string {
	src, ok := attr(script, "src")
	if !ok || strings.TrimSpace(src) == "" {
		return ""
	}
	ref, err := url.Parse(strings.TrimSpace(src))
	if err != nil {
		return ""
	}
	if pageURL != "" {
		base, err := url.Parse(pageURL)
		if err != nil {
			return ""
		}
		ref = base.ResolveReference(ref)
	}
	if ref.Scheme == "" || ref.Host == "" {
		return ""
	}
	return ref.Scheme + "://" + ref.Host
}

func isRendered(n *html.Node) bool {
	v, ok := attr(n, RenderedAttr)
	return ok && v != ""
}

func markRendered(n *html.Node) {
	setAttr(n, RenderedAttr, "true")
}

func walk(n *html.Node, visit func(*html.Node) bool) bool {
	if !visit(n) {
		return false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !walk(c, visit) {
			return false
		}
	}
	return true
}

func getElementByID(doc *html.Node, id string) *html.Node {
	var found *html.Node
	walk(doc, func(n *html.Node) bool {
		if n.Type == html.ElementNode {
			if v, _ := attr(n, "id"); v == id {
				found = n
				return false
			}
		}
		return true
	})
	return found
}

func nextElement(n *html.Node) *html.Node {
	for s := n.NextSibling; s != nil; s = s.NextSibling {
		if s.Type == html.ElementNode {
			return s
		}
	}
	return nil
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}
