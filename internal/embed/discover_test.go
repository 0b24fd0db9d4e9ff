package embed

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/net/html"
)

func parseDoc(t *testing.T, page string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		t.Fatalf("parse page: %v", err)
	}
	return doc
}

func widgetIDs(instances []Instance) []string {
	ids := make([]string, len(instances))
	for i, inst := range instances {
		ids[i] = inst.WidgetID
	}
	return ids
}

func TestDiscover(t *testing.T) {
	doc := parseDoc(t, `<html><head>
		<script src="/other.js"></script>
		<script src="https://cdn.example.com/embed.js" data-widget-id="w1"></script>
	</head><body>
		<script src="https://cdn.example.com/embed.js" data-widget-id=""></script>
		<div><script data-widget-id="w2"></script></div>
		<script src="https://cdn.example.com/embed.js" data-widget-id="w3"></script>
	</body></html>`)

	got := widgetIDs(Discover(doc))
	if diff := cmp.Diff([]string{"w1", "w2", "w3"}, got); diff != "" {
		t.Errorf("Discover() mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveMount(t *testing.T) {
	for _, tc := range []struct {
		name   string
		page   string
		wantID string
		// wantMarker identifies the expected element by a data-marker attribute.
		wantMarker string
		synthetic  bool
	}{
		{
			name:       "immediate sibling with conventional id",
			page:       `<body><script data-widget-id="w1"></script><div id="testiSpark-widget" data-marker="a"></div></body>`,
			wantMarker: "a",
		},
		{
			name:       "later sibling with conventional id",
			page:       `<body><script data-widget-id="w1"></script><p>x</p><span></span><div id="testiSpark-widget" data-marker="b"></div></body>`,
			wantMarker: "b",
		},
		{
			name:       "sibling targeting this widget",
			page:       `<body><script data-widget-id="w1"></script><section data-testiSpark-target="w1" data-marker="c"></section></body>`,
			wantMarker: "c",
		},
		{
			name:       "sibling targeting another widget is ignored",
			page:       `<body><script data-widget-id="w1"></script><section data-testiSpark-target="w2"></section><div id="testiSpark-widget" data-marker="d"></div></body>`,
			wantMarker: "d",
		},
		{
			name:       "preceding element is not a sibling match but is the document fallback",
			page:       `<body><div id="testiSpark-widget" data-marker="e"></div><div><script data-widget-id="w1"></script></div></body>`,
			wantMarker: "e",
		},
		{
			name:      "synthesized after script",
			page:      `<body><div><script data-widget-id="w1"></script><p>after</p></div></body>`,
			synthetic: true,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			doc := parseDoc(t, tc.page)
			inst := Discover(doc)[0]
			target := ResolveMount(doc, inst)
			if target == nil {
				t.Fatal("ResolveMount() returned nil")
			}
			if tc.synthetic {
				if id, _ := attr(target, "id"); id != DefaultMountID {
					t.Errorf("synthesized id = %q", id)
				}
				if inst.Script.NextSibling != target {
					t.Error("synthesized mount should directly follow the script")
				}
				if target.FirstChild != nil {
					t.Error("synthesized mount should be empty")
				}
				return
			}
			if m, _ := attr(target, "data-marker"); m != tc.wantMarker {
				t.Errorf("resolved marker %q, want %q", m, tc.wantMarker)
			}
		})
	}
}

func TestBaseURL(t *testing.T) {
	for _, tc := range []struct {
		src     string
		pageURL string
		want    string
	}{
		{"https://cdn.example.com/embed.js", "https://shop.example.org/products", "https://cdn.example.com"},
		{"https://cdn.example.com:8443/v1/embed.js?x=1", "", "https://cdn.example.com:8443"},
		{"/embed.js", "https://testispark.com/wall/acme", "https://testispark.com"},
		{"//cdn.example.com/embed.js", "http://host.local/", "http://cdn.example.com"},
		{"/embed.js", "", ""},
		{"", "https://shop.example.org/", ""},
	} {
		doc := parseDoc(t, `<script data-widget-id="w" src="`+tc.src+`"></script>`)
		got := BaseURL(Discover(doc)[0].Script, tc.pageURL)
		if got != tc.want {
			t.Errorf("BaseURL(%q, %q) = %q, want %q", tc.src, tc.pageURL, got, tc.want)
		}
	}
}
