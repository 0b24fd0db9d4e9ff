// Package importer brings testimonials in from outside sources: Twitter/X
// posts via the public oEmbed endpoint and bulk JSON lists.
package importer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// DefaultOEmbedEndpoint is the public Twitter oEmbed API. It needs no key.
const DefaultOEmbedEndpoint = "https://publish.twitter.com/oembed"

const (
	unknownAuthor  = "Unknown"
	noTweetContent = "Could not extract tweet text."
)

var (
	// ErrInvalidTweetURL is returned for URLs that are not a tweet permalink.
	ErrInvalidTweetURL = errors.New("not a Twitter/X tweet URL")
	// ErrTweetUnavailable is returned when oEmbed does not resolve the tweet,
	// typically because it is private or deleted.
	ErrTweetUnavailable = errors.New("tweet unavailable; it may be private or deleted")
)

var tweetURLPattern = regexp.MustCompile(`(?i)^https?://(twitter\.com|x\.com)/\w+/status/\d+`)

// IsTweetURL reports whether u looks like a tweet permalink.
func IsTweetURL(u string) bool {
	return tweetURLPattern.MatchString(u)
}

// Tweet is the preview of a tweet ready to be imported as a testimonial.
type Tweet struct {
	AuthorName string `json:"author_name"`
	Content    string `json:"content"`
	URL        string `json:"url"`
}

// TweetFetcher resolves tweet URLs through an oEmbed endpoint.
type TweetFetcher struct {
	endpoint   string
	httpClient *http.Client
}

// NewTweetFetcher returns a fetcher for the given oEmbed endpoint
// (DefaultOEmbedEndpoint when empty).
func NewTweetFetcher(endpoint string) *TweetFetcher {
	if endpoint == "" {
		endpoint = DefaultOEmbedEndpoint
	}
	return &TweetFetcher{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type oembedResponse struct {
	AuthorName string `json:"author_name"`
	HTML       string `json:"html"`
}

// Fetch resolves tweetURL into a Tweet preview.
func (f *TweetFetcher) Fetch(ctx context.Context, tweetURL string) (*Tweet, error) {
	if !IsTweetURL(tweetURL) {
		return nil, ErrInvalidTweetURL
	}

	q := url.Values{}
	q.Set("url", tweetURL)
	q.Set("omit_script", "true")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create oembed request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch oembed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, ErrTweetUnavailable
	}

	var body oembedResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode oembed: %w", err)
	}

	t := &Tweet{
		AuthorName: body.AuthorName,
		Content:    ExtractTweetText(body.HTML),
		URL:        tweetURL,
	}
	if t.AuthorName == "" {
		t.AuthorName = unknownAuthor
	}
	if t.Content == "" {
		t.Content = noTweetContent
	}
	return t, nil
}

var blankLines = regexp.MustCompile(`\n{3,}`)

// ExtractTweetText returns the plain text of an oEmbed blockquote. Links
// are dropped, <br> becomes a newline and the "— Author (@handle) date"
// attribution is removed.
func ExtractTweetText(fragment string) string {
	nodes, err := html.ParseFragment(strings.NewReader(fragment), &html.Node{
		Type:     html.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
	})
	if err != nil {
		return ""
	}

	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			sb.WriteString(n.Data)
			return
		case html.ElementNode:
			switch n.DataAtom {
			case atom.A, atom.Script, atom.Style:
				return
			case atom.Br:
				sb.WriteByte('\n')
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range nodes {
		walk(n)
	}

	text := sb.String()
	if i := strings.Index(text, "—"); i >= 0 {
		text = text[:i]
	}
	text = blankLines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
