package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/testispark/testispark/internal/embed"
)

// EmbedPath is the public widget payload route. The widget id is appended
// escaped as a URI component.
const EmbedPath = "/api/embed/"

// EmbedClient fetches public widget payloads. It implements embed.Fetcher.
type EmbedClient struct {
	defaultBase string
	httpClient  *http.Client
}

// NewEmbedClient returns an EmbedClient. defaultBase is used when the
// loader passes an empty base URL, which happens for documents whose script
// src could not be resolved to an origin.
func NewEmbedClient(defaultBase string, timeout time.Duration) *EmbedClient {
	return &EmbedClient{
		defaultBase: strings.TrimRight(defaultBase, "/"),
		httpClient:  &http.Client{Timeout: timeout},
	}
}

// EmbedURL returns the payload URL for widgetID under baseURL.
func EmbedURL(baseURL, widgetID string) string {
	return strings.TrimRight(baseURL, "/") + EmbedPath + escapeComponent(widgetID)
}

// escapeComponent percent-encodes every byte of s except ASCII letters,
// digits and -_.!~*'(), the set browsers leave alone in encodeURIComponent.
func escapeComponent(s string) string {
	const hex = "0123456789ABCDEF"
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || '0' <= c && c <= '9' ||
			strings.IndexByte("-_.!~*'()", c) >= 0 {
			sb.WriteByte(c)
			continue
		}
		sb.WriteByte('%')
		sb.WriteByte(hex[c>>4])
		sb.WriteByte(hex[c&0x0f])
	}
	return sb.String()
}

// FetchEmbed issues GET {baseURL}/api/embed/{id}. Any non-2xx status is an
// error; the loader decides how to degrade.
func (c *EmbedClient) FetchEmbed(ctx context.Context, baseURL, widgetID string) (*embed.Payload, error) {
	if baseURL == "" {
		baseURL = c.defaultBase
	}
	if baseURL == "" {
		return nil, fmt.Errorf("fetch widget %s: no base URL", widgetID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, EmbedURL(baseURL, widgetID), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch widget %s: %w", widgetID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch widget %s: %w", widgetID, apiError(resp))
	}

	var p embed.Payload
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, fmt.Errorf("decoding widget %s: %w", widgetID, err)
	}
	return &p, nil
}
