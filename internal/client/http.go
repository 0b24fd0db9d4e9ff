package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/testispark/testispark/internal/importer"
	"github.com/testispark/testispark/internal/model"
)

// HTTPClient implements Client against the TestiSpark REST API.
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewHTTPClient creates a new HTTP client targeting the given base URL
// (e.g. "http://localhost:8080"). When token is non-empty, an Authorization
// header is set on every request.
func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{},
	}
}

// Close is a no-op for the HTTP client.
func (c *HTTPClient) Close() error { return nil }

// --- Widgets ---

func (c *HTTPClient) ListWidgets(ctx context.Context) ([]*model.Widget, error) {
	var resp struct {
		Widgets []*model.Widget `json:"widgets"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/widgets", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Widgets, nil
}

func (c *HTTPClient) GetWidget(ctx context.Context, id string) (*model.Widget, error) {
	return c.widget(ctx, http.MethodGet, "/api/widgets/"+url.PathEscape(id), nil)
}

func (c *HTTPClient) CreateWidget(ctx context.Context, req *WidgetRequest) (*model.Widget, error) {
	return c.widget(ctx, http.MethodPost, "/api/widgets", req)
}

func (c *HTTPClient) UpdateWidget(ctx context.Context, id string, req *WidgetRequest) (*model.Widget, error) {
	return c.widget(ctx, http.MethodPut, "/api/widgets/"+url.PathEscape(id), req)
}

func (c *HTTPClient) DeleteWidget(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/widgets/"+url.PathEscape(id), nil, nil)
}

func (c *HTTPClient) widget(ctx context.Context, method, path string, body any) (*model.Widget, error) {
	var resp struct {
		Widget *model.Widget `json:"widget"`
	}
	if err := c.doJSON(ctx, method, path, body, &resp); err != nil {
		return nil, err
	}
	if resp.Widget == nil {
		return nil, fmt.Errorf("decoding response: missing widget")
	}
	return resp.Widget, nil
}

// --- Testimonials ---

func (c *HTTPClient) ListTestimonials(ctx context.Context, req *ListTestimonialsRequest) ([]*model.Testimonial, error) {
	var ts []*model.Testimonial
	if err := c.doJSON(ctx, http.MethodGet, "/api/testimonials"+req.query(), nil, &ts); err != nil {
		return nil, err
	}
	return ts, nil
}

func (c *HTTPClient) UpdateTestimonial(ctx context.Context, id string, patch *model.TestimonialPatch) (*model.Testimonial, error) {
	var t model.Testimonial
	if err := c.doJSON(ctx, http.MethodPatch, "/api/testimonials/"+url.PathEscape(id), patch, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *HTTPClient) DeleteTestimonial(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/testimonials/"+url.PathEscape(id), nil, nil)
}

func (c *HTTPClient) SubmitTestimonial(ctx context.Context, s *model.Submission) (*model.Testimonial, error) {
	var t model.Testimonial
	if err := c.doJSON(ctx, http.MethodPost, "/api/testimonials", s, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *HTTPClient) ImportTestimonials(ctx context.Context, formID string, entries []importer.Entry) (int, error) {
	body := struct {
		FormID       string           `json:"form_id"`
		Testimonials []importer.Entry `json:"testimonials"`
	}{formID, entries}
	var resp struct {
		Count int `json:"count"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/api/testimonials/import", body, &resp); err != nil {
		return 0, err
	}
	return resp.Count, nil
}

func (c *HTTPClient) PreviewTweet(ctx context.Context, tweetURL string) (*importer.Tweet, error) {
	var tw importer.Tweet
	body := map[string]string{"url": tweetURL}
	if err := c.doJSON(ctx, http.MethodPost, "/api/testimonials/import-twitter", body, &tw); err != nil {
		return nil, err
	}
	return &tw, nil
}

// ExportCSV streams the CSV export into w.
func (c *HTTPClient) ExportCSV(ctx context.Context, req *ListTestimonialsRequest, w io.Writer) error {
	resp, err := c.do(ctx, http.MethodGet, "/api/testimonials/export"+req.query(), nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return apiError(resp)
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("reading export: %w", err)
	}
	return nil
}

func (c *HTTPClient) Summarize(ctx context.Context, testimonialID string) (*model.Testimonial, error) {
	var t model.Testimonial
	body := map[string]string{"testimonial_id": testimonialID}
	if err := c.doJSON(ctx, http.MethodPost, "/api/ai/summarize", body, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// --- Forms ---

func (c *HTTPClient) ListForms(ctx context.Context) ([]*model.Form, error) {
	var forms []*model.Form
	if err := c.doJSON(ctx, http.MethodGet, "/api/forms", nil, &forms); err != nil {
		return nil, err
	}
	return forms, nil
}

func (c *HTTPClient) CreateForm(ctx context.Context, req *FormRequest) (*model.Form, error) {
	var f model.Form
	if err := c.doJSON(ctx, http.MethodPost, "/api/forms", req, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// --- Billing ---

func (c *HTTPClient) CheckoutURL(ctx context.Context) (string, error) {
	var resp struct {
		URL string `json:"url"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/billing/checkout", nil, &resp); err != nil {
		return "", err
	}
	return resp.URL, nil
}

// --- Health ---

func (c *HTTPClient) Health(ctx context.Context) (string, error) {
	var resp struct {
		Status string `json:"status"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/health", nil, &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}

// --- internal helpers ---

func (r *ListTestimonialsRequest) query() string {
	if r == nil {
		return ""
	}
	q := url.Values{}
	if r.FormID != "" {
		q.Set("form_id", r.FormID)
	}
	if r.Status != "" {
		q.Set("status", r.Status)
	}
	if r.Search != "" {
		q.Set("search", r.Search)
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

// APIError represents an error response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// apiError builds an *APIError from a failed response, preferring the
// {"error": "..."} body the server writes.
func apiError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	var errResp struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &errResp) == nil && errResp.Error != "" {
		return &APIError{StatusCode: resp.StatusCode, Message: errResp.Error}
	}
	return &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("performing request: %w", err)
	}
	return resp, nil
}

// doJSON performs an HTTP request with optional JSON body and decodes the JSON response.
// If result is nil, the response body is discarded.
func (c *HTTPClient) doJSON(ctx context.Context, method, path string, body any, result any) error {
	resp, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return apiError(resp)
	}
	if resp.StatusCode == http.StatusNoContent || result == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
