package server

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/testispark/testispark/internal/events"
	"github.com/testispark/testispark/internal/export"
	"github.com/testispark/testispark/internal/importer"
	"github.com/testispark/testispark/internal/model"
	"github.com/testispark/testispark/internal/summarize"
)

type fakeTweets struct {
	tweet *importer.Tweet
	err   error
	urls  []string
}

func (f *fakeTweets) Fetch(_ context.Context, u string) (*importer.Tweet, error) {
	f.urls = append(f.urls, u)
	return f.tweet, f.err
}

type fakeSummarizer struct {
	sum summarize.Summary
	err error
}

func (f fakeSummarizer) Summarize(context.Context, string) (summarize.Summary, error) {
	return f.sum, f.err
}

func seedForm(ms *mockStore, id, owner string, active bool) {
	ms.forms[id] = &model.Form{ID: id, UserID: owner, Name: "Feedback", Slug: "feedback-" + id, IsActive: active}
}

func seedTestimonials(ms *mockStore, userID string, n int) {
	for i := range n {
		id := fmt.Sprintf("%s-t%d", userID, i)
		ms.testimonials[id] = &model.Testimonial{ID: id, UserID: userID, AuthorName: "A", Content: "C", Status: model.StatusPending}
	}
}

func submission() map[string]any {
	return map[string]any{
		"form_id":        "f1",
		"author_name":    "  Ana  ",
		"author_email":   "ana@example.com",
		"author_company": "Acme",
		"content":        "Great product",
		"rating":         5,
	}
}

func TestHandleSubmitTestimonial(t *testing.T) {
	_, ms, pub, h := newTestServer()
	seedForm(ms, "f1", "owner", true)

	rec := doJSON(t, h, "POST", "/api/testimonials", "", submission())
	requireStatus(t, rec, http.StatusCreated)

	var got model.Testimonial
	decodeBody(t, rec, &got)
	if got.ID == "" || got.UserID != "owner" || got.FormID != "f1" {
		t.Fatalf("unexpected ownership: %+v", got)
	}
	if got.Status != model.StatusPending || got.AuthorName != "Ana" {
		t.Fatalf("unexpected testimonial: %+v", got)
	}
	if got.Rating == nil || *got.Rating != 5 {
		t.Fatalf("rating = %v", got.Rating)
	}
	if len(ms.testimonials) != 1 {
		t.Fatalf("expected 1 stored testimonial, got %d", len(ms.testimonials))
	}
	if !slices.Contains(pub.Topics(), events.TopicTestimonialSubmitted) {
		t.Fatalf("expected %s, got %v", events.TopicTestimonialSubmitted, pub.Topics())
	}
}

func TestHandleSubmitTestimonial_ZeroRatingIsUnrated(t *testing.T) {
	_, ms, _, h := newTestServer()
	seedForm(ms, "f1", "owner", true)
	b := submission()
	b["rating"] = 0

	rec := doJSON(t, h, "POST", "/api/testimonials", "", b)
	requireStatus(t, rec, http.StatusCreated)
	var got model.Testimonial
	decodeBody(t, rec, &got)
	if got.Rating != nil {
		t.Fatalf("expected nil rating, got %d", *got.Rating)
	}
}

func TestHandleSubmitTestimonial_Errors(t *testing.T) {
	for _, tc := range []struct {
		name string
		seed func(*mockStore)
		mod  func(map[string]any)
		code int
		want string
	}{
		{
			name: "FormMissing",
			code: http.StatusNotFound,
			want: "Form not found",
		},
		{
			name: "FormInactive",
			seed: func(ms *mockStore) { seedForm(ms, "f1", "owner", false) },
			code: http.StatusBadRequest,
			want: "This form is no longer accepting testimonials",
		},
		{
			name: "MissingContent",
			seed: func(ms *mockStore) { seedForm(ms, "f1", "owner", true) },
			mod:  func(b map[string]any) { b["content"] = " " },
			code: http.StatusBadRequest,
		},
		{
			name: "RatingOutOfRange",
			seed: func(ms *mockStore) { seedForm(ms, "f1", "owner", true) },
			mod:  func(b map[string]any) { b["rating"] = 6 },
			code: http.StatusBadRequest,
		},
		{
			name: "FreeLimitReached",
			seed: func(ms *mockStore) {
				seedForm(ms, "f1", "owner", true)
				ms.profiles["owner"] = &model.Profile{ID: "owner", Plan: model.PlanFree}
				seedTestimonials(ms, "owner", model.FreeTestimonialLimit)
			},
			code: http.StatusForbidden,
			want: limitReachedMessage,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, ms, _, h := newTestServer()
			if tc.seed != nil {
				tc.seed(ms)
			}
			before := len(ms.testimonials)
			b := submission()
			if tc.mod != nil {
				tc.mod(b)
			}
			rec := doJSON(t, h, "POST", "/api/testimonials", "", b)
			if tc.want != "" {
				requireError(t, rec, tc.code, tc.want)
			} else {
				requireStatus(t, rec, tc.code)
			}
			if len(ms.testimonials) != before {
				t.Fatal("rejected submission was stored")
			}
		})
	}
}

func TestHandleSubmitTestimonial_LimitBoundary(t *testing.T) {
	_, ms, _, h := newTestServer()
	seedForm(ms, "f1", "owner", true)
	ms.profiles["owner"] = &model.Profile{ID: "owner", Plan: model.PlanFree}
	seedTestimonials(ms, "owner", model.FreeTestimonialLimit-1)

	requireStatus(t, doJSON(t, h, "POST", "/api/testimonials", "", submission()), http.StatusCreated)
	requireStatus(t, doJSON(t, h, "POST", "/api/testimonials", "", submission()), http.StatusForbidden)
}

func TestHandleSubmitTestimonial_LocksOwnerProfile(t *testing.T) {
	_, ms, _, h := newTestServer()
	seedForm(ms, "f1", "owner", true)
	ms.profiles["owner"] = &model.Profile{ID: "owner", Plan: model.PlanFree}

	requireStatus(t, doJSON(t, h, "POST", "/api/testimonials", "", submission()), http.StatusCreated)
	if len(ms.locked) != 1 || ms.locked[0] != "owner" {
		t.Fatalf("locked profiles = %v, want [owner]", ms.locked)
	}
}

func TestHandleSubmitTestimonial_ProUnlimited(t *testing.T) {
	_, ms, _, h := newTestServer()
	seedForm(ms, "f1", "owner", true)
	ms.profiles["owner"] = &model.Profile{ID: "owner", Plan: model.PlanPro}
	seedTestimonials(ms, "owner", model.FreeTestimonialLimit+5)

	requireStatus(t, doJSON(t, h, "POST", "/api/testimonials", "", submission()), http.StatusCreated)
}

func TestHandleListTestimonials(t *testing.T) {
	_, ms, _, h := newTestServer()
	ms.testimonials["a"] = &model.Testimonial{ID: "a", UserID: "u1", FormID: "f1", AuthorName: "Ana", Content: "Fast shipping", Status: model.StatusApproved, CreatedAt: testNow}
	ms.testimonials["b"] = &model.Testimonial{ID: "b", UserID: "u1", FormID: "f2", AuthorName: "Bo", Content: "Slow", Status: model.StatusPending, CreatedAt: testNow.Add(-1)}
	ms.testimonials["c"] = &model.Testimonial{ID: "c", UserID: "u2", FormID: "f1", AuthorName: "Cy", Content: "Fast", Status: model.StatusApproved, CreatedAt: testNow}

	ids := func(path string) []string {
		t.Helper()
		rec := doJSON(t, h, "GET", path, "u1", nil)
		requireStatus(t, rec, http.StatusOK)
		var ts []model.Testimonial
		decodeBody(t, rec, &ts)
		out := []string{}
		for _, tt := range ts {
			out = append(out, tt.ID)
		}
		return out
	}

	for _, tc := range []struct {
		path string
		want []string
	}{
		{"/api/testimonials", []string{"a", "b"}},
		{"/api/testimonials?status=approved", []string{"a"}},
		{"/api/testimonials?status=bogus", []string{"a", "b"}},
		{"/api/testimonials?form_id=f2", []string{"b"}},
		{"/api/testimonials?search=FAST", []string{"a"}},
		{"/api/testimonials?search=nothing", []string{}},
	} {
		if diff := cmp.Diff(tc.want, ids(tc.path)); diff != "" {
			t.Errorf("%s mismatch (-want +got):\n%s", tc.path, diff)
		}
	}
}

func TestHandleUpdateTestimonial(t *testing.T) {
	_, ms, pub, h := newTestServer()
	ms.testimonials["t1"] = &model.Testimonial{ID: "t1", UserID: "u1", Status: model.StatusPending}

	rec := doJSON(t, h, "PATCH", "/api/testimonials/t1", "u1", map[string]any{"status": "approved", "is_featured": true})
	requireStatus(t, rec, http.StatusOK)
	var got model.Testimonial
	decodeBody(t, rec, &got)
	if got.Status != model.StatusApproved || !got.IsFeatured {
		t.Fatalf("unexpected testimonial %+v", got)
	}
	if !slices.Contains(pub.Topics(), events.TopicTestimonialUpdated) {
		t.Fatalf("expected %s, got %v", events.TopicTestimonialUpdated, pub.Topics())
	}
}

func TestHandleUpdateTestimonial_Errors(t *testing.T) {
	_, ms, _, h := newTestServer()
	ms.testimonials["t1"] = &model.Testimonial{ID: "t1", UserID: "u1", Status: model.StatusPending}

	requireError(t, doJSON(t, h, "PATCH", "/api/testimonials/t1", "u1", map[string]any{"status": "archived"}),
		http.StatusBadRequest, "status must be pending, approved, or rejected")
	requireError(t, doJSON(t, h, "PATCH", "/api/testimonials/t1", "u1", map[string]any{}),
		http.StatusBadRequest, "status or is_featured is required")
	requireError(t, doJSON(t, h, "PATCH", "/api/testimonials/t1", "u2", map[string]any{"status": "approved"}),
		http.StatusNotFound, "Testimonial not found")

	if ms.testimonials["t1"].Status != model.StatusPending {
		t.Fatal("testimonial changed by rejected requests")
	}
}

func TestHandleDeleteTestimonial(t *testing.T) {
	_, ms, pub, h := newTestServer()
	ms.testimonials["t1"] = &model.Testimonial{ID: "t1", UserID: "u1"}

	requireStatus(t, doJSON(t, h, "DELETE", "/api/testimonials/t1", "u2", nil), http.StatusNotFound)
	requireStatus(t, doJSON(t, h, "DELETE", "/api/testimonials/t1", "u1", nil), http.StatusNoContent)
	if _, ok := ms.testimonials["t1"]; ok {
		t.Fatal("testimonial still stored")
	}
	if !slices.Contains(pub.Topics(), events.TopicTestimonialDeleted) {
		t.Fatalf("expected %s, got %v", events.TopicTestimonialDeleted, pub.Topics())
	}
}

func TestHandleImportTestimonials(t *testing.T) {
	_, ms, pub, h := newTestServer()
	seedForm(ms, "f1", "u1", true)

	rec := doJSON(t, h, "POST", "/api/testimonials/import", "u1", map[string]any{
		"form_id": "f1",
		"testimonials": []map[string]any{
			{"author_name": "Ana", "content": "Great", "rating": 5},
			{"author_name": "Bo", "content": "Good"},
		},
	})
	requireStatus(t, rec, http.StatusOK)
	var body map[string]int
	decodeBody(t, rec, &body)
	if body["count"] != 2 {
		t.Fatalf("count = %d, want 2", body["count"])
	}
	for _, tt := range ms.testimonials {
		if tt.Status != model.StatusApproved || tt.UserID != "u1" || tt.FormID != "f1" {
			t.Fatalf("unexpected imported testimonial %+v", tt)
		}
	}
	if len(ms.testimonials) != 2 {
		t.Fatalf("expected 2 stored, got %d", len(ms.testimonials))
	}
	if !slices.Contains(pub.Topics(), events.TopicTestimonialsImported) {
		t.Fatalf("expected %s, got %v", events.TopicTestimonialsImported, pub.Topics())
	}
}

func TestHandleImportTestimonials_Errors(t *testing.T) {
	_, ms, _, h := newTestServer()
	seedForm(ms, "f1", "u1", true)
	entries := []map[string]any{{"author_name": "Ana", "content": "Great"}}

	requireError(t, doJSON(t, h, "POST", "/api/testimonials/import", "u1", map[string]any{"form_id": "f1"}),
		http.StatusBadRequest, "form_id and testimonials array are required.")
	requireError(t, doJSON(t, h, "POST", "/api/testimonials/import", "u1", map[string]any{"testimonials": entries}),
		http.StatusBadRequest, "form_id and testimonials array are required.")
	requireError(t, doJSON(t, h, "POST", "/api/testimonials/import", "u2", map[string]any{"form_id": "f1", "testimonials": entries}),
		http.StatusForbidden, "Form not found or access denied.")
	requireError(t, doJSON(t, h, "POST", "/api/testimonials/import", "u1", map[string]any{"form_id": "nope", "testimonials": entries}),
		http.StatusForbidden, "Form not found or access denied.")

	bad := []map[string]any{{"author_name": "Ana", "content": "Great"}, {"author_name": "", "content": "x"}}
	requireStatus(t, doJSON(t, h, "POST", "/api/testimonials/import", "u1", map[string]any{"form_id": "f1", "testimonials": bad}),
		http.StatusBadRequest)

	if len(ms.testimonials) != 0 {
		t.Fatalf("expected nothing stored, got %d", len(ms.testimonials))
	}
}

func TestHandleImportTweet(t *testing.T) {
	tweets := &fakeTweets{tweet: &importer.Tweet{AuthorName: "jack", Content: "just setting up", URL: "https://twitter.com/jack/status/20"}}
	_, ms, _, h := newTestServer(func(o *Options) { o.Tweets = tweets })

	rec := doJSON(t, h, "POST", "/api/testimonials/import-twitter", "u1", map[string]any{"url": " https://x.com/jack/status/20 "})
	requireStatus(t, rec, http.StatusOK)
	var got importer.Tweet
	decodeBody(t, rec, &got)
	if diff := cmp.Diff(*tweets.tweet, got); diff != "" {
		t.Fatalf("tweet mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"https://x.com/jack/status/20"}, tweets.urls); diff != "" {
		t.Fatalf("fetched urls mismatch (-want +got):\n%s", diff)
	}
	if len(ms.testimonials) != 0 {
		t.Fatal("preview must not store a testimonial")
	}
}

func TestHandleImportTweet_Errors(t *testing.T) {
	tweets := &fakeTweets{err: errors.New("oembed: 404")}
	_, _, _, h := newTestServer(func(o *Options) { o.Tweets = tweets })

	for _, tc := range []struct {
		url  string
		want string
	}{
		{"", "A valid tweet URL is required."},
		{"https://example.com/post/1", "Please provide a valid Twitter/X tweet URL."},
		{"https://twitter.com/jack/status/20", "Failed to fetch tweet. It may be private or deleted."},
	} {
		rec := doJSON(t, h, "POST", "/api/testimonials/import-twitter", "u1", map[string]any{"url": tc.url})
		requireError(t, rec, http.StatusBadRequest, tc.want)
	}
	if len(tweets.urls) != 1 {
		t.Fatalf("expected one fetch attempt, got %v", tweets.urls)
	}
}

func TestHandleExportCSV_RequiresPro(t *testing.T) {
	_, ms, _, h := newTestServer()
	rec := doJSON(t, h, "GET", "/api/testimonials/export", "u1", nil)
	requireError(t, rec, http.StatusForbidden, "CSV export is a Pro feature. Please upgrade your plan.")
	if p := ms.profiles["u1"]; p == nil || p.Plan != model.PlanFree {
		t.Fatalf("expected a free profile to be created, got %+v", p)
	}
}

func TestHandleExportCSV(t *testing.T) {
	_, ms, _, h := newTestServer()
	ms.profiles["u1"] = &model.Profile{ID: "u1", Plan: model.PlanPro}
	ms.testimonials["a"] = &model.Testimonial{ID: "a", UserID: "u1", FormID: "f1", AuthorName: "Ana", Content: "Great, really", Status: model.StatusApproved, CreatedAt: testNow}
	ms.testimonials["b"] = &model.Testimonial{ID: "b", UserID: "u1", FormID: "f1", AuthorName: "Bo", Content: "Meh", Status: model.StatusPending, CreatedAt: testNow}
	ms.testimonials["c"] = &model.Testimonial{ID: "c", UserID: "u2", AuthorName: "Cy", Content: "Other", Status: model.StatusApproved, CreatedAt: testNow}

	rec := doJSON(t, h, "GET", "/api/testimonials/export?status=approved", "u1", nil)
	requireStatus(t, rec, http.StatusOK)
	if ct := rec.Header().Get("Content-Type"); ct != export.ContentType {
		t.Fatalf("Content-Type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "testimonials-2025-03-14.csv") {
		t.Fatalf("Content-Disposition = %q", cd)
	}

	records, err := csv.NewReader(rec.Body).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected header and 1 row, got %d records", len(records))
	}
	if diff := cmp.Diff(export.Header, records[0]); diff != "" {
		t.Fatalf("header mismatch (-want +got):\n%s", diff)
	}
	if records[1][0] != "Ana" || records[1][5] != "Great, really" {
		t.Fatalf("unexpected row %v", records[1])
	}
}

func TestHandleSummarize(t *testing.T) {
	sum := fakeSummarizer{sum: summarize.Summary{Summary: "Fast and friendly.", Tags: []string{"speed", "support"}}}
	_, ms, pub, h := newTestServer(func(o *Options) { o.Summarizer = sum })
	ms.testimonials["t1"] = &model.Testimonial{ID: "t1", UserID: "u1", Content: "They were fast and friendly."}

	rec := doJSON(t, h, "POST", "/api/ai/summarize", "u1", map[string]any{"testimonial_id": "t1"})
	requireStatus(t, rec, http.StatusOK)
	var got model.Testimonial
	decodeBody(t, rec, &got)
	if got.AISummary != "Fast and friendly." {
		t.Fatalf("ai_summary = %q", got.AISummary)
	}
	if diff := cmp.Diff([]string{"speed", "support"}, got.AITags); diff != "" {
		t.Fatalf("ai_tags mismatch (-want +got):\n%s", diff)
	}
	if ms.testimonials["t1"].AISummary == "" {
		t.Fatal("summary not stored")
	}
	if !slices.Contains(pub.Topics(), events.TopicTestimonialUpdated) {
		t.Fatalf("expected %s, got %v", events.TopicTestimonialUpdated, pub.Topics())
	}
}

func TestHandleSummarize_Errors(t *testing.T) {
	_, ms, _, h := newTestServer(func(o *Options) {
		o.Summarizer = fakeSummarizer{err: errors.New("quota exceeded")}
	})
	ms.testimonials["t1"] = &model.Testimonial{ID: "t1", UserID: "u1", Content: "Nice"}

	requireError(t, doJSON(t, h, "POST", "/api/ai/summarize", "u1", map[string]any{}),
		http.StatusBadRequest, "testimonial_id is required")
	requireError(t, doJSON(t, h, "POST", "/api/ai/summarize", "u1", map[string]any{"testimonial_id": "nope"}),
		http.StatusNotFound, "Testimonial not found")
	requireError(t, doJSON(t, h, "POST", "/api/ai/summarize", "u2", map[string]any{"testimonial_id": "t1"}),
		http.StatusNotFound, "Testimonial not found")
	requireError(t, doJSON(t, h, "POST", "/api/ai/summarize", "u1", map[string]any{"testimonial_id": "t1"}),
		http.StatusInternalServerError, "Failed to generate AI summary")
}

func TestHandleSummarize_DefaultFallback(t *testing.T) {
	_, ms, _, h := newTestServer()
	ms.testimonials["t1"] = &model.Testimonial{ID: "t1", UserID: "u1", Content: "Setup took minutes. Support was great."}

	rec := doJSON(t, h, "POST", "/api/ai/summarize", "u1", map[string]any{"testimonial_id": "t1"})
	requireStatus(t, rec, http.StatusOK)
	var got model.Testimonial
	decodeBody(t, rec, &got)
	if got.AISummary == "" {
		t.Fatal("fallback summarizer produced no summary")
	}
}
