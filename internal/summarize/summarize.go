// Package summarize extracts a highlight quote and keyword tags from a testimonial.
package summarize

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"
)

// maxFallbackRunes bounds summaries produced without a model.
const maxFallbackRunes = 150

// Summary is the highlight and tags generated for one testimonial.
type Summary struct {
	Summary string   `json:"summary"`
	Tags    []string `json:"tags"`
}

// Summarizer produces a Summary for testimonial content.
type Summarizer interface {
	Summarize(ctx context.Context, content string) (Summary, error)
}

var firstSentence = regexp.MustCompile(`^[^.!?]*[.!?]`)

// Fallback summarizes without a model: the first sentence, or the first
// 150 characters when the content has no sentence terminator.
type Fallback struct{}

func (Fallback) Summarize(_ context.Context, content string) (Summary, error) {
	s := firstSentence.FindString(content)
	if s == "" {
		s = truncate(content, maxFallbackRunes)
	}
	return Summary{Summary: strings.TrimSpace(s), Tags: []string{}}, nil
}

var jsonObject = regexp.MustCompile(`(?s)\{.*\}`)

// parseResponse decodes the model's reply. Replies wrapped in prose or code
// fences are accepted; anything undecodable degrades to a truncated copy of
// the content.
func parseResponse(reply, content string) Summary {
	candidate := reply
	if m := jsonObject.FindString(reply); m != "" {
		candidate = m
	}
	var s Summary
	if err := json.Unmarshal([]byte(candidate), &s); err != nil || strings.TrimSpace(s.Summary) == "" {
		return Summary{Summary: truncate(content, maxFallbackRunes), Tags: []string{}}
	}
	s.Summary = strings.TrimSpace(s.Summary)
	if s.Tags == nil {
		s.Tags = []string{}
	}
	return s
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
