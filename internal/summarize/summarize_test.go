package summarize

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFallback(t *testing.T) {
	long := strings.Repeat("a", 200)
	for _, tc := range []struct {
		name    string
		content string
		want    string
	}{
		{"FirstSentence", "Loved it. Would buy again!", "Loved it."},
		{"Exclamation", "Wow! Amazing.", "Wow!"},
		{"NoTerminator", "Short and sweet", "Short and sweet"},
		{"LongNoTerminator", long, strings.Repeat("a", 150)},
		{"LeadingSpace", "  Great service? Yes.", "Great service?"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Fallback{}.Summarize(context.Background(), tc.content)
			if err != nil {
				t.Fatal(err)
			}
			if got.Summary != tc.want {
				t.Errorf("Summary = %q, want %q", got.Summary, tc.want)
			}
			if got.Tags == nil || len(got.Tags) != 0 {
				t.Errorf("Tags = %v, want empty", got.Tags)
			}
		})
	}
}

func TestParseResponse(t *testing.T) {
	content := "The onboarding was painless and support answered within minutes."
	for _, tc := range []struct {
		name  string
		reply string
		want  Summary
	}{
		{
			name:  "PlainJSON",
			reply: `{"summary": "Support answered within minutes.", "tags": ["support", "onboarding"]}`,
			want:  Summary{Summary: "Support answered within minutes.", Tags: []string{"support", "onboarding"}},
		},
		{
			name:  "CodeFence",
			reply: "```json\n{\"summary\": \"Painless onboarding\", \"tags\": [\"ux\"]}\n```",
			want:  Summary{Summary: "Painless onboarding", Tags: []string{"ux"}},
		},
		{
			name:  "MissingTags",
			reply: `{"summary": "Painless"}`,
			want:  Summary{Summary: "Painless", Tags: []string{}},
		},
		{
			name:  "Garbage",
			reply: "I cannot help with that.",
			want:  Summary{Summary: content, Tags: []string{}},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if diff := cmp.Diff(tc.want, parseResponse(tc.reply, content)); diff != "" {
				t.Errorf("parseResponse mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestGemini_Summarize(t *testing.T) {
	var gotContent string
	g := &Gemini{generate: func(_ context.Context, content string) (string, error) {
		gotContent = content
		return `{"summary":"Fast","tags":["speed"]}`, nil
	}}

	s, err := g.Summarize(context.Background(), "It was fast.")
	if err != nil {
		t.Fatal(err)
	}
	if gotContent != "It was fast." {
		t.Errorf("model received %q", gotContent)
	}
	if s.Summary != "Fast" || len(s.Tags) != 1 {
		t.Errorf("summary = %+v", s)
	}
}

func TestGemini_Error(t *testing.T) {
	boom := errors.New("quota exceeded")
	g := &Gemini{generate: func(context.Context, string) (string, error) { return "", boom }}
	if _, err := g.Summarize(context.Background(), "x"); !errors.Is(err, boom) {
		t.Errorf("err = %v, want %v", err, boom)
	}
}

func TestGenerateConfig(t *testing.T) {
	cfg := generateConfig(DefaultModel)
	if cfg.ThinkingConfig == nil || cfg.ThinkingConfig.ThinkingBudget == nil || *cfg.ThinkingConfig.ThinkingBudget != 0 {
		t.Fatalf("flash thinking config = %+v, want budget 0", cfg.ThinkingConfig)
	}
	if cfg.MaxOutputTokens != replyTokens {
		t.Errorf("flash MaxOutputTokens = %d, want %d", cfg.MaxOutputTokens, replyTokens)
	}
	if cfg.SystemInstruction == nil || cfg.SystemInstruction.Parts[0].Text != systemPrompt {
		t.Error("missing system instruction")
	}

	cfg = generateConfig("gemini-2.5-pro")
	if cfg.ThinkingConfig != nil {
		t.Errorf("pro thinking config = %+v, want unset", cfg.ThinkingConfig)
	}
	if cfg.MaxOutputTokens <= replyTokens {
		t.Errorf("pro MaxOutputTokens = %d, want headroom above %d", cfg.MaxOutputTokens, replyTokens)
	}
}

func TestNew_WithoutKeyFallsBack(t *testing.T) {
	s, err := New(context.Background(), "", "")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.(Fallback); !ok {
		t.Errorf("New without key = %T, want Fallback", s)
	}
}
