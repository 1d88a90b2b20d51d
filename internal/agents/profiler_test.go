package agents

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestAnalyzeMessage_ExtractsUpdates(t *testing.T) {
	client := &mockLLM{
		CompleteWithSystemFunc: func(ctx context.Context, system, user string) (string, error) {
			return `{
				"has_profile_info": true,
				"updates": [
					{"field": "demographic.role", "value": "software engineer", "confidence": 0.95},
					{"field": "interest.hiking", "value": "hiking", "confidence": 0.3}
				],
				"interaction_type": "statement",
				"topics": ["work"],
				"sentiment": "positive"
			}`, nil
		},
	}
	agent := NewProfileAgent(client, nil, nil)

	res := agent.AnalyzeMessage(context.Background(), "I'm a software engineer", nil)
	if !res.HasProfileInfo {
		t.Error("HasProfileInfo = false, want true")
	}
	if len(res.Updates) != 1 {
		t.Fatalf("got %d updates, want 1 (low confidence dropped)", len(res.Updates))
	}
	u := res.Updates[0]
	if u.Field != "demographic.role" || u.Value != "software engineer" {
		t.Errorf("update = %+v", u)
	}
	if u.Source != "I'm a software engineer" {
		t.Errorf("Source = %q, want the message", u.Source)
	}
	if u.Timestamp == "" {
		t.Error("Timestamp not set")
	}
	if res.InteractionType != "statement" || res.Sentiment != "positive" {
		t.Errorf("metadata = %q/%q", res.InteractionType, res.Sentiment)
	}
}

func TestAnalyzeMessage_InfoFlagRequiresUpdates(t *testing.T) {
	// The model may claim profile info while every update is below the
	// confidence floor. The flag must then come back false.
	client := &mockLLM{
		CompleteWithSystemFunc: func(ctx context.Context, system, user string) (string, error) {
			return `{
				"has_profile_info": true,
				"updates": [{"field": "interest.maybe", "value": "x", "confidence": 0.2}],
				"interaction_type": "statement",
				"topics": [],
				"sentiment": "neutral"
			}`, nil
		},
	}
	agent := NewProfileAgent(client, nil, nil)

	res := agent.AnalyzeMessage(context.Background(), "hmm", nil)
	if res.HasProfileInfo {
		t.Error("HasProfileInfo = true with no qualifying updates")
	}
	if len(res.Updates) != 0 {
		t.Errorf("got %d updates, want 0", len(res.Updates))
	}
}

func TestAnalyzeMessage_SourceTruncated(t *testing.T) {
	client := &mockLLM{
		CompleteWithSystemFunc: func(ctx context.Context, system, user string) (string, error) {
			return `{"has_profile_info": true, "updates": [{"field": "context.project", "value": "x", "confidence": 0.9}]}`, nil
		},
	}
	agent := NewProfileAgent(client, nil, nil)

	long := strings.Repeat("a", 150)
	res := agent.AnalyzeMessage(context.Background(), long, nil)
	if len(res.Updates) != 1 {
		t.Fatalf("got %d updates", len(res.Updates))
	}
	if got := res.Updates[0].Source; len(got) != 100 {
		t.Errorf("Source length = %d, want 100", len(got))
	}
}

func TestAnalyzeMessage_ContextWindow(t *testing.T) {
	var gotPrompt string
	client := &mockLLM{
		CompleteWithSystemFunc: func(ctx context.Context, system, user string) (string, error) {
			gotPrompt = user
			return `{"has_profile_info": false, "updates": []}`, nil
		},
	}
	agent := NewProfileAgent(client, nil, nil)

	history := []Message{
		{Role: "user", Content: "first"},
		{Role: "assistant", Content: "second"},
		{Role: "user", Content: "third"},
		{Role: "assistant", Content: "fourth"},
	}
	agent.AnalyzeMessage(context.Background(), "analyze me", history)

	if strings.Contains(gotPrompt, "first") {
		t.Error("prompt should only include the last three context messages")
	}
	for _, want := range []string{"second", "third", "fourth", "<message_to_analyze>"} {
		if !strings.Contains(gotPrompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestAnalyzeMessage_FailureYieldsEmptyResult(t *testing.T) {
	client := &mockLLM{
		CompleteWithSystemFunc: func(ctx context.Context, system, user string) (string, error) {
			return "", errors.New("timeout")
		},
	}
	agent := NewProfileAgent(client, nil, nil)

	res := agent.AnalyzeMessage(context.Background(), "msg", nil)
	if res.HasProfileInfo || len(res.Updates) != 0 {
		t.Errorf("result = %+v, want empty", res)
	}
	if res.InteractionType != "question" || res.Sentiment != "neutral" {
		t.Errorf("defaults = %q/%q", res.InteractionType, res.Sentiment)
	}
}

func TestAnalyzeMessage_UnparseableYieldsEmptyResult(t *testing.T) {
	client := &mockLLM{
		CompleteWithSystemFunc: func(ctx context.Context, system, user string) (string, error) {
			return "no json here", nil
		},
	}
	agent := NewProfileAgent(client, nil, nil)

	res := agent.AnalyzeMessage(context.Background(), "msg", nil)
	if res.HasProfileInfo || len(res.Updates) != 0 {
		t.Errorf("result = %+v, want empty", res)
	}
}
