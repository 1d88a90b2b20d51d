package agents

import (
	"context"
	"errors"
	"strings"
	"testing"

	"genui/internal/profile"
)

func sessionData() map[string]interface{} {
	return map[string]interface{}{
		"duration":       150000.0,
		"clickCount":     8.0,
		"maxScrollDepth": 85.0,
		"pagesVisited":   1.0,
		"navigationPath": []interface{}{"/docs", "/docs/auth"},
	}
}

func TestAnalyzeBehavior_EmptyData(t *testing.T) {
	called := false
	client := &mockLLM{
		CompleteWithSystemFunc: func(ctx context.Context, system, user string) (string, error) {
			called = true
			return "{}", nil
		},
	}
	agent := NewBehaveAgent(client, nil, nil)

	res := agent.AnalyzeBehavior(context.Background(), nil, nil)
	if called {
		t.Error("LLM called for empty behavior data")
	}
	if res.EngagementScore != 0.5 || res.UserType != "casual" {
		t.Errorf("result = %+v, want neutral empty result", res)
	}
	if res.SessionSummary != "Insufficient behavior data for analysis." {
		t.Errorf("SessionSummary = %q", res.SessionSummary)
	}
}

func TestAnalyzeBehavior_FullAnalysis(t *testing.T) {
	var gotPrompt string
	client := &mockLLM{
		CompleteWithSystemFunc: func(ctx context.Context, system, user string) (string, error) {
			gotPrompt = user
			return `{
				"insights": [
					{"category": "pace_preference", "key": "reading_speed", "value": "thorough", "confidence": 0.8, "evidence": "long session, deep scroll"},
					{"category": "attention_pattern", "key": "focus", "value": "weak", "confidence": 0.3, "evidence": "guess"}
				],
				"profile_updates": [{"field": "behavior.reading_style", "value": "thorough", "confidence": 0.8}],
				"engagement_score": 0.85,
				"user_type": "deep_reader",
				"session_summary": "Read one article end to end.",
				"recommended_ui_adjustments": [{"type": "content_density", "target": "article", "suggestion": "longer form"}]
			}`, nil
		},
	}
	agent := NewBehaveAgent(client, nil, nil)

	prof := profile.Profile{"interests": map[string]interface{}{"topic": "go"}}
	res := agent.AnalyzeBehavior(context.Background(), sessionData(), prof)

	if len(res.Insights) != 1 {
		t.Fatalf("got %d insights, want 1 (low confidence dropped)", len(res.Insights))
	}
	if res.Insights[0].Category != "pace_preference" {
		t.Errorf("insight = %+v", res.Insights[0])
	}
	if len(res.ProfileUpdates) != 1 || res.ProfileUpdates[0].Field != "behavior.reading_style" {
		t.Errorf("ProfileUpdates = %+v", res.ProfileUpdates)
	}
	if res.EngagementScore != 0.85 || res.UserType != "deep_reader" {
		t.Errorf("engagement = %v, type = %q", res.EngagementScore, res.UserType)
	}
	if len(res.RecommendedUIAdjustments) != 1 {
		t.Errorf("adjustments = %+v", res.RecommendedUIAdjustments)
	}

	for _, section := range []string{"<existing_profile>", "<behavior_data>", "Session Duration"} {
		if !strings.Contains(gotPrompt, section) {
			t.Errorf("prompt missing %q", section)
		}
	}
}

func TestAnalyzeBehavior_FailureYieldsEmptyResult(t *testing.T) {
	client := &mockLLM{
		CompleteWithSystemFunc: func(ctx context.Context, system, user string) (string, error) {
			return "", errors.New("model unavailable")
		},
	}
	agent := NewBehaveAgent(client, nil, nil)

	res := agent.AnalyzeBehavior(context.Background(), sessionData(), nil)
	if res.SessionSummary != "Insufficient behavior data for analysis." {
		t.Errorf("SessionSummary = %q, want empty-result summary", res.SessionSummary)
	}
	if res.EngagementScore != 0.5 || res.UserType != "casual" {
		t.Errorf("result = %+v", res)
	}
}

func TestAnalyzeBehavior_UnparseableUsesDefaults(t *testing.T) {
	client := &mockLLM{
		CompleteWithSystemFunc: func(ctx context.Context, system, user string) (string, error) {
			return "the user seems engaged", nil
		},
	}
	agent := NewBehaveAgent(client, nil, nil)

	res := agent.AnalyzeBehavior(context.Background(), sessionData(), nil)
	if res.EngagementScore != 0.5 || res.UserType != "casual" {
		t.Errorf("result = %+v, want defaults", res)
	}
	if res.SessionSummary != "" {
		t.Errorf("SessionSummary = %q, want empty for parse failure", res.SessionSummary)
	}
	if len(res.Insights) != 0 || len(res.ProfileUpdates) != 0 {
		t.Errorf("result = %+v, want no insights or updates", res)
	}
}

func TestQuickAnalyzePath(t *testing.T) {
	agent := NewBehaveAgent(nil, nil, nil)

	qa := agent.QuickAnalyze(sessionData())
	if qa.UserType != "deep_reader" {
		t.Errorf("UserType = %q, want deep_reader", qa.UserType)
	}
	if qa.EngagementScore < 0.79 || qa.EngagementScore > 0.81 {
		t.Errorf("EngagementScore = %v, want about 0.8", qa.EngagementScore)
	}
}
