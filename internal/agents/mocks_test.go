package agents

import (
	"context"

	"genui/internal/profile"
	"genui/internal/retrieval"
)

type mockLLM struct {
	CompleteFunc           func(ctx context.Context, prompt string) (string, error)
	CompleteWithSystemFunc func(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

func (m *mockLLM) Complete(ctx context.Context, prompt string) (string, error) {
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, prompt)
	}
	return "", nil
}

func (m *mockLLM) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if m.CompleteWithSystemFunc != nil {
		return m.CompleteWithSystemFunc(ctx, systemPrompt, userPrompt)
	}
	return "", nil
}

type mockSearcher struct {
	SearchFunc func(ctx context.Context, query string, topK int) ([]retrieval.Result, error)
}

func (m *mockSearcher) Search(ctx context.Context, query string, topK int) ([]retrieval.Result, error) {
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, query, topK)
	}
	return nil, nil
}

type mockResponseAnalyzer struct {
	ProcessQueryFunc func(ctx context.Context, query string, prof profile.Profile, history []Message) AgentResponse
}

func (m *mockResponseAnalyzer) ProcessQuery(ctx context.Context, query string, prof profile.Profile, history []Message) AgentResponse {
	if m.ProcessQueryFunc != nil {
		return m.ProcessQueryFunc(ctx, query, prof, history)
	}
	return AgentResponse{}
}

type mockProfileAnalyzer struct {
	AnalyzeMessageFunc func(ctx context.Context, message string, history []Message) ProfileAnalysisResult
}

func (m *mockProfileAnalyzer) AnalyzeMessage(ctx context.Context, message string, history []Message) ProfileAnalysisResult {
	if m.AnalyzeMessageFunc != nil {
		return m.AnalyzeMessageFunc(ctx, message, history)
	}
	return ProfileAnalysisResult{}
}

type mockBehaviorAnalyzer struct {
	AnalyzeBehaviorFunc func(ctx context.Context, data map[string]interface{}, prof profile.Profile) BehaviorAnalysisResult
}

func (m *mockBehaviorAnalyzer) AnalyzeBehavior(ctx context.Context, data map[string]interface{}, prof profile.Profile) BehaviorAnalysisResult {
	if m.AnalyzeBehaviorFunc != nil {
		return m.AnalyzeBehaviorFunc(ctx, data, prof)
	}
	return BehaviorAnalysisResult{}
}
