package agents

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"genui/internal/behavior"
	"genui/internal/cache"
	"genui/internal/llm"
	"genui/internal/profile"
	"genui/internal/structured"
)

// BehaveAgent derives engagement insights from frontend behavior telemetry.
// Empty input and failed analysis both produce the neutral empty result.
type BehaveAgent struct {
	client llm.Client
	cache  *cache.Cache
	logger *zap.Logger
}

func NewBehaveAgent(client llm.Client, c *cache.Cache, logger *zap.Logger) *BehaveAgent {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BehaveAgent{client: client, cache: c, logger: logger}
}

// AnalyzeBehavior runs the full LLM-backed analysis of one session's
// behavior data.
func (a *BehaveAgent) AnalyzeBehavior(ctx context.Context, data map[string]interface{}, prof profile.Profile) BehaviorAnalysisResult {
	if len(data) == 0 {
		return emptyBehaviorResult()
	}

	key := cache.Key("behave.analyze_behavior", data, map[string]interface{}(prof))
	if cached, ok := a.cache.Get(key); ok {
		if res, ok := cached.(BehaviorAnalysisResult); ok {
			return res
		}
	}

	summary := behavior.FromMap(data)
	prompt := a.buildPrompt(summary, prof)

	raw, err := a.client.CompleteWithSystem(ctx, behaviorSystemPrompt, prompt)
	if err != nil {
		a.logger.Error("behavior analysis failed", zap.Error(err))
		return emptyBehaviorResult()
	}

	parsed := map[string]interface{}{}
	if outcome := structured.Parse(raw); outcome.OK() {
		parsed = outcome.Value
	} else {
		a.logger.Warn("behavior analysis was not valid JSON",
			zap.String("reason", outcome.Err.Reason))
	}

	result := BehaviorAnalysisResult{
		Insights:                 decodeInsights(parsed),
		ProfileUpdates:           decodeUpdates(parsed, "profile_updates", 0),
		EngagementScore:          mapFloat(parsed, "engagement_score", 0.5),
		UserType:                 mapString(parsed, "user_type", "casual"),
		SessionSummary:           mapString(parsed, "session_summary", ""),
		RecommendedUIAdjustments: mapSlice(parsed, "recommended_ui_adjustments"),
	}
	if result.RecommendedUIAdjustments == nil {
		result.RecommendedUIAdjustments = []map[string]interface{}{}
	}
	a.cache.Set(key, result)
	return result
}

// QuickAnalyze is the generation-free heuristic path. It is always
// available, including when no LLM client is configured.
func (a *BehaveAgent) QuickAnalyze(data map[string]interface{}) behavior.QuickAnalysis {
	return behavior.QuickAnalyze(behavior.FromMap(data))
}

func (a *BehaveAgent) buildPrompt(summary behavior.Summary, prof profile.Profile) string {
	var b strings.Builder

	if prof != nil {
		b.WriteString("<existing_profile>\n")
		b.WriteString(profile.ToContext(prof))
		b.WriteString("\n</existing_profile>\n\n")
	}

	b.WriteString("<behavior_data>\n")
	b.WriteString(summary.Format())
	b.WriteString("\n</behavior_data>\n\n")
	b.WriteString("Analyze this behavior data and respond with valid JSON.")
	return b.String()
}

func decodeInsights(m map[string]interface{}) []BehaviorInsight {
	items := mapSlice(m, "insights")
	out := make([]BehaviorInsight, 0, len(items))
	for _, item := range items {
		ins := BehaviorInsight{
			Category:   mapString(item, "category", ""),
			Key:        mapString(item, "key", ""),
			Value:      item["value"],
			Confidence: mapFloat(item, "confidence", 0),
			Evidence:   mapString(item, "evidence", ""),
		}
		if ins.Confidence < 0.5 {
			continue
		}
		out = append(out, ins)
	}
	return out
}

func emptyBehaviorResult() BehaviorAnalysisResult {
	return BehaviorAnalysisResult{
		Insights:                 []BehaviorInsight{},
		ProfileUpdates:           []profile.Update{},
		EngagementScore:          0.5,
		UserType:                 "casual",
		SessionSummary:           "Insufficient behavior data for analysis.",
		RecommendedUIAdjustments: []map[string]interface{}{},
	}
}
