package agents

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"genui/internal/cache"
	"genui/internal/llm"
	"genui/internal/profile"
	"genui/internal/structured"
)

const (
	// Confidence floor below which extracted updates are discarded.
	minUpdateConfidence = 0.5

	profileContextWindow = 3
	profileContextChars  = 200
	updateSourceChars    = 100
)

// ProfileAgent extracts profile-relevant information from user messages.
// A failed or unparseable analysis yields an empty result, never an error.
type ProfileAgent struct {
	client llm.Client
	cache  *cache.Cache
	logger *zap.Logger
}

func NewProfileAgent(client llm.Client, c *cache.Cache, logger *zap.Logger) *ProfileAgent {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfileAgent{client: client, cache: c, logger: logger}
}

// AnalyzeMessage inspects one user message for profile signals.
func (a *ProfileAgent) AnalyzeMessage(ctx context.Context, message string, history []Message) ProfileAnalysisResult {
	key := cache.Key("profile.analyze_message", message, history)
	if cached, ok := a.cache.Get(key); ok {
		if res, ok := cached.(ProfileAnalysisResult); ok {
			return res
		}
	}

	raw, err := a.client.CompleteWithSystem(ctx, profileSystemPrompt, a.buildPrompt(message, history))
	if err != nil {
		a.logger.Error("profile analysis failed", zap.Error(err))
		return emptyProfileResult()
	}

	outcome := structured.Parse(raw)
	if !outcome.OK() {
		a.logger.Warn("profile analysis was not valid JSON",
			zap.String("reason", outcome.Err.Reason))
		return emptyProfileResult()
	}
	parsed := outcome.Value

	updates := decodeUpdates(parsed, "updates", minUpdateConfidence)
	source := truncate(message, updateSourceChars)
	now := time.Now().UTC().Format(time.RFC3339)
	for i := range updates {
		updates[i].Source = source
		updates[i].Timestamp = now
	}

	result := ProfileAnalysisResult{
		HasProfileInfo:  mapBool(parsed, "has_profile_info", false) && len(updates) > 0,
		Updates:         updates,
		InteractionType: mapString(parsed, "interaction_type", "question"),
		Topics:          mapStringSlice(parsed, "topics"),
		Sentiment:       mapString(parsed, "sentiment", "neutral"),
	}
	if result.Topics == nil {
		result.Topics = []string{}
	}
	a.cache.Set(key, result)
	return result
}

func (a *ProfileAgent) buildPrompt(message string, history []Message) string {
	var b strings.Builder

	if len(history) > 0 {
		recent := history
		if len(recent) > profileContextWindow {
			recent = recent[len(recent)-profileContextWindow:]
		}
		b.WriteString("<conversation_context>\n")
		for _, m := range recent {
			fmt.Fprintf(&b, "%s: %s\n", m.Role, truncate(m.Content, profileContextChars))
		}
		b.WriteString("</conversation_context>\n\n")
	}

	b.WriteString("<message_to_analyze>\n")
	b.WriteString(message)
	b.WriteString("\n</message_to_analyze>\n\n")
	b.WriteString("Analyze this message and respond with valid JSON.")
	return b.String()
}

func emptyProfileResult() ProfileAnalysisResult {
	return ProfileAnalysisResult{
		Updates:         []profile.Update{},
		InteractionType: "question",
		Topics:          []string{},
		Sentiment:       "neutral",
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
