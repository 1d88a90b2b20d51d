package agents

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"genui/internal/cache"
	"genui/internal/llm"
	"genui/internal/profile"
	"genui/internal/retrieval"
	"genui/internal/structured"
)

// Token budget for retrieved document context.
const contextMaxTokens = 2000

// ResponseAgent answers user queries with RAG context and profile-aware
// personalization. It never returns an error: retrieval failures shrink
// the context, generation failures produce a fallback response, and parse
// failures degrade to the raw model text.
type ResponseAgent struct {
	client        llm.Client
	search        retrieval.Searcher
	cache         *cache.Cache
	topK          int
	historyWindow int
	logger        *zap.Logger
}

// NewResponseAgent builds a response agent. search may be nil when no
// document store is configured; cache may be nil to disable caching.
func NewResponseAgent(client llm.Client, search retrieval.Searcher, c *cache.Cache, topK, historyWindow int, logger *zap.Logger) *ResponseAgent {
	if topK <= 0 {
		topK = 5
	}
	if historyWindow <= 0 {
		historyWindow = 5
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResponseAgent{client: client, search: search, cache: c, topK: topK, historyWindow: historyWindow, logger: logger}
}

// ProcessQuery answers one user query.
func (a *ResponseAgent) ProcessQuery(ctx context.Context, query string, prof profile.Profile, history []Message) AgentResponse {
	key := cache.Key("response.process_query", query, map[string]interface{}(prof), history)
	if cached, ok := a.cache.Get(key); ok {
		if resp, ok := cached.(AgentResponse); ok {
			a.logger.Debug("response cache hit", zap.String("query", query))
			return resp
		}
	}

	results := a.retrieve(ctx, query)
	prompt := a.buildPrompt(query, prof, history, retrieval.BuildContext(results, contextMaxTokens, true))

	raw, err := a.client.CompleteWithSystem(ctx, responseSystemPrompt, prompt)
	if err != nil {
		a.logger.Error("response generation failed", zap.Error(err))
		return a.fallbackResponse(err)
	}

	resp := a.parseResponse(raw, results)
	a.cache.Set(key, resp)
	return resp
}

func (a *ResponseAgent) retrieve(ctx context.Context, query string) []retrieval.Result {
	if a.search == nil {
		return nil
	}
	results, err := a.search.Search(ctx, query, a.topK)
	if err != nil {
		a.logger.Warn("document retrieval failed, continuing without context", zap.Error(err))
		return nil
	}
	return results
}

func (a *ResponseAgent) buildPrompt(query string, prof profile.Profile, history []Message, retrieved string) string {
	var b strings.Builder

	if prof != nil {
		b.WriteString("<user_profile>\n")
		b.WriteString(profile.ToContext(prof))
		b.WriteString("\n</user_profile>\n\n")
	}

	if len(history) > 0 {
		recent := history
		if len(recent) > a.historyWindow {
			recent = recent[len(recent)-a.historyWindow:]
		}
		b.WriteString("<conversation_history>\n")
		for _, m := range recent {
			fmt.Fprintf(&b, "%s: %s\n", m.Role, m.Content)
		}
		b.WriteString("</conversation_history>\n\n")
	}

	if retrieved != "" {
		b.WriteString("<retrieved_documents>\n")
		b.WriteString(retrieved)
		b.WriteString("\n</retrieved_documents>\n\n")
	}

	b.WriteString("<user_query>\n")
	b.WriteString(query)
	b.WriteString("\n</user_query>\n\n")
	b.WriteString("Respond with valid JSON following the required structure.")
	return b.String()
}

func (a *ResponseAgent) parseResponse(raw string, results []retrieval.Result) AgentResponse {
	outcome := structured.Parse(raw)
	if !outcome.OK() {
		a.logger.Warn("response was not valid JSON, using raw text",
			zap.String("reason", outcome.Err.Reason))
		return AgentResponse{
			TextResponse:     raw,
			Components:       []Component{},
			Sources:          []Source{},
			Confidence:       0.5,
			SuggestedActions: []string{},
		}
	}
	parsed := outcome.Value

	resp := AgentResponse{
		TextResponse:     mapString(parsed, "text_response", raw),
		Components:       decodeComponents(parsed, "components"),
		Sources:          decodeSources(parsed, "sources"),
		Confidence:       mapFloat(parsed, "confidence", 0.5),
		SuggestedActions: mapStringSlice(parsed, "suggested_actions"),
	}
	if resp.SuggestedActions == nil {
		resp.SuggestedActions = []string{}
	}
	if len(resp.Sources) == 0 {
		resp.Sources = defaultSources(results)
	}
	return resp
}

// defaultSources derives sources from retrieval metadata when the model
// did not cite any.
func defaultSources(results []retrieval.Result) []Source {
	seen := make(map[string]bool)
	sources := []Source{}
	for _, r := range results {
		title := r.SourceDocument()
		if seen[title] {
			continue
		}
		seen[title] = true
		url, _ := r.Metadata["url"].(string)
		sources = append(sources, Source{Title: title, URL: url})
	}
	return sources
}

func (a *ResponseAgent) fallbackResponse(err error) AgentResponse {
	return AgentResponse{
		TextResponse: fmt.Sprintf("I encountered an issue processing your request: %v", err),
		Components: []Component{
			{
				Type: "text",
				Data: map[string]interface{}{
					"content": "Please try rephrasing your question.",
					"style":   "note",
				},
			},
		},
		Sources:          []Source{},
		Confidence:       0.0,
		SuggestedActions: []string{"Rephrase question", "Contact support"},
	}
}
