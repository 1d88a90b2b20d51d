package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"genui/internal/behavior"
	"genui/internal/llm"
	"genui/internal/profile"
	"genui/internal/retrieval"
	"genui/internal/structured"
)

const (
	zoneSearchTopK      = 10
	zoneContextTokens   = 1500
	zoneSearchQueryCap  = 5
	zoneFallbackColumns = 3
)

// PinnedContent is an item a zone must always surface.
type PinnedContent struct {
	Type        string                 `json:"type,omitempty"`
	ID          string                 `json:"id,omitempty"`
	URL         string                 `json:"url,omitempty"`
	Title       string                 `json:"title,omitempty"`
	Description string                 `json:"description,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// Identifier returns the stable identifier used to verify pinned
// inclusion. URL wins over ID, ID over title.
func (p PinnedContent) Identifier() string {
	if p.URL != "" {
		return p.URL
	}
	if p.ID != "" {
		return p.ID
	}
	return p.Title
}

// ZoneRenderRequest carries everything needed to render one zone.
type ZoneRenderRequest struct {
	ZoneID                 string                 `json:"zone_id"`
	BasePrompt             string                 `json:"base_prompt"`
	ContextPrompt          string                 `json:"context_prompt,omitempty"`
	PinnedContent          []PinnedContent        `json:"pinned_content,omitempty"`
	PreferredComponentType string                 `json:"preferred_component_type,omitempty"`
	MaxItems               int                    `json:"max_items,omitempty"`
	UserProfile            profile.Profile        `json:"user_profile,omitempty"`
	BehaviorData           map[string]interface{} `json:"behavior_data,omitempty"`
	CurrentPage            string                 `json:"current_page,omitempty"`
	PageMetadata           map[string]interface{} `json:"page_metadata,omitempty"`
}

// ZoneRenderResult is the rendered content for one zone.
type ZoneRenderResult struct {
	Components             []Component `json:"components"`
	PinnedContentIncluded  []string    `json:"pinned_content_included"`
	PersonalizationApplied bool        `json:"personalization_applied"`
	Confidence             float64     `json:"confidence"`
	Reasoning              string      `json:"reasoning"`
	ProfileFactorsUsed     []string    `json:"profile_factors_used"`
}

// ZoneAgent curates personalized content for developer-defined page zones.
// Rendering never fails: any error falls back to a pinned-content-only
// render.
type ZoneAgent struct {
	client llm.Client
	search retrieval.Searcher
	logger *zap.Logger
}

func NewZoneAgent(client llm.Client, search retrieval.Searcher, logger *zap.Logger) *ZoneAgent {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZoneAgent{client: client, search: search, logger: logger}
}

// RenderZone produces the components for one zone. Every pinned item's
// identifier is guaranteed to appear in PinnedContentIncluded, on both
// the success and the fallback path.
func (a *ZoneAgent) RenderZone(ctx context.Context, req ZoneRenderRequest) ZoneRenderResult {
	prompt := a.buildZonePrompt(ctx, req)

	raw, err := a.client.CompleteWithSystem(ctx, zoneSystemPrompt, prompt)
	if err != nil {
		a.logger.Error("zone rendering failed",
			zap.String("zone_id", req.ZoneID), zap.Error(err))
		return a.fallbackRender(req)
	}

	outcome := structured.Parse(raw)
	if !outcome.OK() {
		a.logger.Warn("zone response was not valid JSON",
			zap.String("zone_id", req.ZoneID),
			zap.String("reason", outcome.Err.Reason))
		return a.fallbackRender(req)
	}
	parsed := outcome.Value

	result := ZoneRenderResult{
		Components:             decodeComponents(parsed, "components"),
		PinnedContentIncluded:  mapStringSlice(parsed, "pinned_included"),
		PersonalizationApplied: mapBool(parsed, "personalization_applied", false),
		Confidence:             mapFloat(parsed, "confidence", 0.5),
		Reasoning:              mapString(parsed, "reasoning", ""),
		ProfileFactorsUsed:     mapStringSlice(parsed, "profile_factors"),
	}
	if result.PinnedContentIncluded == nil {
		result.PinnedContentIncluded = []string{}
	}
	if result.ProfileFactorsUsed == nil {
		result.ProfileFactorsUsed = []string{}
	}
	result.PinnedContentIncluded = ensurePinned(result.PinnedContentIncluded, req.PinnedContent)
	return result
}

// ensurePinned appends any pinned identifier the model omitted.
func ensurePinned(included []string, pinned []PinnedContent) []string {
	have := make(map[string]bool, len(included))
	for _, id := range included {
		have[id] = true
	}
	for _, p := range pinned {
		id := p.Identifier()
		if id != "" && !have[id] {
			included = append(included, id)
			have[id] = true
		}
	}
	return included
}

func (a *ZoneAgent) buildZonePrompt(ctx context.Context, req ZoneRenderRequest) string {
	var sections []string

	var info strings.Builder
	info.WriteString("<zone_info>\n")
	fmt.Fprintf(&info, "Zone ID: %s\n", req.ZoneID)
	page := req.CurrentPage
	if page == "" {
		page = "unknown"
	}
	fmt.Fprintf(&info, "Page: %s\n", page)
	if len(req.PageMetadata) > 0 {
		if meta, err := json.Marshal(req.PageMetadata); err == nil {
			fmt.Fprintf(&info, "Page Context: %s\n", meta)
		}
	}
	info.WriteString("</zone_info>")
	sections = append(sections, info.String())

	var purpose strings.Builder
	purpose.WriteString("<zone_purpose>\n")
	fmt.Fprintf(&purpose, "Base Purpose: %s\n", req.BasePrompt)
	if req.ContextPrompt != "" {
		fmt.Fprintf(&purpose, "Developer Context: %s\n", req.ContextPrompt)
	}
	purpose.WriteString("</zone_purpose>")
	sections = append(sections, purpose.String())

	var constraints strings.Builder
	constraints.WriteString("<constraints>\n")
	fmt.Fprintf(&constraints, "Max Items: %d\n", req.MaxItems)
	if req.PreferredComponentType != "" {
		fmt.Fprintf(&constraints, "REQUIRED Component Type: %s\n", req.PreferredComponentType)
	}
	constraints.WriteString("</constraints>")
	sections = append(sections, constraints.String())

	if len(req.PinnedContent) > 0 {
		var pinned strings.Builder
		pinned.WriteString("<pinned_content>\n")
		pinned.WriteString("The following content MUST be included in your response:\n")
		for i, item := range req.PinnedContent {
			ref := item.URL
			if ref == "" {
				ref = item.ID
			}
			fmt.Fprintf(&pinned, "%d. Type: %s, Title: %s, URL/ID: %s\n", i+1, item.Type, item.Title, ref)
			if item.Description != "" {
				fmt.Fprintf(&pinned, "   Description: %s\n", item.Description)
			}
		}
		pinned.WriteString("</pinned_content>")
		sections = append(sections, pinned.String())
	}

	if req.UserProfile != nil {
		sections = append(sections, "<user_profile>\n"+summarizeProfileForZone(req.UserProfile)+"\n</user_profile>")
	}

	if summary := summarizeBehaviorForZone(req.BehaviorData); summary != "" {
		sections = append(sections, "<user_behavior>\n"+summary+"\n</user_behavior>")
	}

	if query := buildSearchQuery(req); query != "" && a.search != nil {
		results, err := a.search.Search(ctx, query, zoneSearchTopK)
		if err != nil {
			a.logger.Warn("zone content search failed", zap.Error(err))
		} else if len(results) > 0 {
			content := retrieval.BuildContext(results, zoneContextTokens, false)
			sections = append(sections, "<available_content>\n"+content+"\n</available_content>")
		}
	}

	sections = append(sections,
		"Generate the zone content as valid JSON matching the specified structure.\n"+
			"Remember: ALL pinned content MUST be included, and respect the component type constraint if specified.")
	return strings.Join(sections, "\n\n")
}

// buildSearchQuery combines the zone's purpose with the user's top
// interests into a knowledge base query.
func buildSearchQuery(req ZoneRenderRequest) string {
	parts := []string{req.BasePrompt}
	if req.ContextPrompt != "" {
		parts = append(parts, req.ContextPrompt)
	}

	if req.UserProfile != nil {
		if interests, ok := req.UserProfile["interests"].(map[string]interface{}); ok {
			keys := sortedKeys(interests)
			if len(keys) > 3 {
				keys = keys[:3]
			}
			for _, k := range keys {
				parts = append(parts, fmt.Sprint(zoneEntryValue(interests[k])))
			}
		}
		if prefs, ok := req.UserProfile["preferences"].(map[string]interface{}); ok {
			if role, ok := prefs["role"].(map[string]interface{}); ok {
				if v, ok := role["value"]; ok {
					parts = append(parts, fmt.Sprintf("content for %v", v))
				}
			}
		}
	}

	if len(parts) > zoneSearchQueryCap {
		parts = parts[:zoneSearchQueryCap]
	}
	return strings.Join(parts, " ")
}

func summarizeProfileForZone(prof profile.Profile) string {
	var parts []string

	if items := zoneCategoryPairs(prof, "preferences", 5, true); len(items) > 0 {
		parts = append(parts, "Preferences: "+strings.Join(items, ", "))
	}
	if items := zoneCategoryPairs(prof, "interests", 5, false); len(items) > 0 {
		parts = append(parts, "Interests: "+strings.Join(items, ", "))
	}
	if items := zoneCategoryPairs(prof, "demographic", 3, true); len(items) > 0 {
		parts = append(parts, "Demographics: "+strings.Join(items, ", "))
	}
	if beh, ok := prof["behavior"].(map[string]interface{}); ok {
		if ut, ok := beh["_user_type"].(string); ok && ut != "" {
			parts = append(parts, "User Type: "+ut)
		}
	}

	if len(parts) == 0 {
		return "No profile data available."
	}
	return strings.Join(parts, "\n")
}

// zoneCategoryPairs flattens up to limit entries of a profile category.
// withKeys prefixes each value with its key.
func zoneCategoryPairs(prof profile.Profile, category string, limit int, withKeys bool) []string {
	m, ok := prof[category].(map[string]interface{})
	if !ok {
		return nil
	}
	keys := sortedKeys(m)
	if len(keys) > limit {
		keys = keys[:limit]
	}
	var items []string
	for _, k := range keys {
		v := zoneEntryValue(m[k])
		if withKeys {
			items = append(items, fmt.Sprintf("%s: %v", k, v))
		} else {
			items = append(items, fmt.Sprint(v))
		}
	}
	return items
}

func zoneEntryValue(v interface{}) interface{} {
	if entry, ok := v.(map[string]interface{}); ok {
		if inner, ok := entry["value"]; ok {
			return inner
		}
	}
	return v
}

func summarizeBehaviorForZone(data map[string]interface{}) string {
	if len(data) == 0 {
		return ""
	}
	summary := behavior.FromMap(data)
	var parts []string

	if ut, ok := data["userType"].(string); ok && ut != "" {
		parts = append(parts, "Browsing Style: "+ut)
	}
	if summary.MaxScrollDepth > 80 {
		parts = append(parts, "Reads content thoroughly")
	} else if summary.MaxScrollDepth > 0 && summary.MaxScrollDepth < 30 {
		parts = append(parts, "Quick scanner, prefers concise content")
	}
	if n := len(summary.NavigationPath); n > 0 {
		recent := summary.NavigationPath
		if n > 3 {
			recent = recent[n-3:]
		}
		parts = append(parts, "Recent pages: "+strings.Join(recent, ", "))
	}
	return strings.Join(parts, "\n")
}

func (a *ZoneAgent) fallbackRender(req ZoneRenderRequest) ZoneRenderResult {
	cards := make([]map[string]interface{}, 0, len(req.PinnedContent))
	pinnedIDs := make([]string, 0, len(req.PinnedContent))
	for _, item := range req.PinnedContent {
		title := item.Title
		if title == "" {
			title = "Untitled"
		}
		cards = append(cards, map[string]interface{}{
			"title":       title,
			"description": item.Description,
			"link":        item.URL,
		})
		if id := item.Identifier(); id != "" {
			pinnedIDs = append(pinnedIDs, id)
		}
	}

	componentType := req.PreferredComponentType
	if componentType == "" {
		componentType = "bento"
	}

	components := []Component{}
	if componentType == "bento" && len(cards) > 0 {
		columns := len(cards)
		if columns > zoneFallbackColumns {
			columns = zoneFallbackColumns
		}
		components = append(components, Component{
			Type: "bento",
			Data: map[string]interface{}{
				"cards":   cards,
				"columns": columns,
			},
		})
	}

	return ZoneRenderResult{
		Components:             components,
		PinnedContentIncluded:  pinnedIDs,
		PersonalizationApplied: false,
		Confidence:             0.3,
		Reasoning:              "Fallback render with only pinned content due to processing error",
		ProfileFactorsUsed:     []string{},
	}
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
