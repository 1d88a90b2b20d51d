// Package agents implements the analyzer agents behind the generative UI
// service and the orchestrator that coordinates them. Each agent turns one
// slice of the request (query, message, behavior telemetry, zone config)
// into structured output, and none of them propagates a failure: every
// error degrades to a usable fallback result at the agent boundary.
package agents

import (
	"genui/internal/profile"
)

// Component is a structured UI component for frontend rendering.
type Component struct {
	Type   string                 `json:"type"`
	Data   map[string]interface{} `json:"data"`
	Layout map[string]interface{} `json:"layout,omitempty"`
}

// Source is a document reference backing a response.
type Source struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Message is a single conversation message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// AgentResponse is the structured answer from the response agent.
type AgentResponse struct {
	TextResponse     string      `json:"text_response"`
	Components       []Component `json:"components"`
	Sources          []Source    `json:"sources"`
	Confidence       float64     `json:"confidence"`
	SuggestedActions []string    `json:"suggested_actions"`
}

// ProfileAnalysisResult is the profile agent's read of one user message.
type ProfileAnalysisResult struct {
	HasProfileInfo  bool             `json:"has_profile_info"`
	Updates         []profile.Update `json:"updates"`
	InteractionType string           `json:"interaction_type"`
	Topics          []string         `json:"topics"`
	Sentiment       string           `json:"sentiment"`
}

// BehaviorInsight is a single insight derived from behavior analysis.
type BehaviorInsight struct {
	Category   string      `json:"category"`
	Key        string      `json:"key"`
	Value      interface{} `json:"value"`
	Confidence float64     `json:"confidence"`
	Evidence   string      `json:"evidence"`
}

// BehaviorAnalysisResult is the behavior agent's output for one session.
type BehaviorAnalysisResult struct {
	Insights                 []BehaviorInsight        `json:"insights"`
	ProfileUpdates           []profile.Update         `json:"profile_updates"`
	EngagementScore          float64                  `json:"engagement_score"`
	UserType                 string                   `json:"user_type"`
	SessionSummary           string                   `json:"session_summary"`
	RecommendedUIAdjustments []map[string]interface{} `json:"recommended_ui_adjustments"`
}

// OrchestratorResult aggregates the analyzer outputs for one request.
// BehaviorAnalysis is nil when no behavior data was supplied.
// UpdatedProfile is nil iff no input profile was supplied; otherwise it is
// a complete profile, identical to the input when no updates qualified.
type OrchestratorResult struct {
	Response         AgentResponse           `json:"response"`
	ProfileAnalysis  ProfileAnalysisResult   `json:"profile_analysis"`
	BehaviorAnalysis *BehaviorAnalysisResult `json:"behavior_analysis,omitempty"`
	UpdatedProfile   profile.Profile         `json:"updated_profile"`
}

// ProfileUpdateInstruction tells the frontend whether and how to update
// its stored profile.
type ProfileUpdateInstruction struct {
	ShouldUpdate bool             `json:"should_update"`
	Updates      []profile.Update `json:"updates"`
}

// BehaviorMeta summarizes behavior analysis for the frontend.
type BehaviorMeta struct {
	EngagementScore float64                  `json:"engagement_score"`
	UserType        string                   `json:"user_type"`
	SessionSummary  string                   `json:"session_summary"`
	InsightsCount   int                      `json:"insights_count"`
	UIAdjustments   []map[string]interface{} `json:"ui_adjustments"`
}

// Meta carries response metadata.
type Meta struct {
	Confidence      float64       `json:"confidence"`
	InteractionType string        `json:"interaction_type"`
	Topics          []string      `json:"topics"`
	Sentiment       string        `json:"sentiment"`
	Behavior        *BehaviorMeta `json:"behavior,omitempty"`
}

// FrontendResponse is the shape the frontend consumes.
type FrontendResponse struct {
	Text             string                   `json:"text"`
	Components       []Component              `json:"components"`
	Sources          []Source                 `json:"sources"`
	SuggestedActions []string                 `json:"suggested_actions"`
	ProfileUpdates   ProfileUpdateInstruction `json:"profile_updates"`
	Meta             Meta                     `json:"meta"`
}
