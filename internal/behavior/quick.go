package behavior

import "strings"

// QuickAnalysis is the output of the rule-based analysis. It is cheap
// enough to serve real-time feedback without a model call.
type QuickAnalysis struct {
	EngagementScore  float64 `json:"engagement_score"`
	UserType         string  `json:"user_type"`
	AttentionPattern string  `json:"attention_pattern,omitempty"`
	Metrics          Metrics `json:"metrics"`
}

// Metrics echoes the raw numbers the analysis was derived from.
type Metrics struct {
	DurationSeconds float64 `json:"duration_seconds"`
	ClickCount      int     `json:"click_count"`
	ScrollDepth     float64 `json:"scroll_depth"`
	PagesVisited    int     `json:"pages_visited"`
}

// QuickAnalyze scores engagement and classifies the user from simple
// thresholds, no model involved.
func QuickAnalyze(s Summary) QuickAnalysis {
	duration := s.Duration / 1000

	engagement := 0.0
	if duration > 30 {
		engagement += 0.2
	}
	if duration > 120 {
		engagement += 0.2
	}
	if s.ClickCount > 5 {
		engagement += 0.2
	}
	if s.MaxScrollDepth > 50 {
		engagement += 0.2
	}
	if s.PagesVisited > 2 {
		engagement += 0.2
	}
	if engagement > 1.0 {
		engagement = 1.0
	}

	userType := "casual"
	switch {
	case s.PagesVisited > 5 && s.ClickCount > 10:
		userType = "explorer"
	case s.MaxScrollDepth > 80 && duration > 60:
		userType = "deep_reader"
	case s.ClickCount > 15 && duration < 60:
		userType = "scanner"
	case s.PagesVisited <= 2 && s.MaxScrollDepth > 50:
		userType = "focused"
	}

	attention := "balanced"
	if len(s.HeatmapZones) > 0 {
		attention = attentionPattern(s.HeatmapZones[0].Zone)
	}

	return QuickAnalysis{
		EngagementScore:  engagement,
		UserType:         userType,
		AttentionPattern: attention,
		Metrics: Metrics{
			DurationSeconds: duration,
			ClickCount:      s.ClickCount,
			ScrollDepth:     s.MaxScrollDepth,
			PagesVisited:    s.PagesVisited,
		},
	}
}

func attentionPattern(topZone string) string {
	switch {
	case strings.Contains(topZone, "top"):
		return "top-focused"
	case strings.Contains(topZone, "middle"):
		return "center-focused"
	case strings.Contains(topZone, "bottom"):
		return "bottom-focused"
	default:
		return "balanced"
	}
}
