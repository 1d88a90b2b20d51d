// Package behavior models the compact session summary the frontend tracker
// ships with each query, and a rule-based quick analysis over it.
package behavior

import (
	"fmt"
	"strings"
)

// HeatmapZone is one zone of the click heatmap, ordered by click count.
type HeatmapZone struct {
	Zone  string `json:"zone"`
	Count int    `json:"count"`
}

// Click is a recorded click target.
type Click struct {
	Target   string `json:"target"`
	TargetID string `json:"targetId"`
}

// Interaction is a recorded element interaction.
type Interaction struct {
	InteractionType string `json:"interactionType"`
	ElementType     string `json:"elementType"`
	ElementID       string `json:"elementId"`
}

// Summary is the session behavior summary. Duration is in milliseconds,
// matching the frontend tracker.
type Summary struct {
	Duration           float64       `json:"duration"`
	ClickCount         int           `json:"clickCount"`
	MaxScrollDepth     float64       `json:"maxScrollDepth"`
	PagesVisited       int           `json:"pagesVisited"`
	HeatmapZones       []HeatmapZone `json:"heatmapZones,omitempty"`
	NavigationPath     []string      `json:"navigationPath,omitempty"`
	RecentClicks       []Click       `json:"recentClicks,omitempty"`
	RecentInteractions []Interaction `json:"recentInteractions,omitempty"`
}

func asFloat(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return 0
	}
}

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}

// FromMap decodes a raw behavior payload, tolerating missing or oddly
// typed fields. JSON numbers arrive as float64.
func FromMap(data map[string]interface{}) Summary {
	s := Summary{
		Duration:       asFloat(data["duration"]),
		ClickCount:     int(asFloat(data["clickCount"])),
		MaxScrollDepth: asFloat(data["maxScrollDepth"]),
		PagesVisited:   int(asFloat(data["pagesVisited"])),
	}

	if zones, ok := data["heatmapZones"].([]interface{}); ok {
		for _, z := range zones {
			if m, ok := z.(map[string]interface{}); ok {
				s.HeatmapZones = append(s.HeatmapZones, HeatmapZone{
					Zone:  asString(m["zone"]),
					Count: int(asFloat(m["count"])),
				})
			}
		}
	}
	if path, ok := data["navigationPath"].([]interface{}); ok {
		for _, p := range path {
			if page := asString(p); page != "" {
				s.NavigationPath = append(s.NavigationPath, page)
			}
		}
	}
	if clicks, ok := data["recentClicks"].([]interface{}); ok {
		for _, c := range clicks {
			if m, ok := c.(map[string]interface{}); ok {
				s.RecentClicks = append(s.RecentClicks, Click{
					Target:   asString(m["target"]),
					TargetID: asString(m["targetId"]),
				})
			}
		}
	}
	if inters, ok := data["recentInteractions"].([]interface{}); ok {
		for _, i := range inters {
			if m, ok := i.(map[string]interface{}); ok {
				s.RecentInteractions = append(s.RecentInteractions, Interaction{
					InteractionType: asString(m["interactionType"]),
					ElementType:     asString(m["elementType"]),
					ElementID:       asString(m["elementId"]),
				})
			}
		}
	}
	return s
}

// Format renders the summary as prompt context.
func (s Summary) Format() string {
	var lines []string

	lines = append(lines, fmt.Sprintf("Session Duration: %.1f seconds", s.Duration/1000))
	lines = append(lines, fmt.Sprintf("Total Clicks: %d", s.ClickCount))
	lines = append(lines, fmt.Sprintf("Max Scroll Depth: %.0f%%", s.MaxScrollDepth))
	lines = append(lines, fmt.Sprintf("Pages Visited: %d", s.PagesVisited))

	if len(s.HeatmapZones) > 0 {
		lines = append(lines, "", "Click Heatmap Distribution:")
		zones := s.HeatmapZones
		if len(zones) > 5 {
			zones = zones[:5]
		}
		for _, z := range zones {
			lines = append(lines, fmt.Sprintf("  - %s: %d clicks", z.Zone, z.Count))
		}
	}

	if len(s.NavigationPath) > 0 {
		path := s.NavigationPath
		if len(path) > 10 {
			path = path[len(path)-10:]
		}
		lines = append(lines, "", fmt.Sprintf("Navigation Path: %s", strings.Join(path, " -> ")))
	}

	if len(s.RecentClicks) > 0 {
		lines = append(lines, "", "Recent Click Targets:")
		clicks := s.RecentClicks
		if len(clicks) > 5 {
			clicks = clicks[len(clicks)-5:]
		}
		for _, c := range clicks {
			line := "  - " + c.Target
			if c.TargetID != "" {
				line += "#" + c.TargetID
			}
			lines = append(lines, line)
		}
	}

	if len(s.RecentInteractions) > 0 {
		lines = append(lines, "", "Element Interactions:")
		inters := s.RecentInteractions
		if len(inters) > 10 {
			inters = inters[len(inters)-10:]
		}
		for _, i := range inters {
			it := i.InteractionType
			if it == "" {
				it = "unknown"
			}
			et := i.ElementType
			if et == "" {
				et = "unknown"
			}
			id := i.ElementID
			if id == "" {
				id = "no-id"
			}
			lines = append(lines, fmt.Sprintf("  - %s on %s (%s)", it, et, id))
		}
	}

	return strings.Join(lines, "\n")
}
