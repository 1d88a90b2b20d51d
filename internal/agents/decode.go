package agents

import (
	"genui/internal/profile"
)

// Helpers for pulling typed fields out of the loosely typed maps that
// structured.Parse returns. Missing or wrongly typed fields fall back to
// the caller's default instead of failing the whole response.

func mapString(m map[string]interface{}, key, def string) string {
	if s, ok := m[key].(string); ok {
		return s
	}
	return def
}

func mapBool(m map[string]interface{}, key string, def bool) bool {
	if b, ok := m[key].(bool); ok {
		return b
	}
	return def
}

func mapFloat(m map[string]interface{}, key string, def float64) float64 {
	switch v := m[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return def
	}
}

func mapStringSlice(m map[string]interface{}, key string) []string {
	raw, ok := m[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func mapSlice(m map[string]interface{}, key string) []map[string]interface{} {
	raw, ok := m[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]map[string]interface{}, 0, len(raw))
	for _, v := range raw {
		if item, ok := v.(map[string]interface{}); ok {
			out = append(out, item)
		}
	}
	return out
}

func decodeComponents(m map[string]interface{}, key string) []Component {
	items := mapSlice(m, key)
	out := make([]Component, 0, len(items))
	for _, item := range items {
		c := Component{Type: mapString(item, "type", "text")}
		if data, ok := item["data"].(map[string]interface{}); ok {
			c.Data = data
		} else {
			c.Data = map[string]interface{}{}
		}
		if layout, ok := item["layout"].(map[string]interface{}); ok {
			c.Layout = layout
		}
		out = append(out, c)
	}
	return out
}

func decodeSources(m map[string]interface{}, key string) []Source {
	items := mapSlice(m, key)
	out := make([]Source, 0, len(items))
	for _, item := range items {
		out = append(out, Source{
			Title: mapString(item, "title", ""),
			URL:   mapString(item, "url", ""),
		})
	}
	return out
}

// decodeUpdates turns a raw updates list into profile updates, dropping
// entries below minConfidence. Source and timestamp are stamped by the
// caller when known.
func decodeUpdates(m map[string]interface{}, key string, minConfidence float64) []profile.Update {
	items := mapSlice(m, key)
	out := make([]profile.Update, 0, len(items))
	for _, item := range items {
		u := profile.Update{
			Field:      mapString(item, "field", ""),
			Value:      item["value"],
			Confidence: mapFloat(item, "confidence", 0.5),
		}
		if u.Field == "" || u.Confidence < minConfidence {
			continue
		}
		out = append(out, u)
	}
	return out
}
