// Package profile holds the user profile model and the confidence-based
// merge rules that keep it consistent across analyzer passes.
//
// A profile is a two-level map: category -> key -> entry. Entries written by
// this package are structured maps carrying "value", "confidence" and
// "updated_at". Profiles imported from older clients may still hold bare
// scalar values; those are treated as zero-confidence legacy entries.
package profile

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Profile is a user profile keyed by category then field.
type Profile map[string]interface{}

// Update is a single proposed profile change. Field is "category.key".
type Update struct {
	Field      string      `json:"field"`
	Value      interface{} `json:"value"`
	Confidence float64     `json:"confidence"`
	Source     string      `json:"source,omitempty"`
	Timestamp  string      `json:"timestamp,omitempty"`
}

// Clone returns a deep copy of the profile. Mutating the copy never
// touches the original.
func (p Profile) Clone() Profile {
	if p == nil {
		return nil
	}
	return deepCopyMap(p)
}

func deepCopyMap(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = deepCopyValue(v)
	}
	return out
}

func deepCopyValue(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		return deepCopyMap(val)
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, e := range val {
			out[i] = deepCopyValue(e)
		}
		return out
	default:
		return val
	}
}

// entryConfidence reads the confidence of a structured entry. The second
// return is false for legacy scalar entries.
func entryConfidence(entry interface{}) (float64, bool) {
	m, ok := entry.(map[string]interface{})
	if !ok {
		return 0, false
	}
	switch c := m["confidence"].(type) {
	case float64:
		return c, true
	case int:
		return float64(c), true
	default:
		return 0, true
	}
}

// MergeUpdates applies analyzer updates to a copy of the profile and returns
// it. The receiver profile is never mutated.
//
// Rules per update:
//   - the field must be "category.key"; anything else is skipped with a warning
//   - a new category or key is inserted outright
//   - an existing structured entry is replaced only when the update carries
//     strictly higher confidence
//   - a legacy scalar entry is always replaced
func MergeUpdates(logger *zap.Logger, p Profile, updates []Update) Profile {
	merged := p.Clone()
	if merged == nil {
		merged = Profile{}
	}

	now := time.Now().UTC().Format(time.RFC3339)

	for _, u := range updates {
		parts := strings.SplitN(u.Field, ".", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" || strings.Contains(parts[1], ".") {
			logger.Warn("skipping malformed profile field", zap.String("field", u.Field))
			continue
		}
		category, key := parts[0], parts[1]

		cat, ok := merged[category].(map[string]interface{})
		if !ok {
			cat = map[string]interface{}{}
			merged[category] = cat
		}

		if existing, present := cat[key]; present {
			if existingConf, structured := entryConfidence(existing); structured && u.Confidence <= existingConf {
				continue
			}
		}

		at := u.Timestamp
		if at == "" {
			at = now
		}
		cat[key] = map[string]interface{}{
			"value":      u.Value,
			"confidence": u.Confidence,
			"updated_at": at,
		}
	}

	return merged
}

// ApplyBehaviorUpdates writes behavior analysis results into the profile's
// "behavior" category and returns the updated copy.
//
// Unlike MergeUpdates, qualifying behavior entries overwrite unconditionally:
// behavior observations supersede older ones regardless of stored confidence.
// An update qualifies when its confidence is at least 0.5 and its value is
// non-nil. A leading "behavior." prefix on the field is stripped so entries
// do not nest a redundant category.
func ApplyBehaviorUpdates(p Profile, updates []Update, engagementScore float64, userType, sessionSummary string) Profile {
	out := p.Clone()
	if out == nil {
		out = Profile{}
	}

	cat, ok := out["behavior"].(map[string]interface{})
	if !ok {
		cat = map[string]interface{}{}
		out["behavior"] = cat
	}

	for _, u := range updates {
		if u.Confidence < 0.5 || u.Value == nil {
			continue
		}
		key := strings.TrimPrefix(u.Field, "behavior.")
		if key == "" {
			continue
		}
		cat[key] = map[string]interface{}{
			"value":      u.Value,
			"confidence": u.Confidence,
			"updated_at": nil,
		}
	}

	cat["_engagement_score"] = engagementScore
	cat["_user_type"] = userType
	cat["_last_analysis"] = sessionSummary

	return out
}

// entryValue unwraps a structured entry to its value; legacy entries are
// returned as is.
func entryValue(entry interface{}) interface{} {
	if m, ok := entry.(map[string]interface{}); ok {
		if v, present := m["value"]; present {
			return v
		}
	}
	return entry
}

// contextSections maps profile categories to prompt section titles, in
// render order. Categories outside this list render under a generic title.
var contextSections = []struct {
	category string
	title    string
}{
	{"demographic", "User Demographics"},
	{"interest", "User Interests"},
	{"preference", "User Preferences"},
	{"context", "Current Context"},
	{"behavior", "Observed Behavior"},
}

// ToContext renders the profile as prompt context for the response agent.
// Structured demographic entries are included only above a 0.7 confidence
// floor; low-confidence guesses about a person skew responses worse than
// omitting them. Internal keys (leading underscore) are skipped. Returns
// "No user profile available." for an empty profile.
func ToContext(p Profile) string {
	var parts []string

	rendered := map[string]bool{}
	for _, section := range contextSections {
		rendered[section.category] = true
		if s := renderCategory(p, section.category, section.title); s != "" {
			parts = append(parts, s)
		}
	}

	// Any remaining categories, in stable order.
	var rest []string
	for category := range p {
		if !rendered[category] {
			rest = append(rest, category)
		}
	}
	sort.Strings(rest)
	for _, category := range rest {
		if s := renderCategory(p, category, "Other ("+category+")"); s != "" {
			parts = append(parts, s)
		}
	}

	if len(parts) == 0 {
		return "No user profile available."
	}
	return strings.Join(parts, "\n\n")
}

func renderCategory(p Profile, category, title string) string {
	fields, ok := p[category].(map[string]interface{})
	if !ok || len(fields) == 0 {
		return ""
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var items []string
	for _, key := range keys {
		if strings.HasPrefix(key, "_") {
			continue
		}
		entry := fields[key]
		if category == "demographic" {
			if conf, structured := entryConfidence(entry); structured && conf <= 0.7 {
				continue
			}
		}
		items = append(items, fmt.Sprintf("%s: %v", key, entryValue(entry)))
	}

	if len(items) == 0 {
		return ""
	}
	return title + ":\n- " + strings.Join(items, "\n- ")
}
