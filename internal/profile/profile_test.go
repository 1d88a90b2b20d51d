package profile

import (
	"strings"
	"testing"

	"go.uber.org/zap"
)

func structuredEntry(p Profile, category, key string) map[string]interface{} {
	cat, ok := p[category].(map[string]interface{})
	if !ok {
		return nil
	}
	entry, _ := cat[key].(map[string]interface{})
	return entry
}

func TestMergeUpdates_NewCategoryAndKey(t *testing.T) {
	p := Profile{}
	merged := MergeUpdates(zap.NewNop(), p, []Update{
		{Field: "interest.golang", Value: "high", Confidence: 0.9},
	})

	entry := structuredEntry(merged, "interest", "golang")
	if entry == nil {
		t.Fatal("expected structured entry for interest.golang")
	}
	if entry["value"] != "high" {
		t.Errorf("expected value 'high', got %v", entry["value"])
	}
	if entry["confidence"] != 0.9 {
		t.Errorf("expected confidence 0.9, got %v", entry["confidence"])
	}
	if entry["updated_at"] == nil || entry["updated_at"] == "" {
		t.Error("expected updated_at to be set")
	}
}

func TestMergeUpdates_LowerConfidenceKeepsExisting(t *testing.T) {
	p := Profile{
		"preference": map[string]interface{}{
			"tone": map[string]interface{}{"value": "formal", "confidence": 0.8, "updated_at": "2026-01-01T00:00:00Z"},
		},
	}
	merged := MergeUpdates(zap.NewNop(), p, []Update{
		{Field: "preference.tone", Value: "casual", Confidence: 0.6},
	})

	entry := structuredEntry(merged, "preference", "tone")
	if entry["value"] != "formal" {
		t.Errorf("lower-confidence update should not overwrite, got %v", entry["value"])
	}
	if entry["confidence"] != 0.8 {
		t.Errorf("expected confidence 0.8 preserved, got %v", entry["confidence"])
	}
}

func TestMergeUpdates_EqualConfidenceKeepsExisting(t *testing.T) {
	p := Profile{
		"preference": map[string]interface{}{
			"tone": map[string]interface{}{"value": "formal", "confidence": 0.8},
		},
	}
	merged := MergeUpdates(zap.NewNop(), p, []Update{
		{Field: "preference.tone", Value: "casual", Confidence: 0.8},
	})

	if entry := structuredEntry(merged, "preference", "tone"); entry["value"] != "formal" {
		t.Errorf("tie should keep existing value, got %v", entry["value"])
	}
}

func TestMergeUpdates_HigherConfidenceOverwrites(t *testing.T) {
	p := Profile{
		"preference": map[string]interface{}{
			"tone": map[string]interface{}{"value": "formal", "confidence": 0.6},
		},
	}
	merged := MergeUpdates(zap.NewNop(), p, []Update{
		{Field: "preference.tone", Value: "casual", Confidence: 0.8},
	})

	entry := structuredEntry(merged, "preference", "tone")
	if entry["value"] != "casual" || entry["confidence"] != 0.8 {
		t.Errorf("higher-confidence update should overwrite, got %+v", entry)
	}
}

func TestMergeUpdates_LegacyScalarAlwaysOverwritten(t *testing.T) {
	p := Profile{
		"preference": map[string]interface{}{
			"tone": "formal",
		},
	}
	merged := MergeUpdates(zap.NewNop(), p, []Update{
		{Field: "preference.tone", Value: "casual", Confidence: 0.1},
	})

	entry := structuredEntry(merged, "preference", "tone")
	if entry == nil {
		t.Fatal("legacy entry should be replaced with a structured one")
	}
	if entry["value"] != "casual" {
		t.Errorf("legacy entry should always be overwritten, got %v", entry["value"])
	}
}

func TestMergeUpdates_MalformedFieldSkipped(t *testing.T) {
	p := Profile{}
	merged := MergeUpdates(zap.NewNop(), p, []Update{
		{Field: "nodot", Value: "x", Confidence: 0.9},
		{Field: "too.many.parts", Value: "y", Confidence: 0.9},
		{Field: ".leading", Value: "z", Confidence: 0.9},
		{Field: "interest.valid", Value: "kept", Confidence: 0.9},
	})

	if len(merged) != 1 {
		t.Errorf("expected only the valid update applied, got %v", merged)
	}
	if entry := structuredEntry(merged, "interest", "valid"); entry == nil || entry["value"] != "kept" {
		t.Errorf("valid update should survive malformed neighbors, got %v", entry)
	}
}

func TestMergeUpdates_DoesNotMutateInput(t *testing.T) {
	p := Profile{
		"interest": map[string]interface{}{
			"golang": map[string]interface{}{"value": "low", "confidence": 0.2},
		},
	}
	MergeUpdates(zap.NewNop(), p, []Update{
		{Field: "interest.golang", Value: "high", Confidence: 0.9},
	})

	if entry := structuredEntry(p, "interest", "golang"); entry["value"] != "low" {
		t.Errorf("input profile was mutated: %v", entry)
	}
}

func TestApplyBehaviorUpdates(t *testing.T) {
	p := Profile{
		"behavior": map[string]interface{}{
			"reading_style": map[string]interface{}{"value": "skimmer", "confidence": 0.9},
		},
	}
	out := ApplyBehaviorUpdates(p, []Update{
		{Field: "behavior.reading_style", Value: "thorough", Confidence: 0.6},
		{Field: "navigation", Value: "linear", Confidence: 0.7},
		{Field: "behavior.too_weak", Value: "x", Confidence: 0.4},
		{Field: "behavior.nil_value", Value: nil, Confidence: 0.9},
	}, 0.8, "deep_reader", "read one article end to end")

	cat := out["behavior"].(map[string]interface{})

	// Behavior entries overwrite regardless of stored confidence.
	entry := cat["reading_style"].(map[string]interface{})
	if entry["value"] != "thorough" {
		t.Errorf("behavior update should overwrite unconditionally, got %v", entry["value"])
	}
	if entry["updated_at"] != nil {
		t.Errorf("behavior entries carry nil updated_at, got %v", entry["updated_at"])
	}

	// Field without the prefix lands under the stripped key as given.
	if _, ok := cat["navigation"].(map[string]interface{}); !ok {
		t.Error("unprefixed field should be written under its own key")
	}

	if _, ok := cat["too_weak"]; ok {
		t.Error("updates below 0.5 confidence must be dropped")
	}
	if _, ok := cat["nil_value"]; ok {
		t.Error("nil-valued updates must be dropped")
	}

	if cat["_engagement_score"] != 0.8 {
		t.Errorf("expected engagement score 0.8, got %v", cat["_engagement_score"])
	}
	if cat["_user_type"] != "deep_reader" {
		t.Errorf("expected user type deep_reader, got %v", cat["_user_type"])
	}
	if cat["_last_analysis"] != "read one article end to end" {
		t.Errorf("expected session summary in _last_analysis, got %v", cat["_last_analysis"])
	}
}

func TestToContext_DemographicConfidenceGate(t *testing.T) {
	p := Profile{
		"demographic": map[string]interface{}{
			"age_range":  map[string]interface{}{"value": "25-34", "confidence": 0.9},
			"occupation": map[string]interface{}{"value": "architect", "confidence": 0.5},
		},
		"interest": map[string]interface{}{
			"topic": map[string]interface{}{"value": "history", "confidence": 0.3},
		},
		"behavior": map[string]interface{}{
			"_engagement_score": 0.8,
		},
	}

	ctx := ToContext(p)
	if !strings.Contains(ctx, "25-34") {
		t.Error("high-confidence demographic field should be rendered")
	}
	if strings.Contains(ctx, "architect") {
		t.Error("low-confidence demographic field should be omitted")
	}
	if !strings.Contains(ctx, "history") {
		t.Error("non-demographic fields render regardless of confidence")
	}
	if strings.Contains(ctx, "_engagement_score") {
		t.Error("internal keys should be omitted")
	}
}

func TestToContext_SectionTitles(t *testing.T) {
	p := Profile{
		"preference": map[string]interface{}{
			"tone": map[string]interface{}{"value": "formal", "confidence": 0.8},
		},
		"custom_category": map[string]interface{}{
			"thing": "raw",
		},
	}
	ctx := ToContext(p)
	if !strings.Contains(ctx, "User Preferences:") {
		t.Errorf("expected section title, got:\n%s", ctx)
	}
	if !strings.Contains(ctx, "tone: formal") {
		t.Errorf("structured entry should render unwrapped value, got:\n%s", ctx)
	}
	if !strings.Contains(ctx, "thing: raw") {
		t.Errorf("unknown categories should still render, got:\n%s", ctx)
	}
}

func TestToContext_Empty(t *testing.T) {
	want := "No user profile available."
	if got := ToContext(nil); got != want {
		t.Errorf("nil profile: got %q", got)
	}
	if got := ToContext(Profile{}); got != want {
		t.Errorf("empty profile: got %q", got)
	}
}
