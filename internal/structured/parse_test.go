package structured

import (
	"testing"
)

func TestParse_DirectJSON(t *testing.T) {
	out := Parse(`{"has_profile_info": true, "confidence": 0.9}`)
	if !out.OK() {
		t.Fatalf("Parse failed: %v", out.Err)
	}
	if out.Method != MethodDirect {
		t.Errorf("Expected method %q, got %q", MethodDirect, out.Method)
	}
	if out.Value["has_profile_info"] != true {
		t.Errorf("Unexpected value: %v", out.Value)
	}
}

func TestParse_FencedJSON(t *testing.T) {
	raw := "Here is the analysis:\n```json\n{\"user_type\": \"explorer\"}\n```\nDone."
	out := Parse(raw)
	if !out.OK() {
		t.Fatalf("Parse failed: %v", out.Err)
	}
	if out.Method != MethodFenced {
		t.Errorf("Expected method %q, got %q", MethodFenced, out.Method)
	}
	if out.Value["user_type"] != "explorer" {
		t.Errorf("Unexpected value: %v", out.Value)
	}
}

func TestParse_BareFence(t *testing.T) {
	raw := "```\n{\"a\": 1}\n```"
	out := Parse(raw)
	if !out.OK() {
		t.Fatalf("Parse failed: %v", out.Err)
	}
	if out.Value["a"] != float64(1) {
		t.Errorf("Unexpected value: %v", out.Value)
	}
}

func TestParse_PrefersJSONFence(t *testing.T) {
	// A ```json fence later in the text wins over an earlier bare fence.
	raw := "```json\n{\"winner\": true}\n```"
	out := Parse(raw)
	if !out.OK() {
		t.Fatalf("Parse failed: %v", out.Err)
	}
	if out.Value["winner"] != true {
		t.Errorf("Unexpected value: %v", out.Value)
	}
}

func TestParse_EmbeddedInProse(t *testing.T) {
	raw := `Sure! Based on the message I extracted: {"field": "demographic.role", "confidence": 0.95} which should help.`
	out := Parse(raw)
	if !out.OK() {
		t.Fatalf("Parse failed: %v", out.Err)
	}
	if out.Method != MethodScan {
		t.Errorf("Expected method %q, got %q", MethodScan, out.Method)
	}
	if out.Value["field"] != "demographic.role" {
		t.Errorf("Unexpected value: %v", out.Value)
	}
}

func TestParse_NestedBracesInStrings(t *testing.T) {
	raw := `{"text_response": "use {curly} braces like }{", "confidence": 1}`
	out := Parse(raw)
	if !out.OK() {
		t.Fatalf("Parse failed: %v", out.Err)
	}
	if out.Value["text_response"] != "use {curly} braces like }{" {
		t.Errorf("Unexpected value: %v", out.Value)
	}
}

func TestParse_RepairTrailingComma(t *testing.T) {
	raw := "```json\n{\"topics\": [\"go\", \"llm\",], \"sentiment\": \"neutral\"}\n```"
	out := Parse(raw)
	if !out.OK() {
		t.Fatalf("Parse failed: %v", out.Err)
	}
	if out.Method != MethodRepair {
		t.Errorf("Expected method %q, got %q", MethodRepair, out.Method)
	}
	if out.Value["sentiment"] != "neutral" {
		t.Errorf("Unexpected value: %v", out.Value)
	}
}

func TestParse_NoJSON(t *testing.T) {
	out := Parse("I could not produce any structured output, sorry.")
	if out.OK() {
		t.Fatalf("Expected failure, got %v via %s", out.Value, out.Method)
	}
	if out.Err == nil || out.Err.Error() == "" {
		t.Error("Expected a descriptive parse error")
	}
}

func TestParse_Empty(t *testing.T) {
	if out := Parse("   \n  "); out.OK() {
		t.Fatal("Expected failure for blank input")
	}
}

func TestFindJSONCandidates_Multiple(t *testing.T) {
	candidates := findJSONCandidates(`first {"a": 1} then {"b": {"c": 2}} end`)
	if len(candidates) != 2 {
		t.Fatalf("Expected 2 candidates, got %d: %v", len(candidates), candidates)
	}
	if candidates[1] != `{"b": {"c": 2}}` {
		t.Errorf("Unexpected second candidate: %q", candidates[1])
	}
}

func TestFindJSONCandidates_EscapedQuotes(t *testing.T) {
	candidates := findJSONCandidates(`{"a": "say \"hi\" {now}"}`)
	if len(candidates) != 1 {
		t.Fatalf("Expected 1 candidate, got %d: %v", len(candidates), candidates)
	}
}
