// Package structured extracts JSON objects from raw LLM output.
//
// Model responses arrive in many textures: bare JSON, JSON inside markdown
// code fences, JSON embedded in prose, or slightly broken JSON. Parse
// normalizes all of these into a single explicit outcome so callers branch
// on a value instead of catching errors.
package structured

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// Parse methods, in decreasing order of trust.
const (
	MethodDirect = "json"   // whole response was a JSON object
	MethodFenced = "fenced" // extracted from a ```json code fence
	MethodScan   = "scan"   // balanced-brace scan over mixed content
	MethodRepair = "repair" // recovered via jsonrepair
)

// Outcome is the explicit result of a parse attempt. Exactly one of Value
// and Err is meaningful: when Err is nil, Value holds the decoded object.
type Outcome struct {
	Value  map[string]interface{}
	Method string
	Err    *ParseError
}

// OK reports whether a JSON object was recovered.
func (o Outcome) OK() bool { return o.Err == nil }

// ParseError describes why no JSON object could be recovered.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("no JSON object found: %s", e.Reason)
}

// Parse extracts the first well-formed JSON object from raw LLM output.
// Fenced ```json blocks are preferred over a brace scan of the full text;
// a repair pass runs last so malformed-but-recognizable JSON still parses.
func Parse(raw string) Outcome {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Outcome{Err: &ParseError{Reason: "empty input"}}
	}

	// 1. The whole response is a JSON object.
	if value, ok := tryUnmarshal(trimmed); ok {
		return Outcome{Value: value, Method: MethodDirect}
	}

	// 2. Markdown code fences, ```json first.
	if fenced := extractFenced(trimmed); fenced != "" {
		if value, ok := tryUnmarshal(fenced); ok {
			return Outcome{Value: value, Method: MethodFenced}
		}
		// A fence was present but its body is broken; repair just the body.
		if value, ok := tryRepair(fenced); ok {
			return Outcome{Value: value, Method: MethodRepair}
		}
	}

	// 3. Scan mixed content for balanced top-level objects.
	for _, candidate := range findJSONCandidates(trimmed) {
		if value, ok := tryUnmarshal(candidate); ok {
			return Outcome{Value: value, Method: MethodScan}
		}
	}

	// 4. Last resort: repair the whole text.
	if value, ok := tryRepair(trimmed); ok {
		return Outcome{Value: value, Method: MethodRepair}
	}

	return Outcome{Err: &ParseError{Reason: "no parseable object in response"}}
}

func tryUnmarshal(s string) (map[string]interface{}, bool) {
	var value map[string]interface{}
	if err := json.Unmarshal([]byte(s), &value); err != nil {
		return nil, false
	}
	return value, true
}

func tryRepair(s string) (map[string]interface{}, bool) {
	fixed, err := jsonrepair.JSONRepair(s)
	if err != nil {
		return nil, false
	}
	return tryUnmarshal(fixed)
}

// extractFenced returns the body of the first markdown code fence,
// preferring a ```json fence over a bare ``` fence.
func extractFenced(s string) string {
	for _, marker := range []string{"```json", "```JSON"} {
		if body := fenceBody(s, marker); body != "" {
			return body
		}
	}
	return fenceBody(s, "```")
}

func fenceBody(s, marker string) string {
	start := strings.Index(s, marker)
	if start < 0 {
		return ""
	}
	start += len(marker)
	end := strings.Index(s[start:], "```")
	if end < 0 {
		// Unterminated fence; take the rest.
		return strings.TrimSpace(s[start:])
	}
	return strings.TrimSpace(s[start : start+end])
}
