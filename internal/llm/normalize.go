package llm

import (
	"fmt"
	"strings"
)

// NormalizeContent flattens the assorted content shapes providers return
// into a plain string. Handled shapes:
//
//   - a plain string
//   - a list of block maps carrying a "text" field
//   - a list of block maps carrying a nested "content" field
//   - a single map carrying a "text" field
//
// Anything else is stringified as a last resort.
func NormalizeContent(content interface{}) string {
	switch v := content.(type) {
	case nil:
		return ""
	case string:
		return v
	case []interface{}:
		var sb strings.Builder
		for _, block := range v {
			m, ok := block.(map[string]interface{})
			if !ok {
				sb.WriteString(fmt.Sprintf("%v", block))
				continue
			}
			if text, ok := m["text"].(string); ok {
				sb.WriteString(text)
				continue
			}
			if nested, ok := m["content"]; ok {
				sb.WriteString(NormalizeContent(nested))
			}
		}
		return sb.String()
	case map[string]interface{}:
		if text, ok := v["text"].(string); ok {
			return text
		}
		return fmt.Sprintf("%v", v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
