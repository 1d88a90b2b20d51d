// Package retrieval defines the search contract the agents consume and the
// prompt-context assembly over search results.
package retrieval

import (
	"context"
	"fmt"
	"strings"
)

// Result is a single similarity search hit.
type Result struct {
	Content  string                 `json:"content"`
	Score    float64                `json:"score"`
	Metadata map[string]interface{} `json:"metadata"`
	ChunkID  string                 `json:"chunk_id"`
}

// Searcher performs semantic search over the indexed knowledge base.
type Searcher interface {
	Search(ctx context.Context, query string, topK int) ([]Result, error)
}

// SourceDocument returns the source document name from a result's metadata,
// or "Unknown" when absent.
func (r Result) SourceDocument() string {
	if s, ok := r.Metadata["source_document"].(string); ok && s != "" {
		return s
	}
	return "Unknown"
}

// BuildContext assembles retrieval results into a context block for
// prompting. maxTokens bounds the output with a rough 4-chars-per-token
// conversion; assembly stops at the first part that would exceed it.
func BuildContext(results []Result, maxTokens int, includeMetadata bool) string {
	if len(results) == 0 {
		return ""
	}
	if maxTokens <= 0 {
		maxTokens = 2000
	}

	maxChars := maxTokens * 4
	currentLength := 0
	var parts []string

	for _, r := range results {
		var part string
		if includeMetadata {
			part = fmt.Sprintf("[Source: %s]\n%s\n", r.SourceDocument(), r.Content)
		} else {
			part = r.Content + "\n"
		}

		if currentLength+len(part) > maxChars {
			break
		}
		parts = append(parts, part)
		currentLength += len(part)
	}

	return strings.Join(parts, "\n---\n")
}
