package retrieval

import (
	"strings"
	"testing"
)

func TestBuildContext(t *testing.T) {
	results := []Result{
		{Content: "first chunk", Metadata: map[string]interface{}{"source_document": "guide"}},
		{Content: "second chunk", Metadata: map[string]interface{}{}},
	}

	ctx := BuildContext(results, 2000, true)
	if !strings.Contains(ctx, "[Source: guide]\nfirst chunk") {
		t.Errorf("expected source header, got:\n%s", ctx)
	}
	if !strings.Contains(ctx, "[Source: Unknown]\nsecond chunk") {
		t.Errorf("missing metadata should render Unknown, got:\n%s", ctx)
	}
	if !strings.Contains(ctx, "\n---\n") {
		t.Errorf("parts should be joined with separator, got:\n%s", ctx)
	}
}

func TestBuildContext_NoMetadata(t *testing.T) {
	ctx := BuildContext([]Result{{Content: "plain"}}, 2000, false)
	if strings.Contains(ctx, "[Source:") {
		t.Errorf("metadata headers should be omitted, got:\n%s", ctx)
	}
}

func TestBuildContext_Budget(t *testing.T) {
	long := strings.Repeat("x", 100)
	results := []Result{
		{Content: long},
		{Content: long},
		{Content: long},
	}

	// 25 tokens * 4 chars = 100 chars budget, so only nothing past the
	// first oversized part fits.
	ctx := BuildContext(results, 25, false)
	if strings.Count(ctx, long) != 0 {
		t.Errorf("parts exceeding the budget must be dropped, got %d parts", strings.Count(ctx, long))
	}

	ctx = BuildContext(results, 60, false)
	if strings.Count(ctx, long) != 2 {
		t.Errorf("expected 2 parts within 240-char budget, got %d", strings.Count(ctx, long))
	}
}

func TestBuildContext_Empty(t *testing.T) {
	if got := BuildContext(nil, 2000, true); got != "" {
		t.Errorf("expected empty context, got %q", got)
	}
}
