package agents

import (
	"testing"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	// go.opencensus.io starts a worker goroutine in package init (pulled in
	// transitively via google.golang.org/genai); goleak documents it as a
	// known false positive.
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))
}
