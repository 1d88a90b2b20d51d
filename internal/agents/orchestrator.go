package agents

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"genui/internal/profile"
)

// Analyzer interfaces stay narrow so the orchestrator can be exercised
// with lightweight fakes. The concrete agents satisfy them directly.

type ResponseAnalyzer interface {
	ProcessQuery(ctx context.Context, query string, prof profile.Profile, history []Message) AgentResponse
}

type ProfileAnalyzer interface {
	AnalyzeMessage(ctx context.Context, message string, history []Message) ProfileAnalysisResult
}

type BehaviorAnalyzer interface {
	AnalyzeBehavior(ctx context.Context, data map[string]interface{}, prof profile.Profile) BehaviorAnalysisResult
}

// Orchestrator fans one user request out to the analyzers and merges
// their outputs into a single result. Parallel and sequential execution
// produce identical values; parallel trades determinism of side effect
// ordering for latency.
type Orchestrator struct {
	response ResponseAnalyzer
	profiler ProfileAnalyzer
	behave   BehaviorAnalyzer
	parallel bool
	logger   *zap.Logger
}

func NewOrchestrator(response ResponseAnalyzer, profiler ProfileAnalyzer, behave BehaviorAnalyzer, parallel bool, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		response: response,
		profiler: profiler,
		behave:   behave,
		parallel: parallel,
		logger:   logger,
	}
}

// Process runs the analyzers for one request. The behavior analyzer runs
// only when behaviorData is non-empty. The only error Process returns is
// context cancellation; analyzer failures degrade inside the agents.
func (o *Orchestrator) Process(ctx context.Context, query string, prof profile.Profile, history []Message, behaviorData map[string]interface{}) (*OrchestratorResult, error) {
	var (
		response        AgentResponse
		profileAnalysis ProfileAnalysisResult
		behaviorResult  *BehaviorAnalysisResult
	)
	runBehavior := len(behaviorData) > 0

	if o.parallel {
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			response = o.response.ProcessQuery(ctx, query, prof, history)
		}()
		go func() {
			defer wg.Done()
			profileAnalysis = o.profiler.AnalyzeMessage(ctx, query, history)
		}()
		if runBehavior {
			wg.Add(1)
			go func() {
				defer wg.Done()
				res := o.behave.AnalyzeBehavior(ctx, behaviorData, prof)
				behaviorResult = &res
			}()
		}
		wg.Wait()
	} else {
		response = o.response.ProcessQuery(ctx, query, prof, history)
		profileAnalysis = o.profiler.AnalyzeMessage(ctx, query, history)
		if runBehavior {
			res := o.behave.AnalyzeBehavior(ctx, behaviorData, prof)
			behaviorResult = &res
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &OrchestratorResult{
		Response:         response,
		ProfileAnalysis:  profileAnalysis,
		BehaviorAnalysis: behaviorResult,
		UpdatedProfile:   o.mergeProfile(prof, profileAnalysis, behaviorResult),
	}

	o.logger.Debug("request processed",
		zap.Bool("parallel", o.parallel),
		zap.Bool("has_profile_info", profileAnalysis.HasProfileInfo),
		zap.Bool("behavior_analyzed", behaviorResult != nil))
	return result, nil
}

// mergeProfile folds qualifying updates into a copy of the input profile.
// The result is nil iff the input profile is nil; otherwise it is always
// a complete profile, identical to the input when nothing qualified.
func (o *Orchestrator) mergeProfile(prof profile.Profile, pa ProfileAnalysisResult, ba *BehaviorAnalysisResult) profile.Profile {
	if prof == nil {
		return nil
	}
	merged := prof.Clone()
	if pa.HasProfileInfo && len(pa.Updates) > 0 {
		merged = profile.MergeUpdates(o.logger, merged, pa.Updates)
	}
	if ba != nil && len(ba.ProfileUpdates) > 0 {
		merged = profile.ApplyBehaviorUpdates(merged, ba.ProfileUpdates, ba.EngagementScore, ba.UserType, ba.SessionSummary)
	}
	return merged
}

// ToFrontendResponse flattens the result into the shape the frontend
// consumes. Behavior-derived updates get a "behavior." field prefix so
// the frontend can store them under the right category; the stored
// result is not modified.
func (r *OrchestratorResult) ToFrontendResponse() FrontendResponse {
	updates := make([]profile.Update, 0, len(r.ProfileAnalysis.Updates))
	updates = append(updates, r.ProfileAnalysis.Updates...)

	behaviorUpdates := 0
	if r.BehaviorAnalysis != nil {
		for _, u := range r.BehaviorAnalysis.ProfileUpdates {
			if !strings.HasPrefix(u.Field, "behavior.") {
				u.Field = "behavior." + u.Field
			}
			updates = append(updates, u)
			behaviorUpdates++
		}
	}

	meta := Meta{
		Confidence:      r.Response.Confidence,
		InteractionType: r.ProfileAnalysis.InteractionType,
		Topics:          r.ProfileAnalysis.Topics,
		Sentiment:       r.ProfileAnalysis.Sentiment,
	}
	if r.BehaviorAnalysis != nil {
		meta.Behavior = &BehaviorMeta{
			EngagementScore: r.BehaviorAnalysis.EngagementScore,
			UserType:        r.BehaviorAnalysis.UserType,
			SessionSummary:  r.BehaviorAnalysis.SessionSummary,
			InsightsCount:   len(r.BehaviorAnalysis.Insights),
			UIAdjustments:   r.BehaviorAnalysis.RecommendedUIAdjustments,
		}
	}

	components := r.Response.Components
	if components == nil {
		components = []Component{}
	}
	sources := r.Response.Sources
	if sources == nil {
		sources = []Source{}
	}
	actions := r.Response.SuggestedActions
	if actions == nil {
		actions = []string{}
	}

	return FrontendResponse{
		Text:             r.Response.TextResponse,
		Components:       components,
		Sources:          sources,
		SuggestedActions: actions,
		ProfileUpdates: ProfileUpdateInstruction{
			ShouldUpdate: r.ProfileAnalysis.HasProfileInfo || behaviorUpdates > 0,
			Updates:      updates,
		},
		Meta: meta,
	}
}
