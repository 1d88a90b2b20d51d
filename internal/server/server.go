// Package server exposes the orchestrator, document pipeline, and zone
// renderer over HTTP. The surface mirrors what the frontend consumes:
// query processing, document management, profile sync, and zone
// rendering.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"genui/internal/agents"
	"genui/internal/chunker"
	"genui/internal/profile"
	"genui/internal/zones"
)

const version = "1.0.0"

// Documents above this size are indexed in the background.
const syncIndexLimit = 10000

// Orchestrating is the request-processing dependency.
type Orchestrating interface {
	Process(ctx context.Context, query string, prof profile.Profile, history []agents.Message, behaviorData map[string]interface{}) (*agents.OrchestratorResult, error)
}

// ZoneRendering renders one zone.
type ZoneRendering interface {
	RenderZone(ctx context.Context, req agents.ZoneRenderRequest) agents.ZoneRenderResult
}

// DocumentStore is the indexing and stats surface of the vector store.
type DocumentStore interface {
	IndexChunks(ctx context.Context, chunks []chunker.Chunk) (int, error)
	DeleteBySource(source string) (int64, error)
	Stats() map[string]interface{}
}

// Chunking splits document text for indexing.
type Chunking interface {
	ChunkText(ctx context.Context, text string, metadata map[string]interface{}, sourceName string) []chunker.Chunk
}

// Server wires the handlers together. All dependencies are injected;
// any of store, chunks, zoneAgent, registry may be nil and the matching
// endpoints degrade or report errors.
type Server struct {
	orchestrator Orchestrating
	zoneAgent    ZoneRendering
	registry     *zones.Registry
	store        DocumentStore
	chunks       Chunking
	corsOrigins  []string
	logger       *zap.Logger

	bg sync.WaitGroup
}

func New(orchestrator Orchestrating, zoneAgent ZoneRendering, registry *zones.Registry, store DocumentStore, chunks Chunking, corsOrigins []string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		orchestrator: orchestrator,
		zoneAgent:    zoneAgent,
		registry:     registry,
		store:        store,
		chunks:       chunks,
		corsOrigins:  corsOrigins,
		logger:       logger,
	}
}

// Router builds the HTTP handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.cors)

	r.Get("/health", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/query", s.handleQuery)
		r.Post("/documents", s.handleUploadDocument)
		r.Delete("/documents/{source}", s.handleDeleteDocument)
		r.Get("/documents/stats", s.handleDocumentStats)
		r.Post("/profile/sync", s.handleProfileSync)
		r.Post("/zone/render", s.handleZoneRender)
		r.Post("/zone/batch-render", s.handleZoneBatchRender)
	})
	return r
}

// Wait blocks until background document indexing finishes. Used during
// shutdown and by tests.
func (s *Server) Wait() {
	s.bg.Wait()
}

func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && s.originAllowed(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) originAllowed(origin string) bool {
	for _, allowed := range s.corsOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	connected := s.store != nil
	var stats map[string]interface{}
	if connected {
		stats = s.store.Stats()
	} else {
		status = "degraded"
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":           status,
		"version":          version,
		"store_connected":  connected,
		"collection_stats": stats,
	})
}

type queryRequest struct {
	Query               string                 `json:"query"`
	UserProfile         map[string]interface{} `json:"user_profile"`
	ConversationHistory []agents.Message       `json:"conversation_history"`
	BehaviorData        map[string]interface{} `json:"behavior_data"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Query == "" {
		respondError(w, http.StatusBadRequest, "query must not be empty")
		return
	}

	result, err := s.orchestrator.Process(r.Context(), req.Query, profile.Profile(req.UserProfile), req.ConversationHistory, req.BehaviorData)
	if err != nil {
		s.logger.Error("query processing failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, result.ToFrontendResponse())
}

type documentUploadRequest struct {
	Content  string                 `json:"content"`
	Metadata map[string]interface{} `json:"metadata"`
}

func (s *Server) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	if s.store == nil || s.chunks == nil {
		respondError(w, http.StatusServiceUnavailable, "document store not configured")
		return
	}
	var req documentUploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Content == "" {
		respondError(w, http.StatusBadRequest, "content must not be empty")
		return
	}
	if req.Metadata == nil {
		req.Metadata = map[string]interface{}{}
	}
	sourceName := "uploaded_document"
	if title, ok := req.Metadata["title"].(string); ok && title != "" {
		sourceName = title
	}

	if len(req.Content) < syncIndexLimit {
		docChunks := s.chunks.ChunkText(r.Context(), req.Content, req.Metadata, sourceName)
		indexed, err := s.store.IndexChunks(r.Context(), docChunks)
		if err != nil {
			s.logger.Error("document indexing failed", zap.Error(err))
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"status":         "completed",
			"chunks_created": len(docChunks),
			"chunks_indexed": indexed,
		})
		return
	}

	s.bg.Add(1)
	go func() {
		defer s.bg.Done()
		// Detached from the request context so indexing survives the
		// client disconnecting.
		ctx := context.Background()
		docChunks := s.chunks.ChunkText(ctx, req.Content, req.Metadata, sourceName)
		indexed, err := s.store.IndexChunks(ctx, docChunks)
		if err != nil {
			s.logger.Error("background document indexing failed", zap.Error(err))
			return
		}
		s.logger.Info("background document indexing completed",
			zap.String("source", sourceName), zap.Int("chunks", indexed))
	}()
	respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"status":  "processing",
		"message": "Document queued for background processing",
	})
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		respondError(w, http.StatusServiceUnavailable, "document store not configured")
		return
	}
	source := chi.URLParam(r, "source")
	deleted, err := s.store.DeleteBySource(source)
	if err != nil {
		s.logger.Error("document deletion failed", zap.String("source", source), zap.Error(err))
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":         "deleted",
		"source":         source,
		"chunks_deleted": deleted,
	})
}

func (s *Server) handleDocumentStats(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		respondError(w, http.StatusServiceUnavailable, "document store not configured")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"stats":  s.store.Stats(),
	})
}

type profileSyncRequest struct {
	UserID      string                 `json:"user_id"`
	ProfileData map[string]interface{} `json:"profile_data"`
}

func (s *Server) handleProfileSync(w http.ResponseWriter, r *http.Request) {
	var req profileSyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == "" {
		respondError(w, http.StatusBadRequest, "user_id must not be empty")
		return
	}
	s.logger.Info("profile sync received", zap.String("user_id", req.UserID))
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "synced",
		"user_id":     req.UserID,
		"received_at": time.Now().UTC().Format(time.RFC3339),
	})
}

type zoneRenderResponse struct {
	ZoneID                 string                 `json:"zone_id"`
	Components             []agents.Component     `json:"components"`
	PinnedContentIncluded  []string               `json:"pinned_content_included"`
	PersonalizationApplied bool                   `json:"personalization_applied"`
	Meta                   map[string]interface{} `json:"meta"`
	RenderedAt             string                 `json:"rendered_at"`
}

func (s *Server) renderZone(ctx context.Context, req agents.ZoneRenderRequest) zoneRenderResponse {
	if s.registry != nil {
		req = s.registry.Resolve(req)
	}
	result := s.zoneAgent.RenderZone(ctx, req)
	return zoneRenderResponse{
		ZoneID:                 req.ZoneID,
		Components:             result.Components,
		PinnedContentIncluded:  result.PinnedContentIncluded,
		PersonalizationApplied: result.PersonalizationApplied,
		Meta: map[string]interface{}{
			"confidence":      result.Confidence,
			"reasoning":       result.Reasoning,
			"profile_factors": result.ProfileFactorsUsed,
		},
		RenderedAt: time.Now().UTC().Format(time.RFC3339),
	}
}

func (s *Server) handleZoneRender(w http.ResponseWriter, r *http.Request) {
	if s.zoneAgent == nil {
		respondError(w, http.StatusServiceUnavailable, "zone rendering not configured")
		return
	}
	var req agents.ZoneRenderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ZoneID == "" {
		respondError(w, http.StatusBadRequest, "zone_id must not be empty")
		return
	}
	respondJSON(w, http.StatusOK, s.renderZone(r.Context(), req))
}

func (s *Server) handleZoneBatchRender(w http.ResponseWriter, r *http.Request) {
	if s.zoneAgent == nil {
		respondError(w, http.StatusServiceUnavailable, "zone rendering not configured")
		return
	}
	var reqs []agents.ZoneRenderRequest
	if err := json.NewDecoder(r.Body).Decode(&reqs); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	results := make([]map[string]interface{}, 0, len(reqs))
	for _, req := range reqs {
		if req.ZoneID == "" {
			results = append(results, map[string]interface{}{
				"zone_id": req.ZoneID,
				"success": false,
				"error":   "zone_id must not be empty",
			})
			continue
		}
		results = append(results, map[string]interface{}{
			"zone_id": req.ZoneID,
			"success": true,
			"data":    s.renderZone(r.Context(), req),
		})
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"results":     results,
		"rendered_at": time.Now().UTC().Format(time.RFC3339),
	})
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, detail string) {
	respondJSON(w, status, map[string]string{"detail": detail})
}
