// Package zones loads developer zone definitions from a YAML file and
// resolves incoming render requests against them. Definitions supply
// defaults; explicit request fields win.
package zones

import (
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"genui/internal/agents"
)

// Pinned mirrors the pinned content entries of a zone definition.
type Pinned struct {
	Type        string                 `yaml:"type"`
	ID          string                 `yaml:"id"`
	URL         string                 `yaml:"url"`
	Title       string                 `yaml:"title"`
	Description string                 `yaml:"description"`
	Metadata    map[string]interface{} `yaml:"metadata"`
}

// Definition is one developer-configured zone.
type Definition struct {
	ID                     string   `yaml:"id"`
	BasePrompt             string   `yaml:"base_prompt"`
	ContextPrompt          string   `yaml:"context_prompt"`
	PreferredComponentType string   `yaml:"preferred_component_type"`
	MaxItems               int      `yaml:"max_items"`
	Pinned                 []Pinned `yaml:"pinned"`
}

type zonesFile struct {
	Zones []Definition `yaml:"zones"`
}

// DefaultBasePrompt is used when neither the request nor the definition
// provides one.
const DefaultBasePrompt = "Show relevant content for this user"

// DefaultMaxItems caps zone output when unspecified.
const DefaultMaxItems = 6

// Registry holds the active zone definitions. Reload swaps them
// atomically, so Resolve is safe during hot reload.
type Registry struct {
	mu     sync.RWMutex
	path   string
	byID   map[string]Definition
	logger *zap.Logger
}

// NewRegistry builds an empty registry. path may be empty when no zones
// file is configured; Resolve then only applies the global defaults.
func NewRegistry(path string, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{path: path, byID: map[string]Definition{}, logger: logger}
}

// Load reads the zones file from disk and replaces the active
// definitions. The previous definitions stay active when loading fails.
func (r *Registry) Load() error {
	if r.path == "" {
		return nil
	}
	data, err := os.ReadFile(r.path)
	if err != nil {
		return fmt.Errorf("read zones file: %w", err)
	}

	var parsed zonesFile
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("parse zones file: %w", err)
	}

	byID := make(map[string]Definition, len(parsed.Zones))
	for _, def := range parsed.Zones {
		if def.ID == "" {
			r.logger.Warn("skipping zone definition without id")
			continue
		}
		if _, dup := byID[def.ID]; dup {
			r.logger.Warn("duplicate zone definition", zap.String("zone_id", def.ID))
		}
		byID[def.ID] = def
	}

	r.mu.Lock()
	r.byID = byID
	r.mu.Unlock()
	r.logger.Info("zone definitions loaded",
		zap.String("path", r.path), zap.Int("zones", len(byID)))
	return nil
}

// Get returns the definition for a zone id.
func (r *Registry) Get(id string) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.byID[id]
	return def, ok
}

// Len reports the number of loaded definitions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// Resolve fills a render request with definition defaults. Request
// fields that are already set are left alone; pinned content from the
// definition is appended after the request's own pinned items.
func (r *Registry) Resolve(req agents.ZoneRenderRequest) agents.ZoneRenderRequest {
	def, ok := r.Get(req.ZoneID)
	if ok {
		if req.BasePrompt == "" {
			req.BasePrompt = def.BasePrompt
		}
		if req.ContextPrompt == "" {
			req.ContextPrompt = def.ContextPrompt
		}
		if req.PreferredComponentType == "" {
			req.PreferredComponentType = def.PreferredComponentType
		}
		if req.MaxItems <= 0 {
			req.MaxItems = def.MaxItems
		}
		req.PinnedContent = append(req.PinnedContent, pinnedToAgent(def.Pinned)...)
	}

	if req.BasePrompt == "" {
		req.BasePrompt = DefaultBasePrompt
	}
	if req.MaxItems <= 0 {
		req.MaxItems = DefaultMaxItems
	}
	return req
}

func pinnedToAgent(pinned []Pinned) []agents.PinnedContent {
	out := make([]agents.PinnedContent, 0, len(pinned))
	for _, p := range pinned {
		out = append(out, agents.PinnedContent{
			Type:        p.Type,
			ID:          p.ID,
			URL:         p.URL,
			Title:       p.Title,
			Description: p.Description,
			Metadata:    p.Metadata,
		})
	}
	return out
}
