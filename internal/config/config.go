// Package config loads genui service configuration from a JSON file with
// environment-variable overrides. A missing file is not an error: defaults
// apply, and GENUI_* variables layer on top either way.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config is the root configuration for the service.
type Config struct {
	LLM          LLMConfig          `json:"llm"`
	Store        StoreConfig        `json:"store"`
	Chunking     ChunkingConfig     `json:"chunking"`
	Orchestrator OrchestratorConfig `json:"orchestrator"`
	Cache        CacheConfig        `json:"cache"`
	Server       ServerConfig       `json:"server"`
}

// LLMConfig selects the text-generation and embedding backends.
type LLMConfig struct {
	// Provider: "openai" (any OpenAI-compatible endpoint) or "gemini".
	Provider string `json:"provider"`
	APIKey   string `json:"api_key"`
	BaseURL  string `json:"base_url"`

	// Model per role. The profile/behavior analyzers default to a smaller,
	// faster model than the response agent.
	ResponseModel  string `json:"response_model"`
	ProfileModel   string `json:"profile_model"`
	EmbeddingModel string `json:"embedding_model"`

	TimeoutSeconds int `json:"timeout_seconds"`
}

// StoreConfig configures the SQLite vector store.
type StoreConfig struct {
	Path                string  `json:"path"`
	TopK                int     `json:"top_k"`
	SimilarityThreshold float64 `json:"similarity_threshold"`
}

// ChunkingConfig controls document splitting for indexing.
type ChunkingConfig struct {
	ChunkSize            int  `json:"chunk_size"`
	ChunkOverlap         int  `json:"chunk_overlap"`
	UseSemantic          bool `json:"use_semantic"`
	BreakpointPercentile int  `json:"breakpoint_percentile"`
	BufferSize           int  `json:"buffer_size"`
}

// OrchestratorConfig controls the orchestration pass.
type OrchestratorConfig struct {
	// ParallelExecution runs the analyzers concurrently. Sequential mode is
	// for deterministic debugging; results are value-equivalent.
	ParallelExecution bool `json:"parallel_execution"`
	HistoryWindow     int  `json:"history_window"`
}

// CacheConfig controls the in-process memo cache for analyzer calls.
type CacheConfig struct {
	Enabled    bool `json:"enabled"`
	MaxEntries int  `json:"max_entries"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Addr        string   `json:"addr"`
	CORSOrigins []string `json:"cors_origins"`
	ZonesFile   string   `json:"zones_file"`
}

// Default returns the baseline configuration.
func Default() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:       "openai",
			BaseURL:        "https://api.openai.com/v1",
			ResponseModel:  "gpt-4o-mini",
			ProfileModel:   "gpt-4o-mini",
			EmbeddingModel: "text-embedding-3-small",
			TimeoutSeconds: 120,
		},
		Store: StoreConfig{
			Path:                "genui.db",
			TopK:                5,
			SimilarityThreshold: 0.7,
		},
		Chunking: ChunkingConfig{
			ChunkSize:            512,
			ChunkOverlap:         50,
			UseSemantic:          true,
			BreakpointPercentile: 95,
			BufferSize:           1,
		},
		Orchestrator: OrchestratorConfig{
			ParallelExecution: true,
			HistoryWindow:     5,
		},
		Cache: CacheConfig{
			Enabled:    true,
			MaxEntries: 1000,
		},
		Server: ServerConfig{
			Addr:        ":8000",
			CORSOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
			ZonesFile:   "zones.yaml",
		},
	}
}

// Load reads the config file at path and applies environment overrides.
// A missing file yields defaults; a malformed file is an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides layers GENUI_* environment variables over file values.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("GENUI_LLM_PROVIDER"); v != "" {
		c.LLM.Provider = v
	}
	if v := os.Getenv("GENUI_API_KEY"); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv("GENUI_BASE_URL"); v != "" {
		c.LLM.BaseURL = v
	}
	if v := os.Getenv("GENUI_RESPONSE_MODEL"); v != "" {
		c.LLM.ResponseModel = v
	}
	if v := os.Getenv("GENUI_PROFILE_MODEL"); v != "" {
		c.LLM.ProfileModel = v
	}
	if v := os.Getenv("GENUI_EMBEDDING_MODEL"); v != "" {
		c.LLM.EmbeddingModel = v
	}
	if v := os.Getenv("GENUI_STORE_PATH"); v != "" {
		c.Store.Path = v
	}
	if v := os.Getenv("GENUI_SERVER_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("GENUI_ZONES_FILE"); v != "" {
		c.Server.ZonesFile = v
	}
	if v := os.Getenv("GENUI_CORS_ORIGINS"); v != "" {
		origins := strings.Split(v, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		c.Server.CORSOrigins = origins
	}
	if v := os.Getenv("GENUI_DISABLE_CACHE"); v != "" {
		if disabled, err := strconv.ParseBool(v); err == nil && disabled {
			c.Cache.Enabled = false
		}
	}
	if v := os.Getenv("GENUI_PARALLEL_EXECUTION"); v != "" {
		if parallel, err := strconv.ParseBool(v); err == nil {
			c.Orchestrator.ParallelExecution = parallel
		}
	}
}

func (c *Config) validate() error {
	switch c.LLM.Provider {
	case "openai", "gemini":
	default:
		return fmt.Errorf("unknown llm provider: %q", c.LLM.Provider)
	}
	if c.Store.TopK <= 0 {
		c.Store.TopK = 5
	}
	if c.Cache.MaxEntries <= 0 {
		c.Cache.MaxEntries = 1000
	}
	if c.Orchestrator.HistoryWindow <= 0 {
		c.Orchestrator.HistoryWindow = 5
	}
	if c.Chunking.ChunkSize <= 0 {
		c.Chunking.ChunkSize = 512
	}
	return nil
}
