// Package chunker splits documents into retrieval-sized chunks. Two
// strategies: a sentence splitter with size and overlap bounds, and a
// semantic splitter that places breakpoints where adjacent sentence
// embeddings diverge. Semantic splitting degrades to the sentence
// splitter when the embedding engine is unavailable or fails.
package chunker

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"genui/internal/embedding"
)

// Chunk is a single chunk of a source document.
type Chunk struct {
	Content        string                 `json:"content"`
	Metadata       map[string]interface{} `json:"metadata"`
	ChunkID        string                 `json:"chunk_id"`
	SourceDocument string                 `json:"source_document"`
}

// Options controls chunking behavior. ChunkSize and ChunkOverlap are in
// approximate tokens (4 chars per token).
type Options struct {
	ChunkSize            int
	ChunkOverlap         int
	UseSemantic          bool
	BreakpointPercentile int
	BufferSize           int
}

// DefaultOptions returns the baseline chunking options.
func DefaultOptions() Options {
	return Options{
		ChunkSize:            512,
		ChunkOverlap:         50,
		UseSemantic:          true,
		BreakpointPercentile: 95,
		BufferSize:           1,
	}
}

// Chunker splits text into chunks. The embedding engine is only needed
// for semantic splitting and may be nil.
type Chunker struct {
	engine embedding.Engine
	opts   Options
	logger *zap.Logger
}

// New creates a Chunker.
func New(engine embedding.Engine, opts Options, logger *zap.Logger) *Chunker {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = 512
	}
	if opts.BreakpointPercentile <= 0 || opts.BreakpointPercentile > 100 {
		opts.BreakpointPercentile = 95
	}
	if opts.BufferSize <= 0 {
		opts.BufferSize = 1
	}
	return &Chunker{engine: engine, opts: opts, logger: logger}
}

// ChunkText splits raw text into chunks tagged with the source name and
// chunk index. Empty input yields no chunks.
func (c *Chunker) ChunkText(ctx context.Context, text string, metadata map[string]interface{}, sourceName string) []Chunk {
	if strings.TrimSpace(text) == "" {
		c.logger.Warn("empty text provided for chunking", zap.String("source", sourceName))
		return nil
	}
	if sourceName == "" {
		sourceName = "unknown"
	}

	var contents []string
	if c.opts.UseSemantic && c.engine != nil {
		var err error
		contents, err = c.semanticSplit(ctx, text)
		if err != nil {
			c.logger.Warn("semantic chunking failed, using sentence splitter",
				zap.String("source", sourceName), zap.Error(err))
			contents = c.sentenceSplit(text)
		} else {
			c.logger.Info("semantic chunking complete",
				zap.String("source", sourceName), zap.Int("chunks", len(contents)))
		}
	} else {
		contents = c.sentenceSplit(text)
	}

	chunks := make([]Chunk, 0, len(contents))
	for i, content := range contents {
		meta := map[string]interface{}{
			"node_id": uuid.NewString(),
		}
		for k, v := range metadata {
			meta[k] = v
		}
		chunks = append(chunks, Chunk{
			Content:        content,
			Metadata:       meta,
			ChunkID:        fmt.Sprintf("%s_%d", sourceName, i),
			SourceDocument: sourceName,
		})
	}
	return chunks
}

// sentenceSplit groups sentences into chunks bounded by ChunkSize, carrying
// ChunkOverlap worth of trailing sentences into the next chunk.
func (c *Chunker) sentenceSplit(text string) []string {
	sentences := SplitSentences(text)
	if len(sentences) == 0 {
		return nil
	}

	maxChars := c.opts.ChunkSize * 4
	overlapChars := c.opts.ChunkOverlap * 4

	var chunks []string
	var current []string
	currentLen := 0

	flush := func() {
		if len(current) == 0 {
			return
		}
		chunks = append(chunks, strings.Join(current, " "))

		// Seed the next chunk with trailing sentences up to the overlap
		// budget.
		var carry []string
		carryLen := 0
		for i := len(current) - 1; i >= 0 && carryLen < overlapChars; i-- {
			carry = append([]string{current[i]}, carry...)
			carryLen += len(current[i]) + 1
		}
		current = carry
		currentLen = carryLen
	}

	for _, s := range sentences {
		if currentLen > 0 && currentLen+len(s)+1 > maxChars {
			flush()
		}
		current = append(current, s)
		currentLen += len(s) + 1
	}
	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, " "))
	}
	return chunks
}

// semanticSplit embeds windows of adjacent sentences and breaks where the
// cosine distance between neighbors exceeds the configured percentile of
// all distances.
func (c *Chunker) semanticSplit(ctx context.Context, text string) ([]string, error) {
	sentences := SplitSentences(text)
	if len(sentences) <= 1 {
		return []string{strings.Join(sentences, " ")}, nil
	}

	// Window each sentence with its neighbors so single-sentence noise
	// does not produce spurious breakpoints.
	windows := make([]string, len(sentences))
	buf := c.opts.BufferSize
	for i := range sentences {
		lo := i - buf
		if lo < 0 {
			lo = 0
		}
		hi := i + buf + 1
		if hi > len(sentences) {
			hi = len(sentences)
		}
		windows[i] = strings.Join(sentences[lo:hi], " ")
	}

	vectors, err := c.embedAll(ctx, windows)
	if err != nil {
		return nil, err
	}

	distances := make([]float64, len(vectors)-1)
	for i := 0; i < len(vectors)-1; i++ {
		sim, err := embedding.CosineSimilarity(vectors[i], vectors[i+1])
		if err != nil {
			return nil, err
		}
		distances[i] = 1 - sim
	}

	threshold := percentile(distances, c.opts.BreakpointPercentile)

	var chunks []string
	var current []string
	for i, s := range sentences {
		current = append(current, s)
		if i < len(distances) && distances[i] > threshold {
			chunks = append(chunks, strings.Join(current, " "))
			current = nil
		}
	}
	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, " "))
	}
	return chunks, nil
}

// embedAll embeds texts in parallel batches.
func (c *Chunker) embedAll(ctx context.Context, texts []string) ([][]float32, error) {
	const batchSize = 32

	vectors := make([][]float32, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	for start := 0; start < len(texts); start += batchSize {
		start := start
		end := start + batchSize
		if end > len(texts) {
			end = len(texts)
		}
		g.Go(func() error {
			batch, err := c.engine.EmbedBatch(gctx, texts[start:end])
			if err != nil {
				return fmt.Errorf("embedding batch at %d: %w", start, err)
			}
			if len(batch) != end-start {
				return fmt.Errorf("embedding batch at %d: got %d vectors for %d texts", start, len(batch), end-start)
			}
			copy(vectors[start:end], batch)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return vectors, nil
}

// percentile returns the p-th percentile of values (nearest-rank).
func percentile(values []float64, p int) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	rank := (p * len(sorted)) / 100
	if rank >= len(sorted) {
		rank = len(sorted) - 1
	}
	return sorted[rank]
}

// SplitSentences breaks text into sentences on terminal punctuation
// followed by whitespace, treating blank lines as hard boundaries.
func SplitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	flush := func() {
		s := strings.TrimSpace(current.String())
		if s != "" {
			sentences = append(sentences, s)
		}
		current.Reset()
	}

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		current.WriteRune(r)

		switch r {
		case '.', '!', '?':
			if i+1 >= len(runes) || unicode.IsSpace(runes[i+1]) {
				flush()
			}
		case '\n':
			if i+1 < len(runes) && runes[i+1] == '\n' {
				flush()
			}
		}
	}
	flush()
	return sentences
}
