// Package vecstore is the SQLite-backed vector store for the document
// knowledge base. Embeddings are serialized as JSON alongside chunk content
// and metadata; search is brute-force cosine similarity, which is adequate
// for the corpus sizes a single service instance indexes. When the
// sqlite-vec extension is compiled in it is detected and reported, keeping
// the upgrade path to ANN search open without a schema change.
package vecstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"genui/internal/chunker"
	"genui/internal/embedding"
	"genui/internal/retrieval"
)

// Options configures the store.
type Options struct {
	// TopK is the default result count when a search passes topK <= 0.
	TopK int
	// SimilarityThreshold drops results scoring below it.
	SimilarityThreshold float64
}

// Store persists chunk embeddings in SQLite and serves similarity search.
type Store struct {
	db        *sql.DB
	mu        sync.RWMutex
	dbPath    string
	engine    embedding.Engine
	opts      Options
	logger    *zap.Logger
	vectorExt bool
}

// New opens (or creates) the store at path.
func New(path string, engine embedding.Engine, opts Options, logger *zap.Logger) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logger.Debug("failed to set sqlite busy_timeout", zap.Error(err))
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		logger.Debug("failed to set sqlite journal_mode=WAL", zap.Error(err))
	}
	// synchronous=NORMAL is safe with WAL and much faster than FULL.
	if _, err := db.Exec("PRAGMA synchronous = NORMAL"); err != nil {
		logger.Debug("failed to set sqlite synchronous=NORMAL", zap.Error(err))
	}

	if opts.TopK <= 0 {
		opts.TopK = 5
	}

	s := &Store{
		db:     db,
		dbPath: path,
		engine: engine,
		opts:   opts,
		logger: logger,
	}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	s.detectVecExtension()
	if s.vectorExt {
		s.logger.Info("sqlite-vec extension detected")
	}

	return s, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS chunks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		chunk_id TEXT NOT NULL,
		content TEXT NOT NULL,
		embedding TEXT,
		metadata TEXT,
		source_document TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_chunks_source ON chunks(source_document);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// detectVecExtension probes for the sqlite-vec extension.
func (s *Store) detectVecExtension() {
	var version string
	if err := s.db.QueryRow("SELECT vec_version()").Scan(&version); err == nil {
		s.vectorExt = true
	}
}

// IndexChunks embeds and stores chunks in batches. Returns the number of
// chunks indexed; a failed batch is logged and skipped, the rest continue.
func (s *Store) IndexChunks(ctx context.Context, chunks []chunker.Chunk) (int, error) {
	if len(chunks) == 0 {
		s.logger.Warn("no chunks provided for indexing")
		return 0, nil
	}
	if s.engine == nil {
		return 0, fmt.Errorf("no embedding engine configured")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	const batchSize = 100
	indexed := 0

	for start := 0; start < len(chunks); start += batchSize {
		end := start + batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Content
		}

		embeddings, err := s.engine.EmbedBatch(ctx, texts)
		if err != nil {
			s.logger.Error("embedding generation failed for batch",
				zap.Int("offset", start), zap.Error(err))
			continue
		}
		if len(embeddings) != len(batch) {
			s.logger.Error("embedding count mismatch for batch",
				zap.Int("offset", start), zap.Int("got", len(embeddings)), zap.Int("want", len(batch)))
			continue
		}

		tx, err := s.db.Begin()
		if err != nil {
			return indexed, fmt.Errorf("failed to begin transaction: %w", err)
		}
		ok := true
		for i, c := range batch {
			embJSON, _ := json.Marshal(embeddings[i])
			metaJSON, _ := json.Marshal(c.Metadata)
			if _, err := tx.Exec(
				"INSERT INTO chunks (chunk_id, content, embedding, metadata, source_document) VALUES (?, ?, ?, ?, ?)",
				c.ChunkID, c.Content, string(embJSON), string(metaJSON), c.SourceDocument,
			); err != nil {
				s.logger.Error("failed to insert chunk", zap.String("chunk_id", c.ChunkID), zap.Error(err))
				ok = false
				break
			}
		}
		if !ok {
			tx.Rollback()
			continue
		}
		if err := tx.Commit(); err != nil {
			return indexed, fmt.Errorf("failed to commit batch: %w", err)
		}

		indexed += len(batch)
		s.logger.Info("indexed batch",
			zap.Int("batch", start/batchSize+1), zap.Int("chunks", len(batch)))
	}

	s.logger.Info("indexing complete",
		zap.Int("indexed", indexed), zap.Int("total", len(chunks)))
	return indexed, nil
}

// Search embeds the query and returns the most similar chunks above the
// similarity threshold, best first. Implements retrieval.Searcher.
func (s *Store) Search(ctx context.Context, query string, topK int) ([]retrieval.Result, error) {
	if s.engine == nil {
		return nil, fmt.Errorf("no embedding engine configured")
	}
	if topK <= 0 {
		topK = s.opts.TopK
	}

	queryVec, err := s.engine.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT chunk_id, content, embedding, metadata FROM chunks WHERE embedding IS NOT NULL")
	if err != nil {
		return nil, fmt.Errorf("search query failed: %w", err)
	}
	defer rows.Close()

	var results []retrieval.Result
	for rows.Next() {
		var chunkID, content, embJSON, metaJSON string
		if err := rows.Scan(&chunkID, &content, &embJSON, &metaJSON); err != nil {
			continue
		}

		var vec []float32
		if err := json.Unmarshal([]byte(embJSON), &vec); err != nil {
			continue
		}

		score, err := embedding.CosineSimilarity(queryVec, vec)
		if err != nil {
			continue
		}
		if score < s.opts.SimilarityThreshold {
			continue
		}

		var metadata map[string]interface{}
		if metaJSON != "" {
			json.Unmarshal([]byte(metaJSON), &metadata)
		}

		results = append(results, retrieval.Result{
			Content:  content,
			Score:    score,
			Metadata: metadata,
			ChunkID:  chunkID,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// DeleteBySource removes every chunk of a source document. Returns the
// number of chunks removed.
func (s *Store) DeleteBySource(source string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec("DELETE FROM chunks WHERE source_document = ?", source)
	if err != nil {
		return 0, fmt.Errorf("deletion failed for %s: %w", source, err)
	}
	n, _ := res.RowsAffected()
	s.logger.Info("deleted chunks from source", zap.String("source", source), zap.Int64("count", n))
	return n, nil
}

// Stats reports knowledge base statistics.
func (s *Store) Stats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{}

	var total, sources int64
	s.db.QueryRow("SELECT COUNT(*) FROM chunks").Scan(&total)
	s.db.QueryRow("SELECT COUNT(DISTINCT source_document) FROM chunks").Scan(&sources)
	stats["chunks_count"] = total
	stats["sources_count"] = sources
	stats["vec_extension"] = s.vectorExt

	if s.engine != nil {
		stats["embedding_engine"] = s.engine.Name()
		stats["embedding_dimensions"] = s.engine.Dimensions()
	} else {
		stats["embedding_engine"] = "none"
	}
	return stats
}

// Clear removes all chunks.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec("DELETE FROM chunks")
	return err
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
