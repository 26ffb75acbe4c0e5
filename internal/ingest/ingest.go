// ABOUTME: Batch pipeline that chunks, embeds, and indexes the book's markdown
// ABOUTME: Per-file failures are logged and skipped; the run continues
package ingest

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/harper/bookbrain/internal/chunker"
	"github.com/harper/bookbrain/internal/models"
)

// upsertBatchSize caps how many points go to the index per upsert call
const upsertBatchSize = 100

// Embedder produces vectors for batches of text
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)
}

// Index receives embedded chunks and answers verification queries
type Index interface {
	Upsert(ctx context.Context, chunks []models.Chunk, vectors [][]float64) error
	Count(ctx context.Context) (uint64, error)
}

// Ingester walks a docs tree and populates the vector index
type Ingester struct {
	chunker  *chunker.Chunker
	embedder Embedder
	index    Index
}

// NewIngester creates a batch ingestion pipeline
func NewIngester(c *chunker.Chunker, embedder Embedder, index Index) *Ingester {
	return &Ingester{chunker: c, embedder: embedder, index: index}
}

// Stats summarizes one ingestion run
type Stats struct {
	FilesSeen    int
	FilesSkipped int
	Chunks       int
	IndexedTotal uint64
	Elapsed      time.Duration
}

// Run ingests every markdown file under docsDir. Files that fail to read or
// chunk are skipped with a warning; embedding or index failures abort the run
// since continuing would leave the index silently partial.
func (ing *Ingester) Run(ctx context.Context, docsDir string) (*Stats, error) {
	started := time.Now()
	stats := &Stats{}

	var chunks []models.Chunk
	err := filepath.WalkDir(docsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isMarkdown(path) {
			return nil
		}
		stats.FilesSeen++

		rel, err := filepath.Rel(docsDir, path)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			log.Printf("Warning: skipping %s: %v", rel, err)
			stats.FilesSkipped++
			return nil
		}

		fileChunks := ing.chunker.ChunkDocument(string(data), filepath.ToSlash(rel))
		if len(fileChunks) == 0 {
			log.Printf("Warning: no sections found in %s, skipping", rel)
			stats.FilesSkipped++
			return nil
		}
		chunks = append(chunks, fileChunks...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk docs: %w", err)
	}

	if len(chunks) == 0 {
		return nil, fmt.Errorf("no indexable content under %s", docsDir)
	}
	stats.Chunks = len(chunks)
	log.Printf("Chunked %d files into %d chunks", stats.FilesSeen-stats.FilesSkipped, len(chunks))

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	vectors, err := ing.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}

	for start := 0; start < len(chunks); start += upsertBatchSize {
		end := start + upsertBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		if err := ing.index.Upsert(ctx, chunks[start:end], vectors[start:end]); err != nil {
			return nil, fmt.Errorf("upsert batch %d-%d: %w", start, end, err)
		}
		log.Printf("Indexed chunks %d-%d of %d", start, end, len(chunks))
	}

	total, err := ing.index.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("verify index: %w", err)
	}
	stats.IndexedTotal = total
	stats.Elapsed = time.Since(started)
	log.Printf("Ingestion complete: %d chunks indexed, collection holds %d points (%s)",
		stats.Chunks, total, stats.Elapsed.Round(time.Millisecond))
	return stats, nil
}

func isMarkdown(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".mdx":
		return true
	}
	return false
}
