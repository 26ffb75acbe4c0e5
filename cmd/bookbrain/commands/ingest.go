// ABOUTME: Ingest command that indexes the book's markdown into Qdrant
// ABOUTME: Chunks, embeds, and upserts, then verifies the collection count
package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/harper/bookbrain/internal/chunker"
	"github.com/harper/bookbrain/internal/ingest"
)

var ingestDocsDir string

// NewIngestCmd creates the ingest command
func NewIngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Index book content into the vector store",
		Long: `Walk the docs directory, split markdown into heading-delimited chunks,
embed them, and upsert into Qdrant.

Point IDs are derived from chunk IDs, so re-running on unchanged content
overwrites the same entries instead of duplicating them.`,
		RunE: runIngest,
	}

	cmd.Flags().StringVar(&ingestDocsDir, "docs", "", "Docs directory (overrides DOCS_DIR)")

	return cmd
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if ingestDocsDir != "" {
		cfg.DocsDir = ingestDocsDir
	}

	llmClient, err := newLLMClient(cfg)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	vdb, err := connectVectorDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer vdb.Close()

	ing := ingest.NewIngester(chunker.NewChunker(cfg.ChunkSize, cfg.ChunkOverlap), llmClient, vdb)
	stats, err := ing.Run(ctx, cfg.DocsDir)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(),
		"Indexed %d chunks from %d files (%d skipped) in %s; collection holds %d points\n",
		stats.Chunks, stats.FilesSeen-stats.FilesSkipped, stats.FilesSkipped,
		stats.Elapsed.Round(time.Millisecond), stats.IndexedTotal)
	return nil
}
