// ABOUTME: Serve command that runs the HTTP API
// ABOUTME: Wires every service over shared backends and handles graceful shutdown
package commands

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/harper/bookbrain/internal/personalize"
	"github.com/harper/bookbrain/internal/rag"
	"github.com/harper/bookbrain/internal/server"
	"github.com/harper/bookbrain/internal/storage/sqlite"
	"github.com/harper/bookbrain/internal/translation"
)

var serveAddr string

// NewServeCmd creates the serve command
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Long: `Start the bookbrain HTTP API.

Requires OPENAI_API_KEY and a reachable Qdrant instance. Run
"bookbrain ingest" first so question answering has an index to search.`,
		RunE: runServe,
	}

	cmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides HTTP_ADDR)")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.HTTPAddr = serveAddr
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

	db, err := sqlite.Open(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	profiles := sqlite.NewProfileStore(db)
	progress := sqlite.NewProgressStore(db)
	queryLog := sqlite.NewQueryLogStore(db)
	translations := sqlite.NewTranslationStore(db)

	pipeline := rag.NewPipeline(llmClient, vdb, llmClient, queryLog, rag.Config{
		TopK:                cfg.TopK,
		SimilarityThreshold: cfg.SimilarityThreshold,
		MaxTokens:           cfg.MaxTokens,
	})
	translator := translation.NewService(llmClient, translations, cfg.DocsDir)
	adapter := personalize.NewService(profiles, cfg.DocsDir)

	srv := server.New(server.Deps{
		QA:        pipeline,
		Translate: translator,
		Adapt:     adapter,
		Profiles:  profiles,
		Progress:  progress,
	}, cfg.CORSOrigins)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("bookbrain listening on %s", cfg.HTTPAddr)
		errCh <- srv.Start(cfg.HTTPAddr)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		log.Printf("Received %s, shutting down", sig)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
