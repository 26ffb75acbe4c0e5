// ABOUTME: Shared backend construction for CLI commands
// ABOUTME: Loads .env and config, then wires the OpenAI and Qdrant clients
package commands

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"

	"github.com/harper/bookbrain/internal/config"
	"github.com/harper/bookbrain/internal/llm"
	"github.com/harper/bookbrain/internal/vectordb"
)

// loadConfig reads .env (if present) and the environment
func loadConfig() (*config.Config, error) {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

func newLLMClient(cfg *config.Config) (*llm.Client, error) {
	client, err := llm.NewClient(llm.ClientConfig{
		APIKey:         cfg.OpenAIKey,
		ChatModel:      cfg.ChatModel,
		EmbeddingModel: cfg.EmbeddingModel,
		MaxTokens:      cfg.MaxTokens,
		Timeout:        cfg.Timeout,
		MaxRetries:     cfg.MaxRetries,
		RetryDelay:     cfg.RetryDelay,
	})
	if err != nil {
		return nil, fmt.Errorf("initializing OpenAI client: %w", err)
	}
	return client, nil
}

func connectVectorDB(ctx context.Context, cfg *config.Config) (*vectordb.DB, error) {
	db, err := vectordb.Connect(ctx, vectordb.Config{
		Addr:       cfg.QdrantAddr,
		APIKey:     cfg.QdrantAPIKey,
		Collection: cfg.QdrantCollection,
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to Qdrant at %s: %w", cfg.QdrantAddr, err)
	}
	return db, nil
}
