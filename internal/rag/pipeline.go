// ABOUTME: Retrieval-augmented question answering over book content
// ABOUTME: Two variants: book-wide (retrieve then generate) and selection-based (generate only)
package rag

import (
	"context"
	"fmt"
	"log"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/harper/bookbrain/internal/apperr"
	"github.com/harper/bookbrain/internal/llm"
	"github.com/harper/bookbrain/internal/models"
)

const (
	// MaxQueryLength caps question text for both pipeline variants
	MaxQueryLength = 2000

	// MaxSelectionLength caps the highlighted excerpt in selection mode
	MaxSelectionLength = 5000

	// MaxSelectionQueryLength caps the question in selection mode
	MaxSelectionQueryLength = 500

	// excerptLength is how much of a retrieved chunk becomes a citation excerpt
	excerptLength = 200

	answerTemperature    = 0.7
	selectionMaxTokens   = 1000
	noResultsAnswer      = "I couldn't find anything in the book related to your question. Try rephrasing it, or ask about a topic the book covers."
	lowConfidenceAnswer  = "I found some loosely related material, but nothing confidently relevant to your question. Try asking in different words."
	groundedRefusal      = "I don't have enough information in the book to answer that."
	bookSystemPromptTmpl = `You are a teaching assistant for a technical book on robotics and AI.
Answer the reader's question using ONLY the provided book context. Do not use outside knowledge.
If the context does not contain the answer, reply exactly: "%s"
Match the reader's register: if they write in Roman Urdu, answer in Roman Urdu; otherwise answer in English.
Cite nothing; source attribution is handled separately.`
	selectionSystemPrompt = `You are a teaching assistant for a technical book on robotics and AI.
The reader highlighted a passage from the book and asked a question about it.
Explain the passage and answer the question using the passage itself. Keep the explanation grounded in what the passage says.
Match the reader's register: if they write in Roman Urdu, answer in Roman Urdu; otherwise answer in English.`
)

// Embedder turns text into a vector
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Searcher runs similarity search over the vector index
type Searcher interface {
	Search(ctx context.Context, vector []float64, topK int, filters map[string]string) ([]models.SearchResult, error)
}

// Generator runs one grounded completion
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string, opts llm.GenerateOptions) (string, error)
}

// QuerySink receives completed query log entries. Logging is best effort;
// sink failures never fail a query.
type QuerySink interface {
	Save(entry *models.QueryLogEntry) error
}

// Answer is the result of either pipeline variant
type Answer struct {
	Text    string          `json:"answer"`
	Sources []models.Source `json:"sources"`
}

// Pipeline answers reader questions against the indexed book
type Pipeline struct {
	embedder  Embedder
	searcher  Searcher
	generator Generator
	sink      QuerySink

	topK      int
	threshold float64
	maxTokens int
}

// Config holds pipeline tuning knobs
type Config struct {
	TopK                int
	SimilarityThreshold float64
	MaxTokens           int
}

// NewPipeline creates a question-answering pipeline. The sink may be nil.
func NewPipeline(embedder Embedder, searcher Searcher, generator Generator, sink QuerySink, cfg Config) *Pipeline {
	if cfg.TopK <= 0 {
		cfg.TopK = 5
	}
	// Zero is a valid threshold (accept everything); only a negative value
	// means unset.
	if cfg.SimilarityThreshold < 0 {
		cfg.SimilarityThreshold = 0.7
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 2048
	}
	return &Pipeline{
		embedder:  embedder,
		searcher:  searcher,
		generator: generator,
		sink:      sink,
		topK:      cfg.TopK,
		threshold: cfg.SimilarityThreshold,
		maxTokens: cfg.MaxTokens,
	}
}

// BookQuery is a question asked against the whole book
type BookQuery struct {
	Query   string
	UserID  string
	Filters map[string]string // optional metadata filters, e.g. module or difficulty
}

// AnswerBookWide embeds the question, retrieves the closest chunks, and
// generates an answer grounded in them. Two retrieval outcomes short-circuit
// without a generation call: no results at all, and results that all score
// below the similarity threshold. Both are successes, not errors.
func (p *Pipeline) AnswerBookWide(ctx context.Context, q BookQuery) (*Answer, error) {
	if err := validateQuery(q.Query, MaxQueryLength); err != nil {
		return nil, err
	}
	started := time.Now()

	vector, err := p.embedder.Embed(ctx, q.Query)
	if err != nil {
		return nil, apperr.Unavailable("embedding", err)
	}

	results, err := p.searcher.Search(ctx, vector, p.topK, q.Filters)
	if err != nil {
		return nil, apperr.Unavailable("search", err)
	}

	if len(results) == 0 {
		answer := &Answer{Text: noResultsAnswer, Sources: []models.Source{}}
		p.logQuery(q.UserID, q.Query, models.QueryModeBookWide, "", nil, answer.Text, started)
		return answer, nil
	}

	relevant := filterByScore(results, p.threshold)
	if len(relevant) == 0 {
		answer := &Answer{Text: lowConfidenceAnswer, Sources: []models.Source{}}
		p.logQuery(q.UserID, q.Query, models.QueryModeBookWide, "", nil, answer.Text, started)
		return answer, nil
	}

	text, err := p.generator.Generate(ctx, bookSystemPrompt(), buildContextPrompt(q.Query, relevant), llm.GenerateOptions{
		Temperature: answerTemperature,
		MaxTokens:   p.maxTokens,
	})
	if err != nil {
		return nil, apperr.Unavailable("generation", err)
	}

	answer := &Answer{Text: text, Sources: buildSources(relevant)}
	p.logQuery(q.UserID, q.Query, models.QueryModeBookWide, "", relevant, text, started)
	return answer, nil
}

// SelectionQuery is a question about a passage the reader highlighted
type SelectionQuery struct {
	Query     string
	Selection string
	UserID    string
}

// AnswerSelection answers a question about a highlighted passage. The passage
// IS the context, so no retrieval happens and the answer carries no sources.
func (p *Pipeline) AnswerSelection(ctx context.Context, q SelectionQuery) (*Answer, error) {
	if err := validateQuery(q.Query, MaxSelectionQueryLength); err != nil {
		return nil, err
	}
	if strings.TrimSpace(q.Selection) == "" {
		return nil, apperr.Invalid("selected_text", "must not be empty")
	}
	if utf8.RuneCountInString(q.Selection) > MaxSelectionLength {
		return nil, apperr.Invalid("selected_text",
			fmt.Sprintf("exceeds maximum length of %d characters", MaxSelectionLength))
	}
	started := time.Now()

	maxTokens := p.maxTokens
	if maxTokens > selectionMaxTokens {
		maxTokens = selectionMaxTokens
	}

	prompt := fmt.Sprintf("Highlighted passage:\n%s\n\nQuestion: %s", q.Selection, q.Query)
	text, err := p.generator.Generate(ctx, selectionSystemPrompt, prompt, llm.GenerateOptions{
		Temperature: answerTemperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return nil, apperr.Unavailable("generation", err)
	}

	answer := &Answer{Text: text, Sources: []models.Source{}}
	p.logQuery(q.UserID, q.Query, models.QueryModeSelection, q.Selection, nil, text, started)
	return answer, nil
}

// Length caps count characters, not bytes, so non-Latin scripts get the
// same budget as English.
func validateQuery(query string, maxLen int) error {
	if strings.TrimSpace(query) == "" {
		return apperr.Invalid("query", "must not be empty")
	}
	if utf8.RuneCountInString(query) > maxLen {
		return apperr.Invalid("query",
			fmt.Sprintf("exceeds maximum length of %d characters", maxLen))
	}
	return nil
}

func filterByScore(results []models.SearchResult, threshold float64) []models.SearchResult {
	var kept []models.SearchResult
	for _, r := range results {
		if r.Score >= threshold {
			kept = append(kept, r)
		}
	}
	return kept
}

func bookSystemPrompt() string {
	return fmt.Sprintf(bookSystemPromptTmpl, groundedRefusal)
}

// buildContextPrompt assembles retrieved chunks into the generation prompt,
// each block tagged with its section so the model stays inside the book.
func buildContextPrompt(query string, results []models.SearchResult) string {
	blocks := make([]string, len(results))
	for i, r := range results {
		blocks[i] = fmt.Sprintf("[Source: %s]\n%s", r.SectionID, r.Content)
	}
	return fmt.Sprintf("Book context:\n\n%s\n\nQuestion: %s",
		strings.Join(blocks, "\n\n"), query)
}

func buildSources(results []models.SearchResult) []models.Source {
	sources := make([]models.Source, len(results))
	for i, r := range results {
		sources[i] = models.Source{
			SectionID:      r.SectionID,
			Title:          r.Metadata.Title,
			RelevanceScore: roundScore(r.Score),
			Excerpt:        excerpt(r.Content),
		}
	}
	return sources
}

func roundScore(s float64) float64 {
	return math.Round(s*1000) / 1000
}

// excerpt truncates at a rune boundary; a byte slice could cut a multi-byte
// character in half and hand the client invalid UTF-8.
func excerpt(content string) string {
	if utf8.RuneCountInString(content) <= excerptLength {
		return content
	}
	runes := []rune(content)
	return string(runes[:excerptLength]) + "..."
}

func (p *Pipeline) logQuery(userID, query string, mode models.QueryMode, selection string,
	retrieved []models.SearchResult, response string, started time.Time) {
	if p.sink == nil {
		return
	}

	var chunks []models.RetrievedChunk
	for _, r := range retrieved {
		chunks = append(chunks, models.RetrievedChunk{
			SectionID: r.SectionID,
			Score:     roundScore(r.Score),
			Excerpt:   excerpt(r.Content),
		})
	}

	entry := &models.QueryLogEntry{
		UserID:          userID,
		QueryText:       query,
		QueryMode:       mode,
		SelectedText:    selection,
		RetrievedChunks: chunks,
		ResponseText:    response,
		ResponseTimeMS:  int(time.Since(started).Milliseconds()),
	}
	if err := p.sink.Save(entry); err != nil {
		log.Printf("Warning: failed to log query: %v", err)
	}
}
