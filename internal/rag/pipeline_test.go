// ABOUTME: Tests for the question-answering pipeline
// ABOUTME: Uses fakes to assert which backends each retrieval outcome touches
package rag

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/harper/bookbrain/internal/apperr"
	"github.com/harper/bookbrain/internal/llm"
	"github.com/harper/bookbrain/internal/models"
)

type fakeEmbedder struct {
	calls int
	err   error
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return make([]float64, 1536), nil
}

type fakeSearcher struct {
	calls   int
	results []models.SearchResult
	err     error
}

func (f *fakeSearcher) Search(ctx context.Context, vector []float64, topK int, filters map[string]string) ([]models.SearchResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

type fakeGenerator struct {
	calls      int
	answer     string
	err        error
	lastSystem string
	lastPrompt string
	lastOpts   llm.GenerateOptions
}

func (f *fakeGenerator) Generate(ctx context.Context, systemPrompt, userPrompt string, opts llm.GenerateOptions) (string, error) {
	f.calls++
	f.lastSystem = systemPrompt
	f.lastPrompt = userPrompt
	f.lastOpts = opts
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

type fakeSink struct {
	entries []*models.QueryLogEntry
	err     error
}

func (f *fakeSink) Save(entry *models.QueryLogEntry) error {
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, entry)
	return nil
}

func newTestPipeline(s *fakeSearcher, g *fakeGenerator, sink *fakeSink) (*Pipeline, *fakeEmbedder) {
	e := &fakeEmbedder{}
	var qs QuerySink
	if sink != nil {
		qs = sink
	}
	return NewPipeline(e, s, g, qs, Config{TopK: 5, SimilarityThreshold: 0.7, MaxTokens: 2048}), e
}

func rosResult(score float64) models.SearchResult {
	return models.SearchResult{
		ID:        "some-uuid",
		Score:     score,
		SectionID: "modules/ros2/index#what-is-ros-2",
		Content:   "ROS 2 is an open-source robotics middleware that provides nodes, topics, and services for building robot applications.",
		Metadata:  models.ChunkMetadata{Title: "What is ROS 2"},
	}
}

func TestAnswerBookWide_HappyPath(t *testing.T) {
	searcher := &fakeSearcher{results: []models.SearchResult{rosResult(0.85)}}
	gen := &fakeGenerator{answer: "ROS 2 is a robotics middleware."}
	sink := &fakeSink{}
	p, emb := newTestPipeline(searcher, gen, sink)

	answer, err := p.AnswerBookWide(context.Background(), BookQuery{Query: "What is ROS 2?"})
	if err != nil {
		t.Fatalf("AnswerBookWide() error = %v", err)
	}
	if emb.calls != 1 || searcher.calls != 1 || gen.calls != 1 {
		t.Errorf("Backend calls = embed:%d search:%d generate:%d, want 1 each",
			emb.calls, searcher.calls, gen.calls)
	}
	if answer.Text != "ROS 2 is a robotics middleware." {
		t.Errorf("Answer = %q", answer.Text)
	}
	if len(answer.Sources) != 1 {
		t.Fatalf("Sources = %d, want 1", len(answer.Sources))
	}
	src := answer.Sources[0]
	if src.SectionID != "modules/ros2/index#what-is-ros-2" {
		t.Errorf("Source SectionID = %q", src.SectionID)
	}
	if src.RelevanceScore != 0.85 {
		t.Errorf("RelevanceScore = %v, want 0.85", src.RelevanceScore)
	}
	if !strings.Contains(gen.lastPrompt, "[Source: modules/ros2/index#what-is-ros-2]") {
		t.Error("Context prompt missing the source tag")
	}
	if gen.lastOpts.Temperature != 0.7 {
		t.Errorf("Temperature = %v, want 0.7", gen.lastOpts.Temperature)
	}
	if len(sink.entries) != 1 {
		t.Fatalf("Logged entries = %d, want 1", len(sink.entries))
	}
	if sink.entries[0].QueryMode != models.QueryModeBookWide {
		t.Errorf("Logged mode = %q", sink.entries[0].QueryMode)
	}
}

func TestAnswerBookWide_NoResultsSkipsGeneration(t *testing.T) {
	searcher := &fakeSearcher{results: nil}
	gen := &fakeGenerator{answer: "should never be called"}
	p, _ := newTestPipeline(searcher, gen, nil)

	answer, err := p.AnswerBookWide(context.Background(), BookQuery{Query: "What is quantum knitting?"})
	if err != nil {
		t.Fatalf("AnswerBookWide() error = %v", err)
	}
	if gen.calls != 0 {
		t.Errorf("Generation calls = %d, want 0 for empty retrieval", gen.calls)
	}
	if !strings.Contains(answer.Text, "couldn't find") {
		t.Errorf("Answer = %q, want the no-results fallback", answer.Text)
	}
	if len(answer.Sources) != 0 {
		t.Errorf("Sources = %d, want 0", len(answer.Sources))
	}
}

func TestAnswerBookWide_BelowThresholdSkipsGeneration(t *testing.T) {
	searcher := &fakeSearcher{results: []models.SearchResult{rosResult(0.42), rosResult(0.31)}}
	gen := &fakeGenerator{answer: "should never be called"}
	p, _ := newTestPipeline(searcher, gen, nil)

	answer, err := p.AnswerBookWide(context.Background(), BookQuery{Query: "Something tangential"})
	if err != nil {
		t.Fatalf("AnswerBookWide() error = %v", err)
	}
	if gen.calls != 0 {
		t.Errorf("Generation calls = %d, want 0 when all scores are below threshold", gen.calls)
	}
	if answer.Text == "" || strings.Contains(answer.Text, "couldn't find") {
		t.Errorf("Answer = %q, want the low-confidence fallback, distinct from no-results", answer.Text)
	}
	if len(answer.Sources) != 0 {
		t.Errorf("Sources = %d, want 0", len(answer.Sources))
	}
}

func TestAnswerBookWide_MixedScoresFilterBelowThreshold(t *testing.T) {
	high := rosResult(0.85)
	low := rosResult(0.5)
	low.SectionID = "foundations/index#overview"
	searcher := &fakeSearcher{results: []models.SearchResult{high, low}}
	gen := &fakeGenerator{answer: "answer"}
	p, _ := newTestPipeline(searcher, gen, nil)

	answer, err := p.AnswerBookWide(context.Background(), BookQuery{Query: "What is ROS 2?"})
	if err != nil {
		t.Fatalf("AnswerBookWide() error = %v", err)
	}
	if len(answer.Sources) != 1 {
		t.Fatalf("Sources = %d, want only the above-threshold chunk", len(answer.Sources))
	}
	if strings.Contains(gen.lastPrompt, "foundations/index#overview") {
		t.Error("Below-threshold chunk leaked into the generation context")
	}
}

func TestAnswerBookWide_Validation(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"empty", ""},
		{"whitespace only", "   \n\t"},
		{"over length cap", strings.Repeat("a", MaxQueryLength+1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			searcher := &fakeSearcher{}
			gen := &fakeGenerator{}
			p, emb := newTestPipeline(searcher, gen, nil)

			_, err := p.AnswerBookWide(context.Background(), BookQuery{Query: tt.query})
			var verr *apperr.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Expected ValidationError, got %v", err)
			}
			if emb.calls != 0 || searcher.calls != 0 || gen.calls != 0 {
				t.Error("Validation failures must not touch any backend")
			}
		})
	}
}

func TestAnswerBookWide_BackendFailures(t *testing.T) {
	t.Run("embedding failure", func(t *testing.T) {
		searcher := &fakeSearcher{}
		gen := &fakeGenerator{}
		p, emb := newTestPipeline(searcher, gen, nil)
		emb.err = errors.New("connection refused")

		_, err := p.AnswerBookWide(context.Background(), BookQuery{Query: "What is ROS 2?"})
		var uerr *apperr.UnavailableError
		if !errors.As(err, &uerr) {
			t.Fatalf("Expected UnavailableError, got %v", err)
		}
		if uerr.Service != "embedding" {
			t.Errorf("Service = %q, want embedding", uerr.Service)
		}
	})

	t.Run("search failure", func(t *testing.T) {
		searcher := &fakeSearcher{err: errors.New("deadline exceeded")}
		gen := &fakeGenerator{}
		p, _ := newTestPipeline(searcher, gen, nil)

		_, err := p.AnswerBookWide(context.Background(), BookQuery{Query: "What is ROS 2?"})
		var uerr *apperr.UnavailableError
		if !errors.As(err, &uerr) {
			t.Fatalf("Expected UnavailableError, got %v", err)
		}
		if uerr.Service != "search" {
			t.Errorf("Service = %q, want search", uerr.Service)
		}
	})

	t.Run("generation failure", func(t *testing.T) {
		searcher := &fakeSearcher{results: []models.SearchResult{rosResult(0.85)}}
		gen := &fakeGenerator{err: errors.New("rate limited")}
		p, _ := newTestPipeline(searcher, gen, nil)

		_, err := p.AnswerBookWide(context.Background(), BookQuery{Query: "What is ROS 2?"})
		var uerr *apperr.UnavailableError
		if !errors.As(err, &uerr) {
			t.Fatalf("Expected UnavailableError, got %v", err)
		}
		if uerr.Service != "generation" {
			t.Errorf("Service = %q, want generation", uerr.Service)
		}
	})
}

func TestAnswerBookWide_LongExcerptTruncated(t *testing.T) {
	r := rosResult(0.9)
	r.Content = strings.Repeat("x", 500)
	searcher := &fakeSearcher{results: []models.SearchResult{r}}
	gen := &fakeGenerator{answer: "answer"}
	p, _ := newTestPipeline(searcher, gen, nil)

	answer, err := p.AnswerBookWide(context.Background(), BookQuery{Query: "What is ROS 2?"})
	if err != nil {
		t.Fatalf("AnswerBookWide() error = %v", err)
	}
	got := answer.Sources[0].Excerpt
	if len(got) != excerptLength+3 || !strings.HasSuffix(got, "...") {
		t.Errorf("Excerpt length = %d, want %d plus ellipsis", len(got), excerptLength+3)
	}
}

func TestAnswerBookWide_ExcerptTruncatesOnRuneBoundary(t *testing.T) {
	// An em-dash starting at byte offset 199 straddles a byte-indexed cut
	r := rosResult(0.9)
	r.Content = strings.Repeat("x", 199) + "—" + strings.Repeat("y", 300)
	searcher := &fakeSearcher{results: []models.SearchResult{r}}
	gen := &fakeGenerator{answer: "answer"}
	sink := &fakeSink{}
	p, _ := newTestPipeline(searcher, gen, sink)

	answer, err := p.AnswerBookWide(context.Background(), BookQuery{Query: "What is ROS 2?"})
	if err != nil {
		t.Fatalf("AnswerBookWide() error = %v", err)
	}

	got := answer.Sources[0].Excerpt
	if !utf8.ValidString(got) {
		t.Fatalf("Excerpt is not valid UTF-8: %q", got)
	}
	if n := utf8.RuneCountInString(got); n != excerptLength+3 {
		t.Errorf("Excerpt runes = %d, want %d plus ellipsis", n, excerptLength+3)
	}
	if !strings.HasSuffix(got, "—...") {
		t.Errorf("Excerpt must keep the whole em-dash before the ellipsis, got %q", got[190:])
	}
	if logged := sink.entries[0].RetrievedChunks[0].Excerpt; !utf8.ValidString(logged) {
		t.Errorf("Logged excerpt is not valid UTF-8: %q", logged)
	}
}

func TestAnswerBookWide_QueryCapCountsCharacters(t *testing.T) {
	searcher := &fakeSearcher{}
	gen := &fakeGenerator{}
	p, emb := newTestPipeline(searcher, gen, nil)

	// Exactly at the cap in characters, far over it in bytes
	query := strings.Repeat("س", MaxQueryLength)
	if _, err := p.AnswerBookWide(context.Background(), BookQuery{Query: query}); err != nil {
		t.Fatalf("Query of %d non-Latin characters must pass validation, got %v", MaxQueryLength, err)
	}
	if emb.calls != 1 {
		t.Errorf("Embed calls = %d, want 1", emb.calls)
	}

	if _, err := p.AnswerBookWide(context.Background(), BookQuery{Query: query + "س"}); err == nil {
		t.Error("One character over the cap must fail validation")
	}
}

func TestAnswerSelection_SelectionCapCountsCharacters(t *testing.T) {
	gen := &fakeGenerator{answer: "answer"}
	p, _ := newTestPipeline(&fakeSearcher{}, gen, nil)

	selection := strings.Repeat("ع", MaxSelectionLength)
	_, err := p.AnswerSelection(context.Background(), SelectionQuery{
		Query:     "Explain",
		Selection: selection,
	})
	if err != nil {
		t.Fatalf("Selection of %d non-Latin characters must pass validation, got %v", MaxSelectionLength, err)
	}
	if gen.calls != 1 {
		t.Errorf("Generation calls = %d, want 1", gen.calls)
	}
}

func TestAnswerBookWide_ZeroThresholdAcceptsEverything(t *testing.T) {
	searcher := &fakeSearcher{results: []models.SearchResult{rosResult(0.1)}}
	gen := &fakeGenerator{answer: "answer"}
	p := NewPipeline(&fakeEmbedder{}, searcher, gen, nil, Config{
		TopK:                5,
		SimilarityThreshold: 0,
		MaxTokens:           2048,
	})

	answer, err := p.AnswerBookWide(context.Background(), BookQuery{Query: "What is ROS 2?"})
	if err != nil {
		t.Fatalf("AnswerBookWide() error = %v", err)
	}
	if gen.calls != 1 {
		t.Errorf("Generation calls = %d, want 1 with an explicit zero threshold", gen.calls)
	}
	if len(answer.Sources) != 1 {
		t.Errorf("Sources = %d, want the low-scoring chunk kept", len(answer.Sources))
	}
}

func TestAnswerBookWide_SinkFailureDoesNotFailQuery(t *testing.T) {
	searcher := &fakeSearcher{results: []models.SearchResult{rosResult(0.85)}}
	gen := &fakeGenerator{answer: "answer"}
	sink := &fakeSink{err: errors.New("disk full")}
	p, _ := newTestPipeline(searcher, gen, sink)

	answer, err := p.AnswerBookWide(context.Background(), BookQuery{Query: "What is ROS 2?"})
	if err != nil {
		t.Fatalf("Query must succeed despite sink failure, got %v", err)
	}
	if answer.Text != "answer" {
		t.Errorf("Answer = %q", answer.Text)
	}
}

func TestAnswerSelection_HappyPath(t *testing.T) {
	searcher := &fakeSearcher{}
	gen := &fakeGenerator{answer: "This passage describes ROS 2 nodes."}
	sink := &fakeSink{}
	p, emb := newTestPipeline(searcher, gen, sink)

	answer, err := p.AnswerSelection(context.Background(), SelectionQuery{
		Query:     "What does this mean?",
		Selection: "Nodes communicate over topics using a publish-subscribe model.",
	})
	if err != nil {
		t.Fatalf("AnswerSelection() error = %v", err)
	}
	if emb.calls != 0 || searcher.calls != 0 {
		t.Error("Selection mode must not embed or search")
	}
	if gen.calls != 1 {
		t.Errorf("Generation calls = %d, want 1", gen.calls)
	}
	if len(answer.Sources) != 0 {
		t.Errorf("Sources = %d, want 0 for selection mode", len(answer.Sources))
	}
	if !strings.Contains(gen.lastPrompt, "publish-subscribe") {
		t.Error("Selection text missing from the prompt")
	}
	if gen.lastOpts.MaxTokens != selectionMaxTokens {
		t.Errorf("MaxTokens = %d, want %d", gen.lastOpts.MaxTokens, selectionMaxTokens)
	}
	if len(sink.entries) != 1 || sink.entries[0].QueryMode != models.QueryModeSelection {
		t.Error("Selection query not logged with selection mode")
	}
}

func TestAnswerSelection_Validation(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		selection string
	}{
		{"empty query", "", "some text"},
		{"empty selection", "What?", ""},
		{"query over cap", strings.Repeat("a", MaxSelectionQueryLength+1), "some text"},
		{"selection over cap", "What?", strings.Repeat("a", MaxSelectionLength+1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &fakeGenerator{}
			p, _ := newTestPipeline(&fakeSearcher{}, gen, nil)

			_, err := p.AnswerSelection(context.Background(), SelectionQuery{
				Query:     tt.query,
				Selection: tt.selection,
			})
			var verr *apperr.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Expected ValidationError, got %v", err)
			}
			if gen.calls != 0 {
				t.Error("Validation failures must not call generation")
			}
		})
	}
}
