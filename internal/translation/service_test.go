// ABOUTME: Tests for the translation service
// ABOUTME: Asserts the single-generation-call memoization contract end to end
package translation

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/harper/bookbrain/internal/apperr"
	"github.com/harper/bookbrain/internal/llm"
	"github.com/harper/bookbrain/internal/models"
	"github.com/harper/bookbrain/internal/storage/sqlite"
)

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

func newTestService(t *testing.T, gen *fakeGenerator) *Service {
	t.Helper()
	db, err := sqlite.OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewService(gen, sqlite.NewTranslationStore(db), t.TempDir())
}

func TestTranslate_MissThenHit(t *testing.T) {
	gen := &fakeGenerator{answer: "translated markdown"}
	svc := newTestService(t, gen)

	req := Request{
		SectionID:      "modules/ros2/index#what-is-ros-2",
		TargetLanguage: "ur",
		Content:        "# What is ROS 2\n\nROS 2 is a robotics middleware.",
	}

	first, err := svc.Translate(context.Background(), req)
	if err != nil {
		t.Fatalf("First Translate() error = %v", err)
	}
	if first.CacheHit {
		t.Error("First call must be a cache miss")
	}
	if first.TranslatedContent != "translated markdown" {
		t.Errorf("TranslatedContent = %q", first.TranslatedContent)
	}

	second, err := svc.Translate(context.Background(), req)
	if err != nil {
		t.Fatalf("Second Translate() error = %v", err)
	}
	if !second.CacheHit {
		t.Error("Second identical call must be a cache hit")
	}
	if second.TranslatedContent != first.TranslatedContent {
		t.Error("Cache hit changed the stored translation")
	}
	if gen.calls != 1 {
		t.Errorf("Generation calls = %d, want exactly 1 across both requests", gen.calls)
	}
}

func TestTranslate_HitBumpsAccessCount(t *testing.T) {
	gen := &fakeGenerator{answer: "translated"}
	db, err := sqlite.OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	store := sqlite.NewTranslationStore(db)
	svc := NewService(gen, store, t.TempDir())

	req := Request{SectionID: "sec", TargetLanguage: "fr", Content: "Hello"}
	if _, err := svc.Translate(context.Background(), req); err != nil {
		t.Fatalf("Translate() error = %v", err)
	}
	if _, err := svc.Translate(context.Background(), req); err != nil {
		t.Fatalf("Translate() error = %v", err)
	}

	entry, err := store.Get("sec", models.LanguageFrench, ContentHash("Hello"))
	if err != nil || entry == nil {
		t.Fatalf("Get() entry=%v err=%v", entry, err)
	}
	if entry.AccessCount != 2 {
		t.Errorf("AccessCount = %d, want 2", entry.AccessCount)
	}
}

func TestTranslate_ChangedContentIsMiss(t *testing.T) {
	gen := &fakeGenerator{answer: "translated"}
	svc := newTestService(t, gen)

	base := Request{SectionID: "sec", TargetLanguage: "de", Content: "Version one."}
	if _, err := svc.Translate(context.Background(), base); err != nil {
		t.Fatalf("Translate() error = %v", err)
	}

	edited := base
	edited.Content = "Version one!"
	res, err := svc.Translate(context.Background(), edited)
	if err != nil {
		t.Fatalf("Translate() error = %v", err)
	}
	if res.CacheHit {
		t.Error("Edited content must miss the cache even for the same section and language")
	}
	if gen.calls != 2 {
		t.Errorf("Generation calls = %d, want 2", gen.calls)
	}
}

func TestTranslate_PromptRules(t *testing.T) {
	gen := &fakeGenerator{answer: "translated"}
	svc := newTestService(t, gen)

	req := Request{SectionID: "sec", TargetLanguage: "ur", Content: "content"}
	if _, err := svc.Translate(context.Background(), req); err != nil {
		t.Fatalf("Translate() error = %v", err)
	}

	if !strings.Contains(gen.lastSystem, "Urdu") {
		t.Error("System prompt missing target language name")
	}
	if !strings.Contains(gen.lastSystem, "DO NOT translate code blocks") {
		t.Error("System prompt missing the code block rule")
	}
	if !strings.Contains(gen.lastSystem, "ROS 2, Isaac Sim, URDF") {
		t.Error("System prompt missing the protected term list")
	}
	if gen.lastOpts.Temperature != 0.3 {
		t.Errorf("Temperature = %v, want 0.3", gen.lastOpts.Temperature)
	}
}

func TestTranslate_Validation(t *testing.T) {
	tests := []struct {
		name string
		req  Request
	}{
		{"empty section", Request{SectionID: "", TargetLanguage: "ur", Content: "x"}},
		{"unsupported language", Request{SectionID: "sec", TargetLanguage: "zz", Content: "x"}},
		{"english as target", Request{SectionID: "sec", TargetLanguage: "en", Content: "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &fakeGenerator{}
			svc := newTestService(t, gen)

			_, err := svc.Translate(context.Background(), tt.req)
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

func TestTranslate_MissingSectionFile(t *testing.T) {
	gen := &fakeGenerator{}
	svc := newTestService(t, gen)

	_, err := svc.Translate(context.Background(), Request{
		SectionID:      "modules/missing/index#intro",
		TargetLanguage: "fr",
	})
	var nerr *apperr.NotFoundError
	if !errors.As(err, &nerr) {
		t.Fatalf("Expected NotFoundError, got %v", err)
	}
	if gen.calls != 0 {
		t.Error("Missing section must not call generation")
	}
}

func TestTranslate_GenerationFailure(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("rate limited")}
	svc := newTestService(t, gen)

	_, err := svc.Translate(context.Background(), Request{
		SectionID: "sec", TargetLanguage: "ar", Content: "x",
	})
	var uerr *apperr.UnavailableError
	if !errors.As(err, &uerr) {
		t.Fatalf("Expected UnavailableError, got %v", err)
	}
	if uerr.Service != "generation" {
		t.Errorf("Service = %q", uerr.Service)
	}
}

func TestContentHash_Stable(t *testing.T) {
	a := ContentHash("same content")
	b := ContentHash("same content")
	c := ContentHash("different content")

	if a != b {
		t.Error("Identical content must hash identically")
	}
	if a == c {
		t.Error("Different content must hash differently")
	}
	if len(a) != 64 {
		t.Errorf("Hash length = %d, want 64 hex chars", len(a))
	}
}
