// ABOUTME: Content-hash-keyed memoization in front of the translation LLM call
// ABOUTME: Editing source content changes the hash, so stale translations can never be served
package translation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/harper/bookbrain/internal/apperr"
	"github.com/harper/bookbrain/internal/llm"
	"github.com/harper/bookbrain/internal/models"
)

const translationTemperature = 0.3

const systemPromptTmpl = `You are a professional technical translator for a robotics textbook.
Translate the following Markdown content from English to %s.

CRITICAL RULES:
1. DO NOT translate code blocks (text between ` + "```" + ` markers)
2. DO NOT translate commands, file paths, or URLs
3. DO NOT translate technical terms: ROS 2, Isaac Sim, URDF, Gazebo, Unity, Jetson, NVIDIA
4. DO translate headings, paragraphs, list items, and table text
5. Preserve all Markdown formatting (**, ##, -, |, etc.)
6. Maintain the exact structure of the document

If translating to Urdu or Arabic:
- Use proper right-to-left script
- Keep technical terms in English/Latin script
- Ensure proper grammar and natural phrasing`

// Generator runs one translation completion
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string, opts llm.GenerateOptions) (string, error)
}

// Cache is the persistence surface the service needs
type Cache interface {
	Get(sectionID string, lang models.Language, contentHash string) (*models.TranslationCacheEntry, error)
	Insert(entry *models.TranslationCacheEntry) (*models.TranslationCacheEntry, bool, error)
	Touch(id string) error
}

// Service translates section content, memoizing results by content hash
type Service struct {
	generator Generator
	cache     Cache
	docsDir   string
}

// NewService creates a translation service. docsDir is where section source
// files live; it is only consulted when the caller does not supply content.
func NewService(generator Generator, cache Cache, docsDir string) *Service {
	return &Service{generator: generator, cache: cache, docsDir: docsDir}
}

// Request asks for one section's translation. Content is optional; when empty
// the service loads the section's source file from the docs directory.
type Request struct {
	SectionID      string
	TargetLanguage string
	Content        string
}

// Result carries the translation plus cache diagnostics
type Result struct {
	TranslatedContent string `json:"translated_content"`
	CacheHit          bool   `json:"cache_hit"`
	TranslationTimeMS int    `json:"translation_time_ms"`
}

// Translate returns the section's content in the target language. Identical
// (section, language, content) triples hit the cache and cost no LLM call.
func (s *Service) Translate(ctx context.Context, req Request) (*Result, error) {
	if strings.TrimSpace(req.SectionID) == "" {
		return nil, apperr.Invalid("section_id", "must not be empty")
	}
	lang, err := models.ParseTargetLanguage(req.TargetLanguage)
	if err != nil {
		return nil, apperr.Invalid("target_language", err.Error())
	}
	started := time.Now()

	content := req.Content
	if content == "" {
		content, err = s.loadSection(req.SectionID)
		if err != nil {
			return nil, err
		}
	}

	hash := ContentHash(content)

	cached, err := s.cache.Get(req.SectionID, lang, hash)
	if err != nil {
		return nil, apperr.Unavailable("translation cache", err)
	}
	if cached != nil {
		if err := s.cache.Touch(cached.ID); err != nil {
			log.Printf("Warning: failed to record cache hit for %s: %v", cached.ID, err)
		}
		return &Result{
			TranslatedContent: cached.TranslatedContent,
			CacheHit:          true,
			TranslationTimeMS: int(time.Since(started).Milliseconds()),
		}, nil
	}

	translated, err := s.generate(ctx, lang, content)
	if err != nil {
		return nil, apperr.Unavailable("generation", err)
	}

	entry := &models.TranslationCacheEntry{
		SectionID:         req.SectionID,
		TargetLanguage:    lang,
		ContentHash:       hash,
		OriginalContent:   content,
		TranslatedContent: translated,
		AccessCount:       1,
	}
	// A concurrent request may have inserted the same triple first. Both calls
	// paid for a generation; the winner's row is what everyone serves.
	stored, created, err := s.cache.Insert(entry)
	if err != nil {
		return nil, apperr.Unavailable("translation cache", err)
	}
	if !created {
		translated = stored.TranslatedContent
	}

	return &Result{
		TranslatedContent: translated,
		CacheHit:          false,
		TranslationTimeMS: int(time.Since(started).Milliseconds()),
	}, nil
}

func (s *Service) generate(ctx context.Context, lang models.Language, content string) (string, error) {
	systemPrompt := fmt.Sprintf(systemPromptTmpl, lang.Name())
	userPrompt := fmt.Sprintf(`Translate this content to %s:

%s

Remember: Keep code blocks, commands, and technical terms in English.`, lang.Name(), content)

	return s.generator.Generate(ctx, systemPrompt, userPrompt, llm.GenerateOptions{
		Temperature: translationTemperature,
	})
}

// loadSection resolves a section ID like "modules/ros2/index#what-is-ros-2"
// to its source file under the docs directory and returns the file's content.
func (s *Service) loadSection(sectionID string) (string, error) {
	relPath := sectionID
	if i := strings.IndexByte(sectionID, '#'); i >= 0 {
		relPath = sectionID[:i]
	}
	if relPath == "" || strings.Contains(relPath, "..") {
		return "", apperr.Invalid("section_id", "malformed section path")
	}

	for _, ext := range []string{".md", ".mdx"} {
		data, err := os.ReadFile(filepath.Join(s.docsDir, relPath+ext))
		if err == nil {
			return string(data), nil
		}
		if !os.IsNotExist(err) {
			return "", fmt.Errorf("read section %s: %w", sectionID, err)
		}
	}
	return "", apperr.NotFound("section", sectionID)
}

// ContentHash returns the hex SHA-256 of content, the cache key's third leg
func ContentHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
