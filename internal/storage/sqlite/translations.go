// ABOUTME: Translation cache persistence
// ABOUTME: Rows are immutable except for access bookkeeping; eviction is content-hash-driven
package sqlite

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/harper/bookbrain/internal/models"
)

// TranslationStore handles translation cache persistence
type TranslationStore struct {
	db *DB
}

// NewTranslationStore creates a new TranslationStore
func NewTranslationStore(db *DB) *TranslationStore {
	return &TranslationStore{db: db}
}

// Get retrieves the cache entry matching the full key triple. Returns nil
// without error when no row matches.
func (s *TranslationStore) Get(sectionID string, lang models.Language, contentHash string) (*models.TranslationCacheEntry, error) {
	var entry models.TranslationCacheEntry

	err := s.db.QueryRow(`
		SELECT id, section_id, target_language, content_hash,
		       original_content, translated_content, access_count,
		       created_at, last_accessed_at
		FROM translation_cache
		WHERE section_id = ? AND target_language = ? AND content_hash = ?
	`, sectionID, string(lang), contentHash).Scan(
		&entry.ID, &entry.SectionID, &entry.TargetLanguage, &entry.ContentHash,
		&entry.OriginalContent, &entry.TranslatedContent, &entry.AccessCount,
		&entry.CreatedAt, &entry.LastAccessedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// Insert stores a fresh translation. If a concurrent request already inserted
// the same key triple, the unique constraint fires and the winner's row is
// returned instead, with created=false.
func (s *TranslationStore) Insert(entry *models.TranslationCacheEntry) (*models.TranslationCacheEntry, bool, error) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	if entry.LastAccessedAt.IsZero() {
		entry.LastAccessedAt = now
	}

	_, err := s.db.Exec(`
		INSERT INTO translation_cache
			(id, section_id, target_language, content_hash,
			 original_content, translated_content, access_count,
			 created_at, last_accessed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, entry.ID, entry.SectionID, string(entry.TargetLanguage), entry.ContentHash,
		entry.OriginalContent, entry.TranslatedContent, entry.AccessCount,
		entry.CreatedAt, entry.LastAccessedAt)

	if err != nil {
		if isUniqueViolation(err) {
			existing, getErr := s.Get(entry.SectionID, entry.TargetLanguage, entry.ContentHash)
			if getErr != nil {
				return nil, false, getErr
			}
			if existing != nil {
				return existing, false, nil
			}
		}
		return nil, false, err
	}
	return entry, true, nil
}

// Touch records a cache hit: bumps access_count and last_accessed_at
func (s *TranslationStore) Touch(id string) error {
	_, err := s.db.Exec(`
		UPDATE translation_cache
		SET access_count = access_count + 1, last_accessed_at = ?
		WHERE id = ?
	`, time.Now().UTC(), id)
	return err
}

// DeleteBySection removes all cached translations for a section, every
// language and content version included. Used by the purge command.
func (s *TranslationStore) DeleteBySection(sectionID string) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM translation_cache WHERE section_id = ?`, sectionID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CountBySection returns how many cache rows exist for a section
func (s *TranslationStore) CountBySection(sectionID string) (int, error) {
	var n int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM translation_cache WHERE section_id = ?
	`, sectionID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count translations: %w", err)
	}
	return n, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
