// ABOUTME: Reading progress persistence
// ABOUTME: One row per (user, section), upserted as the reader scrolls
package sqlite

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/harper/bookbrain/internal/models"
)

// ProgressStore handles reading progress persistence
type ProgressStore struct {
	db *DB
}

// NewProgressStore creates a new ProgressStore
func NewProgressStore(db *DB) *ProgressStore {
	return &ProgressStore{db: db}
}

// Upsert records progress for a (user, section) pair. Scroll percentage and
// time spent only ever grow; completed_at is set once when the section first
// counts as read.
func (s *ProgressStore) Upsert(progress *models.ReadingProgress) error {
	if progress.ID == "" {
		progress.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if progress.StartedAt.IsZero() {
		progress.StartedAt = now
	}
	if progress.CompletedAt == nil && progress.IsCompleted() {
		progress.CompletedAt = &now
	}

	_, err := s.db.Exec(`
		INSERT INTO reading_progress
			(id, user_id, section_id, started_at, completed_at,
			 time_spent_seconds, scroll_percentage)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, section_id) DO UPDATE SET
			completed_at = COALESCE(reading_progress.completed_at, excluded.completed_at),
			time_spent_seconds = MAX(reading_progress.time_spent_seconds, excluded.time_spent_seconds),
			scroll_percentage = MAX(reading_progress.scroll_percentage, excluded.scroll_percentage)
	`, progress.ID, progress.UserID, progress.SectionID, progress.StartedAt,
		nullTime(progress.CompletedAt), progress.TimeSpentSeconds, progress.ScrollPercentage)

	return err
}

// GetByUser returns all progress rows for a user
func (s *ProgressStore) GetByUser(userID string) ([]models.ReadingProgress, error) {
	rows, err := s.db.Query(`
		SELECT id, user_id, section_id, started_at, completed_at,
		       time_spent_seconds, scroll_percentage
		FROM reading_progress
		WHERE user_id = ?
		ORDER BY started_at
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ReadingProgress
	for rows.Next() {
		var (
			p         models.ReadingProgress
			completed sql.NullTime
		)
		if err := rows.Scan(&p.ID, &p.UserID, &p.SectionID, &p.StartedAt,
			&completed, &p.TimeSpentSeconds, &p.ScrollPercentage); err != nil {
			return nil, err
		}
		if completed.Valid {
			t := completed.Time
			p.CompletedAt = &t
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Get returns the progress row for one (user, section) pair, nil if absent
func (s *ProgressStore) Get(userID, sectionID string) (*models.ReadingProgress, error) {
	var (
		p         models.ReadingProgress
		completed sql.NullTime
	)
	err := s.db.QueryRow(`
		SELECT id, user_id, section_id, started_at, completed_at,
		       time_spent_seconds, scroll_percentage
		FROM reading_progress
		WHERE user_id = ? AND section_id = ?
	`, userID, sectionID).Scan(&p.ID, &p.UserID, &p.SectionID, &p.StartedAt,
		&completed, &p.TimeSpentSeconds, &p.ScrollPercentage)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if completed.Valid {
		t := completed.Time
		p.CompletedAt = &t
	}
	return &p, nil
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
