// ABOUTME: RAG query log persistence
// ABOUTME: Retrieved chunk digests are stored as a JSON column
package sqlite

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/harper/bookbrain/internal/models"
)

// QueryLogStore handles query log persistence
type QueryLogStore struct {
	db *DB
}

// NewQueryLogStore creates a new QueryLogStore
func NewQueryLogStore(db *DB) *QueryLogStore {
	return &QueryLogStore{db: db}
}

// Save writes one query log entry
func (s *QueryLogStore) Save(entry *models.QueryLogEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	var chunksJSON []byte
	if len(entry.RetrievedChunks) > 0 {
		var err error
		chunksJSON, err = json.Marshal(entry.RetrievedChunks)
		if err != nil {
			return err
		}
	}

	_, err := s.db.Exec(`
		INSERT INTO rag_query_log
			(id, user_id, query_text, query_mode, selected_text,
			 retrieved_chunks, response_text, response_time_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, entry.ID, nullString(entry.UserID), entry.QueryText, string(entry.QueryMode),
		nullString(entry.SelectedText), nullBytes(chunksJSON), entry.ResponseText,
		entry.ResponseTimeMS, entry.CreatedAt)

	return err
}

// Recent returns the most recent log entries, newest first
func (s *QueryLogStore) Recent(limit int) ([]models.QueryLogEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.Query(`
		SELECT id, user_id, query_text, query_mode, selected_text,
		       retrieved_chunks, response_text, response_time_ms, created_at
		FROM rag_query_log
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.QueryLogEntry
	for rows.Next() {
		var (
			entry      models.QueryLogEntry
			userID     sql.NullString
			selected   sql.NullString
			chunksJSON sql.NullString
			timeMS     sql.NullInt64
		)
		if err := rows.Scan(&entry.ID, &userID, &entry.QueryText, &entry.QueryMode,
			&selected, &chunksJSON, &entry.ResponseText, &timeMS, &entry.CreatedAt); err != nil {
			return nil, err
		}
		if userID.Valid {
			entry.UserID = userID.String
		}
		if selected.Valid {
			entry.SelectedText = selected.String
		}
		if timeMS.Valid {
			entry.ResponseTimeMS = int(timeMS.Int64)
		}
		if chunksJSON.Valid && chunksJSON.String != "" {
			if err := json.Unmarshal([]byte(chunksJSON.String), &entry.RetrievedChunks); err != nil {
				return nil, err
			}
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullBytes(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}
