// ABOUTME: SQLite database schema for the bookbrain backend
// ABOUTME: Translation cache, query log, reading progress, and user profiles
package sqlite

// Schema contains all SQL statements for database initialization
const Schema = `
-- Translation cache: one row per (section, language, content version).
-- The unique triple makes concurrent first-misses race-safe: the losing
-- insert conflicts and the loser re-reads the winner's row.
CREATE TABLE IF NOT EXISTS translation_cache (
    id TEXT PRIMARY KEY,
    section_id TEXT NOT NULL,
    target_language TEXT NOT NULL,
    content_hash TEXT NOT NULL,
    original_content TEXT NOT NULL,
    translated_content TEXT NOT NULL,
    access_count INTEGER NOT NULL DEFAULT 0,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    last_accessed_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    UNIQUE(section_id, target_language, content_hash)
);

-- RAG query log (side-effect sink; pipeline writes are best-effort)
CREATE TABLE IF NOT EXISTS rag_query_log (
    id TEXT PRIMARY KEY,
    user_id TEXT,
    query_text TEXT NOT NULL,
    query_mode TEXT NOT NULL,
    selected_text TEXT,
    retrieved_chunks TEXT,
    response_text TEXT NOT NULL,
    response_time_ms INTEGER,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

-- Reading progress per user and section
CREATE TABLE IF NOT EXISTS reading_progress (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    section_id TEXT NOT NULL,
    started_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    completed_at DATETIME,
    time_spent_seconds INTEGER NOT NULL DEFAULT 0,
    scroll_percentage REAL NOT NULL DEFAULT 0.0,
    UNIQUE(user_id, section_id)
);

-- User profiles for the personalization engine
CREATE TABLE IF NOT EXISTS user_profiles (
    id TEXT PRIMARY KEY,
    email TEXT NOT NULL UNIQUE,
    has_rtx_gpu INTEGER NOT NULL DEFAULT 0,
    jetson_model TEXT NOT NULL DEFAULT 'none',
    robot_type TEXT NOT NULL DEFAULT 'none',
    has_realsense INTEGER NOT NULL DEFAULT 0,
    has_lidar INTEGER NOT NULL DEFAULT 0,
    exp_ros2 TEXT NOT NULL DEFAULT 'none',
    exp_ml TEXT NOT NULL DEFAULT 'none',
    exp_robotics TEXT NOT NULL DEFAULT 'none',
    exp_simulation TEXT NOT NULL DEFAULT 'none',
    pref_language TEXT NOT NULL DEFAULT 'en',
    pref_theme TEXT NOT NULL DEFAULT 'light',
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

-- Indexes for efficient querying
CREATE INDEX IF NOT EXISTS idx_translation_section ON translation_cache(section_id);
CREATE INDEX IF NOT EXISTS idx_translation_lang ON translation_cache(target_language);
CREATE INDEX IF NOT EXISTS idx_querylog_user ON rag_query_log(user_id);
CREATE INDEX IF NOT EXISTS idx_querylog_created ON rag_query_log(created_at);
CREATE INDEX IF NOT EXISTS idx_progress_user ON reading_progress(user_id);
CREATE INDEX IF NOT EXISTS idx_progress_section ON reading_progress(section_id);
`

// SchemaVersion is the current schema version
const SchemaVersion = 1
