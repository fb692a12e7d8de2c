package analytics

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Recorder writes one row per completed search into search_history.
// Recording is best-effort; callers log and ignore errors.
type Recorder struct {
	db *sql.DB
}

// NewRecorder creates a search history recorder.
func NewRecorder(db *sql.DB) *Recorder {
	return &Recorder{db: db}
}

// RecordSearch inserts a history row for a completed search.
func (r *Recorder) RecordSearch(ctx context.Context, query string, keywordCount, resultCount int, duration time.Duration) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO search_history (query, keyword_count, result_count, duration_ms, created_at)
		VALUES ($1, $2, $3, $4, NOW())
	`, query, keywordCount, resultCount, duration.Milliseconds())
	if err != nil {
		return fmt.Errorf("failed to record search: %w", err)
	}
	return nil
}
