package analytics

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Aggregator rolls search_history up into daily statistics and refreshes
// the popular-query ranking. It runs from the aggregator binary on a cron
// schedule.
type Aggregator struct {
	db *sql.DB
}

// NewAggregator creates a new aggregator.
func NewAggregator(db *sql.DB) *Aggregator {
	return &Aggregator{db: db}
}

// AggregateSearchStatsDaily computes per-day search statistics for the
// given date. Re-running for the same date overwrites the previous roll-up.
func (a *Aggregator) AggregateSearchStatsDaily(ctx context.Context, date time.Time) error {
	query := `
		INSERT INTO search_stats_daily (
			date, search_count, zero_result_count,
			avg_keyword_count, avg_result_count, avg_duration_ms
		)
		SELECT
			$1::date AS date,
			COUNT(*) AS search_count,
			COUNT(*) FILTER (WHERE result_count = 0) AS zero_result_count,
			COALESCE(AVG(keyword_count), 0) AS avg_keyword_count,
			COALESCE(AVG(result_count), 0) AS avg_result_count,
			COALESCE(AVG(duration_ms), 0)::integer AS avg_duration_ms
		FROM search_history
		WHERE created_at >= $1::date
			AND created_at < $1::date + INTERVAL '1 day'
		ON CONFLICT (date) DO UPDATE SET
			search_count = EXCLUDED.search_count,
			zero_result_count = EXCLUDED.zero_result_count,
			avg_keyword_count = EXCLUDED.avg_keyword_count,
			avg_result_count = EXCLUDED.avg_result_count,
			avg_duration_ms = EXCLUDED.avg_duration_ms
	`
	if _, err := a.db.ExecContext(ctx, query, date.Format("2006-01-02")); err != nil {
		return fmt.Errorf("failed to aggregate daily search stats: %w", err)
	}
	return nil
}

// RefreshPopularQueries rebuilds the popular_queries ranking from the last
// 30 days of history.
func (a *Aggregator) RefreshPopularQueries(ctx context.Context) error {
	query := `
		INSERT INTO popular_queries (query, search_count, last_searched_at)
		SELECT query, COUNT(*), MAX(created_at)
		FROM search_history
		WHERE created_at >= NOW() - INTERVAL '30 days'
		GROUP BY query
		ON CONFLICT (query) DO UPDATE SET
			search_count = EXCLUDED.search_count,
			last_searched_at = EXCLUDED.last_searched_at
	`
	if _, err := a.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to refresh popular queries: %w", err)
	}
	return nil
}

// PruneHistory deletes history rows older than the retention window.
func (a *Aggregator) PruneHistory(ctx context.Context, retention time.Duration) (int64, error) {
	result, err := a.db.ExecContext(ctx,
		`DELETE FROM search_history WHERE created_at < NOW() - $1::interval`,
		fmt.Sprintf("%d seconds", int64(retention.Seconds())),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to prune search history: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return rows, nil
}
