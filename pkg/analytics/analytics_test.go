package analytics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (sqlmock.Sqlmock, *Recorder, *Aggregator) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return mock, NewRecorder(db), NewAggregator(db)
}

func TestRecordSearch(t *testing.T) {
	mock, recorder, _ := newMockDB(t)

	mock.ExpectExec("INSERT INTO search_history").
		WithArgs("tower osaka", 2, 17, int64(42)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := recorder.RecordSearch(context.Background(), "tower osaka", 2, 17, 42*time.Millisecond)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordSearch_Error(t *testing.T) {
	mock, recorder, _ := newMockDB(t)

	mock.ExpectExec("INSERT INTO search_history").
		WillReturnError(errors.New("table missing"))

	err := recorder.RecordSearch(context.Background(), "q", 1, 0, time.Millisecond)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to record search")
}

func TestAggregateSearchStatsDaily(t *testing.T) {
	mock, _, aggregator := newMockDB(t)

	mock.ExpectExec("INSERT INTO search_stats_daily").
		WithArgs("2026-08-23").
		WillReturnResult(sqlmock.NewResult(0, 1))

	date := time.Date(2026, 8, 23, 0, 0, 0, 0, time.UTC)
	require.NoError(t, aggregator.AggregateSearchStatsDaily(context.Background(), date))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshPopularQueries(t *testing.T) {
	mock, _, aggregator := newMockDB(t)

	mock.ExpectExec("INSERT INTO popular_queries").
		WillReturnResult(sqlmock.NewResult(0, 12))

	require.NoError(t, aggregator.RefreshPopularQueries(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPruneHistory(t *testing.T) {
	mock, _, aggregator := newMockDB(t)

	mock.ExpectExec("DELETE FROM search_history").
		WithArgs("7776000 seconds").
		WillReturnResult(sqlmock.NewResult(0, 340))

	pruned, err := aggregator.PruneHistory(context.Background(), 90*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(340), pruned)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPruneHistory_Error(t *testing.T) {
	mock, _, aggregator := newMockDB(t)

	mock.ExpectExec("DELETE FROM search_history").
		WillReturnError(errors.New("deadlock detected"))

	_, err := aggregator.PruneHistory(context.Background(), time.Hour)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to prune search history")
}
