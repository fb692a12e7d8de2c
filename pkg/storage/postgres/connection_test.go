package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReplicaURLs(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{"empty", "", nil},
		{"single", "postgres://replica1", []string{"postgres://replica1"}},
		{"multiple", "postgres://r1,postgres://r2", []string{"postgres://r1", "postgres://r2"}},
		{"spaces trimmed", " postgres://r1 , postgres://r2 ", []string{"postgres://r1", "postgres://r2"}},
		{"empty entries dropped", "postgres://r1,,", []string{"postgres://r1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseReplicaURLs(tt.input))
		})
	}
}

func TestReader_NoReplicasUsesPrimary(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	cm := &ConnectionManager{primary: db}
	assert.Same(t, db, cm.Reader())
	assert.Same(t, db, cm.Primary())
}

func TestReader_RoundRobinAcrossReplicas(t *testing.T) {
	primary, _, err := sqlmock.New()
	require.NoError(t, err)
	defer primary.Close()

	var replicas []*sql.DB
	for i := 0; i < 3; i++ {
		db, _, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		replicas = append(replicas, db)
	}

	cm := &ConnectionManager{primary: primary, replicas: replicas}

	seen := make(map[*sql.DB]int)
	for i := 0; i < 9; i++ {
		reader := cm.Reader()
		assert.NotSame(t, primary, reader, "reads must prefer replicas")
		seen[reader]++
	}
	require.Len(t, seen, 3)
	for _, count := range seen {
		assert.Equal(t, 3, count, "round-robin spreads evenly")
	}
}

func TestHealthCheck(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectPing()
	cm := &ConnectionManager{primary: db}
	assert.NoError(t, cm.HealthCheck(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHealthCheck_PrimaryDown(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	cm := &ConnectionManager{primary: db}

	err = cm.HealthCheck(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "primary unhealthy")
}

func TestHealthCheck_AllReplicasDown(t *testing.T) {
	primary, primaryMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer primary.Close()
	primaryMock.ExpectPing()

	replica, replicaMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer replica.Close()
	replicaMock.ExpectPing().WillReturnError(errors.New("connection refused"))

	cm := &ConnectionManager{primary: primary, replicas: []*sql.DB{replica}}

	err = cm.HealthCheck(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all replicas unhealthy")
}
