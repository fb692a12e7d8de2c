package storage

import (
	"context"
	"time"

	"github.com/platinummonkey/kenchiku/pkg/api"
)

// Store is the read surface the search service needs from the catalog
// database: pattern-match filters, membership filters, and range-limited
// paging on the four catalog tables. Implementations must treat every
// method as read-only.
type Store interface {
	// BuildingIDsMatching returns ids of buildings where any searchable text
	// column contains the keyword (case-insensitive), ordered by id, limited
	// to the [offset, offset+limit) window.
	BuildingIDsMatching(ctx context.Context, keyword string, offset, limit int) ([]int64, error)

	// ArchitectIDsMatchingName returns ids of individual architects whose
	// Japanese or English name contains the keyword (case-insensitive).
	ArchitectIDsMatchingName(ctx context.Context, keyword string, limit int) ([]int64, error)

	// ArchitectGroupIDs returns the distinct architect group ids that include
	// any of the given individual architects.
	ArchitectGroupIDs(ctx context.Context, individualIDs []int64, limit int) ([]int64, error)

	// BuildingIDsForGroups returns the distinct building ids credited to any
	// of the given architect groups.
	BuildingIDsForGroups(ctx context.Context, groupIDs []int64, limit int) ([]int64, error)

	// BuildingsByIDs bulk-fetches full building rows. Order of the result is
	// unspecified; callers re-order as needed.
	BuildingsByIDs(ctx context.Context, ids []int64) ([]*api.Building, error)

	// BuildingArchitects returns credit rows for the given buildings, ordered
	// by (building_id, architect_order).
	BuildingArchitects(ctx context.Context, buildingIDs []int64) ([]api.BuildingArchitect, error)

	// ArchitectCompositions returns membership rows for the given groups,
	// ordered by (architect_id, order_index).
	ArchitectCompositions(ctx context.Context, groupIDs []int64) ([]api.ArchitectComposition, error)

	// IndividualArchitectsByIDs bulk-fetches architect name rows.
	IndividualArchitectsByIDs(ctx context.Context, ids []int64) ([]api.IndividualArchitect, error)

	// HealthCheck verifies connectivity to the underlying database.
	HealthCheck(ctx context.Context) error

	// Close releases all connections.
	Close() error
}

// Config holds storage backend configuration.
type Config struct {
	// PostgreSQL
	PostgresURL         string
	PostgresReplicaURLs string
	PostgresMaxConns    int
	PostgresMinConns    int
	PostgresTimeout     time.Duration

	// Redis result cache (optional)
	RedisURL        string
	RedisPassword   string
	RedisDB         int
	RedisMaxRetries int
	RedisPoolSize   int

	// Response cache
	CacheEnabled bool
	CacheTTL     time.Duration
	L1CacheSize  int
}

// DefaultConfig returns the default storage configuration.
func DefaultConfig() Config {
	return Config{
		PostgresMaxConns: 25,
		PostgresMinConns: 5,
		PostgresTimeout:  10 * time.Second,
		RedisDB:          0,
		CacheEnabled:     true,
		CacheTTL:         5 * time.Minute,
		L1CacheSize:      256,
	}
}
