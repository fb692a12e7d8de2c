package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/platinummonkey/kenchiku/pkg/api"
	"github.com/platinummonkey/kenchiku/pkg/observability"
)

// searchColumns are the building text columns matched by keyword search.
var searchColumns = []string{
	"title", "title_en",
	"building_types", "building_types_en",
	"prefectures", "prefectures_en",
	"areas", "areas_en",
	"location", "location_en",
}

// Store implements storage.Store against PostgreSQL.
type Store struct {
	conns   *ConnectionManager
	logger  *observability.Logger
	metrics *observability.Metrics

	buildingMatchQuery string
}

// NewStore creates a PostgreSQL-backed store. metrics may be nil.
func NewStore(conns *ConnectionManager, logger *observability.Logger, metrics *observability.Metrics) *Store {
	return &Store{
		conns:              conns,
		logger:             logger,
		metrics:            metrics,
		buildingMatchQuery: buildBuildingMatchQuery(),
	}
}

// NewStoreFromDB creates a store over a single already-open connection,
// with no replicas. Used by tests and embedded setups.
func NewStoreFromDB(db *sql.DB, logger *observability.Logger, metrics *observability.Metrics) *Store {
	return NewStore(&ConnectionManager{primary: db, logger: logger}, logger, metrics)
}

func buildBuildingMatchQuery() string {
	conditions := make([]string, len(searchColumns))
	for i, col := range searchColumns {
		conditions[i] = col + " ILIKE $1"
	}
	return fmt.Sprintf(
		"SELECT id FROM buildings WHERE %s ORDER BY id LIMIT $2 OFFSET $3",
		strings.Join(conditions, " OR "),
	)
}

// escapeLikePattern escapes LIKE metacharacters so keywords match literally.
func escapeLikePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func containsPattern(keyword string) string {
	return "%" + escapeLikePattern(keyword) + "%"
}

// observe records operation metrics when metrics are configured.
func (s *Store) observe(operation string, start time.Time, err error) {
	if s.metrics == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	s.metrics.StorageOperationsTotal.WithLabelValues(operation, status).Inc()
	s.metrics.StorageOperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// BuildingIDsMatching implements storage.Store.
func (s *Store) BuildingIDsMatching(ctx context.Context, keyword string, offset, limit int) (ids []int64, err error) {
	defer func(start time.Time) { s.observe("building_ids_matching", start, err) }(time.Now())

	rows, err := s.conns.Reader().QueryContext(ctx, s.buildingMatchQuery, containsPattern(keyword), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query buildings for keyword: %w", err)
	}
	defer rows.Close()
	return scanIDs(rows)
}

// ArchitectIDsMatchingName implements storage.Store.
func (s *Store) ArchitectIDsMatchingName(ctx context.Context, keyword string, limit int) (ids []int64, err error) {
	defer func(start time.Time) { s.observe("architect_ids_matching_name", start, err) }(time.Now())

	query := `
		SELECT id FROM individual_architects
		WHERE name_ja ILIKE $1 OR name_en ILIKE $1
		ORDER BY id
		LIMIT $2
	`
	rows, err := s.conns.Reader().QueryContext(ctx, query, containsPattern(keyword), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query architects by name: %w", err)
	}
	defer rows.Close()
	return scanIDs(rows)
}

// ArchitectGroupIDs implements storage.Store.
func (s *Store) ArchitectGroupIDs(ctx context.Context, individualIDs []int64, limit int) (ids []int64, err error) {
	defer func(start time.Time) { s.observe("architect_group_ids", start, err) }(time.Now())

	if len(individualIDs) == 0 {
		return nil, nil
	}
	query := `
		SELECT DISTINCT architect_id FROM architect_compositions
		WHERE individual_architect_id = ANY($1)
		ORDER BY architect_id
		LIMIT $2
	`
	rows, err := s.conns.Reader().QueryContext(ctx, query, pq.Array(individualIDs), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query architect groups: %w", err)
	}
	defer rows.Close()
	return scanIDs(rows)
}

// BuildingIDsForGroups implements storage.Store.
func (s *Store) BuildingIDsForGroups(ctx context.Context, groupIDs []int64, limit int) (ids []int64, err error) {
	defer func(start time.Time) { s.observe("building_ids_for_groups", start, err) }(time.Now())

	if len(groupIDs) == 0 {
		return nil, nil
	}
	query := `
		SELECT DISTINCT building_id FROM building_architects
		WHERE architect_id = ANY($1)
		ORDER BY building_id
		LIMIT $2
	`
	rows, err := s.conns.Reader().QueryContext(ctx, query, pq.Array(groupIDs), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query buildings for architect groups: %w", err)
	}
	defer rows.Close()
	return scanIDs(rows)
}

// BuildingsByIDs implements storage.Store.
func (s *Store) BuildingsByIDs(ctx context.Context, ids []int64) (buildings []*api.Building, err error) {
	defer func(start time.Time) { s.observe("buildings_by_ids", start, err) }(time.Now())

	if len(ids) == 0 {
		return nil, nil
	}
	query := `
		SELECT
			id,
			COALESCE(title, ''), COALESCE(title_en, ''),
			COALESCE(building_types, ''), COALESCE(building_types_en, ''),
			COALESCE(prefectures, ''), COALESCE(prefectures_en, ''),
			COALESCE(areas, ''), COALESCE(areas_en, ''),
			COALESCE(location, ''), COALESCE(location_en, ''),
			COALESCE(lat, 0), COALESCE(lng, 0),
			COALESCE(thumbnail_url, ''),
			COALESCE(photo_urls, '{}'),
			COALESCE(completion_years, '')
		FROM buildings
		WHERE id = ANY($1)
	`
	rows, err := s.conns.Reader().QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to query buildings: %w", err)
	}
	defer rows.Close()

	buildings = make([]*api.Building, 0, len(ids))
	for rows.Next() {
		var b api.Building
		if err := rows.Scan(
			&b.ID,
			&b.Title, &b.TitleEn,
			&b.BuildingTypes, &b.BuildingTypesEn,
			&b.Prefectures, &b.PrefecturesEn,
			&b.Areas, &b.AreasEn,
			&b.Location, &b.LocationEn,
			&b.Lat, &b.Lng,
			&b.ThumbnailURL,
			pq.Array(&b.PhotoURLs),
			&b.CompletionYears,
		); err != nil {
			return nil, fmt.Errorf("failed to scan building row: %w", err)
		}
		buildings = append(buildings, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating building rows: %w", err)
	}
	return buildings, nil
}

// BuildingArchitects implements storage.Store.
func (s *Store) BuildingArchitects(ctx context.Context, buildingIDs []int64) (links []api.BuildingArchitect, err error) {
	defer func(start time.Time) { s.observe("building_architects", start, err) }(time.Now())

	if len(buildingIDs) == 0 {
		return nil, nil
	}
	query := `
		SELECT building_id, architect_id, architect_order
		FROM building_architects
		WHERE building_id = ANY($1)
		ORDER BY building_id, architect_order
	`
	rows, err := s.conns.Reader().QueryContext(ctx, query, pq.Array(buildingIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to query building architects: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var link api.BuildingArchitect
		if err := rows.Scan(&link.BuildingID, &link.ArchitectID, &link.ArchitectOrder); err != nil {
			return nil, fmt.Errorf("failed to scan building architect row: %w", err)
		}
		links = append(links, link)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating building architect rows: %w", err)
	}
	return links, nil
}

// ArchitectCompositions implements storage.Store.
func (s *Store) ArchitectCompositions(ctx context.Context, groupIDs []int64) (compositions []api.ArchitectComposition, err error) {
	defer func(start time.Time) { s.observe("architect_compositions", start, err) }(time.Now())

	if len(groupIDs) == 0 {
		return nil, nil
	}
	query := `
		SELECT architect_id, individual_architect_id, order_index
		FROM architect_compositions
		WHERE architect_id = ANY($1)
		ORDER BY architect_id, order_index
	`
	rows, err := s.conns.Reader().QueryContext(ctx, query, pq.Array(groupIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to query architect compositions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c api.ArchitectComposition
		if err := rows.Scan(&c.ArchitectID, &c.IndividualArchitectID, &c.OrderIndex); err != nil {
			return nil, fmt.Errorf("failed to scan architect composition row: %w", err)
		}
		compositions = append(compositions, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating architect composition rows: %w", err)
	}
	return compositions, nil
}

// IndividualArchitectsByIDs implements storage.Store.
func (s *Store) IndividualArchitectsByIDs(ctx context.Context, ids []int64) (architects []api.IndividualArchitect, err error) {
	defer func(start time.Time) { s.observe("individual_architects_by_ids", start, err) }(time.Now())

	if len(ids) == 0 {
		return nil, nil
	}
	query := `
		SELECT id, COALESCE(name_ja, ''), COALESCE(name_en, '')
		FROM individual_architects
		WHERE id = ANY($1)
	`
	rows, err := s.conns.Reader().QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to query individual architects: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var a api.IndividualArchitect
		if err := rows.Scan(&a.ID, &a.NameJa, &a.NameEn); err != nil {
			return nil, fmt.Errorf("failed to scan individual architect row: %w", err)
		}
		architects = append(architects, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating individual architect rows: %w", err)
	}
	return architects, nil
}

// HealthCheck implements storage.Store.
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.conns.HealthCheck(ctx)
}

// Close implements storage.Store.
func (s *Store) Close() error {
	return s.conns.Close()
}

func scanIDs(rows *sql.Rows) ([]int64, error) {
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return ids, nil
}
