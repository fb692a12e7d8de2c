package search

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/platinummonkey/kenchiku/pkg/api"
	"github.com/platinummonkey/kenchiku/pkg/observability"
)

// nameSeparator joins member names within a group and group strings on a
// building.
const nameSeparator = " / "

// assembleArchitects fills ArchitectsJa/ArchitectsEn on the hydrated page.
// It walks the credit chain in three bulk lookups: building_architects for
// the page, compositions for the distinct groups, then the individual name
// rows. A failure at any step leaves the affected buildings with empty
// architect strings; the search result itself is unaffected.
func (s *Service) assembleArchitects(ctx context.Context, logger *observability.Logger, buildings []*api.Building) {
	if len(buildings) == 0 {
		return
	}

	ctx, span := tracer.Start(ctx, "assembleArchitects",
		trace.WithAttributes(attribute.Int("building_count", len(buildings))),
	)
	defer span.End()

	buildingIDs := make([]int64, len(buildings))
	for i, b := range buildings {
		buildingIDs[i] = b.ID
	}

	links, err := s.store.BuildingArchitects(ctx, buildingIDs)
	if err != nil {
		span.RecordError(err)
		logger.WithError(err).Warn("building architect lookup failed, leaving names empty")
		return
	}
	if len(links) == 0 {
		return
	}

	// Rows arrive ordered by (building_id, architect_order); appending
	// preserves credit order per building.
	groupsByBuilding := make(map[int64][]int64)
	groupSeen := make(map[int64]struct{})
	var groupIDs []int64
	for _, link := range links {
		groupsByBuilding[link.BuildingID] = append(groupsByBuilding[link.BuildingID], link.ArchitectID)
		if _, ok := groupSeen[link.ArchitectID]; !ok {
			groupSeen[link.ArchitectID] = struct{}{}
			groupIDs = append(groupIDs, link.ArchitectID)
		}
	}

	compositions, err := s.store.ArchitectCompositions(ctx, groupIDs)
	if err != nil {
		span.RecordError(err)
		logger.WithError(err).Warn("architect composition lookup failed, leaving names empty")
		return
	}

	// Ordered by (architect_id, order_index).
	membersByGroup := make(map[int64][]int64)
	memberSeen := make(map[int64]struct{})
	var memberIDs []int64
	for _, c := range compositions {
		membersByGroup[c.ArchitectID] = append(membersByGroup[c.ArchitectID], c.IndividualArchitectID)
		if _, ok := memberSeen[c.IndividualArchitectID]; !ok {
			memberSeen[c.IndividualArchitectID] = struct{}{}
			memberIDs = append(memberIDs, c.IndividualArchitectID)
		}
	}

	people, err := s.store.IndividualArchitectsByIDs(ctx, memberIDs)
	if err != nil {
		span.RecordError(err)
		logger.WithError(err).Warn("individual architect lookup failed, leaving names empty")
		return
	}

	namesJa := make(map[int64]string, len(people))
	namesEn := make(map[int64]string, len(people))
	for _, p := range people {
		namesJa[p.ID] = p.NameJa
		namesEn[p.ID] = p.NameEn
	}

	for _, b := range buildings {
		b.ArchitectsJa = joinGroupNames(groupsByBuilding[b.ID], membersByGroup, namesJa)
		b.ArchitectsEn = joinGroupNames(groupsByBuilding[b.ID], membersByGroup, namesEn)
	}
}

// joinGroupNames renders credited groups in order, joining member names and
// then group strings with the separator. Members without a name in the
// target language are skipped rather than rendered as blanks.
func joinGroupNames(groups []int64, membersByGroup map[int64][]int64, names map[int64]string) string {
	var groupStrings []string
	for _, groupID := range groups {
		var memberNames []string
		for _, memberID := range membersByGroup[groupID] {
			if name := names[memberID]; name != "" {
				memberNames = append(memberNames, name)
			}
		}
		if len(memberNames) > 0 {
			groupStrings = append(groupStrings, strings.Join(memberNames, nameSeparator))
		}
	}
	return strings.Join(groupStrings, nameSeparator)
}
