package search

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/platinummonkey/kenchiku/pkg/api"
	"github.com/platinummonkey/kenchiku/pkg/observability"
	"github.com/platinummonkey/kenchiku/pkg/storage"
)

var tracer = otel.Tracer("kenchiku/search")

const (
	// fetchWindow is the page size used to drain direct text matches past
	// the backend's per-response row cap.
	fetchWindow = 1000

	// chainLimit caps each step of the architect-name fallback chain.
	chainLimit = 1000

	// DefaultLimit is the page size when the caller does not specify one.
	DefaultLimit = 20

	// MaxLimit caps the page size.
	MaxLimit = 100
)

// Request describes one search call.
type Request struct {
	Query    string
	Language api.Language
	Page     int
	Limit    int
}

// Response is the paginated search result.
type Response struct {
	Data       []*api.Building `json:"data"`
	Count      int             `json:"count"`
	Page       int             `json:"page"`
	TotalPages int             `json:"totalPages"`
}

// HistoryRecorder records completed searches for later aggregation.
type HistoryRecorder interface {
	RecordSearch(ctx context.Context, query string, keywordCount, resultCount int, duration time.Duration) error
}

// Options carries the optional collaborators of a Service.
type Options struct {
	Cache    *ResponseCache
	Metrics  *observability.Metrics
	Recorder HistoryRecorder
}

// Service resolves keyword searches against the catalog store.
type Service struct {
	store    storage.Store
	logger   *observability.Logger
	cache    *ResponseCache
	metrics  *observability.Metrics
	recorder HistoryRecorder
}

// NewService creates a search service. All fields of opts may be zero.
func NewService(store storage.Store, logger *observability.Logger, opts Options) *Service {
	return &Service{
		store:    store,
		logger:   logger,
		cache:    opts.Cache,
		metrics:  opts.Metrics,
		recorder: opts.Recorder,
	}
}

// Search runs the full pipeline: tokenize, resolve each keyword, intersect,
// order by id descending, paginate, hydrate, and assemble architect names.
// Only the detail hydration can fail the call; every other sub-step
// degrades to an empty contribution.
func (s *Service) Search(ctx context.Context, req Request) (*Response, error) {
	ctx, span := tracer.Start(ctx, "Search",
		trace.WithAttributes(
			attribute.String("query", req.Query),
			attribute.String("language", string(req.Language)),
			attribute.Int("page", req.Page),
			attribute.Int("limit", req.Limit),
		),
	)
	defer span.End()
	start := time.Now()

	req = normalizeRequest(req)
	logger := observability.LoggerWithTraceContext(ctx, observability.FromContext(ctx))

	keywords := Tokenize(req.Query)
	span.SetAttributes(attribute.Int("keyword_count", len(keywords)))
	if s.metrics != nil {
		s.metrics.SearchKeywordCount.Observe(float64(len(keywords)))
	}

	// No keywords means no matches, not "match all".
	if len(keywords) == 0 {
		span.SetStatus(codes.Ok, "empty query")
		return s.finish(ctx, req, emptyResponse(req), keywords, start, nil)
	}

	cacheKey := responseCacheKey(req)
	if s.cache != nil {
		if cached := s.cache.Get(ctx, cacheKey); cached != nil {
			span.SetAttributes(attribute.Bool("cache_hit", true))
			span.SetStatus(codes.Ok, "served from cache")
			return cached, nil
		}
	}

	// AND semantics: intersect per-keyword id-sets.
	var matched map[int64]struct{}
	for i, keyword := range keywords {
		keywordSet := s.resolveKeyword(ctx, logger, keyword)
		if i == 0 {
			matched = keywordSet
		} else {
			matched = intersect(matched, keywordSet)
		}
		if len(matched) == 0 {
			break
		}
	}

	ids := sortedIDsDescending(matched)
	total := len(ids)
	totalPages := (total + req.Limit - 1) / req.Limit

	if s.metrics != nil {
		s.metrics.SearchResultCount.Observe(float64(total))
	}
	span.SetAttributes(attribute.Int("total_count", total))

	pageIDs := paginate(ids, req.Page, req.Limit)

	buildings, err := s.store.BuildingsByIDs(ctx, pageIDs)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "detail fetch failed")
		if s.metrics != nil {
			s.metrics.SearchesTotal.WithLabelValues("error").Inc()
		}
		return nil, fmt.Errorf("failed to fetch building details: %w", err)
	}
	buildings = reorder(buildings, pageIDs)

	s.assembleArchitects(ctx, logger, buildings)

	resp := &Response{
		Data:       buildings,
		Count:      total,
		Page:       req.Page,
		TotalPages: totalPages,
	}

	if s.cache != nil {
		s.cache.Set(ctx, cacheKey, resp)
	}

	span.SetStatus(codes.Ok, "search completed")
	return s.finish(ctx, req, resp, keywords, start, nil)
}

// finish records metrics and search history before returning.
func (s *Service) finish(ctx context.Context, req Request, resp *Response, keywords []string, start time.Time, err error) (*Response, error) {
	duration := time.Since(start)
	if s.metrics != nil {
		s.metrics.SearchesTotal.WithLabelValues("success").Inc()
		s.metrics.SearchDuration.Observe(duration.Seconds())
	}
	if s.recorder != nil && req.Query != "" {
		if recErr := s.recorder.RecordSearch(ctx, req.Query, len(keywords), resp.Count, duration); recErr != nil {
			s.logger.WithError(recErr).Warn("failed to record search history")
		}
	}
	return resp, err
}

// resolveKeyword unions the direct text-column match with the
// architect-name fallback chain. Failures on either path contribute an
// empty set; they never abort the search.
func (s *Service) resolveKeyword(ctx context.Context, logger *observability.Logger, keyword string) map[int64]struct{} {
	ctx, span := tracer.Start(ctx, "resolveKeyword",
		trace.WithAttributes(attribute.String("keyword", keyword)),
	)
	defer span.End()

	set := make(map[int64]struct{})

	direct, err := fetchAllIDs(ctx, fetchWindow, func(ctx context.Context, offset, limit int) ([]int64, error) {
		return s.store.BuildingIDsMatching(ctx, keyword, offset, limit)
	})
	if err != nil {
		span.RecordError(err)
		logger.WithError(err).WithField("keyword", keyword).Warn("text-column lookup failed")
	}
	for _, id := range direct {
		set[id] = struct{}{}
	}

	for _, id := range s.architectChain(ctx, logger, keyword) {
		set[id] = struct{}{}
	}

	span.SetAttributes(attribute.Int("match_count", len(set)))
	return set
}

// architectChain resolves keyword -> individual architects -> composition
// groups -> credited buildings. Any failing or empty step short-circuits
// to an empty contribution.
func (s *Service) architectChain(ctx context.Context, logger *observability.Logger, keyword string) []int64 {
	architectIDs, err := s.store.ArchitectIDsMatchingName(ctx, keyword, chainLimit)
	if err != nil {
		logger.WithError(err).WithField("keyword", keyword).Warn("architect name lookup failed")
		return nil
	}
	if len(architectIDs) == 0 {
		return nil
	}

	groupIDs, err := s.store.ArchitectGroupIDs(ctx, architectIDs, chainLimit)
	if err != nil {
		logger.WithError(err).WithField("keyword", keyword).Warn("architect group lookup failed")
		return nil
	}
	if len(groupIDs) == 0 {
		return nil
	}

	buildingIDs, err := s.store.BuildingIDsForGroups(ctx, groupIDs, chainLimit)
	if err != nil {
		logger.WithError(err).WithField("keyword", keyword).Warn("architect building lookup failed")
		return nil
	}
	return buildingIDs
}

// fetchAllIDs drains a windowed lookup, advancing the offset by the window
// size until a short page signals the end.
func fetchAllIDs(ctx context.Context, window int, fetch func(ctx context.Context, offset, limit int) ([]int64, error)) ([]int64, error) {
	var all []int64
	for offset := 0; ; offset += window {
		page, err := fetch(ctx, offset, window)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < window {
			return all, nil
		}
	}
}

func normalizeRequest(req Request) Request {
	if req.Language != api.LanguageEn {
		req.Language = api.LanguageJa
	}
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit <= 0 {
		req.Limit = DefaultLimit
	}
	if req.Limit > MaxLimit {
		req.Limit = MaxLimit
	}
	return req
}

func emptyResponse(req Request) *Response {
	return &Response{
		Data:       []*api.Building{},
		Count:      0,
		Page:       req.Page,
		TotalPages: 0,
	}
}

func intersect(a, b map[int64]struct{}) map[int64]struct{} {
	if len(b) < len(a) {
		a, b = b, a
	}
	out := make(map[int64]struct{}, len(a))
	for id := range a {
		if _, ok := b[id]; ok {
			out[id] = struct{}{}
		}
	}
	return out
}

// sortedIDsDescending orders matches most-recent-first by id.
func sortedIDsDescending(set map[int64]struct{}) []int64 {
	ids := make([]int64, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] > ids[j] })
	return ids
}

// paginate slices the sorted id list for a 1-indexed page.
func paginate(ids []int64, page, limit int) []int64 {
	start := (page - 1) * limit
	if start >= len(ids) {
		return nil
	}
	end := start + limit
	if end > len(ids) {
		end = len(ids)
	}
	return ids[start:end]
}

// reorder arranges hydrated rows to match the requested id order.
func reorder(buildings []*api.Building, ids []int64) []*api.Building {
	byID := make(map[int64]*api.Building, len(buildings))
	for _, b := range buildings {
		byID[b.ID] = b
	}
	out := make([]*api.Building, 0, len(ids))
	for _, id := range ids {
		if b, ok := byID[id]; ok {
			out = append(out, b)
		}
	}
	return out
}
