package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/modtrack/amr-api/internal/models"
	"github.com/modtrack/amr-api/internal/repository"
	appErrors "github.com/modtrack/amr-api/pkg/errors"
)

// DashboardServiceConfig tunes dashboard behaviour. DefaultYear pins the
// review year used when a request supplies none; zero falls back to the
// injected clock's calendar year.
type DashboardServiceConfig struct {
	CacheTTL    time.Duration
	DefaultYear int
}

// DashboardOverview bundles the cards and chart tables the dashboard page
// renders in one payload.
type DashboardOverview struct {
	Summary         models.DashboardSummary `json:"summary"`
	GoodPractice    []models.ThemeCount     `json:"good_practice_by_theme"`
	EnhancePlans    []models.ThemeCount     `json:"enhancements_by_theme"`
	ReviewsByStatus []models.StatusCount    `json:"reviews_by_status"`
}

// DashboardService computes the summary cards and composes chart payloads,
// optionally serving them from cache.
type DashboardService struct {
	modules     moduleLister
	reviews     reviewLister
	aggregation *AggregationService
	cache       *CacheService
	logger      *zap.Logger
	now         func() time.Time
	cfg         DashboardServiceConfig
}

// DashboardServiceParams groups constructor dependencies.
type DashboardServiceParams struct {
	Modules     moduleLister
	Reviews     reviewLister
	Aggregation *AggregationService
	Cache       *CacheService
	Logger      *zap.Logger
	Config      DashboardServiceConfig
}

// NewDashboardService constructs a DashboardService with sane defaults.
func NewDashboardService(params DashboardServiceParams) *DashboardService {
	cfg := params.Config
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		modules:     params.Modules,
		reviews:     params.Reviews,
		aggregation: params.Aggregation,
		cache:       params.Cache,
		logger:      logger,
		now:         time.Now,
		cfg:         cfg,
	}
}

// DefaultYear resolves the review year to use when a request omits one.
func (s *DashboardService) DefaultYear() int {
	if s.cfg.DefaultYear != 0 {
		return s.cfg.DefaultYear
	}
	return s.now().UTC().Year()
}

// Summarize computes the scalar card values for one year/area slice. The
// per-module status here is the most recently created review in the window
// (or Not Started when none), not the consolidation precedence the
// table and status chart use.
func (s *DashboardService) Summarize(ctx context.Context, year int, areas []string) (*models.DashboardSummary, error) {
	modules, err := s.modules.List(ctx, repository.ModuleSnapshotFilter{Areas: areas})
	if err != nil {
		s.logger.Error("module snapshot fetch failed", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "module lookup failed")
	}

	summary := &models.DashboardSummary{Year: year, TotalModules: len(modules)}
	if len(modules) == 0 {
		return summary, nil
	}

	ids := make([]string, 0, len(modules))
	for _, module := range modules {
		ids = append(ids, module.ID)
	}
	from, to := YearWindow(year)
	reviews, err := s.reviews.List(ctx, models.ReviewFilter{ModuleIDs: ids, From: &from, To: &to})
	if err != nil {
		s.logger.Error("review fetch failed", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "review lookup failed")
	}

	byModule := make(map[string][]models.Review, len(ids))
	for _, review := range reviews {
		byModule[review.ModuleID] = append(byModule[review.ModuleID], review)
	}

	completed := 0
	for _, module := range modules {
		status := models.StatusNotStarted
		if latest := LatestReview(byModule[module.ID]); latest != nil {
			status = latest.Status
		}
		if status == models.StatusCompleted {
			completed++
		}
	}

	summary.ReviewsForYear = completed
	summary.PendingForYear = summary.TotalModules - completed
	summary.CompletionRate = float64(completed) / float64(summary.TotalModules) * 100
	return summary, nil
}

// Overview returns the whole dashboard payload for the year/area slice and
// reports whether it was served from cache.
func (s *DashboardService) Overview(ctx context.Context, year int, areas []string) (*DashboardOverview, bool, error) {
	cacheKey := overviewCacheKey(year, areas)
	if s.cache != nil {
		var cached DashboardOverview
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
			return &cached, true, nil
		}
	}

	summary, err := s.Summarize(ctx, year, areas)
	if err != nil {
		return nil, false, err
	}
	filter := AggregateFilter{Year: &year, Areas: areas}
	goodPractice, err := s.aggregation.AggregateByTheme(ctx, CollectionGoodPractice, filter)
	if err != nil {
		return nil, false, err
	}
	enhancePlans, err := s.aggregation.AggregateByTheme(ctx, CollectionEnhancePlans, filter)
	if err != nil {
		return nil, false, err
	}
	byStatus, err := s.aggregation.AggregateByStatus(ctx, filter)
	if err != nil {
		return nil, false, err
	}

	overview := &DashboardOverview{
		Summary:         *summary,
		GoodPractice:    goodPractice,
		EnhancePlans:    enhancePlans,
		ReviewsByStatus: byStatus,
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, overview, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("dashboard cache write failed", zap.String("key", cacheKey), zap.Error(err))
		}
	}
	return overview, false, nil
}

func overviewCacheKey(year int, areas []string) string {
	if len(areas) == 0 {
		return fmt.Sprintf("amr:dash:%d:all", year)
	}
	return fmt.Sprintf("amr:dash:%d:%s", year, strings.Join(areas, ","))
}
