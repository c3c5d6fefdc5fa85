package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/modtrack/amr-api/internal/models"
	"github.com/modtrack/amr-api/internal/repository"
	appErrors "github.com/modtrack/amr-api/pkg/errors"
)

// PointCollection selects which themed list of a review feeds a theme
// aggregation.
type PointCollection string

const (
	CollectionGoodPractice PointCollection = "goodPractice"
	CollectionEnhancePlans PointCollection = "enhancePlans"
)

// AggregateFilter scopes dashboard aggregations. Year bounds review
// creation timestamps to the calendar-year window; Areas restricts to
// modules in the requested areas.
type AggregateFilter struct {
	Year  *int
	Areas []string
}

var themeOrder = []models.PointTheme{
	models.ThemeAssessment,
	models.ThemeLearningTeaching,
	models.ThemeCourseDesign,
	models.ThemeEngagement,
}

var statusOrder = []models.ReviewStatus{
	models.StatusNotStarted,
	models.StatusInProgress,
	models.StatusCompleted,
}

// AggregationService computes the grouped counts behind the dashboard
// charts.
type AggregationService struct {
	modules moduleLister
	reviews reviewLister
	logger  *zap.Logger
}

// NewAggregationService constructs an AggregationService.
func NewAggregationService(modules moduleLister, reviews reviewLister, logger *zap.Logger) *AggregationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AggregationService{modules: modules, reviews: reviews, logger: logger}
}

// AggregateByTheme counts themed entries from the selected collection of
// every review passing the year/area filter. Reviews with an empty list
// contribute nothing, and themes with no entries are absent from the
// result rather than zero-filled.
func (s *AggregationService) AggregateByTheme(ctx context.Context, collection PointCollection, filter AggregateFilter) ([]models.ThemeCount, error) {
	reviews, err := s.fetchFilteredReviews(ctx, filter)
	if err != nil {
		return nil, err
	}

	counts := make(map[models.PointTheme]int)
	for _, review := range reviews {
		for _, point := range selectPoints(review, collection) {
			counts[point.Theme]++
		}
	}
	return themeCounts(counts), nil
}

// AggregateByStatus groups area-filtered modules by their consolidated
// status for the year window. Statuses with zero modules are omitted.
func (s *AggregationService) AggregateByStatus(ctx context.Context, filter AggregateFilter) ([]models.StatusCount, error) {
	modules, err := s.modules.List(ctx, repository.ModuleSnapshotFilter{Areas: filter.Areas})
	if err != nil {
		s.logger.Error("module snapshot fetch failed", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "module lookup failed")
	}
	if len(modules) == 0 {
		return []models.StatusCount{}, nil
	}

	ids := make([]string, 0, len(modules))
	for _, module := range modules {
		ids = append(ids, module.ID)
	}
	reviewFilter := models.ReviewFilter{ModuleIDs: ids}
	if filter.Year != nil {
		from, to := YearWindow(*filter.Year)
		reviewFilter.From = &from
		reviewFilter.To = &to
	}
	reviews, err := s.reviews.List(ctx, reviewFilter)
	if err != nil {
		s.logger.Error("review fetch failed", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "review lookup failed")
	}

	byModule := make(map[string][]models.Review, len(ids))
	for _, review := range reviews {
		byModule[review.ModuleID] = append(byModule[review.ModuleID], review)
	}

	counts := make(map[models.ReviewStatus]int)
	for _, module := range modules {
		counts[ConsolidateStatus(byModule[module.ID])]++
	}

	result := make([]models.StatusCount, 0, len(counts))
	for _, status := range statusOrder {
		if count, ok := counts[status]; ok {
			result = append(result, models.StatusCount{Name: status, Count: count})
		}
	}
	return result, nil
}

func (s *AggregationService) fetchFilteredReviews(ctx context.Context, filter AggregateFilter) ([]models.Review, error) {
	reviewFilter := models.ReviewFilter{}
	if len(filter.Areas) > 0 {
		modules, err := s.modules.List(ctx, repository.ModuleSnapshotFilter{Areas: filter.Areas})
		if err != nil {
			s.logger.Error("module snapshot fetch failed", zap.Error(err))
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "module lookup failed")
		}
		if len(modules) == 0 {
			return nil, nil
		}
		for _, module := range modules {
			reviewFilter.ModuleIDs = append(reviewFilter.ModuleIDs, module.ID)
		}
	}
	if filter.Year != nil {
		from, to := YearWindow(*filter.Year)
		reviewFilter.From = &from
		reviewFilter.To = &to
	}

	reviews, err := s.reviews.List(ctx, reviewFilter)
	if err != nil {
		s.logger.Error("review fetch failed", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "review lookup failed")
	}
	return reviews, nil
}

func selectPoints(review models.Review, collection PointCollection) []models.ThemedPoint {
	switch collection {
	case CollectionEnhancePlans:
		return review.EnhancePlans
	default:
		return review.GoodPractice
	}
}

func themeCounts(counts map[models.PointTheme]int) []models.ThemeCount {
	result := make([]models.ThemeCount, 0, len(counts))
	for _, theme := range themeOrder {
		if count, ok := counts[theme]; ok {
			result = append(result, models.ThemeCount{Theme: theme, Count: count})
		}
	}
	return result
}
