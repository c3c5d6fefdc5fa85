package service

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/modtrack/amr-api/internal/models"
	"github.com/modtrack/amr-api/internal/repository"
	appErrors "github.com/modtrack/amr-api/pkg/errors"
)

type moduleLister interface {
	List(ctx context.Context, filter repository.ModuleSnapshotFilter) ([]models.Module, error)
}

type reviewLister interface {
	List(ctx context.Context, filter models.ReviewFilter) ([]models.Review, error)
}

type leadResolver interface {
	FindByIDs(ctx context.Context, ids []string) (map[string]models.User, error)
}

// leadNameMissing is the defined default shown when a variant has no lead.
// It is a presentation default, not an error state.
const leadNameMissing = "N/A"

// ModuleQueryService produces the module review table: one row per
// (module, variant) with consolidated status, lead name and last review
// date. Module-level filters are pushed to the store; every later stage is
// a pure function over the fetched snapshot.
type ModuleQueryService struct {
	modules moduleLister
	reviews reviewLister
	leads   leadResolver
	logger  *zap.Logger
}

// NewModuleQueryService constructs a ModuleQueryService.
func NewModuleQueryService(modules moduleLister, reviews reviewLister, leads leadResolver, logger *zap.Logger) *ModuleQueryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ModuleQueryService{modules: modules, reviews: reviews, leads: leads, logger: logger}
}

// Query runs the full table pipeline and returns the requested page along
// with pagination metadata computed post-filter, pre-pagination.
func (s *ModuleQueryService) Query(ctx context.Context, filter models.ModuleFilter) ([]models.ModuleRow, *models.Pagination, error) {
	rows, err := s.queryRows(ctx, filter)
	if err != nil {
		return nil, nil, err
	}
	page, pagination := paginateRows(rows, filter.Page, filter.PageSize)
	return page, pagination, nil
}

// QueryAll runs the pipeline without pagination. The exporter uses it to
// render the complete filtered table.
func (s *ModuleQueryService) QueryAll(ctx context.Context, filter models.ModuleFilter) ([]models.ModuleRow, error) {
	rows, err := s.queryRows(ctx, filter)
	if err != nil {
		return nil, err
	}
	result := make([]models.ModuleRow, 0, len(rows))
	for _, row := range rows {
		result = append(result, row.row)
	}
	return result, nil
}

func (s *ModuleQueryService) queryRows(ctx context.Context, filter models.ModuleFilter) ([]variantRow, error) {
	snapshot, err := s.modules.List(ctx, repository.ModuleSnapshotFilter{
		Areas:       filter.Areas,
		Locations:   filter.Locations,
		TitleSearch: filter.TitleSearch,
	})
	if err != nil {
		s.logger.Error("module snapshot fetch failed", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "module lookup failed")
	}

	rows := expandVariants(snapshot)
	rows = filterVariantRows(rows, filter.Levels, filter.Periods, filter.CodeSearch)

	rows, err = s.resolveLeads(ctx, rows, filter.LeadSearch)
	if err != nil {
		return nil, err
	}

	reviewsByModule, err := s.fetchReviews(ctx, rows, filter.Year)
	if err != nil {
		return nil, err
	}

	rows = joinReviews(rows, reviewsByModule, filter.Year)
	rows = filterByStatus(rows, filter.Statuses)
	sortRows(rows)
	return rows, nil
}

// variantRow pairs a module with one of its variants while derived fields
// are still being attached.
type variantRow struct {
	module  models.Module
	variant models.Variant
	row     models.ModuleRow
}

// expandVariants flattens each module into one row per variant. Modules
// with no variants produce no rows; the import scripts guarantee at least
// one variant, so nothing is silently lost in practice.
func expandVariants(modules []models.Module) []variantRow {
	rows := make([]variantRow, 0, len(modules))
	for _, module := range modules {
		for _, variant := range module.Variants {
			rows = append(rows, variantRow{
				module:  module,
				variant: variant,
				row: models.ModuleRow{
					ModuleID: module.ID,
					Title:    module.Title,
					Area:     module.Area,
					Location: module.Location,
					Code:     variant.Code,
					Level:    variant.Level,
					Period:   variant.Period,
				},
			})
		}
	}
	return rows
}

// filterVariantRows applies the variant-level predicates: level and period
// membership, case-insensitive code substring.
func filterVariantRows(rows []variantRow, levels []int, periods []string, codeSearch string) []variantRow {
	if len(levels) == 0 && len(periods) == 0 && codeSearch == "" {
		return rows
	}
	codeNeedle := strings.ToLower(codeSearch)
	kept := rows[:0]
	for _, row := range rows {
		if len(levels) > 0 && !containsInt(levels, row.variant.Level) {
			continue
		}
		if len(periods) > 0 && !containsString(periods, row.variant.Period) {
			continue
		}
		if codeNeedle != "" && !strings.Contains(strings.ToLower(row.variant.Code), codeNeedle) {
			continue
		}
		kept = append(kept, row)
	}
	return kept
}

// resolveLeads attaches each row's variant lead name and applies the
// leadSearch predicate. Rows without a lead have no derivable name, so a
// present leadSearch excludes them.
func (s *ModuleQueryService) resolveLeads(ctx context.Context, rows []variantRow, leadSearch string) ([]variantRow, error) {
	ids := make([]string, 0, len(rows))
	seen := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		if row.variant.LeadID == nil {
			continue
		}
		if _, ok := seen[*row.variant.LeadID]; ok {
			continue
		}
		seen[*row.variant.LeadID] = struct{}{}
		ids = append(ids, *row.variant.LeadID)
	}

	leads, err := s.leads.FindByIDs(ctx, ids)
	if err != nil {
		s.logger.Error("lead lookup failed", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "lead lookup failed")
	}

	needle := strings.ToLower(leadSearch)
	kept := rows[:0]
	for _, row := range rows {
		name := leadNameMissing
		if row.variant.LeadID != nil {
			if lead, ok := leads[*row.variant.LeadID]; ok {
				name = lead.FullName()
			}
		}
		if needle != "" {
			if name == leadNameMissing || !strings.Contains(strings.ToLower(name), needle) {
				continue
			}
		}
		row.row.LeadName = name
		kept = append(kept, row)
	}
	return kept, nil
}

func (s *ModuleQueryService) fetchReviews(ctx context.Context, rows []variantRow, year *int) (map[string][]models.Review, error) {
	if len(rows) == 0 {
		return map[string][]models.Review{}, nil
	}
	ids := make([]string, 0, len(rows))
	seen := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		if _, ok := seen[row.module.ID]; ok {
			continue
		}
		seen[row.module.ID] = struct{}{}
		ids = append(ids, row.module.ID)
	}

	filter := models.ReviewFilter{ModuleIDs: ids}
	if year != nil {
		from, to := YearWindow(*year)
		filter.From = &from
		filter.To = &to
	}
	reviews, err := s.reviews.List(ctx, filter)
	if err != nil {
		s.logger.Error("review fetch failed", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "review lookup failed")
	}

	grouped := make(map[string][]models.Review, len(ids))
	for _, review := range reviews {
		grouped[review.ModuleID] = append(grouped[review.ModuleID], review)
	}
	return grouped, nil
}

// joinReviews derives each row's consolidated status, last review date and
// matched review ids. With a year filter, rows whose module has no review
// in the window are dropped entirely: a row only exists for a year query if
// at least one review touches that year. Without one, review-less rows stay
// with status Not Started.
func joinReviews(rows []variantRow, reviewsByModule map[string][]models.Review, year *int) []variantRow {
	kept := rows[:0]
	for _, row := range rows {
		matched := reviewsByModule[row.module.ID]
		if year != nil && len(matched) == 0 {
			continue
		}

		row.row.Status = ConsolidateStatus(matched)
		if latest := LatestReview(matched); latest != nil {
			last := latest.CreatedAt
			row.row.LastReviewDate = &last
			reviewYear := last.Year()
			row.row.ReviewYear = &reviewYear
		}
		ids := make([]string, 0, len(matched))
		for _, review := range matched {
			ids = append(ids, review.ID)
		}
		row.row.ReviewIDs = ids
		kept = append(kept, row)
	}
	return kept
}

func filterByStatus(rows []variantRow, statuses []models.ReviewStatus) []variantRow {
	if len(statuses) == 0 {
		return rows
	}
	kept := rows[:0]
	for _, row := range rows {
		match := false
		for _, status := range statuses {
			if row.row.Status == status {
				match = true
				break
			}
		}
		if match {
			kept = append(kept, row)
		}
	}
	return kept
}

// sortRows orders by module title ascending, case-sensitive as stored.
func sortRows(rows []variantRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].row.Title < rows[j].row.Title
	})
}

func paginateRows(rows []variantRow, page, pageSize int) ([]models.ModuleRow, *models.Pagination) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	total := len(rows)
	totalPages := (total + pageSize - 1) / pageSize

	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	result := make([]models.ModuleRow, 0, end-start)
	for _, row := range rows[start:end] {
		result = append(result, row.row)
	}
	return result, &models.Pagination{
		Page:       page,
		PageSize:   pageSize,
		TotalCount: total,
		TotalPages: totalPages,
	}
}

func containsInt(values []int, v int) bool {
	for _, value := range values {
		if value == v {
			return true
		}
	}
	return false
}

func containsString(values []string, v string) bool {
	for _, value := range values {
		if value == v {
			return true
		}
	}
	return false
}
