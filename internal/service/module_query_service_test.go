package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/modtrack/amr-api/internal/models"
	"github.com/modtrack/amr-api/internal/repository"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

// fakeModuleStore emulates the module repository: module-level predicates
// applied at fetch time, title-ascending order, variants attached.
type fakeModuleStore struct {
	modules    []models.Module
	err        error
	lastFilter repository.ModuleSnapshotFilter
}

func (f *fakeModuleStore) List(_ context.Context, filter repository.ModuleSnapshotFilter) ([]models.Module, error) {
	f.lastFilter = filter
	if f.err != nil {
		return nil, f.err
	}
	result := make([]models.Module, 0, len(f.modules))
	for _, module := range f.modules {
		if len(filter.Areas) > 0 {
			if module.Area == nil || !containsString(filter.Areas, *module.Area) {
				continue
			}
		}
		if len(filter.Locations) > 0 {
			if module.Location == nil || !containsString(filter.Locations, *module.Location) {
				continue
			}
		}
		if filter.TitleSearch != "" && !strings.Contains(strings.ToLower(module.Title), strings.ToLower(filter.TitleSearch)) {
			continue
		}
		result = append(result, module)
	}
	return result, nil
}

func (f *fakeModuleStore) FindByID(_ context.Context, id string) (*models.Module, error) {
	if f.err != nil {
		return nil, f.err
	}
	for i := range f.modules {
		if f.modules[i].ID == id {
			return &f.modules[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

// fakeReviewStore emulates the review repository: module-id and half-open
// creation-window predicates, rows ordered oldest first.
type fakeReviewStore struct {
	reviews []models.Review
	err     error
	updated []models.Review
}

func (f *fakeReviewStore) List(_ context.Context, filter models.ReviewFilter) ([]models.Review, error) {
	if f.err != nil {
		return nil, f.err
	}
	result := make([]models.Review, 0, len(f.reviews))
	for _, review := range f.reviews {
		if len(filter.ModuleIDs) > 0 && !containsString(filter.ModuleIDs, review.ModuleID) {
			continue
		}
		if filter.From != nil && review.CreatedAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && !review.CreatedAt.Before(*filter.To) {
			continue
		}
		result = append(result, review)
	}
	for i := 1; i < len(result); i++ {
		for j := i; j > 0 && result[j].CreatedAt.Before(result[j-1].CreatedAt); j-- {
			result[j], result[j-1] = result[j-1], result[j]
		}
	}
	return result, nil
}

func (f *fakeReviewStore) FindByID(_ context.Context, id string) (*models.Review, error) {
	if f.err != nil {
		return nil, f.err
	}
	for i := range f.reviews {
		if f.reviews[i].ID == id {
			return &f.reviews[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeReviewStore) Create(_ context.Context, review *models.Review) error {
	if f.err != nil {
		return f.err
	}
	if review.ID == "" {
		review.ID = fmt.Sprintf("rev-%d", len(f.reviews)+1)
	}
	if review.CreatedAt.IsZero() {
		review.CreatedAt = time.Now().UTC()
	}
	f.reviews = append(f.reviews, *review)
	return nil
}

func (f *fakeReviewStore) Update(_ context.Context, review *models.Review) error {
	if f.err != nil {
		return f.err
	}
	for i := range f.reviews {
		if f.reviews[i].ID == review.ID {
			f.reviews[i] = *review
			f.updated = append(f.updated, *review)
			return nil
		}
	}
	return sql.ErrNoRows
}

type fakeLeadStore struct {
	users map[string]models.User
	err   error
}

func (f *fakeLeadStore) FindByIDs(_ context.Context, ids []string) (map[string]models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	result := make(map[string]models.User, len(ids))
	for _, id := range ids {
		if user, ok := f.users[id]; ok {
			result[id] = user
		}
	}
	return result, nil
}

func queryFixture() (*fakeModuleStore, *fakeReviewStore, *fakeLeadStore) {
	modules := &fakeModuleStore{modules: []models.Module{
		{
			ID:    "mod-a",
			Title: "Algorithms",
			Area:  strPtr("Computing"),
			Variants: []models.Variant{
				{ID: "var-a4", ModuleID: "mod-a", Code: "CS401", Level: 4, Period: models.PeriodSemester1, LeadID: strPtr("lead-1")},
				{ID: "var-a5", ModuleID: "mod-a", Code: "CS501", Level: 5, Period: models.PeriodSemester2, LeadID: strPtr("lead-2")},
			},
		},
		{
			ID:       "mod-b",
			Title:    "Biochemistry",
			Area:     strPtr("Science"),
			Location: strPtr("North Campus"),
			Variants: []models.Variant{
				{ID: "var-b4", ModuleID: "mod-b", Code: "BI402", Level: 4, Period: models.PeriodYearLong},
			},
		},
		{
			ID:    "mod-c",
			Title: "Creative Writing",
			Area:  strPtr("Arts"),
			Variants: []models.Variant{
				{ID: "var-c6", ModuleID: "mod-c", Code: "CW601", Level: 6, Period: models.PeriodSemester1, LeadID: strPtr("lead-1")},
			},
		},
	}}
	reviews := &fakeReviewStore{reviews: []models.Review{
		{ID: "rev-a1", ModuleID: "mod-a", Status: models.StatusInProgress, CreatedAt: time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)},
		{ID: "rev-a2", ModuleID: "mod-a", Status: models.StatusCompleted, CreatedAt: time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)},
		{ID: "rev-b1", ModuleID: "mod-b", Status: models.StatusInProgress, CreatedAt: time.Date(2023, 11, 20, 9, 0, 0, 0, time.UTC)},
	}}
	leads := &fakeLeadStore{users: map[string]models.User{
		"lead-1": {ID: "lead-1", FirstName: "Dana", LastName: "Okafor", Email: "dana@example.edu", Role: models.RoleModuleLead},
		"lead-2": {ID: "lead-2", FirstName: "Priya", LastName: "Shah", Email: "priya@example.edu", Role: models.RoleModuleLead},
	}}
	return modules, reviews, leads
}

func TestModuleQueryDerivesRows(t *testing.T) {
	modules, reviews, leads := queryFixture()
	svc := NewModuleQueryService(modules, reviews, leads, zap.NewNop())

	rows, pagination, err := svc.Query(context.Background(), models.ModuleFilter{})
	require.NoError(t, err)
	require.Len(t, rows, 4)

	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 20, pagination.PageSize)
	assert.Equal(t, 4, pagination.TotalCount)
	assert.Equal(t, 1, pagination.TotalPages)

	// Title-ascending, one row per variant.
	assert.Equal(t, "CS401", rows[0].Code)
	assert.Equal(t, "CS501", rows[1].Code)
	assert.Equal(t, "BI402", rows[2].Code)
	assert.Equal(t, "CW601", rows[3].Code)

	// Both variants of the same module share the consolidated status.
	assert.Equal(t, models.StatusCompleted, rows[0].Status)
	assert.Equal(t, models.StatusCompleted, rows[1].Status)
	assert.Equal(t, models.StatusInProgress, rows[2].Status)
	assert.Equal(t, models.StatusNotStarted, rows[3].Status)

	require.NotNil(t, rows[0].LastReviewDate)
	assert.Equal(t, time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC), *rows[0].LastReviewDate)
	require.NotNil(t, rows[0].ReviewYear)
	assert.Equal(t, 2024, *rows[0].ReviewYear)
	assert.Nil(t, rows[3].LastReviewDate)

	assert.Equal(t, "Dana Okafor", rows[0].LeadName)
	assert.Equal(t, "Priya Shah", rows[1].LeadName)
	assert.Equal(t, "N/A", rows[2].LeadName)
}

func TestModuleQueryReviewIDsOldestFirst(t *testing.T) {
	modules, reviews, leads := queryFixture()
	svc := NewModuleQueryService(modules, reviews, leads, zap.NewNop())

	rows, _, err := svc.Query(context.Background(), models.ModuleFilter{CodeSearch: "CS401"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"rev-a1", "rev-a2"}, rows[0].ReviewIDs)
}

func TestModuleQueryYearWindow(t *testing.T) {
	modules, reviews, leads := queryFixture()
	svc := NewModuleQueryService(modules, reviews, leads, zap.NewNop())

	// 2024: mod-a's reviews match; mod-b only reviewed in 2023 and mod-c
	// never reviewed, so both drop out entirely.
	rows, _, err := svc.Query(context.Background(), models.ModuleFilter{Year: intPtr(2024)})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	for _, row := range rows {
		assert.Equal(t, "mod-a", row.ModuleID)
		assert.Equal(t, models.StatusCompleted, row.Status)
	}

	rows, _, err = svc.Query(context.Background(), models.ModuleFilter{Year: intPtr(2023)})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "mod-b", rows[0].ModuleID)
	assert.Equal(t, models.StatusInProgress, rows[0].Status)
}

func TestModuleQueryYearWindowBoundaries(t *testing.T) {
	modules, _, leads := queryFixture()
	reviews := &fakeReviewStore{reviews: []models.Review{
		{ID: "rev-last", ModuleID: "mod-b", Status: models.StatusCompleted, CreatedAt: time.Date(2024, 12, 31, 23, 59, 59, 999999999, time.UTC)},
		{ID: "rev-next", ModuleID: "mod-c", Status: models.StatusCompleted, CreatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)},
	}}
	svc := NewModuleQueryService(modules, reviews, leads, zap.NewNop())

	rows, _, err := svc.Query(context.Background(), models.ModuleFilter{Year: intPtr(2024)})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "mod-b", rows[0].ModuleID)
}

func TestModuleQueryMultiValuedFilters(t *testing.T) {
	modules, reviews, leads := queryFixture()
	svc := NewModuleQueryService(modules, reviews, leads, zap.NewNop())

	// Values inside a group are OR'd.
	rows, _, err := svc.Query(context.Background(), models.ModuleFilter{Levels: []int{4, 6}})
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	// Groups combine with AND.
	rows, _, err = svc.Query(context.Background(), models.ModuleFilter{
		Levels:  []int{4, 6},
		Periods: []string{models.PeriodSemester1},
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "CS401", rows[0].Code)
	assert.Equal(t, "CW601", rows[1].Code)
}

func TestModuleQueryCodeAndAreaFilters(t *testing.T) {
	modules, reviews, leads := queryFixture()
	svc := NewModuleQueryService(modules, reviews, leads, zap.NewNop())

	rows, _, err := svc.Query(context.Background(), models.ModuleFilter{CodeSearch: "cs"})
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	rows, _, err = svc.Query(context.Background(), models.ModuleFilter{Areas: []string{"Science"}})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "BI402", rows[0].Code)
	assert.Equal(t, []string{"Science"}, modules.lastFilter.Areas)
}

func TestModuleQueryLeadSearchExcludesLeadless(t *testing.T) {
	modules, reviews, leads := queryFixture()
	svc := NewModuleQueryService(modules, reviews, leads, zap.NewNop())

	rows, _, err := svc.Query(context.Background(), models.ModuleFilter{LeadSearch: "okafor"})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	for _, row := range rows {
		assert.Equal(t, "Dana Okafor", row.LeadName)
	}

	// A leadSearch that would match the placeholder never surfaces
	// lead-less rows.
	rows, _, err = svc.Query(context.Background(), models.ModuleFilter{LeadSearch: "n/a"})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestModuleQueryStatusFilter(t *testing.T) {
	modules, reviews, leads := queryFixture()
	svc := NewModuleQueryService(modules, reviews, leads, zap.NewNop())

	rows, _, err := svc.Query(context.Background(), models.ModuleFilter{Statuses: []models.ReviewStatus{models.StatusNotStarted}})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "CW601", rows[0].Code)

	rows, _, err = svc.Query(context.Background(), models.ModuleFilter{
		Statuses: []models.ReviewStatus{models.StatusNotStarted, models.StatusInProgress},
	})
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestModuleQueryPagination(t *testing.T) {
	modules, reviews, leads := queryFixture()
	svc := NewModuleQueryService(modules, reviews, leads, zap.NewNop())

	first, pagination, err := svc.Query(context.Background(), models.ModuleFilter{Page: 1, PageSize: 3})
	require.NoError(t, err)
	assert.Len(t, first, 3)
	assert.Equal(t, 4, pagination.TotalCount)
	assert.Equal(t, 2, pagination.TotalPages)

	second, _, err := svc.Query(context.Background(), models.ModuleFilter{Page: 2, PageSize: 3})
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, "CW601", second[0].Code)

	// Same input, same page: the pipeline is deterministic.
	again, _, err := svc.Query(context.Background(), models.ModuleFilter{Page: 1, PageSize: 3})
	require.NoError(t, err)
	assert.Equal(t, first, again)

	// Past the last page is empty, not an error.
	beyond, _, err := svc.Query(context.Background(), models.ModuleFilter{Page: 9, PageSize: 3})
	require.NoError(t, err)
	assert.Empty(t, beyond)
}

func TestModuleQueryAllSkipsPagination(t *testing.T) {
	modules, reviews, leads := queryFixture()
	svc := NewModuleQueryService(modules, reviews, leads, zap.NewNop())

	rows, err := svc.QueryAll(context.Background(), models.ModuleFilter{Page: 2, PageSize: 1})
	require.NoError(t, err)
	assert.Len(t, rows, 4)
}

func TestModuleQueryStoreError(t *testing.T) {
	modules, reviews, leads := queryFixture()
	modules.err = fmt.Errorf("connection refused")
	svc := NewModuleQueryService(modules, reviews, leads, zap.NewNop())

	_, _, err := svc.Query(context.Background(), models.ModuleFilter{})
	require.Error(t, err)
}
