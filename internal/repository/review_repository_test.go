package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modtrack/amr-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "postgres"), mock, func() { db.Close() }
}

func reviewColumns() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "module_id", "status", "review_date", "enhance_update", "student_attainment", "module_feedback", "evidence_path", "feedback_path", "created_at", "updated_at"})
}

func TestReviewRepositoryListWindow(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReviewRepository(db)

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(1, 0, 0)
	created := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, module_id, status, review_date, enhance_update, student_attainment, module_feedback, evidence_path, feedback_path, created_at, updated_at FROM reviews WHERE 1=1 AND module_id IN ($1) AND created_at >= $2 AND created_at < $3 ORDER BY created_at ASC")).
		WithArgs("mod-a", from, to).
		WillReturnRows(reviewColumns().
			AddRow("rev-1", "mod-a", "Completed", nil, "update", nil, nil, nil, nil, created, created))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, review_id, kind, theme, description FROM review_points WHERE review_id IN ($1) ORDER BY id ASC")).
		WithArgs("rev-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "review_id", "kind", "theme", "description"}).
			AddRow("pt-1", "rev-1", "good_practice", "Assessment", "shared rubric").
			AddRow("pt-2", "rev-1", "enhance_plan", "Student Engagement", "more seminars"))

	reviews, err := repo.List(context.Background(), models.ReviewFilter{ModuleIDs: []string{"mod-a"}, From: &from, To: &to})
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, models.StatusCompleted, reviews[0].Status)
	require.Len(t, reviews[0].GoodPractice, 1)
	require.Len(t, reviews[0].EnhancePlans, 1)
	assert.Empty(t, reviews[0].Risks)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepositoryListEmpty(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReviewRepository(db)

	mock.ExpectQuery("SELECT id, module_id").WillReturnRows(reviewColumns())

	reviews, err := repo.List(context.Background(), models.ReviewFilter{})
	require.NoError(t, err)
	assert.Empty(t, reviews)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepositoryFindByIDMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReviewRepository(db)

	mock.ExpectQuery("SELECT id, module_id").WithArgs("rev-x").WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "rev-x")
	require.True(t, errors.Is(err, sql.ErrNoRows))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReviewRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO reviews").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO review_points").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	review := &models.Review{
		ModuleID:      "mod-a",
		Status:        models.StatusCompleted,
		EnhanceUpdate: "done",
		GoodPractice:  []models.ThemedPoint{{Theme: models.ThemeAssessment, Description: "rubric"}},
	}
	err := repo.Create(context.Background(), review)
	require.NoError(t, err)
	assert.NotEmpty(t, review.ID)
	assert.False(t, review.CreatedAt.IsZero())
	assert.Equal(t, models.PointGoodPractice, review.GoodPractice[0].Kind)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepositoryUpdateMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReviewRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE reviews SET").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Update(context.Background(), &models.Review{ID: "rev-x", EnhanceUpdate: "x"})
	require.True(t, errors.Is(err, sql.ErrNoRows))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepositoryUpdateReplacesPoints(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReviewRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE reviews SET").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM review_points").
		WithArgs("rev-1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("INSERT INTO review_points").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := repo.Update(context.Background(), &models.Review{
		ID:            "rev-1",
		Status:        models.StatusCompleted,
		EnhanceUpdate: "refreshed",
		Risks:         []models.ThemedPoint{{Theme: models.ThemeEngagement, Description: "attendance dip"}},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepositoryUpdateRollsBackOnPointInsertFailure(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReviewRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE reviews SET").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM review_points").
		WithArgs("rev-1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("INSERT INTO review_points").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := repo.Update(context.Background(), &models.Review{
		ID:            "rev-1",
		Status:        models.StatusCompleted,
		EnhanceUpdate: "refreshed",
		GoodPractice:  []models.ThemedPoint{{Theme: models.ThemeAssessment, Description: "rubric"}},
	})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepositoryCreateRollsBackOnPointInsertFailure(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReviewRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO reviews").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO review_points").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &models.Review{
		ModuleID:      "mod-a",
		EnhanceUpdate: "done",
		Risks:         []models.ThemedPoint{{Theme: models.ThemeEngagement, Description: "attendance dip"}},
	})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
