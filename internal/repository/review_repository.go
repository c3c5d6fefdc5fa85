package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/modtrack/amr-api/internal/models"
)

// ReviewRepository manages persistence for reviews and their themed points.
type ReviewRepository struct {
	db *sqlx.DB
}

// NewReviewRepository constructs a ReviewRepository.
func NewReviewRepository(db *sqlx.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// List returns reviews for the given module set, optionally bounded to the
// half-open created_at interval [From, To). Themed points are attached.
// Results are ordered by created_at ascending so callers can rely on the
// oldest-to-newest review id ordering.
func (r *ReviewRepository) List(ctx context.Context, filter models.ReviewFilter) ([]models.Review, error) {
	query := `SELECT id, module_id, status, review_date, enhance_update, student_attainment, module_feedback, evidence_path, feedback_path, created_at, updated_at FROM reviews WHERE 1=1`
	args := []interface{}{}

	if len(filter.ModuleIDs) > 0 {
		query += ` AND module_id IN (?)`
		args = append(args, filter.ModuleIDs)
	}
	if filter.From != nil {
		query += ` AND created_at >= ?`
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		query += ` AND created_at < ?`
		args = append(args, *filter.To)
	}
	query += ` ORDER BY created_at ASC`

	expanded, expandedArgs, err := sqlx.In(query, args...)
	if err != nil {
		return nil, fmt.Errorf("build review query: %w", err)
	}
	expanded = r.db.Rebind(expanded)

	var reviews []models.Review
	if err := r.db.SelectContext(ctx, &reviews, expanded, expandedArgs...); err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	if len(reviews) == 0 {
		return reviews, nil
	}
	if err := r.attachPoints(ctx, reviews); err != nil {
		return nil, err
	}
	return reviews, nil
}

// FindByID fetches a single review with its themed points.
func (r *ReviewRepository) FindByID(ctx context.Context, id string) (*models.Review, error) {
	const query = `SELECT id, module_id, status, review_date, enhance_update, student_attainment, module_feedback, evidence_path, feedback_path, created_at, updated_at FROM reviews WHERE id = $1`
	var review models.Review
	if err := r.db.GetContext(ctx, &review, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get review: %w", err)
	}
	rs := []models.Review{review}
	if err := r.attachPoints(ctx, rs); err != nil {
		return nil, err
	}
	return &rs[0], nil
}

// Create inserts a review and its themed points within a transaction.
func (r *ReviewRepository) Create(ctx context.Context, review *models.Review) error {
	if review.ID == "" {
		review.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if review.CreatedAt.IsZero() {
		review.CreatedAt = now
	}
	review.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create review: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const query = `INSERT INTO reviews (id, module_id, status, review_date, enhance_update, student_attainment, module_feedback, evidence_path, feedback_path, created_at, updated_at)
        VALUES (:id, :module_id, :status, :review_date, :enhance_update, :student_attainment, :module_feedback, :evidence_path, :feedback_path, :created_at, :updated_at)`
	if _, err = tx.NamedExecContext(ctx, query, review); err != nil {
		return fmt.Errorf("create review: %w", err)
	}
	if err = insertPoints(ctx, tx, review); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create review: %w", err)
	}
	return nil
}

// Update amends a review in place and replaces its themed point lists.
// The row update, the point delete and the reinserts share one transaction
// so a failed reinsert never leaves a review stripped of its points.
func (r *ReviewRepository) Update(ctx context.Context, review *models.Review) error {
	review.UpdatedAt = time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update review: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const query = `UPDATE reviews SET status = :status, review_date = :review_date, enhance_update = :enhance_update, student_attainment = :student_attainment, module_feedback = :module_feedback, evidence_path = :evidence_path, feedback_path = :feedback_path, updated_at = :updated_at WHERE id = :id`
	var result sql.Result
	if result, err = tx.NamedExecContext(ctx, query, review); err != nil {
		return fmt.Errorf("update review: %w", err)
	}
	if affected, raErr := result.RowsAffected(); raErr == nil && affected == 0 {
		err = sql.ErrNoRows
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM review_points WHERE review_id = $1`, review.ID); err != nil {
		return fmt.Errorf("clear review points: %w", err)
	}
	if err = insertPoints(ctx, tx, review); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit update review: %w", err)
	}
	return nil
}

func insertPoints(ctx context.Context, tx *sqlx.Tx, review *models.Review) error {
	insert := func(points []models.ThemedPoint, kind models.PointKind) error {
		for i := range points {
			p := &points[i]
			if p.ID == "" {
				p.ID = uuid.NewString()
			}
			p.ReviewID = review.ID
			p.Kind = kind
			const query = `INSERT INTO review_points (id, review_id, kind, theme, description)
                VALUES (:id, :review_id, :kind, :theme, :description)`
			if _, err := tx.NamedExecContext(ctx, query, p); err != nil {
				return fmt.Errorf("create review point: %w", err)
			}
		}
		return nil
	}
	if err := insert(review.GoodPractice, models.PointGoodPractice); err != nil {
		return err
	}
	if err := insert(review.Risks, models.PointRisk); err != nil {
		return err
	}
	return insert(review.EnhancePlans, models.PointEnhancePlan)
}

func (r *ReviewRepository) attachPoints(ctx context.Context, reviews []models.Review) error {
	ids := make([]string, 0, len(reviews))
	index := make(map[string]*models.Review, len(reviews))
	for i := range reviews {
		ids = append(ids, reviews[i].ID)
		index[reviews[i].ID] = &reviews[i]
	}

	query, args, err := sqlx.In(`SELECT id, review_id, kind, theme, description FROM review_points WHERE review_id IN (?) ORDER BY id ASC`, ids)
	if err != nil {
		return fmt.Errorf("build review points query: %w", err)
	}
	query = r.db.Rebind(query)

	var points []models.ThemedPoint
	if err := r.db.SelectContext(ctx, &points, query, args...); err != nil {
		return fmt.Errorf("list review points: %w", err)
	}
	for _, p := range points {
		review, ok := index[p.ReviewID]
		if !ok {
			continue
		}
		switch p.Kind {
		case models.PointGoodPractice:
			review.GoodPractice = append(review.GoodPractice, p)
		case models.PointRisk:
			review.Risks = append(review.Risks, p)
		case models.PointEnhancePlan:
			review.EnhancePlans = append(review.EnhancePlans, p)
		}
	}
	return nil
}
