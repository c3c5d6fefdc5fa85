package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/modtrack/amr-api/internal/models"
	appErrors "github.com/modtrack/amr-api/pkg/errors"
)

type reviewStore interface {
	reviewLister
	FindByID(ctx context.Context, id string) (*models.Review, error)
	Create(ctx context.Context, review *models.Review) error
	Update(ctx context.Context, review *models.Review) error
}

type moduleFinder interface {
	FindByID(ctx context.Context, id string) (*models.Module, error)
}

type attachmentStore interface {
	SaveStream(filename string, r io.Reader) (string, error)
}

// ThemedPointInput is one themed entry in a review payload.
type ThemedPointInput struct {
	Theme       models.PointTheme `json:"theme" validate:"required,point_theme"`
	Description string            `json:"description" validate:"required"`
}

// CreateReviewRequest is the create-review payload.
type CreateReviewRequest struct {
	ModuleID          string              `json:"module_id" validate:"required"`
	Status            models.ReviewStatus `json:"status" validate:"omitempty,review_status"`
	ReviewDate        *time.Time          `json:"review_date"`
	EnhanceUpdate     string              `json:"enhance_update" validate:"required"`
	StudentAttainment *string             `json:"student_attainment"`
	ModuleFeedback    *string             `json:"module_feedback"`
	GoodPractice      []ThemedPointInput  `json:"good_practice" validate:"omitempty,dive"`
	Risks             []ThemedPointInput  `json:"risks" validate:"omitempty,dive"`
	EnhancePlans      []ThemedPointInput  `json:"enhance_plans" validate:"omitempty,dive"`
}

// UpdateReviewRequest amends an existing review in place.
type UpdateReviewRequest struct {
	Status            models.ReviewStatus `json:"status" validate:"omitempty,review_status"`
	ReviewDate        *time.Time          `json:"review_date"`
	EnhanceUpdate     string              `json:"enhance_update" validate:"required"`
	StudentAttainment *string             `json:"student_attainment"`
	ModuleFeedback    *string             `json:"module_feedback"`
	GoodPractice      []ThemedPointInput  `json:"good_practice" validate:"omitempty,dive"`
	Risks             []ThemedPointInput  `json:"risks" validate:"omitempty,dive"`
	EnhancePlans      []ThemedPointInput  `json:"enhance_plans" validate:"omitempty,dive"`
}

// ReviewService owns the review write path and the per-module review reads.
type ReviewService struct {
	reviews     reviewStore
	modules     moduleFinder
	attachments attachmentStore
	cache       *CacheService
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewReviewService constructs a ReviewService.
func NewReviewService(reviews reviewStore, modules moduleFinder, attachments attachmentStore, cache *CacheService, logger *zap.Logger) *ReviewService {
	if logger == nil {
		logger = zap.NewNop()
	}
	validate := validator.New()
	validate.RegisterValidation("review_status", func(fl validator.FieldLevel) bool { //nolint:errcheck
		switch models.ReviewStatus(fl.Field().String()) {
		case models.StatusNotStarted, models.StatusInProgress, models.StatusCompleted:
			return true
		default:
			return false
		}
	})
	validate.RegisterValidation("point_theme", func(fl validator.FieldLevel) bool { //nolint:errcheck
		switch models.PointTheme(fl.Field().String()) {
		case models.ThemeAssessment, models.ThemeLearningTeaching, models.ThemeCourseDesign, models.ThemeEngagement:
			return true
		default:
			return false
		}
	})
	return &ReviewService{reviews: reviews, modules: modules, attachments: attachments, cache: cache, validator: validate, logger: logger}
}

// Create records a new review. The create path marks reviews Completed
// unless told otherwise, even though the stored default is In Progress;
// upstream data depends on this asymmetry, so it stays.
func (s *ReviewService) Create(ctx context.Context, req CreateReviewRequest) (*models.Review, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	if _, err := s.modules.FindByID(ctx, req.ModuleID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "module not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "module lookup failed")
	}

	status := req.Status
	if status == "" {
		status = models.StatusCompleted
	}

	review := &models.Review{
		ModuleID:          req.ModuleID,
		Status:            status,
		ReviewDate:        req.ReviewDate,
		EnhanceUpdate:     req.EnhanceUpdate,
		StudentAttainment: req.StudentAttainment,
		ModuleFeedback:    req.ModuleFeedback,
		GoodPractice:      toThemedPoints(req.GoodPractice),
		Risks:             toThemedPoints(req.Risks),
		EnhancePlans:      toThemedPoints(req.EnhancePlans),
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		s.logger.Error("review create failed", zap.String("module_id", req.ModuleID), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "review create failed")
	}
	s.invalidateDashboard(ctx)
	return review, nil
}

// Get fetches a single review.
func (s *ReviewService) Get(ctx context.Context, id string) (*models.Review, error) {
	if id == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "review id is required")
	}
	review, err := s.reviews.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "review not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "review lookup failed")
	}
	return review, nil
}

// ListByModule returns a module's reviews, optionally scoped to a year
// window on creation time.
func (s *ReviewService) ListByModule(ctx context.Context, moduleID string, year *int) ([]models.Review, error) {
	if moduleID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "module id is required")
	}
	if _, err := s.modules.FindByID(ctx, moduleID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "module not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "module lookup failed")
	}

	filter := models.ReviewFilter{ModuleIDs: []string{moduleID}}
	if year != nil {
		from, to := YearWindow(*year)
		filter.From = &from
		filter.To = &to
	}
	reviews, err := s.reviews.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "review lookup failed")
	}
	return reviews, nil
}

// Update amends a review in place.
func (s *ReviewService) Update(ctx context.Context, id string, req UpdateReviewRequest) (*models.Review, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	review, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Status != "" {
		review.Status = req.Status
	}
	review.ReviewDate = req.ReviewDate
	review.EnhanceUpdate = req.EnhanceUpdate
	review.StudentAttainment = req.StudentAttainment
	review.ModuleFeedback = req.ModuleFeedback
	review.GoodPractice = toThemedPoints(req.GoodPractice)
	review.Risks = toThemedPoints(req.Risks)
	review.EnhancePlans = toThemedPoints(req.EnhancePlans)

	if err := s.reviews.Update(ctx, review); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "review not found")
		}
		s.logger.Error("review update failed", zap.String("review_id", id), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "review update failed")
	}
	s.invalidateDashboard(ctx)
	return review, nil
}

// AttachmentKind selects which upload slot a file lands in.
type AttachmentKind string

const (
	AttachmentEvidence AttachmentKind = "evidence"
	AttachmentFeedback AttachmentKind = "feedback"
)

// Attach stores an uploaded file and records its path on the review. Only
// the path is kept; no file content flows through any computation.
func (s *ReviewService) Attach(ctx context.Context, id string, kind AttachmentKind, filename string, r io.Reader) (*models.Review, error) {
	review, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.attachments == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "upload storage unavailable")
	}

	stored := fmt.Sprintf("%s/%s/%s%s", review.ID, kind, uuid.NewString(), filepath.Ext(filename))
	path, err := s.attachments.SaveStream(stored, r)
	if err != nil {
		s.logger.Error("attachment store failed", zap.String("review_id", id), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "attachment store failed")
	}

	switch kind {
	case AttachmentFeedback:
		review.FeedbackPath = &path
	default:
		review.EvidencePath = &path
	}
	if err := s.reviews.Update(ctx, review); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "review update failed")
	}
	return review, nil
}

func (s *ReviewService) invalidateDashboard(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, "amr:dash:*"); err != nil {
		s.logger.Warn("dashboard cache invalidation failed", zap.Error(err))
	}
}

func toThemedPoints(inputs []ThemedPointInput) []models.ThemedPoint {
	if len(inputs) == 0 {
		return nil
	}
	points := make([]models.ThemedPoint, 0, len(inputs))
	for _, input := range inputs {
		points = append(points, models.ThemedPoint{Theme: input.Theme, Description: input.Description})
	}
	return points
}
