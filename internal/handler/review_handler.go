package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/modtrack/amr-api/internal/service"
	appErrors "github.com/modtrack/amr-api/pkg/errors"
	"github.com/modtrack/amr-api/pkg/response"
)

// ReviewHandler exposes review creation, lookup and amendment.
type ReviewHandler struct {
	reviews       *service.ReviewService
	maxUploadSize int64
}

// NewReviewHandler constructs ReviewHandler.
func NewReviewHandler(reviews *service.ReviewService, maxUploadSize int64) *ReviewHandler {
	return &ReviewHandler{reviews: reviews, maxUploadSize: maxUploadSize}
}

// Create godoc
// @Summary Record a review report
// @Tags Reviews
// @Accept json
// @Produce json
// @Param payload body service.CreateReviewRequest true "Review payload"
// @Success 201 {object} response.Envelope
// @Router /reviews [post]
func (h *ReviewHandler) Create(c *gin.Context) {
	var req service.CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	review, err := h.reviews.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, review)
}

// Get godoc
// @Summary Review detail
// @Tags Reviews
// @Produce json
// @Param id path string true "Review ID"
// @Success 200 {object} response.Envelope
// @Router /reviews/{id} [get]
func (h *ReviewHandler) Get(c *gin.Context) {
	review, err := h.reviews.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, review, nil)
}

// ListByModule godoc
// @Summary Reviews for a module
// @Tags Reviews
// @Produce json
// @Param id path string true "Module ID"
// @Param year query int false "Review year window"
// @Success 200 {object} response.Envelope
// @Router /modules/{id}/reviews [get]
func (h *ReviewHandler) ListByModule(c *gin.Context) {
	reviews, err := h.reviews.ListByModule(c.Request.Context(), c.Param("id"), queryYear(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reviews, nil)
}

// Update godoc
// @Summary Amend a review in place
// @Tags Reviews
// @Accept json
// @Produce json
// @Param id path string true "Review ID"
// @Param payload body service.UpdateReviewRequest true "Review payload"
// @Success 200 {object} response.Envelope
// @Router /reviews/{id} [put]
func (h *ReviewHandler) Update(c *gin.Context) {
	var req service.UpdateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	review, err := h.reviews.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, review, nil)
}

// Attach godoc
// @Summary Attach evidence or feedback upload to a review
// @Tags Reviews
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Review ID"
// @Param kind path string true "evidence or feedback"
// @Param file formData file true "Upload"
// @Success 200 {object} response.Envelope
// @Router /reviews/{id}/attachments/{kind} [put]
func (h *ReviewHandler) Attach(c *gin.Context) {
	kind := service.AttachmentKind(c.Param("kind"))
	if kind != service.AttachmentEvidence && kind != service.AttachmentFeedback {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "attachment kind must be evidence or feedback"))
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "file upload is required"))
		return
	}
	if h.maxUploadSize > 0 && header.Size > h.maxUploadSize {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "uploaded file is too large"))
		return
	}
	file, err := header.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "upload read failed"))
		return
	}
	defer file.Close() //nolint:errcheck

	review, err := h.reviews.Attach(c.Request.Context(), c.Param("id"), kind, header.Filename, file)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, review, nil)
}
