package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/modtrack/amr-api/internal/models"
	"github.com/modtrack/amr-api/internal/repository"
	"github.com/modtrack/amr-api/internal/service"
)

type moduleStoreStub struct {
	modules []models.Module
}

func (s *moduleStoreStub) List(context.Context, repository.ModuleSnapshotFilter) ([]models.Module, error) {
	return s.modules, nil
}

type reviewStoreStub struct {
	reviews []models.Review
}

func (s *reviewStoreStub) List(context.Context, models.ReviewFilter) ([]models.Review, error) {
	return s.reviews, nil
}

type leadStoreStub struct {
	users map[string]models.User
}

func (s *leadStoreStub) FindByIDs(_ context.Context, ids []string) (map[string]models.User, error) {
	result := make(map[string]models.User, len(ids))
	for _, id := range ids {
		if user, ok := s.users[id]; ok {
			result[id] = user
		}
	}
	return result, nil
}

func TestModuleHandlerListPicksMostRecentReviewID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	modules := &moduleStoreStub{modules: []models.Module{
		{
			ID:    "mod-a",
			Title: "Algorithms",
			Variants: []models.Variant{
				{ID: "var-a4", ModuleID: "mod-a", Code: "CS401", Level: 4, Period: models.PeriodSemester1},
			},
		},
	}}
	reviews := &reviewStoreStub{reviews: []models.Review{
		{ID: "rev-old", ModuleID: "mod-a", Status: models.StatusInProgress, CreatedAt: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)},
		{ID: "rev-new", ModuleID: "mod-a", Status: models.StatusCompleted, CreatedAt: time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)},
	}}
	query := service.NewModuleQueryService(modules, reviews, &leadStoreStub{}, zap.NewNop())
	handler := NewModuleHandler(query, nil, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, err := http.NewRequest(http.MethodGet, "/modules", nil)
	require.NoError(t, err)
	c.Request = req

	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data []struct {
			Code     string  `json:"code"`
			Status   string  `json:"status"`
			LeadName string  `json:"lead_name"`
			ReviewID *string `json:"review_id"`
		} `json:"data"`
		Pagination *models.Pagination `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 1)
	assert.Equal(t, "CS401", envelope.Data[0].Code)
	assert.Equal(t, "Completed", envelope.Data[0].Status)
	assert.Equal(t, "N/A", envelope.Data[0].LeadName)
	require.NotNil(t, envelope.Data[0].ReviewID)
	assert.Equal(t, "rev-new", *envelope.Data[0].ReviewID)
	require.NotNil(t, envelope.Pagination)
	assert.Equal(t, 1, envelope.Pagination.TotalCount)
}

func TestModuleHandlerListNoReviews(t *testing.T) {
	gin.SetMode(gin.TestMode)

	modules := &moduleStoreStub{modules: []models.Module{
		{
			ID:       "mod-b",
			Title:    "Biochemistry",
			Variants: []models.Variant{{ID: "var-b4", ModuleID: "mod-b", Code: "BI402", Level: 4, Period: models.PeriodYearLong}},
		},
	}}
	query := service.NewModuleQueryService(modules, &reviewStoreStub{}, &leadStoreStub{}, zap.NewNop())
	handler := NewModuleHandler(query, nil, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, err := http.NewRequest(http.MethodGet, "/modules", nil)
	require.NoError(t, err)
	c.Request = req

	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data []struct {
			Status   string  `json:"status"`
			ReviewID *string `json:"review_id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 1)
	assert.Equal(t, "Not Started", envelope.Data[0].Status)
	assert.Nil(t, envelope.Data[0].ReviewID)
}
