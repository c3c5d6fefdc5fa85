package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/modtrack/amr-api/internal/service"
	"github.com/modtrack/amr-api/pkg/response"
)

// DashboardHandler serves the summary cards and chart tables.
type DashboardHandler struct {
	dashboard   *service.DashboardService
	aggregation *service.AggregationService
}

// NewDashboardHandler constructs DashboardHandler.
func NewDashboardHandler(dashboard *service.DashboardService, aggregation *service.AggregationService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard, aggregation: aggregation}
}

func (h *DashboardHandler) resolveYear(c *gin.Context) int {
	if year := queryYear(c); year != nil {
		return *year
	}
	return h.dashboard.DefaultYear()
}

// Summary godoc
// @Summary Dashboard card values
// @Tags Dashboard
// @Produce json
// @Param year query int false "Review year"
// @Param area query []string false "Area filter" collectionFormat(multi)
// @Success 200 {object} response.Envelope
// @Router /dashboard/summary [get]
func (h *DashboardHandler) Summary(c *gin.Context) {
	summary, err := h.dashboard.Summarize(c.Request.Context(), h.resolveYear(c), queryValues(c, "area"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// Overview godoc
// @Summary Full dashboard payload
// @Tags Dashboard
// @Produce json
// @Param year query int false "Review year"
// @Param area query []string false "Area filter" collectionFormat(multi)
// @Success 200 {object} response.Envelope
// @Router /dashboard/overview [get]
func (h *DashboardHandler) Overview(c *gin.Context) {
	overview, cached, err := h.dashboard.Overview(c.Request.Context(), h.resolveYear(c), queryValues(c, "area"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, overview, nil, map[string]interface{}{"cached": cached})
}

// GoodPracticeThemes godoc
// @Summary Good practice counts by theme
// @Tags Dashboard
// @Produce json
// @Param year query int false "Review year"
// @Param area query []string false "Area filter" collectionFormat(multi)
// @Success 200 {object} response.Envelope
// @Router /dashboard/good-practice-themes [get]
func (h *DashboardHandler) GoodPracticeThemes(c *gin.Context) {
	h.themes(c, service.CollectionGoodPractice)
}

// EnhancementThemes godoc
// @Summary Enhancement plan counts by theme
// @Tags Dashboard
// @Produce json
// @Param year query int false "Review year"
// @Param area query []string false "Area filter" collectionFormat(multi)
// @Success 200 {object} response.Envelope
// @Router /dashboard/enhancement-themes [get]
func (h *DashboardHandler) EnhancementThemes(c *gin.Context) {
	h.themes(c, service.CollectionEnhancePlans)
}

func (h *DashboardHandler) themes(c *gin.Context, collection service.PointCollection) {
	year := h.resolveYear(c)
	filter := service.AggregateFilter{Year: &year, Areas: queryValues(c, "area")}
	counts, err := h.aggregation.AggregateByTheme(c.Request.Context(), collection, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, counts, nil)
}

// ReviewStatus godoc
// @Summary Module counts by consolidated review status
// @Tags Dashboard
// @Produce json
// @Param year query int false "Review year"
// @Param area query []string false "Area filter" collectionFormat(multi)
// @Success 200 {object} response.Envelope
// @Router /dashboard/review-status [get]
func (h *DashboardHandler) ReviewStatus(c *gin.Context) {
	year := h.resolveYear(c)
	filter := service.AggregateFilter{Year: &year, Areas: queryValues(c, "area")}
	counts, err := h.aggregation.AggregateByStatus(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, counts, nil)
}
