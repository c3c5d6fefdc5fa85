package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/modtrack/amr-api/internal/models"
	"github.com/modtrack/amr-api/internal/service"
	"github.com/modtrack/amr-api/pkg/response"
)

// moduleRowDTO is the table row shape. It picks the most recently created
// review id out of the matched set explicitly; with multiple matched
// reviews the others remain reachable through the module's review list.
type moduleRowDTO struct {
	models.ModuleRow
	ReviewID *string `json:"review_id,omitempty"`
}

// ModuleHandler exposes the module table, detail and export endpoints.
type ModuleHandler struct {
	query   *service.ModuleQueryService
	modules *service.ModuleService
	exports *service.ExportService
}

// NewModuleHandler constructs ModuleHandler.
func NewModuleHandler(query *service.ModuleQueryService, modules *service.ModuleService, exports *service.ExportService) *ModuleHandler {
	return &ModuleHandler{query: query, modules: modules, exports: exports}
}

// List godoc
// @Summary Module review table
// @Tags Modules
// @Produce json
// @Param area query []string false "Area filter"
// @Param location query []string false "Location filter"
// @Param level query []int false "Variant level filter"
// @Param period query []string false "Variant period filter"
// @Param status query []string false "Consolidated status filter"
// @Param titleSearch query string false "Title substring"
// @Param codeSearch query string false "Variant code substring"
// @Param leadSearch query string false "Lead name substring"
// @Param year query int false "Review year window"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /modules [get]
func (h *ModuleHandler) List(c *gin.Context) {
	filter := parseModuleFilter(c)
	rows, pagination, err := h.query.Query(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	dtos := make([]moduleRowDTO, 0, len(rows))
	for _, row := range rows {
		dto := moduleRowDTO{ModuleRow: row}
		if n := len(row.ReviewIDs); n > 0 {
			id := row.ReviewIDs[n-1]
			dto.ReviewID = &id
		}
		dtos = append(dtos, dto)
	}
	response.JSON(c, http.StatusOK, dtos, pagination)
}

// Get godoc
// @Summary Module detail with variants and leads
// @Tags Modules
// @Produce json
// @Param id path string true "Module ID"
// @Success 200 {object} response.Envelope
// @Router /modules/{id} [get]
func (h *ModuleHandler) Get(c *gin.Context) {
	detail, err := h.modules.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Export godoc
// @Summary Export the filtered module table
// @Tags Modules
// @Produce text/csv,application/pdf
// @Param format query string false "csv or pdf"
// @Success 200
// @Router /modules/export [get]
func (h *ModuleHandler) Export(c *gin.Context) {
	filter := parseModuleFilter(c)
	format := service.ExportFormat(strings.ToLower(c.DefaultQuery("format", "csv")))
	result, err := h.exports.ExportModules(c.Request.Context(), filter, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+result.Filename+`"`)
	c.Data(http.StatusOK, result.ContentType, result.Content)
}

// ListLeads godoc
// @Summary List module leads
// @Tags Modules
// @Produce json
// @Param search query string false "Name substring"
// @Success 200 {object} response.Envelope
// @Router /leads [get]
func (h *ModuleHandler) ListLeads(c *gin.Context) {
	leads, err := h.modules.ListLeads(c.Request.Context(), strings.TrimSpace(c.Query("search")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, leads, nil)
}
