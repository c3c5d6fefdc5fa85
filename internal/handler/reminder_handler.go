package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/modtrack/amr-api/internal/service"
	"github.com/modtrack/amr-api/pkg/response"
)

// ReminderHandler triggers the reminder sweep.
type ReminderHandler struct {
	reminders *service.ReminderService
	dashboard *service.DashboardService
}

// NewReminderHandler constructs ReminderHandler.
func NewReminderHandler(reminders *service.ReminderService, dashboard *service.DashboardService) *ReminderHandler {
	return &ReminderHandler{reminders: reminders, dashboard: dashboard}
}

// Run godoc
// @Summary Queue reminder emails for modules with incomplete reviews
// @Tags Reminders
// @Produce json
// @Param year query int false "Review year"
// @Success 202 {object} response.Envelope
// @Router /reminders/run [post]
func (h *ReminderHandler) Run(c *gin.Context) {
	year := h.dashboard.DefaultYear()
	if param := queryYear(c); param != nil {
		year = *param
	}
	result, err := h.reminders.Run(c.Request.Context(), year)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, result, nil)
}
