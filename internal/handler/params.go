package handler

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/modtrack/amr-api/internal/models"
)

// queryValues gathers a possibly multi-valued query parameter. Repeated
// keys and comma-separated values are both accepted.
func queryValues(c *gin.Context, key string) []string {
	raw := c.QueryArray(key)
	values := make([]string, 0, len(raw))
	for _, entry := range raw {
		for _, part := range strings.Split(entry, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				values = append(values, trimmed)
			}
		}
	}
	return values
}

func queryInt(c *gin.Context, key string, fallback int) int {
	if value, err := strconv.Atoi(c.DefaultQuery(key, "")); err == nil {
		return value
	}
	return fallback
}

func queryYear(c *gin.Context) *int {
	raw := c.Query("year")
	if raw == "" {
		return nil
	}
	year, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	return &year
}

// parseModuleFilter reads every table filter from the request.
func parseModuleFilter(c *gin.Context) models.ModuleFilter {
	filter := models.ModuleFilter{
		Areas:       queryValues(c, "area"),
		Locations:   queryValues(c, "location"),
		TitleSearch: strings.TrimSpace(c.Query("titleSearch")),
		Periods:     queryValues(c, "period"),
		CodeSearch:  strings.TrimSpace(c.Query("codeSearch")),
		LeadSearch:  strings.TrimSpace(c.Query("leadSearch")),
		Year:        queryYear(c),
		Page:        queryInt(c, "page", 1),
		PageSize:    queryInt(c, "limit", 20),
	}
	for _, raw := range queryValues(c, "level") {
		if level, err := strconv.Atoi(raw); err == nil {
			filter.Levels = append(filter.Levels, level)
		}
	}
	for _, raw := range queryValues(c, "status") {
		filter.Statuses = append(filter.Statuses, models.ReviewStatus(raw))
	}
	return filter
}
