package handlers

import (
	"log"
	"net/http"
	"strconv"
	"time"

	apierrors "github.com/assignmate/assignmate/internal/errors"
	"github.com/assignmate/assignmate/internal/middleware"
	"github.com/assignmate/assignmate/internal/services"
	"github.com/gin-gonic/gin"
)

// DashboardHandler serves the dashboard summary and the calendar view.
type DashboardHandler struct {
	service *services.AssignmentService
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(service *services.AssignmentService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// GetDashboard returns the caller's totals plus upcoming and recent lists.
func (h *DashboardHandler) GetDashboard(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	summary, err := h.service.Dashboard(c.Request.Context(), userID, time.Now())
	if err != nil {
		log.Printf("failed to build dashboard: %v", err)
		apierrors.InternalError(c, "Failed to build dashboard")
		return
	}

	c.JSON(http.StatusOK, summary)
}

// GetCalendar returns the caller's assignments bucketed per day of the
// requested month. Defaults to the current month.
func (h *DashboardHandler) GetCalendar(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	now := time.Now()
	year := now.Year()
	month := now.Month()

	if v := c.Query("year"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			apierrors.BadRequest(c, "Invalid year")
			return
		}
		year = parsed
	}
	if v := c.Query("month"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 || parsed > 12 {
			apierrors.BadRequest(c, "Invalid month")
			return
		}
		month = time.Month(parsed)
	}

	days, err := h.service.Calendar(c.Request.Context(), userID, year, month)
	if err != nil {
		log.Printf("failed to build calendar: %v", err)
		apierrors.InternalError(c, "Failed to build calendar")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"year":  year,
		"month": int(month),
		"days":  days,
	})
}
