package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/assignmate/assignmate/internal/dto"
	apierrors "github.com/assignmate/assignmate/internal/errors"
	"github.com/assignmate/assignmate/internal/services"
	"github.com/assignmate/assignmate/internal/utils"
	"github.com/gin-gonic/gin"
)

// AdminHandler serves the admin panel: aggregate stats, the user list, and
// the admin flag toggle. All routes sit behind RequireAdmin.
type AdminHandler struct {
	adminService *services.AdminService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(adminService *services.AdminService) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

// GetStats returns the aggregate usage snapshot.
func (h *AdminHandler) GetStats(c *gin.Context) {
	stats, err := h.adminService.Stats(time.Now())
	if err != nil {
		log.Printf("failed to compute stats: %v", err)
		apierrors.InternalError(c, "Failed to compute stats")
		return
	}

	c.JSON(http.StatusOK, stats)
}

// ListUsers returns users with their assignment counts, paginated.
func (h *AdminHandler) ListUsers(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	users, total, err := h.adminService.ListUsers(params)
	if err != nil {
		log.Printf("failed to list users: %v", err)
		apierrors.InternalError(c, "Failed to list users")
		return
	}

	items := make([]dto.AdminUserDTO, len(users))
	for i, u := range users {
		items[i] = dto.ToAdminUserDTO(u.User, u.AssignmentCount)
	}

	c.JSON(http.StatusOK, gin.H{
		"users": items,
		"pagination": utils.PaginationResponse{
			Page:  params.Page,
			Limit: params.Limit,
			Total: total,
		},
	})
}

// SetAdmin toggles the admin flag on a user.
func (h *AdminHandler) SetAdmin(c *gin.Context) {
	type SetAdminRequest struct {
		IsAdmin *bool `json:"is_admin" binding:"required"`
	}

	var req SetAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	user, err := h.adminService.SetAdmin(c.Param("id"), *req.IsAdmin)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			apierrors.NotFound(c, "User not found")
			return
		}
		log.Printf("failed to set admin flag: %v", err)
		apierrors.InternalError(c, "Failed to update user")
		return
	}

	c.JSON(http.StatusOK, dto.ToUserDTO(*user))
}
