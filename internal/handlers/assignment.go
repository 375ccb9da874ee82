package handlers

import (
	"errors"
	"io"
	"log"
	"net/http"

	apierrors "github.com/assignmate/assignmate/internal/errors"
	"github.com/assignmate/assignmate/internal/middleware"
	"github.com/assignmate/assignmate/internal/services"
	"github.com/gin-gonic/gin"
)

// AssignmentHandler coordinates assignment HTTP handlers.
type AssignmentHandler struct {
	service *services.AssignmentService
}

// NewAssignmentHandler creates a new AssignmentHandler.
func NewAssignmentHandler(service *services.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{service: service}
}

// ListAssignments returns the caller's assignments, due date ascending.
func (h *AssignmentHandler) ListAssignments(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	assignments, err := h.service.List(c.Request.Context(), userID)
	if err != nil {
		log.Printf("failed to list assignments: %v", err)
		apierrors.InternalError(c, "Failed to fetch assignments")
		return
	}

	c.JSON(http.StatusOK, assignments)
}

// GetAssignment returns one of the caller's assignments.
func (h *AssignmentHandler) GetAssignment(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	assignment, err := h.service.Get(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondAssignmentError(c, err)
		return
	}

	c.JSON(http.StatusOK, assignment)
}

// CreateAssignment creates a new assignment for the caller.
func (h *AssignmentHandler) CreateAssignment(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	type CreateAssignmentRequest struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Subject     string `json:"subject"`
		DueDate     string `json:"due_date"`
		Priority    string `json:"priority"`
	}

	var req CreateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	assignment, err := h.service.Create(c.Request.Context(), userID, services.CreateAssignmentInput{
		Title:       req.Title,
		Description: req.Description,
		Subject:     req.Subject,
		DueDate:     req.DueDate,
		Priority:    req.Priority,
	})
	if err != nil {
		respondAssignmentError(c, err)
		return
	}

	c.JSON(http.StatusCreated, assignment)
}

// ReplaceAssignment performs a full-replace update; every required field
// is revalidated.
func (h *AssignmentHandler) ReplaceAssignment(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	type ReplaceAssignmentRequest struct {
		Title       string  `json:"title"`
		Description string  `json:"description"`
		Subject     string  `json:"subject"`
		DueDate     string  `json:"due_date"`
		Priority    string  `json:"priority"`
		Status      *string `json:"status"`
	}

	var req ReplaceAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	assignment, err := h.service.Replace(c.Request.Context(), userID, c.Param("id"), services.CreateAssignmentInput{
		Title:       req.Title,
		Description: req.Description,
		Subject:     req.Subject,
		DueDate:     req.DueDate,
		Priority:    req.Priority,
	}, req.Status)
	if err != nil {
		respondAssignmentError(c, err)
		return
	}

	c.JSON(http.StatusOK, assignment)
}

// PatchAssignment performs a partial-merge update of the provided fields.
func (h *AssignmentHandler) PatchAssignment(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	type PatchAssignmentRequest struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
		Subject     *string `json:"subject"`
		DueDate     *string `json:"due_date"`
		Priority    *string `json:"priority"`
		Status      *string `json:"status"`
	}

	var req PatchAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	assignment, err := h.service.Patch(c.Request.Context(), userID, c.Param("id"), services.UpdateAssignmentInput{
		Title:       req.Title,
		Description: req.Description,
		Subject:     req.Subject,
		DueDate:     req.DueDate,
		Priority:    req.Priority,
		Status:      req.Status,
	})
	if err != nil {
		respondAssignmentError(c, err)
		return
	}

	c.JSON(http.StatusOK, assignment)
}

// DeleteAssignment removes one of the caller's assignments.
func (h *AssignmentHandler) DeleteAssignment(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	if err := h.service.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		respondAssignmentError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Assignment deleted",
	})
}

// WatchAssignments streams list snapshots over SSE. One event per durable
// mutation; each event carries the caller's full list.
func (h *AssignmentHandler) WatchAssignments(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	feed, err := h.service.Watch(c.Request.Context(), userID)
	if err != nil {
		log.Printf("failed to open watch feed: %v", err)
		apierrors.InternalError(c, "Failed to open feed")
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		snapshot, ok := <-feed
		if !ok {
			return false
		}
		c.SSEvent("assignments", snapshot)
		return true
	})
}

func respondAssignmentError(c *gin.Context, err error) {
	var validationErr *services.ValidationError
	switch {
	case errors.As(err, &validationErr):
		apierrors.ValidationFailed(c, validationErr.Fields)
	case errors.Is(err, services.ErrAssignmentNotFound):
		apierrors.NotFound(c, "Assignment not found")
	default:
		log.Printf("assignment operation failed: %v", err)
		apierrors.InternalError(c, "")
	}
}
