// Package store owns persistence of assignments. Two interchangeable
// backings exist: a relational one on GORM and a document one on Redis
// with a per-user push feed. Both satisfy AssignmentStore.
package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/assignmate/assignmate/internal/models"
)

var (
	// ErrAssignmentNotFound is returned when no record with the given id exists.
	ErrAssignmentNotFound = errors.New("assignment not found")
)

// MissingFieldsError reports the required fields absent or empty on create.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return "missing required fields: " + strings.Join(e.Fields, ", ")
}

// CreateFields holds the caller-supplied attributes of a new assignment.
// Status is deliberately absent: every assignment starts as pending.
type CreateFields struct {
	Title       string
	Description string
	Subject     string
	DueDate     time.Time
	Priority    models.Priority
}

// UpdateFields holds a partial set of attributes to merge into a stored
// assignment. Nil fields are left untouched.
type UpdateFields struct {
	Title       *string
	Description *string
	Subject     *string
	DueDate     *time.Time
	Priority    *models.Priority
	Status      *models.Status
}

// AssignmentStore persists and retrieves assignments for their owning users.
type AssignmentStore interface {
	// Create persists a new assignment with status pending and
	// server-assigned id and timestamps.
	Create(ctx context.Context, userID string, fields CreateFields) (*models.Assignment, error)

	// GetByID returns the assignment with the given id, owner included.
	GetByID(ctx context.Context, id string) (*models.Assignment, error)

	// ListByUser returns the user's assignments ordered by due date ascending.
	ListByUser(ctx context.Context, userID string) ([]models.Assignment, error)

	// Update merges the supplied fields into the stored record and
	// refreshes UpdatedAt.
	Update(ctx context.Context, id string, fields UpdateFields) (*models.Assignment, error)

	// Delete removes the assignment permanently.
	Delete(ctx context.Context, id string) error

	// Watch emits a full snapshot of the user's assignments after every
	// durable mutation, until ctx is cancelled. The first snapshot arrives
	// without waiting for a mutation.
	Watch(ctx context.Context, userID string) (<-chan []models.Assignment, error)
}

// validateCreate checks the fields every backing requires before persisting.
func validateCreate(fields CreateFields) error {
	var missing []string
	if strings.TrimSpace(fields.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(fields.Subject) == "" {
		missing = append(missing, "subject")
	}
	if fields.DueDate.IsZero() {
		missing = append(missing, "due_date")
	}
	if len(missing) > 0 {
		return &MissingFieldsError{Fields: missing}
	}
	return nil
}

// merge applies the non-nil fields onto a.
func merge(a *models.Assignment, fields UpdateFields) {
	if fields.Title != nil {
		a.Title = *fields.Title
	}
	if fields.Description != nil {
		a.Description = *fields.Description
	}
	if fields.Subject != nil {
		a.Subject = *fields.Subject
	}
	if fields.DueDate != nil {
		a.DueDate = *fields.DueDate
	}
	if fields.Priority != nil {
		a.Priority = *fields.Priority
	}
	if fields.Status != nil {
		a.Status = *fields.Status
	}
}
