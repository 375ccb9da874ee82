// Package assignmate is the Go client for the Assignmate API. Client talks
// to the HTTP surface; Syncer keeps a local, UI-facing copy of one user's
// assignments consistent with server state.
package assignmate

import (
	"fmt"
	"strings"
	"time"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusOverdue    Status = "overdue"
)

// Assignment mirrors the API's assignment resource.
type Assignment struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Subject     string    `json:"subject"`
	DueDate     time.Time `json:"due_date"`
	Priority    Priority  `json:"priority"`
	Status      Status    `json:"status"`
	UserID      string    `json:"user_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateAssignmentInput holds the fields of a new assignment. The server
// assigns id, timestamps, and the initial pending status.
type CreateAssignmentInput struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Subject     string   `json:"subject"`
	DueDate     string   `json:"due_date"`
	Priority    Priority `json:"priority"`
}

// UpdateAssignmentInput holds a partial set of fields to change.
type UpdateAssignmentInput struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Subject     *string   `json:"subject,omitempty"`
	DueDate     *string   `json:"due_date,omitempty"`
	Priority    *Priority `json:"priority,omitempty"`
	Status      *Status   `json:"status,omitempty"`
}

// FieldError is one violated field of a rejected request.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int          `json:"-"`
	Code       string       `json:"code"`
	Message    string       `json:"message"`
	Errors     []FieldError `json:"errors,omitempty"`
}

func (e *APIError) Error() string {
	if len(e.Errors) == 0 {
		return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
	}
	fields := make([]string, len(e.Errors))
	for i, f := range e.Errors {
		fields[i] = f.Field
	}
	return fmt.Sprintf("api error %d: %s (%s)", e.StatusCode, e.Message, strings.Join(fields, ", "))
}
