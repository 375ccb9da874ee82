package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/assignmate/assignmate/internal/constants"
	apierrors "github.com/assignmate/assignmate/internal/errors"
	"github.com/assignmate/assignmate/internal/models"
	"github.com/assignmate/assignmate/internal/store"
)

var ErrAssignmentNotFound = errors.New("assignment not found")

// ValidationError carries every violated field of a malformed input.
type ValidationError struct {
	Fields []apierrors.FieldError
}

func (e *ValidationError) Error() string {
	names := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		names[i] = f.Field
	}
	return "invalid fields: " + strings.Join(names, ", ")
}

// AssignmentService owns validation and ownership checks for assignment
// operations. Records that exist but belong to another user are reported
// as not found, so callers cannot probe for other users' ids.
type AssignmentService struct {
	store store.AssignmentStore
}

// NewAssignmentService creates a new AssignmentService.
func NewAssignmentService(s store.AssignmentStore) *AssignmentService {
	return &AssignmentService{store: s}
}

// CreateAssignmentInput represents input for creating an assignment.
// Any caller-supplied status is ignored; new assignments start pending.
type CreateAssignmentInput struct {
	Title       string
	Description string
	Subject     string
	DueDate     string
	Priority    string
}

// UpdateAssignmentInput represents a partial set of fields to change.
// Nil fields are left untouched; provided fields are always validated.
type UpdateAssignmentInput struct {
	Title       *string
	Description *string
	Subject     *string
	DueDate     *string
	Priority    *string
	Status      *string
}

// List returns the user's assignments ordered by due date ascending.
func (s *AssignmentService) List(ctx context.Context, userID string) ([]models.Assignment, error) {
	return s.store.ListByUser(ctx, userID)
}

// Get returns one of the user's assignments.
func (s *AssignmentService) Get(ctx context.Context, userID, id string) (*models.Assignment, error) {
	return s.getOwned(ctx, userID, id)
}

// Create validates the input and persists a new assignment for the user.
func (s *AssignmentService) Create(ctx context.Context, userID string, input CreateAssignmentInput) (*models.Assignment, error) {
	var fields []apierrors.FieldError

	title := strings.TrimSpace(input.Title)
	if title == "" {
		fields = append(fields, apierrors.FieldError{Field: "title", Message: "Title is required"})
	}
	subject := strings.TrimSpace(input.Subject)
	if subject == "" {
		fields = append(fields, apierrors.FieldError{Field: "subject", Message: "Subject is required"})
	}

	var dueDate time.Time
	if input.DueDate == "" {
		fields = append(fields, apierrors.FieldError{Field: "due_date", Message: "Due date is required"})
	} else {
		parsed, err := time.Parse(time.RFC3339, input.DueDate)
		if err != nil {
			fields = append(fields, apierrors.FieldError{Field: "due_date", Message: "Due date must be a valid RFC 3339 timestamp"})
		} else {
			dueDate = parsed
		}
	}

	priority := models.Priority(input.Priority)
	if !priority.Valid() {
		fields = append(fields, apierrors.FieldError{Field: "priority", Message: "Priority must be one of low, medium, high"})
	}

	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	assignment, err := s.store.Create(ctx, userID, store.CreateFields{
		Title:       title,
		Description: input.Description,
		Subject:     subject,
		DueDate:     dueDate,
		Priority:    priority,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create assignment: %w", err)
	}
	return assignment, nil
}

// Replace performs a full-replace update: every required field is
// revalidated exactly like on create, then merged into the record.
func (s *AssignmentService) Replace(ctx context.Context, userID, id string, input CreateAssignmentInput, status *string) (*models.Assignment, error) {
	if _, err := s.getOwned(ctx, userID, id); err != nil {
		return nil, err
	}

	var fields []apierrors.FieldError

	title := strings.TrimSpace(input.Title)
	if title == "" {
		fields = append(fields, apierrors.FieldError{Field: "title", Message: "Title is required"})
	}
	subject := strings.TrimSpace(input.Subject)
	if subject == "" {
		fields = append(fields, apierrors.FieldError{Field: "subject", Message: "Subject is required"})
	}

	var dueDate time.Time
	if input.DueDate == "" {
		fields = append(fields, apierrors.FieldError{Field: "due_date", Message: "Due date is required"})
	} else {
		parsed, err := time.Parse(time.RFC3339, input.DueDate)
		if err != nil {
			fields = append(fields, apierrors.FieldError{Field: "due_date", Message: "Due date must be a valid RFC 3339 timestamp"})
		} else {
			dueDate = parsed
		}
	}

	priority := models.Priority(input.Priority)
	if !priority.Valid() {
		fields = append(fields, apierrors.FieldError{Field: "priority", Message: "Priority must be one of low, medium, high"})
	}

	var newStatus *models.Status
	if status != nil {
		st := models.Status(*status)
		if !st.Valid() {
			fields = append(fields, apierrors.FieldError{Field: "status", Message: "Status must be one of pending, in_progress, completed, overdue"})
		} else {
			newStatus = &st
		}
	}

	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	description := input.Description
	updated, err := s.store.Update(ctx, id, store.UpdateFields{
		Title:       &title,
		Description: &description,
		Subject:     &subject,
		DueDate:     &dueDate,
		Priority:    &priority,
		Status:      newStatus,
	})
	if err != nil {
		if errors.Is(err, store.ErrAssignmentNotFound) {
			return nil, ErrAssignmentNotFound
		}
		return nil, fmt.Errorf("failed to update assignment: %w", err)
	}
	return updated, nil
}

// Patch performs a partial-merge update. Only the provided fields change,
// and each one is validated before anything is persisted.
func (s *AssignmentService) Patch(ctx context.Context, userID, id string, input UpdateAssignmentInput) (*models.Assignment, error) {
	if _, err := s.getOwned(ctx, userID, id); err != nil {
		return nil, err
	}

	var fields []apierrors.FieldError
	var update store.UpdateFields

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			fields = append(fields, apierrors.FieldError{Field: "title", Message: "Title cannot be empty"})
		} else {
			update.Title = &title
		}
	}
	if input.Description != nil {
		update.Description = input.Description
	}
	if input.Subject != nil {
		subject := strings.TrimSpace(*input.Subject)
		if subject == "" {
			fields = append(fields, apierrors.FieldError{Field: "subject", Message: "Subject cannot be empty"})
		} else {
			update.Subject = &subject
		}
	}
	if input.DueDate != nil {
		parsed, err := time.Parse(time.RFC3339, *input.DueDate)
		if err != nil {
			fields = append(fields, apierrors.FieldError{Field: "due_date", Message: "Due date must be a valid RFC 3339 timestamp"})
		} else {
			update.DueDate = &parsed
		}
	}
	if input.Priority != nil {
		priority := models.Priority(*input.Priority)
		if !priority.Valid() {
			fields = append(fields, apierrors.FieldError{Field: "priority", Message: "Priority must be one of low, medium, high"})
		} else {
			update.Priority = &priority
		}
	}
	if input.Status != nil {
		status := models.Status(*input.Status)
		if !status.Valid() {
			fields = append(fields, apierrors.FieldError{Field: "status", Message: "Status must be one of pending, in_progress, completed, overdue"})
		} else {
			update.Status = &status
		}
	}

	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	updated, err := s.store.Update(ctx, id, update)
	if err != nil {
		if errors.Is(err, store.ErrAssignmentNotFound) {
			return nil, ErrAssignmentNotFound
		}
		return nil, fmt.Errorf("failed to update assignment: %w", err)
	}
	return updated, nil
}

// Delete removes one of the user's assignments permanently.
func (s *AssignmentService) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.getOwned(ctx, userID, id); err != nil {
		return err
	}

	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrAssignmentNotFound) {
			return ErrAssignmentNotFound
		}
		return fmt.Errorf("failed to delete assignment: %w", err)
	}
	return nil
}

// Watch returns the user's live snapshot feed.
func (s *AssignmentService) Watch(ctx context.Context, userID string) (<-chan []models.Assignment, error) {
	return s.store.Watch(ctx, userID)
}

// DashboardSummary is the aggregate view behind the dashboard page.
type DashboardSummary struct {
	Total     int                 `json:"total"`
	Completed int                 `json:"completed"`
	Pending   int                 `json:"pending"`
	Overdue   int                 `json:"overdue"`
	Upcoming  []models.Assignment `json:"upcoming"`
	Recent    []models.Assignment `json:"recent"`
}

// Dashboard computes the user's totals plus the capped upcoming and recent
// lists. All derivation happens here rather than in extra store queries.
func (s *AssignmentService) Dashboard(ctx context.Context, userID string, now time.Time) (*DashboardSummary, error) {
	assignments, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	summary := &DashboardSummary{
		Total:    len(assignments),
		Upcoming: []models.Assignment{},
		Recent:   []models.Assignment{},
	}

	for _, a := range assignments {
		switch {
		case a.Status == models.StatusCompleted:
			summary.Completed++
		case a.DueDate.Before(now):
			summary.Overdue++
		case a.Status == models.StatusPending || a.Status == models.StatusInProgress:
			summary.Pending++
		}

		if (a.Status == models.StatusPending || a.Status == models.StatusInProgress) && !a.DueDate.Before(now) {
			summary.Upcoming = append(summary.Upcoming, a)
		}
	}

	// ListByUser is already due-date ascending, so Upcoming only needs capping.
	if len(summary.Upcoming) > constants.DashboardUpcomingLimit {
		summary.Upcoming = summary.Upcoming[:constants.DashboardUpcomingLimit]
	}

	recent := make([]models.Assignment, len(assignments))
	copy(recent, assignments)
	sort.Slice(recent, func(i, j int) bool {
		return recent[i].CreatedAt.After(recent[j].CreatedAt)
	})
	if len(recent) > constants.DashboardRecentLimit {
		recent = recent[:constants.DashboardRecentLimit]
	}
	summary.Recent = recent

	return summary, nil
}

// CalendarDay is one day of the month view with its due assignments.
type CalendarDay struct {
	Date        string              `json:"date"`
	Assignments []models.Assignment `json:"assignments"`
}

// Calendar buckets the user's assignments due within the given month into
// one entry per day, due-date ascending within each day.
func (s *AssignmentService) Calendar(ctx context.Context, userID string, year int, month time.Month) ([]CalendarDay, error) {
	assignments, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	byDay := make(map[string][]models.Assignment)
	for _, a := range assignments {
		due := a.DueDate.UTC()
		if due.Before(start) || !due.Before(end) {
			continue
		}
		key := due.Format("2006-01-02")
		byDay[key] = append(byDay[key], a)
	}

	days := make([]CalendarDay, 0, 31)
	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		key := d.Format("2006-01-02")
		bucket := byDay[key]
		if bucket == nil {
			bucket = []models.Assignment{}
		}
		days = append(days, CalendarDay{
			Date:        key,
			Assignments: bucket,
		})
	}

	return days, nil
}

// getOwned loads an assignment and reports ErrAssignmentNotFound both when
// the record is absent and when it belongs to another user.
func (s *AssignmentService) getOwned(ctx context.Context, userID, id string) (*models.Assignment, error) {
	assignment, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrAssignmentNotFound) {
			return nil, ErrAssignmentNotFound
		}
		return nil, fmt.Errorf("failed to find assignment: %w", err)
	}
	if assignment.UserID != userID {
		return nil, ErrAssignmentNotFound
	}
	return assignment, nil
}
