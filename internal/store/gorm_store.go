package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/assignmate/assignmate/internal/database"
	"github.com/assignmate/assignmate/internal/models"
	"gorm.io/gorm"
)

// GormAssignmentStore is the relational implementation of AssignmentStore.
// The push feed is served by an in-process notifier so that watchers see
// every durable mutation made through this store.
type GormAssignmentStore struct {
	db       *gorm.DB
	notifier *notifier
}

// NewGormAssignmentStore creates a GORM-backed AssignmentStore.
func NewGormAssignmentStore(db *gorm.DB) *GormAssignmentStore {
	return &GormAssignmentStore{
		db:       db,
		notifier: newNotifier(),
	}
}

// Create persists a new assignment with status pending.
func (s *GormAssignmentStore) Create(ctx context.Context, userID string, fields CreateFields) (*models.Assignment, error) {
	if err := validateCreate(fields); err != nil {
		return nil, err
	}

	assignment := models.Assignment{
		Title:       fields.Title,
		Description: fields.Description,
		Subject:     fields.Subject,
		DueDate:     fields.DueDate,
		Priority:    fields.Priority,
		Status:      models.StatusPending,
		UserID:      userID,
	}

	if err := s.db.WithContext(ctx).Create(&assignment).Error; err != nil {
		return nil, fmt.Errorf("failed to create assignment: %w", err)
	}

	s.notifier.publish(userID)
	return &assignment, nil
}

// GetByID returns the assignment with the given id.
func (s *GormAssignmentStore) GetByID(ctx context.Context, id string) (*models.Assignment, error) {
	var assignment models.Assignment
	if err := s.db.WithContext(ctx).First(&assignment, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAssignmentNotFound
		}
		return nil, fmt.Errorf("failed to find assignment: %w", err)
	}
	return &assignment, nil
}

// ListByUser returns the user's assignments ordered by due date ascending.
func (s *GormAssignmentStore) ListByUser(ctx context.Context, userID string) ([]models.Assignment, error) {
	assignments := []models.Assignment{}
	err := s.db.WithContext(ctx).
		Scopes(database.OwnedBy(userID)).
		Order("due_date ASC").
		Find(&assignments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	return assignments, nil
}

// Update merges the supplied fields into the stored record.
func (s *GormAssignmentStore) Update(ctx context.Context, id string, fields UpdateFields) (*models.Assignment, error) {
	var assignment models.Assignment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&assignment, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrAssignmentNotFound
			}
			return err
		}

		merge(&assignment, fields)
		// Save refreshes UpdatedAt even when no column changed value.
		return tx.Save(&assignment).Error
	})
	if err != nil {
		if errors.Is(err, ErrAssignmentNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update assignment: %w", err)
	}

	s.notifier.publish(assignment.UserID)
	return &assignment, nil
}

// Delete removes the assignment permanently. Deleting an id that no longer
// exists yields ErrAssignmentNotFound.
func (s *GormAssignmentStore) Delete(ctx context.Context, id string) error {
	var assignment models.Assignment
	if err := s.db.WithContext(ctx).First(&assignment, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAssignmentNotFound
		}
		return fmt.Errorf("failed to find assignment: %w", err)
	}

	result := s.db.WithContext(ctx).Delete(&models.Assignment{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete assignment: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrAssignmentNotFound
	}

	s.notifier.publish(assignment.UserID)
	return nil
}

// Watch emits a full snapshot of the user's assignments after every durable
// mutation made through this store.
func (s *GormAssignmentStore) Watch(ctx context.Context, userID string) (<-chan []models.Assignment, error) {
	signals, cancel := s.notifier.subscribe(userID)

	out := make(chan []models.Assignment, 1)
	go func() {
		defer cancel()
		defer close(out)

		for {
			snapshot, err := s.ListByUser(ctx, userID)
			if err != nil {
				return
			}
			select {
			case out <- snapshot:
			case <-ctx.Done():
				return
			}

			select {
			case <-signals:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}
