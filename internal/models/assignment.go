package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	// StatusOverdue is never derived from the clock by the server;
	// it only appears when a caller sets it explicitly.
	StatusOverdue Status = "overdue"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusOverdue:
		return true
	}
	return false
}

// Assignment is a single piece of work tracked by one user.
// Assignments are hard-deleted; there is no soft-delete column.
type Assignment struct {
	ID          string    `gorm:"type:varchar(36);primarykey" json:"id"`
	Title       string    `gorm:"type:varchar(255);not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	Subject     string    `gorm:"type:varchar(255);not null" json:"subject"`
	DueDate     time.Time `gorm:"not null;index" json:"due_date"`
	Priority    Priority  `gorm:"type:varchar(10);not null" json:"priority"`
	Status      Status    `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	UserID      string    `gorm:"type:varchar(36);not null;index" json:"user_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Relations
	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (a *Assignment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
