package dto

import (
	"time"

	"github.com/assignmate/assignmate/internal/models"
)

// UserDTO represents a user in API responses
type UserDTO struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	Name        string     `json:"name"`
	IsAdmin     bool       `json:"is_admin"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// AdminUserDTO represents a user row in the admin panel
type AdminUserDTO struct {
	UserDTO
	AssignmentCount int64 `json:"assignment_count"`
}

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:          user.ID,
		Email:       user.Email,
		Name:        user.Name,
		IsAdmin:     user.IsAdmin,
		LastLoginAt: user.LastLoginAt,
		CreatedAt:   user.CreatedAt,
	}
}

// ToAdminUserDTO converts a user plus assignment count to AdminUserDTO
func ToAdminUserDTO(user models.User, assignmentCount int64) AdminUserDTO {
	return AdminUserDTO{
		UserDTO:         ToUserDTO(user),
		AssignmentCount: assignmentCount,
	}
}
