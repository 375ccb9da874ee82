package repository

import (
	"github.com/assignmate/assignmate/internal/models"
	"github.com/assignmate/assignmate/internal/utils"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(user *models.User) error

	// FindByID finds a user by ID
	FindByID(id string) (*models.User, error)

	// FindByEmail finds a user by email
	FindByEmail(email string) (*models.User, error)

	// Update updates a user
	Update(user *models.User) error

	// List returns users ordered by creation date descending, paginated,
	// with the total count
	List(params utils.PaginationParams) ([]models.User, int64, error)
}
