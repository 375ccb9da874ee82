package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/assignmate/assignmate/internal/models"
	"github.com/assignmate/assignmate/internal/repository"
	"github.com/assignmate/assignmate/internal/utils"
	"gorm.io/gorm"
)

// AdminService aggregates usage statistics and manages admin flags.
// The read-side reductions run on the relational store directly.
type AdminService struct {
	db       *gorm.DB
	userRepo repository.UserRepository
}

// NewAdminService creates a new AdminService.
func NewAdminService(db *gorm.DB, userRepo repository.UserRepository) *AdminService {
	return &AdminService{
		db:       db,
		userRepo: userRepo,
	}
}

// AppStats is the aggregate usage snapshot behind the admin panel.
type AppStats struct {
	TotalUsers            int64            `json:"total_users"`
	TotalAssignments      int64            `json:"total_assignments"`
	AssignmentsByStatus   map[string]int64 `json:"assignments_by_status"`
	AssignmentsByPriority map[string]int64 `json:"assignments_by_priority"`
	ActiveUsersToday      int64            `json:"active_users_today"`
	RecentUsers           []models.User    `json:"recent_users"`
}

// Stats computes the aggregate usage snapshot.
func (s *AdminService) Stats(now time.Time) (*AppStats, error) {
	stats := &AppStats{
		AssignmentsByStatus:   make(map[string]int64),
		AssignmentsByPriority: make(map[string]int64),
	}

	if err := s.db.Model(&models.User{}).Count(&stats.TotalUsers).Error; err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	if err := s.db.Model(&models.Assignment{}).Count(&stats.TotalAssignments).Error; err != nil {
		return nil, fmt.Errorf("failed to count assignments: %w", err)
	}

	type bucket struct {
		Name  string
		Count int64
	}

	var byStatus []bucket
	err := s.db.Model(&models.Assignment{}).
		Select("status AS name, COUNT(*) AS count").
		Group("status").
		Scan(&byStatus).Error
	if err != nil {
		return nil, fmt.Errorf("failed to group by status: %w", err)
	}
	for _, b := range byStatus {
		stats.AssignmentsByStatus[b.Name] = b.Count
	}

	var byPriority []bucket
	err = s.db.Model(&models.Assignment{}).
		Select("priority AS name, COUNT(*) AS count").
		Group("priority").
		Scan(&byPriority).Error
	if err != nil {
		return nil, fmt.Errorf("failed to group by priority: %w", err)
	}
	for _, b := range byPriority {
		stats.AssignmentsByPriority[b.Name] = b.Count
	}

	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	err = s.db.Model(&models.User{}).
		Where("last_login_at >= ?", startOfDay).
		Count(&stats.ActiveUsersToday).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count active users: %w", err)
	}

	err = s.db.Model(&models.User{}).
		Order("created_at DESC").
		Limit(5).
		Find(&stats.RecentUsers).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list recent users: %w", err)
	}

	return stats, nil
}

// UserWithCount pairs a user with their assignment count.
type UserWithCount struct {
	User            models.User
	AssignmentCount int64
}

// ListUsers returns users with their assignment counts, paginated.
func (s *AdminService) ListUsers(params utils.PaginationParams) ([]UserWithCount, int64, error) {
	users, total, err := s.userRepo.List(params)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}

	result := make([]UserWithCount, len(users))
	for i, user := range users {
		var count int64
		err := s.db.Model(&models.Assignment{}).
			Where("user_id = ?", user.ID).
			Count(&count).Error
		if err != nil {
			return nil, 0, fmt.Errorf("failed to count assignments: %w", err)
		}
		result[i] = UserWithCount{User: user, AssignmentCount: count}
	}

	return result, total, nil
}

// SetAdmin toggles the admin flag on a user.
func (s *AdminService) SetAdmin(userID string, isAdmin bool) (*models.User, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	user.IsAdmin = isAdmin
	if err := s.userRepo.Update(user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}
