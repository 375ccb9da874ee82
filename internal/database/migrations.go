package database

import (
	"fmt"

	"github.com/assignmate/assignmate/internal/models"
	"gorm.io/gorm"
)

// AddIndexes adds query-critical indexes beyond what AutoMigrate creates
func AddIndexes(db *gorm.DB) error {
	indexes := []struct {
		model   interface{}
		table   string
		name    string
		columns string
	}{
		// Assignment indexes for owner scoping and due-date ordering
		{&models.Assignment{}, "assignments", "idx_assignments_user_due", "user_id, due_date"},
		{&models.Assignment{}, "assignments", "idx_assignments_status", "status"},
		{&models.Assignment{}, "assignments", "idx_assignments_created_at", "created_at"},

		// User index for the admin active-today count
		{&models.User{}, "users", "idx_users_last_login_at", "last_login_at"},
	}

	for _, idx := range indexes {
		if db.Migrator().HasIndex(idx.model, idx.name) {
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}
	}

	return nil
}
