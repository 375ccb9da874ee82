package store

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupMockStore backs the store with a sqlmock connection so persistence
// failures can be injected.
func setupMockStore(t *testing.T) (*GormAssignmentStore, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	return NewGormAssignmentStore(db), mock
}

func TestGormStore_ListByUser_QueryFailure(t *testing.T) {
	store, mock := setupMockStore(t)

	mock.ExpectQuery("SELECT \\* FROM `assignments`").
		WillReturnError(assert.AnError)

	_, err := store.ListByUser(context.Background(), "user-1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrAssignmentNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_GetByID_QueryFailure(t *testing.T) {
	store, mock := setupMockStore(t)

	mock.ExpectQuery("SELECT \\* FROM `assignments`").
		WillReturnError(assert.AnError)

	_, err := store.GetByID(context.Background(), "some-id")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrAssignmentNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
