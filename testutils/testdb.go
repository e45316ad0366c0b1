package testutils

import (
	"testing"
	"time"

	"qqueue-app/qqueue/database"
	"qqueue-app/qqueue/models"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB opens a migrated in-memory sqlite database. The connection
// pool is pinned to one connection so every query sees the same :memory: db.
func SetupTestDB(t *testing.T) *database.Database {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get test database handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := database.RunMigrations(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	t.Cleanup(func() { sqlDB.Close() })

	return &database.Database{DB: db}
}

// CreateTestUser inserts a user with predictable credentials.
func CreateTestUser(t *testing.T, db *database.Database, username string) models.User {
	t.Helper()

	user := models.User{
		ID:           uuid.New(),
		Email:        username + "@test.net",
		Username:     username,
		PasswordHash: "not-a-real-hash",
		CreatedAt:    time.Now().UTC(),
	}
	if err := db.DB.Create(&user).Error; err != nil {
		t.Fatalf("failed to create test user %s: %v", username, err)
	}
	return user
}

// CreateTestTask inserts an open task requested by the given user, due in
// five days.
func CreateTestTask(t *testing.T, db *database.Database, requester models.User, summary string) models.Task {
	t.Helper()

	task := models.Task{
		ID:             uuid.New(),
		Summary:        summary,
		Detail:         "detail for " + summary,
		RewardAmount:   100,
		RewardCurrency: "USD",
		DueBy:          time.Now().UTC().AddDate(0, 0, 5),
		RequestedBy:    requester.ID,
		RequestedAt:    time.Now().UTC(),
	}
	if err := db.DB.Create(&task).Error; err != nil {
		t.Fatalf("failed to create test task %q: %v", summary, err)
	}
	return task
}
