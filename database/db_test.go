package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *Database {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	assert.NoError(t, err)

	sqlDB, err := db.DB()
	assert.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	return &Database{DB: db}
}

func TestClose(t *testing.T) {
	database := openTestDB(t)

	assert.NotPanics(t, func() {
		database.Close()
	})
}

func TestRunMigrations(t *testing.T) {
	database := openTestDB(t)

	err := RunMigrations(database.DB)
	assert.NoError(t, err)

	migrator := database.DB.Migrator()
	for _, table := range []string{"users", "tasks", "comments", "events"} {
		assert.True(t, migrator.HasTable(table), "expected table %s", table)
	}
}

func TestQuery(t *testing.T) {
	database := openTestDB(t)

	err := database.Execute("CREATE TABLE test (id INTEGER PRIMARY KEY, name TEXT)")
	assert.NoError(t, err)
	err = database.Execute("INSERT INTO test (name) VALUES (?)", "test_name")
	assert.NoError(t, err)

	result, err := database.Query("SELECT * FROM test WHERE name = ?", "test_name")
	assert.NoError(t, err)

	var rows []map[string]interface{}
	err = result.Scan(&rows).Error
	assert.NoError(t, err)

	assert.Len(t, rows, 1)
	assert.Equal(t, "test_name", rows[0]["name"])
}

func TestExecute(t *testing.T) {
	database := openTestDB(t)

	err := database.Execute("CREATE TABLE test (id INTEGER PRIMARY KEY, name TEXT)")
	assert.NoError(t, err)

	err = database.Execute("INSERT INTO test (name) VALUES (?)", "test_name")
	assert.NoError(t, err)

	var count int64
	err = database.DB.Table("test").Count(&count).Error
	assert.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
