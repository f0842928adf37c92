package database

import (
	"context"
	"recipe-api/config"
	"recipe-api/models"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenUnsupportedDriver(t *testing.T) {
	_, err := Open(config.DatabaseConfig{Driver: "oracle", DSN: "x"})
	assert.ErrorContains(t, err, "unsupported database driver")
}

func TestOpenInMemoryIsolated(t *testing.T) {
	first, err := OpenInMemory()
	require.NoError(t, err)
	second, err := OpenInMemory()
	require.NoError(t, err)

	require.NoError(t, first.Create(&models.User{Email: "a@example.com", Password: "x", IsActive: true}).Error)

	var count int64
	require.NoError(t, second.Model(&models.User{}).Count(&count).Error)
	assert.Zero(t, count)

	assert.NoError(t, Ping(context.Background(), first))
}

func TestMigrateCreatesJoinTables(t *testing.T) {
	db, err := OpenInMemory()
	require.NoError(t, err)

	assert.True(t, db.Migrator().HasTable("recipe_tags"))
	assert.True(t, db.Migrator().HasTable("recipe_ingredients"))
}

func TestInitDB(t *testing.T) {
	prev := config.AppConfig
	t.Cleanup(func() { config.AppConfig = prev })
	config.AppConfig.Database = config.DatabaseConfig{Driver: "sqlite", DSN: "file:initdb?mode=memory&cache=shared", LogLevel: "silent"}

	db, err := InitDB()
	require.NoError(t, err)
	assert.Same(t, db, DB)
	assert.True(t, db.Migrator().HasTable(&models.Recipe{}))
}
