package database

import (
	"fmt"
	"recipe-api/config"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OpenInMemory returns a migrated, private sqlite database. Every call gets
// its own named in-memory database so tests never see each other's rows.
func OpenInMemory() (*gorm.DB, error) {
	db, err := Open(config.DatabaseConfig{
		Driver:   "sqlite",
		DSN:      fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
		LogLevel: "silent",
	})
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}
