package repository

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"familytree_go/internal/model"
)

// DB wraps the gorm connection holding user accounts. Family member
// documents live in the member store, not here.
type DB struct {
	*gorm.DB
}

// InitDB opens the sqlite database and migrates the account schema.
func InitDB(path string) (*DB, error) {
	config := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}

	gormDB, err := gorm.Open(sqlite.Open(path), config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %v", err)
	}

	if err := gormDB.AutoMigrate(&model.User{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %v", err)
	}

	return &DB{gormDB}, nil
}
