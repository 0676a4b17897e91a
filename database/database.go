package database

import (
	"github.com/AlexanderErdelyi/Work-Time-Tracker/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

func Init(dsn string) error {
	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return err
	}
	return Migrate(DB)
}

// Migrate builds the schema on any GORM connection. Tests reuse it against
// an in-memory sqlite database.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Customer{},
		&models.Project{},
		&models.Task{},
		&models.TimeEntry{},
	)
	if err != nil {
		return err
	}

	// At most one entry may have a null end time (the running timer).
	// AutoMigrate cannot express an expression-based partial unique index,
	// so it is created by hand. Works on both postgres and sqlite.
	return db.Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_time_entries_one_running
		 ON time_entries ((end_time IS NULL)) WHERE end_time IS NULL`,
	).Error
}

func GetDB() *gorm.DB {
	return DB
}
