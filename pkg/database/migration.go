package database

import "gorm.io/gorm"

// AutoMigrate creates or updates the tables for the given row types
func AutoMigrate(db *gorm.DB, models ...any) error {
	return db.AutoMigrate(models...)
}
