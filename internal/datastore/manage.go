package datastore

import (
	"fmt"

	"gorm.io/gorm"
)

// performAutoMigration creates or updates the schema for all models.
func performAutoMigration(db *gorm.DB) error {
	if err := db.AutoMigrate(&Asset{}, &Annotation{}); err != nil {
		return fmt.Errorf("failed to auto-migrate schema: %w", err)
	}
	return nil
}
