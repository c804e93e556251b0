package database

import (
	"fmt"

	"pcoscare/internal/models"

	"gorm.io/gorm"
)

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Prediction{},
		&models.Expert{},
		&models.Appointment{},
		&models.Post{},
		&models.Comment{},
		&models.Like{},
		&models.Contact{},
		&models.Event{},
		&models.Testimonial{},
	}
}

// TableNames resolves the table of every persistent model, in registry order.
func TableNames(db *gorm.DB) ([]string, error) {
	all := PersistentModels()
	names := make([]string, 0, len(all))
	for _, m := range all {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(m); err != nil {
			return nil, fmt.Errorf("parse %T: %w", m, err)
		}
		names = append(names, stmt.Schema.Table)
	}
	return names, nil
}

// AutoMigrate creates or updates every persistent table with GORM.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(PersistentModels()...)
}
