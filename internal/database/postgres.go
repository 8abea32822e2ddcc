package database

import (
	"github.com/proyectos-itsqmet/sistema-tickets/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Connect opens the PostgreSQL connection. The handle is passed explicitly
// to every service; there is no package-level database state.
func Connect(dsn string) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(dsn), &gorm.Config{})
}

// Migrate brings the schema up to date.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Ticket{},
		&models.Rate{},
		&models.Lot{},
		&models.Invoice{},
		&models.AuditEntry{},
	)
}

// SeedLot creates the lot record on first boot. A single facility is
// assumed.
func SeedLot(db *gorm.DB, name string, capacity int) (*models.Lot, error) {
	var lot models.Lot
	err := db.First(&lot).Error
	if err == nil {
		return &lot, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	lot = models.Lot{Name: name, Capacity: capacity}
	if err := db.Create(&lot).Error; err != nil {
		return nil, err
	}
	return &lot, nil
}
