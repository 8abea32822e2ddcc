package services

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/go-redis/redis/v8"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/proyectos-itsqmet/sistema-tickets/internal/models"
	"github.com/proyectos-itsqmet/sistema-tickets/internal/utils"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}

	// Drop tables to ensure a clean state between tests sharing the cache.
	db.Migrator().DropTable(
		&models.User{}, &models.Ticket{}, &models.Rate{},
		&models.Lot{}, &models.Invoice{}, &models.AuditEntry{},
	)
	if err := db.AutoMigrate(
		&models.User{}, &models.Ticket{}, &models.Rate{},
		&models.Lot{}, &models.Invoice{}, &models.AuditEntry{},
	); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}
	return db
}

func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func seedLot(t *testing.T, db *gorm.DB, capacity int) *models.Lot {
	t.Helper()

	lot := &models.Lot{Name: "Parqueadero Central", Capacity: capacity}
	if err := db.Create(lot).Error; err != nil {
		t.Fatalf("failed to seed lot: %v", err)
	}
	return lot
}

func seedRate(t *testing.T, db *gorm.DB, price float64, active bool) *models.Rate {
	t.Helper()

	rate := &models.Rate{
		HourlyPrice: price,
		Active:      active,
		CreatedAt:   models.NewLocalTime(time.Now()),
		CreatedBy:   1,
	}
	if err := db.Create(rate).Error; err != nil {
		t.Fatalf("failed to seed rate: %v", err)
	}
	return rate
}

func seedUser(t *testing.T, db *gorm.DB, email, password string, role models.Role) *models.User {
	t.Helper()

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	user := &models.User{
		FirstName: "Test",
		LastName:  "User",
		Email:     email,
		Password:  string(hashed),
		Role:      role,
		Active:    true,
		CreatedAt: models.NewLocalTime(time.Now()),
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	return user
}

func newTestAuthService(t *testing.T, db *gorm.DB) (*AuthService, *UserService) {
	t.Helper()

	cache := setupTestRedis(t)
	audit := NewAuditService(db)
	users := NewUserService(db, cache, audit)
	tokens := utils.NewTokenManager("test-secret", time.Hour)
	denylist := NewTokenDenylist(cache)
	return NewAuthService(db, users, tokens, denylist, audit), users
}
