package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"

	"github.com/proyectos-itsqmet/sistema-tickets/internal/models"
)

var ErrUserNotFound = errors.New("user not found")

const userCacheTTL = time.Hour

// UserService owns user lookups and administrative account management.
type UserService struct {
	db    *gorm.DB
	cache *redis.Client
	audit *AuditService
}

func NewUserService(db *gorm.DB, cache *redis.Client, audit *AuditService) *UserService {
	return &UserService{db: db, cache: cache, audit: audit}
}

func userCacheKey(userID uint) string {
	return fmt.Sprintf("user:%d", userID)
}

// cachedUser is the redis payload for FindByID. The API model hides the
// password hash behind `json:"-"`, so the cache uses its own shape: callers
// such as the password-change flow need the hash on a cache hit too.
type cachedUser struct {
	ID            uint              `json:"id"`
	FirstName     string            `json:"first_name"`
	LastName      string            `json:"last_name"`
	Email         string            `json:"email"`
	Password      string            `json:"password"`
	Role          models.Role       `json:"role"`
	Active        bool              `json:"status"`
	LoginAttempts int               `json:"login_attempts"`
	CreatedAt     models.LocalTime  `json:"created_at"`
	UpdatedAt     *models.LocalTime `json:"updated_at"`
}

func (c cachedUser) toModel() models.User {
	return models.User{
		ID:            c.ID,
		FirstName:     c.FirstName,
		LastName:      c.LastName,
		Email:         c.Email,
		Password:      c.Password,
		Role:          c.Role,
		Active:        c.Active,
		LoginAttempts: c.LoginAttempts,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

func newCachedUser(u models.User) cachedUser {
	return cachedUser{
		ID:            u.ID,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		Email:         u.Email,
		Password:      u.Password,
		Role:          u.Role,
		Active:        u.Active,
		LoginAttempts: u.LoginAttempts,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

// FindByID looks a user up, serving from the redis cache when possible.
func (s *UserService) FindByID(ctx context.Context, userID uint) (models.User, error) {
	var user models.User

	if s.cache != nil {
		if val, err := s.cache.Get(ctx, userCacheKey(userID)).Result(); err == nil {
			var cached cachedUser
			if err := json.Unmarshal([]byte(val), &cached); err == nil {
				return cached.toModel(), nil
			}
		}
	}

	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return user, ErrUserNotFound
		}
		return user, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(newCachedUser(user)); err == nil {
			s.cache.Set(ctx, userCacheKey(userID), data, userCacheTTL)
		}
	}

	return user, nil
}

func (s *UserService) invalidate(ctx context.Context, userID uint) {
	if s.cache != nil {
		s.cache.Del(ctx, userCacheKey(userID))
	}
}

// FindByEmail matches the email exactly; lookups are case-sensitive.
func (s *UserService) FindByEmail(email string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// List retrieves a paginated page of users.
func (s *UserService) List(page, limit int) ([]models.User, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	var users []models.User
	var total int64

	if err := s.db.Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := s.db.Order("id").Limit(limit).Offset((page - 1) * limit).Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// SetStatus enables or disables an account. Enabling also clears the failed
// login counter, which is how a locked account is released.
func (s *UserService) SetStatus(ctx context.Context, userID uint, active bool, actorID uint) (*models.User, error) {
	var user models.User
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		updates := map[string]interface{}{
			"status":     active,
			"updated_at": models.NewLocalTime(time.Now()),
		}
		if active {
			updates["login_attempts"] = 0
		}
		return tx.Model(&user).Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, userID)
	s.audit.Record(actorID, "set_status", "user", userID, map[string]interface{}{
		"status": active,
	})

	if err := s.db.First(&user, userID).Error; err != nil {
		return nil, err
	}
	return &user, nil
}
