package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/proyectos-itsqmet/sistema-tickets/internal/models"
)

var (
	ErrRateNotFound   = errors.New("rate not found")
	ErrRateInactive   = errors.New("rate is already inactive")
	ErrInvalidPrice   = errors.New("hourly price must be positive")
	ErrNoActiveRate   = errors.New("no active rate configured")
	ErrLastActiveRate = errors.New("cannot disable the only active rate; create its replacement first")
)

// RateService keeps the hourly-rate history. Price changes never mutate an
// existing record: Create atomically deactivates the current rate and
// inserts the new one, so at most one rate is active at any time.
type RateService struct {
	db    *gorm.DB
	audit *AuditService
}

func NewRateService(db *gorm.DB, audit *AuditService) *RateService {
	return &RateService{db: db, audit: audit}
}

// List returns the full rate history.
func (s *RateService) List() ([]models.Rate, error) {
	var rates []models.Rate
	err := s.db.Order("id").Find(&rates).Error
	return rates, err
}

// Active returns the rate currently applied at check-in.
func (s *RateService) Active() (*models.Rate, error) {
	var rate models.Rate
	err := s.db.Where("status = ?", true).Order("id desc").First(&rate).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoActiveRate
		}
		return nil, err
	}
	return &rate, nil
}

// Create registers a new active rate, deactivating the previous one in the
// same transaction.
func (s *RateService) Create(hourlyPrice float64, userID uint) (*models.Rate, error) {
	if hourlyPrice <= 0 {
		return nil, ErrInvalidPrice
	}

	rate := &models.Rate{
		HourlyPrice: hourlyPrice,
		Active:      true,
		CreatedAt:   models.NewLocalTime(time.Now()),
		CreatedBy:   userID,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Rate{}).
			Where("status = ?", true).
			UpdateColumn("status", false).Error; err != nil {
			return err
		}
		return tx.Create(rate).Error
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(userID, "create", "rate", rate.ID, map[string]interface{}{
		"tarifa_por_hora": hourlyPrice,
	})
	return rate, nil
}

// Disable flips a rate inactive. The last remaining active rate cannot be
// disabled: a replacement has to exist first.
func (s *RateService) Disable(rateID, actorID uint) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var rate models.Rate
		if err := tx.First(&rate, rateID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRateNotFound
			}
			return err
		}
		if !rate.Active {
			return ErrRateInactive
		}

		var activeCount int64
		if err := tx.Model(&models.Rate{}).Where("status = ?", true).Count(&activeCount).Error; err != nil {
			return err
		}
		if activeCount <= 1 {
			return ErrLastActiveRate
		}

		return tx.Model(&rate).UpdateColumn("status", false).Error
	})
	if err != nil {
		return err
	}

	s.audit.Record(actorID, "disable", "rate", rateID, nil)
	return nil
}
