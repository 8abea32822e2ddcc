package services

import (
	"encoding/json"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/proyectos-itsqmet/sistema-tickets/internal/models"
)

// AuditService records administrative actions. Recording is best effort:
// a failed audit write is logged but never fails the audited operation.
type AuditService struct {
	db *gorm.DB
}

func NewAuditService(db *gorm.DB) *AuditService {
	return &AuditService{db: db}
}

func (s *AuditService) Record(actorID uint, action, entity string, entityID uint, detail map[string]interface{}) {
	var payload datatypes.JSON
	if detail != nil {
		if raw, err := json.Marshal(detail); err == nil {
			payload = datatypes.JSON(raw)
		}
	}

	entry := models.AuditEntry{
		ActorID:   actorID,
		Action:    action,
		Entity:    entity,
		EntityID:  entityID,
		Detail:    payload,
		CreatedAt: models.NewLocalTime(time.Now()),
	}
	if err := s.db.Create(&entry).Error; err != nil {
		zap.L().Warn("audit write failed",
			zap.String("action", action),
			zap.String("entity", entity),
			zap.Error(err))
	}
}

// List returns the newest entries first.
func (s *AuditService) List(limit int) ([]models.AuditEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var entries []models.AuditEntry
	err := s.db.Order("id desc").Limit(limit).Find(&entries).Error
	return entries, err
}
