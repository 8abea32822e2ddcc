package models

import "gorm.io/datatypes"

// AuditEntry records an administrative action (account unlock, rate change,
// user registration) together with a free-form detail payload.
type AuditEntry struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	ActorID   uint           `gorm:"column:id_actor;index;not null" json:"id_actor"`
	Action    string         `gorm:"not null" json:"action"`
	Entity    string         `gorm:"not null" json:"entity"`
	EntityID  uint           `gorm:"column:entity_id" json:"entity_id"`
	Detail    datatypes.JSON `json:"detail"`
	CreatedAt LocalTime      `gorm:"column:created_at" json:"created_at"`
}

func (AuditEntry) TableName() string { return "audit_entries" }
