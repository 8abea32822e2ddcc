package models

// Rate is an hourly price record. Rates are never updated in place: a price
// change creates a new active record and deactivates the previous one.
type Rate struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	HourlyPrice float64   `gorm:"column:tarifa_por_hora;not null" json:"tarifa_por_hora"`
	Active      bool      `gorm:"column:status;not null" json:"status"`
	CreatedAt   LocalTime `gorm:"column:created_at" json:"created_at"`
	CreatedBy   uint      `gorm:"column:id_usuario_creacion" json:"id_usuario_creacion"`
}

func (Rate) TableName() string { return "tarifas" }
