package models

// Invoice is the billing record produced when a ticket is closed. It is
// written in the same transaction as the closing update and never mutated.
type Invoice struct {
	ID            uint      `gorm:"primarykey" json:"id"`
	Number        string    `gorm:"column:numero;uniqueIndex;not null" json:"numero"`
	TicketID      uint      `gorm:"column:id_ticket;uniqueIndex;not null" json:"id_ticket"`
	Total         float64   `gorm:"column:monto_total;not null" json:"monto_total"`
	IssuedAt      LocalTime `gorm:"column:fecha_emision;not null" json:"fecha_emision"`
	PaymentMethod string    `gorm:"column:metodo_pago;not null" json:"metodo_pago"`
	IssuedBy      uint      `gorm:"column:id_usuario_emision;not null" json:"id_usuario_emision"`
}

func (Invoice) TableName() string { return "facturas" }
