package models

import (
	"regexp"

	"gopkg.in/guregu/null.v4"
)

// PlatePattern is the accepted vehicle plate format.
var PlatePattern = regexp.MustCompile(`^[A-Z]{3}-\d{4}$`)

// Ticket records one parking session from entry to exit. A ticket with a
// non-null exit timestamp is closed and immutable.
type Ticket struct {
	ID              uint        `gorm:"primarykey" json:"id"`
	Plate           string      `gorm:"column:placa_vehiculo;index;not null" json:"placa_vehiculo"`
	EntryTime       LocalTime   `gorm:"column:fecha_hora_ingreso;not null" json:"fecha_hora_ingreso"`
	ExitTime        *LocalTime  `gorm:"column:fecha_hora_salida;index" json:"fecha_hora_salida"`
	Duration        null.String `gorm:"column:tiempo_permanencia" json:"tiempo_permanencia"`
	EntryOperatorID uint        `gorm:"column:id_operador_ingreso;not null" json:"id_operador_ingreso"`
	ExitOperatorID  null.Int    `gorm:"column:id_operador_salida" json:"id_operador_salida"`
	Amount          null.Float  `gorm:"column:monto" json:"monto"`
	HourlyRate      float64     `gorm:"column:tarifa;not null" json:"tarifa"`
	PaymentMethod   null.String `gorm:"column:metodo_pago" json:"metodo_pago"`
}

func (Ticket) TableName() string { return "tickets" }

// Open reports whether the vehicle is still parked.
func (t *Ticket) Open() bool { return t.ExitTime == nil }
