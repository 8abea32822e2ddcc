package models

// Lot is the physical parking facility. espacios_ocupados is maintained by
// guarded relational updates inside the same transaction as the ticket
// write, so the counter cannot drift from the ticket table.
type Lot struct {
	ID       uint   `gorm:"primarykey" json:"id"`
	Name     string `gorm:"column:nombre;not null" json:"nombre"`
	Capacity int    `gorm:"column:capacidad_total;not null" json:"capacidad_total"`
	Occupied int    `gorm:"column:espacios_ocupados;not null;default:0" json:"espacios_ocupados"`
}

func (Lot) TableName() string { return "parqueaderos" }

// Available returns the free space count.
func (l *Lot) Available() int { return l.Capacity - l.Occupied }
