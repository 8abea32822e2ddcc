package tickets

// CheckInInput registers a vehicle entry. The plate is validated against
// the XXX-9999 format before any write.
type CheckInInput struct {
	Plate string `json:"placa_vehiculo" binding:"required,plate"`
}

// CheckOutInput closes a ticket.
type CheckOutInput struct {
	PaymentMethod string `json:"metodo_pago" binding:"required,oneof=efectivo tarjeta transferencia"`
}
