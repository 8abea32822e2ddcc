package services

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/guregu/null.v4"
	"gorm.io/gorm"

	"github.com/proyectos-itsqmet/sistema-tickets/internal/billing"
	"github.com/proyectos-itsqmet/sistema-tickets/internal/models"
)

var (
	ErrInvalidPlate   = errors.New("plate must match the XXX-9999 format")
	ErrAlreadyParked  = errors.New("an open ticket already exists for this plate")
	ErrLotFull        = errors.New("no parking spaces available")
	ErrTicketNotFound = errors.New("ticket not found")
	ErrTicketClosed   = errors.New("ticket is already closed")
	ErrLotNotFound    = errors.New("lot not configured")
)

// PaymentMethods accepted at check-out.
var PaymentMethods = []string{"efectivo", "tarjeta", "transferencia"}

// TicketService drives the ticket lifecycle: OPEN on check-in, CLOSED on
// check-out, no other transitions. The occupied-space counter and the
// invoice are written inside the same transaction as the ticket, so a
// partial failure rolls everything back.
type TicketService struct {
	db    *gorm.DB
	rates *RateService

	now func() time.Time
}

func NewTicketService(db *gorm.DB, rates *RateService) *TicketService {
	return &TicketService{db: db, rates: rates, now: time.Now}
}

// lot returns the single facility record.
func (s *TicketService) lot(tx *gorm.DB) (*models.Lot, error) {
	var lot models.Lot
	if err := tx.First(&lot).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLotNotFound
		}
		return nil, err
	}
	return &lot, nil
}

// CheckIn opens a ticket for a plate at the current active rate and claims a
// space. The capacity check and the counter increment are one guarded
// UPDATE, so two simultaneous check-ins cannot oversell the lot.
func (s *TicketService) CheckIn(plate string, operatorID uint) (*models.Ticket, int, error) {
	plate = strings.ToUpper(strings.TrimSpace(plate))
	if !models.PlatePattern.MatchString(plate) {
		return nil, 0, ErrInvalidPlate
	}

	rate, err := s.rates.Active()
	if err != nil {
		return nil, 0, err
	}

	ticket := &models.Ticket{
		Plate:           plate,
		EntryTime:       models.NewLocalTime(s.now()),
		EntryOperatorID: operatorID,
		HourlyRate:      rate.HourlyPrice,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		var open int64
		if err := tx.Model(&models.Ticket{}).
			Where("placa_vehiculo = ? AND fecha_hora_salida IS NULL", plate).
			Count(&open).Error; err != nil {
			return err
		}
		if open > 0 {
			return ErrAlreadyParked
		}

		lot, err := s.lot(tx)
		if err != nil {
			return err
		}

		claimed := tx.Model(&models.Lot{}).
			Where("id = ? AND espacios_ocupados < capacidad_total", lot.ID).
			UpdateColumn("espacios_ocupados", gorm.Expr("espacios_ocupados + 1"))
		if claimed.Error != nil {
			return claimed.Error
		}
		if claimed.RowsAffected == 0 {
			return ErrLotFull
		}

		return tx.Create(ticket).Error
	})
	if err != nil {
		return nil, 0, err
	}

	available, err := s.AvailableSpaces()
	if err != nil {
		return ticket, 0, nil
	}
	return ticket, available, nil
}

// CheckOut closes an open ticket: exit fields are populated atomically, the
// space is released and the invoice is issued, all in one transaction. A
// closed ticket always has exactly one invoice.
func (s *TicketService) CheckOut(ticketID, operatorID uint, paymentMethod string) (*models.Ticket, *models.Invoice, error) {
	now := s.now()
	var ticket models.Ticket
	var invoice *models.Invoice

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&ticket, ticketID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTicketNotFound
			}
			return err
		}
		if !ticket.Open() {
			return ErrTicketClosed
		}

		entry := ticket.EntryTime.Time()
		exit := models.NewLocalTime(now)
		duration := billing.Elapsed(&entry, now)
		amount := billing.Amount(&entry, ticket.HourlyRate, now)

		// Guard on the open state so a concurrent close loses cleanly.
		closed := tx.Model(&models.Ticket{}).
			Where("id = ? AND fecha_hora_salida IS NULL", ticket.ID).
			Updates(map[string]interface{}{
				"fecha_hora_salida":  exit,
				"tiempo_permanencia": duration,
				"id_operador_salida": operatorID,
				"monto":              amount,
				"metodo_pago":        paymentMethod,
			})
		if closed.Error != nil {
			return closed.Error
		}
		if closed.RowsAffected == 0 {
			return ErrTicketClosed
		}

		lot, err := s.lot(tx)
		if err != nil {
			return err
		}
		if err := tx.Model(&models.Lot{}).
			Where("id = ? AND espacios_ocupados > 0", lot.ID).
			UpdateColumn("espacios_ocupados", gorm.Expr("espacios_ocupados - 1")).Error; err != nil {
			return err
		}

		invoice = &models.Invoice{
			Number:        uuid.New().String(),
			TicketID:      ticket.ID,
			Total:         amount,
			IssuedAt:      exit,
			PaymentMethod: paymentMethod,
			IssuedBy:      operatorID,
		}
		if err := tx.Create(invoice).Error; err != nil {
			return err
		}

		ticket.ExitTime = &exit
		ticket.Duration = null.StringFrom(duration)
		ticket.ExitOperatorID = null.IntFrom(int64(operatorID))
		ticket.Amount = null.FloatFrom(amount)
		ticket.PaymentMethod = null.StringFrom(paymentMethod)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return &ticket, invoice, nil
}

// List returns every ticket, newest entry first.
func (s *TicketService) List() ([]models.Ticket, error) {
	var tickets []models.Ticket
	err := s.db.Order("fecha_hora_ingreso desc").Find(&tickets).Error
	return tickets, err
}

// Active returns the tickets of vehicles still parked.
func (s *TicketService) Active() ([]models.Ticket, error) {
	var tickets []models.Ticket
	err := s.db.Where("fecha_hora_salida IS NULL").
		Order("fecha_hora_ingreso desc").Find(&tickets).Error
	return tickets, err
}

// Today returns tickets whose entry or exit falls within the current
// calendar day (local midnight boundary).
func (s *TicketService) Today() ([]models.Ticket, error) {
	now := s.now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var tickets []models.Ticket
	err := s.db.Where("fecha_hora_ingreso >= ? OR fecha_hora_salida >= ?", midnight, midnight).
		Order("fecha_hora_ingreso desc").Find(&tickets).Error
	return tickets, err
}

// Find loads one ticket by id.
func (s *TicketService) Find(ticketID uint) (*models.Ticket, error) {
	var ticket models.Ticket
	if err := s.db.First(&ticket, ticketID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, err
	}
	return &ticket, nil
}

// AvailableSpaces reads the current free-space count.
func (s *TicketService) AvailableSpaces() (int, error) {
	lot, err := s.lot(s.db)
	if err != nil {
		return 0, err
	}
	return lot.Available(), nil
}
