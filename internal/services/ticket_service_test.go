package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/proyectos-itsqmet/sistema-tickets/internal/models"
)

func newTestTicketService(t *testing.T, db *gorm.DB) *TicketService {
	t.Helper()
	return NewTicketService(db, NewRateService(db, NewAuditService(db)))
}

func TestCheckInOpensTicketAndClaimsSpace(t *testing.T) {
	db := setupTestDB(t)
	seedLot(t, db, 10)
	seedRate(t, db, 2.5, true)
	svc := newTestTicketService(t, db)

	ticket, available, err := svc.CheckIn("abc-1234", 7)
	assert.NoError(t, err)
	assert.NotZero(t, ticket.ID)
	assert.Equal(t, "ABC-1234", ticket.Plate)
	assert.Equal(t, uint(7), ticket.EntryOperatorID)
	assert.Equal(t, 2.5, ticket.HourlyRate)
	assert.True(t, ticket.Open())
	assert.Equal(t, 9, available)

	var lot models.Lot
	assert.NoError(t, db.First(&lot).Error)
	assert.Equal(t, 1, lot.Occupied)
}

func TestCheckInRejectsInvalidPlate(t *testing.T) {
	db := setupTestDB(t)
	seedLot(t, db, 10)
	seedRate(t, db, 2.5, true)
	svc := newTestTicketService(t, db)

	for _, plate := range []string{"", "AB-1234", "ABCD-123", "123-ABCD", "ABC 1234"} {
		_, _, err := svc.CheckIn(plate, 1)
		assert.ErrorIs(t, err, ErrInvalidPlate, "plate %q", plate)
	}
}

func TestCheckInRejectsAlreadyParkedVehicle(t *testing.T) {
	db := setupTestDB(t)
	seedLot(t, db, 10)
	seedRate(t, db, 2.5, true)
	svc := newTestTicketService(t, db)

	_, _, err := svc.CheckIn("ABC-1234", 1)
	assert.NoError(t, err)

	_, _, err = svc.CheckIn("ABC-1234", 1)
	assert.ErrorIs(t, err, ErrAlreadyParked)

	var lot models.Lot
	assert.NoError(t, db.First(&lot).Error)
	assert.Equal(t, 1, lot.Occupied)
}

func TestCheckInRejectsFullLot(t *testing.T) {
	db := setupTestDB(t)
	seedLot(t, db, 1)
	seedRate(t, db, 2.5, true)
	svc := newTestTicketService(t, db)

	_, _, err := svc.CheckIn("ABC-1234", 1)
	assert.NoError(t, err)

	_, _, err = svc.CheckIn("XYZ-9999", 1)
	assert.ErrorIs(t, err, ErrLotFull)

	var tickets []models.Ticket
	assert.NoError(t, db.Find(&tickets).Error)
	assert.Len(t, tickets, 1)
}

func TestCheckInRequiresActiveRate(t *testing.T) {
	db := setupTestDB(t)
	seedLot(t, db, 10)
	seedRate(t, db, 2.5, false)
	svc := newTestTicketService(t, db)

	_, _, err := svc.CheckIn("ABC-1234", 1)
	assert.ErrorIs(t, err, ErrNoActiveRate)
}

func TestCheckOutBillsCeilingHoursAndIssuesInvoice(t *testing.T) {
	db := setupTestDB(t)
	seedLot(t, db, 10)
	seedRate(t, db, 2.5, true)
	svc := newTestTicketService(t, db)

	entry := time.Date(2025, 3, 10, 9, 0, 0, 0, time.Local)
	svc.now = func() time.Time { return entry }
	ticket, _, err := svc.CheckIn("ABC-1234", 7)
	assert.NoError(t, err)

	// 1h 1m parked bills two full hours.
	svc.now = func() time.Time { return entry.Add(61 * time.Minute) }
	closed, invoice, err := svc.CheckOut(ticket.ID, 8, "efectivo")
	assert.NoError(t, err)

	assert.False(t, closed.Open())
	assert.Equal(t, "1h 1m", closed.Duration.String)
	assert.Equal(t, 5.0, closed.Amount.Float64)
	assert.Equal(t, int64(8), closed.ExitOperatorID.Int64)
	assert.Equal(t, "efectivo", closed.PaymentMethod.String)

	assert.NotEmpty(t, invoice.Number)
	assert.Equal(t, ticket.ID, invoice.TicketID)
	assert.Equal(t, 5.0, invoice.Total)
	assert.Equal(t, uint(8), invoice.IssuedBy)

	var lot models.Lot
	assert.NoError(t, db.First(&lot).Error)
	assert.Equal(t, 0, lot.Occupied)

	var stored models.Invoice
	assert.NoError(t, db.First(&stored, "id_ticket = ?", ticket.ID).Error)
	assert.Equal(t, invoice.Number, stored.Number)
}

func TestCheckOutPreservesEntryData(t *testing.T) {
	db := setupTestDB(t)
	seedLot(t, db, 10)
	seedRate(t, db, 1.0, true)
	svc := newTestTicketService(t, db)

	entry := time.Date(2025, 3, 10, 9, 0, 0, 0, time.Local)
	svc.now = func() time.Time { return entry }
	ticket, _, err := svc.CheckIn("ABC-1234", 7)
	assert.NoError(t, err)

	svc.now = func() time.Time { return entry.Add(30 * time.Minute) }
	closed, _, err := svc.CheckOut(ticket.ID, 8, "tarjeta")
	assert.NoError(t, err)

	assert.Equal(t, ticket.ID, closed.ID)
	assert.Equal(t, ticket.Plate, closed.Plate)
	assert.True(t, closed.EntryTime.Time().Equal(entry))
	assert.Equal(t, ticket.EntryOperatorID, closed.EntryOperatorID)
	assert.Equal(t, ticket.HourlyRate, closed.HourlyRate)
}

func TestCheckOutRejectsClosedTicket(t *testing.T) {
	db := setupTestDB(t)
	seedLot(t, db, 10)
	seedRate(t, db, 2.5, true)
	svc := newTestTicketService(t, db)

	ticket, _, err := svc.CheckIn("ABC-1234", 1)
	assert.NoError(t, err)

	_, _, err = svc.CheckOut(ticket.ID, 1, "efectivo")
	assert.NoError(t, err)

	_, _, err = svc.CheckOut(ticket.ID, 1, "efectivo")
	assert.ErrorIs(t, err, ErrTicketClosed)

	// Exactly one invoice per closed ticket.
	var invoices int64
	assert.NoError(t, db.Model(&models.Invoice{}).Where("id_ticket = ?", ticket.ID).Count(&invoices).Error)
	assert.Equal(t, int64(1), invoices)
}

func TestCheckOutUnknownTicket(t *testing.T) {
	db := setupTestDB(t)
	seedLot(t, db, 10)
	svc := newTestTicketService(t, db)

	_, _, err := svc.CheckOut(404, 1, "efectivo")
	assert.ErrorIs(t, err, ErrTicketNotFound)
}

func TestActiveAndTodayListings(t *testing.T) {
	db := setupTestDB(t)
	seedLot(t, db, 10)
	seedRate(t, db, 2.0, true)
	svc := newTestTicketService(t, db)

	now := time.Date(2025, 3, 10, 15, 0, 0, 0, time.Local)
	svc.now = func() time.Time { return now }

	// One still parked, one closed today, one from last week.
	open, _, err := svc.CheckIn("AAA-1111", 1)
	assert.NoError(t, err)

	closedTicket, _, err := svc.CheckIn("BBB-2222", 1)
	assert.NoError(t, err)
	_, _, err = svc.CheckOut(closedTicket.ID, 1, "efectivo")
	assert.NoError(t, err)

	old := time.Date(2025, 3, 3, 10, 0, 0, 0, time.Local)
	oldExit := models.NewLocalTime(old.Add(time.Hour))
	assert.NoError(t, db.Create(&models.Ticket{
		Plate:           "CCC-3333",
		EntryTime:       models.NewLocalTime(old),
		ExitTime:        &oldExit,
		EntryOperatorID: 1,
		HourlyRate:      2.0,
	}).Error)

	active, err := svc.Active()
	assert.NoError(t, err)
	assert.Len(t, active, 1)
	assert.Equal(t, open.ID, active[0].ID)

	today, err := svc.Today()
	assert.NoError(t, err)
	assert.Len(t, today, 2)
}
