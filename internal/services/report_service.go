package services

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/proyectos-itsqmet/sistema-tickets/internal/billing"
	"github.com/proyectos-itsqmet/sistema-tickets/internal/models"
)

// Income grouping modes.
const (
	GroupDaily   = "diario"
	GroupMonthly = "mensual"
)

type IncomeRow struct {
	Date        string  `json:"fecha"`
	Income      float64 `json:"ingresos"`
	TicketCount int     `json:"cantidad_tickets"`
}

type OccupancyRow struct {
	Date     string  `json:"fecha"`
	Occupied int     `json:"espacios_ocupados"`
	Capacity int     `json:"capacidad_total"`
	Percent  float64 `json:"porcentaje_ocupacion"`
}

type FrequentVehicleRow struct {
	Plate     string           `json:"placa_vehiculo"`
	Visits    int              `json:"cantidad_visitas"`
	Total     float64          `json:"monto_total"`
	LastVisit models.LocalTime `json:"ultima_visita"`
}

type OperatorActivityRow struct {
	OperatorID uint    `json:"id_operador"`
	Name       string  `json:"nombre_operador"`
	CheckIns   int     `json:"tickets_ingreso"`
	CheckOuts  int     `json:"tickets_salida"`
	Collected  float64 `json:"monto_recaudado"`
}

// ReportService derives the operational reports from the ticket history.
// Every report takes an inclusive [start, end] date range; the end day is
// extended to 23:59:59.999 local. Reports fail closed: on a fetch error the
// caller gets empty rows and the error, never a partial aggregation.
type ReportService struct {
	db *gorm.DB

	now func() time.Time
}

func NewReportService(db *gorm.DB) *ReportService {
	return &ReportService{db: db, now: time.Now}
}

func endOfDay(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 23, 59, 59, int(999*time.Millisecond), d.Location())
}

func dateKey(t time.Time) string  { return t.Format("2006-01-02") }
func monthKey(t time.Time) string { return t.Format("2006-01") }

// Income sums closed-ticket takings per calendar day or month.
func (s *ReportService) Income(start, end time.Time, grouping string) ([]IncomeRow, error) {
	rangeEnd := endOfDay(end)

	var tickets []models.Ticket
	if err := s.db.
		Where("fecha_hora_salida IS NOT NULL AND monto IS NOT NULL").
		Where("fecha_hora_salida BETWEEN ? AND ?", start, rangeEnd).
		Find(&tickets).Error; err != nil {
		return []IncomeRow{}, err
	}

	type bucket struct {
		income float64
		count  int
	}
	buckets := map[string]*bucket{}

	for i := range tickets {
		exit := tickets[i].ExitTime.Time()
		key := dateKey(exit)
		if grouping == GroupMonthly {
			key = monthKey(exit)
		}
		b, ok := buckets[key]
		if !ok {
			b = &bucket{}
			buckets[key] = b
		}
		b.income += tickets[i].Amount.Float64
		b.count++
	}

	rows := make([]IncomeRow, 0, len(buckets))
	for key, b := range buckets {
		rows = append(rows, IncomeRow{
			Date:        key,
			Income:      billing.Round2(b.income),
			TicketCount: b.count,
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Date < rows[j].Date })
	return rows, nil
}

// Occupancy reports, for every calendar day in the range, how many tickets
// covered that day's local noon, against the lot's current capacity. Days
// with zero occupancy still produce a row.
func (s *ReportService) Occupancy(start, end time.Time) ([]OccupancyRow, error) {
	rangeEnd := endOfDay(end)

	var lot models.Lot
	if err := s.db.First(&lot).Error; err != nil {
		return []OccupancyRow{}, err
	}
	capacity := lot.Capacity
	if capacity <= 0 {
		capacity = 100
	}

	var tickets []models.Ticket
	if err := s.db.Find(&tickets).Error; err != nil {
		return []OccupancyRow{}, err
	}

	now := s.now()
	rows := []OccupancyRow{}
	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
	for !day.After(rangeEnd) {
		noon := day.Add(12 * time.Hour)

		occupied := 0
		for i := range tickets {
			entry := tickets[i].EntryTime.Time()
			exit := now
			if tickets[i].ExitTime != nil {
				exit = tickets[i].ExitTime.Time()
			}
			if !entry.After(noon) && !exit.Before(noon) {
				occupied++
			}
		}

		rows = append(rows, OccupancyRow{
			Date:     dateKey(day),
			Occupied: occupied,
			Capacity: capacity,
			Percent:  billing.Round2(float64(occupied) / float64(capacity) * 100),
		})
		day = day.AddDate(0, 0, 1)
	}
	return rows, nil
}

// FrequentVehicles ranks plates by visit count over entries in range.
func (s *ReportService) FrequentVehicles(start, end time.Time, limit int) ([]FrequentVehicleRow, error) {
	if limit <= 0 {
		limit = 10
	}
	rangeEnd := endOfDay(end)

	var tickets []models.Ticket
	if err := s.db.
		Where("fecha_hora_ingreso BETWEEN ? AND ?", start, rangeEnd).
		Find(&tickets).Error; err != nil {
		return []FrequentVehicleRow{}, err
	}

	byPlate := map[string]*FrequentVehicleRow{}
	for i := range tickets {
		t := &tickets[i]
		row, ok := byPlate[t.Plate]
		if !ok {
			row = &FrequentVehicleRow{Plate: t.Plate, LastVisit: t.EntryTime}
			byPlate[t.Plate] = row
		}
		row.Visits++
		row.Total += t.Amount.Float64
		if t.EntryTime.Time().After(row.LastVisit.Time()) {
			row.LastVisit = t.EntryTime
		}
	}

	rows := make([]FrequentVehicleRow, 0, len(byPlate))
	for _, row := range byPlate {
		row.Total = billing.Round2(row.Total)
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Visits != rows[j].Visits {
			return rows[i].Visits > rows[j].Visits
		}
		return rows[i].Plate < rows[j].Plate
	})
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

// OperatorActivity accumulates per-operator check-ins, check-outs and
// collected amounts. Entry and exit timestamps are filtered against the
// range independently. Unknown operator ids get a generic label.
func (s *ReportService) OperatorActivity(start, end time.Time) ([]OperatorActivityRow, error) {
	rangeEnd := endOfDay(end)

	var tickets []models.Ticket
	if err := s.db.Find(&tickets).Error; err != nil {
		return []OperatorActivityRow{}, err
	}
	var users []models.User
	if err := s.db.Find(&users).Error; err != nil {
		return []OperatorActivityRow{}, err
	}

	names := map[uint]string{}
	for i := range users {
		names[users[i].ID] = users[i].FullName()
	}

	inRange := func(t time.Time) bool {
		return !t.Before(start) && !t.After(rangeEnd)
	}

	byOperator := map[uint]*OperatorActivityRow{}
	get := func(id uint) *OperatorActivityRow {
		row, ok := byOperator[id]
		if !ok {
			name, found := names[id]
			if !found {
				name = fmt.Sprintf("Operador %d", id)
			}
			row = &OperatorActivityRow{OperatorID: id, Name: name}
			byOperator[id] = row
		}
		return row
	}

	for i := range tickets {
		t := &tickets[i]

		if inRange(t.EntryTime.Time()) {
			get(t.EntryOperatorID).CheckIns++
		}

		if t.ExitTime != nil && t.ExitOperatorID.Valid && inRange(t.ExitTime.Time()) {
			row := get(uint(t.ExitOperatorID.Int64))
			row.CheckOuts++
			row.Collected += t.Amount.Float64
		}
	}

	rows := make([]OperatorActivityRow, 0, len(byOperator))
	for _, row := range byOperator {
		row.Collected = billing.Round2(row.Collected)
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Collected != rows[j].Collected {
			return rows[i].Collected > rows[j].Collected
		}
		return rows[i].OperatorID < rows[j].OperatorID
	})
	return rows, nil
}

// CSV exporters with the Spanish column headers the web client shows in
// its spreadsheet downloads.

func writeCSV(header []string, records [][]string) ([]byte, error) {
	b := &bytes.Buffer{}
	w := csv.NewWriter(b)

	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, record := range records {
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

func (s *ReportService) IncomeCSV(rows []IncomeRow) ([]byte, error) {
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, []string{
			r.Date,
			fmt.Sprintf("%.2f", r.Income),
			fmt.Sprintf("%d", r.TicketCount),
		})
	}
	return writeCSV([]string{"Fecha", "Ingresos ($)", "Cantidad de Tickets"}, records)
}

func (s *ReportService) OccupancyCSV(rows []OccupancyRow) ([]byte, error) {
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, []string{
			r.Date,
			fmt.Sprintf("%d", r.Occupied),
			fmt.Sprintf("%d", r.Capacity),
			fmt.Sprintf("%.2f", r.Percent),
		})
	}
	return writeCSV([]string{"Fecha", "Espacios Ocupados", "Capacidad Total", "Ocupación (%)"}, records)
}

func (s *ReportService) FrequentVehiclesCSV(rows []FrequentVehicleRow) ([]byte, error) {
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		last := r.LastVisit.Time()
		records = append(records, []string{
			r.Plate,
			fmt.Sprintf("%d", r.Visits),
			fmt.Sprintf("%.2f", r.Total),
			billing.FormatDateTime(&last),
		})
	}
	return writeCSV([]string{"Placa", "Cantidad de Visitas", "Monto Total ($)", "Última Visita"}, records)
}

func (s *ReportService) OperatorActivityCSV(rows []OperatorActivityRow) ([]byte, error) {
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, []string{
			fmt.Sprintf("%d", r.OperatorID),
			r.Name,
			fmt.Sprintf("%d", r.CheckIns),
			fmt.Sprintf("%d", r.CheckOuts),
			fmt.Sprintf("%.2f", r.Collected),
		})
	}
	return writeCSV([]string{"ID", "Operador", "Ingresos", "Salidas", "Monto Recaudado ($)"}, records)
}
