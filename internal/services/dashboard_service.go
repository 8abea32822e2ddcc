package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/proyectos-itsqmet/sistema-tickets/internal/billing"
	"github.com/proyectos-itsqmet/sistema-tickets/internal/models"
)

const dashboardCacheKey = "dashboard:snapshot"

// DashboardSnapshot is the operational overview shown on the home screen.
type DashboardSnapshot struct {
	Capacity  int     `json:"capacidad_total"`
	Occupied  int     `json:"espacios_ocupados"`
	Available int     `json:"espacios_disponibles"`
	Percent   float64 `json:"porcentaje_ocupacion"`

	EntriesToday int     `json:"ingresos_hoy"`
	ExitsToday   int     `json:"salidas_hoy"`
	TakingsToday float64 `json:"ingresos_dinero_hoy"`

	EntriesChange float64 `json:"porcentaje_cambio_ingresos"`
	ExitsChange   float64 `json:"porcentaje_cambio_salidas"`
	TakingsChange float64 `json:"porcentaje_cambio_dinero"`

	LastArrivals []models.Ticket  `json:"ultimos_ingresos"`
	GeneratedAt  models.LocalTime `json:"generado_en"`
}

// Broadcaster pushes a fresh snapshot to subscribed clients.
type Broadcaster interface {
	Broadcast(message []byte)
}

// DashboardService computes the snapshot and caches it in redis. The cache
// TTL is the configured staleness bound: HTTP reads never serve data older
// than that, and the background refresher broadcasts on the same period.
type DashboardService struct {
	db    *gorm.DB
	cache *redis.Client
	ttl   time.Duration

	now func() time.Time
}

func NewDashboardService(db *gorm.DB, cache *redis.Client, ttl time.Duration) *DashboardService {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &DashboardService{db: db, cache: cache, ttl: ttl, now: time.Now}
}

// Snapshot serves the cached snapshot when it is within the staleness
// bound, recomputing otherwise.
func (s *DashboardService) Snapshot(ctx context.Context) (*DashboardSnapshot, error) {
	if s.cache != nil {
		if val, err := s.cache.Get(ctx, dashboardCacheKey).Result(); err == nil {
			var snap DashboardSnapshot
			if err := json.Unmarshal([]byte(val), &snap); err == nil {
				return &snap, nil
			}
		}
	}
	return s.Refresh(ctx)
}

// Refresh recomputes the snapshot and stores it in the cache.
func (s *DashboardService) Refresh(ctx context.Context) (*DashboardSnapshot, error) {
	snap, err := s.compute()
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(snap); err == nil {
			s.cache.Set(ctx, dashboardCacheKey, data, s.ttl)
		}
	}
	return snap, nil
}

func (s *DashboardService) compute() (*DashboardSnapshot, error) {
	var lot models.Lot
	if err := s.db.First(&lot).Error; err != nil {
		return nil, err
	}

	now := s.now()
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	yesterdayStart := todayStart.AddDate(0, 0, -1)

	var entriesToday, exitsToday, entriesYesterday, exitsYesterday int64
	if err := s.db.Model(&models.Ticket{}).
		Where("fecha_hora_ingreso >= ?", todayStart).
		Count(&entriesToday).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&models.Ticket{}).
		Where("fecha_hora_salida >= ?", todayStart).
		Count(&exitsToday).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&models.Ticket{}).
		Where("fecha_hora_ingreso >= ? AND fecha_hora_ingreso < ?", yesterdayStart, todayStart).
		Count(&entriesYesterday).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&models.Ticket{}).
		Where("fecha_hora_salida >= ? AND fecha_hora_salida < ?", yesterdayStart, todayStart).
		Count(&exitsYesterday).Error; err != nil {
		return nil, err
	}

	takingsToday, err := s.takingsSince(todayStart, nil)
	if err != nil {
		return nil, err
	}
	takingsYesterday, err := s.takingsSince(yesterdayStart, &todayStart)
	if err != nil {
		return nil, err
	}

	var lastArrivals []models.Ticket
	if err := s.db.Order("fecha_hora_ingreso desc").Limit(5).Find(&lastArrivals).Error; err != nil {
		return nil, err
	}

	capacity := lot.Capacity
	if capacity <= 0 {
		capacity = 100
	}

	return &DashboardSnapshot{
		Capacity:  lot.Capacity,
		Occupied:  lot.Occupied,
		Available: lot.Available(),
		Percent:   billing.Round2(float64(lot.Occupied) / float64(capacity) * 100),

		EntriesToday: int(entriesToday),
		ExitsToday:   int(exitsToday),
		TakingsToday: billing.Round2(takingsToday),

		EntriesChange: percentChange(float64(entriesToday), float64(entriesYesterday)),
		ExitsChange:   percentChange(float64(exitsToday), float64(exitsYesterday)),
		TakingsChange: percentChange(takingsToday, takingsYesterday),

		LastArrivals: lastArrivals,
		GeneratedAt:  models.NewLocalTime(now),
	}, nil
}

func (s *DashboardService) takingsSince(from time.Time, until *time.Time) (float64, error) {
	query := s.db.Model(&models.Ticket{}).
		Where("fecha_hora_salida >= ? AND monto IS NOT NULL", from)
	if until != nil {
		query = query.Where("fecha_hora_salida < ?", *until)
	}

	var total *float64
	if err := query.Select("SUM(monto)").Scan(&total).Error; err != nil {
		return 0, err
	}
	if total == nil {
		return 0, nil
	}
	return *total, nil
}

func percentChange(today, yesterday float64) float64 {
	if yesterday == 0 {
		if today > 0 {
			return 100
		}
		return 0
	}
	return billing.Round2((today - yesterday) / yesterday * 100)
}

// Run refreshes the snapshot on the staleness period and broadcasts each
// fresh one until the context is cancelled.
func (s *DashboardService) Run(ctx context.Context, hub Broadcaster) {
	ticker := time.NewTicker(s.ttl)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			snap, err := s.Refresh(ctx)
			if err != nil {
				zap.L().Warn("dashboard refresh failed", zap.Error(err))
				continue
			}
			if hub == nil {
				continue
			}
			if data, err := json.Marshal(snap); err == nil {
				hub.Broadcast(data)
			}
		}
	}
}
