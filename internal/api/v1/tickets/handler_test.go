package tickets_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/proyectos-itsqmet/sistema-tickets/internal/api/v1/tickets"
	"github.com/proyectos-itsqmet/sistema-tickets/internal/models"
	"github.com/proyectos-itsqmet/sistema-tickets/internal/services"
	"github.com/proyectos-itsqmet/sistema-tickets/internal/utils"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	db.Migrator().DropTable(
		&models.Ticket{}, &models.Rate{}, &models.Lot{},
		&models.Invoice{}, &models.AuditEntry{},
	)
	if err := db.AutoMigrate(
		&models.Ticket{}, &models.Rate{}, &models.Lot{},
		&models.Invoice{}, &models.AuditEntry{},
	); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}

	if err := db.Create(&models.Lot{Name: "Central", Capacity: 2}).Error; err != nil {
		t.Fatalf("failed to seed lot: %v", err)
	}
	if err := db.Create(&models.Rate{
		HourlyPrice: 2.5,
		Active:      true,
		CreatedAt:   models.NewLocalTime(time.Now()),
		CreatedBy:   1,
	}).Error; err != nil {
		t.Fatalf("failed to seed rate: %v", err)
	}
	return db
}

// asOperator stands in for the auth middleware in handler tests.
func asOperator(operatorID uint) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user", models.User{
			ID:        operatorID,
			FirstName: "Test",
			LastName:  "Operator",
			Role:      models.RoleOperator,
			Active:    true,
		})
		c.Next()
	}
}

func setupRouter(t *testing.T, db *gorm.DB) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	if err := utils.RegisterCustomValidations(); err != nil {
		t.Fatalf("failed to register validations: %v", err)
	}

	svc := services.NewTicketService(db, services.NewRateService(db, services.NewAuditService(db)))
	h := tickets.NewHandler(svc)

	r := gin.New()
	group := r.Group("/api/v1")
	group.Use(asOperator(7))
	tickets.RegisterRoutes(group, h)
	return r
}

func postJSON(r *gin.Engine, method, path string, payload interface{}) *httptest.ResponseRecorder {
	body, _ := json.Marshal(payload)
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCheckInEndpoint(t *testing.T) {
	db := setupTestDB(t)
	r := setupRouter(t, db)

	w := postJSON(r, http.MethodPost, "/api/v1/tickets", gin.H{"placa_vehiculo": "abc-1234"})
	assert.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Status int `json:"status"`
		Data   struct {
			Ticket    models.Ticket `json:"ticket"`
			Available int           `json:"espacios_disponibles"`
		} `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, "ABC-1234", resp.Data.Ticket.Plate)
	assert.Equal(t, uint(7), resp.Data.Ticket.EntryOperatorID)
	assert.Equal(t, 2.5, resp.Data.Ticket.HourlyRate)
	assert.Equal(t, 1, resp.Data.Available)
}

func TestCheckInEndpointRejectsBadPlate(t *testing.T) {
	db := setupTestDB(t)
	r := setupRouter(t, db)

	w := postJSON(r, http.MethodPost, "/api/v1/tickets", gin.H{"placa_vehiculo": "bad"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "plate format")
}

func TestCheckInEndpointConflicts(t *testing.T) {
	db := setupTestDB(t)
	r := setupRouter(t, db)

	w := postJSON(r, http.MethodPost, "/api/v1/tickets", gin.H{"placa_vehiculo": "ABC-1234"})
	assert.Equal(t, http.StatusCreated, w.Code)

	// Same vehicle again.
	w = postJSON(r, http.MethodPost, "/api/v1/tickets", gin.H{"placa_vehiculo": "ABC-1234"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "ya se encuentra en el parqueadero")

	// Fill the remaining space, then overflow.
	w = postJSON(r, http.MethodPost, "/api/v1/tickets", gin.H{"placa_vehiculo": "DEF-5678"})
	assert.Equal(t, http.StatusCreated, w.Code)
	w = postJSON(r, http.MethodPost, "/api/v1/tickets", gin.H{"placa_vehiculo": "GHI-9012"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "No hay espacios disponibles")
}

func TestCheckOutEndpoint(t *testing.T) {
	db := setupTestDB(t)
	r := setupRouter(t, db)

	w := postJSON(r, http.MethodPost, "/api/v1/tickets", gin.H{"placa_vehiculo": "ABC-1234"})
	assert.Equal(t, http.StatusCreated, w.Code)

	var created struct {
		Data struct {
			Ticket models.Ticket `json:"ticket"`
		} `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	path := fmt.Sprintf("/api/v1/tickets/%d/close", created.Data.Ticket.ID)
	w = postJSON(r, http.MethodPatch, path, gin.H{"metodo_pago": "efectivo"})
	assert.Equal(t, http.StatusOK, w.Code)

	var closed struct {
		Data struct {
			Ticket  models.Ticket  `json:"ticket"`
			Invoice models.Invoice `json:"factura"`
		} `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &closed))
	assert.False(t, closed.Data.Ticket.Open())
	assert.Equal(t, "efectivo", closed.Data.Ticket.PaymentMethod.String)
	assert.NotEmpty(t, closed.Data.Invoice.Number)
	assert.Equal(t, created.Data.Ticket.ID, closed.Data.Invoice.TicketID)

	// Closing twice conflicts.
	w = postJSON(r, http.MethodPatch, path, gin.H{"metodo_pago": "efectivo"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCheckOutEndpointValidatesPaymentMethod(t *testing.T) {
	db := setupTestDB(t)
	r := setupRouter(t, db)

	w := postJSON(r, http.MethodPatch, "/api/v1/tickets/1/close", gin.H{"metodo_pago": "cheque"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = postJSON(r, http.MethodPatch, "/api/v1/tickets/999/close", gin.H{"metodo_pago": "tarjeta"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListEndpoints(t *testing.T) {
	db := setupTestDB(t)
	r := setupRouter(t, db)

	w := postJSON(r, http.MethodPost, "/api/v1/tickets", gin.H{"placa_vehiculo": "ABC-1234"})
	assert.Equal(t, http.StatusCreated, w.Code)

	req, _ := http.NewRequest(http.MethodGet, "/api/v1/tickets/active", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ABC-1234")

	req, _ = http.NewRequest(http.MethodGet, "/api/v1/tickets/available-spaces", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"espacios_disponibles":1`)
}

func TestShowEndpoint(t *testing.T) {
	db := setupTestDB(t)
	r := setupRouter(t, db)

	w := postJSON(r, http.MethodPost, "/api/v1/tickets", gin.H{"placa_vehiculo": "ABC-1234"})
	assert.Equal(t, http.StatusCreated, w.Code)

	var created struct {
		Data struct {
			Ticket models.Ticket `json:"ticket"`
		} `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	req, _ := http.NewRequest(http.MethodGet, fmt.Sprintf("/api/v1/tickets/%d", created.Data.Ticket.ID), nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ABC-1234")

	req, _ = http.NewRequest(http.MethodGet, "/api/v1/tickets/999", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
