package reports

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/proyectos-itsqmet/sistema-tickets/internal/services"
	"github.com/proyectos-itsqmet/sistema-tickets/internal/utils"
)

type Handler struct {
	reports *services.ReportService
}

func NewHandler(reports *services.ReportService) *Handler {
	return &Handler{reports: reports}
}

// dateRange parses the fecha_inicio / fecha_fin query parameters. Both are
// required, YYYY-MM-DD, interpreted in local time.
func dateRange(c *gin.Context) (time.Time, time.Time, bool) {
	start, err := time.ParseInLocation("2006-01-02", c.Query("fecha_inicio"), time.Local)
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "fecha_inicio must be YYYY-MM-DD"))
		return time.Time{}, time.Time{}, false
	}
	end, err := time.ParseInLocation("2006-01-02", c.Query("fecha_fin"), time.Local)
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "fecha_fin must be YYYY-MM-DD"))
		return time.Time{}, time.Time{}, false
	}
	if end.Before(start) {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "fecha_fin must not precede fecha_inicio"))
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

func wantsCSV(c *gin.Context) bool {
	return c.Query("export") == "csv"
}

func sendCSV(c *gin.Context, name string, data []byte, err error) {
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to export report"))
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.csv", name))
	c.Data(http.StatusOK, "text/csv", data)
}

// Income godoc
// @Summary Income report grouped by day or month
// @Tags reports
// @Security ApiKeyAuth
// @Param fecha_inicio query string true "Range start (YYYY-MM-DD)"
// @Param fecha_fin query string true "Range end (YYYY-MM-DD)"
// @Param tipo query string false "diario or mensual" default(diario)
// @Param export query string false "csv for spreadsheet export"
// @Success 200 {object} utils.Response
// @Router /reports/income [get]
func (h *Handler) Income(c *gin.Context) {
	start, end, ok := dateRange(c)
	if !ok {
		return
	}

	grouping := c.DefaultQuery("tipo", services.GroupDaily)
	if grouping != services.GroupDaily && grouping != services.GroupMonthly {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "tipo must be diario or mensual"))
		return
	}

	rows, err := h.reports.Income(start, end, grouping)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to build income report"))
		return
	}

	if wantsCSV(c) {
		data, err := h.reports.IncomeCSV(rows)
		sendCSV(c, "reporte_ingresos", data, err)
		return
	}
	c.JSON(http.StatusOK, utils.NewSuccessResponse("Reporte de ingresos", rows))
}

// Occupancy godoc
// @Summary Daily occupancy report
// @Tags reports
// @Security ApiKeyAuth
// @Param fecha_inicio query string true "Range start (YYYY-MM-DD)"
// @Param fecha_fin query string true "Range end (YYYY-MM-DD)"
// @Param export query string false "csv for spreadsheet export"
// @Success 200 {object} utils.Response
// @Router /reports/occupancy [get]
func (h *Handler) Occupancy(c *gin.Context) {
	start, end, ok := dateRange(c)
	if !ok {
		return
	}

	rows, err := h.reports.Occupancy(start, end)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to build occupancy report"))
		return
	}

	if wantsCSV(c) {
		data, err := h.reports.OccupancyCSV(rows)
		sendCSV(c, "reporte_ocupacion", data, err)
		return
	}
	c.JSON(http.StatusOK, utils.NewSuccessResponse("Reporte de ocupación", rows))
}

// FrequentVehicles godoc
// @Summary Most frequent vehicles in range
// @Tags reports
// @Security ApiKeyAuth
// @Param fecha_inicio query string true "Range start (YYYY-MM-DD)"
// @Param fecha_fin query string true "Range end (YYYY-MM-DD)"
// @Param limit query int false "Row limit" default(10)
// @Param export query string false "csv for spreadsheet export"
// @Success 200 {object} utils.Response
// @Router /reports/frequent-vehicles [get]
func (h *Handler) FrequentVehicles(c *gin.Context) {
	start, end, ok := dateRange(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	rows, err := h.reports.FrequentVehicles(start, end, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to build frequent-vehicles report"))
		return
	}

	if wantsCSV(c) {
		data, err := h.reports.FrequentVehiclesCSV(rows)
		sendCSV(c, "reporte_vehiculos_frecuentes", data, err)
		return
	}
	c.JSON(http.StatusOK, utils.NewSuccessResponse("Vehículos frecuentes", rows))
}

// OperatorActivity godoc
// @Summary Per-operator activity report
// @Tags reports
// @Security ApiKeyAuth
// @Param fecha_inicio query string true "Range start (YYYY-MM-DD)"
// @Param fecha_fin query string true "Range end (YYYY-MM-DD)"
// @Param export query string false "csv for spreadsheet export"
// @Success 200 {object} utils.Response
// @Router /reports/operator-activity [get]
func (h *Handler) OperatorActivity(c *gin.Context) {
	start, end, ok := dateRange(c)
	if !ok {
		return
	}

	rows, err := h.reports.OperatorActivity(start, end)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to build operator-activity report"))
		return
	}

	if wantsCSV(c) {
		data, err := h.reports.OperatorActivityCSV(rows)
		sendCSV(c, "reporte_actividad_operadores", data, err)
		return
	}
	c.JSON(http.StatusOK, utils.NewSuccessResponse("Actividad por operador", rows))
}
