package rates

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/proyectos-itsqmet/sistema-tickets/internal/middleware"
	"github.com/proyectos-itsqmet/sistema-tickets/internal/services"
	"github.com/proyectos-itsqmet/sistema-tickets/internal/utils"
)

type Handler struct {
	rates *services.RateService
}

func NewHandler(rates *services.RateService) *Handler {
	return &Handler{rates: rates}
}

type CreateInput struct {
	HourlyPrice float64 `json:"tarifa_por_hora" binding:"required,gt=0"`
}

// List godoc
// @Summary Full rate history
// @Tags rates
// @Security ApiKeyAuth
// @Success 200 {object} utils.Response
// @Router /tarifas [get]
func (h *Handler) List(c *gin.Context) {
	rates, err := h.rates.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to list rates"))
		return
	}
	c.JSON(http.StatusOK, utils.NewSuccessResponse("Tarifas", rates))
}

// Active godoc
// @Summary Rate currently applied at check-in
// @Tags rates
// @Security ApiKeyAuth
// @Success 200 {object} utils.Response
// @Router /tarifas/active [get]
func (h *Handler) Active(c *gin.Context) {
	rate, err := h.rates.Active()
	if err != nil {
		if errors.Is(err, services.ErrNoActiveRate) {
			c.JSON(http.StatusNotFound, utils.NewErrorResponse(http.StatusNotFound, "No existe una tarifa activa"))
			return
		}
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to read active rate"))
		return
	}
	c.JSON(http.StatusOK, utils.NewSuccessResponse("Tarifa activa", rate))
}

// Create godoc
// @Summary Register a new rate, deactivating the previous one
// @Tags rates
// @Security ApiKeyAuth
// @Param input body CreateInput true "Rate Input"
// @Success 201 {object} utils.Response
// @Router /tarifas [post]
func (h *Handler) Create(c *gin.Context) {
	var input CreateInput
	if !utils.BindAndValidate(c, &input) {
		return
	}

	actor, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, utils.NewErrorResponse(http.StatusUnauthorized, "Authentication required"))
		return
	}

	rate, err := h.rates.Create(input.HourlyPrice, actor.ID)
	if err != nil {
		if errors.Is(err, services.ErrInvalidPrice) {
			c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "La tarifa debe ser mayor que cero"))
			return
		}
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to create rate"))
		return
	}

	c.JSON(http.StatusCreated, utils.NewSuccessResponse("Tarifa creada", rate))
}

// Disable godoc
// @Summary Deactivate a rate
// @Description The last active rate cannot be disabled; create its replacement first
// @Tags rates
// @Security ApiKeyAuth
// @Param id path int true "Rate ID"
// @Success 200 {object} utils.Response
// @Failure 409 {object} utils.Response
// @Router /tarifas/{id}/disable [patch]
func (h *Handler) Disable(c *gin.Context) {
	rateID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid rate id"))
		return
	}

	actor, _ := middleware.CurrentUser(c)

	if err := h.rates.Disable(uint(rateID), actor.ID); err != nil {
		switch {
		case errors.Is(err, services.ErrRateNotFound):
			c.JSON(http.StatusNotFound, utils.NewErrorResponse(http.StatusNotFound, "Tarifa no encontrada"))
		case errors.Is(err, services.ErrRateInactive):
			c.JSON(http.StatusConflict, utils.NewErrorResponse(http.StatusConflict, "La tarifa ya está inactiva"))
		case errors.Is(err, services.ErrLastActiveRate):
			c.JSON(http.StatusConflict, utils.NewErrorResponse(http.StatusConflict, "Debe crear la tarifa de reemplazo antes de deshabilitar"))
		default:
			c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to disable rate"))
		}
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Tarifa deshabilitada", nil))
}
