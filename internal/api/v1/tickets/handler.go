package tickets

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
	tickets *services.TicketService
}

func NewHandler(tickets *services.TicketService) *Handler {
	return &Handler{tickets: tickets}
}

// List godoc
// @Summary List all tickets
// @Tags tickets
// @Security ApiKeyAuth
// @Success 200 {object} utils.Response
// @Router /tickets [get]
func (h *Handler) List(c *gin.Context) {
	tickets, err := h.tickets.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to list tickets"))
		return
	}
	c.JSON(http.StatusOK, utils.NewSuccessResponse("Tickets", tickets))
}

// Active godoc
// @Summary List tickets of vehicles still parked
// @Tags tickets
// @Security ApiKeyAuth
// @Success 200 {object} utils.Response
// @Router /tickets/active [get]
func (h *Handler) Active(c *gin.Context) {
	tickets, err := h.tickets.Active()
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to list active tickets"))
		return
	}
	c.JSON(http.StatusOK, utils.NewSuccessResponse("Tickets activos", tickets))
}

// Today godoc
// @Summary List tickets that entered or exited today
// @Tags tickets
// @Security ApiKeyAuth
// @Success 200 {object} utils.Response
// @Router /tickets/today [get]
func (h *Handler) Today(c *gin.Context) {
	tickets, err := h.tickets.Today()
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to list today's tickets"))
		return
	}
	c.JSON(http.StatusOK, utils.NewSuccessResponse("Tickets de hoy", tickets))
}

// AvailableSpaces godoc
// @Summary Current free-space count
// @Tags tickets
// @Security ApiKeyAuth
// @Success 200 {object} utils.Response
// @Router /tickets/available-spaces [get]
func (h *Handler) AvailableSpaces(c *gin.Context) {
	available, err := h.tickets.AvailableSpaces()
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to read lot capacity"))
		return
	}
	c.JSON(http.StatusOK, utils.NewSuccessResponse("Espacios disponibles", gin.H{"espacios_disponibles": available}))
}

// Show godoc
// @Summary Load one ticket by id
// @Tags tickets
// @Security ApiKeyAuth
// @Param id path int true "Ticket ID"
// @Success 200 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Router /tickets/{id} [get]
func (h *Handler) Show(c *gin.Context) {
	ticketID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid ticket id"))
		return
	}

	ticket, err := h.tickets.Find(uint(ticketID))
	if err != nil {
		if errors.Is(err, services.ErrTicketNotFound) {
			c.JSON(http.StatusNotFound, utils.NewErrorResponse(http.StatusNotFound, "Ticket no encontrado"))
			return
		}
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to load ticket"))
		return
	}
	c.JSON(http.StatusOK, utils.NewSuccessResponse("Ticket", ticket))
}

// CheckIn godoc
// @Summary Register a vehicle entry
// @Tags tickets
// @Security ApiKeyAuth
// @Param input body CheckInInput true "Check-in Input"
// @Success 201 {object} utils.Response
// @Failure 409 {object} utils.Response
// @Router /tickets [post]
func (h *Handler) CheckIn(c *gin.Context) {
	var input CheckInInput
	if !utils.BindAndValidate(c, &input) {
		return
	}

	operator, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, utils.NewErrorResponse(http.StatusUnauthorized, "Authentication required"))
		return
	}

	ticket, available, err := h.tickets.CheckIn(input.Plate, operator.ID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidPlate):
			c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Placa inválida: formato XXX-9999"))
		case errors.Is(err, services.ErrAlreadyParked):
			c.JSON(http.StatusConflict, utils.NewErrorResponse(http.StatusConflict, "El vehículo ya se encuentra en el parqueadero"))
		case errors.Is(err, services.ErrLotFull):
			c.JSON(http.StatusConflict, utils.NewErrorResponse(http.StatusConflict, "No hay espacios disponibles"))
		case errors.Is(err, services.ErrNoActiveRate):
			c.JSON(http.StatusConflict, utils.NewErrorResponse(http.StatusConflict, "No existe una tarifa activa"))
		default:
			c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to create ticket"))
		}
		return
	}

	c.JSON(http.StatusCreated, utils.NewSuccessResponse("Ticket creado", gin.H{
		"ticket":               ticket,
		"espacios_disponibles": available,
	}))
}

// CheckOut godoc
// @Summary Close a ticket and issue its invoice
// @Tags tickets
// @Security ApiKeyAuth
// @Param id path int true "Ticket ID"
// @Param input body CheckOutInput true "Check-out Input"
// @Success 200 {object} utils.Response
// @Failure 409 {object} utils.Response
// @Router /tickets/{id}/close [patch]
func (h *Handler) CheckOut(c *gin.Context) {
	ticketID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid ticket id"))
		return
	}

	var input CheckOutInput
	if !utils.BindAndValidate(c, &input) {
		return
	}

	operator, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, utils.NewErrorResponse(http.StatusUnauthorized, "Authentication required"))
		return
	}

	ticket, invoice, err := h.tickets.CheckOut(uint(ticketID), operator.ID, input.PaymentMethod)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrTicketNotFound):
			c.JSON(http.StatusNotFound, utils.NewErrorResponse(http.StatusNotFound, "Ticket no encontrado"))
		case errors.Is(err, services.ErrTicketClosed):
			c.JSON(http.StatusConflict, utils.NewErrorResponse(http.StatusConflict, "El ticket ya fue cerrado"))
		default:
			c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to close ticket"))
		}
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Ticket cerrado", gin.H{
		"ticket":  ticket,
		"factura": invoice,
	}))
}
