package user

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
	users *services.UserService
	audit *services.AuditService
}

func NewHandler(users *services.UserService, audit *services.AuditService) *Handler {
	return &Handler{users: users, audit: audit}
}

type StatusInput struct {
	Active *bool `json:"status" binding:"required"`
}

// List godoc
// @Summary Paginated user listing
// @Tags admin
// @Security ApiKeyAuth
// @Param page query int false "Page" default(1)
// @Param limit query int false "Page size" default(20)
// @Success 200 {object} utils.Response
// @Router /admin/users [get]
func (h *Handler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	users, total, err := h.users.List(page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to list users"))
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Usuarios", gin.H{
		"users": users,
		"total": total,
		"page":  page,
		"limit": limit,
	}))
}

// SetStatus godoc
// @Summary Enable or disable an account
// @Description Enabling a locked account clears its failed-login counter
// @Tags admin
// @Security ApiKeyAuth
// @Param id path int true "User ID"
// @Param input body StatusInput true "Status Input"
// @Success 200 {object} utils.Response
// @Router /admin/users/{id}/status [patch]
func (h *Handler) SetStatus(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid user id"))
		return
	}

	var input StatusInput
	if !utils.BindAndValidate(c, &input) {
		return
	}

	actor, _ := middleware.CurrentUser(c)

	updated, err := h.users.SetStatus(c.Request.Context(), uint(userID), *input.Active, actor.ID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, utils.NewErrorResponse(http.StatusNotFound, "Usuario no encontrado"))
			return
		}
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to update user"))
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Usuario actualizado", updated))
}

// Audit godoc
// @Summary Recent administrative actions
// @Tags admin
// @Security ApiKeyAuth
// @Param limit query int false "Row limit" default(100)
// @Success 200 {object} utils.Response
// @Router /admin/audit [get]
func (h *Handler) Audit(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	entries, err := h.audit.List(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to list audit entries"))
		return
	}
	c.JSON(http.StatusOK, utils.NewSuccessResponse("Auditoría", entries))
}
