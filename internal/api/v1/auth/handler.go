package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/proyectos-itsqmet/sistema-tickets/internal/middleware"
	"github.com/proyectos-itsqmet/sistema-tickets/internal/models"
	"github.com/proyectos-itsqmet/sistema-tickets/internal/services"
	"github.com/proyectos-itsqmet/sistema-tickets/internal/utils"
)

type Handler struct {
	auth *services.AuthService
}

func NewHandler(auth *services.AuthService) *Handler {
	return &Handler{auth: auth}
}

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login godoc
// @Summary Log in a user
// @Description Validate credentials; three consecutive failures lock the account
// @Tags auth
// @Accept json
// @Produce json
// @Param input body LoginInput true "Login Input"
// @Success 200 {object} utils.Response
// @Failure 401 {object} utils.Response
// @Router /auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var input LoginInput
	if !utils.BindAndValidate(c, &input) {
		return
	}

	result, err := h.auth.Login(c.Request.Context(), input.Email, input.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to process login"))
		return
	}
	if !result.Success {
		c.JSON(http.StatusUnauthorized, utils.NewErrorResponse(http.StatusUnauthorized, result.Message))
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse(result.Message, gin.H{
		"user":  result.User,
		"token": result.Token,
	}))
}

type RegisterInput struct {
	FirstName string `json:"firstName" binding:"required"`
	LastName  string `json:"lastName" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
	Role      string `json:"role" binding:"required,oneof=admin operador"`
}

// Register godoc
// @Summary Register a new user
// @Tags auth
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param input body RegisterInput true "Register Input"
// @Success 201 {object} utils.Response
// @Failure 409 {object} utils.Response
// @Router /auth/register [post]
func (h *Handler) Register(c *gin.Context) {
	var input RegisterInput
	if !utils.BindAndValidate(c, &input) {
		return
	}

	actor, _ := middleware.CurrentUser(c)

	user, err := h.auth.Register(input.FirstName, input.LastName, input.Email, input.Password, models.Role(input.Role), actor.ID)
	if err != nil {
		if errors.Is(err, services.ErrEmailTaken) {
			c.JSON(http.StatusConflict, utils.NewErrorResponse(http.StatusConflict, "El email ya está registrado"))
			return
		}
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to register user"))
		return
	}

	c.JSON(http.StatusCreated, utils.NewSuccessResponse("Usuario creado", user))
}

type ChangePasswordInput struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=8"`
}

// ChangePassword godoc
// @Summary Change the authenticated user's password
// @Tags auth
// @Security ApiKeyAuth
// @Param input body ChangePasswordInput true "Password Input"
// @Success 200 {object} utils.Response
// @Failure 400 {object} utils.Response
// @Router /auth/password [post]
func (h *Handler) ChangePassword(c *gin.Context) {
	var input ChangePasswordInput
	if !utils.BindAndValidate(c, &input) {
		return
	}

	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, utils.NewErrorResponse(http.StatusUnauthorized, "Authentication required"))
		return
	}

	err := h.auth.ChangePassword(c.Request.Context(), user.ID, input.CurrentPassword, input.NewPassword)
	if err != nil {
		if errors.Is(err, services.ErrWrongPassword) {
			c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "La contraseña actual es incorrecta"))
			return
		}
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to change password"))
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Contraseña actualizada", nil))
}

// Logout godoc
// @Summary Log out a user
// @Description Invalidate the user's current token
// @Tags auth
// @Security ApiKeyAuth
// @Success 200 {object} utils.Response
// @Router /auth/logout [post]
func (h *Handler) Logout(c *gin.Context) {
	tokenString, err := utils.ExtractToken(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utils.NewErrorResponse(http.StatusUnauthorized, err.Error()))
		return
	}

	if err := h.auth.Logout(c.Request.Context(), tokenString); err != nil {
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to revoke token"))
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Sesión cerrada", nil))
}
