package dashboard

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/proyectos-itsqmet/sistema-tickets/internal/services"
	"github.com/proyectos-itsqmet/sistema-tickets/internal/utils"
)

type Handler struct {
	dashboard *services.DashboardService
}

func NewHandler(dashboard *services.DashboardService) *Handler {
	return &Handler{dashboard: dashboard}
}

// Snapshot godoc
// @Summary Operational overview
// @Description Served from a cached snapshot no older than the configured staleness bound
// @Tags dashboard
// @Security ApiKeyAuth
// @Success 200 {object} utils.Response
// @Router /dashboard [get]
func (h *Handler) Snapshot(c *gin.Context) {
	snap, err := h.dashboard.Snapshot(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to build dashboard"))
		return
	}
	c.JSON(http.StatusOK, utils.NewSuccessResponse("Dashboard", snap))
}
