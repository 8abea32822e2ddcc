package rates

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the rate endpoints. Reads are open to any session;
// writes are administrative.
func RegisterRoutes(router *gin.RouterGroup, h *Handler, adminMW gin.HandlerFunc) {
	group := router.Group("/tarifas")
	group.GET("", h.List)
	group.GET("/active", h.Active)
	group.POST("", adminMW, h.Create)
	group.PATCH("/:id/disable", adminMW, h.Disable)
}
