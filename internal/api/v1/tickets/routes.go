package tickets

import "github.com/gin-gonic/gin"

func RegisterRoutes(router *gin.RouterGroup, h *Handler) {
	group := router.Group("/tickets")
	group.GET("", h.List)
	group.GET("/active", h.Active)
	group.GET("/today", h.Today)
	group.GET("/available-spaces", h.AvailableSpaces)
	group.GET("/:id", h.Show)
	group.POST("", h.CheckIn)
	group.PATCH("/:id/close", h.CheckOut)
}
