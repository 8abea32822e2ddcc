package user

import "github.com/gin-gonic/gin"

func RegisterRoutes(router *gin.RouterGroup, h *Handler) {
	router.GET("/users", h.List)
	router.PATCH("/users/:id/status", h.SetStatus)
	router.GET("/audit", h.Audit)
}
