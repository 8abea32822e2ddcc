package dashboard

import "github.com/gin-gonic/gin"

func RegisterRoutes(router *gin.RouterGroup, h *Handler, hub *Hub) {
	router.GET("/dashboard", h.Snapshot)
	router.GET("/ws", hub.Subscribe)
}
