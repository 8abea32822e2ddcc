package reports

import "github.com/gin-gonic/gin"

func RegisterRoutes(router *gin.RouterGroup, h *Handler) {
	group := router.Group("/reports")
	group.GET("/income", h.Income)
	group.GET("/occupancy", h.Occupancy)
	group.GET("/frequent-vehicles", h.FrequentVehicles)
	group.GET("/operator-activity", h.OperatorActivity)
}
