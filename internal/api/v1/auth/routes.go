package auth

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the auth endpoints. Registration is an
// administrative action; password change requires a session.
func RegisterRoutes(router *gin.RouterGroup, h *Handler, authMW, adminMW gin.HandlerFunc) {
	group := router.Group("/auth")
	group.POST("/login", h.Login)
	group.POST("/logout", authMW, h.Logout)
	group.POST("/password", authMW, h.ChangePassword)
	group.POST("/register", adminMW, h.Register)
}
