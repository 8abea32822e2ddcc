package api

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"github.com/proyectos-itsqmet/sistema-tickets/config"
	_ "github.com/proyectos-itsqmet/sistema-tickets/docs"
	adminUser "github.com/proyectos-itsqmet/sistema-tickets/internal/api/v1/admin/user"
	"github.com/proyectos-itsqmet/sistema-tickets/internal/api/v1/auth"
	"github.com/proyectos-itsqmet/sistema-tickets/internal/api/v1/dashboard"
	"github.com/proyectos-itsqmet/sistema-tickets/internal/api/v1/rates"
	"github.com/proyectos-itsqmet/sistema-tickets/internal/api/v1/reports"
	"github.com/proyectos-itsqmet/sistema-tickets/internal/api/v1/tickets"
	"github.com/proyectos-itsqmet/sistema-tickets/internal/middleware"
	"github.com/proyectos-itsqmet/sistema-tickets/internal/models"
	"github.com/proyectos-itsqmet/sistema-tickets/internal/services"
	"github.com/proyectos-itsqmet/sistema-tickets/internal/utils"
)

// Server bundles the engine with the long-running pieces main has to drive.
type Server struct {
	Engine    *gin.Engine
	Dashboard *services.DashboardService
	Hub       *dashboard.Hub
}

// NewServer wires services, middlewares and routes. Every dependency is
// constructed here and injected; no package holds ambient state.
func NewServer(cfg *config.Config, db *gorm.DB, cache *redis.Client) (*Server, error) {
	if err := utils.RegisterCustomValidations(); err != nil {
		return nil, err
	}

	tokens := utils.NewTokenManager(cfg.JWTSecret, cfg.JWTExpiration)

	auditSvc := services.NewAuditService(db)
	userSvc := services.NewUserService(db, cache, auditSvc)
	denylist := services.NewTokenDenylist(cache)
	authSvc := services.NewAuthService(db, userSvc, tokens, denylist, auditSvc)
	rateSvc := services.NewRateService(db, auditSvc)
	ticketSvc := services.NewTicketService(db, rateSvc)
	reportSvc := services.NewReportService(db)
	dashboardSvc := services.NewDashboardService(db, cache, cfg.DashboardTTL)

	hub := dashboard.NewHub()

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:5173", "http://localhost:8080"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Swagger
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	authMW := middleware.Auth(tokens, denylist, userSvc)
	adminMW := middleware.AdminAuth(tokens, denylist, userSvc)

	// API v1
	v1 := router.Group("/api/v1")
	{
		auth.RegisterRoutes(v1, auth.NewHandler(authSvc), authMW, adminMW)

		authorized := v1.Group("/")
		authorized.Use(authMW)
		{
			tickets.RegisterRoutes(authorized, tickets.NewHandler(ticketSvc))
			rates.RegisterRoutes(authorized, rates.NewHandler(rateSvc), adminMW)
			reports.RegisterRoutes(authorized, reports.NewHandler(reportSvc))
			dashboard.RegisterRoutes(authorized, dashboard.NewHandler(dashboardSvc), hub)

			authorized.GET("/roles", listRoles)
		}

		// Admin routes
		admin := v1.Group("/admin")
		admin.Use(adminMW)
		{
			adminUser.RegisterRoutes(admin, adminUser.NewHandler(userSvc, auditSvc))
		}
	}

	return &Server{Engine: router, Dashboard: dashboardSvc, Hub: hub}, nil
}

// listRoles returns the closed role set.
func listRoles(c *gin.Context) {
	c.JSON(http.StatusOK, utils.NewSuccessResponse("Roles", models.Roles()))
}
