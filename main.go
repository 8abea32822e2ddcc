package main

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/proyectos-itsqmet/sistema-tickets/config"
	"github.com/proyectos-itsqmet/sistema-tickets/internal/api"
	"github.com/proyectos-itsqmet/sistema-tickets/internal/database"
	"github.com/proyectos-itsqmet/sistema-tickets/internal/models"
	"github.com/proyectos-itsqmet/sistema-tickets/pkg/logger"
)

// @title Sistema de Tickets de Parqueadero API
// @version 1.0
// @description API para la gestión de tickets, tarifas, usuarios y reportes de un parqueadero.
// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	if err := logger.InitLogger(&logger.Config{
		Level:      cfg.LogLevel,
		Filename:   cfg.LogFilename,
		MaxSize:    cfg.LogMaxSize,
		MaxBackups: cfg.LogMaxBackups,
		MaxAge:     cfg.LogMaxAge,
		Compress:   cfg.LogCompress,
	}); err != nil {
		panic("failed to init logger: " + err.Error())
	}
	defer logger.Sync()

	db, err := database.Connect(cfg.DSN())
	if err != nil {
		logger.Log.Fatal("failed to connect database", zap.Error(err))
	}

	if err := database.Migrate(db); err != nil {
		logger.Log.Fatal("failed to run migrations", zap.Error(err))
	}

	if _, err := database.SeedLot(db, cfg.LotName, cfg.LotCapacity); err != nil {
		logger.Log.Fatal("failed to seed parking lot", zap.Error(err))
	}

	if err := initAdminUser(db); err != nil {
		logger.Log.Fatal("failed to init admin user", zap.Error(err))
	}

	cache, err := database.ConnectRedis(cfg)
	if err != nil {
		logger.Log.Fatal("failed to connect redis", zap.Error(err))
	}

	server, err := api.NewServer(cfg, db, cache)
	if err != nil {
		logger.Log.Fatal("failed to build server", zap.Error(err))
	}

	go server.Hub.Run()
	go server.Dashboard.Run(context.Background(), server.Hub)

	logger.Log.Info("server starting", zap.String("port", cfg.ServerPort))
	if err := server.Engine.Run(":" + cfg.ServerPort); err != nil {
		logger.Log.Fatal("server stopped", zap.Error(err))
	}
}

// initAdminUser creates a default administrator when the users table is
// empty, so a fresh deployment can be logged into.
func initAdminUser(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	now := models.NewLocalTime(time.Now())
	admin := models.User{
		FirstName: "Administrador",
		LastName:  "Sistema",
		Email:     "admin@sistema-tickets.local",
		Password:  string(hashed),
		Role:      models.RoleAdmin,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: &now,
	}
	if err := db.Create(&admin).Error; err != nil {
		return err
	}

	logger.Log.Warn("created default admin user, change its password",
		zap.String("email", admin.Email))
	return nil
}
