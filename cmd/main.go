package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/appsparrow/streakzilla/internal/config"
	"github.com/appsparrow/streakzilla/internal/handler"
	"github.com/appsparrow/streakzilla/internal/models"
	"github.com/appsparrow/streakzilla/internal/repository"
	"github.com/appsparrow/streakzilla/internal/scheduler"
	"github.com/appsparrow/streakzilla/internal/service"
	"github.com/appsparrow/streakzilla/internal/storage"
	"github.com/appsparrow/streakzilla/internal/streak"
	"github.com/appsparrow/streakzilla/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	// .env is optional; real deployments inject the environment directly.
	_ = godotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output); err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}

	db, err := initDatabase(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database:", err)
	}
	defer closeDatabase(db)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := repository.NewGormStore(db)
	engine, err := service.NewEngine(cfg.Engine, streak.RealClock{})
	if err != nil {
		logger.Fatal("Failed to build engine:", err)
	}

	if _, err := service.NewTemplateService(store).Seed(ctx, cfg.Templates); err != nil {
		logger.Fatal("Failed to seed templates:", err)
	}

	challengeSvc := service.NewChallengeService(store, engine)
	checkinSvc := service.NewCheckinService(store, engine)
	heartsSvc := service.NewHeartsService(store, engine)
	selectionSvc := service.NewSelectionService(store, engine)
	recoverySvc := service.NewRecoveryService(store, engine)

	var photos storage.PhotoStore
	if cfg.Storage.Enabled {
		r2, err := storage.NewR2Store(ctx, cfg.Storage)
		if err != nil {
			logger.Fatal("Failed to init photo storage:", err)
		}
		photos = r2
	}

	if cfg.Scheduler.Enabled {
		maintenance := scheduler.NewMaintenanceScheduler(challengeSvc, recoverySvc, cfg.Scheduler, cfg.Backup)
		if err := maintenance.Start(); err != nil {
			logger.Fatal("Failed to start scheduler:", err)
		}
		defer maintenance.Stop()
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimitMB * 1024 * 1024,
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowMethods: "GET,POST,PUT,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, X-User-ID",
	}))
	app.Use(handler.RequestLogger())

	handler.New(challengeSvc, checkinSvc, heartsSvc, selectionSvc, recoverySvc, photos).Register(app)

	go func() {
		logger.Info("Server starting on port", cfg.Server.Port)
		if err := app.Listen(fmt.Sprintf(":%d", cfg.Server.Port)); err != nil {
			logger.Error("Server failed:", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server...")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("Server shutdown error:", err)
	}

	logger.Info("Server stopped")
}

func initDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.DSN())
	default:
		dialector = mysql.Open(cfg.DSN())
	}

	db, err := gorm.Open(dialector, &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)

	if cfg.AutoMigrate {
		if err := db.AutoMigrate(models.AllModels()...); err != nil {
			return nil, fmt.Errorf("auto migrate: %w", err)
		}
	}

	return db, nil
}

func closeDatabase(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		logger.Error("Failed to get database instance:", err)
		return
	}
	sqlDB.Close()
}
