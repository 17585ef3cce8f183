package main

import (
	"context"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"telereach/config"
	"telereach/middleware"
	"telereach/routes"
	"telereach/utils"
	"telereach/worker"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	// Load configuration
	if err := config.LoadConfig(); err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}
	if config.AppConfig.Environment == "development" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		logger.SetLevel(logrus.DebugLevel)
	}

	if dsn := config.AppConfig.SentryDSN; dsn != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         dsn,
			Environment: config.AppConfig.Environment,
		}); err != nil {
			logger.Warnf("sentry init failed: %v", err)
		}
		defer sentry.Flush(2 * time.Second)
	}

	// Initialize database connection
	if err := config.ConnectDB(); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	if err := config.ConnectRedis(); err != nil {
		logger.Fatalf("Failed to connect to Redis: %v", err)
	}

	// Session blobs live encrypted in Redis when available, in memory otherwise
	var kv utils.KVStore
	if config.Redis != nil {
		kv = &utils.RedisKV{Client: config.Redis}
	} else {
		kv = utils.NewMemoryKV()
	}
	store := utils.NewSessionStore(kv)

	api := utils.NewPythonAPIClient(logger)
	categorizer := utils.NewCategorizer(config.DB, api, logger, config.AppConfig.CategorizerUseRegex)

	// Create Fiber app
	app := fiber.New()

	// Add CORS middleware
	app.Use(middleware.CORS())

	// Initialize and start the lifecycle reconciliation worker
	reconciler := worker.NewReconcileWorker(
		config.DB,
		api,
		time.Duration(config.AppConfig.ReconcileInterval)*time.Second,
		logger,
	)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go reconciler.Start(ctx)

	// Setup routes
	routes.SetupRoutes(app, routes.Deps{
		DB:          config.DB,
		API:         api,
		Store:       store,
		Categorizer: categorizer,
		Logger:      logger,
	})

	// Start server
	logger.Infof("Server starting on port %s", config.AppConfig.ServerPort)
	if err := app.Listen(":" + config.AppConfig.ServerPort); err != nil {
		logger.Fatalf("Failed to start server: %v", err)
	}
}
