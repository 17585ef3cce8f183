package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	controller "telereach/controllers"
	"telereach/middleware"
	"telereach/utils"
)

// Deps carries the shared clients the route handlers need.
type Deps struct {
	DB          *gorm.DB
	API         *utils.PythonAPIClient
	Store       *utils.SessionStore
	Categorizer *utils.Categorizer
	Logger      *logrus.Logger
}

func SetupAuthRoutes(app *fiber.App, deps Deps) {
	// Auth routes group with logging middleware
	auth := app.Group("/auth", logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	// Public auth endpoints (no authentication required)
	auth.Post("/signup", controller.Signup)
	auth.Post("/login", controller.Login)
	auth.Post("/refresh", controller.RefreshToken)

	// Protected auth endpoints (require valid JWT)
	protectedAuth := auth.Group("", middleware.Protected())
	protectedAuth.Get("/me", controller.GetCurrentAccount)
}

func SetupAPIRoutes(app *fiber.App, deps Deps) {
	sessionController := controller.NewSessionController(deps.DB, deps.API, deps.Store, deps.Logger)
	categoryController := controller.NewCategoryController(deps.DB, deps.Logger)
	campaignController := controller.NewCampaignController(deps.DB, deps.API, deps.Store, deps.Categorizer, deps.Logger)
	analyticsController := controller.NewAnalyticsController(deps.DB, deps.Logger)

	// API group with versioning and protection
	api := app.Group("/api/v1", middleware.Protected(), logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	// Telegram session routes; connect is rate limited per account
	session := api.Group("/session")
	session.Post("/connect", middleware.ConnectRateLimiter(), sessionController.Connect)
	session.Post("/verify", sessionController.Verify)
	session.Get("/status", sessionController.Status)

	// Category routes
	category := api.Group("/categories")
	category.Get("/", categoryController.GetCategories)
	category.Post("/", categoryController.CreateCategory)
	category.Put("/:id", categoryController.UpdateCategory)
	category.Delete("/:id", categoryController.DeleteCategory)

	// Campaign routes
	campaign := api.Group("/campaigns")
	campaign.Post("/", campaignController.CreateCampaign)
	campaign.Get("/", campaignController.GetCampaigns)
	campaign.Post("/:id/start", campaignController.StartCampaign)
	campaign.Post("/:id/stop", campaignController.StopCampaign)
	campaign.Post("/:id/resume", campaignController.ResumeCampaign)
	campaign.Get("/:id/status", campaignController.GetCampaignStatus)
	campaign.Get("/:id/logs", campaignController.GetCampaignLogs)
	campaign.Get("/:id/data", campaignController.GetCampaignData)
	campaign.Post("/:id/update", campaignController.UpdateCampaignData)
	campaign.Get("/:id/analytics", campaignController.GetCampaignAnalytics)
	campaign.Post("/sent-logs", campaignController.IngestSentLogs)

	// Analytics routes
	analytics := api.Group("/analytics")
	analytics.Get("/summary", analyticsController.GetSummary)

	// WebSocket route for campaign progress
	app.Get("/api/v1/campaigns/progress", middleware.Protected(), websocket.New(func(c *websocket.Conn) {
		campaignController.HandleCampaignProgressWS(c)
	}))

	// Public click tracking redirect; recipients hit this without auth
	app.Get("/track/click/:code", campaignController.HandleClickTracking)

	deps.Logger.Info("API routes initialized")
}

func SetupRoutes(app *fiber.App, deps Deps) {
	// Setup health check endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Setup auth routes
	SetupAuthRoutes(app, deps)

	// Setup API routes
	SetupAPIRoutes(app, deps)

	// Setup 404 handler
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   "Not Found",
			"message": "The requested resource was not found",
		})
	})
}
