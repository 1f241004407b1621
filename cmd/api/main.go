package main

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"

	"agrimarket_backend/internal/controller"
	"agrimarket_backend/internal/middleware"
	"agrimarket_backend/internal/model"
	"agrimarket_backend/pkg/audit"
	"agrimarket_backend/pkg/config"
	"agrimarket_backend/pkg/cron"
	"agrimarket_backend/pkg/database"
	"agrimarket_backend/pkg/email"
	"agrimarket_backend/pkg/geoip"
)

func setupRoutes(app *fiber.App) {
	api := app.Group("/api")

	// Auth Routes
	auth := api.Group("/auth")
	auth.Post("/register", controller.Register)
	auth.Post("/login", controller.Login)
	auth.Post("/request-reset", controller.RequestPasswordReset)
	auth.Post("/reset-password", controller.ResetPassword)

	// Public storefront routes
	storefront := api.Group("/p")
	storefront.Get("/:username", controller.ListUserProducts)
	storefront.Get("/:username/:product_slug", controller.GetProductBySlug)

	// Protected Routes
	protected := api.Group("/", middleware.AuthMiddleware())
	protected.Get("/me", controller.GetMe)

	// Protected Product Routes
	products := protected.Group("/products")
	products.Get("/my", controller.ListMyProducts)
	products.Post("/", controller.CreateProduct)
	products.Put("/:id", middleware.CheckProductOwnership(), controller.UpdateProduct)
	products.Delete("/:id", middleware.CheckProductOwnership(), controller.DeleteProduct)

	// Settings routes
	settings := api.Group("/settings", middleware.AuthMiddleware())
	settings.Get("/profile", controller.GetProfile)
	settings.Put("/profile", controller.UpdateProfile)

	// Security routes
	security := api.Group("/security", middleware.AuthMiddleware())
	security.Get("/login-history", controller.GetLoginHistory)
	security.Get("/activity", controller.GetSecurityActivity)

	// Admin security routes
	adminSecurity := api.Group("/admin/security", middleware.AuthMiddleware(), middleware.AdminOnly())
	adminSecurity.Get("/stats", controller.GetLoginStats)
	adminSecurity.Post("/cleanup", controller.CleanupLoginAttempts)
}

func main() {
	cfg := config.Load()

	if cfg.Email.ResendAPIKey != "" {
		if err := email.InitEmailService(cfg.Email.ResendAPIKey); err != nil {
			log.Fatal("Could not initialize email service:", err)
		}
	} else {
		log.Println("RESEND_API_KEY not set, email notifications disabled")
	}

	if cfg.Database.URL == "" {
		log.Fatal("DATABASE_URL is not set in .env")
	}

	database.InitDB(cfg.Database.URL)
	err := database.MigrateDatabase(
		&model.User{},
		&model.LoginAttempt{},
		&model.Product{},
	)
	if err != nil {
		log.Printf("Migration warning: %v", err)
	}

	geoClient := geoip.NewClient(cfg.GeoIP.BaseURL, time.Duration(cfg.GeoIP.TimeoutSeconds)*time.Second)
	auditService := audit.NewService(database.GetDB(), geoClient, audit.DefaultRuleConfig())

	controller.InitAuthController(auditService)
	controller.InitSecurityController(auditService)
	cron.InitLoginRetentionCron(auditService, cfg.Audit.RetentionDays)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New())

	setupRoutes(app)

	log.Printf("Server is running on port %s", cfg.Server.Port)
	log.Fatal(app.Listen(":" + cfg.Server.Port))
}
