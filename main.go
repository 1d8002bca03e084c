package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/LovationAdmin/goals-api/config"
	"github.com/LovationAdmin/goals-api/handlers"
	"github.com/LovationAdmin/goals-api/middleware"
	"github.com/LovationAdmin/goals-api/migration"
	"github.com/LovationAdmin/goals-api/routes"
	"github.com/LovationAdmin/goals-api/services"
	"github.com/LovationAdmin/goals-api/storage"
	"github.com/LovationAdmin/goals-api/utils"
)

const version = "1.0.0"

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Invalid configuration:", err)
	}
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET environment variable is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := config.SetupTracing(ctx, cfg, "goals-api")
	if err != nil {
		log.Printf("⚠️ Tracing disabled: %v", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			log.Printf("⚠️ Tracing shutdown: %v", err)
		}
	}()

	db, err := config.InitDB(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	log.Println("✅ Database connected successfully")

	if err := config.RunMigrations(ctx, db); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	store := storage.New(db)
	wsHandler := handlers.NewWSHandler()

	notifications := services.NewNotificationService(store, wsHandler)
	goals := services.NewGoalService(store, wsHandler)
	wsHandler.Goals = goals

	invitationOpts := []services.InvitationOption{
		services.WithInvitationTTL(cfg.InvitationTTL),
		services.WithBroadcaster(wsHandler),
	}
	if mailer := services.NewEmailService(cfg.ResendAPIKey, cfg.FromEmail, cfg.FrontendURL); mailer.Enabled() {
		invitationOpts = append(invitationOpts, services.WithMailer(mailer))
	} else {
		log.Println("⚠️ RESEND_API_KEY not set, invitation emails disabled")
	}
	invitations := services.NewInvitationService(store, notifications, services.NewMessages(cfg.NotificationLocale), invitationOpts...)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	allowedOrigins := cfg.Origins()
	log.Printf("🌍 CORS: Allowing origins:")
	for _, origin := range allowedOrigins {
		log.Printf("   - %s", origin)
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Cron-Secret"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           24 * time.Hour,
	}))

	router.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		utils.LogAPIRequest(c.Request.Method, c.Request.URL.Path, middleware.GetUserID(c), c.Writer.Status(), time.Since(start).String())
	})

	router.Use(middleware.RateLimiter(ctx, cfg.RateLimitPerMinute, time.Minute))

	v1 := router.Group("/api/v1")
	routes.Register(v1, routes.Deps{
		Profiles:      services.NewProfileService(store),
		Goals:         goals,
		Invitations:   invitations,
		Notifications: notifications,
		WS:            wsHandler,
		RepairStore:   store,
		RepairWindow:  migration.DefaultRepairWindow,
		JWTSecret:     cfg.JWTSecret,
		CronSecret:    cfg.CronSecret,
	})

	router.GET("/health", func(c *gin.Context) {
		status := "healthy"
		code := http.StatusOK
		if err := db.PingContext(c.Request.Context()); err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"status":  status,
			"version": version,
			"time":    time.Now().Format(time.RFC3339),
		})
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		wsHandler.M.Close()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("⚠️ Server shutdown: %v", err)
		}
	}()

	utils.LogStartup("goals-api", version, cfg.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("Failed to start server:", err)
	}
}
