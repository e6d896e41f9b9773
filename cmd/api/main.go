// main.go
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

	"github.com/rfpdesk/rfp-backend/internal/api/handlers"
	"github.com/rfpdesk/rfp-backend/internal/api/middleware"
	"github.com/rfpdesk/rfp-backend/internal/config"
	"github.com/rfpdesk/rfp-backend/internal/cron"
	"github.com/rfpdesk/rfp-backend/internal/db"
	"github.com/rfpdesk/rfp-backend/internal/email"
	"github.com/rfpdesk/rfp-backend/internal/notification"
	"github.com/rfpdesk/rfp-backend/internal/repository"
	"github.com/rfpdesk/rfp-backend/internal/seed"
	"github.com/rfpdesk/rfp-backend/internal/service"
	"github.com/rfpdesk/rfp-backend/internal/socket"
	"github.com/rfpdesk/rfp-backend/internal/storage"
)

func main() {
	// ============================================
	// Load environment variables
	// ============================================
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// ============================================
	// Load configuration
	// ============================================
	cfg := config.Load()

	// ============================================
	// Set Gin mode
	// ============================================
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// ============================================
	// Run Database Migrations FIRST
	// ============================================
	log.Println("🔄 Running database migrations...")
	migrationsPath := "./internal/db/migrations"
	if err := db.RunMigrations(cfg.DatabaseURL, migrationsPath); err != nil {
		log.Fatalf("❌ Migration failed: %v", err)
	}
	log.Println("✅ Database migrations completed")

	// ============================================
	// Initialize PostgreSQL
	// ============================================
	ctx := context.Background()

	pg, err := db.NewPostgresDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("❌ Failed to connect to PostgreSQL: %v", err)
	}
	defer pg.Close()

	// ============================================
	// Initialize Repositories
	// ============================================
	repos := repository.NewPgRepositories(pg.Pool)
	log.Println("📦 Repositories initialized")

	// ============================================
	// Initialize Redis (optional)
	// ============================================
	var redisDB *db.RedisDB
	if cfg.RedisURL != "" {
		redisDB, err = db.NewRedisDB(cfg.RedisURL)
		if err != nil {
			log.Printf("⚠️ Failed to connect to Redis: %v (continuing without cache)", err)
			redisDB = nil
		} else {
			defer redisDB.Close()
			log.Println("⚡ Redis cache enabled")
		}
	}

	// ============================================
	// Initialize Email Service (optional)
	// ============================================
	var emailSvc *email.Service
	if cfg.SMTPHost != "" {
		emailSvc = email.NewService(&email.Config{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			User:     cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
			FromName: cfg.SMTPFromName,
		})
		log.Println("📧 Email service initialized")
	} else {
		log.Println("⚠️  Email not configured (SMTP_HOST not set)")
	}

	// ============================================
	// Initialize Object Storage (optional)
	// ============================================
	var storageClient *storage.Client
	if cfg.S3Bucket != "" {
		storageClient, err = storage.NewClient(ctx, storage.Config{
			Bucket:         cfg.S3Bucket,
			Region:         cfg.S3Region,
			Endpoint:       cfg.S3Endpoint,
			ForcePathStyle: cfg.S3ForcePathStyle,
			PresignExpiry:  time.Duration(cfg.S3PresignExpiry) * time.Minute,
		})
		if err != nil {
			log.Fatalf("❌ Failed to initialize object storage: %v", err)
		}
		log.Println("🗄️  Object storage initialized")
	} else {
		log.Println("⚠️  Object storage not configured (S3_BUCKET not set)")
	}

	// ============================================
	// Initialize WebSocket Hub
	// ============================================
	hub := socket.NewHub()
	go hub.Run()
	broadcaster := socket.NewBroadcaster(hub)

	wsHandler := socket.NewHandler(hub, cfg.JWTSecret)
	log.Println("🔌 WebSocket hub initialized")

	// ============================================
	// Seed Data (for development)
	// ============================================
	if cfg.Environment != "production" {
		log.Println("🌱 Seeding development data...")
		seed.SeedData(repos)
	}

	// ============================================
	// Initialize Notification Service
	// ============================================
	notificationSvc := notification.NewService(repos.NotificationRepo, repos.UserRepo)
	notificationSvc.SetBroadcaster(broadcaster)

	// ============================================
	// Initialize All Services
	// ============================================
	services := service.NewServices(&service.ServiceDeps{
		Config:      cfg,
		Repos:       repos,
		NotifSvc:    notificationSvc,
		EmailSvc:    emailSvc,
		Broadcaster: broadcaster,
		Storage:     storageClient,
		Redis:       redisDB,
	})
	log.Println("✨ All services initialized")

	// ============================================
	// Initialize Handlers
	// ============================================
	h := handlers.NewHandlers(services)

	// ============================================
	// Initialize Cron Scheduler
	// ============================================
	cronScheduler := cron.NewScheduler(
		services,
		notificationSvc,
		emailSvc,
		repos.RfpRepo,
		repos.RegistrationRepo,
		repos.InvitationRepo,
		repos.UserRepo,
		cfg.FrontendURL,
	)
	cronScheduler.Start()
	defer cronScheduler.Stop()

	// ============================================
	// Create Gin Router
	// ============================================
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.FrontendURL, "http://localhost:3000", "http://localhost:5173"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":     "healthy",
			"timestamp":  time.Now(),
			"database":   "connected",
			"websocket":  "active",
			"ws_clients": hub.GetConnectedClientsCount(),
		})
	})

	// API routes
	api := r.Group("/api")
	{
		// ============================================
		// Public routes (no auth required)
		// ============================================
		auth := api.Group("/auth")
		{
			auth.POST("/register", h.Auth.Register)
			auth.POST("/login", h.Auth.Login)
			auth.POST("/refresh", h.Auth.RefreshToken)
			auth.POST("/logout", h.Auth.Logout)
		}

		// WebSocket route
		api.GET("/ws", wsHandler.HandleWebSocket)

		// ============================================
		// Optionally authenticated routes: anonymous browsing is allowed,
		// the access evaluator decides what each requester sees
		// ============================================
		public := api.Group("")
		public.Use(middleware.OptionalAuthMiddleware(services.Auth))
		{
			public.GET("/rfps", h.Rfp.List)
			public.GET("/rfps/:id", h.Rfp.Get)
			public.GET("/rfps/:id/documents", h.Document.List)
			public.GET("/rfps/:id/questions", h.Question.ListByRfp)
			public.GET("/documents/:id/download", h.Document.Download)
			public.GET("/companies", h.Company.List)
			public.GET("/companies/:id", h.Company.Get)
		}

		// ============================================
		// Protected routes (require auth middleware)
		// ============================================
		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware(services.Auth))
		{
			// User routes
			users := protected.Group("/users")
			{
				users.GET("/me", h.Auth.Me)
			}

			// Company routes
			companies := protected.Group("/companies")
			{
				companies.POST("", h.Company.Create)
				companies.PUT("/:id", h.Company.Update)
				companies.PATCH("/:id/verification", h.Company.SetVerification)
				companies.PUT("/:id/domain-settings", h.Company.SetDomainSettings)
				companies.DELETE("/:id", h.Company.Delete)

				companies.GET("/:id/members", h.Membership.CompanyMembers)
				companies.GET("/:id/join-requests", h.Membership.PendingRequests)
				companies.POST("/:id/invitations", h.Invitation.CreateCompanyInvitation)
				companies.GET("/:id/invitations", h.Invitation.ListByCompany)
				companies.GET("/:id/registrations", h.Registration.ListByCompany)
				companies.GET("/:id/proposals", h.Proposal.ListByCompany)
			}

			// Membership routes
			memberships := protected.Group("/memberships")
			{
				memberships.GET("/my", h.Membership.MyMemberships)
				memberships.POST("/requests", h.Membership.RequestJoin)
				memberships.POST("/requests/:id/approve", h.Membership.ApproveJoin)
				memberships.POST("/requests/:id/reject", h.Membership.RejectJoin)
				memberships.POST("/leave", h.Membership.Leave)
				memberships.POST("/assign", h.Membership.AssignCompany)
				memberships.PATCH("/members/:id/role", h.Membership.SetMemberRole)
				memberships.POST("/auto-join/confirm", h.Membership.ConfirmAutoJoin)
			}

			// RFP routes
			rfps := protected.Group("/rfps")
			{
				rfps.POST("", h.Rfp.Create)
				rfps.PUT("/:id", h.Rfp.Update)
				rfps.POST("/:id/publish", h.Rfp.Publish)
				rfps.POST("/:id/close", h.Rfp.Close)
				rfps.DELETE("/:id", h.Rfp.Delete)

				// Documents
				rfps.POST("/:id/documents", h.Document.Upload)

				// NDAs
				rfps.POST("/:id/nda/sign", h.Nda.SignIndividual)
				rfps.POST("/:id/nda/sign-company", h.Nda.SignCompany)
				rfps.GET("/:id/ndas", h.Nda.ListByRfp)

				// Interest registrations
				rfps.POST("/:id/registrations", h.Registration.Register)
				rfps.GET("/:id/registrations", h.Registration.ListByRfp)

				// Invitations
				rfps.POST("/:id/invitations", h.Invitation.CreateRfpInvitation)
				rfps.GET("/:id/invitations", h.Invitation.ListByRfp)

				// Q&A
				rfps.POST("/:id/questions", h.Question.Ask)

				// Proposals
				rfps.POST("/:id/proposals", h.Proposal.Submit)
				rfps.GET("/:id/proposals", h.Proposal.ListByRfp)
			}

			// Document routes
			documents := protected.Group("/documents")
			{
				documents.PATCH("/:id/flags", h.Document.UpdateFlags)
				documents.DELETE("/:id", h.Document.Delete)
			}

			// NDA review routes
			ndas := protected.Group("/ndas")
			{
				ndas.POST("/:kind/:id/countersign", h.Nda.Countersign)
				ndas.POST("/:kind/:id/reject", h.Nda.Reject)
				ndas.GET("/:kind/:id/trail", h.Nda.Trail)
			}

			// Registration decisions
			registrations := protected.Group("/registrations")
			{
				registrations.POST("/:id/approve", h.Registration.Approve)
				registrations.POST("/:id/reject", h.Registration.Reject)
			}

			// Invitation routes
			invitations := protected.Group("/invitations")
			{
				invitations.POST("/accept/:token", h.Invitation.Accept)
				invitations.POST("/:id/cancel", h.Invitation.Cancel)
			}

			// Question routes
			questions := protected.Group("/questions")
			{
				questions.POST("/:id/answer", h.Question.Answer)
			}

			// Proposal routes
			proposals := protected.Group("/proposals")
			{
				proposals.POST("/:id/withdraw", h.Proposal.Withdraw)
			}

			// Notification routes
			notifications := protected.Group("/notifications")
			{
				notifications.GET("", h.Notification.List)
				notifications.GET("/counts", h.Notification.Counts)
				notifications.POST("/:id/read", h.Notification.MarkAsRead)
				notifications.POST("/read-all", h.Notification.MarkAllAsRead)
				notifications.DELETE("/:id", h.Notification.Delete)
				notifications.DELETE("", h.Notification.DeleteAll)
			}

			audit := protected.Group("/audit")
			{
				audit.GET("", h.Audit.Recent)
				audit.GET("/:entityType/:entityId", h.Audit.ByEntity)
			}
		}
	}

	// ============================================
	// Start Server with Graceful Shutdown
	// ============================================
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		log.Printf("🚀 Server listening on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("🛑 Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("❌ Forced shutdown: %v", err)
	}
	log.Println("✅ Server stopped")
}
