package main

import (
	"context"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"

	"github.com/skillswap/skillswap-backend/internal/config"
	"github.com/skillswap/skillswap-backend/internal/db"
	"github.com/skillswap/skillswap-backend/internal/handlers"
	"github.com/skillswap/skillswap-backend/internal/middleware"
	"github.com/skillswap/skillswap-backend/internal/models"
	"github.com/skillswap/skillswap-backend/internal/realtime"
	"github.com/skillswap/skillswap-backend/internal/services/earnings"
	"github.com/skillswap/skillswap-backend/internal/services/notify"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	gdb, err := db.Connect(cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}

	rdb := realtime.NewRedis(cfg.RedisAddr, cfg.RedisPassword)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Fatal("redis not reachable:", err)
	}

	hub := realtime.NewHub()
	bridge := realtime.NewBridge(hub, rdb)
	go bridge.Run(context.Background())

	if err := gdb.AutoMigrate(
		&models.User{},
		&models.ClientProfile{},
		&models.FreelancerProfile{},
		&models.VerificationDocument{},
		&models.Project{},
		&models.Bid{},
		&models.Conversation{},
		&models.Message{},
		&models.Notification{},
		&models.Review{},
		&models.Earning{},
	); err != nil {
		log.Fatal(err)
	}

	earningsSvc := earnings.NewEarningsService(gdb)
	notifier := notify.NewNotifier(gdb, hub, bridge, rdb)

	authH := &handlers.AuthHandler{
		DB:        gdb,
		RDB:       rdb,
		JWTSecret: cfg.JWTSecret,
		Expires:   cfg.JWTExpiresMin,
	}
	googleH := &handlers.GoogleOAuthHandler{
		DB:              gdb,
		JWTSecret:       cfg.JWTSecret,
		Expires:         cfg.JWTExpiresMin,
		GoogleClientID:  cfg.GoogleClientID,
		GoogleSecret:    cfg.GoogleSecret,
		GoogleRedirect:  cfg.GoogleRedirect,
		FrontendBaseURL: cfg.FrontendBaseURL,
	}
	usersH := handlers.NewUsersHandler(gdb)
	projectsH := handlers.NewProjectsHandler(gdb, bridge, notifier, earningsSvc)
	bidsH := handlers.NewBidsHandler(gdb, bridge, notifier)
	verificationH := handlers.NewVerificationHandler(gdb, notifier, cfg.UploadDir)
	chatH := handlers.NewChatHandler(gdb, bridge, notifier, cfg.UploadDir)
	notificationsH := handlers.NewNotificationsHandler(gdb)
	dashboardH := handlers.NewDashboardHandler(gdb, earningsSvc)
	wsH := handlers.NewWSHandler(gdb, hub, cfg.JWTSecret)

	app := fiber.New(fiber.Config{
		BodyLimit: 60 * 1024 * 1024,
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.FrontendBaseURL,
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		ExposeHeaders:    "Content-Length",
		AllowCredentials: true,
	}))

	app.Options("/*", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	app.Static("/uploads", cfg.UploadDir)

	api := app.Group("/api")

	// public
	api.Post("/auth/register", authH.Register)
	api.Post("/auth/login", authH.Login)
	api.Post("/auth/logout", authH.Logout)
	api.Post("/auth/forgot-password", authH.ForgotPassword)
	api.Post("/auth/reset-password", authH.ResetPassword)
	api.Get("/auth/google/start", googleH.GoogleStart)
	api.Get("/auth/google/callback", googleH.GoogleCallback)
	api.Get("/projects", projectsH.Browse)
	api.Get("/projects/:id", projectsH.GetDetail)

	// protected (JWT cookie, Bearer fallback)
	protected := api.Group("/",
		middleware.RequireJWT(cfg.JWTSecret),
		middleware.AttachJWTLocals(),
	)

	protected.Get("/me", authH.Me)
	protected.Get("/users/:id/exists", usersH.Exists)
	protected.Get("/users/:id/profile", usersH.GetProfile)
	protected.Put("/profile", usersH.UpdateProfile)

	// client only
	client := protected.Group("/client", middleware.RequireRoles("client"))
	client.Post("/projects", projectsH.Create)
	client.Get("/projects", projectsH.ListMine)
	client.Put("/projects/:id", projectsH.Update)
	client.Patch("/projects/:id/cancel", projectsH.Cancel)
	client.Patch("/projects/:id/complete", projectsH.Complete)
	client.Post("/projects/:id/review", projectsH.CreateReview)
	client.Get("/projects/:id/bids", bidsH.ListForProject)
	client.Put("/projects/:id/bids/:bidID/accept", bidsH.Accept)
	client.Patch("/projects/:id/bids/:bidID/reject", bidsH.Reject)
	client.Post("/projects/:id/bids/:bidID/counter-offer", bidsH.CounterOffer)
	client.Get("/stats", dashboardH.ClientStats)

	// freelancer only
	freelancer := protected.Group("/freelancer", middleware.RequireRoles("freelancer"))
	freelancer.Post("/projects/:id/bids", bidsH.Create)
	freelancer.Get("/bids", bidsH.MyBids)
	freelancer.Patch("/bids/:bidID/withdraw", bidsH.Withdraw)
	freelancer.Put("/projects/:id/bids/:bidID/counter-offer/respond", bidsH.RespondCounterOffer)
	freelancer.Patch("/projects/:id/progress", projectsH.UpdateProgress)
	freelancer.Post("/verification/documents", verificationH.UploadDocument)
	freelancer.Get("/verification", verificationH.MyVerification)
	freelancer.Get("/analytics", dashboardH.FreelancerAnalytics)

	// messaging
	chat := protected.Group("/chat")
	chat.Post("/conversations", chatH.CreateOrGetConversation)
	chat.Get("/conversations", chatH.GetConversations)
	chat.Get("/conversations/:id/messages", chatH.GetMessages)
	chat.Post("/conversations/:id/messages", chatH.SendMessage)
	chat.Put("/conversations/:id/read", chatH.MarkAsRead)
	chat.Get("/unread", chatH.GetUnreadTotal)

	// notifications
	protected.Get("/notifications", notificationsH.List)
	protected.Get("/notifications/unread-count", notificationsH.UnreadCount)
	protected.Patch("/notifications/:id/read", notificationsH.MarkRead)
	protected.Patch("/notifications/read-all", notificationsH.MarkAllRead)

	// admin only
	admin := protected.Group("/admin", middleware.RequireRoles("admin"))
	admin.Get("/stats", dashboardH.AdminStats)
	admin.Get("/analytics", dashboardH.AdminAnalytics)
	admin.Get("/users", usersH.AdminList)
	admin.Post("/users", usersH.AdminCreate)
	admin.Put("/users/:id", usersH.AdminUpdate)
	admin.Delete("/users/:id", usersH.AdminDelete)
	admin.Get("/projects", projectsH.AdminList)
	admin.Patch("/projects/:id/cancel", projectsH.AdminCancel)
	admin.Delete("/projects/:id", projectsH.AdminDelete)
	admin.Get("/verifications", verificationH.AdminList)
	admin.Get("/verifications/:id", verificationH.AdminGet)
	admin.Patch("/verifications/:id/decide", verificationH.AdminDecide)
	admin.Patch("/verifications/:id/reset", verificationH.AdminReset)
	admin.Patch("/verifications/documents/:docID/review", verificationH.AdminReviewDocument)
	admin.Put("/verifications/bulk", verificationH.AdminBulk)

	// WebSocket endpoint, auth happens in the upgrade filter
	app.Get("/ws", wsH.Upgrade, wsH.Serve())

	log.Fatal(app.Listen(":" + cfg.AppPort))
}
