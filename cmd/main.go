package main

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"tour-app/internal/chat"
	"tour-app/internal/config"
	"tour-app/internal/handler"
	"tour-app/internal/repository"
	"tour-app/internal/services"
	"tour-app/internal/utils"
	"tour-app/internal/utils/push"
)

func main() {
	// 1. Базовый контекст + менеджер завершения
	baseCtx := context.Background()
	ctx, shutdownManager := utils.NewShutdownManager(baseCtx)
	shutdownManager.StartListening()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	// 2. Инициализация MongoDB
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	db := mongoClient.Database(cfg.MongoDB)

	shutdownManager.Register(func(ctx context.Context) error {
		log.Println("[SHUTDOWN] Closing MongoDB connection...")
		return mongoClient.Disconnect(ctx)
	})

	// 3. Инициализация Redis
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatal("Invalid Redis URL:", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatal("Failed to ping Redis:", err)
	}

	shutdownManager.Register(func(ctx context.Context) error {
		log.Println("[SHUTDOWN] Closing Redis connection...")
		return rdb.Close()
	})

	// 4. Репозитории
	tourRepo := repository.NewTourRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	userRepo := repository.NewUserRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	chatArchiveRepo := repository.NewChatArchiveRepository(db)

	// 5. Сервисы
	jwtUtil := utils.NewJWTUtil(cfg.JWTSecret)
	mailer := services.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword)

	var fcmClient *push.FCMClient
	if cfg.FCMCredentialsPath != "" {
		fcmClient, err = push.NewFCMClient(cfg.FCMCredentialsPath)
		if err != nil {
			log.Printf("FCM client unavailable, push disabled: %v", err)
		}
	}

	tourService := services.NewTourService(tourRepo, rdb)
	bookingService := services.NewBookingService(bookingRepo, tourRepo, rdb)
	paymentService := services.NewPaymentService(bookingService)
	reviewService := services.NewReviewService(reviewRepo, bookingRepo, tourRepo, rdb)
	authService := services.NewAuthService(userRepo, jwtUtil, mailer, rdb)
	analyticsService := services.NewAnalyticsService(bookingRepo, tourRepo, userRepo, rdb)
	notificationService := services.NewNotificationService(notificationRepo, userRepo, rdb, mailer, fcmClient)

	// 6. Чат поддержки: хаб держит все сессии в памяти, архив — в Mongo
	supportArchive := services.NewSupportArchive(chatArchiveRepo, rdb)
	hub := chat.NewHub(supportArchive)

	// 7. Фоновые задачи
	notificationService.StartRedisSubscribers(ctx)

	cacheRefresher := services.NewCacheRefresher(analyticsService, tourService, rdb)
	cacheRefresher.Start(ctx)

	cron := services.NewCronJobService(bookingRepo, rdb)
	cron.Start(ctx)

	// 8. Хендлеры
	authHandler := handler.NewAuthHandler(authService)
	tourHandler := handler.NewTourHandler(tourService)
	bookingHandler := handler.NewBookingHandler(bookingService)
	paymentHandler := handler.NewPaymentHandler(paymentService)
	reviewHandler := handler.NewReviewHandler(reviewService)
	notificationHandler := handler.NewNotificationHandler(notificationService)
	adminHandler := handler.NewAdminHandler(analyticsService, authService)
	chatHandler := handler.NewChatHandler(hub, authService, supportArchive, cfg.AllowedOrigins)

	// 9. Роутер
	router := gin.Default()

	allowOrigins := []string{"http://localhost:3000"}
	if cfg.AllowedOrigins != "" && cfg.AllowedOrigins != "*" {
		allowOrigins = strings.Split(cfg.AllowedOrigins, ",")
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	authMiddleware := utils.AuthMiddleware(jwtUtil)

	auth := router.Group("/api/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.GET("/validate", authMiddleware, authHandler.Validate)
		auth.GET("/profile", authMiddleware, authHandler.GetProfile)
		auth.PUT("/profile", authMiddleware, authHandler.UpdateProfile)
		auth.PUT("/password", authMiddleware, authHandler.ChangePassword)
	}

	tours := router.Group("/api/tours")
	{
		tours.GET("/", tourHandler.GetActiveTours)
		tours.GET("/filter", tourHandler.FilterTours)
		tours.GET("/:id", tourHandler.GetTour)
		tours.GET("/:id/reviews", reviewHandler.GetReviewsByTour)
	}

	bookings := router.Group("/api/bookings", authMiddleware)
	{
		bookings.POST("/", bookingHandler.CreateBooking)
		bookings.GET("/my", bookingHandler.GetMyBookings)
		bookings.GET("/:id", bookingHandler.GetBooking)
		bookings.PUT("/:id/cancel", bookingHandler.CancelBooking)
	}

	payments := router.Group("/api/payments", authMiddleware)
	{
		payments.POST("/pay", paymentHandler.Pay)
	}

	reviews := router.Group("/api/reviews", authMiddleware)
	{
		reviews.POST("/", reviewHandler.CreateReview)
	}

	notifications := router.Group("/api/notifications", authMiddleware)
	{
		notifications.GET("/my", notificationHandler.GetMyNotifications)
		notifications.PUT("/:id/read", notificationHandler.MarkAsRead)
	}

	admin := router.Group("/api/admin", authMiddleware, utils.RequireRoles("manager", "admin"))
	{
		admin.GET("/stats", adminHandler.GetDashboardStats)
		admin.GET("/stats/bookings", adminHandler.GetActiveBookingsCount)
		admin.GET("/stats/revenue", adminHandler.GetTotalRevenue)

		admin.GET("/tours", tourHandler.GetAllTours)
		admin.POST("/tours", tourHandler.CreateTour)
		admin.PUT("/tours/:id", tourHandler.UpdateTour)
		admin.DELETE("/tours/:id", tourHandler.DeactivateTour)

		admin.GET("/bookings", bookingHandler.GetAllBookings)
		admin.GET("/bookings/filter", bookingHandler.FilterBookings)
		admin.PUT("/bookings/:id/confirm", bookingHandler.ConfirmBooking)

		admin.DELETE("/reviews/:id", reviewHandler.DeleteReview)

		admin.GET("/users", adminHandler.GetAllUsers)
		admin.PUT("/users/:id/ban", adminHandler.SetUserBanned)
		admin.PUT("/users/:id/role", adminHandler.SetUserRole)
	}

	// Чат поддержки: вебсокеты + история закрытых обращений
	router.GET("/ws/support", authMiddleware, chatHandler.ServeVisitor)
	router.GET("/ws/support/agent", authMiddleware, utils.RequireRoles("manager", "admin"), chatHandler.ServeAgent)
	router.GET("/api/support/history", authMiddleware, chatHandler.GetHistory)

	// 10. Запуск сервера
	port := cfg.ServerPort
	if port == "" {
		port = ":8000"
	}
	server := &http.Server{
		Addr:    port,
		Handler: router,
	}

	go func() {
		log.Println("Tour service running on", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	shutdownManager.Register(func(ctx context.Context) error {
		log.Println("[SHUTDOWN] Shutting down HTTP server...")
		return server.Shutdown(ctx)
	})

	select {}
}
