package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	redisDriver "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"lyceum/internal/ai"
	"lyceum/internal/config"
	"lyceum/internal/handlers/apiserver"
	appKafka "lyceum/internal/kafka"
	"lyceum/internal/middleware"
	"lyceum/internal/models"
	appRedis "lyceum/internal/redis"
	"lyceum/internal/services"
	"lyceum/internal/storage"
)

func main() {
	// 1. Load configuration
	cfg, err := config.LoadConfig("")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.Println("API server configuration loaded.")

	// 2. Initialize the database
	db, err := storage.InitDB(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	if err := storage.AutoMigrateTables(db); err != nil {
		log.Fatalf("Failed to migrate database tables: %v", err)
	}
	log.Println("API server database ready.")

	// 3. Initialize Redis (token blacklist + session revocation)
	redisClient := redisDriver.NewClient(&redisDriver.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	tokenBlacklist := appRedis.NewRedisTokenBlacklist(redisClient)
	sessionRevoker := appRedis.NewRedisSessionRevoker(redisClient)
	log.Println("Connected to Redis.")

	// 4. Initialize repositories
	userRepo := storage.NewGormUserRepository(db)
	followRepo := storage.NewGormFollowRepository(db)
	friendReqRepo := storage.NewGormFriendRequestRepository(db)
	friendshipRepo := storage.NewGormFriendshipRepository(db)
	chatRepo := storage.NewGormChatRepository(db)
	messageRepo := storage.NewGormMessageRepository(db)
	testbankRepo := storage.NewGormTestbankRepository(db)
	postRepo := storage.NewGormPostRepository(db)
	courseRepo := storage.NewGormCourseRepository(db)
	clubRepo := storage.NewGormClubRepository(db)
	reportRepo := storage.NewGormReportRepository(db)
	notificationRepo := storage.NewGormNotificationRepository(db)
	challengeRepo := storage.NewGormChallengeRepository(db)

	// 5. Initialize Kafka producer
	kfkProducer, err := appKafka.NewConfluentKafkaProducer(cfg.Kafka)
	if err != nil {
		log.Fatalf("Failed to create Kafka producer: %v", err)
	}
	defer kfkProducer.Close()
	log.Println("Kafka producer initialized (API server).")

	// 6. Initialize file storage
	var fileStorage storage.StorageService
	switch cfg.Storage.Type {
	case "local":
		fileStorage, err = storage.NewLocalStorageService(cfg.Storage)
		if err != nil {
			log.Fatalf("Failed to initialize local storage: %v", err)
		}
	default:
		log.Fatalf("Unsupported storage type: %s", cfg.Storage.Type)
	}

	// 7. Initialize the question generator
	var generator ai.QuestionGenerator
	switch cfg.AI.Provider {
	case "gemini":
		generator = ai.NewGeminiGenerator(cfg.AI)
	default:
		log.Fatalf("Unsupported AI provider: %s", cfg.AI.Provider)
	}

	// 8. Initialize services
	notificationService := services.NewNotificationService(notificationRepo, kfkProducer, cfg.Kafka)
	creditsService := services.NewCreditsService(db, userRepo)
	authService := services.NewAuthService(userRepo, creditsService, tokenBlacklist, cfg.Auth, cfg.Credits)
	userService := services.NewUserService(userRepo, followRepo, fileStorage)
	relationshipService := services.NewRelationshipService(db, userRepo, followRepo, friendReqRepo, friendshipRepo, notificationService)
	chatService := services.NewChatService(db, chatRepo, messageRepo, friendshipRepo, kfkProducer, cfg.Kafka)
	testbankService := services.NewTestbankService(db, testbankRepo, creditsService, generator, cfg.Credits)
	postService := services.NewPostService(postRepo, followRepo, notificationService)
	courseService := services.NewCourseService(courseRepo)
	clubService := services.NewClubService(db, clubRepo)
	challengeService := services.NewChallengeService(challengeRepo, userRepo, courseRepo, notificationService)
	moderationService := services.NewModerationService(userRepo, reportRepo, creditsService, sessionRevoker, notificationService)

	// 9. Initialize handlers
	maxUploadBytes := cfg.Storage.MaxFileSizeMB << 20
	authHandler := apiserver.NewAuthHandler(authService)
	userHandler := apiserver.NewUserHandler(userService, maxUploadBytes)
	relationshipHandler := apiserver.NewRelationshipHandler(relationshipService)
	creditsHandler := apiserver.NewCreditsHandler(creditsService)
	chatHandler := apiserver.NewChatHandler(chatService)
	testbankHandler := apiserver.NewTestbankHandler(testbankService, fileStorage, maxUploadBytes)
	postHandler := apiserver.NewPostHandler(postService)
	courseHandler := apiserver.NewCourseHandler(courseService)
	clubHandler := apiserver.NewClubHandler(clubService)
	challengeHandler := apiserver.NewChallengeHandler(challengeService)
	notificationHandler := apiserver.NewNotificationHandler(notificationService)
	moderationHandler := apiserver.NewModerationHandler(moderationService)

	// 10. Routes
	r := mux.NewRouter()

	// Public routes
	r.HandleFunc("/auth/register", authHandler.Register).Methods(http.MethodPost)
	r.HandleFunc("/auth/login", authHandler.Login).Methods(http.MethodPost)
	r.HandleFunc("/users/{userId:[0-9]+}", userHandler.GetProfile).Methods(http.MethodGet)
	r.HandleFunc("/leaderboard", userHandler.Leaderboard).Methods(http.MethodGet)
	r.HandleFunc("/testbanks", testbankHandler.ListPublic).Methods(http.MethodGet)
	r.HandleFunc("/courses", courseHandler.ListCourses).Methods(http.MethodGet)
	r.HandleFunc("/courses/{courseId:[0-9]+}", courseHandler.GetCourse).Methods(http.MethodGet)

	authMW := func(next http.Handler) http.Handler {
		return middleware.AuthMiddleware(next, cfg.Auth, tokenBlacklist, sessionRevoker)
	}

	// Authenticated routes
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(authMW)

	api.HandleFunc("/auth/logout", authHandler.Logout).Methods(http.MethodPost)

	// Profile
	api.HandleFunc("/users/me", userHandler.GetMe).Methods(http.MethodGet)
	api.HandleFunc("/users/me", userHandler.UpdateMe).Methods(http.MethodPatch)
	api.HandleFunc("/users/me/avatar", userHandler.UploadAvatar).Methods(http.MethodPost)
	api.HandleFunc("/users/search", userHandler.Search).Methods(http.MethodGet)

	// Relationships
	api.HandleFunc("/users/{userId:[0-9]+}/follow", relationshipHandler.Follow).Methods(http.MethodPost)
	api.HandleFunc("/users/{userId:[0-9]+}/follow", relationshipHandler.Unfollow).Methods(http.MethodDelete)
	api.HandleFunc("/users/{userId:[0-9]+}/followers", relationshipHandler.ListFollowers).Methods(http.MethodGet)
	api.HandleFunc("/users/{userId:[0-9]+}/following", relationshipHandler.ListFollowing).Methods(http.MethodGet)
	api.HandleFunc("/friends", relationshipHandler.ListFriends).Methods(http.MethodGet)
	api.HandleFunc("/friends/{userId:[0-9]+}", relationshipHandler.Unfriend).Methods(http.MethodDelete)
	friendReqRouter := api.PathPrefix("/friend-requests").Subrouter()
	friendReqRouter.HandleFunc("", relationshipHandler.SendFriendRequest).Methods(http.MethodPost)
	friendReqRouter.HandleFunc("/pending", relationshipHandler.ListPendingRequests).Methods(http.MethodGet)
	friendReqRouter.HandleFunc("/{requestId:[0-9]+}/accept", relationshipHandler.AcceptFriendRequest).Methods(http.MethodPost)
	friendReqRouter.HandleFunc("/{requestId:[0-9]+}/decline", relationshipHandler.DeclineFriendRequest).Methods(http.MethodPost)
	friendReqRouter.HandleFunc("/{requestId:[0-9]+}", relationshipHandler.CancelFriendRequest).Methods(http.MethodDelete)

	// Credits
	api.HandleFunc("/users/me/credits", creditsHandler.Balance).Methods(http.MethodGet)
	api.HandleFunc("/users/me/credits/history", creditsHandler.History).Methods(http.MethodGet)

	// Chats
	api.HandleFunc("/chats", chatHandler.ListChats).Methods(http.MethodGet)
	api.HandleFunc("/chats/direct", chatHandler.OpenDirectChat).Methods(http.MethodPost)
	api.HandleFunc("/chats/{chatId:[0-9]+}/messages", chatHandler.SendMessage).Methods(http.MethodPost)
	api.HandleFunc("/chats/{chatId:[0-9]+}/messages", chatHandler.GetMessages).Methods(http.MethodGet)

	// Testbanks
	api.HandleFunc("/testbanks", testbankHandler.CreateTestbank).Methods(http.MethodPost)
	api.HandleFunc("/testbanks/mine", testbankHandler.ListMine).Methods(http.MethodGet)
	api.HandleFunc("/testbanks/{testbankId:[0-9]+}", testbankHandler.GetTestbank).Methods(http.MethodGet)
	api.HandleFunc("/testbanks/{testbankId:[0-9]+}/questions", testbankHandler.AddQuestion).Methods(http.MethodPost)
	api.HandleFunc("/testbanks/{testbankId:[0-9]+}/generate", testbankHandler.Generate).Methods(http.MethodPost)

	// Posts and feed
	api.HandleFunc("/posts", postHandler.CreatePost).Methods(http.MethodPost)
	api.HandleFunc("/feed", postHandler.Feed).Methods(http.MethodGet)
	api.HandleFunc("/posts/{postId:[0-9]+}", postHandler.GetPost).Methods(http.MethodGet)
	api.HandleFunc("/posts/{postId:[0-9]+}", postHandler.DeletePost).Methods(http.MethodDelete)
	api.HandleFunc("/posts/{postId:[0-9]+}/upvote", postHandler.Upvote).Methods(http.MethodPost)
	api.HandleFunc("/posts/{postId:[0-9]+}/upvote", postHandler.RemoveUpvote).Methods(http.MethodDelete)
	api.HandleFunc("/posts/{postId:[0-9]+}/comments", postHandler.AddComment).Methods(http.MethodPost)
	api.HandleFunc("/posts/{postId:[0-9]+}/comments", postHandler.ListComments).Methods(http.MethodGet)

	// Clubs
	api.HandleFunc("/clubs", clubHandler.CreateClub).Methods(http.MethodPost)
	api.HandleFunc("/clubs", clubHandler.ListClubs).Methods(http.MethodGet)
	api.HandleFunc("/clubs/{clubId:[0-9]+}", clubHandler.GetClub).Methods(http.MethodGet)
	api.HandleFunc("/clubs/{clubId:[0-9]+}/join", clubHandler.JoinClub).Methods(http.MethodPost)
	api.HandleFunc("/clubs/{clubId:[0-9]+}/leave", clubHandler.LeaveClub).Methods(http.MethodPost)
	api.HandleFunc("/clubs/{clubId:[0-9]+}/members", clubHandler.ListMembers).Methods(http.MethodGet)

	// Challenges
	api.HandleFunc("/challenges", challengeHandler.CreateChallenge).Methods(http.MethodPost)
	api.HandleFunc("/challenges", challengeHandler.ListChallenges).Methods(http.MethodGet)
	api.HandleFunc("/challenges/{challengeId:[0-9]+}/accept", challengeHandler.AcceptChallenge).Methods(http.MethodPost)
	api.HandleFunc("/challenges/{challengeId:[0-9]+}/decline", challengeHandler.DeclineChallenge).Methods(http.MethodPost)
	api.HandleFunc("/challenges/{challengeId:[0-9]+}/complete", challengeHandler.CompleteChallenge).Methods(http.MethodPost)

	// Notifications
	api.HandleFunc("/notifications", notificationHandler.ListNotifications).Methods(http.MethodGet)
	api.HandleFunc("/notifications/unread-count", notificationHandler.UnreadCount).Methods(http.MethodGet)
	api.HandleFunc("/notifications/{notificationId:[0-9]+}/read", notificationHandler.MarkRead).Methods(http.MethodPost)

	// Reports
	api.HandleFunc("/reports", moderationHandler.FileReport).Methods(http.MethodPost)

	// Admin routes
	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(middleware.RequireAdmin)
	admin.HandleFunc("/reports", moderationHandler.ListPendingReports).Methods(http.MethodGet)
	admin.HandleFunc("/reports/{reportId:[0-9]+}/resolve", moderationHandler.ResolveReport).Methods(http.MethodPost)
	admin.HandleFunc("/users/{userId:[0-9]+}/ban", moderationHandler.BanUser).Methods(http.MethodPost)
	admin.HandleFunc("/users/{userId:[0-9]+}/unban", moderationHandler.UnbanUser).Methods(http.MethodPost)
	admin.HandleFunc("/users/{userId:[0-9]+}/credits", moderationHandler.AdjustCredits).Methods(http.MethodPost)
	admin.HandleFunc("/courses", courseHandler.CreateCourse).Methods(http.MethodPost)

	// Static file serving for uploads
	if cfg.Storage.Type == "local" {
		staticPath := strings.TrimSuffix(cfg.Storage.BaseURL, "/") + "/"
		r.PathPrefix(staticPath).Handler(http.StripPrefix(staticPath, http.FileServer(http.Dir(cfg.Storage.LocalPath))))
		log.Printf("Serving uploads from %s at %s", cfg.Storage.LocalPath, staticPath)
	}

	// 11. Start the notification consumer
	notificationConsumer, err := appKafka.NewConfluentKafkaConsumer(cfg.Kafka)
	if err != nil {
		log.Fatalf("Failed to create notification Kafka consumer: %v", err)
	}
	defer notificationConsumer.Close()

	consumerCtx, cancelConsumers := context.WithCancel(context.Background())
	defer cancelConsumers()

	go func() {
		topics := []string{cfg.Kafka.NotificationsTopic}
		log.Printf("Notification consumer listening on topic %s (group %s)", cfg.Kafka.NotificationsTopic, cfg.Kafka.ConsumerGroup)
		err := notificationConsumer.Consume(consumerCtx, topics, cfg.Kafka.ConsumerGroup, notificationService.ProcessNotificationEvent)
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("Notification consumer error: %v", err)
		}
		log.Println("Notification consumer stopped.")
	}()

	// Maintenance command: audit every ledger against materialized balances.
	if len(os.Args) > 1 && os.Args[1] == "verify-ledger" {
		verifyLedgers(db, creditsService)
		return
	}

	// 12. Start the HTTP server with graceful shutdown
	serverAddr := fmt.Sprintf("%s:%s", cfg.APIServer.Host, cfg.APIServer.Port)

	corsOptions := []handlers.CORSOption{
		handlers.AllowedOrigins(cfg.APIServer.CORS.AllowedOrigins),
		handlers.AllowedMethods(cfg.APIServer.CORS.AllowedMethods),
		handlers.AllowedHeaders(cfg.APIServer.CORS.AllowedHeaders),
		handlers.ExposedHeaders(cfg.APIServer.CORS.ExposedHeaders),
		handlers.MaxAge(cfg.APIServer.CORS.MaxAge),
	}
	if cfg.APIServer.CORS.AllowCredentials {
		corsOptions = append(corsOptions, handlers.AllowCredentials())
	}
	corsHandler := handlers.CORS(corsOptions...)(r)

	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      corsHandler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("API server listening on %s", serverAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("API server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutdown signal received, stopping API server...")

	cancelConsumers()

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		log.Fatalf("API server forced to shut down: %v", err)
	}
	log.Println("API server stopped.")
}

// verifyLedgers walks all users and reports any whose ledger sum no longer
// matches the materialized credit balance.
func verifyLedgers(db *gorm.DB, credits services.CreditsService) {
	ctx := context.Background()

	var userIDs []uint
	if err := db.Model(&models.User{}).Pluck("id", &userIDs).Error; err != nil {
		fmt.Printf("Failed to list users: %v\n", err)
		return
	}
	fmt.Printf("Checking %d user ledgers...\n", len(userIDs))

	mismatches := 0
	for _, id := range userIDs {
		check, err := credits.VerifyLedger(ctx, id)
		if err != nil {
			fmt.Printf("User %d: check failed: %v\n", id, err)
			continue
		}
		if !check.Consistent {
			mismatches++
			fmt.Printf("User %d: balance %d, ledger sum %d\n", check.UserID, check.Balance, check.LedgerSum)
		}
	}
	fmt.Printf("Done. %d mismatched ledger(s).\n", mismatches)
}
