package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"go-inbox/internal/db"
	"go-inbox/internal/message"
	myMiddleware "go-inbox/internal/middleware"
	"go-inbox/internal/notify"
	"go-inbox/internal/user"
)

func main() {
	// 1. Config & Flags
	addr := flag.String("addr", ":8080", "http service address")
	flag.Parse()

	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("❌ JWT_SECRET is not set")
	}

	memoryMode := os.Getenv("MEMORY") == "1"

	var userStore user.Store
	var messageStore message.Store
	var redisClient *redis.Client
	var database *db.Database

	if memoryMode {
		// DB-less dev mode: everything lives in process memory.
		userStore = user.NewMemoryStore()
		messageStore = message.NewMemoryStore()
		log.Println("✅ Running on in-memory stores")
	} else {
		dsn := os.Getenv("DB_DSN")
		if dsn == "" {
			log.Fatal("❌ DB_DSN is not set")
		}

		// 2. Connect to Database (Platform Layer)
		var err error
		database, err = db.NewDatabase(dsn)
		if err != nil {
			log.Fatalf("❌ Failed to connect to DB: %v", err)
		}
		log.Println("✅ Connected to PostgreSQL")

		if err := database.AutoMigrate(); err != nil {
			log.Fatalf("❌ Migration failed: %v", err)
		}
		log.Println("✅ Database Schema Initialized")

		// 3. Connect to Redis (Platform Layer)
		redisAddr := os.Getenv("REDIS_ADDR")
		if redisAddr == "" {
			redisAddr = "localhost:6379"
		}
		redisClient = redis.NewClient(&redis.Options{
			Addr: redisAddr,
		})
		if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
			log.Fatalf("❌ Failed to connect to Redis: %v", err)
		}
		log.Println("✅ Connected to Redis")

		userStore = user.NewRepository(database.Conn)
		messageStore = message.NewRepository(database.Conn)
	}

	// 4. Initialize User Directory
	userService := user.NewService(userStore, jwtSecret)
	userHandler := user.NewHandler(userService)

	// 5. Initialize Notifications
	hub := notify.NewHub(redisClient)
	go hub.Run()
	go hub.SubscribeToRedis()

	// 6. Initialize Message Lifecycle Engine
	messageService := message.NewService(messageStore, userService, hub)
	messageHandler := message.NewHandler(messageService, userService)

	authMiddleware := myMiddleware.NewAuthMiddleware(userService)

	// 7. Define Routes
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Public Routes
	r.Post("/register", userHandler.Register)
	r.Post("/login", userHandler.Login)

	// Protected Routes (Require JWT)
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.Handle)
		r.Post("/api/messages", messageHandler.Send)
		r.Get("/api/messages", messageHandler.Inbox)
		r.Get("/api/messages/unread", messageHandler.Unread)
		r.Get("/api/messages/next", messageHandler.Next)
		r.Delete("/api/messages/{id}", messageHandler.Delete)
		r.Get("/ws", hub.ServeWS)
	})

	server := &http.Server{Addr: *addr, Handler: r}

	go func() {
		log.Printf("🚀 Server starting on %s", *addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	// 8. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	if database != nil {
		database.Close()
	}
	if redisClient != nil {
		redisClient.Close()
	}
	log.Println("Server stopped")
}
