package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"tutoria-backend/internal/agents"
	"tutoria-backend/internal/chat"
	"tutoria-backend/internal/config"
	"tutoria-backend/internal/database"
	"tutoria-backend/internal/handlers"
	"tutoria-backend/internal/middleware"
	"tutoria-backend/internal/quiz"
	"tutoria-backend/internal/repository"
	"tutoria-backend/internal/retrieval"
	"tutoria-backend/internal/router"
	"tutoria-backend/internal/services"
	"tutoria-backend/internal/storage"
	"tutoria-backend/internal/websocket"
	"tutoria-backend/internal/worker"
)

func main() {
	log.Println("🚀 Starting Tutoria Backend...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	// ──── Step 2: Initialize PostgreSQL Connection Pool ────
	pool, err := database.NewPostgresPool(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("✗ PostgreSQL connection failed: %v", err)
	}
	defer pool.Close()
	log.Println("✓ PostgreSQL connected")

	// ──── Step 3: Initialize Redis Clients ────
	redisClients, err := database.NewRedisClients(cfg.RedisURL)
	if err != nil {
		log.Fatalf("✗ Redis connection failed: %v", err)
	}
	defer redisClients.Close()
	log.Println("✓ Redis connected")

	// ──── Step 4: Run Database Migrations ────
	if err := database.RunMigrations(pool, "migrations"); err != nil {
		log.Fatalf("✗ Database migration failed: %v", err)
	}
	log.Println("✓ Database migrations applied")

	// ──── Initialize Repositories ────
	sessionRepo := repository.NewSessionRepo(pool)
	chatRepo := repository.NewChatRepo(pool)
	quizRepo := repository.NewQuizRepo(pool)

	// ──── Step 5: Initialize Gemini Client ────
	genaiCtx, genaiCancel := context.WithTimeout(context.Background(), cfg.ModelConnectTimeout)
	client, err := genai.NewClient(genaiCtx, option.WithAPIKey(cfg.GeminiAPIKey))
	genaiCancel()
	if err != nil {
		log.Fatalf("✗ Gemini client initialization failed: %v", err)
	}
	defer client.Close()
	log.Println("✓ Gemini client initialized")

	// ──── Initialize Storage ────
	var store storage.ArtifactStore
	switch cfg.StorageType {
	case "supabase":
		store = storage.NewSupabaseStore(cfg.SupabaseURL, cfg.SupabaseKey, cfg.SupabaseBucket)
		log.Println("✓ Supabase storage initialized")
	default:
		localStore, err := storage.NewLocalStore(cfg.StoragePath, "http://localhost:"+cfg.Port)
		if err != nil {
			log.Fatalf("✗ Local storage initialization failed: %v", err)
		}
		store = localStore
		log.Printf("✓ Local storage initialized at %s", cfg.StoragePath)
	}

	// ──── Initialize Services ────
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret)
	retriever := retrieval.NewRetriever(pool, client.EmbeddingModel(cfg.GeminiEmbedModel), cfg.KBMaxResults)
	docService := services.NewDocumentService(store)
	pdfService := services.NewPDFService(store)
	quizEngine := quiz.NewEngine(quizRepo)

	// ──── Initialize Agents ────
	curriculum := agents.NewCurriculum(client, cfg.GeminiModel, retriever, docService)
	registry := agents.NewRegistry(
		agents.NewGeneral(client, cfg.GeminiModel, docService),
		curriculum,
		agents.NewQuizzer(client, cfg.GeminiModel, quizEngine, curriculum),
		agents.NewReviewer(client, cfg.GeminiModel, retriever, pdfService),
	)
	log.Printf("✓ Agents registered: %v", registry.Names())

	// ──── Step 6: Start Summary Worker Pool ────
	workerPool := worker.NewPool(redisClients.Queue, client, cfg.GeminiModel, sessionRepo, chatRepo, cfg.SummaryWorkers)
	workerPool.Start()
	log.Printf("✓ Summary workers started (%d goroutines)", cfg.SummaryWorkers)

	// ──── Step 7: Start WebSocket Hub ────
	coordinator := chat.NewCoordinator(sessionRepo, chatRepo, registry, cfg.ContextWindow).
		WithSummarization(worker.NewEnqueuer(redisClients.Queue), cfg.SummarizeAfter)
	wsHub := websocket.NewHub(redisClients.PubSub, redisClients.Queue, cfg.JWTSecret, coordinator, cfg.ModelReadTimeout)
	log.Println("✓ WebSocket hub started")

	// ──── Step 8: Start HTTP Server ────
	uploadHandler := handlers.NewUploadHandler(store, docService, retriever)
	sessionsHandler := handlers.NewSessionsHandler(sessionRepo, chatRepo)

	r := router.New(jwtAuth, uploadHandler, sessionsHandler, wsHub, cfg.FrontendURL)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		workerPool.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("✓ Tutoria Backend ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api/v1", cfg.Port)
	log.Printf("  WS:  ws://localhost:%s/api/v1/ws", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
