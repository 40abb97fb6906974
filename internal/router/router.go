package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"tutoria-backend/internal/handlers"
	"tutoria-backend/internal/middleware"
	"tutoria-backend/internal/websocket"
)

func New(
	jwtAuth *middleware.JWTAuth,
	uploadHandler *handlers.UploadHandler,
	sessionsHandler *handlers.SessionsHandler,
	wsHub *websocket.Hub,
	frontendURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))

	// Upload rate limiter (20 req/min per IP)
	uploadLimiter := middleware.NewRateLimiter(20, time.Minute)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Locally stored artifacts (uploads, generated reviewer PDFs)
	r.Get("/files/*", uploadHandler.ServeFile)

	r.Route("/api/v1", func(r chi.Router) {

		// ──── Document Upload ────
		r.Route("/documents", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Use(uploadLimiter.Middleware)
			r.Post("/upload", uploadHandler.Upload)
		})

		// ──── Session History ────
		r.Route("/sessions", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/", sessionsHandler.List)
			r.Get("/{id}", sessionsHandler.GetTranscript)
			r.Post("/{id}/end", sessionsHandler.End)
			r.Delete("/{id}", sessionsHandler.Delete)
		})

		// ──── WebSocket Chat ────
		r.Get("/ws", wsHub.HandleWebSocket)
	})

	return r
}
