package api

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/handlers"

	"github.com/Priyankak00/skilllink-live/internal/config"
	"github.com/Priyankak00/skilllink-live/internal/database"
	"github.com/Priyankak00/skilllink-live/internal/server"
	"github.com/Priyankak00/skilllink-live/internal/stats"
)

type App struct {
	log            *log.Logger
	db             database.Repository
	mux            *http.Server
	live           *server.LiveServer
	stats          stats.StatsProvider
	signingKey     []byte
	allowedOrigins []string
}

func NewApp(mux *http.ServeMux, logger *log.Logger, live *server.LiveServer, db database.Repository,
	statsProvider stats.StatsProvider, cfg *config.Config) *App {
	s := &App{
		log:            logger,
		db:             db,
		live:           live,
		stats:          statsProvider,
		signingKey:     cfg.SigningKey,
		allowedOrigins: cfg.AllowedOrigins,
	}

	mux.HandleFunc("POST /api/auth/register", s.createAccount)
	mux.HandleFunc("POST /api/auth/login", s.login)
	mux.HandleFunc("GET /api/auth/session", s.authMiddleware(s.session))
	mux.Handle("GET /api/auth/logout", s.authMiddleware(s.logout))
	mux.Handle("GET /api/projects/{id}/messages", s.authMiddleware(s.getProjectMessages))
	mux.Handle("POST /api/projects/{id}/messages", s.authMiddleware(s.postProjectMessage))
	mux.Handle("GET /api/auction", s.authMiddleware(s.getAuctionItem))
	mux.Handle("POST /api/auction", s.authMiddleware(s.createAuctionItem))
	mux.Handle("GET /ws/chat/{roomId}", s.wsAuthMiddleware(s.serveChatWs))
	mux.Handle("GET /ws/auction", s.wsAuthMiddleware(s.serveAuctionWs))

	h := handlers.CORS(
		handlers.MaxAge(3600),
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Origin", "Content-Type", "Accept"}),
		handlers.AllowCredentials(),
	)(mux)

	h = s.errorHandler(h)

	srv := &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: h,
	}

	s.mux = srv
	return s
}

func (s *App) Start() error {
	s.log.Printf("starting server on %s\n", s.mux.Addr)
	return s.mux.ListenAndServe()
}

func (s *App) Shutdown(ctx context.Context) error {
	s.log.Println("shutting down HTTP server...")
	if err := s.mux.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	return nil
}
