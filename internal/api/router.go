package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/scrimline/scrimline-chat/internal/api/handler"
	"github.com/scrimline/scrimline-chat/internal/api/middleware"
	"github.com/scrimline/scrimline-chat/internal/services/auth"
	"github.com/scrimline/scrimline-chat/internal/services/chat"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger      *slog.Logger
	AuthService *auth.Service
	Dispatcher  *chat.Dispatcher

	// SocketHandler serves GET /ws; nil disables the socket endpoint
	SocketHandler http.Handler
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	sessionHandler := handler.NewSessionHandler(cfg.AuthService)
	conversationHandler := handler.NewConversationHandler(cfg.Dispatcher)
	tryoutHandler := handler.NewTryoutHandler(cfg.Dispatcher)

	authMiddleware := middleware.Auth(cfg.AuthService)
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	// Internal surface: reachable only from the platform network, no
	// bearer auth
	internal := r.PathPrefix("/internal").Subrouter()
	internal.Use(recoveryMiddleware)
	internal.Use(loggingMiddleware)
	internal.HandleFunc("/sessions", sessionHandler.Issue).Methods(http.MethodPost)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	// Health check endpoint (no auth)
	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	// Everything else requires a session
	protected := api.NewRoute().Subrouter()
	protected.Use(authMiddleware)

	protected.HandleFunc("/me", sessionHandler.Me).Methods(http.MethodGet)
	protected.HandleFunc("/logout", sessionHandler.Logout).Methods(http.MethodPost)

	protected.HandleFunc("/conversations/{key}/messages", conversationHandler.History).Methods(http.MethodGet)
	protected.HandleFunc("/messages", conversationHandler.Send).Methods(http.MethodPost)
	protected.HandleFunc("/messages/invitation", conversationHandler.SendInvitation).Methods(http.MethodPost)
	protected.HandleFunc("/messages/tournament", conversationHandler.SendTournamentReference).Methods(http.MethodPost)
	protected.HandleFunc("/messages/{id}/invitation/respond", conversationHandler.RespondInvitation).Methods(http.MethodPost)

	protected.HandleFunc("/applications/{id}/tryout", tryoutHandler.StartFromApplication).Methods(http.MethodPost)
	protected.HandleFunc("/approaches/{id}/tryout", tryoutHandler.StartFromApproach).Methods(http.MethodPost)
	protected.HandleFunc("/tryouts/{id}", tryoutHandler.Get).Methods(http.MethodGet)
	protected.HandleFunc("/tryouts/{id}/offer", tryoutHandler.Offer).Methods(http.MethodPost)
	protected.HandleFunc("/tryouts/{id}/offer/respond", tryoutHandler.RespondOffer).Methods(http.MethodPost)
	protected.HandleFunc("/tryouts/{id}/end", tryoutHandler.End).Methods(http.MethodPost)

	// Socket endpoint does its own handshake auth
	if cfg.SocketHandler != nil {
		r.Handle("/ws", cfg.SocketHandler).Methods(http.MethodGet)
	}

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
