package router

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/townerr/flashmind/internal/api/http/handler"
	"github.com/townerr/flashmind/internal/api/http/middleware"
	"github.com/townerr/flashmind/internal/logger"
	"github.com/townerr/flashmind/internal/model"
	"github.com/townerr/flashmind/internal/service"
)

// Router wires handlers and middleware into an HTTP handler.
type Router struct {
	authService    *service.Auth
	sessionService *service.Session
	tokenService   *service.TokenService
	contextManager model.ContextManager
	allowedOrigins []string
	logger         *logger.Logger
}

// New creates a new Router instance.
func New(
	authService *service.Auth,
	sessionService *service.Session,
	tokenService *service.TokenService,
	contextManager model.ContextManager,
	allowedOrigins []string,
	logger *logger.Logger,
) *Router {
	return &Router{
		authService:    authService,
		sessionService: sessionService,
		tokenService:   tokenService,
		contextManager: contextManager,
		allowedOrigins: allowedOrigins,
		logger:         logger,
	}
}

// Register builds the route table. Auth endpoints and the public deck
// listing skip token validation; everything else under /api requires a
// bearer token.
func (r *Router) Register() http.Handler {
	logging := middleware.NewLogging(r.logger)
	authenticate := middleware.NewAuthenticate(r.tokenService, r.contextManager, r.logger)

	authHandler := handler.NewAuth(r.authService, r.tokenService, r.contextManager, r.logger)
	sessionHandler := handler.NewSession(r.sessionService, r.contextManager, r.logger)

	root := mux.NewRouter()

	root.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)

	api := root.PathPrefix("/api").Subrouter()

	api.HandleFunc("/auth/signup", authHandler.SignUp).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", authHandler.LogIn).Methods(http.MethodPost)
	api.HandleFunc("/auth/guest", authHandler.SignInGuest).Methods(http.MethodPost)
	api.HandleFunc("/auth/refresh", authHandler.Refresh).Methods(http.MethodPost)
	api.HandleFunc("/auth/logout", authHandler.LogOut).Methods(http.MethodPost)

	api.HandleFunc("/sessions/public", sessionHandler.ListPublic).Methods(http.MethodGet)

	protected := api.PathPrefix("").Subrouter()
	protected.Use(authenticate.Handle)
	protected.HandleFunc("/me", authHandler.Me).Methods(http.MethodGet)
	protected.HandleFunc("/sessions", sessionHandler.Create).Methods(http.MethodPost)
	protected.HandleFunc("/sessions", sessionHandler.List).Methods(http.MethodGet)
	protected.HandleFunc("/sessions/{sessionID}", sessionHandler.Update).Methods(http.MethodPatch)
	protected.HandleFunc("/sessions/{sessionID}", sessionHandler.Delete).Methods(http.MethodDelete)
	protected.HandleFunc("/sessions/{sessionID}/copy", sessionHandler.Copy).Methods(http.MethodPost)
	protected.HandleFunc("/sessions/{sessionID}/export", sessionHandler.Export).Methods(http.MethodGet)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   r.allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           86400,
	})

	return logging.Handle(corsHandler.Handler(root))
}
