package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/improbable-eng/grpc-web/go/grpcweb"

	"grandpa/config"
	"grandpa/infrastructure"
	"grandpa/internal/auth"
	"grandpa/internal/cache"
	"grandpa/internal/chat"
	"grandpa/internal/database"
	"grandpa/internal/files"
	"grandpa/internal/follow"
	"grandpa/internal/journal"
	"grandpa/internal/profile"
	"grandpa/internal/user"
)

// Handlers groups every feature handler mounted by the server.
type Handlers struct {
	Auth     *auth.JSONHandler
	User     *user.JSONHandler
	Follow   *follow.JSONHandler
	Chat     *chat.JSONHandler
	Socket   *chat.WSHandler
	Files    *files.JSONHandler
	Profiles *profile.Handler
	Journal  *journal.JSONHandler
}

type Server struct {
	router  *mux.Router
	handler http.Handler
	db      *database.Database
	cache   *cache.RedisCache
	grpcWeb *grpcweb.WrappedGrpcServer
}

func NewServer(
	cfg *config.Config,
	db *database.Database,
	redis *cache.RedisCache,
	media *files.LocalStorage,
	authMiddleware *auth.AuthMiddleware,
	handlers Handlers,
	grpcWeb *grpcweb.WrappedGrpcServer,
) *Server {
	server := &Server{
		router:  mux.NewRouter(),
		db:      db,
		cache:   redis,
		grpcWeb: grpcWeb,
	}
	server.setupRoutes(cfg, media, authMiddleware, handlers)
	server.handler = Logger(RateLimitMiddleware(cfg.RateLimitRPS)(http.HandlerFunc(server.route)))
	return server
}

func (s *Server) setupRoutes(cfg *config.Config, media *files.LocalStorage, authMiddleware *auth.AuthMiddleware, h Handlers) {
	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		infrastructure.WriteError(w, r, infrastructure.ErrNotFound)
	})

	s.router.HandleFunc("/health", s.healthCheck).Methods(http.MethodGet)
	s.router.PathPrefix(cfg.MediaURL).Handler(files.MediaHandler(media, cfg.MediaURL)).Methods(http.MethodGet, http.MethodHead)

	// The socket authenticates with a query token.
	chat.SetupWSRoutes(s.router, h.Socket)

	api := s.router.PathPrefix("/api").Subrouter()
	public := api.NewRoute().Subrouter()
	protected := api.NewRoute().Subrouter()
	protected.Use(authMiddleware.Authenticate)

	auth.SetupJSONAuthRoutes(public, h.Auth)
	user.SetupJSONRoutes(public, protected, h.User)
	follow.SetupJSONRoutes(protected, h.Follow)
	chat.SetupJSONRoutes(protected, h.Chat)
	files.SetupJSONRoutes(protected, h.Files)
	profile.SetupJSONRoutes(protected, h.Profiles)
	journal.SetupJSONRoutes(protected, h.Journal)
}

func (s *Server) route(w http.ResponseWriter, r *http.Request) {
	if s.grpcWeb != nil && (s.grpcWeb.IsGrpcWebRequest(r) || s.grpcWeb.IsAcceptableGrpcCorsRequest(r)) {
		s.grpcWeb.ServeHTTP(w, r)
		return
	}
	s.router.ServeHTTP(w, r)
}

// Handler is the full HTTP stack: logging, rate limiting, gRPC-Web and the
// REST routes.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	body := map[string]string{"status": "ok", "database": "ok", "redis": "disabled"}

	if err := s.db.PingContext(ctx); err != nil {
		status = http.StatusServiceUnavailable
		body["status"] = "unavailable"
		body["database"] = err.Error()
	}
	if s.cache != nil {
		body["redis"] = "ok"
		if err := s.cache.Client.Ping(ctx).Err(); err != nil {
			status = http.StatusServiceUnavailable
			body["status"] = "unavailable"
			body["redis"] = err.Error()
		}
	}

	infrastructure.WriteJSON(w, status, body)
}
