package api

import (
	"net/http"
	"time"

	handlers "pantry-server/src/api/handlers"
	"pantry-server/src/config"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
)

type Server struct {
	Router  *chi.Mux
	Handler *handlers.Handler
	cors    *cors.Cors
}

func NewServer(cfg *config.Config, handler *handlers.Handler) *Server {
	server := &Server{
		Router:  chi.NewRouter(),
		Handler: handler,
		cors: cors.New(cors.Options{
			AllowedOrigins: cfg.Service.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete},
			AllowedHeaders: []string{"Authorization", "Content-Type"},
		}),
	}
	server.InitRoutes()
	return server
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}

func (s *Server) InitRoutes() {
	s.Router.Use(middleware.RequestID)
	s.Router.Use(s.Handler.RequestLogger)
	s.Router.Use(middleware.Recoverer)
	s.Router.Use(s.cors.Handler)

	s.Router.Get("/alive", handlers.Healthcheck)
	s.Router.Get("/", s.Handler.Root)

	s.Router.Route("/api/auth", func(r chi.Router) {
		r.Post("/signup", s.Handler.Signup)
		r.Post("/login", s.Handler.Login)
		r.Group(func(r chi.Router) {
			r.Use(s.Handler.Authenticator)
			r.Get("/me", s.Handler.GetCurrentUser)
			r.Patch("/me", s.Handler.UpdateCurrentUser)
		})
	})

	s.Router.Route("/api/images", func(r chi.Router) {
		r.Use(s.Handler.Authenticator)
		r.Post("/upload", s.Handler.UploadImage)
	})

	s.Router.Route("/api/sync", func(r chi.Router) {
		r.Use(s.Handler.Authenticator)
		r.Get("/status", s.Handler.GetSyncStatus)
		r.Get("/{fileType}/pull", s.Handler.PullSync)
		r.Post("/{fileType}/push", s.Handler.PushSync)
		r.Delete("/{fileType}/data", s.Handler.DeleteSyncData)
	})
}

func NewHTTPServer(cfg *config.Config, server *Server) *http.Server {
	httpServer := &http.Server{
		Addr:              ":" + cfg.Service.Port,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		Handler:           server,
	}
	return httpServer
}
