// Package api serves the catalog JSON endpoints, the image files and the
// operational endpoints on a chi router.
package api

import (
	"context"
	"encoding/json"
	"io/fs"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/okian/gamestore/internal/domain/catalog"
	"github.com/okian/gamestore/internal/domain/model"
	"github.com/okian/gamestore/internal/domain/progress"
	"github.com/okian/gamestore/pkg/logger"
)

// Dependencies required by HTTP handlers.
type Dependencies interface {
	Games(ctx context.Context) ([]model.GameRecord, error)
	Images(ctx context.Context) ([]string, error)
	Catalog(ctx context.Context, q catalog.Query) (catalog.Page, error)
	Progress() progress.Snapshot
}

// Server wires HTTP routes for the catalog API.
type Server struct {
	router chi.Router
	logger logger.Logger

	corsOrigins  []string
	assetsDir    string
	assetsPrefix string

	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	gamesHandler   *GamesHandler
	catalogHandler *CatalogHandler
}

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithLogger sets the request and error logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithCORSOrigins sets the origins allowed by the CORS middleware.
func WithCORSOrigins(origins []string) Option {
	return func(s *Server) {
		if len(origins) > 0 {
			s.corsOrigins = origins
		}
	}
}

// WithAssets serves the files of dir under prefix.
func WithAssets(dir, prefix string) Option {
	return func(s *Server) {
		s.assetsDir = dir
		if prefix != "" {
			s.assetsPrefix = prefix
		}
	}
}

// NewServer creates a new API server with all handlers and routes.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		router:       chi.NewRouter(),
		logger:       logger.Nop(),
		corsOrigins:  []string{"*"},
		assetsPrefix: "/gorseller/",
	}
	for _, opt := range opts {
		opt(s)
	}

	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(statsProvider)
	s.gamesHandler = NewGamesHandler(deps, s.logger)
	s.catalogHandler = NewCatalogHandler(deps, s.logger)

	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// Router exposes the router so other route groups can be mounted.
func (s *Server) Router() chi.Router { return s.router }

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupMiddleware() {
	s.router.Use(RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(RequestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(Metrics)
	s.router.Use(middleware.Compress(5))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", RequestIDHeader},
		ExposedHeaders: []string{RequestIDHeader},
		MaxAge:         300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Route("/api", func(r chi.Router) {
		r.Get("/games", s.gamesHandler.HandleGames)
		r.Get("/images", s.gamesHandler.HandleImages)
		r.Get("/catalog", s.catalogHandler.HandleCatalog)
		r.Get("/progress", s.catalogHandler.HandleProgress)
	})

	s.router.Get("/healthz", s.healthHandler.HandleHealth)
	s.router.Get("/metrics", s.healthHandler.HandleMetrics)
	s.router.Get("/stats", s.statsHandler.HandleStats)

	if s.assetsDir != "" {
		FileServer(s.router, s.assetsPrefix, http.Dir(s.assetsDir))
	}
}

// FileServer serves root under path, which must not contain URL parameters.
func FileServer(r chi.Router, path string, root http.FileSystem) {
	if strings.ContainsAny(path, "{}*") {
		panic("FileServer does not permit URL parameters.")
	}

	if path != "/" && path[len(path)-1] != '/' {
		r.Get(path, http.RedirectHandler(path+"/", http.StatusMovedPermanently).ServeHTTP)
		path += "/"
	}
	path += "*"

	r.Get(path, func(w http.ResponseWriter, req *http.Request) {
		rctx := chi.RouteContext(req.Context())
		pathPrefix := strings.TrimSuffix(rctx.RoutePattern(), "/*")
		h := http.StripPrefix(pathPrefix, http.FileServer(noDirFS{root}))
		h.ServeHTTP(w, req)
	})
}

// noDirFS hides directory listings.
type noDirFS struct {
	root http.FileSystem
}

func (n noDirFS) Open(name string) (http.File, error) {
	f, err := n.root.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if info.IsDir() {
		_ = f.Close()
		return nil, fs.ErrNotExist
	}
	return f, nil
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
