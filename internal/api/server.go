// Package api serves the avatar HTTP API.
//
//	POST /api/avatar             render and publish, responds with the PNG
//	POST /api/setAvatar          alias of /api/avatar
//	POST /api/preview?size=N     render only
//	GET  /api/avatarArchive      one page of the archive (?limit=&cursor=)
//	GET  /api/options            supported parameter values
//	GET  /api/hello              liveness and version
package api

import (
	"context"
	stderrors "errors"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/nornoe/skyavatar/pkg/archive"
	"github.com/nornoe/skyavatar/pkg/pipeline"
	"github.com/nornoe/skyavatar/pkg/render/overlay"
)

// maxBodyBytes bounds request bodies; parameters are a few hundred bytes.
const maxBodyBytes = 64 << 10

// Server holds the handlers' dependencies.
type Server struct {
	runner  *pipeline.Runner
	browser *archive.Browser
	assets  *overlay.Store
	logger  *log.Logger
}

// New creates a server. browser may be nil when no account is configured;
// the archive endpoint then reports 401.
func New(runner *pipeline.Runner, browser *archive.Browser, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		runner:  runner,
		browser: browser,
		assets:  runner.Renderer.Layers.Store,
		logger:  logger,
	}
}

// Routes returns the router with middleware installed.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Post("/avatar", s.handleAvatar)
		r.Post("/setAvatar", s.handleAvatar)
		r.Post("/preview", s.handlePreview)
		r.Get("/avatarArchive", s.handleArchive)
		r.Get("/options", s.handleOptions)
		r.Get("/hello", s.handleHello)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: errorDetail{Code: "NOT_FOUND", Message: "no such endpoint"}})
	})
	return r
}

// HTTPConfig holds listener settings.
type HTTPConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, cfg HTTPConfig) error {
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Routes(),
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.WriteTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
