// Package server serves the portfolio page and its HTMX fragment endpoints.
package server

import (
	"context"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/okbk/onepage/internal/config"
	"github.com/okbk/onepage/internal/content"
	"github.com/okbk/onepage/internal/modal"
	"github.com/okbk/onepage/internal/page"
	"github.com/okbk/onepage/internal/session"
	"github.com/okbk/onepage/internal/tracker"
	"github.com/okbk/onepage/internal/view"
	"github.com/okbk/onepage/internal/visits"
)

// Server wires the router to the live pages, one per rendered document.
type Server struct {
	cfg      *config.Config
	catalog  *content.Catalog
	sessions *session.Store
	visits   *visits.Store
	tmpl     *template.Template
	admin    *adminAuth
	engine   *gin.Engine
}

// New builds a server. store may be nil, in which case visits are not counted
// and the dashboard reports that.
func New(cfg *config.Config, catalog *content.Catalog, store *visits.Store) (*Server, error) {
	tmpl, err := view.Templates()
	if err != nil {
		return nil, err
	}
	admin, err := newAdminAuth(cfg.Admin)
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:     cfg,
		catalog: catalog,
		visits:  store,
		tmpl:    tmpl,
		admin:   admin,
	}
	s.sessions = session.NewStore(cfg.Session.TTL, s.newPage)
	s.engine = s.routes()
	return s, nil
}

// Sessions returns the live page store.
func (s *Server) Sessions() *session.Store {
	return s.sessions
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) newPage() *page.Page {
	p := page.New(s.catalog, tracker.DefaultBand, page.Hooks{
		ProjectOpened: s.recordProjectView,
		ModalClosed: func(via modal.Trigger) {
			slog.Debug("modal closed", "via", via)
		},
	})
	// the page template renders every navigation anchor
	p.Mount(nil)
	return p
}

func (s *Server) recordProjectView(id int) {
	if s.visits == nil {
		return
	}
	go func() {
		if err := s.visits.RecordProjectView(context.Background(), id); err != nil {
			slog.Error("recording project view", "project", id, "error", err)
		}
	}()
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if gin.Mode() == gin.DebugMode {
		r.Use(gin.Logger())
	}
	r.SetHTMLTemplate(s.tmpl)
	r.StaticFS("/static", http.FS(view.Static()))

	r.GET("/healthz", s.handleHealth)

	r.GET("/", s.visitorTracking(), s.handleIndex)
	r.POST("/page/release", s.handleRelease)
	r.POST("/contact", s.handleContact)

	live := r.Group("/")
	live.Use(s.requirePage())
	live.POST("/theme/toggle", s.handleThemeToggle)
	live.POST("/sections/frame", s.handleFrame)
	live.GET("/projects/:id", s.handleOpenProject)
	live.POST("/modal/close", s.handleCloseModal)
	live.POST("/keys", s.handleKey)

	s.setupAdminRoutes(r)
	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting webserver", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "webserver")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutting down webserver")
	}
	slog.Info("webserver terminated")
	return nil
}
