package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/okbk/onepage/internal/modal"
	"github.com/okbk/onepage/internal/page"
	"github.com/okbk/onepage/internal/tracker"
	"github.com/okbk/onepage/internal/view"
)

const pageKey = "page"

// PageHeader carries the id of the document a fragment request came from.
const PageHeader = "X-Page-Id"

// requirePage attaches the page that rendered the requesting document.
// Requests without a live page get 410 and an HX-Refresh so htmx reloads.
func (s *Server) requirePage() gin.HandlerFunc {
	return func(c *gin.Context) {
		_, p, err := s.sessions.Lookup(c.GetHeader(PageHeader))
		if err != nil {
			c.Header("HX-Refresh", "true")
			c.String(http.StatusGone, "page expired, reload")
			c.Abort()
			return
		}
		c.Set(pageKey, p)
		c.Next()
	}
}

func pageFrom(c *gin.Context) *page.Page {
	return c.MustGet(pageKey).(*page.Page)
}

func (s *Server) render(c *gin.Context, status int, name string, p *page.Page) {
	c.HTML(status, name, view.NewData(p.Snapshot()))
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"sessions": s.sessions.Len(),
	})
}

// handleIndex mounts a fresh page for every document load, so a reload starts
// light with the first section active and the modal closed.
func (s *Server) handleIndex(c *gin.Context) {
	id, p := s.sessions.Create()
	data := view.NewData(p.Snapshot())
	data.PageID = id.String()
	c.HTML(http.StatusOK, view.Index, data)
}

// handleRelease unmounts a page whose document was discarded. The id comes
// from the query string because sendBeacon cannot set headers.
func (s *Server) handleRelease(c *gin.Context) {
	if s.sessions.Release(c.Query("id")) {
		slog.Debug("page released")
	}
	c.Status(http.StatusNoContent)
}

// handleThemeToggle flips the theme and tells the client to update the
// <html> marker through an HX-Trigger event.
func (s *Server) handleThemeToggle(c *gin.Context) {
	p := pageFrom(c)
	dark := p.ToggleTheme()

	trigger, _ := json.Marshal(map[string]any{
		"themeChanged": map[string]bool{"dark": dark},
	})
	c.Header("HX-Trigger", string(trigger))
	s.render(c, http.StatusOK, view.ThemeButton, p)
}

type regionRequest struct {
	ID     string  `json:"id" binding:"required"`
	Top    float64 `json:"top"`
	Bottom float64 `json:"bottom"`
}

type frameRequest struct {
	Viewport float64         `json:"viewport" binding:"gt=0"`
	Regions  []regionRequest `json:"regions" binding:"dive"`
}

// handleFrame feeds one scroll frame to the section tracker and returns the
// navigation fragment with the active section highlighted.
func (s *Server) handleFrame(c *gin.Context) {
	var req frameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.String(http.StatusBadRequest, "invalid frame: %v", err)
		return
	}

	rects := make(map[string]tracker.Rect, len(req.Regions))
	for _, r := range req.Regions {
		rects[r.ID] = tracker.Rect{Top: r.Top, Bottom: r.Bottom}
	}

	p := pageFrom(c)
	p.ObserveFrame(req.Viewport, rects)
	s.render(c, http.StatusOK, view.Nav, p)
}

func (s *Server) handleOpenProject(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.String(http.StatusBadRequest, "invalid project id")
		return
	}

	p := pageFrom(c)
	if err := p.OpenProject(id); err != nil {
		if errors.Is(err, page.ErrUnknownProject) {
			c.String(http.StatusNotFound, "project not found")
			return
		}
		slog.Error("opening project", "project", id, "error", err)
		c.String(http.StatusInternalServerError, "could not open project")
		return
	}
	s.render(c, http.StatusOK, view.Modal, p)
}

// handleCloseModal serves the backdrop and close button. Escape arrives
// through handleKey.
func (s *Server) handleCloseModal(c *gin.Context) {
	via := modal.Trigger(strings.ToLower(c.DefaultQuery("via", string(modal.TriggerButton))))

	p := pageFrom(c)
	if !p.CloseModal(via) {
		c.String(http.StatusBadRequest, "unsupported close trigger %q", via)
		return
	}
	s.render(c, http.StatusOK, view.Modal, p)
}

func (s *Server) handleKey(c *gin.Context) {
	key := c.PostForm("key")
	if key == "" {
		c.String(http.StatusBadRequest, "missing key")
		return
	}

	p := pageFrom(c)
	p.PressKey(key)
	s.render(c, http.StatusOK, view.Modal, p)
}

type contactForm struct {
	Name    string `form:"name" binding:"required"`
	Email   string `form:"email" binding:"required,email"`
	Message string `form:"message" binding:"required"`
}

// handleContact accepts the decorative contact form. Nothing is sent or kept.
func (s *Server) handleContact(c *gin.Context) {
	var form contactForm
	if err := c.ShouldBind(&form); err != nil {
		c.String(http.StatusBadRequest, "Please fill in every field.")
		return
	}

	slog.Info("contact form submission suppressed", "message_length", len(form.Message))
	c.HTML(http.StatusOK, view.ContactNotice, gin.H{"Name": form.Name})
}
