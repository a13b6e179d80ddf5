package server

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/okbk/onepage/internal/config"
	"github.com/okbk/onepage/internal/view"
)

const (
	adminCookie   = "admin_token"
	adminTokenTTL = 24 * time.Hour
	devPassword   = "admin123"
)

// adminAuth checks dashboard credentials and issues signed session cookies.
type adminAuth struct {
	username     string
	password     string
	passwordHash string
	secret       []byte
}

func newAdminAuth(cfg config.AdminConfig) (*adminAuth, error) {
	a := &adminAuth{
		username:     cfg.Username,
		password:     cfg.Password,
		passwordHash: cfg.PasswordHash,
		secret:       []byte(cfg.Secret),
	}

	if len(a.secret) == 0 {
		b := make([]byte, 32)
		if _, err := rand.Read(b); err != nil {
			return nil, errors.Wrap(err, "generating admin secret")
		}
		a.secret = []byte(hex.EncodeToString(b))
	}

	if a.password == "" && a.passwordHash == "" && gin.Mode() == gin.DebugMode {
		slog.Warn("using default admin password; set PORTFOLIO_ADMIN__PASSWORD_HASH")
		a.password = devPassword
	}
	return a, nil
}

// enabled reports whether any password is configured.
func (a *adminAuth) enabled() bool {
	return a.password != "" || a.passwordHash != ""
}

func (a *adminAuth) check(username, password string) bool {
	if !a.enabled() {
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(a.username)) == 1
	if a.passwordHash != "" {
		return bcrypt.CompareHashAndPassword([]byte(a.passwordHash), []byte(password)) == nil && userOK
	}
	return subtle.ConstantTimeCompare([]byte(password), []byte(a.password)) == 1 && userOK
}

func (a *adminAuth) issue(now time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   a.username,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(adminTokenTTL)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", errors.Wrap(err, "signing admin token")
	}
	return token, nil
}

func (a *adminAuth) verify(tokenString string) error {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return err
	}
	if claims.Subject != a.username {
		return errors.New("token subject mismatch")
	}
	return nil
}

// adminAuthMiddleware redirects to the login page without a valid token.
func (s *Server) adminAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(adminCookie)
		if err != nil || s.admin.verify(token) != nil {
			c.Redirect(http.StatusFound, "/admin/login")
			c.Abort()
			return
		}
		c.Next()
	}
}

// visitorTracking records full page loads in the background. Fragment
// requests, assets and admin pages are not visits, and Do Not Track is honored.
func (s *Server) visitorTracking() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if s.visits == nil || c.Request.Method != http.MethodGet || path != "/" {
			c.Next()
			return
		}
		if c.GetHeader("DNT") == "1" {
			c.Next()
			return
		}

		ip, ua := c.ClientIP(), c.GetHeader("User-Agent")
		go func() {
			if err := s.visits.RecordVisit(context.Background(), ip, ua, path); err != nil {
				slog.Error("recording visit", "error", err)
			}
		}()
		c.Next()
	}
}

func (s *Server) setupAdminRoutes(r *gin.Engine) {
	r.GET("/admin/login", func(c *gin.Context) {
		c.HTML(http.StatusOK, view.AdminLogin, gin.H{})
	})

	r.POST("/admin/login", func(c *gin.Context) {
		username := c.PostForm("username")
		password := c.PostForm("password")

		if !s.admin.check(username, password) {
			slog.Warn("failed admin login", "client", s.hashIP(c.ClientIP()))
			c.HTML(http.StatusUnauthorized, view.AdminLogin, gin.H{
				"error": "Invalid credentials",
			})
			return
		}

		token, err := s.admin.issue(time.Now())
		if err != nil {
			slog.Error("issuing admin token", "error", err)
			c.HTML(http.StatusInternalServerError, view.AdminError, gin.H{"error": "Login failed"})
			return
		}
		c.SetSameSite(http.SameSiteStrictMode)
		c.SetCookie(adminCookie, token, int(adminTokenTTL.Seconds()), "/admin", "", false, true)
		slog.Info("admin login", "client", s.hashIP(c.ClientIP()))
		c.Redirect(http.StatusFound, "/admin/dashboard")
	})

	r.GET("/admin/logout", func(c *gin.Context) {
		c.SetCookie(adminCookie, "", -1, "/admin", "", false, true)
		c.Redirect(http.StatusFound, "/admin/login")
	})

	admin := r.Group("/admin")
	admin.Use(s.adminAuthMiddleware())

	admin.GET("/dashboard", func(c *gin.Context) {
		if s.visits == nil {
			c.HTML(http.StatusServiceUnavailable, view.AdminError, gin.H{"error": "Visit counting is disabled"})
			return
		}
		stats, err := s.visits.Stats(c.Request.Context())
		if err != nil {
			slog.Error("loading admin stats", "error", err)
			c.HTML(http.StatusInternalServerError, view.AdminError, gin.H{"error": "Failed to load statistics"})
			return
		}
		c.HTML(http.StatusOK, view.AdminDashboard, gin.H{
			"stats":    stats,
			"sessions": s.sessions.Len(),
		})
	})

	admin.GET("/api/stats", func(c *gin.Context) {
		if s.visits == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "visit counting is disabled"})
			return
		}
		stats, err := s.visits.Stats(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, stats)
	})

	admin.POST("/privacy/cleanup", func(c *gin.Context) {
		if s.visits == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "visit counting is disabled"})
			return
		}
		n, err := s.visits.Cleanup(c.Request.Context(), s.cfg.Visits.Retention)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"removed": n})
	})
}

func (s *Server) hashIP(ip string) string {
	if s.visits == nil {
		return "-"
	}
	return s.visits.HashIP(ip)
}
