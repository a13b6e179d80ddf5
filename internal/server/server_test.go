package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/okbk/onepage/internal/config"
	"github.com/okbk/onepage/internal/content"
	"github.com/okbk/onepage/internal/visits"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// client behaves like one browser tab: it keeps cookies and sends the page
// id of the last loaded document with every request, as htmx does.
type client struct {
	t       *testing.T
	handler http.Handler
	cookies map[string]*http.Cookie
	pageID  string
}

func newTestServer(t *testing.T, withVisits bool) (*Server, *client) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Admin.Password = "s3cret"
	cfg.Admin.Secret = "test-secret"

	var store *visits.Store
	if withVisits {
		dsn := fmt.Sprintf("file:%s?mode=memory", strings.ReplaceAll(t.Name(), "/", "_"))
		var err error
		store, err = visits.Open(context.Background(), dsn)
		require.NoError(t, err)
		t.Cleanup(func() { store.Close() })
	}

	s, err := New(cfg, content.Default(), store)
	require.NoError(t, err)
	t.Cleanup(s.Sessions().Close)
	return s, &client{t: t, handler: s.Handler(), cookies: map[string]*http.Cookie{}}
}

func (c *client) do(method, target string, body string, contentType string) *httptest.ResponseRecorder {
	c.t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", contentType)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	if c.pageID != "" {
		req.Header.Set(PageHeader, c.pageID)
	}

	w := httptest.NewRecorder()
	c.handler.ServeHTTP(w, req)
	if method == http.MethodGet && target == "/" && w.Code == http.StatusOK {
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(w.Body.Bytes()))
		require.NoError(c.t, err)
		c.pageID = doc.Find("body").AttrOr("data-page-id", "")
	}
	for _, ck := range w.Result().Cookies() {
		if ck.MaxAge < 0 {
			delete(c.cookies, ck.Name)
			continue
		}
		c.cookies[ck.Name] = ck
	}
	return w
}

func (c *client) get(target string) *httptest.ResponseRecorder {
	return c.do(http.MethodGet, target, "", "")
}

func (c *client) postForm(target string, values url.Values) *httptest.ResponseRecorder {
	return c.do(http.MethodPost, target, values.Encode(), "application/x-www-form-urlencoded")
}

func (c *client) postJSON(target string, v any) *httptest.ResponseRecorder {
	data, err := json.Marshal(v)
	require.NoError(c.t, err)
	return c.do(http.MethodPost, target, string(data), "application/json")
}

func parse(t *testing.T, w *httptest.ResponseRecorder) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	return doc
}

func frame(scroll float64) map[string]any {
	var regions []map[string]any
	for i, s := range content.Sections {
		top := float64(i)*900 - scroll
		regions = append(regions, map[string]any{"id": s.ID, "top": top, "bottom": top + 900})
	}
	return map[string]any{"viewport": 1000, "regions": regions}
}

func activeSection(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	return parse(t, w).Find("a.active").AttrOr("data-section", "")
}

// modalOpen asks the page for its modal fragment with a key that never closes it.
func modalOpen(t *testing.T, c *client) bool {
	t.Helper()
	w := c.postForm("/keys", url.Values{"key": {"Enter"}})
	require.Equal(t, http.StatusOK, w.Code)
	return parse(t, w).Find(".modal").Length() > 0
}

func TestHealthEndpoint(t *testing.T) {
	_, c := newTestServer(t, false)

	w := c.get("/healthz")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestIndex_MountsPagePerDocument(t *testing.T) {
	s, c := newTestServer(t, false)

	w := c.get("/")
	require.Equal(t, http.StatusOK, w.Code)
	first := c.pageID
	require.NotEmpty(t, first)
	assert.Equal(t, 1, s.Sessions().Len())

	doc := parse(t, w)
	assert.Contains(t, doc.Find("body").AttrOr("hx-headers", ""), first)
	assert.Equal(t, "home", doc.Find("#nav-links a.active").AttrOr("data-section", ""))
	assert.Equal(t, len(content.Default().Skills), doc.Find(".progress-bar").Length())

	c.get("/")
	assert.NotEqual(t, first, c.pageID)
	assert.Equal(t, 2, s.Sessions().Len())
}

func TestThemeToggle(t *testing.T) {
	_, c := newTestServer(t, false)
	c.get("/")

	w := c.do(http.MethodPost, "/theme/toggle", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"themeChanged":{"dark":true}}`, w.Header().Get("HX-Trigger"))
	assert.Equal(t, "true", parse(t, w).Find("#theme-toggle").AttrOr("data-dark", ""))

	w = c.do(http.MethodPost, "/theme/toggle", "", "")
	assert.JSONEq(t, `{"themeChanged":{"dark":false}}`, w.Header().Get("HX-Trigger"))
	assert.Equal(t, "false", parse(t, w).Find("#theme-toggle").AttrOr("data-dark", ""))
}

func TestReload_ResetsPageState(t *testing.T) {
	_, c := newTestServer(t, false)
	c.get("/")

	c.do(http.MethodPost, "/theme/toggle", "", "")
	require.Equal(t, http.StatusOK, c.get("/projects/2").Code)
	c.postJSON("/sections/frame", frame(0))
	require.Equal(t, "works", activeSection(t, c.postJSON("/sections/frame", frame(1800))))

	doc := parse(t, c.get("/"))
	assert.Equal(t, "", doc.Find("html").AttrOr("class", "x"))
	assert.Equal(t, 0, doc.Find(".modal").Length())
	assert.Equal(t, "home", doc.Find("#nav-links a.active").AttrOr("data-section", ""))
	assert.Equal(t, "false", doc.Find("#theme-toggle").AttrOr("data-dark", ""))
	assert.False(t, modalOpen(t, c))
}

func TestFragments_RequireLivePage(t *testing.T) {
	tests := []struct {
		name string
		send func(c *client) *httptest.ResponseRecorder
	}{
		{"theme", func(c *client) *httptest.ResponseRecorder {
			return c.do(http.MethodPost, "/theme/toggle", "", "")
		}},
		{"frame", func(c *client) *httptest.ResponseRecorder {
			return c.postJSON("/sections/frame", frame(0))
		}},
		{"project", func(c *client) *httptest.ResponseRecorder {
			return c.get("/projects/1")
		}},
		{"close", func(c *client) *httptest.ResponseRecorder {
			return c.do(http.MethodPost, "/modal/close?via=button", "", "")
		}},
		{"keys", func(c *client) *httptest.ResponseRecorder {
			return c.postForm("/keys", url.Values{"key": {"Escape"}})
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, c := newTestServer(t, false)

			w := tt.send(c)
			assert.Equal(t, http.StatusGone, w.Code)
			assert.Equal(t, "true", w.Header().Get("HX-Refresh"))

			c.pageID = "3f1c1ad6-5d3e-4c55-9d52-4bb0b6f7f1a2"
			assert.Equal(t, http.StatusGone, tt.send(c).Code)
			assert.Zero(t, s.Sessions().Len())
		})
	}
}

func TestPageRelease(t *testing.T) {
	s, c := newTestServer(t, false)
	c.get("/")
	require.Equal(t, 1, s.Sessions().Len())

	w := c.do(http.MethodPost, "/page/release?id="+c.pageID, "", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Zero(t, s.Sessions().Len())
	assert.Equal(t, http.StatusGone, c.do(http.MethodPost, "/theme/toggle", "", "").Code)

	w = c.do(http.MethodPost, "/page/release?id=unknown", "", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestSectionFrames(t *testing.T) {
	_, c := newTestServer(t, false)
	c.get("/")

	assert.Equal(t, "home", activeSection(t, c.postJSON("/sections/frame", frame(0))))
	assert.Equal(t, "works", activeSection(t, c.postJSON("/sections/frame", frame(1900))))
	assert.Equal(t, "home", activeSection(t, c.postJSON("/sections/frame", frame(0))))
}

func TestSectionFrame_NothingInBandKeepsActive(t *testing.T) {
	_, c := newTestServer(t, false)
	c.get("/")
	c.postJSON("/sections/frame", frame(1900))

	w := c.postJSON("/sections/frame", map[string]any{
		"viewport": 1000,
		"regions":  []map[string]any{{"id": "about", "top": 5000, "bottom": 5900}},
	})
	assert.Equal(t, "works", activeSection(t, w))
}

func TestSectionFrame_Invalid(t *testing.T) {
	_, c := newTestServer(t, false)
	c.get("/")

	w := c.postJSON("/sections/frame", map[string]any{"viewport": 0})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = c.postJSON("/sections/frame", map[string]any{
		"viewport": 1000,
		"regions":  []map[string]any{{"top": 0, "bottom": 10}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestModal_OpenThenEscape(t *testing.T) {
	_, c := newTestServer(t, false)
	c.get("/")

	w := c.get("/projects/2")
	require.Equal(t, http.StatusOK, w.Code)
	modal := parse(t, w).Find(".modal")
	require.Equal(t, 1, modal.Length())
	assert.Equal(t, "2", modal.AttrOr("data-project", ""))

	w = c.postForm("/keys", url.Values{"key": {"Escape"}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, strings.TrimSpace(w.Body.String()))
	assert.False(t, modalOpen(t, c))
}

func TestModal_CloseTriggers(t *testing.T) {
	tests := []struct {
		name  string
		close func(c *client) *httptest.ResponseRecorder
	}{
		{"backdrop", func(c *client) *httptest.ResponseRecorder {
			return c.do(http.MethodPost, "/modal/close?via=backdrop", "", "")
		}},
		{"button", func(c *client) *httptest.ResponseRecorder {
			return c.do(http.MethodPost, "/modal/close?via=button", "", "")
		}},
		{"escape", func(c *client) *httptest.ResponseRecorder {
			return c.postForm("/keys", url.Values{"key": {"Escape"}})
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, c := newTestServer(t, false)
			c.get("/")
			require.Equal(t, http.StatusOK, c.get("/projects/1").Code)

			require.True(t, modalOpen(t, c))

			w := tt.close(c)
			require.Equal(t, http.StatusOK, w.Code)
			assert.Empty(t, strings.TrimSpace(w.Body.String()))
			assert.False(t, modalOpen(t, c))
		})
	}
}

func TestModal_OtherKeyKeepsOpen(t *testing.T) {
	_, c := newTestServer(t, false)
	c.get("/")
	c.get("/projects/3")

	w := c.postForm("/keys", url.Values{"key": {"Enter"}})
	assert.Equal(t, "3", parse(t, w).Find(".modal").AttrOr("data-project", ""))
}

func TestModal_Errors(t *testing.T) {
	_, c := newTestServer(t, false)
	c.get("/")

	assert.Equal(t, http.StatusNotFound, c.get("/projects/99").Code)
	assert.Equal(t, http.StatusBadRequest, c.get("/projects/abc").Code)
	assert.Equal(t, http.StatusBadRequest, c.do(http.MethodPost, "/modal/close?via=escape", "", "").Code)
	assert.Equal(t, http.StatusBadRequest, c.postForm("/keys", url.Values{}).Code)
}

func TestContact_Suppressed(t *testing.T) {
	_, c := newTestServer(t, false)

	w := c.postForm("/contact", url.Values{
		"name":    {"Kim"},
		"email":   {"kim@example.com"},
		"message": {"Hello"},
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Thanks, Kim")

	w = c.postForm("/contact", url.Values{"name": {"Kim"}, "email": {"nope"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStaticAssets(t *testing.T) {
	_, c := newTestServer(t, false)

	w := c.get("/static/app.js")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/sections/frame")
}

func TestDocumentsAreIsolated(t *testing.T) {
	s, a := newTestServer(t, false)
	b := &client{t: t, handler: s.Handler(), cookies: a.cookies}
	a.get("/")
	b.get("/")

	require.Equal(t, http.StatusOK, a.get("/projects/1").Code)
	w := a.do(http.MethodPost, "/theme/toggle", "", "")
	assert.JSONEq(t, `{"themeChanged":{"dark":true}}`, w.Header().Get("HX-Trigger"))

	w = b.do(http.MethodPost, "/theme/toggle", "", "")
	assert.JSONEq(t, `{"themeChanged":{"dark":true}}`, w.Header().Get("HX-Trigger"))
	assert.False(t, modalOpen(t, b))
	assert.True(t, modalOpen(t, a))
}

func TestAdmin_RequiresLogin(t *testing.T) {
	_, c := newTestServer(t, true)

	w := c.get("/admin/dashboard")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/admin/login", w.Header().Get("Location"))

	w = c.postForm("/admin/login", url.Values{"username": {"admin"}, "password": {"wrong"}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.NotContains(t, c.cookies, adminCookie)
}

func TestAdmin_DashboardCountsVisitsAndViews(t *testing.T) {
	s, c := newTestServer(t, true)
	c.get("/")
	c.get("/projects/2")

	require.Eventually(t, func() bool {
		stats, err := s.visits.Stats(context.Background())
		return err == nil && stats.TotalVisitors == 1 && len(stats.ProjectViews) == 1
	}, 2*time.Second, 10*time.Millisecond)

	w := c.postForm("/admin/login", url.Values{"username": {"admin"}, "password": {"s3cret"}})
	require.Equal(t, http.StatusFound, w.Code)
	require.Contains(t, c.cookies, adminCookie)

	w = c.get("/admin/dashboard")
	require.Equal(t, http.StatusOK, w.Code)
	doc := parse(t, w)
	assert.Equal(t, "1", doc.Find("#total-visitors").Text())
	assert.Equal(t, "1", doc.Find("#live-sessions").Text())

	w = c.get("/admin/api/stats")
	require.Equal(t, http.StatusOK, w.Code)
	var stats visits.Stats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, []visits.ProjectCount{{ProjectID: 2, Views: 1}}, stats.ProjectViews)
}

func TestVisitorTracking_CountsOnlyPageLoads(t *testing.T) {
	s, c := newTestServer(t, true)
	c.get("/")
	c.get("/projects/1")
	c.get("/projects/3")
	c.postJSON("/sections/frame", frame(0))
	c.get("/static/app.js")
	c.get("/healthz")

	require.Eventually(t, func() bool {
		stats, err := s.visits.Stats(context.Background())
		return err == nil && len(stats.ProjectViews) == 2
	}, 2*time.Second, 10*time.Millisecond)
	time.Sleep(50 * time.Millisecond)

	stats, err := s.visits.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalVisitors)
	require.Len(t, stats.RecentVisitors, 1)
	assert.Equal(t, "/", stats.RecentVisitors[0].Path)
}

func TestAdmin_DoNotTrack(t *testing.T) {
	s, c := newTestServer(t, true)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("DNT", "1")
	w := httptest.NewRecorder()
	c.handler.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	time.Sleep(50 * time.Millisecond)
	stats, err := s.visits.Stats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.TotalVisitors)
}

func TestAdmin_DashboardWithoutVisits(t *testing.T) {
	_, c := newTestServer(t, false)

	c.postForm("/admin/login", url.Values{"username": {"admin"}, "password": {"s3cret"}})
	w := c.get("/admin/dashboard")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestAdminAuth_PasswordHash(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter22"), bcrypt.MinCost)
	require.NoError(t, err)

	a, err := newAdminAuth(config.AdminConfig{Username: "owner", PasswordHash: string(hash), Password: "ignored"})
	require.NoError(t, err)

	assert.True(t, a.check("owner", "hunter22"))
	assert.False(t, a.check("owner", "ignored"))
	assert.False(t, a.check("admin", "hunter22"))
}

func TestAdminAuth_DisabledWithoutPassword(t *testing.T) {
	a, err := newAdminAuth(config.AdminConfig{Username: "admin"})
	require.NoError(t, err)

	assert.False(t, a.enabled())
	assert.False(t, a.check("admin", ""))
}

func TestAdminAuth_TokenRoundTrip(t *testing.T) {
	a, err := newAdminAuth(config.AdminConfig{Username: "admin", Password: "x", Secret: "k"})
	require.NoError(t, err)

	token, err := a.issue(time.Now())
	require.NoError(t, err)
	assert.NoError(t, a.verify(token))

	expired, err := a.issue(time.Now().Add(-48 * time.Hour))
	require.NoError(t, err)
	assert.Error(t, a.verify(expired))

	other, err := newAdminAuth(config.AdminConfig{Username: "admin", Password: "x", Secret: "other"})
	require.NoError(t, err)
	assert.Error(t, other.verify(token))
}
