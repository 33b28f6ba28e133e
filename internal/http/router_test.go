package httpapi_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/insiderlife/signalfire/internal/activity"
	"github.com/insiderlife/signalfire/internal/auth"
	"github.com/insiderlife/signalfire/internal/catalog"
	"github.com/insiderlife/signalfire/internal/dashboard"
	"github.com/insiderlife/signalfire/internal/funnel"
	httpapi "github.com/insiderlife/signalfire/internal/http"
	"github.com/insiderlife/signalfire/internal/profile"
	"github.com/insiderlife/signalfire/internal/progress"
	"github.com/insiderlife/signalfire/internal/referral"
	"github.com/insiderlife/signalfire/internal/seed"
	"github.com/insiderlife/signalfire/internal/series"
	"github.com/insiderlife/signalfire/internal/storage"
)

const shell = "<html>shell</html>"

func newRouter(t *testing.T) http.Handler {
	t.Helper()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte(shell), 0o644); err != nil {
		t.Fatal(err)
	}

	repo := storage.NewMemoryRepository()
	if _, err := seed.LoadIfEmpty(context.Background(), repo); err != nil {
		t.Fatal(err)
	}

	logger := zerolog.New(io.Discard)
	feed := activity.NewFeed(repo)
	tracker := progress.NewTracker()
	t.Cleanup(func() {
		feed.Close()
		tracker.Close()
	})

	refs := referral.NewService(repo)
	authSvc := auth.NewService(repo, refs, feed, auth.NewTokens("router-test-secret-123", time.Hour), logger,
		auth.WithHashCost(bcrypt.MinCost),
		auth.WithAdminCheck(func(email string) bool { return email == "admin@example.com" }),
	)

	return httpapi.NewRouter(httpapi.Services{
		Auth:      authSvc,
		Referrals: refs,
		Catalog:   catalog.NewService(repo, feed, logger),
		Series:    series.NewService(repo, repo, tracker, feed, logger),
		Funnels:   funnel.NewService(repo),
		Profiles:  profile.NewService(repo, feed, logger),
		Activity:  feed,
		Dashboard: dashboard.NewService(repo, feed, refs, tracker),
	}, httpapi.Options{
		StaticDir:   dir,
		ReferralTTL: time.Hour,
		Logger:      logger,
	})
}

type request struct {
	method  string
	path    string
	body    any
	token   string
	cookies []*http.Cookie
}

func do(t *testing.T, h http.Handler, req request) *httptest.ResponseRecorder {
	t.Helper()

	var body io.Reader
	if req.body != nil {
		b, err := json.Marshal(req.body)
		if err != nil {
			t.Fatal(err)
		}
		body = bytes.NewReader(b)
	}

	r := httptest.NewRequest(req.method, req.path, body)
	if req.token != "" {
		r.Header.Set("Authorization", "Bearer "+req.token)
	}
	for _, c := range req.cookies {
		r.AddCookie(c)
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

type session struct {
	Token string `json:"token"`
	User  struct {
		ID           string `json:"id"`
		Role         string `json:"role"`
		ReferralCode string `json:"referralCode"`
		ReferredBy   string `json:"referredBy"`
	} `json:"user"`
}

func signup(t *testing.T, h http.Handler, email string, cookies ...*http.Cookie) session {
	t.Helper()
	w := do(t, h, request{
		method: http.MethodPost,
		path:   "/api/auth/signup",
		body: map[string]string{
			"email":           email,
			"name":            "Test " + email,
			"password":        "correct-horse",
			"confirmPassword": "correct-horse",
		},
		cookies: cookies,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("signup %s: %d %s", email, w.Code, w.Body)
	}
	return decode[session](t, w)
}

func TestPublicRoutes(t *testing.T) {
	h := newRouter(t)

	tests := []struct {
		name   string
		path   string
		status int
		body   string
	}{
		{"health", "/healthz", http.StatusOK, `"ok"`},
		{"courses", "/api/courses?category=macro", http.StatusOK, "Macro Foundations"},
		{"content sorted", "/api/content?sort=views&limit=1", http.StatusOK, "Yield Curve"},
		{"content detail has cta", "/api/content/content-yield-curve", http.StatusOK, `"cta"`},
		{"course lesson count", "/api/courses/course-macro-foundations", http.StatusOK, `"totalLessons":4`},
		{"missing course", "/api/courses/nope", http.StatusNotFound, `"error"`},
		{"series minutes", "/api/series/series-rates-playbook", http.StatusOK, `"totalMinutes":35`},
		{"drafts hidden", "/api/series/series-earnings-draft", http.StatusNotFound, `"error"`},
		{"active ctas", "/api/ctas?placement=banner", http.StatusOK, "[]"},
		{"unknown api", "/api/nope", http.StatusNotFound, `"not found"`},
		{"shell", "/courses", http.StatusOK, shell},
		{"unknown page", "/no/such/page", http.StatusNotFound, shell},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, request{method: http.MethodGet, path: tt.path})
			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tt.status, w.Body)
			}
			if !strings.Contains(w.Body.String(), tt.body) {
				t.Fatalf("body %q does not contain %q", w.Body, tt.body)
			}
		})
	}
}

func TestGates(t *testing.T) {
	h := newRouter(t)
	member := signup(t, h, "member@example.com")
	admin := signup(t, h, "admin@example.com")
	if admin.User.Role != "admin" {
		t.Fatalf("admin role = %q", admin.User.Role)
	}

	tests := []struct {
		name     string
		path     string
		token    string
		status   int
		location string
	}{
		{"api anonymous", "/api/dashboard", "", http.StatusUnauthorized, ""},
		{"page anonymous", "/dashboard", "", http.StatusFound, "/login?next=%2Fdashboard"},
		{"page member", "/dashboard", member.Token, http.StatusOK, ""},
		{"admin api as member", "/api/admin/funnels", member.Token, http.StatusForbidden, ""},
		{"admin page as member", "/admin/funnels", member.Token, http.StatusFound, "/"},
		{"admin api as admin", "/api/admin/funnels", admin.Token, http.StatusOK, ""},
		{"admin page as admin", "/admin", admin.Token, http.StatusOK, ""},
		{"bad token", "/api/auth/me", "garbage", http.StatusUnauthorized, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, request{method: http.MethodGet, path: tt.path, token: tt.token})
			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tt.status, w.Body)
			}
			if got := w.Header().Get("Location"); got != tt.location {
				t.Fatalf("location = %q, want %q", got, tt.location)
			}
		})
	}
}

func TestAuthFlow(t *testing.T) {
	h := newRouter(t)

	w := do(t, h, request{method: http.MethodPost, path: "/api/auth/signup", body: map[string]string{
		"email": "nope", "name": "", "password": "short", "confirmPassword": "other",
	}})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("invalid signup = %d", w.Code)
	}
	verr := decode[struct {
		Fields map[string][]string `json:"fields"`
	}](t, w)
	for _, f := range []string{"email", "name", "password"} {
		if len(verr.Fields[f]) == 0 {
			t.Errorf("missing field error for %s: %+v", f, verr.Fields)
		}
	}

	signup(t, h, "dana@example.com")
	w = do(t, h, request{method: http.MethodPost, path: "/api/auth/signup", body: map[string]string{
		"email": "DANA@example.com", "name": "Dana", "password": "correct-horse", "confirmPassword": "correct-horse",
	}})
	if w.Code != http.StatusConflict {
		t.Fatalf("duplicate signup = %d", w.Code)
	}

	w = do(t, h, request{method: http.MethodPost, path: "/api/auth/login", body: map[string]string{
		"email": "dana@example.com", "password": "wrong-password",
	}})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad login = %d", w.Code)
	}

	w = do(t, h, request{method: http.MethodPost, path: "/api/auth/login", body: map[string]string{
		"email": "dana@example.com", "password": "correct-horse",
	}})
	if w.Code != http.StatusOK {
		t.Fatalf("login = %d %s", w.Code, w.Body)
	}

	var cookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == auth.SessionCookie {
			cookie = c
		}
	}
	if cookie == nil || !cookie.HttpOnly {
		t.Fatalf("session cookie = %+v", cookie)
	}

	w = do(t, h, request{method: http.MethodGet, path: "/api/auth/me", cookies: []*http.Cookie{cookie}})
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "dana@example.com") {
		t.Fatalf("me = %d %s", w.Code, w.Body)
	}
	if strings.Contains(w.Body.String(), "correct-horse") || strings.Contains(w.Body.String(), "assword") {
		t.Fatalf("me leaks credentials: %s", w.Body)
	}

	w = do(t, h, request{method: http.MethodPost, path: "/api/auth/logout"})
	if w.Code != http.StatusNoContent {
		t.Fatalf("logout = %d", w.Code)
	}
}

func TestReferralAttribution(t *testing.T) {
	h := newRouter(t)
	referrer := signup(t, h, "ref@example.com")

	w := do(t, h, request{method: http.MethodGet, path: "/r/" + strings.ToLower(referrer.User.ReferralCode)})
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/signup" {
		t.Fatalf("/r/ = %d %q", w.Code, w.Header().Get("Location"))
	}

	var refCookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == referral.Cookie {
			refCookie = c
		}
	}
	if refCookie == nil || refCookie.Value != referrer.User.ReferralCode {
		t.Fatalf("referral cookie = %+v", refCookie)
	}

	friend := signup(t, h, "friend@example.com", refCookie)
	if friend.User.ReferredBy != referrer.User.ID {
		t.Fatalf("referredBy = %q, want %q", friend.User.ReferredBy, referrer.User.ID)
	}

	w = do(t, h, request{method: http.MethodGet, path: "/api/users/referral-links", token: referrer.Token})
	if w.Code != http.StatusOK {
		t.Fatalf("links = %d", w.Code)
	}
	got := decode[struct {
		Stats struct {
			Visits  int `json:"visits"`
			Signups int `json:"signups"`
		} `json:"stats"`
	}](t, w)
	if got.Stats.Visits != 1 || got.Stats.Signups != 1 {
		t.Fatalf("stats = %+v", got.Stats)
	}

	w = do(t, h, request{method: http.MethodPost, path: "/api/users/referral-links", token: referrer.Token,
		body: map[string]string{"campaign": "twitter", "destination": "https://evil.example"}})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("open redirect link = %d", w.Code)
	}

	w = do(t, h, request{method: http.MethodGet, path: "/r/UNKNOWN1"})
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/signup" {
		t.Fatalf("unknown code = %d %q", w.Code, w.Header().Get("Location"))
	}
}

func TestReferralVisitsCountOnce(t *testing.T) {
	h := newRouter(t)
	referrer := signup(t, h, "ref@example.com")
	code := referrer.User.ReferralCode

	visits := func() int {
		t.Helper()
		w := do(t, h, request{method: http.MethodGet, path: "/api/users/referral-links", token: referrer.Token})
		if w.Code != http.StatusOK {
			t.Fatalf("links = %d", w.Code)
		}
		return decode[struct {
			Stats struct {
				Visits int `json:"visits"`
			} `json:"stats"`
		}](t, w).Stats.Visits
	}

	if w := do(t, h, request{method: http.MethodGet, path: "/r/" + code + "?ref=" + code}); w.Code != http.StatusFound {
		t.Fatalf("/r/ = %d", w.Code)
	}
	if got := visits(); got != 1 {
		t.Fatalf("visits after /r/?ref= = %d, want 1", got)
	}

	if w := do(t, h, request{method: http.MethodGet, path: "/courses?ref=" + code}); w.Code != http.StatusOK {
		t.Fatalf("/courses?ref= = %d", w.Code)
	}
	if got := visits(); got != 2 {
		t.Fatalf("visits after page ?ref= = %d, want 2", got)
	}
}

func TestProfileEndpoints(t *testing.T) {
	h := newRouter(t)
	owner := signup(t, h, "owner@example.com")
	other := signup(t, h, "other@example.com")

	w := do(t, h, request{method: http.MethodPost, path: "/api/users/profile-setup", token: owner.Token,
		body: map[string]any{"displayName": "owner", "interests": []string{"macro"}}})
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"setupComplete":true`) {
		t.Fatalf("setup = %d %s", w.Code, w.Body)
	}

	w = do(t, h, request{method: http.MethodPut, path: "/api/users/profile/visibility", token: owner.Token,
		body: map[string]string{"visibility": "members"}})
	if w.Code != http.StatusOK {
		t.Fatalf("visibility = %d %s", w.Code, w.Body)
	}

	path := "/api/users/" + owner.User.ID
	if w := do(t, h, request{method: http.MethodGet, path: path}); w.Code != http.StatusNotFound {
		t.Fatalf("anonymous view of members profile = %d", w.Code)
	}
	w = do(t, h, request{method: http.MethodGet, path: path, token: other.Token})
	if w.Code != http.StatusOK || strings.Contains(w.Body.String(), "owner@example.com") {
		t.Fatalf("member view = %d %s", w.Code, w.Body)
	}

	w = do(t, h, request{method: http.MethodPut, path: "/api/users/profile", token: owner.Token,
		body: map[string]string{"bio": strings.Repeat("x", 501)}})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("long bio = %d", w.Code)
	}
}

func TestSeriesProgress(t *testing.T) {
	h := newRouter(t)
	user := signup(t, h, "learner@example.com")
	base := "/api/series/series-crypto-liquidity"

	if w := do(t, h, request{method: http.MethodGet, path: base + "/progress", token: user.Token}); w.Code != http.StatusNotFound {
		t.Fatalf("progress before start = %d", w.Code)
	}
	if w := do(t, h, request{method: http.MethodPost, path: base + "/progress", token: user.Token}); w.Code != http.StatusOK {
		t.Fatalf("start = %d %s", w.Code, w.Body)
	}

	w := do(t, h, request{method: http.MethodPost, path: base + "/progress/jump", token: user.Token, body: map[string]int{"index": 7}})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("jump out of range = %d", w.Code)
	}

	do(t, h, request{method: http.MethodPost, path: base + "/progress/next", token: user.Token})
	w = do(t, h, request{method: http.MethodPost, path: base + "/progress/next", token: user.Token})
	got := decode[struct {
		Percent float64 `json:"percent"`
		Done    bool    `json:"done"`
	}](t, w)
	if !got.Done || got.Percent != 100 {
		t.Fatalf("after two nexts = %+v", got)
	}

	w = do(t, h, request{method: http.MethodGet, path: "/api/activity", token: user.Token})
	if !strings.Contains(w.Body.String(), "series_completed") {
		t.Fatalf("activity = %s", w.Body)
	}

	w = do(t, h, request{method: http.MethodPost, path: base + "/duplicate", token: user.Token})
	if w.Code != http.StatusCreated || !strings.Contains(w.Body.String(), "(Copy)") {
		t.Fatalf("duplicate = %d %s", w.Code, w.Body)
	}

	if w := do(t, h, request{method: http.MethodDelete, path: base + "/progress", token: user.Token}); w.Code != http.StatusNoContent {
		t.Fatalf("reset = %d", w.Code)
	}
}

func TestAdminContentAndFunnels(t *testing.T) {
	h := newRouter(t)
	admin := signup(t, h, "admin@example.com")

	w := do(t, h, request{method: http.MethodPost, path: "/api/admin/content", token: admin.Token,
		body: map[string]any{"title": "Fresh take", "type": "article", "category": "macro", "ctaId": "missing"}})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("unknown cta = %d %s", w.Code, w.Body)
	}

	w = do(t, h, request{method: http.MethodPost, path: "/api/admin/content", token: admin.Token,
		body: map[string]any{"title": "Fresh take", "type": "article", "category": "macro"}})
	if w.Code != http.StatusCreated {
		t.Fatalf("create content = %d %s", w.Code, w.Body)
	}

	w = do(t, h, request{method: http.MethodGet, path: "/api/admin/funnels/funnel-webinar/stats", token: admin.Token})
	if w.Code != http.StatusOK {
		t.Fatalf("stats = %d %s", w.Code, w.Body)
	}
	stats := decode[funnel.Stats](t, w)
	if stats.Entered != 4200 || stats.Converted != 92 || stats.BiggestDropOff != "Registered" {
		t.Fatalf("stats = %+v", stats)
	}

	w = do(t, h, request{method: http.MethodGet, path: "/api/admin/dashboard", token: admin.Token})
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"users":1`) {
		t.Fatalf("admin dashboard = %d %s", w.Code, w.Body)
	}

	w = do(t, h, request{method: http.MethodGet, path: "/api/admin/ctas", token: admin.Token})
	if !strings.Contains(w.Body.String(), "cta-spring-sale") {
		t.Fatalf("admin ctas should include inactive: %s", w.Body)
	}
}

func TestProgressStream(t *testing.T) {
	srv := httptest.NewServer(newRouter(t))
	defer srv.Close()

	user := signup(t, srv.Config.Handler, "stream@example.com")
	base := srv.URL + "/api/series/series-rates-playbook/progress"

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, base+"/events", nil)
	req.Header.Set("Authorization", "Bearer "+user.Token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type = %q", ct)
	}

	start, _ := http.NewRequest(http.MethodPost, base, nil)
	start.Header.Set("Authorization", "Bearer "+user.Token)
	sr, err := http.DefaultClient.Do(start)
	if err != nil {
		t.Fatal(err)
	}
	sr.Body.Close()

	sc := bufio.NewScanner(resp.Body)
	for sc.Scan() {
		if line := sc.Text(); line == "event: started" {
			return
		}
	}
	t.Fatalf("no started event: %v", sc.Err())
}

func TestRoutesTable(t *testing.T) {
	routes, err := httpapi.Routes(newRouter(t))
	if err != nil {
		t.Fatal(err)
	}

	want := map[string]bool{
		"POST /api/series/{id}/duplicate":      false,
		"GET /api/series/{id}/progress/events": false,
		"GET /api/admin/funnels/{id}/stats":    false,
		"GET /r/{code}":                        false,
	}
	for _, r := range routes {
		if _, ok := want[r.Method+" "+r.Path]; ok {
			want[r.Method+" "+r.Path] = true
		}
	}
	for route, seen := range want {
		if !seen {
			t.Errorf("route %s not registered", route)
		}
	}
}
