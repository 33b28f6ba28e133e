// Package httpapi wires the services into the chi route table and serves
// the single-page front-end.
package httpapi

import (
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/insiderlife/signalfire/internal/activity"
	"github.com/insiderlife/signalfire/internal/auth"
	"github.com/insiderlife/signalfire/internal/catalog"
	"github.com/insiderlife/signalfire/internal/dashboard"
	"github.com/insiderlife/signalfire/internal/funnel"
	"github.com/insiderlife/signalfire/internal/logging"
	"github.com/insiderlife/signalfire/internal/profile"
	"github.com/insiderlife/signalfire/internal/referral"
	"github.com/insiderlife/signalfire/internal/series"
)

type Services struct {
	Auth      *auth.Service
	Referrals *referral.Service
	Catalog   *catalog.Service
	Series    *series.Service
	Funnels   *funnel.Service
	Profiles  *profile.Service
	Activity  *activity.Feed
	Dashboard *dashboard.Service
}

type Options struct {
	StaticDir     string
	ReferralTTL   time.Duration
	SecureCookies bool
	Logger        zerolog.Logger
}

func NewRouter(svc Services, opts Options) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.AccessLog(opts.Logger))
	r.Use(middleware.Recoverer)
	r.Use(auth.Authenticate(svc.Auth))

	r.Get("/healthz", healthz)
	// followReferral records its own visit, so /r/ stays outside Capture.
	r.Get("/r/{code}", followReferral(svc.Referrals, opts.ReferralTTL, opts.SecureCookies))

	r.Group(func(r chi.Router) {
		r.Use(referral.Capture(svc.Referrals, opts.ReferralTTL, opts.SecureCookies))

		r.Route("/api", func(r chi.Router) {
			r.Route("/auth", func(r chi.Router) {
				r.Post("/signup", signup(svc.Auth, opts.SecureCookies))
				r.Post("/login", login(svc.Auth, opts.SecureCookies))
				r.Post("/logout", logout(opts.SecureCookies))
				r.With(auth.RequireUser).Get("/me", me(svc.Auth))
			})

			r.Get("/courses", listCourses(svc.Catalog))
			r.Get("/courses/{id}", getCourse(svc.Catalog))
			r.Get("/content", listContent(svc.Catalog))
			r.Get("/content/{id}", getContent(svc.Catalog))
			r.Get("/ctas", listCTAs(svc.Catalog))

			r.Route("/series", func(r chi.Router) {
				r.Get("/", listSeries(svc.Series))
				r.Get("/{id}", getSeries(svc.Series))

				r.Group(func(r chi.Router) {
					r.Use(auth.RequireUser)
					r.Post("/{id}/duplicate", duplicateSeries(svc.Series))
					r.Post("/{id}/progress", startProgress(svc.Series))
					r.Get("/{id}/progress", getProgress(svc.Series))
					r.Delete("/{id}/progress", resetProgress(svc.Series))
					r.Post("/{id}/progress/{move}", moveProgress(svc.Series))
					r.Get("/{id}/progress/events", streamProgress(svc.Series))
				})
			})

			r.Route("/users", func(r chi.Router) {
				r.Group(func(r chi.Router) {
					r.Use(auth.RequireUser)
					r.Get("/profile", getProfile(svc.Profiles))
					r.Put("/profile", updateProfile(svc.Profiles))
					r.Put("/profile/visibility", setVisibility(svc.Profiles))
					r.Post("/profile-setup", setupProfile(svc.Profiles))
					r.Get("/referral-links", listReferralLinks(svc.Referrals))
					r.Post("/referral-links", createReferralLink(svc.Referrals))
				})
				r.Get("/{id}", publicProfile(svc.Profiles))
			})

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireUser)
				r.Get("/activity", listActivity(svc.Activity))
				r.Get("/activity/stream", streamActivity(svc.Activity))
				r.Get("/dashboard", memberDashboard(svc.Dashboard))
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(auth.RequireAdmin)
				mountAdmin(r, svc)
			})

			r.NotFound(apiNotFound)
			r.MethodNotAllowed(apiMethodNotAllowed)
		})

		mountPages(r, opts.StaticDir)
	})
	return r
}

func mountAdmin(r chi.Router, svc Services) {
	r.Get("/dashboard", adminDashboard(svc.Dashboard))
	r.Get("/users", listUsers(svc.Profiles))

	r.Get("/series", adminListSeries(svc.Series))
	r.Post("/series", createSeries(svc.Series))
	r.Put("/series/{id}", updateSeries(svc.Series))
	r.Delete("/series/{id}", deleteSeries(svc.Series))

	r.Post("/content", saveContent(svc.Catalog, svc.Auth, false))
	r.Put("/content/{id}", saveContent(svc.Catalog, svc.Auth, true))
	r.Delete("/content/{id}", deleteContent(svc.Catalog))

	r.Get("/ctas", adminListCTAs(svc.Catalog))
	r.Post("/ctas", saveCTA(svc.Catalog, false))
	r.Put("/ctas/{id}", saveCTA(svc.Catalog, true))

	r.Get("/funnels", listFunnels(svc.Funnels))
	r.Post("/funnels", saveFunnel(svc.Funnels, false))
	r.Get("/funnels/{id}", getFunnel(svc.Funnels))
	r.Put("/funnels/{id}", saveFunnel(svc.Funnels, true))
	r.Delete("/funnels/{id}", deleteFunnel(svc.Funnels))
	r.Get("/funnels/{id}/stats", funnelStats(svc.Funnels))
}

// Route is one entry of the route table.
type Route struct {
	Method string
	Path   string
}

// Routes lists every registered method and pattern, sorted by path.
func Routes(h http.Handler) ([]Route, error) {
	router, ok := h.(chi.Routes)
	if !ok {
		return nil, nil
	}

	var routes []Route
	err := chi.Walk(router, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		route = strings.Replace(route, "/*/", "/", -1)
		if route != "/" {
			route = strings.TrimSuffix(route, "/")
		}
		routes = append(routes, Route{Method: method, Path: route})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Path == routes[j].Path {
			return routes[i].Method < routes[j].Method
		}
		return routes[i].Path < routes[j].Path
	})
	return routes, nil
}

func urlParam(r *http.Request, key string) string {
	return chi.URLParam(r, key)
}

func healthz(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, map[string]string{"status": "ok"}, http.StatusOK)
}

func apiNotFound(w http.ResponseWriter, r *http.Request) {
	respondError(w, r, "not found", http.StatusNotFound)
}

func apiMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	respondError(w, r, "method not allowed", http.StatusMethodNotAllowed)
}
