package httpapi

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/insiderlife/signalfire/internal/auth"
)

var (
	publicPages = []string{"/", "/login", "/signup", "/courses", "/courses/{id}", "/content", "/content/{id}", "/series", "/series/{id}"}
	memberPages = []string{"/dashboard", "/profile", "/profile/setup", "/referrals", "/series/{id}/learn"}
	adminPages  = []string{"/admin", "/admin/*"}
)

// mountPages serves the front-end shell for every client-side route, gated
// the same way as the matching API.
func mountPages(r chi.Router, dir string) {
	index := filepath.Join(dir, "index.html")
	shell := func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, index)
	}

	for _, p := range publicPages {
		r.Get(p, shell)
	}
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireUser)
		for _, p := range memberPages {
			r.Get(p, shell)
		}
	})
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAdmin)
		for _, p := range adminPages {
			r.Get(p, shell)
		}
	})

	fs := http.FileServer(http.Dir(dir))
	r.Handle("/static/*", http.StripPrefix("/static/", fs))

	r.NotFound(pageNotFound(index))
}

// pageNotFound renders the shell with a 404 status so the client router can
// show its not-found view.
func pageNotFound(index string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := os.ReadFile(index)
		if err != nil {
			zerolog.Ctx(r.Context()).Warn().Err(err).Msg("read index")
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusNotFound)
		w.Write(body)
	}
}
