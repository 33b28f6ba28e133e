package httpapi

import (
	"net/http"
	"strconv"

	"github.com/insiderlife/signalfire/internal/activity"
	"github.com/insiderlife/signalfire/internal/auth"
	"github.com/insiderlife/signalfire/internal/catalog"
	"github.com/insiderlife/signalfire/internal/content"
	"github.com/insiderlife/signalfire/internal/domain"
)

func listCourses(svc *catalog.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := svc.Courses(r.Context(), content.ParseQuery(r.URL.Query()))
		if err != nil {
			respondErr(w, r, err)
			return
		}
		respondJSON(w, r, page, http.StatusOK)
	}
}

type courseView struct {
	*domain.Course
	TotalLessons int `json:"totalLessons"`
}

func getCourse(svc *catalog.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := svc.Course(r.Context(), urlParam(r, "id"))
		if err != nil {
			respondErr(w, r, err)
			return
		}
		respondJSON(w, r, courseView{Course: c, TotalLessons: c.TotalLessons()}, http.StatusOK)
	}
}

func listContent(svc *catalog.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := svc.Content(r.Context(), content.ParseQuery(r.URL.Query()))
		if err != nil {
			respondErr(w, r, err)
			return
		}
		respondJSON(w, r, page, http.StatusOK)
	}
}

func getContent(svc *catalog.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		item, err := svc.ContentItem(r.Context(), urlParam(r, "id"))
		if err != nil {
			respondErr(w, r, err)
			return
		}
		respondJSON(w, r, item, http.StatusOK)
	}
}

func listCTAs(svc *catalog.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctas, err := svc.CTAs(r.Context(), r.URL.Query().Get("placement"), false)
		if err != nil {
			respondErr(w, r, err)
			return
		}
		respondJSON(w, r, ctas, http.StatusOK)
	}
}

func adminListCTAs(svc *catalog.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctas, err := svc.CTAs(r.Context(), r.URL.Query().Get("placement"), true)
		if err != nil {
			respondErr(w, r, err)
			return
		}
		respondJSON(w, r, ctas, http.StatusOK)
	}
}

// saveContent handles both create (POST) and replace (PUT /{id}). The
// acting admin is credited as author when the body names none.
func saveContent(svc *catalog.Service, users *auth.Service, replace bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in domain.ContentItem
		if err := decodeJSON(r, &in); err != nil {
			respondErr(w, r, err)
			return
		}
		in.ID = ""
		if replace {
			in.ID = urlParam(r, "id")
		}

		id, _ := auth.IdentityFrom(r.Context())
		actor, err := users.CurrentUser(r.Context(), id.UserID)
		if err != nil {
			respondErr(w, r, err)
			return
		}

		saved, err := svc.SaveContent(r.Context(), *actor, in)
		if err != nil {
			respondErr(w, r, err)
			return
		}

		status := http.StatusCreated
		if replace {
			status = http.StatusOK
		}
		respondJSON(w, r, saved, status)
	}
}

func deleteContent(svc *catalog.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.DeleteContent(r.Context(), urlParam(r, "id")); err != nil {
			respondErr(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func saveCTA(svc *catalog.Service, replace bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in domain.CTA
		if err := decodeJSON(r, &in); err != nil {
			respondErr(w, r, err)
			return
		}
		in.ID = ""
		if replace {
			in.ID = urlParam(r, "id")
		}

		saved, err := svc.SaveCTA(r.Context(), in)
		if err != nil {
			respondErr(w, r, err)
			return
		}

		status := http.StatusCreated
		if replace {
			status = http.StatusOK
		}
		respondJSON(w, r, saved, status)
	}
}

func listActivity(feed *activity.Feed) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

		acts, err := feed.Recent(r.Context(), limit)
		if err != nil {
			respondErr(w, r, err)
			return
		}
		respondJSON(w, r, acts, http.StatusOK)
	}
}
