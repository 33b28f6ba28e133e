package httpapi

import (
	"net/http"

	"github.com/insiderlife/signalfire/internal/dashboard"
	"github.com/insiderlife/signalfire/internal/domain"
	"github.com/insiderlife/signalfire/internal/funnel"
)

func memberDashboard(svc *dashboard.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := svc.Member(r.Context(), viewer(r).UserID)
		if err != nil {
			respondErr(w, r, err)
			return
		}
		respondJSON(w, r, d, http.StatusOK)
	}
}

func adminDashboard(svc *dashboard.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := svc.Admin(r.Context(), viewer(r).UserID)
		if err != nil {
			respondErr(w, r, err)
			return
		}
		respondJSON(w, r, d, http.StatusOK)
	}
}

func listFunnels(svc *funnel.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.List(r.Context())
		if err != nil {
			respondErr(w, r, err)
			return
		}
		if list == nil {
			list = []domain.Funnel{}
		}
		respondJSON(w, r, list, http.StatusOK)
	}
}

func getFunnel(svc *funnel.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := svc.Get(r.Context(), urlParam(r, "id"))
		if err != nil {
			respondErr(w, r, err)
			return
		}
		respondJSON(w, r, f, http.StatusOK)
	}
}

func saveFunnel(svc *funnel.Service, replace bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in domain.Funnel
		if err := decodeJSON(r, &in); err != nil {
			respondErr(w, r, err)
			return
		}
		in.ID = ""
		status := http.StatusCreated
		if replace {
			in.ID = urlParam(r, "id")
			status = http.StatusOK
		}

		f, err := svc.Save(r.Context(), in)
		if err != nil {
			respondErr(w, r, err)
			return
		}
		respondJSON(w, r, f, status)
	}
}

func deleteFunnel(svc *funnel.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Delete(r.Context(), urlParam(r, "id")); err != nil {
			respondErr(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func funnelStats(svc *funnel.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := svc.Stats(r.Context(), urlParam(r, "id"))
		if err != nil {
			respondErr(w, r, err)
			return
		}
		respondJSON(w, r, st, http.StatusOK)
	}
}
