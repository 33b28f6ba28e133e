package httpapi

import (
	"net/http"

	"github.com/insiderlife/signalfire/internal/domain"
	"github.com/insiderlife/signalfire/internal/profile"
	"github.com/insiderlife/signalfire/internal/referral"
)

func getProfile(svc *profile.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := svc.Get(r.Context(), viewer(r).UserID)
		if err != nil {
			respondErr(w, r, err)
			return
		}
		respondJSON(w, r, u, http.StatusOK)
	}
}

func updateProfile(svc *profile.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var upd domain.ProfileUpdate
		if err := decodeJSON(r, &upd); err != nil {
			respondErr(w, r, err)
			return
		}

		u, err := svc.Update(r.Context(), viewer(r).UserID, upd)
		if err != nil {
			respondErr(w, r, err)
			return
		}
		respondJSON(w, r, u, http.StatusOK)
	}
}

func setVisibility(svc *profile.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Visibility domain.Visibility `json:"visibility"`
		}
		if err := decodeJSON(r, &req); err != nil {
			respondErr(w, r, err)
			return
		}

		u, err := svc.SetVisibility(r.Context(), viewer(r).UserID, req.Visibility)
		if err != nil {
			respondErr(w, r, err)
			return
		}
		respondJSON(w, r, u, http.StatusOK)
	}
}

func setupProfile(svc *profile.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var setup domain.ProfileSetup
		if err := decodeJSON(r, &setup); err != nil {
			respondErr(w, r, err)
			return
		}

		u, err := svc.Setup(r.Context(), viewer(r).UserID, setup)
		if err != nil {
			respondErr(w, r, err)
			return
		}
		respondJSON(w, r, u, http.StatusOK)
	}
}

func publicProfile(svc *profile.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pub, err := svc.Public(r.Context(), viewer(r), urlParam(r, "id"))
		if err != nil {
			respondErr(w, r, err)
			return
		}
		respondJSON(w, r, pub, http.StatusOK)
	}
}

func listUsers(svc *profile.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users, err := svc.List(r.Context())
		if err != nil {
			respondErr(w, r, err)
			return
		}
		if users == nil {
			users = []domain.User{}
		}
		respondJSON(w, r, users, http.StatusOK)
	}
}

func listReferralLinks(svc *referral.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid := viewer(r).UserID

		links, err := svc.Links(r.Context(), uid)
		if err != nil {
			respondErr(w, r, err)
			return
		}
		stats, err := svc.Stats(r.Context(), uid)
		if err != nil {
			respondErr(w, r, err)
			return
		}

		respondJSON(w, r, struct {
			Links []domain.ReferralLink `json:"links"`
			Stats domain.ReferralStats  `json:"stats"`
		}{links, stats}, http.StatusOK)
	}
}

func createReferralLink(svc *referral.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req referral.CreateLinkRequest
		if err := decodeJSON(r, &req); err != nil {
			respondErr(w, r, err)
			return
		}

		link, err := svc.CreateLink(r.Context(), viewer(r).UserID, req)
		if err != nil {
			respondErr(w, r, err)
			return
		}
		respondJSON(w, r, link, http.StatusCreated)
	}
}
