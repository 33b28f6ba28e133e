package httpapi

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/insiderlife/signalfire/internal/auth"
	"github.com/insiderlife/signalfire/internal/domain"
	"github.com/insiderlife/signalfire/internal/referral"
)

func signup(svc *auth.Service, secure bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req domain.SignupRequest
		if err := decodeJSON(r, &req); err != nil {
			respondErr(w, r, err)
			return
		}

		sess, err := svc.Signup(r.Context(), req, referral.FromRequest(r))
		if err != nil {
			respondErr(w, r, err)
			return
		}

		auth.SetSessionCookie(w, sess.Token, sess.ExpiresAt, secure)
		respondJSON(w, r, sess, http.StatusCreated)
	}
}

func login(svc *auth.Service, secure bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := decodeJSON(r, &req); err != nil {
			respondErr(w, r, err)
			return
		}

		sess, err := svc.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			respondErr(w, r, err)
			return
		}

		auth.SetSessionCookie(w, sess.Token, sess.ExpiresAt, secure)
		respondJSON(w, r, sess, http.StatusOK)
	}
}

func logout(secure bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auth.ClearSessionCookie(w, secure)
		w.WriteHeader(http.StatusNoContent)
	}
}

func me(svc *auth.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _ := auth.IdentityFrom(r.Context())

		u, err := svc.CurrentUser(r.Context(), id.UserID)
		if err != nil {
			respondErr(w, r, err)
			return
		}
		respondJSON(w, r, u, http.StatusOK)
	}
}

// followReferral serves /r/{code}: count the visit, remember the code and
// send the visitor on to the link's destination.
func followReferral(svc *referral.Service, ttl time.Duration, secure bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		link, err := svc.RecordVisit(r.Context(), urlParam(r, "code"))
		if err != nil {
			zerolog.Ctx(r.Context()).Debug().Err(err).Msg("referral redirect")
			http.Redirect(w, r, referral.DefaultDestination, http.StatusFound)
			return
		}

		referral.SetCookie(w, link.Code, ttl, secure)
		http.Redirect(w, r, link.Destination, http.StatusFound)
	}
}
