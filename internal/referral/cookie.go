package referral

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

const Cookie = "referral_code"

func FromRequest(r *http.Request) string {
	c, err := r.Cookie(Cookie)
	if err != nil {
		return ""
	}
	return NormalizeCode(c.Value)
}

func SetCookie(w http.ResponseWriter, code string, ttl time.Duration, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     Cookie,
		Value:    NormalizeCode(code),
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Capture remembers a ?ref= code in a cookie and counts the visit. Unknown
// codes are ignored.
func Capture(s *Service, ttl time.Duration, secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			code := NormalizeCode(r.URL.Query().Get("ref"))
			if code != "" {
				if _, err := s.RecordVisit(r.Context(), code); err == nil {
					SetCookie(w, code, ttl, secure)
				} else {
					zerolog.Ctx(r.Context()).Debug().Err(err).Str("code", code).Msg("referral code not captured")
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
