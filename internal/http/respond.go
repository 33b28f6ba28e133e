package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/insiderlife/signalfire/internal/auth"
	"github.com/insiderlife/signalfire/internal/catalog"
	"github.com/insiderlife/signalfire/internal/domain"
	"github.com/insiderlife/signalfire/internal/funnel"
	"github.com/insiderlife/signalfire/internal/profile"
	"github.com/insiderlife/signalfire/internal/progress"
	"github.com/insiderlife/signalfire/internal/referral"
	"github.com/insiderlife/signalfire/internal/series"
	"github.com/insiderlife/signalfire/internal/storage"
)

const maxBodyBytes = 1 << 20

type errorBody struct {
	Error  string              `json:"error"`
	Fields map[string][]string `json:"fields,omitempty"`
}

func respondJSON(w http.ResponseWriter, r *http.Request, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zerolog.Ctx(r.Context()).Warn().Err(err).Msg("encode response")
	}
}

func respondError(w http.ResponseWriter, r *http.Request, message string, status int) {
	respondJSON(w, r, errorBody{Error: message}, status)
}

// respondErr maps service errors to a status. Unknown errors are logged and
// reported as a generic 500.
func respondErr(w http.ResponseWriter, r *http.Request, err error) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		respondJSON(w, r, errorBody{Error: verr.Error(), Fields: verr.Fields}, http.StatusBadRequest)
		return
	}

	status := statusFor(err)
	if status == http.StatusInternalServerError {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		respondError(w, r, "internal error", status)
		return
	}
	respondError(w, r, err.Error(), status)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, progress.ErrInvalidStep),
		errors.Is(err, progress.ErrNoSteps),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, auth.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, auth.ErrEmailTaken),
		errors.Is(err, storage.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, catalog.ErrCourseNotFound),
		errors.Is(err, catalog.ErrContentNotFound),
		errors.Is(err, catalog.ErrCTANotFound),
		errors.Is(err, series.ErrNotFound),
		errors.Is(err, funnel.ErrNotFound),
		errors.Is(err, profile.ErrNotFound),
		errors.Is(err, referral.ErrUnknownCode),
		errors.Is(err, progress.ErrNotStarted),
		errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

var errBadRequest = errors.New("invalid request body")

// decodeJSON reads a single JSON object into v.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}
