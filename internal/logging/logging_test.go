package logging_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/insiderlife/signalfire/internal/logging"
)

func TestNewLevelFallback(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWithWriter(&buf, "nonsense", false)

	if logger.GetLevel() != zerolog.InfoLevel {
		t.Fatalf("level = %v, want info", logger.GetLevel())
	}

	logger.Debug().Msg("hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug line written at info level: %s", buf.String())
	}
}

func TestAccessLog(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWithWriter(&buf, "debug", false)

	var sawCtxLogger bool
	h := middleware.RequestID(logging.AccessLog(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawCtxLogger = zerolog.Ctx(r.Context()).GetLevel() == zerolog.DebugLevel
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("short and stout"))
	})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/pot", nil))

	if !sawCtxLogger {
		t.Fatalf("handler did not receive request logger")
	}

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	if line["path"] != "/pot" || line["status"] != float64(http.StatusTeapot) {
		t.Fatalf("log line = %v", line)
	}
	if line["bytes"] != float64(len("short and stout")) {
		t.Fatalf("bytes = %v", line["bytes"])
	}
	if line["request_id"] == "" {
		t.Fatalf("missing request id")
	}
}
