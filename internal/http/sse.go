package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/insiderlife/signalfire/internal/activity"
	"github.com/insiderlife/signalfire/internal/progress"
	"github.com/insiderlife/signalfire/internal/series"
)

const keepAlive = 25 * time.Second

// stream writes every value from events that passes keep as an SSE data
// frame until the client goes away or events is closed.
func stream[T any](w http.ResponseWriter, r *http.Request, events <-chan T, name func(T) string, keep func(T) bool) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, r, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ticker := time.NewTicker(keepAlive)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			if keep != nil && !keep(ev) {
				continue
			}

			data, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			if name != nil {
				fmt.Fprintf(w, "event: %s\n", name(ev))
			}
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()

		case <-ticker.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}

func streamActivity(feed *activity.Feed) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		events, unsubscribe := feed.Subscribe()
		defer unsubscribe()

		stream(w, r, events, nil, nil)
	}
}

// streamProgress only forwards the caller's own events for the series in
// the URL.
func streamProgress(svc *series.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		who := viewer(r)
		id := urlParam(r, "id")

		if _, err := svc.Get(r.Context(), who, id); err != nil {
			respondErr(w, r, err)
			return
		}

		events, unsubscribe := svc.Subscribe()
		defer unsubscribe()

		stream(w, r, events,
			func(ev progress.Event) string { return string(ev.Kind) },
			func(ev progress.Event) bool {
				return ev.Progress.UserID == who.UserID && ev.Progress.SeriesID == id
			})
	}
}
