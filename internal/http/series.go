package httpapi

import (
	"net/http"

	"github.com/insiderlife/signalfire/internal/auth"
	"github.com/insiderlife/signalfire/internal/content"
	"github.com/insiderlife/signalfire/internal/domain"
	"github.com/insiderlife/signalfire/internal/progress"
	"github.com/insiderlife/signalfire/internal/series"
)

func viewer(r *http.Request) auth.Identity {
	id, _ := auth.IdentityFrom(r.Context())
	return id
}

func listSeries(svc *series.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := content.ParseQuery(r.URL.Query())
		if status := r.URL.Query().Get("status"); status != "" {
			q.Type = status
		}

		list, err := svc.List(r.Context(), viewer(r), q)
		if err != nil {
			respondErr(w, r, err)
			return
		}
		respondJSON(w, r, content.Paginate(list, q.Limit, q.Offset), http.StatusOK)
	}
}

// adminListSeries returns the full list, drafts included, without paging.
func adminListSeries(svc *series.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := content.ParseQuery(r.URL.Query())
		q.Type = r.URL.Query().Get("status")

		list, err := svc.List(r.Context(), viewer(r), q)
		if err != nil {
			respondErr(w, r, err)
			return
		}
		respondJSON(w, r, list, http.StatusOK)
	}
}

type seriesView struct {
	*domain.SignalSeries
	TotalMinutes int `json:"totalMinutes"`
}

func getSeries(svc *series.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := svc.Get(r.Context(), viewer(r), urlParam(r, "id"))
		if err != nil {
			respondErr(w, r, err)
			return
		}
		respondJSON(w, r, seriesView{SignalSeries: s, TotalMinutes: s.TotalMinutes()}, http.StatusOK)
	}
}

func createSeries(svc *series.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in domain.SignalSeries
		if err := decodeJSON(r, &in); err != nil {
			respondErr(w, r, err)
			return
		}

		s, err := svc.Create(r.Context(), viewer(r), in)
		if err != nil {
			respondErr(w, r, err)
			return
		}
		respondJSON(w, r, s, http.StatusCreated)
	}
}

func updateSeries(svc *series.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in domain.SignalSeries
		if err := decodeJSON(r, &in); err != nil {
			respondErr(w, r, err)
			return
		}

		s, err := svc.Update(r.Context(), viewer(r), urlParam(r, "id"), in)
		if err != nil {
			respondErr(w, r, err)
			return
		}
		respondJSON(w, r, s, http.StatusOK)
	}
}

func deleteSeries(svc *series.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Delete(r.Context(), urlParam(r, "id")); err != nil {
			respondErr(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func duplicateSeries(svc *series.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cp, err := svc.Duplicate(r.Context(), viewer(r), urlParam(r, "id"))
		if err != nil {
			respondErr(w, r, err)
			return
		}
		respondJSON(w, r, cp, http.StatusCreated)
	}
}

type progressView struct {
	Progress  progress.Progress `json:"progress"`
	Percent   float64           `json:"percent"`
	Completed int               `json:"completedCount"`
	Done      bool              `json:"done"`
}

func viewProgress(p progress.Progress) progressView {
	return progressView{Progress: p, Percent: p.Percent(), Completed: p.CompletedCount(), Done: p.Done()}
}

func startProgress(svc *series.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := svc.StartProgress(r.Context(), viewer(r), urlParam(r, "id"))
		if err != nil {
			respondErr(w, r, err)
			return
		}
		respondJSON(w, r, viewProgress(p), http.StatusOK)
	}
}

func getProgress(svc *series.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := svc.Progress(r.Context(), viewer(r), urlParam(r, "id"))
		if err != nil {
			respondErr(w, r, err)
			return
		}
		respondJSON(w, r, viewProgress(p), http.StatusOK)
	}
}

func resetProgress(svc *series.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.ResetProgress(r.Context(), viewer(r), urlParam(r, "id")); err != nil {
			respondErr(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// moveProgress serves POST /{id}/progress/{move}. jump and complete take
// {"index": n}; complete without a body marks the current step.
func moveProgress(svc *series.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		move := series.Move(urlParam(r, "move"))
		switch move {
		case series.MoveNext, series.MovePrev, series.MoveJump, series.MoveComplete:
		default:
			respondError(w, r, "unknown move "+string(move), http.StatusNotFound)
			return
		}

		idx := -1
		if move == series.MoveJump || move == series.MoveComplete {
			var body struct {
				Index *int `json:"index"`
			}
			if r.ContentLength != 0 {
				if err := decodeJSON(r, &body); err != nil {
					respondErr(w, r, err)
					return
				}
			}
			switch {
			case body.Index != nil:
				idx = *body.Index
			case move == series.MoveJump:
				respondError(w, r, "index is required", http.StatusBadRequest)
				return
			default:
				cur, err := svc.Progress(r.Context(), viewer(r), urlParam(r, "id"))
				if err != nil {
					respondErr(w, r, err)
					return
				}
				idx = cur.CurrentIdx
			}
		}

		p, err := svc.Step(r.Context(), viewer(r), urlParam(r, "id"), move, idx)
		if err != nil {
			respondErr(w, r, err)
			return
		}
		respondJSON(w, r, viewProgress(p), http.StatusOK)
	}
}
