package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type SeriesStatus string

const (
	SeriesDraft     SeriesStatus = "draft"
	SeriesPublished SeriesStatus = "published"
)

// SignalSeries is a named, ordered sequence of content steps.
type SignalSeries struct {
	ID          string       `json:"id" yaml:"id"`
	Title       string       `json:"title" yaml:"title"`
	Description string       `json:"description" yaml:"description"`
	Category    string       `json:"category" yaml:"category"`
	AuthorID    string       `json:"authorId" yaml:"authorId"`
	Status      SeriesStatus `json:"status" yaml:"status"`
	Steps       []Step       `json:"steps" yaml:"steps"`
	CreatedAt   time.Time    `json:"createdAt" yaml:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt" yaml:"updatedAt"`
}

func NewSeries(id, authorID, title string, steps []Step) *SignalSeries {
	if id == "" {
		id = uuid.New().String()
	}

	now := time.Now().UTC()
	s := &SignalSeries{
		ID:        id,
		Title:     title,
		AuthorID:  authorID,
		Status:    SeriesDraft,
		Steps:     steps,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.Reindex()
	return s
}

// Reindex renumbers steps to match their position.
func (s *SignalSeries) Reindex() {
	for i := range s.Steps {
		s.Steps[i].Index = i
	}
}

func (s *SignalSeries) TotalMinutes() int {
	total := 0
	for _, st := range s.Steps {
		total += st.DurationMinutes
	}
	return total
}

// Duplicate returns a draft copy owned by ownerID. Steps are copied so the
// two series never share a backing array.
func (s *SignalSeries) Duplicate(newID, ownerID string, now time.Time) *SignalSeries {
	if newID == "" {
		newID = uuid.New().String()
	}

	cp := *s
	cp.ID = newID
	cp.AuthorID = ownerID
	cp.Title = s.Title + " (Copy)"
	cp.Status = SeriesDraft
	cp.Steps = make([]Step, len(s.Steps))
	copy(cp.Steps, s.Steps)
	cp.CreatedAt = now
	cp.UpdatedAt = now
	cp.Reindex()
	return &cp
}

func (s *SignalSeries) Validate() error {
	v := &ValidationError{}
	if strings.TrimSpace(s.Title) == "" {
		v.Add("title", "is required")
	}
	switch s.Status {
	case SeriesDraft, SeriesPublished:
	default:
		v.Add("status", "must be draft or published")
	}
	for i, st := range s.Steps {
		if strings.TrimSpace(st.Title) == "" {
			v.Addf("steps", "step %d needs a title", i)
		}
		if !st.Kind.Valid() {
			v.Addf("steps", "step %d has unknown kind %q", i, st.Kind)
		}
		if st.DurationMinutes < 0 {
			v.Addf("steps", "step %d has negative duration", i)
		}
	}
	return v.OrNil()
}
