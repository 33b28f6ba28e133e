package progress

import (
	"slices"
	"time"
)

// Progress is one user's position in one signal series.
type Progress struct {
	UserID      string     `json:"userId"`
	SeriesID    string     `json:"seriesId"`
	CurrentIdx  int        `json:"currentStep"`
	Completed   []bool     `json:"completedSteps"`
	StartedAt   time.Time  `json:"startedAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

func (p *Progress) Done() bool {
	return p.CompletedAt != nil
}

func (p *Progress) CompletedCount() int {
	n := 0
	for _, c := range p.Completed {
		if c {
			n++
		}
	}
	return n
}

// Percent is the share of completed steps, 0..100.
func (p *Progress) Percent() float64 {
	if len(p.Completed) == 0 {
		return 0
	}
	return float64(p.CompletedCount()) * 100 / float64(len(p.Completed))
}

func (p *Progress) clone() Progress {
	cp := *p
	cp.Completed = slices.Clone(p.Completed)
	if p.CompletedAt != nil {
		t := *p.CompletedAt
		cp.CompletedAt = &t
	}
	return cp
}

type EventKind string

const (
	EventStarted       EventKind = "started"
	EventMoved         EventKind = "moved"
	EventStepCompleted EventKind = "step_completed"
	EventCompleted     EventKind = "completed"
	EventReset         EventKind = "reset"
)

type Event struct {
	Kind     EventKind `json:"kind"`
	Index    int       `json:"index"`
	Progress Progress  `json:"progress"`
}
