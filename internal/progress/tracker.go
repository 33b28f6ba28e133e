package progress

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/insiderlife/signalfire/internal/events"
)

var (
	ErrNotStarted  = errors.New("series not started")
	ErrInvalidStep = errors.New("invalid step index")
	ErrNoSteps     = errors.New("series has no steps")
)

const (
	DefaultSweepInterval = 5 * time.Minute
	DefaultRetention     = time.Hour
)

type key struct {
	userID   string
	seriesID string
}

// Tracker holds in-progress series walkthroughs keyed by user and series.
type Tracker struct {
	mu      sync.Mutex
	records map[key]*Progress
	broker  *events.Broker[Event]
	now     func() time.Time
}

func NewTracker() *Tracker {
	return &Tracker{
		records: make(map[key]*Progress),
		broker:  events.NewBroker[Event](),
		now:     time.Now,
	}
}

// Run sweeps finished records until ctx is done.
func (t *Tracker) Run(ctx context.Context, interval, retention time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			t.Sweep(retention)
		case <-ctx.Done():
			return
		}
	}
}

// Sweep drops records completed more than retention ago and returns how many
// were removed.
func (t *Tracker) Sweep(retention time.Duration) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	cutoff := t.now().Add(-retention)
	removed := 0
	for k, p := range t.records {
		if p.Done() && p.CompletedAt.Before(cutoff) {
			delete(t.records, k)
			removed++
		}
	}
	return removed
}

// Start begins a walkthrough at step 0, or returns the existing one. The
// bool reports whether a new record was created.
func (t *Tracker) Start(userID, seriesID string, steps int) (Progress, bool, error) {
	if steps <= 0 {
		return Progress{}, false, ErrNoSteps
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	k := key{userID, seriesID}
	if p, exists := t.records[k]; exists && len(p.Completed) == steps {
		return p.clone(), false, nil
	}

	now := t.now().UTC()
	p := &Progress{
		UserID:    userID,
		SeriesID:  seriesID,
		Completed: make([]bool, steps),
		StartedAt: now,
		UpdatedAt: now,
	}
	t.records[k] = p
	t.publish(EventStarted, 0, p)
	return p.clone(), true, nil
}

func (t *Tracker) Get(userID, seriesID string) (Progress, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	p, ok := t.records[key{userID, seriesID}]
	if !ok {
		return Progress{}, ErrNotStarted
	}
	return p.clone(), nil
}

// Next completes the current step and moves forward. On the last step it
// completes the series and stays put.
func (t *Tracker) Next(userID, seriesID string) (Progress, error) {
	return t.update(userID, seriesID, func(p *Progress) error {
		t.completeStep(p, p.CurrentIdx)
		if p.CurrentIdx < len(p.Completed)-1 {
			p.CurrentIdx++
			t.publish(EventMoved, p.CurrentIdx, p)
		}
		return nil
	})
}

func (t *Tracker) Prev(userID, seriesID string) (Progress, error) {
	return t.update(userID, seriesID, func(p *Progress) error {
		if p.CurrentIdx == 0 {
			return ErrInvalidStep
		}
		p.CurrentIdx--
		t.publish(EventMoved, p.CurrentIdx, p)
		return nil
	})
}

func (t *Tracker) Jump(userID, seriesID string, idx int) (Progress, error) {
	return t.update(userID, seriesID, func(p *Progress) error {
		if idx < 0 || idx >= len(p.Completed) {
			return ErrInvalidStep
		}
		p.CurrentIdx = idx
		t.publish(EventMoved, idx, p)
		return nil
	})
}

// Complete marks one step done without moving.
func (t *Tracker) Complete(userID, seriesID string, idx int) (Progress, error) {
	return t.update(userID, seriesID, func(p *Progress) error {
		if idx < 0 || idx >= len(p.Completed) {
			return ErrInvalidStep
		}
		t.completeStep(p, idx)
		return nil
	})
}

func (t *Tracker) Reset(userID, seriesID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	k := key{userID, seriesID}
	p, ok := t.records[k]
	if !ok {
		return ErrNotStarted
	}
	delete(t.records, k)
	t.publish(EventReset, 0, p)
	return nil
}

// ForUser lists every walkthrough the user has open or finished.
func (t *Tracker) ForUser(userID string) []Progress {
	t.mu.Lock()
	defer t.mu.Unlock()

	var out []Progress
	for k, p := range t.records {
		if k.userID == userID {
			out = append(out, p.clone())
		}
	}
	return out
}

func (t *Tracker) Subscribe() (<-chan Event, func()) {
	return t.broker.Subscribe(events.DefaultBuffer)
}

func (t *Tracker) Close() {
	t.broker.Close()
}

func (t *Tracker) update(userID, seriesID string, fn func(p *Progress) error) (Progress, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	p, ok := t.records[key{userID, seriesID}]
	if !ok {
		return Progress{}, ErrNotStarted
	}
	if err := fn(p); err != nil {
		return Progress{}, err
	}
	p.UpdatedAt = t.now().UTC()
	return p.clone(), nil
}

// completeStep must be called with t.mu held.
func (t *Tracker) completeStep(p *Progress, idx int) {
	if p.Completed[idx] {
		return
	}
	p.Completed[idx] = true
	t.publish(EventStepCompleted, idx, p)

	if p.CompletedAt == nil && p.CompletedCount() == len(p.Completed) {
		now := t.now().UTC()
		p.CompletedAt = &now
		t.publish(EventCompleted, idx, p)
	}
}

func (t *Tracker) publish(kind EventKind, idx int, p *Progress) {
	t.broker.Publish(Event{Kind: kind, Index: idx, Progress: p.clone()})
}
