package activity

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/insiderlife/signalfire/internal/domain"
	"github.com/insiderlife/signalfire/internal/events"
	"github.com/insiderlife/signalfire/internal/storage"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Feed is the append-only community activity stream.
type Feed struct {
	store  storage.ActivityStore
	broker *events.Broker[domain.Activity]
	now    func() time.Time
}

func NewFeed(store storage.ActivityStore) *Feed {
	return &Feed{
		store:  store,
		broker: events.NewBroker[domain.Activity](),
		now:    time.Now,
	}
}

// Record stores a and pushes it to live subscribers. ID and CreatedAt are
// filled in when empty.
func (f *Feed) Record(ctx context.Context, a domain.Activity) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = f.now().UTC()
	}

	if err := f.store.AddActivity(ctx, &a); err != nil {
		return fmt.Errorf("store activity: %w", err)
	}
	f.broker.Publish(a)
	return nil
}

// Recent clamps limit to [1, MaxLimit], using DefaultLimit when unset.
func (f *Feed) Recent(ctx context.Context, limit int) ([]domain.Activity, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	limit = min(limit, MaxLimit)

	list, err := f.store.RecentActivities(ctx, limit)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []domain.Activity{}
	}
	return list, nil
}

func (f *Feed) Subscribe() (<-chan domain.Activity, func()) {
	return f.broker.Subscribe(events.DefaultBuffer)
}

func (f *Feed) Close() {
	f.broker.Close()
}
