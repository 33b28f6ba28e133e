package funnel

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/insiderlife/signalfire/internal/domain"
	"github.com/insiderlife/signalfire/internal/storage"
)

var ErrNotFound = errors.New("funnel not found")

type Service struct {
	store storage.FunnelStore
	now   func() time.Time
}

func NewService(store storage.FunnelStore) *Service {
	return &Service{store: store, now: time.Now}
}

func (s *Service) List(ctx context.Context) ([]domain.Funnel, error) {
	return s.store.ListFunnels(ctx)
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Funnel, error) {
	f, err := s.store.GetFunnel(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotFound
	}
	return f, err
}

// Save creates a funnel when in.ID is empty, otherwise replaces it keeping
// the original creation time.
func (s *Service) Save(ctx context.Context, in domain.Funnel) (*domain.Funnel, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	if in.ID == "" {
		in.ID = uuid.New().String()
		in.CreatedAt = s.now().UTC()
	} else {
		cur, err := s.Get(ctx, in.ID)
		if err != nil {
			return nil, err
		}
		in.CreatedAt = cur.CreatedAt
	}

	if err := s.store.SaveFunnel(ctx, &in); err != nil {
		return nil, fmt.Errorf("save funnel: %w", err)
	}
	return &in, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	err := s.store.DeleteFunnel(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

type Stats struct {
	FunnelID       string             `json:"funnelId"`
	Name           string             `json:"name"`
	Stages         []domain.StageRate `json:"stages"`
	Entered        int                `json:"entered"`
	Converted      int                `json:"converted"`
	ConversionRate float64            `json:"conversionRate"`
	BiggestDropOff string             `json:"biggestDropOff,omitempty"`
}

func Summarize(f *domain.Funnel) Stats {
	st := Stats{FunnelID: f.ID, Name: f.Name, Stages: f.ConversionRates()}
	if len(f.Stages) == 0 {
		return st
	}

	st.Entered = f.Stages[0].Count
	last := st.Stages[len(st.Stages)-1]
	st.Converted = last.Count
	st.ConversionRate = last.Overall

	worst := 0
	for _, r := range st.Stages[1:] {
		if r.DropOff > worst {
			worst = r.DropOff
			st.BiggestDropOff = r.Name
		}
	}
	return st
}

func (s *Service) Stats(ctx context.Context, id string) (Stats, error) {
	f, err := s.Get(ctx, id)
	if err != nil {
		return Stats{}, err
	}
	return Summarize(f), nil
}
