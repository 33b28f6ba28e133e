package series

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/insiderlife/signalfire/internal/auth"
	"github.com/insiderlife/signalfire/internal/content"
	"github.com/insiderlife/signalfire/internal/domain"
	"github.com/insiderlife/signalfire/internal/progress"
	"github.com/insiderlife/signalfire/internal/storage"
)

var ErrNotFound = errors.New("series not found")

type ActivityRecorder interface {
	Record(ctx context.Context, a domain.Activity) error
}

type Service struct {
	store    storage.SeriesStore
	users    storage.UserStore
	tracker  *progress.Tracker
	activity ActivityRecorder
	logger   zerolog.Logger
	now      func() time.Time
}

func NewService(store storage.SeriesStore, users storage.UserStore, tracker *progress.Tracker, activity ActivityRecorder, logger zerolog.Logger) *Service {
	return &Service{
		store:    store,
		users:    users,
		tracker:  tracker,
		activity: activity,
		logger:   logger,
		now:      time.Now,
	}
}

// visible: published series are public, drafts only show to their author
// and admins.
func visible(s *domain.SignalSeries, viewer auth.Identity) bool {
	if s.Status == domain.SeriesPublished || viewer.IsAdmin() {
		return true
	}
	return viewer.UserID != "" && s.AuthorID == viewer.UserID
}

func (s *Service) List(ctx context.Context, viewer auth.Identity, q content.Query) ([]domain.SignalSeries, error) {
	all, err := s.store.ListSeries(ctx)
	if err != nil {
		return nil, err
	}

	seen := content.Filter(all, func(x domain.SignalSeries) bool { return visible(&x, viewer) })
	return content.Series(seen, q), nil
}

func (s *Service) Get(ctx context.Context, viewer auth.Identity, id string) (*domain.SignalSeries, error) {
	x, err := s.store.GetSeries(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if !visible(x, viewer) {
		return nil, ErrNotFound
	}
	return x, nil
}

func (s *Service) Create(ctx context.Context, viewer auth.Identity, in domain.SignalSeries) (*domain.SignalSeries, error) {
	out := domain.NewSeries("", viewer.UserID, in.Title, in.Steps)
	out.Description = in.Description
	out.Category = in.Category
	if in.Status != "" {
		out.Status = in.Status
	}
	now := s.now().UTC()
	out.CreatedAt = now
	out.UpdatedAt = now

	if err := out.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.SaveSeries(ctx, out); err != nil {
		return nil, fmt.Errorf("save series: %w", err)
	}
	return out, nil
}

// Update replaces the editable fields of a series. ID, author and creation
// time are kept from the stored copy.
func (s *Service) Update(ctx context.Context, viewer auth.Identity, id string, in domain.SignalSeries) (*domain.SignalSeries, error) {
	cur, err := s.Get(ctx, viewer, id)
	if err != nil {
		return nil, err
	}

	in.ID = cur.ID
	in.AuthorID = cur.AuthorID
	in.CreatedAt = cur.CreatedAt
	in.UpdatedAt = s.now().UTC()
	if in.Status == "" {
		in.Status = cur.Status
	}
	in.Reindex()

	if err := in.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.SaveSeries(ctx, &in); err != nil {
		return nil, fmt.Errorf("save series: %w", err)
	}
	return &in, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	err := s.store.DeleteSeries(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

// Duplicate appends a draft copy of a visible series owned by the viewer.
func (s *Service) Duplicate(ctx context.Context, viewer auth.Identity, id string) (*domain.SignalSeries, error) {
	orig, err := s.Get(ctx, viewer, id)
	if err != nil {
		return nil, err
	}

	cp := orig.Duplicate("", viewer.UserID, s.now().UTC())
	if err := s.store.SaveSeries(ctx, cp); err != nil {
		return nil, fmt.Errorf("save duplicate: %w", err)
	}

	s.record(ctx, viewer.UserID, domain.ActivitySeriesDuplicate, "duplicated "+orig.Title, cp.ID)
	return cp, nil
}

func (s *Service) StartProgress(ctx context.Context, viewer auth.Identity, id string) (progress.Progress, error) {
	x, err := s.Get(ctx, viewer, id)
	if err != nil {
		return progress.Progress{}, err
	}

	p, created, err := s.tracker.Start(viewer.UserID, x.ID, len(x.Steps))
	if err != nil {
		return progress.Progress{}, err
	}
	if created {
		s.record(ctx, viewer.UserID, domain.ActivitySeriesStarted, "started "+x.Title, x.ID)
	}
	return p, nil
}

func (s *Service) Progress(ctx context.Context, viewer auth.Identity, id string) (progress.Progress, error) {
	if _, err := s.Get(ctx, viewer, id); err != nil {
		return progress.Progress{}, err
	}
	return s.tracker.Get(viewer.UserID, id)
}

type Move string

const (
	MoveNext     Move = "next"
	MovePrev     Move = "prev"
	MoveJump     Move = "jump"
	MoveComplete Move = "complete"
)

// Step moves the viewer through a series. idx is used by jump and complete.
func (s *Service) Step(ctx context.Context, viewer auth.Identity, id string, move Move, idx int) (progress.Progress, error) {
	x, err := s.Get(ctx, viewer, id)
	if err != nil {
		return progress.Progress{}, err
	}

	before, err := s.tracker.Get(viewer.UserID, id)
	if err != nil {
		return progress.Progress{}, err
	}

	var p progress.Progress
	switch move {
	case MoveNext:
		p, err = s.tracker.Next(viewer.UserID, id)
	case MovePrev:
		p, err = s.tracker.Prev(viewer.UserID, id)
	case MoveJump:
		p, err = s.tracker.Jump(viewer.UserID, id, idx)
	case MoveComplete:
		p, err = s.tracker.Complete(viewer.UserID, id, idx)
	default:
		return progress.Progress{}, fmt.Errorf("unknown move %q", move)
	}
	if err != nil {
		return progress.Progress{}, err
	}

	if !before.Done() && p.Done() {
		s.record(ctx, viewer.UserID, domain.ActivitySeriesCompleted, "completed "+x.Title, x.ID)
	}
	return p, nil
}

func (s *Service) ResetProgress(ctx context.Context, viewer auth.Identity, id string) error {
	if _, err := s.Get(ctx, viewer, id); err != nil {
		return err
	}
	return s.tracker.Reset(viewer.UserID, id)
}

func (s *Service) Subscribe() (<-chan progress.Event, func()) {
	return s.tracker.Subscribe()
}

func (s *Service) record(ctx context.Context, userID string, kind domain.ActivityKind, msg, target string) {
	name := ""
	if u, err := s.users.GetUser(ctx, userID); err == nil {
		name = u.Name
	}

	err := s.activity.Record(ctx, domain.Activity{
		UserID:   userID,
		UserName: name,
		Kind:     kind,
		Message:  msg,
		TargetID: target,
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("kind", string(kind)).Msg("record activity")
	}
}
