package profile

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/insiderlife/signalfire/internal/auth"
	"github.com/insiderlife/signalfire/internal/domain"
	"github.com/insiderlife/signalfire/internal/storage"
)

var ErrNotFound = errors.New("user not found")

type ActivityRecorder interface {
	Record(ctx context.Context, a domain.Activity) error
}

// Service backs the /api/users endpoints.
type Service struct {
	users    storage.UserStore
	activity ActivityRecorder
	logger   zerolog.Logger
}

func NewService(users storage.UserStore, activity ActivityRecorder, logger zerolog.Logger) *Service {
	return &Service{users: users, activity: activity, logger: logger}
}

func (s *Service) Get(ctx context.Context, userID string) (*domain.User, error) {
	u, err := s.users.GetUser(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotFound
	}
	return u, err
}

func (s *Service) Update(ctx context.Context, userID string, upd domain.ProfileUpdate) (*domain.User, error) {
	if err := upd.Validate(); err != nil {
		return nil, err
	}
	return s.mutate(ctx, userID, upd.Apply)
}

func (s *Service) SetVisibility(ctx context.Context, userID string, v domain.Visibility) (*domain.User, error) {
	if !v.Valid() {
		verr := &domain.ValidationError{}
		verr.Add("visibility", "must be public, members or private")
		return nil, verr
	}
	return s.mutate(ctx, userID, func(u *domain.User) { u.Profile.Visibility = v })
}

// Setup completes onboarding. The first completion is announced in the
// activity feed.
func (s *Service) Setup(ctx context.Context, userID string, setup domain.ProfileSetup) (*domain.User, error) {
	if err := setup.Validate(); err != nil {
		return nil, err
	}

	first := false
	u, err := s.mutate(ctx, userID, func(u *domain.User) {
		first = !u.Profile.SetupComplete
		setup.Apply(u)
	})
	if err != nil {
		return nil, err
	}

	if first {
		err := s.activity.Record(ctx, domain.Activity{
			UserID:   u.ID,
			UserName: u.Name,
			Kind:     domain.ActivityProfileSetup,
			Message:  u.Name + " finished setting up their profile",
		})
		if err != nil {
			s.logger.Warn().Err(err).Msg("record profile activity")
		}
	}
	return u, nil
}

// Public returns the profile of id as seen by viewer. Private profiles are
// only visible to their owner and admins; members-only profiles need any
// signed-in viewer. Hidden profiles report ErrNotFound.
func (s *Service) Public(ctx context.Context, viewer auth.Identity, id string) (*domain.PublicUser, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	self := viewer.UserID != "" && viewer.UserID == u.ID
	switch u.Profile.Visibility {
	case domain.VisibilityPrivate:
		if !self && !viewer.IsAdmin() {
			return nil, ErrNotFound
		}
	case domain.VisibilityMembers:
		if viewer.UserID == "" {
			return nil, ErrNotFound
		}
	}

	pub := u.PublicView()
	return &pub, nil
}

func (s *Service) List(ctx context.Context) ([]domain.User, error) {
	return s.users.ListUsers(ctx)
}

func (s *Service) mutate(ctx context.Context, userID string, fn func(u *domain.User)) (*domain.User, error) {
	u, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	fn(u)
	if err := s.users.UpdateUser(ctx, u); err != nil {
		return nil, fmt.Errorf("update user %s: %w", userID, err)
	}
	return u, nil
}
