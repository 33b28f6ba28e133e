// Package dashboard aggregates the numbers shown on the member and admin
// dashboards. Each section is loaded concurrently.
package dashboard

import (
	"context"
	"fmt"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/insiderlife/signalfire/internal/content"
	"github.com/insiderlife/signalfire/internal/domain"
	"github.com/insiderlife/signalfire/internal/funnel"
	"github.com/insiderlife/signalfire/internal/progress"
	"github.com/insiderlife/signalfire/internal/storage"
)

const (
	TopContentLimit     = 5
	RecentActivityLimit = 10
)

type Store interface {
	storage.CatalogStore
	storage.SeriesStore
	storage.FunnelStore
	storage.UserStore
}

type ActivitySource interface {
	Recent(ctx context.Context, limit int) ([]domain.Activity, error)
}

type ReferralSource interface {
	Stats(ctx context.Context, userID string) (domain.ReferralStats, error)
}

type ProgressSource interface {
	ForUser(userID string) []progress.Progress
}

type Counts struct {
	Courses int `json:"courses"`
	Content int `json:"content"`
	Series  int `json:"series"`
	Funnels int `json:"funnels"`
	Users   int `json:"users,omitempty"`
}

type Member struct {
	Counts     Counts               `json:"counts"`
	TopContent []domain.ContentItem `json:"topContent"`
	Categories map[string]int       `json:"categories"`
	Activity   []domain.Activity    `json:"activity"`
	Referrals  domain.ReferralStats `json:"referrals"`
	Progress   []progress.Progress  `json:"progress"`
}

type Admin struct {
	Member
	Funnels []funnel.Stats `json:"funnels"`
	Roles   map[string]int `json:"roles"`
}

type Service struct {
	store     Store
	activity  ActivitySource
	referrals ReferralSource
	progress  ProgressSource
}

func NewService(store Store, activity ActivitySource, referrals ReferralSource, progress ProgressSource) *Service {
	return &Service{store: store, activity: activity, referrals: referrals, progress: progress}
}

// Member builds the dashboard for userID.
func (s *Service) Member(ctx context.Context, userID string) (*Member, error) {
	var d Member
	g, ctx := errgroup.WithContext(ctx)
	s.loadCommon(ctx, g, &d)

	g.Go(func() error {
		st, err := s.referrals.Stats(ctx, userID)
		if err != nil {
			return fmt.Errorf("referral stats: %w", err)
		}
		d.Referrals = st
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	d.Progress = s.progress.ForUser(userID)
	if d.Progress == nil {
		d.Progress = []progress.Progress{}
	}
	return &d, nil
}

// Admin extends the member dashboard with site-wide user and funnel data.
func (s *Service) Admin(ctx context.Context, userID string) (*Admin, error) {
	var d Admin
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		m, err := s.Member(gctx, userID)
		if err != nil {
			return err
		}
		d.Member = *m
		return nil
	})

	var users []domain.User
	g.Go(func() error {
		var err error
		users, err = s.store.ListUsers(gctx)
		if err != nil {
			return fmt.Errorf("list users: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		funnels, err := s.store.ListFunnels(gctx)
		if err != nil {
			return fmt.Errorf("list funnels: %w", err)
		}
		d.Funnels = make([]funnel.Stats, 0, len(funnels))
		for i := range funnels {
			d.Funnels = append(d.Funnels, funnel.Summarize(&funnels[i]))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	d.Counts.Users = len(users)
	d.Roles = content.Categories(users, func(u domain.User) string { return string(u.Role) })
	return &d, nil
}

func (s *Service) loadCommon(ctx context.Context, g *errgroup.Group, d *Member) {
	g.Go(func() error {
		courses, err := s.store.ListCourses(ctx)
		if err != nil {
			return fmt.Errorf("list courses: %w", err)
		}
		d.Counts.Courses = len(courses)
		return nil
	})

	g.Go(func() error {
		items, err := s.store.ListContent(ctx)
		if err != nil {
			return fmt.Errorf("list content: %w", err)
		}
		d.Counts.Content = len(items)
		d.Categories = content.Categories(items, func(c domain.ContentItem) string { return c.Category })

		top := content.ContentItems(items, content.Query{SortBy: "views"})
		d.TopContent = slices.Clip(top[:min(len(top), TopContentLimit)])
		return nil
	})

	g.Go(func() error {
		series, err := s.store.ListSeries(ctx)
		if err != nil {
			return fmt.Errorf("list series: %w", err)
		}
		published := content.Filter(series, func(x domain.SignalSeries) bool { return x.Status == domain.SeriesPublished })
		d.Counts.Series = len(published)
		return nil
	})

	g.Go(func() error {
		funnels, err := s.store.ListFunnels(ctx)
		if err != nil {
			return fmt.Errorf("list funnels: %w", err)
		}
		d.Counts.Funnels = len(funnels)
		return nil
	})

	g.Go(func() error {
		acts, err := s.activity.Recent(ctx, RecentActivityLimit)
		if err != nil {
			return fmt.Errorf("recent activity: %w", err)
		}
		d.Activity = acts
		return nil
	})
}
