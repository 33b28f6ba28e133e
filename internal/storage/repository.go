package storage

import (
	"context"
	"errors"

	"github.com/insiderlife/signalfire/internal/domain"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")
)

type UserStore interface {
	CreateUser(ctx context.Context, u *domain.User) error
	UpdateUser(ctx context.Context, u *domain.User) error
	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
}

type CatalogStore interface {
	ListCourses(ctx context.Context) ([]domain.Course, error)
	GetCourse(ctx context.Context, id string) (*domain.Course, error)
	SaveCourse(ctx context.Context, c *domain.Course) error

	ListContent(ctx context.Context) ([]domain.ContentItem, error)
	GetContent(ctx context.Context, id string) (*domain.ContentItem, error)
	SaveContent(ctx context.Context, c *domain.ContentItem) error
	DeleteContent(ctx context.Context, id string) error

	ListCTAs(ctx context.Context) ([]domain.CTA, error)
	GetCTA(ctx context.Context, id string) (*domain.CTA, error)
	SaveCTA(ctx context.Context, c *domain.CTA) error
}

type SeriesStore interface {
	ListSeries(ctx context.Context) ([]domain.SignalSeries, error)
	GetSeries(ctx context.Context, id string) (*domain.SignalSeries, error)
	SaveSeries(ctx context.Context, s *domain.SignalSeries) error
	DeleteSeries(ctx context.Context, id string) error
}

type FunnelStore interface {
	ListFunnels(ctx context.Context) ([]domain.Funnel, error)
	GetFunnel(ctx context.Context, id string) (*domain.Funnel, error)
	SaveFunnel(ctx context.Context, f *domain.Funnel) error
	DeleteFunnel(ctx context.Context, id string) error
}

type ActivityStore interface {
	// AddActivity ignores an entry whose ID is already stored.
	AddActivity(ctx context.Context, a *domain.Activity) error
	// RecentActivities returns at most limit entries, newest first.
	RecentActivities(ctx context.Context, limit int) ([]domain.Activity, error)
}

type ReferralStore interface {
	SaveReferralLink(ctx context.Context, l *domain.ReferralLink) error
	GetReferralLink(ctx context.Context, code string) (*domain.ReferralLink, error)
	ListReferralLinks(ctx context.Context, userID string) ([]domain.ReferralLink, error)
	// IncrementReferral bumps the visits or signups counter of a link.
	IncrementReferral(ctx context.Context, code string, field ReferralCounter) error
}

type ReferralCounter string

const (
	CounterVisits  ReferralCounter = "visits"
	CounterSignups ReferralCounter = "signups"
)

type Repository interface {
	UserStore
	CatalogStore
	SeriesStore
	FunnelStore
	ActivityStore
	ReferralStore

	// Empty reports whether no catalog data has been loaded yet.
	Empty(ctx context.Context) (bool, error)

	Close() error
}
