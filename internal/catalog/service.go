package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/insiderlife/signalfire/internal/content"
	"github.com/insiderlife/signalfire/internal/domain"
	"github.com/insiderlife/signalfire/internal/storage"
)

var (
	ErrCourseNotFound  = errors.New("course not found")
	ErrContentNotFound = errors.New("content not found")
	ErrCTANotFound     = errors.New("cta not found")
)

type ActivityRecorder interface {
	Record(ctx context.Context, a domain.Activity) error
}

// Service serves courses, the content library and CTA banners.
type Service struct {
	store    storage.CatalogStore
	activity ActivityRecorder
	logger   zerolog.Logger
	now      func() time.Time
}

func NewService(store storage.CatalogStore, activity ActivityRecorder, logger zerolog.Logger) *Service {
	return &Service{store: store, activity: activity, logger: logger, now: time.Now}
}

func (s *Service) Courses(ctx context.Context, q content.Query) (content.Page[domain.Course], error) {
	all, err := s.store.ListCourses(ctx)
	if err != nil {
		return content.Page[domain.Course]{}, err
	}
	return content.Paginate(content.Courses(all, q), q.Limit, q.Offset), nil
}

func (s *Service) Course(ctx context.Context, id string) (*domain.Course, error) {
	c, err := s.store.GetCourse(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrCourseNotFound
	}
	return c, err
}

func (s *Service) Content(ctx context.Context, q content.Query) (content.Page[domain.ContentItem], error) {
	all, err := s.store.ListContent(ctx)
	if err != nil {
		return content.Page[domain.ContentItem]{}, err
	}
	return content.Paginate(content.ContentItems(all, q), q.Limit, q.Offset), nil
}

// ContentDetail is a content item with its CTA resolved.
type ContentDetail struct {
	domain.ContentItem
	CTA *domain.CTA `json:"cta,omitempty"`
}

func (s *Service) ContentItem(ctx context.Context, id string) (*ContentDetail, error) {
	item, err := s.store.GetContent(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrContentNotFound
	}
	if err != nil {
		return nil, err
	}

	detail := &ContentDetail{ContentItem: *item}
	if item.CTAID != "" {
		cta, err := s.store.GetCTA(ctx, item.CTAID)
		switch {
		case err == nil && cta.Active:
			detail.CTA = cta
		case err != nil && !errors.Is(err, storage.ErrNotFound):
			return nil, err
		}
	}
	return detail, nil
}

// SaveContent creates an item when in.ID is empty and replaces it
// otherwise. New items are announced in the activity feed.
func (s *Service) SaveContent(ctx context.Context, actor domain.User, in domain.ContentItem) (*domain.ContentItem, error) {
	created := in.ID == ""
	if created {
		in.ID = uuid.New().String()
		if in.PublishedAt.IsZero() {
			in.PublishedAt = s.now().UTC()
		}
	} else if _, err := s.store.GetContent(ctx, in.ID); errors.Is(err, storage.ErrNotFound) {
		return nil, ErrContentNotFound
	} else if err != nil {
		return nil, err
	}
	if in.Author == "" {
		in.Author = actor.Name
	}

	if err := in.Validate(); err != nil {
		return nil, err
	}
	if in.CTAID != "" {
		if _, err := s.store.GetCTA(ctx, in.CTAID); errors.Is(err, storage.ErrNotFound) {
			v := &domain.ValidationError{}
			v.Add("ctaId", "unknown cta")
			return nil, v
		}
	}

	if err := s.store.SaveContent(ctx, &in); err != nil {
		return nil, fmt.Errorf("save content: %w", err)
	}

	if created {
		err := s.activity.Record(ctx, domain.Activity{
			UserID:   actor.ID,
			UserName: actor.Name,
			Kind:     domain.ActivityContentPublish,
			Message:  "published " + in.Title,
			TargetID: in.ID,
		})
		if err != nil {
			s.logger.Warn().Err(err).Msg("record content activity")
		}
	}
	return &in, nil
}

func (s *Service) DeleteContent(ctx context.Context, id string) error {
	err := s.store.DeleteContent(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrContentNotFound
	}
	return err
}

// CTAs lists banners, optionally narrowed to one placement. Inactive banners
// are only returned when includeInactive is set.
func (s *Service) CTAs(ctx context.Context, placement string, includeInactive bool) ([]domain.CTA, error) {
	all, err := s.store.ListCTAs(ctx)
	if err != nil {
		return nil, err
	}

	return content.Filter(all,
		func(c domain.CTA) bool { return includeInactive || c.Active },
		func(c domain.CTA) bool { return placement == "" || strings.EqualFold(c.Placement, placement) },
	), nil
}

func (s *Service) SaveCTA(ctx context.Context, in domain.CTA) (*domain.CTA, error) {
	if in.ID == "" {
		in.ID = uuid.New().String()
	} else if _, err := s.store.GetCTA(ctx, in.ID); errors.Is(err, storage.ErrNotFound) {
		return nil, ErrCTANotFound
	} else if err != nil {
		return nil, err
	}

	if err := in.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.SaveCTA(ctx, &in); err != nil {
		return nil, fmt.Errorf("save cta: %w", err)
	}
	return &in, nil
}
