package referral

import (
	"context"
	"encoding/base32"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/insiderlife/signalfire/internal/domain"
	"github.com/insiderlife/signalfire/internal/storage"
)

const (
	DefaultCampaign    = "default"
	DefaultDestination = "/signup"
	maxCampaignLength  = 64
	codeAttempts       = 3
)

var ErrUnknownCode = errors.New("unknown referral code")

var codeEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// NewCode returns an 8 character upper-case code.
func NewCode() string {
	id := uuid.New()
	return codeEncoding.EncodeToString(id[:5])
}

func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

type Service struct {
	store storage.ReferralStore
	now   func() time.Time
}

func NewService(store storage.ReferralStore) *Service {
	return &Service{store: store, now: time.Now}
}

// Resolve returns the owner of code, or "" when the code is unknown.
func (s *Service) Resolve(ctx context.Context, code string) (string, error) {
	l, err := s.store.GetReferralLink(ctx, NormalizeCode(code))
	if errors.Is(err, storage.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return l.UserID, nil
}

func (s *Service) RecordSignup(ctx context.Context, code string) error {
	return s.store.IncrementReferral(ctx, NormalizeCode(code), storage.CounterSignups)
}

// RecordVisit counts a click on code and returns its link.
func (s *Service) RecordVisit(ctx context.Context, code string) (*domain.ReferralLink, error) {
	code = NormalizeCode(code)
	l, err := s.store.GetReferralLink(ctx, code)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrUnknownCode
	}
	if err != nil {
		return nil, err
	}

	if err := s.store.IncrementReferral(ctx, code, storage.CounterVisits); err != nil {
		return nil, err
	}
	l.Visits++
	return l, nil
}

func (s *Service) CreateDefaultLink(ctx context.Context, userID, code string) error {
	return s.store.SaveReferralLink(ctx, &domain.ReferralLink{
		ID:          uuid.New().String(),
		UserID:      userID,
		Code:        NormalizeCode(code),
		Campaign:    DefaultCampaign,
		Destination: DefaultDestination,
		CreatedAt:   s.now().UTC(),
	})
}

type CreateLinkRequest struct {
	Campaign    string `json:"campaign"`
	Destination string `json:"destination"`
}

func (r CreateLinkRequest) Validate() error {
	v := &domain.ValidationError{}
	campaign := strings.TrimSpace(r.Campaign)
	if campaign == "" {
		v.Add("campaign", "is required")
	}
	if len(campaign) > maxCampaignLength {
		v.Addf("campaign", "must be at most %d characters", maxCampaignLength)
	}
	if r.Destination != "" && !safeDestination(r.Destination) {
		v.Add("destination", "must be a path on this site")
	}
	return v.OrNil()
}

// safeDestination only allows local paths so /r/{code} cannot be used as an
// open redirect.
func safeDestination(dest string) bool {
	return strings.HasPrefix(dest, "/") && !strings.HasPrefix(dest, "//") && !strings.Contains(dest, `\`)
}

func (s *Service) CreateLink(ctx context.Context, userID string, req CreateLinkRequest) (*domain.ReferralLink, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	dest := req.Destination
	if dest == "" {
		dest = DefaultDestination
	}

	var lastErr error
	for range codeAttempts {
		l := &domain.ReferralLink{
			ID:          uuid.New().String(),
			UserID:      userID,
			Code:        NewCode(),
			Campaign:    strings.TrimSpace(req.Campaign),
			Destination: dest,
			CreatedAt:   s.now().UTC(),
		}
		err := s.store.SaveReferralLink(ctx, l)
		if err == nil {
			return l, nil
		}
		if !errors.Is(err, storage.ErrConflict) {
			return nil, fmt.Errorf("save referral link: %w", err)
		}
		lastErr = err
	}
	return nil, fmt.Errorf("allocate referral code: %w", lastErr)
}

func (s *Service) Links(ctx context.Context, userID string) ([]domain.ReferralLink, error) {
	links, err := s.store.ListReferralLinks(ctx, userID)
	if err != nil {
		return nil, err
	}
	if links == nil {
		links = []domain.ReferralLink{}
	}
	return links, nil
}

func (s *Service) Stats(ctx context.Context, userID string) (domain.ReferralStats, error) {
	links, err := s.store.ListReferralLinks(ctx, userID)
	if err != nil {
		return domain.ReferralStats{}, err
	}

	var st domain.ReferralStats
	st.Links = len(links)
	for _, l := range links {
		st.Visits += l.Visits
		st.Signups += l.Signups
	}
	if st.Visits > 0 {
		st.ConversionRate = float64(st.Signups) * 100 / float64(st.Visits)
	}
	return st, nil
}
