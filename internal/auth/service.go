package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/insiderlife/signalfire/internal/domain"
	"github.com/insiderlife/signalfire/internal/referral"
	"github.com/insiderlife/signalfire/internal/storage"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrUnauthenticated    = errors.New("authentication required")
	ErrForbidden          = errors.New("admin access required")
)

// Referrals resolves referral codes at signup and gives new users their own
// link.
type Referrals interface {
	Resolve(ctx context.Context, code string) (referrerID string, err error)
	RecordSignup(ctx context.Context, code string) error
	CreateDefaultLink(ctx context.Context, userID, code string) error
}

type ActivityRecorder interface {
	Record(ctx context.Context, a domain.Activity) error
}

type Service struct {
	users     storage.UserStore
	referrals Referrals
	activity  ActivityRecorder
	tokens    *Tokens
	logger    zerolog.Logger

	isAdmin  func(email string) bool
	hashCost int
	now      func() time.Time
}

type Option func(*Service)

func WithAdminCheck(f func(email string) bool) Option {
	return func(s *Service) { s.isAdmin = f }
}

func WithHashCost(cost int) Option {
	return func(s *Service) { s.hashCost = cost }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
		s.tokens.now = now
	}
}

func NewService(users storage.UserStore, referrals Referrals, activity ActivityRecorder, tokens *Tokens, logger zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		users:     users,
		referrals: referrals,
		activity:  activity,
		tokens:    tokens,
		logger:    logger,
		isAdmin:   func(string) bool { return false },
		hashCost:  bcrypt.DefaultCost,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Session is what a successful signup or login hands back to the client.
type Session struct {
	User      *domain.User `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
}

// Signup registers a user. referralCode comes from the request body or the
// referral cookie; unknown codes are ignored.
func (s *Service) Signup(ctx context.Context, req domain.SignupRequest, referralCode string) (*Session, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.ReferralCode != "" {
		referralCode = req.ReferralCode
	}

	if _, err := s.users.GetUserByEmail(ctx, req.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("lookup email: %w", err)
	}

	hash, err := hashPassword(req.Password, s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		ID:           uuid.New().String(),
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: hash,
		Role:         domain.RoleMember,
		ReferralCode: referral.NewCode(),
		Profile:      domain.Profile{Visibility: domain.VisibilityPublic},
		CreatedAt:    s.now().UTC(),
	}
	if s.isAdmin(user.Email) {
		user.Role = domain.RoleAdmin
	}

	if referralCode != "" {
		referrerID, err := s.referrals.Resolve(ctx, referralCode)
		if err != nil {
			return nil, fmt.Errorf("resolve referral: %w", err)
		}
		user.ReferredBy = referrerID
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	if err := s.referrals.CreateDefaultLink(ctx, user.ID, user.ReferralCode); err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID).Msg("create default referral link")
	}

	s.record(ctx, domain.Activity{
		UserID:   user.ID,
		UserName: user.Name,
		Kind:     domain.ActivitySignup,
		Message:  user.Name + " joined the community",
	})

	if user.ReferredBy != "" {
		if err := s.referrals.RecordSignup(ctx, referralCode); err != nil {
			s.logger.Error().Err(err).Str("code", referralCode).Msg("record referral signup")
		}
		s.record(ctx, domain.Activity{
			UserID:   user.ReferredBy,
			Kind:     domain.ActivityReferral,
			Message:  user.Name + " signed up from a referral",
			TargetID: user.ID,
		})
	}

	return s.issue(user)
}

func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.users.GetUserByEmail(ctx, domain.NormalizeEmail(email))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	ok, err := checkPassword(user.PasswordHash, password)
	if err != nil {
		return nil, fmt.Errorf("check password: %w", err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	return s.issue(user)
}

func (s *Service) Authenticate(token string) (Identity, error) {
	return s.tokens.Parse(token)
}

func (s *Service) CurrentUser(ctx context.Context, id string) (*domain.User, error) {
	u, err := s.users.GetUser(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrUnauthenticated
	}
	return u, err
}

func (s *Service) issue(user *domain.User) (*Session, error) {
	token, exp, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return nil, err
	}
	return &Session{User: user, Token: token, ExpiresAt: exp}, nil
}

func (s *Service) record(ctx context.Context, a domain.Activity) {
	if err := s.activity.Record(ctx, a); err != nil {
		s.logger.Warn().Err(err).Str("kind", string(a.Kind)).Msg("record activity")
	}
}
