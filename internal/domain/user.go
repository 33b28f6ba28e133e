package domain

import (
	"strings"
	"time"
)

type Role string

const (
	RoleMember Role = "member"
	RoleAdmin  Role = "admin"
)

type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityMembers Visibility = "members"
	VisibilityPrivate Visibility = "private"
)

func (v Visibility) Valid() bool {
	switch v {
	case VisibilityPublic, VisibilityMembers, VisibilityPrivate:
		return true
	}
	return false
}

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	ReferralCode string    `json:"referralCode"`
	ReferredBy   string    `json:"referredBy,omitempty"`
	Profile      Profile   `json:"profile"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// PublicView strips fields only the owner and admins may see.
func (u *User) PublicView() PublicUser {
	return PublicUser{
		ID:          u.ID,
		Name:        u.Name,
		DisplayName: u.Profile.DisplayName,
		Bio:         u.Profile.Bio,
		AvatarURL:   u.Profile.AvatarURL,
		Interests:   u.Profile.Interests,
		JoinedAt:    u.CreatedAt,
	}
}

type PublicUser struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	DisplayName string    `json:"displayName,omitempty"`
	Bio         string    `json:"bio,omitempty"`
	AvatarURL   string    `json:"avatarUrl,omitempty"`
	Interests   []string  `json:"interests,omitempty"`
	JoinedAt    time.Time `json:"joinedAt"`
}

type Profile struct {
	DisplayName   string     `json:"displayName"`
	Bio           string     `json:"bio"`
	AvatarURL     string     `json:"avatarUrl"`
	Interests     []string   `json:"interests"`
	Visibility    Visibility `json:"visibility"`
	SetupComplete bool       `json:"setupComplete"`
}

// ProfileUpdate carries optional edits; nil fields are left untouched.
type ProfileUpdate struct {
	Name        *string   `json:"name"`
	DisplayName *string   `json:"displayName"`
	Bio         *string   `json:"bio"`
	AvatarURL   *string   `json:"avatarUrl"`
	Interests   *[]string `json:"interests"`
}

const MaxBioLength = 500

func (p ProfileUpdate) Validate() error {
	v := &ValidationError{}
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		v.Add("name", "cannot be blank")
	}
	if p.Bio != nil && len(*p.Bio) > MaxBioLength {
		v.Addf("bio", "must be at most %d characters", MaxBioLength)
	}
	if p.AvatarURL != nil && *p.AvatarURL != "" && !strings.HasPrefix(*p.AvatarURL, "https://") {
		v.Add("avatarUrl", "must be an https URL")
	}
	return v.OrNil()
}

func (p ProfileUpdate) Apply(u *User) {
	if p.Name != nil {
		u.Name = strings.TrimSpace(*p.Name)
	}
	if p.DisplayName != nil {
		u.Profile.DisplayName = strings.TrimSpace(*p.DisplayName)
	}
	if p.Bio != nil {
		u.Profile.Bio = *p.Bio
	}
	if p.AvatarURL != nil {
		u.Profile.AvatarURL = *p.AvatarURL
	}
	if p.Interests != nil {
		u.Profile.Interests = append([]string(nil), (*p.Interests)...)
	}
}

// ProfileSetup is the onboarding form submitted once after signup.
type ProfileSetup struct {
	DisplayName string     `json:"displayName"`
	Bio         string     `json:"bio"`
	Interests   []string   `json:"interests"`
	Visibility  Visibility `json:"visibility"`
}

func (p ProfileSetup) Validate() error {
	v := &ValidationError{}
	if strings.TrimSpace(p.DisplayName) == "" {
		v.Add("displayName", "is required")
	}
	if len(p.Bio) > MaxBioLength {
		v.Addf("bio", "must be at most %d characters", MaxBioLength)
	}
	if len(p.Interests) == 0 {
		v.Add("interests", "pick at least one interest")
	}
	if p.Visibility != "" && !p.Visibility.Valid() {
		v.Add("visibility", "must be public, members or private")
	}
	return v.OrNil()
}

func (p ProfileSetup) Apply(u *User) {
	u.Profile.DisplayName = strings.TrimSpace(p.DisplayName)
	u.Profile.Bio = p.Bio
	u.Profile.Interests = append([]string(nil), p.Interests...)
	if p.Visibility != "" {
		u.Profile.Visibility = p.Visibility
	}
	u.Profile.SetupComplete = true
}
