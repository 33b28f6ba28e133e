package profile_test

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/insiderlife/signalfire/internal/activity"
	"github.com/insiderlife/signalfire/internal/auth"
	"github.com/insiderlife/signalfire/internal/domain"
	"github.com/insiderlife/signalfire/internal/profile"
	"github.com/insiderlife/signalfire/internal/storage"
)

func setup(t *testing.T, vis domain.Visibility) (*profile.Service, *activity.Feed) {
	t.Helper()
	repo := storage.NewMemoryRepository()
	feed := activity.NewFeed(repo)
	t.Cleanup(feed.Close)

	err := repo.CreateUser(context.Background(), &domain.User{
		ID:           "u1",
		Email:        "u1@example.com",
		Name:         "Uma",
		Role:         domain.RoleMember,
		ReferralCode: "AAAAAAAA",
		Profile:      domain.Profile{Visibility: vis},
		CreatedAt:    time.Now(),
	})
	if err != nil {
		t.Fatal(err)
	}
	return profile.NewService(repo, feed, zerolog.New(io.Discard)), feed
}

func ptr[T any](v T) *T { return &v }

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	svc, _ := setup(t, domain.VisibilityPublic)

	u, err := svc.Update(ctx, "u1", domain.ProfileUpdate{Bio: ptr("macro nerd"), Interests: ptr([]string{"rates"})})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if u.Profile.Bio != "macro nerd" || u.Name != "Uma" || len(u.Profile.Interests) != 1 {
		t.Fatalf("user = %+v", u)
	}

	if _, err := svc.Update(ctx, "u1", domain.ProfileUpdate{Name: ptr(" ")}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("blank name err = %v", err)
	}
	if _, err := svc.Update(ctx, "u1", domain.ProfileUpdate{AvatarURL: ptr("http://insecure")}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("http avatar err = %v", err)
	}
	if _, err := svc.Update(ctx, "ghost", domain.ProfileUpdate{}); !errors.Is(err, profile.ErrNotFound) {
		t.Fatalf("missing user err = %v", err)
	}
}

func TestSetupRecordsOnce(t *testing.T) {
	ctx := context.Background()
	svc, feed := setup(t, domain.VisibilityPublic)

	setup := domain.ProfileSetup{DisplayName: "uma", Interests: []string{"fx"}, Visibility: domain.VisibilityMembers}
	for range 2 {
		u, err := svc.Setup(ctx, "u1", setup)
		if err != nil {
			t.Fatalf("Setup: %v", err)
		}
		if !u.Profile.SetupComplete || u.Profile.Visibility != domain.VisibilityMembers {
			t.Fatalf("profile = %+v", u.Profile)
		}
	}

	acts, _ := feed.Recent(ctx, 10)
	if len(acts) != 1 || acts[0].Kind != domain.ActivityProfileSetup {
		t.Fatalf("activities = %+v", acts)
	}

	if _, err := svc.Setup(ctx, "u1", domain.ProfileSetup{}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("empty setup err = %v", err)
	}
}

func TestPublicVisibility(t *testing.T) {
	ctx := context.Background()

	self := auth.Identity{UserID: "u1", Role: domain.RoleMember}
	other := auth.Identity{UserID: "u2", Role: domain.RoleMember}
	admin := auth.Identity{UserID: "u3", Role: domain.RoleAdmin}
	anon := auth.Identity{}

	tests := []struct {
		vis     domain.Visibility
		viewer  auth.Identity
		visible bool
	}{
		{domain.VisibilityPublic, anon, true},
		{domain.VisibilityMembers, anon, false},
		{domain.VisibilityMembers, other, true},
		{domain.VisibilityPrivate, other, false},
		{domain.VisibilityPrivate, self, true},
		{domain.VisibilityPrivate, admin, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.vis)+"/"+tt.viewer.UserID, func(t *testing.T) {
			svc, _ := setup(t, tt.vis)

			pub, err := svc.Public(ctx, tt.viewer, "u1")
			if tt.visible {
				if err != nil || pub.Name != "Uma" {
					t.Fatalf("Public() = %+v, %v", pub, err)
				}
				return
			}
			if !errors.Is(err, profile.ErrNotFound) {
				t.Fatalf("Public() err = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestSetVisibility(t *testing.T) {
	ctx := context.Background()
	svc, _ := setup(t, domain.VisibilityPublic)

	u, err := svc.SetVisibility(ctx, "u1", domain.VisibilityPrivate)
	if err != nil || u.Profile.Visibility != domain.VisibilityPrivate {
		t.Fatalf("SetVisibility = %+v, %v", u, err)
	}
	if _, err := svc.SetVisibility(ctx, "u1", "friends"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("bad visibility err = %v", err)
	}
}
