package referral_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/insiderlife/signalfire/internal/domain"
	"github.com/insiderlife/signalfire/internal/referral"
	"github.com/insiderlife/signalfire/internal/storage"
)

var codePattern = regexp.MustCompile(`^[A-Z2-7]{8}$`)

func TestNewCode(t *testing.T) {
	seen := make(map[string]bool)
	for range 100 {
		c := referral.NewCode()
		if !codePattern.MatchString(c) {
			t.Fatalf("code %q does not match %s", c, codePattern)
		}
		if seen[c] {
			t.Fatalf("duplicate code %q", c)
		}
		seen[c] = true
	}
}

func TestResolveAndSignup(t *testing.T) {
	ctx := context.Background()
	repo := storage.NewMemoryRepository()
	svc := referral.NewService(repo)

	if err := svc.CreateDefaultLink(ctx, "u1", "abcd2345"); err != nil {
		t.Fatalf("CreateDefaultLink: %v", err)
	}

	owner, err := svc.Resolve(ctx, " abcd2345 ")
	if err != nil || owner != "u1" {
		t.Fatalf("Resolve() = %q, %v; want u1", owner, err)
	}

	owner, err = svc.Resolve(ctx, "ZZZZZZZZ")
	if err != nil || owner != "" {
		t.Fatalf("Resolve(unknown) = %q, %v; want empty", owner, err)
	}

	if _, err := svc.RecordVisit(ctx, "ABCD2345"); err != nil {
		t.Fatalf("Visit: %v", err)
	}
	if err := svc.RecordSignup(ctx, "ABCD2345"); err != nil {
		t.Fatalf("RecordSignup: %v", err)
	}

	st, err := svc.Stats(ctx, "u1")
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	want := domain.ReferralStats{Links: 1, Visits: 1, Signups: 1, ConversionRate: 100}
	if st != want {
		t.Fatalf("Stats() = %+v, want %+v", st, want)
	}

	if _, err := svc.RecordVisit(ctx, "NOPE"); !errors.Is(err, referral.ErrUnknownCode) {
		t.Fatalf("Visit(unknown) err = %v", err)
	}
}

func TestCreateLinkValidation(t *testing.T) {
	ctx := context.Background()
	svc := referral.NewService(storage.NewMemoryRepository())

	tests := []struct {
		name    string
		req     referral.CreateLinkRequest
		wantErr bool
	}{
		{name: "default destination", req: referral.CreateLinkRequest{Campaign: "spring"}},
		{name: "local path", req: referral.CreateLinkRequest{Campaign: "spring", Destination: "/courses"}},
		{name: "missing campaign", req: referral.CreateLinkRequest{}, wantErr: true},
		{name: "absolute url", req: referral.CreateLinkRequest{Campaign: "x", Destination: "https://evil.example"}, wantErr: true},
		{name: "protocol relative", req: referral.CreateLinkRequest{Campaign: "x", Destination: "//evil.example"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := svc.CreateLink(ctx, "u1", tt.req)
			if tt.wantErr {
				if !errors.Is(err, domain.ErrValidation) {
					t.Fatalf("CreateLink() err = %v, want validation error", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("CreateLink() err = %v", err)
			}
			if l.Destination == "" || !codePattern.MatchString(l.Code) {
				t.Fatalf("link = %+v", l)
			}
		})
	}

	links, err := svc.Links(ctx, "u1")
	if err != nil || len(links) != 2 {
		t.Fatalf("Links() = %d, %v; want 2", len(links), err)
	}

	none, err := svc.Links(ctx, "nobody")
	if err != nil || none == nil || len(none) != 0 {
		t.Fatalf("Links(nobody) = %#v, %v; want empty slice", none, err)
	}
}

func TestCapture(t *testing.T) {
	ctx := context.Background()
	repo := storage.NewMemoryRepository()
	svc := referral.NewService(repo)
	if err := svc.CreateDefaultLink(ctx, "u1", "ABCD2345"); err != nil {
		t.Fatal(err)
	}

	var seen string
	h := referral.Capture(svc, time.Hour, false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.URL.Path
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/courses?ref=abcd2345", nil))

	if seen != "/courses" {
		t.Fatalf("next handler not called")
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != referral.Cookie || cookies[0].Value != "ABCD2345" {
		t.Fatalf("cookies = %+v", cookies)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?ref=UNKNOWN1", nil))
	if len(rec.Result().Cookies()) != 0 {
		t.Fatalf("cookie set for unknown code")
	}

	links, _ := repo.ListReferralLinks(ctx, "u1")
	if links[0].Visits != 1 {
		t.Fatalf("visits = %d, want 1", links[0].Visits)
	}

	req := httptest.NewRequest(http.MethodGet, "/signup", nil)
	req.AddCookie(&http.Cookie{Name: referral.Cookie, Value: "abcd2345"})
	if got := referral.FromRequest(req); got != "ABCD2345" {
		t.Fatalf("FromRequest() = %q", got)
	}
}
