package series_test

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/rs/zerolog"

	"github.com/insiderlife/signalfire/internal/activity"
	"github.com/insiderlife/signalfire/internal/auth"
	"github.com/insiderlife/signalfire/internal/content"
	"github.com/insiderlife/signalfire/internal/domain"
	"github.com/insiderlife/signalfire/internal/progress"
	"github.com/insiderlife/signalfire/internal/series"
	"github.com/insiderlife/signalfire/internal/storage"
)

var (
	admin  = auth.Identity{UserID: "admin-1", Role: domain.RoleAdmin}
	member = auth.Identity{UserID: "member-1", Role: domain.RoleMember}
	anon   = auth.Identity{}
)

func setup(t *testing.T) (*series.Service, *activity.Feed) {
	t.Helper()

	repo := storage.NewMemoryRepository()
	feed := activity.NewFeed(repo)
	tracker := progress.NewTracker()
	t.Cleanup(func() {
		feed.Close()
		tracker.Close()
	})
	return series.NewService(repo, repo, tracker, feed, zerolog.New(io.Discard)), feed
}

func threeSteps() []domain.Step {
	return []domain.Step{
		{Title: "Read", Kind: domain.StepArticle, DurationMinutes: 5},
		{Title: "Watch", Kind: domain.StepVideo, DurationMinutes: 10},
		{Title: "Apply", Kind: domain.StepMixed, DurationMinutes: 15},
	}
}

func TestCreateAndVisibility(t *testing.T) {
	ctx := context.Background()
	svc, _ := setup(t)

	draft, err := svc.Create(ctx, admin, domain.SignalSeries{Title: "Draft", Steps: threeSteps()})
	if err != nil {
		t.Fatalf("Create draft: %v", err)
	}
	if draft.ID == "" || draft.Status != domain.SeriesDraft || draft.AuthorID != admin.UserID || draft.Steps[2].Index != 2 {
		t.Fatalf("draft = %+v", draft)
	}

	pub, err := svc.Create(ctx, admin, domain.SignalSeries{Title: "Live", Status: domain.SeriesPublished, Steps: threeSteps()})
	if err != nil {
		t.Fatalf("Create published: %v", err)
	}

	if _, err := svc.Get(ctx, anon, draft.ID); !errors.Is(err, series.ErrNotFound) {
		t.Fatalf("anonymous draft err = %v", err)
	}
	if _, err := svc.Get(ctx, anon, pub.ID); err != nil {
		t.Fatalf("anonymous published err = %v", err)
	}

	list, err := svc.List(ctx, member, content.Query{})
	if err != nil || len(list) != 1 || list[0].ID != pub.ID {
		t.Fatalf("member list = %+v, %v", list, err)
	}
	all, _ := svc.List(ctx, admin, content.Query{})
	if len(all) != 2 {
		t.Fatalf("admin list = %d, want 2", len(all))
	}

	if _, err := svc.Create(ctx, admin, domain.SignalSeries{Title: ""}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("invalid create err = %v", err)
	}
}

func TestUpdateKeepsIdentity(t *testing.T) {
	ctx := context.Background()
	svc, _ := setup(t)

	orig, err := svc.Create(ctx, admin, domain.SignalSeries{Title: "v1", Steps: threeSteps()})
	if err != nil {
		t.Fatal(err)
	}

	upd, err := svc.Update(ctx, admin, orig.ID, domain.SignalSeries{ID: "ignored", Title: "v2", Steps: threeSteps()[:1]})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if upd.ID != orig.ID || upd.AuthorID != orig.AuthorID || !upd.CreatedAt.Equal(orig.CreatedAt) {
		t.Fatalf("identity changed: %+v", upd)
	}
	if upd.Status != domain.SeriesDraft || len(upd.Steps) != 1 {
		t.Fatalf("update = %+v", upd)
	}

	if err := svc.Delete(ctx, orig.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := svc.Delete(ctx, orig.ID); !errors.Is(err, series.ErrNotFound) {
		t.Fatalf("second Delete err = %v", err)
	}
}

func TestDuplicate(t *testing.T) {
	ctx := context.Background()
	svc, feed := setup(t)

	pub, err := svc.Create(ctx, admin, domain.SignalSeries{Title: "Live", Status: domain.SeriesPublished, Steps: threeSteps()})
	if err != nil {
		t.Fatal(err)
	}

	cp, err := svc.Duplicate(ctx, member, pub.ID)
	if err != nil {
		t.Fatalf("Duplicate: %v", err)
	}
	if cp.ID == pub.ID || cp.AuthorID != member.UserID || cp.Status != domain.SeriesDraft {
		t.Fatalf("copy = %+v", cp)
	}

	mine, _ := svc.List(ctx, member, content.Query{})
	if len(mine) != 2 {
		t.Fatalf("member should see original and own draft copy, got %d", len(mine))
	}

	acts, _ := feed.Recent(ctx, 5)
	if len(acts) != 1 || acts[0].Kind != domain.ActivitySeriesDuplicate || acts[0].TargetID != cp.ID {
		t.Fatalf("activities = %+v", acts)
	}
}

func TestProgressFlow(t *testing.T) {
	ctx := context.Background()
	svc, feed := setup(t)

	pub, err := svc.Create(ctx, admin, domain.SignalSeries{Title: "Live", Status: domain.SeriesPublished, Steps: threeSteps()[:2]})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Step(ctx, member, pub.ID, series.MoveNext, 0); !errors.Is(err, progress.ErrNotStarted) {
		t.Fatalf("Step before start err = %v", err)
	}

	if _, err := svc.StartProgress(ctx, member, pub.ID); err != nil {
		t.Fatalf("StartProgress: %v", err)
	}
	if _, err := svc.StartProgress(ctx, member, pub.ID); err != nil {
		t.Fatalf("StartProgress resume: %v", err)
	}

	if _, err := svc.Step(ctx, member, pub.ID, series.MoveJump, 9); !errors.Is(err, progress.ErrInvalidStep) {
		t.Fatalf("bad jump err = %v", err)
	}

	p, err := svc.Step(ctx, member, pub.ID, series.MoveNext, 0)
	if err != nil || p.CurrentIdx != 1 {
		t.Fatalf("Next = %+v, %v", p, err)
	}
	p, err = svc.Step(ctx, member, pub.ID, series.MoveNext, 0)
	if err != nil || !p.Done() {
		t.Fatalf("final Next = %+v, %v", p, err)
	}
	// Finishing again must not record a second completion.
	if _, err := svc.Step(ctx, member, pub.ID, series.MoveNext, 0); err != nil {
		t.Fatal(err)
	}

	acts, _ := feed.Recent(ctx, 10)
	kinds := map[domain.ActivityKind]int{}
	for _, a := range acts {
		kinds[a.Kind]++
	}
	if kinds[domain.ActivitySeriesStarted] != 1 || kinds[domain.ActivitySeriesCompleted] != 1 {
		t.Fatalf("activity kinds = %v", kinds)
	}

	if err := svc.ResetProgress(ctx, member, pub.ID); err != nil {
		t.Fatalf("ResetProgress: %v", err)
	}
	if _, err := svc.Progress(ctx, member, pub.ID); !errors.Is(err, progress.ErrNotStarted) {
		t.Fatalf("Progress after reset err = %v", err)
	}
}
