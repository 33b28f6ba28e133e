// Package seed loads the demo catalog into an empty store.
package seed

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/insiderlife/signalfire/internal/domain"
	"github.com/insiderlife/signalfire/internal/storage"
)

//go:embed fixtures.yaml
var fixtures []byte

type Fixtures struct {
	Courses    []domain.Course       `yaml:"courses"`
	Content    []domain.ContentItem  `yaml:"content"`
	CTAs       []domain.CTA          `yaml:"ctas"`
	Series     []domain.SignalSeries `yaml:"series"`
	Funnels    []domain.Funnel       `yaml:"funnels"`
	Activities []domain.Activity     `yaml:"activities"`
}

type Store interface {
	storage.CatalogStore
	storage.SeriesStore
	storage.FunnelStore
	storage.ActivityStore
	Empty(ctx context.Context) (bool, error)
}

// Summary counts what a load wrote.
type Summary struct {
	Courses    int
	Content    int
	CTAs       int
	Series     int
	Funnels    int
	Activities int
	Skipped    bool
}

// Default returns the embedded fixtures.
func Default() (*Fixtures, error) {
	return Parse(bytes.NewReader(fixtures))
}

// Parse decodes fixtures, rejecting unknown keys.
func Parse(r io.Reader) (*Fixtures, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f Fixtures
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode fixtures: %w", err)
	}
	for i := range f.Series {
		f.Series[i].Reindex()
	}
	return &f, nil
}

// Load writes f into store. Existing records with the same IDs are
// overwritten.
func Load(ctx context.Context, store Store, f *Fixtures) (Summary, error) {
	var sum Summary

	for i := range f.CTAs {
		if err := store.SaveCTA(ctx, &f.CTAs[i]); err != nil {
			return sum, fmt.Errorf("seed cta %s: %w", f.CTAs[i].ID, err)
		}
		sum.CTAs++
	}
	for i := range f.Courses {
		if err := store.SaveCourse(ctx, &f.Courses[i]); err != nil {
			return sum, fmt.Errorf("seed course %s: %w", f.Courses[i].ID, err)
		}
		sum.Courses++
	}
	for i := range f.Content {
		if err := store.SaveContent(ctx, &f.Content[i]); err != nil {
			return sum, fmt.Errorf("seed content %s: %w", f.Content[i].ID, err)
		}
		sum.Content++
	}
	for i := range f.Series {
		if err := store.SaveSeries(ctx, &f.Series[i]); err != nil {
			return sum, fmt.Errorf("seed series %s: %w", f.Series[i].ID, err)
		}
		sum.Series++
	}
	for i := range f.Funnels {
		if err := store.SaveFunnel(ctx, &f.Funnels[i]); err != nil {
			return sum, fmt.Errorf("seed funnel %s: %w", f.Funnels[i].ID, err)
		}
		sum.Funnels++
	}
	for i := range f.Activities {
		if err := store.AddActivity(ctx, &f.Activities[i]); err != nil {
			return sum, fmt.Errorf("seed activity %s: %w", f.Activities[i].ID, err)
		}
		sum.Activities++
	}
	return sum, nil
}

// LoadIfEmpty loads the embedded fixtures unless the store already holds
// catalog data.
func LoadIfEmpty(ctx context.Context, store Store) (Summary, error) {
	empty, err := store.Empty(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("check store: %w", err)
	}
	if !empty {
		return Summary{Skipped: true}, nil
	}

	f, err := Default()
	if err != nil {
		return Summary{}, err
	}
	return Load(ctx, store, f)
}
