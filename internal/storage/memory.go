package storage

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/insiderlife/signalfire/internal/domain"
)

// MemoryRepository keeps everything in maps guarded by one mutex. It backs
// the default configuration and tests.
type MemoryRepository struct {
	mu         sync.RWMutex
	users      map[string]domain.User
	courses    map[string]domain.Course
	content    map[string]domain.ContentItem
	ctas       map[string]domain.CTA
	series     map[string]domain.SignalSeries
	funnels    map[string]domain.Funnel
	activities []domain.Activity
	referrals  map[string]domain.ReferralLink
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		users:     make(map[string]domain.User),
		courses:   make(map[string]domain.Course),
		content:   make(map[string]domain.ContentItem),
		ctas:      make(map[string]domain.CTA),
		series:    make(map[string]domain.SignalSeries),
		funnels:   make(map[string]domain.Funnel),
		referrals: make(map[string]domain.ReferralLink),
	}
}

func (m *MemoryRepository) CreateUser(ctx context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.users[u.ID]; exists {
		return ErrConflict
	}
	for _, other := range m.users {
		if other.Email == u.Email {
			return ErrConflict
		}
	}
	m.users[u.ID] = cloneUser(*u)
	return nil
}

func (m *MemoryRepository) UpdateUser(ctx context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.users[u.ID]; !exists {
		return ErrNotFound
	}
	m.users[u.ID] = cloneUser(*u)
	return nil
}

func (m *MemoryRepository) GetUser(ctx context.Context, id string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := cloneUser(u)
	return &cp, nil
}

func (m *MemoryRepository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return m.findUser(func(u domain.User) bool { return u.Email == email })
}

func (m *MemoryRepository) findUser(match func(domain.User) bool) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if match(u) {
			cp := cloneUser(u)
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryRepository) ListUsers(ctx context.Context) ([]domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, cloneUser(u))
	}
	slices.SortFunc(out, func(a, b domain.User) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (m *MemoryRepository) ListCourses(ctx context.Context) ([]domain.Course, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return sortedValues(m.courses, cloneCourse, func(c domain.Course) string { return c.ID }), nil
}

func (m *MemoryRepository) GetCourse(ctx context.Context, id string) (*domain.Course, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return lookup(m.courses, id, cloneCourse)
}

func (m *MemoryRepository) SaveCourse(ctx context.Context, c *domain.Course) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.courses[c.ID] = cloneCourse(*c)
	return nil
}

func (m *MemoryRepository) ListContent(ctx context.Context) ([]domain.ContentItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return sortedValues(m.content, cloneContent, func(c domain.ContentItem) string { return c.ID }), nil
}

func (m *MemoryRepository) GetContent(ctx context.Context, id string) (*domain.ContentItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return lookup(m.content, id, cloneContent)
}

func (m *MemoryRepository) SaveContent(ctx context.Context, c *domain.ContentItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.content[c.ID] = cloneContent(*c)
	return nil
}

func (m *MemoryRepository) DeleteContent(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return remove(m.content, id)
}

func (m *MemoryRepository) ListCTAs(ctx context.Context) ([]domain.CTA, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return sortedValues(m.ctas, identity[domain.CTA], func(c domain.CTA) string { return c.ID }), nil
}

func (m *MemoryRepository) GetCTA(ctx context.Context, id string) (*domain.CTA, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return lookup(m.ctas, id, identity[domain.CTA])
}

func (m *MemoryRepository) SaveCTA(ctx context.Context, c *domain.CTA) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ctas[c.ID] = *c
	return nil
}

func (m *MemoryRepository) ListSeries(ctx context.Context) ([]domain.SignalSeries, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return sortedValues(m.series, cloneSeries, func(s domain.SignalSeries) string { return s.ID }), nil
}

func (m *MemoryRepository) GetSeries(ctx context.Context, id string) (*domain.SignalSeries, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return lookup(m.series, id, cloneSeries)
}

func (m *MemoryRepository) SaveSeries(ctx context.Context, s *domain.SignalSeries) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.series[s.ID] = cloneSeries(*s)
	return nil
}

func (m *MemoryRepository) DeleteSeries(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return remove(m.series, id)
}

func (m *MemoryRepository) ListFunnels(ctx context.Context) ([]domain.Funnel, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return sortedValues(m.funnels, cloneFunnel, func(f domain.Funnel) string { return f.ID }), nil
}

func (m *MemoryRepository) GetFunnel(ctx context.Context, id string) (*domain.Funnel, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return lookup(m.funnels, id, cloneFunnel)
}

func (m *MemoryRepository) SaveFunnel(ctx context.Context, f *domain.Funnel) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.funnels[f.ID] = cloneFunnel(*f)
	return nil
}

func (m *MemoryRepository) DeleteFunnel(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return remove(m.funnels, id)
}

func (m *MemoryRepository) AddActivity(ctx context.Context, a *domain.Activity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if slices.ContainsFunc(m.activities, func(e domain.Activity) bool { return e.ID == a.ID }) {
		return nil
	}
	m.activities = append(m.activities, *a)
	return nil
}

func (m *MemoryRepository) RecentActivities(ctx context.Context, limit int) ([]domain.Activity, error) {
	m.mu.RLock()
	out := slices.Clone(m.activities)
	m.mu.RUnlock()

	slices.SortStableFunc(out, func(a, b domain.Activity) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryRepository) SaveReferralLink(ctx context.Context, l *domain.ReferralLink) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.referrals[l.Code]; exists {
		return ErrConflict
	}
	m.referrals[l.Code] = *l
	return nil
}

func (m *MemoryRepository) GetReferralLink(ctx context.Context, code string) (*domain.ReferralLink, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return lookup(m.referrals, code, identity[domain.ReferralLink])
}

func (m *MemoryRepository) ListReferralLinks(ctx context.Context, userID string) ([]domain.ReferralLink, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []domain.ReferralLink
	for _, l := range m.referrals {
		if l.UserID == userID {
			out = append(out, l)
		}
	}
	slices.SortFunc(out, func(a, b domain.ReferralLink) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.Code, b.Code)
	})
	return out, nil
}

func (m *MemoryRepository) IncrementReferral(ctx context.Context, code string, field ReferralCounter) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.referrals[code]
	if !ok {
		return ErrNotFound
	}
	switch field {
	case CounterVisits:
		l.Visits++
	case CounterSignups:
		l.Signups++
	}
	m.referrals[code] = l
	return nil
}

func (m *MemoryRepository) Empty(ctx context.Context) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.courses) == 0 && len(m.content) == 0 && len(m.series) == 0, nil
}

func (m *MemoryRepository) Close() error {
	return nil
}

func lookup[T any](items map[string]T, id string, clone func(T) T) (*T, error) {
	v, ok := items[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := clone(v)
	return &cp, nil
}

func remove[T any](items map[string]T, id string) error {
	if _, ok := items[id]; !ok {
		return ErrNotFound
	}
	delete(items, id)
	return nil
}

func sortedValues[T any](items map[string]T, clone func(T) T, key func(T) string) []T {
	out := make([]T, 0, len(items))
	for _, v := range items {
		out = append(out, clone(v))
	}
	slices.SortFunc(out, func(a, b T) int { return cmp.Compare(key(a), key(b)) })
	return out
}

func identity[T any](v T) T { return v }

func cloneUser(u domain.User) domain.User {
	u.Profile.Interests = slices.Clone(u.Profile.Interests)
	return u
}

func cloneCourse(c domain.Course) domain.Course {
	c.Tags = slices.Clone(c.Tags)
	c.Modules = slices.Clone(c.Modules)
	for i := range c.Modules {
		c.Modules[i].Lessons = slices.Clone(c.Modules[i].Lessons)
	}
	return c
}

func cloneContent(c domain.ContentItem) domain.ContentItem {
	c.Tags = slices.Clone(c.Tags)
	return c
}

func cloneSeries(s domain.SignalSeries) domain.SignalSeries {
	s.Steps = slices.Clone(s.Steps)
	return s
}

func cloneFunnel(f domain.Funnel) domain.Funnel {
	f.Stages = slices.Clone(f.Stages)
	return f
}
