package content

import (
	"github.com/insiderlife/signalfire/internal/domain"
)

// ContentItems applies q's filters and sort to items. Sort keys: title,
// published, views, likes. An unknown key keeps the input order.
func ContentItems(items []domain.ContentItem, q Query) []domain.ContentItem {
	var preds []Predicate[domain.ContentItem]

	if q.Search != "" {
		preds = append(preds, func(c domain.ContentItem) bool {
			return containsFold(c.Title, q.Search) ||
				containsFold(c.Summary, q.Search) ||
				containsFold(c.Author, q.Search) ||
				anyTagContains(c.Tags, q.Search)
		})
	}
	if q.Category != "" && q.Category != "all" {
		preds = append(preds, func(c domain.ContentItem) bool { return equalFold(c.Category, q.Category) })
	}
	if q.Type != "" && q.Type != "all" {
		preds = append(preds, func(c domain.ContentItem) bool { return equalFold(string(c.Type), q.Type) })
	}
	if q.Tag != "" {
		preds = append(preds, func(c domain.ContentItem) bool { return hasTag(c.Tags, q.Tag) })
	}
	if q.Featured != nil {
		want := *q.Featured
		preds = append(preds, func(c domain.ContentItem) bool { return c.Featured == want })
	}

	out := Filter(items, preds...)

	switch q.SortBy {
	case "title":
		out = Sort(out, directed(byString(func(c domain.ContentItem) string { return c.Title }), q.Order, Asc))
	case "published", "date", "newest":
		out = Sort(out, directed(func(a, b domain.ContentItem) int { return a.PublishedAt.Compare(b.PublishedAt) }, q.Order, Desc))
	case "views", "popular":
		out = Sort(out, directed(byNumber(func(c domain.ContentItem) int { return c.Views }), q.Order, Desc))
	case "likes":
		out = Sort(out, directed(byNumber(func(c domain.ContentItem) int { return c.Likes }), q.Order, Desc))
	}
	return out
}

// Courses applies q to courses. Sort keys: title, rating, enrolled,
// duration, published.
func Courses(items []domain.Course, q Query) []domain.Course {
	var preds []Predicate[domain.Course]

	if q.Search != "" {
		preds = append(preds, func(c domain.Course) bool {
			return containsFold(c.Title, q.Search) ||
				containsFold(c.Description, q.Search) ||
				containsFold(c.Instructor, q.Search) ||
				anyTagContains(c.Tags, q.Search)
		})
	}
	if q.Category != "" && q.Category != "all" {
		preds = append(preds, func(c domain.Course) bool { return equalFold(c.Category, q.Category) })
	}
	if q.Level != "" && q.Level != "all" {
		preds = append(preds, func(c domain.Course) bool { return equalFold(string(c.Level), q.Level) })
	}
	if q.Tag != "" {
		preds = append(preds, func(c domain.Course) bool { return hasTag(c.Tags, q.Tag) })
	}

	out := Filter(items, preds...)

	switch q.SortBy {
	case "title":
		out = Sort(out, directed(byString(func(c domain.Course) string { return c.Title }), q.Order, Asc))
	case "rating":
		out = Sort(out, directed(byNumber(func(c domain.Course) float64 { return c.Rating }), q.Order, Desc))
	case "enrolled", "popular":
		out = Sort(out, directed(byNumber(func(c domain.Course) int { return c.Enrolled }), q.Order, Desc))
	case "duration":
		out = Sort(out, directed(byNumber(func(c domain.Course) int { return c.DurationMinutes }), q.Order, Asc))
	case "published", "newest":
		out = Sort(out, directed(func(a, b domain.Course) int { return a.PublishedAt.Compare(b.PublishedAt) }, q.Order, Desc))
	}
	return out
}

// Series filters signal series by search, category and status (passed as
// Type).
func Series(items []domain.SignalSeries, q Query) []domain.SignalSeries {
	var preds []Predicate[domain.SignalSeries]

	if q.Search != "" {
		preds = append(preds, func(s domain.SignalSeries) bool {
			return containsFold(s.Title, q.Search) || containsFold(s.Description, q.Search)
		})
	}
	if q.Category != "" && q.Category != "all" {
		preds = append(preds, func(s domain.SignalSeries) bool { return equalFold(s.Category, q.Category) })
	}
	if q.Type != "" && q.Type != "all" {
		preds = append(preds, func(s domain.SignalSeries) bool { return equalFold(string(s.Status), q.Type) })
	}

	out := Filter(items, preds...)

	switch q.SortBy {
	case "title":
		out = Sort(out, directed(byString(func(s domain.SignalSeries) string { return s.Title }), q.Order, Asc))
	case "updated", "newest":
		out = Sort(out, directed(func(a, b domain.SignalSeries) int { return a.UpdatedAt.Compare(b.UpdatedAt) }, q.Order, Desc))
	case "steps":
		out = Sort(out, directed(byNumber(func(s domain.SignalSeries) int { return len(s.Steps) }), q.Order, Desc))
	}
	return out
}

// Categories counts items per category for chart data.
func Categories[T any](items []T, category func(T) string) map[string]int {
	counts := make(map[string]int)
	for _, it := range items {
		counts[category(it)]++
	}
	return counts
}
