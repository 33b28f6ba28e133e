package content

import (
	"cmp"
	"slices"
	"strconv"
	"strings"
)

type Predicate[T any] func(T) bool

// Filter keeps items matching every predicate, preserving order.
func Filter[T any](items []T, preds ...Predicate[T]) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if matchAll(it, preds) {
			out = append(out, it)
		}
	}
	return out
}

func matchAll[T any](it T, preds []Predicate[T]) bool {
	for _, p := range preds {
		if p != nil && !p(it) {
			return false
		}
	}
	return true
}

// Sort stable-sorts a copy of items.
func Sort[T any](items []T, compare func(a, b T) int) []T {
	out := slices.Clone(items)
	slices.SortStableFunc(out, compare)
	return out
}

type Order string

const (
	Asc  Order = "asc"
	Desc Order = "desc"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Query is the parsed form of a list request.
type Query struct {
	Search   string
	Category string
	Type     string
	Level    string
	Tag      string
	Featured *bool
	SortBy   string
	Order    Order
	Limit    int
	Offset   int
}

type Values interface {
	Get(key string) string
}

// ParseQuery reads list parameters from url.Values or anything with Get.
// Malformed numbers fall back to defaults.
func ParseQuery(v Values) Query {
	q := Query{
		Search:   strings.TrimSpace(v.Get("q")),
		Category: strings.TrimSpace(v.Get("category")),
		Type:     strings.TrimSpace(v.Get("type")),
		Level:    strings.TrimSpace(v.Get("level")),
		Tag:      strings.TrimSpace(v.Get("tag")),
		SortBy:   strings.ToLower(strings.TrimSpace(v.Get("sort"))),
		Limit:    DefaultLimit,
	}

	switch strings.ToLower(v.Get("order")) {
	case "asc":
		q.Order = Asc
	case "desc":
		q.Order = Desc
	}

	if f, err := strconv.ParseBool(v.Get("featured")); err == nil {
		q.Featured = &f
	}
	if n, err := strconv.Atoi(v.Get("limit")); err == nil && n > 0 {
		q.Limit = min(n, MaxLimit)
	}
	if n, err := strconv.Atoi(v.Get("offset")); err == nil && n > 0 {
		q.Offset = n
	}
	return q
}

// Page is one window of a filtered list.
type Page[T any] struct {
	Items  []T `json:"items"`
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

func Paginate[T any](items []T, limit, offset int) Page[T] {
	total := len(items)
	if limit <= 0 {
		limit = DefaultLimit
	}
	start := min(max(offset, 0), total)
	end := min(start+limit, total)

	return Page[T]{
		Items:  slices.Clone(items[start:end]),
		Total:  total,
		Limit:  limit,
		Offset: start,
	}
}

func equalFold(a, b string) bool {
	return strings.EqualFold(a, b)
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func hasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

func anyTagContains(tags []string, needle string) bool {
	for _, t := range tags {
		if containsFold(t, needle) {
			return true
		}
	}
	return false
}

// directed applies the order to an ascending comparison. When order is unset
// def decides.
func directed[T any](compare func(a, b T) int, order, def Order) func(a, b T) int {
	if order == "" {
		order = def
	}
	if order == Desc {
		return func(a, b T) int { return compare(b, a) }
	}
	return compare
}

func byString[T any](key func(T) string) func(a, b T) int {
	return func(a, b T) int { return cmp.Compare(strings.ToLower(key(a)), strings.ToLower(key(b))) }
}

func byNumber[T any, N cmp.Ordered](key func(T) N) func(a, b T) int {
	return func(a, b T) int { return cmp.Compare(key(a), key(b)) }
}
