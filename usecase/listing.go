package usecase

import (
	"sort"
	"time"

	"github.com/fastygo/bizdesk/repository"
)

// Listable is a document ordered by creation time in listings.
type Listable interface {
	repository.Document
	CreatedTime() time.Time
}

// MergeUnique concatenates lists and drops repeated ids. The first copy of an id wins.
func MergeUnique[T repository.Document](lists ...[]T) []T {
	seen := make(map[string]struct{})
	out := make([]T, 0)
	for _, list := range lists {
		for _, item := range list {
			id := item.EntityID()
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, item)
		}
	}
	return out
}

// FilterInMemory keeps the items accepted by keep.
func FilterInMemory[T any](items []T, keep func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}

// SortNewestFirst orders items by creation time descending. Ties keep their input order.
func SortNewestFirst[T Listable](items []T) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedTime().After(items[j].CreatedTime())
	})
}

// Paginate returns one page. limit is clamped by repository.ClampLimit and a
// negative offset is treated as zero.
func Paginate[T any](items []T, offset, limit int) []T {
	limit = repository.ClampLimit(limit)
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
