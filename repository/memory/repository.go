// Package memory is an in-process document store used for local runs and tests.
// Documents are kept as JSON snapshots so callers never share memory with the store.
package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fastygo/bizdesk/repository"
)

type Repository[T repository.Document] struct {
	mu    sync.RWMutex
	docs  map[string][]byte
	order []string
}

// New creates an empty collection.
func New[T repository.Document]() *Repository[T] {
	return &Repository[T]{docs: make(map[string][]byte)}
}

func (r *Repository[T]) FindByID(ctx context.Context, id string) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	r.mu.RLock()
	raw, ok := r.docs[id]
	r.mu.RUnlock()
	if !ok {
		return zero, repository.ErrNoDocument
	}
	return decode[T](raw)
}

func (r *Repository[T]) Create(ctx context.Context, entity T) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	if entity.EntityID() == "" {
		entity.SetEntityID(uuid.NewString())
	}
	raw, err := json.Marshal(entity)
	if err != nil {
		return zero, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	id := entity.EntityID()
	if _, exists := r.docs[id]; exists {
		return zero, repository.ErrDuplicateID
	}
	r.docs[id] = raw
	r.order = append(r.order, id)
	return decode[T](raw)
}

func (r *Repository[T]) Update(ctx context.Context, entity T) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	raw, err := json.Marshal(entity)
	if err != nil {
		return zero, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	id := entity.EntityID()
	if _, exists := r.docs[id]; !exists {
		return zero, repository.ErrNoDocument
	}
	r.docs[id] = raw
	return decode[T](raw)
}

func (r *Repository[T]) Find(ctx context.Context, query repository.Query) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	matched := make([]map[string]json.RawMessage, 0)
	raws := make([][]byte, 0)
	for _, id := range r.order {
		raw := r.docs[id]
		fields := map[string]json.RawMessage{}
		if err := json.Unmarshal(raw, &fields); err != nil {
			r.mu.RUnlock()
			return nil, err
		}
		if matches(fields, query.Filters) {
			matched = append(matched, fields)
			raws = append(raws, raw)
		}
	}
	r.mu.RUnlock()

	idx := make([]int, len(matched))
	for i := range idx {
		idx[i] = i
	}
	if len(query.Orders) > 0 {
		sort.SliceStable(idx, func(a, b int) bool {
			for _, o := range query.Orders {
				c := compareRaw(matched[idx[a]][o.Field], matched[idx[b]][o.Field])
				if c == 0 {
					continue
				}
				if o.Direction == repository.Descending {
					return c > 0
				}
				return c < 0
			}
			return false
		})
	}

	out := make([]T, 0, len(idx))
	for _, i := range idx {
		if query.Max > 0 && len(out) >= query.Max {
			break
		}
		doc, err := decode[T](raws[i])
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, nil
}

func (r *Repository[T]) FindOne(ctx context.Context, query repository.Query) (T, error) {
	var zero T
	docs, err := r.Find(ctx, query.Limit(1))
	if err != nil {
		return zero, err
	}
	if len(docs) == 0 {
		return zero, repository.ErrNoDocument
	}
	return docs[0], nil
}

// Len returns the number of stored documents.
func (r *Repository[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.docs)
}

func decode[T repository.Document](raw []byte) (T, error) {
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

func matches(fields map[string]json.RawMessage, filters []repository.Filter) bool {
	for _, f := range filters {
		got, present := fields[f.Field]
		if f.Value == nil {
			if present && !bytes.Equal(got, []byte("null")) {
				return false
			}
			continue
		}
		want, err := json.Marshal(f.Value)
		if err != nil || !present || !bytes.Equal(got, want) {
			return false
		}
	}
	return true
}

// compareRaw sorts missing and null values first. Strings that parse as
// RFC 3339 timestamps are compared as instants.
func compareRaw(a, b json.RawMessage) int {
	av, aok := scalar(a)
	bv, bok := scalar(b)
	switch {
	case !aok && !bok:
		return 0
	case !aok:
		return -1
	case !bok:
		return 1
	}

	switch x := av.(type) {
	case float64:
		if y, ok := bv.(float64); ok {
			switch {
			case x < y:
				return -1
			case x > y:
				return 1
			}
			return 0
		}
	case string:
		if y, ok := bv.(string); ok {
			tx, errX := time.Parse(time.RFC3339Nano, x)
			ty, errY := time.Parse(time.RFC3339Nano, y)
			if errX == nil && errY == nil {
				return tx.Compare(ty)
			}
			return strings.Compare(x, y)
		}
	case bool:
		if y, ok := bv.(bool); ok && x != y {
			if !x {
				return -1
			}
			return 1
		}
		return 0
	}
	return 0
}

func scalar(raw json.RawMessage) (interface{}, bool) {
	if len(raw) == 0 {
		return nil, false
	}
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil || v == nil {
		return nil, false
	}
	return v, true
}
