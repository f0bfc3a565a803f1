// Package catalog keeps the content collections (cities, guides, modules,
// questions) of the development API in memory.
package catalog

import (
	"cmp"
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/rainwise/internal/common"
)

// Schema tells a Table how to reach the fields of T.
type Schema[T any] struct {
	// ID returns a pointer to the record's id.
	ID func(*T) *int64
	// Stamp sets the created and updated timestamps.
	Stamp func(r *T, created, updated time.Time)
	// Created returns the creation time so Update can keep it.
	Created func(*T) time.Time
	// Field returns a sortable or filterable value by its JSON name.
	Field func(r *T, name string) (any, bool)
	// Search lists the fields matched by Query.Search.
	Search []string
}

// Query selects one page of a Table. Zero values mean no paging, id order
// and no filtering. Filters compare the field's text form ignoring case.
type Query struct {
	Page    int
	Limit   int
	SortBy  string
	Desc    bool
	Search  string
	Filters map[string]string
}

type Table[T any] struct {
	mu     sync.RWMutex
	schema Schema[T]
	nextID int64
	rows   map[int64]T
	now    func() time.Time
}

func NewTable[T any](schema Schema[T]) *Table[T] {
	return &Table[T]{schema: schema, rows: make(map[int64]T), now: time.Now}
}

// Create stores a copy of rec under a new id and returns it.
func (t *Table[T]) Create(_ context.Context, rec T) (T, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.nextID++
	*t.schema.ID(&rec) = t.nextID
	now := t.now().UTC()
	t.schema.Stamp(&rec, now, now)
	t.rows[t.nextID] = rec
	return rec, nil
}

func (t *Table[T]) Get(_ context.Context, id int64) (T, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	rec, ok := t.rows[id]
	if !ok {
		var zero T
		return zero, common.ErrorNotFound
	}
	return rec, nil
}

// Update replaces the record with id, keeping its creation time.
func (t *Table[T]) Update(_ context.Context, id int64, rec T) (T, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	old, ok := t.rows[id]
	if !ok {
		var zero T
		return zero, common.ErrorNotFound
	}
	*t.schema.ID(&rec) = id
	t.schema.Stamp(&rec, t.schema.Created(&old), t.now().UTC())
	t.rows[id] = rec
	return rec, nil
}

func (t *Table[T]) Delete(_ context.Context, id int64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.rows[id]; !ok {
		return common.ErrorNotFound
	}
	delete(t.rows, id)
	return nil
}

// Exists reports whether a record with id is stored.
func (t *Table[T]) Exists(ctx context.Context, id int64) bool {
	_, err := t.Get(ctx, id)
	return err == nil
}

// List returns the page selected by q and the number of matching records.
// Unknown sort or filter fields are a common.ErrorValidation.
func (t *Table[T]) List(_ context.Context, q Query) ([]T, int, error) {
	if q.SortBy != "" {
		var zero T
		if _, ok := t.schema.Field(&zero, q.SortBy); !ok {
			return nil, 0, fmt.Errorf("%w: cannot sort by %q", common.ErrorValidation, q.SortBy)
		}
	}

	t.mu.RLock()
	matched := make([]T, 0, len(t.rows))
	for _, rec := range t.rows {
		ok, err := t.matches(&rec, q)
		if err != nil {
			t.mu.RUnlock()
			return nil, 0, err
		}
		if ok {
			matched = append(matched, rec)
		}
	}
	t.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		if q.SortBy != "" {
			a, _ := t.schema.Field(&matched[i], q.SortBy)
			b, _ := t.schema.Field(&matched[j], q.SortBy)
			if c := compare(a, b); c != 0 {
				if q.Desc {
					return c > 0
				}
				return c < 0
			}
		}
		return *t.schema.ID(&matched[i]) < *t.schema.ID(&matched[j])
	})

	total := len(matched)
	if q.Limit <= 0 {
		return matched, total, nil
	}
	// Page bounds are checked by division so huge page or limit values
	// cannot overflow.
	page := max(q.Page, 1)
	if total == 0 || page-1 > (total-1)/q.Limit {
		return []T{}, total, nil
	}
	start := (page - 1) * q.Limit
	end := total
	if q.Limit < total-start {
		end = start + q.Limit
	}
	return matched[start:end], total, nil
}

func (t *Table[T]) matches(rec *T, q Query) (bool, error) {
	for name, want := range q.Filters {
		v, ok := t.schema.Field(rec, name)
		if !ok {
			return false, fmt.Errorf("%w: cannot filter by %q", common.ErrorValidation, name)
		}
		if !strings.EqualFold(fmt.Sprint(v), want) {
			return false, nil
		}
	}
	if q.Search == "" {
		return true, nil
	}
	needle := strings.ToLower(q.Search)
	for _, name := range t.schema.Search {
		v, _ := t.schema.Field(rec, name)
		if strings.Contains(strings.ToLower(fmt.Sprint(v)), needle) {
			return true, nil
		}
	}
	return false, nil
}

// compare orders values of the same dynamic type. Mixed or unknown types
// fall back to their text form.
func compare(a, b any) int {
	switch x := a.(type) {
	case int64:
		if y, ok := b.(int64); ok {
			return cmp.Compare(x, y)
		}
	case int:
		if y, ok := b.(int); ok {
			return cmp.Compare(x, y)
		}
	case float64:
		if y, ok := b.(float64); ok {
			return cmp.Compare(x, y)
		}
	case time.Time:
		if y, ok := b.(time.Time); ok {
			return x.Compare(y)
		}
	case string:
		if y, ok := b.(string); ok {
			return strings.Compare(strings.ToLower(x), strings.ToLower(y))
		}
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}
