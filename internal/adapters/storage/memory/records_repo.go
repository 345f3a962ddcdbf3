package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"eps-citas/internal/ports/records"
)

type collection struct {
	seq  int64
	byID map[int64]records.Record
}

type recordsRepo struct {
	mu          sync.RWMutex
	collections map[string]*collection
}

// NewRecordsRepo crea el repositorio in-memory del backend demo.
func NewRecordsRepo() records.Repository {
	return &recordsRepo{
		collections: make(map[string]*collection),
	}
}

func (r *recordsRepo) coll(name string) *collection {
	c, ok := r.collections[name]
	if !ok {
		c = &collection{byID: make(map[int64]records.Record)}
		r.collections[name] = c
	}
	return c
}

func (r *recordsRepo) Create(ctx context.Context, name string, rec records.Record) (records.Record, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errors.New("collection required")
	}
	norm, err := records.Normalize(rec)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	c := r.coll(name)
	c.seq++
	norm["id"] = float64(c.seq)
	c.byID[c.seq] = norm

	return records.Normalize(norm)
}

func (r *recordsRepo) Update(ctx context.Context, name string, id int64, patch records.Record) (records.Record, error) {
	norm, err := records.Normalize(patch)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	c := r.coll(name)
	cur, ok := c.byID[id]
	if !ok {
		return nil, records.ErrNotFound
	}
	for k, v := range norm {
		if k == "id" {
			continue
		}
		cur[k] = v
	}
	return records.Normalize(cur)
}

func (r *recordsRepo) Get(ctx context.Context, name string, id int64) (records.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.collections[name]
	if !ok {
		return nil, records.ErrNotFound
	}
	rec, ok := c.byID[id]
	if !ok {
		return nil, records.ErrNotFound
	}
	return records.Normalize(rec)
}

func (r *recordsRepo) List(ctx context.Context, name string) ([]records.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]records.Record, 0)
	c, ok := r.collections[name]
	if !ok {
		return out, nil
	}
	for _, rec := range c.byID {
		cp, err := records.Normalize(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, cp)
	}

	// Orden estable por id asc
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID() < out[j].ID()
	})
	return out, nil
}

func (r *recordsRepo) Delete(ctx context.Context, name string, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.collections[name]
	if !ok {
		return records.ErrNotFound
	}
	if _, ok := c.byID[id]; !ok {
		return records.ErrNotFound
	}
	delete(c.byID, id)
	return nil
}
