// Package inmemory provides a map-backed attack log store, used when no
// database is configured and in tests.
package inmemory

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/papercomputeco/chameleon/pkg/storage"
)

// Driver implements storage.Driver using an in-memory map.
type Driver struct {
	// mu guards logs and order
	mu sync.RWMutex

	logs map[string]*storage.AttackLog

	// order holds IDs in insertion order, used to break timestamp ties.
	order []string
}

// NewDriver creates a new in-memory store.
func NewDriver() *Driver {
	return &Driver{
		logs: make(map[string]*storage.AttackLog),
	}
}

// Put stores a copy of log. Storing an ID that already exists is a no-op.
func (d *Driver) Put(_ context.Context, log *storage.AttackLog) error {
	if log == nil {
		return errors.New("cannot store nil attack log")
	}
	if log.ID == "" {
		return storage.ErrMissingID
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.logs[log.ID]; ok {
		return nil
	}

	cp := *log
	d.logs[log.ID] = &cp
	d.order = append(d.order, log.ID)
	return nil
}

// Get retrieves a log by ID.
func (d *Driver) Get(_ context.Context, id string) (*storage.AttackLog, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	log, ok := d.logs[id]
	if !ok {
		return nil, storage.NotFoundError{ID: id}
	}

	cp := *log
	return &cp, nil
}

// Recent returns up to limit logs, newest first. Logs with equal
// timestamps are returned most recently stored first.
func (d *Driver) Recent(_ context.Context, limit int) ([]*storage.AttackLog, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	result := make([]*storage.AttackLog, 0, len(d.order))
	for i := len(d.order) - 1; i >= 0; i-- {
		cp := *d.logs[d.order[i]]
		result = append(result, &cp)
	}

	slices.SortStableFunc(result, func(a, b *storage.AttackLog) int {
		return b.Timestamp.Compare(a.Timestamp)
	})

	if limit >= 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// Stats counts logs per endpoint.
func (d *Driver) Stats(_ context.Context, topN int) (*storage.Stats, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	counts := make(map[string]int)
	for _, log := range d.logs {
		counts[log.Endpoint]++
	}

	top := make([]storage.EndpointCount, 0, len(counts))
	for endpoint, n := range counts {
		top = append(top, storage.EndpointCount{Endpoint: endpoint, Count: n})
	}
	slices.SortFunc(top, func(a, b storage.EndpointCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Endpoint, b.Endpoint)
	})

	if topN >= 0 && len(top) > topN {
		top = top[:topN]
	}

	return &storage.Stats{TotalAttacks: len(d.logs), TopEndpoints: top}, nil
}

// Close is a no-op.
func (d *Driver) Close() error {
	return nil
}
