package catalog

import (
	"errors"
	"sync/atomic"

	"locres/internal/resource"
)

// ErrNotLoaded is returned by Live.Lookup before the first table is stored.
var ErrNotLoaded = errors.New("catalog: not loaded")

var _ resource.ResourceProvider = (*Live)(nil)

// Live is a ResourceProvider whose table can be replaced while it serves
// lookups. Readers never block.
type Live struct {
	table atomic.Pointer[resource.Table]
	swaps atomic.Int64
}

// NewLive creates a provider serving table, which may be nil.
func NewLive(table *resource.Table) *Live {
	l := &Live{}
	if table != nil {
		l.table.Store(table)
	}
	return l
}

// Lookup resolves through the current table.
func (l *Live) Lookup(locale, key string) (resource.Resolution, error) {
	t := l.table.Load()
	if t == nil {
		return resource.Resolution{Key: key, Requested: locale}, ErrNotLoaded
	}
	return t.Lookup(locale, key)
}

// Store replaces the served table.
func (l *Live) Store(table *resource.Table) {
	l.table.Store(table)
	l.swaps.Add(1)
}

// Table returns the served table or nil.
func (l *Live) Table() *resource.Table { return l.table.Load() }

// Ready reports whether a table has been stored.
func (l *Live) Ready() bool { return l.table.Load() != nil }

// Reloads returns how many times Store was called.
func (l *Live) Reloads() int64 { return l.swaps.Load() }
