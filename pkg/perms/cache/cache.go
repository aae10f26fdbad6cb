// Package cache memoizes boolean permission checks per world.
//
// Entries never expire; they are only removed by explicit clearing.
// Every world partition has an epoch that is bumped whenever the partition
// is cleared. Entries carry the epoch their value was computed in, and an
// entry from an older epoch is never served. This lets a resolution that
// raced a clear write its result without resurrecting stale data.
package cache

import (
	"sync"

	"github.com/jellydator/ttlcache/v3"
	"go.uber.org/atomic"

	"go.minekube.com/perms/pkg/perms/node"
)

// Key identifies a cached check inside a world.
type Key struct {
	Player string
	Node   string
}

// NewKey returns the normalized Key of a player and node.
func NewKey(player, n string) Key {
	return Key{Player: node.Normalize(player), Node: node.Normalize(n)}
}

type entry struct {
	value bool
	epoch uint64
}

type partition struct {
	epoch atomic.Uint64
	items *ttlcache.Cache[Key, entry]
}

// Cache is a set of per-world partitions. The zero value is not usable, use New.
type Cache struct {
	mu     sync.RWMutex
	worlds map[string]*partition
}

// New returns an empty Cache.
func New() *Cache {
	return &Cache{worlds: map[string]*partition{}}
}

func (c *Cache) partition(world string, create bool) *partition {
	c.mu.RLock()
	p := c.worlds[world]
	c.mu.RUnlock()
	if p != nil || !create {
		return p
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if p = c.worlds[world]; p == nil {
		p = &partition{items: ttlcache.New[Key, entry](
			ttlcache.WithTTL[Key, entry](ttlcache.NoTTL),
			ttlcache.WithDisableTouchOnHit[Key, entry](),
		)}
		c.worlds[world] = p
	}
	return p
}

// Epoch returns the current epoch of a world. Read it before computing a
// value that is later stored with Set.
func (c *Cache) Epoch(world string) uint64 {
	return c.partition(world, true).epoch.Load()
}

// Get returns a cached value. ok is false if there is no entry
// or the entry is from an older epoch.
func (c *Cache) Get(world, player, n string) (value, ok bool) {
	p := c.partition(world, false)
	if p == nil {
		return false, false
	}
	item := p.items.Get(NewKey(player, n))
	if item == nil {
		return false, false
	}
	e := item.Value()
	if e.epoch != p.epoch.Load() {
		return false, false
	}
	return e.value, true
}

// Set stores a value computed in the given epoch.
// Values from an older epoch are dropped.
func (c *Cache) Set(world, player, n string, value bool, epoch uint64) {
	p := c.partition(world, true)
	if epoch != p.epoch.Load() {
		return
	}
	p.items.Set(NewKey(player, n), entry{value: value, epoch: epoch}, ttlcache.NoTTL)
}

// Put stores a value in the current epoch.
func (c *Cache) Put(world, player, n string, value bool) {
	p := c.partition(world, true)
	p.items.Set(NewKey(player, n), entry{value: value, epoch: p.epoch.Load()}, ttlcache.NoTTL)
}

// Remove deletes a single entry.
func (c *Cache) Remove(world, player, n string) {
	if p := c.partition(world, false); p != nil {
		p.items.Delete(NewKey(player, n))
	}
}

// ClearPlayer deletes every entry of a player in a world.
func (c *Cache) ClearPlayer(world, player string) {
	p := c.partition(world, false)
	if p == nil {
		return
	}
	player = node.Normalize(player)
	for _, k := range p.items.Keys() {
		if k.Player == player {
			p.items.Delete(k)
		}
	}
}

// ClearWorld invalidates and deletes every entry of a world.
func (c *Cache) ClearWorld(world string) {
	p := c.partition(world, true)
	p.epoch.Inc()
	p.items.DeleteAll()
}

// ClearAll clears every world.
func (c *Cache) ClearAll() {
	c.mu.RLock()
	parts := make([]*partition, 0, len(c.worlds))
	for _, p := range c.worlds {
		parts = append(parts, p)
	}
	c.mu.RUnlock()
	for _, p := range parts {
		p.epoch.Inc()
		p.items.DeleteAll()
	}
}

// Entries returns a copy of the valid entries of a world.
func (c *Cache) Entries(world string) map[Key]bool {
	out := map[Key]bool{}
	p := c.partition(world, false)
	if p == nil {
		return out
	}
	epoch := p.epoch.Load()
	for k, item := range p.items.Items() {
		if e := item.Value(); e.epoch == epoch {
			out[k] = e.value
		}
	}
	return out
}

// Replace clears a world and fills it with entries.
func (c *Cache) Replace(world string, entries map[Key]bool) {
	c.ClearWorld(world)
	p := c.partition(world, true)
	epoch := p.epoch.Load()
	for k, v := range entries {
		p.items.Set(NewKey(k.Player, k.Node), entry{value: v, epoch: epoch}, ttlcache.NoTTL)
	}
}

// Len returns the number of entries of a world, including stale ones
// not yet deleted.
func (c *Cache) Len(world string) int {
	if p := c.partition(world, false); p != nil {
		return p.items.Len()
	}
	return 0
}
