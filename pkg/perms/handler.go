// Package perms answers permission queries for players in worlds.
//
// A Handler combines three parts:
//   - a store.Store holding one immutable permission tree per world,
//   - a cache.Cache memoizing boolean checks per world,
//   - the resolver walking user overrides and group inheritance.
//
// Queries never fail. Unknown worlds are created empty on first use and
// lookups that find nothing return the sentinels of package node:
// "" for strings, -1 for integers, false for booleans and -1.0 for doubles.
package perms

import (
	"context"

	"github.com/go-logr/logr"
	"github.com/robinbraemer/event"
	"go.opentelemetry.io/otel/metric"

	"go.minekube.com/perms/pkg/internal/cachutil"
	"go.minekube.com/perms/pkg/perms/cache"
	"go.minekube.com/perms/pkg/perms/store"
	"go.minekube.com/perms/pkg/util/permission"
)

// Options are Handler options.
type Options struct {
	// Directory holds one config file per world, e.g. world.yml.
	Directory string
	// DefaultWorld is the world used by the Legacy adapter.
	DefaultWorld string
	// Logger is the logger used by the Handler and its store.
	// Defaults to a discarding logger.
	Logger logr.Logger
	// Event receives world lifecycle events (see package store).
	// Defaults to event.Nop.
	Event event.Manager
	// MeterProvider provides the store metrics. Defaults to the global provider.
	MeterProvider metric.MeterProvider
}

// Handler answers permission queries. It is safe for concurrent use.
type Handler struct {
	log    logr.Logger
	store  *store.Store
	cache  *cache.Cache
	flight cachutil.Suppressed[bool]
}

// New returns a new Handler. Call Load to read the world directory.
func New(opts Options) *Handler {
	h := &Handler{
		log:   opts.Logger,
		cache: cache.New(),
	}
	h.store = store.New(store.Options{
		Directory:     opts.Directory,
		DefaultWorld:  opts.DefaultWorld,
		Logger:        opts.Logger.WithName("store"),
		Event:         opts.Event,
		Invalidate:    h.cache.ClearWorld,
		MeterProvider: opts.MeterProvider,
	})
	return h
}

// Store returns the underlying store.
func (h *Handler) Store() *store.Store { return h.store }

// SetDefaultWorld sets the world used by the Legacy adapter.
func (h *Handler) SetDefaultWorld(world string) { h.store.SetDefaultWorld(world) }

// DefaultWorld returns the world used by the Legacy adapter.
func (h *Handler) DefaultWorld() string { return h.store.DefaultWorld() }

// SetDirectory sets the directory world files are read from.
func (h *Handler) SetDirectory(dir string) { h.store.SetDirectory(dir) }

// Directory returns the world file directory.
func (h *Handler) Directory() string { return h.store.Directory() }

// Load loads the default world and all worlds in the directory.
func (h *Handler) Load() error { return h.store.Load() }

// LoadTree installs a world parsed from an in-memory configuration tree.
func (h *Handler) LoadTree(world string, src store.Source) error {
	return h.store.LoadTree(world, src)
}

// LoadWorld loads a world from its file; false if it was already loaded.
func (h *Handler) LoadWorld(world string) (bool, error) { return h.store.LoadWorld(world) }

// ForceLoadWorld makes sure a world is loaded, creating it empty if needed.
func (h *Handler) ForceLoadWorld(world string) { h.store.ForceLoadWorld(world) }

// CheckWorld reports whether a world is loaded.
func (h *Handler) CheckWorld(world string) bool { return h.store.CheckWorld(world) }

// Worlds returns the loaded worlds.
func (h *Handler) Worlds() []string { return h.store.Worlds() }

// Reload reloads all loaded worlds. Worlds that fail keep their trees.
func (h *Handler) Reload() error { return h.store.Reload() }

// ReloadWorld reloads one world. On error the world keeps its tree.
func (h *Handler) ReloadWorld(world string) error { return h.store.ReloadWorld(world) }

// Watch reloads worlds when their files change until ctx is canceled.
func (h *Handler) Watch(ctx context.Context) error { return h.store.Watch(ctx) }

// Close releases the metric callbacks of the Handler's store.
func (h *Handler) Close() error { return h.store.Close() }

// Subject binds a player in a world to a permission.Subject.
func (h *Handler) Subject(world, player string) permission.Subject {
	return permission.For(h, world, player)
}

var _ permission.Checker = (*Handler)(nil)

// world returns the tree of a world, creating the world if needed.
func (h *Handler) world(name string) *store.World {
	if snap, ok := h.store.Snapshot(name); ok {
		return snap.World
	}
	h.store.ForceLoadWorld(name)
	if snap, ok := h.store.Snapshot(name); ok {
		return snap.World
	}
	return store.EmptyWorld(name)
}
