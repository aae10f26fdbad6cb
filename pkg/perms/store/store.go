// Package store loads per-world permission trees and holds them as
// immutable snapshots that can be swapped atomically on reload.
package store

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/go-logr/logr"
	"github.com/robinbraemer/event"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/atomic"

	"go.minekube.com/perms/pkg/util/sets"
	"go.minekube.com/perms/pkg/util/validation"
)

// Options are Store options.
type Options struct {
	// Directory holds one config file per world, named after the world.
	Directory string
	// DefaultWorld is the world used by world-less queries.
	DefaultWorld string
	// Logger defaults to logr.Discard().
	Logger logr.Logger
	// Event receives world lifecycle events. Defaults to event.Nop.
	Event event.Manager
	// Invalidate is called after a world's snapshot was replaced
	// and before any lifecycle event fires for it.
	Invalidate func(world string)
	// MeterProvider provides the loaded worlds gauge.
	// Defaults to the global provider.
	MeterProvider metric.MeterProvider
}

// Store holds the current Snapshot of every loaded world.
//
// Readers never block: a Snapshot is immutable and published atomically,
// so a reader sees either the previous or the new tree in full.
// Loads and reloads of the same world are serialised.
type Store struct {
	log        logr.Logger
	event      event.Manager
	invalidate func(world string)

	directory    atomic.String
	defaultWorld atomic.String

	mu     sync.RWMutex
	worlds map[string]*world

	meterReg  metric.Registration
	closeOnce sync.Once
}

// Snapshot is an installed World.
type Snapshot struct {
	World *World
	// Generation increases with every install for the same world, starting at 1.
	Generation uint64
	// File is the config file the tree was read from, empty for in-memory sources.
	File string
}

type world struct {
	name     string
	mu       sync.Mutex // Serialises installs.
	snapshot atomic.Pointer[Snapshot]
	source   Source // Set when loaded from an in-memory source.
}

// New returns a new Store. No world is loaded until Load or a
// world-specific load method is called.
func New(opts Options) *Store {
	if opts.Event == nil {
		opts.Event = event.Nop
	}
	if opts.Invalidate == nil {
		opts.Invalidate = func(string) {}
	}
	s := &Store{
		log:        opts.Logger,
		event:      opts.Event,
		invalidate: opts.Invalidate,
		worlds:     map[string]*world{},
	}
	s.directory.Store(opts.Directory)
	s.defaultWorld.Store(opts.DefaultWorld)
	reg, err := s.initMeter(opts.MeterProvider)
	if err != nil {
		s.log.Error(err, "error initializing store metrics")
	}
	s.meterReg = reg
	return s
}

// Close releases the metric callbacks of the Store.
// Loaded worlds stay readable.
func (s *Store) Close() error {
	var err error
	s.closeOnce.Do(func() {
		if s.meterReg != nil {
			err = s.meterReg.Unregister()
		}
	})
	return err
}

// SetDirectory sets the directory world files are read from.
// Already loaded worlds keep their trees until reloaded.
func (s *Store) SetDirectory(dir string) { s.directory.Store(dir) }

// Directory returns the world file directory.
func (s *Store) Directory() string { return s.directory.Load() }

// SetDefaultWorld sets the world used by world-less queries.
func (s *Store) SetDefaultWorld(name string) { s.defaultWorld.Store(name) }

// DefaultWorld returns the world used by world-less queries.
func (s *Store) DefaultWorld() string { return s.defaultWorld.Load() }

// Snapshot returns the current snapshot of a world.
func (s *Store) Snapshot(name string) (*Snapshot, bool) {
	w := s.entry(name, false)
	if w == nil {
		return nil, false
	}
	snap := w.snapshot.Load()
	return snap, snap != nil
}

// CheckWorld reports whether a world is loaded.
func (s *Store) CheckWorld(name string) bool {
	_, ok := s.Snapshot(name)
	return ok
}

// Worlds returns the names of all loaded worlds, sorted.
func (s *Store) Worlds() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.worlds))
	for name, w := range s.worlds {
		if w.snapshot.Load() != nil {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}

func (s *Store) entry(name string, create bool) *world {
	s.mu.RLock()
	w := s.worlds[name]
	s.mu.RUnlock()
	if w != nil || !create {
		return w
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if w = s.worlds[name]; w == nil {
		w = &world{name: name}
		s.worlds[name] = w
	}
	return w
}

// Load loads the default world and every world that has a file in the
// directory. Already loaded worlds are reloaded. The default world is
// created empty if it has no file. Worlds that fail to load are not
// installed and their errors are joined.
func (s *Store) Load() error {
	names := sets.NewString()
	if def := s.DefaultWorld(); def != "" {
		names.Insert(def)
	}
	files, err := WorldFiles(s.Directory())
	if err != nil {
		return err
	}
	names.Insert(files...)

	var errs []error
	for _, name := range names.List() {
		if s.CheckWorld(name) {
			if err = s.ReloadWorld(name); err != nil {
				errs = append(errs, err)
			}
			continue
		}
		_, err = s.LoadWorld(name)
		switch {
		case err == nil:
		case errors.Is(err, ErrWorldNotFound) && name == s.DefaultWorld():
			s.ForceLoadWorld(name)
		default:
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LoadTree parses src and installs it as the tree of a world,
// replacing any loaded tree. On error the previous tree is kept.
// Reloading the world later re-parses src.
func (s *Store) LoadTree(name string, src Source) error {
	if err := validation.WorldName(name); err != nil {
		return err
	}
	tree, err := Parse(name, src)
	if err != nil {
		return err
	}
	w := s.entry(name, true)
	w.mu.Lock()
	prev := w.snapshot.Load()
	w.source = src
	snap := s.install(w, tree, "")
	w.mu.Unlock()
	s.fireInstalled(snap, prev)
	return nil
}

// LoadWorld loads a world from its file in the directory.
// It returns false without error if the world is already loaded.
// A world without file fails with ErrWorldNotFound.
func (s *Store) LoadWorld(name string) (bool, error) {
	if err := validation.WorldName(name); err != nil {
		return false, err
	}
	if s.CheckWorld(name) {
		return false, nil
	}
	path, ok := FindWorldFile(s.Directory(), name)
	if !ok {
		return false, fmt.Errorf("%w: no config file for world %q in %q", ErrWorldNotFound, name, s.Directory())
	}
	tree, err := ParseFile(name, path)
	if err != nil {
		return false, err
	}

	w := s.entry(name, true)
	w.mu.Lock()
	if w.snapshot.Load() != nil {
		// Lost the race against a concurrent load.
		w.mu.Unlock()
		return false, nil
	}
	snap := s.install(w, tree, path)
	w.mu.Unlock()
	s.fireInstalled(snap, nil)
	return true, nil
}

// ForceLoadWorld makes sure a world is loaded. It loads the world's file
// if there is one and installs an empty tree on any failure.
func (s *Store) ForceLoadWorld(name string) {
	if s.CheckWorld(name) {
		return
	}
	_, err := s.LoadWorld(name)
	if err == nil {
		return
	}
	if errors.Is(err, ErrWorldNotFound) {
		s.log.V(1).Info("creating empty world", "world", name)
	} else {
		s.log.Error(err, "error loading world, creating empty world instead", "world", name)
	}

	w := s.entry(name, true)
	w.mu.Lock()
	if w.snapshot.Load() != nil {
		w.mu.Unlock()
		return
	}
	snap := s.install(w, EmptyWorld(name), "")
	w.mu.Unlock()
	s.fireInstalled(snap, nil)
}

// Reload reloads every loaded world. A world that fails keeps its
// previous tree; errors are joined.
func (s *Store) Reload() error {
	var errs []error
	for _, name := range s.Worlds() {
		if err := s.ReloadWorld(name); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ReloadWorld re-reads a loaded world and atomically replaces its tree.
// On error the previous tree stays installed and a ReloadFailedEvent fires.
func (s *Store) ReloadWorld(name string) error {
	w := s.entry(name, false)
	if w == nil || w.snapshot.Load() == nil {
		return fmt.Errorf("%w: %q", ErrWorldNotLoaded, name)
	}

	w.mu.Lock()
	prev := w.snapshot.Load()
	end := startReload(name, prev.Generation)
	tree, path, err := s.read(w)
	end(err)
	if err != nil {
		w.mu.Unlock()
		recordReload(false)
		s.log.Error(err, "error reloading world, keeping previous tree",
			"world", name, "generation", prev.Generation)
		s.event.Fire(&ReloadFailedEvent{World: name, Generation: prev.Generation, Err: err})
		return err
	}
	snap := s.install(w, tree, path)
	w.mu.Unlock()
	recordReload(true)
	s.fireInstalled(snap, prev)
	return nil
}

// read parses the current source of w. Must be called with w.mu held.
func (s *Store) read(w *world) (*World, string, error) {
	if w.source != nil {
		tree, err := Parse(w.name, w.source)
		return tree, "", err
	}
	path, ok := FindWorldFile(s.Directory(), w.name)
	if !ok {
		if prev := w.snapshot.Load(); prev != nil && prev.File == "" {
			// Force-loaded without file and still without one.
			return EmptyWorld(w.name), "", nil
		}
		return nil, "", fmt.Errorf("%w: no config file for world %q in %q", ErrWorldNotFound, w.name, s.Directory())
	}
	tree, err := ParseFile(w.name, path)
	return tree, path, err
}

// install publishes tree as the new snapshot of w and invalidates
// everything derived from the previous one. Must be called with w.mu held.
func (s *Store) install(w *world, tree *World, path string) *Snapshot {
	var gen uint64 = 1
	if prev := w.snapshot.Load(); prev != nil {
		gen = prev.Generation + 1
	}
	snap := &Snapshot{World: tree, Generation: gen, File: path}
	w.snapshot.Store(snap)
	s.invalidate(w.name)

	log := s.log.WithValues("world", w.name, "generation", gen)
	for _, warn := range tree.Warnings {
		log.Info("permission config warning", "warning", warn)
	}
	log.V(1).Info("installed world", "groups", len(tree.Groups), "users", len(tree.Users), "file", path)
	return snap
}

func (s *Store) fireInstalled(snap *Snapshot, prev *Snapshot) {
	if prev == nil {
		s.event.Fire(&WorldLoadEvent{World: snap.World.Name, Generation: snap.Generation})
		return
	}
	s.event.Fire(&WorldReloadEvent{
		World:      snap.World.Name,
		Generation: snap.Generation,
		Previous:   prev.Generation,
	})
}
