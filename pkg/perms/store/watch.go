package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-logr/logr"

	"go.minekube.com/perms/pkg/internal/reload"
)

// Watch reloads a world whenever its config file changes, for every world
// currently loaded from a file, until ctx is canceled. A failed reload keeps
// the previous tree as ReloadWorld does.
func (s *Store) Watch(ctx context.Context) error {
	ctx = logr.NewContext(ctx, s.log.WithName("watch"))
	var errs []error
	for _, name := range s.Worlds() {
		snap, ok := s.Snapshot(name)
		if !ok || snap.File == "" {
			continue
		}
		err := reload.Watch(ctx, snap.File, func() error {
			return s.ReloadWorld(name)
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("error watching world %q: %w", name, err))
		}
	}
	return errors.Join(errs...)
}
