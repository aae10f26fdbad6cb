package store

import (
	"errors"
	"fmt"
)

var (
	// ErrConfig matches every *ConfigError.
	ErrConfig = errors.New("invalid permission config")
	// ErrWorldNotFound is returned when no config file exists for a world.
	ErrWorldNotFound = errors.New("world not found")
	// ErrWorldNotLoaded is returned when reloading a world that was never loaded.
	ErrWorldNotLoaded = errors.New("world not loaded")
)

// ConfigError is a malformed permission tree.
type ConfigError struct {
	World string
	File  string // Source file, if the tree was read from disk.
	Path  string // Offending tree path, e.g. groups.admin.inheritance.
	Err   error
}

func (e *ConfigError) Error() string {
	s := fmt.Sprintf("world %q", e.World)
	if e.File != "" {
		s += fmt.Sprintf(" (%s)", e.File)
	}
	if e.Path != "" {
		s += ": " + e.Path
	}
	return fmt.Sprintf("%s: %v", s, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Is implements errors.Is for ErrConfig.
func (e *ConfigError) Is(target error) bool { return target == ErrConfig }
