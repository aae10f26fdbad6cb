package cachutil

import (
	"golang.org/x/sync/singleflight"
)

// Suppressed suppresses duplicate concurrent computations of a value.
// The zero value is ready to use.
type Suppressed[V any] struct {
	group singleflight.Group
}

// Do executes fn and returns its result. It ensures that only one
// execution of fn is in-flight for a given key at a time; concurrent
// callers with the same key wait for and share that result.
func (s *Suppressed[V]) Do(key string, fn func() V) V {
	// the error can be discarded since the singleflight.Group
	// itself does not return any of its errors, it returns
	// the error that we return ourselves in the func below, which
	// is always nil
	res, _, _ := s.group.Do(key, func() (interface{}, error) {
		return fn(), nil
	})
	return res.(V)
}
