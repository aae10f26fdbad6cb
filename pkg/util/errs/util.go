package errs

import (
	"errors"
	"fmt"
)

var (
	ErrMissingConfig = errors.New("config is missing")
)

// Prefix wraps every error in errs with p.
func Prefix(p string, errs []error) (pErrs []error) {
	for _, err := range errs {
		pErrs = append(pErrs, fmt.Errorf("%s: %w", p, err))
	}
	return
}
