package validation

import (
	"fmt"
	"regexp"
)

// Constants obtained from https://github.com/kubernetes/apimachinery/blob/master/pkg/util/validation/validation.go
const (
	qnameCharFmt           = "[A-Za-z0-9]"
	qnameExtCharFmt        = "[-A-Za-z0-9_.]"
	qualifiedNameFmt       = "(" + qnameCharFmt + qnameExtCharFmt + "*)?" + qnameCharFmt
	QualifiedNameMaxLength = 63
	QualifiedNameErrMsg    = "must consist of alphanumeric characters, " +
		"'-', '_' or '.', and must start and end with an alphanumeric character"
)

var qualifiedNameRegexp = regexp.MustCompile("^" + qualifiedNameFmt + "$")

// ValidWorldName reports whether str can name a world.
// World names double as file names inside the world directory.
func ValidWorldName(str string) bool {
	return str != "" && len(str) <= QualifiedNameMaxLength && qualifiedNameRegexp.MatchString(str)
}

// WorldName returns an error describing why str is not a valid world name.
func WorldName(str string) error {
	if ValidWorldName(str) {
		return nil
	}
	if len(str) > QualifiedNameMaxLength {
		return fmt.Errorf("invalid world name %q: must be no more than %d characters", str, QualifiedNameMaxLength)
	}
	return fmt.Errorf("invalid world name %q: %s", str, QualifiedNameErrMsg)
}
