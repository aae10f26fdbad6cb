// Package version holds the build version of perms.
package version

// version is set by build flags:
// -ldflags "-X go.minekube.com/perms/pkg/version.version=v1.2.3"
var version = "unknown"

// String returns the build version or "unknown".
func String() string {
	return version
}
