// Package version provides the release version of the module.
package version

import "fmt"

// Build information. Populated at build-time with -ldflags.
var (
	major  = 0
	minor  = 9
	patch  = 0
	commit = "dev"
)

// Version holds the released version triple and the build commit.
type Version struct {
	Major  int
	Minor  int
	Patch  int
	Commit string
}

// String implements fmt.Stringer
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d-%s", v.Major, v.Minor, v.Patch, v.Commit)
}

// Current returns the current version.
func Current() Version {
	return Version{
		Major:  major,
		Minor:  minor,
		Patch:  patch,
		Commit: commit,
	}
}
