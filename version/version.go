package version

import (
	"fmt"
	"strings"

	"golang.org/x/mod/semver"
)

// set via ldflags during build
var (
	Version   = "dev"
	GitCommit = "none"
	BuildDate = "unknown"
)

var FullVersion = fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate)

// CacheFormat is the version of the on-disk cache layout.
// Entries written with a different major version are ignored.
const CacheFormat = "v1.0.0"

// CompatibleCacheFormat reports whether data written with format toCheck can be read.
func CompatibleCacheFormat(toCheck string) bool {
	if !strings.HasPrefix(toCheck, "v") {
		toCheck = "v" + toCheck
	}
	if !semver.IsValid(toCheck) {
		return false
	}
	return semver.Major(toCheck) == semver.Major(CacheFormat) &&
		semver.Compare(toCheck, CacheFormat) <= 0
}
