package buildtime

import (
	_ "embed"
	"strings"
)

//go:embed VERSION
var version string

// git revision, given on build by
// -ldflags "-X github.com/opst/trainval/pkg/buildtime.revision=$(git rev-parse HEAD)"
var revision = "unknown"

func init() {
	version = strings.TrimSpace(version)
	revision = strings.TrimSpace(revision)
}

// version string when this trainval has been built.
func VERSION() string {
	return version
}

func GIT_REVISION() string {
	return revision
}

func VersionString() string {
	return version + " (commit: " + revision + ")"
}
