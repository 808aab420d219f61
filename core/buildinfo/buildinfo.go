// Package buildinfo carries version metadata stamped into relaybot binaries.
package buildinfo

import "fmt"

// Values below are overridden with -ldflags at build time:
//
//	-X 'github.com/m3rciful/relaybot/core/buildinfo.Version=v0.3.0'
//	-X 'github.com/m3rciful/relaybot/core/buildinfo.Commit=abcdef0'
//	-X 'github.com/m3rciful/relaybot/core/buildinfo.Date=2026-10-01T12:00:00Z'
var (
	// Version reports the release tag of the build.
	Version = "dev"
	// Commit reports the source revision used for the build.
	Commit = "local"
	// Date reports the build timestamp in RFC3339 format.
	Date = ""
)

// String renders a single-line summary used by the version command and startup logs.
func String() string {
	s := fmt.Sprintf("relaybot %s (%s)", Version, Commit)
	if Date != "" {
		s += " built " + Date
	}
	return s
}
