// Package buildinfo carries version metadata stamped at link time.
package buildinfo

import "runtime/debug"

// Version is overridden via -ldflags "-X portolan/internal/support/buildinfo.Version=...".
var Version = "dev"

// Revision returns the VCS commit baked into the binary, if any.
func Revision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" {
			return s.Value
		}
	}
	return ""
}
