// Package version retrieves the version of this module as embedders see
// it in their go.mod. The version string is stamped into debug-metadata
// blobs so native tooling can tell which encoder produced them.
package version

import "runtime/debug"

// modulePath of this module as it appears in dependent go.mod files.
const modulePath = "github.com/kilnvm/kiln"

// Default is returned when the module version is unavailable, e.g. when
// built from a source checkout rather than as a dependency.
const Default = "dev"

// Get returns the module version, e.g. "v1.2.3", or Default.
func Get() (ret string) {
	ret = Default
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, dep := range info.Deps {
			if dep.Path == modulePath {
				return dep.Version
			}
		}
	}
	return
}
