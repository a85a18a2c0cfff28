//go:build !amd64 && !arm64

package isa

// HostFeatures probes the capabilities of the CPU the process runs on.
//
// On architectures without a probing implementation this returns the
// default-variant baseline of the host instruction set, or an empty set
// when the host has no backend support at all.
func HostFeatures() Features {
	is := Host()
	baseline, ok := variants[is]
	if !ok {
		return Features{}
	}
	return Features{is: is, mask: baseline["default"]}
}
