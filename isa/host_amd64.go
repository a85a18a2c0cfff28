package isa

import "golang.org/x/sys/cpu"

// HostFeatures probes the capabilities of the CPU the process runs on.
// Used when no variant or feature option configured the set explicitly.
//
// The result always includes the default-variant baseline: a host that
// cannot run the baseline could not have started this process.
func HostFeatures() Features {
	f := Features{is: Amd64, mask: variants[Amd64]["default"]}
	if cpu.X86.HasSSE41 {
		f.mask |= featSSE41
	}
	if cpu.X86.HasSSE42 {
		f.mask |= featSSE42
	}
	if cpu.X86.HasPOPCNT {
		f.mask |= featPOPCNT
	}
	if cpu.X86.HasAVX {
		f.mask |= featAVX
	}
	if cpu.X86.HasAVX2 {
		f.mask |= featAVX2
	}
	return f
}
