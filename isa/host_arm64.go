package isa

import "golang.org/x/sys/cpu"

// HostFeatures probes the capabilities of the CPU the process runs on.
// Used when no variant or feature option configured the set explicitly.
//
// Note: darwin does not populate cpu.ARM64 feature bits from the kernel,
// so this can under-report there; the default-variant baseline is always
// included regardless.
func HostFeatures() Features {
	f := Features{is: Arm64, mask: variants[Arm64]["default"]}
	if cpu.ARM64.HasATOMICS {
		f.mask |= featLSE
	}
	if cpu.ARM64.HasCRC32 {
		f.mask |= featCRC32
	}
	if cpu.ARM64.HasSHA2 {
		f.mask |= featSHA2
	}
	if cpu.ARM64.HasASIMDDP {
		f.mask |= featDotProd
	}
	return f
}
