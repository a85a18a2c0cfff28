package isa

import (
	"fmt"
	"sort"
	"strings"
)

// Features is the set of instruction-set capability flags (e.g. vector
// extensions) enabled for one InstructionSet.
//
// Features values are immutable. AddFromString returns a derived value and
// leaves the receiver untouched, so a loaded configuration snapshot can
// share its Features with concurrent readers.
type Features struct {
	is   InstructionSet
	mask uint64
}

// Feature bit assignments, per instruction set. Bits are meaningful only
// within their own instruction set.
const (
	// amd64
	featSSE3 uint64 = 1 << iota
	featSSSE3
	featSSE41
	featSSE42
	featPOPCNT
	featAVX
	featAVX2
	featLZCNT

	// arm64
	featASIMD
	featLSE
	featCRC32
	featSHA2
	featDotProd

	// arm
	featIDivA
	featVFPv3

	// riscv64
	featCompressed
)

// featureNames maps the externally visible feature-string names used in
// "--instruction-set-features=" values onto bits, per instruction set.
var featureNames = map[InstructionSet]map[string]uint64{
	Amd64: {
		"sse3":    featSSE3,
		"ssse3":   featSSSE3,
		"sse4.1":  featSSE41,
		"sse4.2":  featSSE42,
		"popcnt":  featPOPCNT,
		"avx":     featAVX,
		"avx2":    featAVX2,
		"lzcnt":   featLZCNT,
	},
	Arm64: {
		"asimd":   featASIMD,
		"lse":     featLSE,
		"crc32":   featCRC32,
		"sha2":    featSHA2,
		"dotprod": featDotProd,
	},
	Arm: {
		"idiva": featIDivA,
		"vfpv3": featVFPv3,
	},
	Riscv64: {
		"compressed": featCompressed,
	},
}

// variants maps named microarchitecture variants onto baseline feature
// masks, per instruction set. Every instruction set has a "default"
// variant: the conservative baseline the backend may always assume.
var variants = map[InstructionSet]map[string]uint64{
	Amd64: {
		"default":   featSSE3 | featSSSE3,
		"x86-64-v2": featSSE3 | featSSSE3 | featSSE41 | featSSE42 | featPOPCNT,
		"x86-64-v3": featSSE3 | featSSSE3 | featSSE41 | featSSE42 | featPOPCNT |
			featAVX | featAVX2 | featLZCNT,
	},
	Arm64: {
		"default":    featASIMD,
		"cortex-a55": featASIMD | featCRC32 | featLSE,
		"cortex-a76": featASIMD | featCRC32 | featLSE | featDotProd,
	},
	Arm: {
		"default": featVFPv3,
		"generic": featVFPv3 | featIDivA,
	},
	Riscv64: {
		"default": featCompressed,
	},
}

// FromVariant returns the baseline feature set of the named variant for
// the given instruction set. The name "default" is accepted for every
// supported instruction set.
func FromVariant(is InstructionSet, variant string) (Features, error) {
	byName, ok := variants[is]
	if !ok {
		return Features{}, fmt.Errorf("no variants defined for instruction set %s", is)
	}
	mask, ok := byName[variant]
	if !ok {
		return Features{}, fmt.Errorf("unknown %s variant %q", is, variant)
	}
	return Features{is: is, mask: mask}, nil
}

// AddFromString returns a copy of f with the comma-separated feature list
// applied on top. Each element is a feature name, or a feature name with a
// "no-" prefix to remove it from the set. Whitespace around elements is
// ignored; empty elements are rejected.
func (f Features) AddFromString(csv string) (Features, error) {
	byName := featureNames[f.is]
	if byName == nil {
		return Features{}, fmt.Errorf("no features defined for instruction set %s", f.is)
	}
	ret := f
	for _, raw := range strings.Split(csv, ",") {
		name := strings.TrimSpace(raw)
		remove := false
		if strings.HasPrefix(name, "no-") {
			remove = true
			name = name[len("no-"):]
		}
		bit, ok := byName[name]
		if !ok {
			return Features{}, fmt.Errorf("unknown %s feature %q", f.is, name)
		}
		if remove {
			ret.mask &^= bit
		} else {
			ret.mask |= bit
		}
	}
	return ret, nil
}

// ISA returns the instruction set these features belong to.
func (f Features) ISA() InstructionSet { return f.is }

// Has reports whether the named feature is in the set. Unknown names
// report false.
func (f Features) Has(name string) bool {
	bit, ok := featureNames[f.is][name]
	return ok && f.mask&bit != 0
}

// Mask returns the raw feature bits. The bit assignment is stable within a
// module version and is what debug-metadata blobs embed.
func (f Features) Mask() uint64 { return f.mask }

// Equal reports whether f and other describe the same instruction set and
// the same feature bits.
func (f Features) Equal(other Features) bool { return f == other }

// String implements fmt.Stringer, e.g. "amd64:sse3,ssse3,sse4.1".
func (f Features) String() string {
	var names []string
	for name, bit := range featureNames[f.is] {
		if f.mask&bit != 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return f.is.String() + ":" + strings.Join(names, ",")
}
