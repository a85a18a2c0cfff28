// Package isa models instruction sets and instruction-set feature sets the
// compiler backend may target.
//
// A Features value is immutable: deriving operations return a new value.
// This keeps loaded configuration snapshots safe to read concurrently.
package isa

import (
	"fmt"
	"runtime"
)

// InstructionSet identifies a CPU architecture the backend can generate
// code for. The zero value is Unknown.
type InstructionSet byte

const (
	Unknown InstructionSet = iota
	Amd64
	Arm64
	Arm
	Riscv64
)

// String implements fmt.Stringer. The names match runtime.GOARCH.
func (i InstructionSet) String() string {
	switch i {
	case Amd64:
		return "amd64"
	case Arm64:
		return "arm64"
	case Arm:
		return "arm"
	case Riscv64:
		return "riscv64"
	}
	return fmt.Sprintf("unknown(%#x)", byte(i))
}

// Host returns the instruction set of the running process, or Unknown when
// the architecture has no backend support.
func Host() InstructionSet {
	switch runtime.GOARCH {
	case "amd64":
		return Amd64
	case "arm64":
		return Arm64
	case "arm":
		return Arm
	case "riscv64":
		return Riscv64
	}
	return Unknown
}
