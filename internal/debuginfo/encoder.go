// Package debuginfo produces native-debugger-visible metadata: compact
// type-layout blobs registered process-wide on type-load events, and the
// perf-map compile log consumed by profiling tools.
package debuginfo

import (
	"bytes"
	"encoding/binary"

	"github.com/kilnvm/kiln/api"
	"github.com/kilnvm/kiln/internal/version"
	"github.com/kilnvm/kiln/isa"
)

// Encoder serializes debug-metadata blobs. The binary layout belongs to
// the encoder, not to its callers: tools reading blobs must pair with the
// encoder version embedded in them.
type Encoder interface {
	// EncodeTypes returns a blob describing the layout of the given types
	// for the given instruction set and feature set.
	EncodeTypes(f isa.Features, types []api.TypeHandle) []byte
}

// blobMagic identifies compactEncoder output.
var blobMagic = [4]byte{'K', 'D', 'B', 'G'}

// compactEncoder is the default Encoder. Layout, little-endian:
//
//	magic            [4]byte "KDBG"
//	encoder version  u8 length-prefixed string
//	instruction set  u8
//	feature mask     u64
//	type count       u32
//	per type:        u16 length-prefixed name, u32 instance size
type compactEncoder struct{}

// NewEncoder returns the default compact encoder.
func NewEncoder() Encoder { return compactEncoder{} }

// EncodeTypes implements the same method on the Encoder interface.
func (compactEncoder) EncodeTypes(f isa.Features, types []api.TypeHandle) []byte {
	var buf bytes.Buffer
	buf.Write(blobMagic[:])

	v := version.Get()
	buf.WriteByte(byte(len(v)))
	buf.WriteString(v)

	buf.WriteByte(byte(f.ISA()))
	var u64 [8]byte
	binary.LittleEndian.PutUint64(u64[:], f.Mask())
	buf.Write(u64[:])

	var u32 [4]byte
	binary.LittleEndian.PutUint32(u32[:], uint32(len(types)))
	buf.Write(u32[:])

	var u16 [2]byte
	for _, tp := range types {
		name := tp.Name()
		binary.LittleEndian.PutUint16(u16[:], uint16(len(name)))
		buf.Write(u16[:])
		buf.WriteString(name)
		binary.LittleEndian.PutUint32(u32[:], tp.InstanceSize())
		buf.Write(u32[:])
	}
	return buf.Bytes()
}
