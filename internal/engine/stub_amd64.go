package engine

// This file assembles the amd64 entry stub. Note that the x86 pkg used
// here prefixes all instructions with "A", e.g. MOVQ is given as
// x86.AMOVQ.

import (
	"fmt"

	asm "github.com/twitchyliquid64/golang-asm"
	"github.com/twitchyliquid64/golang-asm/obj"
	"github.com/twitchyliquid64/golang-asm/obj/x86"

	"github.com/kilnvm/kiln/api"
)

const archSupported = true

// buildEntryStub assembles the native entry stub for m:
//
//	MOVQ $methodID, AX
//	RET
//
// The method ID in AX lets the runtime's dispatch shim identify which
// method the stub belongs to.
func buildEntryStub(m api.Method) ([]byte, error) {
	b, err := asm.NewBuilder("amd64", 64)
	if err != nil {
		return nil, fmt.Errorf("create assembly builder: %w", err)
	}

	mov := b.NewProg()
	mov.As = x86.AMOVQ
	mov.From.Type = obj.TYPE_CONST
	mov.From.Offset = int64(m.ID())
	mov.To.Type = obj.TYPE_REG
	mov.To.Reg = x86.REG_AX
	b.AddInstruction(mov)

	ret := b.NewProg()
	ret.As = obj.ARET
	b.AddInstruction(ret)

	return b.Assemble(), nil
}
