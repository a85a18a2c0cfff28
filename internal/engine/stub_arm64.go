package engine

// This file assembles the arm64 entry stub. Note that the arm64 pkg used
// here prefixes all instructions with "A", e.g. MOVD is given as
// arm64.AMOVD.

import (
	"fmt"

	asm "github.com/twitchyliquid64/golang-asm"
	"github.com/twitchyliquid64/golang-asm/obj"
	"github.com/twitchyliquid64/golang-asm/obj/arm64"

	"github.com/kilnvm/kiln/api"
)

const archSupported = true

// buildEntryStub assembles the native entry stub for m:
//
//	MOVD $methodID, R0
//	RET
//
// The method ID in R0 lets the runtime's dispatch shim identify which
// method the stub belongs to.
func buildEntryStub(m api.Method) ([]byte, error) {
	b, err := asm.NewBuilder("arm64", 64)
	if err != nil {
		return nil, fmt.Errorf("create assembly builder: %w", err)
	}

	mov := b.NewProg()
	mov.As = arm64.AMOVD
	mov.From.Type = obj.TYPE_CONST
	mov.From.Offset = int64(m.ID())
	mov.To.Type = obj.TYPE_REG
	mov.To.Reg = arm64.REG_R0
	b.AddInstruction(mov)

	ret := b.NewProg()
	ret.As = obj.ARET
	b.AddInstruction(ret)

	return b.Assemble(), nil
}
