//go:build !amd64 && !arm64

package engine

import (
	"fmt"

	"github.com/kilnvm/kiln/api"
	"github.com/kilnvm/kiln/isa"
)

const archSupported = false

func buildEntryStub(api.Method) ([]byte, error) {
	return nil, fmt.Errorf("no entry stub assembler for %s", isa.Host())
}
