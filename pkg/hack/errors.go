package hack

import "errors"

// Sentinel errors for the Hack codegen phase, wrapped with context via fmt.Errorf("%w", ...)
// so callers/tests can discriminate on kind with errors.Is instead of matching strings.
var (
	ErrUnresolvedLocation = errors.New("unresolved location")
	ErrOutOfBounds        = errors.New("address out of bounds")
	ErrUnknownComp        = errors.New("unknown comp opcode")
	ErrUnknownDest        = errors.New("unknown dest opcode")
	ErrUnknownJump        = errors.New("unknown jump opcode")
)
