package vm

import "errors"

var (
	// ErrMalformedOperation is returned when a node in the AST doesn't match the
	// shape expected for the operation being extracted (wrong name, wrong arity, ...).
	ErrMalformedOperation = errors.New("malformed vm operation")
	// ErrInvalidOffset is returned when a MemoryOp's offset falls outside the
	// bounds allowed by its segment (e.g. 'pointer' only spans 0-1, 'temp' 0-7).
	ErrInvalidOffset = errors.New("invalid segment offset")
	// ErrEmptyLabel is returned when a LabelDecl or GotoOp carries an empty name.
	ErrEmptyLabel = errors.New("empty label name")
	// ErrEmptyFunctionName is returned when a FuncDecl or FuncCallOp carries an empty name.
	ErrEmptyFunctionName = errors.New("empty function name")
)
