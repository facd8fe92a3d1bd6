package jack

import "errors"

// Sentinel errors for the Jack Compiler's parsing/lowering/typechecking phases.
var (
	ErrUnexpectedToken  = errors.New("unexpected token")
	ErrUnexpectedEOF    = errors.New("unexpected end of input")
	ErrMalformedLiteral = errors.New("malformed literal")
	ErrUndeclaredIdent  = errors.New("undeclared identifier")
	ErrDuplicateDecl    = errors.New("duplicate declaration in the same scope")
)
