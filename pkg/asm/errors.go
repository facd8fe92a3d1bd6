package asm

import "errors"

// Sentinel errors for the Assembler's parsing/lowering/codegen phases.
var (
	ErrMalformedInstruction = errors.New("malformed instruction")
	ErrReservedLabel        = errors.New("reserved label")
)
