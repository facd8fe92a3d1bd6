package asm

import (
	"fmt"
	"strconv"

	"github.com/jacklang/n2t/pkg/hack"
)

// ----------------------------------------------------------------------------
// Code Generator

// Takes a set of 'asm.Instruction' and spits out their textual counterparts.
//
// The translation can be done without any additional data structure but the program.
type CodeGenerator struct {
	program Program // The set of instructions to convert to Asm text
}

// Initializes and returns to the caller a brand new 'CodeGenerator' struct.
// Requires that argument Program 'p' (what we want to translate) is non-nil.
func NewCodeGenerator(p Program) CodeGenerator {
	return CodeGenerator{program: p}
}

// Translate each instruction in the 'program' field to the Asm textual format.
//
// Each instruction will pass through the following step: evaluation, validation and
// then conversion to its textual representation (a string) so that it can be further
// elaborated by the caller (e.g. dumping to a file, runtime interpretation, ...).
func (cg *CodeGenerator) Generate() ([]string, error) {
	asm := make([]string, 0, len(cg.program))

	for _, instruction := range cg.program {
		var generated string
		var err error

		switch tInstruction := instruction.(type) {
		case AInstruction:
			generated, err = cg.GenerateAInst(tInstruction)
		case CInstruction:
			generated, err = cg.GenerateCInst(tInstruction)
		case LabelDecl:
			generated, err = cg.GenerateLabelDecl(tInstruction)
		}

		if err != nil {
			return nil, err
		}
		asm = append(asm, generated)
	}

	return asm, nil
}

// Specialized function to convert an A Instruction to the Asm format.
func (CodeGenerator) GenerateAInst(inst AInstruction) (string, error) {
	if inst.Location == "" {
		return "", fmt.Errorf("%w: A instruction with an empty location", ErrMalformedInstruction)
	}
	// A raw address must fit in the 15 bits available to an A Instruction
	if num, err := strconv.ParseUint(inst.Location, 10, 64); err == nil && num > uint64(hack.MaxAddressableMemory) {
		return "", fmt.Errorf("%w: A instruction address %s out of range", ErrMalformedInstruction, inst.Location)
	}

	return fmt.Sprintf("@%s", inst.Location), nil
}

// Specialized function to convert a C Instruction to the Asm format.
func (cg *CodeGenerator) GenerateCInst(inst CInstruction) (string, error) {
	if inst.Comp == "" {
		return "", fmt.Errorf("%w: C instruction missing 'comp' directive", ErrMalformedInstruction)
	}

	if inst.Dest == "" && inst.Jump == "" {
		return "", fmt.Errorf("%w: C instruction needs at least a 'dest' or a 'jump'", ErrMalformedInstruction)
	}

	text := inst.Comp
	if inst.Dest != "" {
		text = fmt.Sprintf("%s=%s", inst.Dest, text)
	}
	if inst.Jump != "" {
		text = fmt.Sprintf("%s;%s", text, inst.Jump)
	}
	return text, nil
}

// Specialized function to convert a Label Declaration to the Asm format.
func (cg *CodeGenerator) GenerateLabelDecl(decl LabelDecl) (string, error) {
	if decl.Name == "" {
		return "", fmt.Errorf("%w: label declaration with an empty name", ErrMalformedInstruction)
	}
	if _, found := hack.BuiltInTable[decl.Name]; found {
		return "", fmt.Errorf("%w: cannot override built-in label '%s'", ErrReservedLabel, decl.Name)
	}

	return fmt.Sprintf("(%s)", decl.Name), nil
}
