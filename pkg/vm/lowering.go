package vm

import (
	"fmt"

	"github.com/jacklang/n2t/pkg/asm"
)

// ----------------------------------------------------------------------------
// Vm Lowerer

// The Lowerer takes a 'vm.Module' (the typed IR produced by the Parser) and produces
// its 'asm.Program' counterpart.
//
// State is kept across the whole module: the current function scope (used to namespace
// 'label'/'goto'/'if-goto' targets, so 'LOOP' inside 'Foo.bar' lowers to 'Foo.bar$LOOP')
// and a monotonic counter used to mint unique labels for comparisons and call return
// addresses, since a module may contain any number of 'eq'/'gt'/'lt'/'call' operations.
type Lowerer struct {
	module   string // Name of the class/module being lowered, used for the 'static' segment
	function string // Fully qualified name of the function currently in scope
	seq      uint32 // Monotonic counter used to mint unique internal labels
}

// Initializes and returns to the caller a brand new 'Lowerer' struct.
// Requires the argument 'module' to be the name of the class/file being lowered.
func NewLowerer(module string) Lowerer {
	return Lowerer{module: module}
}

// Lowers every operation of the given 'vm.Module' to its 'asm.Instruction' counterpart,
// in order, producing a flat 'asm.Program' ready to be fed to the Assembler's CodeGenerator.
func (lw *Lowerer) Lower(module Module) (asm.Program, error) {
	program := asm.Program{}

	for _, operation := range module {
		var instructions []asm.Instruction
		var err error

		switch op := operation.(type) {
		case MemoryOp:
			instructions, err = lw.lowerMemoryOp(op)
		case ArithmeticOp:
			instructions, err = lw.lowerArithmeticOp(op)
		case LabelDecl:
			instructions, err = lw.lowerLabelDecl(op)
		case GotoOp:
			instructions, err = lw.lowerGotoOp(op)
		case FuncDecl:
			instructions, err = lw.lowerFuncDecl(op)
		case FuncCallOp:
			instructions, err = lw.lowerFuncCallOp(op)
		case ReturnOp:
			instructions, err = lw.lowerReturnOp(op)
		default:
			return nil, fmt.Errorf("%w: unrecognized operation %T", ErrMalformedOperation, operation)
		}

		if err != nil {
			return nil, err
		}
		program = append(program, instructions...)
	}

	return program, nil
}

// Mints a fresh, module-unique internal label with the given prefix (e.g. 'cmp', 'ret').
func (lw *Lowerer) mintLabel(prefix string) string {
	lw.seq++
	return fmt.Sprintf("%s$%s.%d", lw.module, prefix, lw.seq)
}

// ----------------------------------------------------------------------------
// Memory Op

// segmentBase maps the indirect segments (accessed through a base pointer register
// plus an offset) to the symbol holding that base pointer.
var segmentBase = map[SegmentType]string{
	Local:    "LCL",
	Argument: "ARG",
	This:     "THIS",
	That:     "THAT",
}

// directLocation resolves the 'temp', 'pointer' and 'static' segments, none of which are
// accessed indirectly through a base register: 'temp' and 'pointer' map onto a fixed range
// of the Hack memory map, 'static' onto a per-module named variable.
func (lw *Lowerer) directLocation(segment SegmentType, offset uint16) (string, error) {
	switch segment {
	case Temp:
		if offset > 7 {
			return "", fmt.Errorf("%w: 'temp' offset %d out of range (0-7)", ErrInvalidOffset, offset)
		}
		return fmt.Sprint(5 + offset), nil
	case Pointer:
		if offset > 1 {
			return "", fmt.Errorf("%w: 'pointer' offset %d out of range (0-1)", ErrInvalidOffset, offset)
		}
		if offset == 0 {
			return "THIS", nil
		}
		return "THAT", nil
	case Static:
		return fmt.Sprintf("%s.%d", lw.module, offset), nil
	default:
		return "", fmt.Errorf("%w: segment '%s' is not a direct-addressed segment", ErrMalformedOperation, segment)
	}
}

// Produces the instructions that leave the target address of 'segment[offset]' in D,
// used by pop to compute the destination once (cached in R13) rather than twice.
func (lw *Lowerer) addressOf(segment SegmentType, offset uint16) ([]asm.Instruction, error) {
	if base, indirect := segmentBase[segment]; indirect {
		return []asm.Instruction{
			asm.AInstruction{Location: base},
			asm.CInstruction{Dest: "D", Comp: "M"},
			asm.AInstruction{Location: fmt.Sprint(offset)},
			asm.CInstruction{Dest: "D", Comp: "D+A"},
		}, nil
	}

	location, err := lw.directLocation(segment, offset)
	if err != nil {
		return nil, err
	}
	return []asm.Instruction{
		asm.AInstruction{Location: location},
		asm.CInstruction{Dest: "D", Comp: "A"},
	}, nil
}

// Produces the instructions that leave the value held at 'segment[offset]' in D,
// used by push to fetch the value to stack.
func (lw *Lowerer) valueOf(segment SegmentType, offset uint16) ([]asm.Instruction, error) {
	if segment == Constant {
		return []asm.Instruction{
			asm.AInstruction{Location: fmt.Sprint(offset)},
			asm.CInstruction{Dest: "D", Comp: "A"},
		}, nil
	}

	if base, indirect := segmentBase[segment]; indirect {
		return []asm.Instruction{
			asm.AInstruction{Location: base},
			asm.CInstruction{Dest: "D", Comp: "M"},
			asm.AInstruction{Location: fmt.Sprint(offset)},
			asm.CInstruction{Dest: "A", Comp: "D+A"},
			asm.CInstruction{Dest: "D", Comp: "M"},
		}, nil
	}

	location, err := lw.directLocation(segment, offset)
	if err != nil {
		return nil, err
	}
	return []asm.Instruction{
		asm.AInstruction{Location: location},
		asm.CInstruction{Dest: "D", Comp: "M"},
	}, nil
}

// Appends to the current stack top whatever value is held in D and advances the
// Stack Pointer. Shared tail of every 'push' lowering.
func pushD() []asm.Instruction {
	return []asm.Instruction{
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "A", Comp: "M"},
		asm.CInstruction{Dest: "M", Comp: "D"},
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "M", Comp: "M+1"},
	}
}

// Specialized function to convert a 'MemoryOp' (push/pop) operation to 'asm.Instruction's.
func (lw *Lowerer) lowerMemoryOp(op MemoryOp) ([]asm.Instruction, error) {
	switch op.Operation {
	case Push:
		load, err := lw.valueOf(op.Segment, op.Offset)
		if err != nil {
			return nil, err
		}
		return append(load, pushD()...), nil

	case Pop:
		if op.Segment == Constant {
			return nil, fmt.Errorf("%w: cannot pop into the 'constant' segment", ErrMalformedOperation)
		}
		address, err := lw.addressOf(op.Segment, op.Offset)
		if err != nil {
			return nil, err
		}
		instructions := append(address,
			asm.AInstruction{Location: "R13"},
			asm.CInstruction{Dest: "M", Comp: "D"}, // R13 = target address, computed exactly once
			asm.AInstruction{Location: "SP"},
			asm.CInstruction{Dest: "AM", Comp: "M-1"},
			asm.CInstruction{Dest: "D", Comp: "M"}, // D = popped value
			asm.AInstruction{Location: "R13"},
			asm.CInstruction{Dest: "A", Comp: "M"},
			asm.CInstruction{Dest: "M", Comp: "D"}, // *R13 = D
		)
		return instructions, nil

	default:
		return nil, fmt.Errorf("%w: unrecognized memory operation '%s'", ErrMalformedOperation, op.Operation)
	}
}

// ----------------------------------------------------------------------------
// Arithmetic Op

// binaryArithmetic maps the binary, non-comparison ops to the comp mnemonic to apply
// on the stack's two topmost values (combined into the second-from-top slot).
var binaryArithmetic = map[ArithOpType]string{
	Add: "D+M",
	Sub: "M-D",
	And: "D&M",
	Or:  "D|M",
}

// unaryArithmetic maps the unary ops to the comp mnemonic applied in place on the top.
var unaryArithmetic = map[ArithOpType]string{
	Neg: "-M",
	Not: "!M",
}

// comparisonJump maps the comparison ops to the jump mnemonic used to branch on the
// sign of the subtraction between the two topmost stack values.
var comparisonJump = map[ArithOpType]string{
	Eq: "JEQ",
	Gt: "JGT",
	Lt: "JLT",
}

// Specialized function to convert an 'ArithmeticOp' operation to 'asm.Instruction's.
func (lw *Lowerer) lowerArithmeticOp(op ArithmeticOp) ([]asm.Instruction, error) {
	if comp, ok := binaryArithmetic[op.Operation]; ok {
		return []asm.Instruction{
			asm.AInstruction{Location: "SP"},
			asm.CInstruction{Dest: "AM", Comp: "M-1"},
			asm.CInstruction{Dest: "D", Comp: "M"},
			asm.CInstruction{Dest: "A", Comp: "A-1"},
			asm.CInstruction{Dest: "M", Comp: comp},
		}, nil
	}

	if comp, ok := unaryArithmetic[op.Operation]; ok {
		return []asm.Instruction{
			asm.AInstruction{Location: "SP"},
			asm.CInstruction{Dest: "A", Comp: "M-1"},
			asm.CInstruction{Dest: "M", Comp: comp},
		}, nil
	}

	if jump, ok := comparisonJump[op.Operation]; ok {
		trueLabel := lw.mintLabel("cmp_true")
		endLabel := lw.mintLabel("cmp_end")

		return []asm.Instruction{
			asm.AInstruction{Location: "SP"},
			asm.CInstruction{Dest: "AM", Comp: "M-1"},
			asm.CInstruction{Dest: "D", Comp: "M"},
			asm.CInstruction{Dest: "A", Comp: "A-1"},
			asm.CInstruction{Dest: "D", Comp: "M-D"},
			asm.AInstruction{Location: trueLabel},
			asm.CInstruction{Comp: "D", Jump: jump},
			asm.AInstruction{Location: "SP"},
			asm.CInstruction{Dest: "A", Comp: "M-1"},
			asm.CInstruction{Dest: "M", Comp: "0"},
			asm.AInstruction{Location: endLabel},
			asm.CInstruction{Comp: "0", Jump: "JMP"},
			asm.LabelDecl{Name: trueLabel},
			asm.AInstruction{Location: "SP"},
			asm.CInstruction{Dest: "A", Comp: "M-1"},
			asm.CInstruction{Dest: "M", Comp: "-1"},
			asm.LabelDecl{Name: endLabel},
		}, nil
	}

	return nil, fmt.Errorf("%w: unrecognized arithmetic operation '%s'", ErrMalformedOperation, op.Operation)
}

// ----------------------------------------------------------------------------
// Branching

// Scopes a bare VM label to the function currently in scope (e.g. 'LOOP' inside
// 'Foo.bar' becomes 'Foo.bar$LOOP'), so that two functions can reuse the same label name.
func (lw *Lowerer) scopedLabel(name string) string {
	if lw.function == "" {
		return name
	}
	return fmt.Sprintf("%s$%s", lw.function, name)
}

// Specialized function to convert a 'LabelDecl' operation to 'asm.Instruction's.
func (lw *Lowerer) lowerLabelDecl(op LabelDecl) ([]asm.Instruction, error) {
	if op.Name == "" {
		return nil, fmt.Errorf("%w: cannot declare an empty label", ErrEmptyLabel)
	}
	return []asm.Instruction{asm.LabelDecl{Name: lw.scopedLabel(op.Name)}}, nil
}

// Specialized function to convert a 'GotoOp' operation to 'asm.Instruction's.
//
// 'goto' jumps unconditionally, 'if-goto' pops the stack top and jumps only if it's non-zero.
func (lw *Lowerer) lowerGotoOp(op GotoOp) ([]asm.Instruction, error) {
	if op.Label == "" {
		return nil, fmt.Errorf("%w: cannot jump to an empty label", ErrEmptyLabel)
	}
	target := lw.scopedLabel(op.Label)

	switch op.Jump {
	case Unconditional:
		return []asm.Instruction{
			asm.AInstruction{Location: target},
			asm.CInstruction{Comp: "0", Jump: "JMP"},
		}, nil

	case Conditional:
		return []asm.Instruction{
			asm.AInstruction{Location: "SP"},
			asm.CInstruction{Dest: "AM", Comp: "M-1"},
			asm.CInstruction{Dest: "D", Comp: "M"},
			asm.AInstruction{Location: target},
			asm.CInstruction{Comp: "D", Jump: "JNE"},
		}, nil

	default:
		return nil, fmt.Errorf("%w: unrecognized jump type '%s'", ErrMalformedOperation, op.Jump)
	}
}

// ----------------------------------------------------------------------------
// Functions

// Specialized function to convert a 'FuncDecl' operation to 'asm.Instruction's.
//
// Enters the function's label scope (subsequent label/goto ops are namespaced under it)
// and zero-initializes every local variable slot declared.
func (lw *Lowerer) lowerFuncDecl(op FuncDecl) ([]asm.Instruction, error) {
	if op.Name == "" {
		return nil, fmt.Errorf("%w: cannot declare a function with an empty name", ErrEmptyFunctionName)
	}

	lw.function = op.Name
	instructions := []asm.Instruction{asm.LabelDecl{Name: op.Name}}

	for i := uint8(0); i < op.NLocal; i++ {
		instructions = append(instructions, asm.CInstruction{Dest: "D", Comp: "0"})
		instructions = append(instructions, pushD()...)
	}

	return instructions, nil
}

// Specialized function to convert a 'FuncCallOp' operation to 'asm.Instruction's.
//
// Pushes the 5-value call frame (return address, LCL, ARG, THIS, THAT), repositions
// ARG/LCL for the callee and jumps into it; the callee resumes execution right after
// the generated return label.
func (lw *Lowerer) lowerFuncCallOp(op FuncCallOp) ([]asm.Instruction, error) {
	if op.Name == "" {
		return nil, fmt.Errorf("%w: cannot call a function with an empty name", ErrEmptyFunctionName)
	}

	returnLabel := lw.mintLabel("ret")
	instructions := []asm.Instruction{
		// Push the return address, so 'return' in the callee knows where to jump back to
		asm.AInstruction{Location: returnLabel},
		asm.CInstruction{Dest: "D", Comp: "A"},
	}
	instructions = append(instructions, pushD()...)

	for _, saved := range []string{"LCL", "ARG", "THIS", "THAT"} {
		instructions = append(instructions,
			asm.AInstruction{Location: saved},
			asm.CInstruction{Dest: "D", Comp: "M"},
		)
		instructions = append(instructions, pushD()...)
	}

	instructions = append(instructions,
		// ARG = SP - 5 - nArgs
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: fmt.Sprint(5 + int(op.NArgs))},
		asm.CInstruction{Dest: "D", Comp: "D-A"},
		asm.AInstruction{Location: "ARG"},
		asm.CInstruction{Dest: "M", Comp: "D"},
		// LCL = SP
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: "LCL"},
		asm.CInstruction{Dest: "M", Comp: "D"},
		// goto the callee
		asm.AInstruction{Location: op.Name},
		asm.CInstruction{Comp: "0", Jump: "JMP"},
		// the callee resumes execution here via 'return'
		asm.LabelDecl{Name: returnLabel},
	)

	return instructions, nil
}

// Specialized function to convert a 'ReturnOp' operation to 'asm.Instruction's.
//
// Tears down the current frame: restores the caller's LCL/ARG/THIS/THAT, places the
// function's result where the caller expects its first argument, resets SP and jumps
// back to the saved return address. The frame and return address are cached in
// R13/R14 respectively, since ARG/LCL are overwritten mid-sequence.
func (lw *Lowerer) lowerReturnOp(ReturnOp) ([]asm.Instruction, error) {
	loadFromFrame := func(offset int, dest string) []asm.Instruction {
		return []asm.Instruction{
			asm.AInstruction{Location: "R13"},
			asm.CInstruction{Dest: "D", Comp: "M"},
			asm.AInstruction{Location: fmt.Sprint(offset)},
			asm.CInstruction{Dest: "A", Comp: "D-A"},
			asm.CInstruction{Dest: "D", Comp: "M"},
			asm.AInstruction{Location: dest},
			asm.CInstruction{Dest: "M", Comp: "D"},
		}
	}

	instructions := []asm.Instruction{
		// R13 = frame = LCL
		asm.AInstruction{Location: "LCL"},
		asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: "R13"},
		asm.CInstruction{Dest: "M", Comp: "D"},
		// R14 = return address = *(frame - 5)
		asm.AInstruction{Location: "5"},
		asm.CInstruction{Dest: "A", Comp: "D-A"},
		asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: "R14"},
		asm.CInstruction{Dest: "M", Comp: "D"},
		// *ARG = pop(), the caller will find the return value there
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "AM", Comp: "M-1"},
		asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: "ARG"},
		asm.CInstruction{Dest: "A", Comp: "M"},
		asm.CInstruction{Dest: "M", Comp: "D"},
		// SP = ARG + 1
		asm.AInstruction{Location: "ARG"},
		asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "M", Comp: "D+1"},
	}

	// Restore caller's THAT, THIS, ARG, LCL (in this order), each read back relative to
	// the frame cached in R13, since LCL itself gets overwritten by the last restore
	instructions = append(instructions, loadFromFrame(1, "THAT")...)
	instructions = append(instructions, loadFromFrame(2, "THIS")...)
	instructions = append(instructions, loadFromFrame(3, "ARG")...)
	instructions = append(instructions, loadFromFrame(4, "LCL")...)

	instructions = append(instructions,
		asm.AInstruction{Location: "R14"},
		asm.CInstruction{Dest: "A", Comp: "M"},
		asm.CInstruction{Comp: "0", Jump: "JMP"},
	)

	return instructions, nil
}
