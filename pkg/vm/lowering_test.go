package vm_test

import (
	"testing"

	"github.com/jacklang/n2t/pkg/asm"
	"github.com/jacklang/n2t/pkg/vm"
)

// countLabels returns how many 'asm.LabelDecl' are present in 'program'.
func countLabels(program asm.Program) int {
	count := 0
	for _, inst := range program {
		if _, ok := inst.(asm.LabelDecl); ok {
			count++
		}
	}
	return count
}

func TestLowerMemoryOp(t *testing.T) {
	t.Run("push constant", func(t *testing.T) {
		lowerer := vm.NewLowerer("Main")
		program, err := lowerer.Lower(vm.Module{vm.MemoryOp{Operation: vm.Push, Segment: vm.Constant, Offset: 7}})
		if err != nil {
			t.Fatalf("unexpected error: %s", err)
		}
		if len(program) == 0 {
			t.Fatal("expected a non-empty instruction sequence")
		}
	})

	t.Run("pop into every real segment round trips through R13 once", func(t *testing.T) {
		for _, segment := range []vm.SegmentType{vm.Local, vm.Argument, vm.This, vm.That, vm.Temp, vm.Pointer, vm.Static} {
			lowerer := vm.NewLowerer("Main")
			program, err := lowerer.Lower(vm.Module{
				vm.MemoryOp{Operation: vm.Pop, Segment: segment, Offset: 0},
			})
			if err != nil {
				t.Fatalf("segment %s: unexpected error: %s", segment, err)
			}

			r13Writes := 0
			for _, inst := range program {
				if a, ok := inst.(asm.AInstruction); ok && a.Location == "R13" {
					r13Writes++
				}
			}
			// R13 should be addressed exactly twice: once to store the address, once to read it back.
			if r13Writes != 2 {
				t.Fatalf("segment %s: expected R13 to be addressed twice, got %d", segment, r13Writes)
			}
		}
	})

	t.Run("pop into constant is rejected", func(t *testing.T) {
		lowerer := vm.NewLowerer("Main")
		_, err := lowerer.Lower(vm.Module{vm.MemoryOp{Operation: vm.Pop, Segment: vm.Constant, Offset: 0}})
		if err == nil {
			t.Fatal("expected an error popping into 'constant'")
		}
	})

	t.Run("out of range offsets are rejected", func(t *testing.T) {
		lowerer := vm.NewLowerer("Main")
		if _, err := lowerer.Lower(vm.Module{vm.MemoryOp{Operation: vm.Push, Segment: vm.Temp, Offset: 8}}); err == nil {
			t.Fatal("expected an error for 'temp' offset 8")
		}
		if _, err := lowerer.Lower(vm.Module{vm.MemoryOp{Operation: vm.Push, Segment: vm.Pointer, Offset: 2}}); err == nil {
			t.Fatal("expected an error for 'pointer' offset 2")
		}
	})
}

func TestLowerArithmeticOp(t *testing.T) {
	ops := []vm.ArithOpType{vm.Add, vm.Sub, vm.Neg, vm.Eq, vm.Gt, vm.Lt, vm.And, vm.Or, vm.Not}

	for _, op := range ops {
		t.Run(string(op), func(t *testing.T) {
			lowerer := vm.NewLowerer("Main")
			program, err := lowerer.Lower(vm.Module{vm.ArithmeticOp{Operation: op}})
			if err != nil {
				t.Fatalf("unexpected error: %s", err)
			}
			if len(program) == 0 {
				t.Fatal("expected a non-empty instruction sequence")
			}
		})
	}

	t.Run("comparisons mint unique labels across multiple ops", func(t *testing.T) {
		lowerer := vm.NewLowerer("Main")
		program, err := lowerer.Lower(vm.Module{
			vm.ArithmeticOp{Operation: vm.Eq},
			vm.ArithmeticOp{Operation: vm.Eq},
		})
		if err != nil {
			t.Fatalf("unexpected error: %s", err)
		}
		// Each 'eq' mints 2 labels (true/end), two 'eq' ops should mint 4 distinct ones.
		if got := countLabels(program); got != 4 {
			t.Fatalf("expected 4 labels, got %d", got)
		}
	})
}

func TestLowerBranching(t *testing.T) {
	t.Run("label declared inside a function is scoped to it", func(t *testing.T) {
		lowerer := vm.NewLowerer("Main")
		program, err := lowerer.Lower(vm.Module{
			vm.FuncDecl{Name: "Main.loop", NLocal: 0},
			vm.LabelDecl{Name: "LOOP_START"},
			vm.GotoOp{Jump: vm.Unconditional, Label: "LOOP_START"},
		})
		if err != nil {
			t.Fatalf("unexpected error: %s", err)
		}

		found := false
		for _, inst := range program {
			if decl, ok := inst.(asm.LabelDecl); ok && decl.Name == "Main.loop$LOOP_START" {
				found = true
			}
		}
		if !found {
			t.Fatal("expected the label to be scoped under 'Main.loop$LOOP_START'")
		}
	})

	t.Run("empty label is rejected", func(t *testing.T) {
		lowerer := vm.NewLowerer("Main")
		if _, err := lowerer.Lower(vm.Module{vm.LabelDecl{Name: ""}}); err == nil {
			t.Fatal("expected an error for an empty label declaration")
		}
		if _, err := lowerer.Lower(vm.Module{vm.GotoOp{Jump: vm.Unconditional, Label: ""}}); err == nil {
			t.Fatal("expected an error for an empty jump target")
		}
	})
}

func TestLowerFunctions(t *testing.T) {
	t.Run("function declaration zero-initializes its locals", func(t *testing.T) {
		lowerer := vm.NewLowerer("Main")
		program, err := lowerer.Lower(vm.Module{vm.FuncDecl{Name: "Main.sum", NLocal: 3}})
		if err != nil {
			t.Fatalf("unexpected error: %s", err)
		}

		comps := 0
		for _, inst := range program {
			if c, ok := inst.(asm.CInstruction); ok && c.Comp == "0" && c.Dest == "D" {
				comps++
			}
		}
		if comps != 3 {
			t.Fatalf("expected 3 local-initializing instructions, got %d", comps)
		}
	})

	t.Run("call pushes the 5 value frame", func(t *testing.T) {
		lowerer := vm.NewLowerer("Main")
		program, err := lowerer.Lower(vm.Module{vm.FuncCallOp{Name: "Main.sum", NArgs: 2}})
		if err != nil {
			t.Fatalf("unexpected error: %s", err)
		}
		if len(program) == 0 {
			t.Fatal("expected a non-empty instruction sequence")
		}
		// Exactly one return-site label should be emitted for the call.
		if got := countLabels(program); got != 1 {
			t.Fatalf("expected 1 label (the return site), got %d", got)
		}
	})

	t.Run("return is self-contained", func(t *testing.T) {
		lowerer := vm.NewLowerer("Main")
		program, err := lowerer.Lower(vm.Module{vm.ReturnOp{}})
		if err != nil {
			t.Fatalf("unexpected error: %s", err)
		}
		if len(program) == 0 {
			t.Fatal("expected a non-empty instruction sequence")
		}
	})

	t.Run("empty function/call name is rejected", func(t *testing.T) {
		lowerer := vm.NewLowerer("Main")
		if _, err := lowerer.Lower(vm.Module{vm.FuncDecl{Name: "", NLocal: 0}}); err == nil {
			t.Fatal("expected an error for an empty function declaration")
		}
		if _, err := lowerer.Lower(vm.Module{vm.FuncCallOp{Name: "", NArgs: 0}}); err == nil {
			t.Fatal("expected an error for an empty function call")
		}
	})
}
