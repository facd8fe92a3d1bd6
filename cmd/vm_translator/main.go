package main

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/teris-io/cli"
	"github.com/jacklang/n2t/pkg/asm"
	"github.com/jacklang/n2t/pkg/vm"
)

var Description = strings.ReplaceAll(`
The VM Translator translates programs (composed of multiple modules/files) written in
the VM language into Hack assembly code that can be further elaborated. The VM language
is a higher-level (bytecode'like) language tailored for use with the Hack computer arch.
`, "\n", " ")

var VmTranslator = cli.New(Description).
	WithArg(cli.NewArg("input", "The bytecode (.vm) file, or a directory of them, to be compiled")).
	WithAction(Handler)

func Handler(args []string, options map[string]string) int {
	if len(args) < 1 {
		fmt.Printf("ERROR: Not enough arguments provided, use --help\n")
		return -1
	}

	input := args[0]

	info, err := os.Stat(input)
	if err != nil {
		fmt.Printf("ERROR: Unable to open input: %s\n", err)
		return -1
	}

	// One '.vm' file produces a sibling '.asm'; a directory produces 'Dir/Dir.asm' (the
	// directory's own base name), reusing the convention the reference VM translator uses.
	isDirectory, TUs := info.IsDir(), []string{}
	outputPath := strings.TrimSuffix(input, path.Ext(input)) + ".asm"

	if isDirectory {
		dirName := filepath.Base(filepath.Clean(input))
		outputPath = filepath.Join(input, dirName+".asm")

		filepath.Walk(input, func(p string, info fs.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() || filepath.Ext(p) != ".vm" {
				return nil
			}
			TUs = append(TUs, p)
			return nil
		})
	} else {
		TUs = append(TUs, input)
	}

	output, err := os.Create(outputPath)
	if err != nil {
		fmt.Printf("ERROR: Unable to open output file: %s\n", err)
		return -1
	}
	defer output.Close()

	// Every .vm file (the input file, or each one found in the input directory) is its own translation unit (much like a
	// Java '.class' file); each is parsed and lowered independently, then concatenated, in
	// directory-walk order, into a single monolithic 'asm.Program'.
	asmProgram := asm.Program{}

	for _, tu := range TUs {
		content, err := os.ReadFile(tu)
		if err != nil {
			fmt.Printf("ERROR: Unable to open input file: %s\n", err)
			return -1
		}

		moduleName := strings.TrimSuffix(path.Base(tu), path.Ext(tu))

		// Instantiate a parser for the Vm program
		parser := vm.NewParser(bytes.NewReader(content))
		// Parses the input file content and extract an IR (as a 'vm.Module') from it.
		module, err := parser.Parse()
		if err != nil {
			fmt.Printf("ERROR: Unable to complete 'parsing' pass: %s\n", err)
			return -1
		}

		// Instantiate a lowerer, scoped to this module, to convert it from Vm to Asm
		lowerer := vm.NewLowerer(moduleName)
		lowered, err := lowerer.Lower(module)
		if err != nil {
			fmt.Printf("ERROR: Unable to complete 'lowering' pass: %s\n", err)
			return -1
		}

		asmProgram = append(asmProgram, lowered...)
	}

	// The bootstrap prologue (SP=256, then jump into Sys.init) is only emitted for a
	// directory-mode run: a single '.vm' file invocation is assumed to be a standalone
	// test program that doesn't define (or need) a 'Sys.init' entrypoint.
	if isDirectory {
		asmProgram = append([]asm.Instruction{
			asm.AInstruction{Location: "256"},
			asm.CInstruction{Dest: "D", Comp: "A"},
			asm.AInstruction{Location: "SP"},
			asm.CInstruction{Dest: "M", Comp: "D"},
			asm.AInstruction{Location: "Sys.init"},
			asm.CInstruction{Comp: "0", Jump: "JMP"},
		}, asmProgram...)
	}

	// Now, instantiates a code generator for the Asm (compiled) program
	codegen := asm.NewCodeGenerator(asmProgram)
	// Iterates over each instruction and spits out the relative textual representation.
	compiled, err := codegen.Generate()
	if err != nil {
		fmt.Printf("ERROR: Unable to complete 'codegen' pass: %s\n", err)
		return -1
	}

	for _, comp := range compiled {
		line := fmt.Sprintf("%s\n", comp)
		output.Write([]byte(line))
	}

	return 0
}

func main() { os.Exit(VmTranslator.Run(os.Args, os.Stdout)) }
