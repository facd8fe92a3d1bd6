package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const simpleAdd = "push constant 7\npush constant 8\nadd\n"

func TestVmTranslator(t *testing.T) {
	t.Run("Single file input never emits the bootstrap prologue", func(t *testing.T) {
		dir := t.TempDir()
		input := filepath.Join(dir, "SimpleAdd.vm")
		expectedOutput := filepath.Join(dir, "SimpleAdd.asm")

		if err := os.WriteFile(input, []byte(simpleAdd), 0644); err != nil {
			t.Fatalf("failed to write fixture: %v", err)
		}

		status := Handler([]string{input}, nil)
		if status != 0 {
			t.Fatalf("unexpected exit status code: expected 0 got: %d", status)
		}

		compiled, err := os.ReadFile(expectedOutput)
		if err != nil {
			t.Fatalf("expected output at %s, got: %v", expectedOutput, err)
		}
		if strings.Contains(string(compiled), "Sys.init") {
			t.Fatalf("a single-file run must not emit the bootstrap prologue, got:\n%s", compiled)
		}
	})

	t.Run("Directory input derives Dir/Dir.asm and emits the bootstrap prologue", func(t *testing.T) {
		dir := t.TempDir()
		project := filepath.Join(dir, "Project")
		if err := os.Mkdir(project, 0755); err != nil {
			t.Fatalf("failed to create fixture dir: %v", err)
		}
		if err := os.WriteFile(filepath.Join(project, "Main.vm"), []byte(simpleAdd), 0644); err != nil {
			t.Fatalf("failed to write fixture: %v", err)
		}

		status := Handler([]string{project}, nil)
		if status != 0 {
			t.Fatalf("unexpected exit status code: expected 0 got: %d", status)
		}

		expectedOutput := filepath.Join(project, "Project.asm")
		compiled, err := os.ReadFile(expectedOutput)
		if err != nil {
			t.Fatalf("expected output at %s, got: %v", expectedOutput, err)
		}

		lines := strings.Split(strings.TrimSpace(string(compiled)), "\n")
		bootstrap := []string{"@256", "D=A", "@SP", "M=D", "@Sys.init", "0;JMP"}
		if len(lines) < len(bootstrap) {
			t.Fatalf("expected at least %d lines, got %d", len(bootstrap), len(lines))
		}
		for i, expected := range bootstrap {
			if strings.TrimSpace(lines[i]) != expected {
				t.Errorf("bootstrap line %d: expected %q, got %q", i, expected, lines[i])
			}
		}
	})

	t.Run("Missing argument fails gracefully", func(t *testing.T) {
		if status := Handler(nil, nil); status == 0 {
			t.Fatalf("expected a non-zero exit status with no arguments")
		}
	})
}
