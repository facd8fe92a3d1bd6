package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sumClass = `class Main {
    function int sum(int a, int b) {
        return a + b;
    }
}
`

func TestJackCompiler(t *testing.T) {
	t.Run("Single file input emits a sibling .vm and .xml", func(t *testing.T) {
		dir := t.TempDir()
		input := filepath.Join(dir, "Main.jack")
		if err := os.WriteFile(input, []byte(sumClass), 0644); err != nil {
			t.Fatalf("failed to write fixture: %v", err)
		}

		status := Handler([]string{input}, nil)
		if status != 0 {
			t.Fatalf("unexpected exit status code: expected 0 got: %d", status)
		}

		vmOutput, err := os.ReadFile(filepath.Join(dir, "Main.vm"))
		if err != nil {
			t.Fatalf("expected a .vm output, got: %v", err)
		}
		if !strings.Contains(string(vmOutput), "function Main.sum 0") {
			t.Errorf("expected the compiled function declaration, got:\n%s", vmOutput)
		}

		xmlOutput, err := os.ReadFile(filepath.Join(dir, "Main.xml"))
		if err != nil {
			t.Fatalf("expected a .xml output, got: %v", err)
		}
		xml := string(xmlOutput)
		if !strings.Contains(xml, "<class>") || !strings.Contains(xml, "</class>") {
			t.Errorf("expected a wrapping <class> element, got:\n%s", xml)
		}
		if !strings.Contains(xml, "<keyword> class </keyword>") {
			t.Errorf("expected terminal elements for keywords, got:\n%s", xml)
		}
	})

	t.Run("Directory input compiles one .vm per .jack file", func(t *testing.T) {
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, "Main.jack"), []byte(sumClass), 0644); err != nil {
			t.Fatalf("failed to write fixture: %v", err)
		}

		status := Handler([]string{dir}, nil)
		if status != 0 {
			t.Fatalf("unexpected exit status code: expected 0 got: %d", status)
		}

		if _, err := os.Stat(filepath.Join(dir, "Main.vm")); err != nil {
			t.Fatalf("expected a .vm output, got: %v", err)
		}
		if _, err := os.Stat(filepath.Join(dir, "Main.xml")); err != nil {
			t.Fatalf("expected a .xml output, got: %v", err)
		}
	})

	t.Run("Duplicate parameter declaration is rejected", func(t *testing.T) {
		dir := t.TempDir()
		input := filepath.Join(dir, "Bad.jack")
		source := "class Bad {\n    function int sum(int a, int a) {\n        return a;\n    }\n}\n"
		if err := os.WriteFile(input, []byte(source), 0644); err != nil {
			t.Fatalf("failed to write fixture: %v", err)
		}

		if status := Handler([]string{input}, nil); status == 0 {
			t.Fatalf("expected a non-zero exit status for a duplicate parameter declaration")
		}
	})

	t.Run("Missing argument fails gracefully", func(t *testing.T) {
		if status := Handler(nil, nil); status == 0 {
			t.Fatalf("expected a non-zero exit status with no arguments")
		}
	})
}
