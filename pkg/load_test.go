package pkg

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestLoadFileToSliceTrimsTrailingOnly(t *testing.T) {
	content := "  lead\t \r\nplain\r\n\r\ntrail  \n"
	f := filepath.Join(t.TempDir(), "dict.txt")
	if err := os.WriteFile(f, []byte(content), 0o644); err != nil {
		t.Fatalf("write dict: %v", err)
	}

	words, err := LoadFileToSlice(f)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	// leading whitespace survives, empty lines are intact entries, only the
	// final-newline artifact is dropped
	want := []string{"  lead", "plain", "", "trail"}
	if !reflect.DeepEqual(words, want) {
		t.Fatalf("expected %q, got %q", want, words)
	}
}

func TestLoadFileToSliceNoTrailingNewline(t *testing.T) {
	f := filepath.Join(t.TempDir(), "dict.txt")
	if err := os.WriteFile(f, []byte("one\ntwo"), 0o644); err != nil {
		t.Fatalf("write dict: %v", err)
	}

	words, err := LoadFileToSlice(f)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := []string{"one", "two"}
	if !reflect.DeepEqual(words, want) {
		t.Fatalf("expected %q, got %q", want, words)
	}
}

func TestLoadTemplateFileEmpty(t *testing.T) {
	f := filepath.Join(t.TempDir(), "empty.raw")
	if err := os.WriteFile(f, nil, 0o644); err != nil {
		t.Fatalf("write template: %v", err)
	}
	if _, err := LoadTemplateFile(f, "FUZZ"); err == nil {
		t.Fatal("expected error for empty template")
	}
}
