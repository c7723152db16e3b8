package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Wolfe-Jam/faf-go/pkg/fafb"
)

func TestParsePriority(t *testing.T) {
	typ, p, err := parsePriority("context=255")
	if err != nil {
		t.Fatalf("parsePriority failed: %v", err)
	}
	if typ != fafb.SectionContext {
		t.Errorf("Expected context section, got %s", typ)
	}
	if p != fafb.PriorityCritical {
		t.Errorf("Expected priority 255, got %d", p)
	}

	invalid := []string{
		"context",
		"nope=100",
		"context=-1",
		"context=256",
		"context=high",
	}
	for _, arg := range invalid {
		if _, _, err := parsePriority(arg); err == nil {
			t.Errorf("Expected error for %q", arg)
		}
	}
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		src  string
		flag string
		want string
	}{
		{"project.faf", "", "project.fafb"},
		{filepath.Join("a", "b", "project.faf"), "", filepath.Join("a", "b", "project.fafb")},
		{".faf", "", "project.fafb"},
		{"project.faf", "out.fafb", "out.fafb"},
	}
	for _, tt := range tests {
		if got := outputPath(tt.src, tt.flag); got != tt.want {
			t.Errorf("outputPath(%q, %q) = %q, want %q", tt.src, tt.flag, got, tt.want)
		}
	}
}

func TestPresetBudget(t *testing.T) {
	tests := []struct {
		name string
		want int
	}{
		{"minimal", fafb.BudgetMinimal},
		{"standard", fafb.BudgetStandard},
		{"full", fafb.BudgetFull},
	}
	for _, tt := range tests {
		got, err := presetBudget(tt.name)
		if err != nil {
			t.Fatalf("presetBudget(%q) failed: %v", tt.name, err)
		}
		if got != tt.want {
			t.Errorf("presetBudget(%q) = %d, want %d", tt.name, got, tt.want)
		}
	}

	if _, err := presetBudget("gigantic"); err == nil {
		t.Error("Expected error for unknown preset")
	}
}

func TestFlagNames(t *testing.T) {
	if got := flagNames(0); got != "none" {
		t.Errorf("Expected 'none' for empty flags, got %q", got)
	}
	got := flagNames(fafb.FlagCompressed | fafb.FlagEmbeddings)
	if got != "compressed,embeddings" {
		t.Errorf("Unexpected flag names: %q", got)
	}
}

func TestDiscoverSourcePrefersExplicitFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.faf")
	if err := os.WriteFile(path, []byte("project:\n  name: demo\n"), 0o600); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	got, err := discoverSource([]string{path})
	if err != nil {
		t.Fatalf("discoverSource failed: %v", err)
	}
	if got != path {
		t.Errorf("Expected %q, got %q", path, got)
	}
}

func TestDiscoverSourceWalksUp(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "a", "b")
	if err := os.MkdirAll(nested, 0o750); err != nil {
		t.Fatalf("Failed to create dirs: %v", err)
	}
	path := filepath.Join(dir, "project.faf")
	if err := os.WriteFile(path, []byte("project:\n  name: demo\n"), 0o600); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	got, err := discoverSource([]string{nested})
	if err != nil {
		t.Fatalf("discoverSource failed: %v", err)
	}
	if got != path {
		t.Errorf("Expected %q, got %q", path, got)
	}
}
