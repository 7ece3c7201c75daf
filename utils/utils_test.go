package utils

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestParseThreshold(t *testing.T) {
	tests := []struct {
		input   string
		want    float64
		wantErr bool
	}{
		{"0.9", 0.9, false},
		{"1", 1, false},
		{" 0.5 ", 0.5, false},
		{"0", DefaultThreshold, true},
		{"1.01", DefaultThreshold, true},
		{"-0.2", DefaultThreshold, true},
		{"abc", DefaultThreshold, true},
	}
	for _, tt := range tests {
		got, err := ParseThreshold(tt.input)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseThreshold(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, ErrInvalidThreshold) {
			t.Fatalf("ParseThreshold(%q) error should wrap ErrInvalidThreshold: %v", tt.input, err)
		}
		if got != tt.want {
			t.Fatalf("ParseThreshold(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestSanitizeName(t *testing.T) {
	tests := map[string]string{
		"  beach day!  ": "beach day",
		"cat/dog:*?":     "catdog",
		"sun-set_2024":   "sun-set_2024",
		"cafe\u0301":     "caf\u00e9",
		"***":            "",
	}
	for input, want := range tests {
		if got := SanitizeName(input); got != want {
			t.Fatalf("SanitizeName(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestTruncateRunes(t *testing.T) {
	if got := TruncateRunes("ééééé", 3); got != "ééé" {
		t.Fatalf("unexpected truncation %q", got)
	}
	if got := TruncateRunes("short", 50); got != "short" {
		t.Fatalf("unexpected truncation %q", got)
	}
}

func TestIsWithin(t *testing.T) {
	root := t.TempDir()
	if !IsWithin(root, root) {
		t.Fatal("root should be within itself")
	}
	if !IsWithin(filepath.Join(root, "a", "b"), root) {
		t.Fatal("child should be within root")
	}
	if IsWithin(filepath.Dir(root), root) {
		t.Fatal("parent should not be within root")
	}
	if IsWithin(root+"-sibling", root) {
		t.Fatal("sibling with shared prefix should not be within root")
	}
}
