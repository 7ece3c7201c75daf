package main

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

// isolateHome points every per-user location at a temp directory
func isolateHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_DATA_HOME", filepath.Join(home, "data"))
	t.Chdir(t.TempDir())
	return home
}

func writeNoisePNG(t *testing.T, path string, seed uint64) {
	t.Helper()
	rng := rand.New(rand.NewPCG(seed, seed+1))
	img := image.NewNRGBA(image.Rect(0, 0, 48, 48))
	for y := 0; y < 48; y++ {
		for x := 0; x < 48; x++ {
			v := uint8(rng.IntN(256))
			img.Set(x, y, color.NRGBA{R: v, G: v, B: v, A: 255})
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func TestOrganizeCommandJSONAndHistory(t *testing.T) {
	isolateHome(t)
	root := t.TempDir()
	a := filepath.Join(root, "a")
	b := filepath.Join(root, "b")
	out := filepath.Join(root, "out")
	writeNoisePNG(t, filepath.Join(a, "dock.png"), 11)
	writeNoisePNG(t, filepath.Join(a, "pier.png"), 12)
	writeNoisePNG(t, filepath.Join(b, "dock.png"), 11)

	stdout, _, err := runCLI(t, "organize", a, b, out, "--json")
	if err != nil {
		t.Fatalf("organize: %v", err)
	}
	var result map[string]any
	if err := json.Unmarshal([]byte(stdout), &result); err != nil {
		t.Fatalf("decode %q: %v", stdout, err)
	}
	if result["similar_groups"] != float64(1) || result["unique_images"] != float64(1) || result["total_processed"] != float64(3) {
		t.Fatalf("unexpected result %v", result)
	}
	runID, _ := result["run_id"].(string)
	if runID == "" {
		t.Fatal("expected run id in JSON output")
	}

	for _, name := range []string{"dock.png", "dock_1.png"} {
		if _, err := os.Stat(filepath.Join(out, "similar_dock", name)); err != nil {
			t.Fatalf("expected %s in group folder: %v", name, err)
		}
	}

	stdout, _, err = runCLI(t, "history")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, stdout, runID)
	requireContains(t, stdout, "completed")

	stdout, _, err = runCLI(t, "history", "--run", runID)
	if err != nil {
		t.Fatalf("history --run: %v", err)
	}
	requireContains(t, stdout, "similar_dock")
	requireContains(t, stdout, "moved")
}

func TestOrganizeCommandNoImagesFails(t *testing.T) {
	isolateHome(t)
	root := t.TempDir()
	a := filepath.Join(root, "a")
	b := filepath.Join(root, "b")
	for _, dir := range []string{a, b} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
	}

	_, _, err := runCLI(t, "organize", a, b, filepath.Join(root, "out"), "--no-journal")
	if err == nil || !strings.Contains(err.Error(), "No images found") {
		t.Fatalf("expected no images error, got %v", err)
	}
}

func TestOrganizeCommandRejectsBadThreshold(t *testing.T) {
	isolateHome(t)
	root := t.TempDir()
	_, _, err := runCLI(t, "organize", root, root, root, "--threshold", "0")
	if err == nil || !strings.Contains(err.Error(), "threshold") {
		t.Fatalf("expected threshold error, got %v", err)
	}
}

func TestResolveFolders(t *testing.T) {
	root := t.TempDir()
	a := filepath.Join(root, "a")
	b := filepath.Join(root, "b")
	for _, dir := range []string{a, b} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	file := filepath.Join(root, "file.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name      string
		a, b, out string
		wantErr   string
	}{
		{name: "valid", a: a, b: b, out: filepath.Join(root, "out")},
		{name: "missing input", a: filepath.Join(root, "missing"), b: b, out: filepath.Join(root, "out"), wantErr: "does not exist"},
		{name: "input is file", a: file, b: b, out: filepath.Join(root, "out"), wantErr: "not a directory"},
		{name: "same inputs", a: a, b: a, out: filepath.Join(root, "out"), wantErr: "same folder"},
		{name: "output equals input", a: a, b: b, out: b, wantErr: "must not be inside input"},
		{name: "output nested in input", a: a, b: b, out: filepath.Join(a, "sorted"), wantErr: "must not be inside input"},
		{name: "input nested in output", a: a, b: b, out: root, wantErr: "must not be inside output"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, _, err := resolveFolders(tt.a, tt.b, tt.out)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestCompareCommand(t *testing.T) {
	isolateHome(t)
	dir := t.TempDir()
	first := filepath.Join(dir, "first.png")
	second := filepath.Join(dir, "second.png")
	other := filepath.Join(dir, "other.png")
	writeNoisePNG(t, first, 21)
	writeNoisePNG(t, second, 21)
	writeNoisePNG(t, other, 22)

	stdout, _, err := runCLI(t, "compare", first, second)
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
	requireContains(t, stdout, "Exact match: yes")
	requireContains(t, stdout, "Similar at 0.85: yes")
	requireContains(t, stdout, "whash")

	stdout, _, err = runCLI(t, "compare", first, other, "--json")
	if err != nil {
		t.Fatalf("compare --json: %v", err)
	}
	var result compareResult
	if err := json.Unmarshal([]byte(stdout), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.ExactMatch || result.Similar || result.Scored != 4 {
		t.Fatalf("unexpected comparison %+v", result)
	}
}

func TestConfigInitCommand(t *testing.T) {
	isolateHome(t)
	target := filepath.Join(t.TempDir(), "imagesync.toml")

	stdout, _, err := runCLI(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, stdout, "Wrote sample configuration")

	if _, _, err := runCLI(t, "config", "init", "--path", target); err == nil {
		t.Fatal("expected second init without --overwrite to fail")
	}
	if _, _, err := runCLI(t, "config", "init", "--path", target, "--overwrite"); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}

	stdout, _, err = runCLI(t, "--config", target, "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, stdout, "Configuration valid")
}
