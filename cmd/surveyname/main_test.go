package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func requireContains(t *testing.T, out, want string) {
	t.Helper()
	if !strings.Contains(out, want) {
		t.Fatalf("output missing %q:\n%s", want, out)
	}
}

func TestDecodeTable(t *testing.T) {
	out, err := runCLI(t, "decode", "CAM1202401151030X123456L12.tif")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	requireContains(t, out, "123456L12")
	requireContains(t, out, "2024-01-15 10:30")
	requireContains(t, out, "123.456")
	requireContains(t, out, "L12")
}

func TestDecodeFailureExitsNonZero(t *testing.T) {
	out, err := runCLI(t, "decode", "CAM1202401151030X123456L12.tif", "notes.txt")
	if !errors.Is(err, errDecodeFailed) {
		t.Fatalf("err = %v, want errDecodeFailed", err)
	}
	// Good names are still printed
	requireContains(t, out, "123456L12")
	requireContains(t, out, "invalid extension")
}

func TestDecodeJSON(t *testing.T) {
	out, err := runCLI(t, "decode", "--json", "CAM1202401151030X123456L12.tif", "CAM1202413151030X123456.tif")
	if !errors.Is(err, errDecodeFailed) {
		t.Fatalf("err = %v, want errDecodeFailed", err)
	}

	var results []decodeResult
	if err := json.Unmarshal([]byte(out), &results); err != nil {
		t.Fatalf("invalid JSON output: %v\n%s", err, out)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Metadata == nil || results[0].Metadata.Km != 123.456 {
		t.Errorf("first result = %+v", results[0])
	}
	if results[1].Kind != "invalid_timestamp" {
		t.Errorf("second result kind = %q, want invalid_timestamp", results[1].Kind)
	}
}

func TestDecodeDirectory(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"CAM2202401161145X123456L12.tiff", "CAM1202401151030X123456L12.tif", "readme.md"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "nested.tif"), 0o755); err != nil {
		t.Fatal(err)
	}

	names, err := expandNames([]string{dir, "/some/path/CAM1202402011200X000750L3.tif"})
	if err != nil {
		t.Fatalf("expandNames: %v", err)
	}
	want := []string{
		"CAM1202401151030X123456L12.tif",
		"CAM2202401161145X123456L12.tiff",
		"CAM1202402011200X000750L3.tif",
	}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Errorf("names = %v, want %v", names, want)
	}
}

func TestDecodeRequiresArgs(t *testing.T) {
	if _, err := runCLI(t, "decode"); err == nil {
		t.Error("expected error without arguments")
	}
}

func TestRenderTableAlignment(t *testing.T) {
	out := renderTable([]string{"A", "B"}, [][]string{{"x"}}, []columnAlignment{alignLeft, alignRight})
	requireContains(t, out, "A")
	requireContains(t, out, "x")
	if renderTable(nil, nil, nil) != "" {
		t.Error("empty headers should render nothing")
	}
}
