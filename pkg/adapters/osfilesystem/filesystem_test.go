package osfilesystem

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileSystem_WriteAndReadFile(t *testing.T) {
	fs := New()
	path := filepath.Join(t.TempDir(), "jump.md")

	if err := fs.WriteFile(path, []byte("# Video Report")); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	data, err := fs.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "# Video Report" {
		t.Errorf("expected written content, got %q", data)
	}
}

func TestFileSystem_WriteFile_Replaces(t *testing.T) {
	fs := New()
	dir := t.TempDir()
	path := filepath.Join(dir, "sheet.png")

	if err := fs.WriteFile(path, []byte("first version")); err != nil {
		t.Fatal(err)
	}
	if err := fs.WriteFile(path, []byte("second")); err != nil {
		t.Fatal(err)
	}

	data, _ := fs.ReadFile(path)
	if string(data) != "second" {
		t.Errorf("expected replaced content, got %q", data)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("expected no temporary files left, got %d entries", len(entries))
	}
	if info, _ := os.Stat(path); info.Mode().Perm() != 0644 {
		t.Errorf("expected mode 0644, got %v", info.Mode().Perm())
	}
}

func TestFileSystem_WriteFileCreatesParentDirs(t *testing.T) {
	fs := New()
	path := filepath.Join(t.TempDir(), "reports", "2024", "jump.md")

	if err := fs.WriteFile(path, []byte("x")); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if ok, _ := fs.Exists(path); !ok {
		t.Error("expected file to exist")
	}
}

func TestFileSystem_MkdirAll(t *testing.T) {
	fs := New()
	dir := filepath.Join(t.TempDir(), "a", "b")

	if err := fs.MkdirAll(dir); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		t.Errorf("expected directory to exist, err %v", err)
	}
}

func TestFileSystem_Exists(t *testing.T) {
	fs := New()
	dir := t.TempDir()

	tests := []struct {
		name string
		path string
		want bool
	}{
		{"directory", dir, true},
		{"missing", filepath.Join(dir, "jump.kva"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := fs.Exists(tt.path)
			if err != nil {
				t.Fatalf("Exists failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Exists(%s) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}
