package preflight

import (
	"os"
	"path/filepath"
	"testing"
)

func TestEnsure_ExistingDirectory(t *testing.T) {
	tmpDir := t.TempDir()

	results, err := Ensure([]Check{{Path: tmpDir, Dir: true}})
	if err != nil {
		t.Fatalf("Ensure() failed: %v", err)
	}

	if len(results) != 1 {
		t.Fatalf("Expected 1 result, got %d", len(results))
	}
	if !results[0].Existed {
		t.Error("Expected existing directory to be reported as existed")
	}
	if results[0].Created {
		t.Error("Expected existing directory to not be reported as created")
	}
}

func TestEnsure_CreatesNestedDirectory(t *testing.T) {
	newDir := filepath.Join(t.TempDir(), "logs", "veil")

	results, err := Ensure([]Check{{Path: newDir, Dir: true}})
	if err != nil {
		t.Fatalf("Ensure() failed: %v", err)
	}

	if !results[0].Created {
		t.Error("Expected directory to be reported as created")
	}

	info, err := os.Stat(newDir)
	if err != nil {
		t.Fatalf("Directory was not created: %v", err)
	}
	if !info.IsDir() {
		t.Error("Created path is not a directory")
	}
}

func TestEnsure_CreatesFile(t *testing.T) {
	newFile := filepath.Join(t.TempDir(), "nested", "main.log")

	results, err := Ensure([]Check{{Path: newFile, Dir: false}})
	if err != nil {
		t.Fatalf("Ensure() failed: %v", err)
	}

	if !results[0].Created {
		t.Error("Expected file to be reported as created")
	}
	if _, err := os.Stat(newFile); err != nil {
		t.Errorf("File was not created: %v", err)
	}
}

func TestEnsure_TypeMismatch(t *testing.T) {
	tmpDir := t.TempDir()
	file := filepath.Join(tmpDir, "file.txt")
	if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}

	t.Run("File where directory expected", func(t *testing.T) {
		if _, err := Ensure([]Check{{Path: file, Dir: true}}); err == nil {
			t.Error("Expected error for file where directory expected")
		}
	})

	t.Run("Directory where file expected", func(t *testing.T) {
		if _, err := Ensure([]Check{{Path: tmpDir, Dir: false}}); err == nil {
			t.Error("Expected error for directory where file expected")
		}
	})
}

func TestCreateOrTruncateFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "main.log")

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}
	if err := os.WriteFile(path, []byte("old contents"), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	if err := CreateOrTruncateFile(path); err != nil {
		t.Fatalf("CreateOrTruncateFile() failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file: %v", err)
	}
	if len(data) != 0 {
		t.Errorf("Expected truncated file, got %d bytes", len(data))
	}
}
