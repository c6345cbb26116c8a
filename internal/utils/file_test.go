package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestValidateInputFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "resume.md")
	if err := os.WriteFile(path, []byte("content"), 0600); err != nil {
		t.Fatal(err)
	}

	if err := ValidateInputFile(path); err != nil {
		t.Errorf("existing file should validate: %v", err)
	}
	if err := ValidateInputFile(""); err == nil {
		t.Error("empty filename should fail")
	}
	if err := ValidateInputFile(filepath.Join(dir, "missing.md")); err == nil {
		t.Error("missing file should fail")
	}
	if err := ValidateInputFile(dir); err == nil {
		t.Error("directory should fail")
	}
}

func TestValidateFileSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.txt")
	if err := os.WriteFile(path, make([]byte, 100), 0600); err != nil {
		t.Fatal(err)
	}

	if err := ValidateFileSize(path, 100); err != nil {
		t.Errorf("file at the limit should pass: %v", err)
	}
	if err := ValidateFileSize(path, 99); err == nil {
		t.Error("file over the limit should fail")
	}
	if err := ValidateFileSize(path, 0); err != nil {
		t.Errorf("zero limit disables the check: %v", err)
	}
}

func TestIsTextFile(t *testing.T) {
	textFiles := []string{"a.txt", "b.md", "c.MARKDOWN", "d.text"}
	for _, f := range textFiles {
		if !IsTextFile(f) {
			t.Errorf("%s should be a text file", f)
		}
	}
	if IsTextFile("resume.pdf") {
		t.Error("pdf should not be a text file")
	}
}

func TestFormatFileSize(t *testing.T) {
	cases := []struct {
		size int64
		want string
	}{
		{512, "512 B"},
		{2048, "2.0 KB"},
		{3 * 1024 * 1024, "3.0 MB"},
	}
	for _, tc := range cases {
		if got := FormatFileSize(tc.size); got != tc.want {
			t.Errorf("FormatFileSize(%d) = %q, want %q", tc.size, got, tc.want)
		}
	}
}
