package fileutil_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alnah/go-mdlive/internal/fileutil"
)

// ---------------------------------------------------------------------------
// TestValidateExtension - Extension validation
// ---------------------------------------------------------------------------

func TestValidateExtension(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		extension string
		wantErr   error
	}{
		{"valid svg", "svg", nil},
		{"valid d2", "d2", nil},
		{"empty extension", "", fileutil.ErrExtensionEmpty},
		{"forward slash path traversal", "../etc/passwd", fileutil.ErrExtensionPathTraversal},
		{"backslash path traversal", "..\\windows\\system32", fileutil.ErrExtensionPathTraversal},
		{"null byte injection", "svg\x00exe", fileutil.ErrExtensionPathTraversal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := fileutil.ValidateExtension(tt.extension)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateExtension(%q) = %v, want %v", tt.extension, err, tt.wantErr)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestWriteTempFile - Temporary file creation
// ---------------------------------------------------------------------------

func TestWriteTempFile(t *testing.T) {
	t.Parallel()

	content := "direction: right\na -> b\n"
	path, cleanup, err := fileutil.WriteTempFile(content, "d2")
	if err != nil {
		t.Fatalf("WriteTempFile() error = %v", err)
	}

	if !strings.Contains(filepath.Base(path), "mdlive-") {
		t.Errorf("path %q does not contain prefix 'mdlive-'", path)
	}
	if !strings.HasSuffix(path, ".d2") {
		t.Errorf("path %q does not have extension .d2", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read temp file: %v", err)
	}
	if string(data) != content {
		t.Errorf("file content = %q, want %q", string(data), content)
	}

	cleanup()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("temp file still exists after cleanup at %s", path)
	}
}

func TestWriteTempFile_InvalidExtension(t *testing.T) {
	t.Parallel()

	_, cleanup, err := fileutil.WriteTempFile("content", "../foo")
	if cleanup != nil {
		defer cleanup()
	}
	if !errors.Is(err, fileutil.ErrExtensionPathTraversal) {
		t.Errorf("WriteTempFile() error = %v, want %v", err, fileutil.ErrExtensionPathTraversal)
	}
}

// NOTE: This test modifies TMPDIR and cannot run in parallel.
func TestWriteTempFile_CreateTempError(t *testing.T) {
	t.Setenv("TMPDIR", "/nonexistent/path/that/does/not/exist")

	_, cleanup, err := fileutil.WriteTempFile("content", "md")
	if cleanup != nil {
		defer cleanup()
	}
	if err == nil {
		t.Fatal("WriteTempFile() expected error when TMPDIR is invalid, got nil")
	}
	if !strings.Contains(err.Error(), "creating temp file") {
		t.Errorf("WriteTempFile() error = %q, want error containing 'creating temp file'", err.Error())
	}
}

// ---------------------------------------------------------------------------
// TestTempPath - Reserved output paths
// ---------------------------------------------------------------------------

func TestTempPath(t *testing.T) {
	t.Parallel()

	first, cleanup1, err := fileutil.TempPath("svg")
	if err != nil {
		t.Fatalf("TempPath() error = %v", err)
	}
	defer cleanup1()
	second, cleanup2, err := fileutil.TempPath("svg")
	if err != nil {
		t.Fatalf("TempPath() error = %v", err)
	}
	defer cleanup2()

	if first == second {
		t.Errorf("TempPath() returned the same path twice: %s", first)
	}
	if !strings.HasSuffix(first, ".svg") {
		t.Errorf("TempPath() = %q, want .svg suffix", first)
	}
	if fileutil.FileExists(first) {
		t.Errorf("TempPath() must not create the file")
	}

	if err := os.WriteFile(first, []byte("<svg/>"), 0o600); err != nil {
		t.Fatalf("writing reserved path: %v", err)
	}
	cleanup1()
	if fileutil.FileExists(first) {
		t.Error("cleanup did not remove the written file")
	}
}

func TestTempPath_InvalidExtension(t *testing.T) {
	t.Parallel()

	if _, _, err := fileutil.TempPath(""); !errors.Is(err, fileutil.ErrExtensionEmpty) {
		t.Errorf("TempPath(\"\") error = %v, want %v", err, fileutil.ErrExtensionEmpty)
	}
}

// ---------------------------------------------------------------------------
// TestReadWithRetry - Reads tolerate editors rewriting the file
// ---------------------------------------------------------------------------

func TestReadWithRetry(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "doc.md")
	if err := os.WriteFile(path, []byte("# Title"), 0o600); err != nil {
		t.Fatal(err)
	}

	data, err := fileutil.ReadWithRetry(context.Background(), path, 3, time.Millisecond)
	if err != nil {
		t.Fatalf("ReadWithRetry() error = %v", err)
	}
	if string(data) != "# Title" {
		t.Errorf("ReadWithRetry() = %q, want %q", data, "# Title")
	}
}

func TestReadWithRetry_FileAppearsLate(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "late.md")
	go func() {
		time.Sleep(20 * time.Millisecond)
		_ = os.WriteFile(path, []byte("late"), 0o600)
	}()

	data, err := fileutil.ReadWithRetry(context.Background(), path, 50, 10*time.Millisecond)
	if err != nil {
		t.Fatalf("ReadWithRetry() error = %v", err)
	}
	if string(data) != "late" {
		t.Errorf("ReadWithRetry() = %q, want %q", data, "late")
	}
}

func TestReadWithRetry_GivesUp(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "missing.md")
	_, err := fileutil.ReadWithRetry(context.Background(), path, 3, time.Millisecond)
	if !errors.Is(err, fileutil.ErrReadAttempts) {
		t.Errorf("ReadWithRetry() error = %v, want %v", err, fileutil.ErrReadAttempts)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("ReadWithRetry() error = %v, want wrapped os.ErrNotExist", err)
	}
}

func TestReadWithRetry_ContextCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	path := filepath.Join(t.TempDir(), "missing.md")
	_, err := fileutil.ReadWithRetry(ctx, path, 5, time.Hour)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("ReadWithRetry() error = %v, want %v", err, context.Canceled)
	}
}

// ---------------------------------------------------------------------------
// TestFileExists - File existence check
// ---------------------------------------------------------------------------

func TestFileExists(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	testFile := filepath.Join(tempDir, "test.txt")
	if err := os.WriteFile(testFile, []byte("content"), 0o644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}
	testDir := filepath.Join(tempDir, "testdir")
	if err := os.Mkdir(testDir, 0o755); err != nil {
		t.Fatalf("failed to create test dir: %v", err)
	}

	tests := []struct {
		name string
		path string
		want bool
	}{
		{"existing file returns true", testFile, true},
		{"directory returns false", testDir, false},
		{"nonexistent path returns false", filepath.Join(tempDir, "nonexistent"), false},
		{"empty path returns false", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := fileutil.FileExists(tt.path); got != tt.want {
				t.Errorf("FileExists(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestIsFilePath / TestIsCSS - Style argument classification
// ---------------------------------------------------------------------------

func TestIsFilePath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  bool
	}{
		{"default", false},
		{"./custom.css", true},
		{"../shared/style.css", true},
		{"/absolute/path.css", true},
		{"C:\\windows\\path.css", true},
		{"my-style", false},
		{"", false},
		{"name.with.dots", false},
	}

	for _, tt := range tests {
		if got := fileutil.IsFilePath(tt.input); got != tt.want {
			t.Errorf("IsFilePath(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestIsCSS(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  bool
	}{
		{"body { color: red; }", true},
		{"default", false},
		{"./style.css", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := fileutil.IsCSS(tt.input); got != tt.want {
			t.Errorf("IsCSS(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestBaseName(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"/docs/notes.md":  "notes",
		"report.final.md": "report.final",
		"README":          "README",
	}
	for in, want := range tests {
		if got := fileutil.BaseName(in); got != want {
			t.Errorf("BaseName(%q) = %q, want %q", in, got, want)
		}
	}
}
