package filestore

import (
	"bytes"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/fundingdesk/internal/app/system/apperr"
	"go.uber.org/zap"
)

func newTestWriter(t *testing.T, root string) *Writer {
	t.Helper()
	w := NewWriter(root, zap.NewNop())
	w.Now = func() time.Time { return time.Date(2024, time.March, 7, 12, 0, 0, 0, time.UTC) }
	return w
}

// countFiles returns the number of regular files below root.
func countFiles(t *testing.T, root string) int {
	t.Helper()
	n := 0
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			n++
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walk failed: %v", err)
	}
	return n
}

func TestSafeExt(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"scan.PDF", "pdf"},
		{"photo.jpeg", "jpeg"},
		{"photo.JPG", "jpg"},
		{"archive.tar.gz", "bin"},
		{"contract.docx", "docx"},
		{"evil.pdf.exe", "bin"},
		{"noext", "bin"},
		{"", "bin"},
		{"../../etc/passwd", "bin"},
		{"notes.txt ", "txt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SafeExt(tt.name); got != tt.want {
				t.Errorf("SafeExt(%q) = %q, want %q", tt.name, got, tt.want)
			}
		})
	}
}

func TestContentType(t *testing.T) {
	tests := map[string]string{
		"a.pdf":  "application/pdf",
		"a.PNG":  "image/png",
		"a.tiff": "image/tiff",
		"a.bin":  "application/octet-stream",
		"a":      "application/octet-stream",
	}
	for name, want := range tests {
		if got := ContentType(name); got != want {
			t.Errorf("ContentType(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestWrite_RoundTrip(t *testing.T) {
	primary := t.TempDir()
	legacy := t.TempDir()
	w := newTestWriter(t, primary)

	content := []byte("%PDF-1.4 assignment of benefits")
	ref, err := w.Write(bytes.NewReader(content), "Assignment.pdf", int64(len(content)))
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	pattern := regexp.MustCompile(`^2024/03/[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}\.pdf$`)
	if !pattern.MatchString(ref) {
		t.Errorf("unexpected reference format %q", ref)
	}

	p, err := NewResolver(primary, legacy, zap.NewNop()).Resolve(ref)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	got, err := os.ReadFile(p)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Errorf("content mismatch: got %q, want %q", got, content)
	}
	if countFiles(t, primary) != 1 {
		t.Errorf("expected exactly one file on disk (no leftover .part)")
	}
}

func TestWrite_UniqueNames(t *testing.T) {
	w := newTestWriter(t, t.TempDir())

	a, err := w.Write(strings.NewReader("one"), "a.txt", 3)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	b, err := w.Write(strings.NewReader("two"), "a.txt", 3)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if a == b {
		t.Errorf("expected distinct references, both were %q", a)
	}
}

func TestWrite_UnknownExtensionGetsGeneric(t *testing.T) {
	w := newTestWriter(t, t.TempDir())

	ref, err := w.Write(strings.NewReader("MZ"), "setup.exe", 2)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if !strings.HasSuffix(ref, ".bin") {
		t.Errorf("expected .bin extension, got %q", ref)
	}
}

func TestWrite_DeclaredSizeRejected(t *testing.T) {
	root := t.TempDir()
	w := newTestWriter(t, root)

	if _, err := w.Write(strings.NewReader(""), "a.pdf", 0); !apperr.IsKind(err, apperr.InvalidUpload) {
		t.Errorf("zero size: expected InvalidUpload, got %v", err)
	}
	if _, err := w.Write(strings.NewReader("x"), "a.pdf", MaxUploadBytes+1); !apperr.IsKind(err, apperr.PayloadTooLarge) {
		t.Errorf("oversize: expected PayloadTooLarge, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "2024")); !os.IsNotExist(err) {
		t.Error("expected no partition directory to be created for rejected uploads")
	}
}

func TestWrite_SpoofedSizeAbortedMidStream(t *testing.T) {
	root := t.TempDir()
	w := newTestWriter(t, root)
	w.MaxBytes = 1024

	src := io.LimitReader(zeroReader{}, w.MaxBytes+1)
	_, err := w.Write(src, "small.pdf", 10)
	if !apperr.IsKind(err, apperr.PayloadTooLarge) {
		t.Fatalf("expected PayloadTooLarge, got %v", err)
	}
	if n := countFiles(t, root); n != 0 {
		t.Errorf("expected no files left on disk, found %d", n)
	}
}

func TestWrite_ExactlyAtCeiling(t *testing.T) {
	w := newTestWriter(t, t.TempDir())
	w.MaxBytes = 1024

	if _, err := w.Write(io.LimitReader(zeroReader{}, 1024), "full.pdf", 1024); err != nil {
		t.Errorf("expected write at the ceiling to succeed, got %v", err)
	}
}

func TestWrite_SpoofedSizeFullCeiling(t *testing.T) {
	if testing.Short() {
		t.Skip("writes 500 MiB to disk")
	}
	root := t.TempDir()
	w := newTestWriter(t, root)

	src := io.LimitReader(zeroReader{}, MaxUploadBytes+1)
	_, err := w.Write(src, "small.pdf", 10)
	if !apperr.IsKind(err, apperr.PayloadTooLarge) {
		t.Fatalf("expected PayloadTooLarge, got %v", err)
	}
	if n := countFiles(t, root); n != 0 {
		t.Errorf("expected no files left on disk, found %d", n)
	}
}

type zeroReader struct{}

func (zeroReader) Read(p []byte) (int, error) {
	clear(p)
	return len(p), nil
}
