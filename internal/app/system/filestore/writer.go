package filestore

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/dalemusser/fundingdesk/internal/app/system/apperr"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MaxUploadBytes is the per-file upload ceiling (500 MiB).
const MaxUploadBytes int64 = 500 << 20

// Writer streams uploads into date partitions below Root.
type Writer struct {
	Root     string
	MaxBytes int64

	// Now and NewID are swappable for tests.
	Now   func() time.Time
	NewID func() string

	Log *zap.Logger
}

// NewWriter constructs a Writer with the standard ceiling.
func NewWriter(root string, logger *zap.Logger) *Writer {
	return &Writer{
		Root:     root,
		MaxBytes: MaxUploadBytes,
		Now:      time.Now,
		NewID:    uuid.NewString,
		Log:      logger,
	}
}

// CheckDeclaredSize validates a declared upload size against the ceiling
// without touching the filesystem.
func (w *Writer) CheckDeclaredSize(size int64) error {
	if size <= 0 {
		return apperr.New(apperr.InvalidUpload, "File is empty.")
	}
	if size > w.limit() {
		return apperr.New(apperr.PayloadTooLarge, fmt.Sprintf("File exceeds the %d MiB limit.", w.limit()>>20))
	}
	return nil
}

// Write persists src and returns its stored reference (YYYY/MM/<id>.<ext>).
//
// The ceiling is enforced against the bytes actually read, not only the
// declared size: once more than MaxBytes arrive the partial file is removed
// and PayloadTooLarge is returned. The file becomes visible under its final
// name only after a complete, synced write.
func (w *Writer) Write(src io.Reader, declaredName string, declaredSize int64) (string, error) {
	if err := w.CheckDeclaredSize(declaredSize); err != nil {
		return "", err
	}

	now := time.Now
	if w.Now != nil {
		now = w.Now
	}
	newID := uuid.NewString
	if w.NewID != nil {
		newID = w.NewID
	}

	t := now().UTC()
	partition := path.Join(fmt.Sprintf("%04d", t.Year()), fmt.Sprintf("%02d", int(t.Month())))
	ref := path.Join(partition, newID()+"."+SafeExt(declaredName))

	dir := filepath.Join(w.Root, filepath.FromSlash(partition))
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", apperr.Wrap(apperr.Internal, "could not create upload directory", err)
	}

	final := filepath.Join(w.Root, filepath.FromSlash(ref))
	tmp := final + ".part"

	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return "", apperr.Wrap(apperr.Internal, "could not create upload file", err)
	}

	limit := w.limit()
	n, err := io.Copy(f, io.LimitReader(src, limit+1))
	if err != nil {
		f.Close()
		os.Remove(tmp)
		return "", apperr.Wrap(apperr.Internal, "could not write upload", err)
	}
	if n > limit {
		f.Close()
		os.Remove(tmp)
		if w.Log != nil {
			w.Log.Warn("upload exceeded size ceiling mid-stream",
				zap.String("declared_name", declaredName),
				zap.Int64("declared_size", declaredSize),
				zap.Int64("limit", limit))
		}
		return "", apperr.New(apperr.PayloadTooLarge, fmt.Sprintf("File exceeds the %d MiB limit.", limit>>20))
	}

	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return "", apperr.Wrap(apperr.Internal, "could not sync upload", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return "", apperr.Wrap(apperr.Internal, "could not close upload", err)
	}
	if err := os.Rename(tmp, final); err != nil {
		os.Remove(tmp)
		return "", apperr.Wrap(apperr.Internal, "could not finalize upload", err)
	}

	return ref, nil
}

func (w *Writer) limit() int64 {
	if w.MaxBytes > 0 {
		return w.MaxBytes
	}
	return MaxUploadBytes
}
