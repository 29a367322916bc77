package filestore

import (
	"io"
	"os"
	"path/filepath"

	"github.com/dalemusser/fundingdesk/internal/app/system/apperr"
	"go.uber.org/zap"
)

// Store bundles the resolver and writer behind the operations the
// attachment code needs.
type Store struct {
	Resolver *Resolver
	Writer   *Writer
	Log      *zap.Logger
}

// New constructs a Store writing below primaryRoot and reading from
// primaryRoot then legacyRoot.
func New(primaryRoot, legacyRoot string, logger *zap.Logger) *Store {
	return &Store{
		Resolver: NewResolver(primaryRoot, legacyRoot, logger),
		Writer:   NewWriter(primaryRoot, logger),
		Log:      logger,
	}
}

// Download is an opened stored document ready to stream.
// The caller must Close File.
type Download struct {
	File        *os.File
	Size        int64
	Name        string
	ContentType string
}

// Save writes an upload and returns its stored reference.
func (s *Store) Save(src io.Reader, declaredName string, declaredSize int64) (string, error) {
	return s.Writer.Write(src, declaredName, declaredSize)
}

// CheckDeclaredSize validates a declared size before any file is written.
func (s *Store) CheckDeclaredSize(size int64) error {
	return s.Writer.CheckDeclaredSize(size)
}

// Open resolves ref and opens it for streaming.
func (s *Store) Open(ref string) (*Download, error) {
	p, err := s.Resolver.Resolve(ref)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperr.Wrap(apperr.IntegrityFault, "stored document vanished before open", err)
		}
		return nil, apperr.Wrap(apperr.Internal, "could not open stored document", err)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, apperr.Wrap(apperr.Internal, "could not stat stored document", err)
	}
	name := filepath.Base(p)
	return &Download{
		File:        f,
		Size:        fi.Size(),
		Name:        name,
		ContentType: ContentType(name),
	}, nil
}

// Remove unlinks the file behind ref. It is best-effort: a reference that
// no longer resolves, or an unlink that fails, is logged and reported as
// false but never returned as an error.
func (s *Store) Remove(ref string) bool {
	p, err := s.Resolver.Resolve(ref)
	if err != nil {
		return false
	}
	if err := os.Remove(p); err != nil {
		if s.Log != nil {
			s.Log.Warn("failed to unlink stored document",
				zap.String("ref", ref),
				zap.Error(err))
		}
		return false
	}
	return true
}
