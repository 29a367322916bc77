// Package filestore keeps uploaded funding-request documents on local disk.
//
// Documents live outside the database under a date-partitioned layout
// (YYYY/MM/<uuid>.<ext>) below a primary upload root. A second, legacy
// root is still consulted on reads because the upload directory was moved
// once and older records point at files that never migrated.
//
// Every path handed to the OS is checked to stay lexically inside one of
// the two roots; stored references containing "../" or absolute paths can
// never reach anything outside them.
package filestore

import (
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/dalemusser/fundingdesk/internal/app/system/apperr"
	"go.uber.org/zap"
)

// uploadsPrefix is stripped from stored references written by older
// releases that kept the public mount point in the value.
const uploadsPrefix = "uploads/"

// Normalize turns a stored reference into a clean, forward-slash relative
// path: trimmed, leading separators removed and a leading "uploads/"
// segment dropped (case-insensitive). It does not resolve "..".
func Normalize(ref string) string {
	s := strings.TrimSpace(ref)
	s = strings.ReplaceAll(s, `\`, "/")
	s = strings.TrimLeft(s, "/")
	if len(s) >= len(uploadsPrefix) && strings.EqualFold(s[:len(uploadsPrefix)], uploadsPrefix) {
		s = strings.TrimLeft(s[len(uploadsPrefix):], "/")
	}
	return s
}

// Within reports whether p is lexically inside root.
func Within(root, p string) bool {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return false
	}
	if filepath.IsAbs(rel) || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false
	}
	return true
}

// Candidates returns, in resolution order, the concrete paths a stored
// reference may live at:
//
//	primary/<ref>, primary/<basename>, legacy/<ref>, legacy/<basename>
//
// The basename variants cover records that stored an absolute path whose
// directory part went stale while the file name stayed valid. Candidates
// escaping both roots are dropped and duplicates keep their first slot.
// The function never touches the filesystem.
func Candidates(ref, primaryRoot, legacyRoot string) []string {
	rel := Normalize(ref)
	if rel == "" {
		return nil
	}
	base := path.Base(rel)

	roots := make([]string, 0, 2)
	for _, r := range []string{primaryRoot, legacyRoot} {
		if strings.TrimSpace(r) != "" {
			roots = append(roots, filepath.Clean(r))
		}
	}

	seen := make(map[string]struct{}, 4)
	out := make([]string, 0, 4)
	for _, root := range roots {
		for _, name := range []string{rel, base} {
			if name == "" || name == "." || name == "/" || name == ".." {
				continue
			}
			cand := filepath.Join(root, filepath.FromSlash(name))
			if !withinAny(cand, roots) {
				continue
			}
			if _, dup := seen[cand]; dup {
				continue
			}
			seen[cand] = struct{}{}
			out = append(out, cand)
		}
	}
	return out
}

func withinAny(p string, roots []string) bool {
	for _, root := range roots {
		if root != p && Within(root, p) {
			return true
		}
	}
	return false
}

// Resolver maps stored references to files inside the configured roots.
type Resolver struct {
	PrimaryRoot string
	LegacyRoot  string

	// Exists reports whether p is an existing regular file.
	// Defaults to an os.Stat check when nil.
	Exists func(p string) bool

	Log *zap.Logger
}

// NewResolver constructs a Resolver over the two roots.
func NewResolver(primaryRoot, legacyRoot string, logger *zap.Logger) *Resolver {
	return &Resolver{
		PrimaryRoot: primaryRoot,
		LegacyRoot:  legacyRoot,
		Exists:      isRegularFile,
		Log:         logger,
	}
}

// Resolve returns the first candidate for ref that exists as a regular
// file. When none does, it logs the attempted candidates and returns an
// IntegrityFault; callers render that as a plain not-found.
func (r *Resolver) Resolve(ref string) (string, error) {
	exists := r.Exists
	if exists == nil {
		exists = isRegularFile
	}

	cands := Candidates(ref, r.PrimaryRoot, r.LegacyRoot)
	for _, c := range cands {
		if exists(c) {
			return c, nil
		}
	}

	if r.Log != nil {
		r.Log.Warn("stored document did not resolve",
			zap.String("ref", ref),
			zap.Strings("candidates", cands))
	}
	return "", apperr.New(apperr.IntegrityFault, "stored document has no file in any upload root")
}

func isRegularFile(p string) bool {
	fi, err := os.Stat(p)
	return err == nil && fi.Mode().IsRegular()
}
