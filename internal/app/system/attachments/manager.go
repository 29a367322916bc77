package attachments

import (
	"io"

	"github.com/dalemusser/fundingdesk/internal/app/system/apperr"
	"github.com/dalemusser/fundingdesk/internal/domain/models"
	"go.uber.org/zap"
)

// Files is the document storage the Manager writes to and unlinks from.
// *filestore.Store satisfies it.
type Files interface {
	CheckDeclaredSize(size int64) error
	Save(src io.Reader, declaredName string, declaredSize int64) (string, error)
	Remove(ref string) bool
}

// Upload is one incoming file of a batched append.
type Upload struct {
	Name string
	Size int64
	Open func() (io.ReadCloser, error)
}

// Manager performs attachment mutations that touch both the filesystem
// and a record's reference arrays. It does not persist the record.
type Manager struct {
	Files Files
	Log   *zap.Logger
}

// NewManager constructs a Manager over files.
func NewManager(files Files, logger *zap.Logger) *Manager {
	return &Manager{Files: files, Log: logger}
}

// Append stores uploads and appends their references to the kind
// collection of rec, returning the new references.
//
// The count limit and every declared size are checked before any file is
// written. Files are written one at a time; if one fails, the files
// already written by this call are removed and rec is left unchanged.
func (m *Manager) Append(rec *models.FundingRequest, kind Kind, uploads []Upload) ([]string, error) {
	set := Of(rec, kind)
	if len(uploads) == 0 {
		return []string{}, nil
	}
	if err := set.CanAppend(len(uploads)); err != nil {
		return nil, err
	}
	for _, u := range uploads {
		if err := m.Files.CheckDeclaredSize(u.Size); err != nil {
			return nil, err
		}
	}

	written := make([]string, 0, len(uploads))
	for _, u := range uploads {
		ref, err := m.save(u)
		if err != nil {
			m.discard(written)
			if m.Log != nil {
				m.Log.Warn("attachment upload failed",
					zap.String("request_id", rec.ID.Hex()),
					zap.String("kind", string(kind)),
					zap.String("declared_name", u.Name),
					zap.Error(err))
			}
			return nil, err
		}
		written = append(written, ref)
	}

	if err := set.Append(written...); err != nil {
		m.discard(written)
		return nil, err
	}
	return written, nil
}

// Batch is the uploads destined for one kind collection.
type Batch struct {
	Kind    Kind
	Uploads []Upload
}

// AppendAll applies several batches as one unit: every batch is validated
// before any file is written, and a failure in a later batch removes the
// files of earlier ones and restores rec. The returned map holds the new
// references per kind.
func (m *Manager) AppendAll(rec *models.FundingRequest, batches []Batch) (map[Kind][]string, error) {
	for _, b := range batches {
		if err := Of(rec, b.Kind).CanAppend(len(b.Uploads)); err != nil {
			return nil, err
		}
		for _, u := range b.Uploads {
			if err := m.Files.CheckDeclaredSize(u.Size); err != nil {
				return nil, err
			}
		}
	}

	before := snapshot(rec)
	added := make(map[Kind][]string, len(batches))
	for _, b := range batches {
		refs, err := m.Append(rec, b.Kind, b.Uploads)
		if err != nil {
			for _, done := range added {
				m.discard(done)
			}
			before.restore(rec)
			return nil, err
		}
		added[b.Kind] = append(added[b.Kind], refs...)
	}
	return added, nil
}

// Discard unlinks refs on a best-effort basis. Used when a record save
// fails after files were already written.
func (m *Manager) Discard(refs []string) {
	m.discard(refs)
}

type attachmentState struct {
	legacy      string
	assignments []string
	others      []string
}

func snapshot(rec *models.FundingRequest) attachmentState {
	return attachmentState{
		legacy:      rec.AssignmentUploadPath,
		assignments: rec.AssignmentUploadPaths,
		others:      rec.OtherUploadPaths,
	}
}

func (s attachmentState) restore(rec *models.FundingRequest) {
	rec.AssignmentUploadPath = s.legacy
	rec.AssignmentUploadPaths = s.assignments
	rec.OtherUploadPaths = s.others
}

func (m *Manager) save(u Upload) (string, error) {
	if u.Open == nil {
		return "", apperr.New(apperr.InvalidUpload, "File could not be read.")
	}
	src, err := u.Open()
	if err != nil {
		return "", apperr.Wrap(apperr.InvalidUpload, "File could not be read.", err)
	}
	defer src.Close()
	return m.Files.Save(src, u.Name, u.Size)
}

func (m *Manager) discard(refs []string) {
	for _, ref := range refs {
		m.Files.Remove(ref)
	}
}

// Remove deletes the document at index from the kind collection of rec.
// The backing file is unlinked first on a best-effort basis; a file that
// is already gone never blocks removing the stale reference.
func (m *Manager) Remove(rec *models.FundingRequest, kind Kind, index int) (string, error) {
	set := Of(rec, kind)
	ref, err := set.At(index)
	if err != nil {
		return "", err
	}

	if !m.Files.Remove(ref) && m.Log != nil {
		m.Log.Info("attachment file not unlinked; removing reference anyway",
			zap.String("request_id", rec.ID.Hex()),
			zap.String("kind", string(kind)),
			zap.String("ref", ref))
	}

	return set.Remove(index)
}

// RemoveAll unlinks every document of rec on a best-effort basis. Used
// when the whole record is deleted.
func (m *Manager) RemoveAll(rec *models.FundingRequest) {
	for _, kind := range []Kind{Assignment, Other} {
		m.discard(Of(rec, kind).Docs())
	}
}
