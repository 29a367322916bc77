package attachments_test

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/dalemusser/fundingdesk/internal/app/system/apperr"
	"github.com/dalemusser/fundingdesk/internal/app/system/attachments"
	"github.com/dalemusser/fundingdesk/internal/app/system/filestore"
	"github.com/dalemusser/fundingdesk/internal/domain/models"
	"go.uber.org/zap"
)

// fakeFiles is an in-memory attachments.Files.
type fakeFiles struct {
	saved    map[string]string
	removed  []string
	failOn   string // declared name whose Save fails
	unlinkOK bool
	n        int
}

func newFakeFiles() *fakeFiles {
	return &fakeFiles{saved: map[string]string{}, unlinkOK: true}
}

func (f *fakeFiles) CheckDeclaredSize(size int64) error {
	if size <= 0 {
		return apperr.New(apperr.InvalidUpload, "empty")
	}
	if size > filestore.MaxUploadBytes {
		return apperr.New(apperr.PayloadTooLarge, "too big")
	}
	return nil
}

func (f *fakeFiles) Save(src io.Reader, name string, size int64) (string, error) {
	if name == f.failOn {
		return "", apperr.Wrap(apperr.Internal, "disk full", errors.New("ENOSPC"))
	}
	b, err := io.ReadAll(src)
	if err != nil {
		return "", err
	}
	f.n++
	ref := fmt.Sprintf("2024/03/f%d.pdf", f.n)
	f.saved[ref] = string(b)
	return ref, nil
}

func (f *fakeFiles) Remove(ref string) bool {
	f.removed = append(f.removed, ref)
	if _, ok := f.saved[ref]; ok {
		delete(f.saved, ref)
		return true
	}
	return false
}

func upload(name, body string) attachments.Upload {
	return attachments.Upload{
		Name: name,
		Size: int64(len(body)),
		Open: func() (io.ReadCloser, error) { return io.NopCloser(strings.NewReader(body)), nil },
	}
}

func TestManagerAppend_WritesAndAppends(t *testing.T) {
	files := newFakeFiles()
	m := attachments.NewManager(files, zap.NewNop())
	rec := &models.FundingRequest{}

	got, err := m.Append(rec, attachments.Assignment, []attachments.Upload{upload("a.pdf", "A"), upload("b.pdf", "B")})
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if len(got) != 2 || len(files.saved) != 2 {
		t.Fatalf("expected 2 stored files, got refs=%v saved=%d", got, len(files.saved))
	}
	if !reflect.DeepEqual(rec.AssignmentUploadPaths, got) {
		t.Errorf("list: got %v, want %v", rec.AssignmentUploadPaths, got)
	}
	if rec.AssignmentUploadPath != got[0] {
		t.Errorf("legacy mirror: got %q, want %q", rec.AssignmentUploadPath, got[0])
	}
}

func TestManagerAppend_TooManyWritesNothing(t *testing.T) {
	files := newFakeFiles()
	m := attachments.NewManager(files, zap.NewNop())
	rec := &models.FundingRequest{AssignmentUploadPaths: refs(9), AssignmentUploadPath: refs(9)[0]}

	_, err := m.Append(rec, attachments.Assignment, []attachments.Upload{upload("a.pdf", "A"), upload("b.pdf", "B")})
	if !apperr.IsKind(err, apperr.TooManyAttachments) {
		t.Fatalf("expected TooManyAttachments, got %v", err)
	}
	if len(files.saved) != 0 {
		t.Errorf("expected no files written, got %d", len(files.saved))
	}
	if len(rec.AssignmentUploadPaths) != 9 {
		t.Errorf("list mutated: %v", rec.AssignmentUploadPaths)
	}
}

func TestManagerAppend_BadDeclaredSizeWritesNothing(t *testing.T) {
	files := newFakeFiles()
	m := attachments.NewManager(files, zap.NewNop())
	rec := &models.FundingRequest{}

	batch := []attachments.Upload{upload("a.pdf", "A"), {Name: "empty.pdf", Size: 0}}
	if _, err := m.Append(rec, attachments.Other, batch); !apperr.IsKind(err, apperr.InvalidUpload) {
		t.Fatalf("expected InvalidUpload, got %v", err)
	}
	if len(files.saved) != 0 || len(rec.OtherUploadPaths) != 0 {
		t.Error("expected nothing persisted for a rejected batch")
	}
}

func TestManagerAppend_FailureRollsBackBatch(t *testing.T) {
	files := newFakeFiles()
	files.failOn = "c.pdf"
	m := attachments.NewManager(files, zap.NewNop())
	rec := &models.FundingRequest{OtherUploadPaths: []string{"2023/01/keep.pdf"}}

	batch := []attachments.Upload{upload("a.pdf", "A"), upload("b.pdf", "B"), upload("c.pdf", "C")}
	if _, err := m.Append(rec, attachments.Other, batch); err == nil {
		t.Fatal("expected error")
	}
	if len(files.saved) != 0 {
		t.Errorf("expected written files to be discarded, %d remain", len(files.saved))
	}
	if !reflect.DeepEqual(rec.OtherUploadPaths, []string{"2023/01/keep.pdf"}) {
		t.Errorf("earlier attachments must remain: %v", rec.OtherUploadPaths)
	}
}

func TestManagerRemove_OtherIndexTwoPreservesOrder(t *testing.T) {
	files := newFakeFiles()
	files.saved["b"] = "B"
	m := attachments.NewManager(files, zap.NewNop())
	rec := &models.FundingRequest{OtherUploadPaths: []string{"a", "b", "c"}}

	ref, err := m.Remove(rec, attachments.Other, 2)
	if err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if ref != "c" {
		t.Errorf("removed: got %q, want %q", ref, "c")
	}
	if !reflect.DeepEqual(rec.OtherUploadPaths, []string{"a", "b"}) {
		t.Errorf("remaining: got %v", rec.OtherUploadPaths)
	}
	// "c" had no backing file; the unlink was still attempted.
	if !reflect.DeepEqual(files.removed, []string{"c"}) {
		t.Errorf("unlink attempts: got %v, want [c]", files.removed)
	}
}

func TestManagerRemove_OutOfRange(t *testing.T) {
	files := newFakeFiles()
	m := attachments.NewManager(files, zap.NewNop())
	rec := &models.FundingRequest{OtherUploadPaths: []string{"a"}}

	if _, err := m.Remove(rec, attachments.Other, 1); !apperr.IsKind(err, apperr.InvalidIndex) {
		t.Errorf("expected InvalidIndex, got %v", err)
	}
	if len(files.removed) != 0 {
		t.Error("no unlink should be attempted for an invalid index")
	}
}

func TestManager_WithFilestoreRoundTrip(t *testing.T) {
	primary := t.TempDir()
	store := filestore.New(primary, t.TempDir(), zap.NewNop())
	m := attachments.NewManager(store, zap.NewNop())
	rec := &models.FundingRequest{}

	got, err := m.Append(rec, attachments.Assignment, []attachments.Upload{upload("assignment.pdf", "%PDF-1.7")})
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	dl, err := store.Open(got[0])
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	b, _ := io.ReadAll(dl.File)
	dl.File.Close()
	if string(b) != "%PDF-1.7" {
		t.Errorf("content: got %q", b)
	}

	if _, err := m.Remove(rec, attachments.Assignment, 0); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(primary, filepath.FromSlash(got[0]))); !os.IsNotExist(err) {
		t.Error("expected backing file to be unlinked")
	}
	if rec.AssignmentUploadPath != "" || len(rec.AssignmentUploadPaths) != 0 {
		t.Error("expected both assignment fields cleared")
	}
}

func TestManagerAppendAll_BothKinds(t *testing.T) {
	files := newFakeFiles()
	m := attachments.NewManager(files, zap.NewNop())
	rec := &models.FundingRequest{}

	added, err := m.AppendAll(rec, []attachments.Batch{
		{Kind: attachments.Assignment, Uploads: []attachments.Upload{upload("a.pdf", "A")}},
		{Kind: attachments.Other, Uploads: []attachments.Upload{upload("o1.pdf", "1"), upload("o2.pdf", "2")}},
	})
	if err != nil {
		t.Fatalf("AppendAll failed: %v", err)
	}
	if len(added[attachments.Assignment]) != 1 || len(added[attachments.Other]) != 2 {
		t.Errorf("added: got %v", added)
	}
	if rec.AssignmentUploadPath != added[attachments.Assignment][0] {
		t.Errorf("mirror: got %q, want %q", rec.AssignmentUploadPath, added[attachments.Assignment][0])
	}
	if !reflect.DeepEqual(rec.OtherUploadPaths, added[attachments.Other]) {
		t.Errorf("other: got %v, want %v", rec.OtherUploadPaths, added[attachments.Other])
	}
}

func TestManagerAppendAll_LaterLimitWritesNothing(t *testing.T) {
	files := newFakeFiles()
	m := attachments.NewManager(files, zap.NewNop())
	rec := &models.FundingRequest{OtherUploadPaths: make([]string, attachments.MaxOther)}

	_, err := m.AppendAll(rec, []attachments.Batch{
		{Kind: attachments.Assignment, Uploads: []attachments.Upload{upload("a.pdf", "A")}},
		{Kind: attachments.Other, Uploads: []attachments.Upload{upload("o.pdf", "O")}},
	})
	if !apperr.IsKind(err, apperr.TooManyAttachments) {
		t.Fatalf("expected TooManyAttachments, got %v", err)
	}
	if files.n != 0 {
		t.Errorf("expected no writes, got %d", files.n)
	}
	if len(rec.AssignmentUploadPaths) != 0 || rec.AssignmentUploadPath != "" {
		t.Error("expected record untouched")
	}
}

func TestManagerAppendAll_LaterFailureRollsBackEarlierKind(t *testing.T) {
	files := newFakeFiles()
	files.failOn = "bad.pdf"
	m := attachments.NewManager(files, zap.NewNop())
	rec := &models.FundingRequest{
		AssignmentUploadPath:  "2023/01/old.pdf",
		AssignmentUploadPaths: []string{"2023/01/old.pdf"},
		OtherUploadPaths:      []string{},
	}

	_, err := m.AppendAll(rec, []attachments.Batch{
		{Kind: attachments.Assignment, Uploads: []attachments.Upload{upload("a.pdf", "A")}},
		{Kind: attachments.Other, Uploads: []attachments.Upload{upload("bad.pdf", "X")}},
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if len(files.saved) != 0 {
		t.Errorf("expected written files removed, still have %v", files.saved)
	}
	if !reflect.DeepEqual(rec.AssignmentUploadPaths, []string{"2023/01/old.pdf"}) {
		t.Errorf("assignment list: got %v", rec.AssignmentUploadPaths)
	}
	if rec.AssignmentUploadPath != "2023/01/old.pdf" {
		t.Errorf("mirror: got %q", rec.AssignmentUploadPath)
	}
}
