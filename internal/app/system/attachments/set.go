// Package attachments maintains the ordered document collections on a
// funding request: the primary "assignment" documents and the
// supplementary "other" documents.
//
// The assignment collection has two stored representations, the list
// field and a legacy single-value field from before multi-file uploads.
// The list is authoritative. The legacy field is a mirror of the list's
// first element, recomputed on every write through this package; a record
// that only has the legacy field set is read as a one-element list and
// migrated into the list on its first mutation.
package attachments

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dalemusser/fundingdesk/internal/app/system/apperr"
	"github.com/dalemusser/fundingdesk/internal/domain/models"
)

// Kind names one attachment collection.
type Kind string

const (
	Assignment Kind = "assignment"
	Other      Kind = "other"
)

// Per-record attachment limits.
const (
	MaxAssignment = 10
	MaxOther      = 50
)

// ParseKind validates an attachment kind from a URL or form value.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case Assignment:
		return Assignment, nil
	case Other:
		return Other, nil
	}
	return "", apperr.New(apperr.InvalidKind, "Attachment kind must be 'assignment' or 'other'.")
}

// Max returns the attachment limit for k, or 0 for an unknown kind.
func (k Kind) Max() int {
	switch k {
	case Assignment:
		return MaxAssignment
	case Other:
		return MaxOther
	}
	return 0
}

// ParseIndex parses a non-negative integer index.
func ParseIndex(s string) (int, error) {
	i, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || i < 0 {
		return 0, apperr.New(apperr.InvalidIndex, "Attachment index must be a non-negative integer.")
	}
	return i, nil
}

// Set is a view of one attachment collection on a record. All writes go
// through it so the legacy mirror never disagrees with the list.
type Set struct {
	rec  *models.FundingRequest
	kind Kind
}

// Of returns the kind collection of rec. It panics if kind is neither
// Assignment nor Other; kinds from user input go through ParseKind first.
func Of(rec *models.FundingRequest, kind Kind) Set {
	if kind != Assignment && kind != Other {
		panic(fmt.Sprintf("attachments: unknown kind %q", string(kind)))
	}
	return Set{rec: rec, kind: kind}
}

// Kind returns the collection's kind.
func (s Set) Kind() Kind { return s.kind }

// Docs returns a copy of the current document references in order.
func (s Set) Docs() []string {
	switch s.kind {
	case Other:
		return clone(s.rec.OtherUploadPaths)
	case Assignment:
	default:
		return []string{}
	}
	if len(s.rec.AssignmentUploadPaths) > 0 {
		return clone(s.rec.AssignmentUploadPaths)
	}
	if s.rec.AssignmentUploadPath != "" {
		return []string{s.rec.AssignmentUploadPath}
	}
	return []string{}
}

// Len returns the number of current documents.
func (s Set) Len() int {
	return len(s.Docs())
}

// At returns the reference at index i.
func (s Set) At(i int) (string, error) {
	docs := s.Docs()
	if i < 0 || i >= len(docs) {
		return "", apperr.New(apperr.InvalidIndex, fmt.Sprintf("No %s attachment at index %d.", s.kind, i))
	}
	return docs[i], nil
}

// CanAppend reports an error if adding n documents would exceed the limit.
func (s Set) CanAppend(n int) error {
	if s.Len()+n > s.kind.Max() {
		return apperr.New(apperr.TooManyAttachments,
			fmt.Sprintf("A request may have at most %d %s attachments.", s.kind.Max(), s.kind))
	}
	return nil
}

// Append adds refs to the end of the collection. The record is left
// untouched when the limit would be exceeded.
func (s Set) Append(refs ...string) error {
	if err := s.CanAppend(len(refs)); err != nil {
		return err
	}
	docs := s.Docs()
	docs = append(docs, refs...)
	s.store(docs)
	return nil
}

// Remove splices the reference at index i out of the collection and
// returns it.
func (s Set) Remove(i int) (string, error) {
	ref, err := s.At(i)
	if err != nil {
		return "", err
	}
	docs := s.Docs()
	docs = append(docs[:i], docs[i+1:]...)
	s.store(docs)
	return ref, nil
}

func (s Set) store(docs []string) {
	switch s.kind {
	case Other:
		s.rec.OtherUploadPaths = docs
		return
	case Assignment:
	default:
		return
	}
	s.rec.AssignmentUploadPaths = docs
	s.rec.AssignmentUploadPath = ""
	if len(docs) > 0 {
		s.rec.AssignmentUploadPath = docs[0]
	}
}

// Reconcile brings the legacy assignment field in line with the list:
// a legacy-only value is migrated into the list, then the legacy field is
// set to the list's first element or cleared when the list is empty.
func Reconcile(rec *models.FundingRequest) {
	if len(rec.AssignmentUploadPaths) == 0 && rec.AssignmentUploadPath != "" {
		rec.AssignmentUploadPaths = []string{rec.AssignmentUploadPath}
	}
	if rec.AssignmentUploadPaths == nil {
		rec.AssignmentUploadPaths = []string{}
	}
	if rec.OtherUploadPaths == nil {
		rec.OtherUploadPaths = []string{}
	}
	if len(rec.AssignmentUploadPaths) > 0 {
		rec.AssignmentUploadPath = rec.AssignmentUploadPaths[0]
	} else {
		rec.AssignmentUploadPath = ""
	}
}

func clone(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
