package fundingrequests

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime/multipart"
	"net/http"
	"os"
	"strings"

	"github.com/dalemusser/fundingdesk/internal/app/system/apperr"
	"github.com/dalemusser/fundingdesk/internal/app/system/attachments"
	"github.com/dalemusser/fundingdesk/internal/app/system/metrics"
	"github.com/dalemusser/fundingdesk/internal/app/system/timeouts"
	"github.com/dalemusser/fundingdesk/internal/domain/models"
	"go.uber.org/zap"
)

// uploadFraming is the allowance for multipart boundaries and part headers
// on top of the file bytes an upload may carry.
const uploadFraming = 1 << 20

// HandleUpload handles POST /api/funding-requests/{id}/attachments.
// Files arrive in the multipart fields "assignment" and "other". Either
// every file is stored and referenced, or none is.
//
// Parts are read one at a time, and the first part that cannot be
// accepted ends the request before the rest of the body is read.
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	l, ok := h.load(w, r, actionEdit)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.uploadLimit(l.rec))
	mr, err := r.MultipartReader()
	if err != nil {
		h.fail(w, r, multipartError(err))
		return
	}

	sp := &spool{}
	defer sp.cleanup(h.Log)
	batches, err := h.readBatches(mr, l.rec, sp)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Upload(), h.Log, "attachment upload")
	defer cancel()

	added, err := h.Attachments.AppendAll(l.rec, batches)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := ctx.Err(); err != nil {
		h.discardAdded(added)
		h.fail(w, r, apperr.Wrap(apperr.Internal, "attachment upload", err))
		return
	}

	if err := h.save(ctx, l.rec); err != nil {
		h.discardAdded(added)
		h.fail(w, r, err)
		return
	}

	resp := newAttachmentsResponse(l.rec)
	resp.Added = make(map[string][]string, len(added))
	for kind, refs := range added {
		resp.Added[string(kind)] = refs
		metrics.AttachmentsAdded(string(kind), len(refs))
		for _, ref := range refs {
			h.AuditLog.AttachmentAdded(r.Context(), r, l.actor.ID, l.rec.ID, string(kind), ref)
		}
	}
	h.Log.Info("attachments added",
		zap.String("request_id", l.rec.ID.Hex()),
		zap.Int("assignment", len(added[attachments.Assignment])),
		zap.Int("other", len(added[attachments.Other])))

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) discardAdded(added map[attachments.Kind][]string) {
	for _, refs := range added {
		h.Attachments.Discard(refs)
	}
}

// uploadLimit bounds the request body by the slots rec has left.
func (h *Handler) uploadLimit(rec *models.FundingRequest) int64 {
	slots := 0
	for _, kind := range []attachments.Kind{attachments.Assignment, attachments.Other} {
		if free := kind.Max() - attachments.Of(rec, kind).Len(); free > 0 {
			slots += free
		}
	}
	return int64(slots)*h.MaxFileBytes + uploadFraming
}

// readBatches streams the file parts of mr into sp, grouped by kind.
// A file field that is not an attachment kind is rejected rather than
// ignored. Non-file fields are skipped.
func (h *Handler) readBatches(mr *multipart.Reader, rec *models.FundingRequest, sp *spool) ([]attachments.Batch, error) {
	byKind := make(map[attachments.Kind][]attachments.Upload, 2)
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, multipartError(err)
		}
		if part.FileName() == "" {
			part.Close()
			continue
		}

		kind := attachments.Kind(part.FormName())
		if kind != attachments.Assignment && kind != attachments.Other {
			part.Close()
			return nil, apperr.New(apperr.InvalidKind, "Attachment kind must be 'assignment' or 'other'.")
		}
		if err := attachments.Of(rec, kind).CanAppend(len(byKind[kind]) + 1); err != nil {
			part.Close()
			return nil, err
		}

		u, err := sp.take(part, h.MaxFileBytes)
		part.Close()
		if err != nil {
			return nil, err
		}
		byKind[kind] = append(byKind[kind], u)
	}

	var batches []attachments.Batch
	for _, kind := range []attachments.Kind{attachments.Assignment, attachments.Other} {
		if uploads := byKind[kind]; len(uploads) > 0 {
			batches = append(batches, attachments.Batch{Kind: kind, Uploads: uploads})
		}
	}
	if len(batches) == 0 {
		return nil, apperr.New(apperr.BadRequest, "No files were uploaded.")
	}
	return batches, nil
}

// spool holds uploaded parts in temporary files until they are stored.
type spool struct {
	paths []string
}

// take copies one part to a temporary file, failing once it passes limit
// bytes.
func (sp *spool) take(part *multipart.Part, limit int64) (attachments.Upload, error) {
	f, err := os.CreateTemp("", "fundingdesk-upload-*")
	if err != nil {
		return attachments.Upload{}, apperr.Wrap(apperr.Internal, "attachment upload", err)
	}
	path := f.Name()
	sp.paths = append(sp.paths, path)

	n, err := io.CopyN(f, part, limit+1)
	cerr := f.Close()
	if err != nil && err != io.EOF {
		return attachments.Upload{}, multipartError(err)
	}
	if cerr != nil {
		return attachments.Upload{}, apperr.Wrap(apperr.Internal, "attachment upload", cerr)
	}
	if n > limit {
		return attachments.Upload{}, apperr.New(apperr.PayloadTooLarge,
			fmt.Sprintf("File %q exceeds the %d byte upload limit.", part.FileName(), limit))
	}

	return attachments.Upload{
		Name: part.FileName(),
		Size: n,
		Open: func() (io.ReadCloser, error) { return os.Open(path) },
	}, nil
}

func (sp *spool) cleanup(logger *zap.Logger) {
	for _, path := range sp.paths {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) && logger != nil {
			logger.Warn("upload spool cleanup failed", zap.String("path", path), zap.Error(err))
		}
	}
}

func multipartError(err error) error {
	var tooBig *http.MaxBytesError
	if errors.As(err, &tooBig) || strings.Contains(err.Error(), "request body too large") {
		return apperr.Wrap(apperr.PayloadTooLarge, "Upload is too large.", err)
	}
	return apperr.Wrap(apperr.BadRequest, "Upload must be a multipart form.", err)
}
