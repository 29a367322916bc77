package fundingrequests

import (
	"net/http"

	"github.com/dalemusser/fundingdesk/internal/app/system/attachments"
	"github.com/dalemusser/fundingdesk/internal/app/system/metrics"
	"github.com/go-chi/chi/v5"
)

// HandleDeleteAttachment handles
// DELETE /api/funding-requests/{id}/attachments/{kind}/{index}.
func (h *Handler) HandleDeleteAttachment(w http.ResponseWriter, r *http.Request) {
	l, ok := h.load(w, r, actionDeleteAttachment)
	if !ok {
		return
	}

	kind, err := attachments.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	index, err := attachments.ParseIndex(chi.URLParam(r, "index"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	ref, err := h.Attachments.Remove(l.rec, kind, index)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.save(r.Context(), l.rec); err != nil {
		h.fail(w, r, err)
		return
	}
	h.AuditLog.AttachmentDeleted(r.Context(), r, l.actor.ID, l.rec.ID, string(kind), ref)
	metrics.AttachmentRemoved(string(kind))

	resp := newAttachmentsResponse(l.rec)
	resp.Removed = ref
	writeJSON(w, http.StatusOK, resp)
}
