package fundingrequests

import (
	"errors"
	"net/http"

	"github.com/dalemusser/fundingdesk/internal/app/store/audit"
	fundingrequeststore "github.com/dalemusser/fundingdesk/internal/app/store/fundingrequests"
	"github.com/dalemusser/fundingdesk/internal/app/system/apperr"
	"github.com/dalemusser/fundingdesk/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// HandleDelete handles DELETE /api/funding-requests/{id}. The document is
// removed first; attached files are unlinked best-effort only after that
// succeeds.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	l, ok := h.load(w, r, actionDelete)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "delete funding request")
	defer cancel()

	if err := h.Records.DeleteOne(ctx, l.rec.ID); err != nil {
		if errors.Is(err, fundingrequeststore.ErrNotFound) {
			h.fail(w, r, apperr.New(apperr.NotFound, "Funding request not found."))
			return
		}
		h.fail(w, r, apperr.Wrap(apperr.Internal, "delete funding request", err))
		return
	}

	h.Attachments.RemoveAll(l.rec)

	h.Log.Info("funding request deleted",
		zap.String("request_id", l.rec.ID.Hex()),
		zap.String("actor_id", l.actor.ID.Hex()))
	h.AuditLog.RecordEvent(r.Context(), r, audit.EventRecordDeleted, l.actor.ID, l.rec.ID, nil)

	w.WriteHeader(http.StatusNoContent)
}
