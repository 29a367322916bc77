package fundingrequests

import (
	"net/http"
	"strings"

	"github.com/dalemusser/fundingdesk/internal/app/store/audit"
	"github.com/dalemusser/fundingdesk/internal/app/system/apperr"
	"github.com/dalemusser/fundingdesk/internal/domain/models"
)

// HandleUpdate handles PATCH /api/funding-requests/{id}.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	l, ok := h.load(w, r, actionEdit)
	if !ok {
		return
	}

	var in recordInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	changed, err := in.apply(l.rec)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if len(changed) > 0 {
		if err := h.save(r.Context(), l.rec); err != nil {
			h.fail(w, r, err)
			return
		}
		h.AuditLog.RecordEvent(r.Context(), r, audit.EventRecordUpdated, l.actor.ID, l.rec.ID,
			map[string]string{"fields": strings.Join(changed, ",")})
	}

	writeJSON(w, http.StatusOK, recordResponse{FundingRequest: l.rec, Permissions: l.perms})
}

type statusInput struct {
	Status string `json:"status"`
}

// HandleStatus handles PUT /api/funding-requests/{id}/status (admin only).
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	l, ok := h.load(w, r, actionView)
	if !ok {
		return
	}
	if !l.actor.IsAdmin() {
		h.fail(w, r, apperr.New(apperr.Forbidden, "Only staff may change a request's status."))
		return
	}

	var in statusInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	if !models.IsValidFundingStatus(in.Status) {
		h.fail(w, r, apperr.New(apperr.BadRequest,
			"status must be one of "+strings.Join(models.FundingStatuses, ", ")+"."))
		return
	}

	from := l.rec.Status
	l.rec.Status = in.Status
	if err := h.save(r.Context(), l.rec); err != nil {
		h.fail(w, r, err)
		return
	}
	h.AuditLog.RecordEvent(r.Context(), r, audit.EventRecordStatusChanged, l.actor.ID, l.rec.ID,
		map[string]string{"from": from, "to": in.Status})

	writeJSON(w, http.StatusOK, recordResponse{FundingRequest: l.rec, Permissions: l.perms})
}
