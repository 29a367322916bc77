package fundingrequests

import (
	"net/http"

	"github.com/dalemusser/fundingdesk/internal/app/policy/fundingpolicy"
	"github.com/dalemusser/fundingdesk/internal/app/store/audit"
	"github.com/dalemusser/fundingdesk/internal/app/system/apperr"
	"github.com/dalemusser/fundingdesk/internal/app/system/attachments"
	"github.com/dalemusser/fundingdesk/internal/app/system/timeouts"
	"github.com/dalemusser/fundingdesk/internal/domain/models"
	"go.uber.org/zap"
)

// HandleCreate handles POST /api/funding-requests. The new request is
// Submitted, owned by the caller and linked to the caller's organization.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	a, ok := h.actor(w, r)
	if !ok {
		return
	}

	var in recordInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.fail(w, r, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "create funding request")
	defer cancel()

	owner := a.ID
	rec := models.FundingRequest{
		OwnerID: &owner,
		Status:  models.StatusSubmitted,
	}
	if _, err := in.apply(&rec); err != nil {
		h.fail(w, r, err)
		return
	}

	if h.Linkage != nil {
		link, err := h.Linkage.FindOrgLinkage(ctx, a.ID)
		if err != nil {
			h.fail(w, r, apperr.Wrap(apperr.Internal, "look up organization", err))
			return
		}
		rec.FhCemID = link.FhCemID
		rec.FhName = link.FhName
	}
	attachments.Reconcile(&rec)

	created, err := h.Records.Create(ctx, rec)
	if err != nil {
		h.fail(w, r, apperr.Wrap(apperr.Internal, "create funding request", err))
		return
	}

	h.Log.Info("funding request created",
		zap.String("request_id", created.ID.Hex()),
		zap.String("actor_id", a.ID.Hex()))
	h.AuditLog.RecordEvent(r.Context(), r, audit.EventRecordCreated, a.ID, created.ID, nil)

	writeJSON(w, http.StatusCreated, recordResponse{
		FundingRequest: &created,
		Permissions:    fundingpolicy.Decide(a, false, &created),
	})
}
