package fundingrequests

import "net/http"

// ServeRecord handles GET /api/funding-requests/{id}.
func (h *Handler) ServeRecord(w http.ResponseWriter, r *http.Request) {
	l, ok := h.load(w, r, actionView)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, recordResponse{FundingRequest: l.rec, Permissions: l.perms})
}
