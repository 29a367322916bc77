package fundingrequests

import (
	"encoding/json"
	"net/http"

	"github.com/dalemusser/fundingdesk/internal/app/policy/fundingpolicy"
	"github.com/dalemusser/fundingdesk/internal/app/system/attachments"
	"github.com/dalemusser/fundingdesk/internal/domain/models"
)

// recordResponse is a funding request plus the caller's permissions on it.
type recordResponse struct {
	*models.FundingRequest
	Permissions fundingpolicy.Permissions `json:"permissions"`
}

// attachmentsResponse reports a record's reference arrays after a change.
type attachmentsResponse struct {
	AssignmentUploadPath  string              `json:"assignmentUploadPath"`
	AssignmentUploadPaths []string            `json:"assignmentUploadPaths"`
	OtherUploadPaths      []string            `json:"otherUploadPaths"`
	Added                 map[string][]string `json:"added,omitempty"`
	Removed               string              `json:"removed,omitempty"`
}

func newAttachmentsResponse(rec *models.FundingRequest) attachmentsResponse {
	return attachmentsResponse{
		AssignmentUploadPath:  rec.AssignmentUploadPath,
		AssignmentUploadPaths: attachments.Of(rec, attachments.Assignment).Docs(),
		OtherUploadPaths:      attachments.Of(rec, attachments.Other).Docs(),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
