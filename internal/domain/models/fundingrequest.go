// internal/domain/models/fundingrequest.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Funding request lifecycle statuses.
const (
	StatusSubmitted = "Submitted"
	StatusVerifying = "Verifying"
	StatusApproved  = "Approved"
	StatusFunded    = "Funded"
	StatusClosed    = "Closed"
)

// FundingStatuses lists the lifecycle statuses in order.
var FundingStatuses = []string{StatusSubmitted, StatusVerifying, StatusApproved, StatusFunded, StatusClosed}

// IsValidFundingStatus reports whether s is one of FundingStatuses.
func IsValidFundingStatus(s string) bool {
	for _, v := range FundingStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// FundingRequest is a funeral-funding case submitted by a funeral home or
// cemetery. Document keys stay camelCase because the collection predates
// this service and existing records must decode unchanged.
//
// NOTE:
//   - OwnerID is authoritative; UserID is the legacy owner field and is
//     only consulted when OwnerID is absent (see Owner).
//   - AssignmentUploadPath is a legacy mirror of AssignmentUploadPaths[0].
//     Mutate attachments through the attachments package, never directly.
//   - Keys owned by other parts of the system land in Extra and survive Save.
type FundingRequest struct {
	ID primitive.ObjectID `bson:"_id,omitempty" json:"id"`

	OwnerID *primitive.ObjectID `bson:"ownerId,omitempty" json:"ownerId,omitempty"`
	UserID  *primitive.ObjectID `bson:"userId,omitempty" json:"userId,omitempty"`

	Status string `bson:"status" json:"status"`

	FhCemID *primitive.ObjectID `bson:"fhCemId,omitempty" json:"fhCemId,omitempty"`
	FhName  string              `bson:"fhName,omitempty" json:"fhName,omitempty"`

	// Case data (plain CRUD fields).
	DecedentFirstName string     `bson:"decedentFirstName,omitempty" json:"decedentFirstName,omitempty"`
	DecedentLastName  string     `bson:"decedentLastName,omitempty" json:"decedentLastName,omitempty"`
	DateOfDeath       *time.Time `bson:"dateOfDeath,omitempty" json:"dateOfDeath,omitempty"`
	InsuranceCompany  string     `bson:"insuranceCompany,omitempty" json:"insuranceCompany,omitempty"`
	PolicyNumber      string     `bson:"policyNumber,omitempty" json:"policyNumber,omitempty"`
	AssignmentAmount  float64    `bson:"assignmentAmount,omitempty" json:"assignmentAmount,omitempty"`
	Notes             string     `bson:"notes,omitempty" json:"notes,omitempty"`

	// Stored document references (YYYY/MM/<uuid>.<ext>).
	AssignmentUploadPath  string   `bson:"assignmentUploadPath" json:"assignmentUploadPath"`
	AssignmentUploadPaths []string `bson:"assignmentUploadPaths" json:"assignmentUploadPaths"`
	OtherUploadPaths      []string `bson:"otherUploadPaths" json:"otherUploadPaths"`

	CreatedAt time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt *time.Time `bson:"updatedAt,omitempty" json:"updatedAt,omitempty"`

	// Extra carries stored keys this service does not model (PDF field
	// maps, other form data) so a full-document save writes them back.
	Extra bson.M `bson:",inline" json:"-"`
}

// Owner returns the submitting account: OwnerID when set, else the legacy
// UserID. The zero ObjectID is returned when neither is set.
func (f *FundingRequest) Owner() primitive.ObjectID {
	if f.OwnerID != nil && !f.OwnerID.IsZero() {
		return *f.OwnerID
	}
	if f.UserID != nil && !f.UserID.IsZero() {
		return *f.UserID
	}
	return primitive.NilObjectID
}

// IsSubmitted reports whether the request is still in the editable status.
func (f *FundingRequest) IsSubmitted() bool {
	return f.Status == StatusSubmitted
}
