// internal/domain/models/orglinkage.go
package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// OrgLinkage is an account's link to its FH/CEM organization, read from
// the users collection when an access decision depends on it.
type OrgLinkage struct {
	FhCemID *primitive.ObjectID `bson:"fh_cem_id,omitempty" json:"fhCemId,omitempty"`
	FhName  string              `bson:"fh_name,omitempty" json:"fhName,omitempty"`
}
