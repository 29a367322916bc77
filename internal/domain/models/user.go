// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User roles (stored lowercase).
const (
	RoleAdmin = "admin"
	RoleFHCEM = "fh_cem"
	RoleNew   = "new"
)

// User represents staff admins, funeral home / cemetery (FH/CEM) accounts,
// and freshly registered accounts awaiting approval.
//
// FhCemID / FhName link an FH/CEM account to its organization. FhName is
// the legacy free-text link kept for accounts created before FH/CEM
// entities existed.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FullName     string             `bson:"full_name" json:"full_name"`
	FullNameCI   string             `bson:"full_name_ci" json:"full_name_ci"` // lowercase, diacritics-stripped
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"password_hash,omitempty" json:"-"`
	Role         string             `bson:"role" json:"role"` // admin | fh_cem | new
	Status       string             `bson:"status,omitempty" json:"status,omitempty"`

	FhCemID *primitive.ObjectID `bson:"fh_cem_id,omitempty" json:"fh_cem_id,omitempty"`
	FhName  string              `bson:"fh_name,omitempty" json:"fh_name,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
