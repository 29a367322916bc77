// internal/domain/models/organization.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FH/CEM organization kinds.
const (
	FhCemFuneralHome = "funeral_home"
	FhCemCemetery    = "cemetery"
)

// FhCem is a funeral home or cemetery that submits funding requests.
// Includes case/diacritic-insensitive fields for search/sort.
type FhCem struct {
	ID        primitive.ObjectID `bson:"_id"`
	Name      string             `bson:"name"`
	NameCI    string             `bson:"name_ci"` // ← always stored
	Kind      string             `bson:"kind"`    // funeral_home | cemetery
	City      string             `bson:"city"`
	State     string             `bson:"state"`
	Status    string             `bson:"status"`
	CreatedAt time.Time          `bson:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at"`
}
