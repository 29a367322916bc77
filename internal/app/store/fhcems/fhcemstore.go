// internal/app/store/fhcems/fhcemstore.go
package fhcemstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/fundingdesk/internal/app/system/normalize"
	"github.com/dalemusser/fundingdesk/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store persists funeral home and cemetery entities in the fh_cems collection.
type Store struct {
	c *mongo.Collection
}

var (
	ErrNotFound       = errors.New("funeral home or cemetery not found")
	ErrDuplicateFhCem = errors.New("a funeral home or cemetery with this name already exists")
	errBadKind        = errors.New(`kind must be "funeral_home"|"cemetery"`)
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("fh_cems")}
}

func (s *Store) Create(ctx context.Context, org models.FhCem) (models.FhCem, error) {
	switch org.Kind {
	case models.FhCemFuneralHome, models.FhCemCemetery:
	default:
		return models.FhCem{}, errBadKind
	}
	now := time.Now().UTC()
	org.ID = primitive.NewObjectID()
	org.Name = normalize.Name(org.Name)
	org.NameCI = text.Fold(org.Name)
	org.Status = normalize.Status(org.Status)
	org.CreatedAt = now
	org.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, org); err != nil {
		if wafflemongo.IsDup(err) {
			return models.FhCem{}, ErrDuplicateFhCem
		}
		return models.FhCem{}, err
	}
	return org, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.FhCem, error) {
	var org models.FhCem
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&org); err != nil {
		return models.FhCem{}, err
	}
	return org, nil
}

// Name returns the display name of the entity id, or ErrNotFound.
func (s *Store) Name(ctx context.Context, id primitive.ObjectID) (string, error) {
	var org models.FhCem
	proj := options.FindOne().SetProjection(bson.M{"name": 1})
	if err := s.c.FindOne(ctx, bson.M{"_id": id}, proj).Decode(&org); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", ErrNotFound
		}
		return "", err
	}
	return org.Name, nil
}
