// internal/app/store/fundingrequests/fundingrequeststore.go
package fundingrequeststore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/fundingdesk/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrNotFound is returned when no funding request matches the given ID.
var ErrNotFound = errors.New("funding request not found")

// Store persists funding requests in the funding_requests collection.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("funding_requests")}
}

// Create inserts a new request. ID, CreatedAt and empty attachment lists
// are filled in.
func (s *Store) Create(ctx context.Context, rec models.FundingRequest) (models.FundingRequest, error) {
	rec.ID = primitive.NewObjectID()
	rec.CreatedAt = time.Now().UTC()
	rec.UpdatedAt = nil
	if rec.AssignmentUploadPaths == nil {
		rec.AssignmentUploadPaths = []string{}
	}
	if rec.OtherUploadPaths == nil {
		rec.OtherUploadPaths = []string{}
	}
	if _, err := s.c.InsertOne(ctx, rec); err != nil {
		return models.FundingRequest{}, err
	}
	return rec, nil
}

// FindByID loads a request. Returns ErrNotFound if it does not exist.
func (s *Store) FindByID(ctx context.Context, id primitive.ObjectID) (*models.FundingRequest, error) {
	var rec models.FundingRequest
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&rec); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// Save replaces the stored document with rec and stamps UpdatedAt. Keys
// the model does not declare ride along in rec.Extra and are written
// back. Concurrent saves are last-writer-wins.
func (s *Store) Save(ctx context.Context, rec *models.FundingRequest) error {
	now := time.Now().UTC()
	rec.UpdatedAt = &now
	res, err := s.c.ReplaceOne(ctx, bson.M{"_id": rec.ID}, rec)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteOne removes a request. Returns ErrNotFound if nothing was deleted.
func (s *Store) DeleteOne(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
