package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	fhcemstore "github.com/dalemusser/fundingdesk/internal/app/store/fhcems"
	"github.com/dalemusser/fundingdesk/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParams adds chi URL parameters to the request context.
// Use this in handler tests that call handlers without a router.
func WithChiURLParams(r *http.Request, kv ...string) *http.Request {
	rctx := chi.NewRouteContext()
	for i := 0; i+1 < len(kv); i += 2 {
		rctx.URLParams.Add(kv[i], kv[i+1])
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// CreateFhCem inserts an active funeral home with the given name.
func (f *Fixtures) CreateFhCem(ctx context.Context, name string) models.FhCem {
	f.t.Helper()

	org, err := fhcemstore.New(f.db).Create(ctx, models.FhCem{
		Name:  name,
		Kind:  models.FhCemFuneralHome,
		City:  "Test City",
		State: "TS",
	})
	if err != nil {
		f.t.Fatalf("CreateFhCem failed: %v", err)
	}
	return org
}

// CreateUser inserts u as-is apart from ID, timestamps and a default status.
func (f *Fixtures) CreateUser(ctx context.Context, u models.User) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	u.ID = primitive.NewObjectID()
	u.FullNameCI = text.Fold(u.FullName)
	if u.Status == "" {
		u.Status = "active"
	}
	u.CreatedAt = now
	u.UpdatedAt = now
	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("CreateUser failed: %v", err)
	}
	return u
}

// CreateFundingRequest inserts a Submitted request owned by owner.
func (f *Fixtures) CreateFundingRequest(ctx context.Context, owner primitive.ObjectID, fhName string) models.FundingRequest {
	f.t.Helper()

	rec := models.FundingRequest{
		ID:                    primitive.NewObjectID(),
		OwnerID:               &owner,
		Status:                models.StatusSubmitted,
		FhName:                fhName,
		AssignmentUploadPaths: []string{},
		OtherUploadPaths:      []string{},
		CreatedAt:             time.Now().UTC(),
	}
	if _, err := f.db.Collection("funding_requests").InsertOne(ctx, rec); err != nil {
		f.t.Fatalf("CreateFundingRequest failed: %v", err)
	}
	return rec
}
