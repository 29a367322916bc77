package validators_test

import (
	"testing"
	"time"

	"github.com/dalemusser/fundingdesk/internal/app/system/validators"
	"github.com/dalemusser/fundingdesk/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func TestEnsureAll_CreatesCollections(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := validators.EnsureAll(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
	// Second call must be a no-op.
	if err := validators.EnsureAll(ctx, db, nil); err != nil {
		t.Fatalf("second EnsureAll failed: %v", err)
	}

	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		t.Fatalf("ListCollectionNames failed: %v", err)
	}
	have := make(map[string]bool)
	for _, n := range names {
		have[n] = true
	}
	for _, want := range []string{"users", "fh_cems", "funding_requests", "audit_events"} {
		if !have[want] {
			t.Errorf("expected collection %q to exist", want)
		}
	}
}

func TestUsersValidator(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := validators.EnsureAll(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
	users := db.Collection("users")

	if _, err := users.InsertOne(ctx, bson.M{
		"email":  "director@oakhill.example",
		"role":   "fh_cem",
		"status": "active",
	}); err != nil {
		t.Errorf("valid user rejected: %v", err)
	}

	bad := []bson.M{
		{"role": "admin", "status": "active"},
		{"email": "x@example.com", "role": "member", "status": "active"},
		{"email": "x@example.com", "role": "admin", "status": "suspended"},
		{"email": "   ", "role": "admin", "status": "active"},
	}
	for _, doc := range bad {
		if _, err := users.InsertOne(ctx, doc); err == nil {
			t.Errorf("expected validation error for %v", doc)
		}
	}
}

func TestFhCemsValidator(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := validators.EnsureAll(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
	orgs := db.Collection("fh_cems")

	if _, err := orgs.InsertOne(ctx, bson.M{
		"name": "Riverside Cemetery", "name_ci": "riverside cemetery",
		"kind": "cemetery", "status": "active",
	}); err != nil {
		t.Errorf("valid fh/cem rejected: %v", err)
	}
	if _, err := orgs.InsertOne(ctx, bson.M{
		"name": "Chapel", "name_ci": "chapel", "kind": "church", "status": "active",
	}); err == nil {
		t.Error("expected validation error for unknown kind")
	}
}

func TestFundingRequestsValidator(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := validators.EnsureAll(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
	coll := db.Collection("funding_requests")

	paths := func(n int) bson.A {
		out := make(bson.A, n)
		for i := range out {
			out[i] = "2024/03/f.pdf"
		}
		return out
	}

	valid := bson.M{
		"status":                "Submitted",
		"ownerId":               primitive.NewObjectID(),
		"assignmentUploadPath":  "2024/03/f.pdf",
		"assignmentUploadPaths": paths(10),
		"otherUploadPaths":      paths(50),
		"createdAt":             time.Now(),
	}
	if _, err := coll.InsertOne(ctx, valid); err != nil {
		t.Errorf("valid record rejected: %v", err)
	}

	// Records written before the attachment lists existed carry only the
	// single legacy path.
	if _, err := coll.InsertOne(ctx, bson.M{"status": "Funded", "assignmentUploadPath": "old.pdf"}); err != nil {
		t.Errorf("legacy record rejected: %v", err)
	}

	bad := map[string]bson.M{
		"missing status":      {"createdAt": time.Now()},
		"unknown status":      {"status": "Pending"},
		"11 assignment files": {"status": "Submitted", "assignmentUploadPaths": paths(11)},
		"51 other files":      {"status": "Submitted", "otherUploadPaths": paths(51)},
		"non-string path":     {"status": "Submitted", "otherUploadPaths": bson.A{42}},
	}
	for name, doc := range bad {
		if _, err := coll.InsertOne(ctx, doc); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
}
