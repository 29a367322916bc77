package fundingrequeststore_test

import (
	"errors"
	"testing"

	fundingrequeststore "github.com/dalemusser/fundingdesk/internal/app/store/fundingrequests"
	"github.com/dalemusser/fundingdesk/internal/domain/models"
	"github.com/dalemusser/fundingdesk/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_CreateAndFind(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := fundingrequeststore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := primitive.NewObjectID()
	created, err := store.Create(ctx, models.FundingRequest{
		OwnerID: &owner,
		Status:  models.StatusSubmitted,
		FhName:  "Smith Funeral Home",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.ID.IsZero() {
		t.Error("expected ID to be assigned")
	}
	if created.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}

	got, err := store.FindByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if got.Owner() != owner {
		t.Errorf("owner: got %s, want %s", got.Owner().Hex(), owner.Hex())
	}
	if got.AssignmentUploadPaths == nil || got.OtherUploadPaths == nil {
		t.Error("expected attachment lists to be stored as empty arrays")
	}
}

func TestStore_FindByID_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := fundingrequeststore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := store.FindByID(ctx, primitive.NewObjectID())
	if !errors.Is(err, fundingrequeststore.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_SavePersistsCamelCaseKeys(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := fundingrequeststore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	rec, err := store.Create(ctx, models.FundingRequest{Status: models.StatusSubmitted})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	rec.AssignmentUploadPaths = []string{"2024/03/a.pdf"}
	rec.AssignmentUploadPath = "2024/03/a.pdf"
	if err := store.Save(ctx, &rec); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if rec.UpdatedAt == nil {
		t.Error("expected UpdatedAt to be stamped")
	}

	var raw bson.M
	if err := db.Collection("funding_requests").FindOne(ctx, bson.M{"_id": rec.ID}).Decode(&raw); err != nil {
		t.Fatalf("raw read failed: %v", err)
	}
	if raw["assignmentUploadPath"] != "2024/03/a.pdf" {
		t.Errorf("assignmentUploadPath: got %v", raw["assignmentUploadPath"])
	}
}

func TestStore_Save_Missing(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := fundingrequeststore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	rec := &models.FundingRequest{ID: primitive.NewObjectID()}
	if err := store.Save(ctx, rec); !errors.Is(err, fundingrequeststore.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_DeleteOne(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := fundingrequeststore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	rec, err := store.Create(ctx, models.FundingRequest{Status: models.StatusSubmitted})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := store.DeleteOne(ctx, rec.ID); err != nil {
		t.Fatalf("DeleteOne failed: %v", err)
	}
	if err := store.DeleteOne(ctx, rec.ID); !errors.Is(err, fundingrequeststore.ErrNotFound) {
		t.Errorf("second delete: expected ErrNotFound, got %v", err)
	}
}

func TestStore_SaveKeepsUnmodeledKeys(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := fundingrequeststore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	id := primitive.NewObjectID()
	_, err := db.Collection("funding_requests").InsertOne(ctx, bson.M{
		"_id":                   id,
		"status":                models.StatusSubmitted,
		"assignmentUploadPath":  "",
		"assignmentUploadPaths": bson.A{},
		"otherUploadPaths":      bson.A{},
		"pdfFieldMap":           bson.M{"Decedent Name": "Ada Lovelace", "Policy #": "PN-42"},
		"insuranceAgentPhone":   "555-0100",
	})
	if err != nil {
		t.Fatalf("seed insert failed: %v", err)
	}

	rec, err := store.FindByID(ctx, id)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	rec.Notes = "reviewed"
	rec.OtherUploadPaths = []string{"2024/05/x.pdf"}
	if err := store.Save(ctx, rec); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	raw, err := db.Collection("funding_requests").FindOne(ctx, bson.M{"_id": id}).Raw()
	if err != nil {
		t.Fatalf("raw read failed: %v", err)
	}
	if got, ok := raw.Lookup("insuranceAgentPhone").StringValueOK(); !ok || got != "555-0100" {
		t.Errorf("insuranceAgentPhone: got %q, want %q", got, "555-0100")
	}
	if got, ok := raw.Lookup("pdfFieldMap", "Policy #").StringValueOK(); !ok || got != "PN-42" {
		t.Errorf("pdfFieldMap.Policy #: got %q, want %q", got, "PN-42")
	}
	if got, ok := raw.Lookup("notes").StringValueOK(); !ok || got != "reviewed" {
		t.Errorf("notes: got %q, want %q", got, "reviewed")
	}
}
